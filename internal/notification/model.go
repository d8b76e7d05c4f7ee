package notification

import (
	"time"

	"github.com/civicroot/platform/internal/shared/types"
)

// RecipientType identifies the kind of recipient a notification
// targets; combined with the recipient ID it also names the realtime
// room the notification is pushed to.
type RecipientType string

const (
	RecipientOrg     RecipientType = "ngo"
	RecipientOrgUser RecipientType = "ngo-user"
	RecipientUser    RecipientType = "user"
)

// Type enumerates the notification kinds the platform emits
type Type string

const (
	TypeComplaintReceived Type = "complaint_received"
	TypeComplaintAssigned Type = "complaint_assigned"
	TypeComplaintUpdated  Type = "complaint_updated"
	TypeComplaintResolved Type = "complaint_resolved"
)

// Data carries back-references to the triggering complaint
type Data struct {
	ComplaintID types.ID  `json:"complaint_id"`
	Category    string    `json:"category,omitempty"`
	Status      string    `json:"status,omitempty"`
	OrgID       *types.ID `json:"org_id,omitempty"`
}

// Notification is one persisted per-recipient record. Content is
// immutable after creation; only the read state changes.
type Notification struct {
	ID            types.ID      `json:"id"`
	RecipientID   types.ID      `json:"recipient_id"`
	RecipientType RecipientType `json:"recipient_type"`
	Type          Type          `json:"type"`
	Title         string        `json:"title"`
	Message       string        `json:"message"`
	Data          Data          `json:"data"`
	IsRead        bool          `json:"is_read"`
	ReadAt        *time.Time    `json:"read_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}
