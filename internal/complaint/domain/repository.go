package domain

import (
	"context"

	"github.com/civicroot/platform/internal/shared/types"
)

// Repository defines the interface for complaint persistence
type Repository interface {
	Save(ctx context.Context, c *Complaint) error
	FindByID(ctx context.Context, id types.ID) (*Complaint, error)
	Update(ctx context.Context, c *Complaint) error
	List(ctx context.Context, filter ListFilter) ([]Complaint, error)
}

// EventLog is the append-only audit trail for complaints. No mutation
// or deletion API exists on purpose.
type EventLog interface {
	Append(ctx context.Context, event ComplaintEvent) error

	// ListFor returns events ascending by creation time.
	ListFor(ctx context.Context, complaintID types.ID) ([]ComplaintEvent, error)
}

// ProgressLedger stores field-work updates, append-only
type ProgressLedger interface {
	Append(ctx context.Context, update *ProgressUpdate) error

	// ListFor returns updates in append order.
	ListFor(ctx context.Context, complaintID types.ID) ([]ProgressUpdate, error)
}

// ListFilter defines filters for listing complaints. Results are
// newest first, capped at 100.
type ListFilter struct {
	ID         *types.ID `json:"id,omitempty"`
	SocietyID  *types.ID `json:"society_id,omitempty"`
	OrgID      *types.ID `json:"org_id,omitempty"`
	Status     *Status   `json:"status,omitempty"`
	AssignedTo *types.ID `json:"assigned_to,omitempty"`
	Category   string    `json:"category,omitempty"`
	Limit      int       `json:"limit,omitempty"`
}

// MaxListLimit caps complaint listings
const MaxListLimit = 100
