package domain

import (
	"fmt"
	"time"

	"github.com/civicroot/platform/internal/shared/types"
)

// ProgressUpdate is one field-work check-in attached to a complaint.
// The ledger is append-only and ordered by append time, not by any
// client-supplied date.
type ProgressUpdate struct {
	ID            types.ID  `json:"id"`
	ComplaintID   types.ID  `json:"complaint_id"`
	Date          time.Time `json:"date"`
	Description   string    `json:"description"`
	Photos        []string  `json:"photos,omitempty"`
	UpdatedBy     types.ID  `json:"updated_by"`
	UpdatedByName string    `json:"updated_by_name,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewProgressUpdate creates a progress update with validation
func NewProgressUpdate(complaintID types.ID, description string, photos []string, updatedBy types.ID, updatedByName string) (*ProgressUpdate, error) {
	if description == "" {
		return nil, fmt.Errorf("description is required")
	}
	if updatedBy.IsZero() {
		return nil, fmt.Errorf("author is required")
	}

	now := time.Now()
	return &ProgressUpdate{
		ID:            types.NewID(),
		ComplaintID:   complaintID,
		Date:          now,
		Description:   description,
		Photos:        photos,
		UpdatedBy:     updatedBy,
		UpdatedByName: updatedByName,
		CreatedAt:     now,
	}, nil
}
