package domain

import (
	"fmt"
	"time"

	"github.com/civicroot/platform/internal/shared/types"
)

// Status defines the lifecycle state of a complaint
type Status string

const (
	StatusOpen       Status = "open"
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

// Valid reports whether the status is a known lifecycle state
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusAssigned, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// Priority defines complaint priority
type Priority string

const (
	PriorityLow  Priority = "low"
	PriorityMed  Priority = "med"
	PriorityHigh Priority = "high"
)

// Valid reports whether the priority is a known level
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMed, PriorityHigh:
		return true
	}
	return false
}

// transitions is the default-deny table of permitted status moves.
// Admin callers can bypass it with the force flag on ApplyStatus.
var transitions = map[Status][]Status{
	StatusOpen:       {StatusAssigned, StatusInProgress},
	StatusAssigned:   {StatusInProgress, StatusOpen},
	StatusInProgress: {StatusResolved, StatusAssigned},
	StatusResolved:   {StatusClosed, StatusInProgress},
	StatusClosed:     {},
}

// CanTransition reports whether the move from one status to another is
// permitted without an administrative override
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Complaint is the aggregate root for a reported civic issue
type Complaint struct {
	ID         types.ID  `json:"id"`
	ReporterID types.ID  `json:"reporter_id"`
	SocietyID  *types.ID `json:"society_id,omitempty"`

	// OrgID is the organization currently responsible. Null means the
	// complaint is unrouted and awaits manual triage.
	OrgID *types.ID `json:"org_id,omitempty"`

	Category    string       `json:"category"`
	Subcategory string       `json:"subcategory,omitempty"`
	Description string       `json:"description,omitempty"`
	Media       []string     `json:"media,omitempty"`
	Location    *types.Point `json:"location,omitempty"`

	Status     Status    `json:"status"`
	Priority   Priority  `json:"priority"`
	AssignedTo *types.ID `json:"assigned_to,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewComplaint creates a new complaint with validation. Every complaint
// starts open and unrouted; routing happens afterwards via Route.
func NewComplaint(
	reporterID types.ID,
	category, subcategory, description string,
	media []string,
	location *types.Point,
	societyID *types.ID,
	priority Priority,
) (*Complaint, error) {
	if reporterID.IsZero() {
		return nil, fmt.Errorf("reporter is required")
	}
	if category == "" {
		return nil, fmt.Errorf("category is required")
	}
	if priority == "" {
		priority = PriorityMed
	}
	if !priority.Valid() {
		return nil, fmt.Errorf("invalid priority %q", priority)
	}

	now := time.Now()
	return &Complaint{
		ID:          types.NewID(),
		ReporterID:  reporterID,
		SocietyID:   societyID,
		Category:    category,
		Subcategory: subcategory,
		Description: description,
		Media:       media,
		Location:    location,
		Status:      StatusOpen,
		Priority:    priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Route records the organization responsible for the complaint
func (c *Complaint) Route(orgID types.ID) {
	c.OrgID = &orgID
	c.UpdatedAt = time.Now()
}

// ApplyStatus moves the complaint to a new status. Without force the
// move must be permitted by the transition table. An assignee only
// makes sense while work is active, so moving to open or closed
// clears AssignedTo.
func (c *Complaint) ApplyStatus(to Status, force bool) error {
	if !to.Valid() {
		return fmt.Errorf("invalid status %q", to)
	}
	if to == c.Status {
		return fmt.Errorf("complaint is already %s", to)
	}
	if !force && !CanTransition(c.Status, to) {
		return fmt.Errorf("cannot move from %s to %s", c.Status, to)
	}

	c.Status = to
	if to == StatusOpen || to == StatusClosed {
		c.AssignedTo = nil
	}
	c.UpdatedAt = time.Now()
	return nil
}

// SetAssignee assigns a staff member and returns the previous assignee,
// if any. An open complaint advances to assigned; otherwise the status
// is left alone so reassignment mid-work does not reset progress.
func (c *Complaint) SetAssignee(staffID types.ID) *types.ID {
	previous := c.AssignedTo
	c.AssignedTo = &staffID
	if c.Status == StatusOpen {
		c.Status = StatusAssigned
	}
	c.UpdatedAt = time.Now()
	return previous
}
