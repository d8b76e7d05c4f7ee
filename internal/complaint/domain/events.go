package domain

import (
	"time"

	"github.com/civicroot/platform/internal/shared/types"
)

// EventType defines the kind of audit event
type EventType string

const (
	EventCreated       EventType = "created"
	EventStatusChanged EventType = "status_changed"
	EventAssigned      EventType = "assigned"
	EventComment       EventType = "comment"
)

// ComplaintEvent is an append-only audit record. Events are never
// mutated or deleted; replayed in creation order they reconstruct
// every observable field of the complaint.
type ComplaintEvent struct {
	ID          types.ID  `json:"id"`
	ComplaintID types.ID  `json:"complaint_id"`
	Type        EventType `json:"type"`
	ActorID     types.ID  `json:"actor_id"`
	Payload     any       `json:"payload,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreatedPayload accompanies a created event
type CreatedPayload struct {
	Category  string    `json:"category"`
	SocietyID *types.ID `json:"society_id,omitempty"`
	OrgID     *types.ID `json:"org_id,omitempty"`
	Priority  Priority  `json:"priority"`
}

// StatusChangedPayload accompanies a status_changed event
type StatusChangedPayload struct {
	From   Status `json:"from"`
	To     Status `json:"to"`
	Note   string `json:"note,omitempty"`
	Forced bool   `json:"forced,omitempty"`
}

// AssignedPayload accompanies an assigned event
type AssignedPayload struct {
	AssignedTo types.ID  `json:"assigned_to"`
	Previous   *types.ID `json:"previous,omitempty"`
	OrgID      *types.ID `json:"org_id,omitempty"`
}

// CommentPayload accompanies a comment event
type CommentPayload struct {
	Message    string `json:"message"`
	Visibility string `json:"visibility,omitempty"`
}

func newEvent(complaintID types.ID, eventType EventType, actorID types.ID, payload any) ComplaintEvent {
	return ComplaintEvent{
		ID:          types.NewID(),
		ComplaintID: complaintID,
		Type:        eventType,
		ActorID:     actorID,
		Payload:     payload,
		CreatedAt:   time.Now(),
	}
}

// NewCreatedEvent records the birth of a complaint
func NewCreatedEvent(c *Complaint, actorID types.ID) ComplaintEvent {
	return newEvent(c.ID, EventCreated, actorID, CreatedPayload{
		Category:  c.Category,
		SocietyID: c.SocietyID,
		OrgID:     c.OrgID,
		Priority:  c.Priority,
	})
}

// NewStatusChangedEvent records a status transition
func NewStatusChangedEvent(complaintID types.ID, actorID types.ID, from, to Status, note string, forced bool) ComplaintEvent {
	return newEvent(complaintID, EventStatusChanged, actorID, StatusChangedPayload{
		From:   from,
		To:     to,
		Note:   note,
		Forced: forced,
	})
}

// NewAssignedEvent records an assignment, keeping the previous assignee
// so the log retains full history
func NewAssignedEvent(complaintID types.ID, actorID, assignedTo types.ID, previous *types.ID, orgID *types.ID) ComplaintEvent {
	return newEvent(complaintID, EventAssigned, actorID, AssignedPayload{
		AssignedTo: assignedTo,
		Previous:   previous,
		OrgID:      orgID,
	})
}

// NewCommentEvent records a comment on the audit trail
func NewCommentEvent(complaintID types.ID, actorID types.ID, message, visibility string) ComplaintEvent {
	return newEvent(complaintID, EventComment, actorID, CommentPayload{
		Message:    message,
		Visibility: visibility,
	})
}
