package notification

import (
	"context"

	"github.com/civicroot/platform/internal/shared/types"
)

// DefaultLimit applies when a recipient listing asks for no explicit
// limit; MaxLimit caps explicit ones, mirroring the complaint listings.
const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// Repository provides storage for notifications
type Repository interface {
	Create(ctx context.Context, n *Notification) error

	// CreateMany persists a batch from one trigger, e.g. fanning an
	// event to every staff member of an org.
	CreateMany(ctx context.Context, ns []*Notification) error

	// GetByRecipient returns notifications newest first. limit <= 0
	// means DefaultLimit.
	GetByRecipient(ctx context.Context, recipientID types.ID, limit int) ([]Notification, error)
	GetUnreadByRecipient(ctx context.Context, recipientID types.ID) ([]Notification, error)
	GetUnreadCount(ctx context.Context, recipientID types.ID) (int, error)

	MarkAsRead(ctx context.Context, id types.ID) (*Notification, error)
	MarkAllAsRead(ctx context.Context, recipientID types.ID) error
	Delete(ctx context.Context, id types.ID) error
}
