package notification

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/civicroot/platform/internal/shared/errors"
	"github.com/civicroot/platform/internal/shared/types"
)

// MemoryRepository is an in-memory notification store used in tests
// and when the platform runs without a database.
type MemoryRepository struct {
	mu            sync.RWMutex
	notifications map[types.ID]*Notification
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{notifications: make(map[types.ID]*Notification)}
}

func (r *MemoryRepository) Create(_ context.Context, n *Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *n
	r.notifications[n.ID] = &clone
	return nil
}

func (r *MemoryRepository) CreateMany(ctx context.Context, ns []*Notification) error {
	for _, n := range ns {
		if err := r.Create(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

func (r *MemoryRepository) GetByRecipient(_ context.Context, recipientID types.ID, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = DefaultLimit
	} else if limit > MaxLimit {
		limit = MaxLimit
	}

	matched := r.collect(func(n *Notification) bool { return n.RecipientID == recipientID })
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *MemoryRepository) GetUnreadByRecipient(_ context.Context, recipientID types.ID) ([]Notification, error) {
	return r.collect(func(n *Notification) bool {
		return n.RecipientID == recipientID && !n.IsRead
	}), nil
}

func (r *MemoryRepository) GetUnreadCount(ctx context.Context, recipientID types.ID) (int, error) {
	unread, _ := r.GetUnreadByRecipient(ctx, recipientID)
	return len(unread), nil
}

func (r *MemoryRepository) MarkAsRead(_ context.Context, id types.ID) (*Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notifications[id]
	if !ok {
		return nil, errors.NotFound("notification", id.String())
	}

	now := time.Now()
	n.IsRead = true
	n.ReadAt = &now

	clone := *n
	return &clone, nil
}

func (r *MemoryRepository) MarkAllAsRead(_ context.Context, recipientID types.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, n := range r.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			n.IsRead = true
			n.ReadAt = &now
		}
	}
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id types.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.notifications[id]; !ok {
		return errors.NotFound("notification", id.String())
	}
	delete(r.notifications, id)
	return nil
}

// collect returns matching notifications newest first
func (r *MemoryRepository) collect(match func(*Notification) bool) []Notification {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []Notification
	for _, n := range r.notifications {
		if match(n) {
			matched = append(matched, *n)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched
}
