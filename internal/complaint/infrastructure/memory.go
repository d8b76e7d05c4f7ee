package infrastructure

import (
	"context"
	"sort"
	"sync"

	"github.com/civicroot/platform/internal/complaint/domain"
	"github.com/civicroot/platform/internal/shared/errors"
	"github.com/civicroot/platform/internal/shared/types"
)

// MemoryRepository is an in-memory complaint store used in tests and
// when the platform runs without a database.
type MemoryRepository struct {
	mu         sync.RWMutex
	complaints map[types.ID]*domain.Complaint
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{complaints: make(map[types.ID]*domain.Complaint)}
}

func (r *MemoryRepository) Save(_ context.Context, c *domain.Complaint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.complaints[c.ID]; exists {
		return errors.Conflict("complaint already exists")
	}

	clone := *c
	r.complaints[c.ID] = &clone
	return nil
}

func (r *MemoryRepository) FindByID(_ context.Context, id types.ID) (*domain.Complaint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.complaints[id]
	if !ok {
		return nil, errors.NotFound("complaint", id.String())
	}
	clone := *c
	return &clone, nil
}

func (r *MemoryRepository) Update(_ context.Context, c *domain.Complaint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.complaints[c.ID]; !ok {
		return errors.NotFound("complaint", c.ID.String())
	}

	clone := *c
	r.complaints[c.ID] = &clone
	return nil
}

func (r *MemoryRepository) List(_ context.Context, filter domain.ListFilter) ([]domain.Complaint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []domain.Complaint
	for _, c := range r.complaints {
		if filter.ID != nil && c.ID != *filter.ID {
			continue
		}
		if filter.SocietyID != nil && (c.SocietyID == nil || *c.SocietyID != *filter.SocietyID) {
			continue
		}
		if filter.OrgID != nil && (c.OrgID == nil || *c.OrgID != *filter.OrgID) {
			continue
		}
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		if filter.AssignedTo != nil && (c.AssignedTo == nil || *c.AssignedTo != *filter.AssignedTo) {
			continue
		}
		if filter.Category != "" && c.Category != filter.Category {
			continue
		}
		matched = append(matched, *c)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	limit := domain.MaxListLimit
	if filter.Limit > 0 && filter.Limit < limit {
		limit = filter.Limit
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}

	return matched, nil
}

// MemoryEventLog is an in-memory append-only event log
type MemoryEventLog struct {
	mu     sync.RWMutex
	events map[types.ID][]domain.ComplaintEvent
}

// NewMemoryEventLog creates an empty in-memory event log
func NewMemoryEventLog() *MemoryEventLog {
	return &MemoryEventLog{events: make(map[types.ID][]domain.ComplaintEvent)}
}

func (l *MemoryEventLog) Append(_ context.Context, event domain.ComplaintEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events[event.ComplaintID] = append(l.events[event.ComplaintID], event)
	return nil
}

func (l *MemoryEventLog) ListFor(_ context.Context, complaintID types.ID) ([]domain.ComplaintEvent, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stored := l.events[complaintID]
	events := make([]domain.ComplaintEvent, len(stored))
	copy(events, stored)

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CreatedAt.Before(events[j].CreatedAt)
	})

	return events, nil
}

// MemoryProgressLedger is an in-memory append-only progress ledger
type MemoryProgressLedger struct {
	mu      sync.RWMutex
	updates map[types.ID][]domain.ProgressUpdate
}

// NewMemoryProgressLedger creates an empty in-memory progress ledger
func NewMemoryProgressLedger() *MemoryProgressLedger {
	return &MemoryProgressLedger{updates: make(map[types.ID][]domain.ProgressUpdate)}
}

func (l *MemoryProgressLedger) Append(_ context.Context, update *domain.ProgressUpdate) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.updates[update.ComplaintID] = append(l.updates[update.ComplaintID], *update)
	return nil
}

func (l *MemoryProgressLedger) ListFor(_ context.Context, complaintID types.ID) ([]domain.ProgressUpdate, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stored := l.updates[complaintID]
	updates := make([]domain.ProgressUpdate, len(stored))
	copy(updates, stored)
	return updates, nil
}
