package orgdir

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/civicroot/platform/internal/shared/errors"
	"github.com/civicroot/platform/internal/shared/types"
)

// MemoryDirectory is an in-memory Directory used in tests and when the
// platform runs without a database.
type MemoryDirectory struct {
	mu   sync.RWMutex
	orgs map[types.ID]*Org
}

// NewMemoryDirectory creates an empty in-memory directory
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{orgs: make(map[types.ID]*Org)}
}

func (d *MemoryDirectory) Create(_ context.Context, org *Org) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.orgs[org.ID]; exists {
		return errors.Conflict("organization already exists")
	}

	clone := *org
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now()
		clone.UpdatedAt = clone.CreatedAt
	}
	d.orgs[org.ID] = &clone
	return nil
}

func (d *MemoryDirectory) Get(_ context.Context, id types.ID) (*Org, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	org, ok := d.orgs[id]
	if !ok {
		return nil, errors.NotFound("organization", id.String())
	}
	clone := *org
	return &clone, nil
}

func (d *MemoryDirectory) Update(_ context.Context, org *Org) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.orgs[org.ID]; !ok {
		return errors.NotFound("organization", org.ID.String())
	}

	clone := *org
	clone.UpdatedAt = time.Now()
	d.orgs[org.ID] = &clone
	return nil
}

func (d *MemoryDirectory) List(_ context.Context, filter ListOrgsFilter) ([]Org, int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var matched []Org
	for _, org := range d.orgs {
		if filter.Type != nil && org.Type != *filter.Type {
			continue
		}
		if filter.Category != "" && !org.ServesCategory(filter.Category) {
			continue
		}
		if filter.Verified != nil && org.IsVerified != *filter.Verified {
			continue
		}
		matched = append(matched, *org)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })

	total := len(matched)

	offset := filter.Offset
	if offset > len(matched) {
		offset = len(matched)
	}
	matched = matched[offset:]

	limit := 50
	if filter.Limit > 0 && filter.Limit <= 100 {
		limit = filter.Limit
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}

	return matched, total, nil
}

func (d *MemoryDirectory) FindCandidates(_ context.Context, category string) ([]Org, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var candidates []Org
	for _, org := range d.orgs {
		if org.IsVerified && org.ServesCategory(category) {
			candidates = append(candidates, *org)
		}
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Name < candidates[j].Name })
	return candidates, nil
}
