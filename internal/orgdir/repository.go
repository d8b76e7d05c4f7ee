package orgdir

import (
	"context"

	"github.com/civicroot/platform/internal/shared/types"
)

// Directory provides storage for registered organizations
type Directory interface {
	Create(ctx context.Context, org *Org) error
	Get(ctx context.Context, id types.ID) (*Org, error)
	Update(ctx context.Context, org *Org) error
	List(ctx context.Context, filter ListOrgsFilter) ([]Org, int, error)

	// FindCandidates returns verified orgs serving the category,
	// ordered by name for deterministic routing.
	FindCandidates(ctx context.Context, category string) ([]Org, error)
}
