package orgdir

import (
	"context"

	"go.uber.org/zap"

	"github.com/civicroot/platform/internal/shared/types"
)

// Resolver picks the organization a new complaint should be routed to.
// Resolution never fails: when no org matches, the complaint stays
// unrouted and the caller records a routing miss.
type Resolver struct {
	dir       Directory
	preferred []OrgType
	logger    *zap.Logger
}

// NewResolver creates a routing resolver. preferred lists org types in
// descending priority; unknown names are ignored.
func NewResolver(dir Directory, preferred []string, logger *zap.Logger) *Resolver {
	var order []OrgType
	for _, p := range preferred {
		t := OrgType(p)
		if t.Valid() {
			order = append(order, t)
		}
	}
	if len(order) == 0 {
		order = []OrgType{OrgTypeGov, OrgTypeUtility, OrgTypeNGO}
	}
	return &Resolver{dir: dir, preferred: order, logger: logger}
}

// Resolve returns the best org for the category and optional location.
// Three passes in strict order: preferred-type org covering the point,
// preferred-type org matching the category, then any candidate. A
// non-preferred org covering the point never outranks a preferred org
// that only matches the category. Only verified orgs are considered.
// Returns nil when nothing matches.
func (r *Resolver) Resolve(ctx context.Context, category string, location *types.Point) *Org {
	candidates, err := r.dir.FindCandidates(ctx, category)
	if err != nil {
		r.logger.Warn("routing lookup failed",
			zap.String("category", category),
			zap.Error(err),
		)
		return nil
	}
	if len(candidates) == 0 {
		return nil
	}

	if location != nil {
		var covering []Org
		for _, org := range candidates {
			if org.Covers(*location) {
				covering = append(covering, org)
			}
		}
		if org := r.pickPreferred(covering); org != nil {
			return org
		}
	}

	if org := r.pickPreferred(candidates); org != nil {
		return org
	}

	return &candidates[0]
}

// pickPreferred returns the first org of the highest-priority type
// present, or nil when the slice holds none of the preferred types.
func (r *Resolver) pickPreferred(orgs []Org) *Org {
	for _, t := range r.preferred {
		for i := range orgs {
			if orgs[i].Type == t {
				return &orgs[i]
			}
		}
	}
	return nil
}
