package orgdir

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/civicroot/platform/internal/shared/types"
)

func cityBlock(lat, lng float64) *types.MultiPolygon {
	mp := types.MultiPolygon{
		{
			{
				{Lat: lat, Lng: lng},
				{Lat: lat + 1, Lng: lng},
				{Lat: lat + 1, Lng: lng + 1},
				{Lat: lat, Lng: lng + 1},
			},
		},
	}
	return &mp
}

func seedOrg(t *testing.T, dir Directory, name string, orgType OrgType, categories []string, jurisdiction *types.MultiPolygon, verified bool) *Org {
	t.Helper()
	org := &Org{
		ID:           types.NewID(),
		Name:         name,
		Type:         orgType,
		Categories:   categories,
		Jurisdiction: jurisdiction,
		IsVerified:   verified,
	}
	if err := dir.Create(context.Background(), org); err != nil {
		t.Fatalf("seed org %s: %v", name, err)
	}
	return org
}

func TestResolvePrefersJurisdictionMatch(t *testing.T) {
	dir := NewMemoryDirectory()
	resolver := NewResolver(dir, []string{"Gov", "Utility", "NGO"}, zap.NewNop())

	// Gov org serves the category but covers a different district.
	seedOrg(t, dir, "City Sanitation Dept", OrgTypeGov, []string{"garbage"}, cityBlock(40, 40), true)
	ngo := seedOrg(t, dir, "Clean Streets NGO", OrgTypeNGO, []string{"garbage"}, cityBlock(0, 0), true)

	got := resolver.Resolve(context.Background(), "garbage", &types.Point{Lat: 0.5, Lng: 0.5})
	if got == nil || got.ID != ngo.ID {
		t.Fatalf("expected NGO covering the location, got %+v", got)
	}
}

func TestResolvePreferredTypeOrder(t *testing.T) {
	dir := NewMemoryDirectory()
	resolver := NewResolver(dir, []string{"Gov", "Utility", "NGO"}, zap.NewNop())

	gov := seedOrg(t, dir, "Water Board", OrgTypeGov, []string{"water"}, cityBlock(0, 0), true)
	seedOrg(t, dir, "Aqua Utility", OrgTypeUtility, []string{"water"}, cityBlock(0, 0), true)

	got := resolver.Resolve(context.Background(), "water", &types.Point{Lat: 0.5, Lng: 0.5})
	if got == nil || got.ID != gov.ID {
		t.Fatalf("expected Gov org to win within jurisdiction, got %+v", got)
	}
}

func TestResolveCoveringNonPreferredLosesToPreferredCategoryMatch(t *testing.T) {
	dir := NewMemoryDirectory()
	resolver := NewResolver(dir, []string{"Gov", "Utility", "NGO"}, zap.NewNop())

	// The Private contractor covers the point but is not a preferred
	// type; the Gov org only matches the category. Gov must win.
	gov := seedOrg(t, dir, "Roads Dept", OrgTypeGov, []string{"pothole"}, cityBlock(40, 40), true)
	seedOrg(t, dir, "Acme Paving", OrgTypePrivate, []string{"pothole"}, cityBlock(0, 0), true)

	got := resolver.Resolve(context.Background(), "pothole", &types.Point{Lat: 0.5, Lng: 0.5})
	if got == nil || got.ID != gov.ID {
		t.Fatalf("expected preferred-type category match to win, got %+v", got)
	}
}

func TestResolveCategoryFallbackWithoutLocation(t *testing.T) {
	dir := NewMemoryDirectory()
	resolver := NewResolver(dir, []string{"Gov", "Utility", "NGO"}, zap.NewNop())

	utility := seedOrg(t, dir, "Power Grid Co", OrgTypeUtility, []string{"electricity"}, nil, true)
	seedOrg(t, dir, "Volt Watch", OrgTypeNGO, []string{"electricity"}, nil, true)

	got := resolver.Resolve(context.Background(), "electricity", nil)
	if got == nil || got.ID != utility.ID {
		t.Fatalf("expected Utility org by preference, got %+v", got)
	}
}

func TestResolveIgnoresUnverified(t *testing.T) {
	dir := NewMemoryDirectory()
	resolver := NewResolver(dir, []string{"Gov", "Utility", "NGO"}, zap.NewNop())

	seedOrg(t, dir, "Pending Dept", OrgTypeGov, []string{"roads"}, cityBlock(0, 0), false)

	if got := resolver.Resolve(context.Background(), "roads", &types.Point{Lat: 0.5, Lng: 0.5}); got != nil {
		t.Fatalf("unverified org must not be routed to, got %+v", got)
	}
}

func TestResolveFallsBackToAnyCandidate(t *testing.T) {
	dir := NewMemoryDirectory()
	resolver := NewResolver(dir, []string{"Gov"}, zap.NewNop())

	private := seedOrg(t, dir, "Acme Repairs", OrgTypePrivate, []string{"streetlights"}, nil, true)

	got := resolver.Resolve(context.Background(), "streetlights", nil)
	if got == nil || got.ID != private.ID {
		t.Fatalf("expected fallback to the only candidate, got %+v", got)
	}
}

func TestResolveNoCandidates(t *testing.T) {
	dir := NewMemoryDirectory()
	resolver := NewResolver(dir, nil, zap.NewNop())

	if got := resolver.Resolve(context.Background(), "noise", nil); got != nil {
		t.Fatalf("expected nil for unknown category, got %+v", got)
	}
}
