package orgdir

import (
	"time"

	"github.com/civicroot/platform/internal/shared/types"
)

// OrgType defines the kind of organization receiving complaints
type OrgType string

const (
	OrgTypeGov     OrgType = "Gov"
	OrgTypeNGO     OrgType = "NGO"
	OrgTypeUtility OrgType = "Utility"
	OrgTypePrivate OrgType = "Private"
)

// Valid reports whether the org type is one of the known kinds
func (t OrgType) Valid() bool {
	switch t {
	case OrgTypeGov, OrgTypeNGO, OrgTypeUtility, OrgTypePrivate:
		return true
	}
	return false
}

// Org represents an organization registered to handle complaints
type Org struct {
	ID           types.ID            `json:"id"`
	Name         string              `json:"name"`
	Type         OrgType             `json:"type"`
	Categories   []string            `json:"categories"`
	Jurisdiction *types.MultiPolygon `json:"jurisdiction,omitempty"`
	IsVerified   bool                `json:"is_verified"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ServesCategory reports whether the org handles the given category
func (o *Org) ServesCategory(category string) bool {
	for _, c := range o.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Covers reports whether the point falls inside the org's jurisdiction.
// An org without a jurisdiction covers nothing geographically; it can
// still be matched by category alone.
func (o *Org) Covers(p types.Point) bool {
	return o.Jurisdiction != nil && o.Jurisdiction.Contains(p)
}

// RegisterOrgRequest is the request to register an organization
type RegisterOrgRequest struct {
	Name         string              `json:"name"`
	Type         OrgType             `json:"type"`
	Categories   []string            `json:"categories"`
	Jurisdiction *types.MultiPolygon `json:"jurisdiction,omitempty"`
}

// UpdateOrgRequest is the request to update an organization
type UpdateOrgRequest struct {
	Name         *string             `json:"name,omitempty"`
	Categories   []string            `json:"categories,omitempty"`
	Jurisdiction *types.MultiPolygon `json:"jurisdiction,omitempty"`
}

// ListOrgsFilter defines filters for listing organizations
type ListOrgsFilter struct {
	Type     *OrgType `json:"type,omitempty"`
	Category string   `json:"category,omitempty"`
	Verified *bool    `json:"verified,omitempty"`
	Limit    int      `json:"limit,omitempty"`
	Offset   int      `json:"offset,omitempty"`
}
