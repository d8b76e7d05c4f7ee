package orgdir

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/civicroot/platform/internal/shared/errors"
	"github.com/civicroot/platform/internal/shared/types"
)

// Handler provides HTTP handlers for the organization directory
type Handler struct {
	dir Directory
}

// NewHandler creates a new directory handler
func NewHandler(dir Directory) *Handler {
	return &Handler{dir: dir}
}

// Routes registers the organization routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListOrgs)
	r.Post("/", h.RegisterOrg)

	r.Route("/{orgID}", func(r chi.Router) {
		r.Get("/", h.GetOrg)
		r.Put("/", h.UpdateOrg)
		r.Post("/verify", h.VerifyOrg)
	})

	return r
}

// ListOrgs lists registered organizations
func (h *Handler) ListOrgs(w http.ResponseWriter, r *http.Request) {
	filter := ListOrgsFilter{
		Category: r.URL.Query().Get("category"),
	}

	if t := r.URL.Query().Get("type"); t != "" {
		orgType := OrgType(t)
		filter.Type = &orgType
	}

	if v := r.URL.Query().Get("verified"); v != "" {
		verified := v == "true"
		filter.Verified = &verified
	}

	orgs, total, err := h.dir.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  orgs,
		"total": total,
	})
}

// GetOrg gets an organization by ID
func (h *Handler) GetOrg(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "orgID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid organization ID"))
		return
	}

	org, err := h.dir.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, org)
}

// RegisterOrg registers a new organization. New orgs start unverified
// and are excluded from routing until an admin verifies them.
func (h *Handler) RegisterOrg(w http.ResponseWriter, r *http.Request) {
	var req RegisterOrgRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if req.Name == "" || len(req.Categories) == 0 {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"name":       "name is required",
			"categories": "at least one category is required",
		}))
		return
	}

	if !req.Type.Valid() {
		writeError(w, errors.BadRequest("invalid organization type"))
		return
	}

	org := &Org{
		ID:           types.NewID(),
		Name:         req.Name,
		Type:         req.Type,
		Categories:   req.Categories,
		Jurisdiction: req.Jurisdiction,
		IsVerified:   false,
	}

	if err := h.dir.Create(r.Context(), org); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, org)
}

// UpdateOrg updates an organization
func (h *Handler) UpdateOrg(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "orgID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid organization ID"))
		return
	}

	org, err := h.dir.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req UpdateOrgRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if req.Name != nil {
		org.Name = *req.Name
	}
	if req.Categories != nil {
		org.Categories = req.Categories
	}
	if req.Jurisdiction != nil {
		org.Jurisdiction = req.Jurisdiction
	}

	if err := h.dir.Update(r.Context(), org); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, org)
}

// VerifyOrg marks an organization as verified, making it eligible
// for routing
func (h *Handler) VerifyOrg(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "orgID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid organization ID"))
		return
	}

	org, err := h.dir.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	org.IsVerified = true
	if err := h.dir.Update(r.Context(), org); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, org)
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	if appErr, ok := err.(*errors.AppError); ok {
		w.WriteHeader(appErr.HTTPStatus)
		json.NewEncoder(w).Encode(map[string]any{
			"error":   appErr.Message,
			"code":    appErr.Code,
			"details": appErr.Details,
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
}
