package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/civicroot/platform/internal/complaint/domain"
	"github.com/civicroot/platform/internal/complaint/engine"
	"github.com/civicroot/platform/internal/shared/auth"
	"github.com/civicroot/platform/internal/shared/errors"
	"github.com/civicroot/platform/internal/shared/types"
)

// Handler provides HTTP handlers for the complaint lifecycle
type Handler struct {
	engine *engine.Engine
}

// NewHandler creates a new complaint handler
func NewHandler(eng *engine.Engine) *Handler {
	return &Handler{engine: eng}
}

// Routes registers the complaint routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListComplaints)
	r.Post("/", h.CreateComplaint)

	r.Route("/{complaintID}", func(r chi.Router) {
		r.Get("/", h.GetComplaint)
		r.Get("/events", h.ListEvents)
		r.Put("/status", h.UpdateStatus)
		r.Post("/assign", h.Assign)
		r.Post("/comments", h.AddComment)
		r.Post("/route", h.Reroute)

		r.Route("/progress", func(r chi.Router) {
			r.Get("/", h.ListProgress)
			r.Post("/", h.AddProgressUpdate)
		})
	})

	return r
}

// CreateComplaintRequest is the request to file a complaint
type CreateComplaintRequest struct {
	ReporterID  types.ID        `json:"reporter_id"`
	Category    string          `json:"category"`
	Subcategory string          `json:"subcategory,omitempty"`
	Description string          `json:"description,omitempty"`
	Media       []string        `json:"media,omitempty"`
	Location    *types.Point    `json:"location,omitempty"`
	SocietyID   *types.ID       `json:"society_id,omitempty"`
	Priority    domain.Priority `json:"priority,omitempty"`
}

// CreateComplaint files a new complaint and routes it
func (h *Handler) CreateComplaint(w http.ResponseWriter, r *http.Request) {
	var req CreateComplaintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	reporterID := req.ReporterID
	if actor := auth.GetActor(r.Context()); actor != nil {
		reporterID = actor.ID
	}

	c, err := h.engine.Create(r.Context(), engine.CreateRequest{
		ReporterID:  reporterID,
		Category:    req.Category,
		Subcategory: req.Subcategory,
		Description: req.Description,
		Media:       req.Media,
		Location:    req.Location,
		SocietyID:   req.SocietyID,
		Priority:    req.Priority,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, c)
}

// ListComplaints lists complaints newest first
func (h *Handler) ListComplaints(w http.ResponseWriter, r *http.Request) {
	filter := domain.ListFilter{
		Category: r.URL.Query().Get("category"),
	}

	q := r.URL.Query()

	if v := q.Get("society_id"); v != "" {
		id, err := types.ParseID(v)
		if err != nil {
			writeError(w, errors.BadRequest("invalid society_id"))
			return
		}
		filter.SocietyID = &id
	}

	if v := q.Get("org_id"); v != "" {
		id, err := types.ParseID(v)
		if err != nil {
			writeError(w, errors.BadRequest("invalid org_id"))
			return
		}
		filter.OrgID = &id
	}

	if v := q.Get("assigned_to"); v != "" {
		id, err := types.ParseID(v)
		if err != nil {
			writeError(w, errors.BadRequest("invalid assigned_to"))
			return
		}
		filter.AssignedTo = &id
	}

	if v := q.Get("status"); v != "" {
		status := domain.Status(v)
		if !status.Valid() {
			writeError(w, errors.BadRequest("invalid status"))
			return
		}
		filter.Status = &status
	}

	if v := q.Get("limit"); v != "" {
		filter.Limit, _ = strconv.Atoi(v)
	}

	complaints, err := h.engine.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": complaints})
}

// GetComplaint gets a complaint by ID
func (h *Handler) GetComplaint(w http.ResponseWriter, r *http.Request) {
	id, ok := complaintID(w, r)
	if !ok {
		return
	}

	c, err := h.engine.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// ListEvents returns the audit trail, ascending by creation time
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := complaintID(w, r)
	if !ok {
		return
	}

	events, err := h.engine.ListEvents(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": events})
}

// UpdateStatusRequest is the request to change complaint status
type UpdateStatusRequest struct {
	Status  domain.Status `json:"status"`
	Note    string        `json:"note,omitempty"`
	Force   bool          `json:"force,omitempty"`
	ActorID types.ID      `json:"actor_id,omitempty"`
}

// UpdateStatus moves a complaint through the state machine. The force
// flag bypasses the transition table and is reserved for admins.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := complaintID(w, r)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	actorID, isAdmin := resolveActor(r, req.ActorID)
	force := req.Force && isAdmin

	c, err := h.engine.SetStatus(r.Context(), id, req.Status, actorID, req.Note, force)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// AssignRequest is the request to assign a staff member
type AssignRequest struct {
	AssignedTo types.ID `json:"assigned_to"`
	ActorID    types.ID `json:"actor_id,omitempty"`
}

// Assign sets the staff member responsible for a complaint
func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	id, ok := complaintID(w, r)
	if !ok {
		return
	}

	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	actorID, _ := resolveActor(r, req.ActorID)

	c, err := h.engine.Assign(r.Context(), id, req.AssignedTo, actorID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// CommentRequest is the request to add a comment
type CommentRequest struct {
	Message    string   `json:"message"`
	Visibility string   `json:"visibility,omitempty"`
	ActorID    types.ID `json:"actor_id,omitempty"`
}

// AddComment appends a comment to the complaint's audit trail
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	id, ok := complaintID(w, r)
	if !ok {
		return
	}

	var req CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	actorID, _ := resolveActor(r, req.ActorID)

	if err := h.engine.Comment(r.Context(), id, actorID, req.Message, req.Visibility); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// RerouteRequest is the request to manually route a complaint
type RerouteRequest struct {
	OrgID   types.ID `json:"org_id"`
	ActorID types.ID `json:"actor_id,omitempty"`
}

// Reroute manually assigns a complaint to an organization
func (h *Handler) Reroute(w http.ResponseWriter, r *http.Request) {
	id, ok := complaintID(w, r)
	if !ok {
		return
	}

	var req RerouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	actorID, _ := resolveActor(r, req.ActorID)

	c, err := h.engine.Reroute(r.Context(), id, req.OrgID, actorID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// ProgressUpdateRequest is the request to record field work
type ProgressUpdateRequest struct {
	Description string   `json:"description"`
	Photos      []string `json:"photos,omitempty"`
	ActorID     types.ID `json:"actor_id,omitempty"`
	ActorName   string   `json:"actor_name,omitempty"`
}

// AddProgressUpdate appends a field-work check-in
func (h *Handler) AddProgressUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := complaintID(w, r)
	if !ok {
		return
	}

	var req ProgressUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	actorID := req.ActorID
	actorName := req.ActorName
	if actor := auth.GetActor(r.Context()); actor != nil {
		actorID = actor.ID
		actorName = actor.Name
	}

	update, err := h.engine.AddProgressUpdate(r.Context(), id, req.Description, req.Photos, actorID, actorName)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, update)
}

// ListProgress returns the progress ledger in append order
func (h *Handler) ListProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := complaintID(w, r)
	if !ok {
		return
	}

	updates, err := h.engine.ListProgress(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": updates})
}

// --- Helpers ---

func complaintID(w http.ResponseWriter, r *http.Request) (types.ID, bool) {
	id, err := types.ParseID(chi.URLParam(r, "complaintID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid complaint ID"))
		return "", false
	}
	return id, true
}

// resolveActor prefers the authenticated actor; request bodies carry
// actor ids only when auth is disabled in development.
func resolveActor(r *http.Request, bodyActorID types.ID) (types.ID, bool) {
	if actor := auth.GetActor(r.Context()); actor != nil {
		return actor.ID, actor.IsAdmin()
	}
	return bodyActorID, true
}

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
