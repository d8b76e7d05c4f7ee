// Package engine is the single entry point for every complaint
// mutation. It validates transitions, writes the complaint store and
// the append-only event log, persists notifications, and only then
// triggers realtime fanout — durable before visible.
package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/civicroot/platform/internal/complaint/domain"
	"github.com/civicroot/platform/internal/notification"
	"github.com/civicroot/platform/internal/orgdir"
	"github.com/civicroot/platform/internal/shared/config"
	"github.com/civicroot/platform/internal/shared/errors"
	"github.com/civicroot/platform/internal/shared/metrics"
	"github.com/civicroot/platform/internal/shared/types"
)

// Router resolves the responsible org for a new complaint. It never
// errors; nil means the complaint stays unrouted for manual triage.
type Router interface {
	Resolve(ctx context.Context, category string, location *types.Point) *orgdir.Org
}

// Broadcaster pushes live events to connected subscribers. Best-effort
// and lossy; the notification directory is the durable channel.
type Broadcaster interface {
	EmitComplaintCreated(ctx context.Context, c *domain.Complaint)
	EmitComplaintUpdated(ctx context.Context, c *domain.Complaint)
	EmitNotification(ctx context.Context, n *notification.Notification)
}

// Mirror records committed events on an external audit store,
// fire-and-forget
type Mirror interface {
	Record(event domain.ComplaintEvent)
}

// Deps collects the engine's collaborators. Fanout and Mirror may be
// nil; everything else is required.
type Deps struct {
	Repo          domain.Repository
	Events        domain.EventLog
	Ledger        domain.ProgressLedger
	Notifications notification.Repository
	Router        Router
	Orgs          orgdir.Directory
	Fanout        Broadcaster
	Mirror        Mirror
	Policy        config.LifecycleConfig
	Logger        *zap.Logger
}

// Engine orchestrates the complaint lifecycle
type Engine struct {
	repo          domain.Repository
	events        domain.EventLog
	ledger        domain.ProgressLedger
	notifications notification.Repository
	router        Router
	orgs          orgdir.Directory
	fanout        Broadcaster
	mirror        Mirror
	policy        config.LifecycleConfig
	logger        *zap.Logger
}

// New creates a lifecycle engine
func New(d Deps) *Engine {
	return &Engine{
		repo:          d.Repo,
		events:        d.Events,
		ledger:        d.Ledger,
		notifications: d.Notifications,
		router:        d.Router,
		orgs:          d.Orgs,
		fanout:        d.Fanout,
		mirror:        d.Mirror,
		policy:        d.Policy,
		logger:        d.Logger,
	}
}

// CreateRequest carries the fields for a new complaint
type CreateRequest struct {
	ReporterID  types.ID
	Category    string
	Subcategory string
	Description string
	Media       []string
	Location    *types.Point
	SocietyID   *types.ID
	Priority    domain.Priority
}

// Create files a new complaint. Routing is attempted but never blocks
// creation: a routing miss leaves OrgID null for manual triage.
func (e *Engine) Create(ctx context.Context, req CreateRequest) (*domain.Complaint, error) {
	c, err := domain.NewComplaint(
		req.ReporterID, req.Category, req.Subcategory, req.Description,
		req.Media, req.Location, req.SocietyID, req.Priority,
	)
	if err != nil {
		return nil, errors.BadRequest(err.Error())
	}

	org := e.router.Resolve(ctx, c.Category, c.Location)
	if org != nil {
		c.Route(org.ID)
	}

	if err := e.repo.Save(ctx, c); err != nil {
		return nil, err
	}

	event := domain.NewCreatedEvent(c, req.ReporterID)
	if err := e.events.Append(ctx, event); err != nil {
		return nil, err
	}

	metrics.RecordComplaintCreated(c.Category, org != nil)
	e.recordMirror(event)

	if org != nil {
		e.persistAndPush(ctx, notification.ComplaintReceived(org.ID, c))
	}

	if e.fanout != nil {
		e.fanout.EmitComplaintCreated(ctx, c)
	}

	return c, nil
}

// Assign sets the staff member responsible. An open complaint advances
// to assigned. Closed complaints reject assignment; an assignee only
// exists while the case is live. The event log keeps the previous
// assignee so repeated assignments retain full history.
func (e *Engine) Assign(ctx context.Context, id, assignedTo, actorID types.ID) (*domain.Complaint, error) {
	c, err := e.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if assignedTo.IsZero() {
		return nil, errors.BadRequest("assignee is required")
	}
	if c.Status == domain.StatusClosed {
		return nil, errors.Conflict("cannot assign a closed complaint")
	}

	previous := c.SetAssignee(assignedTo)

	if err := e.repo.Update(ctx, c); err != nil {
		return nil, err
	}

	event := domain.NewAssignedEvent(c.ID, actorID, assignedTo, previous, c.OrgID)
	if err := e.events.Append(ctx, event); err != nil {
		return nil, err
	}
	e.recordMirror(event)

	e.persistAndPush(ctx, notification.ComplaintAssigned(assignedTo, c))

	if e.fanout != nil {
		e.fanout.EmitComplaintUpdated(ctx, c)
	}

	return c, nil
}

// SetStatus moves the complaint through the state machine. force lets
// administrative callers bypass the transition table.
func (e *Engine) SetStatus(ctx context.Context, id types.ID, status domain.Status, actorID types.ID, note string, force bool) (*domain.Complaint, error) {
	c, err := e.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := c.Status
	if err := c.ApplyStatus(status, force); err != nil {
		return nil, errors.BadRequest(err.Error())
	}

	if err := e.repo.Update(ctx, c); err != nil {
		return nil, err
	}

	event := domain.NewStatusChangedEvent(c.ID, actorID, from, status, note, force)
	if err := e.events.Append(ctx, event); err != nil {
		return nil, err
	}

	metrics.RecordStatusChange(string(from), string(status))
	e.recordMirror(event)

	if status == domain.StatusResolved {
		e.persistAndPush(ctx, notification.ComplaintResolved(c.ReporterID, c))
	} else {
		e.persistAndPush(ctx, notification.ComplaintUpdated(c.ReporterID, c))
	}

	if e.fanout != nil {
		e.fanout.EmitComplaintUpdated(ctx, c)
	}

	return c, nil
}

// Comment appends a comment to the audit trail. No fields change and
// no notification is persisted, but subscribers still get a refresh.
func (e *Engine) Comment(ctx context.Context, id, actorID types.ID, message, visibility string) error {
	if message == "" {
		return errors.BadRequest("message is required")
	}

	c, err := e.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	event := domain.NewCommentEvent(c.ID, actorID, message, visibility)
	if err := e.events.Append(ctx, event); err != nil {
		return err
	}
	e.recordMirror(event)

	if e.fanout != nil {
		e.fanout.EmitComplaintUpdated(ctx, c)
	}

	return nil
}

// AddProgressUpdate appends a field-work check-in to the ledger. With
// the in_progress guard enabled (the default), updates against a
// complaint in any other state are rejected.
func (e *Engine) AddProgressUpdate(ctx context.Context, id types.ID, description string, photos []string, actorID types.ID, actorName string) (*domain.ProgressUpdate, error) {
	c, err := e.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if e.policy.RequireInProgressForUpdates && c.Status != domain.StatusInProgress {
		return nil, errors.Conflict("progress updates require the complaint to be in_progress")
	}

	update, err := domain.NewProgressUpdate(c.ID, description, photos, actorID, actorName)
	if err != nil {
		return nil, errors.BadRequest(err.Error())
	}

	if err := e.ledger.Append(ctx, update); err != nil {
		return nil, err
	}

	if e.fanout != nil {
		e.fanout.EmitComplaintUpdated(ctx, c)
	}

	return update, nil
}

// Reroute manually assigns the complaint to a different organization.
// The target must exist and be verified.
func (e *Engine) Reroute(ctx context.Context, id, orgID, actorID types.ID) (*domain.Complaint, error) {
	c, err := e.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	org, err := e.orgs.Get(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if !org.IsVerified {
		return nil, errors.Conflict("cannot route to an unverified organization")
	}

	c.Route(org.ID)

	if err := e.repo.Update(ctx, c); err != nil {
		return nil, err
	}

	event := domain.NewAssignedEvent(c.ID, actorID, "", nil, c.OrgID)
	if err := e.events.Append(ctx, event); err != nil {
		return nil, err
	}
	e.recordMirror(event)

	e.persistAndPush(ctx, notification.ComplaintReceived(org.ID, c))

	if e.fanout != nil {
		e.fanout.EmitComplaintUpdated(ctx, c)
	}

	return c, nil
}

// Get returns a complaint by ID
func (e *Engine) Get(ctx context.Context, id types.ID) (*domain.Complaint, error) {
	return e.repo.FindByID(ctx, id)
}

// List returns complaints matching the filter, newest first, capped
func (e *Engine) List(ctx context.Context, filter domain.ListFilter) ([]domain.Complaint, error) {
	return e.repo.List(ctx, filter)
}

// ListEvents returns the audit trail ascending by creation time
func (e *Engine) ListEvents(ctx context.Context, id types.ID) ([]domain.ComplaintEvent, error) {
	if _, err := e.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return e.events.ListFor(ctx, id)
}

// ListProgress returns the progress ledger in append order
func (e *Engine) ListProgress(ctx context.Context, id types.ID) ([]domain.ProgressUpdate, error) {
	if _, err := e.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return e.ledger.ListFor(ctx, id)
}

// persistAndPush stores a notification, then pushes it live. A persist
// failure is logged and swallowed: the complaint mutation is already
// committed and must not be reported as failed.
func (e *Engine) persistAndPush(ctx context.Context, n *notification.Notification) {
	if err := e.notifications.Create(ctx, n); err != nil {
		e.logger.Warn("failed to persist notification",
			zap.String("type", string(n.Type)),
			zap.String("recipient_id", n.RecipientID.String()),
			zap.Error(err),
		)
		return
	}

	metrics.RecordNotification(string(n.Type))

	if e.fanout != nil {
		e.fanout.EmitNotification(ctx, n)
	}
}

func (e *Engine) recordMirror(event domain.ComplaintEvent) {
	if e.mirror != nil {
		e.mirror.Record(event)
	}
}
