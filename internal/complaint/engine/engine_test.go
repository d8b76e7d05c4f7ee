package engine

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/civicroot/platform/internal/complaint/domain"
	"github.com/civicroot/platform/internal/complaint/infrastructure"
	"github.com/civicroot/platform/internal/notification"
	"github.com/civicroot/platform/internal/orgdir"
	"github.com/civicroot/platform/internal/shared/config"
	"github.com/civicroot/platform/internal/shared/errors"
	"github.com/civicroot/platform/internal/shared/types"
)

// recordingFanout captures broadcasts for assertions
type recordingFanout struct {
	created       []*domain.Complaint
	updated       []*domain.Complaint
	notifications []*notification.Notification
}

func (f *recordingFanout) EmitComplaintCreated(_ context.Context, c *domain.Complaint) {
	f.created = append(f.created, c)
}

func (f *recordingFanout) EmitComplaintUpdated(_ context.Context, c *domain.Complaint) {
	f.updated = append(f.updated, c)
}

func (f *recordingFanout) EmitNotification(_ context.Context, n *notification.Notification) {
	f.notifications = append(f.notifications, n)
}

type fixture struct {
	engine        *Engine
	dir           *orgdir.MemoryDirectory
	notifications *notification.MemoryRepository
	fanout        *recordingFanout
}

func newFixture(t *testing.T, policy config.LifecycleConfig) *fixture {
	t.Helper()

	dir := orgdir.NewMemoryDirectory()
	notifications := notification.NewMemoryRepository()
	fanout := &recordingFanout{}

	if len(policy.PreferredOrgTypes) == 0 {
		policy.PreferredOrgTypes = []string{"Gov", "Utility", "NGO"}
	}

	eng := New(Deps{
		Repo:          infrastructure.NewMemoryRepository(),
		Events:        infrastructure.NewMemoryEventLog(),
		Ledger:        infrastructure.NewMemoryProgressLedger(),
		Notifications: notifications,
		Router:        orgdir.NewResolver(dir, policy.PreferredOrgTypes, zap.NewNop()),
		Orgs:          dir,
		Fanout:        fanout,
		Policy:        policy,
		Logger:        zap.NewNop(),
	})

	return &fixture{engine: eng, dir: dir, notifications: notifications, fanout: fanout}
}

func (f *fixture) seedOrg(t *testing.T, name string, orgType orgdir.OrgType, categories []string, jurisdiction *types.MultiPolygon, verified bool) *orgdir.Org {
	t.Helper()
	org := &orgdir.Org{
		ID:           types.NewID(),
		Name:         name,
		Type:         orgType,
		Categories:   categories,
		Jurisdiction: jurisdiction,
		IsVerified:   verified,
	}
	if err := f.dir.Create(context.Background(), org); err != nil {
		t.Fatalf("seed org: %v", err)
	}
	return org
}

func coveringMumbai() *types.MultiPolygon {
	mp := types.MultiPolygon{
		{
			{
				{Lat: 18.5, Lng: 72.3},
				{Lat: 19.5, Lng: 72.3},
				{Lat: 19.5, Lng: 73.3},
				{Lat: 18.5, Lng: 73.3},
			},
		},
	}
	return &mp
}

func TestCreateRoutesAndNotifies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.LifecycleConfig{})
	org := f.seedOrg(t, "Roads Dept", orgdir.OrgTypeGov, []string{"pothole"}, coveringMumbai(), true)

	c, err := f.engine.Create(ctx, CreateRequest{
		ReporterID: types.NewID(),
		Category:   "pothole",
		Location:   &types.Point{Lat: 19.0, Lng: 72.8},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if c.Status != domain.StatusOpen {
		t.Errorf("status = %s, want open", c.Status)
	}
	if c.OrgID == nil || *c.OrgID != org.ID {
		t.Fatalf("org id = %v, want %s", c.OrgID, org.ID)
	}

	// Durable before visible: the store reflects the creation.
	stored, err := f.engine.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("Get after Create: %v", err)
	}
	if stored.OrgID == nil || *stored.OrgID != org.ID {
		t.Error("stored complaint lost its routing")
	}

	events, err := f.engine.ListEvents(ctx, c.ID)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 1 || events[0].Type != domain.EventCreated {
		t.Fatalf("events = %+v, want one created event", events)
	}

	received, _ := f.notifications.GetUnreadByRecipient(ctx, org.ID)
	if len(received) != 1 || received[0].Type != notification.TypeComplaintReceived {
		t.Fatalf("org notifications = %+v, want one complaint_received", received)
	}

	if len(f.fanout.created) != 1 {
		t.Errorf("created broadcasts = %d, want 1", len(f.fanout.created))
	}
	if len(f.fanout.notifications) != 1 {
		t.Errorf("notification broadcasts = %d, want 1", len(f.fanout.notifications))
	}
}

func TestCreateSurvivesRoutingMiss(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.LifecycleConfig{})

	c, err := f.engine.Create(ctx, CreateRequest{
		ReporterID: types.NewID(),
		Category:   "streetlights",
	})
	if err != nil {
		t.Fatalf("Create must not fail on a routing miss: %v", err)
	}
	if c.OrgID != nil {
		t.Errorf("org id = %v, want nil", c.OrgID)
	}

	// No org, no complaint_received notification, but the create is
	// still broadcast.
	if len(f.fanout.notifications) != 0 {
		t.Errorf("notification broadcasts = %d, want 0", len(f.fanout.notifications))
	}
	if len(f.fanout.created) != 1 {
		t.Errorf("created broadcasts = %d, want 1", len(f.fanout.created))
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t, config.LifecycleConfig{})

	_, err := f.engine.Create(context.Background(), CreateRequest{ReporterID: types.NewID()})
	if err == nil {
		t.Fatal("missing category must be rejected")
	}
	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.HTTPStatus != 400 {
		t.Errorf("expected bad request, got %v", err)
	}
}

func TestAssignTwiceKeepsHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.LifecycleConfig{})

	c, err := f.engine.Create(ctx, CreateRequest{ReporterID: types.NewID(), Category: "garbage"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	staffA := types.NewID()
	staffB := types.NewID()
	actor := types.NewID()

	if _, err := f.engine.Assign(ctx, c.ID, staffA, actor); err != nil {
		t.Fatalf("first Assign: %v", err)
	}
	final, err := f.engine.Assign(ctx, c.ID, staffB, actor)
	if err != nil {
		t.Fatalf("second Assign: %v", err)
	}

	if final.AssignedTo == nil || *final.AssignedTo != staffB {
		t.Errorf("assigned to = %v, want %s", final.AssignedTo, staffB)
	}
	if final.Status != domain.StatusAssigned {
		t.Errorf("status = %s, want assigned", final.Status)
	}

	events, _ := f.engine.ListEvents(ctx, c.ID)
	var assignedEvents []domain.ComplaintEvent
	for _, ev := range events {
		if ev.Type == domain.EventAssigned {
			assignedEvents = append(assignedEvents, ev)
		}
	}
	if len(assignedEvents) != 2 {
		t.Fatalf("assigned events = %d, want 2 (history retained)", len(assignedEvents))
	}

	aNotifs, _ := f.notifications.GetUnreadByRecipient(ctx, staffA)
	bNotifs, _ := f.notifications.GetUnreadByRecipient(ctx, staffB)
	if len(aNotifs) != 1 || len(bNotifs) != 1 {
		t.Errorf("notifications: staffA=%d staffB=%d, want 1 each", len(aNotifs), len(bNotifs))
	}
}

func TestAssignClosedComplaintRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.LifecycleConfig{})
	actor := types.NewID()

	c, err := f.engine.Create(ctx, CreateRequest{ReporterID: types.NewID(), Category: "garbage"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.engine.SetStatus(ctx, c.ID, domain.StatusClosed, actor, "duplicate", true); err != nil {
		t.Fatalf("force close: %v", err)
	}

	if _, err := f.engine.Assign(ctx, c.ID, types.NewID(), actor); err == nil {
		t.Fatal("assigning a closed complaint must be rejected")
	}

	stored, _ := f.engine.Get(ctx, c.ID)
	if stored.AssignedTo != nil {
		t.Errorf("assigned to = %v, want nil on a closed complaint", stored.AssignedTo)
	}
}

func TestSetStatusEnforcesTable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.LifecycleConfig{})
	actor := types.NewID()

	c, err := f.engine.Create(ctx, CreateRequest{ReporterID: types.NewID(), Category: "water"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := f.engine.SetStatus(ctx, c.ID, domain.StatusClosed, actor, "", false); err == nil {
		t.Fatal("open to closed must be denied without force")
	}

	forced, err := f.engine.SetStatus(ctx, c.ID, domain.StatusClosed, actor, "duplicate report", true)
	if err != nil {
		t.Fatalf("forced SetStatus: %v", err)
	}
	if forced.Status != domain.StatusClosed {
		t.Errorf("status = %s, want closed", forced.Status)
	}

	events, _ := f.engine.ListEvents(ctx, c.ID)
	last := events[len(events)-1]
	payload, ok := last.Payload.(domain.StatusChangedPayload)
	if !ok {
		t.Fatalf("last payload = %T, want StatusChangedPayload", last.Payload)
	}
	if !payload.Forced || payload.Note != "duplicate report" {
		t.Errorf("payload = %+v, want forced with note", payload)
	}
}

func TestResolvedNotifiesReporter(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.LifecycleConfig{})
	reporter := types.NewID()
	actor := types.NewID()

	c, err := f.engine.Create(ctx, CreateRequest{ReporterID: reporter, Category: "garbage"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := f.engine.SetStatus(ctx, c.ID, domain.StatusInProgress, actor, "", false); err != nil {
		t.Fatalf("to in_progress: %v", err)
	}
	if _, err := f.engine.SetStatus(ctx, c.ID, domain.StatusResolved, actor, "fixed", false); err != nil {
		t.Fatalf("to resolved: %v", err)
	}

	notifs, _ := f.notifications.GetUnreadByRecipient(ctx, reporter)
	if len(notifs) != 2 {
		t.Fatalf("reporter notifications = %d, want 2", len(notifs))
	}
	// Newest first.
	if notifs[0].Type != notification.TypeComplaintResolved {
		t.Errorf("latest notification = %s, want complaint_resolved", notifs[0].Type)
	}
	if notifs[1].Type != notification.TypeComplaintUpdated {
		t.Errorf("earlier notification = %s, want complaint_updated", notifs[1].Type)
	}
}

func TestProgressUpdateGuard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.LifecycleConfig{RequireInProgressForUpdates: true})
	actor := types.NewID()

	c, err := f.engine.Create(ctx, CreateRequest{ReporterID: types.NewID(), Category: "roads"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := f.engine.AddProgressUpdate(ctx, c.ID, "started digging", nil, actor, "Crew Lead"); err == nil {
		t.Fatal("progress update on an open complaint must be rejected")
	}

	if _, err := f.engine.SetStatus(ctx, c.ID, domain.StatusInProgress, actor, "", false); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	update, err := f.engine.AddProgressUpdate(ctx, c.ID, "started digging", []string{"photos/dig.jpg"}, actor, "Crew Lead")
	if err != nil {
		t.Fatalf("AddProgressUpdate: %v", err)
	}

	updates, err := f.engine.ListProgress(ctx, c.ID)
	if err != nil {
		t.Fatalf("ListProgress: %v", err)
	}
	if len(updates) != 1 || updates[0].ID != update.ID {
		t.Fatalf("ledger = %+v, want the one appended update", updates)
	}
}

func TestProgressUpdateGuardDisabled(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.LifecycleConfig{RequireInProgressForUpdates: false})

	c, err := f.engine.Create(ctx, CreateRequest{ReporterID: types.NewID(), Category: "roads"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := f.engine.AddProgressUpdate(ctx, c.ID, "site inspected", nil, types.NewID(), ""); err != nil {
		t.Fatalf("guard disabled, update must be accepted: %v", err)
	}
}

func TestCommentAppendsEventOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.LifecycleConfig{})
	reporter := types.NewID()

	c, err := f.engine.Create(ctx, CreateRequest{ReporterID: reporter, Category: "noise"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := f.engine.Comment(ctx, c.ID, reporter, "any update on this?", "public"); err != nil {
		t.Fatalf("Comment: %v", err)
	}

	events, _ := f.engine.ListEvents(ctx, c.ID)
	if len(events) != 2 || events[1].Type != domain.EventComment {
		t.Fatalf("events = %+v, want created then comment", events)
	}

	// Comments broadcast a refresh but persist no notification.
	notifs, _ := f.notifications.GetUnreadByRecipient(ctx, reporter)
	if len(notifs) != 0 {
		t.Errorf("reporter notifications = %d, want 0", len(notifs))
	}
	if len(f.fanout.updated) != 1 {
		t.Errorf("updated broadcasts = %d, want 1", len(f.fanout.updated))
	}
}

func TestRerouteRequiresVerifiedOrg(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.LifecycleConfig{})
	actor := types.NewID()

	unverified := f.seedOrg(t, "Shady Services", orgdir.OrgTypePrivate, []string{"garbage"}, nil, false)
	verified := f.seedOrg(t, "Sanitation Board", orgdir.OrgTypeGov, []string{"garbage"}, nil, true)

	c, err := f.engine.Create(ctx, CreateRequest{ReporterID: types.NewID(), Category: "power"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := f.engine.Reroute(ctx, c.ID, unverified.ID, actor); err == nil {
		t.Fatal("reroute to unverified org must be rejected")
	}

	routed, err := f.engine.Reroute(ctx, c.ID, verified.ID, actor)
	if err != nil {
		t.Fatalf("Reroute: %v", err)
	}
	if routed.OrgID == nil || *routed.OrgID != verified.ID {
		t.Errorf("org id = %v, want %s", routed.OrgID, verified.ID)
	}

	received, _ := f.notifications.GetUnreadByRecipient(ctx, verified.ID)
	if len(received) != 1 || received[0].Type != notification.TypeComplaintReceived {
		t.Errorf("org notifications = %+v, want one complaint_received", received)
	}
}

func TestMutationsAgainstMissingComplaint(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.LifecycleConfig{})
	missing := types.NewID()
	actor := types.NewID()

	if _, err := f.engine.Assign(ctx, missing, types.NewID(), actor); !errors.IsNotFound(err) {
		t.Errorf("Assign: err = %v, want not found", err)
	}
	if _, err := f.engine.SetStatus(ctx, missing, domain.StatusClosed, actor, "", true); !errors.IsNotFound(err) {
		t.Errorf("SetStatus: err = %v, want not found", err)
	}
	if err := f.engine.Comment(ctx, missing, actor, "hello", ""); !errors.IsNotFound(err) {
		t.Errorf("Comment: err = %v, want not found", err)
	}
	if _, err := f.engine.AddProgressUpdate(ctx, missing, "work", nil, actor, ""); !errors.IsNotFound(err) {
		t.Errorf("AddProgressUpdate: err = %v, want not found", err)
	}
	if _, err := f.engine.Get(ctx, missing); !errors.IsNotFound(err) {
		t.Errorf("Get: err = %v, want not found", err)
	}
}

func TestListEventsIsStable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.LifecycleConfig{})
	actor := types.NewID()

	c, err := f.engine.Create(ctx, CreateRequest{ReporterID: types.NewID(), Category: "water"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.engine.Assign(ctx, c.ID, types.NewID(), actor); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	first, _ := f.engine.ListEvents(ctx, c.ID)
	second, _ := f.engine.ListEvents(ctx, c.ID)

	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("event order changed at %d: %s vs %s", i, first[i].ID, second[i].ID)
		}
	}
}
