package domain

import (
	"testing"

	"github.com/civicroot/platform/internal/shared/types"
)

func newTestComplaint(t *testing.T) *Complaint {
	t.Helper()
	c, err := NewComplaint(types.NewID(), "pothole", "road", "large pothole near the school", nil, nil, nil, "")
	if err != nil {
		t.Fatalf("NewComplaint: %v", err)
	}
	return c
}

func TestNewComplaintDefaults(t *testing.T) {
	c := newTestComplaint(t)

	if c.Status != StatusOpen {
		t.Errorf("new complaint status = %s, want open", c.Status)
	}
	if c.Priority != PriorityMed {
		t.Errorf("default priority = %s, want med", c.Priority)
	}
	if c.OrgID != nil {
		t.Error("new complaint must start unrouted")
	}
	if c.AssignedTo != nil {
		t.Error("new complaint must start unassigned")
	}
}

func TestNewComplaintValidation(t *testing.T) {
	tests := []struct {
		name       string
		reporterID types.ID
		category   string
		priority   Priority
		wantErr    bool
	}{
		{"Valid", types.NewID(), "garbage", PriorityHigh, false},
		{"Missing reporter", "", "garbage", PriorityMed, true},
		{"Missing category", types.NewID(), "", PriorityMed, true},
		{"Unknown priority", types.NewID(), "garbage", Priority("critical"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewComplaint(tt.reporterID, tt.category, "", "", nil, nil, nil, tt.priority)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewComplaint() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{"Open to assigned", StatusOpen, StatusAssigned, true},
		{"Open to in_progress", StatusOpen, StatusInProgress, true},
		{"Assigned to in_progress", StatusAssigned, StatusInProgress, true},
		{"Assigned back to open", StatusAssigned, StatusOpen, true},
		{"In_progress to resolved", StatusInProgress, StatusResolved, true},
		{"Resolved to closed", StatusResolved, StatusClosed, true},
		{"Resolved reopened", StatusResolved, StatusInProgress, true},
		{"Open to resolved", StatusOpen, StatusResolved, false},
		{"Open to closed", StatusOpen, StatusClosed, false},
		{"Closed to anything", StatusClosed, StatusOpen, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.allowed {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
			}
		})
	}
}

func TestApplyStatusForceBypassesTable(t *testing.T) {
	c := newTestComplaint(t)

	if err := c.ApplyStatus(StatusClosed, false); err == nil {
		t.Fatal("open to closed must be denied without force")
	}
	if err := c.ApplyStatus(StatusClosed, true); err != nil {
		t.Fatalf("forced transition failed: %v", err)
	}
	if c.Status != StatusClosed {
		t.Errorf("status = %s, want closed", c.Status)
	}
}

func TestApplyStatusRejectsInvalid(t *testing.T) {
	c := newTestComplaint(t)

	if err := c.ApplyStatus(Status("bogus"), true); err == nil {
		t.Error("invalid status must be rejected even when forced")
	}
	if err := c.ApplyStatus(StatusOpen, true); err == nil {
		t.Error("transition to the current status must be rejected")
	}
}

func TestApplyStatusClearsAssignee(t *testing.T) {
	c := newTestComplaint(t)
	staff := types.NewID()

	c.SetAssignee(staff)
	if c.Status != StatusAssigned {
		t.Fatalf("status after assign = %s, want assigned", c.Status)
	}

	if err := c.ApplyStatus(StatusOpen, false); err != nil {
		t.Fatalf("ApplyStatus: %v", err)
	}
	if c.AssignedTo != nil {
		t.Error("reopening must clear the assignee")
	}
}

func TestSetAssigneeKeepsStatusMidWork(t *testing.T) {
	c := newTestComplaint(t)
	first := types.NewID()
	second := types.NewID()

	c.SetAssignee(first)
	if err := c.ApplyStatus(StatusInProgress, false); err != nil {
		t.Fatalf("ApplyStatus: %v", err)
	}

	previous := c.SetAssignee(second)
	if previous == nil || *previous != first {
		t.Errorf("previous assignee = %v, want %s", previous, first)
	}
	if c.Status != StatusInProgress {
		t.Errorf("reassignment changed status to %s", c.Status)
	}
	if c.AssignedTo == nil || *c.AssignedTo != second {
		t.Errorf("assignee = %v, want %s", c.AssignedTo, second)
	}
}

func TestNewProgressUpdateValidation(t *testing.T) {
	complaintID := types.NewID()
	author := types.NewID()

	if _, err := NewProgressUpdate(complaintID, "", nil, author, "Field Officer"); err == nil {
		t.Error("empty description must be rejected")
	}
	if _, err := NewProgressUpdate(complaintID, "patched the surface", nil, "", ""); err == nil {
		t.Error("missing author must be rejected")
	}

	update, err := NewProgressUpdate(complaintID, "patched the surface", []string{"photos/1.jpg"}, author, "Field Officer")
	if err != nil {
		t.Fatalf("NewProgressUpdate: %v", err)
	}
	if update.ComplaintID != complaintID || update.Date.IsZero() {
		t.Errorf("unexpected update %+v", update)
	}
}
