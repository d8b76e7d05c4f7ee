package notification

import (
	"context"
	"testing"
	"time"

	"github.com/civicroot/platform/internal/complaint/domain"
	"github.com/civicroot/platform/internal/shared/types"
)

func testComplaint(t *testing.T) *domain.Complaint {
	t.Helper()
	c, err := domain.NewComplaint(types.NewID(), "pothole", "", "", nil, nil, nil, "")
	if err != nil {
		t.Fatalf("NewComplaint: %v", err)
	}
	return c
}

func TestBuilders(t *testing.T) {
	c := testComplaint(t)
	orgID := types.NewID()
	c.Route(orgID)
	staffID := types.NewID()

	tests := []struct {
		name          string
		notification  *Notification
		wantType      Type
		wantRecipient types.ID
		wantRecipType RecipientType
	}{
		{"Received", ComplaintReceived(orgID, c), TypeComplaintReceived, orgID, RecipientOrg},
		{"Assigned", ComplaintAssigned(staffID, c), TypeComplaintAssigned, staffID, RecipientOrgUser},
		{"Updated", ComplaintUpdated(c.ReporterID, c), TypeComplaintUpdated, c.ReporterID, RecipientUser},
		{"Resolved", ComplaintResolved(c.ReporterID, c), TypeComplaintResolved, c.ReporterID, RecipientUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := tt.notification
			if n.Type != tt.wantType {
				t.Errorf("type = %s, want %s", n.Type, tt.wantType)
			}
			if n.RecipientID != tt.wantRecipient {
				t.Errorf("recipient = %s, want %s", n.RecipientID, tt.wantRecipient)
			}
			if n.RecipientType != tt.wantRecipType {
				t.Errorf("recipient type = %s, want %s", n.RecipientType, tt.wantRecipType)
			}
			if n.Data.ComplaintID != c.ID {
				t.Errorf("data complaint id = %s, want %s", n.Data.ComplaintID, c.ID)
			}
			if n.Title == "" || n.Message == "" {
				t.Error("builders must always set title and message")
			}
			if n.IsRead {
				t.Error("new notifications must start unread")
			}
		})
	}
}

func TestReadStateMonotonicity(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	c := testComplaint(t)
	recipient := types.NewID()

	for i := 0; i < 3; i++ {
		if err := repo.Create(ctx, ComplaintUpdated(recipient, c)); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	count, err := repo.GetUnreadCount(ctx, recipient)
	if err != nil || count != 3 {
		t.Fatalf("unread count = %d (%v), want 3", count, err)
	}

	if err := repo.MarkAllAsRead(ctx, recipient); err != nil {
		t.Fatalf("MarkAllAsRead: %v", err)
	}

	count, _ = repo.GetUnreadCount(ctx, recipient)
	if count != 0 {
		t.Fatalf("unread count after mark-all = %d, want 0", count)
	}

	all, _ := repo.GetByRecipient(ctx, recipient, 0)
	for _, n := range all {
		if !n.IsRead || n.ReadAt == nil {
			t.Errorf("notification %s not marked read", n.ID)
		}
	}

	// A fresh notification restores the unread count.
	if err := repo.Create(ctx, ComplaintResolved(recipient, c)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	count, _ = repo.GetUnreadCount(ctx, recipient)
	if count != 1 {
		t.Fatalf("unread count after new notification = %d, want 1", count)
	}
}

func TestGetByRecipientNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	c := testComplaint(t)
	recipient := types.NewID()

	older := ComplaintUpdated(recipient, c)
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := ComplaintResolved(recipient, c)

	if err := repo.CreateMany(ctx, []*Notification{older, newer}); err != nil {
		t.Fatalf("CreateMany: %v", err)
	}

	got, err := repo.GetByRecipient(ctx, recipient, 0)
	if err != nil {
		t.Fatalf("GetByRecipient: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d notifications, want 2", len(got))
	}
	if got[0].ID != newer.ID {
		t.Error("notifications must be ordered newest first")
	}
}

func TestGetByRecipientLimits(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	c := testComplaint(t)
	recipient := types.NewID()

	for i := 0; i < MaxLimit+10; i++ {
		n := ComplaintUpdated(recipient, c)
		n.CreatedAt = time.Now().Add(time.Duration(i) * time.Millisecond)
		if err := repo.Create(ctx, n); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"ZeroUsesDefault", 0, DefaultLimit},
		{"ExplicitSmall", 5, 5},
		{"ExplicitAboveDefault", DefaultLimit + 20, DefaultLimit + 20},
		{"CappedAtMax", MaxLimit + 10, MaxLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.GetByRecipient(ctx, recipient, tt.limit)
			if err != nil {
				t.Fatalf("GetByRecipient: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d notifications, want %d", len(got), tt.want)
			}
		})
	}
}

func TestMarkAsReadNotFound(t *testing.T) {
	repo := NewMemoryRepository()
	if _, err := repo.MarkAsRead(context.Background(), types.NewID()); err == nil {
		t.Error("expected not found error")
	}
}
