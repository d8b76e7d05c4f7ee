package notification

import (
	"fmt"
	"time"

	"github.com/civicroot/platform/internal/complaint/domain"
	"github.com/civicroot/platform/internal/shared/types"
)

// Builders fix the title/message/data shape per notification type so
// call sites cannot emit inconsistent payloads. All engine code goes
// through these instead of filling Notification by hand.

func newNotification(recipientID types.ID, recipientType RecipientType, notifType Type, title, message string, data Data) *Notification {
	return &Notification{
		ID:            types.NewID(),
		RecipientID:   recipientID,
		RecipientType: recipientType,
		Type:          notifType,
		Title:         title,
		Message:       message,
		Data:          data,
		CreatedAt:     time.Now(),
	}
}

// ComplaintReceived notifies an org that a complaint was routed to it
func ComplaintReceived(orgID types.ID, c *domain.Complaint) *Notification {
	return newNotification(orgID, RecipientOrg, TypeComplaintReceived,
		"New complaint received",
		fmt.Sprintf("A new %s complaint has been routed to your organization.", c.Category),
		Data{
			ComplaintID: c.ID,
			Category:    c.Category,
			Status:      string(c.Status),
			OrgID:       &orgID,
		},
	)
}

// ComplaintAssigned notifies a staff member they are now responsible
func ComplaintAssigned(staffID types.ID, c *domain.Complaint) *Notification {
	return newNotification(staffID, RecipientOrgUser, TypeComplaintAssigned,
		"Complaint assigned to you",
		fmt.Sprintf("A %s complaint has been assigned to you.", c.Category),
		Data{
			ComplaintID: c.ID,
			Category:    c.Category,
			Status:      string(c.Status),
			OrgID:       c.OrgID,
		},
	)
}

// ComplaintUpdated notifies the reporter that their complaint moved
func ComplaintUpdated(reporterID types.ID, c *domain.Complaint) *Notification {
	return newNotification(reporterID, RecipientUser, TypeComplaintUpdated,
		"Complaint status updated",
		fmt.Sprintf("Your %s complaint is now %s.", c.Category, c.Status),
		Data{
			ComplaintID: c.ID,
			Category:    c.Category,
			Status:      string(c.Status),
			OrgID:       c.OrgID,
		},
	)
}

// ComplaintResolved notifies the reporter their complaint was resolved
func ComplaintResolved(reporterID types.ID, c *domain.Complaint) *Notification {
	return newNotification(reporterID, RecipientUser, TypeComplaintResolved,
		"Complaint resolved",
		fmt.Sprintf("Your %s complaint has been resolved.", c.Category),
		Data{
			ComplaintID: c.ID,
			Category:    c.Category,
			Status:      string(c.Status),
			OrgID:       c.OrgID,
		},
	)
}
