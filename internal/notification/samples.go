package notification

import (
	"time"

	"github.com/stanstork/console-api/internal/models"
)

// SampleWorkingSet is the working set used when no notification store is
// configured. Timestamps are relative to now.
func SampleWorkingSet(now time.Time) []models.Notification {
	return []models.Notification{
		{
			ID:          "1",
			Category:    models.NotificationCategorySystem,
			Title:       "System Maintenance",
			Description: "Scheduled maintenance will begin in 2 hours.",
			Context: &models.NotificationContext{
				Title:       "System Maintenance Details",
				Description: "Regular system maintenance to improve platform performance and stability. Expected downtime: 30 minutes.",
				Metadata: map[string]string{
					"Start Time":        "2:00 AM UTC",
					"Duration":          "30 minutes",
					"Impact":            "Minimal - Read-only mode",
					"Services Affected": "Database, API Gateway",
				},
			},
			Timestamp: now.Add(-30 * time.Minute),
			Starred:   true,
		},
		{
			ID:          "2",
			Category:    models.NotificationCategoryApplication,
			Title:       "Deployment Complete",
			Description: "ChatBot v2.0 has been successfully deployed.",
			Context: &models.NotificationContext{
				Title:       "Deployment Information",
				Description: "New features include improved response accuracy, multilingual support, and enhanced memory management.",
				Metadata: map[string]string{
					"Version":       "v2.0.0",
					"Environment":   "Production",
					"Deployment ID": "dep_abc123",
					"Changes":       "15 files modified",
				},
			},
			Timestamp: now.Add(-time.Hour),
			Saved:     true,
		},
		{
			ID:          "3",
			Category:    models.NotificationCategoryBilling,
			Title:       "Payment Processed",
			Description: "Your subscription payment was successful.",
			Timestamp:   now.Add(-2 * time.Hour),
			Read:        true,
		},
		{
			ID:          "4",
			Category:    models.NotificationCategoryMessage,
			Title:       "New Message",
			Description: "Sarah shared a new document with you.",
			Timestamp:   now.Add(-3 * time.Hour),
			Read:        true,
		},
	}
}
