// internal/workers/advisory/send-alert-notification/models.go
package sendalertnotification

import "agrimarket-workers/internal/models"

type Input struct {
	FarmerID string                `json:"farmerId"`
	Region   string                `json:"region"`
	Alerts   []models.WeatherEntry `json:"weatherAlerts"`
}

type Output struct {
	NotificationID string   `json:"notificationId"`
	Status         string   `json:"status"` // "sent", "failed", "skipped", "disabled"
	Channels       []string `json:"channels,omitempty"`
	SentAt         string   `json:"sentAt"` // ISO 8601
}

// Statuses
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusSkipped  = "skipped"
	StatusDisabled = "disabled"
)
