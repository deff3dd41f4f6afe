package dto

import (
	"time"

	"github.com/noah-isme/assignflow-api/internal/models"
)

// NotificationResponse is the outward notification shape.
type NotificationResponse struct {
	ID          uint      `json:"id"`
	FromUserID  uint      `json:"from_user_id"`
	ToUserID    uint      `json:"to_user_id"`
	MessageType string    `json:"message_type"`
	EventType   string    `json:"event_type"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewNotificationResponse maps a model to the response shape.
func NewNotificationResponse(notification models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:          notification.ID,
		FromUserID:  notification.FromUserID,
		ToUserID:    notification.ToUserID,
		MessageType: notification.MessageType,
		EventType:   notification.EventType,
		Subject:     notification.Subject,
		Body:        notification.Body,
		Read:        notification.Read,
		CreatedAt:   notification.CreatedAt,
	}
}

// NewNotificationResponseSlice maps a list of notifications.
func NewNotificationResponseSlice(notifications []models.Notification) []NotificationResponse {
	result := make([]NotificationResponse, 0, len(notifications))
	for _, notification := range notifications {
		result = append(result, NewNotificationResponse(notification))
	}
	return result
}
