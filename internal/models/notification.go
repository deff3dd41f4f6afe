package models

import "time"

// Notification is a persisted copy of one dispatched message, targeted to a
// single recipient. Delivery itself is fire-and-forget; this row is the outbox
// record shown in the recipient's notification feed.
type Notification struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FromUserID  uint      `gorm:"not null;default:0" json:"from_user_id"`
	ToUserID    uint      `gorm:"not null;index" json:"to_user_id"`
	MessageType string    `gorm:"size:64;not null" json:"message_type"`
	EventType   string    `gorm:"size:64;not null" json:"event_type"`
	Subject     string    `gorm:"size:255;not null" json:"subject"`
	Body        string    `gorm:"type:text" json:"body"`
	Read        bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
