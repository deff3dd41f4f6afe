package models

import "time"

// UserMapping assigns a stable pseudonymous id to a user for one assignment.
// It is created on first lookup and never reassigned; graders see the mapping
// id instead of the user while blind marking is active.
type UserMapping struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AssignmentID uint      `gorm:"not null;uniqueIndex:idx_user_mapping" json:"assignment_id"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_user_mapping" json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
}
