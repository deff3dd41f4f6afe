package models

import "time"

// Roles a user can hold in a course.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleManager = "manager"
)

// Enrolment ties a user to a course with a role.
type Enrolment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_enrolment" json:"course_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_enrolment" json:"user_id"`
	Role      string    `gorm:"size:32;not null;default:student" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// CourseGroup is one group inside a course, optionally scoped to a grouping.
type CourseGroup struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CourseID   uint      `gorm:"not null;index" json:"course_id"`
	GroupingID uint      `gorm:"not null;default:0;index" json:"grouping_id"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	CreatedAt  time.Time `json:"created_at"`
}

// GroupMember ties a user to a group.
type GroupMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GroupID   uint      `gorm:"not null;uniqueIndex:idx_group_member" json:"group_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_group_member" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
