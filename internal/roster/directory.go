// Package roster resolves course membership: enrolments, groups and the
// capabilities each role carries.
package roster

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/assignflow-api/internal/models"
	"github.com/noah-isme/assignflow-api/internal/service"
)

// Directory is the gorm-backed group directory.
type Directory struct {
	db *gorm.DB
}

// NewDirectory constructs the directory.
func NewDirectory(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

// GroupsForUser lists the groups the user belongs to in a course. A non-zero
// grouping narrows the result to groups inside that grouping.
func (d *Directory) GroupsForUser(ctx context.Context, courseID, userID, groupingID uint) ([]service.Group, error) {
	query := d.db.WithContext(ctx).
		Model(&models.CourseGroup{}).
		Joins("JOIN group_members ON group_members.group_id = course_groups.id").
		Where("course_groups.course_id = ?", courseID).
		Where("group_members.user_id = ?", userID)
	if groupingID != 0 {
		query = query.Where("course_groups.grouping_id = ?", groupingID)
	}

	var groups []models.CourseGroup
	if err := query.Find(&groups).Error; err != nil {
		return nil, err
	}

	result := make([]service.Group, 0, len(groups))
	for _, group := range groups {
		result = append(result, service.Group{ID: group.ID, Name: group.Name})
	}
	return result, nil
}

// Members lists the user ids in a group.
func (d *Directory) Members(ctx context.Context, groupID uint) ([]uint, error) {
	var members []models.GroupMember
	if err := d.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("user_id ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(members))
	for _, member := range members {
		ids = append(ids, member.UserID)
	}
	return ids, nil
}

// IsEnrolled reports whether the user holds any role in the course.
func (d *Directory) IsEnrolled(ctx context.Context, courseID, userID uint) (bool, error) {
	var count int64
	if err := d.db.WithContext(ctx).
		Model(&models.Enrolment{}).
		Where("course_id = ? AND user_id = ?", courseID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Graders lists the users who mark work in the course.
func (d *Directory) Graders(ctx context.Context, courseID uint) ([]uint, error) {
	var enrolments []models.Enrolment
	if err := d.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Where("role IN ?", []string{models.RoleTeacher, models.RoleManager}).
		Order("user_id ASC").
		Find(&enrolments).Error; err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(enrolments))
	for _, enrolment := range enrolments {
		ids = append(ids, enrolment.UserID)
	}
	return ids, nil
}
