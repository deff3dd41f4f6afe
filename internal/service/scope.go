package service

import (
	"context"

	"github.com/noah-isme/assignflow-api/internal/models"
	"github.com/noah-isme/assignflow-api/internal/plugin"
)

// Scope carries one operation's assignment and actor together with lookups
// memoized for the duration of that operation. It is built at the start of
// each workflow entry point and threaded explicitly through the components,
// so derived values (group resolution, member lists, plugin enablement) are
// computed at most once per request.
type Scope struct {
	Assignment models.Assignment
	Actor      Actor

	groupForUser        map[uint]*Group
	membersForGroup     map[uint][]uint
	anySubmissionPlugin *bool
}

// NewScope starts a fresh operation scope.
func NewScope(assignment models.Assignment, actor Actor) *Scope {
	return &Scope{
		Assignment:      assignment,
		Actor:           actor,
		groupForUser:    make(map[uint]*Group),
		membersForGroup: make(map[uint][]uint),
	}
}

// SubmissionGroup resolves the single group the user belongs to for this
// assignment's grouping. A user in zero or multiple eligible groups has no
// submission group and is treated as ungrouped.
func (s *Scope) SubmissionGroup(ctx context.Context, directory GroupDirectory, userID uint) (*Group, error) {
	if cached, ok := s.groupForUser[userID]; ok {
		return cached, nil
	}

	groups, err := directory.GroupsForUser(ctx, s.Assignment.CourseID, userID, s.Assignment.TeamGroupingID)
	if err != nil {
		return nil, err
	}

	var resolved *Group
	if len(groups) == 1 {
		group := groups[0]
		resolved = &group
	}

	s.groupForUser[userID] = resolved
	return resolved, nil
}

// GroupMembers enumerates the members of a group, memoized per operation.
func (s *Scope) GroupMembers(ctx context.Context, directory GroupDirectory, groupID uint) ([]uint, error) {
	if cached, ok := s.membersForGroup[groupID]; ok {
		return cached, nil
	}

	members, err := directory.Members(ctx, groupID)
	if err != nil {
		return nil, err
	}

	s.membersForGroup[groupID] = members
	return members, nil
}

// AnySubmissionPluginEnabled memoizes the registry's enablement lookup.
func (s *Scope) AnySubmissionPluginEnabled(ctx context.Context, registry *plugin.Registry) (bool, error) {
	if s.anySubmissionPlugin != nil {
		return *s.anySubmissionPlugin, nil
	}

	enabled, err := registry.AnySubmissionPluginEnabled(ctx, s.Assignment.ID)
	if err != nil {
		return false, err
	}

	s.anySubmissionPlugin = &enabled
	return enabled, nil
}
