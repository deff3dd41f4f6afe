package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/noah-isme/assignflow-api/internal/models"
	"github.com/noah-isme/assignflow-api/internal/repository"
)

// TeamService keeps the shared team submission record consistent with the
// individual records of the group members.
type TeamService struct {
	submissions *SubmissionStore
	repo        repository.SubmissionRepository
	groups      GroupDirectory
	logger      zerolog.Logger
}

// NewTeamService constructs the team aggregation service.
func NewTeamService(submissions *SubmissionStore, repo repository.SubmissionRepository, groups GroupDirectory, logger zerolog.Logger) *TeamService {
	return &TeamService{
		submissions: submissions,
		repo:        repo,
		groups:      groups,
		logger:      logger.With().Str("component", "team_service").Logger(),
	}
}

// UpdateTeamSubmission recomputes the team record after one member's
// submission changed.
//
// The member's individual record is stamped with the new status first, then
// every member record in the group is inspected: the team record becomes
// submitted when all members have submitted, or, if the assignment does not
// require every member to submit, when any member has. Returns the refreshed
// team submission.
func (s *TeamService) UpdateTeamSubmission(ctx context.Context, scope *Scope, userID uint, submitted bool) (models.Submission, error) {
	member, _, err := s.submissions.UserSubmission(ctx, scope, userID, true)
	if err != nil {
		return models.Submission{}, err
	}
	member.Status = statusFor(submitted)
	if err := s.submissions.Update(ctx, &member, true); err != nil {
		return models.Submission{}, err
	}

	team, _, err := s.submissions.GroupSubmission(ctx, scope, userID, 0, true)
	if err != nil {
		return models.Submission{}, err
	}

	members, err := scope.GroupMembers(ctx, s.groups, team.GroupID)
	if err != nil {
		return models.Submission{}, err
	}

	allSubmitted := true
	anySubmitted := false
	for _, memberID := range members {
		record, found, err := s.submissions.UserSubmission(ctx, scope, memberID, false)
		if err != nil {
			return models.Submission{}, err
		}
		if found && record.IsSubmitted() {
			anySubmitted = true
		} else {
			allSubmitted = false
		}
	}

	teamSubmitted := anySubmitted
	if scope.Assignment.RequireAllTeamMembersSubmit {
		teamSubmitted = allSubmitted
	}

	newStatus := statusFor(teamSubmitted)
	if team.Status != newStatus {
		team.Status = newStatus
		if err := s.submissions.Update(ctx, &team, true); err != nil {
			return models.Submission{}, err
		}
		s.logger.Info().
			Uint("assignment_id", scope.Assignment.ID).
			Uint("group_id", team.GroupID).
			Str("status", team.Status).
			Msg("team submission status changed")
	}
	return team, nil
}

func statusFor(submitted bool) string {
	if submitted {
		return models.SubmissionStatusSubmitted
	}
	return models.SubmissionStatusDraft
}
