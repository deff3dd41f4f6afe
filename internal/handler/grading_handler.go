package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/assignflow-api/internal/dto"
	"github.com/noah-isme/assignflow-api/internal/grading"
	"github.com/noah-isme/assignflow-api/internal/middleware"
	"github.com/noah-isme/assignflow-api/internal/service"
	"github.com/noah-isme/assignflow-api/internal/utils"
)

// GradingHandler exposes the marker-facing endpoints.
type GradingHandler struct {
	assignments *service.AssignmentService
	grades      *service.GradingService
	rubrics     *grading.Service
	mappings    *service.UserMappingService
	logger      zerolog.Logger
}

// NewGradingHandler constructs the handler.
func NewGradingHandler(assignments *service.AssignmentService, grades *service.GradingService, rubrics *grading.Service, mappings *service.UserMappingService, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		assignments: assignments,
		grades:      grades,
		rubrics:     rubrics,
		mappings:    mappings,
		logger:      logger.With().Str("component", "grading_handler").Logger(),
	}
}

// Register binds the grading routes under an assignment.
func (h *GradingHandler) Register(router fiber.Router) {
	router.Post("/:id/grades/:userId", middleware.WithAuth(h.applyGrade, middleware.AuthOptions{Role: middleware.AuthRoleGrader}))
	router.Put("/:id/grades/:userId/lock", middleware.WithAuth(h.setLocked, middleware.AuthOptions{Role: middleware.AuthRoleGrader}))
	router.Put("/:id/grades/:userId/extension", middleware.WithAuth(h.grantExtension, middleware.AuthOptions{Role: middleware.AuthRoleGrader}))
	router.Post("/:id/reveal/token", middleware.WithAuth(h.issueRevealToken, middleware.AuthOptions{Role: middleware.AuthRoleManager}))
	router.Post("/:id/reveal", middleware.WithAuth(h.reveal, middleware.AuthOptions{Role: middleware.AuthRoleManager}))
	router.Put("/:id/rubric", middleware.WithAuth(h.saveRubric, middleware.AuthOptions{Role: middleware.AuthRoleGrader}))
	router.Get("/:id/participants/:userId", middleware.WithAuth(h.participantID, middleware.AuthOptions{Role: middleware.AuthRoleGrader}))
	router.Get("/:id/participants/:participantId/user", middleware.WithAuth(h.participantUser, middleware.AuthOptions{Role: middleware.AuthRoleGrader}))
}

func (h *GradingHandler) scope(c *fiber.Ctx) (*service.Scope, error) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return nil, err
	}

	assignment, err := h.assignments.Get(requestContext(c), id)
	if err != nil {
		return nil, err
	}
	return service.NewScope(assignment, actorFromContext(c)), nil
}

func (h *GradingHandler) applyGrade(c *fiber.Ctx) error {
	scope, err := h.scope(c)
	if err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}

	userID, err := parseUintParam(c, "userId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user id")
	}

	var payload dto.GradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	grade, result, err := h.grades.ApplyGrade(requestContext(c), scope, userID, payload.Options())
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Uint("assignment_id", scope.Assignment.ID).Uint("user_id", userID).Msg("apply grade failed")
		return utils.SendError(c, statusForError(err), err.Error())
	}

	response := dto.NewGradeResponse(grade)
	response.GradeDisplay = h.grades.DisplayGrade(requestContext(c), scope, grade)
	return utils.OK(c, response, "grade saved", dto.NewSyncResultResponse(result))
}

func (h *GradingHandler) setLocked(c *fiber.Ctx) error {
	scope, err := h.scope(c)
	if err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}

	userID, err := parseUintParam(c, "userId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user id")
	}

	var payload dto.LockRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	grade, err := h.grades.SetLocked(requestContext(c), scope, userID, payload.Locked)
	if err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}
	return utils.SendSuccess(c, "lock updated", dto.NewGradeResponse(grade))
}

func (h *GradingHandler) grantExtension(c *fiber.Ctx) error {
	scope, err := h.scope(c)
	if err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}

	userID, err := parseUintParam(c, "userId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user id")
	}

	var payload dto.ExtensionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	grade, err := h.grades.GrantExtension(requestContext(c), scope, userID, payload.Until)
	if err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}
	return utils.SendSuccess(c, "extension updated", dto.NewGradeResponse(grade))
}

func (h *GradingHandler) issueRevealToken(c *fiber.Ctx) error {
	scope, err := h.scope(c)
	if err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}

	token, err := h.grades.IssueRevealToken(requestContext(c), scope)
	if err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}
	return utils.SendSuccess(c, "token issued", dto.TokenResponse{Token: token})
}

func (h *GradingHandler) reveal(c *fiber.Ctx) error {
	scope, err := h.scope(c)
	if err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}

	var payload dto.RevealRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	assignment, result, err := h.grades.RevealIdentities(requestContext(c), scope, payload.Token)
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Uint("assignment_id", scope.Assignment.ID).Msg("reveal identities failed")
		return utils.SendError(c, statusForError(err), err.Error())
	}
	return utils.OK(c, dto.NewAssignmentResponse(assignment), "identities revealed", dto.NewSyncResultResponse(result))
}

func (h *GradingHandler) saveRubric(c *fiber.Ctx) error {
	scope, err := h.scope(c)
	if err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}

	var payload dto.RubricRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.rubrics.SaveDefinition(requestContext(c), scope.Assignment.ID, payload.Definition, payload.Active); err != nil {
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	}
	return utils.SendSuccess(c, "rubric saved", nil)
}

func (h *GradingHandler) participantID(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid assignment id")
	}
	userID, err := parseUintParam(c, "userId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user id")
	}

	participantID, err := h.mappings.ParticipantID(requestContext(c), id, userID)
	if err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}
	return utils.SendSuccess(c, "participant resolved", dto.ParticipantResponse{ParticipantID: participantID, UserID: userID})
}

func (h *GradingHandler) participantUser(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid assignment id")
	}
	participantID, err := parseUintParam(c, "participantId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid participant id")
	}

	userID, err := h.mappings.UserForParticipant(requestContext(c), id, participantID)
	if err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}
	return utils.SendSuccess(c, "participant resolved", dto.ParticipantResponse{ParticipantID: participantID, UserID: userID})
}
