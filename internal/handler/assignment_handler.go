package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/assignflow-api/internal/dto"
	"github.com/noah-isme/assignflow-api/internal/middleware"
	"github.com/noah-isme/assignflow-api/internal/service"
	"github.com/noah-isme/assignflow-api/internal/utils"
)

// AssignmentHandler exposes assignment configuration endpoints.
type AssignmentHandler struct {
	assignments *service.AssignmentService
	logger      zerolog.Logger
}

// NewAssignmentHandler constructs the handler.
func NewAssignmentHandler(assignments *service.AssignmentService, logger zerolog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		assignments: assignments,
		logger:      logger.With().Str("component", "assignment_handler").Logger(),
	}
}

// Register binds the assignment routes.
func (h *AssignmentHandler) Register(router fiber.Router) {
	router.Get("/", middleware.WithAuth(h.list, middleware.AuthOptions{Role: middleware.AuthRoleAny}))
	router.Get("/:id", middleware.WithAuth(h.get, middleware.AuthOptions{Role: middleware.AuthRoleAny}))
	router.Post("/", middleware.WithAuth(h.create, middleware.AuthOptions{Role: middleware.AuthRoleGrader}))
	router.Put("/:id", middleware.WithAuth(h.update, middleware.AuthOptions{Role: middleware.AuthRoleGrader}))
	router.Delete("/:id", middleware.WithAuth(h.delete, middleware.AuthOptions{Role: middleware.AuthRoleManager}))
}

func (h *AssignmentHandler) list(c *fiber.Ctx) error {
	courseID, err := parseQueryInt(c, "course_id")
	if err != nil || courseID < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	assignments, err := h.assignments.List(requestContext(c), uint(courseID))
	if err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}
	return utils.SendSuccess(c, "assignments", dto.NewAssignmentResponseSlice(assignments))
}

func (h *AssignmentHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid assignment id")
	}

	assignment, err := h.assignments.Get(requestContext(c), id)
	if err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}
	return utils.SendSuccess(c, "assignment", dto.NewAssignmentResponse(assignment))
}

func (h *AssignmentHandler) create(c *fiber.Ctx) error {
	var payload dto.AssignmentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	assignment, err := h.assignments.Create(requestContext(c), actorFromContext(c), payload.Params())
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Msg("assignment create failed")
		return utils.SendError(c, statusForError(err), err.Error())
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assignment created", dto.NewAssignmentResponse(assignment))
}

func (h *AssignmentHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid assignment id")
	}

	var payload dto.AssignmentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	assignment, err := h.assignments.Update(requestContext(c), actorFromContext(c), id, payload.Params())
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Uint("assignment_id", id).Msg("assignment update failed")
		return utils.SendError(c, statusForError(err), err.Error())
	}
	return utils.SendSuccess(c, "assignment updated", dto.NewAssignmentResponse(assignment))
}

func (h *AssignmentHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid assignment id")
	}

	if err := h.assignments.Delete(requestContext(c), actorFromContext(c), id); err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Uint("assignment_id", id).Msg("assignment delete failed")
		return utils.SendError(c, statusForError(err), err.Error())
	}
	return utils.SendSuccess(c, "assignment deleted", nil)
}
