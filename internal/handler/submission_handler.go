package handler

import (
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/assignflow-api/internal/dto"
	"github.com/noah-isme/assignflow-api/internal/middleware"
	"github.com/noah-isme/assignflow-api/internal/plugin"
	"github.com/noah-isme/assignflow-api/internal/service"
	"github.com/noah-isme/assignflow-api/internal/utils"
)

// SubmissionHandler exposes the student-facing submission endpoints.
type SubmissionHandler struct {
	assignments *service.AssignmentService
	submissions *service.SubmissionService
	logger      zerolog.Logger
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(assignments *service.AssignmentService, submissions *service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		assignments: assignments,
		submissions: submissions,
		logger:      logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register binds the submission routes under an assignment.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Post("/:id/submissions", middleware.WithAuth(h.save, middleware.AuthOptions{Role: middleware.AuthRoleStudent}))
	router.Post("/:id/submissions/token", middleware.WithAuth(h.issueToken, middleware.AuthOptions{Role: middleware.AuthRoleStudent}))
	router.Post("/:id/submissions/submit", middleware.WithAuth(h.submit, middleware.AuthOptions{Role: middleware.AuthRoleStudent}))
	router.Post("/:id/submissions/:userId/revert", middleware.WithAuth(h.revert, middleware.AuthOptions{Role: middleware.AuthRoleGrader}))
}

func (h *SubmissionHandler) scope(c *fiber.Ctx) (*service.Scope, error) {
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

func (h *SubmissionHandler) save(c *fiber.Ctx) error {
	scope, err := h.scope(c)
	if err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}

	var payload dto.SaveSubmissionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if scope.Assignment.RequireSubmissionStatement && !payload.AcceptStatement {
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "submission statement must be accepted")
	}

	files, err := formFiles(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid file upload")
	}

	data := plugin.SubmissionData{
		OnlineText:       payload.OnlineText,
		OnlineTextFormat: payload.OnlineTextFormat,
		Files:            files,
	}

	submission, err := h.submissions.SaveSubmission(requestContext(c), scope, data)
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Uint("assignment_id", scope.Assignment.ID).Msg("submission save failed")
		return utils.SendError(c, statusForError(err), err.Error())
	}
	return utils.SendSuccess(c, "submission saved", dto.NewSubmissionResponse(submission))
}

func (h *SubmissionHandler) issueToken(c *fiber.Ctx) error {
	scope, err := h.scope(c)
	if err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}

	token, err := h.submissions.IssueSubmitToken(requestContext(c), scope)
	if err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}
	return utils.SendSuccess(c, "token issued", dto.TokenResponse{Token: token})
}

func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	scope, err := h.scope(c)
	if err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}

	var payload dto.SubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if scope.Assignment.RequireSubmissionStatement && !payload.AcceptStatement {
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "submission statement must be accepted")
	}

	submission, err := h.submissions.SubmitForGrading(requestContext(c), scope, payload.Token)
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Uint("assignment_id", scope.Assignment.ID).Msg("submit for grading failed")
		return utils.SendError(c, statusForError(err), err.Error())
	}
	return utils.SendSuccess(c, "submission submitted", dto.NewSubmissionResponse(submission))
}

func (h *SubmissionHandler) revert(c *fiber.Ctx) error {
	scope, err := h.scope(c)
	if err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}

	userID, err := parseUintParam(c, "userId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user id")
	}

	submission, err := h.submissions.RevertToDraft(requestContext(c), scope, userID)
	if err != nil {
		return utils.SendError(c, statusForError(err), err.Error())
	}
	return utils.SendSuccess(c, "submission reverted to draft", dto.NewSubmissionResponse(submission))
}

// formFiles collects uploaded blobs from the multipart form, if any.
func formFiles(c *fiber.Ctx) ([]plugin.UploadedFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		// Not a multipart request; text-only saves are fine.
		return nil, nil
	}

	var files []plugin.UploadedFile
	for _, header := range form.File["files"] {
		file, err := readFormFile(header)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

func readFormFile(header *multipart.FileHeader) (plugin.UploadedFile, error) {
	opened, err := header.Open()
	if err != nil {
		return plugin.UploadedFile{}, err
	}
	defer func() { _ = opened.Close() }()

	content, err := io.ReadAll(opened)
	if err != nil {
		return plugin.UploadedFile{}, err
	}
	return plugin.UploadedFile{Filename: header.Filename, Content: content}, nil
}
