package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/intake-assistant/internal/api/dto"
	"github.com/spec-kit/intake-assistant/internal/auth"
	"github.com/spec-kit/intake-assistant/internal/domain"
	"github.com/spec-kit/intake-assistant/internal/search"
	"github.com/spec-kit/intake-assistant/internal/service"
)

// IntakeHandler exposes the assistant pipeline over HTTP.
type IntakeHandler struct {
	orchestrator *service.Orchestrator
}

// NewIntakeHandler constructs handler.
func NewIntakeHandler(orchestrator *service.Orchestrator) *IntakeHandler {
	return &IntakeHandler{orchestrator: orchestrator}
}

// Respond handles POST /api/v1/intake/respond.
func (h *IntakeHandler) Respond(c *fiber.Ctx) error {
	var req dto.IntakeRespondRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if strings.TrimSpace(req.Request) == "" {
		return fiber.NewError(http.StatusBadRequest, "request text required")
	}

	viewer := viewerFromContext(c)
	response := h.orchestrator.GenerateResponse(c.UserContext(), viewer, req.Request, req.SessionID, len(req.Screenshots))
	return c.JSON(response)
}

// Status handles GET /api/v1/intake/status/:sessionID.
func (h *IntakeHandler) Status(c *fiber.Ctx) error {
	sessionID := c.Params("sessionID")
	if sessionID == "" {
		return fiber.NewError(http.StatusBadRequest, "session id required")
	}

	log := h.orchestrator.GetStatus(c.UserContext(), sessionID)
	if log == nil {
		return fiber.NewError(http.StatusNotFound, "unknown session")
	}
	return c.JSON(log)
}

// Questions handles POST /api/v1/intake/questions.
func (h *IntakeHandler) Questions(c *fiber.Ctx) error {
	var req dto.IntakeQuestionsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if strings.TrimSpace(req.Request) == "" {
		return fiber.NewError(http.StatusBadRequest, "request text required")
	}

	questions := h.orchestrator.GenerateQuestions(c.UserContext(), req.Request, req.TypeHint)
	return c.JSON(fiber.Map{
		"success":       true,
		"questions":     questions.Questions,
		"usingFallback": questions.UsingFallback,
	})
}

// Submit handles POST /api/v1/intake/submit.
func (h *IntakeHandler) Submit(c *fiber.Ctx) error {
	var req dto.IntakeSubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if strings.TrimSpace(req.Request) == "" {
		return fiber.NewError(http.StatusBadRequest, "request text required")
	}

	principal, _ := auth.PrincipalFromContext(c)
	openedBy := ""
	if principal != nil && principal.User != nil {
		openedBy = principal.User.ID
	}

	submission := domain.Submission{
		InitialRequest: req.Request,
		TypeHint:       req.TypeHint,
		Questions:      req.Questions,
		Responses:      req.Responses,
		Screenshots:    req.Screenshots,
	}

	result := h.orchestrator.SubmitRequest(c.UserContext(), openedBy, submission)
	if !result.Success {
		return c.Status(http.StatusUnprocessableEntity).JSON(result)
	}
	return c.JSON(result)
}

func viewerFromContext(c *fiber.Ctx) search.Viewer {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return search.Viewer{}
	}
	return search.Viewer{UserID: principal.User.ID, Roles: principal.Roles}
}
