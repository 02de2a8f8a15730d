package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/coursehub-go-api/internal/dto"
	"github.com/noah-isme/coursehub-go-api/internal/models"
	"github.com/noah-isme/coursehub-go-api/internal/repository"
	"github.com/noah-isme/coursehub-go-api/internal/service"
	"github.com/noah-isme/coursehub-go-api/internal/utils"
)

// StudentHandler wires student-facing endpoints: enrolment, the "me" surface
// for visible assessments and grace credits, and grouping lookups.
type StudentHandler struct {
	students    service.StudentService
	visibility  service.VisibilityService
	graceCredit service.GraceCreditService
	logger      zerolog.Logger
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(
	students service.StudentService,
	visibility service.VisibilityService,
	graceCredit service.GraceCreditService,
	logger zerolog.Logger,
) *StudentHandler {
	return &StudentHandler{
		students:    students,
		visibility:  visibility,
		graceCredit: graceCredit,
		logger:      logger.With().Str("component", "student_handler").Logger(),
	}
}

// Register attaches student routes to the router group.
func (h *StudentHandler) Register(router fiber.Router) {
	router.Get("/me/assessments", h.visibleAssessments)
	router.Get("/me/grace-credits", h.graceCredits)
	router.Get("/me/assignments/:id/grouping", h.acceptedGrouping)
	router.Get("/me/assignments/:id/invitations", h.pendingGroupings)
	router.Get("/:id", h.get)
}

// RegisterAdmin attaches the enrolment route, which is restricted to staff.
func (h *StudentHandler) RegisterAdmin(router fiber.Router) {
	router.Post("/", h.create)
}

func (h *StudentHandler) create(c *fiber.Ctx) error {
	var payload dto.StudentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	student, err := h.students.Create(c.UserContext(), payload)
	if err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to enrol student")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to enrol student")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "student enrolled", student)
}

func (h *StudentHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid student identifier")
	}

	student, err := h.students.Get(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "student not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load student")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load student")
	}

	return utils.SendSuccess(c, "student retrieved", student)
}

func (h *StudentHandler) visibleAssessments(c *fiber.Ctx) error {
	studentID := userIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	filter := repository.VisibleAssessmentFilter{}
	if raw := c.Query("type"); raw != "" {
		assessmentType, ok := assessmentTypeFromString(raw)
		if !ok {
			return utils.SendError(c, fiber.StatusBadRequest, "unknown assessment type")
		}
		filter.Type = assessmentType
	}
	if id, err := parseQueryUint(c, "assessment_id"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid assessment_id")
	} else if id != 0 {
		filter.AssessmentID = id
	}

	assessments, err := h.visibility.VisibleAssessments(c.UserContext(), studentID, filter)
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "student not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list visible assessments")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list assessments")
	}

	return utils.SendSuccess(c, "assessments retrieved", assessments)
}

func (h *StudentHandler) graceCredits(c *fiber.Ctx) error {
	studentID := userIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	credits, err := h.graceCredit.RemainingGraceCredits(c.UserContext(), studentID)
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "student not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to compute grace credits")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to compute grace credits")
	}

	return utils.SendSuccess(c, "grace credits retrieved", credits)
}

func (h *StudentHandler) acceptedGrouping(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid assignment identifier")
	}

	studentID := userIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	grouping, found, err := h.students.AcceptedGroupingFor(c.UserContext(), studentID, assignmentID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to look up grouping")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to look up grouping")
	}
	if !found {
		return utils.SendError(c, fiber.StatusNotFound, "no accepted grouping for this assignment")
	}

	return utils.SendSuccess(c, "grouping retrieved", grouping)
}

func (h *StudentHandler) pendingGroupings(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid assignment identifier")
	}

	studentID := userIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	groupings, err := h.students.PendingGroupingsFor(c.UserContext(), studentID, assignmentID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list invitations")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list invitations")
	}

	return utils.SendSuccess(c, "invitations retrieved", groupings)
}

func assessmentTypeFromString(raw string) (models.AssessmentType, bool) {
	switch raw {
	case string(models.AssessmentTypeAssignment):
		return models.AssessmentTypeAssignment, true
	case string(models.AssessmentTypeGradeEntryForm):
		return models.AssessmentTypeGradeEntryForm, true
	}
	return "", false
}
