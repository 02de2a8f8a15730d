package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/coursehub-go-api/internal/dto"
	"github.com/noah-isme/coursehub-go-api/internal/service"
	"github.com/noah-isme/coursehub-go-api/internal/utils"
)

// AdminStudentHandler wires the staff-only batch operations on students.
type AdminStudentHandler struct {
	admin       service.AdminStudentService
	graceCredit service.GraceCreditService
	logger      zerolog.Logger
}

// NewAdminStudentHandler constructs the handler.
func NewAdminStudentHandler(admin service.AdminStudentService, graceCredit service.GraceCreditService, logger zerolog.Logger) *AdminStudentHandler {
	return &AdminStudentHandler{
		admin:       admin,
		graceCredit: graceCredit,
		logger:      logger.With().Str("component", "admin_student_handler").Logger(),
	}
}

// Register attaches the batch routes to the admin router group.
func (h *AdminStudentHandler) Register(router fiber.Router) {
	router.Patch("/hide", h.hide)
	router.Patch("/unhide", h.unhide)
	router.Patch("/section", h.updateSection)
	router.Patch("/grace-credits", h.adjustGraceCredits)
}

func (h *AdminStudentHandler) hide(c *fiber.Ctx) error {
	return h.setHidden(c, true)
}

func (h *AdminStudentHandler) unhide(c *fiber.Ctx) error {
	return h.setHidden(c, false)
}

func (h *AdminStudentHandler) setHidden(c *fiber.Ctx, hidden bool) error {
	var payload dto.AdminStudentBatchRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if len(payload.StudentIDs) == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "student_ids is required")
	}

	actor := activityActorFromContext(c)
	var err error
	if hidden {
		err = h.admin.HideStudents(c.UserContext(), payload.StudentIDs, actor)
	} else {
		err = h.admin.UnhideStudents(c.UserContext(), payload.StudentIDs, actor)
	}
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Bool("hidden", hidden).Msg("failed to update student visibility")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to update students")
	}

	if hidden {
		return utils.SendSuccess(c, "students hidden", nil)
	}
	return utils.SendSuccess(c, "students unhidden", nil)
}

func (h *AdminStudentHandler) updateSection(c *fiber.Ctx) error {
	var payload dto.AdminSectionUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if len(payload.StudentIDs) == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "student_ids is required")
	}

	if err := h.admin.UpdateSection(c.UserContext(), payload.StudentIDs, payload.SectionID, activityActorFromContext(c)); err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to update student sections")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to update students")
	}

	return utils.SendSuccess(c, "sections updated", nil)
}

func (h *AdminStudentHandler) adjustGraceCredits(c *fiber.Ctx) error {
	var payload dto.AdminGraceCreditsRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if len(payload.StudentIDs) == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "student_ids is required")
	}

	if err := h.graceCredit.GiveGraceCredits(c.UserContext(), payload.StudentIDs, payload.Delta, activityActorFromContext(c)); err != nil {
		requestLogger(h.logger, c).Error().Err(err).Int("delta", payload.Delta).Msg("failed to adjust grace credits")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to adjust grace credits")
	}

	return utils.SendSuccess(c, "grace credits adjusted", nil)
}
