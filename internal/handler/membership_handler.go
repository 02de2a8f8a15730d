package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/coursehub-go-api/internal/dto"
	"github.com/noah-isme/coursehub-go-api/internal/service"
	"github.com/noah-isme/coursehub-go-api/internal/utils"
)

// MembershipHandler wires the grouping membership endpoints.
type MembershipHandler struct {
	service service.MembershipService
	logger  zerolog.Logger
}

// NewMembershipHandler constructs the handler.
func NewMembershipHandler(service service.MembershipService, logger zerolog.Logger) *MembershipHandler {
	return &MembershipHandler{
		service: service,
		logger:  logger.With().Str("component", "membership_handler").Logger(),
	}
}

// Register attaches membership routes to the grouping router group.
func (h *MembershipHandler) Register(router fiber.Router) {
	router.Post("/:id/invite", h.invite)
	router.Post("/:id/join", h.join)
}

func (h *MembershipHandler) invite(c *fiber.Ctx) error {
	groupingID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid grouping identifier")
	}

	var payload dto.InviteRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if payload.StudentID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "student_id is required")
	}

	membership, created, err := h.service.Invite(c.UserContext(), payload.StudentID, groupingID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrStudentNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "student not found")
		case errors.Is(err, service.ErrGroupingNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "grouping not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to invite student")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to invite student")
	}

	if !created {
		// hidden students are silently skipped
		return utils.SendSuccess(c, "student not eligible for invitation", nil)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "invitation created", membership)
}

func (h *MembershipHandler) join(c *fiber.Ctx) error {
	groupingID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid grouping identifier")
	}

	studentID := userIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	membership, err := h.service.Join(c.UserContext(), studentID, groupingID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGroupingNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "grouping not found")
		case errors.Is(err, service.ErrMembershipNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "no invitation to join this grouping")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to join grouping")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to join grouping")
	}

	return utils.SendSuccess(c, "grouping joined", membership)
}
