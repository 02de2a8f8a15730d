package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/coursehub-go-api/internal/service"
	"github.com/noah-isme/coursehub-go-api/internal/utils"
)

// GroupHandler wires group provisioning endpoints under the assignment router.
type GroupHandler struct {
	service service.GroupService
	logger  zerolog.Logger
}

// NewGroupHandler constructs the handler.
func NewGroupHandler(service service.GroupService, logger zerolog.Logger) *GroupHandler {
	return &GroupHandler{
		service: service,
		logger:  logger.With().Str("component", "group_handler").Logger(),
	}
}

// Register attaches group provisioning routes to the assignment router group.
func (h *GroupHandler) Register(router fiber.Router) {
	router.Post("/:id/groups/solo", h.createSolo)
	router.Post("/:id/groups/autogenerated", h.createAutogenerated)
}

func (h *GroupHandler) createSolo(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid assignment identifier")
	}

	studentID := userIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	grouping, err := h.service.CreateGroupForWorkingAloneStudent(c.UserContext(), studentID, assignmentID)
	if err != nil {
		return h.mapProvisionError(c, err, "failed to provision solo group")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "group provisioned", grouping)
}

func (h *GroupHandler) createAutogenerated(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid assignment identifier")
	}

	studentID := userIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	grouping, err := h.service.CreateAutogeneratedNameGroup(c.UserContext(), studentID, assignmentID)
	if err != nil {
		return h.mapProvisionError(c, err, "failed to provision autogenerated group")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "group provisioned", grouping)
}

func (h *GroupHandler) mapProvisionError(c *fiber.Ctx, err error, message string) error {
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.Is(err, service.ErrStudentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "student not found")
	case errors.Is(err, service.ErrGroupCreationFailed), errors.Is(err, service.ErrGroupingCreationFailed):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, message)
	}
	requestLogger(h.logger, c).Error().Err(err).Msg(message)
	return utils.SendError(c, fiber.StatusInternalServerError, message)
}
