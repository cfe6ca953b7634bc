package handler

import (
	"errors"
	"net/http"
	"strconv"

	"petal-pearl/internal/core/logger"
	"petal-pearl/internal/features/notifications/domain"
	"petal-pearl/internal/features/notifications/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// NotificationHandler serves the admin inbox.
type NotificationHandler struct {
	service *service.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(s *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: s}
}

// ErrorResponse represents an error response with Ray ID.
type ErrorResponse struct {
	Message string `json:"message"`
	RayID   string `json:"ray_id,omitempty"`
}

// InboxResponse is the admin inbox with its unread counter.
type InboxResponse struct {
	Notifications []*domain.Notification `json:"notifications"`
	Unread        int64                  `json:"unread"`
}

func rayID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestid").(string)
	return id
}

func internalError(c *fiber.Ctx, err error) error {
	logger.Get().Error("Notification request failed", zap.String("ray_id", rayID(c)), zap.Error(err))
	return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
		Message: "Internal Server Error",
		RayID:   rayID(c),
	})
}

// List godoc
// @Summary Admin notifications
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} InboxResponse
// @Router /admin/notifications [get]
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	ctx := c.UserContext()

	list, err := h.service.List(ctx)
	if err != nil {
		return internalError(c, err)
	}
	unread, err := h.service.UnreadCount(ctx)
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(InboxResponse{Notifications: list, Unread: unread})
}

// MarkRead godoc
// @Summary Mark a notification as read
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 200 {object} domain.Notification
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /admin/notifications/{id}/read [patch]
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Message: "Invalid notification id",
			RayID:   rayID(c),
		})
	}

	n, err := h.service.MarkRead(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotificationNotFound) {
			return c.Status(http.StatusNotFound).JSON(ErrorResponse{
				Message: err.Error(),
				RayID:   rayID(c),
			})
		}
		return internalError(c, err)
	}
	return c.JSON(n)
}
