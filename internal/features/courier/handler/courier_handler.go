package handler

import (
	"errors"

	"petal-pearl/internal/features/courier/domain"
	"petal-pearl/internal/features/courier/service"

	"github.com/gofiber/fiber/v2"
)

// CourierHandler handles HTTP requests for courier operations.
type CourierHandler struct {
	courierService *service.CourierService
}

// NewCourierHandler creates a new CourierHandler.
func NewCourierHandler(courierService *service.CourierService) *CourierHandler {
	return &CourierHandler{
		courierService: courierService,
	}
}

// ErrorResponse represents an error response with Ray ID.
type ErrorResponse struct {
	// Message is the error description.
	Message string `json:"message"`
	// RayID is the unique request identifier for tracing.
	RayID string `json:"ray_id,omitempty"`
}

func rayID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestid").(string)
	return id
}

// Track godoc
// @Summary Track a consignment
// @Description Returns the courier's raw tracking payload for a consignment id
// @Tags courier
// @Produce json
// @Security BearerAuth
// @Param consignmentId path string true "Consignment ID"
// @Param courier query string false "Courier name" default(steadfast)
// @Success 200 {object} object
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /courier/track/{consignmentId} [get]
func (h *CourierHandler) Track(c *fiber.Ctx) error {
	consignmentID := c.Params("consignmentId")
	if consignmentID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Message: "consignment id is required",
			RayID:   rayID(c),
		})
	}

	courier := c.Query("courier", domain.CourierSteadfast)

	payload, err := h.courierService.Track(c.UserContext(), courier, consignmentID)
	if err != nil {
		if errors.Is(err, service.ErrCourierNotSupported) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Message: "courier not supported",
				RayID:   rayID(c),
			})
		}

		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
			Message: err.Error(),
			RayID:   rayID(c),
		})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(payload)
}
