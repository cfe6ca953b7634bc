package handler

import (
	"errors"
	"net/http"
	"strconv"

	"petal-pearl/internal/core/logger"
	"petal-pearl/internal/features/catalog/domain"
	"petal-pearl/internal/features/catalog/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ProductHandler serves the storefront catalog and its admin editing routes.
type ProductHandler struct {
	service *service.CatalogService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(s *service.CatalogService) *ProductHandler {
	return &ProductHandler{service: s}
}

// ErrorResponse represents an error response with Ray ID.
type ErrorResponse struct {
	Message string `json:"message"`
	RayID   string `json:"ray_id,omitempty"`
}

func rayID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestid").(string)
	return id
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ErrorResponse{Message: msg, RayID: rayID(c)})
}

func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		return fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidProduct):
		return fail(c, http.StatusBadRequest, err.Error())
	}
	logger.Get().Error("Product request failed",
		zap.String("path", c.Path()),
		zap.String("ray_id", rayID(c)),
		zap.Error(err),
	)
	return fail(c, http.StatusInternalServerError, "Internal Server Error")
}

func productID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	return id, err == nil && id > 0
}

// List godoc
// @Summary List products
// @Description Lists the catalog, optionally narrowed by storefront type and a search term matched against name and category.
// @Tags products
// @Produce json
// @Param type query string false "clothing or ornament"
// @Param q query string false "Search term"
// @Success 200 {array} domain.Product
// @Failure 400 {object} ErrorResponse
// @Router /products [get]
func (h *ProductHandler) List(c *fiber.Ctx) error {
	filter := domain.Filter{
		Type:  domain.ProductType(c.Query("type")),
		Query: c.Query("q"),
	}
	products, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(products)
}

// Get godoc
// @Summary Get a product
// @Tags products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} domain.Product
// @Failure 404 {object} ErrorResponse
// @Router /products/{id} [get]
func (h *ProductHandler) Get(c *fiber.Ctx) error {
	id, ok := productID(c)
	if !ok {
		return fail(c, http.StatusBadRequest, "Invalid product id")
	}
	p, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(p)
}

// Create godoc
// @Summary Create a product
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param product body domain.Product true "Product"
// @Success 201 {object} domain.Product
// @Failure 400 {object} ErrorResponse
// @Router /products [post]
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var p domain.Product
	if err := c.BodyParser(&p); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	created, err := h.service.Create(c.UserContext(), p)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(created)
}

// CreateMany godoc
// @Summary Bulk import products
// @Description Imports a JSON array of products. Nothing is stored when any entry is invalid.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param products body []domain.Product true "Products"
// @Success 201 {array} domain.Product
// @Failure 400 {object} ErrorResponse
// @Router /products/bulk [post]
func (h *ProductHandler) CreateMany(c *fiber.Ctx) error {
	var products []domain.Product
	if err := c.BodyParser(&products); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	created, err := h.service.CreateMany(c.UserContext(), products)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(created)
}

// Update godoc
// @Summary Update a product
// @Description Applies a partial update; omitted fields keep their current value.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param patch body domain.Patch true "Fields to change"
// @Success 200 {object} domain.Product
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /products/{id} [patch]
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, ok := productID(c)
	if !ok {
		return fail(c, http.StatusBadRequest, "Invalid product id")
	}
	var patch domain.Patch
	if err := c.BodyParser(&patch); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	updated, err := h.service.Update(c.UserContext(), id, patch)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(updated)
}

// Delete godoc
// @Summary Delete a product
// @Tags admin
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /products/{id} [delete]
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, ok := productID(c)
	if !ok {
		return fail(c, http.StatusBadRequest, "Invalid product id")
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}
