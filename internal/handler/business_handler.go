package handler

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/fairyhunter13/offer-marketplace/internal/model"
	"github.com/fairyhunter13/offer-marketplace/internal/service"
)

// BusinessServiceInterface defines the business profile use cases.
type BusinessServiceInterface interface {
	GetOwn(ctx context.Context, ownerID string) (*model.Business, error)
	GetPublic(ctx context.Context, id string, loc *time.Location) (*model.BusinessProfile, error)
	GetOwnProfile(ctx context.Context, ownerID string, loc *time.Location) (*model.BusinessProfile, error)
	UpdateOwn(ctx context.Context, ownerID string, req *model.UpdateBusinessRequest) (*model.Business, error)
}

// ProductServiceInterface defines the product use cases of a business.
type ProductServiceInterface interface {
	List(ctx context.Context, ownerID string, limit, offset int) ([]model.Product, error)
	Create(ctx context.Context, ownerID string, req *model.ProductRequest) (*model.Product, error)
	Update(ctx context.Context, ownerID, id string, req *model.ProductRequest) (*model.Product, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// BusinessHandler handles business profiles and their products.
type BusinessHandler struct {
	businesses BusinessServiceInterface
	products   ProductServiceInterface
	validator  *validator.Validate
}

// NewBusinessHandler creates a new BusinessHandler.
func NewBusinessHandler(businesses BusinessServiceInterface, products ProductServiceInterface, v *validator.Validate) *BusinessHandler {
	return &BusinessHandler{businesses: businesses, products: products, validator: v}
}

// GetBusiness handles GET /api/businesses/:id?tz=.
func (h *BusinessHandler) GetBusiness(c *fiber.Ctx) error {
	id, err := pathID(c, "id", service.ErrBusinessNotFound)
	if err != nil {
		return respondError(c, err)
	}
	loc, err := location(c)
	if err != nil {
		return respondError(c, err)
	}
	profile, err := h.businesses.GetPublic(c.Context(), id, loc)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// GetProfile handles GET /api/business/profile?tz=.
func (h *BusinessHandler) GetProfile(c *fiber.Ctx) error {
	loc, err := location(c)
	if err != nil {
		return respondError(c, err)
	}
	profile, err := h.businesses.GetOwnProfile(c.Context(), PrincipalFrom(c).AccountID, loc)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// UpdateProfile handles PUT /api/business/profile.
func (h *BusinessHandler) UpdateProfile(c *fiber.Ctx) error {
	var req model.UpdateBusinessRequest
	if err := bind(c, h.validator, &req); err != nil {
		return respondError(c, err)
	}
	b, err := h.businesses.UpdateOwn(c.Context(), PrincipalFrom(c).AccountID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(b)
}

// ListProducts handles GET /api/business/products?limit=&offset=.
func (h *BusinessHandler) ListProducts(c *fiber.Ctx) error {
	limit, offset := pageQuery(c)
	list, err := h.products.List(c.Context(), PrincipalFrom(c).AccountID, limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// CreateProduct handles POST /api/business/products.
func (h *BusinessHandler) CreateProduct(c *fiber.Ctx) error {
	var req model.ProductRequest
	if err := bind(c, h.validator, &req); err != nil {
		return respondError(c, err)
	}
	p, err := h.products.Create(c.Context(), PrincipalFrom(c).AccountID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

// UpdateProduct handles PUT /api/business/products/:id.
func (h *BusinessHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := pathID(c, "id", service.ErrProductNotFound)
	if err != nil {
		return respondError(c, err)
	}
	var req model.ProductRequest
	if err := bind(c, h.validator, &req); err != nil {
		return respondError(c, err)
	}
	p, err := h.products.Update(c.Context(), PrincipalFrom(c).AccountID, id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(p)
}

// DeleteProduct handles DELETE /api/business/products/:id.
func (h *BusinessHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := pathID(c, "id", service.ErrProductNotFound)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.products.Delete(c.Context(), PrincipalFrom(c).AccountID, id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
