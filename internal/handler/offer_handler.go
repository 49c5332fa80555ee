package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/fairyhunter13/offer-marketplace/internal/model"
	"github.com/fairyhunter13/offer-marketplace/internal/service"
)

// OfferServiceInterface defines the offer use cases.
type OfferServiceInterface interface {
	ListPublic(ctx context.Context, f model.OfferFilter) ([]model.OfferDetail, error)
	Get(ctx context.Context, id string) (*model.OfferDetail, error)
	ClaimOffer(ctx context.Context, customerID, offerID string) (*model.ClaimResponse, error)
	ListOwn(ctx context.Context, ownerID string, f model.OfferFilter) ([]model.OfferDetail, error)
	Create(ctx context.Context, ownerID string, req *model.CreateOfferRequest) (*model.OfferDetail, error)
	Update(ctx context.Context, ownerID, id string, req *model.UpdateOfferRequest) (*model.OfferDetail, error)
	SetActive(ctx context.Context, ownerID, id string, active bool) (*model.OfferDetail, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// OfferHandler handles public discovery, claiming and business offer management.
type OfferHandler struct {
	service   OfferServiceInterface
	validator *validator.Validate
}

// NewOfferHandler creates a new OfferHandler.
func NewOfferHandler(svc OfferServiceInterface, v *validator.Validate) *OfferHandler {
	return &OfferHandler{service: svc, validator: v}
}

// ListOffers handles GET /api/offers?business_id=&limit=&offset=.
func (h *OfferHandler) ListOffers(c *fiber.Ctx) error {
	f := model.OfferFilter{BusinessID: c.Query("business_id")}
	if f.BusinessID != "" {
		if _, err := uuid.Parse(f.BusinessID); err != nil {
			return respondError(c, invalidRequest("business_id must be a valid id"))
		}
	}
	f.Limit, f.Offset = pageQuery(c)

	list, err := h.service.ListPublic(c.Context(), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// GetOffer handles GET /api/offers/:id.
func (h *OfferHandler) GetOffer(c *fiber.Ctx) error {
	id, err := pathID(c, "id", service.ErrOfferNotFound)
	if err != nil {
		return respondError(c, err)
	}
	offer, err := h.service.Get(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(offer)
}

// ClaimOffer handles POST /api/offers/:id/claim for customers and guests.
func (h *OfferHandler) ClaimOffer(c *fiber.Ctx) error {
	id, err := pathID(c, "id", service.ErrOfferNotFound)
	if err != nil {
		return respondError(c, err)
	}
	resp, err := h.service.ClaimOffer(c.Context(), PrincipalFrom(c).CustomerID, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// ListOwnOffers handles GET /api/business/offers.
func (h *OfferHandler) ListOwnOffers(c *fiber.Ctx) error {
	var f model.OfferFilter
	f.Limit, f.Offset = pageQuery(c)
	list, err := h.service.ListOwn(c.Context(), PrincipalFrom(c).AccountID, f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// CreateOffer handles POST /api/business/offers.
func (h *OfferHandler) CreateOffer(c *fiber.Ctx) error {
	var req model.CreateOfferRequest
	if err := bind(c, h.validator, &req); err != nil {
		return respondError(c, err)
	}
	offer, err := h.service.Create(c.Context(), PrincipalFrom(c).AccountID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(offer)
}

// UpdateOffer handles PUT /api/business/offers/:id.
func (h *OfferHandler) UpdateOffer(c *fiber.Ctx) error {
	id, err := pathID(c, "id", service.ErrOfferNotFound)
	if err != nil {
		return respondError(c, err)
	}
	var req model.UpdateOfferRequest
	if err := bind(c, h.validator, &req); err != nil {
		return respondError(c, err)
	}
	offer, err := h.service.Update(c.Context(), PrincipalFrom(c).AccountID, id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(offer)
}

// SetOfferActive handles PATCH /api/business/offers/:id/active.
func (h *OfferHandler) SetOfferActive(c *fiber.Ctx) error {
	id, err := pathID(c, "id", service.ErrOfferNotFound)
	if err != nil {
		return respondError(c, err)
	}
	var req model.SetOfferActiveRequest
	if err := bind(c, h.validator, &req); err != nil {
		return respondError(c, err)
	}
	offer, err := h.service.SetActive(c.Context(), PrincipalFrom(c).AccountID, id, *req.IsActive)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(offer)
}

// DeleteOffer handles DELETE /api/business/offers/:id.
func (h *OfferHandler) DeleteOffer(c *fiber.Ctx) error {
	id, err := pathID(c, "id", service.ErrOfferNotFound)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.service.Delete(c.Context(), PrincipalFrom(c).AccountID, id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
