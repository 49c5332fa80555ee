package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/fairyhunter13/offer-marketplace/internal/model"
	"github.com/fairyhunter13/offer-marketplace/internal/service"
)

// ClaimServiceInterface defines the customer's claimed and saved offer operations.
type ClaimServiceInterface interface {
	ListMine(ctx context.Context, customerID string) ([]model.ClaimView, error)
	Redeem(ctx context.Context, customerID, claimID string) (*model.ClaimedOffer, error)
	Save(ctx context.Context, customerID, offerID string) error
	Unsave(ctx context.Context, customerID, offerID string) error
	ListSaved(ctx context.Context, customerID string) ([]model.OfferDetail, error)
}

// ClaimHandler handles the /api/me routes and saving offers.
type ClaimHandler struct {
	service ClaimServiceInterface
}

// NewClaimHandler creates a new ClaimHandler.
func NewClaimHandler(svc ClaimServiceInterface) *ClaimHandler {
	return &ClaimHandler{service: svc}
}

// ListClaims handles GET /api/me/claims.
func (h *ClaimHandler) ListClaims(c *fiber.Ctx) error {
	list, err := h.service.ListMine(c.Context(), PrincipalFrom(c).CustomerID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// Redeem handles POST /api/me/claims/:id/redeem.
func (h *ClaimHandler) Redeem(c *fiber.Ctx) error {
	id, err := pathID(c, "id", service.ErrClaimNotFound)
	if err != nil {
		return respondError(c, err)
	}
	claim, err := h.service.Redeem(c.Context(), PrincipalFrom(c).CustomerID, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(claim)
}

// SaveOffer handles POST /api/offers/:id/save. Saving twice is not an error.
func (h *ClaimHandler) SaveOffer(c *fiber.Ctx) error {
	id, err := pathID(c, "id", service.ErrOfferNotFound)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.service.Save(c.Context(), PrincipalFrom(c).CustomerID, id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UnsaveOffer handles DELETE /api/offers/:id/save.
func (h *ClaimHandler) UnsaveOffer(c *fiber.Ctx) error {
	id, err := pathID(c, "id", service.ErrOfferNotFound)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.service.Unsave(c.Context(), PrincipalFrom(c).CustomerID, id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListSaved handles GET /api/me/saved-offers.
func (h *ClaimHandler) ListSaved(c *fiber.Ctx) error {
	list, err := h.service.ListSaved(c.Context(), PrincipalFrom(c).CustomerID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}
