package handler

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/fairyhunter13/offer-marketplace/pkg/maps"
)

// PlacesClient is the geocoding capability.
type PlacesClient interface {
	Geocode(ctx context.Context, address string) (*maps.GeocodeResult, error)
	Autocomplete(ctx context.Context, input string) ([]maps.Prediction, error)
	Details(ctx context.Context, placeID string) (*maps.Place, error)
}

// PlacesHandler proxies address lookups so the API key stays server-side.
type PlacesHandler struct {
	client PlacesClient
}

// NewPlacesHandler creates a new PlacesHandler.
func NewPlacesHandler(client PlacesClient) *PlacesHandler {
	return &PlacesHandler{client: client}
}

func requiredQuery(c *fiber.Ctx, name string) (string, error) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return "", invalidRequest("%s is required", name)
	}
	if len(v) > 500 {
		return "", invalidRequest("%s exceeds maximum length of 500", name)
	}
	return v, nil
}

// Geocode handles GET /api/places/geocode?address=.
func (h *PlacesHandler) Geocode(c *fiber.Ctx) error {
	address, err := requiredQuery(c, "address")
	if err != nil {
		return respondError(c, err)
	}
	res, err := h.client.Geocode(c.Context(), address)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// Autocomplete handles GET /api/places/autocomplete?input=.
func (h *PlacesHandler) Autocomplete(c *fiber.Ctx) error {
	input, err := requiredQuery(c, "input")
	if err != nil {
		return respondError(c, err)
	}
	preds, err := h.client.Autocomplete(c.Context(), input)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(preds)
}

// Details handles GET /api/places/details?place_id=.
func (h *PlacesHandler) Details(c *fiber.Ctx) error {
	placeID, err := requiredQuery(c, "place_id")
	if err != nil {
		return respondError(c, err)
	}
	place, err := h.client.Details(c.Context(), placeID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(place)
}
