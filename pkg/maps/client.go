// Package maps wraps the Google Maps geocoding and places web services.
package maps

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gmaps "googlemaps.github.io/maps"
)

var (
	// ErrUpstream is returned when the provider fails or answers with a non-OK status.
	ErrUpstream = errors.New("maps provider error")

	// ErrNoResults is returned when the provider found nothing for the query.
	ErrNoResults = errors.New("no results")

	// ErrNotConfigured is returned when no API key is set.
	ErrNotConfigured = errors.New("maps api key is not configured")
)

// Location is a WGS84 coordinate.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// GeocodeResult is the best match for a free-form address.
type GeocodeResult struct {
	Location         Location `json:"location"`
	FormattedAddress string   `json:"formatted_address"`
	PlaceID          string   `json:"place_id"`
}

// Prediction is one autocomplete suggestion.
type Prediction struct {
	PlaceID     string `json:"place_id"`
	Description string `json:"description"`
}

// Place is the subset of place details a business profile uses.
type Place struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formatted_address"`
	Location         Location `json:"location"`
	Phone            string   `json:"phone"`
	Website          string   `json:"website"`
}

var detailFields = []gmaps.PlaceDetailsFieldMask{
	gmaps.PlaceDetailsFieldMaskPlaceID,
	gmaps.PlaceDetailsFieldMaskName,
	gmaps.PlaceDetailsFieldMaskFormattedAddress,
	gmaps.PlaceDetailsFieldMaskGeometry,
	gmaps.PlaceDetailsFieldMaskFormattedPhoneNumber,
	gmaps.PlaceDetailsFieldMaskWebsite,
}

// Client calls the Maps web services through the official SDK. It performs
// no retries. A Client built without an API key answers ErrNotConfigured.
type Client struct {
	api *gmaps.Client
	err error
}

// NewClient creates a Client. baseURL overrides the provider host
// (https://maps.googleapis.com) and may be empty.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if apiKey == "" {
		return &Client{err: ErrNotConfigured}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	opts := []gmaps.ClientOption{
		gmaps.WithAPIKey(apiKey),
		gmaps.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if baseURL != "" {
		opts = append(opts, gmaps.WithBaseURL(strings.TrimRight(baseURL, "/")))
	}
	api, err := gmaps.NewClient(opts...)
	if err != nil {
		return &Client{err: fmt.Errorf("%w: %v", ErrNotConfigured, err)}
	}
	return &Client{api: api}
}

// Geocode resolves an address to coordinates.
func (c *Client) Geocode(ctx context.Context, address string) (*GeocodeResult, error) {
	if c.err != nil {
		return nil, c.err
	}
	results, err := c.api.Geocode(ctx, &gmaps.GeocodingRequest{Address: address})
	if err != nil {
		return nil, translate(err)
	}
	if len(results) == 0 {
		return nil, ErrNoResults
	}
	r := results[0]
	return &GeocodeResult{
		Location:         location(r.Geometry.Location),
		FormattedAddress: r.FormattedAddress,
		PlaceID:          r.PlaceID,
	}, nil
}

// Autocomplete suggests places for partial input. No matches is an empty list.
func (c *Client) Autocomplete(ctx context.Context, input string) ([]Prediction, error) {
	if c.err != nil {
		return nil, c.err
	}
	resp, err := c.api.PlaceAutocomplete(ctx, &gmaps.PlaceAutocompleteRequest{Input: input})
	if err != nil {
		if err := translate(err); !errors.Is(err, ErrNoResults) {
			return nil, err
		}
	}
	preds := make([]Prediction, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		preds = append(preds, Prediction{PlaceID: p.PlaceID, Description: p.Description})
	}
	return preds, nil
}

// Details fetches a place by its ID.
func (c *Client) Details(ctx context.Context, placeID string) (*Place, error) {
	if c.err != nil {
		return nil, c.err
	}
	r, err := c.api.PlaceDetails(ctx, &gmaps.PlaceDetailsRequest{PlaceID: placeID, Fields: detailFields})
	if err != nil {
		return nil, translate(err)
	}
	if r.PlaceID == "" {
		return nil, ErrNoResults
	}
	return &Place{
		PlaceID:          r.PlaceID,
		Name:             r.Name,
		FormattedAddress: r.FormattedAddress,
		Location:         location(r.Geometry.Location),
		Phone:            r.FormattedPhoneNumber,
		Website:          r.Website,
	}, nil
}

func location(l gmaps.LatLng) Location {
	return Location{Lat: l.Lat, Lng: l.Lng}
}

// translate maps SDK errors onto the package sentinels. The SDK reports
// provider statuses as "maps: <STATUS> - <message>".
func translate(err error) error {
	msg := err.Error()
	if strings.HasPrefix(msg, "maps: NOT_FOUND") || strings.HasPrefix(msg, "maps: ZERO_RESULTS") {
		return ErrNoResults
	}
	return fmt.Errorf("%w: %v", ErrUpstream, err)
}
