package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/offer-marketplace/internal/lifecycle"
	"github.com/fairyhunter13/offer-marketplace/internal/model"
	"github.com/fairyhunter13/offer-marketplace/internal/service"
)

func TestListOffers(t *testing.T) {
	var got model.OfferFilter
	offers := &mockOfferService{
		listPublicFn: func(ctx context.Context, f model.OfferFilter) ([]model.OfferDetail, error) {
			got = f
			return []model.OfferDetail{{Offer: model.Offer{ID: testOfferID}, State: model.OfferStateLive}}, nil
		},
	}
	app := setupTestApp(testDeps{offers: offers})

	resp := doRequest(t, app, http.MethodGet, "/api/offers?business_id="+testBusinessID+"&limit=5&offset=10", "")

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, model.OfferFilter{BusinessID: testBusinessID, Limit: 5, Offset: 10}, got)

	var list []model.OfferDetail
	require.NoError(t, decodeJSON(resp, &list))
	require.Len(t, list, 1)
	assert.Equal(t, model.OfferStateLive, list[0].State)
}

func TestListOffers_InvalidBusinessID(t *testing.T) {
	app := setupTestApp(testDeps{})

	resp := doRequest(t, app, http.MethodGet, "/api/offers?business_id=not-a-uuid", "")

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid request: business_id must be a valid id", decodeError(t, resp))
}

func TestGetOffer(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"found", "/api/offers/" + testOfferID, fiber.StatusOK},
		{"malformed id", "/api/offers/abc", fiber.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offers := &mockOfferService{
				getFn: func(ctx context.Context, id string) (*model.OfferDetail, error) {
					return &model.OfferDetail{Offer: model.Offer{ID: id}}, nil
				},
			}
			app := setupTestApp(testDeps{offers: offers})

			resp := doRequest(t, app, http.MethodGet, tt.path, "")

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestClaimOffer_Success(t *testing.T) {
	var gotCustomer, gotOffer string
	offers := &mockOfferService{
		claimFn: func(ctx context.Context, customerID, offerID string) (*model.ClaimResponse, error) {
			gotCustomer, gotOffer = customerID, offerID
			return &model.ClaimResponse{
				Claim:         model.ClaimedOffer{ID: testClaimID, CustomerID: customerID, OfferID: offerID, Status: model.ClaimStatusActive},
				CurrentClaims: 3,
			}, nil
		},
	}
	app := setupTestApp(testDeps{offers: offers})

	resp := doRequest(t, app, http.MethodPost, "/api/offers/"+testOfferID+"/claim", "", sessionCookie(customerToken))

	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "cust-1", gotCustomer)
	assert.Equal(t, testOfferID, gotOffer)

	var body model.ClaimResponse
	require.NoError(t, decodeJSON(resp, &body))
	assert.Equal(t, testClaimID, body.Claim.ID)
	assert.Equal(t, 3, body.CurrentClaims)
}

func TestClaimOffer_Guest(t *testing.T) {
	var gotCustomer string
	offers := &mockOfferService{
		claimFn: func(ctx context.Context, customerID, offerID string) (*model.ClaimResponse, error) {
			gotCustomer = customerID
			return &model.ClaimResponse{}, nil
		},
	}
	app := setupTestApp(testDeps{offers: offers})

	resp := doRequest(t, app, http.MethodPost, "/api/offers/"+testOfferID+"/claim", "",
		&http.Cookie{Name: "guest_session", Value: guestToken})

	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "guest-1", gotCustomer)
}

func TestClaimOffer_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"inactive", lifecycle.ErrNotActive, fiber.StatusBadRequest, "offer is not active"},
		{"outside window", lifecycle.ErrOutOfWindow, fiber.StatusBadRequest, "offer is not available at this time"},
		{"limit reached", lifecycle.ErrLimitReached, fiber.StatusBadRequest, "offer claim limit reached"},
		{"already claimed", service.ErrAlreadyClaimed, fiber.StatusConflict, "offer already claimed by customer"},
		{"unknown offer", service.ErrOfferNotFound, fiber.StatusNotFound, "offer not found"},
		{"store failure", fmt.Errorf("claim offer: %w", errors.New("connection reset")), fiber.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offers := &mockOfferService{
				claimFn: func(ctx context.Context, customerID, offerID string) (*model.ClaimResponse, error) {
					return nil, tt.err
				},
			}
			app := setupTestApp(testDeps{offers: offers})

			resp := doRequest(t, app, http.MethodPost, "/api/offers/"+testOfferID+"/claim", "", sessionCookie(customerToken))

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantMsg, decodeError(t, resp))
		})
	}
}

func TestClaimOffer_RequiresCustomer(t *testing.T) {
	tests := []struct {
		name       string
		cookies    []*http.Cookie
		wantStatus int
	}{
		{"anonymous", nil, fiber.StatusUnauthorized},
		{"business account", []*http.Cookie{sessionCookie(businessToken)}, fiber.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offers := &mockOfferService{
				claimFn: func(ctx context.Context, customerID, offerID string) (*model.ClaimResponse, error) {
					t.Fatal("claim must not reach the service")
					return nil, nil
				},
			}
			app := setupTestApp(testDeps{offers: offers})

			resp := doRequest(t, app, http.MethodPost, "/api/offers/"+testOfferID+"/claim", "", tt.cookies...)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestCreateOffer(t *testing.T) {
	var gotOwner string
	var gotReq *model.CreateOfferRequest
	offers := &mockOfferService{
		createFn: func(ctx context.Context, ownerID string, req *model.CreateOfferRequest) (*model.OfferDetail, error) {
			gotOwner, gotReq = ownerID, req
			return &model.OfferDetail{Offer: model.Offer{ID: testOfferID, Title: req.Title}}, nil
		},
	}
	app := setupTestApp(testDeps{offers: offers})

	body := fmt.Sprintf(`{"product_id":%q,"title":"Half-price latte","discount_percentage":50,`+
		`"start_date":"2025-06-01T00:00:00Z","expiry_date":"2025-06-30T00:00:00Z","max_claims":100}`, testProductID)
	resp := doRequest(t, app, http.MethodPost, "/api/business/offers", body, sessionCookie(businessToken))

	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "owner-1", gotOwner)
	require.NotNil(t, gotReq.MaxClaims)
	assert.Equal(t, 100, *gotReq.MaxClaims)
	assert.InDelta(t, 50.0, *gotReq.DiscountPercentage, 0.0001)
}

func TestCreateOffer_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			"zero discount",
			`{"product_id":"` + testProductID + `","title":"x","discount_percentage":0,"start_date":"2025-06-01T00:00:00Z","expiry_date":"2025-06-30T00:00:00Z"}`,
			"invalid request: discount_percentage must be greater than 0",
		},
		{
			"discount over 100",
			`{"product_id":"` + testProductID + `","title":"x","discount_percentage":120,"start_date":"2025-06-01T00:00:00Z","expiry_date":"2025-06-30T00:00:00Z"}`,
			"invalid request: discount_percentage must be at most 100",
		},
		{
			"bad product id",
			`{"product_id":"nope","title":"x","discount_percentage":10,"start_date":"2025-06-01T00:00:00Z","expiry_date":"2025-06-30T00:00:00Z"}`,
			"invalid request: product_id must be a valid id",
		},
		{
			"zero max claims",
			`{"product_id":"` + testProductID + `","title":"x","discount_percentage":10,"start_date":"2025-06-01T00:00:00Z","expiry_date":"2025-06-30T00:00:00Z","max_claims":0}`,
			"invalid request: max_claims must be at least 1",
		},
		{
			"blank title",
			`{"product_id":"` + testProductID + `","title":"   ","discount_percentage":10,"start_date":"2025-06-01T00:00:00Z","expiry_date":"2025-06-30T00:00:00Z"}`,
			"invalid request: title cannot be whitespace only",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setupTestApp(testDeps{})

			resp := doRequest(t, app, http.MethodPost, "/api/business/offers", tt.body, sessionCookie(businessToken))

			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.want, decodeError(t, resp))
		})
	}
}

func TestCreateOffer_InvalidWindow(t *testing.T) {
	offers := &mockOfferService{
		createFn: func(ctx context.Context, ownerID string, req *model.CreateOfferRequest) (*model.OfferDetail, error) {
			return nil, service.ErrInvalidWindow
		},
	}
	app := setupTestApp(testDeps{offers: offers})

	body := `{"product_id":"` + testProductID + `","title":"x","discount_percentage":10,"start_date":"2025-06-30T00:00:00Z","expiry_date":"2025-06-01T00:00:00Z"}`
	resp := doRequest(t, app, http.MethodPost, "/api/business/offers", body, sessionCookie(businessToken))

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "expiry_date must not be before start_date", decodeError(t, resp))
}

func TestSetOfferActive(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantActive bool
	}{
		{"activate", `{"is_active":true}`, nil, fiber.StatusOK, true},
		{"deactivate", `{"is_active":false}`, nil, fiber.StatusOK, false},
		{"missing flag", `{}`, nil, fiber.StatusBadRequest, false},
		{"expired", `{"is_active":true}`, lifecycle.ErrOfferExpired, fiber.StatusBadRequest, false},
		{"other business", `{"is_active":true}`, service.ErrOfferNotFound, fiber.StatusNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *bool
			offers := &mockOfferService{
				setActiveFn: func(ctx context.Context, ownerID, id string, active bool) (*model.OfferDetail, error) {
					got = &active
					if tt.err != nil {
						return nil, tt.err
					}
					return &model.OfferDetail{Offer: model.Offer{ID: id, IsActive: active}}, nil
				},
			}
			app := setupTestApp(testDeps{offers: offers})

			resp := doRequest(t, app, http.MethodPatch, "/api/business/offers/"+testOfferID+"/active", tt.body, sessionCookie(businessToken))

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantStatus == fiber.StatusOK {
				require.NotNil(t, got)
				assert.Equal(t, tt.wantActive, *got)
			}
		})
	}
}

func TestUpdateOffer_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"expired cannot be rescheduled", service.ErrCannotExtendExpired, fiber.StatusBadRequest},
		{"max below current", service.ErrMaxClaimsBelowCurrent, fiber.StatusBadRequest},
		{"not found", service.ErrOfferNotFound, fiber.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offers := &mockOfferService{
				updateFn: func(ctx context.Context, ownerID, id string, req *model.UpdateOfferRequest) (*model.OfferDetail, error) {
					return nil, tt.err
				},
			}
			app := setupTestApp(testDeps{offers: offers})

			resp := doRequest(t, app, http.MethodPut, "/api/business/offers/"+testOfferID, `{"max_claims":5}`, sessionCookie(businessToken))

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.err.Error(), decodeError(t, resp))
		})
	}
}

func TestDeleteOffer(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"deleted", nil, fiber.StatusNoContent},
		{"has claims", service.ErrOfferHasClaims, fiber.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offers := &mockOfferService{
				deleteFn: func(ctx context.Context, ownerID, id string) error {
					return tt.err
				},
			}
			app := setupTestApp(testDeps{offers: offers})

			resp := doRequest(t, app, http.MethodDelete, "/api/business/offers/"+testOfferID, "", sessionCookie(businessToken))

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestListOwnOffers_ScopedToOwner(t *testing.T) {
	var gotOwner string
	offers := &mockOfferService{
		listOwnFn: func(ctx context.Context, ownerID string, f model.OfferFilter) ([]model.OfferDetail, error) {
			gotOwner = ownerID
			return []model.OfferDetail{}, nil
		},
	}
	app := setupTestApp(testDeps{offers: offers})

	resp := doRequest(t, app, http.MethodGet, "/api/business/offers", "", sessionCookie(businessToken))

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "owner-1", gotOwner)
}
