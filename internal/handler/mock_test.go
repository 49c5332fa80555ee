package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/offer-marketplace/internal/identity"
	"github.com/fairyhunter13/offer-marketplace/internal/model"
	"github.com/fairyhunter13/offer-marketplace/internal/service"
	"github.com/fairyhunter13/offer-marketplace/internal/validator"
	"github.com/fairyhunter13/offer-marketplace/pkg/maps"
)

const (
	testOfferID    = "6f1c2c1e-4a51-4c1a-9a50-5a1f7e3c7a10"
	testClaimID    = "0b5d3d4e-1c2a-4f8e-9d7b-2a6c8e4f1b3d"
	testBusinessID = "9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"
	testProductID  = "3c4d5e6f-7a8b-4c9d-8e0f-1a2b3c4d5e6f"

	businessToken = "business-access"
	customerToken = "customer-access"
	expiredToken  = "expired-access"
	refreshToken  = "good-refresh"
	guestToken    = "guest-token"
)

var (
	businessPrincipal = identity.Principal{AccountID: "owner-1", Email: "owner@example.com", Role: model.RoleBusiness}
	customerPrincipal = identity.Principal{AccountID: "cust-1", Email: "shopper@example.com", Role: model.RoleCustomer, CustomerID: "cust-1"}
	guestPrincipal    = identity.Principal{CustomerID: "guest-1", Guest: true}
)

// fakeResolver resolves the fixed test tokens.
type fakeResolver struct {
	verifyErr  error
	refreshed  int
	refreshErr error
}

func (f *fakeResolver) VerifySession(ctx context.Context, accessToken string) (*identity.Principal, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	switch accessToken {
	case businessToken:
		p := businessPrincipal
		return &p, nil
	case customerToken:
		p := customerPrincipal
		return &p, nil
	case expiredToken:
		return nil, identity.ErrExpiredToken
	}
	return nil, identity.ErrInvalidToken
}

func (f *fakeResolver) Refresh(ctx context.Context, token string) (*identity.Session, error) {
	f.refreshed++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	if token != refreshToken {
		return nil, identity.ErrTokenRevoked
	}
	return &identity.Session{
		AccessToken:      "rotated-access",
		RefreshToken:     "rotated-refresh",
		AccessExpiresAt:  time.Now().Add(time.Hour),
		RefreshExpiresAt: time.Now().Add(24 * time.Hour),
		Principal:        customerPrincipal,
	}, nil
}

func (f *fakeResolver) ResolveGuest(ctx context.Context, token string) (*identity.Principal, error) {
	if token != guestToken {
		return nil, service.ErrGuestSessionNotFound
	}
	p := guestPrincipal
	return &p, nil
}

type mockAuthService struct {
	signUpFn  func(ctx context.Context, req *model.SignUpRequest) (*identity.Session, error)
	signInFn  func(ctx context.Context, req *model.SignInRequest) (*identity.Session, error)
	signOutFn func(ctx context.Context, accessToken, refreshToken string) error
	resetFn   func(ctx context.Context, email string) error
	confirmFn func(ctx context.Context, req *model.ConfirmResetRequest) error
	guestFn   func(ctx context.Context) (*model.Customer, error)
}

func (m *mockAuthService) SignUp(ctx context.Context, req *model.SignUpRequest) (*identity.Session, error) {
	if m.signUpFn != nil {
		return m.signUpFn(ctx, req)
	}
	return &identity.Session{}, nil
}

func (m *mockAuthService) SignIn(ctx context.Context, req *model.SignInRequest) (*identity.Session, error) {
	if m.signInFn != nil {
		return m.signInFn(ctx, req)
	}
	return &identity.Session{}, nil
}

func (m *mockAuthService) SignOut(ctx context.Context, accessToken, refreshToken string) error {
	if m.signOutFn != nil {
		return m.signOutFn(ctx, accessToken, refreshToken)
	}
	return nil
}

func (m *mockAuthService) ResetPassword(ctx context.Context, email string) error {
	if m.resetFn != nil {
		return m.resetFn(ctx, email)
	}
	return nil
}

func (m *mockAuthService) ConfirmPasswordReset(ctx context.Context, req *model.ConfirmResetRequest) error {
	if m.confirmFn != nil {
		return m.confirmFn(ctx, req)
	}
	return nil
}

func (m *mockAuthService) StartGuestSession(ctx context.Context) (*model.Customer, error) {
	if m.guestFn != nil {
		return m.guestFn(ctx)
	}
	token := "new-guest-token"
	exp := time.Now().Add(720 * time.Hour)
	return &model.Customer{ID: "guest-9", SessionToken: &token, SessionExpiresAt: &exp}, nil
}

func (m *mockAuthService) Session(ctx context.Context, p *identity.Principal) (*model.SessionResponse, error) {
	return &model.SessionResponse{
		AccountID:  p.AccountID,
		Email:      p.Email,
		Role:       p.Role,
		CustomerID: p.CustomerID,
		Guest:      p.Guest,
	}, nil
}

type mockOfferService struct {
	listPublicFn func(ctx context.Context, f model.OfferFilter) ([]model.OfferDetail, error)
	getFn        func(ctx context.Context, id string) (*model.OfferDetail, error)
	claimFn      func(ctx context.Context, customerID, offerID string) (*model.ClaimResponse, error)
	listOwnFn    func(ctx context.Context, ownerID string, f model.OfferFilter) ([]model.OfferDetail, error)
	createFn     func(ctx context.Context, ownerID string, req *model.CreateOfferRequest) (*model.OfferDetail, error)
	updateFn     func(ctx context.Context, ownerID, id string, req *model.UpdateOfferRequest) (*model.OfferDetail, error)
	setActiveFn  func(ctx context.Context, ownerID, id string, active bool) (*model.OfferDetail, error)
	deleteFn     func(ctx context.Context, ownerID, id string) error
}

func (m *mockOfferService) ListPublic(ctx context.Context, f model.OfferFilter) ([]model.OfferDetail, error) {
	if m.listPublicFn != nil {
		return m.listPublicFn(ctx, f)
	}
	return []model.OfferDetail{}, nil
}

func (m *mockOfferService) Get(ctx context.Context, id string) (*model.OfferDetail, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, service.ErrOfferNotFound
}

func (m *mockOfferService) ClaimOffer(ctx context.Context, customerID, offerID string) (*model.ClaimResponse, error) {
	if m.claimFn != nil {
		return m.claimFn(ctx, customerID, offerID)
	}
	return &model.ClaimResponse{}, nil
}

func (m *mockOfferService) ListOwn(ctx context.Context, ownerID string, f model.OfferFilter) ([]model.OfferDetail, error) {
	if m.listOwnFn != nil {
		return m.listOwnFn(ctx, ownerID, f)
	}
	return []model.OfferDetail{}, nil
}

func (m *mockOfferService) Create(ctx context.Context, ownerID string, req *model.CreateOfferRequest) (*model.OfferDetail, error) {
	if m.createFn != nil {
		return m.createFn(ctx, ownerID, req)
	}
	return &model.OfferDetail{}, nil
}

func (m *mockOfferService) Update(ctx context.Context, ownerID, id string, req *model.UpdateOfferRequest) (*model.OfferDetail, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, ownerID, id, req)
	}
	return &model.OfferDetail{}, nil
}

func (m *mockOfferService) SetActive(ctx context.Context, ownerID, id string, active bool) (*model.OfferDetail, error) {
	if m.setActiveFn != nil {
		return m.setActiveFn(ctx, ownerID, id, active)
	}
	return &model.OfferDetail{}, nil
}

func (m *mockOfferService) Delete(ctx context.Context, ownerID, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, ownerID, id)
	}
	return nil
}

type mockClaimService struct {
	listMineFn  func(ctx context.Context, customerID string) ([]model.ClaimView, error)
	redeemFn    func(ctx context.Context, customerID, claimID string) (*model.ClaimedOffer, error)
	saveFn      func(ctx context.Context, customerID, offerID string) error
	unsaveFn    func(ctx context.Context, customerID, offerID string) error
	listSavedFn func(ctx context.Context, customerID string) ([]model.OfferDetail, error)
}

func (m *mockClaimService) ListMine(ctx context.Context, customerID string) ([]model.ClaimView, error) {
	if m.listMineFn != nil {
		return m.listMineFn(ctx, customerID)
	}
	return []model.ClaimView{}, nil
}

func (m *mockClaimService) Redeem(ctx context.Context, customerID, claimID string) (*model.ClaimedOffer, error) {
	if m.redeemFn != nil {
		return m.redeemFn(ctx, customerID, claimID)
	}
	return &model.ClaimedOffer{}, nil
}

func (m *mockClaimService) Save(ctx context.Context, customerID, offerID string) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, customerID, offerID)
	}
	return nil
}

func (m *mockClaimService) Unsave(ctx context.Context, customerID, offerID string) error {
	if m.unsaveFn != nil {
		return m.unsaveFn(ctx, customerID, offerID)
	}
	return nil
}

func (m *mockClaimService) ListSaved(ctx context.Context, customerID string) ([]model.OfferDetail, error) {
	if m.listSavedFn != nil {
		return m.listSavedFn(ctx, customerID)
	}
	return []model.OfferDetail{}, nil
}

type mockBusinessService struct {
	getOwnFn        func(ctx context.Context, ownerID string) (*model.Business, error)
	getPublicFn     func(ctx context.Context, id string, loc *time.Location) (*model.BusinessProfile, error)
	getOwnProfileFn func(ctx context.Context, ownerID string, loc *time.Location) (*model.BusinessProfile, error)
	updateOwnFn     func(ctx context.Context, ownerID string, req *model.UpdateBusinessRequest) (*model.Business, error)
}

func (m *mockBusinessService) GetOwn(ctx context.Context, ownerID string) (*model.Business, error) {
	if m.getOwnFn != nil {
		return m.getOwnFn(ctx, ownerID)
	}
	return &model.Business{ID: testBusinessID, OwnerID: ownerID}, nil
}

func (m *mockBusinessService) GetPublic(ctx context.Context, id string, loc *time.Location) (*model.BusinessProfile, error) {
	if m.getPublicFn != nil {
		return m.getPublicFn(ctx, id, loc)
	}
	return nil, service.ErrBusinessNotFound
}

func (m *mockBusinessService) GetOwnProfile(ctx context.Context, ownerID string, loc *time.Location) (*model.BusinessProfile, error) {
	if m.getOwnProfileFn != nil {
		return m.getOwnProfileFn(ctx, ownerID, loc)
	}
	return &model.BusinessProfile{Business: model.Business{ID: testBusinessID, OwnerID: ownerID}}, nil
}

func (m *mockBusinessService) UpdateOwn(ctx context.Context, ownerID string, req *model.UpdateBusinessRequest) (*model.Business, error) {
	if m.updateOwnFn != nil {
		return m.updateOwnFn(ctx, ownerID, req)
	}
	return &model.Business{ID: testBusinessID, OwnerID: ownerID, Name: req.Name}, nil
}

type mockProductService struct {
	listFn   func(ctx context.Context, ownerID string, limit, offset int) ([]model.Product, error)
	createFn func(ctx context.Context, ownerID string, req *model.ProductRequest) (*model.Product, error)
	updateFn func(ctx context.Context, ownerID, id string, req *model.ProductRequest) (*model.Product, error)
	deleteFn func(ctx context.Context, ownerID, id string) error
}

func (m *mockProductService) List(ctx context.Context, ownerID string, limit, offset int) ([]model.Product, error) {
	if m.listFn != nil {
		return m.listFn(ctx, ownerID, limit, offset)
	}
	return []model.Product{}, nil
}

func (m *mockProductService) Create(ctx context.Context, ownerID string, req *model.ProductRequest) (*model.Product, error) {
	if m.createFn != nil {
		return m.createFn(ctx, ownerID, req)
	}
	return &model.Product{ID: testProductID, Name: req.Name}, nil
}

func (m *mockProductService) Update(ctx context.Context, ownerID, id string, req *model.ProductRequest) (*model.Product, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, ownerID, id, req)
	}
	return &model.Product{ID: id, Name: req.Name}, nil
}

func (m *mockProductService) Delete(ctx context.Context, ownerID, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, ownerID, id)
	}
	return nil
}

type mockUploader struct {
	key         string
	contentType string
	err         error
}

func (m *mockUploader) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	m.key, m.contentType = key, contentType
	if m.err != nil {
		return "", m.err
	}
	return "https://cdn.example.com/" + key, nil
}

type mockPlaces struct {
	geocodeFn      func(ctx context.Context, address string) (*maps.GeocodeResult, error)
	autocompleteFn func(ctx context.Context, input string) ([]maps.Prediction, error)
	detailsFn      func(ctx context.Context, placeID string) (*maps.Place, error)
}

func (m *mockPlaces) Geocode(ctx context.Context, address string) (*maps.GeocodeResult, error) {
	if m.geocodeFn != nil {
		return m.geocodeFn(ctx, address)
	}
	return &maps.GeocodeResult{}, nil
}

func (m *mockPlaces) Autocomplete(ctx context.Context, input string) ([]maps.Prediction, error) {
	if m.autocompleteFn != nil {
		return m.autocompleteFn(ctx, input)
	}
	return []maps.Prediction{}, nil
}

func (m *mockPlaces) Details(ctx context.Context, placeID string) (*maps.Place, error) {
	if m.detailsFn != nil {
		return m.detailsFn(ctx, placeID)
	}
	return &maps.Place{}, nil
}

// testDeps holds the doubles behind a test app; nil fields get defaults.
type testDeps struct {
	resolver   *fakeResolver
	auth       *mockAuthService
	offers     *mockOfferService
	claims     *mockClaimService
	businesses *mockBusinessService
	products   *mockProductService
	uploader   *mockUploader
	places     *mockPlaces
	db         Pinger
}

func setupTestApp(d testDeps) *fiber.App {
	if d.resolver == nil {
		d.resolver = &fakeResolver{}
	}
	if d.auth == nil {
		d.auth = &mockAuthService{}
	}
	if d.offers == nil {
		d.offers = &mockOfferService{}
	}
	if d.claims == nil {
		d.claims = &mockClaimService{}
	}
	if d.businesses == nil {
		d.businesses = &mockBusinessService{}
	}
	if d.products == nil {
		d.products = &mockProductService{}
	}
	if d.uploader == nil {
		d.uploader = &mockUploader{}
	}
	if d.places == nil {
		d.places = &mockPlaces{}
	}
	if d.db == nil {
		d.db = PingFunc(func(ctx context.Context) error { return nil })
	}

	v := validator.New()
	cookies := NewCookies(CookieConfig{})
	router := &Router{
		Session:    NewSessionMiddleware(d.resolver, cookies),
		Health:     NewHealthHandler(d.db),
		Auth:       NewAuthHandler(d.auth, v, cookies),
		Offers:     NewOfferHandler(d.offers, v),
		Claims:     NewClaimHandler(d.claims),
		Businesses: NewBusinessHandler(d.businesses, d.products, v),
		Uploads:    NewUploadHandler(d.uploader, d.businesses, 1024),
		Places:     NewPlacesHandler(d.places),
	}
	app := fiber.New()
	router.Register(app)
	return app
}

func sessionCookie(token string) *http.Cookie {
	return &http.Cookie{Name: "access_token", Value: token}
}

func doRequest(t *testing.T, app *fiber.App, method, path, body string, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()
	var result map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result["error"]
}

func responseCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decodeJSON(resp *http.Response, v any) error {
	return json.NewDecoder(resp.Body).Decode(v)
}
