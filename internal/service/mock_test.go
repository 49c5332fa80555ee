package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fairyhunter13/offer-marketplace/internal/identity"
	"github.com/fairyhunter13/offer-marketplace/internal/model"
	"github.com/fairyhunter13/offer-marketplace/pkg/database"
)

// mockTx is a mock implementation of pgx.Tx for testing transactions.
type mockTx struct {
	commitFn   func(ctx context.Context) error
	rollbackFn func(ctx context.Context) error
	committed  bool
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) {
	return nil, errors.New("nested transactions not supported")
}

func (m *mockTx) Commit(ctx context.Context) error {
	if m.commitFn != nil {
		if err := m.commitFn(ctx); err != nil {
			return err
		}
	}
	m.committed = true
	return nil
}

func (m *mockTx) Rollback(ctx context.Context) error {
	if m.rollbackFn != nil {
		return m.rollbackFn(ctx)
	}
	return nil
}

func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return nil
}

func (m *mockTx) LargeObjects() pgx.LargeObjects {
	return pgx.LargeObjects{}
}

func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func (m *mockTx) Conn() *pgx.Conn {
	return nil
}

// mockTxBeginner is a mock implementation of database.TxBeginner.
type mockTxBeginner struct {
	beginFn func(ctx context.Context) (pgx.Tx, error)
}

func (m *mockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	if m.beginFn != nil {
		return m.beginFn(ctx)
	}
	return &mockTx{}, nil
}

// mockBusinessRepository is a mock implementation of BusinessRepositoryInterface.
type mockBusinessRepository struct {
	insertFn     func(ctx context.Context, b *model.Business) error
	getByIDFn    func(ctx context.Context, id string) (*model.Business, error)
	getByOwnerFn func(ctx context.Context, ownerID string) (*model.Business, error)
	updateFn     func(ctx context.Context, b *model.Business) error
}

func (m *mockBusinessRepository) Insert(ctx context.Context, b *model.Business) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, b)
	}
	return nil
}

func (m *mockBusinessRepository) GetByID(ctx context.Context, id string) (*model.Business, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockBusinessRepository) GetByOwner(ctx context.Context, ownerID string) (*model.Business, error) {
	if m.getByOwnerFn != nil {
		return m.getByOwnerFn(ctx, ownerID)
	}
	return nil, nil
}

func (m *mockBusinessRepository) Update(ctx context.Context, b *model.Business) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, b)
	}
	return nil
}

// ownerBusiness returns a repository where ownerID owns an active business bizID.
func ownerBusiness(ownerID, bizID string) *mockBusinessRepository {
	return &mockBusinessRepository{
		getByOwnerFn: func(ctx context.Context, id string) (*model.Business, error) {
			if id != ownerID {
				return nil, nil
			}
			return &model.Business{ID: bizID, OwnerID: ownerID, Name: "Corner Cafe", SubscriptionStatus: model.SubscriptionActive}, nil
		},
	}
}

// mockProductRepository is a mock implementation of ProductRepositoryInterface.
type mockProductRepository struct {
	insertFn         func(ctx context.Context, p *model.Product) error
	getByIDFn        func(ctx context.Context, id string) (*model.Product, error)
	listByBusinessFn func(ctx context.Context, businessID string, limit, offset int) ([]model.Product, error)
	updateFn         func(ctx context.Context, p *model.Product) error
	deleteFn         func(ctx context.Context, businessID, id string) error
}

func (m *mockProductRepository) Insert(ctx context.Context, p *model.Product) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, p)
	}
	return nil
}

func (m *mockProductRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockProductRepository) ListByBusiness(ctx context.Context, businessID string, limit, offset int) ([]model.Product, error) {
	if m.listByBusinessFn != nil {
		return m.listByBusinessFn(ctx, businessID, limit, offset)
	}
	return []model.Product{}, nil
}

func (m *mockProductRepository) Update(ctx context.Context, p *model.Product) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, p)
	}
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, businessID, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, businessID, id)
	}
	return nil
}

// mockOfferRepository is a mock implementation of OfferRepositoryInterface.
type mockOfferRepository struct {
	insertFn          func(ctx context.Context, o *model.Offer) error
	getByIDFn         func(ctx context.Context, db database.TxQuerier, id string) (*model.Offer, error)
	getListingFn      func(ctx context.Context, id string) (*model.OfferListing, error)
	getPublicFn       func(ctx context.Context, id string) (*model.OfferListing, error)
	listPublicFn      func(ctx context.Context, now time.Time, f model.OfferFilter) ([]model.OfferListing, error)
	listByBusinessFn  func(ctx context.Context, businessID string, f model.OfferFilter) ([]model.OfferListing, error)
	updateFn          func(ctx context.Context, o *model.Offer, reschedule bool, now time.Time) error
	setActiveFn       func(ctx context.Context, id string, active bool, now time.Time) (bool, error)
	deleteFn          func(ctx context.Context, id string) error
	incrementClaimsFn func(ctx context.Context, tx database.TxQuerier, id string, now time.Time) (*model.Offer, error)
}

func (m *mockOfferRepository) Insert(ctx context.Context, o *model.Offer) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, o)
	}
	return nil
}

func (m *mockOfferRepository) GetByID(ctx context.Context, db database.TxQuerier, id string) (*model.Offer, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, db, id)
	}
	return nil, nil
}

func (m *mockOfferRepository) GetListing(ctx context.Context, id string) (*model.OfferListing, error) {
	if m.getListingFn != nil {
		return m.getListingFn(ctx, id)
	}
	return nil, nil
}

func (m *mockOfferRepository) GetPublicListing(ctx context.Context, id string) (*model.OfferListing, error) {
	if m.getPublicFn != nil {
		return m.getPublicFn(ctx, id)
	}
	return nil, nil
}

func (m *mockOfferRepository) ListPublic(ctx context.Context, now time.Time, f model.OfferFilter) ([]model.OfferListing, error) {
	if m.listPublicFn != nil {
		return m.listPublicFn(ctx, now, f)
	}
	return []model.OfferListing{}, nil
}

func (m *mockOfferRepository) ListByBusiness(ctx context.Context, businessID string, f model.OfferFilter) ([]model.OfferListing, error) {
	if m.listByBusinessFn != nil {
		return m.listByBusinessFn(ctx, businessID, f)
	}
	return []model.OfferListing{}, nil
}

func (m *mockOfferRepository) Update(ctx context.Context, o *model.Offer, reschedule bool, now time.Time) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, o, reschedule, now)
	}
	return nil
}

func (m *mockOfferRepository) SetActive(ctx context.Context, id string, active bool, now time.Time) (bool, error) {
	if m.setActiveFn != nil {
		return m.setActiveFn(ctx, id, active, now)
	}
	return true, nil
}

func (m *mockOfferRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockOfferRepository) IncrementClaims(ctx context.Context, tx database.TxQuerier, id string, now time.Time) (*model.Offer, error) {
	if m.incrementClaimsFn != nil {
		return m.incrementClaimsFn(ctx, tx, id, now)
	}
	return nil, nil
}

// mockClaimRepository is a mock implementation of ClaimRepositoryInterface.
type mockClaimRepository struct {
	insertFn         func(ctx context.Context, tx database.TxQuerier, c *model.ClaimedOffer) error
	getForUpdateFn   func(ctx context.Context, tx database.TxQuerier, id string) (*model.ClaimedOffer, time.Time, error)
	listByCustomerFn func(ctx context.Context, customerID string) ([]model.ClaimView, error)
	markRedeemedFn   func(ctx context.Context, tx database.TxQuerier, id string, now time.Time) (bool, error)
	markExpiredFn    func(ctx context.Context, db database.TxQuerier, ids []string) (int64, error)
	expireOverdueFn  func(ctx context.Context, now time.Time) (int64, error)
}

func (m *mockClaimRepository) Insert(ctx context.Context, tx database.TxQuerier, c *model.ClaimedOffer) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, tx, c)
	}
	return nil
}

func (m *mockClaimRepository) GetForUpdate(ctx context.Context, tx database.TxQuerier, id string) (*model.ClaimedOffer, time.Time, error) {
	if m.getForUpdateFn != nil {
		return m.getForUpdateFn(ctx, tx, id)
	}
	return nil, time.Time{}, ErrClaimNotFound
}

func (m *mockClaimRepository) ListByCustomer(ctx context.Context, customerID string) ([]model.ClaimView, error) {
	if m.listByCustomerFn != nil {
		return m.listByCustomerFn(ctx, customerID)
	}
	return []model.ClaimView{}, nil
}

func (m *mockClaimRepository) MarkRedeemed(ctx context.Context, tx database.TxQuerier, id string, now time.Time) (bool, error) {
	if m.markRedeemedFn != nil {
		return m.markRedeemedFn(ctx, tx, id, now)
	}
	return true, nil
}

func (m *mockClaimRepository) MarkExpired(ctx context.Context, db database.TxQuerier, ids []string) (int64, error) {
	if m.markExpiredFn != nil {
		return m.markExpiredFn(ctx, db, ids)
	}
	return int64(len(ids)), nil
}

func (m *mockClaimRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	if m.expireOverdueFn != nil {
		return m.expireOverdueFn(ctx, now)
	}
	return 0, nil
}

// mockSavedOfferRepository is a mock implementation of SavedOfferRepositoryInterface.
type mockSavedOfferRepository struct {
	saveFn           func(ctx context.Context, customerID, offerID string) error
	unsaveFn         func(ctx context.Context, customerID, offerID string) error
	listByCustomerFn func(ctx context.Context, customerID string) ([]model.OfferListing, error)
}

func (m *mockSavedOfferRepository) Save(ctx context.Context, customerID, offerID string) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, customerID, offerID)
	}
	return nil
}

func (m *mockSavedOfferRepository) Unsave(ctx context.Context, customerID, offerID string) error {
	if m.unsaveFn != nil {
		return m.unsaveFn(ctx, customerID, offerID)
	}
	return nil
}

func (m *mockSavedOfferRepository) ListByCustomer(ctx context.Context, customerID string) ([]model.OfferListing, error) {
	if m.listByCustomerFn != nil {
		return m.listByCustomerFn(ctx, customerID)
	}
	return []model.OfferListing{}, nil
}

// mockCustomerRepository is a mock implementation of CustomerRepositoryInterface.
type mockCustomerRepository struct {
	createRegisteredFn  func(ctx context.Context, accountID string) error
	createGuestFn       func(ctx context.Context, token string, expiresAt time.Time) (*model.Customer, error)
	getBySessionTokenFn func(ctx context.Context, token string, now time.Time) (*model.Customer, error)
	touchGuestSessionFn func(ctx context.Context, id string, expiresAt time.Time) error
}

func (m *mockCustomerRepository) CreateRegistered(ctx context.Context, accountID string) error {
	if m.createRegisteredFn != nil {
		return m.createRegisteredFn(ctx, accountID)
	}
	return nil
}

func (m *mockCustomerRepository) CreateGuest(ctx context.Context, token string, expiresAt time.Time) (*model.Customer, error) {
	if m.createGuestFn != nil {
		return m.createGuestFn(ctx, token, expiresAt)
	}
	return &model.Customer{ID: "guest", SessionToken: &token, SessionExpiresAt: &expiresAt}, nil
}

func (m *mockCustomerRepository) GetBySessionToken(ctx context.Context, token string, now time.Time) (*model.Customer, error) {
	if m.getBySessionTokenFn != nil {
		return m.getBySessionTokenFn(ctx, token, now)
	}
	return nil, nil
}

func (m *mockCustomerRepository) TouchGuestSession(ctx context.Context, id string, expiresAt time.Time) error {
	if m.touchGuestSessionFn != nil {
		return m.touchGuestSessionFn(ctx, id, expiresAt)
	}
	return nil
}

// mockGateway is a mock implementation of identity.Gateway.
type mockGateway struct {
	signUpFn        func(ctx context.Context, email, password string, role model.Role) (*identity.Session, error)
	signInFn        func(ctx context.Context, email, password string) (*identity.Session, error)
	signOutFn       func(ctx context.Context, accessToken, refreshToken string) error
	verifyFn        func(ctx context.Context, accessToken string) (*identity.Principal, error)
	refreshFn       func(ctx context.Context, refreshToken string) (*identity.Session, error)
	resetFn         func(ctx context.Context, email string) error
	confirmResetFn  func(ctx context.Context, token, newPassword string) error
	deleteAccountFn func(ctx context.Context, accountID string) error
}

func (m *mockGateway) SignUp(ctx context.Context, email, password string, role model.Role) (*identity.Session, error) {
	if m.signUpFn != nil {
		return m.signUpFn(ctx, email, password, role)
	}
	return &identity.Session{Principal: identity.Principal{AccountID: "acct", Email: email, Role: role}}, nil
}

func (m *mockGateway) SignIn(ctx context.Context, email, password string) (*identity.Session, error) {
	if m.signInFn != nil {
		return m.signInFn(ctx, email, password)
	}
	return &identity.Session{}, nil
}

func (m *mockGateway) SignOut(ctx context.Context, accessToken, refreshToken string) error {
	if m.signOutFn != nil {
		return m.signOutFn(ctx, accessToken, refreshToken)
	}
	return nil
}

func (m *mockGateway) VerifySession(ctx context.Context, accessToken string) (*identity.Principal, error) {
	if m.verifyFn != nil {
		return m.verifyFn(ctx, accessToken)
	}
	return nil, identity.ErrInvalidToken
}

func (m *mockGateway) Refresh(ctx context.Context, refreshToken string) (*identity.Session, error) {
	if m.refreshFn != nil {
		return m.refreshFn(ctx, refreshToken)
	}
	return nil, identity.ErrInvalidToken
}

func (m *mockGateway) ResetPassword(ctx context.Context, email string) error {
	if m.resetFn != nil {
		return m.resetFn(ctx, email)
	}
	return nil
}

func (m *mockGateway) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if m.confirmResetFn != nil {
		return m.confirmResetFn(ctx, token, newPassword)
	}
	return nil
}

func (m *mockGateway) DeleteAccount(ctx context.Context, accountID string) error {
	if m.deleteAccountFn != nil {
		return m.deleteAccountFn(ctx, accountID)
	}
	return nil
}

func intPtr(i int) *int {
	return &i
}

func floatPtr(f float64) *float64 {
	return &f
}

func boolPtr(b bool) *bool {
	return &b
}

func strPtr(s string) *string {
	return &s
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
