package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/offer-marketplace/internal/identity"
	"github.com/fairyhunter13/offer-marketplace/internal/model"
	"github.com/fairyhunter13/offer-marketplace/internal/sanitize"
)

// CustomerRepositoryInterface defines the interface for customer and guest session data access.
type CustomerRepositoryInterface interface {
	CreateRegistered(ctx context.Context, accountID string) error
	CreateGuest(ctx context.Context, token string, expiresAt time.Time) (*model.Customer, error)
	GetBySessionToken(ctx context.Context, token string, now time.Time) (*model.Customer, error)
	TouchGuestSession(ctx context.Context, id string, expiresAt time.Time) error
}

// BusinessRepositoryInterface defines the interface for business data access.
type BusinessRepositoryInterface interface {
	Insert(ctx context.Context, b *model.Business) error
	GetByID(ctx context.Context, id string) (*model.Business, error)
	GetByOwner(ctx context.Context, ownerID string) (*model.Business, error)
	Update(ctx context.Context, b *model.Business) error
}

// AuthService provides account, session and guest session operations on top
// of an identity gateway.
type AuthService struct {
	gateway    identity.Gateway
	customers  CustomerRepositoryInterface
	businesses BusinessRepositoryInterface
	guestTTL   time.Duration
	now        func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(gateway identity.Gateway, customers CustomerRepositoryInterface, businesses BusinessRepositoryInterface, guestTTL time.Duration) *AuthService {
	return &AuthService{
		gateway:    gateway,
		customers:  customers,
		businesses: businesses,
		guestTTL:   guestTTL,
		now:        time.Now,
	}
}

// SignUp registers an account and creates its business profile or customer row.
// If the profile cannot be created the account is removed again.
func (s *AuthService) SignUp(ctx context.Context, req *model.SignUpRequest) (*identity.Session, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}
	role := model.Role(req.Role)
	businessName := sanitize.Text(req.BusinessName)
	if role == model.RoleBusiness && businessName == "" {
		return nil, fmt.Errorf("%w: business_name is required", ErrInvalidRequest)
	}

	sess, err := s.gateway.SignUp(ctx, req.Email, req.Password, role)
	if err != nil {
		return nil, err
	}
	accountID := sess.Principal.AccountID

	var profileErr error
	switch role {
	case model.RoleBusiness:
		profileErr = s.businesses.Insert(ctx, &model.Business{OwnerID: accountID, Name: businessName})
	default:
		profileErr = s.customers.CreateRegistered(ctx, accountID)
	}
	if profileErr != nil {
		if delErr := s.gateway.DeleteAccount(ctx, accountID); delErr != nil {
			log.Error().Err(delErr).Str("account_id", accountID).Msg("Failed to roll back account after profile error")
		}
		return nil, fmt.Errorf("create profile: %w", profileErr)
	}
	return sess, nil
}

// SignIn authenticates with email and password.
func (s *AuthService) SignIn(ctx context.Context, req *model.SignInRequest) (*identity.Session, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}
	return s.gateway.SignIn(ctx, req.Email, req.Password)
}

// SignOut revokes the session tokens. Missing tokens are ignored.
func (s *AuthService) SignOut(ctx context.Context, accessToken, refreshToken string) error {
	return s.gateway.SignOut(ctx, accessToken, refreshToken)
}

// VerifySession resolves an access token to a principal.
func (s *AuthService) VerifySession(ctx context.Context, accessToken string) (*identity.Principal, error) {
	return s.gateway.VerifySession(ctx, accessToken)
}

// Refresh exchanges a refresh token for a new token pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*identity.Session, error) {
	return s.gateway.Refresh(ctx, refreshToken)
}

// ResetPassword sends a reset link when the email is registered.
func (s *AuthService) ResetPassword(ctx context.Context, email string) error {
	return s.gateway.ResetPassword(ctx, email)
}

// ConfirmPasswordReset sets a new password using a reset token.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, req *model.ConfirmResetRequest) error {
	if req == nil {
		return ErrInvalidRequest
	}
	return s.gateway.ConfirmPasswordReset(ctx, strings.TrimSpace(req.Token), req.Password)
}

// StartGuestSession creates an anonymous customer with a fresh session token.
func (s *AuthService) StartGuestSession(ctx context.Context) (*model.Customer, error) {
	token := uuid.NewString()
	c, err := s.customers.CreateGuest(ctx, token, s.now().Add(s.guestTTL))
	if err != nil {
		return nil, err
	}
	log.Info().Str("customer_id", c.ID).Msg("Guest session started")
	return c, nil
}

// ResolveGuest resolves a guest session token to a principal. Sessions past
// half their lifetime are extended.
func (s *AuthService) ResolveGuest(ctx context.Context, token string) (*identity.Principal, error) {
	if token == "" {
		return nil, ErrGuestSessionNotFound
	}
	now := s.now()
	c, err := s.customers.GetBySessionToken(ctx, token, now)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrGuestSessionNotFound
	}

	if c.SessionExpiresAt != nil && c.SessionExpiresAt.Sub(now) < s.guestTTL/2 {
		if err := s.customers.TouchGuestSession(ctx, c.ID, now.Add(s.guestTTL)); err != nil {
			log.Warn().Err(err).Str("customer_id", c.ID).Msg("Failed to extend guest session")
		}
	}

	return &identity.Principal{CustomerID: c.ID, Guest: true}, nil
}

// Session describes the caller, including their business when they own one.
func (s *AuthService) Session(ctx context.Context, p *identity.Principal) (*model.SessionResponse, error) {
	if p == nil {
		return nil, ErrUnauthenticated
	}
	resp := &model.SessionResponse{
		AccountID:  p.AccountID,
		Email:      p.Email,
		Role:       p.Role,
		CustomerID: p.CustomerID,
		Guest:      p.Guest,
	}
	if p.IsBusiness() {
		b, err := s.businesses.GetByOwner(ctx, p.AccountID)
		if err != nil {
			return nil, fmt.Errorf("get business: %w", err)
		}
		if b != nil {
			resp.BusinessID = b.ID
		}
	}
	return resp, nil
}

// IsAuthError reports whether err means the presented credentials or tokens
// are not acceptable, as opposed to an infrastructure failure.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthenticated) ||
		errors.Is(err, ErrGuestSessionNotFound) ||
		errors.Is(err, identity.ErrInvalidCredentials) ||
		errors.Is(err, identity.ErrInvalidToken) ||
		errors.Is(err, identity.ErrExpiredToken) ||
		errors.Is(err, identity.ErrTokenRevoked) ||
		errors.Is(err, identity.ErrAccountNotFound)
}
