package identity

import (
	"context"
	"time"

	"github.com/fairyhunter13/offer-marketplace/internal/model"
)

// Principal is the resolved caller of a request.
type Principal struct {
	AccountID  string
	Email      string
	Role       model.Role
	CustomerID string
	Guest      bool
}

// IsBusiness reports whether the caller is a signed-in merchant.
func (p *Principal) IsBusiness() bool {
	return p != nil && !p.Guest && p.Role == model.RoleBusiness
}

// IsCustomer reports whether the caller can own claims, registered or guest.
func (p *Principal) IsCustomer() bool {
	return p != nil && p.CustomerID != ""
}

// Session is a token pair issued by the gateway.
type Session struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	Principal        Principal
}

// Gateway is the identity capability the rest of the application depends on.
type Gateway interface {
	SignUp(ctx context.Context, email, password string, role model.Role) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, accessToken, refreshToken string) error
	VerifySession(ctx context.Context, accessToken string) (*Principal, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	ResetPassword(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
	DeleteAccount(ctx context.Context, accountID string) error
}

// principalFor builds the principal of a registered account. Registered
// customers share their account ID as customer ID.
func principalFor(accountID, email string, role model.Role) Principal {
	p := Principal{AccountID: accountID, Email: email, Role: role}
	if role == model.RoleCustomer {
		p.CustomerID = accountID
	}
	return p
}
