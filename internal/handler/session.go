package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/offer-marketplace/internal/identity"
	"github.com/fairyhunter13/offer-marketplace/internal/model"
	"github.com/fairyhunter13/offer-marketplace/internal/service"
)

const principalKey = "principal"

// SessionResolver turns cookie values into a principal.
type SessionResolver interface {
	VerifySession(ctx context.Context, accessToken string) (*identity.Principal, error)
	Refresh(ctx context.Context, refreshToken string) (*identity.Session, error)
	ResolveGuest(ctx context.Context, token string) (*identity.Principal, error)
}

// CookieConfig names the session cookies and their attributes.
type CookieConfig struct {
	AccessName  string
	RefreshName string
	GuestName   string
	Domain      string
	Secure      bool
}

// Cookies writes and clears the session cookies.
type Cookies struct {
	cfg CookieConfig
}

// NewCookies creates a cookie writer, filling in default names.
func NewCookies(cfg CookieConfig) *Cookies {
	if cfg.AccessName == "" {
		cfg.AccessName = "access_token"
	}
	if cfg.RefreshName == "" {
		cfg.RefreshName = "refresh_token"
	}
	if cfg.GuestName == "" {
		cfg.GuestName = "guest_session"
	}
	return &Cookies{cfg: cfg}
}

func (k *Cookies) set(c *fiber.Ctx, name, value string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   k.cfg.Domain,
		Expires:  expires,
		Secure:   k.cfg.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (k *Cookies) clear(c *fiber.Ctx, names ...string) {
	for _, name := range names {
		k.set(c, name, "", time.Unix(0, 0))
	}
}

// SetSession writes the access and refresh cookies of sess.
func (k *Cookies) SetSession(c *fiber.Ctx, sess *identity.Session) {
	k.set(c, k.cfg.AccessName, sess.AccessToken, sess.AccessExpiresAt)
	k.set(c, k.cfg.RefreshName, sess.RefreshToken, sess.RefreshExpiresAt)
}

// ClearSession removes the access and refresh cookies.
func (k *Cookies) ClearSession(c *fiber.Ctx) {
	k.clear(c, k.cfg.AccessName, k.cfg.RefreshName)
}

// SetGuest writes the guest session cookie.
func (k *Cookies) SetGuest(c *fiber.Ctx, token string, expires time.Time) {
	k.set(c, k.cfg.GuestName, token, expires)
}

// ClearGuest removes the guest session cookie.
func (k *Cookies) ClearGuest(c *fiber.Ctx) {
	k.clear(c, k.cfg.GuestName)
}

// Tokens returns the access and refresh cookie values of the request.
func (k *Cookies) Tokens(c *fiber.Ctx) (string, string) {
	return c.Cookies(k.cfg.AccessName), c.Cookies(k.cfg.RefreshName)
}

// SessionMiddleware resolves the caller once per request. A signed-in account
// wins over a guest session; an expired access token is refreshed
// transparently and the rotated cookies are written to the response. Stale
// cookies are cleared and the request continues anonymously.
type SessionMiddleware struct {
	auth    SessionResolver
	cookies *Cookies
}

// NewSessionMiddleware creates the session resolution middleware.
func NewSessionMiddleware(auth SessionResolver, cookies *Cookies) *SessionMiddleware {
	return &SessionMiddleware{auth: auth, cookies: cookies}
}

// Handle is the fiber handler.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	p, err := m.resolveAccount(c)
	if err != nil {
		return respondError(c, err)
	}
	if p == nil {
		if p, err = m.resolveGuest(c); err != nil {
			return respondError(c, err)
		}
	}
	if p != nil {
		c.Locals(principalKey, p)
	}
	return c.Next()
}

func (m *SessionMiddleware) resolveAccount(c *fiber.Ctx) (*identity.Principal, error) {
	access, refresh := m.cookies.Tokens(c)
	if access == "" && refresh == "" {
		return nil, nil
	}

	if access != "" {
		p, err := m.auth.VerifySession(c.Context(), access)
		if err == nil {
			return p, nil
		}
		if !service.IsAuthError(err) {
			return nil, err
		}
		if !errors.Is(err, identity.ErrExpiredToken) || refresh == "" {
			m.cookies.ClearSession(c)
			return nil, nil
		}
	}

	sess, err := m.auth.Refresh(c.Context(), refresh)
	if err != nil {
		if service.IsAuthError(err) {
			m.cookies.ClearSession(c)
			return nil, nil
		}
		return nil, err
	}
	m.cookies.SetSession(c, sess)
	log.Debug().Str("account_id", sess.Principal.AccountID).Msg("Session refreshed")
	p := sess.Principal
	return &p, nil
}

func (m *SessionMiddleware) resolveGuest(c *fiber.Ctx) (*identity.Principal, error) {
	token := c.Cookies(m.cookies.cfg.GuestName)
	if token == "" {
		return nil, nil
	}
	p, err := m.auth.ResolveGuest(c.Context(), token)
	if err != nil {
		if service.IsAuthError(err) {
			m.cookies.ClearGuest(c)
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// PrincipalFrom returns the caller resolved by SessionMiddleware, or nil.
func PrincipalFrom(c *fiber.Ctx) *identity.Principal {
	p, _ := c.Locals(principalKey).(*identity.Principal)
	return p
}

// RequireAuth admits signed-in accounts.
func RequireAuth(c *fiber.Ctx) error {
	p := PrincipalFrom(c)
	if p == nil || p.AccountID == "" {
		return respondError(c, service.ErrUnauthenticated)
	}
	return c.Next()
}

// RequireRole admits signed-in accounts with role.
func RequireRole(role model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := PrincipalFrom(c)
		if p == nil || p.AccountID == "" {
			return respondError(c, service.ErrUnauthenticated)
		}
		if p.Role != role {
			return respondError(c, service.ErrForbidden)
		}
		return c.Next()
	}
}

// RequireCustomer admits registered customers and guests.
func RequireCustomer(c *fiber.Ctx) error {
	p := PrincipalFrom(c)
	if p == nil {
		return respondError(c, service.ErrUnauthenticated)
	}
	if !p.IsCustomer() {
		return respondError(c, service.ErrForbidden)
	}
	return c.Next()
}
