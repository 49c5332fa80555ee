package identity

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/fairyhunter13/offer-marketplace/internal/model"
)

// TokenType separates access from refresh tokens.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the JWT claims issued by the gateway.
type Claims struct {
	jwt.RegisteredClaims
	Email     string     `json:"email"`
	Role      model.Role `json:"role"`
	TokenType TokenType  `json:"token_type"`
}

// TokenIssuer signs and validates HS256 token pairs.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// TokenConfig configures a TokenIssuer.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	Issuer        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// NewTokenIssuer creates a TokenIssuer. An empty refresh secret reuses the access secret.
func NewTokenIssuer(cfg TokenConfig) *TokenIssuer {
	refresh := cfg.RefreshSecret
	if refresh == "" {
		refresh = cfg.AccessSecret
	}
	return &TokenIssuer{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(refresh),
		issuer:        cfg.Issuer,
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           time.Now,
	}
}

// Issue creates a fresh access/refresh pair for the account.
func (t *TokenIssuer) Issue(accountID, email string, role model.Role) (*Session, error) {
	now := t.now()
	accessExp := now.Add(t.accessTTL)
	refreshExp := now.Add(t.refreshTTL)

	access, err := t.sign(accountID, email, role, TokenTypeAccess, now, accessExp, t.accessSecret)
	if err != nil {
		return nil, err
	}
	refresh, err := t.sign(accountID, email, role, TokenTypeRefresh, now, refreshExp, t.refreshSecret)
	if err != nil {
		return nil, err
	}

	return &Session{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
		Principal:        principalFor(accountID, email, role),
	}, nil
}

func (t *TokenIssuer) sign(accountID, email string, role model.Role, typ TokenType, now, exp time.Time, secret []byte) (string, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    t.issuer,
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email:     email,
		Role:      role,
		TokenType: typ,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseAccess validates an access token.
func (t *TokenIssuer) ParseAccess(token string) (*Claims, error) {
	return t.parse(token, t.accessSecret, TokenTypeAccess, true)
}

// ParseRefresh validates a refresh token.
func (t *TokenIssuer) ParseRefresh(token string) (*Claims, error) {
	return t.parse(token, t.refreshSecret, TokenTypeRefresh, true)
}

// parseUnverifiedExpiry checks the signature but not the time claims, so an
// expired token can still be revoked on sign-out.
func (t *TokenIssuer) parseUnverifiedExpiry(token string, typ TokenType) (*Claims, error) {
	secret := t.accessSecret
	if typ == TokenTypeRefresh {
		secret = t.refreshSecret
	}
	return t.parse(token, secret, typ, false)
}

func (t *TokenIssuer) parse(token string, secret []byte, typ TokenType, checkTime bool) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithTimeFunc(t.now),
	}
	if !checkTime {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !parsed.Valid || claims.TokenType != typ || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// remaining returns how long a token stays valid, with a floor of one second.
func (t *TokenIssuer) remaining(c *Claims) time.Duration {
	if c.ExpiresAt == nil {
		return t.refreshTTL
	}
	d := c.ExpiresAt.Sub(t.now())
	if d < time.Second {
		return time.Second
	}
	return d
}
