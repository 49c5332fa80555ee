package identity

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/fairyhunter13/offer-marketplace/internal/model"
)

// AccountStore persists accounts for the local gateway.
// GetByEmail and GetByID return (nil, nil) when no account matches.
type AccountStore interface {
	Create(ctx context.Context, acct *model.Account) error
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	GetByID(ctx context.Context, id string) (*model.Account, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
}

// LocalConfig configures a LocalGateway.
type LocalConfig struct {
	BcryptCost int
	ResetTTL   time.Duration
	ResetURL   string
}

// LocalGateway implements Gateway with bcrypt password hashes and signed JWTs.
type LocalGateway struct {
	accounts AccountStore
	tokens   *TokenIssuer
	store    TokenStore
	mailer   Mailer
	cfg      LocalConfig

	// dummyHash is compared against on unknown emails so sign-in takes the
	// same time whether or not the account exists.
	dummyHash []byte
}

// NewLocalGateway creates a LocalGateway.
func NewLocalGateway(accounts AccountStore, tokens *TokenIssuer, store TokenStore, mailer Mailer, cfg LocalConfig) *LocalGateway {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if mailer == nil {
		mailer = LogMailer{}
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cfg.BcryptCost)
	return &LocalGateway{
		accounts:  accounts,
		tokens:    tokens,
		store:     store,
		mailer:    mailer,
		cfg:       cfg,
		dummyHash: dummy,
	}
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (g *LocalGateway) SignUp(ctx context.Context, email, password string, role model.Role) (*Session, error) {
	email = NormalizeEmail(email)

	existing, err := g.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), g.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	acct := &model.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := g.accounts.Create(ctx, acct); err != nil {
		return nil, err
	}

	log.Info().Str("account_id", acct.ID).Str("role", string(role)).Msg("Account created")
	return g.tokens.Issue(acct.ID, acct.Email, acct.Role)
}

func (g *LocalGateway) SignIn(ctx context.Context, email, password string) (*Session, error) {
	acct, err := g.accounts.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if acct == nil {
		_ = bcrypt.CompareHashAndPassword(g.dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return g.tokens.Issue(acct.ID, acct.Email, acct.Role)
}

// SignOut revokes both tokens. Tokens that fail signature checks are ignored.
func (g *LocalGateway) SignOut(ctx context.Context, accessToken, refreshToken string) error {
	if accessToken != "" {
		if c, err := g.tokens.parseUnverifiedExpiry(accessToken, TokenTypeAccess); err == nil {
			if err := g.store.Revoke(ctx, c.ID, g.tokens.remaining(c)); err != nil {
				return err
			}
		}
	}
	if refreshToken != "" {
		if c, err := g.tokens.parseUnverifiedExpiry(refreshToken, TokenTypeRefresh); err == nil {
			if err := g.store.Revoke(ctx, c.ID, g.tokens.remaining(c)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *LocalGateway) VerifySession(ctx context.Context, accessToken string) (*Principal, error) {
	c, err := g.tokens.ParseAccess(accessToken)
	if err != nil {
		return nil, err
	}
	revoked, err := g.store.IsRevoked(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	p := principalFor(c.Subject, c.Email, c.Role)
	return &p, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued.
func (g *LocalGateway) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	c, err := g.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	// Consuming first makes a replayed or raced refresh token lose.
	if err := g.store.Consume(ctx, c.ID, g.tokens.remaining(c)); err != nil {
		return nil, err
	}

	acct, err := g.accounts.GetByID(ctx, c.Subject)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, ErrAccountNotFound
	}
	return g.tokens.Issue(acct.ID, acct.Email, acct.Role)
}

// ResetPassword mails a reset link. Unknown emails succeed silently.
func (g *LocalGateway) ResetPassword(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	acct, err := g.accounts.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if acct == nil {
		log.Debug().Msg("Password reset requested for unknown email")
		return nil
	}

	token := uuid.NewString()
	if err := g.store.PutResetToken(ctx, token, acct.ID, g.cfg.ResetTTL); err != nil {
		return err
	}
	return g.mailer.SendPasswordReset(ctx, acct.Email, resetLink(g.cfg.ResetURL, token))
}

func (g *LocalGateway) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	accountID, err := g.store.TakeResetToken(ctx, token)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), g.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := g.accounts.UpdatePassword(ctx, accountID, string(hash)); err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}

	log.Info().Str("account_id", accountID).Msg("Password reset completed")
	return nil
}

func (g *LocalGateway) DeleteAccount(ctx context.Context, accountID string) error {
	return g.accounts.Delete(ctx, accountID)
}

func resetLink(base, token string) string {
	u, err := url.Parse(base)
	if err != nil || base == "" {
		return token
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}
