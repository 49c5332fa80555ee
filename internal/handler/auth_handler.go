package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/offer-marketplace/internal/identity"
	"github.com/fairyhunter13/offer-marketplace/internal/model"
	"github.com/fairyhunter13/offer-marketplace/internal/service"
)

// AuthServiceInterface defines the account and session operations.
type AuthServiceInterface interface {
	SignUp(ctx context.Context, req *model.SignUpRequest) (*identity.Session, error)
	SignIn(ctx context.Context, req *model.SignInRequest) (*identity.Session, error)
	SignOut(ctx context.Context, accessToken, refreshToken string) error
	ResetPassword(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, req *model.ConfirmResetRequest) error
	StartGuestSession(ctx context.Context) (*model.Customer, error)
	Session(ctx context.Context, p *identity.Principal) (*model.SessionResponse, error)
}

// AuthHandler handles sign-up, sign-in, sign-out, password reset and guest sessions.
type AuthHandler struct {
	service   AuthServiceInterface
	validator *validator.Validate
	cookies   *Cookies
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc AuthServiceInterface, v *validator.Validate, cookies *Cookies) *AuthHandler {
	return &AuthHandler{service: svc, validator: v, cookies: cookies}
}

// SignUp handles POST /api/auth/signup.
func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req model.SignUpRequest
	if err := bind(c, h.validator, &req); err != nil {
		return respondError(c, err)
	}

	sess, err := h.service.SignUp(c.Context(), &req)
	if err != nil {
		return respondError(c, err)
	}
	log.Info().Str("account_id", sess.Principal.AccountID).Str("role", string(sess.Principal.Role)).Msg("Account created")
	return h.startSession(c, fiber.StatusCreated, sess)
}

// SignIn handles POST /api/auth/signin.
func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var req model.SignInRequest
	if err := bind(c, h.validator, &req); err != nil {
		return respondError(c, err)
	}

	sess, err := h.service.SignIn(c.Context(), &req)
	if err != nil {
		return respondError(c, err)
	}
	return h.startSession(c, fiber.StatusOK, sess)
}

func (h *AuthHandler) startSession(c *fiber.Ctx, status int, sess *identity.Session) error {
	resp, err := h.service.Session(c.Context(), &sess.Principal)
	if err != nil {
		return respondError(c, err)
	}
	h.cookies.SetSession(c, sess)
	h.cookies.ClearGuest(c)
	return c.Status(status).JSON(resp)
}

// SignOut handles POST /api/auth/signout. It always clears the cookies.
func (h *AuthHandler) SignOut(c *fiber.Ctx) error {
	access, refresh := h.cookies.Tokens(c)
	h.cookies.ClearSession(c)
	if err := h.service.SignOut(c.Context(), access, refresh); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Session handles GET /api/auth/session.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	p := PrincipalFrom(c)
	if p == nil {
		return respondError(c, service.ErrUnauthenticated)
	}
	resp, err := h.service.Session(c.Context(), p)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// ResetPassword handles POST /api/auth/reset-password. The response does not
// reveal whether the email is registered.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req model.ResetPasswordRequest
	if err := bind(c, h.validator, &req); err != nil {
		return respondError(c, err)
	}
	if err := h.service.ResetPassword(c.Context(), req.Email); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "if the email is registered, a reset link has been sent",
	})
}

// ConfirmPasswordReset handles POST /api/auth/reset-password/confirm.
func (h *AuthHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req model.ConfirmResetRequest
	if err := bind(c, h.validator, &req); err != nil {
		return respondError(c, err)
	}
	if err := h.service.ConfirmPasswordReset(c.Context(), &req); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// StartGuestSession handles POST /api/guest-session. A caller that already
// has a customer identity keeps it.
func (h *AuthHandler) StartGuestSession(c *fiber.Ctx) error {
	if p := PrincipalFrom(c); p.IsCustomer() {
		return c.JSON(fiber.Map{"customer_id": p.CustomerID, "guest": p.Guest})
	}
	if p := PrincipalFrom(c); p.IsBusiness() {
		return respondError(c, service.ErrForbidden)
	}

	cust, err := h.service.StartGuestSession(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	if cust.SessionToken == nil || cust.SessionExpiresAt == nil {
		return respondError(c, errors.New("guest session created without token"))
	}
	h.cookies.SetGuest(c, *cust.SessionToken, *cust.SessionExpiresAt)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"customer_id":        cust.ID,
		"guest":              true,
		"session_expires_at": cust.SessionExpiresAt,
	})
}
