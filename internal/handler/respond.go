package handler

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/offer-marketplace/internal/identity"
	"github.com/fairyhunter13/offer-marketplace/internal/lifecycle"
	"github.com/fairyhunter13/offer-marketplace/internal/service"
	"github.com/fairyhunter13/offer-marketplace/pkg/maps"
)

// requestError is a client input problem with a caller-facing message.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func (e *requestError) Unwrap() error { return service.ErrInvalidRequest }

func invalidRequest(format string, args ...any) error {
	return &requestError{msg: "invalid request: " + fmt.Sprintf(format, args...)}
}

// statusFor maps the error taxonomy to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrInvalidWindow),
		errors.Is(err, service.ErrCannotExtendExpired),
		errors.Is(err, service.ErrMaxClaimsBelowCurrent),
		errors.Is(err, identity.ErrInvalidResetToken),
		errors.Is(err, lifecycle.ErrNotActive),
		errors.Is(err, lifecycle.ErrOutOfWindow),
		errors.Is(err, lifecycle.ErrLimitReached),
		errors.Is(err, lifecycle.ErrOfferExpired),
		errors.Is(err, lifecycle.ErrInvalidState):
		return fiber.StatusBadRequest
	case service.IsAuthError(err):
		return fiber.StatusUnauthorized
	case errors.Is(err, lifecycle.ErrNotOwned),
		errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrSubscriptionInactive):
		return fiber.StatusForbidden
	case errors.Is(err, service.ErrBusinessNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrOfferNotFound),
		errors.Is(err, service.ErrClaimNotFound),
		errors.Is(err, maps.ErrNoResults):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrAlreadyClaimed),
		errors.Is(err, identity.ErrEmailTaken),
		errors.Is(err, service.ErrBusinessExists),
		errors.Is(err, service.ErrProductInUse),
		errors.Is(err, service.ErrOfferHasClaims):
		return fiber.StatusConflict
	case errors.Is(err, maps.ErrNotConfigured):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes {"error": msg}. Server-side failures are logged and
// reported without detail.
func respondError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status < fiber.StatusInternalServerError {
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	log.Error().
		Err(err).
		Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Msg("Request failed")

	msg := "internal server error"
	switch {
	case errors.Is(err, maps.ErrUpstream), errors.Is(err, service.ErrUpstream):
		msg = "upstream provider error"
	case errors.Is(err, maps.ErrNotConfigured):
		msg = "service unavailable"
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// bind parses the JSON body into req and validates it.
func bind(c *fiber.Ctx, v *validator.Validate, req any) error {
	if err := c.BodyParser(req); err != nil {
		return &requestError{msg: "invalid request body"}
	}
	if err := v.Struct(req); err != nil {
		return &requestError{msg: formatValidationError(err)}
	}
	return nil
}

// formatValidationError converts the first validator error into a message
// naming the JSON field.
func formatValidationError(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return "invalid request"
	}
	fe := ve[0]
	field := fe.Field()
	isString := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required", "required_if":
		return "invalid request: " + field + " is required"
	case "notblank":
		return "invalid request: " + field + " cannot be whitespace only"
	case "max":
		if isString {
			return "invalid request: " + field + " exceeds maximum length of " + fe.Param()
		}
		return "invalid request: " + field + " must be at most " + fe.Param()
	case "min":
		if isString {
			return "invalid request: " + field + " must be at least " + fe.Param() + " characters"
		}
		return "invalid request: " + field + " must be at least " + fe.Param()
	case "gt":
		return "invalid request: " + field + " must be greater than " + fe.Param()
	case "gte":
		return "invalid request: " + field + " must be at least " + fe.Param()
	case "lte":
		return "invalid request: " + field + " must be at most " + fe.Param()
	case "email":
		return "invalid request: " + field + " must be a valid email address"
	case "uuid":
		return "invalid request: " + field + " must be a valid id"
	case "url":
		return "invalid request: " + field + " must be a valid URL"
	case "latitude", "longitude":
		return "invalid request: " + field + " must be a valid " + fe.Tag()
	case "role":
		return "invalid request: " + field + " must be business or customer"
	default:
		return "invalid request: " + field + " is invalid"
	}
}

// pathID returns the named path parameter when it is a UUID. Anything else
// cannot name an existing row, so it is reported as notFound.
func pathID(c *fiber.Ctx, name string, notFound error) (string, error) {
	id := c.Params(name)
	if _, err := uuid.Parse(id); err != nil {
		return "", notFound
	}
	return id, nil
}

// pageQuery reads limit and offset; the store applies defaults and bounds.
func pageQuery(c *fiber.Ctx) (int, int) {
	return c.QueryInt("limit", 0), c.QueryInt("offset", 0)
}

// location reads the caller's IANA time zone from ?tz=, defaulting to UTC.
func location(c *fiber.Ctx) (*time.Location, error) {
	tz := c.Query("tz")
	if tz == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, invalidRequest("tz is not a valid time zone")
	}
	return loc, nil
}
