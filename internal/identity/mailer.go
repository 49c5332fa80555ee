package identity

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Mailer delivers password reset links.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, link string) error
}

// LogMailer writes reset links to the application log instead of sending mail.
type LogMailer struct{}

func (LogMailer) SendPasswordReset(_ context.Context, email, link string) error {
	log.Info().Str("email", email).Str("link", link).Msg("Password reset requested")
	return nil
}
