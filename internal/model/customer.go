package model

import "time"

// Role distinguishes merchant accounts from shoppers.
type Role string

const (
	RoleBusiness Role = "business"
	RoleCustomer Role = "customer"
)

// Account is an identity-provider record.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Customer is either bound to an account or to an anonymous guest session.
type Customer struct {
	ID               string     `json:"id"`
	AccountID        *string    `json:"account_id"`
	SessionToken     *string    `json:"-"`
	SessionExpiresAt *time.Time `json:"session_expires_at"`
	CreatedAt        time.Time  `json:"created_at"`
}

// IsGuest reports whether the customer has no registered identity.
func (c Customer) IsGuest() bool {
	return c.AccountID == nil
}

// SignUpRequest is the DTO for account registration.
type SignUpRequest struct {
	Email        string `json:"email" validate:"required,email,max=255"`
	Password     string `json:"password" validate:"required,min=8,max=72"`
	Role         string `json:"role" validate:"required,role"`
	BusinessName string `json:"business_name" validate:"required_if=Role business,max=255"`
}

// SignInRequest is the DTO for password sign-in.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=72"`
}

// ResetPasswordRequest starts a password reset.
type ResetPasswordRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

// ConfirmResetRequest completes a password reset.
type ConfirmResetRequest struct {
	Token    string `json:"token" validate:"required,notblank"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// SessionResponse describes the resolved caller.
type SessionResponse struct {
	AccountID  string `json:"account_id,omitempty"`
	Email      string `json:"email,omitempty"`
	Role       Role   `json:"role,omitempty"`
	CustomerID string `json:"customer_id,omitempty"`
	BusinessID string `json:"business_id,omitempty"`
	Guest      bool   `json:"guest"`
}
