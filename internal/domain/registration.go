package domain

import "time"

// PendingRegistration is a candidate account held in the OTP ledger until the
// one-time code is confirmed. The email is the ledger key: at most one live
// entry per email, and a new Put for the same email replaces the prior one.
// The password is stored already hashed; plaintext never reaches the ledger.
type PendingRegistration struct {
	Email        string
	FirstName    string
	LastName     string
	Username     string
	PasswordHash string
	Code         string
	ExpiresAt    time.Time
}

// StartRegistrationRequest begins the OTP-gated registration flow.
type StartRegistrationRequest struct {
	FirstName       string `json:"first_name" validate:"required"`
	LastName        string `json:"last_name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Username        string `json:"username" validate:"required"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// ResendOTPRequest re-arms an existing pending registration with a fresh code.
// Name fields are optional; when set they replace the stored candidate values.
// The stored password hash is always reused.
type ResendOTPRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Username  *string `json:"username"`
}

// CompleteRegistrationRequest promotes a pending registration into a user.
type CompleteRegistrationRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=5"`
}
