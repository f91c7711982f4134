package models

// Request DTOs, one per endpoint, validated at the boundary by gin binding
// before any workflow logic runs.

// SendOTPRequest starts registration: phone required, name/email optional
// and remembered for the verify step.
type SendOTPRequest struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	Name        string `json:"name"`
	Email       string `json:"email" binding:"omitempty,email"`
}

// VerifyOTPRequest completes registration (or logs in an existing user).
type VerifyOTPRequest struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	OTP         string `json:"otp" binding:"required"`
	Name        string `json:"name"`
	Email       string `json:"email" binding:"omitempty,email"`
}

// LoginSendOTPRequest starts a login for an existing account.
type LoginSendOTPRequest struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
}

// LoginVerifyOTPRequest completes a login.
type LoginVerifyOTPRequest struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	OTP         string `json:"otp" binding:"required"`
}

// UpdateProfileRequest updates mutable profile fields.
type UpdateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email" binding:"omitempty,email"`
}

// ChangePasswordRequest sets or rotates the optional password.
// CurrentPassword is required only when a password is already set.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

// AddCardRequest links a new credit card.
type AddCardRequest struct {
	CardName    string  `json:"cardName" binding:"required"`
	CardNumber  string  `json:"cardNumber" binding:"required"`
	ExpiryDate  string  `json:"expiryDate" binding:"required"`
	CVV         string  `json:"cvv" binding:"required"`
	Bank        string  `json:"bank" binding:"required"`
	CardTier    string  `json:"cardTier"`
	CreditLimit float64 `json:"creditLimit" binding:"required,gt=0"`
}

// DeleteCardRequest carries the CVV used as a low-assurance confirmation
// for card deletion.
type DeleteCardRequest struct {
	CVV string `json:"cvv" binding:"required"`
}

// PurchaseRequest records a purchase against a card.
type PurchaseRequest struct {
	CardID      string  `json:"cardId" binding:"required"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Category    string  `json:"category"`
	Description string  `json:"description" binding:"required"`
}

// PaymentRequest records a payment towards a card.
type PaymentRequest struct {
	CardID      string  `json:"cardId" binding:"required"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Description string  `json:"description" binding:"required"`
}

// RedeemRequest debits points against a catalog option.
type RedeemRequest struct {
	OptionID string `json:"optionId" binding:"required"`
	Points   int    `json:"points" binding:"required,gt=0"`
}

// AuthResult is what a successful OTP verification yields.
type AuthResult struct {
	Token   string      `json:"token"`
	User    *PublicUser `json:"user"`
	Created bool        `json:"-"`
}
