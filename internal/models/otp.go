package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OTP purposes scope code uniqueness: one active code per (phone, purpose).
const (
	PurposeRegistration  = "registration"
	PurposeLogin         = "login"
	PurposeResetPassword = "reset_password"
)

// OTP attempt and expiry limits
const (
	MaxOTPAttempts = 3
	OTPExpiry      = 300 * time.Second
)

// OTP is a one-time code bound to a phone number and purpose. Storage
// enforces expiry through a TTL index on CreatedAt; an expired code is
// simply absent.
type OTP struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	PhoneNumber   string             `bson:"phoneNumber" json:"phoneNumber"`
	Code          string             `bson:"code" json:"-"`
	Purpose       string             `bson:"purpose" json:"purpose"`
	Verified      bool               `bson:"verified" json:"verified"`
	Attempts      int                `bson:"attempts" json:"attempts"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	LastAttemptAt *time.Time         `bson:"lastAttemptAt,omitempty" json:"lastAttemptAt,omitempty"`
}

// RemainingAttempts returns how many verification attempts are left.
func (o *OTP) RemainingAttempts() int {
	remaining := MaxOTPAttempts - o.Attempts
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ValidPurpose reports whether p is a known OTP purpose.
func ValidPurpose(p string) bool {
	switch p {
	case PurposeRegistration, PurposeLogin, PurposeResetPassword:
		return true
	}
	return false
}
