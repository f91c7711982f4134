package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered account, keyed by phone number. The password
// hash is optional: users registering through phone OTP never set one.
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name        string             `bson:"name" json:"name"`
	PhoneNumber string             `bson:"phoneNumber" json:"phoneNumber"`
	Email       string             `bson:"email,omitempty" json:"email,omitempty"`
	Password    string             `bson:"password,omitempty" json:"-"`
	Role        string             `bson:"role" json:"role"`
	IsVerified  bool               `bson:"isVerified" json:"isVerified"`
	Points      int                `bson:"points" json:"points"`
	CreditScore int                `bson:"creditScore,omitempty" json:"creditScore,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PublicUser is the projection returned to clients. It never carries the
// password hash or internal bookkeeping fields.
type PublicUser struct {
	ID          primitive.ObjectID `json:"id"`
	Name        string             `json:"name"`
	PhoneNumber string             `json:"phoneNumber"`
	Email       string             `json:"email,omitempty"`
	Role        string             `json:"role"`
	Points      int                `json:"points"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// Public returns the client-safe projection of the user.
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:          u.ID,
		Name:        u.Name,
		PhoneNumber: u.PhoneNumber,
		Email:       u.Email,
		Role:        u.Role,
		Points:      u.Points,
		CreatedAt:   u.CreatedAt,
	}
}
