package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Card tiers scale reward accrual. Unknown tiers fall back to multiplier 1.
const (
	TierBasic     = "BASIC"
	TierGold      = "GOLD"
	TierPlatinum  = "PLATINUM"
	TierSignature = "SIGNATURE"
)

// NormalizeTier folds case and resolves a submitted tier to the closed
// set. An empty tier defaults to BASIC; anything outside the set is
// refused so a typo can never silently change the accrual rate.
func NormalizeTier(tier string) (string, bool) {
	tier = strings.ToUpper(strings.TrimSpace(tier))
	switch tier {
	case "":
		return TierBasic, true
	case TierBasic, TierGold, TierPlatinum, TierSignature:
		return tier, true
	}
	return "", false
}

// CreditCard represents a linked card. CardNumber and CVV are sensitive:
// reads go through Redacted, which masks the number and drops the CVV.
type CreditCard struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`
	CardName        string             `bson:"cardName" json:"cardName"`
	CardNumber      string             `bson:"cardNumber" json:"-"`
	ExpiryDate      string             `bson:"expiryDate" json:"expiryDate"`
	CVV             string             `bson:"cvv" json:"-"`
	Bank            string             `bson:"bank" json:"bank"`
	CardTier        string             `bson:"cardTier" json:"cardTier"`
	CreditLimit     float64            `bson:"creditLimit" json:"creditLimit"`
	AvailableCredit float64            `bson:"availableCredit" json:"availableCredit"`
	IsActive        bool               `bson:"isActive" json:"isActive"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// CardResponse is the redacted projection returned by every card read.
type CardResponse struct {
	ID              primitive.ObjectID `json:"id"`
	CardName        string             `json:"cardName"`
	CardNumber      string             `json:"cardNumber"`
	ExpiryDate      string             `json:"expiryDate"`
	Bank            string             `json:"bank"`
	CardTier        string             `json:"cardTier"`
	CreditLimit     float64            `json:"creditLimit"`
	AvailableCredit float64            `json:"availableCredit"`
	IsActive        bool               `json:"isActive"`
	CreatedAt       time.Time          `json:"createdAt"`
}

// Redacted returns the card with its number masked to the last four digits
// and the CVV omitted entirely.
func (c *CreditCard) Redacted() *CardResponse {
	masked := c.CardNumber
	if len(masked) > 4 {
		masked = "**** **** **** " + masked[len(masked)-4:]
	}
	return &CardResponse{
		ID:              c.ID,
		CardName:        c.CardName,
		CardNumber:      masked,
		ExpiryDate:      c.ExpiryDate,
		Bank:            c.Bank,
		CardTier:        c.CardTier,
		CreditLimit:     c.CreditLimit,
		AvailableCredit: c.AvailableCredit,
		IsActive:        c.IsActive,
		CreatedAt:       c.CreatedAt,
	}
}
