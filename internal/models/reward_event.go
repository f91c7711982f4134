package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reward event types and sources
const (
	RewardEarned   = "earned"
	RewardRedeemed = "redeemed"

	RewardSourceTransaction = "transaction"
	RewardSourceManual      = "manual"
)

// RewardEvent is one entry in a user's points ledger. Points is a positive
// magnitude; the net balance is the sum of earned events minus the sum of
// redeemed ones. Events sourced from a transaction carry its id so accrual
// stays idempotent per transaction.
type RewardEvent struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	UserID        primitive.ObjectID  `bson:"userId" json:"userId"`
	Points        int                 `bson:"points" json:"points"`
	Type          string              `bson:"type" json:"type"`
	Source        string              `bson:"source" json:"source"`
	Category      string              `bson:"category,omitempty" json:"category,omitempty"`
	OptionID      string              `bson:"optionId,omitempty" json:"optionId,omitempty"`
	Description   string              `bson:"description" json:"description"`
	TransactionID *primitive.ObjectID `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
	Date          time.Time           `bson:"date" json:"date"`
	CreatedAt     time.Time           `bson:"createdAt" json:"createdAt"`
}

// RedemptionOption is an entry in the fixed redemption catalog. The option
// only labels a redemption; the debited amount is whatever the caller
// requested.
type RedemptionOption struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	PointsRequired int    `json:"pointsRequired"`
	Value          string `json:"value"`
}

// PointsBreakdownEntry is one slice of the category breakdown.
type PointsBreakdownEntry struct {
	Category   string `json:"category"`
	Points     int    `json:"points"`
	Percentage int    `json:"percentage"`
}

// MonthlyPoints is one month of earned points for the dashboard graph.
type MonthlyPoints struct {
	Month  string `json:"month"`
	Points int    `json:"points"`
}

// PointsSummary is the /rewards/points payload.
type PointsSummary struct {
	Current           int                    `json:"current"`
	Earned            int                    `json:"earned"`
	Redeemed          int                    `json:"redeemed"`
	RedemptionOptions []RedemptionOption     `json:"redemptionOptions"`
	CategoryData      []PointsBreakdownEntry `json:"categoryData"`
	GraphData         []MonthlyPoints        `json:"graphData"`
}
