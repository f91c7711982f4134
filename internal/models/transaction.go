package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Transaction types. Purchases consume available credit and earn points;
// payments restore available credit.
const (
	TransactionPurchase = "purchase"
	TransactionPayment  = "payment"
)

// Transaction statuses. Monetary and reward effects apply exactly once,
// on the pending -> completed transition.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Spend categories. Unknown categories accrue at multiplier 1.
const (
	CategoryShopping      = "shopping"
	CategoryDining        = "dining"
	CategoryTravel        = "travel"
	CategoryBills         = "bills"
	CategoryEntertainment = "entertainment"
	CategoryGroceries     = "groceries"
	CategoryFuel          = "fuel"
	CategoryOthers        = "others"
)

// NormalizeCategory folds case and resolves a submitted category to the
// closed set. An empty category defaults to others; anything outside the
// set is refused so a typo can never silently change the accrual rate.
func NormalizeCategory(category string) (string, bool) {
	category = strings.ToLower(strings.TrimSpace(category))
	switch category {
	case "":
		return CategoryOthers, true
	case CategoryShopping, CategoryDining, CategoryTravel, CategoryBills,
		CategoryEntertainment, CategoryGroceries, CategoryFuel, CategoryOthers:
		return category, true
	}
	return "", false
}

// Transaction is a purchase or payment against a linked card. Completed
// transactions are immutable.
type Transaction struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	CardID      primitive.ObjectID `bson:"cardId" json:"cardId"`
	Amount      float64            `bson:"amount" json:"amount"`
	Type        string             `bson:"type" json:"type"`
	Description string             `bson:"description" json:"description"`
	Category    string             `bson:"category" json:"category"`
	Status      string             `bson:"status" json:"status"`
	Date        time.Time          `bson:"date" json:"date"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// TransactionStats summarises completed activity for the stats endpoint.
type TransactionStats struct {
	TotalSpent         float64            `json:"totalSpent"`
	TotalPayments      float64            `json:"totalPayments"`
	SpendingByCategory map[string]float64 `json:"spendingByCategory"`
	RecentTransactions []*Transaction     `json:"recentTransactions"`
}
