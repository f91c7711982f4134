package repositories

import (
	"context"

	"github.com/cardvault/cardvault-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	// IncrementPoints adds points (positive) to the user's balance.
	IncrementPoints(ctx context.Context, userID primitive.ObjectID, points int) error
	// DeductPoints atomically subtracts points, failing with
	// mongo.ErrNoDocuments when the balance is lower than points.
	DeductPoints(ctx context.Context, userID primitive.ObjectID, points int) error
	Count(ctx context.Context) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

// OTPRepository defines the interface for one-time-code storage. Expiry is
// enforced by a storage-level TTL: expired records are simply absent.
type OTPRepository interface {
	// Replace atomically supersedes any unverified record for the same
	// (phone, purpose) pair with the given one.
	Replace(ctx context.Context, otp *models.OTP) error
	FindActive(ctx context.Context, phone, purpose string) (*models.OTP, error)
	// RegisterFailedAttempt atomically increments the attempt counter,
	// returning the updated record. It fails with mongo.ErrNoDocuments if
	// the record is gone or its attempt budget is already spent.
	RegisterFailedAttempt(ctx context.Context, id primitive.ObjectID) (*models.OTP, error)
	MarkVerified(ctx context.Context, id primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	EnsureIndexes(ctx context.Context) error
}

// CardRepository defines the interface for credit card data operations
type CardRepository interface {
	Create(ctx context.Context, card *models.CreditCard) error
	FindByIDAndUser(ctx context.Context, id, userID primitive.ObjectID) (*models.CreditCard, error)
	FindByUserID(ctx context.Context, userID primitive.ObjectID) ([]*models.CreditCard, error)
	Delete(ctx context.Context, id, userID primitive.ObjectID) error
	// ReserveCredit atomically decrements available credit for a purchase,
	// failing with mongo.ErrNoDocuments when the card lacks headroom.
	ReserveCredit(ctx context.Context, cardID primitive.ObjectID, amount float64) error
	// ReleaseCredit atomically increments available credit for a payment,
	// failing with mongo.ErrNoDocuments when the payment would push
	// available credit past the credit limit.
	ReleaseCredit(ctx context.Context, cardID primitive.ObjectID, amount float64) error
}

// TransactionRepository defines the interface for transaction data operations
type TransactionRepository interface {
	Create(ctx context.Context, tx *models.Transaction) error
	FindByIDAndUser(ctx context.Context, id, userID primitive.ObjectID) (*models.Transaction, error)
	FindByUserID(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]*models.Transaction, error)
	FindCompletedByUserID(ctx context.Context, userID primitive.ObjectID) ([]*models.Transaction, error)
	// UpdateStatus moves a pending transaction to completed or failed.
	// It fails with mongo.ErrNoDocuments when the transaction is no longer
	// pending, which keeps the transition exactly-once.
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) error
	EnsureIndexes(ctx context.Context) error
}

// RewardEventRepository defines the interface for the points ledger
type RewardEventRepository interface {
	Create(ctx context.Context, event *models.RewardEvent) error
	// Delete removes an event. It exists for compensation only: an event
	// whose balance update failed must not stay in the ledger, or the
	// idempotency check would block the retry forever.
	Delete(ctx context.Context, id primitive.ObjectID) error
	FindByTransactionID(ctx context.Context, txID primitive.ObjectID) (*models.RewardEvent, error)
	FindByUserID(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]*models.RewardEvent, error)
	FindAllByUserID(ctx context.Context, userID primitive.ObjectID) ([]*models.RewardEvent, error)
	EnsureIndexes(ctx context.Context) error
}
