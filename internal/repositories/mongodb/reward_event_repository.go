package mongodb

import (
	"context"
	"time"

	"github.com/cardvault/cardvault-backend/internal/models"
	"github.com/cardvault/cardvault-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Compile-time check to ensure RewardEventRepository implements the interface
var _ repositories.RewardEventRepository = (*RewardEventRepository)(nil)

// RewardEventRepository handles MongoDB operations for the points ledger
type RewardEventRepository struct {
	collection *mongo.Collection
}

// NewRewardEventRepository creates a new RewardEventRepository
func NewRewardEventRepository(db *mongo.Database) *RewardEventRepository {
	return &RewardEventRepository{
		collection: db.Collection("reward_events"),
	}
}

// EnsureIndexes creates the history index and the unique transaction-id
// index that backs accrual idempotency. The partial filter keeps manual
// events (no transaction id) out of the unique constraint.
func (r *RewardEventRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: -1}}},
		{
			Keys: bson.D{{Key: "transactionId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"transactionId": bson.M{"$exists": true}}),
		},
	})
	return err
}

// Create appends an event to the ledger
func (r *RewardEventRepository) Create(ctx context.Context, event *models.RewardEvent) error {
	event.ID = primitive.NewObjectID()
	event.CreatedAt = time.Now()
	if event.Date.IsZero() {
		event.Date = event.CreatedAt
	}
	_, err := r.collection.InsertOne(ctx, event)
	return err
}

// Delete removes an event by ID
func (r *RewardEventRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// FindByTransactionID finds the accrual event for a transaction, if any
func (r *RewardEventRepository) FindByTransactionID(ctx context.Context, txID primitive.ObjectID) (*models.RewardEvent, error) {
	var event models.RewardEvent
	err := r.collection.FindOne(ctx, bson.M{"transactionId": txID}).Decode(&event)
	if err != nil {
		return nil, err // Includes mongo.ErrNoDocuments
	}
	return &event, nil
}

// FindByUserID retrieves a page of a user's ledger, newest first
func (r *RewardEventRepository) FindByUserID(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]*models.RewardEvent, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	return r.find(ctx, bson.M{"userId": userID}, opts)
}

// FindAllByUserID retrieves a user's full ledger, newest first
func (r *RewardEventRepository) FindAllByUserID(ctx context.Context, userID primitive.ObjectID) ([]*models.RewardEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	return r.find(ctx, bson.M{"userId": userID}, opts)
}

func (r *RewardEventRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.RewardEvent, error) {
	var events []*models.RewardEvent
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	if events == nil {
		events = []*models.RewardEvent{}
	}
	return events, nil
}
