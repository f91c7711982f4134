package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/cardvault/cardvault-backend/internal/models"
	"github.com/cardvault/cardvault-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Compile-time check to ensure CardRepository implements the interface
var _ repositories.CardRepository = (*CardRepository)(nil)

// CardRepository handles MongoDB operations for CreditCard
type CardRepository struct {
	collection *mongo.Collection
}

// NewCardRepository creates a new CardRepository
func NewCardRepository(db *mongo.Database) *CardRepository {
	return &CardRepository{
		collection: db.Collection("credit_cards"),
	}
}

// Create inserts a new card
func (r *CardRepository) Create(ctx context.Context, card *models.CreditCard) error {
	card.ID = primitive.NewObjectID()
	card.CreatedAt = time.Now()
	card.UpdatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, card)
	return err
}

// FindByIDAndUser finds a card owned by the given user
func (r *CardRepository) FindByIDAndUser(ctx context.Context, id, userID primitive.ObjectID) (*models.CreditCard, error) {
	var card models.CreditCard
	filter := bson.M{"_id": id, "userId": userID}
	err := r.collection.FindOne(ctx, filter).Decode(&card)
	if err != nil {
		return nil, err // Includes mongo.ErrNoDocuments
	}
	return &card, nil
}

// FindByUserID retrieves all cards owned by a user
func (r *CardRepository) FindByUserID(ctx context.Context, userID primitive.ObjectID) ([]*models.CreditCard, error) {
	var cards []*models.CreditCard
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &cards); err != nil {
		return nil, err
	}
	if cards == nil {
		cards = []*models.CreditCard{}
	}
	return cards, nil
}

// Delete removes a card owned by the given user
func (r *CardRepository) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ReserveCredit decrements available credit for a purchase. The headroom
// check is part of the filter, so two concurrent purchases cannot
// overspend the card.
func (r *CardRepository) ReserveCredit(ctx context.Context, cardID primitive.ObjectID, amount float64) error {
	if amount <= 0 {
		return errors.New("amount must be positive")
	}
	filter := bson.M{
		"_id":             cardID,
		"isActive":        true,
		"availableCredit": bson.M{"$gte": amount},
	}
	update := bson.M{
		"$inc": bson.M{"availableCredit": -amount},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ReleaseCredit increments available credit for a payment. The $expr
// filter keeps available credit from exceeding the credit limit.
func (r *CardRepository) ReleaseCredit(ctx context.Context, cardID primitive.ObjectID, amount float64) error {
	if amount <= 0 {
		return errors.New("amount must be positive")
	}
	filter := bson.M{
		"_id":      cardID,
		"isActive": true,
		"$expr": bson.M{
			"$lte": bson.A{
				bson.M{"$add": bson.A{"$availableCredit", amount}},
				"$creditLimit",
			},
		},
	}
	update := bson.M{
		"$inc": bson.M{"availableCredit": amount},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
