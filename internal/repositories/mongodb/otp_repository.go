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

// Compile-time check to ensure OTPRepository implements the interface
var _ repositories.OTPRepository = (*OTPRepository)(nil)

// OTPRepository handles MongoDB operations for OTP records
type OTPRepository struct {
	collection *mongo.Collection
}

// NewOTPRepository creates a new OTPRepository
func NewOTPRepository(db *mongo.Database) *OTPRepository {
	return &OTPRepository{
		collection: db.Collection("otps"),
	}
}

// EnsureIndexes creates the TTL index that purges records 300 seconds
// after creation and the lookup index on (phoneNumber, purpose).
func (r *OTPRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "createdAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(models.OTPExpiry / time.Second)),
		},
		{
			Keys: bson.D{{Key: "phoneNumber", Value: 1}, {Key: "purpose", Value: 1}},
		},
	})
	return err
}

// Replace upserts the record for (phone, purpose), atomically superseding
// any unverified code for the same pair. Two concurrent send requests can
// never leave two simultaneously valid codes.
func (r *OTPRepository) Replace(ctx context.Context, otp *models.OTP) error {
	if otp.ID.IsZero() {
		otp.ID = primitive.NewObjectID()
	}
	otp.CreatedAt = time.Now()
	filter := bson.M{
		"phoneNumber": otp.PhoneNumber,
		"purpose":     otp.Purpose,
		"verified":    false,
	}
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, filter, otp, opts)
	return err
}

// FindActive finds the unverified record for (phone, purpose)
func (r *OTPRepository) FindActive(ctx context.Context, phone, purpose string) (*models.OTP, error) {
	var otp models.OTP
	filter := bson.M{
		"phoneNumber": phone,
		"purpose":     purpose,
		"verified":    false,
	}
	err := r.collection.FindOne(ctx, filter).Decode(&otp)
	if err != nil {
		return nil, err // Includes mongo.ErrNoDocuments
	}
	return &otp, nil
}

// RegisterFailedAttempt increments the attempt counter and stamps the
// attempt time in one atomic operation. The attempt cap is part of the
// filter, so concurrent verify calls cannot push the counter past the
// maximum.
func (r *OTPRepository) RegisterFailedAttempt(ctx context.Context, id primitive.ObjectID) (*models.OTP, error) {
	filter := bson.M{
		"_id":      id,
		"verified": false,
		"attempts": bson.M{"$lt": models.MaxOTPAttempts},
	}
	update := bson.M{
		"$inc": bson.M{"attempts": 1},
		"$set": bson.M{"lastAttemptAt": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var otp models.OTP
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&otp)
	if err != nil {
		return nil, err // mongo.ErrNoDocuments: record gone or budget spent
	}
	return &otp, nil
}

// MarkVerified flips the verified flag. The record then falls out of
// FindActive and is left for the TTL monitor to purge.
func (r *OTPRepository) MarkVerified(ctx context.Context, id primitive.ObjectID) error {
	filter := bson.M{"_id": id, "verified": false}
	update := bson.M{"$set": bson.M{"verified": true}}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a record by ID
func (r *OTPRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
