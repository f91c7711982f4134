package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cardvault/cardvault-backend/internal/apperrors"
	"github.com/cardvault/cardvault-backend/internal/models"
	"github.com/cardvault/cardvault-backend/internal/repositories"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Category and tier multipliers. Anything not listed accrues at 1.
var categoryMultipliers = map[string]float64{
	models.CategoryDining:        2,
	models.CategoryTravel:        3,
	models.CategoryShopping:      1.5,
	models.CategoryEntertainment: 2,
	models.CategoryGroceries:     1.5,
	models.CategoryFuel:          2,
	models.CategoryBills:         1,
}

var tierMultipliers = map[string]float64{
	models.TierBasic:     1,
	models.TierGold:      1.5,
	models.TierPlatinum:  2,
	models.TierSignature: 2.5,
}

// redemptionCatalog is the fixed set of redemption options. The option
// only labels the redemption; the debit is whatever the caller requested.
var redemptionCatalog = []models.RedemptionOption{
	{ID: "cashback", Name: "Cashback", PointsRequired: 1000, Value: "₹100"},
	{ID: "voucher", Name: "Shopping Voucher", PointsRequired: 2000, Value: "₹250"},
	{ID: "travel", Name: "Travel Miles", PointsRequired: 5000, Value: "1000 Miles"},
}

// CalculatePoints is the accrual function: one base point per 100 spent,
// scaled by category and card tier, floored at each step.
func CalculatePoints(amount float64, category, tier string) int {
	if amount <= 0 {
		return 0
	}
	base := math.Floor(amount / 100)
	categoryMul, ok := categoryMultipliers[category]
	if !ok {
		categoryMul = 1
	}
	tierMul, ok := tierMultipliers[tier]
	if !ok {
		tierMul = 1
	}
	return int(math.Floor(base * categoryMul * tierMul))
}

// RewardService defines the points ledger operations
type RewardService interface {
	// AccrueForTransaction awards points for a completed purchase exactly
	// once per transaction id. It returns the points awarded (0 when the
	// accrual was already applied or the amount is too small).
	AccrueForTransaction(ctx context.Context, tx *models.Transaction, cardTier string) (int, error)
	// Redeem debits points against a catalog option and returns the
	// remaining balance.
	Redeem(ctx context.Context, userID primitive.ObjectID, optionID string, points int) (int, error)
	GetPoints(ctx context.Context, userID primitive.ObjectID) (*models.PointsSummary, error)
	GetHistory(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]*models.RewardEvent, error)
}

// Compile-time check to ensure rewardService implements RewardService
var _ RewardService = (*rewardService)(nil)

type rewardService struct {
	userRepo  repositories.UserRepository
	eventRepo repositories.RewardEventRepository
}

// NewRewardService creates a new RewardService implementation
func NewRewardService(userRepo repositories.UserRepository, eventRepo repositories.RewardEventRepository) RewardService {
	return &rewardService{
		userRepo:  userRepo,
		eventRepo: eventRepo,
	}
}

// AccrueForTransaction appends an earned event and increments the balance.
// Idempotency is keyed on the transaction id: a pre-check skips known
// transactions and the unique ledger index closes the race between two
// concurrent accruals for the same id.
func (s *rewardService) AccrueForTransaction(ctx context.Context, tx *models.Transaction, cardTier string) (int, error) {
	if tx.Type != models.TransactionPurchase || tx.Status != models.StatusCompleted {
		return 0, nil
	}

	if _, err := s.eventRepo.FindByTransactionID(ctx, tx.ID); err == nil {
		return 0, nil
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, fmt.Errorf("failed to check existing accrual: %w", err)
	}

	points := CalculatePoints(tx.Amount, tx.Category, cardTier)
	if points == 0 {
		return 0, nil
	}

	txID := tx.ID
	event := &models.RewardEvent{
		UserID:        tx.UserID,
		Points:        points,
		Type:          models.RewardEarned,
		Source:        models.RewardSourceTransaction,
		Category:      tx.Category,
		Description:   fmt.Sprintf("Earned %d points on %s transaction", points, tx.Category),
		TransactionID: &txID,
		Date:          tx.Date,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to record accrual event: %w", err)
	}

	if err := s.userRepo.IncrementPoints(ctx, tx.UserID, points); err != nil {
		// Remove the event again, or the idempotency check would treat
		// the transaction as accrued and block any retry from crediting.
		if delErr := s.eventRepo.Delete(ctx, event.ID); delErr != nil {
			log.WithError(delErr).WithField("transactionId", tx.ID.Hex()).Error("failed to remove accrual event after credit failure")
		}
		return 0, fmt.Errorf("failed to credit points: %w", err)
	}

	log.WithFields(log.Fields{"userId": tx.UserID.Hex(), "transactionId": tx.ID.Hex(), "points": points}).Info("points accrued")
	return points, nil
}

// Redeem debits the balance atomically and appends the redeemed event.
// The balance guard lives in the storage filter, so two concurrent
// redemptions cannot overdraw.
func (s *rewardService) Redeem(ctx context.Context, userID primitive.ObjectID, optionID string, points int) (int, error) {
	option, ok := findOption(optionID)
	if !ok {
		return 0, apperrors.Validationf("Unknown redemption option")
	}
	if points <= 0 {
		return 0, apperrors.Validationf("Points must be positive")
	}

	if err := s.userRepo.DeductPoints(ctx, userID, points); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			user, lookupErr := s.userRepo.FindByID(ctx, userID)
			if lookupErr != nil {
				return 0, fmt.Errorf("failed to load user after redemption refusal: %w", lookupErr)
			}
			return 0, &apperrors.InsufficientPointsError{Requested: points, Available: user.Points}
		}
		return 0, fmt.Errorf("failed to deduct points: %w", err)
	}

	event := &models.RewardEvent{
		UserID:      userID,
		Points:      points,
		Type:        models.RewardRedeemed,
		Source:      models.RewardSourceManual,
		OptionID:    option.ID,
		Description: fmt.Sprintf("Redeemed %d points for %s", points, option.Name),
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		// Re-credit so the balance stays consistent with the ledger.
		if creditErr := s.userRepo.IncrementPoints(ctx, userID, points); creditErr != nil {
			log.WithError(creditErr).WithField("userId", userID.Hex()).Error("failed to restore points after ledger write failure")
		}
		return 0, fmt.Errorf("failed to record redemption event: %w", err)
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to load remaining balance: %w", err)
	}

	log.WithFields(log.Fields{"userId": userID.Hex(), "option": option.ID, "points": points}).Info("points redeemed")
	return user.Points, nil
}

// GetPoints builds the balance summary with the category breakdown, the
// last-six-months graph and the redemption catalog.
func (s *rewardService) GetPoints(ctx context.Context, userID primitive.ObjectID) (*models.PointsSummary, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFoundf("User not found")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	events, err := s.eventRepo.FindAllByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	var earned, redeemed int
	byCategory := map[string]int{}
	byMonth := map[string]int{}
	for _, event := range events {
		switch event.Type {
		case models.RewardEarned:
			earned += event.Points
			category := event.Category
			if category == "" {
				category = models.CategoryOthers
			}
			byCategory[category] += event.Points
			byMonth[event.Date.Format("2006-01")] += event.Points
		case models.RewardRedeemed:
			redeemed += event.Points
		}
	}

	summary := &models.PointsSummary{
		Current:           user.Points,
		Earned:            earned,
		Redeemed:          redeemed,
		RedemptionOptions: redemptionCatalog,
		CategoryData:      []models.PointsBreakdownEntry{},
		GraphData:         make([]models.MonthlyPoints, 0, 6),
	}

	for category, points := range byCategory {
		percentage := 0
		if earned > 0 {
			percentage = int(math.Round(float64(points) / float64(earned) * 100))
		}
		summary.CategoryData = append(summary.CategoryData, models.PointsBreakdownEntry{
			Category:   category,
			Points:     points,
			Percentage: percentage,
		})
	}

	now := time.Now()
	for i := 5; i >= 0; i-- {
		month := now.AddDate(0, -i, 0)
		key := month.Format("2006-01")
		summary.GraphData = append(summary.GraphData, models.MonthlyPoints{
			Month:  month.Format("Jan"),
			Points: byMonth[key],
		})
	}

	return summary, nil
}

// GetHistory returns a page of the ledger, newest first
func (s *rewardService) GetHistory(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]*models.RewardEvent, error) {
	return s.eventRepo.FindByUserID(ctx, userID, page, limit)
}

func findOption(id string) (models.RedemptionOption, bool) {
	for _, option := range redemptionCatalog {
		if option.ID == id {
			return option, true
		}
	}
	return models.RedemptionOption{}, false
}
