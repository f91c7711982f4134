package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/cardvault/cardvault-backend/internal/apperrors"
	"github.com/cardvault/cardvault-backend/internal/models"
	"github.com/cardvault/cardvault-backend/internal/repositories"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// TransactionService records purchases and payments. Monetary and reward
// effects are applied on the pending -> completed transition and never
// anywhere else.
type TransactionService struct {
	txRepo     repositories.TransactionRepository
	cardRepo   repositories.CardRepository
	rewardsSvc RewardService
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(txRepo repositories.TransactionRepository, cardRepo repositories.CardRepository, rewardsSvc RewardService) *TransactionService {
	return &TransactionService{
		txRepo:     txRepo,
		cardRepo:   cardRepo,
		rewardsSvc: rewardsSvc,
	}
}

// RecordPurchase creates a pending purchase, reserves credit on the card,
// completes the transaction and accrues points. An unfundable purchase is
// recorded as failed.
func (s *TransactionService) RecordPurchase(ctx context.Context, userID primitive.ObjectID, req *models.PurchaseRequest) (*models.Transaction, int, error) {
	cardID, err := primitive.ObjectIDFromHex(req.CardID)
	if err != nil {
		return nil, 0, apperrors.Validationf("Invalid card id")
	}
	card, err := s.findCard(ctx, cardID, userID)
	if err != nil {
		return nil, 0, err
	}

	category, ok := models.NormalizeCategory(req.Category)
	if !ok {
		return nil, 0, apperrors.Validationf("Unknown transaction category")
	}
	tx := &models.Transaction{
		UserID:      userID,
		CardID:      card.ID,
		Amount:      req.Amount,
		Type:        models.TransactionPurchase,
		Description: req.Description,
		Category:    category,
		Status:      models.StatusPending,
	}
	if err := s.txRepo.Create(ctx, tx); err != nil {
		return nil, 0, fmt.Errorf("failed to create transaction: %w", err)
	}

	if err := s.cardRepo.ReserveCredit(ctx, card.ID, req.Amount); err != nil {
		if markErr := s.txRepo.UpdateStatus(ctx, tx.ID, models.StatusFailed); markErr != nil {
			log.WithError(markErr).WithField("transactionId", tx.ID.Hex()).Error("failed to mark transaction failed")
		}
		tx.Status = models.StatusFailed
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, 0, apperrors.Validationf("Insufficient credit available")
		}
		return nil, 0, fmt.Errorf("failed to reserve credit: %w", err)
	}

	if err := s.txRepo.UpdateStatus(ctx, tx.ID, models.StatusCompleted); err != nil {
		return nil, 0, fmt.Errorf("failed to complete transaction: %w", err)
	}
	tx.Status = models.StatusCompleted

	points, err := s.rewardsSvc.AccrueForTransaction(ctx, tx, card.CardTier)
	if err != nil {
		// The purchase stands; accrual can be retried by transaction id.
		log.WithError(err).WithField("transactionId", tx.ID.Hex()).Error("point accrual failed")
	}

	return tx, points, nil
}

// RecordPayment creates a pending payment, releases credit on the card
// (never past the limit) and completes the transaction.
func (s *TransactionService) RecordPayment(ctx context.Context, userID primitive.ObjectID, req *models.PaymentRequest) (*models.Transaction, error) {
	cardID, err := primitive.ObjectIDFromHex(req.CardID)
	if err != nil {
		return nil, apperrors.Validationf("Invalid card id")
	}
	card, err := s.findCard(ctx, cardID, userID)
	if err != nil {
		return nil, err
	}

	tx := &models.Transaction{
		UserID:      userID,
		CardID:      card.ID,
		Amount:      req.Amount,
		Type:        models.TransactionPayment,
		Description: req.Description,
		Category:    models.CategoryBills,
		Status:      models.StatusPending,
	}
	if err := s.txRepo.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	if err := s.cardRepo.ReleaseCredit(ctx, card.ID, req.Amount); err != nil {
		if markErr := s.txRepo.UpdateStatus(ctx, tx.ID, models.StatusFailed); markErr != nil {
			log.WithError(markErr).WithField("transactionId", tx.ID.Hex()).Error("failed to mark transaction failed")
		}
		tx.Status = models.StatusFailed
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.Validationf("Payment exceeds the card's outstanding balance")
		}
		return nil, fmt.Errorf("failed to release credit: %w", err)
	}

	if err := s.txRepo.UpdateStatus(ctx, tx.ID, models.StatusCompleted); err != nil {
		return nil, fmt.Errorf("failed to complete transaction: %w", err)
	}
	tx.Status = models.StatusCompleted

	return tx, nil
}

// List returns a page of the user's transactions, newest first
func (s *TransactionService) List(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]*models.Transaction, error) {
	return s.txRepo.FindByUserID(ctx, userID, page, limit)
}

// Get returns one transaction owned by the user
func (s *TransactionService) Get(ctx context.Context, userID, id primitive.ObjectID) (*models.Transaction, error) {
	tx, err := s.txRepo.FindByIDAndUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFoundf("Transaction not found")
		}
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}
	return tx, nil
}

// Stats summarises completed activity: spend and payment totals, spending
// by category, and the five most recent transactions.
func (s *TransactionService) Stats(ctx context.Context, userID primitive.ObjectID) (*models.TransactionStats, error) {
	txs, err := s.txRepo.FindCompletedByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	stats := &models.TransactionStats{
		SpendingByCategory: map[string]float64{},
		RecentTransactions: []*models.Transaction{},
	}
	for _, tx := range txs {
		switch tx.Type {
		case models.TransactionPurchase:
			stats.TotalSpent += tx.Amount
			stats.SpendingByCategory[tx.Category] += tx.Amount
		case models.TransactionPayment:
			stats.TotalPayments += tx.Amount
		}
	}
	if len(txs) > 5 {
		stats.RecentTransactions = txs[:5]
	} else {
		stats.RecentTransactions = txs
	}
	return stats, nil
}

func (s *TransactionService) findCard(ctx context.Context, cardID, userID primitive.ObjectID) (*models.CreditCard, error) {
	card, err := s.cardRepo.FindByIDAndUser(ctx, cardID, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFoundf("Credit card not found")
		}
		return nil, fmt.Errorf("failed to load card: %w", err)
	}
	if !card.IsActive {
		return nil, apperrors.Validationf("Card is not active")
	}
	return card, nil
}
