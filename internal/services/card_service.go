package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/cardvault/cardvault-backend/internal/apperrors"
	"github.com/cardvault/cardvault-backend/internal/models"
	"github.com/cardvault/cardvault-backend/internal/repositories"
	"github.com/cardvault/cardvault-backend/internal/utils"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CardService handles credit card linking and removal
type CardService struct {
	cardRepo repositories.CardRepository
}

// NewCardService creates a new CardService
func NewCardService(cardRepo repositories.CardRepository) *CardService {
	return &CardService{
		cardRepo: cardRepo,
	}
}

// List returns the caller's cards, redacted
func (s *CardService) List(ctx context.Context, userID primitive.ObjectID) ([]*models.CardResponse, error) {
	cards, err := s.cardRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cards: %w", err)
	}
	responses := make([]*models.CardResponse, 0, len(cards))
	for _, card := range cards {
		responses = append(responses, card.Redacted())
	}
	return responses, nil
}

// Add links a new card. Available credit starts at the credit limit.
func (s *CardService) Add(ctx context.Context, userID primitive.ObjectID, req *models.AddCardRequest) (*models.CardResponse, error) {
	tier, ok := models.NormalizeTier(req.CardTier)
	if !ok {
		return nil, apperrors.Validationf("Unknown card tier")
	}
	card := &models.CreditCard{
		UserID:          userID,
		CardName:        req.CardName,
		CardNumber:      utils.StripCardSpaces(req.CardNumber),
		ExpiryDate:      req.ExpiryDate,
		CVV:             req.CVV,
		Bank:            req.Bank,
		CardTier:        tier,
		CreditLimit:     req.CreditLimit,
		AvailableCredit: req.CreditLimit,
		IsActive:        true,
	}
	if err := s.cardRepo.Create(ctx, card); err != nil {
		return nil, fmt.Errorf("failed to create card: %w", err)
	}
	log.WithFields(log.Fields{"userId": userID.Hex(), "cardId": card.ID.Hex()}).Info("card linked")
	return card.Redacted(), nil
}

// ConfirmDelete removes a card after matching the submitted CVV. The CVV
// check is a low-assurance confirmation step, not a credential check: it
// only guards against accidental deletion from an authenticated session.
func (s *CardService) ConfirmDelete(ctx context.Context, userID, cardID primitive.ObjectID, confirmationCVV string) error {
	card, err := s.cardRepo.FindByIDAndUser(ctx, cardID, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperrors.NotFoundf("Card not found")
		}
		return fmt.Errorf("failed to load card: %w", err)
	}

	if card.CVV != confirmationCVV {
		return apperrors.Validationf("Invalid CVV")
	}

	if err := s.cardRepo.Delete(ctx, cardID, userID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperrors.NotFoundf("Card not found")
		}
		return fmt.Errorf("failed to delete card: %w", err)
	}
	log.WithFields(log.Fields{"userId": userID.Hex(), "cardId": cardID.Hex()}).Info("card deleted")
	return nil
}
