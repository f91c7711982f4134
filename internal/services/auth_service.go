package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/cardvault/cardvault-backend/internal/apperrors"
	"github.com/cardvault/cardvault-backend/internal/config"
	"github.com/cardvault/cardvault-backend/internal/models"
	"github.com/cardvault/cardvault-backend/internal/repositories"
	"github.com/cardvault/cardvault-backend/internal/utils"
	"github.com/cardvault/cardvault-backend/pkg/smsgateway"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// AuthService defines the OTP-gated authentication workflow
type AuthService interface {
	// RequestCode issues a fresh code for (phone, purpose), superseding
	// any active one, and dispatches it over SMS.
	RequestCode(ctx context.Context, phone, purpose, name, email string) error
	// VerifyCode checks a submitted code and, on success, resolves or
	// creates the user and issues a session token.
	VerifyCode(ctx context.Context, phone, purpose, code, name, email string) (*models.AuthResult, error)
	// Profile returns the public projection for an authenticated user.
	Profile(ctx context.Context, userID primitive.ObjectID) (*models.PublicUser, error)
}

// Compile-time check to ensure authService implements AuthService
var _ AuthService = (*authService)(nil)

type authService struct {
	userRepo repositories.UserRepository
	otpRepo  repositories.OTPRepository
	gateway  smsgateway.Gateway
	cfg      *config.Config
}

// NewAuthService creates a new AuthService implementation
func NewAuthService(userRepo repositories.UserRepository, otpRepo repositories.OTPRepository, gateway smsgateway.Gateway, cfg *config.Config) AuthService {
	return &authService{
		userRepo: userRepo,
		otpRepo:  otpRepo,
		gateway:  gateway,
		cfg:      cfg,
	}
}

// RequestCode validates the request, checks the user precondition for the
// purpose, and dispatches a fresh code. The record is persisted only after
// the gateway confirmed dispatch, so a failed send never leaves a code a
// caller could verify against.
func (s *authService) RequestCode(ctx context.Context, phone, purpose, name, email string) error {
	phone = utils.NormalizePhone(phone)
	if !utils.ValidPhone(phone) {
		return apperrors.Validationf("Invalid phone number format. Please enter a 10-digit number.")
	}
	if !models.ValidPurpose(purpose) {
		return apperrors.Validationf("Unknown OTP purpose")
	}

	switch purpose {
	case models.PurposeRegistration:
		if err := s.ensureNoExistingUser(ctx, phone, email); err != nil {
			return err
		}
	case models.PurposeLogin:
		if _, err := s.findUserByPhone(ctx, phone); err != nil {
			return err
		}
	}

	code, err := utils.GenerateOTPCode()
	if err != nil {
		return fmt.Errorf("failed to generate OTP code: %w", err)
	}

	if err := s.gateway.SendOTP(phone, code); err != nil {
		log.WithError(err).WithField("phone", phone).Error("OTP dispatch failed")
		return &apperrors.GatewayError{Err: err}
	}

	otp := &models.OTP{
		PhoneNumber: phone,
		Code:        code,
		Purpose:     purpose,
	}
	if err := s.otpRepo.Replace(ctx, otp); err != nil {
		return fmt.Errorf("failed to store OTP: %w", err)
	}

	log.WithFields(log.Fields{"phone": phone, "purpose": purpose}).Info("OTP issued")
	return nil
}

// VerifyCode walks the OTP state machine: absent record, exhausted
// attempts, mismatch with a remaining-attempts hint, or verified. On a
// match the user is resolved (or created, for registration) and a session
// token is issued.
func (s *authService) VerifyCode(ctx context.Context, phone, purpose, code, name, email string) (*models.AuthResult, error) {
	phone = utils.NormalizePhone(phone)
	if !utils.ValidPhone(phone) {
		return nil, apperrors.Validationf("Invalid phone number format. Please enter a 10-digit number.")
	}

	otp, err := s.otpRepo.FindActive(ctx, phone, purpose)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.Validationf("No active OTP found. Please request a new one.")
		}
		return nil, fmt.Errorf("failed to look up OTP: %w", err)
	}

	if otp.Attempts >= models.MaxOTPAttempts {
		if err := s.otpRepo.Delete(ctx, otp.ID); err != nil {
			log.WithError(err).Warn("failed to delete exhausted OTP")
		}
		return nil, &apperrors.TooManyAttemptsError{}
	}

	if otp.Code != code {
		updated, err := s.otpRepo.RegisterFailedAttempt(ctx, otp.ID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				// A concurrent attempt spent the budget first.
				if err := s.otpRepo.Delete(ctx, otp.ID); err != nil {
					log.WithError(err).Warn("failed to delete exhausted OTP")
				}
				return nil, &apperrors.TooManyAttemptsError{}
			}
			return nil, fmt.Errorf("failed to record OTP attempt: %w", err)
		}
		return nil, &apperrors.InvalidCodeError{RemainingAttempts: updated.RemainingAttempts()}
	}

	if err := s.otpRepo.MarkVerified(ctx, otp.ID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// A concurrent verification won the race.
			return nil, apperrors.Validationf("No active OTP found. Please request a new one.")
		}
		return nil, fmt.Errorf("failed to mark OTP verified: %w", err)
	}

	user, created, err := s.resolveUser(ctx, phone, purpose, name, email)
	if err != nil {
		return nil, err
	}

	token, err := utils.GenerateJWT(user.ID.Hex(), user.PhoneNumber, user.Role, s.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	log.WithFields(log.Fields{"userId": user.ID.Hex(), "purpose": purpose, "created": created}).Info("OTP verified")
	return &models.AuthResult{Token: token, User: user.Public(), Created: created}, nil
}

// Profile returns the public projection for the given user
func (s *authService) Profile(ctx context.Context, userID primitive.ObjectID) (*models.PublicUser, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFoundf("User not found")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user.Public(), nil
}

func (s *authService) ensureNoExistingUser(ctx context.Context, phone, email string) error {
	if _, err := s.userRepo.FindByPhone(ctx, phone); err == nil {
		return apperrors.Validationf("User already exists with this phone number or email")
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("failed to check existing user: %w", err)
	}
	if email != "" {
		if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
			return apperrors.Validationf("User already exists with this phone number or email")
		} else if !errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("failed to check existing user: %w", err)
		}
	}
	return nil
}

func (s *authService) findUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	user, err := s.userRepo.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFoundf("No account found with this phone number. Please register first.")
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return user, nil
}

// resolveUser maps a verified code to an account. Registration creates the
// user when the phone is new (auto-naming from the last four digits) and
// quietly logs in when it is not; login requires an existing account.
func (s *authService) resolveUser(ctx context.Context, phone, purpose, name, email string) (*models.User, bool, error) {
	user, err := s.userRepo.FindByPhone(ctx, phone)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, fmt.Errorf("failed to look up user: %w", err)
	}
	if purpose != models.PurposeRegistration {
		return nil, false, apperrors.NotFoundf("User not found")
	}

	if name == "" {
		name = "User" + phone[len(phone)-4:]
	}
	user = &models.User{
		Name:        name,
		PhoneNumber: phone,
		Email:       email,
		Role:        models.RoleUser,
		IsVerified:  true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}
	return user, true, nil
}
