package utils

import (
	"crypto/rand"
	"errors"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/cardvault/cardvault-backend/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// NormalizePhone strips a leading +91 country code and surrounding
// whitespace. It does not validate; pair with ValidPhone.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	phone = strings.TrimPrefix(phone, "+91")
	return phone
}

// ValidPhone reports whether phone is a 10-digit number.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// GenerateOTPCode returns a random 6-digit numeric code. The range starts
// at 100000 so the code never has a leading zero.
func GenerateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	code := n.Int64() + 100000
	return big.NewInt(code).String(), nil
}

// GenerateJWT issues a signed session token for the given user.
func GenerateJWT(userID, phone, role string, cfg *config.Config) (string, error) {
	claims := jwt.MapClaims{
		"sub":   userID,
		"phone": phone,
		"role":  role,
		"exp":   time.Now().Add(time.Duration(cfg.JWT.ExpiresIn) * time.Second).Unix(),
		"iat":   time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWT.Secret))
}

// ValidateJWT parses and validates a session token, returning its claims.
func ValidateJWT(tokenString string, cfg *config.Config) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(cfg.JWT.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// StripCardSpaces removes whitespace from a card number as entered.
func StripCardSpaces(number string) string {
	return strings.ReplaceAll(number, " ", "")
}
