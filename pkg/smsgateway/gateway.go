package smsgateway

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cardvault/cardvault-backend/internal/config"
	log "github.com/sirupsen/logrus"
)

// Gateway dispatches one-time codes over SMS. SendOTP must only return nil
// when the provider confirmed the dispatch; callers rely on that to decide
// whether the code may be persisted.
type Gateway interface {
	SendOTP(phone, code string) error
}

// TwoFactorGateway dispatches codes through the 2Factor.in SMS API.
type TwoFactorGateway struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// MockGateway logs instead of dispatching, for development and tests.
type MockGateway struct{}

// NewTwoFactorGateway creates a 2Factor.in gateway
func NewTwoFactorGateway(cfg *config.Config) *TwoFactorGateway {
	return &TwoFactorGateway{
		baseURL: cfg.SMS.TwoFactor.BaseURL,
		apiKey:  cfg.SMS.TwoFactor.APIKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewMockGateway creates a mock gateway
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

// FromConfig picks the configured gateway implementation
func FromConfig(cfg *config.Config) Gateway {
	if cfg.SMS.Mock {
		return NewMockGateway()
	}
	return NewTwoFactorGateway(cfg)
}

// SendOTP sends the code via 2Factor.in's template endpoint
func (g *TwoFactorGateway) SendOTP(phone, code string) error {
	if g.apiKey == "" {
		return fmt.Errorf("2factor API key is not configured")
	}

	url := fmt.Sprintf("%s/%s/SMS/%s/%s/OTP1", g.baseURL, g.apiKey, phone, code)
	resp, err := g.httpClient.Get(url)
	if err != nil {
		return fmt.Errorf("failed to reach SMS gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read gateway response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(body))
	}

	// 2Factor reports failures inside a 200 response.
	var result struct {
		Status  string `json:"Status"`
		Details string `json:"Details"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse gateway response: %w", err)
	}
	if result.Status != "Success" {
		return fmt.Errorf("gateway rejected dispatch: %s", result.Details)
	}
	return nil
}

// SendOTP logs the code instead of dispatching it
func (g *MockGateway) SendOTP(phone, code string) error {
	log.WithFields(log.Fields{"phone": phone, "code": code}).Info("mock SMS gateway: OTP dispatched")
	return nil
}
