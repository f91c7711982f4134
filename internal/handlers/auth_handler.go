package handlers

import (
	"net/http"

	"github.com/cardvault/cardvault-backend/internal/middleware"
	"github.com/cardvault/cardvault-backend/internal/models"
	"github.com/cardvault/cardvault-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication related HTTP requests
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// SendOTP handles POST /api/auth/send-otp
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req models.SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	err := h.authService.RequestCode(c.Request.Context(), req.PhoneNumber, models.PurposeRegistration, req.Name, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "OTP sent successfully"})
}

// VerifyOTP handles POST /api/auth/verify-otp
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req models.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.authService.VerifyCode(c.Request.Context(), req.PhoneNumber, models.PurposeRegistration, req.OTP, req.Name, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	message := "Login successful"
	if result.Created {
		status = http.StatusCreated
		message = "Registration successful"
	}
	c.JSON(status, gin.H{
		"success": true,
		"message": message,
		"token":   result.Token,
		"user":    result.User,
	})
}

// LoginSendOTP handles POST /api/auth/login/send-otp
func (h *AuthHandler) LoginSendOTP(c *gin.Context) {
	var req models.LoginSendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	err := h.authService.RequestCode(c.Request.Context(), req.PhoneNumber, models.PurposeLogin, "", "")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "OTP sent successfully"})
}

// LoginVerifyOTP handles POST /api/auth/login/verify-otp
func (h *AuthHandler) LoginVerifyOTP(c *gin.Context) {
	var req models.LoginVerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.authService.VerifyCode(c.Request.Context(), req.PhoneNumber, models.PurposeLogin, req.OTP, "", "")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"token":   result.Token,
		"user":    result.User,
	})
}

// Profile handles GET /api/auth/profile
func (h *AuthHandler) Profile(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid token"})
		return
	}

	user, err := h.authService.Profile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}
