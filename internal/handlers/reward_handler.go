package handlers

import (
	"net/http"

	"github.com/cardvault/cardvault-backend/internal/middleware"
	"github.com/cardvault/cardvault-backend/internal/models"
	"github.com/cardvault/cardvault-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// RewardHandler handles reward points HTTP requests
type RewardHandler struct {
	rewardService services.RewardService
}

// NewRewardHandler creates a new RewardHandler
func NewRewardHandler(rewardService services.RewardService) *RewardHandler {
	return &RewardHandler{
		rewardService: rewardService,
	}
}

// Points handles GET /api/rewards/points
func (h *RewardHandler) Points(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid token"})
		return
	}

	summary, err := h.rewardService.GetPoints(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "rewards": summary})
}

// Redeem handles POST /api/rewards/redeem
func (h *RewardHandler) Redeem(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid token"})
		return
	}

	var req models.RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	remaining, err := h.rewardService.Redeem(c.Request.Context(), userID, req.OptionID, req.Points)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"message":         "Points redeemed successfully",
		"remainingPoints": remaining,
	})
}

// History handles GET /api/rewards/history
func (h *RewardHandler) History(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid token"})
		return
	}

	page, limit := pagination(c)
	events, err := h.rewardService.GetHistory(c.Request.Context(), userID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"history": events,
		"page":    page,
		"limit":   limit,
	})
}
