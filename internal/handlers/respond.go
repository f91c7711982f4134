package handlers

import (
	"net/http"

	"github.com/cardvault/cardvault-backend/internal/apperrors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// respondError maps a workflow error onto the {success,message} envelope.
// Taxonomy errors carry their own status; anything else logs the real
// error and answers with the generic 500 message.
func respondError(c *gin.Context, err error) {
	status, message := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).WithFields(log.Fields{
			"path":      c.Request.URL.Path,
			"requestId": c.GetString("RequestID"),
		}).Error("request error")
	}
	c.JSON(status, gin.H{"success": false, "message": message})
}

// respondBindError answers a request whose body failed validation.
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
}
