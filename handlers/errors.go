package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"wagerledger/service"
)

// statusForKind maps a service error kind to its HTTP status
func statusForKind(kind string) int {
	switch kind {
	case "user_not_found", "request_not_found":
		return http.StatusNotFound
	case "already_initialized", "duplicate_request", "withdrawal_not_approved":
		return http.StatusConflict
	case "withdrawal_locked":
		return http.StatusLocked
	case "insufficient_funds", "insufficient_winnings", "arithmetic_overflow":
		return http.StatusUnprocessableEntity
	case "not_enough_signers":
		return http.StatusForbidden
	case "payout_failed":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error body for a failed operation
func respondError(c *gin.Context, operation string, err error) {
	kind := service.ErrorKind(err)
	status := statusForKind(kind)

	if status == http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"operation": operation,
			"kind":      kind,
		}).WithError(err).Error("Ledger operation failed")
	}

	c.JSON(status, gin.H{
		"error":   kind,
		"details": err.Error(),
	})
}

// respondBadRequest rejects a request whose body or query could not be parsed
func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "invalid_request",
		"details": err.Error(),
	})
}
