package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wagerledger/metrics"
	"wagerledger/service"
)

// ApproveRequest carries the admin identities asserted by the caller
type ApproveRequest struct {
	Signers []string `json:"signers" binding:"required"`
}

type WithdrawalHandler struct {
	withdrawals service.WithdrawalService
	metrics     *metrics.LedgerMetrics
}

func NewWithdrawalHandler(withdrawals service.WithdrawalService, m *metrics.LedgerMetrics) *WithdrawalHandler {
	return &WithdrawalHandler{
		withdrawals: withdrawals,
		metrics:     m,
	}
}

func (h *WithdrawalHandler) RequestWithdrawal(c *gin.Context) {
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	request, err := h.withdrawals.RequestWithdrawal(c.Request.Context(), c.Param("userID"), *req.Amount)
	h.metrics.RecordOperation("request_withdrawal", service.ErrorKind(err))
	if err != nil {
		respondError(c, "request_withdrawal", err)
		return
	}

	c.JSON(http.StatusCreated, request)
}

func (h *WithdrawalHandler) GetWithdrawal(c *gin.Context) {
	request, err := h.withdrawals.GetPendingWithdrawal(c.Request.Context(), c.Param("userID"))
	if err != nil {
		respondError(c, "get_withdrawal", err)
		return
	}
	if request == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "request_not_found"})
		return
	}

	c.JSON(http.StatusOK, request)
}

func (h *WithdrawalHandler) Approve(c *gin.Context) {
	var req ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	request, err := h.withdrawals.Approve(c.Request.Context(), c.Param("userID"), req.Signers)
	h.metrics.RecordOperation("approve_withdrawal", service.ErrorKind(err))
	if err != nil {
		respondError(c, "approve_withdrawal", err)
		return
	}

	c.JSON(http.StatusOK, request)
}

func (h *WithdrawalHandler) Execute(c *gin.Context) {
	result, err := h.withdrawals.ExecuteWithdrawal(c.Request.Context(), c.Param("userID"))
	h.metrics.RecordOperation("execute_withdrawal", service.ErrorKind(err))
	if err != nil {
		respondError(c, "execute_withdrawal", err)
		return
	}
	h.metrics.RecordPayout(result.Amount)

	c.JSON(http.StatusOK, result)
}
