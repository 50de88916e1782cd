package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"wagerledger/metrics"
	"wagerledger/service"
)

// AmountRequest is the body of deposit, bet and withdrawal requests
type AmountRequest struct {
	Amount *uint64 `json:"amount" binding:"required"`
}

type LedgerHandler struct {
	ledger  service.LedgerService
	metrics *metrics.LedgerMetrics
}

func NewLedgerHandler(ledger service.LedgerService, m *metrics.LedgerMetrics) *LedgerHandler {
	return &LedgerHandler{
		ledger:  ledger,
		metrics: m,
	}
}

func (h *LedgerHandler) GetParameters(c *gin.Context) {
	c.JSON(http.StatusOK, h.ledger.GetParameters())
}

func (h *LedgerHandler) InitializeUser(c *gin.Context) {
	entry, err := h.ledger.InitializeUser(c.Request.Context(), c.Param("userID"))
	h.metrics.RecordOperation("initialize", service.ErrorKind(err))
	if err != nil {
		respondError(c, "initialize", err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

func (h *LedgerHandler) GetLedger(c *gin.Context) {
	entry, err := h.ledger.GetLedger(c.Request.Context(), c.Param("userID"))
	if err != nil {
		respondError(c, "get_ledger", err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

func (h *LedgerHandler) Deposit(c *gin.Context) {
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	entry, err := h.ledger.Deposit(c.Request.Context(), c.Param("userID"), *req.Amount)
	h.metrics.RecordOperation("deposit", service.ErrorKind(err))
	if err != nil {
		respondError(c, "deposit", err)
		return
	}
	h.metrics.RecordDeposit(*req.Amount)

	c.JSON(http.StatusOK, entry)
}

func (h *LedgerHandler) PlaceBet(c *gin.Context) {
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	result, err := h.ledger.PlaceBet(c.Request.Context(), c.Param("userID"), *req.Amount)
	h.metrics.RecordOperation("place_bet", service.ErrorKind(err))
	if err != nil {
		respondError(c, "place_bet", err)
		return
	}
	h.metrics.RecordBet(result.BetAmount)

	c.JSON(http.StatusOK, result)
}

func (h *LedgerHandler) GetHistory(c *gin.Context) {
	limit, err := parseLimit(c)
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	history, err := h.ledger.GetHistory(c.Request.Context(), c.Param("userID"), limit)
	if err != nil {
		respondError(c, "get_history", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": history})
}

func (h *LedgerHandler) GetBets(c *gin.Context) {
	limit, err := parseLimit(c)
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	bets, err := h.ledger.GetBets(c.Request.Context(), c.Param("userID"), limit)
	if err != nil {
		respondError(c, "get_bets", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bets": bets})
}

// parseLimit reads the optional limit query parameter; 0 selects the default
func parseLimit(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, errors.New("limit must be a non-negative integer")
	}
	return limit, nil
}
