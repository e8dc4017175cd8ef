package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/banking-ledger-core/internal/api_gateway/middleware"
	"github.com/banking-ledger-core/internal/api_gateway/service"
	"github.com/banking-ledger-core/internal/domain/transaction"
)

// IdempotencyKeyHeader may carry the idempotency key instead of the request body
const IdempotencyKeyHeader = "Idempotency-Key"

// TransactionHandler handles HTTP requests for transaction operations
type TransactionHandler struct {
	transactionService service.TransactionService
	logger             *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, transactionService service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		logger:             logger,
	}
}

// Create accepts a deposit, withdrawal or transfer. New transactions answer 202 while the
// processor runs them; a replayed idempotency key answers 200 with the stored transaction.
func (h *TransactionHandler) Create(c *gin.Context) {
	userID, _ := middleware.ActorID(c)

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		RespondBadRequest(c, "Invalid account ID")
		return
	}
	amount, err := parseMoney("amount", req.Amount)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	params := transaction.Params{
		UserID:         userID,
		AccountID:      accountID,
		Type:           transaction.Type(req.Type),
		Amount:         amount,
		Currency:       req.Currency,
		Narration:      req.Narration,
		IdempotencyKey: req.IdempotencyKey,
		CorrelationID:  middleware.GetCorrelationID(c),
	}
	if params.IdempotencyKey == "" {
		params.IdempotencyKey = c.GetHeader(IdempotencyKeyHeader)
	}
	if req.RecipientAccountID != "" {
		recipientID, err := uuid.Parse(req.RecipientAccountID)
		if err != nil {
			RespondBadRequest(c, "Invalid recipient account ID")
			return
		}
		params.RecipientAccountID = &recipientID
	}

	txn, replayed, err := h.transactionService.CreateTransaction(c.Request.Context(), params)
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}

	if replayed {
		RespondOK(c, mapTransactionToResponse(txn))
		return
	}
	RespondAccepted(c, mapTransactionToResponse(txn))
}

// GetByID returns the current state of one of the caller's transactions
func (h *TransactionHandler) GetByID(c *gin.Context) {
	userID, _ := middleware.ActorID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid transaction ID")
		return
	}

	txn, err := h.transactionService.GetTransaction(c.Request.Context(), id, userID)
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapTransactionToResponse(txn))
}

// RequestLimitUpgrade files a limit upgrade request for one of the caller's accounts
func (h *TransactionHandler) RequestLimitUpgrade(c *gin.Context) {
	userID, _ := middleware.ActorID(c)

	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	var req LimitUpgradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	daily, err := parseMoney("daily_transfer_limit", req.DailyTransferLimit)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}
	single, err := parseMoney("max_single_transfer_amount", req.MaxSingleTransferAmount)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	upgradeRequest, err := h.transactionService.RequestLimitUpgrade(c.Request.Context(), accountID, userID, daily, single, req.Reason)
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapUpgradeToResponse(upgradeRequest))
}
