package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/banking-ledger-core/internal/api_gateway/middleware"
	"github.com/banking-ledger-core/internal/api_gateway/service"
)

// AccountHandler handles HTTP requests for account operations
type AccountHandler struct {
	accountService service.AccountService
	logger         *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(logger *slog.Logger, accountService service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// Create opens an account for the calling user
func (h *AccountHandler) Create(c *gin.Context) {
	userID, _ := middleware.ActorID(c)

	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	initialBalance := decimal.Zero
	if req.InitialBalance != "" {
		var err error
		if initialBalance, err = parseMoney("initial_balance", req.InitialBalance); err != nil {
			RespondBadRequest(c, err.Error())
			return
		}
	}

	var maxBalance *decimal.Decimal
	if req.MaxBalance != nil {
		parsed, err := parseMoney("max_balance", *req.MaxBalance)
		if err != nil {
			RespondBadRequest(c, err.Error())
			return
		}
		maxBalance = &parsed
	}

	acc, err := h.accountService.CreateAccount(c.Request.Context(), userID, req.Currency, initialBalance, maxBalance)
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapAccountToResponse(acc))
}

// GetByID returns one of the caller's accounts
func (h *AccountHandler) GetByID(c *gin.Context) {
	userID, _ := middleware.ActorID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	acc, err := h.accountService.GetAccount(c.Request.Context(), id, userID)
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}

// GetHistory returns the paginated ledger history of one of the caller's accounts
func (h *AccountHandler) GetHistory(c *gin.Context) {
	userID, _ := middleware.ActorID(c)

	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	entries, total, err := h.accountService.GetHistory(c.Request.Context(), accountID, userID, pagination.Page, pagination.PerPage)
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}

	transactions := make([]TransactionResponse, 0, len(entries))
	for _, entry := range entries {
		transactions = append(transactions, mapLedgerEntryToResponse(entry))
	}
	RespondWithPaginatedData(c, http.StatusOK, transactions, pagination.Page, pagination.PerPage, int(total))
}
