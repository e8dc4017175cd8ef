package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/banking-ledger-core/internal/api_gateway/middleware"
	"github.com/banking-ledger-core/internal/domain/shared"
)

// Response is the envelope of every gateway reply. Exactly one of Data and Error is set.
type Response struct {
	Data          any        `json:"data,omitempty"`
	Error         *ErrorInfo `json:"error,omitempty"`
	CorrelationID string     `json:"correlation_id,omitempty"`
	Meta          *MetaInfo  `json:"meta,omitempty"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MetaInfo describes the page carried by a list response
type MetaInfo struct {
	Page       int `json:"page,omitempty"`
	PerPage    int `json:"per_page,omitempty"`
	TotalPages int `json:"total_pages,omitempty"`
	TotalItems int `json:"total_items,omitempty"`
}

func newPageMeta(page, perPage, totalItems int) *MetaInfo {
	return &MetaInfo{
		Page:       page,
		PerPage:    perPage,
		TotalPages: (totalItems + perPage - 1) / perPage,
		TotalItems: totalItems,
	}
}

func respond(c *gin.Context, statusCode int, response *Response) {
	response.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(statusCode, response)
}

func RespondWithData(c *gin.Context, statusCode int, data any) {
	respond(c, statusCode, &Response{Data: data})
}

func RespondWithError(c *gin.Context, statusCode int, code, message string) {
	respond(c, statusCode, &Response{Error: &ErrorInfo{Code: code, Message: message}})
}

// RespondWithPaginatedData answers with one page of a list. perPage must be positive.
func RespondWithPaginatedData(c *gin.Context, statusCode int, data any, page, perPage, totalItems int) {
	respond(c, statusCode, &Response{Data: data, Meta: newPageMeta(page, perPage, totalItems)})
}

func RespondOK(c *gin.Context, data any)       { RespondWithData(c, http.StatusOK, data) }
func RespondCreated(c *gin.Context, data any)  { RespondWithData(c, http.StatusCreated, data) }
func RespondAccepted(c *gin.Context, data any) { RespondWithData(c, http.StatusAccepted, data) }

func RespondBadRequest(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

func RespondInternalError(c *gin.Context) {
	RespondWithError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An internal server error occurred")
}

// domainErrors is checked in order; the first kind err matches decides the reply
var domainErrors = []struct {
	kind   error
	status int
	code   string
}{
	{shared.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{shared.ErrInvalidState, http.StatusConflict, "CONFLICT"},
	{shared.ErrInsufficientFunds, http.StatusBadRequest, "INSUFFICIENT_FUNDS"},
	{shared.ErrCurrencyMismatch, http.StatusBadRequest, "CURRENCY_MISMATCH"},
	{shared.ErrValidation, http.StatusBadRequest, "BAD_REQUEST"},
}

// RespondDomainError maps the ledger error kinds onto HTTP statuses. Unknown errors are
// logged and hidden behind a generic 500.
func RespondDomainError(c *gin.Context, logger *slog.Logger, err error) {
	for _, de := range domainErrors {
		if errors.Is(err, de.kind) {
			RespondWithError(c, de.status, de.code, err.Error())
			return
		}
	}
	logger.Error("Request failed", "path", c.FullPath(), "error", err)
	_ = c.Error(err)
	RespondInternalError(c)
}

func parseMoney(field, value string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, errors.New(field + " must be a decimal number")
	}
	return amount, nil
}
