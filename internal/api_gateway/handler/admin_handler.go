package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/banking-ledger-core/internal/api_gateway/middleware"
	"github.com/banking-ledger-core/internal/api_gateway/service"
	"github.com/banking-ledger-core/internal/domain/fraud"
	"github.com/banking-ledger-core/internal/domain/upgrade"
)

// AdminHandler serves the administrative actions
type AdminHandler struct {
	adminService service.AdminService
	logger       *slog.Logger
}

func NewAdminHandler(logger *slog.Logger, adminService service.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		logger:       logger,
	}
}

// adminAndTarget reads the acting admin and the :id path parameter
func adminAndTarget(c *gin.Context) (adminID, targetID uuid.UUID, ok bool) {
	adminID, _ = middleware.ActorID(c)
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid ID")
		return uuid.Nil, uuid.Nil, false
	}
	return adminID, targetID, true
}

// ReverseTransaction undoes a successful transaction
func (h *AdminHandler) ReverseTransaction(c *gin.Context) {
	adminID, transactionID, ok := adminAndTarget(c)
	if !ok {
		return
	}

	txn, err := h.adminService.ReverseTransaction(c.Request.Context(), transactionID, adminID)
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapTransactionToResponse(txn))
}

func (h *AdminHandler) ApproveUpgrade(c *gin.Context) {
	adminID, requestID, ok := adminAndTarget(c)
	if !ok {
		return
	}

	req, err := h.adminService.ApproveUpgrade(c.Request.Context(), requestID, adminID)
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapUpgradeToResponse(req))
}

func (h *AdminHandler) RejectUpgrade(c *gin.Context) {
	adminID, requestID, ok := adminAndTarget(c)
	if !ok {
		return
	}

	req, err := h.adminService.RejectUpgrade(c.Request.Context(), requestID, adminID)
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapUpgradeToResponse(req))
}

// ListUpgrades pages through limit upgrade requests, optionally filtered by ?status=
func (h *AdminHandler) ListUpgrades(c *gin.Context) {
	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	status := upgrade.Status(c.Query("status"))
	switch status {
	case "", upgrade.StatusPending, upgrade.StatusApproved, upgrade.StatusRejected:
	default:
		RespondBadRequest(c, "Invalid status")
		return
	}

	requests, err := h.adminService.ListUpgrades(c.Request.Context(), status, pagination.Page, pagination.PerPage)
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}

	data := make([]LimitUpgradeResponse, 0, len(requests))
	for _, req := range requests {
		data = append(data, mapUpgradeToResponse(req))
	}
	RespondOK(c, data)
}

// ReviewFlagged records the outcome of a flagged transaction review
func (h *AdminHandler) ReviewFlagged(c *gin.Context) {
	adminID, flaggedID, ok := adminAndTarget(c)
	if !ok {
		return
	}

	var req ReviewFlaggedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	flagged, err := h.adminService.ReviewFlagged(c.Request.Context(), flaggedID, adminID, fraud.ReviewStatus(req.Outcome))
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapFlaggedToResponse(flagged))
}

// ListFlagged pages through flagged transactions, by default the ones awaiting review
func (h *AdminHandler) ListFlagged(c *gin.Context) {
	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	status := fraud.ReviewStatus(c.DefaultQuery("status", string(fraud.ReviewStatusFlagged)))
	switch status {
	case fraud.ReviewStatusFlagged, fraud.ReviewStatusUnflagged, fraud.ReviewStatusRejected:
	default:
		RespondBadRequest(c, "Invalid status")
		return
	}

	items, total, err := h.adminService.ListFlagged(c.Request.Context(), status, pagination.Page, pagination.PerPage)
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}

	data := make([]FlaggedTransactionResponse, 0, len(items))
	for _, item := range items {
		data = append(data, mapFlaggedToResponse(item))
	}
	RespondWithPaginatedData(c, http.StatusOK, data, pagination.Page, pagination.PerPage, int(total))
}
