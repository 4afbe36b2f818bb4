package handler

import (
	"account-ledger/internal/adapter/http/dto"
	"account-ledger/internal/core/ports"
	"account-ledger/pkg/apperror"
	"account-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// ReportHandler serves ledger-wide reports.
type ReportHandler struct {
	ledger ports.LedgerService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(ledger ports.LedgerService) *ReportHandler {
	return &ReportHandler{ledger: ledger}
}

// Stats handles GET /api/v1/reports/stats.
func (h *ReportHandler) Stats(c *gin.Context) {
	response.OK(c, dto.NewStatsResponse(h.ledger.Stats()))
}

// Transactions handles GET /api/v1/reports/transactions, in acceptance order.
func (h *ReportHandler) Transactions(c *gin.Context) {
	var q dto.TransactionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	to := q.To
	if to.IsZero() {
		to = endOfTime
	}
	if to.Before(q.From) {
		response.Error(c, apperror.Validation("to must not be before from"))
		return
	}

	records := h.ledger.TransactionsBetween(q.From, to)
	if q.Limit > 0 && q.Limit < len(records) {
		records = records[len(records)-q.Limit:]
	}
	response.OK(c, dto.NewTransactionListResponse(records))
}
