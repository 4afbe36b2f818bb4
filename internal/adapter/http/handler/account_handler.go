package handler

import (
	"time"

	"account-ledger/internal/adapter/http/dto"
	"account-ledger/internal/adapter/http/middleware"
	"account-ledger/internal/core/domain"
	"account-ledger/internal/core/ports"
	"account-ledger/pkg/apperror"
	"account-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// endOfTime stands in for an open upper bound on time filters.
var endOfTime = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

// AccountHandler handles account lifecycle and money movement.
// Every route acts on accounts owned by the authenticated client only.
type AccountHandler struct {
	ledger ports.LedgerService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(ledger ports.LedgerService) *AccountHandler {
	return &AccountHandler{ledger: ledger}
}

// Open handles POST /api/v1/accounts.
func (h *AccountHandler) Open(c *gin.Context) {
	var req dto.OpenAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	initial := decimal.Zero
	if req.InitialBalance != "" {
		var err error
		if initial, err = dto.ParseAmount(req.InitialBalance); err != nil {
			response.Error(c, err)
			return
		}
	}

	acc, err := domain.NewAccount(req.ID, middleware.ClientID(c), domain.AccountKind(req.Kind), initial)
	if err != nil {
		response.Error(c, err)
		return
	}
	if _, err := h.ledger.OpenAccount(acc); err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxResourceID, acc.ID())
	response.Created(c, dto.NewAccountResponse(acc))
}

// List handles GET /api/v1/accounts.
func (h *AccountHandler) List(c *gin.Context) {
	accounts, err := h.ledger.AccountsByClient(middleware.ClientID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewAccountListResponse(accounts))
}

// Get handles GET /api/v1/accounts/:id.
func (h *AccountHandler) Get(c *gin.Context) {
	acc, ok := h.ownedAccount(c)
	if !ok {
		return
	}
	response.OK(c, dto.NewAccountResponse(acc))
}

// Transactions handles GET /api/v1/accounts/:id/transactions, newest first.
func (h *AccountHandler) Transactions(c *gin.Context) {
	var q dto.TransactionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	acc, ok := h.ownedAccount(c)
	if !ok {
		return
	}

	records := acc.History(0)
	if q.Kind != "" {
		kind := domain.TransactionKind(q.Kind)
		filtered := records[:0]
		for _, r := range records {
			if r.Kind == kind {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}
	if !q.From.IsZero() || !q.To.IsZero() {
		to := q.To
		if to.IsZero() {
			to = endOfTime
		}
		records = domain.FilterBetween(records, q.From, to)
	}
	if q.Limit > 0 && q.Limit < len(records) {
		records = records[:q.Limit]
	}

	response.OK(c, dto.NewTransactionListResponse(records))
}

// Deposit handles POST /api/v1/accounts/:id/deposit.
func (h *AccountHandler) Deposit(c *gin.Context) {
	acc, ok := h.ownedAccount(c)
	if !ok {
		return
	}
	amount, description, ok := bindAmount(c)
	if !ok {
		return
	}

	rec, err := h.ledger.Deposit(acc.ID(), amount, description)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewTransactionResponse(rec))
}

// Withdraw handles POST /api/v1/accounts/:id/withdraw.
func (h *AccountHandler) Withdraw(c *gin.Context) {
	acc, ok := h.ownedAccount(c)
	if !ok {
		return
	}
	amount, description, ok := bindAmount(c)
	if !ok {
		return
	}

	rec, err := h.ledger.Withdraw(acc.ID(), amount, description)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewTransactionResponse(rec))
}

// Transfer handles POST /api/v1/accounts/:id/transfer. The target may belong
// to any client.
func (h *AccountHandler) Transfer(c *gin.Context) {
	acc, ok := h.ownedAccount(c)
	if !ok {
		return
	}

	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)
	amount, err := dto.ParseAmount(req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	out, in, err := h.ledger.Transfer(acc.ID(), req.TargetAccountID, amount, req.Description)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.TransferResponse{
		Out: dto.NewTransactionResponse(out),
		In:  dto.NewTransactionResponse(in),
	})
}

// Block handles POST /api/v1/accounts/:id/block.
func (h *AccountHandler) Block(c *gin.Context) {
	h.changeState(c, h.ledger.BlockAccount)
}

// Activate handles POST /api/v1/accounts/:id/activate.
func (h *AccountHandler) Activate(c *gin.Context) {
	h.changeState(c, h.ledger.ActivateAccount)
}

// Close handles POST /api/v1/accounts/:id/close.
func (h *AccountHandler) Close(c *gin.Context) {
	h.changeState(c, h.ledger.CloseAccount)
}

func (h *AccountHandler) changeState(c *gin.Context, apply func(accountID string) error) {
	acc, ok := h.ownedAccount(c)
	if !ok {
		return
	}
	if err := apply(acc.ID()); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewAccountResponse(acc))
}

// ownedAccount resolves the :id account of the authenticated client.
// Accounts of other clients are reported as not found.
func (h *AccountHandler) ownedAccount(c *gin.Context) (*domain.Account, bool) {
	id := c.Param("id")
	acc := h.ledger.FindAccount(id)
	if acc == nil || acc.OwnerID() != middleware.ClientID(c) {
		response.Error(c, apperror.ErrAccountNotFound(id))
		return nil, false
	}
	return acc, true
}

func bindAmount(c *gin.Context) (decimal.Decimal, string, bool) {
	var req dto.AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return decimal.Zero, "", false
	}
	dto.SanitizeStruct(&req)

	amount, err := dto.ParseAmount(req.Amount)
	if err != nil {
		response.Error(c, err)
		return decimal.Zero, "", false
	}
	return amount, req.Description, true
}
