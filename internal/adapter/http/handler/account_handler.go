package handler

import (
	"money-transfer/internal/adapter/http/dto"
	"money-transfer/internal/adapter/http/middleware"
	"money-transfer/internal/core/ports"
	"money-transfer/pkg/apperror"
	"money-transfer/pkg/response"

	"github.com/gin-gonic/gin"
)

// AccountHandler handles account administration endpoints.
type AccountHandler struct {
	accountSvc ports.AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountSvc ports.AccountService) *AccountHandler {
	return &AccountHandler{accountSvc: accountSvc}
}

// List handles GET /api/accounts.
func (h *AccountHandler) List(c *gin.Context) {
	accounts, err := h.accountSvc.ListAccounts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToAccountResponses(accounts))
}

// Get handles GET /api/accounts/:id.
func (h *AccountHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	account, err := h.accountSvc.GetAccount(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToAccountResponse(account))
}

// Create handles POST /api/accounts.
func (h *AccountHandler) Create(c *gin.Context) {
	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	account, err := h.accountSvc.CreateAccount(c.Request.Context(), ports.CreateAccountRequest{
		OwnerName: req.Name,
		Balance:   *req.Balance,
		Currency:  req.Currency,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxResourceID, account.ID)
	response.Created(c, dto.ToAccountResponse(account))
}

// Update handles PUT and PATCH /api/accounts/:id. Both are partial updates.
func (h *AccountHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	account, err := h.accountSvc.UpdateAccount(c.Request.Context(), id, ports.UpdateAccountRequest{
		OwnerName: req.Name,
		Balance:   req.Balance,
		Currency:  req.Currency,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToAccountResponse(account))
}

// Delete handles DELETE /api/accounts/:id.
func (h *AccountHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.accountSvc.DeleteAccount(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
