package handler

import (
	"strings"

	"money-transfer/internal/adapter/http/dto"
	"money-transfer/internal/adapter/http/middleware"
	"money-transfer/internal/core/ports"
	"money-transfer/pkg/apperror"
	"money-transfer/pkg/response"

	"github.com/gin-gonic/gin"
)

// TransferHandler handles transfer endpoints.
type TransferHandler struct {
	transferSvc ports.TransferService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferSvc ports.TransferService) *TransferHandler {
	return &TransferHandler{transferSvc: transferSvc}
}

// List handles GET /api/transfers.
func (h *TransferHandler) List(c *gin.Context) {
	transfers, err := h.transferSvc.ListTransfers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToTransferResponses(transfers))
}

// Get handles GET /api/transfers/:id.
func (h *TransferHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	transfer, err := h.transferSvc.GetTransfer(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToTransferResponse(transfer))
}

// Create handles POST /api/transfers. An optional Idempotency-Key header
// makes retries return the transfer created by the first request.
func (h *TransferHandler) Create(c *gin.Context) {
	var req dto.CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	key := strings.TrimSpace(c.GetHeader(middleware.HeaderIdempotencyKey))
	if key != "" && !dto.ValidIdempotencyKey(key) {
		response.Error(c, apperror.Validation("invalid Idempotency-Key header"))
		return
	}

	transfer, err := h.transferSvc.CreateTransfer(c.Request.Context(), ports.CreateTransferRequest{
		FromAccountID:  req.FromAccountID,
		ToAccountID:    req.ToAccountID,
		Amount:         *req.Amount,
		Currency:       req.Currency,
		Comment:        req.Comment,
		IdempotencyKey: key,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxResourceID, transfer.ID)
	response.Created(c, dto.ToTransferResponse(transfer))
}

// Settle handles PUT /api/transfers/:id and POST /api/transfers/:id/settle.
// A FAILED outcome is still a 200; the reason is in failure_reason.
func (h *TransferHandler) Settle(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	transfer, err := h.transferSvc.SettleTransfer(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToTransferResponse(transfer))
}
