package handler

import (
	"github.com/gin-gonic/gin"

	"boostgate/internal/adapter/http/dto"
	"boostgate/internal/adapter/http/middleware"
	"boostgate/internal/core/ports"
	"boostgate/pkg/apperror"
	"boostgate/pkg/response"
)

// DepositHandler serves wallet funding requests.
type DepositHandler struct {
	deposits ports.DepositService
}

func NewDepositHandler(deposits ports.DepositService) *DepositHandler {
	return &DepositHandler{deposits: deposits}
}

func (h *DepositHandler) Initiate(c *gin.Context) {
	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation("amount and method are required"))
		return
	}

	instr, err := h.deposits.Initiate(c.Request.Context(), middleware.UserID(c), req.Amount, req.Method, req.TxRef)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewDepositInstructionsResponse(instr))
}

func (h *DepositHandler) List(c *gin.Context) {
	deposits, err := h.deposits.ListOwn(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"deposits": deposits})
}
