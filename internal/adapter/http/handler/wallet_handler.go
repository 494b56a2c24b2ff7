package handler

import (
	"github.com/gin-gonic/gin"

	"boostgate/internal/adapter/http/dto"
	"boostgate/internal/adapter/http/middleware"
	"boostgate/internal/core/ports"
	"boostgate/pkg/response"
)

// WalletHandler serves balance and ledger reads.
type WalletHandler struct {
	wallet ports.WalletService
}

func NewWalletHandler(wallet ports.WalletService) *WalletHandler {
	return &WalletHandler{wallet: wallet}
}

func (h *WalletHandler) Balance(c *gin.Context) {
	balance, err := h.wallet.Balance(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"balance": dto.Money(balance)})
}

func (h *WalletHandler) Transactions(c *gin.Context) {
	page, pageSize := dto.Pagination(c)
	txns, total, err := h.wallet.Transactions(c.Request.Context(), middleware.UserID(c), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewListResponse(txns, total, page))
}
