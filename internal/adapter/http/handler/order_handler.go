package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"boostgate/internal/adapter/http/dto"
	"boostgate/internal/adapter/http/middleware"
	"boostgate/internal/core/ports"
	"boostgate/pkg/apperror"
	"boostgate/pkg/response"
)

// OrderHandler serves order placement and the post-placement lifecycle.
type OrderHandler struct {
	settlement ports.SettlementService
	orders     ports.OrderService
}

func NewOrderHandler(settlement ports.SettlementService, orders ports.OrderService) *OrderHandler {
	return &OrderHandler{settlement: settlement, orders: orders}
}

func (h *OrderHandler) Place(c *gin.Context) {
	var req dto.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation("provider, service_id, link, quantity and reference_id are required"))
		return
	}
	if !dto.ValidateLink(req.Link) {
		response.Error(c, apperror.Validation("link must be an absolute http(s) URL"))
		return
	}

	cmd := ports.PlaceOrderCommand{
		UserID:      middleware.UserID(c),
		Provider:    req.Provider,
		ServiceID:   req.ServiceID,
		Link:        req.Link,
		Quantity:    req.Quantity,
		ReferenceID: req.ReferenceID,
	}
	if req.Dripfeed != nil {
		cmd.Dripfeed = &ports.DripfeedParams{
			Runs:     req.Dripfeed.Runs,
			Interval: req.Dripfeed.Interval,
		}
	}

	order, err := h.settlement.PlaceOrder(c.Request.Context(), cmd)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, order)
}

func (h *OrderHandler) List(c *gin.Context) {
	page, pageSize := dto.Pagination(c)
	orders, total, err := h.orders.List(c.Request.Context(), middleware.UserID(c), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewListResponse(orders, total, page))
}

func (h *OrderHandler) Get(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid order id"))
		return
	}
	order, err := h.orders.Get(c.Request.Context(), middleware.UserID(c), orderID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, order)
}

func (h *OrderHandler) Sync(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid order id"))
		return
	}
	order, err := h.orders.SyncStatus(c.Request.Context(), middleware.UserID(c), orderID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, order)
}

func (h *OrderHandler) Refill(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid order id"))
		return
	}
	refillID, err := h.orders.Refill(c.Request.Context(), middleware.UserID(c), orderID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"refill_id": refillID})
}

func (h *OrderHandler) Cancel(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid order id"))
		return
	}
	order, err := h.orders.Cancel(c.Request.Context(), middleware.UserID(c), orderID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, order)
}
