package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"boostgate/internal/adapter/http/dto"
	"boostgate/internal/core/ports"
	"boostgate/pkg/apperror"
	"boostgate/pkg/response"
)

// AdminHandler serves platform settings, user management and deposit review.
type AdminHandler struct {
	admin    ports.AdminService
	deposits ports.DepositService
}

func NewAdminHandler(admin ports.AdminService, deposits ports.DepositService) *AdminHandler {
	return &AdminHandler{admin: admin, deposits: deposits}
}

func (h *AdminHandler) Settings(c *gin.Context) {
	settings, err := h.admin.Settings(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"settings": settings})
}

func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var req dto.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation("settings map is required"))
		return
	}
	if err := h.admin.UpdateSettings(c.Request.Context(), req.Settings); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"updated": len(req.Settings)})
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, pageSize := dto.Pagination(c)
	users, total, err := h.admin.ListUsers(c.Request.Context(), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	out := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, dto.NewUserResponse(&users[i]))
	}
	response.OK(c, dto.NewListResponse(out, total, page))
}

func (h *AdminHandler) SetBanned(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid user id"))
		return
	}
	var req dto.BanRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Banned == nil {
		response.Error(c, apperror.Validation("banned flag is required"))
		return
	}
	if err := h.admin.SetUserBanned(c.Request.Context(), userID, *req.Banned); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"user_id": userID, "banned": *req.Banned})
}

func (h *AdminHandler) PendingDeposits(c *gin.Context) {
	deposits, err := h.admin.PendingDeposits(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"deposits": deposits})
}

func (h *AdminHandler) ApproveDeposit(c *gin.Context) {
	depositID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid deposit id"))
		return
	}
	dep, err := h.deposits.Approve(c.Request.Context(), depositID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dep)
}

func (h *AdminHandler) RejectDeposit(c *gin.Context) {
	depositID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid deposit id"))
		return
	}
	dep, err := h.deposits.Reject(c.Request.Context(), depositID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dep)
}

func (h *AdminHandler) ProviderBalances(c *gin.Context) {
	balances, err := h.admin.ProviderBalances(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"balances": balances})
}
