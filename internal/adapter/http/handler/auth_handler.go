package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"boostgate/internal/adapter/http/dto"
	"boostgate/internal/adapter/http/middleware"
	"boostgate/internal/core/ports"
	"boostgate/pkg/apperror"
	"boostgate/pkg/response"
)

// AuthHandler serves registration, login and session introspection.
type AuthHandler struct {
	auth ports.AuthService
}

func NewAuthHandler(auth ports.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation("email and password are required"))
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewUserResponse(user))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation("email and password are required"))
		return
	}

	token, expiresAt, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), middleware.TokenID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"logged_out": true})
}

// Me returns the current session with a freshly read balance.
func (h *AuthHandler) Me(c *gin.Context) {
	session, err := h.auth.CurrentUser(c.Request.Context(), middleware.TokenID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.SessionResponse{
		UserID:  session.UserID.String(),
		Email:   session.Email,
		IsAdmin: session.IsAdmin,
		Balance: dto.Money(session.Balance),
	})
}
