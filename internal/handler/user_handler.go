package handler

import (
	"Jazz_Forum/internal/middleware"
	"Jazz_Forum/internal/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	svc *service.UserService
}

// RegisterReq 注册请求体
type RegisterReq struct {
	Username    string `json:"username" binding:"required"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
}

type LoginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ChangeRoleReq struct {
	Role string `json:"role" binding:"required"`
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// Register 注册接口
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	user, err := h.svc.Register(c.Request.Context(), req.Username, req.DisplayName, req.Password, req.Email)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"user": user})
}

// Login 登录接口
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	pair, user, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"accessToken": pair.AccessToken, "refreshToken": pair.RefreshToken, "user": user})
}

func (h *UserHandler) Logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), middleware.ActorFrom(c).ID); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.svc.Me(c.Request.Context(), middleware.ActorFrom(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"user": user})
}

// TokenRefresh 利用refresh来更新access
func (h *UserHandler) TokenRefresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	pair, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"accessToken": pair.AccessToken, "refreshToken": pair.RefreshToken})
}

// ChangeRole PATCH /api/admin/users/:id/role
func (h *UserHandler) ChangeRole(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	var req ChangeRoleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "role is required")
		return
	}
	if err := h.svc.ChangeRole(c.Request.Context(), middleware.ActorFrom(c), id, req.Role); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}
