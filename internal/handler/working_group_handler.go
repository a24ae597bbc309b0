package handler

import (
	"strconv"

	"Jazz_Forum/internal/middleware"
	"Jazz_Forum/internal/service"

	"github.com/gin-gonic/gin"
)

type WorkingGroupHandler struct {
	svc *service.WorkingGroupService
}

type CreateWorkingGroupReq struct {
	Name          string `json:"name" binding:"required"`
	Description   string `json:"description"`
	IsPrivate     bool   `json:"isPrivate"`
	CoordinatorID uint64 `json:"coordinatorId"`
}

func NewWorkingGroupHandler(svc *service.WorkingGroupService) *WorkingGroupHandler {
	return &WorkingGroupHandler{svc: svc}
}

func (h *WorkingGroupHandler) Create(c *gin.Context) {
	var req CreateWorkingGroupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	g, err := h.svc.Create(c.Request.Context(), middleware.ActorFrom(c), service.CreateWorkingGroupInput{
		Name:          req.Name,
		Description:   req.Description,
		IsPrivate:     req.IsPrivate,
		CoordinatorID: req.CoordinatorID,
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"workingGroup": g})
}

func (h *WorkingGroupHandler) List(c *gin.Context) {
	page, size := pageQuery(c)
	list, err := h.svc.List(c.Request.Context(), page, size)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"list": list, "page": page, "size": size})
}

func (h *WorkingGroupHandler) Get(c *gin.Context) {
	g, err := h.svc.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"workingGroup": g})
}

func (h *WorkingGroupHandler) Join(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	if err := h.svc.Join(c.Request.Context(), middleware.ActorFrom(c), id); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

func (h *WorkingGroupHandler) Leave(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	if err := h.svc.Leave(c.Request.Context(), middleware.ActorFrom(c), id); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

// BySlug 按 :slug 找到未删除的工作组，把 id 交给后续按 id 处理的接口
func (h *WorkingGroupHandler) BySlug(c *gin.Context) {
	g, err := h.svc.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Params = append(c.Params, gin.Param{Key: "id", Value: strconv.FormatUint(g.ID, 10)})
	c.Next()
}
