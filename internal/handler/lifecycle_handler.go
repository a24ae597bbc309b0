package handler

import (
	"strconv"

	"Jazz_Forum/internal/lifecycle"
	"Jazz_Forum/internal/middleware"
	"Jazz_Forum/internal/service"

	"github.com/gin-gonic/gin"
)

type LifecycleHandler struct {
	svc *service.LifecycleService
}

func NewLifecycleHandler(svc *service.LifecycleService) *LifecycleHandler {
	return &LifecycleHandler{svc: svc}
}

// RestoreReq id 在请求体中是字符串
type RestoreReq struct {
	Type string `json:"type" binding:"required"`
	ID   string `json:"id" binding:"required"`
}

// ListDeleted GET /api/admin/deleted
func (h *LifecycleHandler) ListDeleted(c *gin.Context) {
	items, err := h.svc.ListDeleted(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{
		"workingGroups": items.WorkingGroups,
		"threads":       items.Threads,
		"posts":         items.Posts,
	})
}

// Restore POST /api/admin/restore
func (h *LifecycleHandler) Restore(c *gin.Context) {
	var req RestoreReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "type and id are required")
		return
	}
	kind, err := lifecycle.ParseKind(req.Type)
	if err != nil {
		fail(c, err)
		return
	}
	id, err := strconv.ParseUint(req.ID, 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid id")
		return
	}
	if err = h.svc.Restore(c.Request.Context(), kind, id, middleware.ActorFrom(c)); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

// softDelete 各实体 DELETE 接口共用
func (h *LifecycleHandler) softDelete(kind lifecycle.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := paramID(c, "id")
		if !valid {
			return
		}
		st, err := h.svc.SoftDelete(c.Request.Context(), kind, id, middleware.ActorFrom(c))
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, gin.H{
			"id":        st.ID,
			"deleted":   st.Deleted,
			"deletedAt": st.DeletedAt,
			"deletedBy": st.DeletedBy,
		})
	}
}

func (h *LifecycleHandler) DeleteWorkingGroup() gin.HandlerFunc {
	return h.softDelete(lifecycle.KindWorkingGroup)
}

func (h *LifecycleHandler) DeleteThread() gin.HandlerFunc {
	return h.softDelete(lifecycle.KindThread)
}

func (h *LifecycleHandler) DeletePost() gin.HandlerFunc {
	return h.softDelete(lifecycle.KindPost)
}
