package handler

import (
	"strconv"

	"Jazz_Forum/internal/middleware"
	"Jazz_Forum/internal/service"

	"github.com/gin-gonic/gin"
)

type ThreadHandler struct {
	svc *service.ThreadService
}

type CreateThreadReq struct {
	Title           string   `json:"title" binding:"required"`
	WorkingGroupIDs []uint64 `json:"workingGroupIds"`
	Tags            []string `json:"tags"`
}

func NewThreadHandler(svc *service.ThreadService) *ThreadHandler {
	return &ThreadHandler{svc: svc}
}

func (h *ThreadHandler) Create(c *gin.Context) {
	var req CreateThreadReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	t, err := h.svc.Create(c.Request.Context(), middleware.ActorFrom(c), service.CreateThreadInput{
		Title:           req.Title,
		WorkingGroupIDs: req.WorkingGroupIDs,
		Tags:            req.Tags,
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"thread": t})
}

// List ?working_group_id=&page=&size=
func (h *ThreadHandler) List(c *gin.Context) {
	var groupID uint64
	if v := c.Query("working_group_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			badRequest(c, "invalid working_group_id")
			return
		}
		groupID = id
	}
	page, size := pageQuery(c)
	list, err := h.svc.List(c.Request.Context(), middleware.ActorFrom(c), groupID, page, size)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"list": list, "page": page, "size": size})
}

func (h *ThreadHandler) Get(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	t, err := h.svc.Get(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"thread": t})
}

func (h *ThreadHandler) UpdateStatus(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required")
		return
	}
	if err := h.svc.UpdateStatus(c.Request.Context(), middleware.ActorFrom(c), id, req.Status); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

func (h *ThreadHandler) SetPinned(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	var req struct {
		Pinned bool `json:"pinned"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	if err := h.svc.SetPinned(c.Request.Context(), middleware.ActorFrom(c), id, req.Pinned); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}
