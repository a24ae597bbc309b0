package handler

import (
	"Jazz_Forum/internal/middleware"
	"Jazz_Forum/internal/service"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	svc *service.PostService
}

type CreatePostReq struct {
	Content     string   `json:"content" binding:"required"`
	Attachments []string `json:"attachments"`
}

func NewPostHandler(svc *service.PostService) *PostHandler {
	return &PostHandler{svc: svc}
}

// Create POST /api/threads/:id/posts
func (h *PostHandler) Create(c *gin.Context) {
	threadID, valid := paramID(c, "id")
	if !valid {
		return
	}
	var req CreatePostReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	post, err := h.svc.Create(c.Request.Context(), middleware.ActorFrom(c), threadID, req.Content, req.Attachments)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"post": post})
}

func (h *PostHandler) List(c *gin.Context) {
	threadID, valid := paramID(c, "id")
	if !valid {
		return
	}
	page, size := pageQuery(c)
	list, err := h.svc.List(c.Request.Context(), middleware.ActorFrom(c), threadID, page, size)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"list": list, "page": page, "size": size})
}

// Edit PATCH /api/posts/:id
func (h *PostHandler) Edit(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "content is required")
		return
	}
	post, err := h.svc.Edit(c.Request.Context(), middleware.ActorFrom(c), id, req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"post": post})
}
