package comments

import (
	"net/http"

	"gallery-api/internal/api/respond"
	"gallery-api/internal/domain/query"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// GET /artworks/:id/comments
func (h *Handler) List(c *gin.Context) {
	list, fields, err := h.svc.ListForArtwork(c.Request.Context(), c.Param("id"), c.Request.URL.Query())
	if err != nil {
		respond.Error(c, err)
		return
	}
	out, err := query.Project(list, fields)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.List(c, "comments", out, len(list))
}

// POST /artworks/:id/comments
func (h *Handler) Create(c *gin.Context) {
	actor, ok := respond.MustActor(c)
	if !ok {
		return
	}
	var req CommentRequest
	if err := respond.Bind(c, &req); err != nil {
		respond.Error(c, err)
		return
	}
	comment, err := h.svc.Create(c.Request.Context(), actor, c.Param("id"), req.Text)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusCreated, gin.H{"comment": comment})
}

// GET /comments/:id
func (h *Handler) Get(c *gin.Context) {
	comment, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, gin.H{"comment": comment})
}

// PATCH /comments/:id
func (h *Handler) Update(c *gin.Context) {
	actor, ok := respond.MustActor(c)
	if !ok {
		return
	}
	var req CommentRequest
	if err := respond.Bind(c, &req); err != nil {
		respond.Error(c, err)
		return
	}
	comment, err := h.svc.Update(c.Request.Context(), actor, c.Param("id"), req.Text)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, gin.H{"comment": comment})
}

// DELETE /comments/:id
func (h *Handler) Delete(c *gin.Context) {
	actor, ok := respond.MustActor(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		respond.Error(c, err)
		return
	}
	respond.NoContent(c)
}
