package galleries

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

// GET /galleries
func (h *Handler) ListGalleries(c *gin.Context) {
	list, fields, err := h.svc.ListGalleries(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		respond.Error(c, err)
		return
	}
	out, err := query.Project(list, fields)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.List(c, "galleries", out, len(list))
}

// GET /galleries/:id
func (h *Handler) GetGallery(c *gin.Context) {
	g, err := h.svc.GetGallery(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, gin.H{"gallery": g})
}

// POST /galleries
func (h *Handler) CreateGallery(c *gin.Context) {
	var req CreateGalleryRequest
	if err := respond.Bind(c, &req); err != nil {
		respond.Error(c, err)
		return
	}
	g, err := h.svc.CreateGallery(c.Request.Context(), respond.Actor(c), req)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusCreated, gin.H{"gallery": g})
}

// PATCH /galleries/:id
func (h *Handler) UpdateGallery(c *gin.Context) {
	var req UpdateGalleryRequest
	if err := respond.Bind(c, &req); err != nil {
		respond.Error(c, err)
		return
	}
	g, err := h.svc.UpdateGallery(c.Request.Context(), respond.Actor(c), c.Param("id"), req)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, gin.H{"gallery": g})
}

// PUT /galleries/:id/artworks
func (h *Handler) SetArtworks(c *gin.Context) {
	var req SetArtworksRequest
	if err := respond.Bind(c, &req); err != nil {
		respond.Error(c, err)
		return
	}
	g, err := h.svc.SetArtworks(c.Request.Context(), respond.Actor(c), c.Param("id"), req.ArtworkIDs)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, gin.H{"gallery": g})
}

// DELETE /galleries/:id
func (h *Handler) DeleteGallery(c *gin.Context) {
	if err := h.svc.DeleteGallery(c.Request.Context(), respond.Actor(c), c.Param("id")); err != nil {
		respond.Error(c, err)
		return
	}
	respond.NoContent(c)
}

// GET /exhibitions
func (h *Handler) ListExhibitions(c *gin.Context) {
	list, fields, err := h.svc.ListExhibitions(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		respond.Error(c, err)
		return
	}
	out, err := query.Project(list, fields)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.List(c, "exhibitions", out, len(list))
}

// GET /exhibitions/:id
func (h *Handler) GetExhibition(c *gin.Context) {
	e, err := h.svc.GetExhibition(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, gin.H{"exhibition": e})
}

// POST /exhibitions
func (h *Handler) CreateExhibition(c *gin.Context) {
	var req CreateExhibitionRequest
	if err := respond.Bind(c, &req); err != nil {
		respond.Error(c, err)
		return
	}
	e, err := h.svc.CreateExhibition(c.Request.Context(), respond.Actor(c), req)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusCreated, gin.H{"exhibition": e})
}

// PATCH /exhibitions/:id
func (h *Handler) UpdateExhibition(c *gin.Context) {
	var req UpdateExhibitionRequest
	if err := respond.Bind(c, &req); err != nil {
		respond.Error(c, err)
		return
	}
	e, err := h.svc.UpdateExhibition(c.Request.Context(), respond.Actor(c), c.Param("id"), req)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, gin.H{"exhibition": e})
}

// DELETE /exhibitions/:id
func (h *Handler) DeleteExhibition(c *gin.Context) {
	if err := h.svc.DeleteExhibition(c.Request.Context(), respond.Actor(c), c.Param("id")); err != nil {
		respond.Error(c, err)
		return
	}
	respond.NoContent(c)
}
