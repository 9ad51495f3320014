package artworks

import (
	"io"
	"net/http"
	"strconv"

	"gallery-api/internal/api/respond"
	"gallery-api/internal/apperr"
	"gallery-api/internal/domain/media"
	"gallery-api/internal/domain/query"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// GET /artworks
func (h *Handler) List(c *gin.Context) {
	list, fields, err := h.svc.List(c.Request.Context(), c.Request.URL.Query())
	h.writeList(c, list, fields, err)
}

// GET /artworks/search/:query
func (h *Handler) Search(c *gin.Context) {
	list, fields, err := h.svc.Search(c.Request.Context(), c.Param("query"), c.Request.URL.Query())
	h.writeList(c, list, fields, err)
}

// GET /artworks/artist/:artistId
func (h *Handler) ListByArtist(c *gin.Context) {
	artistID, err := strconv.ParseUint(c.Param("artistId"), 10, 64)
	if err != nil || artistID == 0 {
		respond.Error(c, apperr.New(apperr.InvalidInput, "Invalid artist ID"))
		return
	}
	list, fields, err := h.svc.ListByArtist(c.Request.Context(), uint(artistID), c.Request.URL.Query())
	h.writeList(c, list, fields, err)
}

// GET /users/me/favorites
func (h *Handler) Favorites(c *gin.Context) {
	actor, ok := respond.MustActor(c)
	if !ok {
		return
	}
	list, fields, err := h.svc.ListFavorites(c.Request.Context(), actor, c.Request.URL.Query())
	h.writeList(c, list, fields, err)
}

func (h *Handler) writeList(c *gin.Context, list []ArtworkDTO, fields []string, err error) {
	if err != nil {
		respond.Error(c, err)
		return
	}
	out, err := query.Project(list, fields)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.List(c, "artworks", out, len(list))
}

// GET /artworks/:id
func (h *Handler) Get(c *gin.Context) {
	a, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, gin.H{"artwork": a})
}

// POST /artworks
func (h *Handler) Create(c *gin.Context) {
	actor, ok := respond.MustActor(c)
	if !ok {
		return
	}
	var req CreateArtworkRequest
	if err := respond.Bind(c, &req); err != nil {
		respond.Error(c, err)
		return
	}
	a, err := h.svc.Create(c.Request.Context(), actor, req)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusCreated, gin.H{"artwork": a})
}

// PATCH /artworks/:id
func (h *Handler) Update(c *gin.Context) {
	actor, ok := respond.MustActor(c)
	if !ok {
		return
	}
	var req UpdateArtworkRequest
	if err := respond.Bind(c, &req); err != nil {
		respond.Error(c, err)
		return
	}
	a, err := h.svc.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, gin.H{"artwork": a})
}

// DELETE /artworks/:id
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

// PATCH /artworks/:id/image (multipart, field "image")
func (h *Handler) UploadImage(c *gin.Context) {
	actor, ok := respond.MustActor(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, media.MaxImageBytes+1<<20)
	fh, err := c.FormFile("image")
	if err != nil {
		respond.Error(c, apperr.New(apperr.InvalidInput, "Please upload an image in the \"image\" field"))
		return
	}
	if fh.Size > media.MaxImageBytes {
		respond.Error(c, apperr.New(apperr.InvalidInput, "image is too large"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		respond.Error(c, apperr.Wrap(apperr.InvalidInput, "Could not read the uploaded image", err))
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, media.MaxImageBytes+1))
	if err != nil {
		respond.Error(c, apperr.Wrap(apperr.InvalidInput, "Could not read the uploaded image", err))
		return
	}

	a, err := h.svc.UploadImage(c.Request.Context(), actor, c.Param("id"), data)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, gin.H{"artwork": a})
}

// PATCH /artworks/:id/like
func (h *Handler) Like(c *gin.Context) {
	h.toggleLike(c, true)
}

// PATCH /artworks/:id/unlike
func (h *Handler) Unlike(c *gin.Context) {
	h.toggleLike(c, false)
}

func (h *Handler) toggleLike(c *gin.Context, like bool) {
	actor, ok := respond.MustActor(c)
	if !ok {
		return
	}
	var (
		count int
		err   error
	)
	if like {
		count, err = h.svc.Like(c.Request.Context(), actor, c.Param("id"))
	} else {
		count, err = h.svc.Unlike(c.Request.Context(), actor, c.Param("id"))
	}
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, gin.H{"likes_count": count})
}
