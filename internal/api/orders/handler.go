package orders

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

// POST /orders/checkout-session/:artworkId
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	actor, ok := respond.MustActor(c)
	if !ok {
		return
	}
	var in CheckoutInput
	if c.Request.ContentLength != 0 {
		if err := respond.Bind(c, &in); err != nil {
			respond.Error(c, err)
			return
		}
	}
	res, err := h.svc.CreateCheckoutSession(c.Request.Context(), actor, c.Param("artworkId"), in)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, gin.H{"session": res})
}

// GET /orders/my-orders
func (h *Handler) ListMine(c *gin.Context) {
	actor, ok := respond.MustActor(c)
	if !ok {
		return
	}
	list, fields, err := h.svc.ListMine(c.Request.Context(), actor, c.Request.URL.Query())
	h.writeList(c, list, fields, err)
}

// GET /orders
func (h *Handler) ListAll(c *gin.Context) {
	list, fields, err := h.svc.ListAll(c.Request.Context(), respond.Actor(c), c.Request.URL.Query())
	h.writeList(c, list, fields, err)
}

func (h *Handler) writeList(c *gin.Context, list []OrderDTO, fields []string, err error) {
	if err != nil {
		respond.Error(c, err)
		return
	}
	out, err := query.Project(list, fields)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.List(c, "orders", out, len(list))
}

// GET /orders/:id
func (h *Handler) Get(c *gin.Context) {
	actor, ok := respond.MustActor(c)
	if !ok {
		return
	}
	o, err := h.svc.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, gin.H{"order": o})
}

// PATCH /orders/:id
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := respond.Bind(c, &req); err != nil {
		respond.Error(c, err)
		return
	}
	o, err := h.svc.UpdateStatus(c.Request.Context(), respond.Actor(c), c.Param("id"), req.Status)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, gin.H{"order": o})
}
