package users

import (
	"net/http"

	"gallery-api/internal/api/auth"
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

// GET /users/me
func (h *Handler) GetMe(c *gin.Context) {
	actor, ok := respond.MustActor(c)
	if !ok {
		return
	}
	profile, err := h.svc.GetProfile(c.Request.Context(), actor, actor.ID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, profile)
}

// PATCH /users/updateMe
func (h *Handler) UpdateMe(c *gin.Context) {
	actor, ok := respond.MustActor(c)
	if !ok {
		return
	}
	body, err := respond.BindMap(c)
	if err != nil {
		respond.Error(c, err)
		return
	}
	u, err := h.svc.UpdateMe(c.Request.Context(), actor, body)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, gin.H{"user": ToUserDTO(u)})
}

// DELETE /users/deleteMe
func (h *Handler) DeleteMe(c *gin.Context) {
	actor, ok := respond.MustActor(c)
	if !ok {
		return
	}
	if err := h.svc.Deactivate(c.Request.Context(), actor); err != nil {
		respond.Error(c, err)
		return
	}
	respond.NoContent(c)
}

// GET /users
func (h *Handler) List(c *gin.Context) {
	list, fields, err := h.svc.ListAll(c.Request.Context(), respond.Actor(c), c.Request.URL.Query())
	if err != nil {
		respond.Error(c, err)
		return
	}
	out, err := query.Project(list, fields)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.List(c, "users", out, len(list))
}

// GET /users/:id
func (h *Handler) Get(c *gin.Context) {
	id, err := ParseID(c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	u, err := h.svc.Get(c.Request.Context(), respond.Actor(c), id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, gin.H{"user": toAdminUserDTO(u)})
}

// PATCH /users/:id
func (h *Handler) Update(c *gin.Context) {
	id, err := ParseID(c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	body, err := respond.BindMap(c)
	if err != nil {
		respond.Error(c, err)
		return
	}
	u, err := h.svc.AdminUpdate(c.Request.Context(), respond.Actor(c), id, body)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, gin.H{"user": toAdminUserDTO(u)})
}

// DELETE /users/:id
func (h *Handler) Delete(c *gin.Context) {
	id, err := ParseID(c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	if err := h.svc.AdminDelete(c.Request.Context(), respond.Actor(c), id); err != nil {
		respond.Error(c, err)
		return
	}
	respond.NoContent(c)
}

// PATCH /admin/users/role
func (h *Handler) ChangeRole(c *gin.Context) {
	var in struct {
		UserID uint   `json:"user_id" binding:"required"`
		Role   string `json:"role" binding:"required"`
	}
	if err := respond.Bind(c, &in); err != nil {
		respond.Error(c, err)
		return
	}
	u, err := h.svc.ChangeRole(c.Request.Context(), respond.Actor(c), in.UserID, in.Role)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, gin.H{"user": toAdminUserDTO(u)})
}

// ---- password lifecycle

// POST /users/forgotPassword
func (h *Handler) ForgotPassword(c *gin.Context) {
	var in struct {
		Email string `json:"email"`
	}
	if err := respond.Bind(c, &in); err != nil {
		respond.Error(c, err)
		return
	}
	if err := h.svc.ForgotPassword(c.Request.Context(), in.Email); err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Token sent to email!"})
}

// PATCH /users/resetPassword/:token
func (h *Handler) ResetPassword(c *gin.Context) {
	var in struct {
		Password        string `json:"password"`
		PasswordConfirm string `json:"password_confirm"`
	}
	if err := respond.Bind(c, &in); err != nil {
		respond.Error(c, err)
		return
	}
	u, token, err := h.svc.ResetPassword(c.Request.Context(), c.Param("token"), in.Password, in.PasswordConfirm)
	if err != nil {
		respond.Error(c, err)
		return
	}
	auth.SendToken(c, http.StatusOK, u, token)
}

// PATCH /users/updateMyPassword
func (h *Handler) UpdateMyPassword(c *gin.Context) {
	actor, ok := respond.MustActor(c)
	if !ok {
		return
	}
	var in struct {
		PasswordCurrent string `json:"password_current" binding:"required"`
		Password        string `json:"password" binding:"required"`
		PasswordConfirm string `json:"password_confirm" binding:"required"`
	}
	if err := respond.Bind(c, &in); err != nil {
		respond.Error(c, err)
		return
	}
	u, token, err := h.svc.ChangePassword(c.Request.Context(), actor, in.PasswordCurrent, in.Password, in.PasswordConfirm)
	if err != nil {
		respond.Error(c, err)
		return
	}
	auth.SendToken(c, http.StatusOK, u, token)
}
