package auth

import (
	"net/http"

	"gallery-api/internal/api/respond"
	"gallery-api/internal/domain/users"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// SendToken writes the token together with the user it was issued for.
func SendToken(c *gin.Context, status int, user users.User, token string) {
	c.JSON(status, gin.H{
		"status": "success",
		"token":  token,
		"data":   gin.H{"user": user},
	})
}

// POST /users/signup
func (h *Handler) Signup(c *gin.Context) {
	var in SignupInput
	if err := respond.Bind(c, &in); err != nil {
		respond.Error(c, err)
		return
	}
	user, token, err := h.svc.Signup(c.Request.Context(), in)
	if err != nil {
		respond.Error(c, err)
		return
	}
	SendToken(c, http.StatusCreated, user, token)
}

// POST /users/login
func (h *Handler) Login(c *gin.Context) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := respond.Bind(c, &in); err != nil {
		respond.Error(c, err)
		return
	}
	user, token, err := h.svc.Login(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		respond.Error(c, err)
		return
	}
	SendToken(c, http.StatusOK, user, token)
}

// LoggedOutCookie replaces the session cookie on logout. The auth
// middleware treats it as no token at all.
const LoggedOutCookie = "loggedout"

// GET /auth/logout
//
// Bearer clients drop the token themselves; a cookie session is overwritten
// with a short-lived sentinel.
func (h *Handler) Logout(c *gin.Context) {
	secure := c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https"
	c.SetCookie("jwt", LoggedOutCookie, 10, "/", "", secure, true)
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
