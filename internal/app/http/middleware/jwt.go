package middleware

import (
	"strings"

	"gallery-api/internal/api/auth"
	"gallery-api/internal/api/respond"
	"gallery-api/internal/domain/access"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// tokenFrom reads a Bearer token, falling back to the jwt cookie.
func tokenFrom(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookie, err := c.Cookie("jwt"); err == nil && cookie != auth.LoggedOutCookie {
		return cookie
	}
	return ""
}

func authenticate(c *gin.Context, svc *auth.Service, token string) error {
	claims, err := svc.Tokens.Parse(token)
	if err != nil {
		return err
	}
	user, err := svc.CurrentUser(c.Request.Context(), claims)
	if err != nil {
		return err
	}
	actor := access.ActorFor(user)
	c.Set(respond.ActorKey, actor)
	c.Set("user_id", user.ID)
	c.Set(respond.LoggerKey, respond.Logger(c).WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}))
	return nil
}

// AuthMiddleware rejects requests without a valid token for an active user.
func AuthMiddleware(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFrom(c)
		if token == "" {
			respond.Error(c, access.ErrNotLoggedIn)
			return
		}
		if err := authenticate(c, svc, token); err != nil {
			respond.Error(c, err)
			return
		}
		c.Next()
	}
}

// OptionalAuth sets the actor when a valid token is present and lets
// anonymous requests through otherwise.
func OptionalAuth(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := tokenFrom(c); token != "" {
			_ = authenticate(c, svc, token)
		}
		c.Next()
	}
}

// RequireRole must run after AuthMiddleware.
func RequireRole(roles ...access.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := respond.MustActor(c)
		if !ok {
			return
		}
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		respond.Error(c, access.ErrForbidden)
	}
}
