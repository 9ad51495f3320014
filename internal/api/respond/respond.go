// Package respond writes the JSON envelope every endpoint shares.
package respond

import (
	"net/http"

	"gallery-api/internal/apperr"
	"gallery-api/internal/domain/access"
	"gallery-api/internal/logging"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	ActorKey  = "actor"
	LoggerKey = "logger"
)

var production bool

// SetProduction hides the message of unexpected errors from clients.
func SetProduction(p bool) { production = p }

func OK(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"status": "success", "data": data})
}

// List writes a collection; results is the number of items returned.
func List(c *gin.Context, key string, items any, results int) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"results": results,
		"data":    gin.H{key: items},
	})
}

func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error maps err onto a status and the fail/error envelope.
func Error(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := apperr.Status(kind)

	log := Logger(c)
	fields := logrus.Fields{"kind": string(kind), "status": status}
	if status >= http.StatusInternalServerError {
		logging.Error(log, "request failed", err, fields)
	} else {
		log.WithFields(fields).WithError(err).Warn("request rejected")
	}

	body := gin.H{"status": "fail", "message": apperr.Message(err)}
	if status >= http.StatusInternalServerError {
		body["status"] = "error"
		if production && !apperr.Operational(err) {
			body["message"] = "Something went very wrong!"
		}
	}
	c.AbortWithStatusJSON(status, body)
}

// Logger returns the request scoped logger, or the standard logger.
func Logger(c *gin.Context) logrus.FieldLogger {
	if v, ok := c.Get(LoggerKey); ok {
		if l, ok := v.(logrus.FieldLogger); ok {
			return l
		}
	}
	return logrus.StandardLogger()
}

// Actor returns the authenticated caller, or a zero Actor.
func Actor(c *gin.Context) access.Actor {
	if v, ok := c.Get(ActorKey); ok {
		if a, ok := v.(access.Actor); ok {
			return a
		}
	}
	return access.Actor{}
}

// MustActor writes 401 and returns false when nobody is logged in.
func MustActor(c *gin.Context) (access.Actor, bool) {
	a := Actor(c)
	if !a.Authenticated() {
		Error(c, access.ErrNotLoggedIn)
		return a, false
	}
	return a, true
}
