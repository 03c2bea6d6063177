// Package middleware carries the gin middleware chain for the daemon's
// HTTP API, grounded on the teacher's api/middleware package (auth.go,
// ratelimit.go): one file per concern, each a constructor returning a
// gin.HandlerFunc closed over its dependency.
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/use-agent/ccbrowser/ccerrors"
	"github.com/use-agent/ccbrowser/daemon"
	"github.com/use-agent/ccbrowser/models"
)

// RequireActiveSession rejects every verb with NoActiveSession while no
// browser session is active (spec.md §8 "Active session invariant": verbs
// other than start/status/browsers/profiles fail while no session is
// active). Those routes, plus /stop, are registered outside the group
// this middleware is attached to, the way the teacher keeps /health
// outside its Auth group.
func RequireActiveSession(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !d.Status().Active {
			c.AbortWithStatusJSON(409, models.Envelope{
				Success: false,
				Error: &models.Detail{
					Code:    ccerrors.CodeNoActiveSession,
					Message: "no active browser session; call /start first",
				},
			})
			return
		}
		c.Next()
	}
}
