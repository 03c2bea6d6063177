package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/ccbrowser/daemon"
	"github.com/use-agent/ccbrowser/models"
)

// Replay returns the handler for POST /replay (spec.md §4.9).
func Replay(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ReplayRequest
		if !bind(c, &req) {
			return
		}
		resp, err := d.Replay(c.Request.Context(), &req)
		if err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, resp)
	}
}
