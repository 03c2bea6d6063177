package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/ccbrowser/daemon"
	"github.com/use-agent/ccbrowser/models"
)

// SessionsList returns the handler for GET /sessions.
func SessionsList(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := d.SessionsList()
		if err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, resp)
	}
}

// SessionCreate returns the handler for POST /sessions/create (spec.md §4.7).
func SessionCreate(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SessionCreateRequest
		if !bind(c, &req) {
			return
		}
		resp, err := d.SessionCreate(&req)
		if err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, resp)
	}
}

// SessionHeartbeat returns the handler for POST /sessions/heartbeat.
func SessionHeartbeat(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SessionIDRequest
		if !bind(c, &req) {
			return
		}
		if err := d.SessionHeartbeat(&req); err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, nil)
	}
}

// SessionClose returns the handler for POST /sessions/close.
func SessionClose(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SessionIDRequest
		if !bind(c, &req) {
			return
		}
		if err := d.SessionClose(&req); err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, nil)
	}
}

// SessionsPrune returns the handler for POST /sessions/prune (spec.md §8
// "session TTL monotonicity").
func SessionsPrune(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := d.SessionsPrune()
		if err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, resp)
	}
}
