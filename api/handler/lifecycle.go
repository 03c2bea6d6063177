// Package handler holds one gin.HandlerFunc constructor per route, grouped
// by concern into files the way the teacher's api/handler package does
// (scrape.go, crawl.go, map.go, batch.go, health.go).
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/ccbrowser/daemon"
	"github.com/use-agent/ccbrowser/models"
)

// Start returns the handler for POST /start (spec.md §4.1).
func Start(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.StartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindErr(c, err)
			return
		}
		resp, err := d.Start(c.Request.Context(), &req)
		if err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, resp)
	}
}

// Stop returns the handler for POST /stop.
func Stop(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := d.Stop(c.Request.Context()); err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, nil)
	}
}

// Status returns the handler for GET /status.
func Status(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		respondOK(c, http.StatusOK, d.Status())
	}
}

// Root returns the handler for GET /, a bare liveness check for the
// client CLI's "is a daemon listening on this port" probe (spec.md §6
// lists "/" alongside the other routes; it carries no verb-specific
// body of its own, unlike /status which reports ActiveSession).
func Root(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		respondOK(c, http.StatusOK, gin.H{"service": "cc-browser"})
	}
}

// Browsers returns the handler for GET /browsers.
func Browsers(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		respondOK(c, http.StatusOK, d.Browsers())
	}
}

// Profiles returns the handler for GET /profiles.
func Profiles(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := d.Profiles()
		if err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, resp)
	}
}

// GetMode returns the handler for GET /mode.
func GetMode(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		respondOK(c, http.StatusOK, d.Mode())
	}
}

// SetMode returns the handler for POST /mode.
func SetMode(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ModeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, d.SetMode(req.Mode))
	}
}
