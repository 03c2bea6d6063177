package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/ccbrowser/daemon"
	"github.com/use-agent/ccbrowser/models"
)

// TabsList returns the handler for GET /tabs.
func TabsList(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := d.Dispatcher.TabsList(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, resp)
	}
}

// TabsOpen returns the handler for POST /tabs/open.
func TabsOpen(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.TabsOpenRequest
		if !bind(c, &req) {
			return
		}
		resp, err := d.TabsOpen(c.Request.Context(), &req)
		if err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, resp)
	}
}

// TabsClose returns the handler for POST /tabs/close.
func TabsClose(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.TabsCloseRequest
		if !bind(c, &req) {
			return
		}
		if err := d.Dispatcher.TabsClose(c.Request.Context(), &req); err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, nil)
	}
}

// TabsCloseAll returns the handler for POST /tabs/close-all.
func TabsCloseAll(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := d.Dispatcher.TabsCloseAll(c.Request.Context()); err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, nil)
	}
}

// TabsFocus returns the handler for POST /tabs/focus.
func TabsFocus(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.TabsFocusRequest
		if !bind(c, &req) {
			return
		}
		if err := d.Dispatcher.TabsFocus(c.Request.Context(), &req); err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, nil)
	}
}
