package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/ccbrowser/daemon"
	"github.com/use-agent/ccbrowser/models"
)

// mode reads the daemon's current interaction timing mode, for the verbs
// that dispatch straight to dispatcher.Dispatcher (spec.md §4.5: every
// interaction verb is timed by whatever /mode last set).
func mode(d *daemon.Daemon) models.Mode { return d.Mode().Mode }

// Navigate returns the handler for POST /navigate (spec.md §4.4).
func Navigate(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.NavigateRequest
		if !bind(c, &req) {
			return
		}
		applyDefaults(&req)
		resp, err := d.Dispatcher.Navigate(c.Request.Context(), mode(d), &req)
		if err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, resp)
	}
}

// Reload returns the handler for POST /reload.
func Reload(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ReloadRequest
		if !bind(c, &req) {
			return
		}
		resp, err := d.Dispatcher.Reload(c.Request.Context(), &req)
		if err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, resp)
	}
}

// Back returns the handler for POST /back.
func Back(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.BackRequest
		if !bind(c, &req) {
			return
		}
		resp, err := d.Dispatcher.Back(c.Request.Context(), &req)
		if err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, resp)
	}
}

// Forward returns the handler for POST /forward.
func Forward(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ForwardRequest
		if !bind(c, &req) {
			return
		}
		resp, err := d.Dispatcher.Forward(c.Request.Context(), &req)
		if err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, resp)
	}
}

// Snapshot returns the handler for POST /snapshot.
func Snapshot(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SnapshotRequest
		if !bind(c, &req) {
			return
		}
		resp, err := d.Dispatcher.Snapshot(c.Request.Context(), &req)
		if err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, resp)
	}
}

// Info returns the handler for POST /info.
func Info(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.InfoRequest
		if !bind(c, &req) {
			return
		}
		resp, err := d.Dispatcher.Info(c.Request.Context(), &req)
		if err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, resp)
	}
}

// Text returns the handler for POST /text.
func Text(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.TextRequest
		if !bind(c, &req) {
			return
		}
		resp, err := d.Dispatcher.Text(c.Request.Context(), &req)
		if err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, resp)
	}
}

// HTML returns the handler for POST /html.
func HTML(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.HTMLRequest
		if !bind(c, &req) {
			return
		}
		resp, err := d.Dispatcher.HTML(c.Request.Context(), &req)
		if err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, resp)
	}
}

// Click returns the handler for POST /click.
func Click(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ClickRequest
		if !bind(c, &req) {
			return
		}
		applyDefaults(&req)
		resp, err := d.Dispatcher.Click(c.Request.Context(), mode(d), &req)
		if err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, resp)
	}
}

// Hover returns the handler for POST /hover.
func Hover(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.HoverRequest
		if !bind(c, &req) {
			return
		}
		applyDefaults(&req)
		resp, err := d.Dispatcher.Hover(c.Request.Context(), mode(d), &req)
		if err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, resp)
	}
}

// Drag returns the handler for POST /drag.
func Drag(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.DragRequest
		if !bind(c, &req) {
			return
		}
		applyDefaults(&req)
		resp, err := d.Dispatcher.Drag(c.Request.Context(), mode(d), &req)
		if err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, resp)
	}
}

// Type returns the handler for POST /type.
func Type(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.TypeRequest
		if !bind(c, &req) {
			return
		}
		applyDefaults(&req)
		resp, err := d.Dispatcher.Type(c.Request.Context(), mode(d), &req)
		if err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, resp)
	}
}

// Press returns the handler for POST /press.
func Press(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.PressRequest
		if !bind(c, &req) {
			return
		}
		applyDefaults(&req)
		resp, err := d.Dispatcher.Press(c.Request.Context(), &req)
		if err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, resp)
	}
}

// Select returns the handler for POST /select.
func Select(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SelectRequest
		if !bind(c, &req) {
			return
		}
		applyDefaults(&req)
		resp, err := d.Dispatcher.Select(c.Request.Context(), &req)
		if err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, resp)
	}
}

// Fill returns the handler for POST /fill.
func Fill(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.FillRequest
		if !bind(c, &req) {
			return
		}
		applyDefaults(&req)
		resp, err := d.Dispatcher.Fill(c.Request.Context(), mode(d), &req)
		if err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, resp)
	}
}

// Scroll returns the handler for POST /scroll.
func Scroll(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ScrollRequest
		if !bind(c, &req) {
			return
		}
		applyDefaults(&req)
		resp, err := d.Dispatcher.Scroll(c.Request.Context(), mode(d), &req)
		if err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, resp)
	}
}

// Wait returns the handler for POST /wait.
func Wait(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.WaitRequest
		if !bind(c, &req) {
			return
		}
		applyDefaults(&req)
		resp, err := d.Dispatcher.Wait(c.Request.Context(), &req)
		if err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, resp)
	}
}

// Evaluate returns the handler for POST /evaluate.
func Evaluate(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.EvaluateRequest
		if !bind(c, &req) {
			return
		}
		resp, err := d.Dispatcher.Evaluate(c.Request.Context(), &req)
		if err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, resp)
	}
}

// Screenshot returns the handler for POST /screenshot.
func Screenshot(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ScreenshotRequest
		if !bind(c, &req) {
			return
		}
		applyDefaults(&req)
		resp, err := d.Dispatcher.Screenshot(c.Request.Context(), &req)
		if err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, resp)
	}
}

// ScreenshotLabels returns the handler for POST /screenshot-labels.
func ScreenshotLabels(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ScreenshotRequest
		if !bind(c, &req) {
			return
		}
		applyDefaults(&req)
		resp, err := d.Dispatcher.ScreenshotLabels(c.Request.Context(), &req)
		if err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, resp)
	}
}

// Upload returns the handler for POST /upload.
func Upload(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.UploadRequest
		if !bind(c, &req) {
			return
		}
		resp, err := d.Dispatcher.Upload(c.Request.Context(), &req)
		if err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, resp)
	}
}

// Resize returns the handler for POST /resize.
func Resize(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ResizeRequest
		if !bind(c, &req) {
			return
		}
		applyDefaults(&req)
		resp, err := d.Dispatcher.Resize(c.Request.Context(), &req)
		if err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, resp)
	}
}
