package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/ccbrowser/daemon"
	"github.com/use-agent/ccbrowser/models"
)

// RecordStart returns the handler for POST /record/start (spec.md §4.8).
// beaconPort is the daemon's own listening port: the injected capture
// script posts its beforeunload beacon back to this process's
// /record/beacon route.
func RecordStart(d *daemon.Daemon, beaconPort int) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.RecordStartRequest
		if !bind(c, &req) {
			return
		}
		if err := d.RecordStart(c.Request.Context(), &req, beaconPort); err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, nil)
	}
}

// RecordStop returns the handler for POST /record/stop.
func RecordStop(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := d.RecordStop(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, resp)
	}
}

// RecordStatus returns the handler for GET /record/status.
func RecordStatus(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		respondOK(c, http.StatusOK, d.RecordStatus())
	}
}

// Beacon returns the handler for POST /record/beacon. It wraps
// recorder.Recorder.BeaconHandler directly rather than re-deriving its
// always-204 behavior (spec.md §7: "the beacon endpoint never returns an
// error to the browser").
func Beacon(d *daemon.Daemon) gin.HandlerFunc {
	wrapped := gin.WrapF(d.Recorder.BeaconHandler())
	return func(c *gin.Context) { wrapped(c) }
}
