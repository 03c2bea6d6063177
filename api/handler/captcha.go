package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/ccbrowser/daemon"
)

// CaptchaDetect returns the handler for POST /captcha/detect (spec.md §4.6).
func CaptchaDetect(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := d.CaptchaDetect(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, resp)
	}
}

// CaptchaSolve returns the handler for POST /captcha/solve.
func CaptchaSolve(d *daemon.Daemon) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := d.CaptchaSolve(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		respondOK(c, http.StatusOK, resp)
	}
}
