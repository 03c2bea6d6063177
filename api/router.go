// Package api assembles the gin.Engine the daemon serves on, grounded on
// the teacher's api/router.go: one NewRouter constructor that wires every
// route to a handler.<Verb>(...) closure, global Recovery+Logger
// middleware, and a protected group gated by a session-presence
// middleware the way the teacher gates /api/v1 behind Auth+RateLimit.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/use-agent/ccbrowser/api/handler"
	"github.com/use-agent/ccbrowser/api/middleware"
	"github.com/use-agent/ccbrowser/config"
	"github.com/use-agent/ccbrowser/daemon"
)

// NewRouter creates a configured Gin engine with every route spec.md §6
// lists. Routes are flat (no /api/v1 prefix): this daemon speaks to a
// single local client over loopback, not to the public internet the
// teacher's scrape API fronts.
func NewRouter(d *daemon.Daemon, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	// Exempt from the active-session gate (spec.md §8, SPEC_FULL.md §14):
	// start, stop, status, browsers, profiles. /stop still fails cleanly
	// with NoActiveSession via Daemon.Stop's own check when nothing is
	// running; it just doesn't need the gate's guard duplicated.
	r.GET("/", handler.Root(d))
	r.POST("/start", handler.Start(d))
	r.POST("/stop", handler.Stop(d))
	r.GET("/status", handler.Status(d))
	r.GET("/browsers", handler.Browsers(d))
	r.GET("/profiles", handler.Profiles(d))

	protected := r.Group("")
	protected.Use(middleware.RequireActiveSession(d))

	protected.GET("/mode", handler.GetMode(d))
	protected.POST("/mode", handler.SetMode(d))

	protected.POST("/navigate", handler.Navigate(d))
	protected.POST("/reload", handler.Reload(d))
	protected.POST("/back", handler.Back(d))
	protected.POST("/forward", handler.Forward(d))
	protected.POST("/snapshot", handler.Snapshot(d))
	protected.POST("/info", handler.Info(d))
	protected.POST("/text", handler.Text(d))
	protected.POST("/html", handler.HTML(d))
	protected.POST("/click", handler.Click(d))
	protected.POST("/hover", handler.Hover(d))
	protected.POST("/drag", handler.Drag(d))
	protected.POST("/type", handler.Type(d))
	protected.POST("/press", handler.Press(d))
	protected.POST("/select", handler.Select(d))
	protected.POST("/fill", handler.Fill(d))
	protected.POST("/scroll", handler.Scroll(d))
	protected.POST("/wait", handler.Wait(d))
	protected.POST("/evaluate", handler.Evaluate(d))
	protected.POST("/screenshot", handler.Screenshot(d))
	protected.POST("/screenshot-labels", handler.ScreenshotLabels(d))
	protected.POST("/upload", handler.Upload(d))
	protected.POST("/resize", handler.Resize(d))

	protected.GET("/tabs", handler.TabsList(d))
	protected.POST("/tabs/open", handler.TabsOpen(d))
	protected.POST("/tabs/close", handler.TabsClose(d))
	protected.POST("/tabs/close-all", handler.TabsCloseAll(d))
	protected.POST("/tabs/focus", handler.TabsFocus(d))

	protected.GET("/sessions", handler.SessionsList(d))
	protected.POST("/sessions/create", handler.SessionCreate(d))
	protected.POST("/sessions/heartbeat", handler.SessionHeartbeat(d))
	protected.POST("/sessions/close", handler.SessionClose(d))
	protected.POST("/sessions/prune", handler.SessionsPrune(d))

	protected.POST("/record/start", handler.RecordStart(d, cfg.Server.Port))
	protected.POST("/record/stop", handler.RecordStop(d))
	protected.GET("/record/status", handler.RecordStatus(d))
	// The beacon fires from navigator.sendBeacon on page unload; it must
	// stay outside the active-session gate the same way /record/beacon's
	// sole job is "never fail" (spec.md §4.8, §7).
	r.POST("/record/beacon", handler.Beacon(d))

	protected.POST("/replay", handler.Replay(d))

	protected.POST("/captcha/detect", handler.CaptchaDetect(d))
	protected.POST("/captcha/solve", handler.CaptchaSolve(d))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"success": false,
			"error":   gin.H{"code": "UNKNOWN_ROUTE", "message": "no such route"},
		})
	})

	return r
}
