// Package daemon implements the process-wide daemon state (spec.md §9
// DESIGN NOTES: "the several module-level singletons an implementation
// needs... should be expressed as a single value whose methods are the
// verbs, not as package-level globals"). Daemon owns exactly one active
// session at a time and wires every other package together: the launcher,
// the connection cache, the workspace store and recording vault, the
// session manager, the recorder, the replayer, and the CAPTCHA
// orchestrator.
//
// Grounded on the teacher's cmd/purify/main.go wiring order (scraper,
// then engine, then cleaner, then cache, constructed once at startup and
// held for the process lifetime) — generalized here from "construct once"
// to "construct the long-lived pieces once, but rebuild the
// session.Manager on every Start, since its persistence path is
// workspace-specific."
package daemon

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"net"
	"path/filepath"
	"sync"
	"time"

	"github.com/use-agent/ccbrowser/browser"
	"github.com/use-agent/ccbrowser/captcha"
	"github.com/use-agent/ccbrowser/ccerrors"
	"github.com/use-agent/ccbrowser/config"
	"github.com/use-agent/ccbrowser/dispatcher"
	"github.com/use-agent/ccbrowser/launcher"
	"github.com/use-agent/ccbrowser/models"
	"github.com/use-agent/ccbrowser/pagestate"
	"github.com/use-agent/ccbrowser/recorder"
	"github.com/use-agent/ccbrowser/replayer"
	"github.com/use-agent/ccbrowser/session"
	"github.com/use-agent/ccbrowser/vision"
	"github.com/use-agent/ccbrowser/workspace"
)

// Daemon is the single value every API handler is constructed against.
type Daemon struct {
	Config     *config.Config
	Store      *workspace.Store
	Vault      *workspace.Vault
	Browser    *browser.Cache
	Pages      *pagestate.Registry
	RefCache   *pagestate.RefCache
	Dispatcher *dispatcher.Dispatcher
	Recorder   *recorder.Recorder
	Replayer   *replayer.Replayer
	Captcha    *captcha.Orchestrator
	Vision     *vision.Client

	mu       sync.Mutex
	active   models.ActiveSession
	mode     models.Mode
	handle   *launcher.Handle
	sessions *session.Manager
}

// New wires every package together from cfg. Sessions are not constructed
// here: the session.Manager's persistence path is workspace-specific, so
// it is built fresh on every Start and torn down on every Stop.
func New(cfg *config.Config) *Daemon {
	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))

	visionClient := vision.New(vision.Config{
		APIKey:  cfg.Captcha.VisionAPIKey,
		Model:   cfg.Captcha.VisionModel,
		BaseURL: cfg.Captcha.VisionBaseURL,
	}, nil)

	orch := captcha.NewOrchestrator(visionClient, cfg.Captcha.MaxAttempts, cfg.Captcha.AttemptBackoff, rng)

	browserCache := browser.NewCache()
	pages := pagestate.NewRegistry()
	refCache := pagestate.NewRefCache()

	return &Daemon{
		Config:     cfg,
		Store:      workspace.New(cfg.Paths.Root),
		Vault:      workspace.NewVault(cfg.Paths.RecordingsRoot),
		Browser:    browserCache,
		Pages:      pages,
		RefCache:   refCache,
		Dispatcher: dispatcher.New(browserCache, pages, refCache, orch, rng),
		Recorder:   recorder.New(),
		Replayer:   replayer.New(rng),
		Captcha:    orch,
		Vision:     visionClient,
		mode:       models.ModeFast,
	}
}

// freePort asks the OS for an unused loopback TCP port (spec.md §4.1 step
// 3: "an incognito session picks an ephemeral port the OS has not already
// bound, since it has no workspace.json to read one from").
func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// Start implements spec.md §4.1: reject a second concurrent session,
// reject incognito+workspace together, resolve the port and user-data
// directory, attach to an already-reachable endpoint without launching a
// new subprocess, or launch one, then bind every downstream package to the
// new session.
func (d *Daemon) Start(ctx context.Context, req *models.StartRequest) (*models.StartResponse, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active.IsActive() {
		return nil, ccerrors.New(ccerrors.CodeInvalidInput, "a browser session is already active; stop it first", nil)
	}
	if req.Incognito && req.Workspace != "" {
		return nil, ccerrors.New(ccerrors.CodeInvalidInput, "incognito sessions cannot specify a workspace", nil)
	}

	var (
		port        int
		userDataDir string
		workspaceDir string
	)

	if req.Incognito {
		p, err := freePort()
		if err != nil {
			return nil, ccerrors.New(ccerrors.CodeLaunchFailed, "failed to allocate an ephemeral port", err)
		}
		port = p
	} else {
		desc, err := d.Store.Resolve(req.Browser, req.Workspace)
		if err != nil {
			return nil, err
		}
		port = desc.CDPPort
		workspaceDir = d.Store.WorkspaceDir(req.Browser, desc.Slug)
		if !req.SystemProfile {
			userDataDir = workspaceDir
		}
	}

	if launcher.Probe(ctx, port, d.Config.Launcher.ProbeTimeout) {
		controlURL, err := launcher.ControlURL(ctx, port)
		if err != nil {
			return nil, ccerrors.New(ccerrors.CodeLaunchFailed, "CDP endpoint is reachable but returned no control URL", err)
		}
		tabs, err := launcher.ListTabs(ctx, port)
		if err != nil {
			tabs = nil
		}
		d.bindSession(controlURL, req, port, workspaceDir, nil)
		return &models.StartResponse{Started: false, CDPPort: port, Tabs: tabs}, nil
	}

	handle, err := launcher.Launch(ctx, launcher.Options{
		Kind:              req.Browser,
		Port:              port,
		Incognito:         req.Incognito,
		UserDataDir:       userDataDir,
		SystemProfile:     req.SystemProfile,
		Headless:          req.Headless,
		BinOverride:       d.Config.Launcher.BrowserBinOverride,
		ProbeTimeout:      d.Config.Launcher.ProbeTimeout,
		ReadyTimeout:      d.Config.Launcher.ReadyTimeout,
		ReadyPollInterval: d.Config.Launcher.ReadyPollInterval,
	})
	if err != nil {
		return nil, err
	}

	d.bindSession(handle.ControlURL, req, port, workspaceDir, handle)

	return &models.StartResponse{Started: true, CDPPort: port, Tabs: nil}, nil
}

// bindSession points the dispatcher at controlURL, constructs and loads a
// fresh session.Manager rooted at the workspace's sessions.json (with no
// persistence file when workspaceDir is empty, as for incognito), and writes
// the lockfile. Caller must hold d.mu.
func (d *Daemon) bindSession(controlURL string, req *models.StartRequest, port int, workspaceDir string, handle *launcher.Handle) {
	d.Dispatcher.Bind(controlURL)
	d.handle = handle
	d.active = models.ActiveSession{
		BrowserKind:   req.Browser,
		WorkspaceName: req.Workspace,
		CDPPort:       port,
		Incognito:     req.Incognito,
	}
	if d.mode == "" {
		d.mode = models.ModeFast
	}

	persistPath := ""
	if workspaceDir != "" {
		persistPath = filepath.Join(workspaceDir, "sessions.json")
	}
	mgr := session.New(d.Config.Session.DefaultTTL, d.Config.Session.SweepInterval, persistPath)
	if err := mgr.Load(); err != nil {
		slog.Warn("daemon: failed to load persisted sessions", "error", err)
	}
	mgr.StartSweep()
	d.sessions = mgr

	lockRoot := d.Config.Paths.Root
	if err := workspace.WriteLockfile(lockRoot, workspace.NewLockfile(d.Config.Server.Port, string(req.Browser), req.Workspace)); err != nil {
		slog.Warn("daemon: failed to write lockfile", "error", err)
	}
}

// Stop implements spec.md §4.1's stop sequence: persist sessions, stop the
// sweep, stop the browser subprocess (if the daemon launched it itself;
// attaching to an already-running browser leaves it running on Stop), and
// remove the lockfile.
func (d *Daemon) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active.IsActive() {
		return ccerrors.New(ccerrors.CodeNoActiveSession, "no active browser session", nil)
	}

	if d.sessions != nil {
		if err := d.sessions.Persist(); err != nil {
			slog.Warn("daemon: failed to persist sessions on stop", "error", err)
		}
		d.sessions.Stop()
		d.sessions = nil
	}

	if d.handle != nil {
		if err := launcher.Stop(ctx, d.handle); err != nil {
			slog.Warn("daemon: browser stop reported an error", "error", err)
		}
		d.handle = nil
	}
	d.Browser.Forget()
	d.Dispatcher.Bind("")

	if err := workspace.RemoveLockfile(d.Config.Paths.Root); err != nil {
		slog.Warn("daemon: failed to remove lockfile", "error", err)
	}

	d.active = models.ActiveSession{}
	return nil
}

// Status reports the active session, if any (spec.md §6 GET /status).
func (d *Daemon) Status() *models.StatusResponse {
	d.mu.Lock()
	defer d.mu.Unlock()
	return &models.StatusResponse{
		Active:        d.active.IsActive(),
		Browser:       d.active.BrowserKind,
		WorkspaceName: d.active.WorkspaceName,
		CDPPort:       d.active.CDPPort,
		Incognito:     d.active.Incognito,
		Mode:          d.mode,
	}
}

// Mode returns the current interaction timing mode.
func (d *Daemon) Mode() *models.ModeResponse {
	d.mu.Lock()
	defer d.mu.Unlock()
	return &models.ModeResponse{Mode: d.mode}
}

// SetMode changes the interaction timing mode (spec.md §4.5, §6 POST /mode).
func (d *Daemon) SetMode(mode models.Mode) *models.ModeResponse {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mode = mode
	return &models.ModeResponse{Mode: mode}
}

// requireActive returns the no-active-session error used by every verb
// that is not in the small exempt set spec.md §8 names (start, status,
// browsers, profiles).
func (d *Daemon) requireActive() error {
	d.mu.Lock()
	active := d.active.IsActive()
	d.mu.Unlock()
	if !active {
		return ccerrors.New(ccerrors.CodeNoActiveSession, "no active browser session; call start first", nil)
	}
	return nil
}

// Browsers reports which supported browser kinds are installed on this
// host (spec.md §6 GET /browsers).
func (d *Daemon) Browsers() *models.BrowsersResponse {
	kinds := []models.BrowserKind{models.BrowserChrome, models.BrowserEdge, models.BrowserBrave}
	out := make([]models.BrowserInfo, 0, len(kinds))
	for _, k := range kinds {
		path, ok := launcher.LocateKind(k)
		out = append(out, models.BrowserInfo{Kind: k, Installed: ok, Path: path})
	}
	return &models.BrowsersResponse{Browsers: out}
}

// Profiles lists every saved workspace descriptor (spec.md §6 GET /profiles).
func (d *Daemon) Profiles() (*models.ProfilesResponse, error) {
	all, err := d.Store.All()
	if err != nil {
		return nil, err
	}
	return &models.ProfilesResponse{Workspaces: all}, nil
}

// currentMode is a small convenience the dispatcher-facing handlers use so
// every interaction verb is timed by whatever mode /mode last set.
func (d *Daemon) currentMode() models.Mode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

// --- session verbs (spec.md §4.7) ---

func (d *Daemon) SessionCreate(req *models.SessionCreateRequest) (*models.SessionResponse, error) {
	if err := d.requireActive(); err != nil {
		return nil, err
	}
	ttl := int64(-1)
	if req.TTLMs != 0 {
		ttl = req.TTLMs
	}
	s := d.sessionsOrNil()
	if s == nil {
		return nil, ccerrors.New(ccerrors.CodeNoActiveSession, "no active browser session", nil)
	}
	sess := s.Create(req.Name, ttl)
	if req.Metadata != nil {
		sess.Metadata = req.Metadata
	}
	return &models.SessionResponse{Session: sess}, nil
}

func (d *Daemon) SessionHeartbeat(req *models.SessionIDRequest) error {
	if err := d.requireActive(); err != nil {
		return err
	}
	s := d.sessionsOrNil()
	if s == nil {
		return ccerrors.New(ccerrors.CodeNoActiveSession, "no active browser session", nil)
	}
	return s.Touch(req.ID)
}

func (d *Daemon) SessionClose(req *models.SessionIDRequest) error {
	if err := d.requireActive(); err != nil {
		return err
	}
	s := d.sessionsOrNil()
	if s == nil {
		return ccerrors.New(ccerrors.CodeNoActiveSession, "no active browser session", nil)
	}
	_, err := s.Delete(req.ID)
	return err
}

func (d *Daemon) SessionsList() (*models.SessionsListResponse, error) {
	if err := d.requireActive(); err != nil {
		return nil, err
	}
	s := d.sessionsOrNil()
	if s == nil {
		return nil, ccerrors.New(ccerrors.CodeNoActiveSession, "no active browser session", nil)
	}
	return &models.SessionsListResponse{Sessions: s.List()}, nil
}

func (d *Daemon) SessionsPrune() (*models.SessionsPruneResponse, error) {
	if err := d.requireActive(); err != nil {
		return nil, err
	}
	s := d.sessionsOrNil()
	if s == nil {
		return nil, ccerrors.New(ccerrors.CodeNoActiveSession, "no active browser session", nil)
	}
	pruned := s.Prune(time.Now())
	if pruned == nil {
		pruned = []models.PrunedSession{}
	}
	return &models.SessionsPruneResponse{Pruned: pruned}, nil
}

func (d *Daemon) sessionsOrNil() *session.Manager {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sessions
}

// --- record verbs (spec.md §4.8) ---

func (d *Daemon) RecordStart(ctx context.Context, req *models.RecordStartRequest, beaconPort int) error {
	if err := d.requireActive(); err != nil {
		return err
	}
	page, err := d.Dispatcher.ResolveTargetPage(ctx, "")
	if err != nil {
		return err
	}
	return d.Recorder.Start(ctx, page, req.Name, beaconPort)
}

func (d *Daemon) RecordStop(ctx context.Context) (*models.RecordStopResponse, error) {
	if err := d.requireActive(); err != nil {
		return nil, err
	}
	rec, err := d.Recorder.Stop(ctx)
	if err != nil {
		return nil, err
	}
	savedPath, err := d.Vault.Save(rec)
	if err != nil {
		slog.Warn("daemon: failed to persist recording", "error", err)
		return &models.RecordStopResponse{Recording: rec}, nil
	}
	return &models.RecordStopResponse{Recording: rec, SavedPath: savedPath}, nil
}

func (d *Daemon) RecordStatus() *models.RecordStatusResponse {
	st := d.Recorder.Status()
	return &models.RecordStatusResponse{Active: st.Active, Steps: st.Steps}
}

// --- replay (spec.md §4.9) ---

func (d *Daemon) Replay(ctx context.Context, req *models.ReplayRequest) (*models.ReplayResponse, error) {
	if err := d.requireActive(); err != nil {
		return nil, err
	}

	var rec *models.Recording
	switch {
	case len(req.Steps) > 0:
		rec = &models.Recording{Name: req.Name, Steps: req.Steps}
	case req.Name != "":
		found, err := d.Vault.Find(req.Name)
		if err != nil {
			return nil, err
		}
		rec = found
	default:
		return nil, ccerrors.New(ccerrors.CodeInvalidInput, "replay requires either a saved recording name or an inline step list", nil)
	}

	mode := req.Mode
	if mode == "" {
		mode = d.currentMode()
	}

	page, err := d.Dispatcher.ResolveTargetPage(ctx, "")
	if err != nil {
		return nil, err
	}
	summary, err := d.Replayer.Replay(ctx, page, rec, mode)
	if err != nil {
		return nil, err
	}
	return &models.ReplayResponse{Summary: summary}, nil
}

// --- captcha (spec.md §4.6) ---

func (d *Daemon) CaptchaDetect(ctx context.Context) (*models.CaptchaDetectResponse, error) {
	if err := d.requireActive(); err != nil {
		return nil, err
	}
	page, err := d.Dispatcher.ResolveTargetPage(ctx, "")
	if err != nil {
		return nil, err
	}
	det, err := captcha.DetectTiered(ctx, page, d.Vision)
	if err != nil {
		return nil, ccerrors.New(ccerrors.CodeInternal, "captcha detection probe failed", err)
	}
	return &models.CaptchaDetectResponse{Detected: det.Detected, Type: string(det.Type), Selector: det.Selector}, nil
}

func (d *Daemon) CaptchaSolve(ctx context.Context) (*models.CaptchaSolveResponse, error) {
	if err := d.requireActive(); err != nil {
		return nil, err
	}
	page, err := d.Dispatcher.ResolveTargetPage(ctx, "")
	if err != nil {
		return nil, err
	}
	result, err := d.Captcha.Solve(ctx, page)
	if err != nil {
		return nil, err
	}
	return &models.CaptchaSolveResponse{Solved: result.Solved, Type: string(result.Type), Attempts: result.Attempts}, nil
}

// TabsOpen wraps dispatcher.TabsOpen with the daemon's current mode, so
// stealth-mode tab creation gets its anti-detection patches without every
// handler having to know about d.currentMode().
func (d *Daemon) TabsOpen(ctx context.Context, req *models.TabsOpenRequest) (*models.TabsOpenResponse, error) {
	if err := d.requireActive(); err != nil {
		return nil, err
	}
	return d.Dispatcher.TabsOpen(ctx, d.currentMode(), req)
}
