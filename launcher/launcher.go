// Package launcher implements the Browser Launcher (spec.md §4.1): probing
// for an already-running CDP endpoint, locating the browser binary, choosing
// a user-data directory, launching the subprocess with a flag set that never
// flags the session as automated, and stopping it cleanly.
//
// Grounded on the teacher's scraper.NewScraper, which builds a
// rod/lib/launcher.Launcher the same way (explicit flags.Flag Set/Delete
// calls, a BrowserBin override, then l.Launch()); generalized here from "one
// headless pool browser" to "one named, possibly-persistent workspace
// browser."
package launcher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"

	"github.com/use-agent/ccbrowser/ccerrors"
	"github.com/use-agent/ccbrowser/models"
)

// Options describes how to launch a browser for one workspace (or an
// incognito session).
type Options struct {
	Kind      models.BrowserKind
	Port      int
	Incognito bool

	// UserDataDir is the persistent profile directory for a named
	// workspace. Empty for incognito (a fresh temp dir is created) and for
	// the "system profile" case (empty string tells the launcher to omit
	// --user-data-dir entirely so Chrome uses its own default profile).
	UserDataDir string
	// SystemProfile requests the browser's own real OS profile directory
	// (spec.md §4.1 step 3) instead of a cc-browser-managed one; it adds
	// --profile-directory instead of --disable-sync (spec.md §4.1 step 5).
	SystemProfile bool
	Headless      bool
	BinOverride   string

	ProbeTimeout      time.Duration
	ReadyTimeout      time.Duration
	ReadyPollInterval time.Duration
}

// Handle is a running browser subprocess.
type Handle struct {
	ControlURL string
	Port       int
	TempDir    string // non-empty only for incognito sessions; removed by Stop once the port is down
	l          *launcher.Launcher
}

// candidateBinaries lists platform binary names to search for when no
// BinOverride is supplied, tried in order via launcher.LookPath-style
// resolution (spec.md §4.1 step 2).
var candidateBinaries = map[string][]string{
	"darwin": {
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		"/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge",
		"/Applications/Brave Browser.app/Contents/MacOS/Brave Browser",
	},
	"linux": {
		"google-chrome", "google-chrome-stable", "chromium", "chromium-browser",
		"microsoft-edge", "microsoft-edge-stable", "brave-browser",
	},
	"windows": {
		`C:\Program Files\Google\Chrome\Application\chrome.exe`,
		`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
		`C:\Program Files (x86)\Microsoft\Edge\Application\msedge.exe`,
		`C:\Program Files\BraveSoftware\Brave-Browser\Application\brave.exe`,
	},
}

// Probe checks whether a CDP endpoint is already reachable on port, per
// spec.md §4.1 step 1 (skip launch entirely if so).
func Probe(ctx context.Context, port int, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("http://127.0.0.1:%d/json/version", port), nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// ListTabs fetches /json/list for an already-reachable CDP endpoint and
// returns the open page targets (spec.md §4.1 step 1: "return { started:
// false } plus the current tab list from /json/list (filter to
// type=='page')").
func ListTabs(ctx context.Context, port int) ([]models.TabInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("http://127.0.0.1:%d/json/list", port), nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var targets []struct {
		ID    string `json:"id"`
		Type  string `json:"type"`
		URL   string `json:"url"`
		Title string `json:"title"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&targets); err != nil {
		return nil, err
	}

	var tabs []models.TabInfo
	for _, t := range targets {
		if t.Type != "page" {
			continue
		}
		tabs = append(tabs, models.TabInfo{TargetID: t.ID, URL: t.URL, Title: t.Title})
	}
	return tabs, nil
}

// ControlURL fetches /json/version for an already-reachable CDP endpoint
// and returns its webSocketDebuggerUrl, for attaching the dispatcher to a
// browser /start found already running (spec.md §4.1 step 1).
func ControlURL(ctx context.Context, port int) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("http://127.0.0.1:%d/json/version", port), nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var v struct {
		WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return "", err
	}
	if v.WebSocketDebuggerURL == "" {
		return "", fmt.Errorf("no webSocketDebuggerUrl reported on port %d", port)
	}
	return v.WebSocketDebuggerURL, nil
}

// kindCandidates lists platform binary names for one specific browser kind
// (unlike candidateBinaries above, which locateBinary searches regardless
// of kind — Browsers() needs a per-kind answer to report installed/not per
// row).
func kindCandidates(kind models.BrowserKind) map[string][]string {
	switch kind {
	case models.BrowserChrome:
		return map[string][]string{
			"darwin":  {"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"},
			"linux":   {"google-chrome", "google-chrome-stable", "chromium", "chromium-browser"},
			"windows": {`C:\Program Files\Google\Chrome\Application\chrome.exe`, `C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`},
		}
	case models.BrowserEdge:
		return map[string][]string{
			"darwin":  {"/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge"},
			"linux":   {"microsoft-edge", "microsoft-edge-stable"},
			"windows": {`C:\Program Files (x86)\Microsoft\Edge\Application\msedge.exe`},
		}
	case models.BrowserBrave:
		return map[string][]string{
			"darwin":  {"/Applications/Brave Browser.app/Contents/MacOS/Brave Browser"},
			"linux":   {"brave-browser"},
			"windows": {`C:\Program Files\BraveSoftware\Brave-Browser\Application\brave.exe`},
		}
	}
	return nil
}

// LocateKind reports whether kind is installed on this host and, if so, its
// binary path (spec.md §6 GET /browsers).
func LocateKind(kind models.BrowserKind) (string, bool) {
	for _, candidate := range kindCandidates(kind)[runtime.GOOS] {
		if filepath.IsAbs(candidate) {
			if _, err := os.Stat(candidate); err == nil {
				return candidate, true
			}
			continue
		}
		if path, err := exec.LookPath(candidate); err == nil {
			return path, true
		}
	}
	return "", false
}

// locateBinary resolves the executable path per spec.md §4.1 step 2: an
// explicit override wins, then rod's own bundled-binary resolver, then the
// platform candidate list.
func locateBinary(kind models.BrowserKind, override string) (string, error) {
	if override != "" {
		if _, err := os.Stat(override); err == nil {
			return override, nil
		}
		return "", fmt.Errorf("browser binary override %q not found", override)
	}

	if path, exists := launcher.LookPath(); exists {
		return path, nil
	}

	for _, candidate := range candidateBinaries[runtime.GOOS] {
		if filepath.IsAbs(candidate) {
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
			continue
		}
		if path, err := exec.LookPath(candidate); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no %s binary found on this system", kind)
}

// Launch runs the full launch algorithm (spec.md §4.1): probe, locate,
// choose user-data dir, check port contention, spawn, poll for readiness.
func Launch(ctx context.Context, opts Options) (*Handle, error) {
	if Probe(ctx, opts.Port, opts.ProbeTimeout) {
		return nil, ccerrors.New(ccerrors.CodePortInUse,
			fmt.Sprintf("a CDP endpoint is already reachable on port %d", opts.Port), nil)
	}

	binPath, err := locateBinary(opts.Kind, opts.BinOverride)
	if err != nil {
		return nil, ccerrors.New(ccerrors.CodeLaunchFailed, "failed to locate browser binary", err)
	}

	tempDir := ""
	userDataDir := opts.UserDataDir
	if opts.Incognito && userDataDir == "" {
		tempDir, err = os.MkdirTemp("", "ccbrowser-incognito-*")
		if err != nil {
			return nil, ccerrors.New(ccerrors.CodeLaunchFailed, "failed to create temp profile dir", err)
		}
		userDataDir = tempDir
	}

	l := launcher.New().
		Bin(binPath).
		Headless(opts.Headless).
		Set(flags.Flag("remote-debugging-port"), fmt.Sprintf("%d", opts.Port))

	// Stealth-equivalent flag set (spec.md §4.1 step 5: never
	// --enable-automation), grounded on the teacher's scraper.NewScraper
	// flag block.
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-ipc-flooding-protection"))
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-prompt-on-repost"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("no-default-browser-check"))
	// Chrome opens about:blank in a new window by default when no URL
	// follows --new-window (spec.md §4.1 step 5).
	l.Set(flags.Flag("new-window"))
	l.NoSandbox(runtime.GOOS == "linux")

	if opts.SystemProfile {
		l.Set(flags.Flag("profile-directory"), "Default")
	} else {
		l.Set(flags.Flag("disable-sync"))
	}
	if opts.Incognito {
		l.Set(flags.Flag("incognito"))
	}

	if userDataDir != "" {
		l.Set(flags.Flag("user-data-dir"), userDataDir)
	}

	controlURL, err := l.Launch()
	if err != nil {
		if tempDir != "" {
			_ = os.RemoveAll(tempDir)
		}
		return nil, ccerrors.New(ccerrors.CodeLaunchFailed, "failed to launch browser subprocess", err)
	}

	deadline := time.Now().Add(opts.ReadyTimeout)
	for !Probe(ctx, opts.Port, opts.ReadyPollInterval) {
		if time.Now().After(deadline) {
			if tempDir != "" {
				_ = os.RemoveAll(tempDir)
			}
			return nil, ccerrors.New(ccerrors.CodeLaunchFailed,
				fmt.Sprintf("browser did not become ready on port %d within %s", opts.Port, opts.ReadyTimeout), nil)
		}
		time.Sleep(opts.ReadyPollInterval)
	}

	slog.Info("launcher: browser ready", "kind", opts.Kind, "port", opts.Port, "controlURL", controlURL, "incognito", opts.Incognito)

	return &Handle{
		ControlURL: controlURL,
		Port:       opts.Port,
		TempDir:    tempDir,
		l:          l,
	}, nil
}

// Stop implements spec.md §4.1's stop sequence: PUT /json/close, then
// SIGTERM by recorded PID, then (Windows) a netstat-by-port fallback when
// the process reference itself fails to terminate it, re-probing 500ms
// after each step before moving to the next. Temp incognito directories are
// removed only once the port is confirmed down.
func Stop(ctx context.Context, h *Handle) error {
	closeReq, err := http.NewRequestWithContext(ctx, http.MethodPut,
		fmt.Sprintf("http://127.0.0.1:%d/json/close", h.Port), nil)
	if err == nil {
		if resp, err := http.DefaultClient.Do(closeReq); err == nil {
			resp.Body.Close()
		}
	}
	time.Sleep(500 * time.Millisecond)

	if Probe(ctx, h.Port, 300*time.Millisecond) && h.l != nil {
		if pid := h.l.PID(); pid > 0 {
			if p, err := os.FindProcess(pid); err == nil {
				_ = p.Signal(syscall.SIGTERM)
			}
		}
		time.Sleep(500 * time.Millisecond)
	}

	if Probe(ctx, h.Port, 300*time.Millisecond) && runtime.GOOS == "windows" {
		killByPortWindows(h.Port)
		time.Sleep(500 * time.Millisecond)
	}

	deadline := time.Now().Add(5 * time.Second)
	stopped := true
	for Probe(ctx, h.Port, 300*time.Millisecond) {
		if time.Now().After(deadline) {
			stopped = false
			break
		}
		time.Sleep(300 * time.Millisecond)
	}

	if h.TempDir != "" && stopped {
		_ = os.RemoveAll(h.TempDir)
	}
	return nil
}

// killByPortWindows finds the PID with a listening socket on port via
// netstat and kills it with taskkill (spec.md §4.1 stop step 3, Windows
// fallback for when the launcher's own process handle fails to end it).
// Best-effort: every error is swallowed, matching Stop's overall
// best-effort contract.
func killByPortWindows(port int) {
	if runtime.GOOS != "windows" {
		return
	}
	out, err := exec.Command("netstat", "-ano").Output()
	if err != nil {
		return
	}
	needle := fmt.Sprintf(":%d", port)
	for _, line := range strings.Split(string(out), "\n") {
		if !strings.Contains(line, needle) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		pid := fields[len(fields)-1]
		_ = exec.Command("taskkill", "/F", "/PID", pid).Run()
	}
}
