package daemon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/ccbrowser/ccerrors"
	"github.com/use-agent/ccbrowser/config"
	"github.com/use-agent/ccbrowser/models"
)

func testConfig(t *testing.T) *config.Config {
	root := t.TempDir()
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 9876, Mode: "test"},
		Paths:  config.PathConfig{Root: root, RecordingsRoot: root + "/recordings"},
		Launcher: config.LauncherConfig{
			ProbeTimeout:      50 * time.Millisecond,
			ReadyTimeout:      200 * time.Millisecond,
			ReadyPollInterval: 10 * time.Millisecond,
		},
		Session: config.SessionConfig{DefaultTTL: time.Minute, SweepInterval: time.Minute},
		Captcha: config.CaptchaConfig{MaxAttempts: 1, AttemptBackoff: time.Millisecond},
	}
}

func TestMode_DefaultsToFastAndRoundTrips(t *testing.T) {
	d := New(testConfig(t))
	assert.Equal(t, models.ModeFast, d.Mode().Mode)

	resp := d.SetMode(models.ModeStealth)
	assert.Equal(t, models.ModeStealth, resp.Mode)
	assert.Equal(t, models.ModeStealth, d.Mode().Mode)
}

func TestStart_RejectsIncognitoWithWorkspace(t *testing.T) {
	d := New(testConfig(t))
	_, err := d.Start(nil, &models.StartRequest{Browser: models.BrowserChrome, Incognito: true, Workspace: "work"})
	require.Error(t, err)
	de, ok := ccerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, ccerrors.CodeInvalidInput, de.Code)
}

func TestStart_RejectsSecondConcurrentSession(t *testing.T) {
	d := New(testConfig(t))
	d.active = models.ActiveSession{BrowserKind: models.BrowserChrome, CDPPort: 9222}

	_, err := d.Start(nil, &models.StartRequest{Browser: models.BrowserChrome, Workspace: "anything"})
	require.Error(t, err)
	de, ok := ccerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, ccerrors.CodeInvalidInput, de.Code)
}

func TestRequireActive_FailsWithoutASession(t *testing.T) {
	d := New(testConfig(t))
	err := d.requireActive()
	require.Error(t, err)
	de, ok := ccerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, ccerrors.CodeNoActiveSession, de.Code)
}

func TestStatus_ReportsInactiveByDefault(t *testing.T) {
	d := New(testConfig(t))
	st := d.Status()
	assert.False(t, st.Active)
	assert.Equal(t, models.ModeFast, st.Mode)
}

func TestStop_FailsWithoutASession(t *testing.T) {
	d := New(testConfig(t))
	err := d.Stop(nil)
	require.Error(t, err)
	de, ok := ccerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, ccerrors.CodeNoActiveSession, de.Code)
}

func TestBrowsers_ReportsAllThreeKinds(t *testing.T) {
	d := New(testConfig(t))
	resp := d.Browsers()
	assert.Len(t, resp.Browsers, 3)
}

func TestProfiles_EmptyStoreReturnsNoError(t *testing.T) {
	d := New(testConfig(t))
	resp, err := d.Profiles()
	require.NoError(t, err)
	assert.Empty(t, resp.Workspaces)
}
