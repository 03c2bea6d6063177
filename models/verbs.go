package models

// TargetRef is embedded by every interaction-dispatcher request: callers
// may pin a specific tab by CDP target id, or leave it empty to mean "the
// last page in the active browser's page list" (spec.md §4.4).
type TargetRef struct {
	TargetID string `json:"targetId,omitempty"`
}

// NavigateRequest is the payload for POST /navigate (spec.md §4.4).
type NavigateRequest struct {
	TargetRef
	URL       string `json:"url" binding:"required"`
	WaitUntil string `json:"waitUntil,omitempty" binding:"omitempty,oneof=load domcontentloaded networkidle"`
	TimeoutMs int    `json:"timeout,omitempty"`
}

// Defaults fills WaitUntil with "load" per spec.md §4.4.
func (r *NavigateRequest) Defaults() {
	if r.WaitUntil == "" {
		r.WaitUntil = "load"
	}
}

// NavigateResponse is returned by navigate, reload, back, and forward.
type NavigateResponse struct {
	URL     string      `json:"url"`
	Title   string      `json:"title"`
	Captcha *CaptchaHit `json:"captcha,omitempty"`
}

// CaptchaHit is the optional captcha summary attached to a navigate
// response when the post-load probe trips (spec.md §4.4).
type CaptchaHit struct {
	Detected bool   `json:"detected"`
	Type     string `json:"type,omitempty"`
	Solved   bool   `json:"solved"`
}

// ReloadRequest is the payload for POST /reload.
type ReloadRequest struct {
	TargetRef
}

// BackRequest is the payload for POST /back.
type BackRequest struct {
	TargetRef
}

// ForwardRequest is the payload for POST /forward.
type ForwardRequest struct {
	TargetRef
}

// SnapshotRequest is the payload for POST /snapshot.
type SnapshotRequest struct {
	TargetRef
	Mode RefMode `json:"mode,omitempty"` // default RefModeRole
}

// SnapshotNode is one addressable element surfaced by a snapshot.
type SnapshotNode struct {
	Ref  string `json:"ref"`
	Role string `json:"role"`
	Name string `json:"name,omitempty"`
}

// SnapshotResponse is returned by snapshot.
type SnapshotResponse struct {
	URL   string         `json:"url"`
	Title string         `json:"title"`
	Nodes []SnapshotNode `json:"nodes"`
}

// InfoRequest is the payload for POST /info.
type InfoRequest struct {
	TargetRef
}

// InfoResponse is returned by info, and doubles as the tab summary for
// text/html pass-throughs (spec.md §4.4 "text, html, info ... pass-throughs").
type InfoResponse struct {
	TargetID string `json:"targetId"`
	URL      string `json:"url"`
	Title    string `json:"title"`
}

// TextRequest is the payload for POST /text. Readability opts into
// go-shiori/go-readability article extraction (SPEC_FULL.md §8.1); without
// it, text is the page's (or selector's) plain document.body.innerText.
type TextRequest struct {
	TargetRef
	Selector    string `json:"selector,omitempty"`
	Readability bool   `json:"readability,omitempty"`
}

// TextResponse is returned by /text.
type TextResponse struct {
	Text string `json:"text"`
}

// HTMLRequest is the payload for POST /html.
type HTMLRequest struct {
	TargetRef
	Selector string `json:"selector,omitempty"`
}

// HTMLResponse is returned by /html.
type HTMLResponse struct {
	HTML  string `json:"html"`
	Links []Link `json:"links,omitempty"`
}

// Link is an extracted anchor (href, visible text) from content.ExtractLinks.
type Link struct {
	Href string `json:"href"`
	Text string `json:"text"`
}

// ClickRequest is the payload for POST /click (spec.md §4.4).
type ClickRequest struct {
	TargetRef
	Ref       string   `json:"ref,omitempty"`
	Text      string   `json:"text,omitempty"`
	Selector  string   `json:"selector,omitempty"`
	Double    bool     `json:"double,omitempty"`
	Button    string   `json:"button,omitempty" binding:"omitempty,oneof=left right middle"`
	Modifiers []string `json:"modifiers,omitempty"`
	TimeoutMs int      `json:"timeout,omitempty"`
}

// Defaults fills Button with "left" and clamps TimeoutMs to [500, 60000]ms,
// defaulting to 8000ms when unset (spec.md §4.4).
func (r *ClickRequest) Defaults() {
	if r.Button == "" {
		r.Button = "left"
	}
	r.TimeoutMs = clampTimeoutMs(r.TimeoutMs, 8000)
}

func clampTimeoutMs(v, def int) int {
	if v == 0 {
		v = def
	}
	if v < 500 {
		return 500
	}
	if v > 60000 {
		return 60000
	}
	return v
}

// ClickResponse is returned by click and hover.
type ClickResponse struct {
	Ref string `json:"ref,omitempty"`
}

// HoverRequest is the payload for POST /hover.
type HoverRequest struct {
	TargetRef
	Ref       string `json:"ref,omitempty"`
	Text      string `json:"text,omitempty"`
	Selector  string `json:"selector,omitempty"`
	TimeoutMs int    `json:"timeout,omitempty"`
}

// Defaults mirrors ClickRequest's timeout clamp.
func (r *HoverRequest) Defaults() { r.TimeoutMs = clampTimeoutMs(r.TimeoutMs, 8000) }

// DragEndpoint is either a ref or an absolute coordinate (spec.md §4.4 drag).
type DragEndpoint struct {
	Ref string  `json:"ref,omitempty"`
	X   float64 `json:"x,omitempty"`
	Y   float64 `json:"y,omitempty"`
}

// DragRequest is the payload for POST /drag.
type DragRequest struct {
	TargetRef
	From      DragEndpoint `json:"from"`
	To        DragEndpoint `json:"to"`
	TimeoutMs int          `json:"timeout,omitempty"`
}

// Defaults mirrors ClickRequest's timeout clamp.
func (r *DragRequest) Defaults() { r.TimeoutMs = clampTimeoutMs(r.TimeoutMs, 8000) }

// DragResponse is returned by drag.
type DragResponse struct{}

// TypeRequest is the payload for POST /type (spec.md §4.4).
type TypeRequest struct {
	TargetRef
	Ref       string `json:"ref,omitempty"`
	Text      string `json:"text,omitempty"`
	Selector  string `json:"selector,omitempty"`
	Value     string `json:"value"`
	Submit    bool   `json:"submit,omitempty"`
	Slowly    bool   `json:"slowly,omitempty"`
	TimeoutMs int    `json:"timeout,omitempty"`
}

// Defaults mirrors ClickRequest's timeout clamp.
func (r *TypeRequest) Defaults() { r.TimeoutMs = clampTimeoutMs(r.TimeoutMs, 8000) }

// TypeResponse is returned by type.
type TypeResponse struct{}

// PressRequest is the payload for POST /press.
type PressRequest struct {
	TargetRef
	Ref       string `json:"ref,omitempty"`
	Key       string `json:"key" binding:"required"`
	HoldMs    int    `json:"holdMs,omitempty"`
	TimeoutMs int    `json:"timeout,omitempty"`
}

// Defaults mirrors ClickRequest's timeout clamp.
func (r *PressRequest) Defaults() { r.TimeoutMs = clampTimeoutMs(r.TimeoutMs, 8000) }

// PressResponse is returned by press.
type PressResponse struct{}

// SelectRequest is the payload for POST /select.
type SelectRequest struct {
	TargetRef
	Ref       string   `json:"ref,omitempty"`
	Selector  string   `json:"selector,omitempty"`
	Values    []string `json:"values" binding:"required"`
	TimeoutMs int      `json:"timeout,omitempty"`
}

// Defaults mirrors ClickRequest's timeout clamp.
func (r *SelectRequest) Defaults() { r.TimeoutMs = clampTimeoutMs(r.TimeoutMs, 8000) }

// SelectResponse is returned by select.
type SelectResponse struct{}

// FillEntry is one field in a fill batch (spec.md §4.4).
type FillEntry struct {
	Ref   string `json:"ref" binding:"required"`
	Type  string `json:"type,omitempty"` // "checkbox" | "radio" | "" (text-like)
	Value string `json:"value"`
}

// FillRequest is the payload for POST /fill.
type FillRequest struct {
	TargetRef
	Fields    []FillEntry `json:"fields" binding:"required"`
	TimeoutMs int         `json:"timeout,omitempty"`
}

// Defaults mirrors ClickRequest's timeout clamp.
func (r *FillRequest) Defaults() { r.TimeoutMs = clampTimeoutMs(r.TimeoutMs, 8000) }

// FillResponse is returned by fill.
type FillResponse struct {
	Filled int `json:"filled"`
}

// ScrollRequest is the payload for POST /scroll (spec.md §4.4).
type ScrollRequest struct {
	TargetRef
	Ref       string `json:"ref,omitempty"`
	Direction string `json:"direction,omitempty" binding:"omitempty,oneof=up down left right"`
	Amount    int    `json:"amount,omitempty"`
}

// Defaults fills Direction with "down" and Amount with 500px.
func (r *ScrollRequest) Defaults() {
	if r.Ref == "" {
		if r.Direction == "" {
			r.Direction = "down"
		}
		if r.Amount == 0 {
			r.Amount = 500
		}
	}
}

// ScrollResponse is returned by scroll.
type ScrollResponse struct{}

// WaitRequest is the payload for POST /wait (spec.md §4.4). Exactly the
// fields relevant to the chosen condition are set; conditions are checked
// in the order listed in the spec: timeMs, text, textGone, selector, url,
// loadState, fn.
type WaitRequest struct {
	TargetRef
	TimeMs    int    `json:"timeMs,omitempty"`
	Text      string `json:"text,omitempty"`
	TextGone  string `json:"textGone,omitempty"`
	Selector  string `json:"selector,omitempty"`
	URL       string `json:"url,omitempty"`
	LoadState string `json:"loadState,omitempty" binding:"omitempty,oneof=load domcontentloaded networkidle"`
	Fn        string `json:"fn,omitempty"`
	TimeoutMs int    `json:"timeout,omitempty"`
}

// Defaults fills TimeoutMs with 20000ms per spec.md §4.4.
func (r *WaitRequest) Defaults() {
	if r.TimeoutMs == 0 {
		r.TimeoutMs = 20000
	}
}

// WaitResponse is returned by wait.
type WaitResponse struct {
	Satisfied string `json:"satisfied"` // which condition fired
}

// EvaluateRequest is the payload for POST /evaluate.
type EvaluateRequest struct {
	TargetRef
	Fn  string `json:"fn" binding:"required"`
	Ref string `json:"ref,omitempty"`
}

// EvaluateResponse is returned by evaluate. Result is whatever JSON the
// evaluated function returned.
type EvaluateResponse struct {
	Result interface{} `json:"result"`
}

// ScreenshotRequest is the payload for POST /screenshot and /screenshot-labels.
type ScreenshotRequest struct {
	TargetRef
	FullPage bool   `json:"fullPage,omitempty"`
	Ref      string `json:"ref,omitempty"`
	Selector string `json:"selector,omitempty"`
	Format   string `json:"format,omitempty" binding:"omitempty,oneof=png jpeg"`
}

// Defaults fills Format with "png".
func (r *ScreenshotRequest) Defaults() {
	if r.Format == "" {
		r.Format = "png"
	}
}

// ScreenshotResponse is returned by screenshot and screenshot-labels.
type ScreenshotResponse struct {
	DataBase64 string         `json:"dataBase64"`
	Format     string         `json:"format"`
	Labels     []SnapshotNode `json:"labels,omitempty"`
}

// UploadRequest is the payload for POST /upload.
type UploadRequest struct {
	TargetRef
	Ref      string   `json:"ref,omitempty"`
	Selector string   `json:"selector,omitempty"`
	Paths    []string `json:"paths" binding:"required"`
}

// UploadResponse is returned by upload.
type UploadResponse struct{}

// ResizeRequest is the payload for POST /resize.
type ResizeRequest struct {
	TargetRef
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Defaults clamps Width/Height to the spec's floor of (320, 240).
func (r *ResizeRequest) Defaults() {
	if r.Width < 320 {
		r.Width = 320
	}
	if r.Height < 240 {
		r.Height = 240
	}
}

// ResizeResponse is returned by resize.
type ResizeResponse struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// TabsOpenRequest is the payload for POST /tabs/open.
type TabsOpenRequest struct {
	URL string `json:"url,omitempty"`
}

// TabsOpenResponse is returned by /tabs/open.
type TabsOpenResponse struct {
	Tab TabInfo `json:"tab"`
}

// TabsCloseRequest is the payload for POST /tabs/close.
type TabsCloseRequest struct {
	TargetRef
}

// TabsFocusRequest is the payload for POST /tabs/focus.
type TabsFocusRequest struct {
	TargetRef
}

// TabsListResponse is returned by /tabs.
type TabsListResponse struct {
	Tabs []TabInfo `json:"tabs"`
}
