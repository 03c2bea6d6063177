// Package captcha implements the CAPTCHA Subsystem (spec.md §4.6): a cheap
// Tier 1 DOM probe for seven CAPTCHA families, a Tier 2 vision-assisted
// probe/solve path, and an Orchestrator that retries with linear backoff.
//
// Grounded on the teacher's in-page JS injection pattern
// (scraper/page.go's page.Eval/EvalOnNewDocument calls) for the detection
// probe, and on llm.Client's structured-extraction contract
// (llm/openai.go) for how a vision backend's JSON response is consumed.
package captcha

import (
	"context"
	"encoding/json"

	"github.com/go-rod/rod"

	"github.com/use-agent/ccbrowser/ccerrors"
	"github.com/use-agent/ccbrowser/vision"
)

// Type enumerates the seven CAPTCHA families spec.md §4.6 names.
type Type string

const (
	TypeRecaptchaV2            Type = "recaptcha_v2"
	TypeHCaptcha                Type = "hcaptcha"
	TypeCloudflareTurnstile     Type = "cloudflare_turnstile"
	TypeCloudflareInterstitial  Type = "cloudflare_interstitial"
	TypeSlider                  Type = "slider"
	TypeImageGrid               Type = "image_grid"
	TypeRecaptchaImage          Type = "recaptcha_image"
	TypeTextCaptcha              Type = "text_captcha"
)

// Detection is the result of a Tier 1 probe.
type Detection struct {
	Detected bool   `json:"detected"`
	Type     Type   `json:"type,omitempty"`
	Selector string `json:"selector,omitempty"`
}

// probeScript is a single in-page JS expression checking, in order, for DOM
// markers of each of the seven CAPTCHA families, returning the first match
// as {detected, type, selector}. Kept as a raw string the way the teacher
// keeps stealth.JS as an injected script rather than building DOM-probing
// logic in Go (content, not logic).
const probeScript = `(() => {
  const probes = [
    ["recaptcha_v2", "iframe[src*='recaptcha/api2/anchor']"],
    ["recaptcha_image", "iframe[src*='recaptcha/api2/bframe']"],
    ["hcaptcha", "iframe[src*='hcaptcha.com']"],
    ["cloudflare_turnstile", "iframe[src*='challenges.cloudflare.com']"],
    ["cloudflare_interstitial", "#cf-challenge-stage, .cf-turnstile-wrapper"],
    ["slider", "[class*='slider-captcha'], [class*='slide-verify']"],
    ["image_grid", "[class*='captcha-grid'], [data-captcha='grid']"],
    ["text_captcha", "img[alt*='captcha' i], [class*='captcha-text']"],
  ];
  for (const [type, selector] of probes) {
    const el = document.querySelector(selector);
    if (el) {
      return { detected: true, type, selector };
    }
  }
  // Cloudflare's interstitial is sometimes only visible in its title
  // ("Just a moment...") before any of its markup settles.
  if (document.title.includes("Just a moment")) {
    return { detected: true, type: "cloudflare_interstitial", selector: "title" };
  }
  return { detected: false };
})()`

// Detect runs the Tier 1 DOM probe on page.
func Detect(ctx context.Context, page *rod.Page) (*Detection, error) {
	res, err := page.Context(ctx).Eval(probeScript)
	if err != nil {
		return nil, err
	}
	var d Detection
	if err := res.Value.Unmarshal(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// detectPrompt asks the vision backend to do what the Tier 1 DOM probe
// does, for pages where the CAPTCHA widget renders with no marker the DOM
// probe recognizes (spec.md §4.6 Tier 2).
const detectPrompt = `You are looking at a screenshot of a web page that may contain a CAPTCHA challenge. Respond with ONLY JSON: {"detected":bool,"type":"recaptcha_v2"|"hcaptcha"|"cloudflare_turnstile"|"cloudflare_interstitial"|"slider"|"image_grid"|"recaptcha_image"|"text_captcha"|"","selector":""} describing whether one of these seven CAPTCHA families is visible and, if so, which. Leave "selector" empty — it cannot be determined from a screenshot alone.`

// DetectVision runs the Tier 2 vision-assisted probe: a screenshot sent to
// the vision backend with a structured JSON-only prompt, its response
// stripped of optional markdown fences before parsing (spec.md §4.6 Tier
// 2: "If Tier 1 is negative, take a screenshot and send a structured
// JSON-only prompt to the vision backend. Parse the response, stripping
// optional markdown fences."). A nil visionClient (no API key configured)
// yields a negative detection rather than an error, since Tier 2 is a
// best-effort fallback, not a required dependency.
func DetectVision(ctx context.Context, page *rod.Page, visionClient *vision.Client) (*Detection, error) {
	if visionClient == nil || !visionClient.Configured() {
		return &Detection{Detected: false}, nil
	}
	png, err := page.Context(ctx).Screenshot(false, nil)
	if err != nil {
		return nil, err
	}
	raw, err := visionClient.Analyze(ctx, png, detectPrompt)
	if err != nil {
		return nil, err
	}
	var d Detection
	if err := json.Unmarshal([]byte(vision.StripJSONFence(raw)), &d); err != nil {
		return nil, ccerrors.New(ccerrors.CodeVisionBackendError, "vision backend returned unparsable detection", err)
	}
	return &d, nil
}

// DetectTiered runs Tier 1 first and only falls through to Tier 2 when
// Tier 1 reports no detection (spec.md §4.6), so a DOM marker never pays
// the cost of a vision round-trip.
func DetectTiered(ctx context.Context, page *rod.Page, visionClient *vision.Client) (*Detection, error) {
	d, err := Detect(ctx, page)
	if err != nil {
		return nil, err
	}
	if d.Detected {
		return d, nil
	}
	return DetectVision(ctx, page, visionClient)
}
