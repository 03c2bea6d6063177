package dispatcher

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/go-rod/rod/lib/proto"

	"github.com/use-agent/ccbrowser/ccerrors"
	"github.com/use-agent/ccbrowser/models"
)

var screenshotFormats = map[string]proto.PageCaptureScreenshotFormat{
	"png":  proto.PageCaptureScreenshotFormatPng,
	"jpeg": proto.PageCaptureScreenshotFormatJpeg,
}

// Screenshot captures the viewport, the full page, or a single element
// (spec.md §4.4 screenshot: "element screenshots disallow fullPage").
func (d *Dispatcher) Screenshot(ctx context.Context, req *models.ScreenshotRequest) (*models.ScreenshotResponse, error) {
	req.Defaults()
	page, entry, err := d.resolvePage(ctx, req.TargetID)
	if err != nil {
		return nil, err
	}
	format := screenshotFormats[req.Format]

	if req.Ref != "" || req.Selector != "" {
		if req.FullPage {
			return nil, ccerrors.New(ccerrors.CodeInvalidInput, "fullPage is not allowed with ref or selector", nil)
		}
		el, err := d.resolveElement(ctx, page, entry, req.Ref, "", req.Selector, 8000)
		if err != nil {
			return nil, err
		}
		data, err := el.Screenshot(format, 90)
		if err != nil {
			return nil, ccerrors.New(ccerrors.CodeInternal, "element screenshot failed", err)
		}
		return &models.ScreenshotResponse{DataBase64: base64.StdEncoding.EncodeToString(data), Format: req.Format}, nil
	}

	data, err := page.Context(ctx).Screenshot(req.FullPage, &proto.PageCaptureScreenshot{Format: format})
	if err != nil {
		return nil, ccerrors.New(ccerrors.CodeInternal, "screenshot failed", err)
	}
	return &models.ScreenshotResponse{DataBase64: base64.StdEncoding.EncodeToString(data), Format: req.Format}, nil
}

// ScreenshotLabels captures the same image as Screenshot but also returns
// the page's current ref map, so a caller can overlay element labels onto
// the image itself (spec.md §6's distinct /screenshot-labels route).
func (d *Dispatcher) ScreenshotLabels(ctx context.Context, req *models.ScreenshotRequest) (*models.ScreenshotResponse, error) {
	resp, err := d.Screenshot(ctx, req)
	if err != nil {
		return nil, err
	}
	_, entry, err := d.resolvePage(ctx, req.TargetID)
	if err != nil {
		return resp, nil
	}
	for ref, desc := range entry.AllRefs() {
		resp.Labels = append(resp.Labels, models.SnapshotNode{Ref: ref, Role: desc.Role, Name: desc.Name})
	}
	return resp, nil
}

// Upload sets the files on a file input and dispatches the input/change
// events the page expects after a manual file pick (spec.md §4.4 upload).
func (d *Dispatcher) Upload(ctx context.Context, req *models.UploadRequest) (*models.UploadResponse, error) {
	page, entry, err := d.resolvePage(ctx, req.TargetID)
	if err != nil {
		return nil, err
	}
	el, err := d.resolveElement(ctx, page, entry, req.Ref, "", req.Selector, 8000)
	if err != nil {
		return nil, err
	}
	if err := el.SetFiles(req.Paths); err != nil {
		return nil, ccerrors.New(ccerrors.CodeInternal, "failed to set input files", err)
	}
	// DOM.setFileInputFiles is a programmatic assignment frameworks ignore
	// unless input/change also fire (spec.md §4.4 upload).
	if _, err := el.Eval(`() => {
		this.dispatchEvent(new Event('input', {bubbles: true}));
		this.dispatchEvent(new Event('change', {bubbles: true}));
	}`); err != nil {
		return nil, ccerrors.New(ccerrors.CodeInternal, "failed to dispatch input/change events", err)
	}
	logVerb("upload", "paths", strings.Join(req.Paths, ","))
	return &models.UploadResponse{}, nil
}

// Resize sets the viewport size, flooring both dimensions (spec.md §4.4
// resize).
func (d *Dispatcher) Resize(ctx context.Context, req *models.ResizeRequest) (*models.ResizeResponse, error) {
	req.Defaults()
	page, _, err := d.resolvePage(ctx, req.TargetID)
	if err != nil {
		return nil, err
	}
	if err := page.Context(ctx).SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  req.Width,
		Height: req.Height,
	}); err != nil {
		return nil, ccerrors.New(ccerrors.CodeInternal, "failed to resize viewport", err)
	}
	logVerb("resize", "width", req.Width, "height", req.Height)
	return &models.ResizeResponse{Width: req.Width, Height: req.Height}, nil
}
