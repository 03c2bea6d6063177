package dispatcher

import (
	"context"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"

	"github.com/use-agent/ccbrowser/ccerrors"
	"github.com/use-agent/ccbrowser/humanmode"
	"github.com/use-agent/ccbrowser/models"
	"github.com/use-agent/ccbrowser/pagestate"
)

var modifierKeys = map[string]input.Key{
	"Control": input.ControlLeft,
	"Shift":   input.ShiftLeft,
	"Alt":     input.AltLeft,
	"Meta":    input.MetaLeft,
}

var mouseButtons = map[string]proto.InputMouseButton{
	"left":   proto.InputMouseButtonLeft,
	"right":  proto.InputMouseButtonRight,
	"middle": proto.InputMouseButtonMiddle,
}

// elementCenter returns an element's viewport-relative center point.
func elementCenter(el *rod.Element) (x, y float64, err error) {
	shape, err := el.Shape()
	if err != nil {
		return 0, 0, err
	}
	box := shape.Box()
	return box.X + box.Width/2, box.Y + box.Height/2, nil
}

// withModifiersHeld presses each named modifier before fn runs and releases
// them afterward, regardless of fn's outcome.
func withModifiersHeld(page *rod.Page, modifiers []string, fn func() error) error {
	held := make([]input.Key, 0, len(modifiers))
	for _, m := range modifiers {
		if key, ok := modifierKeys[m]; ok {
			_ = page.Keyboard.Press(key)
			held = append(held, key)
		}
	}
	defer func() {
		for _, key := range held {
			_ = page.Keyboard.Release(key)
		}
	}()
	return fn()
}

// Click performs a (possibly human-mode) click on the resolved element
// (spec.md §4.4 click).
func (d *Dispatcher) Click(ctx context.Context, mode models.Mode, req *models.ClickRequest) (*models.ClickResponse, error) {
	req.Defaults()
	page, entry, err := d.resolvePage(ctx, req.TargetID)
	if err != nil {
		return nil, err
	}

	el, err := d.resolveElement(ctx, page, entry, req.Ref, req.Text, req.Selector, req.TimeoutMs)
	if err != nil {
		return nil, err
	}

	button := mouseButtons[req.Button]
	clicks := 1
	if req.Double {
		clicks = 2
	}

	doClick := func() error {
		if isHumanMode(mode) {
			cx, cy, err := elementCenter(el)
			if err == nil {
				d.mu.Lock()
				origin := d.lastCursor
				d.mu.Unlock()
				path := humanmode.HumanMousePath(d.Rand, origin.X, origin.Y, cx, cy)
				for _, p := range path {
					_ = page.Mouse.MoveTo(proto.Point{X: p.X, Y: p.Y})
				}
				sleep(ctx, humanmode.PreClickDelay(d.Rand))
				dx, dy := humanmode.ClickOffset(d.Rand)
				_ = page.Mouse.MoveTo(proto.Point{X: cx + dx, Y: cy + dy})
				d.mu.Lock()
				d.lastCursor = rod.Point{X: cx + dx, Y: cy + dy}
				d.mu.Unlock()
				if err := page.Mouse.Down(button, clicks); err != nil {
					return err
				}
				return page.Mouse.Up(button, clicks)
			}
		}
		return el.Click(button, clicks)
	}

	if err := withModifiersHeld(page, req.Modifiers, doClick); err != nil {
		return nil, translateLocatorError(err)
	}

	logVerb("click", "ref", req.Ref, "selector", req.Selector)
	return &models.ClickResponse{Ref: req.Ref}, nil
}

// Hover moves the cursor onto the resolved element without clicking
// (spec.md §4.4 hover).
func (d *Dispatcher) Hover(ctx context.Context, mode models.Mode, req *models.HoverRequest) (*models.ClickResponse, error) {
	req.Defaults()
	page, entry, err := d.resolvePage(ctx, req.TargetID)
	if err != nil {
		return nil, err
	}
	el, err := d.resolveElement(ctx, page, entry, req.Ref, req.Text, req.Selector, req.TimeoutMs)
	if err != nil {
		return nil, err
	}

	cx, cy, err := elementCenter(el)
	if err != nil {
		return nil, ccerrors.New(ccerrors.CodeDetachedElement, "could not read element position; re-snapshot", err)
	}

	if isHumanMode(mode) {
		d.mu.Lock()
		origin := d.lastCursor
		d.mu.Unlock()
		for _, p := range humanmode.HumanMousePath(d.Rand, origin.X, origin.Y, cx, cy) {
			_ = page.Mouse.MoveTo(proto.Point{X: p.X, Y: p.Y})
		}
	} else {
		_ = page.Mouse.MoveTo(proto.Point{X: cx, Y: cy})
	}
	d.mu.Lock()
	d.lastCursor = rod.Point{X: cx, Y: cy}
	d.mu.Unlock()

	logVerb("hover", "ref", req.Ref)
	return &models.ClickResponse{Ref: req.Ref}, nil
}

// Drag performs a ref-to-ref or coordinate-to-coordinate drag (spec.md
// §4.4 drag).
func (d *Dispatcher) Drag(ctx context.Context, mode models.Mode, req *models.DragRequest) (*models.DragResponse, error) {
	req.Defaults()
	page, entry, err := d.resolvePage(ctx, req.TargetID)
	if err != nil {
		return nil, err
	}

	fromX, fromY, err := d.resolveDragPoint(ctx, page, entry, req.From, req.TimeoutMs)
	if err != nil {
		return nil, err
	}
	toX, toY, err := d.resolveDragPoint(ctx, page, entry, req.To, req.TimeoutMs)
	if err != nil {
		return nil, err
	}

	if isHumanMode(mode) {
		path := humanmode.HumanDragPath(d.Rand, fromX, fromY, toX, toY)
		if err := dragAlongPath(page, path); err != nil {
			return nil, translateLocatorError(err)
		}
	} else {
		if err := page.Mouse.MoveTo(proto.Point{X: fromX, Y: fromY}); err != nil {
			return nil, translateLocatorError(err)
		}
		if err := page.Mouse.Down(proto.InputMouseButtonLeft, 1); err != nil {
			return nil, translateLocatorError(err)
		}
		if err := page.Mouse.MoveTo(proto.Point{X: toX, Y: toY}); err != nil {
			return nil, translateLocatorError(err)
		}
		if err := page.Mouse.Up(proto.InputMouseButtonLeft, 1); err != nil {
			return nil, translateLocatorError(err)
		}
	}

	d.mu.Lock()
	d.lastCursor = rod.Point{X: toX, Y: toY}
	d.mu.Unlock()

	logVerb("drag")
	return &models.DragResponse{}, nil
}

// resolveDragPoint turns a drag endpoint (ref or literal x/y) into a
// viewport point (spec.md §4.4 drag: "each endpoint is either a ref or an
// explicit {x,y}").
func (d *Dispatcher) resolveDragPoint(ctx context.Context, page *rod.Page, entry *pagestate.PageEntry, ep models.DragEndpoint, timeoutMs int) (float64, float64, error) {
	if ep.Ref == "" {
		return ep.X, ep.Y, nil
	}
	el, err := d.resolveElement(ctx, page, entry, ep.Ref, "", "", timeoutMs)
	if err != nil {
		return 0, 0, err
	}
	return elementCenter(el)
}

// dragAlongPath walks a human-mode drag path, holding the mouse button down
// for the whole motion and releasing only at the final point. It waits each
// point's Delay before moving to that point.
func dragAlongPath(page *rod.Page, path []humanmode.PathPoint) error {
	if len(path) == 0 {
		return nil
	}
	time.Sleep(time.Duration(path[0].Delay * float64(time.Millisecond)))
	if err := page.Mouse.MoveTo(proto.Point{X: path[0].X, Y: path[0].Y}); err != nil {
		return err
	}
	if err := page.Mouse.Down(proto.InputMouseButtonLeft, 1); err != nil {
		return err
	}
	for _, p := range path[1:] {
		time.Sleep(time.Duration(p.Delay * float64(time.Millisecond)))
		if err := page.Mouse.MoveTo(proto.Point{X: p.X, Y: p.Y}); err != nil {
			return err
		}
	}
	return page.Mouse.Up(proto.InputMouseButtonLeft, 1)
}
