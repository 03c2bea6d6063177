package dispatcher

import (
	"context"
	"strconv"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"

	"github.com/use-agent/ccbrowser/ccerrors"
	"github.com/use-agent/ccbrowser/humanmode"
	"github.com/use-agent/ccbrowser/models"
)

// namedKeys maps spec.md §4.4 press key names to go-rod's input.Key.
var namedKeys = map[string]input.Key{
	"Enter":      input.Enter,
	"Tab":        input.Tab,
	"Escape":     input.Escape,
	"Backspace":  input.Backspace,
	"Delete":     input.Delete,
	"Space":      input.Space,
	"ArrowUp":    input.ArrowUp,
	"ArrowDown":  input.ArrowDown,
	"ArrowLeft":  input.ArrowLeft,
	"ArrowRight": input.ArrowRight,
	"Home":       input.Home,
	"End":        input.End,
	"PageUp":     input.PageUp,
	"PageDown":   input.PageDown,
}

// Type fills a text-like element, either at once or character-by-character
// in human mode (spec.md §4.4 type, §4.5 inter-key timing).
func (d *Dispatcher) Type(ctx context.Context, mode models.Mode, req *models.TypeRequest) (*models.TypeResponse, error) {
	req.Defaults()
	page, entry, err := d.resolvePage(ctx, req.TargetID)
	if err != nil {
		return nil, err
	}
	el, err := d.resolveElement(ctx, page, entry, req.Ref, req.Text, req.Selector, req.TimeoutMs)
	if err != nil {
		return nil, err
	}

	if isHumanMode(mode) {
		sleep(ctx, humanmode.PreTypeDelay(d.Rand))
		for _, r := range req.Value {
			if err := el.Input(string(r)); err != nil {
				return nil, translateLocatorError(err)
			}
			sleep(ctx, humanmode.InterKeyDelay(d.Rand))
		}
	} else if req.Slowly {
		for _, r := range req.Value {
			if err := el.Input(string(r)); err != nil {
				return nil, translateLocatorError(err)
			}
			sleep(ctx, 75)
		}
	} else {
		if err := el.Input(req.Value); err != nil {
			return nil, translateLocatorError(err)
		}
	}

	if req.Submit {
		if err := el.Type(input.Enter); err != nil {
			return nil, translateLocatorError(err)
		}
	}

	logVerb("type", "ref", req.Ref)
	return &models.TypeResponse{}, nil
}

// Press dispatches a single named key (or, for unrecognized single
// printable characters, inserts the character as text) on the resolved
// element or the page itself.
func (d *Dispatcher) Press(ctx context.Context, req *models.PressRequest) (*models.PressResponse, error) {
	req.Defaults()
	page, entry, err := d.resolvePage(ctx, req.TargetID)
	if err != nil {
		return nil, err
	}

	key, known := namedKeys[req.Key]
	if !known && len([]rune(req.Key)) == 1 {
		if req.Ref != "" {
			el, err := d.resolveElement(ctx, page, entry, req.Ref, "", "", req.TimeoutMs)
			if err != nil {
				return nil, err
			}
			if err := el.Input(req.Key); err != nil {
				return nil, translateLocatorError(err)
			}
		} else if err := page.InsertText(req.Key); err != nil {
			return nil, translateLocatorError(err)
		}
		logVerb("press", "key", req.Key)
		return &models.PressResponse{}, nil
	}
	if !known {
		return nil, ccerrors.New(ccerrors.CodeInvalidInput, "unrecognized key name: "+req.Key, nil)
	}

	if req.HoldMs > 0 {
		if err := page.Keyboard.Press(key); err != nil {
			return nil, translateLocatorError(err)
		}
		sleep(ctx, req.HoldMs)
		if err := page.Keyboard.Release(key); err != nil {
			return nil, translateLocatorError(err)
		}
	} else if err := page.Keyboard.Type(key); err != nil {
		return nil, translateLocatorError(err)
	}

	logVerb("press", "key", req.Key)
	return &models.PressResponse{}, nil
}

// Select chooses one or more <select> options by value (spec.md §4.4
// select).
func (d *Dispatcher) Select(ctx context.Context, req *models.SelectRequest) (*models.SelectResponse, error) {
	req.Defaults()
	page, entry, err := d.resolvePage(ctx, req.TargetID)
	if err != nil {
		return nil, err
	}
	el, err := d.resolveElement(ctx, page, entry, req.Ref, "", req.Selector, req.TimeoutMs)
	if err != nil {
		return nil, err
	}

	if err := el.Select(req.Values, true, rod.SelectorTypeText); err != nil {
		if err2 := el.Select(req.Values, true, rod.SelectorTypeCSSSector); err2 != nil {
			return nil, translateLocatorError(err)
		}
	}

	logVerb("select", "ref", req.Ref, "values", req.Values)
	return &models.SelectResponse{}, nil
}

// Fill applies an ordered batch of {ref,type,value} writes: checkboxes and
// radios are toggled to match the requested boolean, everything else is
// text-filled (spec.md §4.4 fill). In human mode, a pre-field delay
// separates consecutive entries (spec.md §4.4: "Human mode: pre-field
// delay between entries").
func (d *Dispatcher) Fill(ctx context.Context, mode models.Mode, req *models.FillRequest) (*models.FillResponse, error) {
	req.Defaults()
	page, entry, err := d.resolvePage(ctx, req.TargetID)
	if err != nil {
		return nil, err
	}

	filled := 0
	for i, field := range req.Fields {
		if isHumanMode(mode) && i > 0 {
			sleep(ctx, humanmode.PreTypeDelay(d.Rand))
		}
		el, err := d.resolveElement(ctx, page, entry, field.Ref, "", "", req.TimeoutMs)
		if err != nil {
			return &models.FillResponse{Filled: filled}, err
		}

		switch field.Type {
		case "checkbox", "radio":
			want, _ := strconv.ParseBool(field.Value)
			have, _ := elementChecked(el)
			if have != want {
				if err := el.Click(mouseButtons["left"], 1); err != nil {
					return &models.FillResponse{Filled: filled}, translateLocatorError(err)
				}
			}
		default:
			if err := el.Input(field.Value); err != nil {
				return &models.FillResponse{Filled: filled}, translateLocatorError(err)
			}
		}
		filled++
	}

	logVerb("fill", "count", filled)
	return &models.FillResponse{Filled: filled}, nil
}

func elementChecked(el *rod.Element) (bool, error) {
	res, err := el.Eval(`() => this.checked`)
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}
