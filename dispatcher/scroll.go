package dispatcher

import (
	"context"
	"fmt"

	"github.com/use-agent/ccbrowser/ccerrors"
	"github.com/use-agent/ccbrowser/humanmode"
	"github.com/use-agent/ccbrowser/models"
)

var scrollDeltas = map[string][2]int{
	"down":  {0, 1},
	"up":    {0, -1},
	"right": {1, 0},
	"left":  {-1, 0},
}

// Scroll scrolls an element into view (ref given) or the viewport by a
// direction/amount (spec.md §4.4 scroll, §4.5 human-mode step splitting).
func (d *Dispatcher) Scroll(ctx context.Context, mode models.Mode, req *models.ScrollRequest) (*models.ScrollResponse, error) {
	req.Defaults()
	page, entry, err := d.resolvePage(ctx, req.TargetID)
	if err != nil {
		return nil, err
	}

	if req.Ref != "" {
		el, err := d.resolveElement(ctx, page, entry, req.Ref, "", "", 8000)
		if err != nil {
			return nil, err
		}
		if err := el.ScrollIntoView(); err != nil {
			return nil, translateLocatorError(err)
		}
		logVerb("scroll", "ref", req.Ref)
		return &models.ScrollResponse{}, nil
	}

	if isHumanMode(mode) {
		sleep(ctx, humanmode.PreScrollDelay(d.Rand))
	}

	delta, ok := scrollDeltas[req.Direction]
	if !ok {
		return nil, ccerrors.New(ccerrors.CodeInvalidInput, fmt.Sprintf("unknown scroll direction %q", req.Direction), nil)
	}
	dx, dy := delta[0]*req.Amount, delta[1]*req.Amount

	if isHumanMode(mode) {
		steps := 3 + d.Rand.IntN(4) // 3-6 steps
		stepDx, stepDy := dx/steps, dy/steps
		for i := 0; i < steps; i++ {
			jitterX := stepDx + d.Rand.IntN(11) - 5
			jitterY := stepDy + d.Rand.IntN(11) - 5
			if err := page.Mouse.Scroll(float64(jitterX), float64(jitterY), 1); err != nil {
				return nil, translateLocatorError(err)
			}
			sleep(ctx, 30+d.Rand.IntN(70))
		}
	} else if err := page.Mouse.Scroll(float64(dx), float64(dy), 1); err != nil {
		return nil, translateLocatorError(err)
	}

	logVerb("scroll", "direction", req.Direction, "amount", req.Amount)
	return &models.ScrollResponse{}, nil
}
