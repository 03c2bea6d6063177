package dispatcher

import (
	"context"

	"github.com/use-agent/ccbrowser/ccerrors"
	"github.com/use-agent/ccbrowser/models"
)

// Evaluate runs a JS function, either against the page itself (no ref) or
// bound to a resolved element's ObjectID (ref given) (spec.md §4.4
// evaluate).
func (d *Dispatcher) Evaluate(ctx context.Context, req *models.EvaluateRequest) (*models.EvaluateResponse, error) {
	page, entry, err := d.resolvePage(ctx, req.TargetID)
	if err != nil {
		return nil, err
	}

	var result interface{}
	if req.Ref != "" {
		el, err := d.resolveElement(ctx, page, entry, req.Ref, "", "", 8000)
		if err != nil {
			return nil, err
		}
		res, err := el.Eval(req.Fn)
		if err != nil {
			return nil, ccerrors.New(ccerrors.CodeInvalidInput, "evaluate function threw or failed to parse", err)
		}
		if err := res.Value.Unmarshal(&result); err != nil {
			result = res.Value.Str()
		}
	} else {
		res, err := page.Context(ctx).Eval(req.Fn)
		if err != nil {
			return nil, ccerrors.New(ccerrors.CodeInvalidInput, "evaluate function threw or failed to parse", err)
		}
		if err := res.Value.Unmarshal(&result); err != nil {
			result = res.Value.Str()
		}
	}

	logVerb("evaluate")
	return &models.EvaluateResponse{Result: result}, nil
}
