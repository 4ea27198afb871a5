package manager

import (
	"context"
	"errors"
	"fmt"

	"proxy-switch/logging"
)

var ErrRequiredTarget = errors.New("required target failed")

// Run applies or removes the fragment of every installed target, one at a
// time. A failing target is recorded in the report and the pass continues,
// except for a required target which aborts the run with the partial report.
func Run(ctx context.Context, env *Env, targets []ConfigTarget, installed InstalledSet, plan Plan) (*Report, error) {
	report := &Report{Mode: plan.Mode}

	for _, t := range targets {
		res := Result{Target: t.Name(), Location: t.Location(env)}

		if !installed.Has(t.Name()) {
			res.Action = ActionSkipped
			report.add(res)
			logging.Debug().Str("tool", t.Name()).Msg("not installed, skipped")
			continue
		}

		var err error
		switch plan.Mode {
		case ModeSet:
			res.Action, err = t.Apply(ctx, env, plan.Config)
		default:
			res.Action, err = t.Remove(ctx, env)
		}
		if err != nil {
			res.Action = ActionFailed
			res.Err = toolError(t.Name(), plan.Mode, err)
		}
		report.add(res)
		logResult(res)

		if res.Err != nil && t.Required() {
			return report, fmt.Errorf("%w: %w", ErrRequiredTarget, res.Err)
		}
	}
	return report, nil
}

func toolError(target string, mode Mode, err error) error {
	var te *ToolError
	if errors.As(err, &te) {
		return err
	}
	op := "apply"
	if mode == ModeDisable {
		op = "remove"
	}
	return &ToolError{Target: target, Op: op, Err: err}
}

func logResult(res Result) {
	if res.Err != nil {
		logging.Err(res.Err).Str("tool", res.Target).Str("location", res.Location).Msg("failed")
		return
	}
	ev := logging.Info()
	if res.Action == ActionUnchanged {
		ev = logging.Debug()
	}
	ev.Str("tool", res.Target).Str("location", res.Location).Msg(string(res.Action))
}
