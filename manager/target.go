package manager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Role int

const (
	// RoleHTTP targets only understand an http:// proxy.
	RoleHTTP Role = iota
	// RoleAny targets take whichever roles are configured.
	RoleAny
)

type Action string

const (
	ActionApplied   Action = "applied"
	ActionRemoved   Action = "removed"
	ActionUnchanged Action = "unchanged"
	ActionSkipped   Action = "skipped"
	ActionFailed    Action = "failed"
)

// ConfigTarget writes and removes the proxy fragment of one tool.
type ConfigTarget interface {
	Name() string
	// Binaries lists the executables whose presence in PATH means the tool
	// is installed. Empty means always installed.
	Binaries() []string
	Role() Role
	// Required targets abort the run on failure.
	Required() bool
	// Location is the file or config store the target owns, for display.
	Location(env *Env) string
	Apply(ctx context.Context, env *Env, cfg ProxyConfig) (Action, error)
	Remove(ctx context.Context, env *Env) (Action, error)
	Present(ctx context.Context, env *Env) (bool, error)
}

type ToolError struct {
	Target string
	Op     string
	Err    error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Target, e.Op, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

type Result struct {
	Target   string
	Location string
	Action   Action
	Err      error
}

type Report struct {
	Mode    Mode
	Results []Result
}

func (r *Report) add(res Result) {
	r.Results = append(r.Results, res)
}

// Get returns the result recorded for target, if any.
func (r *Report) Get(target string) (Result, bool) {
	for _, res := range r.Results {
		if res.Target == target {
			return res, true
		}
	}
	return Result{}, false
}

// Changed reports whether target had its fragment written or removed.
func (r *Report) Changed(target string) bool {
	res, ok := r.Get(target)
	return ok && (res.Action == ActionApplied || res.Action == ActionRemoved)
}

func (r *Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if res.Action == ActionFailed {
			failed = append(failed, res)
		}
	}
	return failed
}

// Err joins the errors of every failed target.
func (r *Report) Err() error {
	var errs []error
	for _, res := range r.Failed() {
		errs = append(errs, res.Err)
	}
	return errors.Join(errs...)
}

func (r *Report) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder
	title := cases.Title(language.English)

	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TOOL\tACTION\tLOCATION")
	for _, res := range r.Results {
		line := fmt.Sprintf("%s\t%s\t%s", res.Target, title.String(string(res.Action)), res.Location)
		if res.Err != nil {
			line += "\t" + res.Err.Error()
		}
		fmt.Fprintln(tw, line)
	}
	tw.Flush()

	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}
