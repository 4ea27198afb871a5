package manager

import (
	"context"
	"errors"
	"slices"
	"strings"
)

// commandTarget keeps its proxy keys in a config store reached through the
// tool's own config subcommand (git config, npm config, yarn config).
type commandTarget struct {
	name   string
	binary string
	keys   []string
	get    func(key string) []string
	set    func(key, value string) []string
	unset  func(key string) []string
	// absent lists the values the store prints for an unset key.
	absent []string
	// missing reports whether a failed get only means the key is unset.
	missing func(err error) bool
}

func (t *commandTarget) Name() string       { return t.name }
func (t *commandTarget) Binaries() []string { return []string{t.binary} }
func (t *commandTarget) Role() Role         { return RoleHTTP }
func (t *commandTarget) Required() bool     { return false }

func (t *commandTarget) Location(_ *Env) string {
	return t.binary + " config"
}

func (t *commandTarget) Apply(ctx context.Context, env *Env, cfg ProxyConfig) (Action, error) {
	if cfg.HTTP == nil {
		return ActionUnchanged, nil
	}
	want := cfg.HTTPURL()

	action := ActionUnchanged
	for _, key := range t.keys {
		cur, ok, err := t.lookup(ctx, env, key)
		if err != nil {
			return ActionFailed, err
		}
		if ok && cur == want {
			continue
		}
		if _, err := env.Runner.Run(ctx, t.binary, t.set(key, want)...); err != nil {
			return ActionFailed, &ToolError{Target: t.name, Op: "set " + key, Err: err}
		}
		action = ActionApplied
	}
	return action, nil
}

func (t *commandTarget) Remove(ctx context.Context, env *Env) (Action, error) {
	action := ActionUnchanged
	for _, key := range t.keys {
		_, ok, err := t.lookup(ctx, env, key)
		if err != nil {
			return ActionFailed, err
		}
		if !ok {
			continue
		}
		if _, err := env.Runner.Run(ctx, t.binary, t.unset(key)...); err != nil {
			return ActionFailed, &ToolError{Target: t.name, Op: "unset " + key, Err: err}
		}
		action = ActionRemoved
	}
	return action, nil
}

func (t *commandTarget) Present(ctx context.Context, env *Env) (bool, error) {
	for _, key := range t.keys {
		_, ok, err := t.lookup(ctx, env, key)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// lookup returns the current value of key and whether it is set. A failing
// get is an error unless missing says it only means an unset key.
func (t *commandTarget) lookup(ctx context.Context, env *Env, key string) (string, bool, error) {
	out, err := env.Runner.Run(ctx, t.binary, t.get(key)...)
	if err != nil {
		if t.missing != nil && t.missing(err) {
			return "", false, nil
		}
		return "", false, &ToolError{Target: t.name, Op: "get " + key, Err: err}
	}
	out = strings.TrimSpace(out)
	if slices.Contains(t.absent, out) {
		return "", false, nil
	}
	return out, true, nil
}

type exitCoder interface {
	ExitCode() int
}

// exitStatus returns the exit code carried by err, or -1 when the command
// did not run to completion.
func exitStatus(err error) int {
	var ec exitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return -1
}
