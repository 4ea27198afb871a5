package manager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const backupSuffix = ".bak"

type pathScope int

const (
	systemScope pathScope = iota
	userScope
)

// fileTarget owns either a whole single-purpose file or a set of lines,
// identified by exact prefix, inside a shared multi-directive file.
type fileTarget struct {
	name     string
	binaries []string
	role     Role
	required bool
	scope    pathScope
	// paths are tried in order; the first existing one wins, otherwise the
	// first is created.
	paths []string
	// section is the ini-style header the owned lines belong under.
	section string
	// prefixes identify owned lines. Empty means the whole file is owned.
	prefixes []string
	// reset replaces the owned lines on removal when the file has other
	// content, for files whose tool expects the keys to stay defined.
	reset  []string
	render func(cfg ProxyConfig) []string
}

func (t *fileTarget) Name() string       { return t.name }
func (t *fileTarget) Binaries() []string { return t.binaries }
func (t *fileTarget) Role() Role         { return t.role }
func (t *fileTarget) Required() bool     { return t.required }

func (t *fileTarget) Location(env *Env) string { return t.path(env) }

func (t *fileTarget) path(env *Env) string {
	for _, p := range t.paths {
		full := t.resolve(env, p)
		if _, err := os.Stat(full); err == nil {
			return full
		}
	}
	return t.resolve(env, t.paths[0])
}

func (t *fileTarget) resolve(env *Env, p string) string {
	if t.scope == userScope {
		return env.UserPath(p)
	}
	return env.SystemPath(p)
}

func (t *fileTarget) wholeFile() bool { return len(t.prefixes) == 0 }

func (t *fileTarget) owns(line string) bool {
	for _, p := range t.prefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// active reports an owned line that carries a proxy setting, as opposed to
// one of the reset defaults.
func (t *fileTarget) active(line string) bool {
	return t.owns(line) && !slices.Contains(t.reset, line)
}

func (t *fileTarget) Apply(_ context.Context, env *Env, cfg ProxyConfig) (Action, error) {
	if t.role == RoleHTTP && cfg.HTTP == nil {
		return ActionUnchanged, nil
	}
	fragment := t.render(cfg)
	if len(fragment) == 0 {
		return ActionUnchanged, nil
	}

	path := t.path(env)
	current, exists, err := readFile(path)
	if err != nil {
		return ActionFailed, err
	}

	var next string
	if t.wholeFile() {
		next = joinLines(fragment)
	} else {
		next = joinLines(t.merge(splitLines(current), fragment))
	}
	if exists && current == next {
		return ActionUnchanged, nil
	}

	if exists {
		if err := t.backup(env, path); err != nil {
			return ActionFailed, err
		}
	}
	if err := t.write(env, path, next); err != nil {
		return ActionFailed, err
	}
	return ActionApplied, nil
}

func (t *fileTarget) Remove(_ context.Context, env *Env) (Action, error) {
	path := t.path(env)
	current, exists, err := readFile(path)
	if err != nil {
		return ActionFailed, err
	}
	if !exists {
		return ActionUnchanged, nil
	}

	if t.wholeFile() {
		if err := os.Remove(path); err != nil {
			return ActionFailed, fmt.Errorf("failed to remove %s: %w", path, err)
		}
		return ActionRemoved, nil
	}

	lines := splitLines(current)
	if !slices.ContainsFunc(lines, t.active) {
		return ActionUnchanged, nil
	}

	kept := slices.DeleteFunc(slices.Clone(lines), t.owns)
	if t.bare(kept) {
		if err := os.Remove(path); err != nil {
			return ActionFailed, fmt.Errorf("failed to remove %s: %w", path, err)
		}
		return ActionRemoved, nil
	}
	if len(t.reset) > 0 {
		kept = t.merge(lines, t.reset)
	}
	if err := t.backup(env, path); err != nil {
		return ActionFailed, err
	}
	if err := t.write(env, path, joinLines(kept)); err != nil {
		return ActionFailed, err
	}
	return ActionRemoved, nil
}

func (t *fileTarget) Present(_ context.Context, env *Env) (bool, error) {
	current, exists, err := readFile(t.path(env))
	if err != nil || !exists {
		return false, err
	}
	if t.wholeFile() {
		return true, nil
	}
	return slices.ContainsFunc(splitLines(current), t.active), nil
}

// merge drops the owned lines from existing and inserts fragment where the
// first owned line was, else right after the section header, else at the end.
func (t *fileTarget) merge(existing, fragment []string) []string {
	kept := make([]string, 0, len(existing)+len(fragment)+2)
	at := -1
	for _, line := range existing {
		if t.owns(line) {
			if at < 0 {
				at = len(kept)
			}
			continue
		}
		kept = append(kept, line)
	}

	if at < 0 && t.section != "" {
		if i := slices.IndexFunc(kept, func(l string) bool { return strings.TrimSpace(l) == t.section }); i >= 0 {
			at = i + 1
		} else {
			if len(kept) > 0 && strings.TrimSpace(kept[len(kept)-1]) != "" {
				kept = append(kept, "")
			}
			kept = append(kept, t.section)
		}
	}
	if at < 0 {
		at = len(kept)
	}
	return slices.Insert(kept, at, fragment...)
}

// bare reports whether nothing but blank lines and our section header is left.
func (t *fileTarget) bare(lines []string) bool {
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l != "" && l != t.section {
			return false
		}
	}
	return true
}

// backup copies path to its .bak sibling once. An existing backup is never
// overwritten so it always holds the state from before the first apply.
func (t *fileTarget) backup(env *Env, path string) error {
	bak := path + backupSuffix
	if _, err := os.Lstat(bak); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to stat backup %s: %w", bak, err)
	}

	if err := copyFile(path, bak); err != nil {
		return fmt.Errorf("failed to back up %s: %w", path, err)
	}
	if t.scope == userScope {
		return env.chown(bak)
	}
	return nil
}

func (t *fileTarget) write(env *Env, path, content string) error {
	if err := t.mkdirAll(env, filepath.Dir(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if t.scope == userScope {
		if err := env.chown(path); err != nil {
			return fmt.Errorf("failed to chown %s: %w", path, err)
		}
	}
	return nil
}

// mkdirAll creates dir and, for per-user files, hands every directory it
// created over to the invoking user.
func (t *fileTarget) mkdirAll(env *Env, dir string) error {
	var missing []string
	for d := dir; ; d = filepath.Dir(d) {
		if _, err := os.Stat(d); err == nil {
			break
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to stat %s: %w", d, err)
		}
		missing = append(missing, d)
		if parent := filepath.Dir(d); parent == d {
			break
		}
	}
	if len(missing) == 0 {
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("directory creation error: %w", err)
	}
	if t.scope != userScope {
		return nil
	}
	for _, d := range missing {
		if err := env.chown(d); err != nil {
			return fmt.Errorf("failed to chown %s: %w", d, err)
		}
	}
	return nil
}

func readFile(path string) (content string, exists bool, err error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(b), true, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
