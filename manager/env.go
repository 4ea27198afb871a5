package manager

import (
	"context"
	"os"
	"path/filepath"
)

// Runner executes an external config command and returns its trimmed stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// Env is everything a target needs to locate its files and run its commands.
type Env struct {
	// Root prefixes every path the targets touch. Empty means "/".
	Root string
	// Home is the invoking user's home directory, relative to Root.
	Home string
	// UID and GID own per-user files created on behalf of the invoking user.
	// Negative values leave ownership alone.
	UID, GID int
	Runner   Runner
}

func (e *Env) SystemPath(p string) string {
	return filepath.Join(e.root(), p)
}

func (e *Env) UserPath(p string) string {
	return filepath.Join(e.root(), e.Home, p)
}

func (e *Env) root() string {
	if e.Root == "" {
		return "/"
	}
	return e.Root
}

func (e *Env) chown(path string) error {
	if e.UID < 0 || e.GID < 0 {
		return nil
	}
	return os.Lchown(path, e.UID, e.GID)
}
