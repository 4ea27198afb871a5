package manager

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"proxy-switch/logging"
)

func init() {
	logging.DiscardLogger()
}

// exitError mimics the *exec.ExitError of a command that ran and failed.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }
func (e *exitError) ExitCode() int { return e.code }

var errMissingKey = &exitError{code: 1, msg: "exit status 1"}

// fakeRunner emulates the git, npm and yarn config stores in memory.
type fakeRunner struct {
	stores map[string]map[string]string
	calls  []string
	// failSet makes every set/unset of the named binary fail.
	failSet map[string]bool
	// failGet makes every get of the named binary return the error.
	failGet map[string]error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		stores:  make(map[string]map[string]string),
		failSet: make(map[string]bool),
		failGet: make(map[string]error),
	}
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) (string, error) {
	r.calls = append(r.calls, name+" "+strings.Join(args, " "))

	store, ok := r.stores[name]
	if !ok {
		store = make(map[string]string)
		r.stores[name] = store
	}

	rest := make([]string, 0, len(args))
	for _, a := range args {
		if a != "config" && a != "--global" {
			rest = append(rest, a)
		}
	}

	switch {
	case len(rest) == 2 && (rest[0] == "--get" || rest[0] == "get"):
		if err := r.failGet[name]; err != nil {
			return "", err
		}
		v, ok := store[rest[1]]
		if !ok {
			if name == "git" {
				return "", errMissingKey
			}
			return "undefined", nil
		}
		return v, nil
	case len(rest) == 2 && (rest[0] == "--unset-all" || rest[0] == "delete"):
		if r.failSet[name] {
			return "", errors.New("permission denied")
		}
		delete(store, rest[1])
		return "", nil
	case len(rest) == 3 && rest[0] == "set":
		if r.failSet[name] {
			return "", errors.New("permission denied")
		}
		store[rest[1]] = rest[2]
		return "", nil
	case len(rest) == 2:
		if r.failSet[name] {
			return "", errors.New("permission denied")
		}
		store[rest[0]] = rest[1]
		return "", nil
	}
	return "", errors.New("unexpected command: " + name + " " + strings.Join(args, " "))
}

func (r *fakeRunner) count(prefix string) int {
	n := 0
	for _, c := range r.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func newTestEnv(t *testing.T) (*Env, *fakeRunner) {
	t.Helper()
	runner := newFakeRunner()
	return &Env{
		Root:   t.TempDir(),
		Home:   "/home/tester",
		UID:    -1,
		GID:    -1,
		Runner: runner,
	}, runner
}

func mustPlan(t *testing.T, positional []string, httpAddr, socksAddr string, noProxy []string) Plan {
	t.Helper()
	plan, err := ResolvePlan(positional, httpAddr, socksAddr, noProxy)
	if err != nil {
		t.Fatalf("ResolvePlan: %v", err)
	}
	return plan
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// regularFiles lists every regular file below root.
func regularFiles(t *testing.T, root string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			rel, _ := filepath.Rel(root, path)
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return files
}

func allInstalled(targets []ConfigTarget) InstalledSet {
	return DetectInstalled(targets, func(string) (string, error) { return "/usr/bin/x", nil })
}

func fileTargets() []*fileTarget {
	var out []*fileTarget
	for _, t := range Registry {
		if ft, ok := t.(*fileTarget); ok {
			out = append(out, ft)
		}
	}
	return out
}
