//go:build linux

package manager

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

// NewEnv resolves the invoking user. Under sudo the per-user files and the
// config commands belong to SUDO_USER rather than root.
func NewEnv(root string) (*Env, error) {
	env := &Env{Root: root, UID: -1, GID: -1}

	sudoUser := os.Getenv("SUDO_USER")
	if sudoUser != "" && unix.Geteuid() == 0 {
		u, err := user.Lookup(sudoUser)
		if err != nil {
			return nil, fmt.Errorf("failed to lookup user %s: %w", sudoUser, err)
		}
		uid, err := strconv.Atoi(u.Uid)
		if err != nil {
			return nil, fmt.Errorf("invalid uid %q for %s: %w", u.Uid, sudoUser, err)
		}
		gid, err := strconv.Atoi(u.Gid)
		if err != nil {
			return nil, fmt.Errorf("invalid gid %q for %s: %w", u.Gid, sudoUser, err)
		}
		env.Home, env.UID, env.GID = u.HomeDir, uid, gid
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		env.Home = home
	}

	env.Runner = &userRunner{
		uid:     env.UID,
		gid:     env.GID,
		homeDir: env.UserPath(""),
	}
	return env, nil
}

type userRunner struct {
	uid, gid int
	homeDir  string
}

func (r *userRunner) Run(ctx context.Context, name string, arg ...string) (string, error) {
	var stdout, stderr bytes.Buffer

	cmd := r.command(ctx, name, arg...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("%s %s: %w", name, strings.Join(arg, " "), err)
		}
		return "", fmt.Errorf("%s %s: %w: %s", name, strings.Join(arg, " "), err, msg)
	}
	return strings.TrimSpace(stdout.String()), nil
}

func (r *userRunner) command(ctx context.Context, name string, arg ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, arg...)
	if r.uid >= 0 && r.gid >= 0 {
		cmd.SysProcAttr = &syscall.SysProcAttr{
			Credential: &syscall.Credential{
				Uid: uint32(r.uid),
				Gid: uint32(r.gid),
			},
		}
	}

	for _, kv := range os.Environ() {
		if !strings.HasPrefix(kv, "HOME=") {
			cmd.Env = append(cmd.Env, kv)
		}
	}
	cmd.Env = append(cmd.Env, "HOME="+r.homeDir)
	return cmd
}
