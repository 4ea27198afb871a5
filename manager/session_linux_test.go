//go:build linux

package manager

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"golang.org/x/sys/unix"

	. "proxy-switch/testutil"
)

func TestUserRunnerCommand(t *testing.T) {
	t.Setenv("HOME", "/root")

	r := &userRunner{uid: 1000, gid: 1001, homeDir: "/home/tester"}
	cmd := r.command(context.Background(), "git", "config", "--global", "--get", "http.proxy")

	ExpectTrue(t, cmd.SysProcAttr != nil && cmd.SysProcAttr.Credential != nil)
	ExpectEqual(t, cmd.SysProcAttr.Credential.Uid, uint32(1000))
	ExpectEqual(t, cmd.SysProcAttr.Credential.Gid, uint32(1001))

	var homes []string
	for _, kv := range cmd.Env {
		if strings.HasPrefix(kv, "HOME=") {
			homes = append(homes, kv)
		}
	}
	ExpectDeepEqual(t, homes, []string{"HOME=/home/tester"})
}

func TestUserRunnerKeepsCredentialsUnset(t *testing.T) {
	r := &userRunner{uid: -1, gid: -1, homeDir: "/home/tester"}
	cmd := r.command(context.Background(), "true")
	ExpectTrue(t, cmd.SysProcAttr == nil)
}

func TestUserRunnerRun(t *testing.T) {
	home := t.TempDir()
	r := &userRunner{uid: -1, gid: -1, homeDir: home}
	ctx := context.Background()

	out, err := r.Run(ctx, "sh", "-c", `echo "  $HOME  "`)
	ExpectNoError(t, err)
	ExpectEqual(t, out, home)

	_, err = r.Run(ctx, "sh", "-c", "echo 'fatal: bad config line 3' >&2; exit 128")
	ExpectHasError(t, err)
	ExpectEqual(t, exitStatus(err), 128)
	ExpectTrue(t, strings.Contains(err.Error(), "fatal: bad config line 3"))
}

func TestNewEnvWithoutPrivileges(t *testing.T) {
	if unix.Geteuid() == 0 {
		t.Skip("running as root")
	}
	t.Setenv("SUDO_USER", "someone-else")
	t.Setenv("HOME", "/home/tester")

	env, err := NewEnv("/tmp/root")
	ExpectNoError(t, err)
	ExpectEqual(t, env.Home, "/home/tester")
	ExpectEqual(t, env.UID, -1)
	ExpectEqual(t, env.GID, -1)
	ExpectEqual(t, env.UserPath(".curlrc"), "/tmp/root/home/tester/.curlrc")
	ExpectEqual(t, env.Runner.(*userRunner).homeDir, "/tmp/root/home/tester")
}

func TestNewEnvUnderSudo(t *testing.T) {
	if unix.Geteuid() != 0 {
		t.Skip("needs root")
	}
	t.Setenv("SUDO_USER", "root")
	t.Setenv("HOME", "/elsewhere")

	env, err := NewEnv("")
	ExpectNoError(t, err)
	ExpectEqual(t, env.UID, 0)
	ExpectEqual(t, env.GID, 0)
	ExpectEqual(t, env.Home, "/root")

	t.Setenv("SUDO_USER", "no-such-user-proxy-switch")
	_, err = NewEnv("")
	ExpectHasError(t, err)
}

func TestUserFilesAreChowned(t *testing.T) {
	uid, gid := os.Getuid(), os.Getgid()
	if uid == 0 {
		uid, gid = 65534, 65534
	}
	env := &Env{
		Root:   t.TempDir(),
		Home:   "/home/tester",
		UID:    uid,
		GID:    gid,
		Runner: newFakeRunner(),
	}
	target, _ := Lookup("pip")

	plan := mustPlan(t, []string{"127.0.0.1:7897"}, "", "", nil)
	_, err := target.Apply(context.Background(), env, plan.Config)
	ExpectNoError(t, err)

	for _, p := range []string{
		env.UserPath(""),
		env.UserPath(".config"),
		env.UserPath(".config/pip"),
		env.UserPath(".config/pip/pip.conf"),
	} {
		fi, err := os.Lstat(p)
		ExpectNoError(t, err)
		st := fi.Sys().(*syscall.Stat_t)
		ExpectEqual(t, int(st.Uid), uid)
		ExpectEqual(t, int(st.Gid), gid)
	}
	ExpectEqual(t, filepath.Base(target.Location(env)), "pip.conf")
}
