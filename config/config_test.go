package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"

	"proxy-switch/manager"
	. "proxy-switch/testutil"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	ExpectNoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(New(), "")
	ExpectNoError(t, err)
	ExpectDeepEqual(t, cfg.NoProxy, manager.DefaultNoProxy)
	ExpectEqual(t, cfg.Data, DefaultDataFile)
	ExpectEqual(t, cfg.Service, DefaultService)
	ExpectEqual(t, cfg.ProbeURL, DefaultProbeURL)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
no-proxy:
  - localhost
  - corp.example
service: containerd
probe-url: https://example.org
data: ""
`)
	cfg, err := Load(New(), path)
	ExpectNoError(t, err)
	ExpectDeepEqual(t, cfg.NoProxy, []string{"localhost", "corp.example"})
	ExpectEqual(t, cfg.Service, "containerd")
	ExpectEqual(t, cfg.ProbeURL, "https://example.org")
	ExpectEqual(t, cfg.Data, "")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml"))
	ExpectHasError(t, err)
}

func TestLoadInvalid(t *testing.T) {
	path := writeConfig(t, "probe-url: not a url\n")
	_, err := Load(New(), path)
	ExpectHasError(t, err)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("PROXY_SWITCH_NO_PROXY", "a,b,c")
	t.Setenv("PROXY_SWITCH_SERVICE", "podman")

	cfg, err := Load(New(), "")
	ExpectNoError(t, err)
	ExpectDeepEqual(t, cfg.NoProxy, []string{"a", "b", "c"})
	ExpectEqual(t, cfg.Service, "podman")
}

func TestFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, "no-proxy: [localhost]\nservice: containerd\n")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringSlice(KeyNoProxy, nil, "")
	flags.String(KeyService, DefaultService, "")
	ExpectNoError(t, flags.Parse([]string{"--no-proxy", "a,b,c"}))

	v := New()
	ExpectNoError(t, BindFlags(v, flags))
	cfg, err := Load(v, path)
	ExpectNoError(t, err)
	ExpectDeepEqual(t, cfg.NoProxy, []string{"a", "b", "c"})
	// unchanged flags do not shadow the file
	ExpectEqual(t, cfg.Service, "containerd")
}
