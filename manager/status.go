package manager

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/http/httpproxy"
)

type TargetStatus struct {
	Name      string `json:"name"`
	Location  string `json:"location"`
	Installed bool   `json:"installed"`
	Present   bool   `json:"present"`
	Err       error  `json:"-"`
}

// Status reports, for every target, whether the tool is installed and whether
// its proxy fragment is currently in place.
func Status(ctx context.Context, env *Env, targets []ConfigTarget, installed InstalledSet) []TargetStatus {
	statuses := make([]TargetStatus, 0, len(targets))
	for _, t := range targets {
		st := TargetStatus{
			Name:      t.Name(),
			Location:  t.Location(env),
			Installed: installed.Has(t.Name()),
		}
		if st.Installed {
			st.Present, st.Err = t.Present(ctx, env)
		}
		statuses = append(statuses, st)
	}
	return statuses
}

// ReadEnvFile parses the export lines of the environment file written by the
// env target. A missing file yields an empty map.
func ReadEnvFile(env *Env) (map[string]string, error) {
	t, ok := Lookup(EnvTargetName)
	if !ok {
		return nil, fmt.Errorf("no %s target", EnvTargetName)
	}
	content, _, err := readFile(t.Location(env))
	if err != nil {
		return nil, err
	}

	vars := make(map[string]string)
	for _, line := range splitLines(content) {
		kv, ok := strings.CutPrefix(strings.TrimSpace(line), "export ")
		if !ok {
			continue
		}
		key, value, found := strings.Cut(kv, "=")
		if !found {
			continue
		}
		if unquoted, err := strconv.Unquote(value); err == nil {
			value = unquoted
		}
		vars[key] = value
	}
	return vars, nil
}

// EffectiveProxy resolves the proxy a client honouring the environment file
// would use for probe. A nil URL means a direct connection.
func EffectiveProxy(vars map[string]string, probe string) (*url.URL, error) {
	u, err := url.Parse(probe)
	if err != nil {
		return nil, fmt.Errorf("invalid probe url %q: %w", probe, err)
	}
	cfg := &httpproxy.Config{
		HTTPProxy:  firstNonEmpty(vars["HTTP_PROXY"], vars["http_proxy"]),
		HTTPSProxy: firstNonEmpty(vars["HTTPS_PROXY"], vars["https_proxy"]),
		NoProxy:    firstNonEmpty(vars["NO_PROXY"], vars["no_proxy"]),
	}
	return cfg.ProxyFunc()(u)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
