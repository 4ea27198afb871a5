package manager

import (
	"fmt"
)

const (
	EnvTargetName    = "env"
	DockerTargetName = "docker"
)

// LookPathFunc resolves an executable name, usually exec.LookPath.
type LookPathFunc func(file string) (string, error)

// Registry lists every supported tool in the order they are processed.
var Registry = []ConfigTarget{
	&fileTarget{
		name:     EnvTargetName,
		role:     RoleAny,
		required: true,
		paths:    []string{"/etc/profile.d/proxy.sh"},
		render:   envLines,
	},
	&fileTarget{
		name:     "apt",
		binaries: []string{"apt-get"},
		paths:    []string{"/etc/apt/apt.conf.d/95proxies"},
		render: func(cfg ProxyConfig) []string {
			u := cfg.HTTPURL()
			return []string{
				fmt.Sprintf("Acquire::http::Proxy %q;", u),
				fmt.Sprintf("Acquire::https::Proxy %q;", u),
			}
		},
	},
	&fileTarget{
		name:     "dnf",
		binaries: []string{"dnf", "yum"},
		paths:    []string{"/etc/dnf/dnf.conf", "/etc/yum.conf"},
		section:  "[main]",
		prefixes: []string{"proxy=", "proxy ="},
		render: func(cfg ProxyConfig) []string {
			return []string{"proxy=" + cfg.HTTPURL()}
		},
	},
	&fileTarget{
		name:     "pacman",
		binaries: []string{"pacman"},
		paths:    []string{"/etc/pacman.conf"},
		section:  "[options]",
		prefixes: []string{"XferCommand = /usr/bin/curl -x "},
		render: func(cfg ProxyConfig) []string {
			return []string{"XferCommand = /usr/bin/curl -x " + cfg.HTTPURL() + " -L -C - -f -o %o %u"}
		},
	},
	&fileTarget{
		name:     "zypper",
		binaries: []string{"zypper"},
		paths:    []string{"/etc/sysconfig/proxy"},
		prefixes: []string{"PROXY_ENABLED=", "HTTP_PROXY=", "HTTPS_PROXY=", "NO_PROXY="},
		reset: []string{
			`PROXY_ENABLED="no"`,
			`HTTP_PROXY=""`,
			`HTTPS_PROXY=""`,
			`NO_PROXY="localhost, 127.0.0.1"`,
		},
		render: func(cfg ProxyConfig) []string {
			u := cfg.HTTPURL()
			lines := []string{
				`PROXY_ENABLED="yes"`,
				fmt.Sprintf("HTTP_PROXY=%q", u),
				fmt.Sprintf("HTTPS_PROXY=%q", u),
			}
			if n := cfg.NoProxyString(); n != "" {
				lines = append(lines, fmt.Sprintf("NO_PROXY=%q", n))
			}
			return lines
		},
	},
	&commandTarget{
		name:   "git",
		binary: "git",
		keys:   []string{"http.proxy", "https.proxy"},
		get:    func(key string) []string { return []string{"config", "--global", "--get", key} },
		set:    func(key, value string) []string { return []string{"config", "--global", key, value} },
		unset:  func(key string) []string { return []string{"config", "--global", "--unset-all", key} },
		// git config --get exits 1 for a key that is not set
		missing: func(err error) bool { return exitStatus(err) == 1 },
	},
	&commandTarget{
		name:   "npm",
		binary: "npm",
		keys:   []string{"proxy", "https-proxy"},
		get:    func(key string) []string { return []string{"config", "get", key} },
		set:    func(key, value string) []string { return []string{"config", "set", key, value} },
		unset:  func(key string) []string { return []string{"config", "delete", key} },
		absent: []string{"", "null", "undefined"},
	},
	&commandTarget{
		name:   "yarn",
		binary: "yarn",
		keys:   []string{"proxy", "https-proxy"},
		get:    func(key string) []string { return []string{"config", "get", key} },
		set:    func(key, value string) []string { return []string{"config", "set", key, value} },
		unset:  func(key string) []string { return []string{"config", "delete", key} },
		absent: []string{"", "null", "undefined"},
	},
	&fileTarget{
		name:     "pip",
		binaries: []string{"pip", "pip3"},
		scope:    userScope,
		paths:    []string{".config/pip/pip.conf"},
		section:  "[global]",
		prefixes: []string{"proxy =", "proxy="},
		render: func(cfg ProxyConfig) []string {
			return []string{"proxy = " + cfg.HTTPURL()}
		},
	},
	&fileTarget{
		name:     "curl",
		binaries: []string{"curl"},
		scope:    userScope,
		paths:    []string{".curlrc"},
		prefixes: []string{"proxy =", "proxy=", "noproxy =", "noproxy="},
		render: func(cfg ProxyConfig) []string {
			lines := []string{fmt.Sprintf("proxy = %q", cfg.HTTPURL())}
			if n := cfg.NoProxyString(); n != "" {
				lines = append(lines, fmt.Sprintf("noproxy = %q", n))
			}
			return lines
		},
	},
	&fileTarget{
		name:     "wget",
		binaries: []string{"wget"},
		scope:    userScope,
		paths:    []string{".wgetrc"},
		prefixes: []string{"use_proxy", "http_proxy", "https_proxy", "no_proxy"},
		render: func(cfg ProxyConfig) []string {
			u := cfg.HTTPURL()
			lines := []string{
				"use_proxy = on",
				"http_proxy = " + u,
				"https_proxy = " + u,
			}
			if n := cfg.NoProxyString(); n != "" {
				lines = append(lines, "no_proxy = "+n)
			}
			return lines
		},
	},
	&fileTarget{
		name:     DockerTargetName,
		binaries: []string{"docker"},
		paths:    []string{"/etc/systemd/system/docker.service.d/http-proxy.conf"},
		render: func(cfg ProxyConfig) []string {
			u := cfg.HTTPURL()
			lines := []string{
				"[Service]",
				fmt.Sprintf(`Environment="HTTP_PROXY=%s"`, u),
				fmt.Sprintf(`Environment="HTTPS_PROXY=%s"`, u),
			}
			if n := cfg.NoProxyString(); n != "" {
				lines = append(lines, fmt.Sprintf(`Environment="NO_PROXY=%s"`, n))
			}
			return lines
		},
	},
}

func envLines(cfg ProxyConfig) []string {
	var lines []string
	export := func(key, value string) {
		lines = append(lines, fmt.Sprintf("export %s=%q", key, value))
	}
	if u := cfg.HTTPURL(); u != "" {
		export("http_proxy", u)
		export("https_proxy", u)
		export("HTTP_PROXY", u)
		export("HTTPS_PROXY", u)
	}
	if s := cfg.SOCKSURL(); s != "" {
		export("all_proxy", s)
		export("ALL_PROXY", s)
	}
	if n := cfg.NoProxyString(); n != "" && len(lines) > 0 {
		export("no_proxy", n)
		export("NO_PROXY", n)
	}
	return lines
}

// Lookup returns the registry target with the given name.
func Lookup(name string) (ConfigTarget, bool) {
	for _, t := range Registry {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

type InstalledSet map[string]bool

func (s InstalledSet) Has(name string) bool { return s[name] }

// IsInstalled reports whether any of the target's binaries is in PATH.
func IsInstalled(t ConfigTarget, lookPath LookPathFunc) bool {
	bins := t.Binaries()
	if len(bins) == 0 {
		return true
	}
	for _, bin := range bins {
		if _, err := lookPath(bin); err == nil {
			return true
		}
	}
	return false
}

// DetectInstalled checks every target once and returns the installed ones.
func DetectInstalled(targets []ConfigTarget, lookPath LookPathFunc) InstalledSet {
	installed := make(InstalledSet, len(targets))
	for _, t := range targets {
		if IsInstalled(t, lookPath) {
			installed[t.Name()] = true
		}
	}
	return installed
}
