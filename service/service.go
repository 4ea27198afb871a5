package service

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/docker/docker/client"
	"github.com/kardianos/service"
	"github.com/shirou/gopsutil/v4/process"

	"proxy-switch/logging"
)

// Program satisfies service.Interface. The unit is owned by the container
// runtime, so there is nothing to run in-process.
type Program struct{}

func (p *Program) Start(s service.Service) error { return nil }
func (p *Program) Stop(s service.Service) error  { return nil }

// ProxyInfo is the proxy setting the running daemon reports.
type ProxyInfo struct {
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// Reloader makes the service manager pick up the drop-in unit and restarts
// the container runtime so it runs with the new proxy environment.
type Reloader struct {
	Unit    string
	Process string

	daemonReload func(ctx context.Context) error
	running      func(ctx context.Context, name string) (bool, error)
	restart      func(unit string) error
	verify       func(ctx context.Context) (*ProxyInfo, error)
}

func NewReloader(unit string) *Reloader {
	r := &Reloader{
		Unit:         unit,
		Process:      unit,
		daemonReload: systemdDaemonReload,
		running:      processRunning,
		restart:      restartUnit,
	}
	if unit == "docker" {
		r.Process = "dockerd"
		r.verify = dockerProxyInfo
	}
	return r
}

func (r *Reloader) Reload(ctx context.Context) error {
	if err := r.daemonReload(ctx); err != nil {
		return fmt.Errorf("error reloading service manager: %w", err)
	}

	running, err := r.running(ctx, r.Process)
	if err != nil {
		return fmt.Errorf("error checking %s: %w", r.Process, err)
	}
	if !running {
		logging.Info().Str("process", r.Process).Msg("not running, restart skipped")
		return nil
	}

	logging.Info().Str("unit", r.Unit).Msg("restarting")
	if err := r.restart(r.Unit); err != nil {
		return fmt.Errorf("error restarting %s: %w", r.Unit, err)
	}

	if r.verify == nil {
		return nil
	}
	info, err := r.verify(ctx)
	if err != nil {
		logging.Warn().Err(err).Str("unit", r.Unit).Msg("could not verify daemon proxy")
		return nil
	}
	logging.Info().
		Str("http", info.HTTPProxy).
		Str("https", info.HTTPSProxy).
		Str("no_proxy", info.NoProxy).
		Msg("daemon proxy")
	return nil
}

func systemdDaemonReload(ctx context.Context) error {
	if _, err := exec.LookPath("systemctl"); err != nil {
		// not a systemd host, the drop-in is not read anyway
		return nil
	}
	out, err := exec.CommandContext(ctx, "systemctl", "daemon-reload").CombinedOutput()
	if err != nil {
		return fmt.Errorf("systemctl daemon-reload: %w: %s", err, out)
	}
	return nil
}

func processRunning(ctx context.Context, name string) (bool, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return false, err
	}
	for _, p := range procs {
		n, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

func restartUnit(unit string) error {
	svc, err := service.New(&Program{}, &service.Config{Name: unit})
	if err != nil {
		return fmt.Errorf("error creating service: %w", err)
	}
	return svc.Restart()
}

func dockerProxyInfo(ctx context.Context) (*ProxyInfo, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, err
	}
	defer cli.Close()

	info, err := cli.Info(ctx)
	if err != nil {
		return nil, err
	}
	return &ProxyInfo{
		HTTPProxy:  info.HTTPProxy,
		HTTPSProxy: info.HTTPSProxy,
		NoProxy:    info.NoProxy,
	}, nil
}
