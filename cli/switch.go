package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"proxy-switch/data"
	"proxy-switch/logging"
	"proxy-switch/manager"
	"proxy-switch/service"
)

type reloader interface {
	Reload(ctx context.Context) error
}

// newReloader is swapped out by tests so no service is restarted.
var newReloader = func(unit string) reloader { return service.NewReloader(unit) }

func runSwitch(cmd *cobra.Command, o *options, args []string) error {
	ctx := cmd.Context()

	plan, err := manager.ResolvePlan(args, o.http, o.socks, o.cfg.NoProxy)
	if err != nil {
		if errors.Is(err, manager.ErrUsage) || errors.Is(err, manager.ErrInvalidEndpoint) {
			return &usageError{err}
		}
		return err
	}

	env, err := manager.NewEnv(o.cfg.Root)
	if err != nil {
		return err
	}
	installed := manager.DetectInstalled(manager.Registry, lookPath)

	logging.Info().
		Str("mode", plan.Mode.String()).
		Str("http", plan.Config.HTTPURL()).
		Str("socks", plan.Config.SOCKSURL()).
		Msg("switching proxy")

	report, runErr := manager.Run(ctx, env, manager.Registry, installed, plan)
	if _, err := report.WriteTo(cmd.OutOrStdout()); err != nil {
		return err
	}
	if o.cfg.Data != "" {
		saveRun(env.SystemPath(o.cfg.Data), plan, report)
	}
	if runErr != nil {
		return runErr
	}
	if err := report.Err(); err != nil {
		logging.Warn().Int("failed", len(report.Failed())).Msg("some tools were not updated")
	}

	if o.noReload || !report.Changed(manager.DockerTargetName) {
		return nil
	}
	if !o.yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Restart "+o.cfg.Service+" now?") {
		logging.Info().Str("unit", o.cfg.Service).Msg("restart skipped")
		return nil
	}
	return newReloader(o.cfg.Service).Reload(ctx)
}

// saveRun journals the run. The journal is informational, so failures are
// only logged.
func saveRun(path string, plan manager.Plan, report *manager.Report) {
	store, err := data.Open(path)
	if err != nil {
		logging.Warn().Err(err).Msg("run journal unavailable")
		return
	}
	defer store.Close()

	run := &data.Run{
		Mode:    plan.Mode.String(),
		HTTP:    plan.Config.HTTPURL(),
		SOCKS:   plan.Config.SOCKSURL(),
		NoProxy: plan.Config.NoProxyString(),
		Time:    time.Now(),
	}
	for _, res := range report.Results {
		rec := data.TargetRecord{Name: res.Target, Action: string(res.Action)}
		if res.Err != nil {
			rec.Error = res.Err.Error()
		}
		run.Targets = append(run.Targets, rec)
	}
	if err := store.SaveRun(run); err != nil {
		logging.Warn().Err(err).Msg("failed to journal run")
	}
}
