package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"proxy-switch/config"
	"proxy-switch/data"
	"proxy-switch/manager"
)

func newStatusCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show which tools carry a proxy fragment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, o)
		},
	}
	cmd.Flags().String(config.KeyProbeURL, config.DefaultProbeURL, "url used to show the effective proxy")
	return cmd
}

func runStatus(cmd *cobra.Command, o *options) error {
	env, err := manager.NewEnv(o.cfg.Root)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	installed := manager.DetectInstalled(manager.Registry, lookPath)
	statuses := manager.Status(cmd.Context(), env, manager.Registry, installed)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TOOL\tINSTALLED\tPROXY\tLOCATION")
	for _, st := range statuses {
		proxy := yesNo(st.Present)
		if st.Err != nil {
			proxy = "error: " + st.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", st.Name, yesNo(st.Installed), proxy, st.Location)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	vars, err := manager.ReadEnvFile(env)
	if err != nil {
		return err
	}
	proxy, err := manager.EffectiveProxy(vars, o.cfg.ProbeURL)
	if err != nil {
		return err
	}
	if proxy == nil {
		fmt.Fprintf(out, "\n%s: direct\n", o.cfg.ProbeURL)
	} else {
		fmt.Fprintf(out, "\n%s: via %s\n", o.cfg.ProbeURL, proxy)
	}

	if o.cfg.Data != "" {
		printLastRun(out, env.SystemPath(o.cfg.Data))
	}
	return nil
}

func printLastRun(out io.Writer, path string) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(out, "last run: none")
		return
	}
	store, err := data.Open(path)
	if err != nil {
		fmt.Fprintf(out, "last run: unavailable (%v)\n", err)
		return
	}
	defer store.Close()

	run, err := store.LastRun()
	if errors.Is(err, data.ErrNotFound) {
		fmt.Fprintln(out, "last run: none")
		return
	}
	if err != nil {
		fmt.Fprintf(out, "last run: unavailable (%v)\n", err)
		return
	}
	fmt.Fprintf(out, "last run: %s at %s", run.Mode, run.Time.Format("2006-01-02 15:04:05"))
	if run.HTTP != "" {
		fmt.Fprintf(out, " http=%s", run.HTTP)
	}
	if run.SOCKS != "" {
		fmt.Fprintf(out, " socks=%s", run.SOCKS)
	}
	fmt.Fprintln(out)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
