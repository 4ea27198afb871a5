package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"proxy-switch/config"
	"proxy-switch/logging"
	"proxy-switch/manager"
	"proxy-switch/service"
)

// lookPath is swapped out by tests so no real tool is detected.
var lookPath manager.LookPathFunc = exec.LookPath

type options struct {
	configFile string
	debug      bool

	http     string
	socks    string
	noReload bool
	yes      bool

	v   *viper.Viper
	cfg *config.Config
}

type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func newRootCmd() *cobra.Command {
	o := &options{v: config.New()}

	rootCmd := &cobra.Command{
		Use:   "proxy-switch [HOST:PORT]",
		Short: "Toggle proxy settings for system tools",
		Long: `proxy-switch writes or removes the proxy configuration of the system
environment, package managers, git, npm, yarn, pip, curl, wget and docker.

  proxy-switch                           remove every proxy fragment
  proxy-switch 127.0.0.1:7897            one mixed proxy for http and socks
  proxy-switch -http H:P -socks H:P      separate http and socks proxies

Only installed tools are touched. Files are backed up to <file>.bak before
they are first overwritten.

When the docker drop-in changes, the container runtime is restarted after
confirmation. Run "proxy-switch reload" to restart it later.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return &usageError{fmt.Errorf("expected at most one HOST:PORT, got %d arguments", len(args))}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.InitLogger(cmd.ErrOrStderr(), o.debug)

			if err := config.BindFlags(o.v, cmd.Flags()); err != nil {
				return err
			}
			cfg, err := config.Load(o.v, o.configFile)
			if err != nil {
				return err
			}
			o.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSwitch(cmd, o, args)
		},
	}
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err}
	})

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&o.configFile, "config", "", "config file (default "+config.DefaultConfigFile+" when present)")
	pf.String(config.KeyData, config.DefaultDataFile, "run journal file, empty to disable")
	pf.String(config.KeyRoot, "", "prefix for every system path")
	pf.String(config.KeyService, config.DefaultService, "container runtime unit to restart")
	pf.BoolVar(&o.debug, "debug", false, "enable debug logging")

	f := rootCmd.Flags()
	f.StringVar(&o.http, "http", "", "HTTP proxy `HOST:PORT`")
	f.StringVar(&o.socks, "socks", "", "SOCKS5 proxy `HOST:PORT`")
	f.StringSlice(config.KeyNoProxy, manager.DefaultNoProxy, "comma separated hosts that bypass the proxy")
	f.BoolVar(&o.noReload, "noreload", false, "do not restart the container runtime")
	f.BoolVarP(&o.yes, "yes", "y", false, "restart without asking")

	rootCmd.AddCommand(newStatusCmd(o))
	rootCmd.AddCommand(service.NewReloadCmd(func() string { return o.cfg.Service }))
	return rootCmd
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(normalizeArgs(rootCmd, args))
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	cmd, err := rootCmd.ExecuteContextC(ctx)
	if err == nil {
		return 0
	}

	fmt.Fprintln(stderr, "Error:", err)
	var ue *usageError
	if errors.As(err, &ue) {
		fmt.Fprint(stdout, cmd.UsageString())
	}
	return 1
}
