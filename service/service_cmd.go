package service

import (
	"github.com/spf13/cobra"
)

// NewReloadCmd returns the `reload` command. unit is resolved when the
// command runs so it sees the loaded configuration.
func NewReloadCmd(unit func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Reload the service manager and restart the container runtime",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return NewReloader(unit()).Reload(cmd.Context())
		},
	}
}
