package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// normalizeArgs accepts the single-dash long form (-http, -no-proxy=x) by
// rewriting it to the double-dash form pflag expects. Only names of real flags
// are rewritten so unknown ones still fail as unknown.
func normalizeArgs(root *cobra.Command, args []string) []string {
	out := make([]string, 0, len(args))
	for i, arg := range args {
		if arg == "--" {
			out = append(out, args[i:]...)
			break
		}
		if len(arg) > 2 && arg[0] == '-' && arg[1] != '-' {
			name, _, _ := strings.Cut(arg[1:], "=")
			if isLongFlag(root, name) {
				arg = "-" + arg
			}
		}
		out = append(out, arg)
	}
	return out
}

func isLongFlag(root *cobra.Command, name string) bool {
	if name == "help" {
		return true
	}
	for _, c := range append([]*cobra.Command{root}, root.Commands()...) {
		if c.Flags().Lookup(name) != nil || c.PersistentFlags().Lookup(name) != nil {
			return true
		}
	}
	return false
}
