package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootOptions holds flags shared by every command.
type rootOptions struct {
	configPath string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCommand builds the opensoak CLI. Without a subcommand it serves.
func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "opensoak",
		Short:         "OpenSoak spa controller",
		Long:          "Safety engine, scheduler and HTTP API for a hot tub controller.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default configs/config.yml)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newProbeCommand(opts))

	return cmd
}
