package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"opensoak/internal/config"
	"opensoak/internal/hardware"
	"opensoak/internal/logger"
)

func newProbeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Read both temperature probes and the relay states once, then exit",
		Long: `Opens the configured hardware backend, prints one reading per probe
and the current relay states, and closes it again. Closing turns every
relay off, so do not run this while the controller is serving.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			hw, err := hardware.New(cfg.Hardware, logger.Get(cfg.LoggerOptions()).Named("hardware"))
			if err != nil {
				return fmt.Errorf("init hardware: %w", err)
			}
			printProbe(cmd.OutOrStdout(), hw)
			return hw.Close()
		},
	}
}

func printProbe(w io.Writer, hw hardware.Controller) {
	for _, p := range []struct {
		name  string
		probe hardware.Probe
	}{
		{"primary", hardware.ProbePrimary},
		{"hi_limit", hardware.ProbeHiLimit},
	} {
		if v := hw.ReadTemperature(p.probe); v == hardware.SensorFault {
			fmt.Fprintf(w, "%-10s sensor fault\n", p.name)
		} else {
			fmt.Fprintf(w, "%-10s %.1f F\n", p.name, v)
		}
	}
	fmt.Fprintf(w, "%-10s %t\n", "flow", hw.FlowDetected())

	states := hw.AllStates()
	names := make([]string, 0, len(states))
	for name := range states {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "%-10s %t\n", name, states[name])
	}
}
