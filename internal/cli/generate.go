package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/ps2emu/internal/config"
	"github.com/SmitUplenchwar2687/ps2emu/internal/ps2log"
	"github.com/SmitUplenchwar2687/ps2emu/pkg/generate"
)

func newGenerateCmd() *cobra.Command {
	var (
		output       string
		configOutput string
		count        int
		device       string
		interval     time.Duration
		note         string
		pattern      string
		seed         int64
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate sample logs and config",
		Long: `Generates sample data for testing and experimentation.

Use "generate log" to create a synthetic recording.
Use "generate config" to create an example config file.`,
	}

	logCmd := &cobra.Command{
		Use:   "log",
		Short: "Generate a synthetic recording",
		Long: `Creates a recording of a standard PS/2 mouse or keyboard: a reset and
enable handshake in the Init section, followed by movement packets or
key presses in the Main section.`,
		Example: `  ps2emu generate log --output mouse.log --count 200
  ps2emu generate log --device keyboard --output keys.log --interval 50ms`,
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := parseDevice(device)
			if err != nil {
				return err
			}

			log, err := generate.GenerateLog(generate.Options{
				Device:   port,
				Count:    count,
				Interval: interval,
				Pattern:  pattern,
				Note:     note,
				Seed:     seed,
			})
			if err != nil {
				return err
			}

			var out io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating file: %w", err)
				}
				defer f.Close()
				out = f
			}

			if err := ps2log.Encode(out, log); err != nil {
				return fmt.Errorf("writing log: %w", err)
			}

			if output != "" && output != "-" {
				printSuccess(cmd.ErrOrStderr(), "Generated %s log with %d main events to %s",
					port, len(ps2log.Events(log.Main)), output)
			}
			return nil
		},
	}

	logCmd.Flags().StringVar(&output, "output", "", "output file path (default stdout)")
	logCmd.Flags().IntVar(&count, "count", 100, "number of packets or key presses in the Main section")
	logCmd.Flags().StringVar(&device, "device", "aux", "device type (aux, keyboard)")
	logCmd.Flags().DurationVar(&interval, "interval", 10*time.Millisecond, "time between packets")
	logCmd.Flags().StringVar(&note, "note", "", "note shown before the Main section is replayed")
	logCmd.Flags().StringVar(&pattern, "pattern", generate.PatternSteady, "timing pattern (steady, burst, ramp)")
	logCmd.Flags().Int64Var(&seed, "seed", 1, "random seed (0 = time based)")

	configCmd := &cobra.Command{
		Use:     "config",
		Short:   "Generate an example config file",
		Example: `  ps2emu generate config --output ps2emu.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configOutput == "" {
				configOutput = "ps2emu.yaml"
			}
			if err := config.WriteExample(configOutput); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Generated example config at %s", configOutput)
			return nil
		},
	}

	configCmd.Flags().StringVar(&configOutput, "output", "ps2emu.yaml", "output file path")

	cmd.AddCommand(logCmd, configCmd)
	return cmd
}

func parseDevice(s string) (ps2log.Port, error) {
	switch s {
	case "aux", "mouse", "touchpad":
		return ps2log.PortAux, nil
	case "keyboard", "kbd":
		return ps2log.PortKeyboard, nil
	default:
		return 0, fmt.Errorf("unknown device %q, must be aux or keyboard", s)
	}
}
