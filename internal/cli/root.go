package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/ps2emu/internal/config"
	"github.com/SmitUplenchwar2687/ps2emu/internal/logging"
	"github.com/SmitUplenchwar2687/ps2emu/internal/recorder"
	"github.com/SmitUplenchwar2687/ps2emu/internal/replay"
)

// Version is set at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

// NewRootCmd creates the root ps2emu command.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "ps2emu",
		Short: "Record and replay PS/2 device traffic",
		Long: `ps2emu captures the traffic between the i8042 controller and a PS/2
keyboard or touchpad from the kernel log, and replays a recording through
/dev/userio so the kernel sees the same device again.

Recording needs root and the i8042 debug parameter, which ps2emu sets
for you. Replay needs the userio module loaded.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a yaml config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "log format (text, json)")

	root.AddCommand(
		newRecordCmd(opts),
		newReplayCmd(opts),
		newInspectCmd(opts),
		newListCmd(opts),
		newGenerateCmd(),
	)

	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		w := root.ErrOrStderr()
		printError(w, "Error: %v", err)
		if hint := remediation(err); hint != "" {
			printWarn(w, "%s", hint)
		}
		return 1
	}
	return 0
}

func remediation(err error) string {
	switch {
	case errors.Is(err, recorder.ErrNoKeyboardTopology):
		return "The kernel log no longer holds the i8042 port announcements, most likely\n" +
			"because the log buffer overflowed. Reboot, or boot with a larger log_buf_len,\n" +
			"and start recording before the buffer fills up again."
	case errors.Is(err, replay.ErrDevice):
		return "Make sure the userio module is loaded (modprobe userio) and that you can\n" +
			"write to the device node."
	default:
		return ""
	}
}

// load reads the config file and environment, lets explicitly set global
// flags win and validates the result. The returned logger writes to the
// command's stderr.
func (o *globalOptions) load(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return cfg, nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Logging.Level = o.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = o.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return cfg, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.New(cmd.ErrOrStderr(), logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	return cfg, logger, nil
}

func requireOneArg(name string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("expected exactly one %s argument, got %d", name, len(args))
		}
		return nil
	}
}
