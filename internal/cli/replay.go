package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/ps2emu/internal/clock"
	"github.com/SmitUplenchwar2687/ps2emu/internal/config"
	"github.com/SmitUplenchwar2687/ps2emu/internal/metrics"
	"github.com/SmitUplenchwar2687/ps2emu/internal/ps2log"
	"github.com/SmitUplenchwar2687/ps2emu/internal/replay"
	"github.com/SmitUplenchwar2687/ps2emu/internal/server"
	"github.com/SmitUplenchwar2687/ps2emu/internal/storage"
)

type replayOptions struct {
	maxWait     time.Duration
	eventDelay  time.Duration
	noteDelay   time.Duration
	verbose     bool
	noEvents    bool
	keepRunning bool
	device      string
	fromStore   bool
	outputJSON  bool
	metricsAddr string
	store       storageOptions
}

func (o *replayOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&o.maxWait, "max-wait", 0, "cap the gap between consecutive events (0 = replay recorded gaps)")
	cmd.Flags().DurationVar(&o.eventDelay, "event-delay", 0, "extra pause between the Init and Main sections")
	cmd.Flags().DurationVar(&o.noteDelay, "note-delay", 2*time.Second, "how long each note is shown")
	cmd.Flags().BoolVar(&o.verbose, "verbose", false, "print every byte received from the host")
	cmd.Flags().BoolVar(&o.noEvents, "no-events", false, "only replay device initialization")
	cmd.Flags().BoolVar(&o.keepRunning, "keep-running", false, "keep the virtual device registered after replay until Ctrl-C")
	cmd.Flags().StringVar(&o.device, "device", replay.DefaultDevicePath, "userio device node")
	cmd.Flags().BoolVar(&o.fromStore, "from-store", false, "treat the argument as a log store key")
	cmd.Flags().BoolVar(&o.outputJSON, "json", false, "print the replay summary as JSON on stdout; notes and mismatches go to stderr")
	cmd.Flags().StringVar(&o.metricsAddr, "metrics-addr", "", "serve prometheus replay metrics on this address")
	o.store.addFlags(cmd)
}

func (o *replayOptions) applyConfigIfUnset(cmd *cobra.Command, cfg *config.Config) {
	if !cmd.Flags().Changed("max-wait") {
		o.maxWait = cfg.Replay.MaxWait
	}
	if !cmd.Flags().Changed("event-delay") {
		o.eventDelay = cfg.Replay.EventDelay
	}
	if !cmd.Flags().Changed("note-delay") {
		o.noteDelay = cfg.Replay.NoteDelay
	}
	if !cmd.Flags().Changed("verbose") {
		o.verbose = cfg.Replay.Verbose
	}
	if !cmd.Flags().Changed("no-events") {
		o.noEvents = cfg.Replay.NoEvents
	}
	if !cmd.Flags().Changed("keep-running") {
		o.keepRunning = cfg.Replay.KeepRunning
	}
	if !cmd.Flags().Changed("device") {
		o.device = cfg.Replay.Device
	}
	if !cmd.Flags().Changed("metrics-addr") {
		o.metricsAddr = cfg.Monitor.MetricsAddr
	}
}

func (o *replayOptions) replayConfig() config.ReplayConfig {
	return config.ReplayConfig{
		MaxWait:     o.maxWait,
		EventDelay:  o.eventDelay,
		NoteDelay:   o.noteDelay,
		Device:      o.device,
		Verbose:     o.verbose,
		NoEvents:    o.noEvents,
		KeepRunning: o.keepRunning,
	}
}

func newReplayCmd(global *globalOptions) *cobra.Command {
	opts := &replayOptions{}

	cmd := &cobra.Command{
		Use:   "replay <file|store-key>",
		Short: "Replay a recording through /dev/userio",
		Long: `Registers a virtual serio port with userio and plays a recording onto it.

Device bytes are sent at their recorded times, relative to the start of
their section. Bytes the host sends are read back and compared with the
recording; a mismatch is reported and replay continues.

Recordings with long idle periods can be shortened with --max-wait.`,
		Example: `  sudo ps2emu replay touchpad.log
  sudo ps2emu replay touchpad.log --max-wait 500ms --verbose
  sudo ps2emu replay --from-store x1-carbon --keep-running
  sudo ps2emu replay touchpad.log --json --metrics-addr :9102 > summary.json`,
		Args: requireOneArg("log"),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := global.load(cmd)
			if err != nil {
				return err
			}
			opts.applyConfigIfUnset(cmd, &cfg)
			if err := opts.replayConfig().Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := opts.store.resolve(cmd, cfg.Store)
			if err != nil {
				return err
			}
			log, err := loadLog(ctx, args[0], opts.fromStore, store)
			if err != nil {
				return err
			}

			var m *metrics.Metrics
			if opts.metricsAddr != "" {
				m = metrics.New()
				stopServers, err := startServers([]listener{{opts.metricsAddr, server.New(opts.metricsAddr, server.Options{
					Metrics: m,
					Logger:  logger,
				})}})
				if err != nil {
					return err
				}
				defer stopServers()
			}

			dev, err := replay.OpenUserio(opts.device)
			if err != nil {
				return err
			}
			defer dev.Close()

			// Keep stdout parseable when it carries the JSON summary.
			out := cmd.OutOrStdout()
			messages := out
			if opts.outputJSON {
				messages = cmd.ErrOrStderr()
			}
			r := replay.New(dev, clock.NewRealClock(), replay.Options{
				MaxWait:    opts.maxWait,
				EventDelay: opts.eventDelay,
				NoteDelay:  opts.noteDelay,
				Verbose:    opts.verbose,
				NoEvents:   opts.noEvents,
				Metrics:    m,
				Logger:     logger,
			}, messages)

			if !opts.outputJSON {
				printInfo(out, "Replaying %s (%s, format V%d)", args[0], log.Port, log.Version)
			}
			summary, err := r.Run(ctx, log)
			if err != nil {
				return fmt.Errorf("replay: %w", err)
			}

			if opts.outputJSON {
				if err := writeJSON(out, summary); err != nil {
					return err
				}
			} else {
				printSummary(out, summary)
			}

			if opts.keepRunning {
				printInfo(cmd.ErrOrStderr(), "Replay finished, the virtual device stays registered. Press Ctrl-C to exit.")
				<-ctx.Done()
			}
			return nil
		},
	}

	opts.addFlags(cmd)
	return cmd
}

// loadLog parses a recording from a file, or from the log store when
// fromStore is set.
func loadLog(ctx context.Context, name string, fromStore bool, cfg storage.Config) (*ps2log.ParsedLog, error) {
	if !fromStore {
		return ps2log.ParseFile(name)
	}

	if err := storage.RequireDurable(cfg); err != nil {
		return nil, err
	}
	store, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening log store: %w", err)
	}
	defer store.Close()

	data, err := store.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("loading %q: %w", name, err)
	}
	log, err := ps2log.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", name, err)
	}
	return log, nil
}

func printSummary(w io.Writer, s *replay.Summary) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "--- Replay Summary ---")
	fmt.Fprintf(w, "  Bytes sent:      %d\n", s.Sent)
	fmt.Fprintf(w, "  Bytes expected:  %d\n", s.Expected)
	fmt.Fprintf(w, "  Matched:         %d\n", s.Matched)
	fmt.Fprintf(w, "  Mismatched:      %d\n", s.Mismatched)
	fmt.Fprintf(w, "  Notes:           %d\n", s.Notes)
	fmt.Fprintf(w, "  Duration:        %s\n", s.Duration.Round(time.Millisecond))

	if s.Mismatched > 0 {
		printWarn(w, "The host did not behave as recorded; see the mismatches above.")
	}
}
