package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/ps2emu/internal/clock"
	"github.com/SmitUplenchwar2687/ps2emu/internal/config"
	"github.com/SmitUplenchwar2687/ps2emu/internal/i8042"
	"github.com/SmitUplenchwar2687/ps2emu/internal/metrics"
	"github.com/SmitUplenchwar2687/ps2emu/internal/recorder"
	"github.com/SmitUplenchwar2687/ps2emu/internal/server"
	"github.com/SmitUplenchwar2687/ps2emu/internal/storage"
	"github.com/SmitUplenchwar2687/ps2emu/internal/sysinfo"
)

type recordOptions struct {
	keyboard      bool
	aux           bool
	input         string
	noRebind      bool
	checkInterval time.Duration
	monitorAddr   string
	metricsAddr   string
	storeKey      string
	store         storageOptions
}

func (o *recordOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.keyboard, "keyboard", false, "record keyboard port traffic")
	cmd.Flags().BoolVar(&o.aux, "aux", true, "record aux (touchpad/mouse) port traffic")
	cmd.Flags().StringVar(&o.input, "input", "/dev/kmsg", "kernel log to read; a regular file is replayed as a saved transcript")
	cmd.Flags().BoolVar(&o.noRebind, "no-rebind", false, "do not re-probe the i8042 ports before recording")
	cmd.Flags().DurationVar(&o.checkInterval, "check-interval", recorder.DefaultCheckInterval, "quiet time after which initialization is considered done")
	cmd.Flags().StringVar(&o.monitorAddr, "monitor-addr", "", "serve the live capture monitor on this address")
	cmd.Flags().StringVar(&o.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	cmd.Flags().StringVar(&o.storeKey, "store-key", "", "also save the recording in the log store under this key")
	o.store.addFlags(cmd)
}

func (o *recordOptions) applyConfigIfUnset(cmd *cobra.Command, cfg *config.Config) {
	if !cmd.Flags().Changed("keyboard") {
		o.keyboard = cfg.Capture.RecordKeyboard
	}
	if !cmd.Flags().Changed("aux") {
		o.aux = cfg.Capture.RecordAux
	}
	if !cmd.Flags().Changed("input") {
		o.input = cfg.Capture.KmsgPath
	}
	if !cmd.Flags().Changed("no-rebind") {
		o.noRebind = !cfg.Capture.Rebind
	}
	if !cmd.Flags().Changed("check-interval") {
		o.checkInterval = cfg.Capture.CheckInterval
	}
	if !cmd.Flags().Changed("monitor-addr") {
		o.monitorAddr = cfg.Monitor.Addr
	}
	if !cmd.Flags().Changed("metrics-addr") {
		o.metricsAddr = cfg.Monitor.MetricsAddr
	}
}

func (o *recordOptions) captureConfig(sysfsRoot string) config.CaptureConfig {
	return config.CaptureConfig{
		RecordKeyboard: o.keyboard,
		RecordAux:      o.aux,
		CheckInterval:  o.checkInterval,
		KmsgPath:       o.input,
		SysfsRoot:      sysfsRoot,
		Rebind:         !o.noRebind,
	}
}

func newRecordCmd(global *globalOptions) *cobra.Command {
	opts := &recordOptions{}

	cmd := &cobra.Command{
		Use:   "record [file]",
		Short: "Record PS/2 traffic from the kernel log",
		Long: `Records the i8042 traffic of the selected ports into a ps2emu log.

ps2emu enables the i8042 debug parameter, re-probes the ports so the
device initialization is captured into the Init section, and switches to
the Main section once the device has been quiet for the check interval.
Recording stops on Ctrl-C. Without a file argument the log goes to stdout.

When --input names a regular file it is read as a saved kernel log and
the i8042 is left alone.`,
		Example: `  sudo ps2emu record touchpad.log
  sudo ps2emu record --keyboard --aux=false keyboard.log
  sudo ps2emu record --monitor-addr :8080 --store-key x1-carbon touchpad.log
  ps2emu record --input dmesg.txt --no-rebind replayable.log`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := global.load(cmd)
			if err != nil {
				return err
			}
			opts.applyConfigIfUnset(cmd, &cfg)

			capture := opts.captureConfig(cfg.Capture.SysfsRoot)
			if err := capture.Validate(); err != nil {
				return err
			}
			store, err := opts.store.resolve(cmd, cfg.Store)
			if err != nil {
				return err
			}
			if opts.storeKey != "" {
				if err := storage.ValidateKey(opts.storeKey); err != nil {
					return err
				}
				if err := storage.RequireDurable(store); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var out io.Writer = cmd.OutOrStdout()
			if len(args) == 1 {
				f, err := os.Create(args[0])
				if err != nil {
					return fmt.Errorf("creating log file: %w", err)
				}
				defer f.Close()
				out = f
			}

			return runRecord(ctx, cmd, recordRun{
				capture:     capture,
				out:         out,
				monitorAddr: opts.monitorAddr,
				metricsAddr: opts.metricsAddr,
				storeKey:    opts.storeKey,
				store:       store,
				logger:      logger,
			})
		},
	}

	opts.addFlags(cmd)
	return cmd
}

type recordRun struct {
	capture     config.CaptureConfig
	out         io.Writer
	monitorAddr string
	metricsAddr string
	storeKey    string
	store       storage.Config
	logger      *slog.Logger
}

func runRecord(ctx context.Context, cmd *cobra.Command, rr recordRun) error {
	logger := rr.logger

	src, err := os.Open(rr.capture.KmsgPath)
	if err != nil {
		return fmt.Errorf("opening kernel log: %w", err)
	}
	defer src.Close()

	live, err := isCharDevice(src)
	if err != nil {
		return err
	}

	var (
		comments    []string
		ctrl        *i8042.Controller
		kernelClock func() time.Duration
	)
	if live {
		collector := &sysinfo.Collector{SysRoot: rr.capture.SysfsRoot, ProcRoot: "/proc"}
		comments = collector.Collect()

		ctrl = &i8042.Controller{Root: rr.capture.SysfsRoot, Logger: logger}
		restore, err := enableDebug(ctrl)
		if err != nil {
			return err
		}
		defer restore()

		kernelClock = i8042.KernelClockFunc()
		if kernelClock == nil {
			logger.Warn("cannot read the kernel log clock, timing events by read time")
		}
	} else {
		logger.Info("reading saved kernel log", "path", rr.capture.KmsgPath)
	}

	m := metrics.New()
	var sinks []recorder.EventSink
	var hub *server.Hub
	if rr.monitorAddr != "" {
		hub = server.NewHub(logger)
		sinks = append(sinks, hub)
	}

	var buf bytes.Buffer
	out := rr.out
	if rr.storeKey != "" {
		out = io.MultiWriter(out, &buf)
	}

	session := recorder.NewSession(out, clock.NewRealClock(), recorder.Options{
		Filter: recorder.Filter{
			RecordKeyboard: rr.capture.RecordKeyboard,
			RecordAux:      rr.capture.RecordAux,
		},
		CheckInterval: rr.capture.CheckInterval,
		Comments:      comments,
		Sinks:         sinks,
		Metrics:       m,
		Logger:        logger,
		KernelClock:   kernelClock,
	})
	rec := recorder.New(session)

	var listeners []listener
	if rr.monitorAddr != "" {
		listeners = append(listeners, listener{rr.monitorAddr, server.New(rr.monitorAddr, server.Options{
			Hub:     hub,
			Metrics: m,
			Stats:   rec.Stats,
			Logger:  logger,
		})})
	}
	if rr.metricsAddr != "" {
		listeners = append(listeners, listener{rr.metricsAddr, server.New(rr.metricsAddr, server.Options{
			Metrics: m,
			Logger:  logger,
		})})
	}
	stopServers, err := startServers(listeners)
	if err != nil {
		return err
	}
	defer stopServers()

	// The capture starts before the re-probe so the whole initialization
	// lands in the Init section.
	if err := session.Start(); err != nil {
		return err
	}
	if live && rr.capture.Rebind {
		ports, err := ctrl.Rebind(ctx)
		if err != nil {
			return fmt.Errorf("re-probing i8042 ports: %w", err)
		}
		logger.Info("re-probed i8042 ports", "ports", len(ports))
	}

	w := cmd.ErrOrStderr()
	if live {
		printInfo(w, "Recording i8042 traffic, press Ctrl-C to stop.")
	}

	err = rec.Run(ctx, src)
	if !live && errors.Is(err, recorder.ErrUnexpectedEOF) {
		// A saved log simply ends.
		err = nil
	}
	stats := rec.Stats()
	printInfo(w, "Recorded %d events (%d probe bytes suppressed, %d filtered)",
		stats.Recorded, stats.Suppressed, stats.Filtered)
	if err != nil {
		return err
	}

	if rr.storeKey != "" {
		if err := saveToStore(rr.store, rr.storeKey, buf.Bytes()); err != nil {
			return err
		}
		printSuccess(w, "Saved recording to the %s store as %q", rr.store.Backend, rr.storeKey)
	}
	return nil
}

func isCharDevice(f *os.File) (bool, error) {
	st, err := f.Stat()
	if err != nil {
		return false, fmt.Errorf("inspecting kernel log: %w", err)
	}
	return st.Mode()&os.ModeCharDevice != 0, nil
}

// enableDebug turns on i8042 debug logging and returns a func restoring
// the previous setting.
func enableDebug(ctrl *i8042.Controller) (func(), error) {
	was, err := ctrl.Debug()
	if err != nil {
		return nil, fmt.Errorf("reading i8042 debug parameter: %w", err)
	}
	if err := ctrl.SetDebug(true); err != nil {
		return nil, fmt.Errorf("enabling i8042 debug output: %w", err)
	}
	return func() {
		if !was {
			ctrl.SetDebug(false)
		}
	}, nil
}

type listener struct {
	addr string
	srv  *server.Server
}

// startServers binds every listener before serving so address errors are
// reported up front.
func startServers(listeners []listener) (func(), error) {
	var started []*server.Server
	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, s := range started {
			s.Shutdown(ctx)
		}
	}

	for _, l := range listeners {
		ln, err := net.Listen("tcp", l.addr)
		if err != nil {
			stop()
			return nil, fmt.Errorf("listening on %s: %w", l.addr, err)
		}
		started = append(started, l.srv)
		go l.srv.StartOnListener(ln)
	}
	return stop, nil
}

func saveToStore(cfg storage.Config, key string, data []byte) error {
	store, err := storage.New(cfg)
	if err != nil {
		return fmt.Errorf("opening log store: %w", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Put(ctx, key, data); err != nil {
		return fmt.Errorf("saving recording: %w", err)
	}
	return nil
}
