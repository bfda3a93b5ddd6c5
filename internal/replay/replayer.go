package replay

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/fatih/color"

	"github.com/SmitUplenchwar2687/ps2emu/internal/clock"
	"github.com/SmitUplenchwar2687/ps2emu/internal/metrics"
	"github.com/SmitUplenchwar2687/ps2emu/internal/ps2log"
)

// MinSectionDelay is the pause between the Init and Main sections, giving
// the host driver time to finish probing before normal traffic starts.
const MinSectionDelay = time.Second

// Options tunes replay pacing and output.
type Options struct {
	// MaxWait caps the gap between consecutive events. Zero means the
	// recorded gaps are honoured in full.
	MaxWait time.Duration
	// EventDelay is added to MinSectionDelay between sections.
	EventDelay time.Duration
	// NoteDelay is how long each note is shown before replay resumes.
	NoteDelay time.Duration
	// Verbose prints every byte that matched the recording.
	Verbose bool
	// NoEvents stops after the Init section.
	NoEvents bool

	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Summary describes a finished replay.
type Summary struct {
	Sent       int           `json:"sent"`
	Expected   int           `json:"expected"`
	Matched    int           `json:"matched"`
	Mismatched int           `json:"mismatched"`
	Notes      int           `json:"notes"`
	Duration   time.Duration `json:"duration"`
}

// Replayer plays a parsed log onto a Device.
type Replayer struct {
	dev    Device
	clk    clock.Clock
	opts   Options
	out    io.Writer
	logger *slog.Logger
}

// New creates a Replayer. Operator-facing messages (notes, mismatches)
// are written to out.
func New(dev Device, clk clock.Clock, opts Options, out io.Writer) *Replayer {
	if out == nil {
		out = io.Discard
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Replayer{
		dev:    dev,
		clk:    clk,
		opts:   opts,
		out:    out,
		logger: logger.With("component", "replay"),
	}
}

// run holds the state of a single replay pass.
type run struct {
	summary Summary
	// desynced is set once the first mismatch has been reported.
	desynced bool
}

// Run registers the virtual port and replays log. Mismatching host bytes
// are reported and replay continues; device errors and ctx cancellation
// stop it. The returned Summary is valid even when err is non-nil.
func (r *Replayer) Run(ctx context.Context, log *ps2log.ParsedLog) (*Summary, error) {
	st := &run{}
	began := r.clk.Now()
	defer func() { st.summary.Duration = r.clk.Since(began) }()

	if err := r.register(log.Port); err != nil {
		return &st.summary, err
	}

	if log.Version >= 1 {
		if err := r.playSection(ctx, st, ps2log.SectionInit, log.Init); err != nil {
			return &st.summary, err
		}
		if r.opts.NoEvents {
			return &st.summary, nil
		}
		if err := clock.Sleep(ctx, r.clk, MinSectionDelay+r.opts.EventDelay); err != nil {
			return &st.summary, err
		}
	}

	if err := r.playSection(ctx, st, ps2log.SectionMain, log.Main); err != nil {
		return &st.summary, err
	}
	return &st.summary, nil
}

func (r *Replayer) register(port ps2log.Port) error {
	if err := r.dev.SendCommand(Command{Type: CmdSetPortType, Data: PortType(port)}); err != nil {
		return err
	}
	if err := r.dev.SendCommand(Command{Type: CmdRegister}); err != nil {
		return err
	}
	r.logger.Debug("registered virtual port", "device_type", port)
	return nil
}

func (r *Replayer) playSection(ctx context.Context, st *run, section ps2log.Section, lines []ps2log.Line) error {
	r.logger.Debug("replaying section", "section", section, "lines", len(lines))

	start := r.clk.Now()
	var (
		offset time.Duration
		prev   *ps2log.Event
	)

	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch l := line.(type) {
		case ps2log.Note:
			st.summary.Notes++
			color.New(color.FgCyan, color.Bold).Fprintf(r.out, "Note: %s\n", string(l))
			if err := clock.Sleep(ctx, r.clk, r.opts.NoteDelay); err != nil {
				return err
			}
			offset -= r.opts.NoteDelay

		case *ps2log.Event:
			if r.opts.MaxWait > 0 && prev != nil {
				gap := clock.FromMicros(l.Time - prev.Time)
				if gap > r.opts.MaxWait {
					offset += gap - r.opts.MaxWait
				}
			}
			prev = l

			var err error
			if l.Direction() == ps2log.DirectionReceive {
				err = r.sendEvent(ctx, st, l, start, offset)
			} else {
				err = r.expectEvent(st, l)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// sendEvent waits until the event is due and raises it as an interrupt.
func (r *Replayer) sendEvent(ctx context.Context, st *run, ev *ps2log.Event, start time.Time, offset time.Duration) error {
	target := clock.FromMicros(ev.Time)
	elapsed := r.clk.Since(start) + offset
	if elapsed < target {
		if err := clock.Sleep(ctx, r.clk, target-elapsed); err != nil {
			return err
		}
	}

	if !ev.HasData {
		return nil
	}
	if err := r.dev.SendCommand(Command{Type: CmdSendInterrupt, Data: ev.Data}); err != nil {
		return err
	}
	st.summary.Sent++
	r.opts.Metrics.ObserveReplay("sent")
	return nil
}

// expectEvent reads the next host byte and compares it with the recording.
// The read has no timeout.
func (r *Replayer) expectEvent(st *run, ev *ps2log.Event) error {
	got, err := r.dev.ReadByte()
	if err != nil {
		return err
	}
	st.summary.Expected++
	r.opts.Metrics.ObserveReplay("expected")

	if got == ev.Data {
		st.summary.Matched++
		if r.opts.Verbose {
			fmt.Fprintf(r.out, "Received expected byte %02x\n", got)
		}
		return nil
	}

	st.summary.Mismatched++
	r.opts.Metrics.ObserveMismatch()
	color.New(color.FgRed).Fprintf(r.out, "Expected %02x, received %02x\n", ev.Data, got)
	if !st.desynced {
		st.desynced = true
		color.New(color.FgYellow, color.Bold).Fprintln(r.out,
			"Warning: the device has gone out of sync with the recording, "+
				"replay may not reproduce the original behavior")
	}
	return nil
}
