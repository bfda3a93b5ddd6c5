package recorder

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/SmitUplenchwar2687/ps2emu/internal/clock"
	"github.com/SmitUplenchwar2687/ps2emu/internal/metrics"
	"github.com/SmitUplenchwar2687/ps2emu/internal/ps2log"
)

// DefaultCheckInterval is how long the device must stay quiet before the
// recording moves from the Init to the Main section.
const DefaultCheckInterval = 5 * time.Second

// Options configures a capture session.
type Options struct {
	Filter        Filter
	CheckInterval time.Duration
	// Comments are written as "#" header lines after the version line.
	Comments []string
	// SessionID tags published events; a random UUID is used when empty.
	SessionID string
	Sinks     []EventSink
	Metrics   *metrics.Metrics
	Logger    *slog.Logger

	// KernelClock reads the clock /dev/kmsg stamps its records with. When
	// set, events are timed by their record timestamp rather than by when
	// they were read, and events logged before Start are dropped as stale.
	KernelClock func() time.Duration
}

// Session turns kernel log lines into a recording. It owns the probe latch,
// the discovered topology and the Init/Main phase, so independent sessions
// never share state. A Session is not safe for concurrent use; Recorder
// drives it from a single goroutine.
type Session struct {
	w          *ps2log.Writer
	clk        clock.Clock
	classifier *Classifier
	opts       Options
	logger     *slog.Logger

	topology Topology
	probe    probeFilter
	phase    ps2log.Section

	// Section times are offsets on the session timeline: the kernel
	// clock when one is set, otherwise time since epoch on clk.
	epoch        time.Time
	captureStart time.Duration
	sectionStart time.Duration
	lastAccepted time.Duration
	stats        Stats
	started      bool
}

// NewSession creates a session writing the log to w.
func NewSession(w io.Writer, clk clock.Clock, opts Options) *Session {
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = DefaultCheckInterval
	}
	if opts.SessionID == "" {
		opts.SessionID = uuid.NewString()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Session{
		w:          ps2log.NewWriter(w),
		clk:        clk,
		classifier: NewClassifier(),
		opts:       opts,
		logger:     logger.With("component", "recorder", "session", opts.SessionID),
		phase:      ps2log.SectionInit,
		epoch:      clk.Now(),
	}
}

// now returns the current position on the session timeline.
func (s *Session) now() time.Duration {
	if s.opts.KernelClock != nil {
		return s.opts.KernelClock()
	}
	return s.clk.Since(s.epoch)
}

// Start writes the log header and opens the Init section. The section
// clock starts now. Call it before provoking device traffic, such as a
// driver rebind, so that traffic lands inside the capture.
func (s *Session) Start() error {
	if s.started {
		return errors.New("session already started")
	}
	if !s.opts.Filter.RecordKeyboard && !s.opts.Filter.RecordAux {
		return errors.New("nothing to record: both keyboard and aux recording are disabled")
	}

	if err := s.w.WriteHeader(ps2log.MaxVersion); err != nil {
		return err
	}
	for _, c := range s.opts.Comments {
		if err := s.w.WriteComment(c); err != nil {
			return err
		}
	}
	if err := s.w.WriteComment("Session: " + s.opts.SessionID); err != nil {
		return err
	}
	if err := s.w.WriteDeviceType(s.opts.Filter.DeviceType()); err != nil {
		return err
	}
	if err := s.w.WriteSection(ps2log.SectionInit); err != nil {
		return err
	}

	now := s.now()
	s.captureStart = now
	s.sectionStart = now
	s.lastAccepted = now
	s.started = true
	return s.w.Flush()
}

// HandleLine classifies one kernel log line and records it if it is a
// wanted event. Lines that are not i8042 traffic are ignored. Any error
// returned is fatal for the session.
func (s *Session) HandleLine(line string) error {
	s.stats.Lines++
	s.opts.Metrics.ObserveLine()

	c, err := s.classifier.Classify(line)
	if err != nil {
		return err
	}

	switch {
	case c.Port != nil:
		s.topology.Add(*c.Port)
		s.logger.Debug("discovered port", "name", c.Port.Name, "irq", c.Port.IRQ)
		return nil
	case c.Event != nil:
		at, ok := s.eventTime(line)
		if !ok {
			s.stats.Stale++
			s.opts.Metrics.ObserveCapture(metrics.ResultStale)
			s.logger.Debug("skipping event logged before capture start", "line", line)
			return nil
		}
		return s.handleEvent(c.Event, at)
	}
	return nil
}

// eventTime places an event line on the session timeline. With a kernel
// clock the kmsg record timestamp is used, and ok is false for records
// logged before Start: the ring buffer backlog read when /dev/kmsg is
// opened.
func (s *Session) eventTime(line string) (time.Duration, bool) {
	if s.opts.KernelClock != nil {
		if stamp, ok := s.classifier.KernelTime(line); ok {
			return stamp, stamp >= s.captureStart
		}
	}
	return s.now(), true
}

func (s *Session) handleEvent(ev *ps2log.Event, at time.Duration) error {
	s.stats.Events++

	if !s.probe.Accept(ev) {
		s.stats.Suppressed++
		s.opts.Metrics.ObserveCapture(metrics.ResultSuppressed)
		return nil
	}
	if ev.Kind == ps2log.KindCommand {
		s.stats.Commands++
		s.opts.Metrics.ObserveCapture(metrics.ResultCommand)
		return nil
	}
	if !ev.HasData {
		s.stats.NoData++
		s.opts.Metrics.ObserveCapture(metrics.ResultNoData)
		s.logger.Debug("skipping interrupt without data", "irq", ev.IRQ)
		return nil
	}

	origin, err := s.topology.Origin(ev)
	if err != nil {
		return fmt.Errorf("%w: %q", err, ev.Source)
	}
	ev.Origin = origin
	if !s.opts.Filter.Match(origin) {
		s.stats.Filtered++
		s.opts.Metrics.ObserveCapture(metrics.ResultFiltered)
		return nil
	}

	offset := at - s.sectionStart
	if offset < 0 {
		// Logged before a Main transition that was already written.
		offset = 0
	}
	ev.Time = clock.Micros(offset)
	if at > s.lastAccepted {
		s.lastAccepted = at
	}

	if err := s.w.WriteEvent(ev); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}

	s.stats.Recorded++
	s.opts.Metrics.ObserveCapture(metrics.ResultRecorded)

	captured := newCapturedEvent(s.opts.SessionID, s.phase, ev)
	for _, sink := range s.opts.Sinks {
		sink.Publish(captured)
	}
	return nil
}

// Tick runs the periodic phase check. Once the device has been quiet for
// longer than the check interval, it writes the Main section marker and
// restarts the section clock. It returns true exactly once, on the
// transition.
func (s *Session) Tick() (bool, error) {
	if s.phase != ps2log.SectionInit || !s.started {
		return false, nil
	}

	now := s.now()
	if now-s.lastAccepted <= s.opts.CheckInterval {
		return false, nil
	}

	if err := s.w.WriteSection(ps2log.SectionMain); err != nil {
		return false, err
	}
	if err := s.w.Flush(); err != nil {
		return false, err
	}

	s.phase = ps2log.SectionMain
	s.sectionStart = now
	s.logger.Info("device initialization finished, recording main section",
		"init_events", s.stats.Recorded)
	return true, nil
}

// Started reports whether Start has run.
func (s *Session) Started() bool {
	return s.started
}

// Phase returns the section currently being recorded.
func (s *Session) Phase() ps2log.Section {
	return s.phase
}

// Stats returns a snapshot of the session counters.
func (s *Session) Stats() Stats {
	return s.stats
}

// Topology returns the ports discovered so far.
func (s *Session) Topology() []PortDescriptor {
	return s.topology.Ports()
}

// Suppressing reports whether probe traffic is currently being dropped.
func (s *Session) Suppressing() bool {
	return s.probe.Suppressing()
}

// Flush writes any buffered output.
func (s *Session) Flush() error {
	return s.w.Flush()
}
