package recorder

import (
	"io"

	"github.com/SmitUplenchwar2687/ps2emu/internal/clock"
	internalrecorder "github.com/SmitUplenchwar2687/ps2emu/internal/recorder"
)

// Session turns i8042 kernel log lines into a recording.
type Session = internalrecorder.Session

// Recorder drives a Session from a kernel log stream.
type Recorder = internalrecorder.Recorder

// Options configures a capture session.
type Options = internalrecorder.Options

// Filter selects which ports are recorded.
type Filter = internalrecorder.Filter

// CapturedEvent is a recorded event as published to sinks.
type CapturedEvent = internalrecorder.CapturedEvent

// EventSink receives every recorded event.
type EventSink = internalrecorder.EventSink

// Stats counts what a session accepted and dropped.
type Stats = internalrecorder.Stats

var (
	// ErrNoKeyboardTopology is returned when an interrupt arrives before
	// the keyboard port was discovered.
	ErrNoKeyboardTopology = internalrecorder.ErrNoKeyboardTopology
	// ErrUnexpectedEOF is returned when the kernel log stream ends.
	ErrUnexpectedEOF = internalrecorder.ErrUnexpectedEOF
)

// NewSession creates a session writing the log to w.
func NewSession(w io.Writer, clk clock.Clock, opts Options) *Session {
	return internalrecorder.NewSession(w, clk, opts)
}

// New creates a Recorder for session.
func New(session *Session) *Recorder {
	return internalrecorder.New(session)
}
