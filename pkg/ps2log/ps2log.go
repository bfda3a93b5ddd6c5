// Package ps2log reads and writes ps2emu recordings.
package ps2log

import (
	"io"

	internalps2log "github.com/SmitUplenchwar2687/ps2emu/internal/ps2log"
)

// MaxVersion is the newest log format this package reads and writes.
const MaxVersion = internalps2log.MaxVersion

// ParsedLog is a decoded recording.
type ParsedLog = internalps2log.ParsedLog

// Line is an entry of a log section: either *Event or Note.
type Line = internalps2log.Line

// Event is a single PS/2 protocol transaction.
type Event = internalps2log.Event

// Note is an operator-facing instruction printed during replay.
type Note = internalps2log.Note

// Kind is the i8042 transaction type of an event.
type Kind = internalps2log.Kind

// Direction is S (host to device) or R (device to host).
type Direction = internalps2log.Direction

// Port identifies one of the two i8042 ports.
type Port = internalps2log.Port

// Section names a phase of a recording.
type Section = internalps2log.Section

// Writer serializes a log line by line.
type Writer = internalps2log.Writer

const (
	KindCommand      = internalps2log.KindCommand
	KindParameter    = internalps2log.KindParameter
	KindReturn       = internalps2log.KindReturn
	KindKeyboardData = internalps2log.KindKeyboardData
	KindInterrupt    = internalps2log.KindInterrupt

	DirectionSend    = internalps2log.DirectionSend
	DirectionReceive = internalps2log.DirectionReceive

	PortKeyboard = internalps2log.PortKeyboard
	PortAux      = internalps2log.PortAux

	SectionInit = internalps2log.SectionInit
	SectionMain = internalps2log.SectionMain
)

// Parse reads a complete log.
func Parse(r io.Reader) (*ParsedLog, error) {
	return internalps2log.Parse(r)
}

// ParseFile opens and parses the log at path.
func ParseFile(path string) (*ParsedLog, error) {
	return internalps2log.ParseFile(path)
}

// Encode serializes a complete log in the newest format.
func Encode(w io.Writer, log *ParsedLog) error {
	return internalps2log.Encode(w, log)
}

// NewWriter returns a Writer emitting to w.
func NewWriter(w io.Writer) *Writer {
	return internalps2log.NewWriter(w)
}

// Events returns the events of a section, skipping notes.
func Events(lines []Line) []*Event {
	return internalps2log.Events(lines)
}
