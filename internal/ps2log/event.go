package ps2log

import (
	"fmt"
	"strings"
)

// MaxVersion is the newest log format this package reads and writes.
const MaxVersion = 1

// Kind is the i8042 transaction type of an event.
type Kind int

const (
	KindCommand Kind = iota
	KindParameter
	KindReturn
	KindKeyboardData
	KindInterrupt
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindParameter:
		return "parameter"
	case KindReturn:
		return "return"
	case KindKeyboardData:
		return "kbd-data"
	case KindInterrupt:
		return "interrupt"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Direction returns whether the event travels host->device (S) or
// device->host (R).
func (k Kind) Direction() Direction {
	switch k {
	case KindReturn, KindInterrupt:
		return DirectionReceive
	default:
		return DirectionSend
	}
}

// Direction is the single bit the persisted format keeps of an event's kind.
type Direction byte

const (
	DirectionSend    Direction = 'S'
	DirectionReceive Direction = 'R'
)

// Port identifies one of the two i8042 ports.
type Port byte

const (
	PortKeyboard Port = 'K'
	PortAux      Port = 'A'
)

func (p Port) String() string {
	switch p {
	case PortKeyboard:
		return "keyboard"
	case PortAux:
		return "aux"
	default:
		return fmt.Sprintf("port(%q)", byte(p))
	}
}

// Section names a phase of a recording.
type Section int

const (
	SectionInit Section = iota
	SectionMain
)

func (s Section) String() string {
	if s == SectionInit {
		return "Init"
	}
	return "Main"
}

// Line is an entry of a log section: either *Event or Note.
type Line interface {
	isLine()
}

// Event is a single PS/2 protocol transaction.
type Event struct {
	Kind    Kind
	Data    byte
	HasData bool  // false only for "interrupt without any data"
	Time    int64 // microseconds since the start of the section
	Origin  Port
	IRQ     int

	// Source is the kernel line the event was classified from. Only its
	// parenthesized part ends up in the log.
	Source string
}

func (*Event) isLine() {}

// Direction is shorthand for e.Kind.Direction().
func (e *Event) Direction() Direction {
	return e.Kind.Direction()
}

// Comment returns the first parenthesized group of the source line, e.g.
// "(interrupt, 1, 12)", or "" when there is none.
func (e *Event) Comment() string {
	i := strings.IndexByte(e.Source, '(')
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(e.Source[i:])
}

// Note is an operator-facing instruction printed during replay.
type Note string

func (Note) isLine() {}

// ParsedLog is a decoded recording. It is not modified after parsing.
type ParsedLog struct {
	Version int
	Port    Port
	Init    []Line
	Main    []Line
}

// Events returns the events of a section, skipping notes.
func Events(lines []Line) []*Event {
	var out []*Event
	for _, l := range lines {
		if ev, ok := l.(*Event); ok {
			out = append(out, ev)
		}
	}
	return out
}
