package recorder

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/SmitUplenchwar2687/ps2emu/internal/ps2log"
)

var (
	ErrMalformedInterruptEvent = errors.New("malformed interrupt event")
	ErrMalformedEvent          = errors.New("malformed i8042 event")
	ErrNoKeyboardTopology      = errors.New("interrupt received before the keyboard port was discovered")
	ErrUnexpectedEOF           = errors.New("unexpected EOF")
)

// PortDescriptor is an i8042 port announced by the serio bus.
type PortDescriptor struct {
	Name string
	IRQ  int
}

// Classification is the result of classifying one kernel log line. At most
// one field is set; both are nil for lines that are not i8042 traffic.
type Classification struct {
	Port  *PortDescriptor
	Event *ps2log.Event
}

// Classifier turns kernel log lines into port descriptors and events.
// The grammars are unanchored at the start so /dev/kmsg record prefixes
// and dmesg timestamps pass through.
type Classifier struct {
	topologyRegex   *regexp.Regexp
	eventRegex      *regexp.Regexp
	noDataRegex     *regexp.Regexp
	leadingIntRegex *regexp.Regexp
	kmsgRegex       *regexp.Regexp
}

// NewClassifier compiles the i8042 line grammars.
func NewClassifier() *Classifier {
	return &Classifier{
		// serio: i8042 KBD port at 0x60,0x64 irq 1
		topologyRegex: regexp.MustCompile(`(\S+): i8042 (\S+) port at (\S+?),\s*(\S+) irq (\d+)`),
		// [1234] fa <- i8042 (interrupt, 1, 12)
		eventRegex: regexp.MustCompile(`\[\s*(\d+)\]\s+([0-9a-fA-F]{2})\s+(<-|->)\s+i8042\s+\(([a-z-]+)(?:,\s*([^,)]*))?(?:,\s*([^)]*))?\)`),
		// [1234] Interrupt 12, without any data
		noDataRegex:     regexp.MustCompile(`\[\s*(\d+)\]\s+Interrupt\s+(\d+), without any data`),
		leadingIntRegex: regexp.MustCompile(`^\s*(\d+)`),
		// 6,1234,5678901,-;
		kmsgRegex: regexp.MustCompile(`^\d+,\d+,(\d+),[^;]*;`),
	}
}

var eventKinds = map[string]ps2log.Kind{
	"command":   ps2log.KindCommand,
	"parameter": ps2log.KindParameter,
	"return":    ps2log.KindReturn,
	"kbd-data":  ps2log.KindKeyboardData,
	"interrupt": ps2log.KindInterrupt,
}

// Classify inspects a single line. An error means the line matched a
// grammar but carried corrupt fields.
func (c *Classifier) Classify(line string) (Classification, error) {
	if m := c.topologyRegex.FindStringSubmatch(line); m != nil {
		irq, err := strconv.Atoi(m[5])
		if err != nil {
			return Classification{}, fmt.Errorf("port %s: invalid irq %q", m[2], m[5])
		}
		return Classification{Port: &PortDescriptor{Name: m[2], IRQ: irq}}, nil
	}

	if m := c.eventRegex.FindStringSubmatch(line); m != nil {
		kind, ok := eventKinds[m[4]]
		if !ok {
			return Classification{}, nil
		}

		data, err := strconv.ParseUint(m[2], 16, 8)
		if err != nil {
			return Classification{}, fmt.Errorf("%w: data %q in %q", ErrMalformedEvent, m[2], line)
		}

		ev := &ps2log.Event{
			Kind:    kind,
			Data:    byte(data),
			HasData: true,
			IRQ:     -1,
			Source:  line,
		}
		if kind == ps2log.KindInterrupt {
			irq := c.leadingIntRegex.FindStringSubmatch(m[6])
			if irq == nil {
				return Classification{}, fmt.Errorf("%w: %q", ErrMalformedInterruptEvent, line)
			}
			n, err := strconv.Atoi(irq[1])
			if err != nil {
				return Classification{}, fmt.Errorf("%w: %q", ErrMalformedInterruptEvent, line)
			}
			ev.IRQ = n
		}
		return Classification{Event: ev}, nil
	}

	if m := c.noDataRegex.FindStringSubmatch(line); m != nil {
		irq, err := strconv.Atoi(m[2])
		if err != nil {
			return Classification{}, fmt.Errorf("%w: %q", ErrMalformedInterruptEvent, line)
		}
		return Classification{Event: &ps2log.Event{
			Kind:   ps2log.KindInterrupt,
			IRQ:    irq,
			Source: line,
		}}, nil
	}

	return Classification{}, nil
}

// KernelTime returns the time since boot at which the kernel logged a
// /dev/kmsg record, taken from its "pri,seq,usec,flags;" prefix. ok is
// false for lines without that prefix, such as dmesg output.
func (c *Classifier) KernelTime(line string) (time.Duration, bool) {
	m := c.kmsgRegex.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	us, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(us) * time.Microsecond, true
}

// Topology tracks the ports discovered so far.
type Topology struct {
	ports       []PortDescriptor
	keyboardIRQ int
	haveKbd     bool
}

// Add records a port. The port named KBD fixes the keyboard IRQ.
func (t *Topology) Add(p PortDescriptor) {
	t.ports = append(t.ports, p)
	if p.Name == "KBD" {
		t.keyboardIRQ = p.IRQ
		t.haveKbd = true
	}
}

// KeyboardIRQ returns the keyboard port IRQ and whether it is known.
func (t *Topology) KeyboardIRQ() (int, bool) {
	return t.keyboardIRQ, t.haveKbd
}

// Ports returns the discovered ports in discovery order.
func (t *Topology) Ports() []PortDescriptor {
	out := make([]PortDescriptor, len(t.ports))
	copy(out, t.ports)
	return out
}

// Origin resolves which port an event belongs to. Interrupts are matched
// by IRQ against the KBD port, keyboard data is always keyboard, and all
// other traffic is attributed to the aux port.
func (t *Topology) Origin(ev *ps2log.Event) (ps2log.Port, error) {
	switch ev.Kind {
	case ps2log.KindKeyboardData:
		return ps2log.PortKeyboard, nil
	case ps2log.KindInterrupt:
		if !t.haveKbd {
			return 0, ErrNoKeyboardTopology
		}
		if ev.IRQ == t.keyboardIRQ {
			return ps2log.PortKeyboard, nil
		}
		return ps2log.PortAux, nil
	default:
		return ps2log.PortAux, nil
	}
}
