package generate

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/SmitUplenchwar2687/ps2emu/internal/clock"
	"github.com/SmitUplenchwar2687/ps2emu/pkg/ps2log"
)

const (
	// PatternSteady generates evenly spaced packets or key presses.
	PatternSteady = "steady"
	// PatternBurst generates four bursts separated by long quiet gaps.
	PatternBurst = "burst"
	// PatternRamp starts at four times the interval and speeds up to it.
	PatternRamp = "ramp"
)

// BurstGap is the quiet time between bursts of the burst pattern.
const BurstGap = 2 * time.Second

// handshakeStep is the spacing of Init section bytes.
const handshakeStep = 500 * time.Microsecond

// packetByteGap separates the bytes of one mouse packet.
const packetByteGap = 100 * time.Microsecond

const ack = 0xfa

// Options controls how a synthetic recording is generated.
type Options struct {
	Device   ps2log.Port
	Count    int
	Interval time.Duration
	Pattern  string
	// Note, when set, is shown before the Main section is replayed.
	Note string
	Seed int64
}

// DefaultOptions returns defaults aligned with ps2emu CLI behavior.
func DefaultOptions() Options {
	return Options{
		Device:   ps2log.PortAux,
		Count:    100,
		Interval: 10 * time.Millisecond,
		Pattern:  PatternSteady,
		Seed:     1,
	}
}

// GenerateLog creates a recording of a standard PS/2 mouse or keyboard:
// a reset and enable handshake in Init, then movement packets or key
// presses in Main.
func GenerateLog(opts Options) (*ps2log.ParsedLog, error) {
	if opts.Count <= 0 {
		return nil, fmt.Errorf("count must be positive, got %d", opts.Count)
	}
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", opts.Interval)
	}
	if opts.Device != ps2log.PortAux && opts.Device != ps2log.PortKeyboard {
		return nil, fmt.Errorf("unknown device %v", opts.Device)
	}
	switch opts.Pattern {
	case "":
		opts.Pattern = PatternSteady
	case PatternSteady, PatternBurst, PatternRamp:
	default:
		return nil, fmt.Errorf("unknown pattern %q", opts.Pattern)
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	irq := "(interrupt, 1, 12)"
	if opts.Device == ps2log.PortKeyboard {
		irq = "(interrupt, 0, 1)"
	}

	initSec := &section{irq: irq}
	if opts.Device == ps2log.PortKeyboard {
		keyboardHandshake(initSec)
	} else {
		mouseHandshake(initSec)
	}

	mainSec := &section{irq: irq}
	if opts.Note != "" {
		mainSec.lines = append(mainSec.lines, ps2log.Note(opts.Note))
	}
	for i := 0; i < opts.Count; i++ {
		gap := opts.Interval
		switch opts.Pattern {
		case PatternBurst:
			if i > 0 && i%burstSize(opts.Count) == 0 {
				gap = BurstGap
			}
		case PatternRamp:
			gap += 3 * opts.Interval * time.Duration(opts.Count-1-i) / time.Duration(opts.Count)
		}
		if opts.Device == ps2log.PortKeyboard {
			code := byte(0x10 + rng.Intn(0x30))
			mainSec.device(gap, code)
			mainSec.device(opts.Interval/2, code|0x80)
			continue
		}
		mainSec.device(gap, 0x08)
		mainSec.device(packetByteGap, byte(rng.Intn(16)), byte(rng.Intn(16)))
	}

	return &ps2log.ParsedLog{
		Version: ps2log.MaxVersion,
		Port:    opts.Device,
		Init:    initSec.lines,
		Main:    mainSec.lines,
	}, nil
}

func burstSize(count int) int {
	if n := count / 4; n > 0 {
		return n
	}
	return 1
}

func mouseHandshake(s *section) {
	s.host(handshakeStep, 0xff) // reset
	s.device(handshakeStep, ack, 0xaa, 0x00)
	s.host(handshakeStep, 0xf2) // get ID
	s.device(handshakeStep, ack, 0x00)
	s.host(handshakeStep, 0xf3) // set sample rate
	s.device(handshakeStep, ack)
	s.host(handshakeStep, 0x64)
	s.device(handshakeStep, ack)
	s.host(handshakeStep, 0xf4) // enable
	s.device(handshakeStep, ack)
}

func keyboardHandshake(s *section) {
	s.host(handshakeStep, 0xff) // reset
	s.device(handshakeStep, ack, 0xaa)
	s.host(handshakeStep, 0xf2) // get ID
	s.device(handshakeStep, ack, 0xab, 0x83)
	s.host(handshakeStep, 0xed) // set LEDs
	s.device(handshakeStep, ack)
	s.host(handshakeStep, 0x00)
	s.device(handshakeStep, ack)
}

// section appends events at increasing times.
type section struct {
	lines []ps2log.Line
	now   time.Duration
	irq   string
}

func (s *section) host(gap time.Duration, data ...byte) {
	for _, d := range data {
		s.now += gap
		s.lines = append(s.lines, &ps2log.Event{
			Kind:    ps2log.KindParameter,
			Data:    d,
			HasData: true,
			Time:    clock.Micros(s.now),
			Source:  "(parameter)",
		})
	}
}

func (s *section) device(gap time.Duration, data ...byte) {
	for _, d := range data {
		s.now += gap
		s.lines = append(s.lines, &ps2log.Event{
			Kind:    ps2log.KindInterrupt,
			Data:    d,
			HasData: true,
			Time:    clock.Micros(s.now),
			Source:  s.irq,
		})
	}
}
