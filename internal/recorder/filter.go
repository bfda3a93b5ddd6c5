package recorder

import (
	"github.com/SmitUplenchwar2687/ps2emu/internal/ps2log"
)

// Controller commands the i8042 driver sends while probing its ports. The
// traffic that follows them tests the controller, not the device.
const (
	cmdAuxTest byte = 0xa9
	cmdCtlTest byte = 0xaa
	cmdKbdTest byte = 0xab
	cmdAuxLoop byte = 0xd3
)

func isProbeCommand(b byte) bool {
	switch b {
	case cmdAuxTest, cmdCtlTest, cmdKbdTest, cmdAuxLoop:
		return true
	}
	return false
}

// probeFilter drops controller probe traffic. It is a single latch: a probe
// command starts suppression, the next non-probe command ends it.
type probeFilter struct {
	suppressing bool
}

// Accept reports whether ev survives probe suppression. Commands that are
// accepted still never reach the log.
func (f *probeFilter) Accept(ev *ps2log.Event) bool {
	if ev.Kind != ps2log.KindCommand {
		return !f.suppressing
	}

	if f.suppressing {
		if isProbeCommand(ev.Data) {
			return false
		}
		f.suppressing = false
	}

	if isProbeCommand(ev.Data) {
		f.suppressing = true
		return false
	}
	return true
}

// Suppressing reports the latch state.
func (f *probeFilter) Suppressing() bool {
	return f.suppressing
}

// Filter selects which ports are recorded.
type Filter struct {
	RecordKeyboard bool
	RecordAux      bool
}

// Match returns true if events from origin should be written.
func (f *Filter) Match(origin ps2log.Port) bool {
	switch origin {
	case ps2log.PortKeyboard:
		return f.RecordKeyboard
	case ps2log.PortAux:
		return f.RecordAux
	default:
		return false
	}
}

// DeviceType is the device a recording made with this filter emulates.
func (f *Filter) DeviceType() ps2log.Port {
	if f.RecordKeyboard && !f.RecordAux {
		return ps2log.PortKeyboard
	}
	return ps2log.PortAux
}
