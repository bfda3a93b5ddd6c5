package replay

import (
	"io"

	"github.com/SmitUplenchwar2687/ps2emu/internal/clock"
	internalreplay "github.com/SmitUplenchwar2687/ps2emu/internal/replay"
)

// Replayer plays a recording onto a virtual port.
type Replayer = internalreplay.Replayer

// Options tunes replay pacing and output.
type Options = internalreplay.Options

// Summary describes a finished replay.
type Summary = internalreplay.Summary

// Device is the virtual port being driven.
type Device = internalreplay.Device

// Command is one userio request.
type Command = internalreplay.Command

// CommandType is the first byte of a userio command.
type CommandType = internalreplay.CommandType

// Userio is a Device backed by the userio character device.
type Userio = internalreplay.Userio

const (
	CmdRegister      = internalreplay.CmdRegister
	CmdSetPortType   = internalreplay.CmdSetPortType
	CmdSendInterrupt = internalreplay.CmdSendInterrupt
)

// DefaultDevicePath is where the userio device node usually lives.
const DefaultDevicePath = internalreplay.DefaultDevicePath

// ErrDevice wraps every failure talking to the device.
var ErrDevice = internalreplay.ErrDevice

// New creates a Replayer. Notes and mismatches are written to out.
func New(dev Device, clk clock.Clock, opts Options, out io.Writer) *Replayer {
	return internalreplay.New(dev, clk, opts, out)
}

// OpenUserio opens the userio device at path.
func OpenUserio(path string) (*Userio, error) {
	return internalreplay.OpenUserio(path)
}
