package replay

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/SmitUplenchwar2687/ps2emu/internal/ps2log"
)

// DefaultDevicePath is the userio character device.
const DefaultDevicePath = "/dev/userio"

// ErrDevice wraps every failure talking to the device interface.
var ErrDevice = errors.New("device interface error")

// CommandType is the first byte of a userio command.
type CommandType uint8

const (
	CmdRegister      CommandType = 0
	CmdSetPortType   CommandType = 1
	CmdSendInterrupt CommandType = 2
)

func (t CommandType) String() string {
	switch t {
	case CmdRegister:
		return "register"
	case CmdSetPortType:
		return "set-port-type"
	case CmdSendInterrupt:
		return "send-interrupt"
	default:
		return fmt.Sprintf("command(%d)", uint8(t))
	}
}

// serio port types understood by the i8042 drivers.
const (
	SerioPortType8042   byte = 0x01
	SerioPortType8042XL byte = 0x06
)

// PortType maps a recorded device type to the serio port type userio
// should announce.
func PortType(p ps2log.Port) byte {
	if p == ps2log.PortKeyboard {
		return SerioPortType8042XL
	}
	return SerioPortType8042
}

// Command is one userio request. It goes over the wire as two bytes.
type Command struct {
	Type CommandType
	Data byte
}

// MarshalBinary encodes the command.
func (c Command) MarshalBinary() ([]byte, error) {
	return []byte{byte(c.Type), c.Data}, nil
}

// Device is the virtual port being driven.
type Device interface {
	SendCommand(Command) error
	// ReadByte blocks until the host writes a byte to the port.
	ReadByte() (byte, error)
	Close() error
}

// Userio is a Device backed by the userio character device.
type Userio struct {
	f    io.ReadWriteCloser
	path string
}

// OpenUserio opens the userio device at path for reading and writing.
func OpenUserio(path string) (*Userio, error) {
	if path == "" {
		path = DefaultDevicePath
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", ErrDevice, path, err)
	}
	return &Userio{f: f, path: path}, nil
}

func (u *Userio) SendCommand(c Command) error {
	buf, _ := c.MarshalBinary()
	n, err := u.f.Write(buf)
	if err != nil {
		return fmt.Errorf("%w: %s to %s: %w", ErrDevice, c.Type, u.path, err)
	}
	if n != len(buf) {
		return fmt.Errorf("%w: %s to %s: short write", ErrDevice, c.Type, u.path)
	}
	return nil
}

func (u *Userio) ReadByte() (byte, error) {
	var b [1]byte
	for {
		n, err := u.f.Read(b[:])
		if n == 1 {
			return b[0], nil
		}
		if err != nil {
			return 0, fmt.Errorf("%w: reading %s: %w", ErrDevice, u.path, err)
		}
	}
}

func (u *Userio) Close() error {
	if err := u.f.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %w", ErrDevice, u.path, err)
	}
	return nil
}
