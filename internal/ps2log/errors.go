package ps2log

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidLineType    = errors.New("invalid line type")
	ErrInvalidSectionName = errors.New("invalid section name")
	ErrInvalidEventLine   = errors.New("invalid event line")
	ErrInvalidDeviceType  = errors.New("invalid device type")
	ErrEmptyNote          = errors.New("note is empty")
	ErrInvalidVersion     = errors.New("invalid log file version")
	ErrUnsupportedVersion = errors.New("unsupported log file version")
	ErrUnexpectedEOF      = errors.New("reached unexpected EOF")
	ErrNoData             = errors.New("event has no data byte")
)

// LineError reports a parse failure on a specific input line.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Text)
}

func (e *LineError) Unwrap() error {
	return e.Err
}
