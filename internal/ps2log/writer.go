package ps2log

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Writer serializes a log line by line. Output is buffered; call Flush
// once the last line has been written.
type Writer struct {
	w *bufio.Writer
}

// NewWriter returns a Writer emitting to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteHeader writes the "# ps2emu-record V<n>" line. It must come first.
func (w *Writer) WriteHeader(version int) error {
	_, err := fmt.Fprintf(w.w, "# ps2emu-record V%d\n", version)
	return err
}

// WriteComment writes text as one "# " line per input line. Comments are
// not read back.
func (w *Writer) WriteComment(text string) error {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		if _, err := fmt.Fprintf(w.w, "# %s\n", line); err != nil {
			return err
		}
	}
	return nil
}

// WriteDeviceType writes the "T:" line.
func (w *Writer) WriteDeviceType(p Port) error {
	_, err := fmt.Fprintf(w.w, "T: %c\n", byte(p))
	return err
}

// WriteSection writes a section marker.
func (w *Writer) WriteSection(s Section) error {
	_, err := fmt.Fprintf(w.w, "S: %s\n", s)
	return err
}

// WriteEvent writes an "E:" line. Events without data have no textual
// form and are rejected with ErrNoData.
func (w *Writer) WriteEvent(ev *Event) error {
	if !ev.HasData {
		return ErrNoData
	}

	line := fmt.Sprintf("E: %-10d %c %02x", ev.Time, byte(ev.Direction()), ev.Data)
	if c := ev.Comment(); c != "" {
		line += " # " + c
	}
	_, err := fmt.Fprintln(w.w, line)
	return err
}

// WriteNote writes an "N:" line.
func (w *Writer) WriteNote(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyNote
	}
	if strings.ContainsAny(text, "\r\n") {
		return fmt.Errorf("note must be a single line: %q", text)
	}
	_, err := fmt.Fprintf(w.w, "N: %s\n", text)
	return err
}

// Flush writes buffered output to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// Encode serializes a complete V1 log. Legacy logs are upgraded: their
// events all go to the Main section.
func Encode(out io.Writer, log *ParsedLog) error {
	w := NewWriter(out)
	if err := w.WriteHeader(MaxVersion); err != nil {
		return err
	}
	if err := w.WriteDeviceType(log.Port); err != nil {
		return err
	}

	sections := []struct {
		name  Section
		lines []Line
	}{
		{SectionInit, log.Init},
		{SectionMain, log.Main},
	}
	for _, s := range sections {
		if err := w.WriteSection(s.name); err != nil {
			return err
		}
		for _, l := range s.lines {
			var err error
			switch v := l.(type) {
			case *Event:
				err = w.WriteEvent(v)
			case Note:
				err = w.WriteNote(string(v))
			}
			if err != nil {
				return err
			}
		}
	}
	return w.Flush()
}
