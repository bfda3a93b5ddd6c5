package ps2log

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

const maxLineLength = 64 * 1024

var versionRegex = regexp.MustCompile(`^#\s*ps2emu-record\s+V(\d+)\s*$`)

// ParseVersion consumes the header line and returns the declared version.
func ParseVersion(r *bufio.Reader) (int, error) {
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("reading header: %w", err)
	}
	if line == "" {
		return 0, ErrUnexpectedEOF
	}

	m := versionRegex.FindStringSubmatch(strings.TrimRight(line, "\r\n"))
	if m == nil {
		return 0, &LineError{Line: 1, Text: strings.TrimSpace(line), Err: ErrInvalidVersion}
	}
	version, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, &LineError{Line: 1, Text: strings.TrimSpace(line), Err: ErrInvalidVersion}
	}
	if version > MaxVersion {
		return 0, fmt.Errorf("%w: V%d (newest supported is V%d)", ErrUnsupportedVersion, version, MaxVersion)
	}
	return version, nil
}

// Parse reads a complete log: header followed by body.
func Parse(r io.Reader) (*ParsedLog, error) {
	br := bufio.NewReader(r)
	version, err := ParseVersion(br)
	if err != nil {
		return nil, err
	}
	p := &parser{version: version, lineNum: 1}
	return p.parse(br)
}

// ParseFile opens and parses the log at path.
func ParseFile(path string) (*ParsedLog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	log, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return log, nil
}

// ParseLines parses a log body whose header has already been consumed.
func ParseLines(r io.Reader, version int) (*ParsedLog, error) {
	if version < 0 {
		return nil, ErrInvalidVersion
	}
	if version > MaxVersion {
		return nil, fmt.Errorf("%w: V%d", ErrUnsupportedVersion, version)
	}
	p := &parser{version: version}
	return p.parse(r)
}

type parser struct {
	version int
	lineNum int
	log     *ParsedLog
	dest    *[]Line
}

func (p *parser) parse(r io.Reader) (*ParsedLog, error) {
	// Legacy logs can only be replayed reliably for aux devices.
	p.log = &ParsedLog{Version: p.version, Port: PortAux}
	p.dest = &p.log.Main

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineLength)
	for scanner.Scan() {
		p.lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}

		var err error
		if p.version == 0 {
			err = p.parseLegacyEvent(line)
		} else {
			err = p.parseTagged(line)
		}
		if err != nil {
			return nil, &LineError{Line: p.lineNum, Text: line, Err: err}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading log: %w", err)
	}

	if p.version >= 1 {
		for _, lines := range [][]Line{p.log.Init, p.log.Main} {
			for _, ev := range Events(lines) {
				ev.Origin = p.log.Port
			}
		}
	}
	return p.log, nil
}

func (p *parser) parseTagged(line string) error {
	if len(line) < 2 || line[1] != ':' {
		return fmt.Errorf("%w `%c`", ErrInvalidLineType, line[0])
	}
	body := strings.TrimSpace(line[2:])

	switch line[0] {
	case 'T':
		switch body {
		case "K":
			p.log.Port = PortKeyboard
		case "A":
			p.log.Port = PortAux
		default:
			return fmt.Errorf("%w `%s`", ErrInvalidDeviceType, body)
		}
	case 'S':
		switch body {
		case "Init":
			p.dest = &p.log.Init
		case "Main":
			p.dest = &p.log.Main
		default:
			return fmt.Errorf("%w `%s`", ErrInvalidSectionName, body)
		}
	case 'E':
		ev, err := parseEvent(body)
		if err != nil {
			return err
		}
		*p.dest = append(*p.dest, ev)
	case 'N':
		if body == "" {
			return ErrEmptyNote
		}
		*p.dest = append(*p.dest, Note(body))
	default:
		return fmt.Errorf("%w `%c`", ErrInvalidLineType, line[0])
	}
	return nil
}

// parseEvent parses "<time> <S|R> <hh|NONE> [# comment]".
func parseEvent(body string) (*Event, error) {
	var comment string
	if i := strings.IndexByte(body, '#'); i >= 0 {
		comment = strings.TrimSpace(body[i+1:])
		body = body[:i]
	}

	fields := strings.Fields(body)
	if len(fields) != 3 {
		return nil, ErrInvalidEventLine
	}

	ev := &Event{Source: comment}
	t, err := parseTime(fields[0])
	if err != nil {
		return nil, err
	}
	ev.Time = t

	if err := ev.setDirection(fields[1]); err != nil {
		return nil, err
	}

	if fields[2] == "NONE" {
		if ev.Kind != KindInterrupt {
			return nil, fmt.Errorf("%w: sent event without data", ErrInvalidEventLine)
		}
		return ev, nil
	}
	data, err := parseData(fields[2])
	if err != nil {
		return nil, err
	}
	ev.Data, ev.HasData = data, true
	return ev, nil
}

// parseLegacyEvent parses a V0 line "<time> <K|A> <S|R> <hh>".
func (p *parser) parseLegacyEvent(line string) error {
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return ErrInvalidEventLine
	}

	ev := &Event{}
	t, err := parseTime(fields[0])
	if err != nil {
		return err
	}
	ev.Time = t

	switch fields[1] {
	case "K":
		ev.Origin = PortKeyboard
	case "A":
		ev.Origin = PortAux
	default:
		return fmt.Errorf("%w: origin %q", ErrInvalidEventLine, fields[1])
	}

	if err := ev.setDirection(fields[2]); err != nil {
		return err
	}

	data, err := parseData(fields[3])
	if err != nil {
		return err
	}
	ev.Data, ev.HasData = data, true

	p.log.Main = append(p.log.Main, ev)
	return nil
}

// setDirection maps the S/R bit back to a kind. Return and KeyboardData
// cannot be told apart from this bit, and userio does not need them to be.
func (e *Event) setDirection(s string) error {
	switch s {
	case "S":
		e.Kind = KindParameter
	case "R":
		e.Kind = KindInterrupt
	default:
		return fmt.Errorf("%w: direction %q", ErrInvalidEventLine, s)
	}
	return nil
}

func parseTime(s string) (int64, error) {
	t, err := strconv.ParseInt(s, 10, 64)
	if err != nil || t < 0 {
		return 0, fmt.Errorf("%w: time %q", ErrInvalidEventLine, s)
	}
	return t, nil
}

func parseData(s string) (byte, error) {
	n, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: data %q", ErrInvalidEventLine, s)
	}
	return byte(n), nil
}
