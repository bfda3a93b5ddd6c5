package ps2log

import (
	"bufio"
	"errors"
	"strings"
	"testing"
)

const sampleV1 = `# ps2emu-record V1
# Kernel: 6.1.0
# DMI: LENOVO ThinkPad T440s

T: A
S: Init
E: 0          S f5 # (parameter)
E: 1021       R fa # (interrupt, 1, 12)
N: Move the touchpad now
S: Main
E: 0          R 08 # (interrupt, 1, 12)
E: 7012       R 00 # (interrupt, 1, 12)
E: 14100      R 00 # (interrupt, 1, 12)
`

func TestParse_V1(t *testing.T) {
	log, err := Parse(strings.NewReader(sampleV1))
	if err != nil {
		t.Fatal(err)
	}

	if log.Version != 1 {
		t.Errorf("Version = %d, want 1", log.Version)
	}
	if log.Port != PortAux {
		t.Errorf("Port = %v, want aux", log.Port)
	}
	if len(log.Init) != 3 {
		t.Fatalf("len(Init) = %d, want 3", len(log.Init))
	}
	if len(log.Main) != 3 {
		t.Fatalf("len(Main) = %d, want 3", len(log.Main))
	}

	ev, ok := log.Init[0].(*Event)
	if !ok {
		t.Fatalf("Init[0] is %T, want *Event", log.Init[0])
	}
	if ev.Kind != KindParameter || ev.Data != 0xf5 || ev.Time != 0 || !ev.HasData {
		t.Errorf("Init[0] = %+v, want parameter f5 at 0", ev)
	}

	ev = log.Init[1].(*Event)
	if ev.Kind != KindInterrupt || ev.Data != 0xfa || ev.Time != 1021 {
		t.Errorf("Init[1] = %+v, want interrupt fa at 1021", ev)
	}
	if got := ev.Comment(); got != "(interrupt, 1, 12)" {
		t.Errorf("Comment() = %q, want %q", got, "(interrupt, 1, 12)")
	}

	note, ok := log.Init[2].(Note)
	if !ok || note != "Move the touchpad now" {
		t.Errorf("Init[2] = %#v, want note", log.Init[2])
	}
}

func TestParse_KeyboardDeviceType(t *testing.T) {
	log, err := Parse(strings.NewReader("# ps2emu-record V1\nT: K\nS: Main\nE: 5 R 1c\n"))
	if err != nil {
		t.Fatal(err)
	}
	if log.Port != PortKeyboard {
		t.Errorf("Port = %v, want keyboard", log.Port)
	}
	if ev := log.Main[0].(*Event); ev.Origin != PortKeyboard {
		t.Errorf("Origin = %v, want keyboard", ev.Origin)
	}
}

func TestParse_Legacy(t *testing.T) {
	input := `# ps2emu-record V0
0 A S f4
10 A R fa
# comment in the middle
25 K R 1c
`
	log, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if log.Version != 0 {
		t.Errorf("Version = %d, want 0", log.Version)
	}
	if len(log.Init) != 0 {
		t.Errorf("len(Init) = %d, want 0", len(log.Init))
	}
	if len(log.Main) != 3 {
		t.Fatalf("len(Main) = %d, want 3", len(log.Main))
	}
	// The K origin character does not turn the log into a keyboard log.
	if log.Port != PortAux {
		t.Errorf("Port = %v, want aux", log.Port)
	}
	if ev := log.Main[0].(*Event); ev.Kind != KindParameter || ev.Data != 0xf4 {
		t.Errorf("Main[0] = %+v, want parameter f4", ev)
	}
	if ev := log.Main[2].(*Event); ev.Kind != KindInterrupt || ev.Time != 25 {
		t.Errorf("Main[2] = %+v, want interrupt at 25", ev)
	}
}

func TestParse_DatalessInterrupt(t *testing.T) {
	log, err := Parse(strings.NewReader("# ps2emu-record V1\nS: Main\nE: 40 R NONE\n"))
	if err != nil {
		t.Fatal(err)
	}
	ev := log.Main[0].(*Event)
	if ev.HasData {
		t.Error("HasData = true, want false")
	}

	_, err = Parse(strings.NewReader("# ps2emu-record V1\nS: Main\nE: 40 S NONE\n"))
	if !errors.Is(err, ErrInvalidEventLine) {
		t.Errorf("sent NONE: err = %v, want ErrInvalidEventLine", err)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "", ErrUnexpectedEOF},
		{"no header", "T: A\n", ErrInvalidVersion},
		{"bad header", "# ps2emu-record Vx\n", ErrInvalidVersion},
		{"too new", "# ps2emu-record V2\nS: Main\n", ErrUnsupportedVersion},
		{"bad tag", "# ps2emu-record V1\nX: foo\n", ErrInvalidLineType},
		{"no colon", "# ps2emu-record V1\nhello\n", ErrInvalidLineType},
		{"bad section", "# ps2emu-record V1\nS: Middle\n", ErrInvalidSectionName},
		{"bad device", "# ps2emu-record V1\nT: Q\n", ErrInvalidDeviceType},
		{"bad time", "# ps2emu-record V1\nE: abc R fa\n", ErrInvalidEventLine},
		{"negative time", "# ps2emu-record V1\nE: -5 R fa\n", ErrInvalidEventLine},
		{"bad direction", "# ps2emu-record V1\nE: 5 X fa\n", ErrInvalidEventLine},
		{"bad data", "# ps2emu-record V1\nE: 5 R 1ff\n", ErrInvalidEventLine},
		{"missing data", "# ps2emu-record V1\nE: 5 R\n", ErrInvalidEventLine},
		{"empty note", "# ps2emu-record V1\nN:   \n", ErrEmptyNote},
		{"legacy bad origin", "# ps2emu-record V0\n5 X R fa\n", ErrInvalidEventLine},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := Parse(strings.NewReader(tt.input))
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if log != nil {
				t.Error("partial log returned with error")
			}
		})
	}
}

func TestParse_LineErrorCarriesLine(t *testing.T) {
	_, err := Parse(strings.NewReader("# ps2emu-record V1\nS: Init\nZ: nope\n"))

	var lerr *LineError
	if !errors.As(err, &lerr) {
		t.Fatalf("err = %T, want *LineError", err)
	}
	if lerr.Line != 3 {
		t.Errorf("Line = %d, want 3", lerr.Line)
	}
	if lerr.Text != "Z: nope" {
		t.Errorf("Text = %q, want %q", lerr.Text, "Z: nope")
	}
	if !strings.Contains(err.Error(), "`Z`") {
		t.Errorf("error %q does not name the offending character", err)
	}
}

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion(bufio.NewReader(strings.NewReader("# ps2emu-record V0\n")))
	if err != nil {
		t.Fatal(err)
	}
	if v != 0 {
		t.Errorf("version = %d, want 0", v)
	}
}

func TestParseLines_RejectsUnsupported(t *testing.T) {
	if _, err := ParseLines(strings.NewReader(""), MaxVersion+1); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("err = %v, want ErrUnsupportedVersion", err)
	}
}
