package ps2log

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestWriter_Lines(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	w.WriteHeader(1)
	w.WriteComment("Kernel: 6.1.0\nDMI: test")
	w.WriteDeviceType(PortKeyboard)
	w.WriteSection(SectionInit)
	w.WriteEvent(&Event{Kind: KindReturn, Data: 0xfa, HasData: true, Time: 42, Source: "[12] fa <- i8042 (return)"})
	w.WriteNote("press a key")
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}

	want := `# ps2emu-record V1
# Kernel: 6.1.0
# DMI: test
T: K
S: Init
E: 42         R fa # (return)
N: press a key
`
	if got := buf.String(); got != want {
		t.Errorf("output mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestWriter_Direction(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindCommand, " S "},
		{KindParameter, " S "},
		{KindKeyboardData, " S "},
		{KindReturn, " R "},
		{KindInterrupt, " R "},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		w := NewWriter(&buf)
		w.WriteEvent(&Event{Kind: tt.kind, Data: 1, HasData: true})
		w.Flush()
		if !strings.Contains(buf.String(), tt.want) {
			t.Errorf("%v: line %q does not contain %q", tt.kind, buf.String(), tt.want)
		}
	}
}

func TestWriter_RejectsDatalessEvent(t *testing.T) {
	w := NewWriter(&bytes.Buffer{})
	if err := w.WriteEvent(&Event{Kind: KindInterrupt}); !errors.Is(err, ErrNoData) {
		t.Errorf("err = %v, want ErrNoData", err)
	}
}

func TestWriter_RejectsEmptyNote(t *testing.T) {
	w := NewWriter(&bytes.Buffer{})
	if err := w.WriteNote("  "); !errors.Is(err, ErrEmptyNote) {
		t.Errorf("err = %v, want ErrEmptyNote", err)
	}
	if err := w.WriteNote("two\nlines"); err == nil {
		t.Error("expected error for multi-line note")
	}
}

func TestEncode_Roundtrip(t *testing.T) {
	orig := &ParsedLog{
		Version: 1,
		Port:    PortAux,
		Init: []Line{
			&Event{Kind: KindParameter, Data: 0xff, HasData: true, Time: 0},
			&Event{Kind: KindReturn, Data: 0xfa, HasData: true, Time: 900},
			&Event{Kind: KindInterrupt, Data: 0xaa, HasData: true, Time: 350000},
			Note("Tap the touchpad"),
		},
		Main: []Line{
			&Event{Kind: KindInterrupt, Data: 0x08, HasData: true, Time: 0},
			&Event{Kind: KindKeyboardData, Data: 0xed, HasData: true, Time: 100},
			Note("Done"),
		},
	}

	var buf bytes.Buffer
	if err := Encode(&buf, orig); err != nil {
		t.Fatal(err)
	}

	got, err := Parse(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Port != orig.Port {
		t.Errorf("Port = %v, want %v", got.Port, orig.Port)
	}
	compareSection(t, "Init", got.Init, orig.Init)
	compareSection(t, "Main", got.Main, orig.Main)
}

func compareSection(t *testing.T, name string, got, want []Line) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: len = %d, want %d", name, len(got), len(want))
	}
	for i := range want {
		switch w := want[i].(type) {
		case *Event:
			g, ok := got[i].(*Event)
			if !ok {
				t.Errorf("%s[%d] is %T, want *Event", name, i, got[i])
				continue
			}
			if g.Time != w.Time || g.Data != w.Data || g.Direction() != w.Direction() {
				t.Errorf("%s[%d] = {time %d dir %c data %02x}, want {time %d dir %c data %02x}",
					name, i, g.Time, g.Direction(), g.Data, w.Time, w.Direction(), w.Data)
			}
		case Note:
			if got[i] != w {
				t.Errorf("%s[%d] = %#v, want %#v", name, i, got[i], w)
			}
		}
	}
}
