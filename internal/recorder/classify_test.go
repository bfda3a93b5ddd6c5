package recorder

import (
	"errors"
	"testing"
	"time"

	"github.com/SmitUplenchwar2687/ps2emu/internal/ps2log"
)

func TestClassify_Topology(t *testing.T) {
	c := NewClassifier()

	got, err := c.Classify("serio: i8042 KBD port at 0x60,0x64 irq 1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Port == nil {
		t.Fatal("expected a port descriptor")
	}
	if got.Port.Name != "KBD" || got.Port.IRQ != 1 {
		t.Errorf("port = %+v, want KBD irq 1", *got.Port)
	}
}

func TestClassify_KmsgPrefix(t *testing.T) {
	c := NewClassifier()

	got, err := c.Classify("6,312,1583221,-;serio: i8042 AUX port at 0x60,0x64 irq 12")
	if err != nil {
		t.Fatal(err)
	}
	if got.Port == nil || got.Port.Name != "AUX" || got.Port.IRQ != 12 {
		t.Errorf("port = %+v, want AUX irq 12", got.Port)
	}
}

func TestClassifier_KernelTime(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		line string
		want time.Duration
		ok   bool
	}{
		{"6,312,1583221,-;i8042: [395] fa <- i8042 (interrupt, 1, 12)", 1583221 * time.Microsecond, true},
		{"6,313,42,-,caller=T1;serio: i8042 KBD port at 0x60,0x64 irq 1", 42 * time.Microsecond, true},
		{"[    1.583221] i8042: [395] fa <- i8042 (interrupt, 1, 12)", 0, false},
		{"i8042: [395] fa <- i8042 (interrupt, 1, 12)", 0, false},
	}
	for _, tt := range tests {
		got, ok := c.KernelTime(tt.line)
		if ok != tt.ok || got != tt.want {
			t.Errorf("KernelTime(%q) = %v, %v, want %v, %v", tt.line, got, ok, tt.want, tt.ok)
		}
	}
}

func TestClassify_Events(t *testing.T) {
	tests := []struct {
		line string
		kind ps2log.Kind
		data byte
		irq  int
	}{
		{"i8042: [1234] d4 -> i8042 (command)", ps2log.KindCommand, 0xd4, -1},
		{"i8042: [1235] f4 -> i8042 (parameter)", ps2log.KindParameter, 0xf4, -1},
		{"i8042: [1236] 55 <- i8042 (return)", ps2log.KindReturn, 0x55, -1},
		{"i8042: [1237] 1c <- i8042 (kbd-data)", ps2log.KindKeyboardData, 0x1c, -1},
		{"i8042: [1238] fa <- i8042 (interrupt, 1, 12)", ps2log.KindInterrupt, 0xfa, 12},
		{"i8042: [  99] 00 <- i8042 (interrupt, 0, 1, timeout)", ps2log.KindInterrupt, 0x00, 1},
	}

	c := NewClassifier()
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := c.Classify(tt.line)
			if err != nil {
				t.Fatal(err)
			}
			ev := got.Event
			if ev == nil {
				t.Fatal("expected an event")
			}
			if ev.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", ev.Kind, tt.kind)
			}
			if ev.Data != tt.data || !ev.HasData {
				t.Errorf("Data = %#x (HasData %v), want %#x", ev.Data, ev.HasData, tt.data)
			}
			if ev.IRQ != tt.irq {
				t.Errorf("IRQ = %d, want %d", ev.IRQ, tt.irq)
			}
			if ev.Source != tt.line {
				t.Errorf("Source = %q, want %q", ev.Source, tt.line)
			}
		})
	}
}

func TestClassify_NoDataInterrupt(t *testing.T) {
	c := NewClassifier()

	got, err := c.Classify("i8042: [4321] Interrupt 12, without any data")
	if err != nil {
		t.Fatal(err)
	}
	ev := got.Event
	if ev == nil {
		t.Fatal("expected an event")
	}
	if ev.Kind != ps2log.KindInterrupt || ev.HasData || ev.IRQ != 12 {
		t.Errorf("event = %+v, want dataless interrupt on irq 12", *ev)
	}
}

func TestClassify_IgnoresOtherLines(t *testing.T) {
	c := NewClassifier()

	for _, line := range []string{
		"",
		"usb 1-1: new high-speed USB device number 2 using xhci_hcd",
		"i8042: [1234] fa <- i8042 (mystery)",
		"input: AT Translated Set 2 keyboard as /devices/platform/i8042/serio0/input/input3",
	} {
		got, err := c.Classify(line)
		if err != nil {
			t.Errorf("Classify(%q) error = %v", line, err)
		}
		if got.Port != nil || got.Event != nil {
			t.Errorf("Classify(%q) = %+v, want nothing", line, got)
		}
	}
}

func TestClassify_MalformedInterrupt(t *testing.T) {
	c := NewClassifier()

	_, err := c.Classify("i8042: [1234] fa <- i8042 (interrupt, 1, x)")
	if !errors.Is(err, ErrMalformedInterruptEvent) {
		t.Errorf("error = %v, want ErrMalformedInterruptEvent", err)
	}
}

func TestTopology_Origin(t *testing.T) {
	var topo Topology

	irq := &ps2log.Event{Kind: ps2log.KindInterrupt, IRQ: 1, HasData: true}
	if _, err := topo.Origin(irq); !errors.Is(err, ErrNoKeyboardTopology) {
		t.Fatalf("Origin before KBD error = %v, want ErrNoKeyboardTopology", err)
	}

	topo.Add(PortDescriptor{Name: "AUX", IRQ: 12})
	topo.Add(PortDescriptor{Name: "KBD", IRQ: 1})

	if got, ok := topo.KeyboardIRQ(); !ok || got != 1 {
		t.Errorf("KeyboardIRQ() = %d, %v, want 1, true", got, ok)
	}

	tests := []struct {
		ev   *ps2log.Event
		want ps2log.Port
	}{
		{&ps2log.Event{Kind: ps2log.KindInterrupt, IRQ: 1}, ps2log.PortKeyboard},
		{&ps2log.Event{Kind: ps2log.KindInterrupt, IRQ: 12}, ps2log.PortAux},
		{&ps2log.Event{Kind: ps2log.KindKeyboardData}, ps2log.PortKeyboard},
		{&ps2log.Event{Kind: ps2log.KindParameter}, ps2log.PortAux},
		{&ps2log.Event{Kind: ps2log.KindReturn}, ps2log.PortAux},
	}
	for _, tt := range tests {
		got, err := topo.Origin(tt.ev)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("Origin(%v irq %d) = %v, want %v", tt.ev.Kind, tt.ev.IRQ, got, tt.want)
		}
	}

	if n := len(topo.Ports()); n != 2 {
		t.Errorf("len(Ports()) = %d, want 2", n)
	}
}
