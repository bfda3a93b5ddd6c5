package recorder

import (
	"fmt"

	"github.com/SmitUplenchwar2687/ps2emu/internal/ps2log"
)

// CapturedEvent is a recorded event as published to sinks.
type CapturedEvent struct {
	Session   string `json:"session"`
	Section   string `json:"section"`
	Time      int64  `json:"time"` // microseconds since section start
	Kind      string `json:"kind"`
	Direction string `json:"direction"`
	Data      string `json:"data"`
	Origin    string `json:"origin"`
	Comment   string `json:"comment,omitempty"`
}

func newCapturedEvent(session string, section ps2log.Section, ev *ps2log.Event) CapturedEvent {
	return CapturedEvent{
		Session:   session,
		Section:   section.String(),
		Time:      ev.Time,
		Kind:      ev.Kind.String(),
		Direction: string(rune(ev.Direction())),
		Data:      fmt.Sprintf("%02x", ev.Data),
		Origin:    ev.Origin.String(),
		Comment:   ev.Comment(),
	}
}

// EventSink receives every event written to the log.
type EventSink interface {
	Publish(CapturedEvent)
}

// Stats counts what a session did with the lines it saw.
type Stats struct {
	Lines      int `json:"lines"`
	Events     int `json:"events"`
	Suppressed int `json:"suppressed"`
	Commands   int `json:"commands"`
	Filtered   int `json:"filtered"`
	NoData     int `json:"no_data"`
	Recorded   int `json:"recorded"`
	Stale      int `json:"stale"`
}
