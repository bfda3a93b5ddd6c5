package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/SmitUplenchwar2687/ps2emu/internal/logging"
	"github.com/SmitUplenchwar2687/ps2emu/internal/metrics"
	"github.com/SmitUplenchwar2687/ps2emu/internal/recorder"
)

func startTestServer(t *testing.T, opts Options) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	srv := New(ln.Addr().String(), opts)
	go srv.StartOnListener(ln)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})
	return ln.Addr().String()
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, string(body)
}

func TestServer_Dashboard(t *testing.T) {
	addr := startTestServer(t, Options{Hub: NewHub(logging.Discard())})

	resp, body := get(t, "http://"+addr+"/")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	if !strings.Contains(body, "ps2emu capture monitor") {
		t.Error("dashboard page missing title")
	}
}

func TestServer_Health(t *testing.T) {
	addr := startTestServer(t, Options{})

	resp, body := get(t, "http://"+addr+"/health")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	var health map[string]string
	if err := json.Unmarshal([]byte(body), &health); err != nil {
		t.Fatal(err)
	}
	if health["status"] != "ok" {
		t.Errorf("status = %q, want ok", health["status"])
	}
}

func TestServer_NotFound(t *testing.T) {
	addr := startTestServer(t, Options{Hub: NewHub(logging.Discard())})

	resp, _ := get(t, "http://"+addr+"/nonexistent")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestServer_WithoutHubHasNoDashboard(t *testing.T) {
	addr := startTestServer(t, Options{Metrics: metrics.New()})

	resp, _ := get(t, "http://"+addr+"/")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	resp, _ = get(t, "http://"+addr+"/ws")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("/ws status = %d, want 404", resp.StatusCode)
	}
}

func TestServer_Metrics(t *testing.T) {
	m := metrics.New()
	m.ObserveLine()
	m.ObserveLine()
	addr := startTestServer(t, Options{Metrics: m})

	resp, body := get(t, "http://"+addr+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, "ps2emu_capture_lines_total 2") {
		t.Errorf("metrics output missing line counter:\n%s", body)
	}
}

func TestServer_Status(t *testing.T) {
	stats := func() recorder.Stats { return recorder.Stats{Lines: 7, Recorded: 3} }
	addr := startTestServer(t, Options{Hub: NewHub(logging.Discard()), Stats: stats})

	resp, body := get(t, "http://"+addr+"/api/status")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	var status statusResponse
	if err := json.Unmarshal([]byte(body), &status); err != nil {
		t.Fatal(err)
	}
	if status.Service != "ps2emu" {
		t.Errorf("service = %q, want ps2emu", status.Service)
	}
	if status.Stats == nil || status.Stats.Recorded != 3 || status.Stats.Lines != 7 {
		t.Errorf("stats = %+v, want lines=7 recorded=3", status.Stats)
	}
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("clients = %d, want %d", hub.ClientCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_PublishReachesViewer(t *testing.T) {
	hub := NewHub(logging.Discard())
	addr := startTestServer(t, Options{Hub: hub})

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	waitForClients(t, hub, 1)

	want := recorder.CapturedEvent{
		Session:   "s1",
		Section:   "Init",
		Time:      1500,
		Kind:      "R",
		Direction: "R",
		Data:      "fa",
		Origin:    "aux",
		Comment:   "aux",
	}
	hub.Publish(want)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got recorder.CapturedEvent
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("event = %+v, want %+v", got, want)
	}
}

func TestHub_ViewerDisconnect(t *testing.T) {
	hub := NewHub(logging.Discard())
	addr := startTestServer(t, Options{Hub: hub})

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
	if err != nil {
		t.Fatal(err)
	}
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)

	// Publishing with no viewers is a no-op.
	hub.Publish(recorder.CapturedEvent{Data: "aa"})
}

func TestHub_StalledViewerDoesNotBlockPublish(t *testing.T) {
	hub := NewHub(logging.Discard())
	addr := startTestServer(t, Options{Hub: hub})

	// This viewer never reads, so its socket buffers fill up.
	stalled, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer stalled.Close()
	live, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer live.Close()
	waitForClients(t, hub, 2)

	ev := recorder.CapturedEvent{Session: "s1", Data: "08", Comment: strings.Repeat("x", 4096)}
	start := time.Now()
	for i := 0; i < 4000; i++ {
		hub.Publish(ev)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("publishing took %v with a stalled viewer", elapsed)
	}

	live.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got recorder.CapturedEvent
	if err := live.ReadJSON(&got); err != nil {
		t.Fatal(err)
	}
	if got.Data != "08" {
		t.Errorf("Data = %q, want 08", got.Data)
	}
}
