package recorder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"syscall"
	"time"
)

// kmsg hands out one record per read and refuses short buffers.
const readBufferSize = 8192

// Recorder drives a Session from a stream of kernel log lines.
type Recorder struct {
	session  *Session
	interval time.Duration
	logger   *slog.Logger

	mu    sync.Mutex
	stats Stats
}

// New creates a Recorder for session. The phase check runs every
// session check interval.
func New(session *Session) *Recorder {
	return &Recorder{
		session:  session,
		interval: session.opts.CheckInterval,
		logger:   session.logger,
	}
}

// Session returns the session being driven.
func (r *Recorder) Session() *Session {
	return r.session
}

// Stats returns the session counters as of the last handled line. Unlike
// Session.Stats it is safe to call while Run is in progress.
func (r *Recorder) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *Recorder) syncStats() {
	r.mu.Lock()
	r.stats = r.session.Stats()
	r.mu.Unlock()
}

type readResult struct {
	line string
	err  error
}

// Run writes the log header unless the session was already started, then
// records until ctx is cancelled, the input ends or a fatal error occurs.
// Input lines and phase checks are handled on the calling goroutine only. Cancellation is an orderly stop
// and returns nil. End of input is reported as ErrUnexpectedEOF since the
// kernel log never ends on its own.
//
// The reader goroutine may stay blocked in Read after Run returns; close
// src to release it.
func (r *Recorder) Run(ctx context.Context, src io.Reader) error {
	if !r.session.Started() {
		if err := r.session.Start(); err != nil {
			return err
		}
	}
	defer r.session.Flush()
	defer r.syncStats()

	lines := make(chan readResult, 64)
	done := make(chan struct{})
	defer close(done)

	go readLines(src, lines, done, r.logger)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker.C:
			if _, err := r.session.Tick(); err != nil {
				return fmt.Errorf("phase check: %w", err)
			}

		case res := <-lines:
			if res.err != nil {
				return res.err
			}
			if err := r.session.HandleLine(res.line); err != nil {
				return err
			}
			r.syncStats()
		}
	}
}

func readLines(src io.Reader, out chan<- readResult, done <-chan struct{}, logger *slog.Logger) {
	br := bufio.NewReaderSize(src, readBufferSize)
	send := func(res readResult) bool {
		select {
		case out <- res:
			return true
		case <-done:
			return false
		}
	}

	for {
		line, err := br.ReadString('\n')
		if line != "" {
			if !send(readResult{line: strings.TrimRight(line, "\r\n")}) {
				return
			}
		}

		switch {
		case err == nil:
		case errors.Is(err, syscall.EPIPE):
			// The kernel ring buffer wrapped past our read position.
			logger.Warn("kernel log overflowed, some messages were lost")
		case errors.Is(err, io.EOF):
			send(readResult{err: ErrUnexpectedEOF})
			return
		default:
			send(readResult{err: fmt.Errorf("reading kernel log: %w", err)})
			return
		}
	}
}
