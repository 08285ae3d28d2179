//go:build !windows
// +build !windows

package term

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"

	"github.com/tchow/agentdash/internal/logging"
)

var termLog = logging.ForComponent(logging.CompTerm)

const (
	// readBufSize is the per-read ceiling on the PTY master.
	readBufSize = 1024

	// flushDelay bounds the delivery rate: bursts of output decoded
	// within this window coalesce into one batch.
	flushDelay = 10 * time.Millisecond

	// outputBacklog is the output channel capacity. When the consumer
	// falls this far behind, the reading pump blocks, which stops
	// draining the PTY and lets the kernel-side buffer throttle the
	// child. Nothing is ever dropped or reordered.
	outputBacklog = 64

	// inputBacklog buffers keystrokes ahead of the writing pump.
	inputBacklog = 16

	// killGrace is how long Close waits for the child to honor SIGTERM
	// before escalating to SIGKILL.
	killGrace = 2 * time.Second
)

// ErrClosed is returned by Send once the session can no longer accept
// input, either after Close or after the writing pump died on an I/O
// error.
var ErrClosed = errors.New("terminal session closed")

// Size is the terminal geometry handed to the child at spawn.
type Size struct {
	Rows uint16
	Cols uint16
}

// Session owns one spawned child behind a PTY plus the two pumps moving
// bytes in and out. Decoded output arrives on Lines() as batches of
// styled spans, in exact byte-arrival order. All methods are safe for
// concurrent use.
type Session struct {
	command string
	cmd     *exec.Cmd
	ptmx    *os.File

	input  chan string
	output chan Line

	stop      chan struct{}
	writeDone chan struct{}
	closeOnce sync.Once
	reapOnce  sync.Once
	wg        sync.WaitGroup
}

// Spawn allocates a PTY, starts `sh -c command` with the slave side as
// the child's stdin/stdout/stderr, and launches the I/O pumps. On error
// no session exists; the caller surfaces the failure as a single Stderr
// line and may retry later.
func Spawn(command string, size Size) (*Session, error) {
	cmd := exec.Command("sh", "-c", command)

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: size.Rows, Cols: size.Cols})
	if err != nil {
		return nil, fmt.Errorf("spawn %q: %w", command, err)
	}

	s := &Session{
		command:   command,
		cmd:       cmd,
		ptmx:      ptmx,
		input:     make(chan string, inputBacklog),
		output:    make(chan Line, outputBacklog),
		stop:      make(chan struct{}),
		writeDone: make(chan struct{}),
	}

	termLog.Debug("session_spawned",
		slog.String("command", command),
		slog.Int("pid", cmd.Process.Pid),
		slog.Int("rows", int(size.Rows)),
		slog.Int("cols", int(size.Cols)))

	s.wg.Add(2)
	go s.readPump()
	go s.writePump()
	return s, nil
}

// Command returns the shell command this session was spawned with.
func (s *Session) Command() string { return s.command }

// Lines returns the output channel. It is closed exactly once, after the
// final batch, when the child reaches EOF or the session is closed.
func (s *Session) Lines() <-chan Line { return s.output }

// Send queues text for the child's stdin. The caller appends a trailing
// newline itself when submitting a full command line. Once the session
// is closed every call returns ErrClosed; input never vanishes into a
// buffered channel nobody drains.
func (s *Session) Send(text string) error {
	// A single select may pick the buffered send even when stop is
	// already closed, so the closed state is checked on its own first.
	select {
	case <-s.stop:
		return ErrClosed
	case <-s.writeDone:
		return ErrClosed
	default:
	}

	select {
	case <-s.stop:
		return ErrClosed
	case <-s.writeDone:
		return ErrClosed
	case s.input <- text:
		return nil
	}
}

// Resize applies new geometry to the PTY. Safe to call on live sessions;
// the UI re-issues it whenever the hosting panel changes size.
func (s *Session) Resize(size Size) error {
	return pty.Setsize(s.ptmx, &pty.Winsize{Rows: size.Rows, Cols: size.Cols})
}

// Close tears the session down: signals both pumps, closes the PTY
// descriptor to wake the blocked read, terminates the child's process
// group, reaps it, and joins the pumps. Idempotent. Teardown never
// depends on GC timing to interrupt a blocking read.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.stop)
		_ = s.ptmx.Close()

		s.terminate()
		s.wg.Wait()

		termLog.Debug("session_closed", slog.String("command", s.command))
	})
}

// terminate asks the child's process group to exit and reaps it. A
// child that ignores SIGTERM gets SIGKILL after killGrace, so Close
// never blocks on a stubborn trap handler.
func (s *Session) terminate() {
	if s.cmd.Process == nil {
		s.reap()
		return
	}

	pgid, pgErr := syscall.Getpgid(s.cmd.Process.Pid)
	if pgErr == nil {
		_ = syscall.Kill(-pgid, syscall.SIGTERM)
	} else {
		_ = s.cmd.Process.Signal(syscall.SIGTERM)
	}

	reaped := make(chan struct{})
	go func() {
		s.reap()
		close(reaped)
	}()

	select {
	case <-reaped:
	case <-time.After(killGrace):
		termLog.Warn("session_kill_escalated", slog.String("command", s.command))
		if pgErr == nil {
			_ = syscall.Kill(-pgid, syscall.SIGKILL)
		} else {
			_ = s.cmd.Process.Kill()
		}
		<-reaped
	}
}

// reap waits for the child exactly once; both the EOF path and Close
// funnel through here.
func (s *Session) reap() {
	s.reapOnce.Do(func() {
		_ = s.cmd.Wait()
	})
}

// readPump blocks on the PTY master, feeds every byte through the
// parser, and ships completed span batches with time-based coalescing.
// It is the sole owner of the parser and performer state.
func (s *Session) readPump() {
	defer s.wg.Done()
	defer close(s.output)
	defer s.reap()

	parser := NewParser()
	perf := NewPerformer()
	buf := make([]byte, readBufSize)
	lastBatch := time.Now()

	for {
		n, err := s.ptmx.Read(buf)
		if n > 0 {
			parser.Advance(perf, buf[:n])
			logging.Aggregate(logging.CompTerm, "pty_read", slog.Int("bytes", n))

			if time.Since(lastBatch) >= flushDelay {
				perf.Flush()
				if spans := perf.Take(); len(spans) > 0 {
					if !s.deliver(StyledLine(spans)) {
						return
					}
					lastBatch = time.Now()
				}
			}
		}
		if err != nil {
			// EOF proper, or EIO once the child side hangs up; both
			// end the session the same way: flush what remains,
			// deliver a final batch if non-empty, and stop.
			perf.Flush()
			if spans := perf.Take(); len(spans) > 0 {
				s.deliver(StyledLine(spans))
			}
			return
		}
	}
}

// deliver sends one batch, blocking for backpressure, and reports false
// once the session is shutting down.
func (s *Session) deliver(line Line) bool {
	select {
	case s.output <- line:
		return true
	case <-s.stop:
		return false
	}
}

// writePump forwards queued input to the PTY master as raw bytes. It
// exits on a write error or teardown; its death makes Send fail rather
// than silently swallow input.
func (s *Session) writePump() {
	defer s.wg.Done()
	defer close(s.writeDone)

	for {
		select {
		case <-s.stop:
			return
		case text := <-s.input:
			if _, err := s.ptmx.Write([]byte(text)); err != nil {
				termLog.Debug("pty_write_failed", slog.String("error", err.Error()))
				return
			}
		}
	}
}
