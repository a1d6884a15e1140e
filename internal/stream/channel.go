// Package stream owns the long-lived connection that delivers incremental
// analysis results for one job: subscribe on connect, bounded reconnects on
// transient loss, typed event delivery in arrival order.
package stream

import (
	"context"
	"log"
	"sync"
	"time"

	"resona-backend/internal/models"
)

const maxReconnectAttempts = 5

// reconnectDelay is a var so tests can shorten the backoff.
var reconnectDelay = time.Second

type State int

const (
	StateConnecting State = iota
	StateConnected
	StateSubscribed
	StateStreaming
	StateReconnecting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateSubscribed:
		return "subscribed"
	case StateStreaming:
		return "streaming"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Handlers receive channel events. Events arrive in transport order; the
// channel never reorders or deduplicates. Handlers run on the channel's own
// goroutine and must not call Close, which waits for them to return.
type Handlers struct {
	OnProgress func(status models.AnalysisStatus, progress int, message string)
	OnSegment  func(timestamp float64, segment models.AnalysisSegment)
	OnComplete func(analysis models.SongAnalysis)
	OnError    func(code models.ErrorCode, message string)
}

// Channel is a streaming subscription for one job. Open starts it; Close
// tears it down and suppresses every further handler invocation, including
// from reconnect attempts already in flight.
type Channel struct {
	url       string
	jobID     string
	transport Transport
	handlers  Handlers

	mu     sync.Mutex
	state  State
	conn   Conn
	closed bool

	// emitMu is held for the closed-check and the handler call together,
	// so Close can block until an in-flight handler returns.
	emitMu sync.Mutex

	done chan struct{}
}

// Open dials the job-scoped streaming endpoint and begins delivering events.
func Open(ctx context.Context, url, jobID string, transport Transport, handlers Handlers) *Channel {
	ch := &Channel{
		url:       url,
		jobID:     jobID,
		transport: transport,
		handlers:  handlers,
		state:     StateConnecting,
		done:      make(chan struct{}),
	}
	go ch.run(ctx)
	return ch
}

// State returns the current connection state.
func (ch *Channel) State() State {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.state
}

// Close is idempotent. After it returns no handler fires again.
func (ch *Channel) Close() {
	ch.mu.Lock()
	if ch.closed {
		ch.mu.Unlock()
		return
	}
	ch.closed = true
	ch.state = StateClosed
	conn := ch.conn
	ch.conn = nil
	close(ch.done)
	ch.mu.Unlock()

	if conn != nil {
		conn.Close()
	}

	// Wait out any handler call that started before closed was set.
	ch.emitMu.Lock()
	ch.emitMu.Unlock()
}

func (ch *Channel) run(ctx context.Context) {
	attempts := 0

	for {
		if ch.isClosed() {
			return
		}

		conn, err := ch.transport.Dial(ctx, ch.url)
		if err != nil {
			attempts++
			if attempts > maxReconnectAttempts {
				ch.fail(models.ErrNetworkError, "connection to analysis service lost")
				return
			}
			ch.setState(StateReconnecting)
			if !ch.sleep(ctx, reconnectDelay) {
				return
			}
			continue
		}

		if !ch.adopt(conn) {
			conn.Close()
			return
		}
		ch.setState(StateConnected)

		if err := conn.WriteJSON(models.SubscribeMessage{Type: models.MsgSubscribe, JobID: ch.jobID}); err != nil {
			log.Printf("stream: subscribe for job %s failed: %v", ch.jobID, err)
			conn.Close()
			attempts++
			if attempts > maxReconnectAttempts {
				ch.fail(models.ErrNetworkError, "connection to analysis service lost")
				return
			}
			ch.setState(StateReconnecting)
			if !ch.sleep(ctx, reconnectDelay) {
				return
			}
			continue
		}

		// A successful connect resets the reconnect budget.
		attempts = 0

		terminal := ch.readLoop(conn)
		if ch.isClosed() || terminal {
			ch.Close()
			return
		}

		// Transient drop mid-stream: retry.
		attempts++
		if attempts > maxReconnectAttempts {
			ch.fail(models.ErrNetworkError, "connection to analysis service lost")
			return
		}
		ch.setState(StateReconnecting)
		if !ch.sleep(ctx, reconnectDelay) {
			return
		}
	}
}

// readLoop consumes frames until the connection drops or the channel closes.
// It reports whether a terminal domain event (complete or server error) was
// delivered, in which case a subsequent drop is expected and not retried.
func (ch *Channel) readLoop(conn Conn) bool {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			return false
		}
		if ch.isClosed() {
			return true
		}

		msg, err := models.DecodeServerMessage(data)
		if err != nil {
			log.Printf("stream: dropping frame for job %s: %v", ch.jobID, err)
			continue
		}

		switch msg.Type {
		case models.MsgConnected:
			ch.setState(StateSubscribed)
		case models.MsgProgress:
			ch.markStreaming()
			ch.emitProgress(msg.Progress)
		case models.MsgChunk:
			ch.markStreaming()
			ch.emitSegment(msg.Chunk)
		case models.MsgComplete:
			ch.markStreaming()
			ch.emitComplete(msg.Complete)
			return true
		case models.MsgError:
			ch.emitError(models.ErrorCode(msg.Error.Code), msg.Error.Message)
			return true
		}
	}
}

// adopt records conn as the live connection unless the channel already closed.
func (ch *Channel) adopt(conn Conn) bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.closed {
		return false
	}
	ch.conn = conn
	return true
}

func (ch *Channel) isClosed() bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.closed
}

func (ch *Channel) setState(s State) {
	ch.mu.Lock()
	if !ch.closed {
		ch.state = s
	}
	ch.mu.Unlock()
}

// markStreaming moves subscribed -> streaming on the first domain event.
func (ch *Channel) markStreaming() {
	ch.mu.Lock()
	if !ch.closed && ch.state != StateStreaming {
		ch.state = StateStreaming
	}
	ch.mu.Unlock()
}

// fail surfaces a transport-level failure through the single error handler
// and closes the channel.
func (ch *Channel) fail(code models.ErrorCode, message string) {
	ch.emitError(code, message)
	ch.Close()
}

func (ch *Channel) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ch.done:
		return false
	case <-ctx.Done():
		return false
	}
}

func (ch *Channel) emitProgress(msg *models.ProgressMessage) {
	ch.emitMu.Lock()
	defer ch.emitMu.Unlock()
	if ch.isClosed() || ch.handlers.OnProgress == nil {
		return
	}
	ch.handlers.OnProgress(msg.Status, msg.Progress, msg.Message)
}

func (ch *Channel) emitSegment(msg *models.ChunkMessage) {
	ch.emitMu.Lock()
	defer ch.emitMu.Unlock()
	if ch.isClosed() || ch.handlers.OnSegment == nil {
		return
	}
	ch.handlers.OnSegment(msg.Timestamp, msg.Segment)
}

func (ch *Channel) emitComplete(msg *models.CompleteMessage) {
	ch.emitMu.Lock()
	defer ch.emitMu.Unlock()
	if ch.isClosed() || ch.handlers.OnComplete == nil {
		return
	}
	ch.handlers.OnComplete(msg.Analysis)
}

func (ch *Channel) emitError(code models.ErrorCode, message string) {
	ch.emitMu.Lock()
	defer ch.emitMu.Unlock()
	if ch.isClosed() || ch.handlers.OnError == nil {
		return
	}
	if !models.KnownCode(code) {
		code = models.ErrUnknown
	}
	ch.handlers.OnError(code, message)
}
