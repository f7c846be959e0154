package wire

import (
	"context"
	"crypto/tls"
	"sync"
	"time"

	"github.com/anthropic-test/panengine/internal/workerpool"
)

// CreatedListener receives the result of an asynchronous
// SocketCreator.CreateSocket call: exactly one of (ok=true, socket) or
// (ok=false, nil) is delivered, on the thread that drains completions
// via PumpOnce/Run.
type CreatedListener interface {
	OnSocketCreated(host string, port int, ok bool, s *Socket)
}

type pendingCreate struct {
	host string
	port int
}

// SocketCreator opens sockets without blocking the caller's event
// loop: each CreateSocket enqueues DNS resolution and connect (and,
// for TLS, handshake) onto a workerpool.Pool, then reports the result
// through CreatedListener once the owning loop drains a completion via
// PumpOnce.
type SocketCreator struct {
	pool     *workerpool.Pool
	listener CreatedListener
	timeout  time.Duration

	mu      sync.Mutex
	pending map[*workerpool.Job]pendingCreate
}

// NewSocketCreator builds a SocketCreator over an existing pool (so
// unrelated work -- e.g. attachment encoding -- can share the same
// worker pool).
func NewSocketCreator(pool *workerpool.Pool, listener CreatedListener, connectTimeout time.Duration) *SocketCreator {
	if connectTimeout <= 0 {
		connectTimeout = 30 * time.Second
	}
	return &SocketCreator{
		pool:     pool,
		listener: listener,
		timeout:  connectTimeout,
		pending:  make(map[*workerpool.Job]pendingCreate),
	}
}

// CreateSocket schedules an asynchronous connect. socketListener
// receives the new Socket's line events once connected; it is not
// consulted during the connect itself.
func (sc *SocketCreator) CreateSocket(host string, port int, tlsConfig *tls.Config, socketListener Listener) {
	job := workerpool.NewJob(host, func(ctx context.Context) (any, error) {
		return Dial(host, port, tlsConfig, sc.timeout, socketListener)
	})

	sc.mu.Lock()
	sc.pending[job] = pendingCreate{host: host, port: port}
	sc.mu.Unlock()

	sc.pool.Submit(job)
}

// PumpOnce drains a single completion from the underlying pool and
// dispatches it to CreatedListener, per CreateSocket's exactly-once
// delivery contract. It returns false if no completion was available
// (the pool's channel was empty or closed).
func (sc *SocketCreator) PumpOnce() bool {
	select {
	case c, ok := <-sc.pool.Completions():
		if !ok {
			return false
		}
		sc.dispatch(c)
		return true
	default:
		return false
	}
}

// Run drains completions until ctx is done, dispatching each to
// CreatedListener on the calling goroutine -- the owning event loop's
// main thread.
func (sc *SocketCreator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-sc.pool.Completions():
			if !ok {
				return
			}
			sc.dispatch(c)
		}
	}
}

func (sc *SocketCreator) dispatch(c workerpool.Completion) {
	sc.mu.Lock()
	info, known := sc.pending[c.Job]
	if known {
		delete(sc.pending, c.Job)
	}
	sc.mu.Unlock()
	if !known {
		return // completion belongs to unrelated work sharing this pool
	}

	if c.Cancelled() || c.Err != nil {
		sc.listener.OnSocketCreated(info.host, info.port, false, nil)
		return
	}
	socket, _ := c.Result.(*Socket)
	sc.listener.OnSocketCreated(info.host, info.port, true, socket)
}
