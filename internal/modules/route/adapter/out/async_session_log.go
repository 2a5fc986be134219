package out

import (
	"context"
	"errors"
	"slices"
	"sync"

	hclog "github.com/hashicorp/go-hclog"

	"mapdirect/internal/modules/route/domain"
	routeout "mapdirect/internal/modules/route/port/out"
)

var errSessionLogClosed = errors.New("session log closed")

// AsyncSessionLog hands records to a single writer goroutine so the caller
// never waits on storage. Records are written in the order they were given;
// List waits until every earlier record has been written.
type AsyncSessionLog struct {
	next   routeout.SessionLog
	logger hclog.Logger
	queue  chan asyncOp
	done   chan struct{}

	mu     sync.Mutex
	closed bool
}

type asyncOp struct {
	ctx   context.Context
	rec   domain.SessionRecord
	flush chan struct{}
}

var _ routeout.SessionLog = (*AsyncSessionLog)(nil)

func NewAsyncSessionLog(next routeout.SessionLog, buffer int, logger hclog.Logger) *AsyncSessionLog {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if buffer < 1 {
		buffer = 1
	}
	l := &AsyncSessionLog{
		next:   next,
		logger: logger.Named("session-log"),
		queue:  make(chan asyncOp, buffer),
		done:   make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *AsyncSessionLog) run() {
	defer close(l.done)
	for op := range l.queue {
		if op.flush != nil {
			close(op.flush)
			continue
		}
		if err := l.next.Record(op.ctx, op.rec); err != nil {
			l.logger.Warn("record route session", "session_id", op.rec.SessionID, "status", op.rec.Status, "error", err)
		}
	}
}

// Record queues rec. The write outlives cancellation of ctx; it blocks only
// when the queue is full.
func (l *AsyncSessionLog) Record(ctx context.Context, rec domain.SessionRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return errSessionLogClosed
	}
	rec.Waypoints = slices.Clone(rec.Waypoints)
	l.queue <- asyncOp{ctx: context.WithoutCancel(ctx), rec: rec}
	return nil
}

func (l *AsyncSessionLog) List(ctx context.Context, limit int) ([]domain.SessionRecord, error) {
	if err := l.flush(ctx); err != nil {
		return nil, err
	}
	return l.next.List(ctx, limit)
}

func (l *AsyncSessionLog) flush(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		<-l.done
		return nil
	}
	ack := make(chan struct{})
	l.queue <- asyncOp{flush: ack}
	l.mu.Unlock()
	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close writes out everything queued and stops the writer. It does not close
// the wrapped log.
func (l *AsyncSessionLog) Close() error {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.queue)
	}
	l.mu.Unlock()
	<-l.done
	return nil
}
