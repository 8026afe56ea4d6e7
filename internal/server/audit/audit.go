// Package audit records auxiliary per-user events ("thoughts") without
// affecting the operation that produced them.
package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
)

// DefaultWriteTimeout bounds a single sink write.
const DefaultWriteTimeout = 5 * time.Second

// Log is the audit collaborator used by the session controller. Record
// returns immediately; failures are logged, never returned.
type Log interface {
	Record(ctx context.Context, username, thought string)
}

// Sink persists a thought somewhere.
type Sink interface {
	Name() string
	Write(ctx context.Context, thought *models.Thought) error
}

// Recorder writes each thought to its sink in a separate goroutine.
type Recorder struct {
	sink    Sink
	logger  logging.Logger
	metrics *metrics.Metrics
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

var _ Log = (*Recorder)(nil)

// NewRecorder builds a Recorder. m may be nil.
func NewRecorder(sink Sink, l logging.Logger, m *metrics.Metrics) *Recorder {
	return &Recorder{
		sink:    sink,
		logger:  l.With("module", "audit", "sink", sink.Name()),
		metrics: m,
		timeout: DefaultWriteTimeout,
	}
}

// Record schedules the write and returns. The write outlives ctx
// cancellation but not the recorder timeout.
func (r *Recorder) Record(ctx context.Context, username, thought string) {
	t := &models.Thought{ID: uuid.NewString(), Username: username, Thought: thought}
	ctx = context.WithoutCancel(ctx)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.logger.Warn(ctx, "audit write dropped: recorder closed", "username", username)
		r.observe("dropped")
		return
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()

		err := r.write(ctx, t)
		if err != nil {
			r.logger.Warn(ctx, "audit write failed", "username", username, "error", err)
			r.observe("error")
			return
		}
		r.logger.Debug(ctx, "audit write stored", "username", username, "id", t.ID)
		r.observe("ok")
	}()
}

func (r *Recorder) write(ctx context.Context, t *models.Thought) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("audit sink panic: %v", p)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	return r.sink.Write(ctx, t)
}

func (r *Recorder) observe(status string) {
	if r.metrics != nil {
		r.metrics.AuditWrites.WithLabelValues(r.sink.Name(), status).Inc()
	}
}

// Close stops accepting records and waits for in-flight writes or until ctx
// is done. Records after Close are dropped.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NopSink drops every thought.
type NopSink struct{}

func (NopSink) Name() string                                 { return "none" }
func (NopSink) Write(context.Context, *models.Thought) error { return nil }
