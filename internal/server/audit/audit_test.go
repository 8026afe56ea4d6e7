package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	mu      sync.Mutex
	written []*models.Thought
	err     error
	panicV  any
	block   chan struct{}
	ctxErr  error
}

func (f *fakeSink) Name() string { return "fake" }

func (f *fakeSink) Write(ctx context.Context, t *models.Thought) error {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			f.mu.Lock()
			f.ctxErr = ctx.Err()
			f.mu.Unlock()
			return ctx.Err()
		}
	}
	if f.panicV != nil {
		panic(f.panicV)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.written = append(f.written, t)
	return nil
}

func (f *fakeSink) snapshot() []*models.Thought {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.Thought(nil), f.written...)
}

func TestRecorder_WritesThought(t *testing.T) {
	sink := &fakeSink{}
	m := metrics.New()
	r := NewRecorder(sink, logging.Nop(), m)

	r.Record(context.Background(), "alice", "logged in")
	require.NoError(t, r.Close(context.Background()))

	got := sink.snapshot()
	require.Len(t, got, 1)
	assert.Equal(t, "alice", got[0].Username)
	assert.Equal(t, "logged in", got[0].Thought)
	assert.NotEmpty(t, got[0].ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuditWrites.WithLabelValues("fake", "ok")))
}

func TestRecorder_OutlivesCallerContext(t *testing.T) {
	sink := &fakeSink{}
	r := NewRecorder(sink, logging.Nop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	r.Record(ctx, "alice", "logged in")
	cancel()

	require.NoError(t, r.Close(context.Background()))
	assert.Len(t, sink.snapshot(), 1)
}

func TestRecorder_FailuresAreSwallowed(t *testing.T) {
	tests := map[string]*fakeSink{
		"error": {err: errors.New("store down")},
		"panic": {panicV: "kaput"},
	}

	for name, sink := range tests {
		t.Run(name, func(t *testing.T) {
			m := metrics.New()
			r := NewRecorder(sink, logging.Nop(), m)

			require.NotPanics(t, func() {
				r.Record(context.Background(), "alice", "logged in")
				require.NoError(t, r.Close(context.Background()))
			})
			assert.Equal(t, 1.0, testutil.ToFloat64(m.AuditWrites.WithLabelValues("fake", "error")))
		})
	}
}

func TestRecorder_RecordDoesNotBlock(t *testing.T) {
	sink := &fakeSink{block: make(chan struct{})}
	r := NewRecorder(sink, logging.Nop(), nil)

	start := time.Now()
	r.Record(context.Background(), "alice", "logged in")
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Close(ctx), context.DeadlineExceeded)

	close(sink.block)
	require.NoError(t, r.Close(context.Background()))
	assert.Len(t, sink.snapshot(), 1)
}

func TestRecorder_WriteTimeout(t *testing.T) {
	sink := &fakeSink{block: make(chan struct{})}
	r := NewRecorder(sink, logging.Nop(), nil)
	r.timeout = 10 * time.Millisecond

	r.Record(context.Background(), "alice", "logged in")
	require.NoError(t, r.Close(context.Background()))

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.ErrorIs(t, sink.ctxErr, context.DeadlineExceeded)
}

func TestNopSink(t *testing.T) {
	var s NopSink
	assert.Equal(t, "none", s.Name())
	assert.NoError(t, s.Write(context.Background(), &models.Thought{}))
}

func TestRecorder_RecordAfterCloseIsDropped(t *testing.T) {
	sink := &fakeSink{}
	m := metrics.New()
	r := NewRecorder(sink, logging.Nop(), m)

	require.NoError(t, r.Close(context.Background()))

	r.Record(context.Background(), "alice", "logged in")
	require.NoError(t, r.Close(context.Background()))

	assert.Empty(t, sink.snapshot())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuditWrites.WithLabelValues("fake", "dropped")))
}
