package trace

import (
	"context"
	"sync"

	"github.com/opd-ai/go-skijet/pkg/entity"
	"github.com/opd-ai/go-skijet/pkg/logging"
)

// Writer buffers the samples of one character and flushes them to a Store.
// It is an observer for the engine's trace system.
type Writer struct {
	store    *Store
	run      *Run
	entityID entity.ID
	logger   *logging.Logger

	mu      sync.Mutex
	buf     []Sample
	written int
	err     error
}

// NewWriter records entityID's ticks into run.
func NewWriter(store *Store, run *Run, entityID entity.ID, logger *logging.Logger) *Writer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Writer{
		store:    store,
		run:      run,
		entityID: entityID,
		logger:   logger.With("component", "trace", "run", run.ID),
		buf:      make([]Sample, 0, batchSize),
	}
}

// Observe buffers a sample, flushing when the buffer is full. Ticks of other
// characters are ignored. After a failed flush further samples are dropped
// and the error is returned by Close.
func (w *Writer) Observe(id entity.ID, r entity.TickResult) {
	if id != w.entityID || r.Skipped {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return
	}
	w.buf = append(w.buf, NewSample(w.run.ID, r))
	if len(w.buf) >= batchSize {
		w.flushLocked()
	}
}

// Flush writes buffered samples.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.flushLocked()
	return w.err
}

func (w *Writer) flushLocked() {
	if w.err != nil || len(w.buf) == 0 {
		return
	}
	if err := w.store.Append(w.buf); err != nil {
		w.err = err
		w.logger.Error(context.Background(), "trace flush failed", err, "buffered", len(w.buf))
		return
	}
	w.written += len(w.buf)
	w.buf = w.buf[:0]
}

// Close flushes what is left and reports the first write error.
func (w *Writer) Close() error {
	err := w.Flush()
	w.logger.Debug(context.Background(), "trace closed", "samples", w.Written())
	return err
}

// Written returns the number of samples persisted so far.
func (w *Writer) Written() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

// Run returns the run being recorded.
func (w *Writer) Run() *Run {
	return w.run
}
