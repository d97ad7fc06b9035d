package store

import (
	"context"
	"errors"
	"sync"

	"github.com/sadopc/focusflow/internal/domain"
	"github.com/sadopc/focusflow/internal/logger"
)

// ErrWriterClosed is returned for writes submitted after Close.
var ErrWriterClosed = errors.New("store writer closed")

type write struct {
	value []byte
	del   bool
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithErrorHandler registers fn to be called for every failed write, from
// the writer goroutine.
func WithErrorHandler(fn func(error)) WriterOption {
	return func(w *Writer) {
		w.onError = fn
	}
}

// Writer queues writes to a backing store and applies them from a single
// goroutine. Each key has one pending slot: a newer value replaces a queued
// older one, so the last write for a key always wins. Keys are written in
// the order they were first queued.
//
// Writer itself satisfies domain.Store; Get sees queued values before they
// reach the backing store.
type Writer struct {
	store   domain.Store
	log     *logger.Logger
	onError func(error)

	mu       sync.Mutex
	order    []string
	pending  map[string]write
	inflight map[string]write
	waiters  []chan struct{}
	closed   bool

	notify chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWriter wraps store. Call Start before submitting writes.
func NewWriter(store domain.Store, log *logger.Logger, opts ...WriterOption) *Writer {
	if log == nil {
		log = logger.Discard()
	}
	w := &Writer{
		store:    store,
		log:      log,
		pending:  make(map[string]write),
		inflight: make(map[string]write),
		notify:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start launches the writer goroutine. Non-blocking.
func (w *Writer) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	go w.loop(ctx)
	w.log.Debug("store writer started")
}

// Get returns the newest value for key, queued or stored.
func (w *Writer) Get(ctx context.Context, key string) ([]byte, bool, error) {
	k, err := SanitizeKey(key)
	if err != nil {
		return nil, false, err
	}
	w.mu.Lock()
	op, ok := w.pending[k]
	if !ok {
		op, ok = w.inflight[k]
	}
	w.mu.Unlock()
	if ok {
		if op.del {
			return nil, false, nil
		}
		return append([]byte(nil), op.value...), true, nil
	}
	return w.store.Get(ctx, k)
}

// Set queues value for key and returns immediately.
func (w *Writer) Set(_ context.Context, key string, value []byte) error {
	return w.enqueue(key, write{value: append([]byte(nil), value...)})
}

// Delete queues removal of key and returns immediately.
func (w *Writer) Delete(_ context.Context, key string) error {
	return w.enqueue(key, write{del: true})
}

func (w *Writer) enqueue(key string, op write) error {
	k, err := SanitizeKey(key)
	if err != nil {
		return err
	}
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWriterClosed
	}
	if _, queued := w.pending[k]; !queued {
		w.order = append(w.order, k)
	}
	w.pending[k] = op
	n := len(w.order)
	w.mu.Unlock()

	w.log.Debug("store writer: queued %q (queue_len=%d)", k, n)
	w.signal()
	return nil
}

// Pending returns the number of keys waiting to be written.
func (w *Writer) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.order)
}

// Flush blocks until every write queued before the call has been applied
// or ctx is done.
func (w *Writer) Flush(ctx context.Context) error {
	ch := make(chan struct{})
	w.mu.Lock()
	w.waiters = append(w.waiters, ch)
	w.mu.Unlock()
	w.signal()

	select {
	case <-ch:
		return nil
	case <-w.done:
		return ErrWriterClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains the queue, stops the goroutine and rejects further writes.
func (w *Writer) Close(ctx context.Context) error {
	if w.cancel == nil {
		// Never started: nothing can drain the queue.
		w.mu.Lock()
		w.closed = true
		w.mu.Unlock()
		return nil
	}

	err := w.Flush(ctx)

	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	w.cancel()
	<-w.done
	if errors.Is(err, ErrWriterClosed) {
		return nil
	}
	return err
}

func (w *Writer) signal() {
	select {
	case w.notify <- struct{}{}:
	default: // already signaled
	}
}

func (w *Writer) loop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("store writer stopped")
			return
		case <-w.notify:
			w.drain(ctx)
		}
	}
}

// drain applies queued writes until the queue is empty, then releases any
// Flush callers.
func (w *Writer) drain(ctx context.Context) {
	for {
		w.mu.Lock()
		if len(w.order) == 0 {
			waiters := w.waiters
			w.waiters = nil
			w.mu.Unlock()
			for _, ch := range waiters {
				close(ch)
			}
			return
		}
		key := w.order[0]
		w.order = w.order[1:]
		op := w.pending[key]
		delete(w.pending, key)
		w.inflight[key] = op
		w.mu.Unlock()

		var err error
		if op.del {
			err = w.store.Delete(ctx, key)
		} else {
			err = w.store.Set(ctx, key, op.value)
		}

		w.mu.Lock()
		delete(w.inflight, key)
		w.mu.Unlock()

		if err != nil {
			w.log.Error("store writer: %v", err)
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}
