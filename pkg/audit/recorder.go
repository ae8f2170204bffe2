package audit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/logger"
)

// Options configures buffering and batching of a Recorder.
type Options struct {
	BufferSize   int           // logs queued in memory; beyond this new logs are dropped
	BatchSize    int           // logs per WriteBatch call
	BatchTimeout time.Duration // max wait before a partial batch is written
	WriteTimeout time.Duration // per-batch write deadline
	Logger       *slog.Logger
}

// Stats are cumulative Recorder counters.
type Stats struct {
	Recorded uint64 `json:"recorded"`
	Dropped  uint64 `json:"dropped"`
	Written  uint64 `json:"written"`
	Failed   uint64 `json:"failed"`
}

// Recorder appends operation logs off the request path.
//
// Record never blocks and never returns an error: when the buffer is full the
// log is dropped and counted. A single worker groups logs into batches; a failed
// batch is logged and counted, not retried.
type Recorder struct {
	writer  BatchWriter
	opts    Options
	log     *slog.Logger
	queue   chan OperationLog
	mu      sync.RWMutex
	closed  bool
	done    chan struct{}
	stats   struct{ recorded, dropped, written, failed atomic.Uint64 }
	nowFunc func() time.Time
}

// NewRecorder starts a recorder writing to w. It panics if w is nil.
func NewRecorder(w BatchWriter, opts Options) *Recorder {
	if w == nil {
		panic("audit: batch writer cannot be nil")
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = 1000
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.BatchTimeout <= 0 {
		opts.BatchTimeout = 100 * time.Millisecond
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	r := &Recorder{
		writer:  w,
		opts:    opts,
		log:     opts.Logger.With(logger.Component("audit")),
		queue:   make(chan OperationLog, opts.BufferSize),
		done:    make(chan struct{}),
		nowFunc: time.Now,
	}
	go r.worker()
	return r
}

// Record enqueues entry without waiting for it to be written.
func (r *Recorder) Record(ctx context.Context, entry OperationLog) {
	if err := entry.Validate(); err != nil {
		r.stats.dropped.Add(1)
		r.log.WarnContext(ctx, "dropping invalid operation log", logger.Error(err))
		return
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.nowFunc().UTC()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.stats.dropped.Add(1)
		return
	}

	select {
	case r.queue <- entry:
		r.stats.recorded.Add(1)
	default:
		r.stats.dropped.Add(1)
		r.log.WarnContext(ctx, "audit buffer full, operation log dropped",
			logger.AccountID(entry.AccountID),
			logger.Operation(entry.OperationType),
		)
	}
}

// Stats returns a snapshot of the counters.
func (r *Recorder) Stats() Stats {
	return Stats{
		Recorded: r.stats.recorded.Load(),
		Dropped:  r.stats.dropped.Load(),
		Written:  r.stats.written.Load(),
		Failed:   r.stats.failed.Load(),
	}
}

func (r *Recorder) worker() {
	defer close(r.done)

	batch := make([]OperationLog, 0, r.opts.BatchSize)
	ticker := time.NewTicker(r.opts.BatchTimeout)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), r.opts.WriteTimeout)
		defer cancel()

		if err := r.writer.WriteBatch(ctx, batch); err != nil {
			r.stats.failed.Add(uint64(len(batch)))
			r.log.Error("failed to write operation logs",
				logger.Count(int64(len(batch))),
				logger.Error(errors.Join(ErrWriteFailed, err)),
			)
		} else {
			r.stats.written.Add(uint64(len(batch)))
		}
		clear(batch)
		batch = batch[:0]
	}

	for {
		select {
		case entry, ok := <-r.queue:
			if !ok {
				flush()
				return
			}
			batch = append(batch, entry)
			if len(batch) >= r.opts.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// Close stops accepting logs and waits until queued logs are written or ctx is done.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrRecorderClosed
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
