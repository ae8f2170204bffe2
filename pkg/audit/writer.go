package audit

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// BatchWriter persists operation logs in bulk.
// A batch either succeeds or fails as a whole.
type BatchWriter interface {
	WriteBatch(ctx context.Context, logs []OperationLog) error
}

// BatchWriterFunc adapts a function to BatchWriter.
type BatchWriterFunc func(ctx context.Context, logs []OperationLog) error

func (f BatchWriterFunc) WriteBatch(ctx context.Context, logs []OperationLog) error {
	return f(ctx, logs)
}

// FanOut writes every batch to all writers and joins their errors.
func FanOut(writers ...BatchWriter) BatchWriter {
	writers = slices.DeleteFunc(slices.Clone(writers), func(w BatchWriter) bool { return w == nil })
	return BatchWriterFunc(func(ctx context.Context, logs []OperationLog) error {
		var errs []error
		for _, w := range writers {
			if err := w.WriteBatch(ctx, logs); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

// MemorySink keeps written logs in memory. Use it in tests and local runs.
type MemorySink struct {
	mu   sync.Mutex
	logs []OperationLog
}

// NewMemorySink creates an empty sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (m *MemorySink) WriteBatch(_ context.Context, logs []OperationLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, logs...)
	return nil
}

// Logs returns a copy of everything written so far.
func (m *MemorySink) Logs() []OperationLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.logs)
}
