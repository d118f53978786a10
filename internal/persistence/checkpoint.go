package persistence

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"rupl/internal/observability"
	"rupl/internal/store"
)

// Checkpointer writes the store to Storage after commits. Writes are
// coalesced: at most one save per interval, plus a final one on shutdown.
type Checkpointer struct {
	st       *store.Store
	storage  *Storage
	interval time.Duration

	dirty atomic.Bool
	mu    sync.Mutex // serializes saves
}

// NewCheckpointer registers a commit hook on st that marks it dirty.
func NewCheckpointer(st *store.Store, storage *Storage, interval time.Duration) *Checkpointer {
	c := &Checkpointer{st: st, storage: storage, interval: interval}
	st.OnCommit(func() { c.dirty.Store(true) })
	return c
}

// Dirty reports whether there are commits not yet written.
func (c *Checkpointer) Dirty() bool {
	return c.dirty.Load()
}

// MarkDirty forces the next Flush to write, for state installed outside a
// committed transaction such as a freshly seeded store.
func (c *Checkpointer) MarkDirty() {
	c.dirty.Store(true)
}

// Run saves dirty state every interval until ctx is done, then flushes once
// more with a fresh context. With a non-positive interval it only performs
// the final flush.
func (c *Checkpointer) Run(ctx context.Context) {
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := c.Flush(flushCtx); err != nil {
			observability.Logger.ErrorContext(ctx, "final checkpoint failed", slog.String("error", err.Error()))
		}
	}()

	if c.interval <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Flush(ctx); err != nil {
				observability.Logger.WarnContext(ctx, "checkpoint failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Flush saves the current state if anything changed since the last save.
// A failed save leaves the checkpointer dirty so the next tick retries.
func (c *Checkpointer) Flush(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dirty.Swap(false) {
		return nil
	}
	if err := c.storage.Save(ctx, c.st.Snapshot()); err != nil {
		c.dirty.Store(true)
		observability.CheckpointsTotal.WithLabelValues("error").Inc()
		return err
	}
	observability.CheckpointsTotal.WithLabelValues("ok").Inc()
	return nil
}
