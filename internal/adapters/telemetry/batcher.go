// Package telemetry traces build steps with OpenTelemetry and forwards step
// lifecycle and output to a ports.Renderer.
package telemetry

import (
	"bytes"
	"sync"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	// DefaultSizeLimit is the number of buffered bytes that forces a flush.
	DefaultSizeLimit = 4096
	// DefaultFlushInterval is how long output may sit in the buffer.
	DefaultFlushInterval = 50 * time.Millisecond
)

var errBatcherClosed = zerr.Wrap(domain.ErrStepExecutionFailed, "step output already closed")

// Batcher collects step output and hands it to onFlush in chunks, either
// when sizeLimit bytes are pending or when the flush interval elapses.
// It is safe for concurrent use; onFlush is called with the lock held so
// chunks arrive in write order.
type Batcher struct {
	sizeLimit int
	onFlush   func([]byte)

	mu      sync.Mutex
	pending bytes.Buffer
	closed  bool
	done    chan struct{}
	stopped sync.WaitGroup
}

// NewBatcher starts a Batcher. Zero limits select the defaults. Close must
// be called to stop the background flusher.
func NewBatcher(sizeLimit int, interval time.Duration, onFlush func([]byte)) *Batcher {
	if sizeLimit <= 0 {
		sizeLimit = DefaultSizeLimit
	}
	if interval <= 0 {
		interval = DefaultFlushInterval
	}

	b := &Batcher{
		sizeLimit: sizeLimit,
		onFlush:   onFlush,
		done:      make(chan struct{}),
	}

	b.stopped.Add(1)
	go b.loop(interval)

	return b
}

// Write buffers p.
func (b *Batcher) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, errBatcherClosed
	}

	n, _ := b.pending.Write(p)
	if b.pending.Len() >= b.sizeLimit {
		b.flushLocked()
	}
	return n, nil
}

// Flush hands any pending output to onFlush.
func (b *Batcher) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.flushLocked()
}

// Close stops the flusher and delivers what is left. Closing twice is a no-op.
func (b *Batcher) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.done)
	b.flushLocked()
	b.mu.Unlock()

	b.stopped.Wait()
	return nil
}

func (b *Batcher) loop(interval time.Duration) {
	defer b.stopped.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.Flush()
		case <-b.done:
			return
		}
	}
}

func (b *Batcher) flushLocked() {
	if b.pending.Len() == 0 || b.onFlush == nil {
		b.pending.Reset()
		return
	}
	chunk := bytes.Clone(b.pending.Bytes())
	b.pending.Reset()
	b.onFlush(chunk)
}
