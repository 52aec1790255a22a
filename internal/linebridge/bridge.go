// Package linebridge assembles raw text chunks into whole lines.
//
// Producers write fragments with WriteChunk; a single mediating goroutine
// accumulates them, splits on '\n' and publishes completed lines in the order
// their newlines arrived. Consumers block in ReadLine until a line is ready.
// Both directions are unbounded queues, so writers never block.
package linebridge

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/atomicstack/kbconsole/internal/logging/events"
)

// ErrClosed is returned by writes after the bridge has shut down.
var ErrClosed = errors.New("linebridge: closed")

// Bridge converts a stream of chunks into a stream of lines.
type Bridge struct {
	in  *queue[string]
	out *queue[string]

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// New starts the mediating goroutine. Cancelling ctx stops it the same way
// Close does.
func New(ctx context.Context) *Bridge {
	ctx, cancel := context.WithCancel(ctx)
	b := &Bridge{
		in:     newQueue[string](),
		out:    newQueue[string](),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go b.run(ctx)
	return b
}

// WriteChunk queues text for line assembly. It never blocks.
func (b *Bridge) WriteChunk(text string) error {
	if !b.in.push(text) {
		return ErrClosed
	}
	return nil
}

// WriteLine queues text followed by a newline.
func (b *Bridge) WriteLine(text string) error {
	return b.WriteChunk(text + "\n")
}

// ReadLine waits for the next completed line. It returns io.EOF once the
// bridge is closed and every line has been read, or ctx.Err() when ctx ends
// first.
func (b *Bridge) ReadLine(ctx context.Context) (string, error) {
	return b.out.pop(ctx)
}

// Pending reports how many completed lines are waiting to be read.
func (b *Bridge) Pending() int {
	return b.out.len()
}

// Discard drops completed lines that nobody has read yet and returns how
// many were dropped. Chunks still being assembled are kept.
func (b *Bridge) Discard() int {
	return b.out.drain()
}

// Done is closed once the mediating goroutine has exited and the output is
// closed.
func (b *Bridge) Done() <-chan struct{} {
	return b.done
}

// Close stops accepting chunks, drains what was already written, flushes any
// unterminated remainder as a final line and closes the output. It waits for
// the mediating goroutine to exit and is safe to call more than once.
func (b *Bridge) Close() {
	b.closeOnce.Do(func() {
		b.in.close()
	})
	<-b.done
}

func (b *Bridge) run(ctx context.Context) {
	defer close(b.done)
	defer b.cancel()

	var pending strings.Builder
	flushed := 0
	publish := func(chunk string) {
		pending.WriteString(chunk)
		buf := pending.String()
		for {
			idx := strings.IndexByte(buf, '\n')
			if idx < 0 {
				break
			}
			line := strings.TrimSuffix(buf[:idx], "\r")
			b.out.push(line)
			flushed++
			events.Bridge.Line(len(line))
			buf = buf[idx+1:]
		}
		pending.Reset()
		pending.WriteString(buf)
	}

	for {
		chunk, err := b.in.pop(ctx)
		if err != nil {
			break
		}
		publish(chunk)
	}

	b.in.close()
	for {
		chunk, ok := b.in.tryPop()
		if !ok {
			break
		}
		publish(chunk)
	}
	if rest := pending.String(); rest != "" {
		b.out.push(rest)
		flushed++
	}
	b.out.close()
	events.Bridge.Closed(flushed)
}
