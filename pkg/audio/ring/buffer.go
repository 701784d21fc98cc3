// ABOUTME: Single-producer/single-consumer frame ring for real-time playback
// ABOUTME: Producer blocks when full; consumer never blocks and pads with silence
package ring

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrClosed is returned by Push once the buffer has been closed
var ErrClosed = errors.New("ring buffer closed")

// Stats holds lifetime counters, all in frames except Underruns.
// Pushed == Popped + Discarded + occupancy at any quiescent point.
type Stats struct {
	Pushed        uint64
	Popped        uint64
	Discarded     uint64
	Underruns     uint64
	SilenceFrames uint64
}

// Buffer is a fixed-capacity FIFO of encoded frames shared by exactly one
// producer goroutine and one real-time consumer.
//
// read and write are monotonically increasing frame counters; the ring
// position is counter % capacity. The producer owns write, the consumer owns
// read (Clear moves read from the producer side with a CAS).
type Buffer struct {
	data      []byte
	capacity  uint64
	frameSize int
	silence   []byte

	read  atomic.Uint64
	write atomic.Uint64

	// space is signalled by the consumer after freeing frames, only while
	// waiting is set by a producer parked on a full ring
	space   chan struct{}
	waiting atomic.Bool
	done    chan struct{}
	closed  atomic.Bool

	popped        atomic.Uint64
	discarded     atomic.Uint64
	underruns     atomic.Uint64
	silenceFrames atomic.Uint64
}

// New allocates a ring holding capacity frames of frameSize bytes. silence is
// the encoded zero-amplitude frame written on underrun; nil means all zero bytes.
func New(capacity, frameSize int, silence []byte) (*Buffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("invalid capacity: %d frames", capacity)
	}
	if frameSize <= 0 {
		return nil, fmt.Errorf("invalid frame size: %d bytes", frameSize)
	}
	if silence == nil {
		silence = make([]byte, frameSize)
	}
	if len(silence) != frameSize {
		return nil, fmt.Errorf("silence frame is %d bytes, want %d", len(silence), frameSize)
	}

	return &Buffer{
		data:      make([]byte, capacity*frameSize),
		capacity:  uint64(capacity),
		frameSize: frameSize,
		silence:   append([]byte(nil), silence...),
		space:     make(chan struct{}, 1),
		done:      make(chan struct{}),
	}, nil
}

// Capacity returns the fixed capacity in frames
func (b *Buffer) Capacity() int {
	return int(b.capacity)
}

// FrameSize returns the size of one frame in bytes
func (b *Buffer) FrameSize() int {
	return b.frameSize
}

// Occupancy returns the number of frames waiting to be read. Safe from either side.
func (b *Buffer) Occupancy() int {
	w := b.write.Load()
	r := b.read.Load()
	if r > w {
		// Clear raced ahead of a stale write load
		return 0
	}
	return int(w - r)
}

// Push appends whole frames, blocking while the ring is full. It returns the
// number of frames written; fewer than requested only with a non-nil error
// (ctx cancellation or ErrClosed). Partial trailing bytes are rejected.
func (b *Buffer) Push(ctx context.Context, frames []byte) (int, error) {
	if len(frames)%b.frameSize != 0 {
		return 0, fmt.Errorf("push of %d bytes is not a multiple of frame size %d", len(frames), b.frameSize)
	}

	total := len(frames) / b.frameSize
	written := 0

	for written < total {
		if b.closed.Load() {
			return written, ErrClosed
		}

		free := b.capacity - uint64(b.Occupancy())
		if free == 0 {
			if err := b.wait(ctx); err != nil {
				return written, err
			}
			continue
		}

		n := min(free, uint64(total-written))
		b.copyIn(frames[written*b.frameSize:(written+int(n))*b.frameSize], b.write.Load())

		// Publish only after the bytes are in place
		b.write.Add(n)
		written += int(n)
	}

	return written, nil
}

// wait parks the producer until the consumer frees space. waiting is set
// before the occupancy re-check so a Pop that frees space after the check
// always sees it and signals.
func (b *Buffer) wait(ctx context.Context) error {
	b.waiting.Store(true)
	defer b.waiting.Store(false)

	if b.Occupancy() < int(b.capacity) {
		return nil
	}

	select {
	case <-b.space:
		return nil
	case <-b.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// signal wakes a parked producer. Without one it touches no channel.
func (b *Buffer) signal() {
	if !b.waiting.Load() {
		return
	}
	select {
	case b.space <- struct{}{}:
	default:
	}
}

// copyIn writes src starting at frame counter pos, wrapping at the end of the ring
func (b *Buffer) copyIn(src []byte, pos uint64) {
	start := int(pos%b.capacity) * b.frameSize
	n := copy(b.data[start:], src)
	if n < len(src) {
		copy(b.data, src[n:])
	}
}

// Pop fills dst with whole frames from the ring and returns how many were real
// audio. Any shortfall is filled with silence and counted as an underrun.
// Pop never blocks and never allocates.
func (b *Buffer) Pop(dst []byte) int {
	want := uint64(len(dst) / b.frameSize)
	if want == 0 {
		return 0
	}

	r := b.read.Load()
	w := b.write.Load()
	var avail uint64
	if w > r {
		avail = w - r
	}
	n := min(avail, want)

	if n > 0 {
		start := int(r%b.capacity) * b.frameSize
		size := int(n) * b.frameSize
		c := copy(dst[:size], b.data[start:])
		if c < size {
			copy(dst[c:size], b.data)
		}

		// A failed CAS means Clear discarded these frames while we copied them
		if b.read.CompareAndSwap(r, r+n) {
			b.popped.Add(n)
		}

		b.signal()
	}

	if n < want {
		b.fillSilence(dst[int(n)*b.frameSize : int(want)*b.frameSize])
		b.underruns.Add(1)
		b.silenceFrames.Add(want - n)
	}

	return int(n)
}

// FillSilence writes silence into every whole frame of dst without consuming
func (b *Buffer) FillSilence(dst []byte) {
	whole := len(dst) / b.frameSize * b.frameSize
	b.fillSilence(dst[:whole])
}

func (b *Buffer) fillSilence(dst []byte) {
	for i := 0; i < len(dst); i += b.frameSize {
		copy(dst[i:i+b.frameSize], b.silence)
	}
}

// Clear discards all unread frames. Producer side only.
func (b *Buffer) Clear() {
	for {
		r := b.read.Load()
		w := b.write.Load()
		if r >= w {
			break
		}
		if b.read.CompareAndSwap(r, w) {
			b.discarded.Add(w - r)
			break
		}
	}

	b.signal()
}

// Close releases any producer blocked in Push. Idempotent.
func (b *Buffer) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.done)
	}
}

// Stats returns a snapshot of the lifetime counters
func (b *Buffer) Stats() Stats {
	return Stats{
		Pushed:        b.write.Load(),
		Popped:        b.popped.Load(),
		Discarded:     b.discarded.Load(),
		Underruns:     b.underruns.Load(),
		SilenceFrames: b.silenceFrames.Load(),
	}
}
