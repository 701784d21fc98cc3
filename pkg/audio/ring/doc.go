// ABOUTME: Streaming frame buffer package
// ABOUTME: Lock-free single-producer single-consumer ring with silence padding
// Package ring implements the streaming buffer between a non-real-time
// producer and a real-time audio callback.
//
// The buffer holds frames already encoded in the device format. Push blocks
// the producer while the ring is full, which is the only backpressure in the
// pipeline. Pop never blocks: frames that are not available yet are replaced
// with silence and reported as an underrun.
//
// Example:
//
//	buf, err := ring.New(11025, 4, nil) // quarter second of s16 stereo at 44.1kHz
//	_, err = buf.Push(ctx, encoded)     // producer
//	n := buf.Pop(out)                   // device callback
package ring
