// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, SampleFormat and sample conversion functions
// Package audio provides the PCM types shared by the player, the rate
// converters and the output backends.
//
// This package defines:
//   - SampleFormat: device sample representations (f32, s32, s24, s16, u8)
//   - Format: sample representation, channel count and sample rate
//   - Sample: the type constraint for producer samples (float32, int16)
//
// It also provides conversions between representations:
//   - producer samples to float32 (ToFloat32)
//   - float32 to device bytes and back (Encode, Decode)
//   - per-format silence (SilenceFrame)
//
// Example:
//
//	format := audio.Format{
//	    Sample:     audio.S16,
//	    Channels:   2,
//	    SampleRate: 48000,
//	}
//
//	buf := make([]byte, audio.EncodedSize(len(samples), format.Sample))
//	audio.Encode(buf, samples, format.Sample)
package audio
