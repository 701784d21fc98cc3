// ABOUTME: Audio type definitions
// ABOUTME: Defines sample representations, stream formats and frame sizes
package audio

import (
	"fmt"
	"strings"
)

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// SampleFormat is the in-memory representation of a single sample.
type SampleFormat uint8

const (
	FormatUnknown SampleFormat = iota
	F32                        // 32-bit IEEE float, little-endian, nominal range [-1, 1]
	S32                        // signed 32-bit integer, little-endian
	S24                        // signed 24-bit integer, packed into 3 bytes, little-endian
	S16                        // signed 16-bit integer, little-endian
	U8                         // unsigned 8-bit integer, silence at 128
)

// String returns the short lowercase name used in logs and config files
func (f SampleFormat) String() string {
	switch f {
	case F32:
		return "f32"
	case S32:
		return "s32"
	case S24:
		return "s24"
	case S16:
		return "s16"
	case U8:
		return "u8"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(f))
	}
}

// BytesPerSample returns the encoded size of one sample, or 0 for FormatUnknown
func (f SampleFormat) BytesPerSample() int {
	switch f {
	case F32, S32:
		return 4
	case S24:
		return 3
	case S16:
		return 2
	case U8:
		return 1
	default:
		return 0
	}
}

// Quality orders representations by resolution. Higher is better.
func (f SampleFormat) Quality() int {
	switch f {
	case F32:
		return 5
	case S32:
		return 4
	case S24:
		return 3
	case S16:
		return 2
	case U8:
		return 1
	default:
		return 0
	}
}

// ParseSampleFormat parses the names produced by SampleFormat.String
func ParseSampleFormat(s string) (SampleFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "f32", "float32":
		return F32, nil
	case "s32", "int32":
		return S32, nil
	case "s24", "int24":
		return S24, nil
	case "s16", "int16":
		return S16, nil
	case "u8", "uint8":
		return U8, nil
	default:
		return FormatUnknown, fmt.Errorf("unknown sample format: %q", s)
	}
}

// Format describes a PCM stream: sample representation, channel count and rate.
//
// In device capability lists a zero Channels or SampleRate means the device
// accepts any value for that field.
type Format struct {
	Sample     SampleFormat
	Channels   int
	SampleRate int
}

// Compatible reports whether two formats match exactly in all three fields
func (f Format) Compatible(other Format) bool {
	return f.Sample == other.Sample && f.Channels == other.Channels && f.SampleRate == other.SampleRate
}

// FrameSize returns the encoded size in bytes of one frame
func (f Format) FrameSize() int {
	return f.Sample.BytesPerSample() * f.Channels
}

// Resolve fills wildcard fields of a capability entry from the requested format
func (f Format) Resolve(requested Format) Format {
	if f.Channels == 0 {
		f.Channels = requested.Channels
	}
	if f.SampleRate == 0 {
		f.SampleRate = requested.SampleRate
	}
	return f
}

// Validate checks that every field is concrete and positive
func (f Format) Validate() error {
	if f.Sample.BytesPerSample() == 0 {
		return fmt.Errorf("invalid sample format: %s", f.Sample)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("invalid channel count: %d", f.Channels)
	}
	if f.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", f.SampleRate)
	}
	return nil
}

func (f Format) String() string {
	channels := "any"
	if f.Channels > 0 {
		channels = fmt.Sprintf("%dch", f.Channels)
	}
	rate := "any"
	if f.SampleRate > 0 {
		rate = fmt.Sprintf("%dHz", f.SampleRate)
	}
	return fmt.Sprintf("%s/%s/%s", f.Sample, channels, rate)
}

// Sample is the set of representations a producer may queue
type Sample interface {
	~float32 | ~int16
}

// SampleFormatOf returns the SampleFormat matching the producer type T
func SampleFormatOf[T Sample]() SampleFormat {
	// Integer division truncates; float division does not.
	if T(1)/2 == 0 {
		return S16
	}
	return F32
}

// SampleTo24Bit converts int32 to 24-bit packed bytes (little-endian)
func SampleTo24Bit(sample int32) [3]byte {
	return [3]byte{
		byte(sample),
		byte(sample >> 8),
		byte(sample >> 16),
	}
}

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend from 24-bit to 32-bit
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF
	}
	return val
}
