// ABOUTME: Sample representation conversion
// ABOUTME: Maps producer samples to float32 and float32 to device byte encodings
package audio

import (
	"encoding/binary"
	"math"

	"github.com/tphakala/simd/f32"
)

const (
	int16Scale = 32768.0
	int24Scale = 8388608.0
	int32Scale = 2147483648.0
)

// ToFloat32 converts producer samples into dst, growing it if needed, and
// returns the filled slice. int16 input is normalized to [-1, 1).
func ToFloat32[T Sample](dst []float32, src []T) []float32 {
	if cap(dst) < len(src) {
		dst = make([]float32, len(src))
	}
	dst = dst[:len(src)]

	for i, s := range src {
		dst[i] = float32(s)
	}
	if SampleFormatOf[T]() == S16 {
		f32.Scale(dst, dst, 1.0/int16Scale)
	}
	return dst
}

// EncodedSize returns the number of bytes Encode writes for n samples
func EncodedSize(n int, f SampleFormat) int {
	return n * f.BytesPerSample()
}

// Encode writes src into dst in the given device representation and returns
// the number of bytes written. Out of range input is clamped to full scale.
// dst must hold at least EncodedSize(len(src), f) bytes.
func Encode(dst []byte, src []float32, f SampleFormat) int {
	switch f {
	case F32:
		for i, s := range src {
			binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(s))
		}
	case S32:
		for i, s := range src {
			v := int32(clampScale(s, int32Scale, math.MinInt32, math.MaxInt32))
			binary.LittleEndian.PutUint32(dst[i*4:], uint32(v))
		}
	case S24:
		for i, s := range src {
			v := int32(clampScale(s, int24Scale, Min24Bit, Max24Bit))
			b := SampleTo24Bit(v)
			copy(dst[i*3:i*3+3], b[:])
		}
	case S16:
		for i, s := range src {
			v := int16(clampScale(s, int16Scale, math.MinInt16, math.MaxInt16))
			binary.LittleEndian.PutUint16(dst[i*2:], uint16(v))
		}
	case U8:
		for i, s := range src {
			v := clampScale(s, 128, -128, 127)
			dst[i] = byte(int(v) + 128)
		}
	default:
		return 0
	}
	return EncodedSize(len(src), f)
}

// Decode is the inverse of Encode. It returns the number of samples written to dst.
func Decode(dst []float32, src []byte, f SampleFormat) int {
	size := f.BytesPerSample()
	if size == 0 {
		return 0
	}
	n := min(len(src)/size, len(dst))

	switch f {
	case F32:
		for i := 0; i < n; i++ {
			dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
		}
	case S32:
		for i := 0; i < n; i++ {
			dst[i] = float32(float64(int32(binary.LittleEndian.Uint32(src[i*4:]))) / int32Scale)
		}
	case S24:
		for i := 0; i < n; i++ {
			v := SampleFrom24Bit([3]byte{src[i*3], src[i*3+1], src[i*3+2]})
			dst[i] = float32(float64(v) / int24Scale)
		}
	case S16:
		for i := 0; i < n; i++ {
			dst[i] = float32(int16(binary.LittleEndian.Uint16(src[i*2:]))) / int16Scale
		}
	case U8:
		for i := 0; i < n; i++ {
			dst[i] = float32(int(src[i])-128) / 128
		}
	}
	return n
}

// SilenceFrame returns the encoded zero-amplitude frame for a format
func SilenceFrame(f Format) []byte {
	frame := make([]byte, f.FrameSize())
	if f.Sample == U8 {
		for i := range frame {
			frame[i] = 0x80
		}
	}
	return frame
}

func clampScale(s float32, scale, lo, hi float64) float64 {
	if math.IsNaN(float64(s)) {
		return 0
	}
	v := math.Round(float64(s) * scale)
	if v > hi {
		return hi
	}
	if v < lo {
		return lo
	}
	return v
}
