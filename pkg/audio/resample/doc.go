// ABOUTME: Audio resampling package with a variable-ratio streaming interface
// ABOUTME: Converts interleaved float32 audio between sample rates
// Package resample provides stateful sample rate converters.
//
// Every Converter takes the conversion ratio (output rate / input rate) on each
// call, so a feedback loop can nudge the ratio continuously while filter state
// carries across chunks. Three kinds are available:
//
//   - KindLinear: linear interpolation, any ratio per call
//   - KindSoxr: polyphase FIR stage at the nominal ratio, followed by a linear trim
//   - KindSpeex: speex-style sinc stage at the nominal ratio, followed by a linear trim
//
// Example:
//
//	c, err := resample.New(resample.Options{
//	    Kind:       resample.KindSoxr,
//	    Channels:   2,
//	    InputRate:  44100,
//	    OutputRate: 48000,
//	    Quality:    resample.QualityMedium,
//	})
//	out, err := c.Convert(chunk, 48000.0/44100.0*1.001)
package resample
