// ABOUTME: Audio output package for pull-model playback
// ABOUTME: Provides Device and Stream interfaces with malgo, oto, PortAudio and virtual backends
// Package output provides audio playback devices.
//
// Devices report the formats they accept and open streams that pull encoded
// frames through a RenderFunc on the backend's real-time thread. Malgo
// (miniaudio) is the default backend. PortAudio requires the portaudio build
// tag. Virtual is a software clock used by tests and headless runs.
//
// Example:
//
//	dev := output.NewMalgo(nil)
//	formats, err := dev.SupportedFormats()
//	stream, err := dev.Open(audio.Format{Sample: audio.F32, Channels: 2, SampleRate: 48000}, 0)
//	err = stream.Start(func(out []byte, frames int) {
//	    // fill out
//	})
package output
