// ABOUTME: Real-time dynamic audio player
// ABOUTME: Bridges a frame-by-frame producer to a hardware callback with drift correction
// Package dynwave plays a continuously generated sample stream on an output
// device in real time.
//
// Samples queued by the producer are converted to float32, resampled at a
// ratio nudged by a feedback controller that holds the streaming buffer near
// half full, encoded in the device's negotiated format and pushed into a
// lock-free ring. The device callback only copies encoded frames out of the
// ring and pads any shortfall with silence.
//
// Example:
//
//	p, err := dynwave.New[int16](dynwave.Config{
//	    SampleRate: 44100,
//	    Channels:   2,
//	    BufferSize: dynwave.QuarterSecond,
//	    Device:     output.NewMalgo(nil),
//	})
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	p.Play()
//	for frame := range emulator.Frames() {
//	    if err := p.Queue(frame.Audio); err != nil {
//	        return err
//	    }
//	}
package dynwave
