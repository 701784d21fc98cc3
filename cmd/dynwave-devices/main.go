// ABOUTME: Output device format lister for dynwave
// ABOUTME: Lists a backend's native formats and the negotiation for a producer format
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/dynwave/dynwave-go/internal/logging"
	"github.com/dynwave/dynwave-go/internal/version"
	"github.com/dynwave/dynwave-go/pkg/audio"
	"github.com/dynwave/dynwave-go/pkg/audio/output"
	"github.com/dynwave/dynwave-go/pkg/dynwave"
)

var (
	backend    = flag.String("backend", output.BackendMalgo, "Output backend: malgo, oto, portaudio or virtual")
	sampleRate = flag.Int("rate", 44100, "Producer sample rate in Hz")
	channels   = flag.Int("channels", 2, "Producer channel count")
	sample     = flag.String("sample", "f32", "Producer sample type: f32 or s16")
	bufferSize = flag.String("buffer", "quarter", "Buffer size to resolve at the negotiated rate")
	logLevel   = flag.String("log-level", "warn", "Log level: none, error, warn, info or debug")
)

func main() {
	flag.Parse()

	if _, err := logging.ConfigureDefaultLogger(*logLevel, "", slog.HandlerOptions{}); err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	sf, err := audio.ParseSampleFormat(*sample)
	if err != nil {
		log.Fatalf("Invalid sample type: %v", err)
	}
	if sf != audio.F32 && sf != audio.S16 {
		log.Fatalf("Producers queue f32 or s16 samples, not %s", sf)
	}
	size, err := dynwave.ParseBufferSize(*bufferSize)
	if err != nil {
		log.Fatalf("Invalid buffer size: %v", err)
	}

	device, err := output.New(*backend, slog.Default())
	if err != nil {
		log.Fatalf("Failed to create backend: %v", err)
	}
	defer func() { _ = device.Close() }()

	formats, err := device.SupportedFormats()
	if err != nil {
		log.Fatalf("Failed to query formats: %v", err)
	}

	fmt.Println(version.Banner())
	fmt.Printf("Backend: %s\n\n", *backend)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tSAMPLE\tCHANNELS\tRATE")
	for i, f := range formats {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i, f.Sample, anyOr(f.Channels), anyOr(f.SampleRate))
	}
	_ = w.Flush()

	requested := audio.Format{Sample: sf, Channels: *channels, SampleRate: *sampleRate}
	n, err := dynwave.Negotiate(requested, formats)
	if err != nil {
		fmt.Printf("\nRequested %s: %v\n", requested, err)
		os.Exit(1)
	}

	fmt.Printf("\nRequested:  %s\n", n.Requested)
	fmt.Printf("Accepted:   %s\n", n.Accepted)
	if n.NeedsConversion {
		fmt.Printf("Conversion: ratio %.6f\n", n.NominalRatio())
	} else {
		fmt.Println("Conversion: none")
	}

	frames, err := size.Resolve(n.Accepted.SampleRate)
	if err != nil {
		fmt.Printf("Buffer:     %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Buffer:     %s = %d frames, %d bytes\n", size, frames, frames*n.Accepted.FrameSize())
}

func anyOr(v int) string {
	if v == 0 {
		return "any"
	}
	return fmt.Sprint(v)
}
