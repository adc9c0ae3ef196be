package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/guidoenr/waterfall/internal/app"
	"github.com/guidoenr/waterfall/internal/audio"
	"github.com/guidoenr/waterfall/internal/display"
	"github.com/guidoenr/waterfall/internal/render"
	"github.com/guidoenr/waterfall/internal/settings"
	"github.com/guidoenr/waterfall/internal/web"
)

func main() {
	var (
		deviceName = flag.String("audio-device", "", "Optional PortAudio device name (substring match)")
		listDevs   = flag.Bool("list-audio-devices", false, "List available audio input devices and exit")
		noAudio    = flag.Bool("no-audio", false, "Run with synthetic audio (for testing)")
		fftSize    = flag.Int("fft-size", 0, "Analysis frame size, rounded up to a power of two in [512, 32768] (0 = suggest from sample rate)")
		shapes     = flag.Int("shapes", settings.Defaults().Shapes, "Number of frames kept in the scrolling history")
		style      = flag.String("style", settings.Defaults().Strategy, "Render strategy ("+strings.Join(render.IDs(), "|")+")")
		glyphs     = flag.String("glyphs", "default", "Terminal glyph set ("+strings.Join(display.GlyphNames(), "|")+")")
		smoothing  = flag.Float64("smoothing", 0, "Analyser smoothing constant in [0, 1]")
		targetFPS  = flag.Float64("fps", 60, "Display refresh rate")
		width      = flag.Float64("width", 800, "Plot width in world units")
		height     = flag.Float64("height", 400, "Plot height in world units")
		backend    = flag.String("backend", display.BackendTerminal, "Display backend (terminal|sdl)")
		webPort    = flag.Int("web-port", 0, "Serve status and settings on this port (0 = disabled)")
		noColor    = flag.Bool("no-color", false, "Disable ANSI color output")
		debug      = flag.Bool("debug", false, "Enable verbose logging")
		profile    = flag.String("profile", "", "Append per-frame timings to this CSV file")
	)

	flag.Parse()

	if *width <= 1 || *height <= 0 {
		log.Fatalf("invalid plot dimensions: width=%.0f height=%.0f", *width, *height)
	}
	if *targetFPS <= 0 {
		log.Fatalf("fps must be positive (got %.2f)", *targetFPS)
	}
	if !render.Known(*style) {
		log.Fatalf("unknown style %q (want one of %s)", *style, strings.Join(render.IDs(), ", "))
	}
	if *backend == display.BackendSDL && !display.SupportsSDL() {
		log.Fatalf("sdl backend requested but binary was built without -tags sdl")
	}

	if *fftSize > 0 {
		if n := settings.RoundFFTSize(*fftSize); n != *fftSize {
			log.Printf("fft-size %d rounded to %d", *fftSize, n)
			*fftSize = n
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.New(os.Stdout, "[waterfall] ", log.LstdFlags)
	if !*debug {
		logger.SetOutput(os.Stderr)
		logger.SetFlags(0)
	}

	needAudio := !*noAudio || *listDevs
	if needAudio {
		if err := audio.Initialize(); err != nil {
			logger.Fatalf("failed to initialize PortAudio: %v", err)
		}
		defer audio.Terminate()
	}

	if *listDevs {
		devices, err := audio.ListInputDevices()
		if err != nil {
			logger.Fatalf("list devices: %v", err)
		}
		fmt.Printf("\n=== Audio Input Devices ===\n\n")
		for _, dev := range devices {
			markers := ""
			if dev.IsDefault {
				markers += " (default)"
			}
			fmt.Printf("- %s [%s]%s\n    inputs:%d sample:%.0f Hz suggested fft:%d\n",
				dev.Name, dev.HostAPI, markers, dev.Inputs, dev.DefaultSampleHz,
				settings.SuggestFFTSize(dev.DefaultSampleHz))
		}
		if dev, err := audio.AutoDetectDevice(); err == nil && dev != nil {
			fmt.Printf("\nAuto-detected input: %s (%.0f Hz, %d channels)\n", dev.Name, dev.DefaultSampleRate, dev.MaxInputChannels)
		}
		return
	}

	appConfig := app.Config{
		DeviceName:   *deviceName,
		DisableAudio: *noAudio,
		Settings: settings.Settings{
			FFTSize:   *fftSize,
			Shapes:    *shapes,
			Strategy:  *style,
			Smoothing: *smoothing,
		},
		TargetFPS:   *targetFPS,
		PlotWidth:   *width,
		PlotHeight:  *height,
		Backend:     *backend,
		Glyphs:      *glyphs,
		UseANSI:     !*noColor,
		NoKeyboard:  *backend == display.BackendSDL,
		ProfilePath: *profile,
		Debug:       *debug,
		Log:         logger,
	}

	a, err := app.New(appConfig)
	if err != nil {
		logger.Fatalf("failed to create app: %v", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "cleanup error: %v\n", err)
		}
	}()

	if *webPort > 0 {
		srv := web.NewServer(a, logger)
		go func() {
			if err := srv.Start(ctx, *webPort); err != nil {
				logger.Printf("[web] %v", err)
			}
		}()
	}

	if err := a.Run(ctx); err != nil {
		if ctx.Err() != nil {
			fmt.Println("\nExiting...")
			return
		}
		logger.Fatalf("runtime error: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
}
