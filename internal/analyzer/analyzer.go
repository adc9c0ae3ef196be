// Package analyzer emulates an audio analyser node: it reads the latest
// samples from a source and hands out byte-scaled spectra and waveforms.
package analyzer

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/mjibson/go-dsp/fft"
)

// Source supplies the most recent mono samples in [-1, 1].
type Source interface {
	// Read fills dst with the latest len(dst) samples, oldest first.
	Read(dst []float32)
}

// Frame size bounds accepted by SetFFTSize.
const (
	MinFFTSize = 32
	MaxFFTSize = 32768
)

// ErrFFTSize reports a frame size that is not a power of two in range.
var ErrFFTSize = errors.New("fft size must be a power of two between 32 and 32768")

// Config controls Analyzer behavior.
type Config struct {
	SampleRate  float64
	FFTSize     int
	Smoothing   float64
	MinDecibels float64
	MaxDecibels float64
}

// Analyzer turns the latest samples of a Source into byte-scaled frequency
// magnitudes and time-domain samples, one frame per call.
type Analyzer struct {
	src        Source
	sampleRate float64
	minDb      float64
	maxDb      float64

	mu        sync.Mutex
	fftSize   int
	smoothing float64

	samples  []float32
	window   []float64
	input    []float64
	smoothed []float64
}

// New creates an Analyzer reading from src. Zero fields of cfg take the
// defaults: 44.1 kHz, 2048 samples, no smoothing, -90..-10 dB.
func New(src Source, cfg Config) (*Analyzer, error) {
	if src == nil {
		return nil, errors.New("analyzer: nil source")
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44_100
	}
	if cfg.FFTSize == 0 {
		cfg.FFTSize = 2048
	}
	if cfg.MinDecibels == 0 && cfg.MaxDecibels == 0 {
		cfg.MinDecibels = -90
		cfg.MaxDecibels = -10
	}
	if cfg.MinDecibels >= cfg.MaxDecibels {
		return nil, fmt.Errorf("analyzer: minDecibels %.1f must be below maxDecibels %.1f", cfg.MinDecibels, cfg.MaxDecibels)
	}
	a := &Analyzer{
		src:        src,
		sampleRate: cfg.SampleRate,
		minDb:      cfg.MinDecibels,
		maxDb:      cfg.MaxDecibels,
	}
	if err := a.SetSmoothing(cfg.Smoothing); err != nil {
		return nil, err
	}
	if err := a.SetFFTSize(cfg.FFTSize); err != nil {
		return nil, err
	}
	return a, nil
}

// SetFFTSize changes the analysis frame length.
func (a *Analyzer) SetFFTSize(n int) error {
	if n < MinFFTSize || n > MaxFFTSize || n&(n-1) != 0 {
		return fmt.Errorf("%w (got %d)", ErrFFTSize, n)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if n == a.fftSize {
		return nil
	}
	a.fftSize = n
	a.samples = make([]float32, n)
	a.input = make([]float64, n)
	a.smoothed = make([]float64, n/2)
	a.window = make([]float64, n)
	for i := range a.window {
		a.window[i] = blackman(float64(i), float64(n))
	}
	return nil
}

// SetSmoothing sets the averaging constant applied between frames.
func (a *Analyzer) SetSmoothing(v float64) error {
	if v < 0 || v > 1 || math.IsNaN(v) {
		return fmt.Errorf("smoothing must be within [0, 1] (got %f)", v)
	}
	a.mu.Lock()
	a.smoothing = v
	a.mu.Unlock()
	return nil
}

// Smoothing returns the averaging constant.
func (a *Analyzer) Smoothing() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.smoothing
}

// FFTSize returns the analysis frame length.
func (a *Analyzer) FFTSize() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fftSize
}

// FrequencyBinCount returns half the frame length.
func (a *Analyzer) FrequencyBinCount() int {
	return a.FFTSize() / 2
}

// SampleRate returns the rate of the source.
func (a *Analyzer) SampleRate() float64 { return a.sampleRate }

// ByteFrequencyData writes dB-scaled magnitudes mapped onto 0-255. Bins past
// len(dst) are dropped; dst entries past the bin count are left untouched.
func (a *Analyzer) ByteFrequencyData(dst []uint8) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.src.Read(a.samples)
	for i, s := range a.samples {
		a.input[i] = float64(s) * a.window[i]
	}
	spectrum := fft.FFTReal(a.input)

	n := float64(a.fftSize)
	scale := 255 / (a.maxDb - a.minDb)
	for k := range a.smoothed {
		mag := cmag(spectrum[k]) / n
		a.smoothed[k] = a.smoothing*a.smoothed[k] + (1-a.smoothing)*mag
		if k >= len(dst) {
			continue
		}
		db := math.Inf(-1)
		if a.smoothed[k] > 0 {
			db = 20 * math.Log10(a.smoothed[k])
		}
		dst[k] = uint8(clamp(math.Floor(scale*(db-a.minDb)), 0, 255))
	}
}

// ByteTimeDomainData writes the latest samples mapped from [-1, 1] onto
// 0-255 with 128 as silence.
func (a *Analyzer) ByteTimeDomainData(dst []uint8) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.src.Read(a.samples)
	for i, s := range a.samples {
		if i >= len(dst) {
			break
		}
		dst[i] = uint8(clamp(math.Floor(128*(1+float64(s))), 0, 255))
	}
}

func blackman(i, size float64) float64 {
	const (
		a0 = 0.42
		a1 = 0.5
		a2 = 0.08
	)
	return a0 - a1*math.Cos(2*math.Pi*i/size) + a2*math.Cos(4*math.Pi*i/size)
}

func cmag(c complex128) float64 {
	return math.Sqrt(real(c)*real(c) + imag(c)*imag(c))
}

func nextPow2(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	return n + 1
}

// RoundFFTSize returns the nearest accepted frame size not below n.
func RoundFFTSize(n int) int {
	n = nextPow2(n)
	if n < MinFFTSize {
		return MinFFTSize
	}
	if n > MaxFFTSize {
		return MaxFFTSize
	}
	return n
}

func clamp(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}
