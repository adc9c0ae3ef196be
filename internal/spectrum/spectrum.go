// Package spectrum wraps a real-input FFT and exposes the full complex
// spectrum as interleaved real/imaginary pairs.
package spectrum

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/dsp/fourier"
)

// ErrLength reports an input or output buffer that does not match the
// configured transform size.
var ErrLength = errors.New("spectrum: buffer length mismatch")

// Transform computes forward transforms of a fixed size.
type Transform struct {
	n    int
	fft  *fourier.FFT
	half []complex128
}

// New creates a Transform for real inputs of length n.
func New(n int) (*Transform, error) {
	if n <= 0 {
		return nil, fmt.Errorf("spectrum: invalid size %d", n)
	}
	return &Transform{
		n:    n,
		fft:  fourier.NewFFT(n),
		half: make([]complex128, n/2+1),
	}, nil
}

// Len returns the configured input length.
func (t *Transform) Len() int { return t.n }

// Forward writes the spectrum of src (length n) into dst (length 2n) as
// re0, im0, re1, im1, ... The upper half is mirrored from the conjugate
// symmetric lower half.
func (t *Transform) Forward(dst, src []float64) error {
	if len(src) != t.n {
		return fmt.Errorf("%w: input %d, want %d", ErrLength, len(src), t.n)
	}
	if len(dst) != 2*t.n {
		return fmt.Errorf("%w: output %d, want %d", ErrLength, len(dst), 2*t.n)
	}

	t.fft.Coefficients(t.half, src)

	for k, c := range t.half {
		dst[2*k] = real(c)
		dst[2*k+1] = imag(c)
	}
	for k := len(t.half); k < t.n; k++ {
		c := t.half[t.n-k]
		dst[2*k] = real(c)
		dst[2*k+1] = -imag(c)
	}
	return nil
}

// At returns bin k of an interleaved spectrum.
func At(spec []float64, k int) complex128 {
	return complex(spec[2*k], spec[2*k+1])
}
