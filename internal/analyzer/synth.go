package analyzer

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// Synth is a Source producing a drifting mix of three tones plus noise, used
// when no capture device is available.
type Synth struct {
	mu         sync.Mutex
	rng        *rand.Rand
	sampleRate float64
	t          float64
	phaseBass  float64
	phaseMid   float64
	phaseHigh  float64
	noise      float64
}

// NewSynth creates a Synth at the given sample rate.
func NewSynth(sampleRate float64) *Synth {
	return NewSeededSynth(sampleRate, time.Now().UnixNano())
}

// NewSeededSynth creates a reproducible Synth.
func NewSeededSynth(sampleRate float64, seed int64) *Synth {
	if sampleRate <= 0 {
		sampleRate = 44_100
	}
	return &Synth{
		rng:        rand.New(rand.NewSource(seed)),
		sampleRate: sampleRate,
		noise:      0.02,
	}
}

// SampleRate returns the rate samples are generated at.
func (s *Synth) SampleRate() float64 { return s.sampleRate }

// Read implements Source.
func (s *Synth) Read(dst []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dt := 1 / s.sampleRate
	for i := range dst {
		s.t += dt
		bassAmp := 0.35 + 0.25*math.Sin(s.t*0.7)
		midAmp := 0.2 + 0.15*math.Sin(s.t*1.2+0.5)
		highAmp := 0.1 + 0.08*math.Sin(s.t*2.1+1.0)

		bassHz := 80 + 40*math.Sin(s.t*0.3)
		midHz := 700 + 300*math.Sin(s.t*0.5)
		highHz := 4500 + 2000*math.Sin(s.t*0.2)

		s.phaseBass += 2 * math.Pi * bassHz * dt
		s.phaseMid += 2 * math.Pi * midHz * dt
		s.phaseHigh += 2 * math.Pi * highHz * dt

		v := bassAmp*math.Sin(s.phaseBass) +
			midAmp*math.Sin(s.phaseMid) +
			highAmp*math.Sin(s.phaseHigh) +
			s.noise*(s.rng.Float64()*2-1)
		dst[i] = float32(clamp(v, -1, 1))
	}
	s.phaseBass = math.Mod(s.phaseBass, 2*math.Pi)
	s.phaseMid = math.Mod(s.phaseMid, 2*math.Pi)
	s.phaseHigh = math.Mod(s.phaseHigh, 2*math.Pi)
}
