package render

import "math"

// minStep is the smallest horizontal distance, in plot units, between two
// emitted points.
const minStep = 0.9

// Axis projects sample indices onto the horizontal plot axis.
type Axis struct {
	Width    float64
	MaxIndex int
	Log      bool

	lxFactor float64
}

// NewAxis creates an axis spanning width plot units for maxIndex samples. A
// log axis compresses x as ln(1+x) * width/ln(width).
func NewAxis(width float64, maxIndex int, logScale bool) Axis {
	a := Axis{Width: width, MaxIndex: maxIndex, Log: logScale}
	if logScale && width > 1 {
		a.lxFactor = width / math.Log(width)
	}
	return a
}

// LxFactor returns the log compression factor width/ln(width).
func (a Axis) LxFactor() float64 { return a.lxFactor }

// UnitWidth is the linear distance between two consecutive samples.
func (a Axis) UnitWidth() float64 {
	if a.MaxIndex <= 0 {
		return 0
	}
	return a.Width / float64(a.MaxIndex)
}

// Position maps a linear x onto the axis.
func (a Axis) Position(x float64) float64 {
	if a.Log {
		return math.Log1p(x) * a.lxFactor
	}
	return x
}

// MaxPoints bounds the number of picks Decimate can return.
func (a Axis) MaxPoints() int {
	return int(math.Ceil(a.Width/minStep)) + 1
}

// Pick is one emitted point: its axis position and the sample that won it.
type Pick struct {
	X     float64
	Index int
}

// Decimate walks samples 0..MaxIndex-1 and emits a pick whenever the
// position has moved at least minStep past the last emitted one. The pick
// sits at that position and carries the largest-magnitude sample among the
// ones skipped since the last emission and the current one; ties go to the
// earlier sample. Samples skipped after the last emission are dropped.
func (a Axis) Decimate(magnitude func(i int) float64) []Pick {
	if a.MaxIndex <= 0 {
		return nil
	}
	picks := make([]Pick, 0, min(a.MaxIndex, a.MaxPoints()))
	unit := a.UnitWidth()

	var (
		lastX   float64
		emitted bool
		skipped = -1
		best    float64
		x       float64
	)
	for i := 0; i < a.MaxIndex; i++ {
		lx := a.Position(x)
		m := magnitude(i)
		if !emitted || lx-lastX >= minStep {
			idx := i
			if skipped >= 0 && best >= m {
				idx = skipped
			}
			picks = append(picks, Pick{X: lx, Index: idx})
			lastX = lx
			emitted = true
			skipped = -1
		} else if skipped < 0 || m > best {
			skipped = i
			best = m
		}
		x += unit
	}
	return picks
}

// MaxDrawIndex returns how many frequency bins lie below maxFrequency, capped
// at binCount.
func MaxDrawIndex(binCount int, maxFrequency, sampleRate float64, fftSize int) int {
	if binCount <= 0 {
		return 0
	}
	if maxFrequency <= 0 || sampleRate <= 0 || fftSize <= 0 {
		return binCount
	}
	n := int(math.Ceil(maxFrequency / (sampleRate / float64(fftSize))))
	return max(1, min(n, binCount))
}
