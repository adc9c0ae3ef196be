package render

import "github.com/guidoenr/waterfall/internal/scene"

const (
	// baseColor is the color of the newest history object.
	baseColor = 0xffffff
	// barBuckets is the number of height-indexed bar colors.
	barBuckets = 64
)

// AgingColor returns the 24-bit color of history slot i out of n. Even slots
// carry a large descending component and odd slots a small ascending one, on
// top of a fixed green offset.
func AgingColor(i, n int) uint32 {
	c := uint64(256 * 125)
	if i%2 == 0 {
		c += uint64((1 << 24) * (n - i) / n)
	} else {
		c += uint64(256 * i / n)
	}
	return uint32(c & 0xffffff)
}

// BarColor returns the 24-bit color of bar bucket i.
func BarColor(i int) uint32 {
	c := uint32(i * 4 * 65536)
	if i%2 == 0 {
		c += 80
	} else {
		c += 80 * 256
	}
	return c & 0xffffff
}

// BarBucket maps a bar height onto one of the bar colors.
func BarBucket(y float64) int {
	if y <= 0 {
		return 0
	}
	return min(int(y/4), barBuckets-1)
}

// palette is a set of shared materials owned by one strategy.
type palette []*scene.Material

func newPalette(res *scene.Resources, kind scene.Kind, n int, color func(i int) uint32) palette {
	p := make(palette, n)
	for i := range p {
		p[i] = res.NewMaterial(kind, scene.Hex(color(i)), true)
	}
	return p
}

func (p palette) at(i int) *scene.Material {
	if len(p) == 0 {
		return nil
	}
	return p[i%len(p)]
}

func (p palette) dispose() {
	for _, m := range p {
		m.Dispose()
	}
}
