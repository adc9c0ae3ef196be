package display

var (
	defaultGlyphs = []rune(" .,:-;+=*%#@")
	boxGlyphs     = []rune(" ░▒▓█")
	linesGlyphs   = []rune(" `.-=+*/\\|")
	sparkGlyphs   = []rune(" ´`^\"~:;*+×•¤°oO@#")
)

// Glyphs returns the characters used for depth shading, faint to dense.
func Glyphs(name string) []rune {
	switch name {
	case "box":
		return boxGlyphs
	case "lines":
		return linesGlyphs
	case "spark":
		return sparkGlyphs
	default:
		return defaultGlyphs
	}
}

// GlyphNames returns all glyph set identifiers.
func GlyphNames() []string {
	return []string{"default", "box", "lines", "spark"}
}

// glyphFor picks a glyph for brightness v in [0, 1], skipping the blank.
func glyphFor(set []rune, v float64) rune {
	if len(set) < 2 {
		return '#'
	}
	i := 1 + int(clamp01(v)*float64(len(set)-2)+0.5)
	return set[min(i, len(set)-1)]
}
