// Package input names the key codes understood by strategies and the app,
// and maps terminal keyboard events onto them.
package input

import (
	"unicode"

	"github.com/eiannone/keyboard"
)

// Key identifies a physical key using DOM-style code names.
type Key string

const (
	KeyW Key = "KeyW"
	KeyA Key = "KeyA"
	KeyS Key = "KeyS"
	KeyD Key = "KeyD"
	KeyR Key = "KeyR"
	KeyF Key = "KeyF"
	KeyZ Key = "KeyZ"
	KeyX Key = "KeyX"
	KeyC Key = "KeyC"
	KeyM Key = "KeyM"
	KeyQ Key = "KeyQ"

	ArrowUp    Key = "ArrowUp"
	ArrowDown  Key = "ArrowDown"
	ArrowLeft  Key = "ArrowLeft"
	ArrowRight Key = "ArrowRight"

	Space  Key = "Space"
	Tab    Key = "Tab"
	Escape Key = "Escape"
	Plus   Key = "Equal"
	Minus  Key = "Minus"
)

// Digit returns the code of a number-row key, or "" outside 0-9.
func Digit(n int) Key {
	if n < 0 || n > 9 {
		return ""
	}
	return Key("Digit" + string(rune('0'+n)))
}

// DigitValue reports the number of a Digit key.
func DigitValue(k Key) (int, bool) {
	s := string(k)
	if len(s) != 6 || s[:5] != "Digit" {
		return 0, false
	}
	c := s[5]
	if c < '0' || c > '9' {
		return 0, false
	}
	return int(c - '0'), true
}

// FromKeyboard converts an eiannone/keyboard event into a Key.
func FromKeyboard(char rune, key keyboard.Key) (Key, bool) {
	switch key {
	case keyboard.KeyArrowUp:
		return ArrowUp, true
	case keyboard.KeyArrowDown:
		return ArrowDown, true
	case keyboard.KeyArrowLeft:
		return ArrowLeft, true
	case keyboard.KeyArrowRight:
		return ArrowRight, true
	case keyboard.KeySpace:
		return Space, true
	case keyboard.KeyTab:
		return Tab, true
	case keyboard.KeyEsc, keyboard.KeyCtrlC:
		return Escape, true
	}
	return FromRune(char)
}

// FromRune maps a printable character to its key code.
func FromRune(char rune) (Key, bool) {
	switch {
	case char >= '0' && char <= '9':
		return Digit(int(char - '0')), true
	case char == '+' || char == '=':
		return Plus, true
	case char == '-' || char == '_':
		return Minus, true
	case char == ' ':
		return Space, true
	case unicode.IsLetter(char) && char < unicode.MaxASCII:
		return Key("Key" + string(unicode.ToUpper(char))), true
	}
	return "", false
}
