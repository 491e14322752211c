// Package keycode enumerates the key values a layout cell can hold and maps
// text characters onto the keystrokes that produce them.
package keycode

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Keycode identifies the value assigned to one key position.
type Keycode uint16

const (
	NO Keycode = iota

	A
	B
	C
	D
	E
	F
	G
	H
	I
	J
	K
	L
	M
	N
	O
	P
	Q
	R
	S
	T
	U
	V
	W
	X
	Y
	Z

	N1
	N2
	N3
	N4
	N5
	N6
	N7
	N8
	N9
	N0

	MINS
	EQL
	LBRC
	RBRC
	BSLS
	SCLN
	QUOT
	GRV
	COMM
	DOT
	SLSH

	EXLM
	AT
	HASH
	DLR
	PERC
	CIRC
	AMPR
	ASTR
	LPRN
	RPRN
	UNDS
	PLUS
	LCBR
	RCBR
	PIPE
	COLN
	DQUO
	TILD
	LT
	GT
	QUES

	SPC
	ENT
	TAB
	BSPC
	ESC
	DEL

	SFT

	LS1
	LS2
	LS3
	LS4
	LS5
	LS6
	LS7
	LS8
	LS9

	LEFT
	DOWN
	UP
	RGHT
	HOME
	END
	PGUP
	PGDN

	keycodeCount
)

// ErrUnknownKeycode is returned by Parse for names outside the keycode table.
var ErrUnknownKeycode = errors.New("keycode: unknown keycode name")

var names = [keycodeCount]string{
	NO: "NO",

	A: "A",
	B: "B",
	C: "C",
	D: "D",
	E: "E",
	F: "F",
	G: "G",
	H: "H",
	I: "I",
	J: "J",
	K: "K",
	L: "L",
	M: "M",
	N: "N",
	O: "O",
	P: "P",
	Q: "Q",
	R: "R",
	S: "S",
	T: "T",
	U: "U",
	V: "V",
	W: "W",
	X: "X",
	Y: "Y",
	Z: "Z",

	N1: "1",
	N2: "2",
	N3: "3",
	N4: "4",
	N5: "5",
	N6: "6",
	N7: "7",
	N8: "8",
	N9: "9",
	N0: "ZERO",

	MINS: "MINS",
	EQL:  "EQL",
	LBRC: "LBRC",
	RBRC: "RBRC",
	BSLS: "BSLS",
	SCLN: "SCLN",
	QUOT: "QUOT",
	GRV:  "GRV",
	COMM: "COMM",
	DOT:  "DOT",
	SLSH: "SLSH",

	EXLM: "EXLM",
	AT:   "AT",
	HASH: "HASH",
	DLR:  "DLR",
	PERC: "PERC",
	CIRC: "CIRC",
	AMPR: "AMPR",
	ASTR: "ASTR",
	LPRN: "LPRN",
	RPRN: "RPRN",
	UNDS: "UNDS",
	PLUS: "PLUS",
	LCBR: "LCBR",
	RCBR: "RCBR",
	PIPE: "PIPE",
	COLN: "COLN",
	DQUO: "DQUO",
	TILD: "TILD",
	LT:   "LT",
	GT:   "GT",
	QUES: "QUES",

	SPC:  "SPC",
	ENT:  "ENT",
	TAB:  "TAB",
	BSPC: "BSPC",
	ESC:  "ESC",
	DEL:  "DEL",

	SFT: "SFT",

	LS1: "LS1",
	LS2: "LS2",
	LS3: "LS3",
	LS4: "LS4",
	LS5: "LS5",
	LS6: "LS6",
	LS7: "LS7",
	LS8: "LS8",
	LS9: "LS9",

	LEFT: "LEFT",
	DOWN: "DOWN",
	UP:   "UP",
	RGHT: "RGHT",
	HOME: "HOME",
	END:  "END",
	PGUP: "PGUP",
	PGDN: "PGDN",
}

var byName = func() map[string]Keycode {
	m := make(map[string]Keycode, len(names))
	for i, name := range names {
		m[name] = Keycode(i)
	}
	return m
}()

// String returns the symbolic name used in layout text.
func (k Keycode) String() string {
	if k >= keycodeCount {
		return fmt.Sprintf("Keycode(%d)", uint16(k))
	}
	return names[k]
}

// Valid reports whether k is part of the keycode table.
func (k Keycode) Valid() bool {
	return k < keycodeCount
}

// Parse resolves a symbolic name such as "A", "SFT" or "LS2".
func Parse(name string) (Keycode, error) {
	k, ok := byName[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return NO, fmt.Errorf("%w: %q", ErrUnknownKeycode, name)
	}
	return k, nil
}

// ParseAll resolves a list of names, failing on the first unknown one.
func ParseAll(names []string) ([]Keycode, error) {
	out := make([]Keycode, 0, len(names))
	for _, name := range names {
		k, err := Parse(name)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}

// Names renders keycodes as their symbolic names.
func Names(keycodes []Keycode) []string {
	out := make([]string, len(keycodes))
	for i, k := range keycodes {
		out[i] = k.String()
	}
	return out
}

// All returns every keycode except NO in declaration order.
func All() []Keycode {
	out := make([]Keycode, 0, keycodeCount-1)
	for k := NO + 1; k < keycodeCount; k++ {
		out = append(out, k)
	}
	return out
}

// IsModifier reports whether k is held together with another key.
func IsModifier(k Keycode) bool {
	return k == SFT
}

// LayerShift returns the layer activated by k when k is a layer-shift key.
func LayerShift(k Keycode) (int, bool) {
	if k < LS1 || k > LS9 {
		return 0, false
	}
	return int(k-LS1) + 1, true
}

// LayerShiftFor returns the layer-shift key for layer, which must be in [1, 9].
func LayerShiftFor(layer int) (Keycode, bool) {
	if layer < 1 || layer > 9 {
		return NO, false
	}
	return LS1 + Keycode(layer-1), true
}

// Sort orders keycodes by their numeric value in place.
func Sort(keycodes []Keycode) {
	sort.Slice(keycodes, func(i, j int) bool { return keycodes[i] < keycodes[j] })
}
