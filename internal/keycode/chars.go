package keycode

var runeKeycodes = map[rune]Keycode{
	'1': N1, '2': N2, '3': N3, '4': N4, '5': N5,
	'6': N6, '7': N7, '8': N8, '9': N9, '0': N0,
	'-': MINS, '=': EQL, '[': LBRC, ']': RBRC, '\\': BSLS, ';': SCLN,
	'\'': QUOT, '`': GRV, ',': COMM, '.': DOT, '/': SLSH,
	'!': EXLM, '@': AT, '#': HASH, '$': DLR, '%': PERC, '^': CIRC,
	'&': AMPR, '*': ASTR, '(': LPRN, ')': RPRN, '_': UNDS, '+': PLUS,
	'{': LCBR, '}': RCBR, '|': PIPE, ':': COLN, '"': DQUO, '~': TILD,
	'<': LT, '>': GT, '?': QUES,
	' ': SPC, '\n': ENT, '\t': TAB,
}

// shifted maps a shifted symbol onto the base key it shares a US key cap with.
var shifted = map[Keycode]Keycode{
	EXLM: N1, AT: N2, HASH: N3, DLR: N4, PERC: N5,
	CIRC: N6, AMPR: N7, ASTR: N8, LPRN: N9, RPRN: N0,
	UNDS: MINS, PLUS: EQL, LCBR: LBRC, RCBR: RBRC, PIPE: BSLS,
	COLN: SCLN, DQUO: QUOT, TILD: GRV, LT: COMM, GT: DOT, QUES: SLSH,
}

// FromRune returns the keystrokes that type r: SFT followed by the letter for
// uppercase letters, the single symbol key otherwise. ok is false when r has no
// key in the table.
func FromRune(r rune) ([]Keycode, bool) {
	if r >= 'a' && r <= 'z' {
		return []Keycode{A + Keycode(r-'a')}, true
	}
	if r >= 'A' && r <= 'Z' {
		return []Keycode{SFT, A + Keycode(r-'A')}, true
	}
	if k, ok := runeKeycodes[r]; ok {
		return []Keycode{k}, true
	}
	return nil, false
}

// FromString expands s rune by rune, skipping runes without a keycode.
func FromString(s string) []Keycode {
	out := make([]Keycode, 0, len(s))
	for _, r := range s {
		if keys, ok := FromRune(r); ok {
			out = append(out, keys...)
		}
	}
	return out
}

// Typeable reports whether every rune of s maps to a keycode.
func Typeable(s string) bool {
	for _, r := range s {
		if _, ok := FromRune(r); !ok {
			return false
		}
	}
	return true
}

// Unshift returns the base key that produces k when held with SFT.
func Unshift(k Keycode) (Keycode, bool) {
	base, ok := shifted[k]
	return base, ok
}
