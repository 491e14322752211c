package keyboard

import (
	"fmt"
	"strings"

	"keyforge/internal/keycode"
)

// KeycodeKey is one key cell of a layer. Moveable cells may be changed by the
// optimizer; symmetric cells change in lock-step with their mirror cell.
type KeycodeKey struct {
	Value     keycode.Keycode
	Moveable  bool
	Symmetric bool
}

// NewKey returns a moveable, non-symmetric key holding k.
func NewKey(k keycode.Keycode) KeycodeKey {
	return KeycodeKey{Value: k, Moveable: true}
}

// BlankKey is the cell a blank layer is filled with.
func BlankKey() KeycodeKey {
	return NewKey(keycode.NO)
}

func (k KeycodeKey) String() string {
	if k.Value == keycode.NO {
		return "_"
	}
	return k.Value.String()
}

// Flags renders the moveable and symmetric flags as two binary digits.
func (k KeycodeKey) Flags() string {
	return flagDigit(k.Moveable) + flagDigit(k.Symmetric)
}

// Token renders k in the layer text grammar, e.g. "A_11" or "__10".
func (k KeycodeKey) Token() string {
	if k.Value == keycode.NO {
		return "__" + k.Flags()
	}
	return k.Value.String() + "_" + k.Flags()
}

// BitString is the binary-style cell text used by RenderBits.
func (k KeycodeKey) BitString() string {
	return k.Token()
}

func flagDigit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// ParseKeycodeKey parses a "{VALUE}_{m}{s}" token. A leading underscore
// denotes the NO value.
func ParseKeycodeKey(token string) (KeycodeKey, error) {
	if token == "" {
		return KeycodeKey{}, &InvalidTokenError{Token: token, Reason: "empty token"}
	}
	parts := strings.Split(token, "_")
	var (
		key   = BlankKey()
		flags string
	)
	if parts[0] == "" {
		if len(parts) != 3 {
			return KeycodeKey{}, &InvalidTokenError{Token: token, Reason: "expected __{flags}"}
		}
		flags = parts[2]
	} else {
		if len(parts) != 2 {
			return KeycodeKey{}, &InvalidTokenError{Token: token, Reason: "expected {value}_{flags}"}
		}
		value, err := keycode.Parse(parts[0])
		if err != nil {
			return KeycodeKey{}, &InvalidTokenError{Token: token, Reason: fmt.Sprintf("unknown key value %q", parts[0])}
		}
		key.Value = value
		flags = parts[1]
	}
	if len(flags) != 2 {
		return KeycodeKey{}, &InvalidTokenError{Token: token, Reason: "flags must be exactly two digits"}
	}
	moveable, ok := parseFlag(flags[0])
	if !ok {
		return KeycodeKey{}, &InvalidTokenError{Token: token, Reason: "moveable flag must be 0 or 1"}
	}
	symmetric, ok := parseFlag(flags[1])
	if !ok {
		return KeycodeKey{}, &InvalidTokenError{Token: token, Reason: "symmetric flag must be 0 or 1"}
	}
	key.Moveable = moveable
	key.Symmetric = symmetric
	return key, nil
}

func parseFlag(b byte) (bool, bool) {
	switch b {
	case '0':
		return false, true
	case '1':
		return true, true
	default:
		return false, false
	}
}

// Hand is the hand assigned to a key position.
type Hand uint8

const (
	Left Hand = iota
	Right
)

func (h Hand) String() string {
	switch h {
	case Left:
		return "L"
	case Right:
		return "R"
	default:
		return fmt.Sprintf("Hand(%d)", uint8(h))
	}
}

// Finger is the finger assigned to a key position, ordered from the thumb
// outward.
type Finger uint8

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinkie
	Joint
)

var fingerLetters = [...]string{Thumb: "T", Index: "I", Middle: "M", Ring: "R", Pinkie: "P", Joint: "J"}

func (f Finger) String() string {
	if int(f) < len(fingerLetters) {
		return fingerLetters[f]
	}
	return fmt.Sprintf("Finger(%d)", uint8(f))
}

// PhalanxKey assigns a hand and finger to a key position.
type PhalanxKey struct {
	Hand   Hand
	Finger Finger
}

func (p PhalanxKey) String() string {
	return p.Hand.String() + ":" + p.Finger.String()
}

// ParsePhalanxKey parses an "{L|R}:{T|I|M|R|P|J}" token.
func ParsePhalanxKey(token string) (PhalanxKey, error) {
	hand, finger, ok := strings.Cut(token, ":")
	if !ok {
		return PhalanxKey{}, &InvalidTokenError{Token: token, Reason: "expected {hand}:{finger}"}
	}
	var key PhalanxKey
	switch strings.ToUpper(hand) {
	case "L":
		key.Hand = Left
	case "R":
		key.Hand = Right
	default:
		return PhalanxKey{}, &InvalidTokenError{Token: token, Reason: fmt.Sprintf("unknown hand %q", hand)}
	}
	found := false
	for i, letter := range fingerLetters {
		if strings.EqualFold(letter, finger) {
			key.Finger = Finger(i)
			found = true
			break
		}
	}
	if !found {
		return PhalanxKey{}, &InvalidTokenError{Token: token, Reason: fmt.Sprintf("unknown finger %q", finger)}
	}
	return key, nil
}
