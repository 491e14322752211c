package keyboard

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyforge/internal/keycode"
)

func TestSymmetricPositionIsInvolution(t *testing.T) {
	layer := NewKeyLayer(4, 6)
	for r := 0; r < 4; r++ {
		for c := 0; c < 6; c++ {
			p := LayoutPosition{Layer: 2, Row: r, Col: c}
			assert.Equal(t, p, layer.SymmetricPosition(layer.SymmetricPosition(p)))
		}
	}
	assert.Equal(t, LayoutPosition{Row: 2, Col: 0}, layer.SymmetricPosition(LayoutPosition{Row: 2, Col: 5}))

	odd := NewKeyLayer(1, 5)
	assert.Equal(t, ForLayer(0, 2), odd.SymmetricPosition(ForLayer(0, 2)))
}

func TestParseKeyLayerMirrorScenario(t *testing.T) {
	layer, err := ParseKeyLayer(`
		A_11 B_10 C_11
		E_10 D_00 A_11
	`, 2, 3)
	require.NoError(t, err)

	assert.Equal(t, ForLayer(0, 2), layer.SymmetricPosition(ForLayer(0, 0)))
	assert.Equal(t, ForLayer(0, 1), layer.SymmetricPosition(ForLayer(0, 1)))

	b, err := layer.GetAt(ForLayer(0, 1))
	require.NoError(t, err)
	assert.Equal(t, KeycodeKey{Value: keycode.B, Moveable: true}, b)
	d, err := layer.Get(1, 1)
	require.NoError(t, err)
	assert.Equal(t, KeycodeKey{Value: keycode.D}, d)

	// (1,2) is symmetric but its mirror E_10 is not.
	err = layer.ValidateSymmetry()
	var symErr *SymmetryError
	require.True(t, errors.As(err, &symErr))
	assert.Equal(t, SymmetryError{Layer: 0, Row: 1, Col: 2, MirrorRow: 1, MirrorCol: 0}, *symErr)
}

func TestRandomizeReportsSymmetryViolation(t *testing.T) {
	rng := rand.New(rand.NewSource(0))
	layer := NewKeyLayer(2, 2)
	k, err := layer.Ptr(0, 0)
	require.NoError(t, err)
	k.Symmetric = true

	err = layer.Randomize(rng, []keycode.Keycode{keycode.E})
	require.True(t, errors.Is(err, ErrSymmetryViolation))
	var symErr *SymmetryError
	require.True(t, errors.As(err, &symErr))
	assert.Equal(t, SymmetryError{Row: 0, Col: 0, MirrorRow: 0, MirrorCol: 1}, *symErr)

	k, err = layer.Ptr(0, 1)
	require.NoError(t, err)
	k.Symmetric = true
	k, err = layer.Ptr(1, 1)
	require.NoError(t, err)
	k.Moveable = false

	require.NoError(t, layer.Randomize(rng, []keycode.Keycode{keycode.E}))
	got := make([][]keycode.Keycode, 2)
	for r, row := range layer.ToRows() {
		for _, key := range row {
			got[r] = append(got[r], key.Value)
		}
	}
	assert.Equal(t, [][]keycode.Keycode{
		{keycode.NO, keycode.NO},
		{keycode.E, keycode.NO},
	}, got)
}

func TestRandomizePreservesFixedAndSymmetricCells(t *testing.T) {
	const text = `
		A_11 __10 B_00 __10 __10 A_11
		__10 C_01 __10 __10 C_01 __10
		D_00 __10 __10 __10 __10 E_00
	`
	candidates := []keycode.Keycode{keycode.Q, keycode.W, keycode.X, keycode.Z}
	for seed := int64(0); seed < 20; seed++ {
		layer, err := ParseKeyLayer(text, 3, 6)
		require.NoError(t, err)
		before := layer.ToRows()

		require.NoError(t, layer.Randomize(rand.New(rand.NewSource(seed)), candidates))

		after := layer.ToRows()
		for r := range before {
			for c := range before[r] {
				b, a := before[r][c], after[r][c]
				if !b.Moveable || b.Symmetric {
					assert.Equal(t, b, a, "seed %d cell (%d,%d)", seed, r, c)
					continue
				}
				assert.Contains(t, candidates, a.Value, "seed %d cell (%d,%d)", seed, r, c)
				assert.True(t, a.Moveable)
				assert.False(t, a.Symmetric)
			}
		}
	}
}

func TestRandomizeWithoutCandidatesIsNoOp(t *testing.T) {
	layer := NewKeyLayer(2, 3)
	before := layer.Clone()
	require.NoError(t, layer.Randomize(rand.New(rand.NewSource(1)), nil))
	assert.True(t, before.Equal(layer))
}

func TestRandomizeIsDeterministicBySeed(t *testing.T) {
	a, b := NewKeyLayer(3, 4), NewKeyLayer(3, 4)
	require.NoError(t, a.Randomize(rand.New(rand.NewSource(42)), keycode.All()))
	require.NoError(t, b.Randomize(rand.New(rand.NewSource(42)), keycode.All()))
	assert.True(t, a.Equal(b))
}

func TestParseKeyLayerShapeErrors(t *testing.T) {
	_, err := ParseKeyLayer("A_10 B_10\n\n", 2, 2)
	var rowErr *RowMismatchError
	require.True(t, errors.As(err, &rowErr))
	assert.Equal(t, RowMismatchError{Expected: 2, Actual: 1}, *rowErr)

	_, err = ParseKeyLayer("A_10 B_10\nC_10", 2, 2)
	var colErr *ColMismatchError
	require.True(t, errors.As(err, &colErr))
	assert.Equal(t, ColMismatchError{Row: 1, Expected: 2, Actual: 1}, *colErr)
}

func TestParseKeycodeKey(t *testing.T) {
	cases := []struct {
		token string
		want  KeycodeKey
	}{
		{"A_11", KeycodeKey{Value: keycode.A, Moveable: true, Symmetric: true}},
		{"a_10", KeycodeKey{Value: keycode.A, Moveable: true}},
		{"__01", KeycodeKey{Value: keycode.NO, Symmetric: true}},
		{"SPC_00", KeycodeKey{Value: keycode.SPC}},
		{"1_00", KeycodeKey{Value: keycode.N1}},
		{"LS2_10", KeycodeKey{Value: keycode.LS2, Moveable: true}},
	}
	for _, tc := range cases {
		got, err := ParseKeycodeKey(tc.token)
		require.NoError(t, err, tc.token)
		assert.Equal(t, tc.want, got, tc.token)
	}

	for _, token := range []string{"", "A", "A_1", "A_101", "A_12", "A_x0", "QQ_10", "A_10_1", "_10"} {
		_, err := ParseKeycodeKey(token)
		var tokErr *InvalidTokenError
		require.True(t, errors.As(err, &tokErr), "token %q", token)
		assert.Equal(t, token, tokErr.Token)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	}
}

func TestKeyLayerTokensRoundTrip(t *testing.T) {
	layer := NewKeyLayer(3, 4)
	require.NoError(t, layer.Randomize(rand.New(rand.NewSource(7)), []keycode.Keycode{keycode.A, keycode.LCBR, keycode.N0}))
	require.NoError(t, layer.Set(0, 0, KeycodeKey{Value: keycode.SFT, Moveable: true, Symmetric: true}))
	require.NoError(t, layer.Set(0, 3, KeycodeKey{Value: keycode.SFT, Moveable: true, Symmetric: true}))
	require.NoError(t, layer.Set(2, 1, KeycodeKey{}))

	parsed, err := ParseKeyLayer(layer.Tokens(), 3, 4)
	require.NoError(t, err)
	if diff := cmp.Diff(layer.ToRows(), parsed.ToRows()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestBlankLayerRoundTrip(t *testing.T) {
	layer := NewKeyLayer(2, 3)
	assert.Equal(t, "__10 __10 __10\n__10 __10 __10", layer.Tokens())
	parsed, err := ParseKeyLayer(layer.Tokens(), 2, 3)
	require.NoError(t, err)
	assert.True(t, layer.Equal(parsed))
}

func TestRenderLayouts(t *testing.T) {
	layer, err := ParseKeyLayer("A_11 __10\nSPC_00 B_10", 2, 2)
	require.NoError(t, err)

	assert.Equal(t, ""+
		"  0   1   \n"+
		"  -   -   \n"+
		"0|A   _   \n"+
		"1|SPC B   \n", layer.Render())
	assert.Equal(t, ""+
		"  0      1      \n"+
		"  -      -      \n"+
		"0|A_11   __10   \n"+
		"1|SPC_00 B_10   \n", layer.RenderBits())
}

func TestEffortAndPhalanxLayers(t *testing.T) {
	effort, err := ParseEffortLayer("1 2.5\n0 10", 2, 2)
	require.NoError(t, err)
	v, err := effort.Get(0, 1)
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)
	assert.Equal(t, "1 2.5\n0 10", effort.Tokens())

	_, err = ParseEffortLayer("1 x\n0 10", 2, 2)
	assert.True(t, errors.Is(err, ErrInvalidToken))
	_, err = ParseEffortLayer("1 -1\n0 10", 2, 2)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	phalanx, err := ParsePhalanxLayer("L:P R:T\nl:j R:M", 2, 2)
	require.NoError(t, err)
	k, err := phalanx.Get(1, 0)
	require.NoError(t, err)
	assert.Equal(t, PhalanxKey{Hand: Left, Finger: Joint}, k)
	assert.Equal(t, "L:P R:T\nL:J R:M", phalanx.Tokens())

	for _, token := range []string{"LP", "X:P", "L:Q"} {
		_, err := ParsePhalanxKey(token)
		assert.True(t, errors.Is(err, ErrInvalidToken), token)
	}
}
