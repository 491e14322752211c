package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyforge/internal/keycode"
)

func TestPresetsBuild(t *testing.T) {
	for _, name := range PresetNames() {
		t.Run(name, func(t *testing.T) {
			p, err := LookupPreset(name)
			require.NoError(t, err)
			layout, effort, phalanx, err := p.Build()
			require.NoError(t, err)
			require.NoError(t, layout.ValidateSymmetry())
			assert.Equal(t, p.Rows, effort.Rows())
			assert.Equal(t, p.Cols, phalanx.Cols())
			assert.Len(t, layout.Find(keycode.SFT), 2)
		})
	}
}

func TestFerrisSweepPreset(t *testing.T) {
	p, err := LookupPreset("Ferris_Sweep")
	require.NoError(t, err)
	layout, effort, phalanx, err := p.Build()
	require.NoError(t, err)
	assert.Equal(t, 4, layout.NumLayers())

	assert.Equal(t, []LayoutPosition{{Layer: 0, Row: 3, Col: 4}}, layout.Find(keycode.SPC))
	assert.Equal(t, []LayoutPosition{{Layer: 2, Row: 1, Col: 4}}, layout.Find(keycode.N0))

	sft, err := layout.Get(LayoutPosition{Layer: 0, Row: 2, Col: 9})
	require.NoError(t, err)
	assert.Equal(t, KeycodeKey{Value: keycode.SFT, Moveable: true, Symmetric: true}, sft)

	cost, err := effort.Get(3, 0)
	require.NoError(t, err)
	assert.Equal(t, 10.0, cost)

	thumb, err := phalanx.Get(3, 5)
	require.NoError(t, err)
	assert.Equal(t, PhalanxKey{Hand: Right, Finger: Thumb}, thumb)
}

func TestFourByTwelvePresetStripsDecorations(t *testing.T) {
	p, err := LookupPreset(FourByTwelveName)
	require.NoError(t, err)
	layout, _, phalanx, err := p.Build()
	require.NoError(t, err)
	assert.Equal(t, 3, layout.NumLayers())
	assert.Equal(t, []LayoutPosition{{Layer: 0, Row: 3, Col: 7}}, layout.Find(keycode.LS2))
	joint, err := phalanx.Get(3, 11)
	require.NoError(t, err)
	assert.Equal(t, PhalanxKey{Hand: Right, Finger: Joint}, joint)
}

func TestLookupPresetUnknown(t *testing.T) {
	_, err := LookupPreset("dvorak")
	assert.Error(t, err)
}
