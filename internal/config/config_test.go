package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyforge/internal/keyboard"
	"keyforge/internal/keycode"
	"keyforge/internal/score"
)

func TestDefaultBuilds(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	setup, err := cfg.Build()
	require.NoError(t, err)
	assert.Equal(t, keyboard.FerrisSweepName, setup.Name)
	assert.Equal(t, 4, setup.Layout.Rows())
	assert.Equal(t, 10, setup.Layout.Cols())
	assert.NoError(t, setup.Layout.ValidateSymmetry())
	assert.NotNil(t, setup.Scorer)

	want, err := keycode.DefaultSet(keycode.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, want, setup.Keycodes)
}

func TestWriteLoadRoundTrip(t *testing.T) {
	for _, name := range []string{"keyforge.toml", "keyforge.yaml"} {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			cfg.Optimizer.Genetic.PopulationSize = 40
			cfg.Optimizer.Genetic.Selector = "tournament"
			cfg.Optimizer.Dataset.DatasetPaths = []string{"a", "b"}
			cfg.Optimizer.Dataset.DatasetWeights = []float64{2, 1}
			cfg.Optimizer.ValidKeycodes = []string{"A", "B"}

			path := filepath.Join(t.TempDir(), "nested", name)
			require.NoError(t, cfg.Write(path))

			loaded, err := Load(path)
			require.NoError(t, err)
			if diff := cmp.Diff(cfg, loaded, cmpopts.EquateEmpty()); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncodeAppendsDescriptions(t *testing.T) {
	data, err := Default().Encode()
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasPrefix(text, "# See the comments"))
	assert.Contains(t, text, "[layout_info]")
	assert.Contains(t, text, "[layout_optimizer_config.genetic_options]")
	assert.Contains(t, text, "# population_size: Number of layouts per generation.")
	assert.Contains(t, text, "Available presets: 4x12, ferris_sweep")
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.toml")
	content := `
[layout_optimizer_config.genetic_options]
population_size = 12
generation_count = 3
fitness_cutoff = 0.5
swap_weight = 1.0
replace_weight = 0.0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Optimizer.Genetic.PopulationSize)
	assert.Equal(t, 0.0, cfg.Optimizer.Genetic.ReplaceWeight)
	assert.Equal(t, keyboard.FerrisSweepName, cfg.LayoutInfo.Name)
	assert.Equal(t, score.DefaultOptions(), cfg.Optimizer.Score)
	assert.Equal(t, int64(1), cfg.Optimizer.Genetic.Seed)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte("[layout_info]\ncolour = \"red\"\n"), 0o644))
	_, err := Load(tomlPath)
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	yamlPath := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("layout_info:\n  colour: red\n"), 0o644))
	_, err = Load(yamlPath)
	assert.Error(t, err)

	_, err = Load(filepath.Join(dir, "config.ini"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*OptimizerConfig){
		"population":      func(c *OptimizerConfig) { c.Optimizer.Genetic.PopulationSize = 0 },
		"generations":     func(c *OptimizerConfig) { c.Optimizer.Genetic.GenerationCount = 0 },
		"cutoff zero":     func(c *OptimizerConfig) { c.Optimizer.Genetic.FitnessCutoff = 0 },
		"cutoff above 1":  func(c *OptimizerConfig) { c.Optimizer.Genetic.FitnessCutoff = 1.1 },
		"negative weight": func(c *OptimizerConfig) { c.Optimizer.Genetic.SwapWeight = -1 },
		"zero weights":    func(c *OptimizerConfig) { c.Optimizer.Genetic.SwapWeight, c.Optimizer.Genetic.ReplaceWeight = 0, 0 },
		"workers":         func(c *OptimizerConfig) { c.Optimizer.Genetic.Workers = -2 },
		"selector":        func(c *OptimizerConfig) { c.Optimizer.Genetic.Selector = "roulette" },
		"dataset weights": func(c *OptimizerConfig) { c.Optimizer.Dataset.DatasetWeights = []float64{1, 2} },
		"ngram size":      func(c *OptimizerConfig) { c.Optimizer.Dataset.MaxNgramSize = 0 },
		"layout dims": func(c *OptimizerConfig) {
			c.LayoutInfo.Name = ""
			c.LayoutInfo.NumRows = 0
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.True(t, errors.Is(cfg.Validate(), ErrInvalidConfig))
		})
	}

	cfg := Default()
	cfg.Optimizer.Score.SameFingerPenaltyFactor = -1
	assert.True(t, errors.Is(cfg.Validate(), score.ErrInvalidOptions))
}

func TestBuildExplicitLayout(t *testing.T) {
	cfg := Default()
	cfg.LayoutInfo = LayoutInfo{
		NumRows:      1,
		NumCols:      3,
		Layout:       "A_10 SFT_11 B_10",
		EffortLayer:  "1 2 1",
		PhalanxLayer: "L:I L:T R:I",
	}
	cfg.Optimizer.ValidKeycodes = []string{"c", "a"}

	setup, err := cfg.Build()
	require.NoError(t, err)
	assert.Equal(t, 1, setup.Layout.NumLayers())
	assert.Equal(t, []keycode.Keycode{keycode.A, keycode.C}, setup.Keycodes)

	cfg.LayoutInfo.EffortLayer = "1 2"
	_, err = cfg.Build()
	assert.True(t, errors.Is(err, keyboard.ErrShapeMismatch))

	cfg = Default()
	cfg.Optimizer.ValidKeycodes = []string{"NOPE"}
	_, err = cfg.Build()
	assert.True(t, errors.Is(err, keycode.ErrUnknownKeycode))
}

func TestBuildPresetFallsBackToPresetGrids(t *testing.T) {
	cfg := Default()
	cfg.LayoutInfo = LayoutInfo{Name: keyboard.FourByTwelveName}
	setup, err := cfg.Build()
	require.NoError(t, err)
	assert.Equal(t, 12, setup.Layout.Cols())

	cfg.LayoutInfo.Name = "qwerty-board"
	_, err = cfg.Build()
	assert.Error(t, err)
}

func TestSources(t *testing.T) {
	cfg := Default()
	cfg.Optimizer.Dataset.DatasetPaths = []string{"x", "y"}
	cfg.Optimizer.Dataset.DatasetWeights = nil
	sources := cfg.Sources()
	require.Len(t, sources, 2)
	assert.Equal(t, 1.0, sources[1].Weight)
	assert.Equal(t, "y", sources[1].Path)
}

func TestLoadTable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("abab\n"), 0o644))
	cfg := Default()
	cfg.Optimizer.Dataset.DatasetPaths = []string{dir}
	cfg.Optimizer.Dataset.MaxNgramSize = 2

	table, err := cfg.LoadTable()
	require.NoError(t, err)
	assert.Contains(t, table, "ab")
	assert.Contains(t, table, "a")
}
