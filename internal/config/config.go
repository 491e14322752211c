// Package config loads and writes optimizer configuration files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"keyforge/internal/corpus"
	"keyforge/internal/evo"
	"keyforge/internal/keyboard"
	"keyforge/internal/keycode"
	"keyforge/internal/score"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

// OptimizerConfig is the top level of a configuration file.
type OptimizerConfig struct {
	LayoutInfo LayoutInfo            `toml:"layout_info" yaml:"layout_info"`
	Optimizer  LayoutOptimizerConfig `toml:"layout_optimizer_config" yaml:"layout_optimizer_config"`
}

// LayoutInfo names a preset or spells out the layout, effort and phalanx
// grids. Grid text left empty falls back to the preset's.
type LayoutInfo struct {
	Name         string `toml:"name,omitempty" yaml:"name,omitempty"`
	NumRows      int    `toml:"num_rows,omitempty" yaml:"num_rows,omitempty"`
	NumCols      int    `toml:"num_cols,omitempty" yaml:"num_cols,omitempty"`
	Layout       string `toml:"layout,multiline" yaml:"layout"`
	EffortLayer  string `toml:"effort_layer,multiline" yaml:"effort_layer"`
	PhalanxLayer string `toml:"phalanx_layer,multiline" yaml:"phalanx_layer"`
}

type LayoutOptimizerConfig struct {
	Genetic       GeneticOptions  `toml:"genetic_options" yaml:"genetic_options"`
	Keycodes      keycode.Options `toml:"keycode_options" yaml:"keycode_options"`
	ValidKeycodes []string        `toml:"valid_keycodes" yaml:"valid_keycodes"`
	Dataset       DatasetOptions  `toml:"dataset_options" yaml:"dataset_options"`
	Score         score.Options   `toml:"score_options" yaml:"score_options"`
}

type GeneticOptions struct {
	PopulationSize  int     `toml:"population_size" yaml:"population_size"`
	GenerationCount int     `toml:"generation_count" yaml:"generation_count"`
	FitnessCutoff   float64 `toml:"fitness_cutoff" yaml:"fitness_cutoff"`
	SwapWeight      float64 `toml:"swap_weight" yaml:"swap_weight"`
	ReplaceWeight   float64 `toml:"replace_weight" yaml:"replace_weight"`
	Selector        string  `toml:"selector" yaml:"selector"`
	Seed            int64   `toml:"seed" yaml:"seed"`
	// Workers of 0 means one per CPU.
	Workers int `toml:"workers" yaml:"workers"`
}

type DatasetOptions struct {
	DatasetPaths     []string  `toml:"dataset_paths" yaml:"dataset_paths"`
	DatasetWeights   []float64 `toml:"dataset_weights" yaml:"dataset_weights"`
	MaxNgramSize     int       `toml:"max_ngram_size" yaml:"max_ngram_size"`
	TopNNgramsToTake int       `toml:"top_n_ngrams_to_take" yaml:"top_n_ngrams_to_take"`
}

// Default returns the ferris_sweep preset with stock optimizer settings.
func Default() OptimizerConfig {
	preset, err := keyboard.LookupPreset(keyboard.FerrisSweepName)
	if err != nil {
		panic(err)
	}
	return OptimizerConfig{
		LayoutInfo: LayoutInfo{
			Name:         preset.Name,
			Layout:       trimGrid(preset.Layout),
			EffortLayer:  trimGrid(preset.Effort),
			PhalanxLayer: trimGrid(preset.Phalanx),
		},
		Optimizer: LayoutOptimizerConfig{
			Genetic: GeneticOptions{
				PopulationSize:  5,
				GenerationCount: 1,
				FitnessCutoff:   0.1,
				SwapWeight:      4,
				ReplaceWeight:   1,
				Selector:        "elite",
				Seed:            1,
			},
			Keycodes:      keycode.DefaultOptions(),
			ValidKeycodes: []string{},
			Dataset: DatasetOptions{
				DatasetPaths:     []string{"./data"},
				DatasetWeights:   []float64{1},
				MaxNgramSize:     4,
				TopNNgramsToTake: 100,
			},
			Score: score.DefaultOptions(),
		},
	}
}

// trimGrid drops blank lines and leading indentation from grid text.
func trimGrid(s string) string {
	var b strings.Builder
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// Load decodes path over Default. The format follows the file extension:
// .toml, .yaml or .yml. Unknown keys are rejected.
func Load(path string) (OptimizerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return OptimizerConfig{}, err
	}
	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = decodeTOML(data, &cfg)
	case ".yaml", ".yml":
		err = decodeYAML(data, &cfg)
	default:
		return OptimizerConfig{}, fmt.Errorf("unsupported config format: %s", path)
	}
	if err != nil {
		return OptimizerConfig{}, fmt.Errorf("load %s: %w", path, err)
	}
	return cfg, nil
}

func decodeTOML(data []byte, cfg *OptimizerConfig) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		sort.Strings(keys)
		return fmt.Errorf("%w: unknown keys %s", ErrInvalidConfig, strings.Join(keys, ", "))
	}
	return nil
}

func decodeYAML(data []byte, cfg *OptimizerConfig) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return err
	}
	return nil
}

// Validate checks ranges that decoding cannot enforce.
func (c OptimizerConfig) Validate() error {
	g := c.Optimizer.Genetic
	switch {
	case g.PopulationSize <= 0:
		return fmt.Errorf("%w: population_size must be > 0", ErrInvalidConfig)
	case g.GenerationCount <= 0:
		return fmt.Errorf("%w: generation_count must be > 0", ErrInvalidConfig)
	case g.FitnessCutoff <= 0 || g.FitnessCutoff > 1:
		return fmt.Errorf("%w: fitness_cutoff must be in (0, 1], got %v", ErrInvalidConfig, g.FitnessCutoff)
	case g.SwapWeight < 0 || g.ReplaceWeight < 0:
		return fmt.Errorf("%w: mutation weights must be >= 0", ErrInvalidConfig)
	case g.SwapWeight+g.ReplaceWeight <= 0:
		return fmt.Errorf("%w: swap_weight + replace_weight must be > 0", ErrInvalidConfig)
	case g.Workers < 0:
		return fmt.Errorf("%w: workers must be >= 0", ErrInvalidConfig)
	}
	if _, err := evo.SelectorByName(g.Selector); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	d := c.Optimizer.Dataset
	if len(d.DatasetWeights) > 0 && len(d.DatasetWeights) != len(d.DatasetPaths) {
		return fmt.Errorf("%w: %d dataset weights for %d dataset paths", ErrInvalidConfig, len(d.DatasetWeights), len(d.DatasetPaths))
	}
	for _, w := range d.DatasetWeights {
		if w < 0 {
			return fmt.Errorf("%w: dataset weights must be >= 0", ErrInvalidConfig)
		}
	}
	if d.MaxNgramSize <= 0 {
		return fmt.Errorf("%w: max_ngram_size must be > 0", ErrInvalidConfig)
	}
	if d.TopNNgramsToTake < 0 {
		return fmt.Errorf("%w: top_n_ngrams_to_take must be >= 0", ErrInvalidConfig)
	}

	if err := c.Optimizer.Score.Validate(); err != nil {
		return err
	}

	info := c.LayoutInfo
	if info.Name == "" && (info.NumRows <= 0 || info.NumCols <= 0) {
		return fmt.Errorf("%w: layout_info needs a preset name or num_rows and num_cols", ErrInvalidConfig)
	}
	return nil
}

// Setup is everything an optimizer run needs from the layout section.
type Setup struct {
	Name     string
	Layout   *keyboard.Layout
	Effort   *keyboard.EffortLayer
	Phalanx  *keyboard.PhalanxLayer
	Keycodes []keycode.Keycode
	Scorer   *score.Scorer
}

// Build validates c and parses its grids and keycode set.
func (c OptimizerConfig) Build() (Setup, error) {
	if err := c.Validate(); err != nil {
		return Setup{}, err
	}

	info := c.LayoutInfo
	rows, cols := info.NumRows, info.NumCols
	layoutText, effortText, phalanxText := info.Layout, info.EffortLayer, info.PhalanxLayer
	if info.Name != "" {
		preset, err := keyboard.LookupPreset(info.Name)
		if err != nil {
			return Setup{}, err
		}
		rows, cols = preset.Rows, preset.Cols
		layoutText = fallback(layoutText, preset.Layout)
		effortText = fallback(effortText, preset.Effort)
		phalanxText = fallback(phalanxText, preset.Phalanx)
	}

	layout, err := keyboard.ParseLayout(layoutText, rows, cols)
	if err != nil {
		return Setup{}, fmt.Errorf("layout: %w", err)
	}
	effort, err := keyboard.ParseEffortLayer(effortText, rows, cols)
	if err != nil {
		return Setup{}, fmt.Errorf("effort_layer: %w", err)
	}
	phalanx, err := keyboard.ParsePhalanxLayer(phalanxText, rows, cols)
	if err != nil {
		return Setup{}, fmt.Errorf("phalanx_layer: %w", err)
	}

	keycodes, err := c.keycodes()
	if err != nil {
		return Setup{}, err
	}
	scorer, err := score.NewScorer(effort, phalanx, c.Optimizer.Score)
	if err != nil {
		return Setup{}, err
	}
	return Setup{
		Name:     info.Name,
		Layout:   layout,
		Effort:   effort,
		Phalanx:  phalanx,
		Keycodes: keycodes,
		Scorer:   scorer,
	}, nil
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}

// keycodes prefers an explicit valid_keycodes list over keycode_options.
func (c OptimizerConfig) keycodes() ([]keycode.Keycode, error) {
	if len(c.Optimizer.ValidKeycodes) > 0 {
		keycodes, err := keycode.ParseAll(c.Optimizer.ValidKeycodes)
		if err != nil {
			return nil, fmt.Errorf("valid_keycodes: %w", err)
		}
		keycode.Sort(keycodes)
		return keycodes, nil
	}
	keycodes, err := keycode.DefaultSet(c.Optimizer.Keycodes)
	if err != nil {
		return nil, fmt.Errorf("keycode_options: %w", err)
	}
	return keycodes, nil
}

// Sources lists the configured datasets. Missing weights default to 1.
func (c OptimizerConfig) Sources() []corpus.Source {
	d := c.Optimizer.Dataset
	sources := make([]corpus.Source, len(d.DatasetPaths))
	for i, path := range d.DatasetPaths {
		weight := 1.0
		if i < len(d.DatasetWeights) {
			weight = d.DatasetWeights[i]
		}
		sources[i] = corpus.Source{Path: path, Weight: weight}
	}
	return sources
}

// LoadTable builds the frequency table described by the dataset options.
func (c OptimizerConfig) LoadTable() (corpus.FrequencyTable, error) {
	d := c.Optimizer.Dataset
	return corpus.Build(c.Sources(), d.MaxNgramSize, d.TopNNgramsToTake)
}
