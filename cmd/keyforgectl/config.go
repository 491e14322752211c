package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"keyforge/internal/config"
)

// configFlags are shared by the commands that build a layout setup.
type configFlags struct {
	path          *string
	preset        *string
	population    *int
	generations   *int
	cutoff        *float64
	swapWeight    *float64
	replaceWeight *float64
	selector      *string
	seed          *int64
	workers       *int
	dataset       *string
	maxNgram      *int
	topN          *int
}

func registerConfigFlags(fs *flag.FlagSet) *configFlags {
	d := config.Default()
	g := d.Optimizer.Genetic
	return &configFlags{
		path:          fs.String("config", "", "config file (.toml, .yaml or .yml); defaults apply when empty"),
		preset:        fs.String("preset", "", "layout preset, replacing the configured layout grids"),
		population:    fs.Int("pop", g.PopulationSize, "population size"),
		generations:   fs.Int("gens", g.GenerationCount, "generation count"),
		cutoff:        fs.Float64("cutoff", g.FitnessCutoff, "fraction of each generation kept for breeding"),
		swapWeight:    fs.Float64("swap-weight", g.SwapWeight, "weight of the swap_keys mutation"),
		replaceWeight: fs.Float64("replace-weight", g.ReplaceWeight, "weight of the replace_key mutation"),
		selector:      fs.String("selector", g.Selector, "parent selection: elite|tournament"),
		seed:          fs.Int64("seed", g.Seed, "rng seed"),
		workers:       fs.Int("workers", g.Workers, "parallel evaluations (0 uses one per CPU)"),
		dataset:       fs.String("dataset", "", "comma separated dataset paths, replacing the configured datasets"),
		maxNgram:      fs.Int("max-ngram", d.Optimizer.Dataset.MaxNgramSize, "longest n-gram extracted from text"),
		topN:          fs.Int("top-n", d.Optimizer.Dataset.TopNNgramsToTake, "n-grams kept per length (0 keeps all)"),
	}
}

// resolve loads the config file and applies the flags set on fs.
func (f *configFlags) resolve(fs *flag.FlagSet) (config.OptimizerConfig, error) {
	cfg, err := loadOrDefaultConfig(*f.path)
	if err != nil {
		return config.OptimizerConfig{}, err
	}
	overrideFromFlags(&cfg, visitedFlags(fs), map[string]any{
		"preset":         *f.preset,
		"pop":            *f.population,
		"gens":           *f.generations,
		"cutoff":         *f.cutoff,
		"swap-weight":    *f.swapWeight,
		"replace-weight": *f.replaceWeight,
		"selector":       *f.selector,
		"seed":           *f.seed,
		"workers":        *f.workers,
		"dataset":        *f.dataset,
		"max-ngram":      *f.maxNgram,
		"top-n":          *f.topN,
	})
	return cfg, nil
}

func loadOrDefaultConfig(path string) (config.OptimizerConfig, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.OptimizerConfig{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func visitedFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	return set
}

func overrideFromFlags(cfg *config.OptimizerConfig, set map[string]bool, flagValue map[string]any) {
	genetic := &cfg.Optimizer.Genetic
	dataset := &cfg.Optimizer.Dataset
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "preset":
			cfg.LayoutInfo = config.LayoutInfo{Name: v.(string)}
		case "pop":
			genetic.PopulationSize = v.(int)
		case "gens":
			genetic.GenerationCount = v.(int)
		case "cutoff":
			genetic.FitnessCutoff = v.(float64)
		case "swap-weight":
			genetic.SwapWeight = v.(float64)
		case "replace-weight":
			genetic.ReplaceWeight = v.(float64)
		case "selector":
			genetic.Selector = v.(string)
		case "seed":
			genetic.Seed = v.(int64)
		case "workers":
			genetic.Workers = v.(int)
		case "dataset":
			dataset.DatasetPaths = splitList(v.(string))
			dataset.DatasetWeights = nil
		case "max-ngram":
			dataset.MaxNgramSize = v.(int)
		case "top-n":
			dataset.TopNNgramsToTake = v.(int)
		}
	}
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseWeights(s string) ([]float64, error) {
	items := splitList(s)
	out := make([]float64, len(items))
	for i, item := range items {
		v, err := strconv.ParseFloat(item, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight %q: %w", item, err)
		}
		out[i] = v
	}
	return out, nil
}
