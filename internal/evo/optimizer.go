package evo

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"

	"github.com/sourcegraph/conc/pool"

	"keyforge/internal/corpus"
	"keyforge/internal/keyboard"
	"keyforge/internal/keycode"
	"keyforge/internal/monitoring"
	"keyforge/internal/score"
)

// Config drives one optimization run.
type Config struct {
	Template       *keyboard.Layout
	Keycodes       []keycode.Keycode
	Scorer         *score.Scorer
	Table          corpus.FrequencyTable
	PopulationSize int
	Generations    int
	// FitnessCutoff is the fraction of each ranked generation kept for breeding.
	FitnessCutoff float64
	SwapWeight    float64
	ReplaceWeight float64
	Selector      Selector
	Workers       int
	Seed          int64
	// OnGeneration, when set, is called after every evaluated generation.
	OnGeneration func(GenerationDiagnostics)
}

// Result is the outcome of a run, complete or interrupted.
type Result struct {
	Best                  ScoredLayout
	BestByGeneration      []float64
	GenerationDiagnostics []GenerationDiagnostics
	FinalPopulation       []ScoredLayout
	Lineage               []LineageRecord
}

// Optimizer evolves layouts toward lower effort scores. All randomness comes
// from one seeded source used only between evaluations, so a run is
// reproducible from its seed regardless of worker count.
type Optimizer struct {
	cfg        Config
	rng        *rand.Rand
	entries    []corpus.Entry
	policy     []WeightedMutation
	generation atomic.Int64
}

func NewOptimizer(cfg Config) (*Optimizer, error) {
	if cfg.Template == nil {
		return nil, fmt.Errorf("template layout is required")
	}
	if cfg.Scorer == nil {
		return nil, fmt.Errorf("scorer is required")
	}
	if cfg.PopulationSize <= 0 {
		return nil, fmt.Errorf("population size must be > 0")
	}
	if cfg.Generations <= 0 {
		return nil, fmt.Errorf("generations must be > 0")
	}
	if cfg.FitnessCutoff <= 0 || cfg.FitnessCutoff > 1 {
		return nil, fmt.Errorf("fitness cutoff must be in (0, 1], got %v", cfg.FitnessCutoff)
	}
	if cfg.SwapWeight < 0 || cfg.ReplaceWeight < 0 {
		return nil, fmt.Errorf("mutation weights must be >= 0")
	}
	if cfg.SwapWeight+cfg.ReplaceWeight <= 0 {
		return nil, fmt.Errorf("mutation policy requires at least one positive weight")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Selector == nil {
		cfg.Selector = EliteSelector{}
	}

	o := &Optimizer{
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		entries: cfg.Table.Sorted(),
	}
	for _, item := range []struct {
		name   string
		weight float64
	}{
		{"swap_keys", cfg.SwapWeight},
		{"replace_key", cfg.ReplaceWeight},
	} {
		op, err := NewOperator(item.name, o.rng, cfg.Keycodes)
		if err != nil {
			return nil, err
		}
		o.policy = append(o.policy, WeightedMutation{Operator: op, Weight: item.weight})
	}
	return o, nil
}

// Generation returns the number of generations evaluated so far. It is safe
// to call from other goroutines while Run is in progress.
func (o *Optimizer) Generation() int {
	return int(o.generation.Load())
}

// Run evolves the population for the configured number of generations.
// Cancellation is checked between generations; an interrupted run returns the
// result so far together with ctx.Err().
func (o *Optimizer) Run(ctx context.Context) (Result, error) {
	if err := o.cfg.Template.ValidateSymmetry(); err != nil {
		return Result{}, fmt.Errorf("template: %w", err)
	}
	o.generation.Store(0)

	population, lineage, err := o.initialPopulation()
	if err != nil {
		return Result{}, err
	}
	result := Result{
		BestByGeneration:      make([]float64, 0, o.cfg.Generations),
		GenerationDiagnostics: make([]GenerationDiagnostics, 0, o.cfg.Generations),
		Lineage:               lineage,
	}

	for gen := 0; gen < o.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		ranked, err := o.evaluate(population)
		if err != nil {
			return result, err
		}
		rank(ranked)
		if result.Best.Layout == nil || better(ranked[0], result.Best) {
			result.Best = ranked[0]
		}
		result.BestByGeneration = append(result.BestByGeneration, result.Best.Score)
		result.FinalPopulation = ranked

		survivors := SurvivorCount(len(ranked), o.cfg.FitnessCutoff)
		diag := summarizeGeneration(ranked, gen+1, survivors, result.Best.Score)
		result.GenerationDiagnostics = append(result.GenerationDiagnostics, diag)
		o.generation.Store(int64(gen + 1))
		monitoring.Logf("evo: generation %d/%d best=%.4f best_ever=%.4f mean=%.4f diversity=%d",
			gen+1, o.cfg.Generations, diag.BestScore, diag.BestEverScore, diag.MeanScore, diag.Diversity)
		if o.cfg.OnGeneration != nil {
			o.cfg.OnGeneration(diag)
		}

		if gen == o.cfg.Generations-1 {
			break
		}
		var generationLineage []LineageRecord
		population, generationLineage, err = o.nextGeneration(ctx, ranked, survivors, gen)
		if err != nil {
			return result, err
		}
		result.Lineage = append(result.Lineage, generationLineage...)
	}
	return result, nil
}

func (o *Optimizer) initialPopulation() ([]ScoredLayout, []LineageRecord, error) {
	population := make([]ScoredLayout, 0, o.cfg.PopulationSize)
	lineage := make([]LineageRecord, 0, o.cfg.PopulationSize)
	for i := 0; i < o.cfg.PopulationSize; i++ {
		layout := o.cfg.Template.Clone()
		if err := layout.Randomize(o.rng, o.cfg.Keycodes); err != nil {
			return nil, nil, fmt.Errorf("initialize candidate %d: %w", i, err)
		}
		id := candidateID(0, i)
		population = append(population, ScoredLayout{ID: id, Layout: layout})
		lineage = append(lineage, LineageRecord{
			CandidateID: id,
			Generation:  0,
			Operation:   "seed",
			Fingerprint: Fingerprint(layout),
		})
	}
	return population, lineage, nil
}

func candidateID(generation, index int) string {
	return fmt.Sprintf("g%d-i%d", generation, index)
}

// evaluate scores every candidate concurrently. Scoring only reads the
// candidate layouts and the shared frequency entries.
func (o *Optimizer) evaluate(population []ScoredLayout) ([]ScoredLayout, error) {
	scored := make([]ScoredLayout, len(population))
	workers := o.cfg.Workers
	if workers > len(population) {
		workers = len(population)
	}
	p := pool.New().WithErrors().WithMaxGoroutines(workers)
	for i := range population {
		i := i
		p.Go(func() error {
			s, err := o.cfg.Scorer.ScoreEntries(population[i].Layout, o.entries)
			if err != nil {
				return fmt.Errorf("score candidate %s: %w", population[i].ID, err)
			}
			scored[i] = ScoredLayout{ID: population[i].ID, Layout: population[i].Layout, Score: s}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return scored, nil
}

func (o *Optimizer) nextGeneration(ctx context.Context, ranked []ScoredLayout, survivors, generation int) ([]ScoredLayout, []LineageRecord, error) {
	next := make([]ScoredLayout, 0, o.cfg.PopulationSize)
	lineage := make([]LineageRecord, 0, o.cfg.PopulationSize)
	nextGeneration := generation + 1

	for i := 0; i < survivors; i++ {
		next = append(next, ScoredLayout{ID: ranked[i].ID, Layout: ranked[i].Layout})
		lineage = append(lineage, LineageRecord{
			CandidateID: ranked[i].ID,
			ParentID:    ranked[i].ID,
			Generation:  nextGeneration,
			Operation:   "survivor",
			Fingerprint: Fingerprint(ranked[i].Layout),
		})
	}

	for len(next) < o.cfg.PopulationSize {
		parent, err := o.cfg.Selector.PickParent(o.rng, ranked, survivors)
		if err != nil {
			return nil, nil, err
		}
		child, record, err := o.mutateFromParent(ctx, parent, nextGeneration, len(next))
		if err != nil {
			return nil, nil, err
		}
		next = append(next, child)
		lineage = append(lineage, record)
	}
	return next, lineage, nil
}

func (o *Optimizer) mutateFromParent(ctx context.Context, parent ScoredLayout, generation, index int) (ScoredLayout, LineageRecord, error) {
	id := candidateID(generation, index)
	chosen := o.chooseMutation()
	candidates := append([]Operator{chosen}, o.fallbacks(chosen)...)

	var (
		mutated   *keyboard.Layout
		operation string
	)
	for _, op := range candidates {
		next, err := op.Apply(ctx, parent.Layout)
		if errors.Is(err, ErrNoMutationChoice) {
			continue
		}
		if err != nil {
			return ScoredLayout{}, LineageRecord{}, fmt.Errorf("mutate %s with %s: %w", parent.ID, op.Name(), err)
		}
		mutated, operation = next, op.Name()
		break
	}
	if mutated == nil {
		mutated, operation = parent.Layout.Clone(), "noop(no_mutation_choice)"
	}
	return ScoredLayout{ID: id, Layout: mutated}, LineageRecord{
		CandidateID: id,
		ParentID:    parent.ID,
		Generation:  generation,
		Operation:   operation,
		Fingerprint: Fingerprint(mutated),
	}, nil
}

func (o *Optimizer) chooseMutation() Operator {
	total := 0.0
	for _, item := range o.policy {
		total += item.Weight
	}
	pick := o.rng.Float64() * total
	acc := 0.0
	for _, item := range o.policy {
		if item.Weight <= 0 {
			continue
		}
		acc += item.Weight
		if pick < acc {
			return item.Operator
		}
	}
	for i := len(o.policy) - 1; i >= 0; i-- {
		if o.policy[i].Weight > 0 {
			return o.policy[i].Operator
		}
	}
	return o.policy[len(o.policy)-1].Operator
}

// fallbacks lists the other positively weighted operators in policy order.
func (o *Optimizer) fallbacks(chosen Operator) []Operator {
	var out []Operator
	for _, item := range o.policy {
		if item.Operator != chosen && item.Weight > 0 {
			out = append(out, item.Operator)
		}
	}
	return out
}
