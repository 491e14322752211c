package keyforge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"keyforge/internal/config"
	"keyforge/internal/corpus"
	"keyforge/internal/evo"
	"keyforge/internal/keyboard"
	"keyforge/internal/model"
	"keyforge/internal/score"
	"keyforge/internal/stats"
	"keyforge/internal/storage"
)

const (
	defaultArtifactsDir = "runs"
	defaultDBPath       = "keyforge.db"

	// fixed width keeps index timestamps sortable as strings
	createdAtLayout = "2006-01-02T15:04:05.000000000Z"
)

type Options struct {
	StoreKind    string
	DBPath       string
	ArtifactsDir string
}

type Client struct {
	store        storage.Store
	artifactsDir string

	mu          sync.Mutex
	initialized bool
}

type RunRequest struct {
	Config config.OptimizerConfig
	// Table replaces the configured datasets when not nil.
	Table corpus.FrequencyTable
	// Charts adds fitness.png, fitness.html and effort.html to the run
	// directory.
	Charts       bool
	OnGeneration func(model.GenerationDiagnostics)
}

type RunSummary struct {
	RunID            string
	ArtifactsDir     string
	BestByGeneration []float64
	BestScore        float64
	BestLayout       *keyboard.Layout
	Interrupted      bool
}

type ScoreRequest struct {
	Config config.OptimizerConfig
	Table  corpus.FrequencyTable
	// LayoutText replaces the configured layout when not empty. It must have
	// the configured dimensions.
	LayoutText string
	Explain    []string
}

type ScoreSummary struct {
	Score      float64
	Ngrams     int
	Breakdowns []score.Breakdown
}

type ShowRequest struct {
	Config     config.OptimizerConfig
	LayoutText string
	Bits       bool
	// Grids appends the effort and phalanx layers.
	Grids bool
}

type NgramsRequest struct {
	Sources      []corpus.Source
	MaxNgramSize int
	TopN         int
	OutputPath   string
}

type NgramsSummary struct {
	Ngrams     int
	Total      float64
	OutputPath string
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID          string
	LayoutName     string
	CreatedAtUTC   string
	PopulationSize int
	Generations    int
	Seed           int64
	Workers        int
	FinalBestScore float64
}

type FitnessHistoryRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type DiagnosticsRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type BestLayoutRequest struct {
	RunID  string
	Latest bool
}

type LineageRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	return &Client{
		store:        store,
		artifactsDir: artifactsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Init prepares the store. It runs once per client; later calls are no-ops.
func (c *Client) Init(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

// Run optimizes the configured layout and records the outcome in the store
// and the artifacts directory. A cancelled run still records the generations
// it finished and returns its summary together with the context error.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	setup, err := req.Config.Build()
	if err != nil {
		return RunSummary{}, err
	}
	table := req.Table
	if table == nil {
		table, err = req.Config.LoadTable()
		if err != nil {
			return RunSummary{}, err
		}
	}
	if len(table) == 0 {
		return RunSummary{}, errors.New("frequency table is empty")
	}

	genetic := req.Config.Optimizer.Genetic
	selector, err := evo.SelectorByName(genetic.Selector)
	if err != nil {
		return RunSummary{}, err
	}
	workers := genetic.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if err := c.Init(ctx); err != nil {
		return RunSummary{}, err
	}

	var onGeneration func(evo.GenerationDiagnostics)
	if req.OnGeneration != nil {
		onGeneration = func(d evo.GenerationDiagnostics) {
			req.OnGeneration(toModelDiagnostics(d))
		}
	}
	optimizer, err := evo.NewOptimizer(evo.Config{
		Template:       setup.Layout,
		Keycodes:       setup.Keycodes,
		Scorer:         setup.Scorer,
		Table:          table,
		PopulationSize: genetic.PopulationSize,
		Generations:    genetic.GenerationCount,
		FitnessCutoff:  genetic.FitnessCutoff,
		SwapWeight:     genetic.SwapWeight,
		ReplaceWeight:  genetic.ReplaceWeight,
		Selector:       selector,
		Workers:        workers,
		Seed:           genetic.Seed,
		OnGeneration:   onGeneration,
	})
	if err != nil {
		return RunSummary{}, err
	}

	runID := uuid.NewString()
	createdAt := time.Now().UTC()
	result, runErr := optimizer.Run(ctx)
	if runErr != nil && (!isCancellation(runErr) || len(result.BestByGeneration) == 0) {
		return RunSummary{}, runErr
	}
	interrupted := runErr != nil

	// the caller's context may already be cancelled
	saveCtx := context.WithoutCancel(ctx)
	diagnostics := make([]model.GenerationDiagnostics, len(result.GenerationDiagnostics))
	for i, d := range result.GenerationDiagnostics {
		diagnostics[i] = toModelDiagnostics(d)
	}
	lineage := toModelLineage(result.Lineage)
	best := result.Best
	bestText := best.Layout.String()

	run := model.RunRecord{
		VersionedRecord: storage.CurrentVersion(),
		ID:              runID,
		LayoutName:      setup.Name,
		CreatedAt:       createdAt,
		Seed:            genetic.Seed,
		PopulationSize:  genetic.PopulationSize,
		Generations:     genetic.GenerationCount,
		Completed:       len(result.BestByGeneration),
		FitnessCutoff:   genetic.FitnessCutoff,
		SwapWeight:      genetic.SwapWeight,
		ReplaceWeight:   genetic.ReplaceWeight,
		Selector:        selector.Name(),
		BestScore:       best.Score,
		Interrupted:     interrupted,
	}
	if err := c.store.SaveRun(saveCtx, run); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveFitnessHistory(saveCtx, runID, result.BestByGeneration); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveGenerationDiagnostics(saveCtx, runID, diagnostics); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveBestLayout(saveCtx, model.LayoutRecord{
		VersionedRecord: storage.CurrentVersion(),
		RunID:           runID,
		CandidateID:     best.ID,
		Rows:            best.Layout.Rows(),
		Cols:            best.Layout.Cols(),
		Score:           best.Score,
		Layout:          bestText,
		Fingerprint:     evo.Fingerprint(best.Layout),
	}); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveLineage(saveCtx, runID, lineage); err != nil {
		return RunSummary{}, err
	}

	runDir, err := stats.WriteRunArtifacts(c.artifactsDir, stats.RunArtifacts{
		Config: stats.RunConfig{
			RunID:          runID,
			LayoutName:     setup.Name,
			Rows:           best.Layout.Rows(),
			Cols:           best.Layout.Cols(),
			PopulationSize: genetic.PopulationSize,
			Generations:    genetic.GenerationCount,
			FitnessCutoff:  genetic.FitnessCutoff,
			SwapWeight:     genetic.SwapWeight,
			ReplaceWeight:  genetic.ReplaceWeight,
			Selector:       selector.Name(),
			Seed:           genetic.Seed,
			Workers:        workers,
			Keycodes:       len(setup.Keycodes),
			Ngrams:         len(table),
		},
		BestByGeneration:      result.BestByGeneration,
		GenerationDiagnostics: diagnostics,
		FinalBestScore:        best.Score,
		BestLayout:            bestText,
		Lineage:               lineage,
	})
	if err != nil {
		return RunSummary{}, err
	}
	if err := stats.AppendRunIndex(c.artifactsDir, stats.RunIndexEntry{
		RunID:          runID,
		LayoutName:     setup.Name,
		PopulationSize: genetic.PopulationSize,
		Generations:    genetic.GenerationCount,
		Seed:           genetic.Seed,
		Workers:        workers,
		FinalBestScore: best.Score,
		CreatedAtUTC:   createdAt.Format(createdAtLayout),
	}); err != nil {
		return RunSummary{}, err
	}
	if req.Charts {
		if err := writeCharts(runDir, runID, diagnostics, setup.Effort, best.Layout); err != nil {
			return RunSummary{}, err
		}
	}

	return RunSummary{
		RunID:            runID,
		ArtifactsDir:     runDir,
		BestByGeneration: append([]float64(nil), result.BestByGeneration...),
		BestScore:        best.Score,
		BestLayout:       best.Layout,
		Interrupted:      interrupted,
	}, runErr
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func writeCharts(runDir, runID string, diagnostics []model.GenerationDiagnostics, effort *keyboard.EffortLayer, best *keyboard.Layout) error {
	if err := stats.WriteFitnessPlot(filepath.Join(runDir, "fitness.png"), diagnostics); err != nil {
		return fmt.Errorf("fitness plot: %w", err)
	}
	if err := writeFile(filepath.Join(runDir, "fitness.html"), func(w io.Writer) error {
		return stats.WriteFitnessChartHTML(w, runID, diagnostics)
	}); err != nil {
		return fmt.Errorf("fitness chart: %w", err)
	}
	base, err := best.Layer(0)
	if err != nil {
		return err
	}
	if err := writeFile(filepath.Join(runDir, "effort.html"), func(w io.Writer) error {
		return stats.WriteEffortHeatmapHTML(w, "Effort by key, layer 0", effort, base)
	}); err != nil {
		return fmt.Errorf("effort heatmap: %w", err)
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Score evaluates one layout against the frequency table and explains the
// requested n-grams.
func (c *Client) Score(_ context.Context, req ScoreRequest) (ScoreSummary, error) {
	setup, err := req.Config.Build()
	if err != nil {
		return ScoreSummary{}, err
	}
	layout, err := layoutFor(setup, req.LayoutText)
	if err != nil {
		return ScoreSummary{}, err
	}
	table := req.Table
	if table == nil {
		table, err = req.Config.LoadTable()
		if err != nil {
			return ScoreSummary{}, err
		}
	}

	total, err := setup.Scorer.ScoreLayout(layout, table)
	if err != nil {
		return ScoreSummary{}, err
	}
	summary := ScoreSummary{Score: total, Ngrams: len(table)}
	for _, ngram := range req.Explain {
		b, err := setup.Scorer.Explain(layout, ngram)
		if err != nil {
			return ScoreSummary{}, fmt.Errorf("explain %q: %w", ngram, err)
		}
		summary.Breakdowns = append(summary.Breakdowns, b)
	}
	return summary, nil
}

// ShowLayout renders the configured layout, or LayoutText when set.
func (c *Client) ShowLayout(req ShowRequest) (string, error) {
	setup, err := req.Config.Build()
	if err != nil {
		return "", err
	}
	layout, err := layoutFor(setup, req.LayoutText)
	if err != nil {
		return "", err
	}
	out := layout.Render(req.Bits)
	if req.Grids {
		out += "___Effort___\n" + setup.Effort.Render() + "___Phalanx___\n" + setup.Phalanx.Render()
	}
	return out, nil
}

func layoutFor(setup config.Setup, text string) (*keyboard.Layout, error) {
	if text == "" {
		return setup.Layout, nil
	}
	layout, err := keyboard.ParseLayout(text, setup.Layout.Rows(), setup.Layout.Cols())
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	return layout, nil
}

// ExtractNgrams builds a weighted frequency table from text datasets and
// saves it for reuse as a dataset path.
func (c *Client) ExtractNgrams(_ context.Context, req NgramsRequest) (NgramsSummary, error) {
	if len(req.Sources) == 0 {
		return NgramsSummary{}, errors.New("at least one dataset is required")
	}
	if req.OutputPath == "" {
		return NgramsSummary{}, errors.New("output path is required")
	}
	table, err := corpus.Build(req.Sources, req.MaxNgramSize, req.TopN)
	if err != nil {
		return NgramsSummary{}, err
	}
	if err := corpus.Save(req.OutputPath, table); err != nil {
		return NgramsSummary{}, err
	}
	return NgramsSummary{Ngrams: len(table), Total: table.Total(), OutputPath: req.OutputPath}, nil
}

// Runs lists recorded runs newest first.
func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	entries, err := stats.ListRunIndex(c.artifactsDir)
	if err != nil {
		return nil, err
	}
	if req.Limit > 0 && len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}
	items := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, RunItem{
			RunID:          e.RunID,
			LayoutName:     e.LayoutName,
			CreatedAtUTC:   e.CreatedAtUTC,
			PopulationSize: e.PopulationSize,
			Generations:    e.Generations,
			Seed:           e.Seed,
			Workers:        e.Workers,
			FinalBestScore: e.FinalBestScore,
		})
	}
	return items, nil
}

// The query methods below read the store first and fall back to the run's
// artifacts, which outlive a memory store.

func (c *Client) FitnessHistory(ctx context.Context, req FitnessHistoryRequest) ([]float64, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest, "fitness history")
	if err != nil {
		return nil, err
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}

	history, ok, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		history, ok, err = stats.ReadFitnessSeries(c.artifactsDir, runID)
		if err != nil {
			return nil, err
		}
	}
	if !ok {
		return nil, fmt.Errorf("fitness history not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(history) > req.Limit {
		history = history[:req.Limit]
	}
	return append([]float64(nil), history...), nil
}

func (c *Client) Diagnostics(ctx context.Context, req DiagnosticsRequest) ([]model.GenerationDiagnostics, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest, "diagnostics")
	if err != nil {
		return nil, err
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}

	diagnostics, ok, err := c.store.GetGenerationDiagnostics(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		diagnostics, ok, err = stats.ReadGenerationDiagnostics(c.artifactsDir, runID)
		if err != nil {
			return nil, err
		}
	}
	if !ok {
		return nil, fmt.Errorf("diagnostics not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(diagnostics) > req.Limit {
		diagnostics = diagnostics[:req.Limit]
	}
	return append([]model.GenerationDiagnostics(nil), diagnostics...), nil
}

func (c *Client) BestLayout(ctx context.Context, req BestLayoutRequest) (model.LayoutRecord, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest, "best layout")
	if err != nil {
		return model.LayoutRecord{}, err
	}
	if err := c.Init(ctx); err != nil {
		return model.LayoutRecord{}, err
	}

	record, ok, err := c.store.GetBestLayout(ctx, runID)
	if err != nil {
		return model.LayoutRecord{}, err
	}
	if ok {
		return record, nil
	}
	return c.bestLayoutFromArtifacts(runID)
}

func (c *Client) bestLayoutFromArtifacts(runID string) (model.LayoutRecord, error) {
	text, ok, err := stats.ReadBestLayout(c.artifactsDir, runID)
	if err != nil {
		return model.LayoutRecord{}, err
	}
	if !ok {
		return model.LayoutRecord{}, fmt.Errorf("best layout not found for run id: %s", runID)
	}
	cfg, ok, err := stats.ReadRunConfig(c.artifactsDir, runID)
	if err != nil {
		return model.LayoutRecord{}, err
	}
	if !ok {
		return model.LayoutRecord{}, fmt.Errorf("run config not found for run id: %s", runID)
	}
	layout, err := keyboard.ParseLayout(text, cfg.Rows, cfg.Cols)
	if err != nil {
		return model.LayoutRecord{}, fmt.Errorf("best layout for run id %s: %w", runID, err)
	}
	record := model.LayoutRecord{
		VersionedRecord: storage.CurrentVersion(),
		RunID:           runID,
		Rows:            cfg.Rows,
		Cols:            cfg.Cols,
		Layout:          text,
		Fingerprint:     evo.Fingerprint(layout),
	}
	// the last best-ever entry is the best layout's score
	history, ok, err := stats.ReadFitnessSeries(c.artifactsDir, runID)
	if err != nil {
		return model.LayoutRecord{}, err
	}
	if ok && len(history) > 0 {
		record.Score = history[len(history)-1]
	}
	return record, nil
}

func (c *Client) Lineage(ctx context.Context, req LineageRequest) ([]model.LineageRecord, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest, "lineage")
	if err != nil {
		return nil, err
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}

	lineage, ok, err := c.store.GetLineage(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		lineage, ok, err = stats.ReadLineage(c.artifactsDir, runID)
		if err != nil {
			return nil, err
		}
	}
	if !ok {
		return nil, fmt.Errorf("lineage not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(lineage) > req.Limit {
		lineage = lineage[:req.Limit]
	}
	return append([]model.LineageRecord(nil), lineage...), nil
}

func (c *Client) resolveRunID(runID string, latest bool, what string) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if latest {
		entries, err := stats.ListRunIndex(c.artifactsDir)
		if err != nil {
			return "", err
		}
		if len(entries) == 0 {
			return "", errors.New("no runs available")
		}
		return entries[0].RunID, nil
	}
	if runID == "" {
		return "", fmt.Errorf("%s requires run id or latest", what)
	}
	return runID, nil
}

func toModelDiagnostics(d evo.GenerationDiagnostics) model.GenerationDiagnostics {
	return model.GenerationDiagnostics{
		Generation:    d.Generation,
		BestScore:     d.BestScore,
		BestEverScore: d.BestEverScore,
		MeanScore:     d.MeanScore,
		StdDevScore:   d.StdDevScore,
		WorstScore:    d.WorstScore,
		Diversity:     d.Diversity,
		Survivors:     d.Survivors,
	}
}

func toModelLineage(records []evo.LineageRecord) []model.LineageRecord {
	out := make([]model.LineageRecord, len(records))
	for i, r := range records {
		out[i] = model.LineageRecord{
			VersionedRecord: storage.CurrentVersion(),
			CandidateID:     r.CandidateID,
			ParentID:        r.ParentID,
			Generation:      r.Generation,
			Operation:       r.Operation,
			Fingerprint:     r.Fingerprint,
		}
	}
	return out
}
