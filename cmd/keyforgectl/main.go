package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"keyforge/internal/config"
	"keyforge/internal/corpus"
	"keyforge/internal/monitoring"
	"keyforge/internal/storage"
	"keyforge/pkg/keyforge"
)

const (
	defaultArtifactsDir = "runs"
	defaultDBPath       = "keyforge.db"
	defaultConfigPath   = "keyforge.toml"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:])
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "score":
		return runScore(ctx, args[1:])
	case "show":
		return runShow(ctx, args[1:])
	case "ngrams":
		return runNgrams(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "fitness":
		return runFitness(ctx, args[1:])
	case "diagnostics":
		return runDiagnostics(ctx, args[1:])
	case "best":
		return runBest(ctx, args[1:])
	case "lineage":
		return runLineage(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

type storeFlags struct {
	kind         *string
	dbPath       *string
	artifactsDir *string
}

func registerStoreFlags(fs *flag.FlagSet) storeFlags {
	return storeFlags{
		kind:         fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite"),
		dbPath:       fs.String("db-path", defaultDBPath, "sqlite database path"),
		artifactsDir: fs.String("artifacts-dir", defaultArtifactsDir, "directory for run artifacts and the run index"),
	}
}

func (f storeFlags) client() (*keyforge.Client, error) {
	return keyforge.New(keyforge.Options{
		StoreKind:    *f.kind,
		DBPath:       *f.dbPath,
		ArtifactsDir: *f.artifactsDir,
	})
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	configPath := fs.String("config", defaultConfigPath, "config file to write (.toml, .yaml or .yml)")
	force := fs.Bool("force", false, "overwrite an existing config file")
	store := registerStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := os.Stat(*configPath); err == nil && !*force {
		return fmt.Errorf("%s already exists (use -force to overwrite)", *configPath)
	}
	if err := config.Default().Write(*configPath); err != nil {
		return err
	}

	client, err := store.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	fmt.Printf("initialized store=%s config=%s\n", *store.kind, *configPath)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	cfgFlags := registerConfigFlags(fs)
	store := registerStoreFlags(fs)
	charts := fs.Bool("charts", true, "write fitness and effort charts next to the run artifacts")
	quiet := fs.Bool("quiet", false, "suppress per-generation progress logs")
	bits := fs.Bool("bits", false, "print the best layout with moveable/symmetric flags")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *quiet {
		defer monitoring.Quiet()()
	}

	cfg, err := cfgFlags.resolve(fs)
	if err != nil {
		return err
	}
	client, err := store.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, keyforge.RunRequest{Config: cfg, Charts: *charts})
	if err != nil && !summary.Interrupted {
		return err
	}

	fmt.Printf("run_id=%s generations=%d best_score=%.6f interrupted=%t artifacts=%s\n",
		summary.RunID,
		len(summary.BestByGeneration),
		summary.BestScore,
		summary.Interrupted,
		summary.ArtifactsDir,
	)
	fmt.Print(summary.BestLayout.Render(*bits))
	return nil
}

func runScore(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("score", flag.ContinueOnError)
	cfgFlags := registerConfigFlags(fs)
	layoutPath := fs.String("layout", "", "layout file to score instead of the configured layout")
	explain := fs.String("explain", "", "comma separated n-grams to break down")
	jsonOut := fs.Bool("json", false, "emit the score as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := cfgFlags.resolve(fs)
	if err != nil {
		return err
	}
	layoutText, err := readOptionalFile(*layoutPath)
	if err != nil {
		return err
	}
	client, err := keyforge.New(keyforge.Options{StoreKind: "memory"})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Score(ctx, keyforge.ScoreRequest{
		Config:     cfg,
		LayoutText: layoutText,
		Explain:    splitList(*explain),
	})
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(summary)
	}

	fmt.Printf("score=%.6f ngrams=%d\n", summary.Score, summary.Ngrams)
	for _, b := range summary.Breakdowns {
		fmt.Printf("ngram=%q strokes=%d base=%.4f length_multiplier=%.4f alternation_runs=%d roll_runs=%d same_finger_pairs=%d unreachable=%t total=%.4f\n",
			b.Ngram,
			len(b.Strokes),
			b.Base,
			b.LengthMultiplier,
			len(b.AlternationRuns),
			len(b.RollRuns),
			len(b.SameFingerPairs),
			b.Unreachable,
			b.Total,
		)
	}
	return nil
}

func runShow(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	cfgFlags := registerConfigFlags(fs)
	layoutPath := fs.String("layout", "", "layout file to render instead of the configured layout")
	bits := fs.Bool("bits", false, "render moveable/symmetric flags with each key")
	grids := fs.Bool("grids", false, "also render the effort and phalanx layers")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := cfgFlags.resolve(fs)
	if err != nil {
		return err
	}
	layoutText, err := readOptionalFile(*layoutPath)
	if err != nil {
		return err
	}
	client, err := keyforge.New(keyforge.Options{StoreKind: "memory"})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	out, err := client.ShowLayout(keyforge.ShowRequest{
		Config:     cfg,
		LayoutText: layoutText,
		Bits:       *bits,
		Grids:      *grids,
	})
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

func runNgrams(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("ngrams", flag.ContinueOnError)
	datasets := fs.String("dataset", "", "comma separated text files or directories")
	weights := fs.String("weights", "", "comma separated dataset weights (default 1 each)")
	maxN := fs.Int("max-ngram", 4, "longest n-gram to count")
	topN := fs.Int("top-n", 0, "n-grams kept per length (0 keeps all)")
	out := fs.String("out", "ngrams.json", "output table path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	paths := splitList(*datasets)
	if len(paths) == 0 {
		return errors.New("ngrams requires --dataset")
	}
	parsedWeights, err := parseWeights(*weights)
	if err != nil {
		return err
	}
	if len(parsedWeights) > 0 && len(parsedWeights) != len(paths) {
		return fmt.Errorf("got %d weights for %d datasets", len(parsedWeights), len(paths))
	}
	sources := make([]corpus.Source, len(paths))
	for i, path := range paths {
		sources[i] = corpus.Source{Path: path, Weight: 1}
		if len(parsedWeights) > 0 {
			sources[i].Weight = parsedWeights[i]
		}
	}

	client, err := keyforge.New(keyforge.Options{StoreKind: "memory"})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.ExtractNgrams(ctx, keyforge.NgramsRequest{
		Sources:      sources,
		MaxNgramSize: *maxN,
		TopN:         *topN,
		OutputPath:   *out,
	})
	if err != nil {
		return err
	}
	fmt.Printf("ngrams=%d total=%.6f out=%s\n", summary.Ngrams, summary.Total, summary.OutputPath)
	return nil
}

func readOptionalFile(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func printJSON(value any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: keyforgectl <%s> [flags]", msg, strings.Join([]string{
		"init", "run", "score", "show", "ngrams", "runs", "fitness", "diagnostics", "best", "lineage",
	}, "|"))
}
