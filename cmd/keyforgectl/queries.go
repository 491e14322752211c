package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"keyforge/internal/keyboard"
	"keyforge/pkg/keyforge"
)

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	store := registerStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := store.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	items, err := client.Runs(ctx, keyforge.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(items)
	}
	if len(items) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	for _, item := range items {
		fmt.Printf("run_id=%s created_at=%s layout=%s seed=%d pop=%d gens=%d workers=%d final_best_score=%.6f\n",
			item.RunID,
			item.CreatedAtUTC,
			item.LayoutName,
			item.Seed,
			item.PopulationSize,
			item.Generations,
			item.Workers,
			item.FinalBestScore,
		)
	}
	return nil
}

// runSelector is the --run-id/--latest pair every query command takes.
type runSelector struct {
	runID  *string
	latest *bool
}

func registerRunSelector(fs *flag.FlagSet, what string) runSelector {
	return runSelector{
		runID:  fs.String("run-id", "", "run id"),
		latest: fs.Bool("latest", false, fmt.Sprintf("show %s for the most recent run from run index", what)),
	}
}

func (s runSelector) validate(command string) error {
	if *s.runID != "" && *s.latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *s.runID == "" && !*s.latest {
		return fmt.Errorf("%s requires --run-id or --latest", command)
	}
	return nil
}

func runFitness(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fitness", flag.ContinueOnError)
	selector := registerRunSelector(fs, "fitness history")
	limit := fs.Int("limit", 50, "max generations to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit fitness history as JSON")
	store := registerStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := selector.validate("fitness"); err != nil {
		return err
	}

	client, err := store.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.FitnessHistory(ctx, keyforge.FitnessHistoryRequest{
		RunID:  *selector.runID,
		Latest: *selector.latest,
		Limit:  max(*limit, 0),
	})
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(history)
	}
	if len(history) == 0 {
		fmt.Println("no fitness history")
		return nil
	}
	for i, best := range history {
		fmt.Printf("generation=%d best_score=%.6f\n", i+1, best)
	}
	return nil
}

func runDiagnostics(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("diagnostics", flag.ContinueOnError)
	selector := registerRunSelector(fs, "diagnostics")
	limit := fs.Int("limit", 50, "max generations to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit diagnostics as JSON")
	store := registerStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := selector.validate("diagnostics"); err != nil {
		return err
	}

	client, err := store.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	diagnostics, err := client.Diagnostics(ctx, keyforge.DiagnosticsRequest{
		RunID:  *selector.runID,
		Latest: *selector.latest,
		Limit:  max(*limit, 0),
	})
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(diagnostics)
	}
	if len(diagnostics) == 0 {
		fmt.Println("no diagnostics")
		return nil
	}
	for _, d := range diagnostics {
		fmt.Printf("generation=%d best=%.6f best_ever=%.6f mean=%.6f std=%.6f worst=%.6f diversity=%d survivors=%d\n",
			d.Generation,
			d.BestScore,
			d.BestEverScore,
			d.MeanScore,
			d.StdDevScore,
			d.WorstScore,
			d.Diversity,
			d.Survivors,
		)
	}
	return nil
}

func runBest(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("best", flag.ContinueOnError)
	selector := registerRunSelector(fs, "the best layout")
	bits := fs.Bool("bits", false, "render moveable/symmetric flags with each key")
	jsonOut := fs.Bool("json", false, "emit the layout record as JSON")
	store := registerStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := selector.validate("best"); err != nil {
		return err
	}

	client, err := store.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	record, err := client.BestLayout(ctx, keyforge.BestLayoutRequest{
		RunID:  *selector.runID,
		Latest: *selector.latest,
	})
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(record)
	}

	layout, err := keyboard.ParseLayout(record.Layout, record.Rows, record.Cols)
	if err != nil {
		return fmt.Errorf("best layout: %w", err)
	}
	fmt.Printf("run_id=%s candidate=%s score=%.6f fingerprint=%s\n", record.RunID, record.CandidateID, record.Score, record.Fingerprint)
	fmt.Print(layout.Render(*bits))
	return nil
}

func runLineage(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("lineage", flag.ContinueOnError)
	selector := registerRunSelector(fs, "lineage")
	limit := fs.Int("limit", 50, "max lineage records to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit lineage as JSON")
	store := registerStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := selector.validate("lineage"); err != nil {
		return err
	}

	client, err := store.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	lineage, err := client.Lineage(ctx, keyforge.LineageRequest{
		RunID:  *selector.runID,
		Latest: *selector.latest,
		Limit:  max(*limit, 0),
	})
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(lineage)
	}
	if len(lineage) == 0 {
		fmt.Println("no lineage")
		return nil
	}
	for _, r := range lineage {
		parent := r.ParentID
		if parent == "" {
			parent = "-"
		}
		fmt.Printf("generation=%d candidate=%s parent=%s operation=%s fingerprint=%s\n",
			r.Generation, r.CandidateID, parent, r.Operation, r.Fingerprint)
	}
	return nil
}
