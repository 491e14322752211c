package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"keyforge/internal/model"
)

// exerciseStore checks the behavior every Store implementation shares.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := store.GetRun(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing run, ok=%t err=%v", ok, err)
	}

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	runs := []model.RunRecord{
		{VersionedRecord: CurrentVersion(), ID: "run-b", CreatedAt: base.Add(time.Minute), Seed: 2, Generations: 5, BestScore: 1.5},
		{VersionedRecord: CurrentVersion(), ID: "run-a", CreatedAt: base, Seed: 1, Generations: 10, Selector: "elite"},
	}
	for _, run := range runs {
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("save run %s: %v", run.ID, err)
		}
	}
	got, ok, err := store.GetRun(ctx, "run-b")
	if err != nil || !ok {
		t.Fatalf("get run: ok=%t err=%v", ok, err)
	}
	if diff := cmp.Diff(runs[0], got); diff != "" {
		t.Fatalf("run mismatch (-want +got):\n%s", diff)
	}

	listed, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(listed) != 2 || listed[0].ID != "run-a" || listed[1].ID != "run-b" {
		t.Fatalf("unexpected run order: %+v", listed)
	}

	history := []float64{3, 2.5, 2.5, 1}
	if err := store.SaveFitnessHistory(ctx, "run-a", history); err != nil {
		t.Fatalf("save history: %v", err)
	}
	history[0] = 99
	loadedHistory, ok, err := store.GetFitnessHistory(ctx, "run-a")
	if err != nil || !ok {
		t.Fatalf("get history: ok=%t err=%v", ok, err)
	}
	if diff := cmp.Diff([]float64{3, 2.5, 2.5, 1}, loadedHistory); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}

	diagnostics := []model.GenerationDiagnostics{
		{Generation: 1, BestScore: 3, BestEverScore: 3, MeanScore: 4, StdDevScore: 0.5, WorstScore: 5, Diversity: 4, Survivors: 1},
		{Generation: 2, BestScore: 2.5, BestEverScore: 2.5, MeanScore: 3, WorstScore: 4, Diversity: 3, Survivors: 1},
	}
	if err := store.SaveGenerationDiagnostics(ctx, "run-a", diagnostics); err != nil {
		t.Fatalf("save diagnostics: %v", err)
	}
	loadedDiagnostics, ok, err := store.GetGenerationDiagnostics(ctx, "run-a")
	if err != nil || !ok {
		t.Fatalf("get diagnostics: ok=%t err=%v", ok, err)
	}
	if diff := cmp.Diff(diagnostics, loadedDiagnostics); diff != "" {
		t.Fatalf("diagnostics mismatch (-want +got):\n%s", diff)
	}

	best := model.LayoutRecord{
		VersionedRecord: CurrentVersion(),
		RunID:           "run-a",
		CandidateID:     "g3-i2",
		Rows:            1,
		Cols:            2,
		Score:           1,
		Layout:          "___Layer 0___\nA_10 B_10\n",
		Fingerprint:     "0011223344556677",
	}
	if err := store.SaveBestLayout(ctx, best); err != nil {
		t.Fatalf("save best layout: %v", err)
	}
	loadedBest, ok, err := store.GetBestLayout(ctx, "run-a")
	if err != nil || !ok {
		t.Fatalf("get best layout: ok=%t err=%v", ok, err)
	}
	if diff := cmp.Diff(best, loadedBest); diff != "" {
		t.Fatalf("best layout mismatch (-want +got):\n%s", diff)
	}

	lineage := []model.LineageRecord{
		{VersionedRecord: CurrentVersion(), CandidateID: "g0-i0", Generation: 0, Operation: "seed", Fingerprint: "aa"},
		{VersionedRecord: CurrentVersion(), CandidateID: "g1-i1", ParentID: "g0-i0", Generation: 1, Operation: "swap_keys", Fingerprint: "bb"},
	}
	if err := store.SaveLineage(ctx, "run-a", lineage); err != nil {
		t.Fatalf("save lineage: %v", err)
	}
	loadedLineage, ok, err := store.GetLineage(ctx, "run-a")
	if err != nil || !ok {
		t.Fatalf("get lineage: ok=%t err=%v", ok, err)
	}
	if diff := cmp.Diff(lineage, loadedLineage); diff != "" {
		t.Fatalf("lineage mismatch (-want +got):\n%s", diff)
	}

	if _, ok, err := store.GetLineage(ctx, "run-b"); err != nil || ok {
		t.Fatalf("expected no lineage for run-b, ok=%t err=%v", ok, err)
	}
}
