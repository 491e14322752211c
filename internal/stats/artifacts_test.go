package stats

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"keyforge/internal/model"
)

func TestWriteRunArtifacts(t *testing.T) {
	baseDir := t.TempDir()
	artifacts := RunArtifacts{
		Config: RunConfig{
			RunID:          "run-123",
			LayoutName:     "ferris_sweep",
			Rows:           4,
			Cols:           10,
			PopulationSize: 8,
			Generations:    3,
			FitnessCutoff:  0.25,
			Seed:           1,
			Workers:        2,
		},
		BestByGeneration: []float64{9.5, 8.25, 8.25},
		GenerationDiagnostics: []model.GenerationDiagnostics{
			{Generation: 1, BestScore: 9.5, BestEverScore: 9.5},
		},
		FinalBestScore: 8.25,
		BestLayout:     "___Layer 0___\nA_10 B_10\n",
		Lineage: []model.LineageRecord{{
			CandidateID: "g0-i0",
			Operation:   "seed",
		}},
	}

	runDir, err := WriteRunArtifacts(baseDir, artifacts)
	if err != nil {
		t.Fatalf("write artifacts: %v", err)
	}
	for _, file := range []string{"config.json", "fitness_history.json", "fitness_history.csv", "generation_diagnostics.json", "lineage.json", "best_layout.txt"} {
		if _, err := os.Stat(filepath.Join(runDir, file)); err != nil {
			t.Fatalf("expected file %s: %v", file, err)
		}
	}

	cfg, ok, err := ReadRunConfig(baseDir, "run-123")
	if err != nil || !ok {
		t.Fatalf("read config: ok=%t err=%v", ok, err)
	}
	if cfg.LayoutName != "ferris_sweep" || cfg.PopulationSize != 8 {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	series, ok, err := ReadFitnessSeries(baseDir, "run-123")
	if err != nil || !ok {
		t.Fatalf("read series: ok=%t err=%v", ok, err)
	}
	if len(series) != 3 || series[1] != 8.25 {
		t.Fatalf("unexpected series: %v", series)
	}

	layout, ok, err := ReadBestLayout(baseDir, "run-123")
	if err != nil || !ok {
		t.Fatalf("read layout: ok=%t err=%v", ok, err)
	}
	if !strings.Contains(layout, "A_10 B_10") {
		t.Fatalf("unexpected layout text: %q", layout)
	}

	diagnostics, ok, err := ReadGenerationDiagnostics(baseDir, "run-123")
	if err != nil || !ok {
		t.Fatalf("read diagnostics: ok=%t err=%v", ok, err)
	}
	if len(diagnostics) != 1 || diagnostics[0].BestScore != 9.5 {
		t.Fatalf("unexpected diagnostics: %+v", diagnostics)
	}

	lineage, ok, err := ReadLineage(baseDir, "run-123")
	if err != nil || !ok {
		t.Fatalf("read lineage: ok=%t err=%v", ok, err)
	}
	if len(lineage) != 1 || lineage[0].Operation != "seed" {
		t.Fatalf("unexpected lineage: %+v", lineage)
	}
}

func TestWriteRunArtifactsRequiresRunID(t *testing.T) {
	if _, err := WriteRunArtifacts(t.TempDir(), RunArtifacts{}); err == nil {
		t.Fatal("expected run id error")
	}
}

func TestReadMissingArtifacts(t *testing.T) {
	baseDir := t.TempDir()
	if _, ok, err := ReadRunConfig(baseDir, "nope"); err != nil || ok {
		t.Fatalf("expected missing config, ok=%t err=%v", ok, err)
	}
	if _, ok, err := ReadFitnessSeries(baseDir, "nope"); err != nil || ok {
		t.Fatalf("expected missing series, ok=%t err=%v", ok, err)
	}
	if _, ok, err := ReadGenerationDiagnostics(baseDir, "nope"); err != nil || ok {
		t.Fatalf("expected missing diagnostics, ok=%t err=%v", ok, err)
	}
	if _, ok, err := ReadBestLayout(baseDir, "nope"); err != nil || ok {
		t.Fatalf("expected missing layout, ok=%t err=%v", ok, err)
	}
}

func TestReadCorruptLineage(t *testing.T) {
	baseDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(baseDir, "bad"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(baseDir, "bad", "lineage.json"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := ReadLineage(baseDir, "bad"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestRunIndexNewestFirstAndReplaces(t *testing.T) {
	baseDir := t.TempDir()
	entries := []RunIndexEntry{
		{RunID: "a", CreatedAtUTC: "2024-01-01T00:00:00Z", FinalBestScore: 3},
		{RunID: "b", CreatedAtUTC: "2024-01-02T00:00:00Z", FinalBestScore: 2},
		{RunID: "a", CreatedAtUTC: "2024-01-01T00:00:00Z", FinalBestScore: 1},
	}
	for _, entry := range entries {
		if err := AppendRunIndex(baseDir, entry); err != nil {
			t.Fatalf("append %s: %v", entry.RunID, err)
		}
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("list index: %v", err)
	}
	if len(index) != 2 {
		t.Fatalf("expected 2 entries, got %+v", index)
	}
	if index[0].RunID != "b" || index[1].RunID != "a" || index[1].FinalBestScore != 1 {
		t.Fatalf("unexpected index order: %+v", index)
	}

	if err := AppendRunIndex(baseDir, RunIndexEntry{}); err == nil {
		t.Fatal("expected run id error")
	}
}
