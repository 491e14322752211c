package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"keyforge/internal/config"
	"keyforge/internal/corpus"
	"keyforge/internal/model"
	"keyforge/internal/monitoring"
)

func writeSmallConfig(t *testing.T, dir string) string {
	t.Helper()
	text := filepath.Join(dir, "corpus.txt")
	if err := os.WriteFile(text, []byte("abc cab\nbad dab\n"), 0o644); err != nil {
		t.Fatalf("write corpus: %v", err)
	}

	cfg := config.Default()
	cfg.LayoutInfo = config.LayoutInfo{
		NumRows:      2,
		NumCols:      4,
		Layout:       "__10 __10 __10 __10\nSFT_11 SPC_00 __10 SFT_11",
		EffortLayer:  "1 1 1 1\n3 1 2 3",
		PhalanxLayer: "L:M L:I R:I R:M\nL:P L:T R:T R:P",
	}
	cfg.Optimizer.ValidKeycodes = []string{"A", "B", "C", "D", "E"}
	cfg.Optimizer.Genetic.PopulationSize = 6
	cfg.Optimizer.Genetic.GenerationCount = 2
	cfg.Optimizer.Genetic.FitnessCutoff = 0.5
	cfg.Optimizer.Genetic.Workers = 2
	cfg.Optimizer.Dataset.DatasetPaths = []string{text}
	cfg.Optimizer.Dataset.MaxNgramSize = 2

	path := filepath.Join(dir, "keyforge.toml")
	if err := cfg.Write(path); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestRunRequiresKnownCommand(t *testing.T) {
	if err := run(context.Background(), nil); err == nil || !strings.Contains(err.Error(), "usage: keyforgectl") {
		t.Fatalf("expected usage error, got %v", err)
	}
	if err := run(context.Background(), []string{"bogus"}); err == nil || !strings.Contains(err.Error(), "unknown command: bogus") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestInitWritesDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keyforge.toml")
	args := []string{"init", "--config", path, "--store", "memory", "--artifacts-dir", filepath.Join(dir, "runs")}

	out, err := captureStdout(func() error { return run(context.Background(), args) })
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out, "initialized store=memory") {
		t.Fatalf("unexpected output: %q", out)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load written config: %v", err)
	}
	if cfg.Optimizer.Genetic.PopulationSize != config.Default().Optimizer.Genetic.PopulationSize {
		t.Fatalf("unexpected population size: %d", cfg.Optimizer.Genetic.PopulationSize)
	}

	if _, err := captureStdout(func() error { return run(context.Background(), args) }); err == nil {
		t.Fatal("expected error for existing config without --force")
	}
	if _, err := captureStdout(func() error { return run(context.Background(), append(args, "--force")) }); err != nil {
		t.Fatalf("init --force: %v", err)
	}
}

func TestRunThenQueryCommands(t *testing.T) {
	defer monitoring.Quiet()()
	dir := t.TempDir()
	cfgPath := writeSmallConfig(t, dir)
	artifacts := filepath.Join(dir, "runs")
	storeArgs := []string{"--store", "memory", "--artifacts-dir", artifacts}

	out, err := captureStdout(func() error {
		return run(context.Background(), append([]string{"run", "--config", cfgPath, "--gens", "3", "--seed", "5", "--charts=false"}, storeArgs...))
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "run_id=") || !strings.Contains(out, "generations=3") || !strings.Contains(out, "___Layer 0___") {
		t.Fatalf("unexpected run output: %q", out)
	}

	out, err = captureStdout(func() error { return run(context.Background(), append([]string{"runs"}, storeArgs...)) })
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if strings.Count(out, "run_id=") != 1 || !strings.Contains(out, "seed=5") {
		t.Fatalf("unexpected runs output: %q", out)
	}

	out, err = captureStdout(func() error { return run(context.Background(), append([]string{"fitness", "--latest"}, storeArgs...)) })
	if err != nil {
		t.Fatalf("fitness: %v", err)
	}
	if strings.Count(out, "generation=") != 3 {
		t.Fatalf("unexpected fitness output: %q", out)
	}

	out, err = captureStdout(func() error {
		return run(context.Background(), append([]string{"diagnostics", "--latest", "--json"}, storeArgs...))
	})
	if err != nil {
		t.Fatalf("diagnostics: %v", err)
	}
	var diagnostics []model.GenerationDiagnostics
	if err := json.Unmarshal([]byte(out), &diagnostics); err != nil {
		t.Fatalf("decode diagnostics: %v\n%s", err, out)
	}
	if len(diagnostics) != 3 || diagnostics[2].Generation != 3 {
		t.Fatalf("unexpected diagnostics: %+v", diagnostics)
	}

	out, err = captureStdout(func() error { return run(context.Background(), append([]string{"best", "--latest", "--bits"}, storeArgs...)) })
	if err != nil {
		t.Fatalf("best: %v", err)
	}
	if !strings.Contains(out, "score=") || !strings.Contains(out, "SFT_11") {
		t.Fatalf("unexpected best output: %q", out)
	}

	out, err = captureStdout(func() error {
		return run(context.Background(), append([]string{"lineage", "--latest", "--limit", "2"}, storeArgs...))
	})
	if err != nil {
		t.Fatalf("lineage: %v", err)
	}
	if strings.Count(out, "operation=seed") != 2 {
		t.Fatalf("unexpected lineage output: %q", out)
	}

	if err := run(context.Background(), append([]string{"fitness", "--latest", "--run-id", "x"}, storeArgs...)); err == nil {
		t.Fatal("expected error for --latest with --run-id")
	}
	if err := run(context.Background(), append([]string{"best"}, storeArgs...)); err == nil {
		t.Fatal("expected error without --run-id or --latest")
	}
}

func TestScoreAndShowCommands(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeSmallConfig(t, dir)
	layoutPath := filepath.Join(dir, "layout.txt")
	if err := os.WriteFile(layoutPath, []byte("A_10 B_10 C_10 D_10\nSFT_11 SPC_00 E_10 SFT_11\n"), 0o644); err != nil {
		t.Fatalf("write layout: %v", err)
	}

	out, err := captureStdout(func() error {
		return run(context.Background(), []string{"score", "--config", cfgPath, "--layout", layoutPath, "--explain", "ab,Ab"})
	})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if !strings.Contains(out, "score=") || strings.Count(out, "ngram=") != 2 {
		t.Fatalf("unexpected score output: %q", out)
	}

	out, err = captureStdout(func() error {
		return run(context.Background(), []string{"show", "--config", cfgPath, "--layout", layoutPath, "--grids"})
	})
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	for _, want := range []string{"___Layer 0___", "SPC", "___Effort___", "L:P"} {
		if !strings.Contains(out, want) {
			t.Fatalf("show output missing %q: %q", want, out)
		}
	}

	out, err = captureStdout(func() error { return run(context.Background(), []string{"show", "--preset", "4x12"}) })
	if err != nil {
		t.Fatalf("show preset: %v", err)
	}
	if !strings.Contains(out, "___Layer 2___") {
		t.Fatalf("expected three preset layers: %q", out)
	}
}

func TestNgramsCommand(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.txt")
	second := filepath.Join(dir, "b.txt")
	if err := os.WriteFile(first, []byte("aaa\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(second, []byte("bb\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "table.json")

	stdout, err := captureStdout(func() error {
		return run(context.Background(), []string{"ngrams", "--dataset", first + "," + second, "--weights", "1,1", "--max-ngram", "1", "--out", out})
	})
	if err != nil {
		t.Fatalf("ngrams: %v", err)
	}
	if !strings.Contains(stdout, "ngrams=2") {
		t.Fatalf("unexpected ngrams output: %q", stdout)
	}
	table, err := corpus.Load(out)
	if err != nil {
		t.Fatalf("load table: %v", err)
	}
	if len(table) != 2 {
		t.Fatalf("unexpected table: %v", table)
	}

	if err := run(context.Background(), []string{"ngrams", "--out", out}); err == nil {
		t.Fatal("expected missing dataset error")
	}
	if err := run(context.Background(), []string{"ngrams", "--dataset", first, "--weights", "1,2"}); err == nil {
		t.Fatal("expected weight count error")
	}
}

func TestOverrideFromFlagsOnlyTouchesSetFlags(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	flags := registerConfigFlags(fs)
	if err := fs.Parse([]string{"--pop", "40", "--dataset", "x.txt, y.json", "--preset", "4x12"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg, err := flags.resolve(fs)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	def := config.Default()
	if cfg.Optimizer.Genetic.PopulationSize != 40 {
		t.Fatalf("pop not overridden: %d", cfg.Optimizer.Genetic.PopulationSize)
	}
	if cfg.Optimizer.Genetic.GenerationCount != def.Optimizer.Genetic.GenerationCount {
		t.Fatalf("gens changed without flag: %d", cfg.Optimizer.Genetic.GenerationCount)
	}
	if got := cfg.Optimizer.Dataset.DatasetPaths; len(got) != 2 || got[1] != "y.json" {
		t.Fatalf("unexpected dataset paths: %v", got)
	}
	if cfg.Optimizer.Dataset.DatasetWeights != nil {
		t.Fatalf("expected dataset weights reset, got %v", cfg.Optimizer.Dataset.DatasetWeights)
	}
	if cfg.LayoutInfo.Name != "4x12" || cfg.LayoutInfo.Layout != "" {
		t.Fatalf("unexpected layout info: %+v", cfg.LayoutInfo)
	}
}

func captureStdout(fn func() error) (string, error) {
	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		return "", err
	}

	os.Stdout = w
	runErr := fn()
	_ = w.Close()
	os.Stdout = origStdout

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		_ = r.Close()
		return "", err
	}
	_ = r.Close()
	return buf.String(), runErr
}
