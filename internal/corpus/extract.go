package corpus

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"keyforge/internal/keycode"
	"keyforge/internal/monitoring"
)

// Extract counts every n-gram of 1..maxN runes in r. N-grams never span a
// line break and only contain characters a layout can type.
func Extract(r io.Reader, maxN int) (FrequencyTable, error) {
	if maxN < 1 {
		return nil, fmt.Errorf("corpus: max n-gram size must be positive, got %d", maxN)
	}
	table := make(FrequencyTable)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		countLine(table, strings.TrimRight(scanner.Text(), "\r"), maxN)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("corpus: read: %w", err)
	}
	return table, nil
}

func countLine(table FrequencyTable, line string, maxN int) {
	runes := []rune(line)
	for i := range runes {
		for n := 1; n <= maxN && i+n <= len(runes); n++ {
			ngram := string(runes[i : i+n])
			if !keycode.Typeable(string(runes[i+n-1])) {
				break
			}
			table[ngram]++
		}
	}
}

// ExtractFile counts n-grams in a single file.
func ExtractFile(path string, maxN int) (FrequencyTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("corpus: open %s: %w", path, err)
	}
	defer f.Close()
	return Extract(f, maxN)
}

// ExtractDir counts n-grams across the regular files directly inside dir.
// Subdirectories are not visited.
func ExtractDir(dir string, maxN int) (FrequencyTable, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("corpus: read dir %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	table := make(FrequencyTable)
	for _, name := range names {
		part, err := ExtractFile(filepath.Join(dir, name), maxN)
		if err != nil {
			return nil, err
		}
		for ngram, count := range part {
			table[ngram] += count
		}
	}
	monitoring.Logf("corpus: extracted %d n-grams from %d files in %s", len(table), len(names), dir)
	return table, nil
}

// Source is one dataset path with its relative weight. A path may name a
// directory of text files, a text file, or a table written by Save.
type Source struct {
	Path   string
	Weight float64
}

// Build extracts every source, keeps the topN n-grams per length, and
// combines the results by weight.
func Build(sources []Source, maxN, topN int) (FrequencyTable, error) {
	tables := make([]FrequencyTable, 0, len(sources))
	weights := make([]float64, 0, len(sources))
	for _, src := range sources {
		table, err := loadSource(src.Path, maxN)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table.TopN(topN))
		weights = append(weights, src.Weight)
	}
	return Combine(tables, weights)
}

func loadSource(path string, maxN int) (FrequencyTable, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("corpus: dataset %s: %w", path, err)
	}
	switch {
	case info.IsDir():
		return ExtractDir(path, maxN)
	case strings.EqualFold(filepath.Ext(path), ".json"):
		return Load(path)
	default:
		return ExtractFile(path, maxN)
	}
}
