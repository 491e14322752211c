package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"keyforge/internal/keyboard"
)

type optionDescription struct {
	name        string
	description string
}

var layoutInfoDescriptions = []optionDescription{
	{"name", "Name of a preset. If left out, num_rows and num_cols are used instead. Available presets: %s"},
	{"num_rows", "Number of rows when no preset is named."},
	{"num_cols", "Number of columns when no preset is named."},
	{"layout", "Collection of layers. Each key is {keycode}_{moveable}{symmetric}. A moveable key may be changed by the optimizer; otherwise it is fixed. A symmetric key is locked to its mirror key: if one moves, the other moves to the mirrored location."},
	{"effort_layer", "Relative effort to reach each key position. Smaller is easier. Give the most accessible keys a weight of 1 and scale the rest."},
	{"phalanx_layer", "Hand and finger used for each key, written {hand}:{finger} with hands (L)eft and (R)ight and fingers (T)humb, (I)ndex, (M)iddle, (R)ing, (P)inkie and (J)oint."},
}

var optimizerDescriptions = []optionDescription{
	{"population_size", "Number of layouts per generation."},
	{"generation_count", "Number of generations."},
	{"fitness_cutoff", "Keep this proportion of the best layouts each generation."},
	{"swap_weight", "swap_weight:replace_weight is the ratio of swap mutations (two keys trade places) to replace mutations (one key gets a new keycode)."},
	{"replace_weight", "See swap_weight."},
	{"selector", "How parents are drawn from the survivors: elite or tournament."},
	{"seed", "Seed for the random source. Runs with the same seed and configuration are identical."},
	{"workers", "Number of layouts scored in parallel. 0 uses one per CPU."},
	{"include_alphas", "Include alphabet keycodes."},
	{"include_numbers", "Include number keycodes."},
	{"include_number_symbols", "Include shifted numbers (!@#$ etc.)."},
	{"include_brackets", "Include ()[]{}<>."},
	{"include_misc_symbols", "Include -=\\;'`,./"},
	{"include_misc_symbols_shifted", "Include _+|:\"~?"},
	{"explicit_inclusions", "Keycodes to add to the set built from the include options."},
	{"explicit_exclusions", "Keycodes to remove from the set built from the include options."},
	{"valid_keycodes", "Overrides keycode_options when not empty. Usually left empty."},
	{"dataset_paths", "Text datasets: a directory of text files (not searched recursively), a single text file, or a saved n-gram table (.json)."},
	{"dataset_weights", "Relative importance of each dataset. With a 2:1 ratio the first dataset makes up 2/3 of the score."},
	{"max_ngram_size", "Longest n-gram extracted from text."},
	{"top_n_ngrams_to_take", "Most frequent n-grams kept per length. 0 keeps all."},
	{"hand_alternation_weight", "hand_alternation_weight:finger_roll_weight is the importance of hand alternation against finger rolls."},
	{"hand_alternation_reduction_factor", "Effort multiplier for a run of at least 3 keys that alternates hands."},
	{"finger_roll_weight", "See hand_alternation_weight."},
	{"finger_roll_reduction_factor", "Effort multiplier for a finger roll of at least 3 keys. Keys more than one row apart break a roll."},
	{"finger_roll_same_row_reduction_factor", "Extra multiplier for rolls that stay on one row."},
	{"same_finger_penalty_factor", "Effort multiplier when the same finger of the same hand strikes twice in a row."},
	{"extra_length_penalty", "Applied once per keystroke beyond the n-gram length (layer shifts, shift), exponentially."},
	{"unreachable_penalty", "Cost per character of an n-gram the layout cannot type."},
}

// Encode renders c as TOML followed by commented option descriptions.
func (c OptimizerConfig) Encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# See the comments at the end for option information.\n\n")
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, err
	}

	buf.WriteString("\n# Option info\n# [layout_info]\n")
	presets := strings.Join(keyboard.PresetNames(), ", ")
	for _, opt := range layoutInfoDescriptions {
		description := opt.description
		if opt.name == "name" {
			description = fmt.Sprintf(description, presets)
		}
		fmt.Fprintf(&buf, "# %s: %s\n", opt.name, description)
	}
	buf.WriteString("#\n# [layout_optimizer_config]\n")
	for _, opt := range optimizerDescriptions {
		fmt.Fprintf(&buf, "# %s: %s\n", opt.name, opt.description)
	}
	return buf.Bytes(), nil
}

// EncodeYAML renders c as YAML without comments.
func (c OptimizerConfig) EncodeYAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write saves c to path in the format its extension names.
func (c OptimizerConfig) Write(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		data, err = c.Encode()
	case ".yaml", ".yml":
		data, err = c.EncodeYAML()
	default:
		return fmt.Errorf("unsupported config format: %s", path)
	}
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
