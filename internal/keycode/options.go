package keycode

// Options selects which keycode families make up the default candidate set
// the optimizer may place on moveable keys.
type Options struct {
	IncludeAlphas             bool     `toml:"include_alphas" yaml:"include_alphas"`
	IncludeNumbers            bool     `toml:"include_numbers" yaml:"include_numbers"`
	IncludeNumberSymbols      bool     `toml:"include_number_symbols" yaml:"include_number_symbols"`
	IncludeBrackets           bool     `toml:"include_brackets" yaml:"include_brackets"`
	IncludeMiscSymbols        bool     `toml:"include_misc_symbols" yaml:"include_misc_symbols"`
	IncludeMiscSymbolsShifted bool     `toml:"include_misc_symbols_shifted" yaml:"include_misc_symbols_shifted"`
	ExplicitInclusions        []string `toml:"explicit_inclusions" yaml:"explicit_inclusions"`
	ExplicitExclusions        []string `toml:"explicit_exclusions" yaml:"explicit_exclusions"`
}

// DefaultOptions includes letters and unshifted punctuation only.
func DefaultOptions() Options {
	return Options{
		IncludeAlphas:      true,
		IncludeMiscSymbols: true,
	}
}

var (
	numberSymbols      = []Keycode{EXLM, AT, HASH, DLR, PERC, CIRC, AMPR, ASTR}
	brackets           = []Keycode{LPRN, RPRN, LBRC, RBRC, LCBR, RCBR, LT, GT}
	miscSymbols        = []Keycode{MINS, EQL, BSLS, SCLN, QUOT, GRV, COMM, DOT, SLSH}
	miscSymbolsShifted = []Keycode{UNDS, PLUS, PIPE, COLN, DQUO, TILD, QUES}
	numbers            = []Keycode{N1, N2, N3, N4, N5, N6, N7, N8, N9, N0}
)

// DefaultSet builds the sorted, duplicate-free candidate set described by opts.
func DefaultSet(opts Options) ([]Keycode, error) {
	set := make(map[Keycode]struct{})
	add := func(keys ...Keycode) {
		for _, k := range keys {
			set[k] = struct{}{}
		}
	}
	if opts.IncludeAlphas {
		for k := A; k <= Z; k++ {
			add(k)
		}
	}
	if opts.IncludeNumbers {
		add(numbers...)
	}
	if opts.IncludeNumberSymbols {
		add(numberSymbols...)
	}
	if opts.IncludeBrackets {
		add(brackets...)
	}
	if opts.IncludeMiscSymbols {
		add(miscSymbols...)
	}
	if opts.IncludeMiscSymbolsShifted {
		add(miscSymbolsShifted...)
	}

	included, err := ParseAll(opts.ExplicitInclusions)
	if err != nil {
		return nil, err
	}
	add(included...)

	excluded, err := ParseAll(opts.ExplicitExclusions)
	if err != nil {
		return nil, err
	}
	for _, k := range excluded {
		delete(set, k)
	}

	out := make([]Keycode, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	Sort(out)
	return out, nil
}
