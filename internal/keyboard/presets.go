package keyboard

import (
	"fmt"
	"sort"
	"strings"
)

// Preset bundles the text of a layout template with matching effort and
// phalanx layers.
type Preset struct {
	Name    string
	Rows    int
	Cols    int
	Layout  string
	Effort  string
	Phalanx string
}

// Build parses the preset text.
func (p Preset) Build() (*Layout, *EffortLayer, *PhalanxLayer, error) {
	layout, err := ParseLayout(p.Layout, p.Rows, p.Cols)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("preset %s layout: %w", p.Name, err)
	}
	effort, err := ParseEffortLayer(p.Effort, p.Rows, p.Cols)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("preset %s effort layer: %w", p.Name, err)
	}
	phalanx, err := ParsePhalanxLayer(p.Phalanx, p.Rows, p.Cols)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("preset %s phalanx layer: %w", p.Name, err)
	}
	return layout, effort, phalanx, nil
}

const (
	FerrisSweepName  = "ferris_sweep"
	FourByTwelveName = "4x12"
)

var presets = map[string]Preset{
	FerrisSweepName: {
		Name:   FerrisSweepName,
		Rows:   4,
		Cols:   10,
		Layout: `
___Layer 0___
__10   __10 __10   __10   __10   __10    __10   __10 __10 __10
__10   __10 LS3_10 __10   __10   __10    __10   __10 __10 __10
SFT_11 __10 __10   __10   __10   __10    __10   __10 __10 SFT_11
__00   __00 __00   LS1_00 SPC_00 BSPC_00 LS2_00 __00 __00 __00
___Layer 1___
__10 __10    __10    __10    __10 __10 __10    __10    __10    __10
__10 LCBR_00 LBRC_00 LPRN_00 __10 __10 RPRN_00 RBRC_00 RCBR_00 __10
__10 __10    __10    __10    __10 __10 __10    __10    __10    __10
__00 __00    __00    __10    __10 __10 __10    __00    __00    __00
___Layer 2___
1_00 2_00 3_00 4_00 5_00    __10 __10    __10    __10  __10
6_00 7_00 8_00 9_00 ZERO_00 __10 LEFT_00 DOWN_00 UP_00 RGHT_00
__10 __10 __10 __10 __10    __10 HOME_00 PGDN_00 PGUP_00 END_00
__00 __00 __00 __10 __10    __10 __10    __00    __00  __00
___Layer 3___
__10 __10 __10 __10 __10 __10 __10 __10 __10 __10
__10 __10 __10 __10 __10 __10 __10 __10 __10 __10
__10 __10 __10 __10 __10 __10 __10 __10 __10 __10
__00 __00 __00 __10 __10 __10 __10 __00 __00 __00
`,
		Effort: `
7  2  2  2  7  7  2  2  2  7
3  1  1  1  3  3  1  1  1  3
5  3  3  3  8  8  3  3  3  5
10 7  4  2  1  1  2  4  7  10
`,
		Phalanx: `
L:P L:R L:M L:I L:I R:I R:I R:M R:R R:P
L:P L:R L:M L:I L:I R:I R:I R:M R:R R:P
L:P L:R L:M L:I L:I R:I R:I R:M R:R R:P
L:P L:R L:T L:T L:T R:T R:T R:T R:R R:P
`,
	},
	FourByTwelveName: {
		Name:   FourByTwelveName,
		Rows:   4,
		Cols:   12,
		Layout: `
___Layer 0___
   0      1      2      3      4      5      6      7      8      9      10     11
0| __10   __10   __10   __10   __10   __10   __10   __10   __10   __10   __10   __10
1| __10   __10   __10   __10   __10   __10   __10   __10   __10   __10   __10   __10
2| SFT_11 __10   __10   __10   __10   __10   __10   __10   __10   __10   __10   SFT_11
3| __10   __10   __10   __10   LS1_10 SPC_00 BSPC_00 LS2_10 __10  __10   __10   __10

___Layer 1___
   0      1      2      3      4      5      6      7      8      9      10     11
0| __10   __10   __10   __10   __10   __10   __10   __10   __10   __10   __10   __10
1| __10   __10   __10   __10   __10   __10   __10   __10   __10   __10   __10   __10
2| __10   __10   __10   __10   __10   __10   __10   __10   __10   __10   __10   __10
3| __10   __10   __10   __10   __10   __10   __10   __10   __10   __10   __10   __10

___Layer 2___
   0      1      2      3      4      5      6      7      8      9      10     11
0| __10   __10   __10   __10   __10   __10   __10   __10   __10   __10   __10   __10
1| __10   __10   __10   __10   __10   __10   __10   __10   __10   __10   __10   __10
2| __10   __10   __10   __10   __10   __10   __10   __10   __10   __10   __10   __10
3| __10   __10   __10   __10   __10   __10   __10   __10   __10   __10   __10   __10
`,
		Effort: `
12 7  2 2 2 7 7 2 2 2 7  12
6  3  1 1 1 3 3 1 1 1 3  6
13 5  3 3 3 8 8 3 3 3 5  13
14 10 7 4 2 1 1 2 4 7 10 14
`,
		Phalanx: `
L:P L:P L:R L:M L:I L:I R:I R:I R:M R:R R:P R:P
L:P L:P L:R L:M L:I L:I R:I R:I R:M R:R R:P R:P
L:P L:P L:R L:M L:I L:I R:I R:I R:M R:R R:P R:P
L:J L:P L:R L:T L:T L:T R:T R:T R:T R:R R:P R:J
`,
	},
}

// LookupPreset returns the preset registered under name.
func LookupPreset(name string) (Preset, error) {
	p, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Preset{}, fmt.Errorf("keyboard: unknown preset %q (known: %s)", name, strings.Join(PresetNames(), ", "))
	}
	return p, nil
}

// PresetNames lists the registered presets in sorted order.
func PresetNames() []string {
	out := make([]string, 0, len(presets))
	for name := range presets {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
