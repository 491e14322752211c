package stats

import (
	"fmt"
	"image/color"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"keyforge/internal/keyboard"
	"keyforge/internal/model"
)

var viridis = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

type fitnessSeries struct {
	name  string
	color color.RGBA
	value func(model.GenerationDiagnostics) float64
}

var fitnessSeriesSet = []fitnessSeries{
	{"best ever", color.RGBA{R: 0x1f, G: 0x9e, B: 0x89, A: 0xff}, func(d model.GenerationDiagnostics) float64 { return d.BestEverScore }},
	{"best", color.RGBA{R: 0x31, G: 0x68, B: 0x8e, A: 0xff}, func(d model.GenerationDiagnostics) float64 { return d.BestScore }},
	{"mean", color.RGBA{R: 0xb5, G: 0xde, B: 0x2b, A: 0xff}, func(d model.GenerationDiagnostics) float64 { return d.MeanScore }},
}

// WriteFitnessPlot saves a PNG line chart of per-generation scores. The image
// format follows the extension of path.
func WriteFitnessPlot(path string, diagnostics []model.GenerationDiagnostics) error {
	if len(diagnostics) == 0 {
		return fmt.Errorf("no generations to plot")
	}

	p := plot.New()
	p.Title.Text = "Layout score by generation"
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Effort score"

	for _, series := range fitnessSeriesSet {
		pts := make(plotter.XYs, 0, len(diagnostics))
		for _, d := range diagnostics {
			pts = append(pts, plotter.XY{X: float64(d.Generation), Y: series.value(d)})
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = series.color
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(series.name, line)
	}
	p.Add(plotter.NewGrid())

	return p.Save(10*vg.Inch, 5*vg.Inch, path)
}

// WriteFitnessChartHTML renders an interactive line chart of per-generation
// scores.
func WriteFitnessChartHTML(w io.Writer, runID string, diagnostics []model.GenerationDiagnostics) error {
	generations := make([]string, len(diagnostics))
	for i, d := range diagnostics {
		generations[i] = strconv.Itoa(d.Generation)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "keyforge fitness", Width: "1000px", Height: "520px"}),
		charts.WithTitleOpts(opts.Title{Title: "Layout score by generation", Subtitle: fmt.Sprintf("run=%s generations=%d", runID, len(diagnostics))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Generation", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Effort score", Scale: opts.Bool(true)}),
	)
	line.SetXAxis(generations)
	for _, series := range fitnessSeriesSet {
		data := make([]opts.LineData, len(diagnostics))
		for i, d := range diagnostics {
			data[i] = opts.LineData{Value: series.value(d)}
		}
		line.AddSeries(series.name, data)
	}
	return line.Render(w)
}

// WriteEffortHeatmapHTML renders the effort grid as a heatmap. When labels is
// not nil each cell is named after the key assigned to it.
func WriteEffortHeatmapHTML(w io.Writer, title string, effort *keyboard.EffortLayer, labels *keyboard.KeyLayer) error {
	if effort == nil {
		return fmt.Errorf("effort layer is required")
	}
	if labels != nil && (labels.Rows() != effort.Rows() || labels.Cols() != effort.Cols()) {
		return fmt.Errorf("%w: labels %dx%d, effort %dx%d", keyboard.ErrShapeMismatch,
			labels.Rows(), labels.Cols(), effort.Rows(), effort.Cols())
	}

	rows, cols := effort.Rows(), effort.Cols()
	xLabels := make([]string, cols)
	for c := range xLabels {
		xLabels[c] = strconv.Itoa(c)
	}
	// echarts draws category 0 at the bottom, so rows are listed bottom-up
	yLabels := make([]string, rows)
	for r := 0; r < rows; r++ {
		yLabels[rows-1-r] = strconv.Itoa(r)
	}

	data := make([]opts.HeatMapData, 0, rows*cols)
	maxEffort := 0.0
	var cellErr error
	effort.Each(func(r, c int, v float64) {
		if v > maxEffort {
			maxEffort = v
		}
		cell := opts.HeatMapData{Value: [3]interface{}{c, rows - 1 - r, v}}
		if labels != nil {
			key, err := labels.Get(r, c)
			if err != nil && cellErr == nil {
				cellErr = err
			}
			cell.Name = key.String()
		}
		data = append(data, cell)
	})
	if cellErr != nil {
		return cellErr
	}

	heatmap := charts.NewHeatMap()
	heatmap.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "keyforge effort", Width: "900px", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("%dx%d", rows, cols)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: "Column", SplitArea: &opts.SplitArea{Show: opts.Bool(true)}}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Name: "Row", Data: yLabels, SplitArea: &opts.SplitArea{Show: opts.Bool(true)}}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxEffort),
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	heatmap.SetXAxis(xLabels).AddSeries("effort", data)
	return heatmap.Render(w)
}
