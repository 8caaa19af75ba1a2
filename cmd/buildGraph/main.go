package main

import (
	"flag"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/i5heu/GoRingBuffer/internal/logging"
	"github.com/i5heu/GoRingBuffer/internal/report"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// metric extracts one plotted value from a benchmark result.
type metric struct {
	name   string
	label  string
	format func(float64) string
	value  func(b report.BenchmarkResult) (float64, bool)
}

var metrics = []metric{
	{
		name:   "latency",
		label:  "Time per Msg",
		format: formatNs,
		value: func(b report.BenchmarkResult) (float64, bool) {
			dur, err := time.ParseDuration(b.ActualElapsed)
			if err != nil || b.NumMessagesConsumed == 0 {
				return 0, false
			}
			return float64(dur.Nanoseconds()) / float64(b.NumMessagesConsumed), true
		},
	},
	{
		name:   "drops",
		label:  "Dropped elements",
		format: formatPercent,
		value: func(b report.BenchmarkResult) (float64, bool) {
			if b.NumMessages+b.NumMessagesDropped == 0 {
				return 0, false
			}
			return b.DropRate() * 100, true
		},
	},
}

// samples groups metric values by CPU count, implementation and
// producers + consumers.
type samples map[int]map[string]map[float64][]float64

func collect(sessions []report.FullReport, m metric) samples {
	out := make(samples)
	for _, session := range sessions {
		cpus := session.SystemInfo.CPUs()
		if out[cpus] == nil {
			out[cpus] = make(map[string]map[float64][]float64)
		}
		for _, b := range session.Benchmarks {
			v, ok := m.value(b)
			if !ok {
				continue
			}
			implMap := out[cpus]
			if implMap[b.Implementation] == nil {
				implMap[b.Implementation] = make(map[float64][]float64)
			}
			x := float64(b.NumProducers + b.NumConsumers)
			implMap[b.Implementation][x] = append(implMap[b.Implementation][x], v)
		}
	}
	return out
}

// categoryTicks implements a categorical X-axis: 0,1,2,... => labels for concurrency.
type categoryTicks struct {
	positions []float64
	labels    []string
}

func (ct categoryTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	for i, pos := range ct.positions {
		if pos >= min && pos <= max {
			ticks = append(ticks, plot.Tick{Value: pos, Label: ct.labels[i]})
		}
	}
	return ticks
}

// linearTicks spaces about one labelled tick per 30px of a 9 inch plot.
func linearTicks(format func(float64) string) plot.TickerFunc {
	return func(min, max float64) []plot.Tick {
		const nTicks = 648.0 / 30.0
		if max <= min {
			return []plot.Tick{{Value: min, Label: format(min)}}
		}
		step := (max - min) / nTicks
		var ticks []plot.Tick
		for i := 0.0; i <= nTicks; i++ {
			v := min + i*step
			ticks = append(ticks, plot.Tick{Value: v, Label: format(v)})
		}
		return ticks
	}
}

func darkTheme(p *plot.Plot) {
	p.BackgroundColor = color.RGBA{R: 30, G: 30, B: 30, A: 255}
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	p.Title.TextStyle.Color = white
	p.X.Label.TextStyle.Color = white
	p.Y.Label.TextStyle.Color = white
	p.X.Color = white
	p.Y.Color = white
	p.X.Tick.Label.Color = white
	p.Y.Tick.Label.Color = white
	p.Legend.Top = true
	p.Legend.Left = true
	p.Legend.TextStyle.Color = white
}

// buildPlot draws one line with 5% error bars per implementation.
func buildPlot(cpus int, m metric, implMap map[string]map[float64][]float64) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s (5%%-avg-min / Median / 5%%-avg-max) vs. Concurrency for %d CPU(s)", m.label, cpus)
	p.X.Label.Text = "NumProducers + NumConsumers"
	p.Y.Label.Text = m.label
	p.Y.Min = 0
	p.Y.Tick.Marker = linearTicks(m.format)
	darkTheme(p)
	p.Add(plotter.NewGrid())

	concurrencySet := make(map[float64]struct{})
	for _, implData := range implMap {
		for conc := range implData {
			concurrencySet[conc] = struct{}{}
		}
	}
	concValues := make([]float64, 0, len(concurrencySet))
	for val := range concurrencySet {
		concValues = append(concValues, val)
	}
	sort.Float64s(concValues)

	concMapping := make(map[float64]float64, len(concValues))
	ticks := categoryTicks{}
	for i, val := range concValues {
		concMapping[val] = float64(i)
		ticks.positions = append(ticks.positions, float64(i))
		ticks.labels = append(ticks.labels, strconv.FormatFloat(val, 'f', -1, 64))
	}
	p.X.Tick.Marker = ticks

	implNames := make([]string, 0, len(implMap))
	for name := range implMap {
		implNames = append(implNames, name)
	}
	sort.Strings(implNames)

	colors := plotutil.SoftColors
	shapes := []draw.GlyphDrawer{
		draw.CircleGlyph{},
		draw.SquareGlyph{},
		draw.TriangleGlyph{},
		draw.CrossGlyph{},
		draw.PlusGlyph{},
	}

	// Offset each implementation inside its category so bars don't overlap.
	const offsetRange = 0.4
	offsetStep := offsetRange / math.Max(float64(len(implNames)), 1)
	startOffset := -offsetRange/2 + offsetStep/2

	for i, impl := range implNames {
		sp := summarize(implMap[impl])
		if len(sp) == 0 {
			continue
		}
		for j := range sp {
			sp[j].x = concMapping[sp[j].orig] + startOffset + float64(i)*offsetStep
		}

		line, err := plotter.NewLine(sp)
		if err != nil {
			return nil, fmt.Errorf("line for %s: %w", impl, err)
		}
		line.Color = colors[i%len(colors)]

		points, err := plotter.NewScatter(sp)
		if err != nil {
			return nil, fmt.Errorf("scatter for %s: %w", impl, err)
		}
		points.GlyphStyle.Radius = vg.Points(5)
		points.Color = colors[i%len(colors)]
		points.Shape = shapes[i%len(shapes)]

		yErrBars, err := plotter.NewYErrorBars(sp)
		if err != nil {
			return nil, fmt.Errorf("error bars for %s: %w", impl, err)
		}
		yErrBars.Color = colors[i%len(colors)]

		p.Add(line, points, yErrBars)
		p.Legend.Add(impl, line, points)
	}
	return p, nil
}

func main() {
	jsonFile := flag.String("jsonfile", "test-results.json", "Path to JSON file containing test sessions")
	outputPrefix := flag.String("out", "benchmark_graph", "Output graph image filename prefix")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	log := logging.New(level)

	sessions, err := report.Load(*jsonFile)
	if err != nil {
		log.Error("cannot load results", "err", err)
		os.Exit(1)
	}
	log.Debug("loaded sessions", "file", *jsonFile, "sessions", len(sessions))

	failed := false
	for _, m := range metrics {
		for cpus, implMap := range collect(sessions, m) {
			if len(implMap) == 0 {
				continue
			}
			p, err := buildPlot(cpus, m, implMap)
			if err != nil {
				log.Error("cannot build plot", "metric", m.name, "cpus", cpus, "err", err)
				failed = true
				continue
			}
			filename := fmt.Sprintf("%s_%s_%d.png", *outputPrefix, m.name, cpus)
			if err := p.Save(12*vg.Inch, 9*vg.Inch, filename); err != nil {
				log.Error("cannot save plot", "file", filename, "err", err)
				failed = true
				continue
			}
			log.Info("graph saved", "metric", m.name, "cpus", cpus, "file", filename)
		}
	}
	if failed {
		os.Exit(1)
	}
}
