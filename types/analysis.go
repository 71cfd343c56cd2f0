package types

import (
	"fmt"
	"os"
	"path"
	"sort"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// ReturnDataSet holds the mean return of the agents for every episode
type ReturnDataSet struct {
	Training   []float64
	Evaluation []float64
}

// ReturnAnalyzer collects the mean return over agents of every episode
type ReturnAnalyzer struct {
	ds *ReturnDataSet
}

var _ Analyzer = &ReturnAnalyzer{}

func NewReturnAnalyzer() *ReturnAnalyzer {
	return &ReturnAnalyzer{ds: &ReturnDataSet{}}
}

func (r *ReturnAnalyzer) Analyze(_ int, _ string, summary *EpisodeSummary, _ *Trace) {
	returns := make([]float64, 0, len(summary.Returns))
	for _, v := range summary.Returns {
		returns = append(returns, v)
	}
	mean := 0.0
	if len(returns) > 0 {
		mean = stat.Mean(returns, nil)
	}
	if summary.Evaluation {
		r.ds.Evaluation = append(r.ds.Evaluation, mean)
	} else {
		r.ds.Training = append(r.ds.Training, mean)
	}
}

func (r *ReturnAnalyzer) DataSet() DataSet {
	return r.ds
}

func (r *ReturnAnalyzer) Reset() {
	r.ds = &ReturnDataSet{}
}

// CoverageAnalyzer tracks the cumulative number of distinct states visited
type CoverageAnalyzer struct {
	abstractor   StateAbstractor
	uniqueStates map[string]bool
	coverage     []int
}

var _ Analyzer = &CoverageAnalyzer{}

func NewCoverageAnalyzer(abstractor StateAbstractor) *CoverageAnalyzer {
	return &CoverageAnalyzer{
		abstractor:   abstractor,
		uniqueStates: make(map[string]bool),
		coverage:     make([]int, 0),
	}
}

// DefaultStateAbstractor keys states by their hash
func DefaultStateAbstractor() StateAbstractor {
	return func(s State) string {
		return strconv.FormatUint(s.Hash(), 16)
	}
}

func (c *CoverageAnalyzer) Analyze(_ int, _ string, summary *EpisodeSummary, trace *Trace) {
	if summary.Evaluation {
		return
	}
	for _, step := range trace.Steps {
		for _, t := range step.Transitions {
			if t.State != nil {
				c.uniqueStates[c.abstractor(t.State)] = true
			}
		}
	}
	c.coverage = append(c.coverage, len(c.uniqueStates))
}

func (c *CoverageAnalyzer) DataSet() DataSet {
	return c.coverage
}

func (c *CoverageAnalyzer) Reset() {
	c.uniqueStates = make(map[string]bool)
	c.coverage = make([]int, 0)
}

// smooth averages consecutive windows of the series
func smooth(values []float64, window int) plotter.XYs {
	if window < 1 {
		window = 1
	}
	points := make(plotter.XYs, 0, len(values)/window+1)
	for start := 0; start < len(values); start += window {
		end := start + window
		if end > len(values) {
			end = len(values)
		}
		points = append(points, plotter.XY{
			X: float64(start),
			Y: stat.Mean(values[start:end], nil),
		})
	}
	return points
}

// ReturnPlotter plots the training return of every experiment, averaged over windows of episodes
func ReturnPlotter(plotPath string, window int) Comparator {
	if _, err := os.Stat(plotPath); err != nil {
		os.MkdirAll(plotPath, os.ModePerm)
	}
	return func(run int, _ int, names []string, ds []DataSet) {
		p := plot.New()
		p.Title.Text = "Comparison"
		p.X.Label.Text = "Episode"
		p.Y.Label.Text = "Return"
		for i := 0; i < len(names); i++ {
			returns := ds[i].(*ReturnDataSet)
			if len(returns.Training) == 0 {
				continue
			}
			line, err := plotter.NewLine(smooth(returns.Training, window))
			if err != nil {
				continue
			}
			line.Color = plotutil.Color(i)
			p.Add(line)
			p.Legend.Add(names[i], line)
		}
		p.Save(8*vg.Inch, 8*vg.Inch, path.Join(plotPath, strconv.Itoa(run)+"_returns.png"))
	}
}

// CoveragePlotter plots the number of distinct states visited by every experiment
func CoveragePlotter(plotPath string) Comparator {
	if _, err := os.Stat(plotPath); err != nil {
		os.MkdirAll(plotPath, os.ModePerm)
	}
	return func(run int, _ int, names []string, ds []DataSet) {
		p := plot.New()
		p.Title.Text = "Comparison"
		p.X.Label.Text = "Episode"
		p.Y.Label.Text = "States covered"
		for i := 0; i < len(names); i++ {
			uniqueStates := ds[i].([]int)
			if len(uniqueStates) == 0 {
				continue
			}
			points := make(plotter.XYs, len(uniqueStates))
			for j, v := range uniqueStates {
				points[j] = plotter.XY{X: float64(j), Y: float64(v)}
			}
			line, err := plotter.NewLine(points)
			if err != nil {
				continue
			}
			line.Color = plotutil.Color(i)
			p.Add(line)
			p.Legend.Add(names[i], line)
			fmt.Printf("Number of unique states: %d for experiment: %s\n", uniqueStates[len(uniqueStates)-1], names[i])
		}
		p.Save(8*vg.Inch, 8*vg.Inch, path.Join(plotPath, strconv.Itoa(run)+"_coverage.png"))
	}
}

// ReturnChart renders an interactive HTML chart of the training returns
func ReturnChart(chartPath string, window int) Comparator {
	if _, err := os.Stat(chartPath); err != nil {
		os.MkdirAll(chartPath, os.ModePerm)
	}
	return func(run int, _ int, names []string, ds []DataSet) {
		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithTitleOpts(opts.Title{Title: "Return per episode"}),
			charts.WithInitializationOpts(opts.Initialization{Theme: "shine"}),
		)

		var xAxis []string
		for i := 0; i < len(names); i++ {
			points := smooth(ds[i].(*ReturnDataSet).Training, window)
			if xAxis == nil {
				for _, p := range points {
					xAxis = append(xAxis, strconv.Itoa(int(p.X)))
				}
				line.SetXAxis(xAxis)
			}
			items := make([]opts.LineData, 0, len(points))
			for _, p := range points {
				items = append(items, opts.LineData{Value: p.Y})
			}
			line.AddSeries(names[i], items)
		}

		page := components.NewPage()
		page.AddCharts(line)
		f, err := os.Create(path.Join(chartPath, strconv.Itoa(run)+"_returns.html"))
		if err != nil {
			fmt.Printf("failed to create chart: %s\n", err)
			return
		}
		defer f.Close()
		page.Render(f)
	}
}

// ReturnSummary prints the mean and standard deviation of the evaluation
// returns (or the last training returns when no evaluation was run)
func ReturnSummary() Comparator {
	return func(run int, _ int, names []string, ds []DataSet) {
		order := make([]int, len(names))
		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(a, b int) bool { return names[order[a]] < names[order[b]] })
		for _, i := range order {
			returns := ds[i].(*ReturnDataSet)
			values := returns.Evaluation
			if len(values) == 0 {
				values = lastN(returns.Training, 100)
			}
			if len(values) == 0 {
				continue
			}
			mean, std := stat.MeanStdDev(values, nil)
			fmt.Printf("Run %d, experiment: %s, return: %.3f (std %.3f)\n", run, names[i], mean, std)
		}
	}
}

func lastN(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}
