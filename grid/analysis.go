package grid

import (
	"os"
	"path"
	"strconv"

	"github.com/zeu5/tabular-marl/types"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// VisitDataSet counts the visits of every cell during training
type VisitDataSet struct {
	Visits map[int]map[int]int
	Height int
	Width  int
}

var _ plotter.GridXYZ = &VisitDataSet{}

func (g *VisitDataSet) Dims() (int, int) {
	return g.Width, g.Height
}

func (g *VisitDataSet) Z(c, r int) float64 {
	return float64(g.Visits[r][c])
}

func (g *VisitDataSet) X(c int) float64 {
	return float64(c)
}

func (g *VisitDataSet) Y(r int) float64 {
	return float64(r)
}

func (g *VisitDataSet) Min() float64 {
	return 0.0
}

func (g *VisitDataSet) Max() float64 {
	max := 0
	for _, vals := range g.Visits {
		for _, count := range vals {
			if count > max {
				max = count
			}
		}
	}
	return float64(max)
}

func (g *VisitDataSet) add(p Position) {
	if _, ok := g.Visits[p.Row]; !ok {
		g.Visits[p.Row] = make(map[int]int)
	}
	g.Visits[p.Row][p.Col] += 1
	if p.Row+1 > g.Height {
		g.Height = p.Row + 1
	}
	if p.Col+1 > g.Width {
		g.Width = p.Col + 1
	}
}

// VisitAnalyzer counts the positions visited by all agents in training episodes
type VisitAnalyzer struct {
	ds *VisitDataSet
}

var _ types.Analyzer = &VisitAnalyzer{}

func NewVisitAnalyzer() *VisitAnalyzer {
	a := &VisitAnalyzer{}
	a.Reset()
	return a
}

func (v *VisitAnalyzer) Analyze(_ int, _ string, summary *types.EpisodeSummary, trace *types.Trace) {
	if summary.Evaluation {
		return
	}
	for _, step := range trace.Steps {
		for _, t := range step.Transitions {
			if p, ok := t.State.(Position); ok {
				v.ds.add(p)
			}
		}
	}
}

func (v *VisitAnalyzer) DataSet() types.DataSet {
	return v.ds
}

func (v *VisitAnalyzer) Reset() {
	v.ds = &VisitDataSet{Visits: make(map[int]map[int]int)}
}

// MergeVisits sums the visits of the datasets
func MergeVisits(dataSets []types.DataSet) *VisitDataSet {
	merged := &VisitDataSet{Visits: make(map[int]map[int]int)}
	for _, d := range dataSets {
		visits := d.(*VisitDataSet)
		for r, vals := range visits.Visits {
			for c, count := range vals {
				if _, ok := merged.Visits[r]; !ok {
					merged.Visits[r] = make(map[int]int)
				}
				merged.Visits[r][c] += count
			}
		}
		merged.Height = max(merged.Height, visits.Height)
		merged.Width = max(merged.Width, visits.Width)
	}
	return merged
}

// HeatmapComparator plots the visits of every experiment as a heat map
func HeatmapComparator(plotPath string) types.Comparator {
	if _, err := os.Stat(plotPath); err != nil {
		os.MkdirAll(plotPath, os.ModePerm)
	}
	return func(run int, _ int, names []string, ds []types.DataSet) {
		for i := 0; i < len(names); i++ {
			visits := ds[i].(*VisitDataSet)
			if visits.Height == 0 || visits.Width == 0 {
				continue
			}
			p := plot.New()
			p.Title.Text = names[i]
			p.Add(plotter.NewHeatMap(visits, palette.Heat(12, 1)))
			p.Save(4*vg.Inch, 4*vg.Inch, path.Join(plotPath, strconv.Itoa(run)+"_"+names[i]+"_visits.png"))
		}
	}
}
