package monitor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zeu5/tabular-marl/grid"
	"github.com/zeu5/tabular-marl/learning"
	"github.com/zeu5/tabular-marl/policies"
	"github.com/zeu5/tabular-marl/table"
	"github.com/zeu5/tabular-marl/types"
)

func newServer(t *testing.T) (*Server, *learning.QLearning) {
	t.Helper()
	l, err := learning.NewQLearning(learning.Params{Alpha: 0.5, Gamma: 0.9, Table: table.DefaultConfig()}, policies.Greedy{})
	if err != nil {
		t.Fatalf("failed to create learner: %s", err)
	}
	l.Inform(5)
	s := NewServer(":0")
	s.Register("grid", "a", l)
	return s, l
}

func get(t *testing.T, s *Server, url string, out interface{}) int {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	if out != nil && rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("failed to decode %s: %s", url, err)
		}
	}
	return rec.Code
}

func TestLearnerEndpoints(t *testing.T) {
	s, l := newServer(t)
	l.Update(grid.Position{Row: 0, Col: 0}, grid.Position{Row: 0, Col: 1}, grid.Right, -1)
	l.Update(grid.Position{Row: 0, Col: 0}, grid.Position{Row: 0, Col: 1}, grid.Right, -1)
	l.Update(grid.Position{Row: 0, Col: 1}, nil, grid.Right, 0)
	s.ObserveEpisode(&types.EpisodeSummary{
		Experiment: "grid",
		Returns:    map[string]float64{"a": -2},
		TableSizes: map[string]int{"a": l.Size()},
		Terminal:   true,
		Timesteps:  2,
	})

	var all []LearnerInfo
	if code := get(t, s, "/learners", &all); code != http.StatusOK {
		t.Fatalf("unexpected status %d", code)
	}
	if len(all) != 1 || all[0].Agent != "a" || all[0].Size != 2 || all[0].Actions != 5 {
		t.Errorf("unexpected learners %+v", all)
	}

	var info LearnerInfo
	if code := get(t, s, "/learners/grid/a", &info); code != http.StatusOK {
		t.Fatalf("unexpected status %d", code)
	}
	if info.Episodes != 1 || info.LastReturn != -2 {
		t.Errorf("unexpected learner info %+v", info)
	}

	var usage []UsageInfo
	if code := get(t, s, "/learners/grid/a/usage?limit=1", &usage); code != http.StatusOK {
		t.Fatalf("unexpected status %d", code)
	}
	if len(usage) != 1 || usage[0].Count != 2 || usage[0].State != "(0, 0)" {
		t.Errorf("unexpected usage %+v", usage)
	}

	if code := get(t, s, "/learners/grid/b", nil); code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown learner, got %d", code)
	}
	if code := get(t, s, "/learners/grid/a/usage?limit=x", nil); code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid limit, got %d", code)
	}
}

func TestMetrics(t *testing.T) {
	s, _ := newServer(t)
	s.ObserveEpisode(&types.EpisodeSummary{
		Experiment: "grid",
		Evaluation: true,
		Returns:    map[string]float64{"a": -3},
		TableSizes: map[string]int{"a": 4},
		Timesteps:  3,
	})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	body := rec.Body.String()
	expected := []string{
		`tabrl_table_size{agent="a",experiment="grid"} 4`,
		`tabrl_episode_return{agent="a",experiment="grid",mode="evaluation"} -3`,
		`tabrl_episodes_total{experiment="grid",mode="evaluation",outcome="horizon"} 1`,
	}
	for _, e := range expected {
		if !strings.Contains(body, e) {
			t.Errorf("metrics missing %s", e)
		}
	}
}
