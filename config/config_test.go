package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
)

func TestParamsGetters(t *testing.T) {
	p := Params{"alpha": "0.5", "episodes": "10", "bad": "x", "empty": " "}

	cases := []struct {
		name    string
		get     func() (float64, error)
		want    float64
		wantErr error
	}{
		{name: "present float", get: func() (float64, error) { return p.Float("alpha") }, want: 0.5},
		{name: "missing float", get: func() (float64, error) { return p.Float("gamma") }, wantErr: ErrMissingKey},
		{name: "empty is missing", get: func() (float64, error) { return p.Float("empty") }, wantErr: ErrMissingKey},
		{name: "malformed float", get: func() (float64, error) { return p.Float("bad") }, wantErr: ErrBadValue},
		{name: "fallback float", get: func() (float64, error) { return p.FloatOr("gamma", 0.9) }, want: 0.9},
		{name: "malformed optional", get: func() (float64, error) { return p.FloatOr("bad", 1) }, wantErr: ErrBadValue},
		{name: "int", get: func() (float64, error) {
			v, err := p.Int("episodes")
			return float64(v), err
		}, want: 10},
		{name: "fallback int", get: func() (float64, error) {
			v, err := p.IntOr("runs", 3)
			return float64(v), err
		}, want: 3},
	}
	for _, c := range cases {
		got, err := c.get()
		if c.wantErr != nil {
			if !errors.Is(err, c.wantErr) {
				t.Errorf("%s: expected error %v, got %v", c.name, c.wantErr, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error %s", c.name, err)
			continue
		}
		if got != c.want {
			t.Errorf("%s: expected %f, got %f", c.name, c.want, got)
		}
	}
}

func TestParamsWith(t *testing.T) {
	p := Params{"a": "1"}
	q := p.With("b", "2")
	if p.Has("b") {
		t.Errorf("original params modified")
	}
	if q.StringOr("b", "") != "2" || q.StringOr("a", "") != "1" {
		t.Errorf("unexpected params %v", q)
	}
	keys := q.Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("unexpected keys %v", keys)
	}
}

const sample = `
episodes: 200
horizon: 30
eval_every: 10
environment:
  kind: grid
  params:
    height: "4"
    width: "4"
agents:
  - name: q
    params:
      algorithm: qlearning
      alpha: "0.1"
      gamma: "0.9"
  - name: s
    params:
      algorithm: sarsa
`

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exp.yaml")
	if err := os.WriteFile(path, []byte(sample), 0644); err != nil {
		t.Fatalf("failed to write config: %s", err)
	}
	f, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %s", err)
	}
	if f.Episodes != 200 || f.Horizon != 30 || f.EvalEvery != 10 {
		t.Errorf("unexpected run config %+v", f)
	}
	if f.Runs != 1 || f.SavePath != "results" {
		t.Errorf("expected defaults, got runs %d save %s", f.Runs, f.SavePath)
	}
	if f.Environment.Kind != "grid" || f.Environment.Params.StringOr("width", "") != "4" {
		t.Errorf("unexpected environment %+v", f.Environment)
	}
	if len(f.Agents) != 2 || f.Agents[1].Params.StringOr("algorithm", "") != "sarsa" {
		t.Errorf("unexpected agents %+v", f.Agents)
	}
	if f.Store.Params == nil {
		t.Errorf("expected store params to be initialized")
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{name: "no agents", data: "episodes: 10\nhorizon: 5\n"},
		{name: "bad episodes", data: "episodes: -1\nagents: [{name: a}]\n"},
		{name: "duplicate agents", data: "agents: [{name: a}, {name: a}]\n"},
		{name: "unnamed agent", data: "agents: [{params: {alpha: \"1\"}}]\n"},
		{name: "invalid yaml", data: "episodes: [\n"},
	}
	for _, c := range cases {
		if _, err := Parse([]byte(c.data)); err == nil {
			t.Errorf("%s: expected error", c.name)
		}
	}
}
