package policies

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/zeu5/tabular-marl/config"
)

func TestArgmax(t *testing.T) {
	cases := []struct {
		name   string
		values []float64
		want   int
	}{
		{name: "empty", values: nil, want: 0},
		{name: "single", values: []float64{-3}, want: 0},
		{name: "ties take lowest", values: []float64{1, 3, 3, 2}, want: 1},
		{name: "all equal", values: []float64{0, 0, 0}, want: 0},
		{name: "negative", values: []float64{-5, -1, -2}, want: 1},
	}
	for _, c := range cases {
		if got := Argmax(c.values); got != c.want {
			t.Errorf("%s: expected %d, got %d", c.name, c.want, got)
		}
	}
}

func TestEGreedyZeroEpsilonIsGreedy(t *testing.T) {
	e := NewEGreedy(0, nil, 7)
	values := []float64{0, 2, 1}
	for i := 0; i < 100; i++ {
		if a := e.Select(values); a != 1 {
			t.Fatalf("expected greedy action 1, got %d", a)
		}
	}
}

func TestEGreedyExplores(t *testing.T) {
	e := NewEGreedy(1, nil, 11)
	values := []float64{0, 10, 0, 0}
	counts := make([]int, len(values))
	for i := 0; i < 4000; i++ {
		counts[e.Select(values)]++
	}
	for a, c := range counts {
		if c < 800 || c > 1200 {
			t.Errorf("action %d selected %d times, expected about 1000", a, c)
		}
	}
}

func TestEGreedyDecay(t *testing.T) {
	e := NewEGreedy(0.8, ExponentialDecay(0.5, 0.1), 3)
	e.DecreaseEpsilon(1)
	if math.Abs(e.Epsilon()-0.4) > 1e-9 {
		t.Errorf("expected 0.4, got %f", e.Epsilon())
	}
	e.DecreaseEpsilon(10)
	if math.Abs(e.Epsilon()-0.1) > 1e-9 {
		t.Errorf("expected floor 0.1, got %f", e.Epsilon())
	}
	e.DecreaseEpsilon(0)
	if math.Abs(e.Epsilon()-0.1) > 1e-9 {
		t.Errorf("epsilon must not increase, got %f", e.Epsilon())
	}
	e.Reset()
	if e.Epsilon() != 0.8 {
		t.Errorf("expected reset to 0.8, got %f", e.Epsilon())
	}
}

func TestLinearDecay(t *testing.T) {
	e := NewEGreedy(1, LinearDecay(10, 0), 3)
	e.DecreaseEpsilon(5)
	if math.Abs(e.Epsilon()-0.5) > 1e-9 {
		t.Errorf("expected 0.5, got %f", e.Epsilon())
	}
	e.DecreaseEpsilon(20)
	if e.Epsilon() != 0 {
		t.Errorf("expected 0, got %f", e.Epsilon())
	}
}

func TestNegativeFloorClampedAtZero(t *testing.T) {
	e := NewEGreedy(0.5, LinearDecay(2, -1), 3)
	e.DecreaseEpsilon(2)
	if e.Epsilon() != 0 {
		t.Errorf("expected epsilon clamped at 0, got %f", e.Epsilon())
	}
}

func TestInverseNGreedy(t *testing.T) {
	i := NewInverseNGreedy(0.5, 10, 5)
	i.DecreaseEpsilon(10)
	if math.Abs(i.Epsilon()-0.25) > 1e-9 {
		t.Errorf("expected 0.25, got %f", i.Epsilon())
	}
	i.DecreaseEpsilon(5)
	if math.Abs(i.Epsilon()-0.25) > 1e-9 {
		t.Errorf("epsilon must not increase, got %f", i.Epsilon())
	}
	i.DecreaseEpsilon(90)
	if math.Abs(i.Epsilon()-0.05) > 1e-9 {
		t.Errorf("expected 0.05, got %f", i.Epsilon())
	}
}

func TestBoltzmannProbabilities(t *testing.T) {
	b := NewBoltzmann(1, 0.01, nil, 5)
	probs := b.Probabilities([]float64{0, math.Log(3)})
	if math.Abs(probs[0]-0.25) > 1e-9 || math.Abs(probs[1]-0.75) > 1e-9 {
		t.Errorf("unexpected probabilities %v", probs)
	}

	// large values do not overflow
	probs = b.Probabilities([]float64{1000, 1000})
	if math.Abs(probs[0]-0.5) > 1e-9 {
		t.Errorf("unexpected probabilities %v", probs)
	}
}

func TestBoltzmannSampling(t *testing.T) {
	b := NewBoltzmann(1, 0.01, nil, 9)
	values := []float64{0, math.Log(3)}
	counts := make([]int, 2)
	for i := 0; i < 4000; i++ {
		counts[b.Select(values)]++
	}
	if counts[1] < 2700 || counts[1] > 3300 {
		t.Errorf("expected about 3000 selections of action 1, got %d", counts[1])
	}
}

func TestBoltzmannTemperatureFloor(t *testing.T) {
	b := NewBoltzmann(1, 0.2, ExponentialDecay(0.5, 0), 9)
	b.DecreaseEpsilon(10)
	if b.Temperature() != 0.2 {
		t.Errorf("expected temperature floor 0.2, got %f", b.Temperature())
	}
	// near zero temperature is greedy
	if a := b.Select([]float64{0, 5, 1}); a != 1 {
		t.Errorf("expected greedy action at low temperature, got %d", a)
	}
}

func TestNew(t *testing.T) {
	cases := []struct {
		name    string
		params  config.Params
		check   func(Selector) bool
		wantErr bool
	}{
		{name: "default", params: config.Params{}, check: func(s Selector) bool {
			e, ok := s.(*EGreedy)
			return ok && e.Epsilon() == 0.1
		}},
		{name: "argmax", params: config.Params{"policy": "argmax"}, check: func(s Selector) bool {
			_, ok := s.(Greedy)
			return ok
		}},
		{name: "boltzmann", params: config.Params{"policy": "boltzmann", "temperature": "2"}, check: func(s Selector) bool {
			b, ok := s.(*Boltzmann)
			return ok && b.Temperature() == 2
		}},
		{name: "inverse", params: config.Params{"policy": "inversen", "epsilon": "0.3"}, check: func(s Selector) bool {
			i, ok := s.(*InverseNGreedy)
			return ok && i.Epsilon() == 0.3
		}},
		{name: "unknown", params: config.Params{"policy": "ucb"}, wantErr: true},
		{name: "bad epsilon", params: config.Params{"epsilon": "lots"}, wantErr: true},
		{name: "bad decay", params: config.Params{"epsilon_decay": "2"}, wantErr: true},
	}
	for _, c := range cases {
		s, err := New(c.params)
		if c.wantErr {
			if !errors.Is(err, config.ErrBadValue) {
				t.Errorf("%s: expected malformed value error, got %v", c.name, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error %s", c.name, err)
			continue
		}
		if !c.check(s) {
			t.Errorf("%s: unexpected selector %#v", c.name, s)
		}
	}
}
