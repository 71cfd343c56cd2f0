package policies

import (
	"golang.org/x/exp/rand"
)

// EGreedy picks a uniformly random action with probability ε, the greedy action otherwise
type EGreedy struct {
	initial  float64
	epsilon  float64
	schedule Schedule
	rand     *rand.Rand
}

var (
	_ Selector = &EGreedy{}
	_ Decayer  = &EGreedy{}
)

// NewEGreedy creates an ε-greedy policy, a zero seed seeds from the clock
func NewEGreedy(epsilon float64, schedule Schedule, seed uint64) *EGreedy {
	if schedule == nil {
		schedule = NoDecay()
	}
	return &EGreedy{
		initial:  epsilon,
		epsilon:  epsilon,
		schedule: schedule,
		rand:     newRand(seed),
	}
}

func (e *EGreedy) Epsilon() float64 {
	return e.epsilon
}

func (e *EGreedy) Select(values []float64) int {
	return egreedySelect(e.rand, e.epsilon, values)
}

func (e *EGreedy) DecreaseEpsilon(episode int) {
	e.epsilon = decay(e.schedule, e.initial, e.epsilon, episode)
}

func (e *EGreedy) Reset() {
	e.epsilon = e.initial
}

func egreedySelect(r *rand.Rand, epsilon float64, values []float64) int {
	if len(values) == 0 {
		return 0
	}
	if r.Float64() < epsilon {
		return r.Intn(len(values))
	}
	return Argmax(values)
}

// InverseNGreedy is ε-greedy where ε after episode n is ε₀·c/(c+n)
type InverseNGreedy struct {
	initial float64
	epsilon float64
	scale   float64
	rand    *rand.Rand
}

var (
	_ Selector = &InverseNGreedy{}
	_ Decayer  = &InverseNGreedy{}
)

func NewInverseNGreedy(epsilon, scale float64, seed uint64) *InverseNGreedy {
	if scale <= 0 {
		scale = 1
	}
	return &InverseNGreedy{
		initial: epsilon,
		epsilon: epsilon,
		scale:   scale,
		rand:    newRand(seed),
	}
}

func (i *InverseNGreedy) Epsilon() float64 {
	return i.epsilon
}

func (i *InverseNGreedy) Select(values []float64) int {
	return egreedySelect(i.rand, i.epsilon, values)
}

func (i *InverseNGreedy) DecreaseEpsilon(episode int) {
	if episode < 0 {
		return
	}
	next := i.initial * i.scale / (i.scale + float64(episode))
	if next < i.epsilon {
		i.epsilon = next
	}
}

func (i *InverseNGreedy) Reset() {
	i.epsilon = i.initial
}
