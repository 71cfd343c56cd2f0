package policies

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// Boltzmann samples action i with probability proportional to exp(Q_i / T)
type Boltzmann struct {
	initial     float64
	temperature float64
	minimum     float64
	schedule    Schedule
	src         rand.Source
}

var (
	_ Selector = &Boltzmann{}
	_ Decayer  = &Boltzmann{}
)

// NewBoltzmann creates a softmax policy. The temperature never drops below
// minimum, which is raised to a small positive value when not positive.
func NewBoltzmann(temperature, minimum float64, schedule Schedule, seed uint64) *Boltzmann {
	if minimum <= 0 {
		minimum = 1e-3
	}
	if temperature < minimum {
		temperature = minimum
	}
	if schedule == nil {
		schedule = NoDecay()
	}
	return &Boltzmann{
		initial:     temperature,
		temperature: temperature,
		minimum:     minimum,
		schedule:    schedule,
		src:         newSource(seed),
	}
}

func (b *Boltzmann) Temperature() float64 {
	return b.temperature
}

// Probabilities of selecting each action
func (b *Boltzmann) Probabilities(values []float64) []float64 {
	weights := b.weights(values)
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}

// weights shifted by the max value so that the largest is exp(0)
func (b *Boltzmann) weights(values []float64) []float64 {
	weights := make([]float64, len(values))
	maxVal := values[Argmax(values)]
	for i, v := range values {
		weights[i] = math.Exp((v - maxVal) / b.temperature)
	}
	return weights
}

func (b *Boltzmann) Select(values []float64) int {
	if len(values) == 0 {
		return 0
	}
	i, ok := sampleuv.NewWeighted(b.weights(values), b.src).Take()
	if !ok {
		return Argmax(values)
	}
	return i
}

func (b *Boltzmann) DecreaseEpsilon(episode int) {
	b.temperature = math.Max(b.minimum, decay(b.schedule, b.initial, b.temperature, episode))
}

func (b *Boltzmann) Reset() {
	b.temperature = b.initial
}
