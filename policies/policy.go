// Package policies implements the action selection policies of the
// learners: greedy, ε-greedy, Boltzmann and inverse-N-greedy.
//
// A policy picks an index given the action values of the current state.
// Exploring policies own their exploration state (ε or temperature) and
// lower it when told that an episode has ended.
package policies

import (
	"math"
	"time"

	"golang.org/x/exp/rand"
)

// Selector picks an action index given the values of the actions
type Selector interface {
	Select(values []float64) int
}

// Decayer lowers the exploration of a policy at the end of an episode
type Decayer interface {
	DecreaseEpsilon(episode int)
}

// Resetter restores the initial exploration parameters
type Resetter interface {
	Reset()
}

// Argmax returns the index of the largest value, ties are broken by the lowest
// index. An empty vector yields 0, callers must inform a positive action count.
func Argmax(values []float64) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}

// Greedy always exploits
type Greedy struct{}

var _ Selector = Greedy{}

func (Greedy) Select(values []float64) int {
	return Argmax(values)
}

// Schedule computes the exploration parameter after the given episode
type Schedule func(initial float64, episode int) float64

// ExponentialDecay multiplies the initial value by rate for every episode
func ExponentialDecay(rate, floor float64) Schedule {
	return func(initial float64, episode int) float64 {
		return math.Max(floor, initial*math.Pow(rate, float64(episode)))
	}
}

// LinearDecay reaches floor after the given number of episodes
func LinearDecay(episodes int, floor float64) Schedule {
	return func(initial float64, episode int) float64 {
		if episodes <= 0 || episode >= episodes {
			return math.Min(initial, floor)
		}
		v := initial - (initial-floor)*float64(episode)/float64(episodes)
		return math.Max(floor, v)
	}
}

func NoDecay() Schedule {
	return func(initial float64, _ int) float64 {
		return initial
	}
}

// decay applies the schedule, the result never exceeds current and is never negative
func decay(s Schedule, initial, current float64, episode int) float64 {
	next := s(initial, episode)
	if next > current {
		next = current
	}
	if next < 0 {
		next = 0
	}
	return next
}

// newSource seeds from the clock when seed is zero
func newSource(seed uint64) rand.Source {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.NewSource(seed)
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(newSource(seed))
}
