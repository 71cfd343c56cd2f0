// Package table implements sparse tabular value stores indexed by state.
//
// Stores grow on demand: reading the value of an unseen state materializes
// a default entry. Every write is clamped to the bounds of the store's
// Config. States are bucketed by their hash and compared with Equal, so
// unequal states with colliding hashes never share an entry.
package table

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/zeu5/tabular-marl/types"
)

const (
	// MinValue and MaxValue are the default bounds of the stored values
	MinValue = -1000000.0
	MaxValue = 1000000.0

	DefaultCapacity = 16
)

// Config of a value store
type Config struct {
	// Initial value of newly created entries
	Initial float64
	Min     float64
	Max     float64
	// Capacity is a preallocation hint for the number of states
	Capacity int
}

func DefaultConfig() Config {
	return Config{
		Initial:  0,
		Min:      MinValue,
		Max:      MaxValue,
		Capacity: DefaultCapacity,
	}
}

func (c Config) validate() error {
	if c.Capacity <= 0 {
		return errors.Errorf("invalid table capacity %d", c.Capacity)
	}
	if c.Min > c.Max {
		return errors.Errorf("invalid table bounds [%f, %f]", c.Min, c.Max)
	}
	return nil
}

// Clamp restricts the value to the bounds of the config
func (c Config) Clamp(v float64) float64 {
	if v < c.Min {
		return c.Min
	}
	if v > c.Max {
		return c.Max
	}
	return v
}

type slot[V any] struct {
	state types.State
	value V
	usage int
}

// store is a hash map of states with chained buckets
type store[V any] struct {
	buckets  map[uint64][]*slot[V]
	size     int
	capacity int
}

func newStore[V any](capacity int) *store[V] {
	return &store[V]{
		buckets:  make(map[uint64][]*slot[V], capacity),
		capacity: capacity,
	}
}

func (s *store[V]) find(state types.State) (*slot[V], bool) {
	for _, sl := range s.buckets[state.Hash()] {
		if sl.state.Equal(state) {
			return sl, true
		}
	}
	return nil, false
}

// insert stores a copy of the state
func (s *store[V]) insert(state types.State, value V) *slot[V] {
	h := state.Hash()
	sl := &slot[V]{state: state.Copy(), value: value}
	s.buckets[h] = append(s.buckets[h], sl)
	s.size++
	return sl
}

func (s *store[V]) reset() {
	s.buckets = make(map[uint64][]*slot[V], s.capacity)
	s.size = 0
}

// slots in a deterministic order: by hash, then insertion order within a bucket
func (s *store[V]) slots() []*slot[V] {
	hashes := make([]uint64, 0, len(s.buckets))
	for h := range s.buckets {
		hashes = append(hashes, h)
	}
	sort.Slice(hashes, func(i, j int) bool { return hashes[i] < hashes[j] })

	result := make([]*slot[V], 0, s.size)
	for _, h := range hashes {
		result = append(result, s.buckets[h]...)
	}
	return result
}

func (s *store[V]) usage() []types.Usage {
	slots := s.slots()
	result := make([]types.Usage, len(slots))
	for i, sl := range slots {
		result[i] = types.Usage{State: sl.state, Count: sl.usage}
	}
	return result
}

// Entry is the content of a single state of a table, used to persist tables.
// Value tables have a single element in Values.
type Entry struct {
	State  types.State
	Values []float64
	Usage  int
}
