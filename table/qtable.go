package table

import (
	"github.com/zeu5/tabular-marl/types"
)

// QTable maps states to a vector of per-action values.
//
// The width of new entries is the action count last passed to Inform.
// Entries created under a different width keep their original width,
// callers must keep the action count of an environment stable.
type QTable struct {
	config   Config
	nActions int
	entries  *store[[]float64]
}

// NewQTable creates an empty QTable, the config must have a positive capacity
func NewQTable(config Config) (*QTable, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &QTable{
		config:  config,
		entries: newStore[[]float64](config.Capacity),
	}, nil
}

func (q *QTable) Config() Config {
	return q.config
}

// Inform sets the width of subsequently created entries
func (q *QTable) Inform(nActions int) {
	q.nActions = nActions
}

func (q *QTable) Actions() int {
	return q.nActions
}

func (q *QTable) newEntry() []float64 {
	n := q.nActions
	if n < 0 {
		n = 0
	}
	values := make([]float64, n)
	for i := range values {
		values[i] = q.config.Initial
	}
	return values
}

// Get returns the action values of the state, creating a default entry when
// the state is unseen. The returned slice is the stored one and must not be
// modified, use Put.
func (q *QTable) Get(state types.State) []float64 {
	if sl, ok := q.entries.find(state); ok {
		return sl.value
	}
	return q.entries.insert(state, q.newEntry()).value
}

// Value returns the value of the action in the state.
// Actions beyond the width of the entry have the initial value.
func (q *QTable) Value(state types.State, action types.Action) float64 {
	values := q.Get(state)
	if int(action) < 0 || int(action) >= len(values) {
		return q.config.Initial
	}
	return values[action]
}

// Put clamps and writes the value of the action in the state and counts the
// write. An entry narrower than the action is extended with initial values.
func (q *QTable) Put(state types.State, action types.Action, value float64) {
	if action < 0 {
		return
	}
	sl, ok := q.entries.find(state)
	if !ok {
		sl = q.entries.insert(state, q.newEntry())
	}
	for len(sl.value) <= int(action) {
		sl.value = append(sl.value, q.config.Initial)
	}
	sl.value[action] = q.config.Clamp(value)
	sl.usage++
}

// Max returns the greedy action of the state and its value, ties are broken
// by the lowest action index. An entry without actions yields (NoAction, 0).
func (q *QTable) Max(state types.State) (types.Action, float64) {
	values := q.Get(state)
	if len(values) == 0 {
		return types.NoAction, 0
	}
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return types.Action(best), values[best]
}

// Has checks whether the state has an entry without creating one
func (q *QTable) Has(state types.State) bool {
	_, ok := q.entries.find(state)
	return ok
}

// Reset removes all the entries and usage counters
func (q *QTable) Reset() {
	q.entries.reset()
}

func (q *QTable) Size() int {
	return q.entries.size
}

func (q *QTable) StateUsage() []types.Usage {
	return q.entries.usage()
}

// Entries returns a copy of the content of the table
func (q *QTable) Entries() []Entry {
	slots := q.entries.slots()
	result := make([]Entry, len(slots))
	for i, sl := range slots {
		values := make([]float64, len(sl.value))
		copy(values, sl.value)
		result[i] = Entry{State: sl.state, Values: values, Usage: sl.usage}
	}
	return result
}

// Load writes the entries to the table, replacing existing entries of the same states
func (q *QTable) Load(entries []Entry) {
	for _, e := range entries {
		values := make([]float64, len(e.Values))
		for i, v := range e.Values {
			values[i] = q.config.Clamp(v)
		}
		if sl, ok := q.entries.find(e.State); ok {
			sl.value = values
			sl.usage = e.Usage
			continue
		}
		sl := q.entries.insert(e.State, values)
		sl.usage = e.Usage
	}
}
