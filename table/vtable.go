package table

import (
	"github.com/zeu5/tabular-marl/types"
)

// ValueTable maps states to a single value
type ValueTable struct {
	config  Config
	entries *store[float64]
}

func NewValueTable(config Config) (*ValueTable, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &ValueTable{
		config:  config,
		entries: newStore[float64](config.Capacity),
	}, nil
}

// Get returns the value of the state, creating the entry with the initial
// value when the state is unseen
func (v *ValueTable) Get(state types.State) float64 {
	if sl, ok := v.entries.find(state); ok {
		return sl.value
	}
	return v.entries.insert(state, v.config.Initial).value
}

// Put clamps and writes the value of the state and counts the write
func (v *ValueTable) Put(state types.State, value float64) {
	sl, ok := v.entries.find(state)
	if !ok {
		sl = v.entries.insert(state, v.config.Initial)
	}
	sl.value = v.config.Clamp(value)
	sl.usage++
}

func (v *ValueTable) Has(state types.State) bool {
	_, ok := v.entries.find(state)
	return ok
}

func (v *ValueTable) Reset() {
	v.entries.reset()
}

func (v *ValueTable) Size() int {
	return v.entries.size
}

func (v *ValueTable) StateUsage() []types.Usage {
	return v.entries.usage()
}

func (v *ValueTable) Entries() []Entry {
	slots := v.entries.slots()
	result := make([]Entry, len(slots))
	for i, sl := range slots {
		result[i] = Entry{State: sl.state, Values: []float64{sl.value}, Usage: sl.usage}
	}
	return result
}

// Load writes the entries to the table, entries without values are skipped
func (v *ValueTable) Load(entries []Entry) {
	for _, e := range entries {
		if len(e.Values) == 0 {
			continue
		}
		value := v.config.Clamp(e.Values[0])
		if sl, ok := v.entries.find(e.State); ok {
			sl.value = value
			sl.usage = e.Usage
			continue
		}
		sl := v.entries.insert(e.State, value)
		sl.usage = e.Usage
	}
}
