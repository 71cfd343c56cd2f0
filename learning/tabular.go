package learning

import (
	"strconv"

	"github.com/zeu5/tabular-marl/policies"
	"github.com/zeu5/tabular-marl/table"
	"github.com/zeu5/tabular-marl/types"
	"github.com/zeu5/tabular-marl/util"
)

// tabular holds what both learners share: the Q-table, the selector and
// the evaluation flag
type tabular struct {
	params     Params
	qTable     *table.QTable
	selector   policies.Selector
	nActions   int
	evaluation bool
}

func newTabular(params Params, selector policies.Selector) (*tabular, error) {
	q, err := table.NewQTable(params.Table)
	if err != nil {
		return nil, err
	}
	if selector == nil {
		selector = policies.Greedy{}
	}
	return &tabular{
		params:   params,
		qTable:   q,
		selector: selector,
	}, nil
}

// choose selects an action for the state, greedily in evaluation mode
func (t *tabular) choose(state types.State) types.Action {
	values := t.qTable.Get(state)
	if t.evaluation {
		return types.Action(policies.Argmax(values))
	}
	return types.Action(t.selector.Select(values))
}

// backup moves Q(s, a) towards reward + gamma*next
func (t *tabular) backup(state types.State, action types.Action, reward, next float64) {
	cur := t.qTable.Value(state, action)
	t.qTable.Put(state, action, cur+t.params.Alpha*(reward+t.params.Gamma*next-cur))
}

func (t *tabular) Inform(nActions int) {
	t.nActions = nActions
	t.qTable.Inform(nActions)
}

func (t *tabular) Actions() int {
	return t.nActions
}

func (t *tabular) EvaluationMode(active bool) {
	t.evaluation = active
}

func (t *tabular) Evaluating() bool {
	return t.evaluation
}

func (t *tabular) DecreaseEpsilon(episode int) {
	if d, ok := t.selector.(policies.Decayer); ok {
		d.DecreaseEpsilon(episode)
	}
}

func (t *tabular) Reset() {
	t.qTable.Reset()
	if r, ok := t.selector.(policies.Resetter); ok {
		r.Reset()
	}
}

func (t *tabular) Size() int {
	return t.qTable.Size()
}

func (t *tabular) StateUsage() []types.Usage {
	return t.qTable.StateUsage()
}

func (t *tabular) Table() *table.QTable {
	return t.qTable
}

func (t *tabular) Params() Params {
	return t.params
}

func (t *tabular) Entries() []table.Entry {
	return t.qTable.Entries()
}

func (t *tabular) Load(entries []table.Entry) {
	t.qTable.Load(entries)
}

type recordEntry struct {
	State  string    `json:"state"`
	Values []float64 `json:"values"`
	Usage  int       `json:"usage"`
}

// Record writes the table as json, states are identified by their hash
func (t *tabular) Record(path string) error {
	entries := t.qTable.Entries()
	out := make([]recordEntry, len(entries))
	for i, e := range entries {
		out[i] = recordEntry{
			State:  strconv.FormatUint(e.State.Hash(), 16),
			Values: e.Values,
			Usage:  e.Usage,
		}
	}
	return util.WriteJSON(path, out)
}
