package types

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/zeu5/tabular-marl/util"
)

// EpisodeContext carries the information used and produced by an episode
type EpisodeContext struct {
	Context context.Context
	cancel  context.CancelFunc

	Episode    int
	Experiment string
	Horizon    int
	// Evaluation episodes follow the greedy policy and do not learn
	Evaluation bool

	Trace     *Trace
	Timesteps int

	// possible outcomes
	Terminal    bool // every agent reached a terminal condition
	HorizonEnd  bool
	TimedOut    bool
	Err         error
	RunDuration time.Duration

	Report *EpisodeReport
}

// NewEpisodeContext creates the context for an episode. A zero timeout
// means the episode runs to a terminal condition or the horizon.
func NewEpisodeContext(ctx context.Context, episode int, experiment string, horizon int, timeout time.Duration) *EpisodeContext {
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	return &EpisodeContext{
		Context:    ctx,
		cancel:     cancel,
		Episode:    episode,
		Experiment: experiment,
		Horizon:    horizon,
		Trace:      NewTrace(),
		Report:     NewEpisodeReport(episode, experiment),
	}
}

func (e *EpisodeContext) Cancel() {
	e.cancel()
}

func (e *EpisodeContext) SetError(err error) {
	e.Err = err
	e.Report.AddLog(err.Error(), "error")
}

func (e *EpisodeContext) SetTimedOut() {
	e.TimedOut = true
	e.Report.AddLog("episode timed out", "timeout")
}

// Valid episodes ended without errors or timeouts
func (e *EpisodeContext) Valid() bool {
	return !e.TimedOut && e.Err == nil
}

// RecordReport writes the report of the episode to the folder
func (e *EpisodeContext) RecordReport(folder string) error {
	filePath := path.Join(folder, e.Experiment+"_ep"+strconv.Itoa(e.Episode)+".txt")
	return util.WriteToFile(filePath, e.Report.String())
}

// StepContext is handed to the environment when a tick is committed
type StepContext struct {
	Context    context.Context
	Tick       int
	Episode    int
	Experiment string
	Report     *EpisodeReport
}

func NewStepContext(eCtx *EpisodeContext, tick int) *StepContext {
	eCtx.Report.setEpisodeStep(tick)
	return &StepContext{
		Context:    eCtx.Context,
		Tick:       tick,
		Episode:    eCtx.Episode,
		Experiment: eCtx.Experiment,
		Report:     eCtx.Report,
	}
}

// EpisodeReport collects values and logs produced during an episode
type EpisodeReport struct {
	EpisodeNumber  int
	ExperimentName string
	episodeStep    int

	lock *sync.Mutex

	Values map[string][]ReportEntry
	Logs   map[string]string
}

// ReportEntry is a value recorded at a given step of the episode
type ReportEntry struct {
	EpisodeStep int
	Caller      string
	Value       float64
}

func NewEpisodeReport(episodeNumber int, experimentName string) *EpisodeReport {
	return &EpisodeReport{
		EpisodeNumber:  episodeNumber,
		ExperimentName: experimentName,
		lock:           &sync.Mutex{},
		Values:         make(map[string][]ReportEntry),
		Logs:           make(map[string]string),
	}
}

func (e *EpisodeReport) setEpisodeStep(step int) {
	e.episodeStep = step
}

// AddEntry records a value under the entry type
func (e *EpisodeReport) AddEntry(value float64, entryType string, caller string) {
	e.lock.Lock()
	defer e.lock.Unlock()

	e.Values[entryType] = append(e.Values[entryType], ReportEntry{
		EpisodeStep: e.episodeStep,
		Caller:      caller,
		Value:       value,
	})
}

func (e *EpisodeReport) AddLog(value string, key string) {
	e.lock.Lock()
	defer e.lock.Unlock()

	e.Logs[key] = value
}

func (e *EpisodeReport) String() string {
	e.lock.Lock()
	defer e.lock.Unlock()

	result := fmt.Sprintf("Experiment: %s, Episode: %d\n", e.ExperimentName, e.EpisodeNumber)
	keys := make([]string, 0, len(e.Values))
	for k := range e.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		result = fmt.Sprintf("%s\n%s [%d]:\n", result, k, len(e.Values[k]))
		for _, entry := range e.Values[k] {
			result = fmt.Sprintf("%s[ %3d ] %10.4f (%s)\n", result, entry.EpisodeStep, entry.Value, entry.Caller)
		}
	}
	for key, value := range e.Logs {
		result = fmt.Sprintf("%s\n%s :\n%s\n", result, key, value)
	}
	return result
}
