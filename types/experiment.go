package types

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/zeu5/tabular-marl/util"
)

type experimentRunConfig struct {
	CurrentRun int
	Episodes   int
	Horizon    int
	// every EvalEvery episodes run an evaluation episode, 0 disables
	EvalEvery int
	Analyzers []Analyzer
	Timeout   time.Duration
	Context   context.Context

	// thresholds to abort the experiment
	ConsecutiveTimeoutsAbort int
	ConsecutiveErrorsAbort   int

	// record flags
	RecordTraces bool
	RecordPolicy bool
	SavePath     string

	// print the progress line
	Quiet             bool
	Output            *ParallelOutput
	LongestExpNameLen int
}

// EpisodeSummary is the outcome of an episode handed to analyzers and recorders
type EpisodeSummary struct {
	Experiment string
	Run        int
	Episode    int
	Evaluation bool
	Timesteps  int
	Terminal   bool
	// per agent name
	Returns map[string]float64
	// per agent name, the number of entries in the learner's table
	TableSizes map[string]int
}

// Recorder receives the summary of every episode, used by outer monitoring
type Recorder interface {
	ObserveEpisode(*EpisodeSummary)
}

// RunRecorder is a Recorder notified at the end of every run, before the
// learners are reset
type RunRecorder interface {
	ObserveRun(e *Experiment, run int)
}

// PolicyRecorder is implemented by learners that can dump their tables
type PolicyRecorder interface {
	Record(path string) error
}

// Experiment groups the agents acting in a shared environment
type Experiment struct {
	Name        string
	agents      []*Agent
	environment Environment
	recorders   []Recorder
}

// NewExperiment creates a new experiment instance.
// Agents are indexed by their ID which must match the environment.
func NewExperiment(name string, environment Environment, agents ...*Agent) *Experiment {
	return &Experiment{
		Name:        name,
		agents:      agents,
		environment: environment,
		recorders:   make([]Recorder, 0),
	}
}

func (e *Experiment) AddRecorder(r Recorder) {
	e.recorders = append(e.recorders, r)
}

func (e *Experiment) Agents() []*Agent {
	return e.agents
}

func (e *Experiment) Environment() Environment {
	return e.environment
}

// learners returns the distinct learners of the agents, a centrally
// trained learner shared by several agents appears once
func (e *Experiment) learners() []Learner {
	seen := make(map[Learner]bool)
	result := make([]Learner, 0, len(e.agents))
	for _, a := range e.agents {
		if seen[a.learner] {
			continue
		}
		seen[a.learner] = true
		result = append(result, a.learner)
	}
	return result
}

func (e *Experiment) recordTrace(rConfig *experimentRunConfig, trace *Trace) {
	tracesFile := path.Join(rConfig.SavePath, "traces", e.Name+"_"+strconv.Itoa(rConfig.CurrentRun)+".jsonl")
	bs, err := json.Marshal(trace)
	if err != nil {
		glog.Warningf("failed to marshal trace: %s", err)
		return
	}
	util.AppendToFile(tracesFile, string(bs))
}

// order in which agents propose their actions for the tick
func (e *Experiment) order(tick int) []int {
	if o, ok := e.environment.(Orderer); ok {
		return o.Order(tick)
	}
	order := make([]int, len(e.agents))
	for i := range order {
		order[i] = i
	}
	return order
}

// RunEpisode runs a single episode in the environment.
// All agents propose their actions before the environment commits the tick,
// then every agent receives its observation.
func (e *Experiment) RunEpisode(eCtx *EpisodeContext) *EpisodeSummary {
	start := time.Now()
	defer func() {
		eCtx.RunDuration = time.Since(start)
	}()

	env := e.environment
	for _, l := range e.learners() {
		l.EvaluationMode(eCtx.Evaluation)
	}
	defer func() {
		if eCtx.Evaluation {
			for _, l := range e.learners() {
				l.EvaluationMode(false)
			}
		}
	}()

	if err := env.Reset(eCtx); err != nil {
		eCtx.SetError(errors.Wrap(err, "resetting environment"))
		return e.summary(eCtx)
	}
	if env.NumAgents() != len(e.agents) {
		eCtx.SetError(errors.Errorf("environment has %d agents, experiment has %d", env.NumAgents(), len(e.agents)))
		return e.summary(eCtx)
	}
	for i, a := range e.agents {
		if a.ID != i {
			eCtx.SetError(errors.Errorf("agent %s has id %d at position %d", a.Name, a.ID, i))
			return e.summary(eCtx)
		}
		a.Begin(env)
	}

	for tick := 0; tick < eCtx.Horizon; tick++ {
		select {
		case <-eCtx.Context.Done():
			if errors.Is(eCtx.Context.Err(), context.DeadlineExceeded) {
				eCtx.SetTimedOut()
			} else {
				eCtx.SetError(eCtx.Context.Err())
			}
			return e.summary(eCtx)
		default:
		}

		step := &Step{Tick: tick, Transitions: make([]*Transition, 0, len(e.agents))}
		proposed := 0
		for _, i := range e.order(tick) {
			a := e.agents[i]
			if a.Finished() {
				continue
			}
			if err := a.Step(env); err != nil {
				eCtx.SetError(errors.Wrapf(err, "agent %s acting", a.Name))
				return e.summary(eCtx)
			}
			step.Transitions = append(step.Transitions, &Transition{
				Agent:  a.ID,
				State:  a.State(),
				Action: a.LastAction(),
			})
			proposed++
		}
		if proposed == 0 {
			break
		}

		observations, err := env.Tick(NewStepContext(eCtx, tick))
		if err != nil {
			eCtx.SetError(errors.Wrapf(err, "tick %d", tick))
			return e.summary(eCtx)
		}
		for _, t := range step.Transitions {
			if t.Agent >= len(observations) || observations[t.Agent] == nil {
				eCtx.SetError(errors.Errorf("missing observation for agent %d at tick %d", t.Agent, tick))
				return e.summary(eCtx)
			}
			obs := observations[t.Agent]
			e.agents[t.Agent].Update(obs)
			t.NextState = obs.State
			t.Reward = obs.Reward
			t.Terminal = obs.Terminal
		}
		eCtx.Trace.Append(step)
		eCtx.Timesteps++

		if e.allFinished() {
			break
		}
	}
	if e.allFinished() {
		eCtx.Terminal = true
	} else {
		eCtx.HorizonEnd = true
	}
	return e.summary(eCtx)
}

func (e *Experiment) allFinished() bool {
	for _, a := range e.agents {
		if !a.Finished() {
			return false
		}
	}
	return true
}

func (e *Experiment) summary(eCtx *EpisodeContext) *EpisodeSummary {
	s := &EpisodeSummary{
		Experiment: e.Name,
		Episode:    eCtx.Episode,
		Evaluation: eCtx.Evaluation,
		Timesteps:  eCtx.Timesteps,
		Terminal:   eCtx.Terminal,
		Returns:    make(map[string]float64),
		TableSizes: make(map[string]int),
	}
	for _, a := range e.agents {
		s.Returns[a.Name] = a.Accumulator().Sum
		s.TableSizes[a.Name] = a.learner.Size()
	}
	return s
}

// Run the experiment for the specified number of episodes
func (e *Experiment) Run(rConfig *experimentRunConfig) {
	select {
	case <-rConfig.Context.Done():
		return
	default:
	}

	if rConfig.RecordTraces {
		tracesFolder := path.Join(rConfig.SavePath, "traces")
		if _, err := os.Stat(tracesFolder); err != nil {
			os.MkdirAll(tracesFolder, os.ModePerm)
		}
	}

	totalTimeout := 0
	totalWithError := 0
	consecutiveTimeouts := 0
	consecutiveErrors := 0
	totalTerminal := 0
	totalHorizon := 0
	lastReturn := 0.0

	EPPadding := len(strconv.Itoa(rConfig.Episodes))
	NamePadding := rConfig.LongestExpNameLen

	for episode := 0; episode < rConfig.Episodes; episode++ {
		select {
		case <-rConfig.Context.Done():
			return
		default:
		}

		eCtx := NewEpisodeContext(rConfig.Context, episode, e.Name, rConfig.Horizon, rConfig.Timeout)
		eCtx.Evaluation = rConfig.EvalEvery > 0 && (episode+1)%rConfig.EvalEvery == 0

		summary := e.RunEpisode(eCtx)
		eCtx.Cancel()
		summary.Run = rConfig.CurrentRun

		if eCtx.TimedOut {
			totalTimeout += 1
			consecutiveTimeouts += 1
		} else {
			consecutiveTimeouts = 0
		}
		if eCtx.Err != nil {
			totalWithError += 1
			consecutiveErrors += 1
			glog.V(1).Infof("experiment %s episode %d: %s", e.Name, episode, eCtx.Err)
			eCtx.RecordReport(path.Join(rConfig.SavePath, "epReports"))
		} else {
			consecutiveErrors = 0
		}
		if eCtx.Valid() {
			if eCtx.Terminal {
				totalTerminal += 1
			} else {
				totalHorizon += 1
			}
		}

		if rConfig.RecordTraces {
			e.recordTrace(rConfig, eCtx.Trace)
		}
		for _, a := range rConfig.Analyzers {
			a.Analyze(rConfig.CurrentRun, e.Name, summary, eCtx.Trace)
		}
		for _, r := range e.recorders {
			r.ObserveEpisode(summary)
		}

		if !eCtx.Evaluation {
			for _, l := range e.learners() {
				if d, ok := l.(Decayer); ok {
					d.DecreaseEpsilon(episode + 1)
				}
			}
		}

		if consecutiveTimeouts >= rConfig.ConsecutiveTimeoutsAbort {
			fmt.Printf("\n Aborting experiment %s : %d consecutive timeouts\n", e.Name, consecutiveTimeouts)
			break
		}
		if consecutiveErrors >= rConfig.ConsecutiveErrorsAbort {
			fmt.Printf("\n Aborting experiment %s : %d consecutive errors\n", e.Name, consecutiveErrors)
			break
		}

		for _, r := range summary.Returns {
			lastReturn = r
			break
		}
		status := fmt.Sprintf("Exp:%*s, Eps:%*d/%d || Terminal:%*d, Horizon:%*d, TOut:%*d, Err:%*d || Return: %8.2f",
			NamePadding, e.Name, EPPadding, episode+1, rConfig.Episodes, EPPadding, totalTerminal, EPPadding, totalHorizon,
			EPPadding, totalTimeout, EPPadding, totalWithError, lastReturn)
		if rConfig.Output != nil {
			rConfig.Output.TrySet(status)
		} else if !rConfig.Quiet {
			fmt.Printf("\r%s", status)
		}
	}

	if rConfig.RecordPolicy {
		for _, a := range e.agents {
			if r, ok := a.learner.(PolicyRecorder); ok {
				file := path.Join(rConfig.SavePath, "policies", e.Name+"_"+a.Name+"_"+strconv.Itoa(rConfig.CurrentRun)+".json")
				if err := r.Record(file); err != nil {
					glog.Warningf("failed to record policy of %s: %s", a.Name, err)
				}
			}
		}
	}
	for _, r := range e.recorders {
		if rr, ok := r.(RunRecorder); ok {
			rr.ObserveRun(e, rConfig.CurrentRun)
		}
	}
	if rConfig.Output == nil && !rConfig.Quiet {
		fmt.Println("")
	}
}

// Reset clears the learners to start a new run
func (e *Experiment) Reset() {
	for _, l := range e.learners() {
		l.Reset()
	}
}

// Generic Dataset that contains information after processing the episodes
type DataSet interface{}

// Analyzer compresses the information of the episodes to a DataSet
type Analyzer interface {
	// run, experiment name, episode summary, trace
	Analyze(int, string, *EpisodeSummary, *Trace)
	DataSet() DataSet
	Reset()
}

// Comparator differentiates between different datasets with associated names
// run, total episodes, experiment names, datasets
type Comparator func(int, int, []string, []DataSet)

func NoopComparator() Comparator {
	return func(i, _ int, s []string, ds []DataSet) {}
}

// ComparisonConfig contains the configuration for the comparison
type ComparisonConfig struct {
	Runs      int
	Episodes  int
	Horizon   int
	EvalEvery int

	RecordPath string
	Timeout    time.Duration

	ConsecutiveTimeoutsAbort int
	ConsecutiveErrorsAbort   int

	RecordTraces bool
	RecordPolicy bool
	Quiet        bool
}

func (c *Comparison) recordConfig() {
	cfg := c.cConfig
	out := make(map[string]interface{})
	out["runs"] = cfg.Runs
	out["episodes"] = cfg.Episodes
	out["horizon"] = cfg.Horizon
	out["eval_every"] = cfg.EvalEvery
	out["record_traces"] = cfg.RecordTraces
	out["record_policy"] = cfg.RecordPolicy
	if cfg.Timeout != 0 {
		out["timeout"] = cfg.Timeout.String()
	}

	experiments := make([]string, 0)
	for _, e := range c.Experiments {
		experiments = append(experiments, e.Name)
	}
	out["experiments"] = experiments

	analyzers := make([]string, 0)
	for name := range c.analyzers {
		analyzers = append(analyzers, name)
	}
	out["analyzers"] = analyzers

	bs, err := json.Marshal(out)
	if err != nil {
		panic(err)
	}
	if err := os.WriteFile(path.Join(cfg.RecordPath, "comparison_config.json"), bs, 0644); err != nil {
		glog.Warningf("failed to record comparison config: %s", err)
	}
}

// Comparison contains the different experiments to compare.
// The episodes of every experiment are analyzed and the datasets compared.
type Comparison struct {
	Experiments []*Experiment
	analyzers   map[string]Analyzer
	comparators map[string]Comparator
	cConfig     *ComparisonConfig
}

func createRecordFolders(config *ComparisonConfig) {
	if _, err := os.Stat(config.RecordPath); err == nil {
		RemoveContents(config.RecordPath)
	}
	os.MkdirAll(config.RecordPath, 0777)

	folders := []string{"epReports"}
	if config.RecordTraces {
		folders = append(folders, "traces")
	}
	if config.RecordPolicy {
		folders = append(folders, "policies")
	}
	for _, s := range folders {
		os.MkdirAll(path.Join(config.RecordPath, s), 0777)
	}
}

// NewComparison creates a comparison instance
func NewComparison(config *ComparisonConfig) *Comparison {
	createRecordFolders(config)
	return &Comparison{
		Experiments: make([]*Experiment, 0),
		analyzers:   make(map[string]Analyzer),
		comparators: make(map[string]Comparator),
		cConfig:     config,
	}
}

// AddAnalysis adds an analyzer and comparator to the comparison
func (c *Comparison) AddAnalysis(name string, analyzer Analyzer, comparator Comparator) {
	c.analyzers[name] = analyzer
	c.comparators[name] = comparator
}

func (c *Comparison) AddExperiment(e *Experiment) {
	c.Experiments = append(c.Experiments, e)
}

// Run the comparison
func (c *Comparison) Run(ctx context.Context) {
	c.recordConfig()

	longestNameLen := 0
	for _, e := range c.Experiments {
		if len(e.Name) > longestNameLen {
			longestNameLen = len(e.Name)
		}
	}

	for run := 0; run < c.cConfig.Runs; run++ {
		if !c.cConfig.Quiet {
			fmt.Printf("Run %d\n", run+1)
		}
		datasets := make(map[string][]DataSet)
		for name := range c.analyzers {
			datasets[name] = make([]DataSet, len(c.Experiments))
		}

		names := make([]string, len(c.Experiments))
		for i, e := range c.Experiments {
			select {
			case <-ctx.Done():
				return
			default:
			}
			rCfg := c.prepareRunConfig(ctx, longestNameLen)
			rCfg.CurrentRun = run
			for _, a := range c.analyzers {
				rCfg.Analyzers = append(rCfg.Analyzers, a)
			}
			e.Run(rCfg)
			for name, a := range c.analyzers {
				datasets[name][i] = a.DataSet()
				a.Reset()
			}
			names[i] = e.Name
			e.Reset()
		}
		for name, comp := range c.comparators {
			comp(run, c.cConfig.Episodes, names, datasets[name])
		}
	}
}

func (c *Comparison) prepareRunConfig(ctx context.Context, longestExpNameLen int) *experimentRunConfig {
	rCfg := &experimentRunConfig{
		Episodes:                 c.cConfig.Episodes,
		Horizon:                  c.cConfig.Horizon,
		EvalEvery:                c.cConfig.EvalEvery,
		Analyzers:                make([]Analyzer, 0),
		RecordTraces:             c.cConfig.RecordTraces,
		RecordPolicy:             c.cConfig.RecordPolicy,
		SavePath:                 c.cConfig.RecordPath,
		Timeout:                  c.cConfig.Timeout,
		Context:                  ctx,
		ConsecutiveErrorsAbort:   c.cConfig.ConsecutiveErrorsAbort,
		ConsecutiveTimeoutsAbort: c.cConfig.ConsecutiveTimeoutsAbort,
		Quiet:                    c.cConfig.Quiet,
		LongestExpNameLen:        longestExpNameLen,
	}

	if rCfg.ConsecutiveErrorsAbort == 0 {
		rCfg.ConsecutiveErrorsAbort = 10
	}
	if rCfg.ConsecutiveTimeoutsAbort == 0 {
		rCfg.ConsecutiveTimeoutsAbort = 10
	}
	return rCfg
}

// Delete everything in the directory except the outtext.txt file
func RemoveContents(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	names, err := d.Readdirnames(-1)
	if err != nil {
		return err
	}
	for _, name := range names {
		if name != "outtext.txt" {
			err = os.RemoveAll(path.Join(dir, name))
			if err != nil {
				return err
			}
		}
	}
	return nil
}
