package types

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gosuri/uilive"
)

// ParallelComparison runs the experiments of a comparison concurrently.
// Experiments must not share environments or learners, each one is still
// run serially by a single goroutine.
type ParallelComparison struct {
	*Comparison
	parallelism int
	// analyzer constructors, every experiment gets its own instance
	analyzerCtors map[string]func() Analyzer
}

func NewParallelComparison(config *ComparisonConfig, parallelism int) *ParallelComparison {
	if parallelism < 1 {
		parallelism = 1
	}
	return &ParallelComparison{
		Comparison:    NewComparison(config),
		parallelism:   parallelism,
		analyzerCtors: make(map[string]func() Analyzer),
	}
}

// AddAnalysis registers an analyzer constructor and the comparator of its datasets
func (c *ParallelComparison) AddAnalysis(name string, ctor func() Analyzer, comparator Comparator) {
	c.analyzerCtors[name] = ctor
	c.comparators[name] = comparator
	c.analyzers[name] = ctor()
}

func (c *ParallelComparison) Run(ctx context.Context) {
	c.recordConfig()

	longestNameLen := 0
	for _, e := range c.Experiments {
		if len(e.Name) > longestNameLen {
			longestNameLen = len(e.Name)
		}
	}

	for run := 0; run < c.cConfig.Runs; run++ {
		fmt.Printf("Run %d\n", run+1)
		datasets := make(map[string][]DataSet)
		for name := range c.analyzerCtors {
			datasets[name] = make([]DataSet, len(c.Experiments))
		}
		names := make([]string, len(c.Experiments))

		outputs := make([]*ParallelOutput, c.parallelism)
		for i := range outputs {
			outputs[i] = NewParallelOutput()
		}
		printer := NewTerminalPrinter(ctx, &outputs, 1)
		printer.Start()

		slots := make(chan int, c.parallelism)
		for i := 0; i < c.parallelism; i++ {
			slots <- i
		}
		lock := new(sync.Mutex)
		wg := new(sync.WaitGroup)
		for i, e := range c.Experiments {
			names[i] = e.Name
			var slot int
			select {
			case <-ctx.Done():
				wg.Wait()
				printer.Stop()
				return
			case slot = <-slots:
			}

			rCfg := c.prepareRunConfig(ctx, longestNameLen)
			rCfg.CurrentRun = run
			rCfg.Output = outputs[slot]
			analyzers := make(map[string]Analyzer)
			for name, ctor := range c.analyzerCtors {
				analyzers[name] = ctor()
				rCfg.Analyzers = append(rCfg.Analyzers, analyzers[name])
			}

			wg.Add(1)
			go func(index, slot int, e *Experiment, rCfg *experimentRunConfig, analyzers map[string]Analyzer) {
				defer wg.Done()
				e.Run(rCfg)

				lock.Lock()
				for name, a := range analyzers {
					datasets[name][index] = a.DataSet()
				}
				lock.Unlock()
				e.Reset()
				slots <- slot
			}(i, slot, e, rCfg, analyzers)
		}
		wg.Wait()
		printer.Stop()

		for name, comp := range c.comparators {
			comp(run, c.cConfig.Episodes, names, datasets[name])
		}
	}
}

// TERMINAL PRINTER

type TerminalPrinter struct {
	parallelOutputs *[]*ParallelOutput
	ctx             context.Context
	printerCtx      context.Context
	printerCancel   context.CancelFunc
	frequency       int

	writer  *uilive.Writer
	writers []io.Writer
}

func NewTerminalPrinter(ctx context.Context, parallelOutputs *[]*ParallelOutput, frequency int) *TerminalPrinter {
	printerCtx, cancel := context.WithCancel(ctx)
	size := len(*parallelOutputs)
	writers := make([]io.Writer, size)
	writer := uilive.New()
	for i := 0; i < size-1; i++ {
		writers[i] = writer.Newline()
	}

	return &TerminalPrinter{
		parallelOutputs: parallelOutputs,
		ctx:             ctx,
		printerCtx:      printerCtx,
		printerCancel:   cancel,
		frequency:       frequency,

		writer:  writer,
		writers: writers,
	}
}

func (p *TerminalPrinter) Start() {
	p.writer.Start()
	go func() {
		for {
			select {
			case <-p.printerCtx.Done():
				p.print()
				p.writer.Stop()
				return
			case <-time.After(time.Duration(p.frequency) * time.Second):
				p.print()
			}
		}
	}()
}

func (p *TerminalPrinter) Stop() {
	p.printerCancel()
}

func (p *TerminalPrinter) print() {
	for i, output := range *p.parallelOutputs {
		s := output.Get()
		if s == "" {
			continue
		}
		if i == 0 {
			fmt.Fprint(p.writer, s+"\n")
		} else {
			fmt.Fprint(p.writers[i-1], s+"\n")
		}
	}
	p.writer.Flush()
}

// PARALLEL OUTPUT

// used to update and print experiment outputs
type ParallelOutput struct {
	mu        sync.Mutex
	printable string
}

func NewParallelOutput() *ParallelOutput {
	return &ParallelOutput{}
}

// Set the output string (blocking)
func (p *ParallelOutput) Set(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.printable = s
}

// Try to set the output string (non-blocking)
func (p *ParallelOutput) TrySet(s string) bool {
	if p.mu.TryLock() {
		defer p.mu.Unlock()
		p.printable = s
		return true
	}
	return false
}

// Get the output string (blocking)
func (p *ParallelOutput) Get() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.printable
}
