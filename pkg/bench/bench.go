// Package bench times the execution strategies against each other on the
// sample programs.
package bench

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"github.com/chazu/tapevm/pkg/bytecode"
	"github.com/chazu/tapevm/pkg/closure"
	"github.com/chazu/tapevm/pkg/programs"
	"github.com/chazu/tapevm/pkg/value"
)

var log = commonlog.GetLogger("tapevm.bench")

// Strategy names an execution strategy.
type Strategy string

const (
	StrategyTape    Strategy = "tape"
	StrategyClosure Strategy = "closure"
	StrategyNative  Strategy = "native"
)

// AllStrategies lists every strategy in report order.
var AllStrategies = []Strategy{StrategyNative, StrategyClosure, StrategyTape}

// ParseStrategies converts names to strategies. An empty list selects all.
func ParseStrategies(names []string) ([]Strategy, error) {
	if len(names) == 0 {
		return AllStrategies, nil
	}
	out := make([]Strategy, 0, len(names))
	for _, name := range names {
		switch s := Strategy(name); s {
		case StrategyTape, StrategyClosure, StrategyNative:
			out = append(out, s)
		default:
			return nil, fmt.Errorf("unknown strategy %q (want tape, closure or native)", name)
		}
	}
	return out, nil
}

// Options configures a benchmark run.
type Options struct {
	N          int // program size, 0 for the sample default
	Iterations int // executions per strategy
	Workers    int // goroutines sharing the executions, 0 for GOMAXPROCS
	Strategies []Strategy
}

// Result is the timing of one strategy on one program.
type Result struct {
	RunID      string
	Program    string
	N          int
	Strategy   Strategy
	Iterations int
	Workers    int
	Compile    time.Duration
	Total      time.Duration
	Value      value.Value
	Started    time.Time
}

// PerIteration returns the mean wall time of one execution.
func (r Result) PerIteration() time.Duration {
	if r.Iterations == 0 {
		return 0
	}
	return r.Total / time.Duration(r.Iterations)
}

// runner executes the program once. A runner is used by one goroutine.
type runner func() (value.Value, error)

// Run benchmarks every selected strategy on s. All results share a run ID.
// Each strategy's result is checked against the native computation.
func Run(ctx context.Context, s programs.Sample, opts Options) ([]Result, error) {
	opts = withDefaults(s, opts)
	runID := uuid.NewString()
	want := value.Float(s.Native(opts.N))

	results := make([]Result, 0, len(opts.Strategies))
	for _, strategy := range opts.Strategies {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		newRunner, compileDur, err := prepare(strategy, s, opts.N)
		if err != nil {
			return results, fmt.Errorf("%s/%s: %w", s.Name, strategy, err)
		}

		started := time.Now()
		got, err := execute(ctx, newRunner, opts.Iterations, opts.Workers)
		total := time.Since(started)
		if err != nil {
			return results, fmt.Errorf("%s/%s: %w", s.Name, strategy, err)
		}
		if !got.Equal(want) {
			return results, fmt.Errorf("%s/%s: produced %v, native produced %v", s.Name, strategy, got, want)
		}

		r := Result{
			RunID:      runID,
			Program:    s.Name,
			N:          opts.N,
			Strategy:   strategy,
			Iterations: opts.Iterations,
			Workers:    opts.Workers,
			Compile:    compileDur,
			Total:      total,
			Value:      got,
			Started:    started,
		}
		log.Infof("%s/%s n=%d: %d iterations on %d workers in %s (%s each)",
			s.Name, strategy, opts.N, r.Iterations, r.Workers, r.Total, r.PerIteration())
		results = append(results, r)
	}
	return results, nil
}

func withDefaults(s programs.Sample, opts Options) Options {
	if opts.N <= 0 {
		opts.N = s.DefaultN
	}
	if opts.Iterations <= 0 {
		opts.Iterations = 1
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	opts.Workers = min(opts.Workers, opts.Iterations)
	if len(opts.Strategies) == 0 {
		opts.Strategies = AllStrategies
	}
	return opts
}

// prepare compiles the program for a strategy and returns a factory of
// per-goroutine runners.
func prepare(strategy Strategy, s programs.Sample, n int) (func() runner, time.Duration, error) {
	started := time.Now()
	switch strategy {
	case StrategyTape:
		p, err := bytecode.Compile(s.Build(n))
		if err != nil {
			return nil, 0, err
		}
		return func() runner {
			ctx := p.NewContext()
			return func() (value.Value, error) {
				ctx.Reset()
				return ctx.Execute()
			}
		}, time.Since(started), nil

	case StrategyClosure:
		p, err := closure.Compile(s.Build(n))
		if err != nil {
			return nil, 0, err
		}
		return func() runner {
			f := p.NewFrame()
			return func() (value.Value, error) {
				f.Reset()
				return p.Exec(f)
			}
		}, time.Since(started), nil

	case StrategyNative:
		return func() runner {
			return func() (value.Value, error) {
				return value.Float(s.Native(n)), nil
			}
		}, 0, nil
	}
	return nil, 0, fmt.Errorf("unknown strategy %q", strategy)
}

// execute spreads iterations over workers. Every worker gets its own
// runner; all of them share the compiled program. It returns the value
// of the last execution and fails if workers disagree.
func execute(ctx context.Context, newRunner func() runner, iterations, workers int) (value.Value, error) {
	values := make([]value.Value, workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for w := 0; w < workers; w++ {
		share := iterations / workers
		if w < iterations%workers {
			share++
		}
		g.Go(func() error {
			run := newRunner()
			for i := 0; i < share; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				v, err := run()
				if err != nil {
					return err
				}
				values[w] = v
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return value.Nil, err
	}

	for w := 1; w < workers; w++ {
		if !values[w].Equal(values[0]) {
			return value.Nil, fmt.Errorf("worker %d produced %v, worker 0 produced %v", w, values[w], values[0])
		}
	}
	return values[0], nil
}
