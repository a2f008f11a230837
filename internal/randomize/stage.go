// Package randomize reassigns game content under a seed. Each category is a
// stage that generates a candidate snapshot and validates it; failed
// attempts are retried with the next attempt number of the category stream.
package randomize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/MJE43/goldsaucer/internal/engine"
	"github.com/MJE43/goldsaucer/internal/entity"
	"github.com/MJE43/goldsaucer/internal/fault"
)

// Stage names. They double as RNG category labels.
const (
	StageItems     = "items"
	StageEnemy     = "enemy"
	StageMateria   = "materia"
	StageKeyItems  = "keyItems"
	StageShops     = "shops"
	StageEquipment = "equipment"
)

// Stage randomizes one category.
type Stage interface {
	Name() string
	// Deps names the stages whose output this stage reads.
	Deps() []string
	// Generate returns a new candidate snapshot. in is never modified.
	Generate(ctx context.Context, in *entity.Set, seed engine.Seed, attempt int) (*entity.Set, error)
	// Validate checks a candidate against the snapshot it was generated from.
	Validate(in, out *entity.Set) error
	// Merge copies the partition this stage owns from src into dst.
	Merge(dst, src *entity.Set)
}

// errInfeasible marks a generation failure that no reseed can fix.
var errInfeasible = errors.New("infeasible")

func infeasible(v *fault.ConstraintViolation) error {
	return fmt.Errorf("%w: %w", errInfeasible, v)
}

// Result is the outcome of a run.
type Result struct {
	Set *entity.Set
	// Attempts records how many attempts each enabled stage used.
	Attempts map[string]int
}

// Engine runs the enabled stages.
type Engine struct {
	seed   engine.Seed
	cfg    Config
	logger *log.Logger
	stages []Stage
}

// New builds an engine with the stages cfg enables.
func New(seed engine.Seed, cfg Config, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	e := &Engine{seed: seed, cfg: cfg, logger: logger}
	if cfg.Items {
		e.stages = append(e.stages, &itemStage{cfg: cfg})
	}
	if cfg.Enemy {
		e.stages = append(e.stages, &enemyStage{cfg: cfg})
	}
	if cfg.Materia {
		e.stages = append(e.stages, &materiaStage{cfg: cfg})
	}
	if cfg.KeyItems {
		e.stages = append(e.stages, &keyItemStage{cfg: cfg})
	}
	if cfg.Shops {
		e.stages = append(e.stages, &shopStage{cfg: cfg})
	}
	if cfg.StartingEquipment {
		e.stages = append(e.stages, &equipmentStage{cfg: cfg})
	}
	return e
}

// Stages returns the names of the enabled stages in declaration order.
func (e *Engine) Stages() []string {
	names := make([]string, len(e.stages))
	for i, s := range e.stages {
		names[i] = s.Name()
	}
	return names
}

// Run applies every enabled stage to base and returns the merged snapshot.
// Stages whose dependencies are complete run concurrently; each sees base
// plus the output of its transitive dependencies only, so the result does
// not depend on scheduling.
func (e *Engine) Run(ctx context.Context, base *entity.Set) (*Result, error) {
	index := map[string]int{}
	for i, s := range e.stages {
		index[s.Name()] = i
	}
	deps := make([][]int, len(e.stages))
	for i, s := range e.stages {
		for _, d := range s.Deps() {
			if j, ok := index[d]; ok {
				deps[i] = append(deps[i], j)
			}
		}
	}

	done := make([]chan struct{}, len(e.stages))
	for i := range done {
		done[i] = make(chan struct{})
	}
	outputs := make([]*entity.Set, len(e.stages))
	attempts := make([]int, len(e.stages))

	g, gctx := errgroup.WithContext(ctx)
	for i, st := range e.stages {
		g.Go(func() error {
			for _, d := range deps[i] {
				select {
				case <-done[d]:
				case <-gctx.Done():
					return gctx.Err()
				}
			}

			in := base.Clone()
			for _, d := range transitive(deps, i) {
				e.stages[d].Merge(in, outputs[d])
			}

			start := time.Now()
			out, n, err := e.runStage(gctx, st, in)
			if err != nil {
				return err
			}
			e.logger.Printf("%s: accepted after %d attempt(s) in %s", st.Name(), n, time.Since(start).Round(time.Millisecond))
			outputs[i], attempts[i] = out, n
			close(done[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	final := base.Clone()
	res := &Result{Set: final, Attempts: map[string]int{}}
	for i, st := range e.stages {
		st.Merge(final, outputs[i])
		res.Attempts[st.Name()] = attempts[i]
	}
	if err := multierr.Combine(CheckCounts("merge", base, final), CheckObtainable("merge", base, final)); err != nil {
		return nil, err
	}
	return res, nil
}

// transitive lists the transitive dependencies of stage i in index order.
func transitive(deps [][]int, i int) []int {
	seen := make([]bool, len(deps))
	var walk func(int)
	walk = func(n int) {
		for _, d := range deps[n] {
			if !seen[d] {
				seen[d] = true
				walk(d)
			}
		}
	}
	walk(i)
	var out []int
	for j, ok := range seen {
		if ok {
			out = append(out, j)
		}
	}
	return out
}

func (e *Engine) runStage(ctx context.Context, st Stage, in *entity.Set) (*entity.Set, int, error) {
	limit := e.cfg.attempts()
	backoff := retry.WithMaxRetries(uint64(limit-1), retry.BackoffFunc(func() (time.Duration, bool) {
		return 0, false
	}))

	attempt := 0
	var out *entity.Set
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := attempt
		attempt++

		cand, err := st.Generate(ctx, in, e.seed, n)
		if err == nil {
			err = st.Validate(in, cand)
		}
		switch {
		case err == nil:
			out = cand
			return nil
		case errors.Is(err, errInfeasible), !fault.IsConstraint(err):
			return err
		default:
			e.logger.Printf("%s: attempt %d rejected: %v", st.Name(), n, firstViolation(err))
			return retry.RetryableError(err)
		}
	})
	if err == nil {
		return out, attempt, nil
	}
	if !fault.IsConstraint(err) {
		return nil, attempt, err
	}

	v := firstViolation(err)
	return nil, attempt, &fault.ConstraintViolation{
		Category:  st.Name(),
		Invariant: v.Invariant,
		Attempts:  attempt,
		Detail:    v.Detail,
	}
}

func firstViolation(err error) *fault.ConstraintViolation {
	for _, e := range multierr.Errors(err) {
		var v *fault.ConstraintViolation
		if errors.As(e, &v) {
			return v
		}
	}
	var v *fault.ConstraintViolation
	if errors.As(err, &v) {
		return v
	}
	return &fault.ConstraintViolation{Detail: err.Error()}
}
