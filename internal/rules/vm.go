// Package rules runs user-supplied JavaScript pool filters. A script defines
// allow(item) and returns false for items that must not enter a reward pool.
package rules

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/MJE43/goldsaucer/internal/engine"
	"github.com/MJE43/goldsaucer/internal/entity"
)

// rngCategory labels the random stream scripts see.
const rngCategory = "rules"

const (
	scriptInitTimeout = 2 * time.Second
	scriptCallTimeout = 1 * time.Second
)

// Script is a compiled, sandboxed filter.
type Script struct {
	runtime *goja.Runtime
	mu      sync.Mutex
	logger  *log.Logger
}

// scriptEpoch is what Date reports inside a script.
var scriptEpoch = time.Date(1997, time.January, 31, 0, 0, 0, 0, time.UTC)

// Load reads and compiles a filter script from path.
func Load(path string, seed engine.Seed, logger *log.Logger) (*Script, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules script: %w", err)
	}
	return Compile(string(src), seed, logger)
}

// Compile runs source once so it can register allow(). Math.random draws
// from the seed's "rules" stream and the clock is fixed, so a script gives
// the same answers for the same seed.
func Compile(source string, seed engine.Seed, logger *log.Logger) (*Script, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	rt := goja.New()
	rt.SetRandSource(seed.Stream(rngCategory, 0).Float)
	rt.SetTimeSource(func() time.Time { return scriptEpoch })
	s := &Script{runtime: rt, logger: logger}
	s.injectGlobals()

	err := s.runWithTimeout(scriptInitTimeout, func() error {
		if _, err := s.runtime.RunString(source); err != nil {
			return fmt.Errorf("rules script error: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if _, ok := goja.AssertFunction(s.runtime.Get("allow")); !ok {
		return nil, fmt.Errorf("rules script does not define allow(item)")
	}
	return s, nil
}

func (s *Script) injectGlobals() {
	s.runtime.Set("log", func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		s.logger.Printf("script: %s", strings.Join(parts, " "))
		return goja.Undefined()
	})
	console := s.runtime.NewObject()
	console.Set("log", s.runtime.Get("log"))
	s.runtime.Set("console", console)

	kinds := s.runtime.NewObject()
	for _, k := range []entity.Kind{entity.KindConsumable, entity.KindWeapon, entity.KindArmor, entity.KindAccessory, entity.KindMateria} {
		kinds.Set(strings.ToUpper(k.String()), k.String())
	}
	s.runtime.Set("KIND", kinds)

	s.runtime.Set("require", goja.Undefined())
	s.runtime.Set("fetch", goja.Undefined())
	s.runtime.Set("XMLHttpRequest", goja.Undefined())
	s.runtime.Set("eval", goja.Undefined())
	s.runtime.Set("Function", goja.Undefined())
}

// Candidate is the view of an item passed to allow().
type Candidate struct {
	ID    entity.ID
	Name  string
	Kind  entity.Kind
	Price uint32
}

// Allow calls allow(item) for one candidate.
func (s *Script) Allow(c Candidate) (bool, error) {
	var out bool
	err := s.runWithTimeout(scriptCallTimeout, func() error {
		s.mu.Lock()
		defer s.mu.Unlock()

		fn, ok := goja.AssertFunction(s.runtime.Get("allow"))
		if !ok {
			return fmt.Errorf("allow is not a function")
		}
		obj := s.runtime.NewObject()
		obj.Set("id", int(c.ID))
		obj.Set("name", c.Name)
		obj.Set("kind", c.Kind.String())
		obj.Set("price", int64(c.Price))

		res, err := fn(goja.Undefined(), obj)
		if err != nil {
			return fmt.Errorf("allow(%s) error: %w", c.Name, err)
		}
		out = res.ToBoolean()
		return nil
	})
	return out, err
}

// Table evaluates allow() for every item and materia of set and returns the
// allowed IDs.
func (s *Script) Table(set *entity.Set) (map[entity.ID]bool, error) {
	allowed := make(map[entity.ID]bool, len(set.Items)+len(set.Materia))
	ids := make([]entity.ID, 0, len(set.Items)+len(set.Materia))
	for _, it := range set.Items {
		ids = append(ids, it.ID)
	}
	for _, m := range set.Materia {
		ids = append(ids, m.ID)
	}
	for _, id := range ids {
		ok, err := s.Allow(Candidate{ID: id, Name: id.Name(), Kind: entity.KindOf(id), Price: set.Price(id)})
		if err != nil {
			return nil, err
		}
		if ok {
			allowed[id] = true
		}
	}
	return allowed, nil
}

// runWithTimeout interrupts the runtime once timeout passes. It always waits
// for fn to return and clears the interrupt, so the runtime is idle and
// usable when it returns.
func (s *Script) runWithTimeout(timeout time.Duration, fn func() error) error {
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case err := <-done:
		return err
	case <-timer.C:
		s.runtime.Interrupt("script execution timeout")
		err := <-done
		s.runtime.ClearInterrupt()
		var ie *goja.InterruptedError
		if errors.As(err, &ie) {
			return fmt.Errorf("script timed out after %v: %w", timeout, err)
		}
		return err
	}
}
