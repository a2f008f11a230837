// Package pipeline runs extract, randomize, scale and compile in order and
// records the run.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/MJE43/goldsaucer/internal/compile"
	"github.com/MJE43/goldsaucer/internal/config"
	"github.com/MJE43/goldsaucer/internal/engine"
	"github.com/MJE43/goldsaucer/internal/extract"
	"github.com/MJE43/goldsaucer/internal/fault"
	"github.com/MJE43/goldsaucer/internal/randomize"
	"github.com/MJE43/goldsaucer/internal/rules"
	"github.com/MJE43/goldsaucer/internal/scale"
	"github.com/MJE43/goldsaucer/internal/store"
	"github.com/MJE43/goldsaucer/internal/version"
)

// Options carry the collaborators of a run.
type Options struct {
	// LogOutput receives every component log. Nil discards them.
	LogOutput io.Writer
	// DB overrides Settings.DBPath when set. The caller keeps ownership.
	DB store.DB
}

// Report summarizes a successful run.
type Report struct {
	RunID    string
	Seed     string
	Root     string
	Files    []string
	Stages   []string
	Attempts map[string]int
	Spoiler  *compile.Spoiler
}

type loggers struct {
	extract, rules, engine, scale, compile, store *log.Logger
}

func newLoggers(w io.Writer) loggers {
	if w == nil {
		w = io.Discard
	}
	l := func(prefix string) *log.Logger { return log.New(w, prefix, log.LstdFlags) }
	return loggers{
		extract: l("[EXTRACT] "),
		rules:   l("[RULES] "),
		engine:  l("[ENGINE] "),
		scale:   l("[SCALE] "),
		compile: l("[COMPILE] "),
		store:   l("[STORE] "),
	}
}

// Run executes one randomization described by s. Output is promoted only
// when every step succeeds.
func Run(ctx context.Context, s config.Settings, opts Options) (*Report, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	logs := newLoggers(opts.LogOutput)

	db := opts.DB
	if db == nil && s.DBPath != "" {
		sq, err := store.NewSQLiteDB(s.DBPath)
		if err != nil {
			return nil, fault.IO("open", s.DBPath, err)
		}
		defer sq.Close()
		if err := sq.Migrate(ctx); err != nil {
			return nil, fault.IO("migrate", s.DBPath, err)
		}
		db = sq
	}

	start := time.Now()
	rep, err := run(ctx, s, logs)
	if db != nil {
		record(ctx, db, s, rep, err, time.Since(start), logs.store)
	}
	return rep, err
}

func run(ctx context.Context, s config.Settings, logs loggers) (*Report, error) {
	seed, err := engine.ParseSeed(s.Seed)
	if err != nil {
		return nil, err
	}
	cfg, err := s.Randomize()
	if err != nil {
		return nil, err
	}

	paths, err := extract.Locate(s.Source)
	if err != nil {
		return nil, err
	}
	res, err := extract.Extract(ctx, paths, extract.Options{
		ShopOffset: s.ShopTableOffset,
		Workers:    s.WorkerCount(),
		Logger:     logs.extract,
	})
	if err != nil {
		return nil, err
	}

	if s.RulesScript != "" {
		script, err := rules.Load(s.RulesScript, seed, logs.rules)
		if err != nil {
			return nil, err
		}
		if cfg.Allow, err = script.Table(res.Set); err != nil {
			return nil, err
		}
		logs.rules.Printf("%s admits %d ids", s.RulesScript, len(cfg.Allow))
	}

	eng := randomize.New(seed, cfg, logs.engine)
	out, err := eng.Run(ctx, res.Set)
	if err != nil {
		return nil, err
	}

	final := out.Set
	if s.StatScaling {
		final = scale.Apply(final)
		logs.scale.Printf("scaled %d enemies", len(final.Enemies))
	}

	rep := &Report{Seed: seed.String(), Stages: eng.Stages(), Attempts: out.Attempts}
	var spoiler *compile.Spoiler
	if s.Spoiler {
		spoiler = compile.NewSpoiler(seed.String(), rep.Stages, out.Attempts, s.StatScaling, res.Set, final)
		spoiler.Version = version.Version
	}
	rep.Spoiler = spoiler

	o, err := compile.Compile(ctx, res.Sources, res.Set, final, compile.Options{
		Dest:    s.Dest,
		Seed:    seed.String(),
		Spoiler: spoiler,
		Logger:  logs.compile,
	})
	if err != nil {
		return nil, err
	}
	rep.Root, rep.Files = o.Root, o.Files
	return rep, nil
}

// record writes the run log entry. Failures are logged and do not change
// the outcome of the run.
func record(ctx context.Context, db store.DB, s config.Settings, rep *Report, runErr error, took time.Duration, logger *log.Logger) {
	seed := strings.TrimSpace(s.Seed)
	if parsed, err := engine.ParseSeed(seed); err == nil {
		seed = parsed.String()
	}
	run := &store.Run{
		Seed:          seed,
		Config:        s.JSON(),
		Status:        store.StatusOK,
		EngineVersion: version.Version,
		DurationMS:    took.Milliseconds(),
	}
	if runErr != nil {
		run.Status = store.StatusFailed
		run.Error = runErr.Error()
		run.ExitCode = fault.ExitCode(runErr)
	} else {
		run.OutputRoot = rep.Root
		run.Attempts = rep.Attempts
	}

	// The run log outlives a canceled run.
	ctx = context.WithoutCancel(ctx)
	if err := db.SaveRun(ctx, run); err != nil {
		logger.Printf("save run: %v", err)
		return
	}
	if rep != nil {
		rep.RunID = run.ID
		if rep.Spoiler != nil {
			if err := db.SaveChanges(ctx, run.ID, Changes(rep.Spoiler)); err != nil {
				logger.Printf("save changes of %s: %v", run.ID, err)
				return
			}
		}
	}
	logger.Printf("run %s recorded (%s)", run.ID, run.Status)
}

// Changes flattens a spoiler into run log entries.
func Changes(sp *compile.Spoiler) []store.Change {
	var out []store.Change
	for _, e := range sp.Enemies {
		out = append(out, store.Change{
			Category: randomize.StageEnemy,
			Location: e.Key,
			Before:   fmt.Sprintf("tier %d", e.Tier),
			After:    fmt.Sprintf("tier %d stats, %d HP, %s", e.DonorTier, e.HP, strings.Join(e.Rewards, ", ")),
		})
	}
	for _, group := range []struct {
		category string
		swaps    []compile.SwapChange
	}{
		{randomize.StageItems, sp.Pickups},
		{randomize.StageMateria, sp.Materia},
		{randomize.StageKeyItems, sp.KeyItems},
		{randomize.StageEquipment, sp.Equipment},
	} {
		for _, c := range group.swaps {
			out = append(out, store.Change{Category: group.category, Location: c.Where, Before: c.Before, After: c.After})
		}
	}
	for _, sh := range sp.Shops {
		out = append(out, store.Change{
			Category: randomize.StageShops,
			Location: fmt.Sprintf("shop %d (%s)", sh.Index, sh.Category),
			After:    strings.Join(sh.Entries, ", "),
		})
	}
	return out
}
