// Command goldsaucer randomizes a Final Fantasy VII data directory under a
// seed and writes the patched files to GoldSaucer_<seed>/.
//
// Every flag can also be set through a GOLDSAUCER_* environment variable;
// flags win.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/MJE43/goldsaucer/internal/config"
	"github.com/MJE43/goldsaucer/internal/engine"
	"github.com/MJE43/goldsaucer/internal/fault"
	"github.com/MJE43/goldsaucer/internal/pipeline"
	"github.com/MJE43/goldsaucer/internal/store"
	"github.com/MJE43/goldsaucer/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type listFlag struct{ vals *[]string }

func (l listFlag) String() string {
	if l.vals == nil {
		return ""
	}
	return strings.Join(*l.vals, ",")
}

func (l listFlag) Set(s string) error {
	*l.vals = nil
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*l.vals = append(*l.vals, part)
		}
	}
	return nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	s, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	fs := flag.NewFlagSet("goldsaucer", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&s.Source, "source", s.Source, "directory holding the original game files")
	fs.StringVar(&s.Dest, "dest", s.Dest, "directory the run root is written to")
	fs.StringVar(&s.Seed, "seed", s.Seed, "seed (string or integer)")

	fs.BoolVar(&s.Enemy, "enemy", s.Enemy, "randomize enemy stats and rewards")
	fs.BoolVar(&s.Items, "items", s.Items, "randomize equipment stats and field pickups")
	fs.BoolVar(&s.Materia, "materia", s.Materia, "shuffle materia placements")
	fs.BoolVar(&s.KeyItems, "key-items", s.KeyItems, "shuffle key items")
	fs.BoolVar(&s.Shops, "shops", s.Shops, "randomize shop stock")
	fs.BoolVar(&s.StatScaling, "stat-scaling", s.StatScaling, "rescale reassigned enemy stats to their new tier")
	fs.BoolVar(&s.FullLogicKeyItems, "full-logic-key-items", s.FullLogicKeyItems, "place key items anywhere reachable before their gate")
	fs.BoolVar(&s.StartingEquipment, "starting-equipment", s.StartingEquipment, "reroll starting weapons, armor and accessories")

	fs.StringVar(&s.DuplicatePolicy, "duplicates", s.DuplicatePolicy, "reward duplicate policy: allow, per-enemy or global")
	fs.Var(listFlag{&s.DropKinds}, "drop-kinds", "comma-separated kinds enemies may drop (consumable, weapon, armor, accessory)")
	fs.Var(listFlag{&s.ExcludeItems}, "exclude", "comma-separated item ids never handed out")
	fs.BoolVar(&s.LooseShopCategories, "loose-shops", s.LooseShopCategories, "let shops sell any kind of item")
	fs.StringVar(&s.RulesScript, "rules", s.RulesScript, "JavaScript file defining allow(item)")
	fs.IntVar(&s.ShopTableOffset, "shop-offset", s.ShopTableOffset, "file offset of the shop table (0 scans for it)")
	fs.IntVar(&s.MaxAttempts, "max-attempts", s.MaxAttempts, "attempts per stage before giving up (0 uses the default)")

	fs.StringVar(&s.DBPath, "db", s.DBPath, "SQLite run log; empty disables it")
	fs.IntVar(&s.Workers, "workers", s.Workers, "field decoding workers (0 uses GOMAXPROCS)")
	fs.BoolVar(&s.Spoiler, "spoiler", s.Spoiler, "write spoiler.json")
	fs.BoolVar(&s.Verbose, "v", s.Verbose, "log progress to stderr")

	var showVersion, history bool
	fs.BoolVar(&showVersion, "version", false, "print version and exit")
	fs.BoolVar(&history, "history", false, "list logged runs of -seed and exit")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "Error: unexpected arguments %v\n", fs.Args())
		return 1
	}

	if showVersion {
		fmt.Fprintln(stdout, version.Get())
		return 0
	}
	if history {
		if err := printHistory(ctx, stdout, s); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return fault.ExitCode(err)
		}
		return 0
	}

	opts := pipeline.Options{}
	if s.Verbose {
		opts.LogOutput = stderr
	}
	rep, err := pipeline.Run(ctx, s, opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return fault.ExitCode(err)
	}

	fmt.Fprintf(stdout, "seed %s: wrote %d files to %s\n", rep.Seed, len(rep.Files), rep.Root)
	for _, stage := range rep.Stages {
		fmt.Fprintf(stdout, "  %-9s %d attempt(s)\n", stage, rep.Attempts[stage])
	}
	if rep.RunID != "" {
		fmt.Fprintf(stdout, "run %s logged to %s\n", rep.RunID, s.DBPath)
	}
	return 0
}

func printHistory(ctx context.Context, w io.Writer, s config.Settings) error {
	if s.DBPath == "" {
		return errors.New("-history needs -db")
	}
	seed, err := engine.ParseSeed(s.Seed)
	if err != nil {
		return fmt.Errorf("-history needs -seed: %w", err)
	}
	db, err := store.NewSQLiteDB(s.DBPath)
	if err != nil {
		return fault.IO("open", s.DBPath, err)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		return fault.IO("migrate", s.DBPath, err)
	}

	runs, err := db.ListRunsBySeed(ctx, seed.String())
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintf(w, "no runs of seed %s\n", seed)
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %s  %-6s  exit %d  %dms  %s\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"), r.ID, r.Status, r.ExitCode, r.DurationMS, r.Config)
		if r.Error != "" {
			fmt.Fprintf(w, "    %s\n", r.Error)
		}
	}
	return nil
}
