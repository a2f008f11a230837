package randomize

import (
	"context"
	"slices"
	"sort"

	"go.uber.org/multierr"

	"github.com/MJE43/goldsaucer/internal/engine"
	"github.com/MJE43/goldsaucer/internal/entity"
	"github.com/MJE43/goldsaucer/internal/fault"
)

type keyItemStage struct {
	cfg Config
}

func (s *keyItemStage) Name() string   { return StageKeyItems }
func (s *keyItemStage) Deps() []string { return nil }

func (s *keyItemStage) Merge(dst, src *entity.Set) {
	dst.KeyItems = src.KeyItems
}

// placement maps item index (the location it came from) to the location it
// is granted at, or -1.
type placement []int

type keyProblem struct {
	set   *entity.Set
	items []*entity.KeyItem
	full  bool
}

func newKeyProblem(set *entity.Set, full bool) *keyProblem {
	p := &keyProblem{set: set, full: full}
	for _, loc := range set.KeyItems {
		p.items = append(p.items, entity.LookupFlag(loc.Flag))
	}
	return p
}

// static reports whether item i may sit at location l ignoring ordering
// between items.
func (p *keyProblem) static(i, l int) bool {
	item, loc := p.items[i], p.set.KeyItems[l]
	if item == nil {
		return i == l
	}
	if item.Gate != "" {
		if g := p.set.FieldIndex(item.Gate); g >= 0 && loc.FieldIndex > g {
			return false
		}
	}
	if p.full {
		return true
	}
	if home := p.items[l]; home == nil || home.Role != item.Role {
		return false
	}
	return item.AllowedIn(loc.Field)
}

// ordered reports whether placing item i at location l keeps every
// predecessor at or before its successors, given the placements so far.
func (p *keyProblem) ordered(i, l int, at placement) bool {
	if p.full || p.items[i] == nil {
		return true
	}
	here := p.set.KeyItems[l].FieldIndex
	for j, lj := range at {
		if lj < 0 || j == i || p.items[j] == nil {
			continue
		}
		there := p.set.KeyItems[lj].FieldIndex
		if slices.Contains(p.items[i].After, p.items[j].Name) && there > here {
			return false
		}
		if slices.Contains(p.items[j].After, p.items[i].Name) && here > there {
			return false
		}
	}
	return true
}

func (s *keyItemStage) Generate(ctx context.Context, in *entity.Set, seed engine.Seed, attempt int) (*entity.Set, error) {
	out := in.Clone()
	n := len(in.KeyItems)
	if n == 0 {
		return out, nil
	}
	p := newKeyProblem(in, s.cfg.FullLogicKeyItems)
	rng := seed.Stream(StageKeyItems, attempt)

	options := make([]int, n)
	for i := 0; i < n; i++ {
		for l := 0; l < n; l++ {
			if p.static(i, l) {
				options[i]++
			}
		}
		if options[i] == 0 {
			return nil, infeasible(fault.Violation(StageKeyItems, fault.InvProgression,
				"%s has no permitted location", in.KeyItems[i].Field))
		}
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return options[order[a]] < options[order[b]] })

	at := make(placement, n)
	for i := range at {
		at[i] = -1
	}
	taken := make([]bool, n)
	for _, i := range order {
		var free []int
		for l := 0; l < n; l++ {
			if !taken[l] && p.static(i, l) && p.ordered(i, l, at) {
				free = append(free, l)
			}
		}
		if len(free) == 0 {
			return nil, fault.Violation(StageKeyItems, fault.InvProgression,
				"no free location for the item from %s", in.KeyItems[i].Field)
		}
		l := free[rng.Intn(len(free))]
		at[i], taken[l] = l, true
	}

	for i, l := range at {
		out.KeyItems[l].Flag = in.KeyItems[i].Flag
	}
	return out, nil
}

func (s *keyItemStage) Validate(in, out *entity.Set) error {
	n := len(in.KeyItems)
	if len(out.KeyItems) != n {
		return fault.Violation(StageKeyItems, fault.InvBijection, "%d locations, want %d", len(out.KeyItems), n)
	}
	var err error

	// Recover the placement: each output location takes one unused input
	// location with the same flag.
	at := make(placement, n)
	for i := range at {
		at[i] = -1
	}
	for l, loc := range out.KeyItems {
		if loc.Field != in.KeyItems[l].Field || !slices.Equal(loc.Offsets, in.KeyItems[l].Offsets) {
			err = multierr.Append(err, fault.Violation(StageKeyItems, fault.InvBijection, "location %d moved", l))
		}
		found := false
		for i, src := range in.KeyItems {
			if at[i] < 0 && src.Flag == loc.Flag {
				at[i], found = l, true
				break
			}
		}
		if !found {
			err = multierr.Append(err, fault.Violation(StageKeyItems, fault.InvBijection, "flag %+v at %s has no source", loc.Flag, loc.Field))
		}
	}
	if err != nil {
		return err
	}

	p := newKeyProblem(in, s.cfg.FullLogicKeyItems)
	for i, l := range at {
		if !p.static(i, l) || !p.ordered(i, l, at) {
			name := "unknown"
			if p.items[i] != nil {
				name = p.items[i].Name
			}
			err = multierr.Append(err, fault.Violation(StageKeyItems, fault.InvProgression, "%s cannot be granted at %s", name, in.KeyItems[l].Field))
		}
	}
	return err
}
