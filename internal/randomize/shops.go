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

type shopStage struct {
	cfg Config
}

func (s *shopStage) Name() string { return StageShops }

func (s *shopStage) Deps() []string { return []string{StageEnemy, StageItems, StageMateria} }

func (s *shopStage) Merge(dst, src *entity.Set) {
	for i := range dst.Shops {
		dst.Shops[i].Entries = src.Shops[i].Entries
	}
}

func (s *shopStage) accepts(sh entity.Shop, id entity.ID) bool {
	return s.cfg.LooseShopCategories || sh.Category.Allows(entity.KindOf(id))
}

// pool returns the IDs a shop may stock and the IDs that must be stocked
// somewhere, both in ID order.
func (s *shopStage) pool(in *entity.Set) (pool, must []entity.ID, err error) {
	sources := Sources(in)
	must = onlyFrom(sources, SourceShop)
	for _, id := range must {
		if !s.cfg.admits(id) {
			return nil, nil, infeasible(fault.Violation(StageShops, fault.InvObtainable,
				"%v is only sold in shops but the pool excludes it", id))
		}
	}
	for id := range sources {
		if !s.cfg.admits(id) {
			continue
		}
		if (in.Price(id) == 0 || id.Unused()) && !slices.Contains(must, id) {
			continue
		}
		pool = append(pool, id)
	}
	sort.Slice(pool, func(i, j int) bool { return pool[i] < pool[j] })
	return pool, must, nil
}

func (s *shopStage) Generate(ctx context.Context, in *entity.Set, seed engine.Seed, attempt int) (*entity.Set, error) {
	out := in.Clone()
	pool, must, err := s.pool(in)
	if err != nil {
		return nil, err
	}
	rng := seed.Stream(StageShops, attempt)

	stock := make([][]entity.ID, len(out.Shops))
	for _, id := range must {
		var open []int
		compatible := false
		for i, sh := range out.Shops {
			if len(sh.Entries) == 0 || !s.accepts(sh, id) {
				continue
			}
			compatible = true
			if len(stock[i]) < len(sh.Entries) {
				open = append(open, i)
			}
		}
		if !compatible {
			return nil, infeasible(fault.Violation(StageShops, fault.InvShopTags, "no shop may stock %v", id))
		}
		if len(open) == 0 {
			return nil, fault.Violation(StageShops, fault.InvObtainable, "no room left for %v", id)
		}
		i := open[rng.Intn(len(open))]
		stock[i] = append(stock[i], id)
	}

	for i, sh := range out.Shops {
		want := len(sh.Entries)
		if want == 0 {
			continue
		}
		var cand []entity.ID
		for _, id := range pool {
			if s.accepts(sh, id) && !slices.Contains(stock[i], id) {
				cand = append(cand, id)
			}
		}
		need := want - len(stock[i])
		if need > len(cand) {
			return nil, infeasible(fault.Violation(StageShops, fault.InvShopTags,
				"shop %d needs %d more entries but only %d candidates fit its category", sh.Index, need, len(cand)))
		}
		for _, k := range rng.Perm(len(cand))[:need] {
			stock[i] = append(stock[i], cand[k])
		}
		rng.Shuffle(len(stock[i]), func(a, b int) { stock[i][a], stock[i][b] = stock[i][b], stock[i][a] })
		out.Shops[i].Entries = stock[i]
	}
	return out, nil
}

func (s *shopStage) Validate(in, out *entity.Set) error {
	if len(in.Shops) != len(out.Shops) {
		return fault.Violation(StageShops, fault.InvRecordCount, "%d shops, want %d", len(out.Shops), len(in.Shops))
	}
	pool, _, err := s.pool(in)
	if err != nil {
		return err
	}
	var errs error
	for i, before := range in.Shops {
		after := out.Shops[i]
		if len(after.Entries) != len(before.Entries) {
			errs = multierr.Append(errs, fault.Violation(StageShops, fault.InvShopStock,
				"shop %d has %d entries, want %d", before.Index, len(after.Entries), len(before.Entries)))
			continue
		}
		seen := map[entity.ID]bool{}
		for _, id := range after.Entries {
			switch {
			case seen[id]:
				errs = multierr.Append(errs, fault.Violation(StageShops, fault.InvPoolRules, "shop %d stocks %v twice", before.Index, id))
			case !s.accepts(after, id):
				errs = multierr.Append(errs, fault.Violation(StageShops, fault.InvShopTags, "%s shop %d stocks %v", after.Category, before.Index, id))
			case !slices.Contains(pool, id):
				errs = multierr.Append(errs, fault.Violation(StageShops, fault.InvPoolRules, "shop %d stocks %v outside the pool", before.Index, id))
			}
			seen[id] = true
		}
	}
	return multierr.Combine(errs, CheckCounts(StageShops, in, out), CheckObtainable(StageShops, in, out))
}
