package randomize

import (
	"context"
	"slices"

	"go.uber.org/multierr"

	"github.com/MJE43/goldsaucer/internal/engine"
	"github.com/MJE43/goldsaucer/internal/entity"
	"github.com/MJE43/goldsaucer/internal/fault"
)

// tierWeight is the donor weight by absolute tier distance.
var tierWeight = [...]int{8, 3, 1}

type enemyStage struct {
	cfg Config
}

func (s *enemyStage) Name() string   { return StageEnemy }
func (s *enemyStage) Deps() []string { return []string{StageItems} }

func (s *enemyStage) Merge(dst, src *entity.Set) {
	dst.Enemies = src.Enemies
}

// rewardSlot addresses one drop/steal slot, or the morph slot when drop is
// negative.
type rewardSlot struct {
	enemy int
	drop  int
}

func (s *enemyStage) Generate(ctx context.Context, in *entity.Set, seed engine.Seed, attempt int) (*entity.Set, error) {
	out := in.Clone()
	s.assignStats(out, seed.Fork(StageEnemy, "stats", attempt))
	if err := s.assignRewards(in, out, seed.Fork(StageEnemy, "rewards", attempt)); err != nil {
		return nil, err
	}
	return out, nil
}

// assignStats copies a donor stat block into every unprotected enemy.
// Donors come from the same population, weighted by tier distance.
func (s *enemyStage) assignStats(out *entity.Set, rng *engine.Stream) {
	orig := slices.Clone(out.Enemies)
	for i := range out.Enemies {
		e := &out.Enemies[i]
		if e.Protected {
			continue
		}
		var donors []int
		var weights []int
		for j, d := range orig {
			if d.Protected || d.Boss != e.Boss {
				continue
			}
			dist := d.Tier - e.Tier
			if dist < 0 {
				dist = -dist
			}
			if dist >= len(tierWeight) {
				continue
			}
			donors = append(donors, j)
			weights = append(weights, tierWeight[dist])
		}
		pick := rng.Weighted(weights)
		if pick < 0 {
			continue
		}
		donor := orig[donors[pick]]
		e.Stats = donor.Stats
		e.DonorTier = donor.Tier
	}
}

func (s *enemyStage) assignRewards(in, out *entity.Set, rng *engine.Stream) error {
	pool := s.cfg.DropPool(in)
	inPool := map[entity.ID]bool{}
	for _, id := range pool {
		inPool[id] = true
	}

	var slots []rewardSlot
	for i, e := range out.Enemies {
		if e.Protected {
			continue
		}
		for d, drop := range e.Drops {
			if drop.Item != entity.Empty {
				slots = append(slots, rewardSlot{i, d})
			}
		}
		if e.Morph != entity.Empty {
			slots = append(slots, rewardSlot{i, -1})
		}
	}
	if len(slots) == 0 {
		return nil
	}
	if len(pool) == 0 {
		return infeasible(fault.Violation(StageEnemy, fault.InvPoolRules, "drop pool is empty"))
	}

	must := onlyFrom(Sources(in), SourceEnemy)
	for _, id := range must {
		if !inPool[id] {
			return infeasible(fault.Violation(StageEnemy, fault.InvObtainable,
				"%v is only obtainable from enemies but the drop pool excludes it", id))
		}
	}
	if len(must) > len(slots) {
		return infeasible(fault.Violation(StageEnemy, fault.InvObtainable,
			"%d enemy-only items for %d reward slots", len(must), len(slots)))
	}

	chosen := make([]entity.ID, len(slots))
	for i := range chosen {
		chosen[i] = entity.Empty
	}
	used := map[entity.ID]bool{}
	perEnemy := map[int]map[entity.ID]bool{}
	mark := func(slot int, id entity.ID) {
		chosen[slot] = id
		used[id] = true
		e := slots[slot].enemy
		if perEnemy[e] == nil {
			perEnemy[e] = map[entity.ID]bool{}
		}
		perEnemy[e][id] = true
	}

	order := rng.Perm(len(slots))
	for k, id := range must {
		mark(order[k], id)
	}

	for i := range slots {
		if chosen[i] != entity.Empty {
			continue
		}
		mine := perEnemy[slots[i].enemy]
		var avoid func(entity.ID) bool
		switch s.cfg.DuplicatePolicy {
		case DuplicatesPerEnemy:
			avoid = func(id entity.ID) bool { return mine[id] }
		case DuplicatesGlobal:
			if len(used) >= len(pool) {
				clear(used)
			}
			avoid = func(id entity.ID) bool { return used[id] || mine[id] }
		}
		mark(i, draw(rng, pool, avoid))
	}

	for i, sl := range slots {
		e := &out.Enemies[sl.enemy]
		if sl.drop < 0 {
			e.Morph = chosen[i]
		} else {
			e.Drops[sl.drop].Item = chosen[i]
		}
	}
	return nil
}

// draw picks uniformly from pool, skipping IDs avoid rejects. When avoid
// rejects everything the whole pool is used.
func draw(rng *engine.Stream, pool []entity.ID, avoid func(entity.ID) bool) entity.ID {
	if avoid != nil {
		var open []entity.ID
		for _, id := range pool {
			if !avoid(id) {
				open = append(open, id)
			}
		}
		if len(open) > 0 {
			return open[rng.Intn(len(open))]
		}
	}
	return pool[rng.Intn(len(pool))]
}

func (s *enemyStage) Validate(in, out *entity.Set) error {
	var err error
	if len(in.Enemies) != len(out.Enemies) {
		return fault.Violation(StageEnemy, fault.InvRecordCount, "%d enemies, want %d", len(out.Enemies), len(in.Enemies))
	}
	pool := map[entity.ID]bool{}
	for _, id := range s.cfg.DropPool(in) {
		pool[id] = true
	}
	for i, before := range in.Enemies {
		after := out.Enemies[i]
		if after.Key != before.Key {
			err = multierr.Append(err, fault.Violation(StageEnemy, fault.InvRecordCount, "enemy %d is %s, want %s", i, after.Key, before.Key))
			continue
		}
		if before.Protected {
			if after.Stats != before.Stats || after.Drops != before.Drops || after.Morph != before.Morph {
				err = multierr.Append(err, fault.Violation(StageEnemy, fault.InvPoolRules, "protected enemy %s changed", before.Key))
			}
			continue
		}
		for d := range before.Drops {
			b, a := before.Drops[d], after.Drops[d]
			if a.Rate != b.Rate || (b.Item == entity.Empty) != (a.Item == entity.Empty) {
				err = multierr.Append(err, fault.Violation(StageEnemy, fault.InvPoolRules, "%s slot %d changed shape", before.Key, d))
				continue
			}
			if a.Item != entity.Empty && !pool[a.Item] {
				err = multierr.Append(err, fault.Violation(StageEnemy, fault.InvPoolRules, "%s slot %d holds %v outside the drop pool", before.Key, d, a.Item))
			}
		}
		if (before.Morph == entity.Empty) != (after.Morph == entity.Empty) ||
			(after.Morph != entity.Empty && !pool[after.Morph]) {
			err = multierr.Append(err, fault.Violation(StageEnemy, fault.InvPoolRules, "%s morph %v invalid", before.Key, after.Morph))
		}
	}
	return multierr.Append(err, CheckObtainable(StageEnemy, in, out))
}
