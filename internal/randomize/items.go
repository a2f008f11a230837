package randomize

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"sort"

	"go.uber.org/multierr"

	"github.com/MJE43/goldsaucer/internal/engine"
	"github.com/MJE43/goldsaucer/internal/entity"
	"github.com/MJE43/goldsaucer/internal/fault"
)

type itemStage struct {
	cfg Config
}

func (s *itemStage) Name() string   { return StageItems }
func (s *itemStage) Deps() []string { return nil }

func (s *itemStage) Merge(dst, src *entity.Set) {
	dst.Pickups = src.Pickups
	for i := range dst.Items {
		dst.Items[i].StatTypes = src.Items[i].StatTypes
		dst.Items[i].StatAmounts = src.Items[i].StatAmounts
		dst.Items[i].Growth = src.Items[i].Growth
	}
}

func (s *itemStage) Generate(ctx context.Context, in *entity.Set, seed engine.Seed, attempt int) (*entity.Set, error) {
	out := in.Clone()

	rng := seed.Fork(StageItems, "pickups", attempt)
	rng.Shuffle(len(out.Pickups), func(i, j int) {
		out.Pickups[i].Item, out.Pickups[j].Item = out.Pickups[j].Item, out.Pickups[i].Item
	})

	placeBatteries(out, seed.Fork(StageItems, "batteries", attempt))

	for _, group := range equipGroups(out) {
		rng := seed.Fork(StageItems, "equip/"+group.key, attempt)
		rng.Shuffle(len(group.members), func(i, j int) {
			a, b := &out.Items[group.members[i]], &out.Items[group.members[j]]
			a.StatTypes, b.StatTypes = b.StatTypes, a.StatTypes
			a.StatAmounts, b.StatAmounts = b.StatAmounts, a.StatAmounts
			a.Growth, b.Growth = b.Growth, a.Growth
		})
	}
	return out, nil
}

// Batteries are needed before the wire climb in wcrimb_1; at least
// batteryQuota of them must be picked up at or before that field.
const (
	batteryGate  = "wcrimb_1"
	batteryQuota = 3
)

// batteryLimit is the last field index that counts as before the gate. A
// set without the gate field treats every field as early.
func batteryLimit(set *entity.Set) int {
	if i := set.FieldIndex(batteryGate); i >= 0 {
		return i
	}
	return len(set.Fields) - 1
}

// batteryNeed returns how many early Battery pickups set must keep and how
// many it has.
func batteryNeed(set *entity.Set) (want, have int) {
	limit := batteryLimit(set)
	total, slots := 0, 0
	for _, p := range set.Pickups {
		early := p.FieldIndex <= limit
		if early {
			slots++
		}
		if p.Item == entity.Battery {
			total++
			if early {
				have++
			}
		}
	}
	return min(batteryQuota, total, slots), have
}

// placeBatteries swaps late Batteries into random early pickups until the
// quota is met.
func placeBatteries(set *entity.Set, rng *engine.Stream) {
	want, have := batteryNeed(set)
	if have >= want {
		return
	}
	limit := batteryLimit(set)
	var late, open []int
	for i, p := range set.Pickups {
		switch {
		case p.FieldIndex > limit && p.Item == entity.Battery:
			late = append(late, i)
		case p.FieldIndex <= limit && p.Item != entity.Battery:
			open = append(open, i)
		}
	}
	for ; have < want && len(late) > 0 && len(open) > 0; have++ {
		k := rng.Intn(len(open))
		a, b := &set.Pickups[open[k]], &set.Pickups[late[0]]
		a.Item, b.Item = b.Item, a.Item
		open = slices.Delete(open, k, k+1)
		late = late[1:]
	}
}

type equipGroup struct {
	key     string
	members []int
}

// equipGroups partitions equipment by kind and equip mask, in a fixed
// order.
func equipGroups(set *entity.Set) []equipGroup {
	idx := map[string]int{}
	var groups []equipGroup
	for i, it := range set.Items {
		if !it.Kind.Equipment() {
			continue
		}
		key := fmt.Sprintf("%s/%04X", it.Kind, it.EquipMask)
		g, ok := idx[key]
		if !ok {
			g = len(groups)
			idx[key] = g
			groups = append(groups, equipGroup{key: key})
		}
		groups[g].members = append(groups[g].members, i)
	}
	return groups
}

type statBlock struct {
	types, amounts string
	growth         uint8
}

func blocks(set *entity.Set, members []int) []statBlock {
	out := make([]statBlock, len(members))
	for i, m := range members {
		it := set.Items[m]
		out[i] = statBlock{string(it.StatTypes), string(it.StatAmounts), it.Growth}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].types != out[j].types {
			return out[i].types < out[j].types
		}
		if out[i].amounts != out[j].amounts {
			return out[i].amounts < out[j].amounts
		}
		return out[i].growth < out[j].growth
	})
	return out
}

func (s *itemStage) Validate(in, out *entity.Set) error {
	var err error
	if len(in.Pickups) != len(out.Pickups) || len(in.Items) != len(out.Items) {
		return fault.Violation(StageItems, fault.InvRecordCount, "record counts changed")
	}

	before := make([]entity.ID, len(in.Pickups))
	after := make([]entity.ID, len(out.Pickups))
	for i := range in.Pickups {
		before[i], after[i] = in.Pickups[i].Item, out.Pickups[i].Item
		if in.Pickups[i].Quantity != out.Pickups[i].Quantity || in.Pickups[i].Offset != out.Pickups[i].Offset {
			err = multierr.Append(err, fault.Violation(StageItems, fault.InvPermutation, "pickup %d moved its slot", i))
		}
	}
	slices.Sort(before)
	slices.Sort(after)
	if !slices.Equal(before, after) {
		err = multierr.Append(err, fault.Violation(StageItems, fault.InvPermutation, "pickup items are not a permutation"))
	}

	for _, g := range equipGroups(in) {
		if !slices.Equal(blocks(in, g.members), blocks(out, g.members)) {
			err = multierr.Append(err, fault.Violation(StageItems, fault.InvPermutation, "equip group %s stat blocks differ", g.key))
		}
	}
	for i := range in.Items {
		if !bytes.Equal(in.Items[i].Slots, out.Items[i].Slots) || in.Items[i].EquipMask != out.Items[i].EquipMask {
			err = multierr.Append(err, fault.Violation(StageItems, fault.InvPermutation, "%v slot layout changed", in.Items[i].ID))
		}
	}
	if want, _ := batteryNeed(in); want > 0 {
		if _, have := batteryNeed(out); have < want {
			err = multierr.Append(err, fault.Violation(StageItems, fault.InvBattery,
				"%d Batteries before %s, want %d", have, batteryGate, want))
		}
	}
	return multierr.Append(err, CheckObtainable(StageItems, in, out))
}
