package randomize

import (
	"sort"

	"go.uber.org/multierr"

	"github.com/MJE43/goldsaucer/internal/entity"
	"github.com/MJE43/goldsaucer/internal/fault"
)

// Source kinds used by the obtainability check.
type Source uint8

const (
	SourcePickup Source = 1 << iota
	SourceStart
	SourceMateriaSlot
	SourceShop
	SourceEnemy
	SourceProtectedEnemy
)

// Sources maps every obtainable ID of set to the kinds of source that
// grant it.
func Sources(set *entity.Set) map[entity.ID]Source {
	out := map[entity.ID]Source{}
	add := func(id entity.ID, s Source) {
		if id.Valid() {
			out[id] |= s
		}
	}
	for _, p := range set.Pickups {
		add(p.Item, SourcePickup)
	}
	for _, s := range set.StartingItems {
		add(s.Item, SourceStart)
	}
	for _, m := range set.MateriaSlots {
		add(entity.MateriaID(m.Materia), SourceMateriaSlot)
	}
	for _, sh := range set.Shops {
		for _, id := range sh.Entries {
			add(id, SourceShop)
		}
	}
	for _, e := range set.Enemies {
		src := SourceEnemy
		if e.Protected {
			src = SourceProtectedEnemy
		}
		for _, d := range e.Drops {
			add(d.Item, src)
		}
		add(e.Morph, src)
	}
	return out
}

// onlyFrom lists, in ID order, the IDs whose sources are exactly s.
func onlyFrom(sources map[entity.ID]Source, s Source) []entity.ID {
	var out []entity.ID
	for id, src := range sources {
		if src == s {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CheckObtainable reports every ID obtainable in before that has no source
// in after.
func CheckObtainable(category string, before, after *entity.Set) error {
	now := Sources(after)
	var missing []entity.ID
	for id := range Sources(before) {
		if _, ok := now[id]; !ok {
			missing = append(missing, id)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })

	var err error
	for _, id := range missing {
		err = multierr.Append(err, fault.Violation(category, fault.InvObtainable, "%v is no longer obtainable", id))
	}
	return err
}

// CheckCounts verifies that every record count of after equals before.
func CheckCounts(category string, before, after *entity.Set) error {
	counts := []struct {
		name string
		a, b int
	}{
		{"enemies", len(before.Enemies), len(after.Enemies)},
		{"items", len(before.Items), len(after.Items)},
		{"materia", len(before.Materia), len(after.Materia)},
		{"materia slots", len(before.MateriaSlots), len(after.MateriaSlots)},
		{"pickups", len(before.Pickups), len(after.Pickups)},
		{"starting items", len(before.StartingItems), len(after.StartingItems)},
		{"shops", len(before.Shops), len(after.Shops)},
		{"key-item locations", len(before.KeyItems), len(after.KeyItems)},
		{"characters", len(before.Characters), len(after.Characters)},
	}
	var err error
	for _, c := range counts {
		if c.a != c.b {
			err = multierr.Append(err, fault.Violation(category, fault.InvRecordCount, "%s: %d records, want %d", c.name, c.b, c.a))
		}
	}
	for i := range before.Shops {
		if i < len(after.Shops) && len(before.Shops[i].Entries) > 0 && len(after.Shops[i].Entries) == 0 {
			err = multierr.Append(err, fault.Violation(category, fault.InvShopStock, "shop %d emptied", i))
		}
	}
	return err
}
