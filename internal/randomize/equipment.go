package randomize

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/multierr"

	"github.com/MJE43/goldsaucer/internal/engine"
	"github.com/MJE43/goldsaucer/internal/entity"
	"github.com/MJE43/goldsaucer/internal/fault"
)

type equipmentStage struct {
	cfg Config
}

func (s *equipmentStage) Name() string   { return StageEquipment }
func (s *equipmentStage) Deps() []string { return nil }

func (s *equipmentStage) Merge(dst, src *entity.Set) {
	dst.Characters = src.Characters
}

// Generate draws a new weapon, armor and accessory for every character.
// Weapons stay within the character's weapon class, and every piece keeps
// enough slots for the materia the character starts with.
func (s *equipmentStage) Generate(ctx context.Context, in *entity.Set, seed engine.Seed, attempt int) (*entity.Set, error) {
	out := in.Clone()
	for i := range out.Characters {
		c := &out.Characters[i]
		rng := seed.Fork(StageEquipment, fmt.Sprintf("char/%d", c.Index), attempt)
		w, a, x := equipChoices(in, c.Index)
		if len(w) > 0 {
			c.Weapon = w[rng.Intn(len(w))]
		}
		if len(a) > 0 {
			c.Armor = a[rng.Intn(len(a))]
		}
		if len(x) > 0 {
			c.Accessory = x[rng.Intn(len(x))]
		}
	}
	return out, nil
}

// slotNeeds returns how many weapon and armor slots character c needs to
// hold its starting materia.
func slotNeeds(set *entity.Set, c int) (weapon, armor int) {
	for _, m := range set.MateriaSlots {
		if m.Character != c {
			continue
		}
		switch m.Kind {
		case entity.SlotWeapon:
			weapon = max(weapon, m.Index+1)
		case entity.SlotArmor:
			armor = max(armor, m.Index+1)
		}
	}
	return weapon, armor
}

// equipChoices lists, in record order, the weapons, armor and accessories
// character c may start with.
func equipChoices(set *entity.Set, c int) (weapons, armor, accessories []uint8) {
	needW, needA := slotNeeds(set, c)
	if lo, hi, ok := entity.WeaponClass(c); ok {
		for w := int(lo); w <= int(hi); w++ {
			if it := set.Item(entity.WeaponBase + entity.ID(w)); usable(it) && it.SlotCount() >= needW {
				weapons = append(weapons, uint8(w))
			}
		}
	}
	for a := 0; a < entity.ArmorCount; a++ {
		if it := set.Item(entity.ArmorBase + entity.ID(a)); usable(it) && it.SlotCount() >= needA {
			armor = append(armor, uint8(a))
		}
	}
	for x := 0; x < entity.AccessoryCount; x++ {
		if it := set.Item(entity.AccessoryBase + entity.ID(x)); usable(it) {
			accessories = append(accessories, uint8(x))
		}
	}
	return weapons, armor, accessories
}

func usable(it *entity.Item) bool { return it != nil && !it.ID.Unused() }

// Validate accepts a piece that is either unchanged or one of the choices
// Generate draws from.
func (s *equipmentStage) Validate(in, out *entity.Set) error {
	if len(in.Characters) != len(out.Characters) {
		return fault.Violation(StageEquipment, fault.InvRecordCount, "%d characters, want %d", len(out.Characters), len(in.Characters))
	}
	var err error
	for i, b := range in.Characters {
		a := out.Characters[i]
		if a.Index != b.Index {
			err = multierr.Append(err, fault.Violation(StageEquipment, fault.InvRecordCount, "character %d moved to %d", b.Index, a.Index))
			continue
		}
		w, ar, x := equipChoices(in, b.Index)
		for _, p := range []struct {
			what          string
			before, after uint8
			allowed       []uint8
		}{
			{"weapon", b.Weapon, a.Weapon, w},
			{"armor", b.Armor, a.Armor, ar},
			{"accessory", b.Accessory, a.Accessory, x},
		} {
			if p.after != p.before && !slices.Contains(p.allowed, p.after) {
				err = multierr.Append(err, fault.Violation(StageEquipment, fault.InvEquipClass,
					"character %d cannot start with %s 0x%02X", b.Index, p.what, p.after))
			}
		}
	}
	return err
}
