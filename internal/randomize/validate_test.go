package randomize

import (
	"context"
	"errors"
	"slices"
	"testing"

	"go.uber.org/multierr"

	"github.com/MJE43/goldsaucer/internal/entity"
	"github.com/MJE43/goldsaucer/internal/fault"
)

func generate(t *testing.T, st Stage, in *entity.Set, seed string) *entity.Set {
	t.Helper()
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		out, err := st.Generate(context.Background(), in, mustSeed(t, seed), attempt)
		if err != nil {
			if fault.IsConstraint(err) && !errors.Is(err, errInfeasible) {
				continue
			}
			t.Fatalf("Generate() error = %v", err)
		}
		if err := st.Validate(in, out); err == nil {
			return out
		}
	}
	t.Fatalf("%s: no valid candidate", st.Name())
	return nil
}

func wantInvariant(t *testing.T, err error, inv string) {
	t.Helper()
	if err == nil {
		t.Fatalf("Validate() accepted a broken candidate, want %s", inv)
	}
	if got := firstViolation(err).Invariant; got != inv {
		t.Errorf("first violation = %s (%v), want %s", got, err, inv)
	}
}

func TestValidateRejects(t *testing.T) {
	base := baseline(t)
	tests := []struct {
		name   string
		stage  Stage
		tamper func(out *entity.Set)
		inv    string
	}{
		{
			name:   "pickup replaced",
			stage:  &itemStage{},
			tamper: func(out *entity.Set) { out.Pickups[0].Item = 0x7F },
			inv:    fault.InvPermutation,
		},
		{
			name:   "pickup quantity moved",
			stage:  &itemStage{},
			tamper: func(out *entity.Set) { out.Pickups[0].Quantity++ },
			inv:    fault.InvPermutation,
		},
		{
			name:  "equip slots moved",
			stage: &itemStage{},
			tamper: func(out *entity.Set) {
				it := out.Item(entity.WeaponBase)
				it.Slots[0] ^= 0x01
			},
			inv: fault.InvPermutation,
		},
		{
			name:   "materia AP moved",
			stage:  &materiaStage{},
			tamper: func(out *entity.Set) { out.MateriaSlots[0].AP[0]++ },
			inv:    fault.InvPermutation,
		},
		{
			name:  "materia duplicated",
			stage: &materiaStage{},
			tamper: func(out *entity.Set) {
				for j := 1; j < len(out.MateriaSlots); j++ {
					if out.MateriaSlots[j].Materia != out.MateriaSlots[0].Materia {
						out.MateriaSlots[j].Materia = out.MateriaSlots[0].Materia
						return
					}
				}
			},
			inv: fault.InvPermutation,
		},
		{
			name:   "protected enemy changed",
			stage:  &enemyStage{},
			tamper: func(out *entity.Set) { out.Enemies[0].Stats.HP++ },
			inv:    fault.InvPoolRules,
		},
		{
			name:  "enemy drops materia",
			stage: &enemyStage{},
			tamper: func(out *entity.Set) {
				for i := range out.Enemies {
					if !out.Enemies[i].Protected {
						out.Enemies[i].Drops[0].Item = entity.MateriaID(0)
						return
					}
				}
			},
			inv: fault.InvPoolRules,
		},
		{
			name:  "enemy drops dummy item",
			stage: &enemyStage{},
			tamper: func(out *entity.Set) {
				for i := range out.Enemies {
					if !out.Enemies[i].Protected {
						out.Enemies[i].Drops[0].Item = 0x70
						return
					}
				}
			},
			inv: fault.InvPoolRules,
		},
		{
			name:  "enemy morphs into dummy item",
			stage: &enemyStage{},
			tamper: func(out *entity.Set) {
				for i := range out.Enemies {
					if !out.Enemies[i].Protected && out.Enemies[i].Morph != entity.Empty {
						out.Enemies[i].Morph = 0x7F
						return
					}
				}
			},
			inv: fault.InvPoolRules,
		},
		{
			name:  "enemy steal bit flipped",
			stage: &enemyStage{},
			tamper: func(out *entity.Set) {
				for i := range out.Enemies {
					if !out.Enemies[i].Protected {
						out.Enemies[i].Drops[1].Rate ^= entity.StealBit
						return
					}
				}
			},
			inv: fault.InvPoolRules,
		},
		{
			name:   "shop emptied",
			stage:  &shopStage{},
			tamper: func(out *entity.Set) { out.Shops[0].Entries = nil },
			inv:    fault.InvShopStock,
		},
		{
			name:  "shop repeats an entry",
			stage: &shopStage{},
			tamper: func(out *entity.Set) {
				out.Shops[0].Entries[1] = out.Shops[0].Entries[0]
			},
			inv: fault.InvPoolRules,
		},
		{
			name:   "item shop sells materia",
			stage:  &shopStage{},
			tamper: func(out *entity.Set) { out.Shops[0].Entries[0] = entity.MateriaID(0x31) },
			inv:    fault.InvShopTags,
		},
		{
			name:   "key item lost",
			stage:  &keyItemStage{},
			tamper: func(out *entity.Set) { out.KeyItems[0].Flag = out.KeyItems[1].Flag },
			inv:    fault.InvBijection,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := generate(t, tt.stage, base, "4")
			tt.tamper(out)
			wantInvariant(t, tt.stage.Validate(base, out), tt.inv)
		})
	}
}

// swapKeys exchanges the flags granted at the named fields.
func swapKeys(t *testing.T, set *entity.Set, a, b string) *entity.Set {
	t.Helper()
	out := set.Clone()
	ia, ib := -1, -1
	for i, loc := range out.KeyItems {
		switch loc.Field {
		case a:
			ia = i
		case b:
			ib = i
		}
	}
	if ia < 0 || ib < 0 {
		t.Fatalf("no key-item location at %s or %s", a, b)
	}
	out.KeyItems[ia].Flag, out.KeyItems[ib].Flag = out.KeyItems[ib].Flag, out.KeyItems[ia].Flag
	return out
}

func TestKeyItemModes(t *testing.T) {
	base := baseline(t)
	conservative := &keyItemStage{}
	full := &keyItemStage{cfg: Config{FullLogicKeyItems: true}}

	tests := []struct {
		name     string
		a, b     string
		wantCons bool
		wantFull bool
	}{
		// PHS and Mythril are both optional and ungated.
		{"same role", "md8_2", "nibel", true, true},
		// Cotton Dress and PHS belong to different roles.
		{"cross role", "mkt_w", "md8_2", false, true},
		// Key to Ancients would land past its snw_w gate.
		{"past gate", "jtmpin1", "nibel", false, false},
		// Lunar Harp would precede Key to Ancients.
		{"predecessor order", "jtmpin1", "ancnt3", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := swapKeys(t, base, tt.a, tt.b)
			if err := conservative.Validate(base, out); (err == nil) != tt.wantCons {
				t.Errorf("conservative Validate() = %v, want ok=%v", err, tt.wantCons)
			}
			if err := full.Validate(base, out); (err == nil) != tt.wantFull {
				t.Errorf("full logic Validate() = %v, want ok=%v", err, tt.wantFull)
			}
		})
	}
}

func TestKeyItemRolesKept(t *testing.T) {
	base := baseline(t)
	for _, seed := range []string{"1", "2", "3"} {
		out := run(t, seed, Config{KeyItems: true}, base).Set
		for i, loc := range out.KeyItems {
			before := entity.LookupFlag(base.KeyItems[i].Flag)
			after := entity.LookupFlag(loc.Flag)
			if before == nil || after == nil {
				t.Fatalf("location %s holds an uncatalogued flag", loc.Field)
			}
			if before.Role != after.Role {
				t.Errorf("seed %s: %s moved a %s item into a %s location", seed, loc.Field, after.Role, before.Role)
			}
		}
	}
}

func TestShopMustPlace(t *testing.T) {
	base := baseline(t)
	must := onlyFrom(Sources(base), SourceShop)
	if len(must) == 0 {
		t.Fatal("baseline has no shop-only items")
	}
	out := run(t, "5", Config{Shops: true}, base).Set
	stocked := map[entity.ID]bool{}
	for _, sh := range out.Shops {
		for _, id := range sh.Entries {
			stocked[id] = true
		}
	}
	for _, id := range must {
		if !stocked[id] {
			t.Errorf("shop-only %v is no longer sold", id)
		}
	}
}

func TestShopLooseCategories(t *testing.T) {
	base := baseline(t)
	st := &shopStage{cfg: Config{LooseShopCategories: true}}
	out := generate(t, st, base, "6")
	// 0x31 is granted by a materia slot and carries a price.
	id := entity.MateriaID(0x31)
	if slices.Contains(out.Shops[0].Entries, id) {
		t.Skip("item shop already stocks it")
	}
	out.Shops[0].Entries[0] = id
	for _, err := range multierr.Errors(st.Validate(base, out)) {
		if firstViolation(err).Invariant == fault.InvShopTags {
			t.Errorf("loose categories still enforced: %v", err)
		}
	}
}

func batterySet() *entity.Set {
	return &entity.Set{
		Fields: []string{"md1stin", "md1_1", "wcrimb_1", "junon"},
		Pickups: []entity.Pickup{
			{Field: "md1stin", FieldIndex: 0, Offset: 0x10, Item: 0x00, Quantity: 1},
			{Field: "md1_1", FieldIndex: 1, Offset: 0x10, Item: 0x01, Quantity: 1},
			{Field: "wcrimb_1", FieldIndex: 2, Offset: 0x10, Item: 0x02, Quantity: 1},
			{Field: "junon", FieldIndex: 3, Offset: 0x10, Item: entity.Battery, Quantity: 1},
			{Field: "junon", FieldIndex: 3, Offset: 0x20, Item: entity.Battery, Quantity: 1},
			{Field: "junon", FieldIndex: 3, Offset: 0x30, Item: entity.Battery, Quantity: 1},
		},
	}
}

func TestBatteriesBeforeWireClimb(t *testing.T) {
	in := batterySet()
	st := &itemStage{}

	wantInvariant(t, st.Validate(in, in.Clone()), fault.InvBattery)

	for _, seed := range []string{"1", "2", "3"} {
		out := generate(t, st, in, seed)
		for _, p := range out.Pickups {
			if p.Item == entity.Battery && p.FieldIndex > 2 {
				t.Errorf("seed %s: Battery left in %s", seed, p.Field)
			}
		}
	}
}

func TestBatteryQuotaWithoutGateField(t *testing.T) {
	in := batterySet()
	in.Fields[2] = "md8_2"
	in.Pickups[2].Field = "md8_2"
	want, have := batteryNeed(in)
	if want != 3 || have != 3 {
		t.Errorf("batteryNeed() = %d, %d, want 3, 3", want, have)
	}
}
