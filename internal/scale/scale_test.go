package scale

import (
	"testing"

	"github.com/MJE43/goldsaucer/internal/entity"
)

func TestHPCap(t *testing.T) {
	tests := []struct {
		scene int
		want  uint32
	}{
		{0, 200},
		{8, 200},
		{36, 500},
		{64, 800},
		{112, 2900},
		{160, 5000},
		{161, 9_999_999},
	}
	for _, tt := range tests {
		if got := HPCap(tt.scene); got != tt.want {
			t.Errorf("HPCap(%d) = %d, want %d", tt.scene, got, tt.want)
		}
	}
}

func pricedSet() *entity.Set {
	set := &entity.Set{Items: make([]entity.Item, entity.InventoryCount)}
	for i := range set.Items {
		set.Items[i].ID = entity.ID(i)
	}
	set.Items[0x01].Price = 100
	set.Items[0x02].Price = 2000
	set.Items[0x03].Price = 9000
	return set
}

func TestRarityOf(t *testing.T) {
	set := pricedSet()
	tests := []struct {
		id   entity.ID
		want Rarity
	}{
		{0x01, Common},
		{0x02, Uncommon},
		{0x03, Rare},
		{0x04, Common},
		{0x90, Rare},
	}
	for _, tt := range tests {
		if got := RarityOf(set, tt.id); got != tt.want {
			t.Errorf("RarityOf(%v) = %d, want %d", tt.id, got, tt.want)
		}
	}
}

func donated() entity.Enemy {
	return entity.Enemy{
		Key:       "s0100.0",
		Scene:     100,
		Tier:      0,
		DonorTier: 2,
		Stats: entity.Stats{
			Level: 25, Speed: 70, Str: 40, Def: 30, Mag: 20, MDef: 10,
			HP: 900, MP: 50, EXP: 300, Gil: 150, AP: 9,
		},
		Drops: [4]entity.Drop{
			{Rate: 8, Item: 0x01},
			{Rate: entity.StealBit | 32, Item: 0x02},
			{Rate: 4, Item: 0x03},
			{Rate: 0xFF, Item: entity.Empty},
		},
		Morph: entity.Empty,
	}
}

func TestEnemyScalesToOwnTier(t *testing.T) {
	got := Enemy(pricedSet(), donated())
	want := entity.Stats{
		Level: 13, Speed: 70, Str: 20, Def: 15, Mag: 10, MDef: 5,
		HP: 180, MP: 10, EXP: 100, Gil: 50, AP: 3,
	}
	if got.Stats != want {
		t.Errorf("Stats = %+v, want %+v", got.Stats, want)
	}
	wantRates := [4]uint8{8, entity.StealBit | 16, 1, 0xFF}
	for i, d := range got.Drops {
		if d.Rate != wantRates[i] {
			t.Errorf("drop %d rate = %#x, want %#x", i, d.Rate, wantRates[i])
		}
	}
}

func TestEnemyHPCap(t *testing.T) {
	e := donated()
	e.Scene, e.Tier, e.DonorTier = 8, 5, 5
	e.Stats.HP = 3000

	if got := Enemy(pricedSet(), e).Stats.HP; got != 200 {
		t.Errorf("regular HP = %d, want capped 200", got)
	}
	e.Boss = true
	if got := Enemy(pricedSet(), e).Stats.HP; got != 3000 {
		t.Errorf("boss HP = %d, want 3000", got)
	}
}

func TestEnemyClamps(t *testing.T) {
	e := donated()
	e.Tier, e.DonorTier = 9, 0
	e.Boss = true
	e.Stats.Level, e.Stats.Str, e.Stats.HP = 80, 200, 1

	got := Enemy(pricedSet(), e).Stats
	if got.Level != 99 {
		t.Errorf("Level = %d, want 99", got.Level)
	}
	if got.Str != 255 {
		t.Errorf("Str = %d, want 255", got.Str)
	}
	if got.HP != 100 {
		t.Errorf("HP = %d, want 100", got.HP)
	}

	e.Tier, e.DonorTier = 0, 9
	e.Stats.Def, e.Stats.HP = 1, 1
	got = Enemy(pricedSet(), e).Stats
	if got.Def != 1 || got.HP != 1 {
		t.Errorf("Def, HP = %d, %d, want both clamped to 1", got.Def, got.HP)
	}
}

func TestEnemyUntouched(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*entity.Enemy)
	}{
		{"own stats", func(e *entity.Enemy) { e.DonorTier = -1 }},
		{"protected", func(e *entity.Enemy) { e.Protected = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := donated()
			tt.modify(&e)
			if got := Enemy(pricedSet(), e); got != e {
				t.Errorf("Enemy() = %+v, want unchanged", got)
			}
		})
	}
}

func TestApplyCopies(t *testing.T) {
	set := pricedSet()
	set.Enemies = []entity.Enemy{donated()}
	out := Apply(set)
	if set.Enemies[0].Stats.HP != 900 {
		t.Error("Apply modified its input")
	}
	if out.Enemies[0].Stats.HP != 180 {
		t.Errorf("HP = %d, want 180", out.Enemies[0].Stats.HP)
	}
}
