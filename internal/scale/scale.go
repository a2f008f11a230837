// Package scale rescales donated enemy stat blocks to the tier of the slot
// they were copied into. All arithmetic is decimal so that results are the
// same on every platform.
package scale

import (
	"github.com/shopspring/decimal"

	"github.com/MJE43/goldsaucer/internal/entity"
)

func curve(vals ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(vals))
	for i, v := range vals {
		out[i] = decimal.RequireFromString(v)
	}
	return out
}

// Tier curves, indexed by tier 0 through 9.
var (
	HPCurve     = curve("1", "2.5", "5", "9", "15", "24", "36", "52", "72", "100")
	StatCurve   = curve("1", "1.5", "2", "2.6", "3.3", "4.1", "5", "6", "7.1", "8.3")
	RewardCurve = curve("1", "1.8", "3", "4.6", "6.8", "9.6", "13", "17", "22", "28")
)

// HP ramp bounds by scene index.
const (
	rampStart  = 8
	rampMid    = 64
	rampEnd    = 160
	capStart   = 200
	capMid     = 800
	capEnd     = 5000
	uncappedHP = 9_999_999
	maxReward  = 9_999_999
)

// HPCap returns the highest HP a non-boss enemy may have in the given scene.
func HPCap(scene int) uint32 {
	ramp := func(from, to, lo, hi int) uint32 {
		t := decimal.NewFromInt(int64(scene - from)).Div(decimal.NewFromInt(int64(to - from)))
		t = decimal.Min(decimal.Max(t, decimal.Zero), decimal.NewFromInt(1))
		span := decimal.NewFromInt(int64(hi - lo))
		return uint32(decimal.NewFromInt(int64(lo)).Add(t.Mul(span)).IntPart())
	}
	switch {
	case scene <= rampMid:
		return ramp(rampStart, rampMid, capStart, capMid)
	case scene <= rampEnd:
		return ramp(rampMid, rampEnd, capMid, capEnd)
	default:
		return uncappedHP
	}
}

// Rarity classes of a reward.
type Rarity int

const (
	Common Rarity = iota
	Uncommon
	Rare
)

// Price thresholds between rarity classes.
const (
	uncommonPrice = 1000
	rarePrice     = 5000
)

// RarityOf classifies id by its shop price. Unpriced equipment is rare.
func RarityOf(set *entity.Set, id entity.ID) Rarity {
	p := set.Price(id)
	switch {
	case p == 0 && entity.KindOf(id).Equipment():
		return Rare
	case p >= rarePrice:
		return Rare
	case p >= uncommonPrice:
		return Uncommon
	default:
		return Common
	}
}

var rarityFactor = map[Rarity]decimal.Decimal{
	Common:   decimal.NewFromInt(1),
	Uncommon: decimal.RequireFromString("0.5"),
	Rare:     decimal.RequireFromString("0.25"),
}

const (
	minRate  = 1
	maxRate  = 63
	rateBits = 0x7F
)

func clamp(v decimal.Decimal, lo, hi int64) int64 {
	n := v.Round(0).IntPart()
	return max(lo, min(n, hi))
}

func tierIndex(t int) int { return max(0, min(t, len(HPCurve)-1)) }

func ratio(c []decimal.Decimal, orig, donor int) decimal.Decimal {
	return c[tierIndex(orig)].Div(c[tierIndex(donor)])
}

// Enemy returns e with its donated stat block rescaled from the donor's tier
// to e's own tier and its reward rates adjusted for item rarity. Enemies
// that kept their own stats are returned unchanged.
func Enemy(set *entity.Set, e entity.Enemy) entity.Enemy {
	if e.Protected || e.DonorTier < 0 {
		return e
	}
	hp := ratio(HPCurve, e.Tier, e.DonorTier)
	st := ratio(StatCurve, e.Tier, e.DonorTier)
	rw := ratio(RewardCurve, e.Tier, e.DonorTier)
	num := func(v uint32) decimal.Decimal { return decimal.NewFromInt(int64(v)) }

	s := &e.Stats
	hpMax := int64(uncappedHP)
	if !e.Boss {
		hpMax = int64(HPCap(e.Scene))
	}
	s.HP = uint32(clamp(num(s.HP).Mul(hp), 1, hpMax))
	s.MP = uint16(clamp(num(uint32(s.MP)).Mul(hp), 0, 0xFFFF))
	s.Level = uint8(clamp(num(uint32(s.Level)).Mul(st), 1, 99))
	for _, p := range []*uint8{&s.Str, &s.Def, &s.Mag, &s.MDef} {
		*p = uint8(clamp(num(uint32(*p)).Mul(st), 1, 255))
	}
	s.EXP = uint32(clamp(num(s.EXP).Mul(rw), 0, maxReward))
	s.Gil = uint32(clamp(num(s.Gil).Mul(rw), 0, maxReward))
	s.AP = uint16(clamp(num(uint32(s.AP)).Mul(rw), 0, 0xFFFF))

	for i, d := range e.Drops {
		if d.Item == entity.Empty {
			continue
		}
		rate := decimal.NewFromInt(int64(d.Rate & rateBits)).Mul(rarityFactor[RarityOf(set, d.Item)])
		e.Drops[i].Rate = d.Rate&entity.StealBit | uint8(clamp(rate, minRate, maxRate))
	}
	return e
}

// Apply returns a copy of set with every enemy passed through Enemy. Prices
// are read from set.
func Apply(set *entity.Set) *entity.Set {
	out := set.Clone()
	for i, e := range out.Enemies {
		out.Enemies[i] = Enemy(set, e)
	}
	return out
}
