package extract

import (
	"strings"

	"github.com/MJE43/goldsaucer/internal/entity"
	"github.com/MJE43/goldsaucer/internal/scene"
	"github.com/MJE43/goldsaucer/internal/schema"
)

const (
	// ProtectedScenes are left vanilla by the enemy stage.
	ProtectedScenes = 8

	bossHP    = 10000
	bossLevel = 45
	maxTier   = 9
)

var bossNames = map[string]bool{}

func init() {
	for _, n := range []string{
		"GUARD SCORPION", "MYSTERY NINJA", "ULTIMATE WEAPON", "AIR BUSTER", "APS",
		"TURKS:RENO", "PYRAMID", "SAMPLE:H0512", "SAMPLE:H0512-OPT", "RUFUS",
		"DARK NATION", "MIDGAR ZOLOM", "BOTTOMSWELL", "WATERPOLO", "TURKS:RUDE",
		"GI SPECTOR", "SOUL FIRE", "GI NATTAK", "MATERIA KEEPER", "LOST NUMBER",
		"PALMER", "RAPPS", "GORKII", "SHAKE", "CHEKHOV", "STANIV", "GODO",
		"DEMONS GATE", "RED DRAGON", "SNOW", "MOTOR BALL", "HELI GUNNER",
		"HUNDRED GUNNER", "SCHIZO(RIGHT)", "SCHIZO(LEFT)", "CARRY ARMOR",
		"RIGHT ARM", "LEFT ARM", "TURKS:ELENA", "PROUD CLOD", "JAMAR ARMOR",
		"HOJO", "BAD RAP SAMPLE", "POODLER SAMPLE", "HELLETIC HOJO",
		"LIFEFORM-HOJO N", "DIAMOND WEAPON", "RUBY WEAPON", "RUBY'S TENTACLE",
		"EMERALD WEAPON", "LEG", "EYE",
	} {
		bossNames[n] = true
	}
}

// IsBoss reports whether an enemy belongs to the boss population.
func IsBoss(name string, hp uint32, level uint8) bool {
	upper := strings.ToUpper(strings.TrimSpace(name))
	switch {
	case strings.Contains(upper, "JENOVA"), strings.Contains(upper, "SEPHIROTH"):
		return true
	case bossNames[upper]:
		return true
	case hp != 0 && hp >= bossHP:
		return true
	}
	return level >= bossLevel
}

// Tier is the difficulty tier of an enemy level.
func Tier(level uint8) int { return min(int(level)/10, maxTier) }

// decodeName converts the game's text encoding. Characters are offset by
// 0x20 and 0xFF terminates.
func decodeName(raw []byte) string {
	var b strings.Builder
	for _, c := range raw {
		if c == 0xFF {
			break
		}
		ch := c + 0x20
		if ch < 0x20 || ch > 0x7E {
			continue
		}
		b.WriteByte(ch)
	}
	return strings.TrimSpace(b.String())
}

func decodeEnemy(sc *scene.Scene, slot int) entity.Enemy {
	l := schema.Enemy
	rec := sc.EnemyRecord(slot)

	e := entity.Enemy{
		Key:       entity.EnemyKey(sc.Index, slot),
		Scene:     sc.Index,
		Slot:      slot,
		EnemyID:   sc.EnemyID(slot),
		Name:      decodeName(l.Bytes(rec, schema.EnemyName)),
		Morph:     entity.ID(l.Uint(rec, schema.EnemyMorph)),
		Protected: sc.Index < ProtectedScenes,
		DonorTier: -1,
	}
	e.Stats = entity.Stats{
		Level: uint8(l.Uint(rec, schema.EnemyLevel)),
		Speed: uint8(l.Uint(rec, schema.EnemySpeed)),
		Luck:  uint8(l.Uint(rec, schema.EnemyLuck)),
		Evade: uint8(l.Uint(rec, schema.EnemyEvade)),
		Str:   uint8(l.Uint(rec, schema.EnemyStr)),
		Def:   uint8(l.Uint(rec, schema.EnemyDef)),
		Mag:   uint8(l.Uint(rec, schema.EnemyMag)),
		MDef:  uint8(l.Uint(rec, schema.EnemyMDef)),
		HP:    l.Uint(rec, schema.EnemyHP),
		MP:    uint16(l.Uint(rec, schema.EnemyMP)),
		EXP:   l.Uint(rec, schema.EnemyEXP),
		Gil:   l.Uint(rec, schema.EnemyGil),
		AP:    uint16(l.Uint(rec, schema.EnemyAP)),
	}
	for i := 0; i < schema.EnemySlots; i++ {
		e.Drops[i] = entity.Drop{
			Rate: uint8(l.Uint(rec, schema.EnemyRate(i))),
			Item: entity.ID(l.Uint(rec, schema.EnemyItem(i))),
		}
	}
	e.Tier = Tier(e.Stats.Level)
	e.Boss = IsBoss(e.Name, e.Stats.HP, e.Stats.Level)
	return e
}

// EnemyScenes returns every decoded enemy of the archive in scene order.
func EnemyScenes(a *scene.Archive) []entity.Enemy {
	var out []entity.Enemy
	for _, sc := range a.Scenes {
		for slot := 0; slot < schema.SceneEnemyCount; slot++ {
			if sc.EnemyID(slot) == uint16(entity.Empty) {
				continue
			}
			out = append(out, decodeEnemy(sc, slot))
		}
	}
	return out
}
