package compile

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/MJE43/goldsaucer/internal/entity"
)

// Spoiler lists every change a run made, for players who want to look.
type Spoiler struct {
	Seed     string         `json:"seed"`
	Stages   []string       `json:"stages"`
	Attempts map[string]int `json:"attempts,omitempty"`
	Scaled   bool           `json:"statScaling"`
	Version  string         `json:"version,omitempty"`

	Enemies   []EnemyChange  `json:"enemies,omitempty"`
	Pickups   []SwapChange   `json:"pickups,omitempty"`
	Materia   []SwapChange   `json:"materia,omitempty"`
	KeyItems  []SwapChange   `json:"keyItems,omitempty"`
	Shops     []ShopContents `json:"shops,omitempty"`
	Equipment []SwapChange   `json:"equipment,omitempty"`
}

// EnemyChange is the new assignment of one enemy slot.
type EnemyChange struct {
	Key       string   `json:"key"`
	Name      string   `json:"name"`
	Tier      int      `json:"tier"`
	DonorTier int      `json:"donorTier"`
	HP        uint32   `json:"hp"`
	Rewards   []string `json:"rewards"`
}

// SwapChange records what a location grants before and after the run.
type SwapChange struct {
	Where  string `json:"where"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// ShopContents is the new stock of one shop.
type ShopContents struct {
	Index    int      `json:"index"`
	Category string   `json:"category"`
	Entries  []string `json:"entries"`
}

// NewSpoiler diffs final against base.
func NewSpoiler(seed string, stages []string, attempts map[string]int, scaled bool, base, final *entity.Set) *Spoiler {
	s := &Spoiler{Seed: seed, Stages: stages, Attempts: attempts, Scaled: scaled}

	for i, e := range final.Enemies {
		if i < len(base.Enemies) && e == base.Enemies[i] {
			continue
		}
		c := EnemyChange{Key: e.Key, Name: e.Name, Tier: e.Tier, DonorTier: e.DonorTier, HP: e.Stats.HP}
		for _, d := range e.Drops {
			if d.Item != entity.Empty {
				kind := "drop"
				if d.Steal() {
					kind = "steal"
				}
				c.Rewards = append(c.Rewards, kind+": "+d.Item.Name())
			}
		}
		if e.Morph != entity.Empty {
			c.Rewards = append(c.Rewards, "morph: "+e.Morph.Name())
		}
		s.Enemies = append(s.Enemies, c)
	}

	for i, p := range final.Pickups {
		if b := base.Pickups[i]; b.Item != p.Item {
			s.Pickups = append(s.Pickups, SwapChange{p.Field, b.Item.Name(), p.Item.Name()})
		}
	}
	for i, m := range final.MateriaSlots {
		if b := base.MateriaSlots[i]; b.Materia != m.Materia {
			s.Materia = append(s.Materia, SwapChange{m.Key(),
				entity.MateriaID(b.Materia).Name(), entity.MateriaID(m.Materia).Name()})
		}
	}
	for i, k := range final.KeyItems {
		if b := base.KeyItems[i]; b.Flag != k.Flag {
			s.KeyItems = append(s.KeyItems, SwapChange{k.Field, keyName(b.Flag), keyName(k.Flag)})
		}
	}
	for i, sh := range final.Shops {
		if slices.Equal(sh.Entries, base.Shops[i].Entries) {
			continue
		}
		c := ShopContents{Index: sh.Index, Category: sh.Category.String()}
		for _, id := range sh.Entries {
			c.Entries = append(c.Entries, id.Name())
		}
		s.Shops = append(s.Shops, c)
	}
	for i, c := range final.Characters {
		if i >= len(base.Characters) {
			break
		}
		b := base.Characters[i]
		where := func(piece string) string { return fmt.Sprintf("character %d %s", c.Index, piece) }
		if b.Weapon != c.Weapon {
			s.Equipment = append(s.Equipment, SwapChange{where("weapon"),
				(entity.WeaponBase + entity.ID(b.Weapon)).Name(), (entity.WeaponBase + entity.ID(c.Weapon)).Name()})
		}
		if b.Armor != c.Armor {
			s.Equipment = append(s.Equipment, SwapChange{where("armor"),
				(entity.ArmorBase + entity.ID(b.Armor)).Name(), (entity.ArmorBase + entity.ID(c.Armor)).Name()})
		}
		if b.Accessory != c.Accessory {
			s.Equipment = append(s.Equipment, SwapChange{where("accessory"), accessoryName(b.Accessory), accessoryName(c.Accessory)})
		}
	}
	return s
}

func accessoryName(x uint8) string {
	if x == entity.NoAccessory {
		return "none"
	}
	return (entity.AccessoryBase + entity.ID(x)).Name()
}

func keyName(f entity.Flag) string {
	if k := entity.LookupFlag(f); k != nil {
		return k.Name
	}
	return "unknown"
}

// JSON renders the spoiler log.
func (s *Spoiler) JSON() ([]byte, error) {
	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}
