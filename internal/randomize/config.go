package randomize

import (
	"fmt"
	"slices"
	"strings"

	"github.com/MJE43/goldsaucer/internal/entity"
)

// DuplicatePolicy controls repeats when sampling enemy rewards.
type DuplicatePolicy string

const (
	// DuplicatesAllow samples every slot independently.
	DuplicatesAllow DuplicatePolicy = "allow"
	// DuplicatesPerEnemy forbids the same item twice on one enemy.
	DuplicatesPerEnemy DuplicatePolicy = "per-enemy"
	// DuplicatesGlobal forbids repeats until the pool is exhausted.
	DuplicatesGlobal DuplicatePolicy = "global"
)

// ParseDuplicatePolicy validates a policy name. The empty string selects
// DuplicatesAllow.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch p := DuplicatePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DuplicatesAllow, nil
	case DuplicatesAllow, DuplicatesPerEnemy, DuplicatesGlobal:
		return p, nil
	default:
		return "", fmt.Errorf("unknown duplicate policy %q", s)
	}
}

// DefaultDropKinds are the kinds an enemy may drop, steal or morph into.
var DefaultDropKinds = []entity.Kind{entity.KindConsumable, entity.KindWeapon, entity.KindArmor, entity.KindAccessory}

// MaxAttempts bounds generate-then-validate retries per stage.
const MaxAttempts = 100

// Config selects the stages and tunes their pools. The zero value disables
// every stage.
type Config struct {
	Enemy    bool
	Items    bool
	Materia  bool
	KeyItems bool
	Shops    bool

	// StartingEquipment rerolls each character's initial weapon, armor
	// and accessory.
	StartingEquipment bool

	FullLogicKeyItems   bool
	LooseShopCategories bool

	DuplicatePolicy DuplicatePolicy
	DropKinds       []entity.Kind
	ExcludeItems    []entity.ID

	// Allow, when non-nil, is the set of IDs a rules script admitted.
	Allow map[entity.ID]bool

	// MaxAttempts overrides the retry budget when positive.
	MaxAttempts int
}

func (c Config) attempts() int {
	if c.MaxAttempts > 0 {
		return c.MaxAttempts
	}
	return MaxAttempts
}

func (c Config) dropKinds() []entity.Kind {
	if len(c.DropKinds) == 0 {
		return DefaultDropKinds
	}
	return c.DropKinds
}

// admits applies the exclusion list and the rules script.
func (c Config) admits(id entity.ID) bool {
	if slices.Contains(c.ExcludeItems, id) {
		return false
	}
	if c.Allow != nil && !c.Allow[id] {
		return false
	}
	return true
}

// DropPool returns the IDs an enemy slot may receive, in ID order. Dummy
// records are never part of it.
func (c Config) DropPool(set *entity.Set) []entity.ID {
	kinds := c.dropKinds()
	var pool []entity.ID
	for _, it := range set.Items {
		k := entity.KindOf(it.ID)
		if k == entity.KindMateria || it.ID.Unused() || !slices.Contains(kinds, k) {
			continue
		}
		if c.admits(it.ID) {
			pool = append(pool, it.ID)
		}
	}
	return pool
}
