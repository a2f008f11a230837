// Package entity holds the typed, in-memory view of the game data a run
// reads, randomizes and writes back.
package entity

import (
	"fmt"
	"slices"
	"strings"
)

// ID addresses an inventory object. Items, weapons, armor and accessories
// share the game's inventory ID space; materia is appended after it.
type ID uint16

// Inventory ID space.
const (
	ItemBase      ID = 0x000
	WeaponBase    ID = 0x080
	ArmorBase     ID = 0x100
	AccessoryBase ID = 0x120
	MateriaBase   ID = 0x140

	ItemCount      = 128
	WeaponCount    = 128
	ArmorCount     = 32
	AccessoryCount = 32
	InventoryCount = ItemCount + WeaponCount + ArmorCount + AccessoryCount
	MateriaCount   = 91

	Empty ID = 0xFFFF

	// Battery opens the way up the Shinra building wire.
	Battery ID = 0x055
)

// Kind is the category tag of an inventory object.
type Kind uint8

const (
	KindNone Kind = iota
	KindConsumable
	KindWeapon
	KindArmor
	KindAccessory
	KindMateria
)

var kindNames = [...]string{"none", "consumable", "weapon", "armor", "accessory", "materia"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// ParseKind maps a kind name back to its tag.
func ParseKind(s string) (Kind, error) {
	for i, n := range kindNames {
		if i > 0 && n == s {
			return Kind(i), nil
		}
	}
	return KindNone, fmt.Errorf("unknown item kind %q", s)
}

// Equipment reports whether k is a weapon, armor or accessory.
func (k Kind) Equipment() bool {
	return k == KindWeapon || k == KindArmor || k == KindAccessory
}

// KindOf classifies id.
func KindOf(id ID) Kind {
	switch {
	case id < WeaponBase:
		return KindConsumable
	case id < ArmorBase:
		return KindWeapon
	case id < AccessoryBase:
		return KindArmor
	case id < MateriaBase:
		return KindAccessory
	case id < MateriaBase+MateriaCount:
		return KindMateria
	default:
		return KindNone
	}
}

// Valid reports whether id names an existing object.
func (id ID) Valid() bool { return KindOf(id) != KindNone }

// Index returns the record index of id within its own table.
func (id ID) Index() int {
	switch KindOf(id) {
	case KindConsumable:
		return int(id - ItemBase)
	case KindWeapon:
		return int(id - WeaponBase)
	case KindArmor:
		return int(id - ArmorBase)
	case KindAccessory:
		return int(id - AccessoryBase)
	case KindMateria:
		return int(id - MateriaBase)
	}
	return -1
}

// MateriaID converts a raw materia number to its ID.
func MateriaID(n uint8) ID { return MateriaBase + ID(n) }

// unusedName marks dummy records in the name tables.
const unusedName = "(unused)"

// Unused reports whether id is a placeholder record the game never hands
// out: the unnamed consumables past Guide Book and the dummy materia.
func (id ID) Unused() bool {
	if !id.Valid() {
		return false
	}
	n := id.tableName()
	return n == "" || n == unusedName
}

// Name returns the English name of id, or a hex placeholder.
func (id ID) Name() string {
	n := id.tableName()
	if n == "" {
		return fmt.Sprintf("#%03X", uint16(id))
	}
	return n
}

func (id ID) tableName() string {
	var n string
	switch i := id.Index(); KindOf(id) {
	case KindConsumable:
		n = itemNames[i]
	case KindWeapon:
		n = weaponNames[i]
	case KindArmor:
		n = armorNames[i]
	case KindAccessory:
		n = accessoryNames[i]
	case KindMateria:
		n = materiaNames[i]
	}
	return n
}

func (id ID) String() string { return fmt.Sprintf("0x%03X %s", uint16(id), id.Name()) }

// Stats is the randomizable stat block of an enemy.
type Stats struct {
	Level uint8
	Speed uint8
	Luck  uint8
	Evade uint8
	Str   uint8
	Def   uint8
	Mag   uint8
	MDef  uint8
	HP    uint32
	MP    uint16
	EXP   uint32
	Gil   uint32
	AP    uint16
}

// Drop is one steal or drop slot. Bit 0x80 of Rate marks a steal.
type Drop struct {
	Rate uint8
	Item ID
}

// StealBit marks a steal slot in Drop.Rate.
const StealBit = 0x80

// Steal reports whether the slot is a steal rather than a drop.
func (d Drop) Steal() bool { return d.Rate&StealBit != 0 }

// Enemy is one occupied enemy slot of a battle scene.
type Enemy struct {
	Key     string
	Scene   int
	Slot    int
	EnemyID uint16
	Name    string

	Stats Stats
	Drops [4]Drop
	Morph ID

	Tier      int
	Boss      bool
	Protected bool

	// DonorTier is the tier of the enemy whose stat block was copied in, or
	// -1 when the stats are the enemy's own.
	DonorTier int
}

// EnemyKey formats the stable key of an enemy slot.
func EnemyKey(scene, slot int) string { return fmt.Sprintf("s%04d.%d", scene, slot) }

// Item is one record of the shared inventory tables.
type Item struct {
	ID   ID
	Kind Kind

	EquipMask   uint16
	StatTypes   []byte
	StatAmounts []byte
	Growth      uint8
	Slots       []byte

	Price uint32
}

// Materia is one materia record.
type Materia struct {
	ID    ID
	Type  uint8
	AP    [4]uint16
	Price uint32
}

// SlotKind says where a materia slot lives.
type SlotKind uint8

const (
	SlotWeapon SlotKind = iota + 1
	SlotArmor
	SlotStock
	SlotField
)

var slotKindNames = [...]string{"", "weapon", "armor", "stock", "field"}

func (k SlotKind) String() string {
	if int(k) < len(slotKindNames) && k > 0 {
		return slotKindNames[k]
	}
	return fmt.Sprintf("slot(%d)", k)
}

// MateriaSlot is one place a materia is granted: a starting equipment slot,
// a party stock entry or a field pickup. AP belongs to the slot.
type MateriaSlot struct {
	Kind      SlotKind
	Character int
	Index     int
	Field     string
	Offset    int

	Materia uint8
	AP      [3]byte
}

// Key identifies the slot across snapshots.
func (s MateriaSlot) Key() string {
	switch s.Kind {
	case SlotWeapon, SlotArmor:
		return fmt.Sprintf("%s:%d.%d", s.Kind, s.Character, s.Index)
	case SlotStock:
		return fmt.Sprintf("stock:%d", s.Index)
	default:
		return fmt.Sprintf("field:%s@%X", s.Field, s.Offset)
	}
}

// Pickup is a fixed field item grant.
type Pickup struct {
	Field      string
	FieldIndex int
	Offset     int
	Item       ID
	Quantity   uint8
}

// StartingItem is an initial inventory entry.
type StartingItem struct {
	Item     ID
	Quantity uint8
}

// Character is the starting equipment of one party member. Values are
// record indexes within the weapon, armor and accessory tables; an
// accessory of NoAccessory means none is equipped.
type Character struct {
	Index     int
	Weapon    uint8
	Armor     uint8
	Accessory uint8
}

// NoAccessory marks an empty accessory slot.
const NoAccessory = 0xFF

// InTables reports whether every equipped piece indexes a record of its
// table.
func (c Character) InTables() bool {
	return c.Weapon < WeaponCount && c.Armor < ArmorCount &&
		(c.Accessory < AccessoryCount || c.Accessory == NoAccessory)
}

// weaponClasses are the inclusive weapon record ranges each playable
// character can equip, in party order.
var weaponClasses = [...][2]uint8{
	{0x00, 0x0F}, // Cloud
	{0x20, 0x2F}, // Barret
	{0x10, 0x1F}, // Tifa
	{0x3E, 0x48}, // Aeris
	{0x30, 0x3D}, // Red XIII
	{0x57, 0x64}, // Yuffie
	{0x65, 0x71}, // Cait Sith
	{0x72, 0x7E}, // Vincent
	{0x49, 0x56}, // Cid
}

// WeaponClass returns the weapon record range of character c.
func WeaponClass(c int) (lo, hi uint8, ok bool) {
	if c < 0 || c >= len(weaponClasses) {
		return 0, 0, false
	}
	return weaponClasses[c][0], weaponClasses[c][1], true
}

// SlotCount returns the number of materia slots of an equipment record.
func (it *Item) SlotCount() int {
	n := 0
	for _, b := range it.Slots {
		if b != 0 {
			n++
		}
	}
	return n
}

// ShopCategory is the category tag of a shop.
type ShopCategory uint8

const (
	ShopGeneral ShopCategory = iota
	ShopItem
	ShopWeapon
	ShopMateria
)

var shopCategoryNames = [...]string{"general", "item", "weapon", "materia"}

func (c ShopCategory) String() string {
	if int(c) < len(shopCategoryNames) {
		return shopCategoryNames[c]
	}
	return fmt.Sprintf("category(%d)", c)
}

// Allows reports whether a shop of category c may stock kind k.
func (c ShopCategory) Allows(k Kind) bool {
	switch c {
	case ShopItem:
		return k == KindConsumable
	case ShopWeapon:
		return k.Equipment()
	case ShopMateria:
		return k == KindMateria
	default:
		return k != KindNone
	}
}

// Shop is one shop record of the executable.
type Shop struct {
	Index     int
	NameIndex uint16
	Category  ShopCategory
	Entries   []ID
}

// KeyLocation is a field that sets a key-item flag, and the flag it sets.
type KeyLocation struct {
	Field      string
	FieldIndex int
	Offsets    []int
	Flag       Flag
}

// Set is the entity set of one run.
type Set struct {
	Enemies       []Enemy
	Items         []Item
	Materia       []Materia
	MateriaSlots  []MateriaSlot
	Pickups       []Pickup
	StartingItems []StartingItem
	Shops         []Shop
	KeyItems      []KeyLocation
	Characters    []Character

	// Fields lists field names in archive order.
	Fields []string
}

// Clone returns a deep copy.
func (s *Set) Clone() *Set {
	c := &Set{
		Enemies:       slices.Clone(s.Enemies),
		Items:         make([]Item, len(s.Items)),
		Materia:       slices.Clone(s.Materia),
		MateriaSlots:  slices.Clone(s.MateriaSlots),
		Pickups:       slices.Clone(s.Pickups),
		StartingItems: slices.Clone(s.StartingItems),
		Shops:         make([]Shop, len(s.Shops)),
		KeyItems:      make([]KeyLocation, len(s.KeyItems)),
		Characters:    slices.Clone(s.Characters),
		Fields:        slices.Clone(s.Fields),
	}
	for i, it := range s.Items {
		it.StatTypes = slices.Clone(it.StatTypes)
		it.StatAmounts = slices.Clone(it.StatAmounts)
		it.Slots = slices.Clone(it.Slots)
		c.Items[i] = it
	}
	for i, sh := range s.Shops {
		sh.Entries = slices.Clone(sh.Entries)
		c.Shops[i] = sh
	}
	for i, k := range s.KeyItems {
		k.Offsets = slices.Clone(k.Offsets)
		c.KeyItems[i] = k
	}
	return c
}

// Item returns the inventory record for id, or nil.
func (s *Set) Item(id ID) *Item {
	if id >= MateriaBase || int(id) >= len(s.Items) {
		return nil
	}
	return &s.Items[id]
}

// Price returns the shop price of id, or zero when unknown.
func (s *Set) Price(id ID) uint32 {
	if KindOf(id) == KindMateria {
		if i := id.Index(); i < len(s.Materia) {
			return s.Materia[i].Price
		}
		return 0
	}
	if it := s.Item(id); it != nil {
		return it.Price
	}
	return 0
}

// FieldIndex returns the archive position of a field, or -1.
func (s *Set) FieldIndex(name string) int {
	for i, f := range s.Fields {
		if strings.EqualFold(f, name) {
			return i
		}
	}
	return -1
}
