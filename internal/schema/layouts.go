package schema

import "fmt"

// Enemy data block inside a battle scene.
const (
	EnemyName       = "name"
	EnemyLevel      = "level"
	EnemySpeed      = "speed"
	EnemyLuck       = "luck"
	EnemyEvade      = "evade"
	EnemyStr        = "str"
	EnemyDef        = "def"
	EnemyMag        = "mag"
	EnemyMDef       = "mdef"
	EnemyElemTypes  = "element_types"
	EnemyElemRates  = "element_rates"
	EnemyAnims      = "animations"
	EnemyAttacks    = "attacks"
	EnemyCameras    = "camera_moves"
	EnemyManip      = "manipulate"
	EnemyUnknown9A  = "unknown_9a"
	EnemyMP         = "mp"
	EnemyAP         = "ap"
	EnemyMorph      = "morph"
	EnemyBackAttack = "back_attack"
	EnemyPadA3      = "pad_a3"
	EnemyHP         = "hp"
	EnemyEXP        = "exp"
	EnemyGil        = "gil"
	EnemyImmunity   = "status_immunity"
	EnemyUnknownB4  = "unknown_b4"

	EnemySlots = 4
)

// EnemyRate names the drop/steal rate byte of slot i.
func EnemyRate(i int) string { return fmt.Sprintf("item_rate_%d", i) }

// EnemyItem names the item reference of slot i.
func EnemyItem(i int) string { return fmt.Sprintf("item_id_%d", i) }

var Enemy = NewLayout("enemy", 0xB8,
	Field{EnemyName, 0x00, 32, Bytes},
	Field{EnemyLevel, 0x20, 1, U8},
	Field{EnemySpeed, 0x21, 1, U8},
	Field{EnemyLuck, 0x22, 1, U8},
	Field{EnemyEvade, 0x23, 1, U8},
	Field{EnemyStr, 0x24, 1, U8},
	Field{EnemyDef, 0x25, 1, U8},
	Field{EnemyMag, 0x26, 1, U8},
	Field{EnemyMDef, 0x27, 1, U8},
	Field{EnemyElemTypes, 0x28, 8, Bytes},
	Field{EnemyElemRates, 0x30, 8, Bytes},
	Field{EnemyAnims, 0x38, 16, Bytes},
	Field{EnemyAttacks, 0x48, 32, Bytes},
	Field{EnemyCameras, 0x68, 32, Bytes},
	Field{EnemyRate(0), 0x88, 1, U8},
	Field{EnemyRate(1), 0x89, 1, U8},
	Field{EnemyRate(2), 0x8A, 1, U8},
	Field{EnemyRate(3), 0x8B, 1, U8},
	Field{EnemyItem(0), 0x8C, 2, U16},
	Field{EnemyItem(1), 0x8E, 2, U16},
	Field{EnemyItem(2), 0x90, 2, U16},
	Field{EnemyItem(3), 0x92, 2, U16},
	Field{EnemyManip, 0x94, 6, Bytes},
	Field{EnemyUnknown9A, 0x9A, 2, Bytes},
	Field{EnemyMP, 0x9C, 2, U16},
	Field{EnemyAP, 0x9E, 2, U16},
	Field{EnemyMorph, 0xA0, 2, U16},
	Field{EnemyBackAttack, 0xA2, 1, U8},
	Field{EnemyPadA3, 0xA3, 1, U8},
	Field{EnemyHP, 0xA4, 4, U32},
	Field{EnemyEXP, 0xA8, 4, U32},
	Field{EnemyGil, 0xAC, 4, U32},
	Field{EnemyImmunity, 0xB0, 4, U32},
	Field{EnemyUnknownB4, 0xB4, 4, U32},
)

// Battle scene header fields. Only the parts the randomiser touches are
// declared; the rest of the scene is carried verbatim.
const (
	SceneEnemyIDs   = "enemy_ids"
	SceneEnemyData  = "enemy_data"
	SceneEnemyCount = 3
)

var Scene = NewLayout("scene", 0x1E80,
	Field{SceneEnemyIDs, 0x0000, 6, Bytes},
	Field{SceneEnemyData, 0x0298, SceneEnemyCount * 0xB8, Bytes},
)

// Equipment and item tables from KERNEL.BIN.
const (
	StatTypes   = "stat_types"
	StatAmounts = "stat_amounts"
	Slots       = "materia_slots"
	Growth      = "growth"
	EquipMask   = "equip_mask"
	Restrict    = "restrict"
	Element     = "element"
)

var Weapon = NewLayout("weapon", 0x2C,
	Field{"target", 0x00, 1, U8},
	Field{"unknown_01", 0x01, 1, U8},
	Field{"damage_calc", 0x02, 1, U8},
	Field{"unknown_03", 0x03, 1, U8},
	Field{"power", 0x04, 1, U8},
	Field{"status_attack", 0x05, 1, U8},
	Field{Growth, 0x06, 1, U8},
	Field{"critical", 0x07, 1, U8},
	Field{"accuracy", 0x08, 1, U8},
	Field{"model", 0x09, 1, U8},
	Field{"unknown_0a", 0x0A, 1, U8},
	Field{"sound_mask", 0x0B, 1, U8},
	Field{"camera", 0x0C, 2, U16},
	Field{EquipMask, 0x0E, 2, U16},
	Field{Element, 0x10, 2, U16},
	Field{"unknown_12", 0x12, 2, U16},
	Field{StatTypes, 0x14, 4, Bytes},
	Field{StatAmounts, 0x18, 4, Bytes},
	Field{Slots, 0x1C, 8, Bytes},
	Field{"sound_hit", 0x24, 1, U8},
	Field{"sound_critical", 0x25, 1, U8},
	Field{"sound_miss", 0x26, 1, U8},
	Field{"impact_effect", 0x27, 1, U8},
	Field{"special", 0x28, 2, U16},
	Field{Restrict, 0x2A, 2, U16},
)

var Armor = NewLayout("armor", 0x24,
	Field{"unknown_00", 0x00, 1, U8},
	Field{"element_defense", 0x01, 1, U8},
	Field{"defense", 0x02, 1, U8},
	Field{"magic_defense", 0x03, 1, U8},
	Field{"evade", 0x04, 1, U8},
	Field{"magic_evade", 0x05, 1, U8},
	Field{"status_defense", 0x06, 1, U8},
	Field{"unknown_07", 0x07, 1, U8},
	Field{Slots, 0x08, 8, Bytes},
	Field{Growth, 0x10, 1, U8},
	Field{"unknown_11", 0x11, 1, U8},
	Field{EquipMask, 0x12, 2, U16},
	Field{Element, 0x14, 2, U16},
	Field{"unknown_16", 0x16, 2, U16},
	Field{StatTypes, 0x18, 4, Bytes},
	Field{StatAmounts, 0x1C, 4, Bytes},
	Field{Restrict, 0x20, 2, U16},
	Field{"unknown_22", 0x22, 2, U16},
)

var Accessory = NewLayout("accessory", 0x10,
	Field{StatTypes, 0x00, 2, Bytes},
	Field{StatAmounts, 0x02, 2, Bytes},
	Field{"element_defense", 0x04, 1, U8},
	Field{"special", 0x05, 1, U8},
	Field{Element, 0x06, 2, U16},
	Field{"status_defense", 0x08, 4, U32},
	Field{EquipMask, 0x0C, 2, U16},
	Field{Restrict, 0x0E, 2, U16},
)

var Item = NewLayout("item", 0x1C,
	Field{"unknown_00", 0x00, 8, Bytes},
	Field{"camera", 0x08, 2, U16},
	Field{Restrict, 0x0A, 2, U16},
	Field{"target", 0x0C, 1, U8},
	Field{"effect", 0x0D, 1, U8},
	Field{"damage_calc", 0x0E, 1, U8},
	Field{"power", 0x0F, 1, U8},
	Field{"condition", 0x10, 1, U8},
	Field{"status_chance", 0x11, 1, U8},
	Field{"special", 0x12, 1, U8},
	Field{"additional", 0x13, 1, U8},
	Field{"status", 0x14, 4, U32},
	Field{Element, 0x18, 2, U16},
	Field{"special_flags", 0x1A, 2, U16},
)

const (
	MateriaAP     = "ap_levels"
	MateriaType   = "type"
	MateriaEffect = "equip_effect"
)

var Materia = NewLayout("materia", 0x14,
	Field{MateriaAP, 0x00, 8, Bytes},
	Field{MateriaEffect, 0x08, 1, U8},
	Field{"status", 0x09, 3, Bytes},
	Field{Element, 0x0C, 1, U8},
	Field{MateriaType, 0x0D, 1, U8},
	Field{"attributes", 0x0E, 6, Bytes},
)

// Initial savemap data (KERNEL.BIN section 3).
const (
	InitCharacters     = "characters"
	InitParty          = "party"
	InitInventory      = "inventory"
	InitMateria        = "materia"
	InitStolenMateria  = "stolen_materia"
	InitCharacterCount = 9
	InitInventoryCount = 320
	InitMateriaCount   = 200
	InitStolenCount    = 48
	CharWeapon         = "weapon"
	CharArmor          = "armor"
	CharAccessory      = "accessory"
	CharWeaponMateria  = "weapon_materia"
	CharArmorMateria   = "armor_materia"
	CharMateriaSlots   = 8
	MateriaEntrySize   = 4
	InventoryEntrySize = 2
)

var Character = NewLayout("character", 0x84,
	Field{"stats", 0x00, 0x1C, Bytes},
	Field{CharWeapon, 0x1C, 1, U8},
	Field{CharArmor, 0x1D, 1, U8},
	Field{CharAccessory, 0x1E, 1, U8},
	Field{"status_flags", 0x1F, 1, U8},
	Field{"limits", 0x20, 0x20, Bytes},
	Field{CharWeaponMateria, 0x40, 0x20, Bytes},
	Field{CharArmorMateria, 0x60, 0x20, Bytes},
	Field{"tail", 0x80, 4, Bytes},
)

var Init = NewLayout("init", 0xB08,
	Field{InitCharacters, 0x000, InitCharacterCount * 0x84, Bytes},
	Field{InitParty, 0x4A4, 4, Bytes},
	Field{InitInventory, 0x4A8, InitInventoryCount * InventoryEntrySize, Bytes},
	Field{InitMateria, 0x728, InitMateriaCount * MateriaEntrySize, Bytes},
	Field{InitStolenMateria, 0xA48, InitStolenCount * MateriaEntrySize, Bytes},
)

// Shop table in the game executable.
const (
	ShopName        = "name_index"
	ShopCount       = "count"
	ShopEntries     = "entries"
	ShopEntryKind   = "kind"
	ShopEntryID     = "id"
	ShopEntryPad    = "pad"
	ShopMaxEntries  = 10
	ShopTableCount  = 80
	ItemPriceCount  = 320
	MateriaPriceCnt = 96
)

var Shop = NewLayout("shop", 0x54,
	Field{ShopName, 0x00, 2, U16},
	Field{ShopCount, 0x02, 2, U16},
	Field{ShopEntries, 0x04, ShopMaxEntries * 8, Bytes},
)

var ShopEntry = NewLayout("shop_entry", 8,
	Field{ShopEntryKind, 0, 4, U32},
	Field{ShopEntryID, 4, 2, U16},
	Field{ShopEntryPad, 6, 2, U16},
)

// Field script opcodes that grant items, materia or key-item flags.
const (
	OpCode   = "opcode"
	OpBanks  = "banks"
	OpItem   = "item"
	OpQty    = "quantity"
	OpBanks2 = "banks_2"
	OpID     = "materia"
	OpAP     = "ap"
	OpAddr   = "address"
	OpBit    = "bit"
)

var StitmOp = NewLayout("STITM", 5,
	Field{OpCode, 0, 1, U8},
	Field{OpBanks, 1, 1, U8},
	Field{OpItem, 2, 2, U16},
	Field{OpQty, 4, 1, U8},
)

var SmtraOp = NewLayout("SMTRA", 7,
	Field{OpCode, 0, 1, U8},
	Field{OpBanks, 1, 1, U8},
	Field{OpBanks2, 2, 1, U8},
	Field{OpID, 3, 1, U8},
	Field{OpAP, 4, 3, Bytes},
)

var BitonOp = NewLayout("BITON", 4,
	Field{OpCode, 0, 1, U8},
	Field{OpBanks, 1, 1, U8},
	Field{OpAddr, 2, 1, U8},
	Field{OpBit, 3, 1, U8},
)

// Container headers.
var KernelSection = NewLayout("kernel_section", 6,
	Field{"compressed_size", 0, 2, U16},
	Field{"raw_size", 2, 2, U16},
	Field{"file_type", 4, 2, U16},
)

var LGPHeader = NewLayout("lgp_header", 16,
	Field{"creator", 0, 12, Bytes},
	Field{"count", 12, 4, U32},
)

var LGPTocEntry = NewLayout("lgp_toc", 27,
	Field{"name", 0, 20, Bytes},
	Field{"offset", 20, 4, U32},
	Field{"check", 24, 1, U8},
	Field{"conflict", 25, 2, U16},
)

var LGPFileHeader = NewLayout("lgp_file", 24,
	Field{"name", 0, 20, Bytes},
	Field{"size", 20, 4, U32},
)
