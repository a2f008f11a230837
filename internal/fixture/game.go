package fixture

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MJE43/goldsaucer/internal/entity"
	"github.com/MJE43/goldsaucer/internal/schema"
)

// Game is a complete synthetic input set.
type Game struct {
	Kernel []byte
	Scene  []byte
	Flevel []byte
	Exe    []byte

	// ShopOffset is the file offset of the shop table inside Exe.
	ShopOffset int
}

// Input file locations relative to a game root, mirroring an installed game.
const (
	KernelPath = "data/lang-en/kernel/KERNEL.BIN"
	ScenePath  = "data/lang-en/battle/scene.bin"
	FlevelPath = "data/field/flevel.lgp"
	ExePath    = "ff7_en.exe"
)

// Write stores the files under dir.
func (g *Game) Write(dir string) error {
	files := []struct {
		rel  string
		data []byte
	}{
		{KernelPath, g.Kernel},
		{ScenePath, g.Scene},
		{FlevelPath, g.Flevel},
		{ExePath, g.Exe},
	}
	for _, f := range files {
		if f.data == nil {
			continue
		}
		p := filepath.Join(dir, filepath.FromSlash(f.rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(p, f.data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

// Baseline returns the standard synthetic game.
func Baseline() *Game {
	g := &Game{
		Kernel: Kernel(KernelSections()),
		Scene:  SceneBin(Scenes(), ScenesPerBlock),
		Flevel: Flevel(),
	}
	g.Exe, g.ShopOffset = ShopExe()
	return g
}

// Baseline dimensions.
const (
	SceneCount     = 24
	ScenesPerBlock = 8
	ShopsStocked   = 6
)

// KernelSections returns the raw KERNEL.BIN sections of the baseline.
func KernelSections() [][]byte {
	sections := [][]byte{
		bytes.Repeat([]byte{0x11, 0x22}, 64),
		bytes.Repeat([]byte{0x33}, 96),
		bytes.Repeat([]byte{0x44, 0x55, 0x66}, 50),
		InitData(),
		records(schema.Item, 128, itemRecord),
		records(schema.Weapon, 128, weaponRecord),
		records(schema.Armor, 32, armorRecord),
		records(schema.Accessory, 32, accessoryRecord),
		records(schema.Materia, 91, materiaRecord),
		[]byte("text section nine"),
		[]byte("text section ten"),
	}
	return sections
}

func records(l *schema.Layout, n int, fill func(i int, rec []byte)) []byte {
	out := make([]byte, l.Size*n)
	for i := 0; i < n; i++ {
		fill(i, out[i*l.Size:(i+1)*l.Size])
	}
	return out
}

func itemRecord(i int, rec []byte) {
	l := schema.Item
	for j := range rec {
		rec[j] = byte(i + j)
	}
	l.PutUint(rec, "power", uint32(i))
	l.PutUint(rec, schema.Restrict, 0xFFFF)
}

func weaponRecord(i int, rec []byte) {
	l := schema.Weapon
	l.PutUint(rec, "power", uint32(10+i))
	l.PutUint(rec, "accuracy", 100)
	l.PutUint(rec, schema.Growth, uint32(1+i%3))
	l.PutUint(rec, schema.EquipMask, 1<<(i/16))
	l.PutUint(rec, schema.Element, 0)
	l.PutUint(rec, schema.Restrict, 0xFFFF)
	types := []byte{0xFF, 0xFF, 0xFF, 0xFF}
	amounts := []byte{0, 0, 0, 0}
	if i%4 == 0 {
		types[0], amounts[0] = 0, byte(i%20+1)
	}
	if i%8 == 0 {
		types[1], amounts[1] = 2, byte(i%7+1)
	}
	l.PutBytes(rec, schema.StatTypes, types)
	l.PutBytes(rec, schema.StatAmounts, amounts)
	l.PutBytes(rec, schema.Slots, slotPattern(i))
}

func armorRecord(i int, rec []byte) {
	l := schema.Armor
	l.PutUint(rec, "defense", uint32(5+i))
	l.PutUint(rec, "magic_defense", uint32(2+i))
	l.PutUint(rec, schema.Growth, 1)
	mask := uint32(0x01FF)
	if i%2 == 1 {
		mask = 0x0040
	}
	l.PutUint(rec, schema.EquipMask, mask)
	l.PutUint(rec, schema.Restrict, 0xFFFF)
	l.PutBytes(rec, schema.StatTypes, []byte{byte(i % 5), 0xFF, 0xFF, 0xFF})
	l.PutBytes(rec, schema.StatAmounts, []byte{byte(i%9 + 1), 0, 0, 0})
	l.PutBytes(rec, schema.Slots, slotPattern(i+1))
}

func accessoryRecord(i int, rec []byte) {
	l := schema.Accessory
	l.PutBytes(rec, schema.StatTypes, []byte{byte(i % 8), 0xFF})
	l.PutBytes(rec, schema.StatAmounts, []byte{byte(i + 1), 0})
	l.PutUint(rec, schema.EquipMask, 0x01FF)
	l.PutUint(rec, schema.Restrict, 0xFFFF)
}

func materiaRecord(i int, rec []byte) {
	l := schema.Materia
	ap := make([]byte, 8)
	for lvl := 0; lvl < 4; lvl++ {
		binary.LittleEndian.PutUint16(ap[lvl*2:], uint16((i+1)*(lvl+1)*10))
	}
	l.PutBytes(rec, schema.MateriaAP, ap)
	l.PutUint(rec, schema.MateriaType, uint32(i%8))
	l.PutUint(rec, schema.MateriaEffect, uint32(i%16))
}

// slotPattern returns eight materia slot bytes: two linked slots followed by
// a number of unlinked ones.
func slotPattern(i int) []byte {
	s := make([]byte, 8)
	n := 2 + i%5
	for j := 0; j < n && j < 8; j++ {
		s[j] = 5
	}
	s[0], s[1] = 2, 3
	return s
}

// InitData returns the baseline initial savemap section.
func InitData() []byte {
	l := schema.Init
	data := make([]byte, l.Size)

	chars := data[l.Field(schema.InitCharacters).Offset:]
	for c := 0; c < schema.InitCharacterCount; c++ {
		rec := chars[c*schema.Character.Size : (c+1)*schema.Character.Size]
		lo, _, _ := entity.WeaponClass(c)
		schema.Character.PutUint(rec, schema.CharWeapon, uint32(lo))
		schema.Character.PutUint(rec, schema.CharArmor, uint32(c*2))
		schema.Character.PutUint(rec, schema.CharAccessory, 0xFF)

		wm := bytes.Repeat([]byte{0xFF}, 32)
		copy(wm, []byte{byte(c * 3), 0, 0, 0})
		schema.Character.PutBytes(rec, schema.CharWeaponMateria, wm)

		am := bytes.Repeat([]byte{0xFF}, 32)
		if c < 4 {
			copy(am, []byte{byte(0x20 + c), 0x00, 0x01, 0x00})
		}
		schema.Character.PutBytes(rec, schema.CharArmorMateria, am)
	}

	l.PutBytes(data, schema.InitParty, []byte{0, 1, 2, 0xFF})

	inv := bytes.Repeat([]byte{0xFF}, schema.InitInventoryCount*schema.InventoryEntrySize)
	for i, e := range []struct{ id, qty uint16 }{{0x00, 3}, {0x07, 1}, {0x03, 2}} {
		binary.LittleEndian.PutUint16(inv[i*2:], e.id|e.qty<<9)
	}
	l.PutBytes(data, schema.InitInventory, inv)

	stock := bytes.Repeat([]byte{0xFF}, schema.InitMateriaCount*schema.MateriaEntrySize)
	copy(stock, []byte{0x31, 0, 0, 0, 0x0B, 100, 0, 0})
	l.PutBytes(data, schema.InitMateria, stock)

	l.PutBytes(data, schema.InitStolenMateria, bytes.Repeat([]byte{0xFF}, schema.InitStolenCount*schema.MateriaEntrySize))
	return data
}

// Scenes returns the baseline battle scenes.
func Scenes() [][]byte {
	out := make([][]byte, SceneCount)
	for s := range out {
		out[s] = sceneData(s)
	}
	return out
}

func sceneData(s int) []byte {
	data := make([]byte, schema.Scene.Size)
	for i := 0x100; i < 0x200; i++ {
		data[i] = byte(s)
	}

	ids := make([]byte, 6)
	binary.LittleEndian.PutUint16(ids[0:], uint16(s*2))
	binary.LittleEndian.PutUint16(ids[2:], uint16(s*2+1))
	binary.LittleEndian.PutUint16(ids[4:], 0xFFFF)
	schema.Scene.PutBytes(data, schema.SceneEnemyIDs, ids)

	base := schema.Scene.Field(schema.SceneEnemyData).Offset
	for e := 0; e < schema.SceneEnemyCount; e++ {
		rec := data[base+e*schema.Enemy.Size : base+(e+1)*schema.Enemy.Size]
		if e == 2 {
			for i := range rec {
				rec[i] = 0xFF
			}
			continue
		}
		enemyRecord(s, e, rec)
	}
	return data
}

// EnemyName returns the name the baseline gives an enemy slot.
func EnemyName(s, e int) string {
	switch {
	case s == 10 && e == 0:
		return "AIR BUSTER"
	case s == 20 && e == 0:
		return "JENOVA-BIRTH"
	default:
		return fmt.Sprintf("MONSTER %02d%c", s, 'A'+e)
	}
}

func enemyRecord(s, e int, rec []byte) {
	l := schema.Enemy

	name := bytes.Repeat([]byte{0xFF}, 32)
	for i, ch := range []byte(EnemyName(s, e)) {
		name[i] = ch - 0x20
	}
	l.PutBytes(rec, schema.EnemyName, name)

	l.PutUint(rec, schema.EnemyLevel, uint32(2+s*2+e))
	l.PutUint(rec, schema.EnemySpeed, uint32(50+s))
	l.PutUint(rec, schema.EnemyLuck, 10)
	l.PutUint(rec, schema.EnemyEvade, 5)
	l.PutUint(rec, schema.EnemyStr, uint32(10+s*3))
	l.PutUint(rec, schema.EnemyDef, uint32(8+s*2))
	l.PutUint(rec, schema.EnemyMag, uint32(6+s*2))
	l.PutUint(rec, schema.EnemyMDef, uint32(5+s*2))
	l.PutBytes(rec, schema.EnemyElemTypes, bytes.Repeat([]byte{0xFF}, 8))
	l.PutBytes(rec, schema.EnemyElemRates, bytes.Repeat([]byte{0xFF}, 8))
	l.PutBytes(rec, schema.EnemyAnims, bytes.Repeat([]byte{byte(e + 1)}, 16))
	l.PutBytes(rec, schema.EnemyAttacks, bytes.Repeat([]byte{0x01, 0x01}, 16))
	l.PutBytes(rec, schema.EnemyCameras, bytes.Repeat([]byte{0xFF}, 32))

	type drop struct {
		rate uint8
		item uint16
	}
	drops := [4]drop{
		{8, uint16((s*2 + e) % 24)},
		{0x80 | 32, uint16((s + e + 30) % 60)},
		{0xFF, 0xFFFF},
		{0xFF, 0xFFFF},
	}
	if s%3 == 0 {
		drops[2] = drop{4, uint16(0x80 + s)}
	}
	for i, d := range drops {
		l.PutUint(rec, schema.EnemyRate(i), uint32(d.rate))
		l.PutUint(rec, schema.EnemyItem(i), uint32(d.item))
	}

	l.PutBytes(rec, schema.EnemyManip, bytes.Repeat([]byte{0xFF}, 6))
	l.PutBytes(rec, schema.EnemyUnknown9A, []byte{0xFF, 0xFF})
	l.PutUint(rec, schema.EnemyMP, uint32(10+s*5))
	l.PutUint(rec, schema.EnemyAP, uint32(1+s/3))
	morph := uint32(0xFFFF)
	if s%2 == 0 {
		morph = uint32(0x20 + s/2)
	}
	l.PutUint(rec, schema.EnemyMorph, morph)
	l.PutUint(rec, schema.EnemyBackAttack, 0x40)

	hp := uint32(40 + s*60 + e*15)
	if s == 16 && e == 1 {
		hp = 12000
	}
	l.PutUint(rec, schema.EnemyHP, hp)
	l.PutUint(rec, schema.EnemyEXP, uint32(10+s*12))
	l.PutUint(rec, schema.EnemyGil, uint32(20+s*15))
	l.PutUint(rec, schema.EnemyImmunity, 0)
	l.PutUint(rec, schema.EnemyUnknownB4, 0xFFFFFFFF)
}

// Key-item BITONs used by the baseline fields.
var (
	bitnKeycard60   = Biton(67, 6)
	bitnKeycard62   = Biton(67, 7)
	bitnMidgarPart1 = Biton(68, 3)
	bitnPHS         = Biton(69, 0)
	bitnCotton      = Biton(64, 0)
	bitnSatin       = Biton(64, 1)
	bitnKeystone    = Biton(69, 2)
	bitnGoldTicket  = Biton(69, 1)
	bitnAncients    = Biton(67, 0)
	bitnLunarHarp   = Biton(67, 3)
	bitnGlacierMap  = Biton(69, 4)
	bitnSnowboard   = Biton(70, 2)
	bitnMythril     = Biton(70, 1)
	bitnBlackMat    = Biton(70, 0)
)

// FieldScript is one baseline field: its script code and dialog strings.
type FieldScript struct {
	Name  string
	Code  []byte
	Texts []string
}

// FieldScripts lists the baseline fields in archive order.
func FieldScripts() []FieldScript {
	jmp := Op(0x10, 0x02)
	return []FieldScript{
		{Name: "md1stin", Code: Script(jmp, Stitm(0x00, 1), Message(0, 0), Stitm(0x07, 2), Smtra(0x31, 0), Message(0, 1), Ret()),
			Texts: []string{`Received "Potion"!`, `Received "Fire"!`}},
		{Name: "md1_1", Code: Script(Stitm(0x03, 1), Op(0x58, 0x01, 0x05, 0x00, 0x01), Stitm(0x81, 1), Biton(10, 3), Ret())},
		{Name: "md8_2", Code: Script(bitnPHS, Ret())},
		{Name: "md8_3", Code: Script(bitnMidgarPart1, Message(1, 0), Stitm(0x101, 1), Ret()),
			Texts: []string{`Received "Midgar Part #1"!`}},
		{Name: "mkt_w", Code: Script(bitnCotton, Stitm(0x121, 1), Ret())},
		{Name: "onna_1", Code: Script(bitnSatin, Smtra(0x0A, 0), Ret())},
		{Name: "blin59", Code: Script(bitnKeycard60, Ret())},
		{Name: "blin60_1", Code: Script(Stitm(0x05, 1), Ret())},
		{Name: "blin61", Code: Script(jmp, bitnKeycard62, Ret())},
		{Name: "blin62_1", Code: Script(Stitm(0x06, 1), Smtra(0x20, 500), Ret())},
		{Name: "blin63_1", Code: Script(Stitm(0x08, 3), Ret())},
		{Name: "blin65_1", Code: Script(Stitm(0x0F, 1), Ret())},
		{Name: "gldst", Code: Script(bitnKeystone, bitnGoldTicket, Op(0x01, 0, 0),
			bitnKeystone, Ret())},
		{Name: "jtmpin1", Code: Script(bitnAncients, Ret())},
		{Name: "jtempl", Code: Script(Stitm(0x10, 1), Ret())},
		{Name: "ancnt3", Code: Script(bitnLunarHarp, Ret())},
		{Name: "snw_w", Code: Script(Stitm(0x11, 1), Ret())},
		{Name: "slfrst_1", Code: Script(Stitm(0x82, 1), Ret())},
		{Name: "snow", Code: Script(bitnGlacierMap, Ret())},
		{Name: "icicle_1", Code: Script(bitnSnowboard, Ret())},
		{Name: "hyou1", Code: Script(Stitm(0x12, 1), Smtra(0x40, 0), Ret())},
		{Name: "nibel", Code: Script(bitnMythril, Ret())},
		{Name: "trnad_1", Code: Script(bitnBlackMat, Ret())},
		{Name: "blackbg1", Code: Script(Stitm(0x13, 1), Ret())},
	}
}

// Flevel returns the baseline field archive.
func Flevel() []byte {
	var files []File
	for _, f := range FieldScripts() {
		files = append(files, File{Name: f.Name, Body: FieldBody(f.Name, f.Code, f.Texts...)})
	}
	return LGP(files)
}

// ShopStock is the baseline stock of the first shops. Entries at or above
// 0x140 are materia.
var ShopStock = [ShopsStocked]struct {
	NameIndex uint16
	Entries   []uint16
}{
	{0, []uint16{0x00, 0x01, 0x07, 0x08}},
	{1, []uint16{0x80, 0x90, 0x100, 0x120}},
	{2, []uint16{0x140, 0x141, 0x140 + 0x31}},
	{3, []uint16{0x02, 0x81, 0x140 + 0x0A}},
	{0, []uint16{0x09, 0x0A}},
	{1, []uint16{0x84}},
}

// ShopTable returns the baseline shop table followed by both price tables.
func ShopTable() []byte {
	table := make([]byte, schema.Shop.Size*schema.ShopTableCount)
	for i, s := range ShopStock {
		rec := table[i*schema.Shop.Size : (i+1)*schema.Shop.Size]
		schema.Shop.PutUint(rec, schema.ShopName, uint32(s.NameIndex))
		schema.Shop.PutUint(rec, schema.ShopCount, uint32(len(s.Entries)))
		entries := make([]byte, schema.ShopMaxEntries*schema.ShopEntry.Size)
		for j, id := range s.Entries {
			e := entries[j*schema.ShopEntry.Size : (j+1)*schema.ShopEntry.Size]
			if id >= 0x140 {
				schema.ShopEntry.PutUint(e, schema.ShopEntryKind, 1)
				schema.ShopEntry.PutUint(e, schema.ShopEntryID, uint32(id-0x140))
			} else {
				schema.ShopEntry.PutUint(e, schema.ShopEntryID, uint32(id))
			}
		}
		schema.Shop.PutBytes(rec, schema.ShopEntries, entries)
	}

	prices := make([]byte, 4*(schema.ItemPriceCount+schema.MateriaPriceCnt))
	for i := 0; i < schema.ItemPriceCount; i++ {
		binary.LittleEndian.PutUint32(prices[i*4:], ItemPrice(i))
	}
	for i := 0; i < schema.MateriaPriceCnt; i++ {
		p := uint32(0)
		if i < 91 {
			p = uint32(600 + 250*i)
		}
		binary.LittleEndian.PutUint32(prices[(schema.ItemPriceCount+i)*4:], p)
	}
	return append(table, prices...)
}

// ItemPrice is the baseline price of inventory ID i. Late weapons and
// accessories are unpriced.
func ItemPrice(i int) uint32 {
	switch {
	case i < 0x80:
		return uint32(50 + 10*i)
	case i < 0x100:
		if i-0x80 >= 100 {
			return 0
		}
		return uint32(200 + 150*(i-0x80))
	case i < 0x120:
		return uint32(100 + 300*(i-0x100))
	default:
		if i-0x120 >= 20 {
			return 0
		}
		return uint32(1000 + 500*(i-0x120))
	}
}

// ShopExe returns a PE image holding the shop table and its file offset.
func ShopExe() ([]byte, int) {
	const lead = 0x400
	data := bytes.Repeat([]byte{0xCC}, lead)
	data = append(data, ShopTable()...)
	data = append(data, bytes.Repeat([]byte{0xCC}, 0x100)...)
	img, off := Exe(data)
	return img, off + lead
}
