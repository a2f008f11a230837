// Package extract turns the original game files into an entity set and
// keeps the raw bytes the compiler needs to re-emit them exactly.
package extract

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"log"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/MJE43/goldsaucer/internal/entity"
	"github.com/MJE43/goldsaucer/internal/fault"
	"github.com/MJE43/goldsaucer/internal/field"
	"github.com/MJE43/goldsaucer/internal/kernel"
	"github.com/MJE43/goldsaucer/internal/lgp"
	"github.com/MJE43/goldsaucer/internal/scene"
	"github.com/MJE43/goldsaucer/internal/schema"
	"github.com/MJE43/goldsaucer/internal/shops"
)

// Options tune extraction.
type Options struct {
	// ShopOffset is the file offset of the shop table. Zero or negative
	// values locate it by scanning the executable.
	ShopOffset int
	// Workers bounds concurrent field decoding. Zero means GOMAXPROCS.
	Workers int
	Logger  *log.Logger
}

// Sources holds the raw input files. Exe is the unpatched executable; shops
// are decoded from the executable with any existing hext patch applied.
type Sources struct {
	Paths  Paths
	Kernel []byte
	Scene  []byte
	Flevel []byte
	Exe    []byte

	ShopOffset int
	// Hext holds the patches of the input shop patch, in file order.
	Hext []shops.Patch
}

// Result is the output of Extract.
type Result struct {
	Set     *entity.Set
	Sources *Sources
}

// Extract reads every file in paths. Source files are never written.
func Extract(ctx context.Context, paths Paths, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	src := &Sources{Paths: paths}
	var err error
	if src.Kernel, err = readFile(paths.Kernel); err != nil {
		return nil, err
	}
	if src.Scene, err = readFile(paths.Scene); err != nil {
		return nil, err
	}
	if paths.Flevel != "" {
		if src.Flevel, err = readFile(paths.Flevel); err != nil {
			return nil, err
		}
	}
	if paths.Exe != "" {
		if src.Exe, err = readFile(paths.Exe); err != nil {
			return nil, err
		}
	}

	set := &entity.Set{}
	if err := decodeKernel(src, set); err != nil {
		return nil, err
	}
	logger.Printf("kernel: %d items, %d materia, %d starting materia slots",
		len(set.Items), len(set.Materia), len(set.MateriaSlots))

	scenes, err := scene.Parse(src.Scene)
	if err != nil {
		return nil, fault.WithPath(err, paths.Scene)
	}
	set.Enemies = EnemyScenes(scenes)
	logger.Printf("scene: %d scenes, %d enemies", len(scenes.Scenes), len(set.Enemies))

	if src.Flevel != nil {
		if err := decodeFields(ctx, src, set, opts.Workers); err != nil {
			return nil, err
		}
		logger.Printf("flevel: %d fields, %d pickups, %d key-item locations",
			len(set.Fields), len(set.Pickups), len(set.KeyItems))
	}

	if src.Exe != nil {
		if err := decodeShops(src, set, opts.ShopOffset); err != nil {
			return nil, err
		}
		logger.Printf("exe: shop table at 0x%X, %d shops", src.ShopOffset, len(set.Shops))
	}
	return &Result{Set: set, Sources: src}, nil
}

func decodeKernel(src *Sources, set *entity.Set) error {
	path := src.Paths.Kernel
	k, err := kernel.Parse(src.Kernel)
	if err != nil {
		return fault.WithPath(err, path)
	}

	tables := []struct {
		section int
		layout  *schema.Layout
		base    entity.ID
		count   int
	}{
		{kernel.SectionItems, schema.Item, entity.ItemBase, entity.ItemCount},
		{kernel.SectionWeapons, schema.Weapon, entity.WeaponBase, entity.WeaponCount},
		{kernel.SectionArmor, schema.Armor, entity.ArmorBase, entity.ArmorCount},
		{kernel.SectionAccessories, schema.Accessory, entity.AccessoryBase, entity.AccessoryCount},
	}
	for _, t := range tables {
		recs, err := t.layout.Split(k.Section(t.section).Data, t.count)
		if err != nil {
			return fault.WithPath(err, path)
		}
		for i, rec := range recs {
			set.Items = append(set.Items, decodeItem(t.layout, t.base+entity.ID(i), rec))
		}
	}

	recs, err := schema.Materia.Split(k.Section(kernel.SectionMateria).Data, entity.MateriaCount)
	if err != nil {
		return fault.WithPath(err, path)
	}
	for i, rec := range recs {
		m := entity.Materia{
			ID:   entity.MateriaID(uint8(i)),
			Type: uint8(schema.Materia.Uint(rec, schema.MateriaType)),
		}
		ap := schema.Materia.Bytes(rec, schema.MateriaAP)
		for lvl := range m.AP {
			m.AP[lvl] = binary.LittleEndian.Uint16(ap[lvl*2:])
		}
		set.Materia = append(set.Materia, m)
	}

	initData := k.Section(kernel.SectionInit).Data
	if len(initData) < schema.Init.Size {
		return fault.FormatAt(path, 0, "init section of %d bytes is shorter than %d", len(initData), schema.Init.Size)
	}
	set.MateriaSlots = append(set.MateriaSlots, InitMateriaSlots(initData)...)
	set.StartingItems = StartingItems(initData)
	set.Characters, err = Characters(initData)
	return fault.WithPath(err, path)
}

func decodeItem(l *schema.Layout, id entity.ID, rec []byte) entity.Item {
	it := entity.Item{ID: id, Kind: entity.KindOf(id)}
	if l.Has(schema.EquipMask) {
		it.EquipMask = uint16(l.Uint(rec, schema.EquipMask))
	}
	if l.Has(schema.StatTypes) {
		it.StatTypes = l.Bytes(rec, schema.StatTypes)
		it.StatAmounts = l.Bytes(rec, schema.StatAmounts)
	}
	if l.Has(schema.Growth) {
		it.Growth = uint8(l.Uint(rec, schema.Growth))
	}
	if l.Has(schema.Slots) {
		it.Slots = l.Bytes(rec, schema.Slots)
	}
	return it
}

const emptyMateria = 0xFF

// InitMateriaSlots lists the occupied materia slots of the starting
// equipment and the party stock.
func InitMateriaSlots(data []byte) []entity.MateriaSlot {
	var out []entity.MateriaSlot
	chars := data[schema.Init.Field(schema.InitCharacters).Offset:]
	for c := 0; c < schema.InitCharacterCount; c++ {
		rec := chars[c*schema.Character.Size : (c+1)*schema.Character.Size]
		for _, eq := range []struct {
			kind  entity.SlotKind
			field string
		}{
			{entity.SlotWeapon, schema.CharWeaponMateria},
			{entity.SlotArmor, schema.CharArmorMateria},
		} {
			raw := schema.Character.Bytes(rec, eq.field)
			for i := 0; i < schema.CharMateriaSlots; i++ {
				e := raw[i*schema.MateriaEntrySize:]
				if e[0] == emptyMateria || int(e[0]) >= entity.MateriaCount {
					continue
				}
				out = append(out, entity.MateriaSlot{
					Kind: eq.kind, Character: c, Index: i,
					Materia: e[0], AP: [3]byte{e[1], e[2], e[3]},
				})
			}
		}
	}

	stock := schema.Init.Bytes(data, schema.InitMateria)
	for i := 0; i < schema.InitMateriaCount; i++ {
		e := stock[i*schema.MateriaEntrySize:]
		if e[0] == emptyMateria || int(e[0]) >= entity.MateriaCount {
			continue
		}
		out = append(out, entity.MateriaSlot{
			Kind: entity.SlotStock, Index: i,
			Materia: e[0], AP: [3]byte{e[1], e[2], e[3]},
		})
	}
	return out
}

// Characters reads the starting weapon, armor and accessory of every
// character record. A piece indexing past its table is a FormatError.
func Characters(data []byte) ([]entity.Character, error) {
	base := schema.Init.Field(schema.InitCharacters).Offset
	out := make([]entity.Character, schema.InitCharacterCount)
	for c := range out {
		off := base + c*schema.Character.Size
		rec := data[off : off+schema.Character.Size]
		ch := entity.Character{
			Index:     c,
			Weapon:    uint8(schema.Character.Uint(rec, schema.CharWeapon)),
			Armor:     uint8(schema.Character.Uint(rec, schema.CharArmor)),
			Accessory: uint8(schema.Character.Uint(rec, schema.CharAccessory)),
		}
		if !ch.InTables() {
			return nil, fault.FormatAt("", int64(off), "character %d equipment %02X/%02X/%02X is outside its tables", c, ch.Weapon, ch.Armor, ch.Accessory)
		}
		out[c] = ch
	}
	return out, nil
}

// StartingItems lists the occupied entries of the initial inventory. Each
// entry packs a 9-bit ID and a 7-bit quantity.
func StartingItems(data []byte) []entity.StartingItem {
	var out []entity.StartingItem
	inv := schema.Init.Bytes(data, schema.InitInventory)
	for i := 0; i < schema.InitInventoryCount; i++ {
		v := binary.LittleEndian.Uint16(inv[i*schema.InventoryEntrySize:])
		if v == 0xFFFF {
			continue
		}
		id := entity.ID(v & 0x1FF)
		if !id.Valid() {
			continue
		}
		out = append(out, entity.StartingItem{Item: id, Quantity: uint8(v >> 9)})
	}
	return out
}

type fieldScan struct {
	pickups []entity.Pickup
	slots   []entity.MateriaSlot
	keys    []entity.KeyLocation
}

func decodeFields(ctx context.Context, src *Sources, set *entity.Set, workers int) error {
	a, err := lgp.Parse(src.Flevel)
	if err != nil {
		return fault.WithPath(err, src.Paths.Flevel)
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	scans := make([]fieldScan, len(a.Entries))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, e := range a.Entries {
		set.Fields = append(set.Fields, e.Name)
		if field.IsDebug(e.Name) {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := field.Decode(e.Name, e.Body)
			if err != nil {
				return fault.WithPath(err, src.Paths.Flevel)
			}
			scans[i] = scanField(f, i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, s := range scans {
		set.Pickups = append(set.Pickups, s.pickups...)
		set.MateriaSlots = append(set.MateriaSlots, s.slots...)
		set.KeyItems = append(set.KeyItems, s.keys...)
	}
	return nil
}

func scanField(f *field.File, index int) fieldScan {
	var s fieldScan
	keyAt := map[entity.Flag]int{}
	for _, g := range f.Grants() {
		switch g.Kind {
		case field.GrantItem:
			id := entity.ID(g.Item)
			if !id.Valid() || entity.KindOf(id) == entity.KindMateria {
				continue
			}
			s.pickups = append(s.pickups, entity.Pickup{
				Field: f.Name, FieldIndex: index, Offset: g.Offset, Item: id, Quantity: g.Quantity,
			})
		case field.GrantMateria:
			s.slots = append(s.slots, entity.MateriaSlot{
				Kind: entity.SlotField, Field: f.Name, Offset: g.Offset, Materia: g.Materia, AP: g.AP,
			})
		case field.GrantFlag:
			flag := entity.FlagFromBiton(g.Address, g.Bit)
			if entity.LookupFlag(flag) == nil {
				continue
			}
			if i, ok := keyAt[flag]; ok {
				s.keys[i].Offsets = append(s.keys[i].Offsets, g.Offset)
				continue
			}
			keyAt[flag] = len(s.keys)
			s.keys = append(s.keys, entity.KeyLocation{
				Field: f.Name, FieldIndex: index, Offsets: []int{g.Offset}, Flag: flag,
			})
		}
	}
	return s
}

func decodeShops(src *Sources, set *entity.Set, offset int) error {
	path := src.Paths.Exe
	exe := src.Exe
	if src.Paths.Hext != "" {
		patched, patches, err := applyHext(exe, src.Paths.Hext)
		if err != nil {
			return err
		}
		exe = patched
		src.Hext = patches
	}

	if offset <= 0 {
		off, err := shops.Locate(exe)
		if err != nil {
			return fault.WithPath(err, path)
		}
		offset = off
	}
	t, err := shops.Parse(exe, offset)
	if err != nil {
		return fault.WithPath(err, path)
	}
	src.ShopOffset = offset

	for i, s := range t.Shops {
		sh := entity.Shop{Index: i, NameIndex: s.NameIndex, Category: shops.Category(s.NameIndex)}
		for _, e := range s.Entries {
			sh.Entries = append(sh.Entries, e.EntityID())
		}
		set.Shops = append(set.Shops, sh)
	}
	for i := range set.Items {
		if id := int(set.Items[i].ID); id < len(t.ItemPrices) {
			set.Items[i].Price = t.ItemPrices[id]
		}
	}
	for i := range set.Materia {
		if i < len(t.MateriaPrices) {
			set.Materia[i].Price = t.MateriaPrices[i]
		}
	}
	return nil
}

func applyHext(exe []byte, path string) ([]byte, []shops.Patch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fault.IO("open", path, err)
	}
	defer f.Close()

	patches, err := shops.ParseHext(f)
	if err != nil {
		return nil, nil, fault.WithPath(err, path)
	}
	img, err := shops.OpenImage(exe)
	if err != nil {
		return nil, nil, fault.WithPath(err, path)
	}
	out := bytes.Clone(exe)
	if err := shops.Apply(out, img, patches); err != nil {
		return nil, nil, fault.WithPath(err, path)
	}
	return out, patches, nil
}
