package compile

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/MJE43/goldsaucer/internal/entity"
	"github.com/MJE43/goldsaucer/internal/extract"
	"github.com/MJE43/goldsaucer/internal/fault"
	"github.com/MJE43/goldsaucer/internal/field"
	"github.com/MJE43/goldsaucer/internal/kernel"
	"github.com/MJE43/goldsaucer/internal/lgp"
	"github.com/MJE43/goldsaucer/internal/scene"
	"github.com/MJE43/goldsaucer/internal/schema"
	"github.com/MJE43/goldsaucer/internal/shops"
)

var equipTables = map[entity.Kind]struct {
	section int
	layout  *schema.Layout
	base    entity.ID
}{
	entity.KindWeapon:    {kernel.SectionWeapons, schema.Weapon, entity.WeaponBase},
	entity.KindArmor:     {kernel.SectionArmor, schema.Armor, entity.ArmorBase},
	entity.KindAccessory: {kernel.SectionAccessories, schema.Accessory, entity.AccessoryBase},
}

// Kernel rebuilds KERNEL.BIN with the equipment stat blocks, starting
// equipment and starting materia of set. Sections nothing changed in keep their original bytes.
func Kernel(src *extract.Sources, set *entity.Set) ([]byte, error) {
	path := src.Paths.Kernel
	k, err := kernel.Parse(src.Kernel)
	if err != nil {
		return nil, fault.WithPath(err, path)
	}

	for _, it := range set.Items {
		t, ok := equipTables[it.Kind]
		if !ok {
			continue
		}
		data := k.Section(t.section).Data
		i := int(it.ID - t.base)
		if (i+1)*t.layout.Size > len(data) {
			return nil, fault.Formatf(path, "%v is past the end of the %s table", it.ID, t.layout.Name)
		}
		rec := data[i*t.layout.Size : (i+1)*t.layout.Size]
		t.layout.PutBytes(rec, schema.StatTypes, it.StatTypes)
		t.layout.PutBytes(rec, schema.StatAmounts, it.StatAmounts)
		if t.layout.Has(schema.Growth) {
			t.layout.PutUint(rec, schema.Growth, uint32(it.Growth))
		}
	}

	initData := k.Section(kernel.SectionInit).Data
	chars := initData[schema.Init.Field(schema.InitCharacters).Offset:]
	stock := initData[schema.Init.Field(schema.InitMateria).Offset:]
	for _, c := range set.Characters {
		if c.Index < 0 || c.Index >= schema.InitCharacterCount {
			return nil, fault.Formatf(path, "character %d is outside the init table", c.Index)
		}
		if !c.InTables() {
			return nil, fault.Formatf(path, "character %d equipment %02X/%02X/%02X is outside its tables", c.Index, c.Weapon, c.Armor, c.Accessory)
		}
		rec := chars[c.Index*schema.Character.Size : (c.Index+1)*schema.Character.Size]
		schema.Character.PutUint(rec, schema.CharWeapon, uint32(c.Weapon))
		schema.Character.PutUint(rec, schema.CharArmor, uint32(c.Armor))
		schema.Character.PutUint(rec, schema.CharAccessory, uint32(c.Accessory))
	}
	for _, s := range set.MateriaSlots {
		var entry []byte
		switch s.Kind {
		case entity.SlotWeapon, entity.SlotArmor:
			name := schema.CharWeaponMateria
			if s.Kind == entity.SlotArmor {
				name = schema.CharArmorMateria
			}
			rec := chars[s.Character*schema.Character.Size:]
			entry = rec[schema.Character.Field(name).Offset+s.Index*schema.MateriaEntrySize:]
		case entity.SlotStock:
			entry = stock[s.Index*schema.MateriaEntrySize:]
		default:
			continue
		}
		entry[0] = s.Materia
	}

	out, err := k.Bytes()
	if err != nil {
		return nil, fault.WithPath(err, path)
	}
	return out, nil
}

// Scene rebuilds scene.bin with the enemy records of set.
func Scene(src *extract.Sources, set *entity.Set) ([]byte, error) {
	path := src.Paths.Scene
	a, err := scene.Parse(src.Scene)
	if err != nil {
		return nil, fault.WithPath(err, path)
	}
	l := schema.Enemy
	for _, e := range set.Enemies {
		if e.Scene >= len(a.Scenes) {
			return nil, fault.Formatf(path, "enemy %s refers to missing scene %d", e.Key, e.Scene)
		}
		rec := a.Scenes[e.Scene].EnemyRecord(e.Slot)
		s := e.Stats
		for _, f := range []struct {
			name string
			v    uint32
		}{
			{schema.EnemyLevel, uint32(s.Level)},
			{schema.EnemySpeed, uint32(s.Speed)},
			{schema.EnemyLuck, uint32(s.Luck)},
			{schema.EnemyEvade, uint32(s.Evade)},
			{schema.EnemyStr, uint32(s.Str)},
			{schema.EnemyDef, uint32(s.Def)},
			{schema.EnemyMag, uint32(s.Mag)},
			{schema.EnemyMDef, uint32(s.MDef)},
			{schema.EnemyHP, s.HP},
			{schema.EnemyMP, uint32(s.MP)},
			{schema.EnemyEXP, s.EXP},
			{schema.EnemyGil, s.Gil},
			{schema.EnemyAP, uint32(s.AP)},
			{schema.EnemyMorph, uint32(e.Morph)},
		} {
			l.PutUint(rec, f.name, f.v)
		}
		for i, d := range e.Drops {
			l.PutUint(rec, schema.EnemyRate(i), uint32(d.Rate))
			l.PutUint(rec, schema.EnemyItem(i), uint32(d.Item))
		}
	}
	out, err := a.Bytes()
	if err != nil {
		return nil, fault.WithPath(err, path)
	}
	return out, nil
}

type fieldEdit func(f *field.File) error

// announce rewrites the dialog line nearest the grant at off. Fields
// without a text table or a nearby message are left alone.
func announce(off int, variants []string) fieldEdit {
	return func(f *field.File) error {
		if id, ok := f.MessageNear(off); ok {
			f.SetText(id, variants...)
		}
		return nil
	}
}

// itemMessages lists the dialog lines for a granted inventory object,
// longest first, ending in short generic lines for tight slots.
func itemMessages(id entity.ID) []string {
	name := id.Name()
	out := []string{`Received "` + name + `"!`, "Received " + name + "!", name + "!", name}
	switch entity.KindOf(id) {
	case entity.KindWeapon:
		return append(out, "Weapon!")
	case entity.KindArmor:
		return append(out, "Armor!")
	case entity.KindAccessory:
		return append(out, "Accessory!")
	case entity.KindMateria:
		return append(out, "Materia!")
	}
	return append(out, "Item!")
}

func keyMessages(f entity.Flag) []string {
	name := keyName(f)
	return []string{`Received "` + name + `"!`, "Received " + name + "!", name}
}

// Flevel rebuilds flevel.lgp. Grants that differ from base also get their
// dialog line rewritten. Only fields whose bytes changed are recompressed.
func Flevel(src *extract.Sources, base, set *entity.Set) ([]byte, error) {
	path := src.Paths.Flevel
	a, err := lgp.Parse(src.Flevel)
	if err != nil {
		return nil, fault.WithPath(err, path)
	}

	edits := map[string][]fieldEdit{}
	var messages map[string][]fieldEdit
	if base != nil {
		messages = map[string][]fieldEdit{}
	}
	for i, p := range set.Pickups {
		edits[p.Field] = append(edits[p.Field], func(f *field.File) error {
			return f.SetItem(p.Offset, uint16(p.Item))
		})
		if messages != nil && i < len(base.Pickups) && base.Pickups[i].Item != p.Item {
			messages[p.Field] = append(messages[p.Field], announce(p.Offset, itemMessages(p.Item)))
		}
	}
	for i, s := range set.MateriaSlots {
		if s.Kind != entity.SlotField {
			continue
		}
		edits[s.Field] = append(edits[s.Field], func(f *field.File) error {
			return f.SetMateria(s.Offset, s.Materia)
		})
		if messages != nil && i < len(base.MateriaSlots) && base.MateriaSlots[i].Materia != s.Materia {
			messages[s.Field] = append(messages[s.Field], announce(s.Offset, itemMessages(entity.MateriaID(s.Materia))))
		}
	}
	for i, k := range set.KeyItems {
		for _, off := range k.Offsets {
			edits[k.Field] = append(edits[k.Field], func(f *field.File) error {
				return f.SetFlag(off, k.Flag.Addr, k.Flag.Bit())
			})
		}
		if messages != nil && i < len(base.KeyItems) && base.KeyItems[i].Flag != k.Flag && len(k.Offsets) > 0 {
			messages[k.Field] = append(messages[k.Field], announce(k.Offsets[0], keyMessages(k.Flag)))
		}
	}
	for name, m := range messages {
		edits[name] = append(edits[name], m...)
	}

	names := make([]string, 0, len(edits))
	for name := range edits {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		e := a.Lookup(name)
		if e == nil {
			return nil, fault.Formatf(path, "field %s not found", name)
		}
		f, err := field.Decode(e.Name, e.Body)
		if err != nil {
			return nil, fault.WithPath(err, path)
		}
		before := bytes.Clone(f.Data)
		for _, edit := range edits[name] {
			if err := edit(f); err != nil {
				return nil, fault.Formatf(path, "%v", err)
			}
		}
		if !bytes.Equal(before, f.Data) {
			e.Body = f.Encode()
		}
	}

	out, err := a.Bytes()
	if err != nil {
		return nil, fault.WithPath(err, path)
	}
	return out, nil
}

// Hext renders the shop patch for set against the unpatched executable.
// Lines of the input patch not wholly inside the shop records are carried
// ahead of the shop lines, so the shop lines win where they overlap.
func Hext(src *extract.Sources, set *entity.Set, comments []string) ([]byte, error) {
	path := src.Paths.Exe
	t, err := shops.Parse(src.Exe, src.ShopOffset)
	if err != nil {
		return nil, fault.WithPath(err, path)
	}
	if len(set.Shops) != len(t.Shops) {
		return nil, fault.Formatf(path, "set has %d shops, table has %d", len(set.Shops), len(t.Shops))
	}
	for i, sh := range set.Shops {
		if len(sh.Entries) > schema.ShopMaxEntries {
			return nil, fmt.Errorf("shop %d has %d entries, the table holds %d", i, len(sh.Entries), schema.ShopMaxEntries)
		}
		entries := make([]shops.Entry, len(sh.Entries))
		for j, id := range sh.Entries {
			entries[j] = shops.FromEntityID(id)
		}
		t.Shops[i] = shops.Shop{NameIndex: sh.NameIndex, Entries: entries}
	}

	img, err := shops.OpenImage(src.Exe)
	if err != nil {
		return nil, fault.WithPath(err, path)
	}
	patches, err := t.Patches(img)
	if err != nil {
		return nil, fault.WithPath(err, path)
	}
	patches = append(t.Outside(img, src.Hext), patches...)
	var buf bytes.Buffer
	if err := shops.WriteHext(&buf, comments, patches); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
