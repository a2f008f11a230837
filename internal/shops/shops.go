// Package shops reads the shop table of the game executable and writes
// changes back as a hext patch.
package shops

import (
	"bytes"
	"encoding/binary"

	"github.com/MJE43/goldsaucer/internal/entity"
	"github.com/MJE43/goldsaucer/internal/fault"
	"github.com/MJE43/goldsaucer/internal/schema"
)

// Entry kinds.
const (
	KindItem    = 0
	KindMateria = 1
)

const (
	tableSize = schema.ShopTableCount * 0x54
	priceSize = 4 * (schema.ItemPriceCount + schema.MateriaPriceCnt)

	// maxNameIndex bounds the shop-name index during the structural scan.
	maxNameIndex = 0x20
	// minStocked is the number of non-empty shops a candidate table needs.
	minStocked = 4
)

// Entry is one stocked item or materia.
type Entry struct {
	Kind uint32
	ID   uint16
}

// EntityID converts the entry to the shared ID space.
func (e Entry) EntityID() entity.ID {
	if e.Kind == KindMateria {
		return entity.MateriaID(uint8(e.ID))
	}
	return entity.ID(e.ID)
}

// FromEntityID is the inverse of Entry.EntityID.
func FromEntityID(id entity.ID) Entry {
	if entity.KindOf(id) == entity.KindMateria {
		return Entry{Kind: KindMateria, ID: uint16(id.Index())}
	}
	return Entry{Kind: KindItem, ID: uint16(id)}
}

// Shop is one decoded shop record.
type Shop struct {
	NameIndex uint16
	Entries   []Entry
}

// Table is the shop table, the two price tables that follow it and the raw
// bytes they were decoded from.
type Table struct {
	Offset        int
	Shops         []Shop
	ItemPrices    []uint32
	MateriaPrices []uint32

	raw []byte
}

// Span returns the number of bytes Parse reads from Offset.
func Span() int { return tableSize + priceSize }

// Parse decodes the table at offset.
func Parse(exe []byte, offset int) (*Table, error) {
	if offset < 0 || offset+tableSize+priceSize > len(exe) {
		return nil, fault.FormatAt("", int64(offset), "shop table of %d bytes does not fit a %d byte executable",
			tableSize+priceSize, len(exe))
	}
	raw := exe[offset : offset+tableSize+priceSize]
	t := &Table{Offset: offset, raw: append([]byte(nil), raw...)}

	recs, err := schema.Shop.Split(raw[:tableSize], schema.ShopTableCount)
	if err != nil {
		return nil, err
	}
	for i, rec := range recs {
		s, err := decodeShop(rec)
		if err != nil {
			return nil, fault.FormatAt("", int64(offset+i*schema.Shop.Size), "shop %d: %v", i, err)
		}
		t.Shops = append(t.Shops, s)
	}

	prices := raw[tableSize:]
	for i := 0; i < schema.ItemPriceCount; i++ {
		t.ItemPrices = append(t.ItemPrices, binary.LittleEndian.Uint32(prices[i*4:]))
	}
	prices = prices[schema.ItemPriceCount*4:]
	for i := 0; i < schema.MateriaPriceCnt; i++ {
		t.MateriaPrices = append(t.MateriaPrices, binary.LittleEndian.Uint32(prices[i*4:]))
	}
	return t, nil
}

type entryError struct {
	msg string
}

func (e entryError) Error() string { return e.msg }

func decodeShop(rec []byte) (Shop, error) {
	l, el := schema.Shop, schema.ShopEntry
	s := Shop{NameIndex: uint16(l.Uint(rec, schema.ShopName))}
	count := int(l.Uint(rec, schema.ShopCount))
	if count > schema.ShopMaxEntries {
		return s, entryError{"entry count above 10"}
	}
	entries := rec[l.Field(schema.ShopEntries).Offset:]
	for j := 0; j < count; j++ {
		e := entries[j*el.Size : (j+1)*el.Size]
		entry := Entry{Kind: el.Uint(e, schema.ShopEntryKind), ID: uint16(el.Uint(e, schema.ShopEntryID))}
		switch {
		case entry.Kind == KindItem && int(entry.ID) < schema.ItemPriceCount:
		case entry.Kind == KindMateria && int(entry.ID) < schema.MateriaPriceCnt:
		default:
			return s, entryError{"invalid entry"}
		}
		s.Entries = append(s.Entries, entry)
	}
	return s, nil
}

// Locate finds the shop table by scanning for 80 consecutive well-formed
// records followed by plausible price tables.
func Locate(exe []byte) (int, error) {
	span := tableSize + priceSize
	for off := 0; off+span <= len(exe); off += 4 {
		if plausible(exe[off : off+span]) {
			return off, nil
		}
	}
	return -1, fault.Formatf("", "no shop table found in %d bytes", len(exe))
}

func plausible(raw []byte) bool {
	stocked := 0
	for i := 0; i < schema.ShopTableCount; i++ {
		rec := raw[i*schema.Shop.Size : (i+1)*schema.Shop.Size]
		if schema.Shop.Uint(rec, schema.ShopName) > maxNameIndex {
			return false
		}
		s, err := decodeShop(rec)
		if err != nil {
			return false
		}
		if len(s.Entries) > 0 {
			stocked++
		}
	}
	if stocked < minStocked {
		return false
	}
	for i := 0; i < schema.ItemPriceCount; i++ {
		if binary.LittleEndian.Uint32(raw[tableSize+i*4:]) > 1_000_000 {
			return false
		}
	}
	return true
}

// Category maps the shop-name index to a category tag. Indexes beyond the
// named stores are general stores.
func Category(nameIndex uint16) entity.ShopCategory {
	switch nameIndex {
	case 0:
		return entity.ShopItem
	case 1:
		return entity.ShopWeapon
	case 2:
		return entity.ShopMateria
	default:
		return entity.ShopGeneral
	}
}

// Encode re-emits the table region with the current shop contents. Entry
// slots beyond each shop's count keep their original bytes.
func (t *Table) Encode() []byte {
	l, el := schema.Shop, schema.ShopEntry
	out := append([]byte(nil), t.raw...)
	for i, s := range t.Shops {
		rec := out[i*l.Size : (i+1)*l.Size]
		l.PutUint(rec, schema.ShopName, uint32(s.NameIndex))
		l.PutUint(rec, schema.ShopCount, uint32(len(s.Entries)))
		entries := rec[l.Field(schema.ShopEntries).Offset:]
		for j, e := range s.Entries {
			slot := entries[j*el.Size : (j+1)*el.Size]
			el.PutUint(slot, schema.ShopEntryKind, e.Kind)
			el.PutUint(slot, schema.ShopEntryID, uint32(e.ID))
		}
	}
	return out
}

// Changed reports whether Encode differs from the parsed bytes.
func (t *Table) Changed() bool { return !bytes.Equal(t.Encode(), t.raw) }

// Raw returns the bytes the table was decoded from.
func (t *Table) Raw() []byte { return append([]byte(nil), t.raw...) }
