package entity

import "testing"

func TestKindOf(t *testing.T) {
	tests := []struct {
		id    ID
		kind  Kind
		index int
		name  string
	}{
		{0x000, KindConsumable, 0, "Potion"},
		{0x007, KindConsumable, 7, "Phoenix Down"},
		{0x080, KindWeapon, 0, "Buster Sword"},
		{0x100, KindArmor, 0, "Bronze Bangle"},
		{0x120, KindAccessory, 0, "Power Wrist"},
		{0x140, KindMateria, 0, "MP Plus"},
		{MateriaBase + MateriaCount - 1, KindMateria, 90, "Master Summon"},
		{MateriaBase + MateriaCount, KindNone, -1, "#19B"},
		{Empty, KindNone, -1, "#FFFF"},
	}

	for _, tt := range tests {
		if got := KindOf(tt.id); got != tt.kind {
			t.Errorf("KindOf(%#x) = %v, want %v", uint16(tt.id), got, tt.kind)
		}
		if got := tt.id.Index(); got != tt.index {
			t.Errorf("%#x.Index() = %d, want %d", uint16(tt.id), got, tt.index)
		}
		if got := tt.id.Name(); got != tt.name {
			t.Errorf("%#x.Name() = %q, want %q", uint16(tt.id), got, tt.name)
		}
	}
}

func TestUnused(t *testing.T) {
	tests := []struct {
		id   ID
		want bool
	}{
		{0x068, false},
		{0x069, true},
		{0x07F, true},
		{0x080, false},
		{0x13F, false},
		{MateriaID(0x16), true},
		{MateriaID(0x17), false},
		{Empty, false},
	}
	for _, tt := range tests {
		if got := tt.id.Unused(); got != tt.want {
			t.Errorf("%v.Unused() = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{KindConsumable, KindWeapon, KindArmor, KindAccessory, KindMateria} {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), got, err)
		}
	}
	if _, err := ParseKind("none"); err == nil {
		t.Error("ParseKind(none) should fail")
	}
}

func TestShopCategoryAllows(t *testing.T) {
	tests := []struct {
		cat  ShopCategory
		kind Kind
		want bool
	}{
		{ShopItem, KindConsumable, true},
		{ShopItem, KindWeapon, false},
		{ShopWeapon, KindArmor, true},
		{ShopWeapon, KindAccessory, true},
		{ShopWeapon, KindMateria, false},
		{ShopMateria, KindMateria, true},
		{ShopMateria, KindConsumable, false},
		{ShopGeneral, KindMateria, true},
		{ShopGeneral, KindNone, false},
	}
	for _, tt := range tests {
		if got := tt.cat.Allows(tt.kind); got != tt.want {
			t.Errorf("%v.Allows(%v) = %v, want %v", tt.cat, tt.kind, got, tt.want)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := &Set{
		Items:    []Item{{ID: WeaponBase, Kind: KindWeapon, Slots: []byte{1, 2}, StatTypes: []byte{0xFF}}},
		Shops:    []Shop{{Entries: []ID{1, 2}}},
		KeyItems: []KeyLocation{{Field: "md1_1", Offsets: []int{10}}},
		Enemies:  []Enemy{{Key: "s0000.0"}},
	}
	c := s.Clone()
	c.Items[0].Slots[0] = 9
	c.Items[0].StatTypes[0] = 0
	c.Shops[0].Entries[0] = 7
	c.KeyItems[0].Offsets[0] = 99
	c.Enemies[0].Key = "x"

	if s.Items[0].Slots[0] != 1 || s.Items[0].StatTypes[0] != 0xFF {
		t.Error("item slices shared with clone")
	}
	if s.Shops[0].Entries[0] != 1 {
		t.Error("shop entries shared with clone")
	}
	if s.KeyItems[0].Offsets[0] != 10 {
		t.Error("key item offsets shared with clone")
	}
	if s.Enemies[0].Key != "s0000.0" {
		t.Error("enemies shared with clone")
	}
}

func TestZoneOf(t *testing.T) {
	tests := map[string]Zone{
		"blin60_1": ZoneShinraBuilding,
		"jtmpin1":  ZoneTempleAndAncients,
		"ancnt3":   ZoneTempleAndAncients,
		"slfrst_1": ZoneGlacier,
		"icicle_1": ZoneGlacier,
		"trnad_1":  ZoneLateGame,
		"onna_1":   ZoneWallMarket,
		"wcrimb_2": ZoneClimbToShinra,
		"md8_b1":   ZoneMidgarRaid,
		"MD1_1":    ZoneMidgar,
		"nibel":    ZoneWorld,
	}
	for name, want := range tests {
		if got := ZoneOf(name); got != want {
			t.Errorf("ZoneOf(%q) = %d, want %d", name, got, want)
		}
	}
}

func TestCatalog(t *testing.T) {
	seen := map[Flag]string{}
	for _, k := range Catalog {
		if prev, dup := seen[k.Flag]; dup {
			t.Errorf("%s and %s share flag %+v", prev, k.Name, k.Flag)
		}
		seen[k.Flag] = k.Name

		if got := FlagFromBiton(k.Flag.Addr, k.Flag.Bit()); got != k.Flag {
			t.Errorf("%s: BITON round trip = %+v", k.Name, got)
		}
		for _, a := range k.After {
			if LookupKeyItem(a) == nil {
				t.Errorf("%s: unknown predecessor %q", k.Name, a)
			}
		}
	}

	if k := LookupFlag(Flag{67, 64}); k == nil || k.Name != "Keycard 60" {
		t.Errorf("LookupFlag(67,64) = %+v", k)
	}
	if !LookupKeyItem("Keycard 62").AllowedIn("mkt_w") {
		t.Error("Keycard 62 rejected in Wall Market")
	}
	if LookupKeyItem("Keycard 62").AllowedIn("jtempl") {
		t.Error("Keycard 62 allowed outside Midgar")
	}
	if !LookupKeyItem("PHS").AllowedIn("anywhere") {
		t.Error("unrestricted item rejected")
	}
}
