package entity

import (
	"math/bits"
	"strings"
)

// Flag is a key-item bit in savemap bank 1.
type Flag struct {
	Addr uint8
	Mask uint8
}

// Bit returns the bit index BITON uses for the flag.
func (f Flag) Bit() uint8 { return uint8(bits.TrailingZeros8(f.Mask)) }

// FlagFromBiton builds the flag a BITON with the given operands sets.
func FlagFromBiton(addr, bit uint8) Flag { return Flag{Addr: addr, Mask: 1 << (bit & 7)} }

// Role groups key items that may trade places in conservative mode.
type Role uint8

const (
	RoleOptional Role = iota + 1
	RoleProgression
	RoleDress
	RoleTiara
	RoleWig
	RoleCorneo
)

var roleNames = [...]string{"", "optional", "progression", "dress", "tiara", "wig", "corneo"}

func (r Role) String() string {
	if int(r) < len(roleNames) {
		return roleNames[r]
	}
	return "role?"
}

// Zone is a coarse story region derived from a field name.
type Zone uint8

const (
	ZoneWorld Zone = iota
	ZoneMidgar
	ZoneMidgarRaid
	ZoneShinraBuilding
	ZoneTempleAndAncients
	ZoneGlacier
	ZoneLateGame
	ZoneWallMarket
	ZoneClimbToShinra
)

var midgarRaidFields = map[string]bool{
	"md8_5": true, "md8_6": true, "md8_b1": true, "md8_b2": true,
	"sbwy4_22": true, "tunnel_4": true, "tunnel_5": true, "md8brdg2": true,
	"md8_32": true, "canon_1": true, "canon_2": true,
}

// ZoneOf classifies a field by its name.
func ZoneOf(field string) Zone {
	n := strings.ToLower(field)
	hasPrefix := func(ps ...string) bool {
		for _, p := range ps {
			if strings.HasPrefix(n, p) {
				return true
			}
		}
		return false
	}
	switch {
	case hasPrefix("blin"):
		return ZoneShinraBuilding
	case hasPrefix("jtmp", "loslake", "ancnt"):
		return ZoneTempleAndAncients
	case hasPrefix("slfrst", "snow", "ice", "icicle", "gaia"):
		return ZoneGlacier
	case hasPrefix("trnad"):
		return ZoneLateGame
	case hasPrefix("mkt", "onna", "mrkt", "colne"):
		return ZoneWallMarket
	case hasPrefix("wcrimb"):
		return ZoneClimbToShinra
	case midgarRaidFields[n]:
		return ZoneMidgarRaid
	case hasPrefix("md"):
		return ZoneMidgar
	default:
		return ZoneWorld
	}
}

var midgarZones = []Zone{ZoneShinraBuilding, ZoneMidgar, ZoneWallMarket}

// KeyItem is a catalog entry.
type KeyItem struct {
	Name string
	Flag Flag
	Role Role

	// Gate is the field the item must be placed at or before, if any.
	Gate string
	// Zones restricts placement to the listed zones when non-empty.
	Zones []Zone
	// After lists items that must not be placed later than this one.
	After []string
}

// Catalog lists every key item the randomizer knows, in flag order.
var Catalog = []KeyItem{
	{Name: "Huge Materia (Blue)", Flag: Flag{66, 64}, Role: RoleOptional},
	{Name: "Huge Materia (Green)", Flag: Flag{66, 16}, Role: RoleOptional},
	{Name: "Huge Materia (Yellow)", Flag: Flag{66, 128}, Role: RoleOptional},
	{Name: "Huge Materia (Red)", Flag: Flag{66, 32}, Role: RoleOptional},
	{Name: "Wig", Flag: Flag{64, 8}, Role: RoleWig},
	{Name: "Cotton Dress", Flag: Flag{64, 1}, Role: RoleDress},
	{Name: "Satin Dress", Flag: Flag{64, 2}, Role: RoleDress},
	{Name: "Silk Dress", Flag: Flag{64, 4}, Role: RoleDress},
	{Name: "Dyed Wig", Flag: Flag{64, 16}, Role: RoleWig},
	{Name: "Blonde Wig", Flag: Flag{64, 32}, Role: RoleWig},
	{Name: "Glass Tiara", Flag: Flag{64, 64}, Role: RoleTiara},
	{Name: "Ruby Tiara", Flag: Flag{64, 128}, Role: RoleTiara},
	{Name: "Diamond Tiara", Flag: Flag{65, 1}, Role: RoleTiara},
	{Name: "Cologne", Flag: Flag{65, 2}, Role: RoleTiara},
	{Name: "Flower Cologne", Flag: Flag{65, 4}, Role: RoleTiara},
	{Name: "Sexy Cologne", Flag: Flag{65, 8}, Role: RoleTiara},
	{Name: "Members Card", Flag: Flag{65, 16}, Role: RoleCorneo},
	{Name: "Lingerie", Flag: Flag{65, 32}, Role: RoleCorneo},
	{Name: "Mystery Panties", Flag: Flag{65, 64}, Role: RoleCorneo},
	{Name: "Bikini Briefs", Flag: Flag{65, 128}, Role: RoleCorneo},
	{Name: "Pharmacy Coupons", Flag: Flag{66, 1}, Role: RoleOptional},
	{Name: "Disinfectant", Flag: Flag{66, 2}, Role: RoleCorneo},
	{Name: "Deoderant", Flag: Flag{66, 4}, Role: RoleCorneo},
	{Name: "Digestive", Flag: Flag{66, 8}, Role: RoleCorneo},
	{Name: "Key to Ancients", Flag: Flag{67, 1}, Role: RoleProgression, Gate: "snw_w", After: []string{"Keystone"}},
	{Name: "Lunar Harp", Flag: Flag{67, 8}, Role: RoleProgression, Gate: "slfrst_1", After: []string{"Key to Ancients"}},
	{Name: "Basement Key", Flag: Flag{67, 16}, Role: RoleOptional},
	{Name: "Key to Sector 5", Flag: Flag{67, 32}, Role: RoleOptional},
	{Name: "Keycard 60", Flag: Flag{67, 64}, Role: RoleProgression, Gate: "blin60_1", Zones: midgarZones},
	{Name: "Keycard 62", Flag: Flag{67, 128}, Role: RoleProgression, Gate: "blin62_1", Zones: midgarZones, After: []string{"Keycard 60"}},
	{Name: "Keycard 65", Flag: Flag{68, 1}, Role: RoleProgression, Gate: "blin63_1", Zones: midgarZones, After: []string{"Keycard 62"}},
	{Name: "Keycard 66", Flag: Flag{68, 2}, Role: RoleProgression, Gate: "blin66_1", Zones: midgarZones, After: []string{"Keycard 65"}},
	{Name: "Keycard 68", Flag: Flag{68, 4}, Role: RoleProgression, Gate: "blin69_1", Zones: midgarZones, After: []string{"Keycard 66"}},
	{Name: "Midgar Part #1", Flag: Flag{68, 8}, Role: RoleProgression, Gate: "blin65_1", Zones: midgarZones},
	{Name: "Midgar Part #2", Flag: Flag{68, 16}, Role: RoleProgression, Gate: "blin65_1", Zones: midgarZones},
	{Name: "Midgar Part #3", Flag: Flag{68, 32}, Role: RoleProgression, Gate: "blin65_1", Zones: midgarZones},
	{Name: "Midgar Part #4", Flag: Flag{68, 64}, Role: RoleProgression, Gate: "blin65_1", Zones: midgarZones},
	{Name: "Midgar Part #5", Flag: Flag{68, 128}, Role: RoleProgression, Gate: "blin65_1", Zones: midgarZones},
	{Name: "PHS", Flag: Flag{69, 1}, Role: RoleOptional},
	{Name: "Gold Ticket", Flag: Flag{69, 2}, Role: RoleOptional},
	{Name: "Keystone", Flag: Flag{69, 4}, Role: RoleProgression, Gate: "jtempl"},
	{Name: "Leviathan Scales", Flag: Flag{69, 8}, Role: RoleOptional},
	{Name: "Glacier Map", Flag: Flag{69, 16}, Role: RoleProgression, Gate: "hyou1", After: []string{"Lunar Harp"}},
	{Name: "A Coupon", Flag: Flag{69, 32}, Role: RoleOptional},
	{Name: "B Coupon", Flag: Flag{69, 64}, Role: RoleOptional},
	{Name: "C Coupon", Flag: Flag{69, 128}, Role: RoleOptional},
	{Name: "Black Materia", Flag: Flag{70, 1}, Role: RoleProgression, Gate: "trnad_1", After: []string{"Keystone"}},
	{Name: "Mythril", Flag: Flag{70, 2}, Role: RoleOptional},
	{Name: "Snowboard", Flag: Flag{70, 4}, Role: RoleProgression, Gate: "hyou1", After: []string{"Lunar Harp"}},
}

var catalogByFlag = func() map[Flag]*KeyItem {
	m := make(map[Flag]*KeyItem, len(Catalog))
	for i := range Catalog {
		m[Catalog[i].Flag] = &Catalog[i]
	}
	return m
}()

var catalogByName = func() map[string]*KeyItem {
	m := make(map[string]*KeyItem, len(Catalog))
	for i := range Catalog {
		m[Catalog[i].Name] = &Catalog[i]
	}
	return m
}()

// LookupFlag returns the catalog entry for f, or nil.
func LookupFlag(f Flag) *KeyItem { return catalogByFlag[f] }

// LookupKeyItem returns the catalog entry with the given name, or nil.
func LookupKeyItem(name string) *KeyItem { return catalogByName[name] }

// AllowedIn reports whether k may be granted in the named field.
func (k *KeyItem) AllowedIn(field string) bool {
	if len(k.Zones) == 0 {
		return true
	}
	z := ZoneOf(field)
	for _, allowed := range k.Zones {
		if z == allowed {
			return true
		}
	}
	return false
}
