package compile

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/MJE43/goldsaucer/internal/engine"
	"github.com/MJE43/goldsaucer/internal/entity"
	"github.com/MJE43/goldsaucer/internal/extract"
	"github.com/MJE43/goldsaucer/internal/fault"
	"github.com/MJE43/goldsaucer/internal/field"
	"github.com/MJE43/goldsaucer/internal/fixture"
	"github.com/MJE43/goldsaucer/internal/lgp"
	"github.com/MJE43/goldsaucer/internal/randomize"
	"github.com/MJE43/goldsaucer/internal/shops"
)

func extractDir(t *testing.T, dir string) *extract.Result {
	t.Helper()
	paths, err := extract.Locate(dir)
	if err != nil {
		t.Fatalf("Locate(%s) error = %v", dir, err)
	}
	res, err := extract.Extract(context.Background(), paths, extract.Options{})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	return res
}

func baseline(t *testing.T) *extract.Result {
	t.Helper()
	dir := t.TempDir()
	if err := fixture.Baseline().Write(dir); err != nil {
		t.Fatal(err)
	}
	return extractDir(t, dir)
}

func randomized(t *testing.T, res *extract.Result, seed string) *entity.Set {
	t.Helper()
	s, err := engine.ParseSeed(seed)
	if err != nil {
		t.Fatal(err)
	}
	cfg := randomize.Config{Enemy: true, Items: true, Materia: true, KeyItems: true, Shops: true, StartingEquipment: true}
	out, err := randomize.New(s, cfg, nil).Run(context.Background(), res.Set)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return out.Set
}

func readOut(t *testing.T, root, rel string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestCompileIdentity(t *testing.T) {
	res := baseline(t)
	dest := t.TempDir()
	out, err := Compile(context.Background(), res.Sources, res.Set, res.Set, Options{Dest: dest, Seed: "1"})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	for rel, want := range map[string][]byte{
		KernelOut: res.Sources.Kernel,
		SceneOut:  res.Sources.Scene,
		FlevelOut: res.Sources.Flevel,
	} {
		if !bytes.Equal(readOut(t, out.Root, rel), want) {
			t.Errorf("%s is not a byte-identical copy", rel)
		}
	}
	if _, err := os.Stat(filepath.Join(out.Root, filepath.FromSlash(HextOut))); !os.IsNotExist(err) {
		t.Errorf("unchanged shops without an input patch wrote %s", HextOut)
	}
	entries, err := os.ReadDir(dest)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != RootName("1") {
		t.Errorf("Dest holds %v, want only the run root", entries)
	}
}

func TestCompileRoundTrip(t *testing.T) {
	res := baseline(t)
	final := randomized(t, res, "12345")
	dest := t.TempDir()
	spoiler := NewSpoiler("12345", nil, nil, false, res.Set, final)
	out, err := Compile(context.Background(), res.Sources, res.Set, final,
		Options{Dest: dest, Seed: "12345", Spoiler: spoiler})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	// The output tree carries no executable; the patch applies to the
	// original one.
	if err := os.WriteFile(filepath.Join(out.Root, fixture.ExePath), res.Sources.Exe, 0o644); err != nil {
		t.Fatal(err)
	}
	again := extractDir(t, out.Root)
	got := again.Set

	if err := randomize.CheckCounts("roundtrip", res.Set, got); err != nil {
		t.Errorf("counts: %v", err)
	}
	for name, pair := range map[string][2]any{
		"pickups":       {final.Pickups, got.Pickups},
		"materia slots": {final.MateriaSlots, got.MateriaSlots},
		"key items":     {final.KeyItems, got.KeyItems},
		"shops":         {final.Shops, got.Shops},
		"characters":    {final.Characters, got.Characters},
		"items":         {final.Items, got.Items},
		"fields":        {final.Fields, got.Fields},
	} {
		if !reflect.DeepEqual(pair[0], pair[1]) {
			t.Errorf("%s differ after round trip", name)
		}
	}
	for i, e := range got.Enemies {
		want := final.Enemies[i]
		if e.Key != want.Key || e.Stats != want.Stats || e.Drops != want.Drops || e.Morph != want.Morph {
			t.Errorf("enemy %s differs after round trip", want.Key)
		}
	}
	if len(again.Sources.Kernel) == 0 || len(again.Sources.Flevel) == 0 {
		t.Error("output files are empty")
	}

	var sp Spoiler
	if err := json.Unmarshal(readOut(t, out.Root, SpoilerOut), &sp); err != nil {
		t.Fatalf("spoiler.json: %v", err)
	}
	if sp.Seed != "12345" {
		t.Errorf("spoiler seed = %q", sp.Seed)
	}

	// Compiling the randomized tree again with nothing changed reuses the
	// patch it found.
	dest2 := t.TempDir()
	out2, err := Compile(context.Background(), again.Sources, again.Set, again.Set, Options{Dest: dest2, Seed: "again"})
	if err != nil {
		t.Fatalf("second Compile() error = %v", err)
	}
	if !bytes.Equal(readOut(t, out2.Root, HextOut), readOut(t, out.Root, HextOut)) {
		t.Error("unchanged shops did not reuse the input patch")
	}
}

func TestCompileReplacesExistingRoot(t *testing.T) {
	res := baseline(t)
	dest := t.TempDir()
	stale := filepath.Join(dest, RootName("7"), "stale.txt")
	if err := os.MkdirAll(filepath.Dir(stale), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := Compile(context.Background(), res.Sources, res.Set, res.Set, Options{Dest: dest, Seed: "7"})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("previous run contents survived")
	}
	if _, err := os.Stat(filepath.Join(out.Root, filepath.FromSlash(KernelOut))); err != nil {
		t.Errorf("kernel missing: %v", err)
	}
	entries, _ := os.ReadDir(dest)
	if len(entries) != 1 {
		t.Errorf("Dest holds %d entries, want 1", len(entries))
	}
}

func TestCompileFailureLeavesNothing(t *testing.T) {
	res := baseline(t)
	src := *res.Sources
	src.Scene = []byte{1, 2, 3}
	dest := t.TempDir()
	_, err := Compile(context.Background(), &src, res.Set, res.Set, Options{Dest: dest, Seed: "1"})
	if !fault.IsFormat(err) {
		t.Fatalf("Compile() error = %v, want FormatError", err)
	}
	entries, err := os.ReadDir(dest)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("failed compile left %d entries in Dest", len(entries))
	}
}

func TestCompileCanceled(t *testing.T) {
	res := baseline(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dest := t.TempDir()
	if _, err := Compile(ctx, res.Sources, res.Set, res.Set, Options{Dest: dest, Seed: "1"}); err == nil {
		t.Fatal("Compile() on a canceled context succeeded")
	}
	if entries, _ := os.ReadDir(dest); len(entries) != 0 {
		t.Errorf("canceled compile left %d entries", len(entries))
	}
}

func TestRootName(t *testing.T) {
	tests := map[string]string{
		"12345":      "GoldSaucer_12345",
		"cloud/tifa": "GoldSaucer_cloud_tifa",
		"a b.c":      "GoldSaucer_a_b.c",
	}
	for in, want := range tests {
		if got := RootName(in); got != want {
			t.Errorf("RootName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewSpoiler(t *testing.T) {
	res := baseline(t)
	base := res.Set
	final := base.Clone()
	final.Pickups[0].Item = 0x7F
	final.Shops[0].Entries[0] = 0x0B

	sp := NewSpoiler("s", []string{"items"}, map[string]int{"items": 2}, true, base, final)
	if len(sp.Pickups) != 1 || sp.Pickups[0].After != entity.ID(0x7F).Name() {
		t.Errorf("Pickups = %+v", sp.Pickups)
	}
	if len(sp.Shops) != 1 || sp.Shops[0].Index != 0 {
		t.Errorf("Shops = %+v", sp.Shops)
	}
	if len(sp.Enemies) != 0 || len(sp.Materia) != 0 || len(sp.KeyItems) != 0 {
		t.Error("unchanged categories listed")
	}
	data, err := sp.JSON()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte(`"statScaling": true`)) {
		t.Errorf("JSON missing statScaling: %s", data)
	}
}

func TestHextKeepsForeignLines(t *testing.T) {
	res := baseline(t)
	final := randomized(t, res, "12345")

	img, err := shops.OpenImage(res.Sources.Exe)
	if err != nil {
		t.Fatal(err)
	}
	inside, err := img.VA(res.Sources.ShopOffset + 4)
	if err != nil {
		t.Fatal(err)
	}
	foreign := shops.Patch{Addr: 0x00401000, Data: []byte{0x90, 0x90}}
	src := *res.Sources
	src.Hext = []shops.Patch{foreign, {Addr: inside, Data: []byte{0x01}}}

	data, err := Hext(&src, final, nil)
	if err != nil {
		t.Fatalf("Hext() error = %v", err)
	}
	patches, err := shops.ParseHext(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if len(patches) < 2 {
		t.Fatalf("got %d patches, want the carried line plus shop lines", len(patches))
	}
	if !reflect.DeepEqual(patches[0], foreign) {
		t.Fatalf("first patch = %+v, want the carried line %+v", patches[0], foreign)
	}
	for _, p := range patches[1:] {
		if p.Addr == inside && bytes.Equal(p.Data, []byte{0x01}) {
			t.Error("input line inside the shop records was carried over")
		}
	}
}

func fieldText(t *testing.T, flevel []byte, name string, id int) string {
	t.Helper()
	a, err := lgp.Parse(flevel)
	if err != nil {
		t.Fatal(err)
	}
	e := a.Lookup(name)
	if e == nil {
		t.Fatalf("field %s missing", name)
	}
	f, err := field.Decode(e.Name, e.Body)
	if err != nil {
		t.Fatal(err)
	}
	text, ok := f.Text(id)
	if !ok {
		t.Fatalf("%s has no text %d", name, id)
	}
	return text
}

func TestFlevelRewritesMessages(t *testing.T) {
	res := baseline(t)
	base := res.Set
	final := base.Clone()
	for i, p := range final.Pickups {
		if p.Field == "md1stin" && p.Item == 0x00 {
			final.Pickups[i].Item = entity.WeaponBase
		}
	}
	for i, k := range final.KeyItems {
		if k.Field == "md8_3" {
			final.KeyItems[i].Flag = entity.Flag{Addr: 69, Mask: 1}
		}
	}

	data, err := Flevel(res.Sources, base, final)
	if err != nil {
		t.Fatalf("Flevel() error = %v", err)
	}
	tests := []struct {
		field string
		id    int
		want  string
	}{
		// The quoted form is too long for the Potion slot.
		{"md1stin", 0, "Buster Sword!"},
		{"md1stin", 1, `Received "Fire"!`},
		{"md8_3", 0, `Received "PHS"!`},
	}
	for _, tt := range tests {
		if got := fieldText(t, data, tt.field, tt.id); got != tt.want {
			t.Errorf("%s text %d = %q, want %q", tt.field, tt.id, got, tt.want)
		}
	}

	same, err := Flevel(res.Sources, base, base)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(same, res.Sources.Flevel) {
		t.Error("unchanged grants rewrote the archive")
	}
}

func TestKernelRejectsEquipmentOutsideTables(t *testing.T) {
	res := baseline(t)
	for _, tc := range []struct {
		name string
		edit func(c *entity.Character)
	}{
		{"weapon", func(c *entity.Character) { c.Weapon = entity.WeaponCount }},
		{"armor", func(c *entity.Character) { c.Armor = 0x40 }},
		{"accessory", func(c *entity.Character) { c.Accessory = entity.AccessoryCount }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			set := res.Set.Clone()
			tc.edit(&set.Characters[0])
			if _, err := Kernel(res.Sources, set); !fault.IsFormat(err) {
				t.Fatalf("Kernel() error = %v, want FormatError", err)
			}
		})
	}

	set := res.Set.Clone()
	set.Characters[0].Accessory = entity.NoAccessory
	if _, err := Kernel(res.Sources, set); err != nil {
		t.Fatalf("Kernel() with no accessory error = %v", err)
	}
}
