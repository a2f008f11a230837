package rules

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/MJE43/goldsaucer/internal/engine"
	"github.com/MJE43/goldsaucer/internal/entity"
)

func parseSeed(t *testing.T, raw string) engine.Seed {
	t.Helper()
	seed, err := engine.ParseSeed(raw)
	if err != nil {
		t.Fatal(err)
	}
	return seed
}

func testSeed(t *testing.T) engine.Seed { return parseSeed(t, "12345") }

func TestAllow(t *testing.T) {
	s, err := Compile(`
		function allow(item) {
			if (item.kind === KIND.ACCESSORY) return false;
			return item.price < 1000 && item.name !== "Elixir";
		}
	`, testSeed(t), nil)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	tests := []struct {
		c    Candidate
		want bool
	}{
		{Candidate{ID: 0, Name: "Potion", Kind: entity.KindConsumable, Price: 50}, true},
		{Candidate{ID: 0x0A, Name: "Elixir", Kind: entity.KindConsumable, Price: 50}, false},
		{Candidate{ID: 0x80, Name: "Buster Sword", Kind: entity.KindWeapon, Price: 5000}, false},
		{Candidate{ID: 0x120, Name: "Power Wrist", Kind: entity.KindAccessory, Price: 10}, false},
	}
	for _, tt := range tests {
		got, err := s.Allow(tt.c)
		if err != nil {
			t.Fatalf("Allow(%s) error = %v", tt.c.Name, err)
		}
		if got != tt.want {
			t.Errorf("Allow(%s) = %v, want %v", tt.c.Name, got, tt.want)
		}
	}
}

func TestTable(t *testing.T) {
	set := &entity.Set{
		Items:   []entity.Item{{ID: 0, Kind: entity.KindConsumable, Price: 10}, {ID: 1, Kind: entity.KindConsumable, Price: 900}},
		Materia: []entity.Materia{{ID: entity.MateriaID(0), Price: 10}},
	}
	s, err := Compile(`allow = (item) => item.price < 100`, testSeed(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.Table(set)
	if err != nil {
		t.Fatal(err)
	}
	if !got[0] || got[1] || !got[entity.MateriaID(0)] {
		t.Errorf("Table() = %v", got)
	}
}

func TestSandbox(t *testing.T) {
	for _, src := range []string{
		`require("fs"); function allow() { return true }`,
		`eval("1"); function allow() { return true }`,
		`new Function("return 1")(); function allow() { return true }`,
	} {
		if _, err := Compile(src, testSeed(t), nil); err == nil {
			t.Errorf("Compile(%q) succeeded", src)
		}
	}
}

func TestCompileErrors(t *testing.T) {
	for _, src := range []string{"allow = 3", "function (", "let x = 1"} {
		if _, err := Compile(src, testSeed(t), nil); err == nil {
			t.Errorf("Compile(%q) succeeded", src)
		}
	}
}

func TestRunawayScript(t *testing.T) {
	s, err := Compile(`function allow(item) { while (true) {} }`, testSeed(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.Allow(Candidate{Name: "Potion", Kind: entity.KindConsumable})
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Errorf("Allow() error = %v, want timeout", err)
	}
	if _, err := s.runtime.RunString("1 + 1"); err != nil {
		t.Errorf("runtime still interrupted after timeout: %v", err)
	}
}

func randomSet() *entity.Set {
	set := &entity.Set{}
	for i := 0; i < 128; i++ {
		set.Items = append(set.Items, entity.Item{ID: entity.ID(i), Kind: entity.KindConsumable})
	}
	return set
}

func TestMathRandomFollowsSeed(t *testing.T) {
	const src = `function allow(i) { return Math.random() < 0.5 }`
	table := func(raw string) map[entity.ID]bool {
		s, err := Compile(src, parseSeed(t, raw), nil)
		if err != nil {
			t.Fatal(err)
		}
		got, err := s.Table(randomSet())
		if err != nil {
			t.Fatal(err)
		}
		return got
	}

	first := table("12345")
	for i := 0; i < 3; i++ {
		if got := table("12345"); !reflect.DeepEqual(got, first) {
			t.Fatalf("load %d allowed %d items, first load allowed %d", i, len(got), len(first))
		}
	}
	if len(first) == 0 || len(first) == 128 {
		t.Errorf("allowed %d of 128 items, want a mix", len(first))
	}
	if reflect.DeepEqual(table("54321"), first) {
		t.Error("another seed gave the same table")
	}
}

func TestDateIsFixed(t *testing.T) {
	s, err := Compile(`var now = Date.now(); function allow(i) { return true }`, testSeed(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := s.runtime.Get("now").ToInteger(), scriptEpoch.UnixMilli(); got != want {
		t.Errorf("Date.now() = %d, want %d", got, want)
	}
}

func TestLogAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.js")
	src := `function allow(item) { console.log("saw", item.name); return true }`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	s, err := Load(path, testSeed(t), log.New(&buf, "", 0))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Allow(Candidate{Name: "Ether", Kind: entity.KindConsumable}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "script: saw Ether") {
		t.Errorf("log output = %q", buf.String())
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.js"), testSeed(t), nil); err == nil {
		t.Error("Load of a missing file succeeded")
	}
}
