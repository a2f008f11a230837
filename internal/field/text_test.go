package field

import (
	"testing"

	"github.com/MJE43/goldsaucer/internal/fixture"
)

func decodeText(t *testing.T, code []byte, texts ...string) *File {
	t.Helper()
	f, err := Decode("md1stin", fixture.FieldBody("md1stin", code, texts...))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return f
}

func TestTextTable(t *testing.T) {
	f := decodeText(t, fixture.Script(fixture.Ret()), `Received "Ether"!`, "Hi")
	if n := f.TextCount(); n != 2 {
		t.Fatalf("TextCount() = %d, want 2", n)
	}
	for id, want := range []string{`Received "Ether"!`, "Hi"} {
		if got, ok := f.Text(id); !ok || got != want {
			t.Errorf("Text(%d) = %q, %v, want %q", id, got, ok, want)
		}
	}
	if _, ok := f.Text(2); ok {
		t.Error("Text(2) past the table succeeded")
	}

	bare := decode(t, "md1_1", fixture.Script(fixture.Ret()))
	if bare.TextCount() != 0 || bare.SetText(0, "x") {
		t.Error("field without dialog reports text")
	}
}

func TestSetText(t *testing.T) {
	f := decodeText(t, fixture.Script(fixture.Ret()), `Received "Ether"!`, "Hi")

	if !f.SetText(0, `Received "Megalixir"!`, "Megalixir!") {
		t.Fatal("no variant fit")
	}
	if got, _ := f.Text(0); got != "Megalixir!" {
		t.Errorf("Text(0) = %q, want the variant that fits", got)
	}
	if got, _ := f.Text(1); got != "Hi" {
		t.Errorf("neighbouring text changed to %q", got)
	}
	if f.SetText(1, "Too long") {
		t.Error("SetText wrote past its slot")
	}
	if got, _ := f.Text(1); got != "Hi" {
		t.Errorf("rejected SetText changed the slot to %q", got)
	}
}

func TestMessageNear(t *testing.T) {
	code := fixture.Script(
		fixture.Message(0, 3),
		fixture.Stitm(0x01, 1),
		fixture.Message(0, 4),
		fixture.Stitm(0x02, 1),
		fixture.Ret(),
	)
	f := decodeText(t, code, "a", "b", "c", "d", "e")
	g := f.Grants()
	if len(g) != 2 {
		t.Fatalf("got %d grants", len(g))
	}
	if id, ok := f.MessageNear(g[0].Offset); !ok || id != 3 {
		t.Errorf("MessageNear(first) = %d, %v, want 3", id, ok)
	}
	if id, ok := f.MessageNear(g[1].Offset); !ok || id != 4 {
		t.Errorf("MessageNear(second) = %d, %v, want 4", id, ok)
	}

	none := decodeText(t, fixture.Script(fixture.Stitm(0x01, 1), fixture.Ret()), "a")
	if _, ok := none.MessageNear(none.Grants()[0].Offset); ok {
		t.Error("found a message in a script without one")
	}
}

func TestEncodeText(t *testing.T) {
	got := EncodeText("A é")
	want := []byte{'A' - 0x20, 0, '?' - 0x20}
	if string(got) != string(want) {
		t.Errorf("EncodeText() = %v, want %v", got, want)
	}
}
