package fault

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"format", Formatf("KERNEL.BIN", "bad"), ExitFormat},
		{"wrapped format", fmt.Errorf("extract: %w", FormatAt("scene.bin", 0x10, "short")), ExitFormat},
		{"constraint", Violation("shops", InvShopStock, "shop 3 empty"), ExitConstraint},
		{"io", IO("read", "/x", os.ErrNotExist), ExitIO},
		{"other", errors.New("boom"), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestIOErrorUnwrap(t *testing.T) {
	err := IO("open", "/missing", os.ErrNotExist)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected IOError to unwrap to os.ErrNotExist")
	}
	if IO("open", "/x", nil) != nil {
		t.Errorf("IO with nil error should return nil")
	}
}

func TestWithPath(t *testing.T) {
	err := fmt.Errorf("decode: %w", FormatAt("", 4, "truncated"))
	got := WithPath(err, "battle/scene.bin")

	var fe *FormatError
	if !errors.As(got, &fe) {
		t.Fatalf("expected FormatError, got %v", got)
	}
	if fe.Path != "battle/scene.bin" {
		t.Errorf("Path = %q, want battle/scene.bin", fe.Path)
	}
	if !strings.Contains(got.Error(), "0x4") {
		t.Errorf("error %q should carry the offset", got.Error())
	}
}

func TestConstraintViolationMessage(t *testing.T) {
	cv := &ConstraintViolation{Category: "enemy", Invariant: InvObtainable, Attempts: 100, Detail: "item 0x12"}
	msg := cv.Error()
	for _, want := range []string{"enemy", InvObtainable, "100"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}
