// Package compile writes a randomized entity set back into the original
// file formats and promotes the result into place in one rename.
package compile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/MJE43/goldsaucer/internal/entity"
	"github.com/MJE43/goldsaucer/internal/extract"
	"github.com/MJE43/goldsaucer/internal/fault"
)

// Output locations relative to the run root.
const (
	KernelOut  = "data/lang-en/kernel/KERNEL.BIN"
	SceneOut   = "data/lang-en/battle/scene.bin"
	FlevelOut  = "data/field/flevel.lgp"
	HextOut    = extract.HextPath
	SpoilerOut = "spoiler.json"
)

// Options control where and how a run is written.
type Options struct {
	// Dest is the directory the run root is created in.
	Dest    string
	Seed    string
	Spoiler *Spoiler
	Logger  *log.Logger
}

// Output describes a promoted run.
type Output struct {
	Root  string
	Files []string
}

// RootName returns the run directory name for a seed.
func RootName(seed string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, seed)
	return "GoldSaucer_" + clean
}

type artifact struct {
	rel   string
	build func() ([]byte, error)
}

// Compile encodes final against the raw sources, writes every file into a
// staging directory next to the destination and renames it into place once
// all of them succeed. On error nothing is left in Dest.
func Compile(ctx context.Context, src *extract.Sources, base, final *entity.Set, opts Options) (*Output, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if err := os.MkdirAll(opts.Dest, 0o755); err != nil {
		return nil, fault.IO("mkdir", opts.Dest, err)
	}

	arts := []artifact{
		{KernelOut, func() ([]byte, error) { return Kernel(src, final) }},
		{SceneOut, func() ([]byte, error) { return Scene(src, final) }},
	}
	if src.Flevel != nil {
		arts = append(arts, artifact{FlevelOut, func() ([]byte, error) { return Flevel(src, base, final) }})
	}
	if src.Exe != nil {
		if data, ok, err := hextArtifact(src, base, final, opts.Seed); err != nil {
			return nil, err
		} else if ok {
			arts = append(arts, artifact{HextOut, func() ([]byte, error) { return data, nil }})
		}
	}
	if opts.Spoiler != nil {
		arts = append(arts, artifact{SpoilerOut, opts.Spoiler.JSON})
	}

	staging, err := os.MkdirTemp(opts.Dest, ".goldsaucer-*")
	if err != nil {
		return nil, fault.IO("mkdir", opts.Dest, err)
	}
	promoted := false
	defer func() {
		if !promoted {
			_ = os.RemoveAll(staging)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	for _, a := range arts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := a.build()
			if err != nil {
				return err
			}
			logger.Printf("%s: %d bytes", a.rel, len(data))
			return writeFile(filepath.Join(staging, filepath.FromSlash(a.rel)), data)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root := filepath.Join(opts.Dest, RootName(opts.Seed))
	if err := promote(staging, root); err != nil {
		return nil, err
	}
	promoted = true

	out := &Output{Root: root}
	for _, a := range arts {
		out.Files = append(out.Files, a.rel)
	}
	logger.Printf("promoted %d files to %s", len(out.Files), root)
	return out, nil
}

// hextArtifact decides what to write for the shop patch. An unchanged shop
// table reuses the input patch verbatim, or writes nothing when there was
// none.
func hextArtifact(src *extract.Sources, base, final *entity.Set, seed string) ([]byte, bool, error) {
	if reflect.DeepEqual(base.Shops, final.Shops) {
		if src.Paths.Hext == "" {
			return nil, false, nil
		}
		data, err := os.ReadFile(src.Paths.Hext)
		if err != nil {
			return nil, false, fault.IO("read", src.Paths.Hext, err)
		}
		return data, true, nil
	}
	data, err := Hext(src, final, []string{"GoldSaucer shop patch", "seed " + seed})
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fault.IO("mkdir", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fault.IO("write", path, err)
	}
	return nil
}

// promote renames staging to root. An existing root is moved aside first
// and removed only after the new tree is in place.
func promote(staging, root string) error {
	old := ""
	if _, err := os.Stat(root); err == nil {
		old = staging + ".old"
		if err := os.Rename(root, old); err != nil {
			return fault.IO("rename", root, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fault.IO("stat", root, err)
	}

	if err := os.Rename(staging, root); err != nil {
		if old != "" {
			_ = os.Rename(old, root)
		}
		return fault.IO("rename", staging, err)
	}
	if old != "" {
		if err := os.RemoveAll(old); err != nil {
			return fault.IO("remove", old, fmt.Errorf("previous run: %w", err))
		}
	}
	return nil
}
