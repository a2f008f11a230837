package extract

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/MJE43/goldsaucer/internal/fault"
)

// Paths are the resolved input files. Flevel, Exe and Hext are empty when
// not found.
type Paths struct {
	Kernel string
	Scene  string
	Flevel string
	Exe    string
	Hext   string
}

var (
	kernelDirs = []string{"kernel", "lang-en/kernel", "data/lang-en/kernel", "data/kernel"}
	sceneDirs  = []string{"battle", "lang-en/battle", "data/battle", "data/lang-en/battle"}
	flevelDirs = []string{"field", "data/field"}
	exeNames   = []string{"ff7_en.exe", "ff7.exe", "data/ff7_en.exe", "data/ff7.exe"}
)

// HextPath is where the shop patch lives relative to a game or output root.
const HextPath = "hext/ff7/en/shops.hext"

// Locate resolves the input files under root. A missing kernel or scene
// file is an IOError.
func Locate(root string) (Paths, error) {
	var p Paths
	info, err := os.Stat(root)
	if err != nil {
		return p, fault.IO("stat", root, err)
	}
	if !info.IsDir() {
		return p, fault.IO("stat", root, errors.New("not a directory"))
	}

	if p.Kernel = first(root, kernelDirs, "KERNEL.BIN"); p.Kernel == "" {
		return p, fault.IO("open", filepath.Join(root, "kernel", "KERNEL.BIN"), fs.ErrNotExist)
	}
	if p.Scene = first(root, sceneDirs, "scene.bin"); p.Scene == "" {
		return p, fault.IO("open", filepath.Join(root, "battle", "scene.bin"), fs.ErrNotExist)
	}
	p.Flevel = first(root, flevelDirs, "flevel.lgp")
	p.Exe = first(root, exeNames, "")
	p.Hext = first(root, []string{HextPath}, "")
	return p, nil
}

func first(root string, dirs []string, name string) string {
	for _, d := range dirs {
		p := filepath.Join(root, filepath.FromSlash(d), name)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p
		}
	}
	return ""
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fault.IO("read", path, err)
	}
	return data, nil
}
