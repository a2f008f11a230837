// Package config loads run settings from GOLDSAUCER_* environment variables.
// The CLI layers its flags on top.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"go.uber.org/multierr"

	"github.com/MJE43/goldsaucer/internal/entity"
	"github.com/MJE43/goldsaucer/internal/randomize"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "GOLDSAUCER_"

// Settings is the full configuration surface of a run.
type Settings struct {
	Source string `env:"SOURCE" json:"-"`
	Dest   string `env:"DEST" envDefault:"." json:"-"`
	Seed   string `env:"SEED" json:"seed"`

	Enemy             bool `env:"ENEMY" json:"enemy"`
	Items             bool `env:"ITEMS" json:"items"`
	Materia           bool `env:"MATERIA" json:"materia"`
	KeyItems          bool `env:"KEY_ITEMS" json:"keyItems"`
	Shops             bool `env:"SHOPS" json:"shops"`
	StatScaling       bool `env:"STAT_SCALING" json:"statScaling"`
	FullLogicKeyItems bool `env:"FULL_LOGIC_KEY_ITEMS" json:"fullLogicKeyItems"`
	StartingEquipment bool `env:"STARTING_EQUIPMENT" json:"startingEquipment"`

	DuplicatePolicy     string   `env:"DUPLICATE_POLICY" envDefault:"allow" json:"duplicatePolicy"`
	DropKinds           []string `env:"DROP_KINDS" envSeparator:"," json:"dropKinds,omitempty"`
	ExcludeItems        []string `env:"EXCLUDE_ITEMS" envSeparator:"," json:"excludeItems,omitempty"`
	LooseShopCategories bool     `env:"LOOSE_SHOP_CATEGORIES" json:"looseShopCategories"`
	RulesScript         string   `env:"RULES_SCRIPT" json:"rulesScript,omitempty"`
	ShopTableOffset     int      `env:"SHOP_TABLE_OFFSET" json:"shopTableOffset,omitempty"`
	MaxAttempts         int      `env:"MAX_ATTEMPTS" json:"maxAttempts,omitempty"`

	DBPath  string `env:"DB_PATH" json:"-"`
	Workers int    `env:"WORKERS" json:"-"`
	Spoiler bool   `env:"SPOILER" envDefault:"true" json:"-"`
	Verbose bool   `env:"VERBOSE" json:"-"`
}

// Load reads settings from the process environment.
func Load() (Settings, error) {
	return parse(env.Options{Prefix: EnvPrefix})
}

// LoadFrom reads settings from environ instead of the process environment.
// Keys carry the prefix.
func LoadFrom(environ map[string]string) (Settings, error) {
	return parse(env.Options{Prefix: EnvPrefix, Environment: environ})
}

func parse(opts env.Options) (Settings, error) {
	var s Settings
	if err := env.ParseWithOptions(&s, opts); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}
	return s, nil
}

// Validate reports every problem with s at once.
func (s Settings) Validate() error {
	var err error
	if strings.TrimSpace(s.Source) == "" {
		err = multierr.Append(err, errors.New("source directory is required"))
	}
	if strings.TrimSpace(s.Dest) == "" {
		err = multierr.Append(err, errors.New("destination directory is required"))
	}
	if strings.TrimSpace(s.Seed) == "" {
		err = multierr.Append(err, errors.New("seed is required"))
	}
	if _, perr := randomize.ParseDuplicatePolicy(s.DuplicatePolicy); perr != nil {
		err = multierr.Append(err, perr)
	}
	if _, perr := s.dropKinds(); perr != nil {
		err = multierr.Append(err, perr)
	}
	if _, perr := s.excludeItems(); perr != nil {
		err = multierr.Append(err, perr)
	}
	if s.ShopTableOffset < 0 {
		err = multierr.Append(err, fmt.Errorf("shop table offset %d is negative", s.ShopTableOffset))
	}
	if s.Workers < 0 {
		err = multierr.Append(err, fmt.Errorf("workers %d is negative", s.Workers))
	}
	if s.MaxAttempts < 0 {
		err = multierr.Append(err, fmt.Errorf("max attempts %d is negative", s.MaxAttempts))
	}
	return err
}

// Randomize converts s into the engine configuration. The rules script is
// loaded separately.
func (s Settings) Randomize() (randomize.Config, error) {
	policy, err := randomize.ParseDuplicatePolicy(s.DuplicatePolicy)
	if err != nil {
		return randomize.Config{}, err
	}
	kinds, err := s.dropKinds()
	if err != nil {
		return randomize.Config{}, err
	}
	exclude, err := s.excludeItems()
	if err != nil {
		return randomize.Config{}, err
	}
	return randomize.Config{
		Enemy:               s.Enemy,
		Items:               s.Items,
		Materia:             s.Materia,
		KeyItems:            s.KeyItems,
		Shops:               s.Shops,
		FullLogicKeyItems:   s.FullLogicKeyItems,
		StartingEquipment:   s.StartingEquipment,
		LooseShopCategories: s.LooseShopCategories,
		DuplicatePolicy:     policy,
		DropKinds:           kinds,
		ExcludeItems:        exclude,
		MaxAttempts:         s.MaxAttempts,
	}, nil
}

// WorkerCount is the field decoding concurrency, defaulting to GOMAXPROCS.
func (s Settings) WorkerCount() int {
	if s.Workers > 0 {
		return s.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// JSON renders the settings that affect generated content.
func (s Settings) JSON() string {
	out, err := json.Marshal(s)
	if err != nil {
		return "{}"
	}
	return string(out)
}

func (s Settings) dropKinds() ([]entity.Kind, error) {
	var kinds []entity.Kind
	for _, name := range s.DropKinds {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		k, err := entity.ParseKind(name)
		if err != nil {
			return nil, err
		}
		if k == entity.KindMateria {
			return nil, errors.New("enemies cannot drop materia")
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// ParseID accepts decimal or 0x-prefixed inventory IDs.
func ParseID(s string) (entity.ID, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 0, 16)
	if err != nil {
		return 0, fmt.Errorf("bad item id %q", s)
	}
	id := entity.ID(n)
	if !id.Valid() {
		return 0, fmt.Errorf("item id %q is out of range", s)
	}
	return id, nil
}

func (s Settings) excludeItems() ([]entity.ID, error) {
	var ids []entity.ID
	for _, raw := range s.ExcludeItems {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		id, err := ParseID(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
