package randomize

import (
	"context"
	"slices"

	"go.uber.org/multierr"

	"github.com/MJE43/goldsaucer/internal/engine"
	"github.com/MJE43/goldsaucer/internal/entity"
	"github.com/MJE43/goldsaucer/internal/fault"
)

type materiaStage struct {
	cfg Config
}

func (s *materiaStage) Name() string   { return StageMateria }
func (s *materiaStage) Deps() []string { return nil }

func (s *materiaStage) Merge(dst, src *entity.Set) {
	dst.MateriaSlots = src.MateriaSlots
}

// Generate permutes materia IDs across every slot. AP stays with the slot.
func (s *materiaStage) Generate(ctx context.Context, in *entity.Set, seed engine.Seed, attempt int) (*entity.Set, error) {
	out := in.Clone()
	rng := seed.Stream(StageMateria, attempt)
	slots := out.MateriaSlots
	rng.Shuffle(len(slots), func(i, j int) {
		slots[i].Materia, slots[j].Materia = slots[j].Materia, slots[i].Materia
	})
	return out, nil
}

func (s *materiaStage) Validate(in, out *entity.Set) error {
	if len(in.MateriaSlots) != len(out.MateriaSlots) {
		return fault.Violation(StageMateria, fault.InvRecordCount, "%d slots, want %d", len(out.MateriaSlots), len(in.MateriaSlots))
	}
	var err error
	before := make([]uint8, len(in.MateriaSlots))
	after := make([]uint8, len(out.MateriaSlots))
	for i, b := range in.MateriaSlots {
		a := out.MateriaSlots[i]
		before[i], after[i] = b.Materia, a.Materia
		if a.Key() != b.Key() || a.AP != b.AP {
			err = multierr.Append(err, fault.Violation(StageMateria, fault.InvPermutation, "slot %s moved or lost its AP", b.Key()))
		}
	}
	slices.Sort(before)
	slices.Sort(after)
	if !slices.Equal(before, after) {
		err = multierr.Append(err, fault.Violation(StageMateria, fault.InvPermutation, "materia assignment is not a permutation"))
	}
	return multierr.Append(err, CheckObtainable(StageMateria, in, out))
}
