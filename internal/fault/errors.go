// Package fault defines the error taxonomy shared by every stage of a run.
package fault

import (
	"errors"
	"fmt"
)

// FormatError reports an input file whose signature or layout does not match
// the expected schema, or which is truncated.
type FormatError struct {
	Path   string
	Offset int64
	Reason string
}

func (e *FormatError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("format: %s at 0x%X: %s", e.Path, e.Offset, e.Reason)
	}
	return fmt.Sprintf("format: %s: %s", e.Path, e.Reason)
}

// Formatf builds a FormatError with no specific offset.
func Formatf(path, format string, args ...any) *FormatError {
	return &FormatError{Path: path, Offset: -1, Reason: fmt.Sprintf(format, args...)}
}

// FormatAt builds a FormatError pinned to a byte offset.
func FormatAt(path string, offset int64, format string, args ...any) *FormatError {
	return &FormatError{Path: path, Offset: offset, Reason: fmt.Sprintf(format, args...)}
}

// WithPath returns a copy of err with Path filled in when err is a
// FormatError produced by a codec that did not know the file name.
func WithPath(err error, path string) error {
	var fe *FormatError
	if errors.As(err, &fe) && fe.Path == "" {
		cp := *fe
		cp.Path = path
		return &cp
	}
	return err
}

// Invariant names used in ConstraintViolation.
const (
	InvObtainable  = "obtainability"
	InvShopStock   = "shop-non-empty"
	InvShopTags    = "shop-category"
	InvRecordCount = "record-count"
	InvBijection   = "key-item-bijection"
	InvProgression = "key-item-progression"
	InvPermutation = "materia-permutation"
	InvPoolRules   = "pool-exclusion"
	InvEquipClass  = "equipment-class"
	InvBattery     = "battery-placement"
)

// ConstraintViolation reports that a category could not satisfy one of its
// invariants within the retry budget.
type ConstraintViolation struct {
	Category  string
	Invariant string
	Attempts  int
	Detail    string
}

func (e *ConstraintViolation) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("constraint: %s: %s unsatisfied after %d attempts: %s",
			e.Category, e.Invariant, e.Attempts, e.Detail)
	}
	return fmt.Sprintf("constraint: %s: %s: %s", e.Category, e.Invariant, e.Detail)
}

// Violation builds a ConstraintViolation for a single failed attempt.
func Violation(category, invariant, format string, args ...any) *ConstraintViolation {
	return &ConstraintViolation{
		Category:  category,
		Invariant: invariant,
		Detail:    fmt.Sprintf(format, args...),
	}
}

// IOError reports a filesystem failure on read or write.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// IO wraps err as an IOError, or returns nil when err is nil.
func IO(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Op: op, Path: path, Err: err}
}

// IsFormat reports whether err carries a FormatError.
func IsFormat(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// IsConstraint reports whether err carries a ConstraintViolation.
func IsConstraint(err error) bool {
	var cv *ConstraintViolation
	return errors.As(err, &cv)
}

// IsIO reports whether err carries an IOError.
func IsIO(err error) bool {
	var ie *IOError
	return errors.As(err, &ie)
}

// Process exit codes.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitFormat     = 2
	ExitConstraint = 3
	ExitIO         = 4
)

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case IsFormat(err):
		return ExitFormat
	case IsConstraint(err):
		return ExitConstraint
	case IsIO(err):
		return ExitIO
	default:
		return ExitFailure
	}
}
