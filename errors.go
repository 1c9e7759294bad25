package annidx

import (
	"errors"
	"fmt"

	"github.com/foundermatch/annidx/index"
	"github.com/foundermatch/annidx/vectorstore"
)

var (
	// ErrNotInitialized is returned when add or search is attempted before Init.
	ErrNotInitialized = errors.New("manager not initialized")

	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrNotTrained is returned when vectors are added to an untrained
	// clustered index. The manager's own invariants prevent this; it is
	// checked defensively.
	ErrNotTrained = errors.New("index not trained")

	// ErrInvalidDimension is returned when the configured dimension is not
	// positive.
	ErrInvalidDimension = errors.New("dimension must be positive")
)

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// translateError normalizes lower-level package errors into the package
// taxonomy, so callers only match against annidx errors.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var idm *index.ErrDimensionMismatch
	if errors.As(err, &idm) {
		return &ErrDimensionMismatch{Expected: idm.Expected, Actual: idm.Actual, cause: err}
	}
	var vdm *vectorstore.ErrDimensionMismatch
	if errors.As(err, &vdm) {
		return &ErrDimensionMismatch{Expected: vdm.Expected, Actual: vdm.Actual, cause: err}
	}

	if errors.Is(err, index.ErrNotTrained) {
		return fmt.Errorf("%w: %w", ErrNotTrained, err)
	}
	if errors.Is(err, index.ErrInvalidK) {
		return fmt.Errorf("%w: %w", ErrInvalidK, err)
	}

	return err
}
