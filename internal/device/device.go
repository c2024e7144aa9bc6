// Package device adapts dense matrix libraries to the operation set that the
// benchmark driver measures. Two backends are provided: "gonum" wraps
// gonum.org/v1/gonum/mat and "native" runs the float64 kernels from
// internal/simd on a bounded worker pool.
package device

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDimensionMismatch indicates incompatible operand shapes.
	ErrDimensionMismatch = errors.New("device: dimension mismatch")

	// ErrBadShape is returned for empty or ragged input data.
	ErrBadShape = errors.New("device: invalid shape")

	// ErrMixedBackend is returned when operands come from different backends.
	ErrMixedBackend = errors.New("device: operands from different backends")

	// ErrUnknownBackend is returned by New for unrecognised names.
	ErrUnknownBackend = errors.New("device: unknown backend")
)

// Matrix is a dense float64 matrix owned by a Backend.
//
// Pure operations return a freshly allocated result and leave both the
// receiver and the argument untouched. The *Equals variants overwrite the
// receiver.
type Matrix interface {
	// Dims returns the dimensions (rows, cols) of the matrix.
	Dims() (int, int)

	// At returns the value at (i, j).
	At(i, j int) float64

	// ToHost copies the contents into a fresh rectangular slice.
	ToHost() [][]float64

	// Clone returns a deep copy on the same backend.
	Clone() Matrix

	// CopyFrom overwrites the receiver with the contents of src.
	CopyFrom(src Matrix) error

	// Transpose returns A'.
	Transpose() Matrix
	// Uminus returns -A.
	Uminus() Matrix

	Plus(b Matrix) (Matrix, error)
	PlusEquals(b Matrix) error
	Minus(b Matrix) (Matrix, error)
	MinusEquals(b Matrix) error

	// ArrayTimes returns A .* B.
	ArrayTimes(b Matrix) (Matrix, error)
	ArrayTimesEquals(b Matrix) error

	// ArrayRightDivide returns A ./ B.
	ArrayRightDivide(b Matrix) (Matrix, error)
	ArrayRightDivideEquals(b Matrix) error

	// ArrayLeftDivide returns B ./ A.
	ArrayLeftDivide(b Matrix) (Matrix, error)
	ArrayLeftDivideEquals(b Matrix) error

	// Times returns s*A.
	Times(s float64) Matrix
	TimesEquals(s float64)

	// Mul returns the matrix product A*B.
	Mul(b Matrix) (Matrix, error)
}

// Backend creates matrices and carries the worker-thread hint.
type Backend interface {
	Name() string

	// NewMatrix builds a matrix from a rectangular row-major slice.
	// The data is copied.
	NewMatrix(data [][]float64) (Matrix, error)

	// SetThreads forwards the worker-thread hint. Values below 1 are
	// treated as 1.
	SetThreads(n int)
	Threads() int
}

// Backend names accepted by New.
const (
	BackendGonum  = "gonum"
	BackendNative = "native"
)

// Names lists the registered backends.
func Names() []string {
	return []string{BackendGonum, BackendNative}
}

// New returns the named backend with the thread hint already applied.
func New(name string, threads int) (Backend, error) {
	var b Backend
	switch strings.ToLower(name) {
	case "", BackendGonum:
		b = NewGonumBackend()
	case BackendNative:
		b = NewCPUBackend()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
	b.SetThreads(threads)
	return b, nil
}

// flatten validates that data is non-empty and rectangular and returns it
// as a single row-major slice.
func flatten(data [][]float64) (rows, cols int, flat []float64, err error) {
	rows = len(data)
	if rows == 0 {
		return 0, 0, nil, fmt.Errorf("%w: no rows", ErrBadShape)
	}
	cols = len(data[0])
	if cols == 0 {
		return 0, 0, nil, fmt.Errorf("%w: no columns", ErrBadShape)
	}
	flat = make([]float64, 0, rows*cols)
	for i, row := range data {
		if len(row) != cols {
			return 0, 0, nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrBadShape, i, len(row), cols)
		}
		flat = append(flat, row...)
	}
	return rows, cols, flat, nil
}

func sameShape(op string, a, b Matrix) error {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br || ac != bc {
		return fmt.Errorf("%s: %w: %dx%d vs %dx%d", op, ErrDimensionMismatch, ar, ac, br, bc)
	}
	return nil
}

func clampThreads(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
