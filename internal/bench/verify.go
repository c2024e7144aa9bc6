package bench

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/23skdu/matbench/internal/device"
)

// VerifyTolerance bounds the absolute or relative difference between a
// backend result and the reference computed with gonum/mat.
const VerifyTolerance = 1e-9

// Outcome is the untimed result of one method.
type Outcome struct {
	Method MethodID
	Result device.Matrix
}

// MismatchError reports a method whose result differs from the reference.
type MismatchError struct {
	Method    MethodID
	Row, Col  int
	Got, Want float64
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("bench: verify %s: (%d,%d) = %g, want %g", e.Method, e.Row, e.Col, e.Got, e.Want)
}

type reference func(a, b *mat.Dense) *mat.Dense

func apply(a, b *mat.Dense, fn func(dst, x, y *mat.Dense)) *mat.Dense {
	var dst mat.Dense
	fn(&dst, a, b)
	return &dst
}

func add(dst, x, y *mat.Dense)     { dst.Add(x, y) }
func sub(dst, x, y *mat.Dense)     { dst.Sub(x, y) }
func mulElem(dst, x, y *mat.Dense) { dst.MulElem(x, y) }
func divElem(dst, x, y *mat.Dense) { dst.DivElem(x, y) }
func mul(dst, x, y *mat.Dense)     { dst.Mul(x, y) }

func scaled(s float64) reference {
	return func(a, _ *mat.Dense) *mat.Dense {
		var dst mat.Dense
		dst.Scale(s, a)
		return &dst
	}
}

var references = [numMethods]reference{
	Transpose:              func(a, _ *mat.Dense) *mat.Dense { return mat.DenseCopyOf(a.T()) },
	Uminus:                 scaled(-1),
	Plus:                   func(a, b *mat.Dense) *mat.Dense { return apply(a, b, add) },
	PlusEquals:             func(a, b *mat.Dense) *mat.Dense { return apply(a, b, add) },
	Minus:                  func(a, b *mat.Dense) *mat.Dense { return apply(a, b, sub) },
	MinusEquals:            func(a, b *mat.Dense) *mat.Dense { return apply(a, b, sub) },
	ArrayTimes:             func(a, b *mat.Dense) *mat.Dense { return apply(a, b, mulElem) },
	ArrayTimesEquals:       func(a, b *mat.Dense) *mat.Dense { return apply(a, b, mulElem) },
	ArrayRightDivide:       func(a, b *mat.Dense) *mat.Dense { return apply(a, b, divElem) },
	ArrayRightDivideEquals: func(a, b *mat.Dense) *mat.Dense { return apply(a, b, divElem) },
	ArrayLeftDivide:        func(a, b *mat.Dense) *mat.Dense { return apply(b, a, divElem) },
	ArrayLeftDivideEquals:  func(a, b *mat.Dense) *mat.Dense { return apply(b, a, divElem) },
	TimesScalar:            scaled(Scalar),
	TimesScalarEquals:      scaled(Scalar),
	Times:                  func(a, b *mat.Dense) *mat.Dense { return apply(a, b, mul) },
}

// Verify invokes every method once, untimed, each on its own clones of a and
// b, so the outcome of an in-place method is exactly one application. Each
// result is checked against the same operation computed directly with
// gonum/mat; the first difference is returned as a *MismatchError.
// a and b are never modified.
func Verify(a, b device.Matrix) ([]Outcome, error) {
	ha, hb := toDense(a.ToHost()), toDense(b.ToHost())

	out := make([]Outcome, 0, numMethods)
	for _, id := range Methods() {
		reg := NewRegistry(a.Clone(), b.Clone())
		res, err := reg.Specs[id].Invoke()
		if err != nil {
			return out, fmt.Errorf("bench: verify %s: %w", id, err)
		}
		if err := compare(id, references[id](ha, hb), res); err != nil {
			return out, err
		}
		out = append(out, Outcome{Method: id, Result: res})
	}
	return out, nil
}

func toDense(rows [][]float64) *mat.Dense {
	r, c := len(rows), len(rows[0])
	d := mat.NewDense(r, c, nil)
	for i, row := range rows {
		d.SetRow(i, row)
	}
	return d
}

func compare(id MethodID, want *mat.Dense, got device.Matrix) error {
	wr, wc := want.Dims()
	gr, gc := got.Dims()
	if wr != gr || wc != gc {
		return fmt.Errorf("bench: verify %s: result is %dx%d, want %dx%d: %w", id, gr, gc, wr, wc, device.ErrDimensionMismatch)
	}
	for i := 0; i < wr; i++ {
		for j := 0; j < wc; j++ {
			w, g := want.At(i, j), got.At(i, j)
			if math.IsNaN(w) && math.IsNaN(g) {
				continue
			}
			if !floats.EqualWithinAbsOrRel(w, g, VerifyTolerance, VerifyTolerance) {
				return &MismatchError{Method: id, Row: i, Col: j, Got: g, Want: w}
			}
		}
	}
	return nil
}
