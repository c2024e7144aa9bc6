package device

import (
	"fmt"
	"runtime"

	"gonum.org/v1/gonum/mat"
)

// ensure interface compliance
var _ Backend = (*GonumBackend)(nil)
var _ Matrix = (*GonumMatrix)(nil)

// GonumBackend wraps *mat.Dense. gonum parallelises GEMM internally with
// goroutines, so the thread hint is forwarded as GOMAXPROCS, which is
// process-wide.
type GonumBackend struct {
	threads int
}

func NewGonumBackend() *GonumBackend {
	return &GonumBackend{threads: 1}
}

func (b *GonumBackend) Name() string {
	return BackendGonum
}

func (b *GonumBackend) SetThreads(n int) {
	b.threads = clampThreads(n)
	runtime.GOMAXPROCS(b.threads)
}

func (b *GonumBackend) Threads() int {
	return b.threads
}

func (b *GonumBackend) NewMatrix(data [][]float64) (Matrix, error) {
	r, c, flat, err := flatten(data)
	if err != nil {
		return nil, err
	}
	return &GonumMatrix{backend: b, d: mat.NewDense(r, c, flat)}, nil
}

// GonumMatrix is a Matrix backed by a *mat.Dense.
type GonumMatrix struct {
	backend *GonumBackend
	d       *mat.Dense
}

// Dense exposes the underlying gonum matrix.
func (m *GonumMatrix) Dense() *mat.Dense {
	return m.d
}

func (m *GonumMatrix) wrap(d *mat.Dense) *GonumMatrix {
	return &GonumMatrix{backend: m.backend, d: d}
}

func (m *GonumMatrix) Dims() (int, int) {
	return m.d.Dims()
}

func (m *GonumMatrix) At(i, j int) float64 {
	return m.d.At(i, j)
}

func (m *GonumMatrix) ToHost() [][]float64 {
	r, _ := m.d.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = mat.Row(nil, i, m.d)
	}
	return out
}

func (m *GonumMatrix) Clone() Matrix {
	return m.wrap(mat.DenseCopyOf(m.d))
}

func (m *GonumMatrix) CopyFrom(src Matrix) error {
	o, err := m.operand(src)
	if err != nil {
		return err
	}
	if err := sameShape("CopyFrom", m, o); err != nil {
		return err
	}
	m.d.Copy(o.d)
	return nil
}

func (m *GonumMatrix) Transpose() Matrix {
	// T() is a lazy view; materialise it so the copy is what gets timed.
	return m.wrap(mat.DenseCopyOf(m.d.T()))
}

func (m *GonumMatrix) Uminus() Matrix {
	var out mat.Dense
	out.Scale(-1, m.d)
	return m.wrap(&out)
}

func (m *GonumMatrix) Plus(b Matrix) (Matrix, error) {
	return m.binary("Plus", b, func(dst, x, y *mat.Dense) { dst.Add(x, y) })
}

func (m *GonumMatrix) PlusEquals(b Matrix) error {
	return m.binaryInPlace("PlusEquals", b, func(x, y *mat.Dense) { x.Add(x, y) })
}

func (m *GonumMatrix) Minus(b Matrix) (Matrix, error) {
	return m.binary("Minus", b, func(dst, x, y *mat.Dense) { dst.Sub(x, y) })
}

func (m *GonumMatrix) MinusEquals(b Matrix) error {
	return m.binaryInPlace("MinusEquals", b, func(x, y *mat.Dense) { x.Sub(x, y) })
}

func (m *GonumMatrix) ArrayTimes(b Matrix) (Matrix, error) {
	return m.binary("ArrayTimes", b, func(dst, x, y *mat.Dense) { dst.MulElem(x, y) })
}

func (m *GonumMatrix) ArrayTimesEquals(b Matrix) error {
	return m.binaryInPlace("ArrayTimesEquals", b, func(x, y *mat.Dense) { x.MulElem(x, y) })
}

func (m *GonumMatrix) ArrayRightDivide(b Matrix) (Matrix, error) {
	return m.binary("ArrayRightDivide", b, func(dst, x, y *mat.Dense) { dst.DivElem(x, y) })
}

func (m *GonumMatrix) ArrayRightDivideEquals(b Matrix) error {
	return m.binaryInPlace("ArrayRightDivideEquals", b, func(x, y *mat.Dense) { x.DivElem(x, y) })
}

func (m *GonumMatrix) ArrayLeftDivide(b Matrix) (Matrix, error) {
	return m.binary("ArrayLeftDivide", b, func(dst, x, y *mat.Dense) { dst.DivElem(y, x) })
}

func (m *GonumMatrix) ArrayLeftDivideEquals(b Matrix) error {
	return m.binaryInPlace("ArrayLeftDivideEquals", b, func(x, y *mat.Dense) { x.DivElem(y, x) })
}

func (m *GonumMatrix) Times(s float64) Matrix {
	var out mat.Dense
	out.Scale(s, m.d)
	return m.wrap(&out)
}

func (m *GonumMatrix) TimesEquals(s float64) {
	m.d.Scale(s, m.d)
}

func (m *GonumMatrix) Mul(b Matrix) (Matrix, error) {
	o, err := m.operand(b)
	if err != nil {
		return nil, err
	}
	_, ac := m.d.Dims()
	br, _ := o.d.Dims()
	if ac != br {
		return nil, fmt.Errorf("Mul: %w: A cols (%d) != B rows (%d)", ErrDimensionMismatch, ac, br)
	}
	var out mat.Dense
	if err := guard("Mul", func() { out.Mul(m.d, o.d) }); err != nil {
		return nil, err
	}
	return m.wrap(&out), nil
}

func (m *GonumMatrix) operand(b Matrix) (*GonumMatrix, error) {
	o, ok := b.(*GonumMatrix)
	if !ok {
		return nil, ErrMixedBackend
	}
	return o, nil
}

func (m *GonumMatrix) binary(op string, b Matrix, fn func(dst, x, y *mat.Dense)) (Matrix, error) {
	o, err := m.operand(b)
	if err != nil {
		return nil, err
	}
	if err := sameShape(op, m, o); err != nil {
		return nil, err
	}
	var out mat.Dense
	if err := guard(op, func() { fn(&out, m.d, o.d) }); err != nil {
		return nil, err
	}
	return m.wrap(&out), nil
}

func (m *GonumMatrix) binaryInPlace(op string, b Matrix, fn func(x, y *mat.Dense)) error {
	o, err := m.operand(b)
	if err != nil {
		return err
	}
	if err := sameShape(op, m, o); err != nil {
		return err
	}
	return guard(op, func() { fn(m.d, o.d) })
}

// guard converts gonum's shape panics into ErrDimensionMismatch. Any other
// panic is re-raised.
func guard(op string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(mat.Error); ok {
				err = fmt.Errorf("%s: %w: %s", op, ErrDimensionMismatch, e.Error())
				return
			}
			panic(r)
		}
	}()
	fn()
	return nil
}
