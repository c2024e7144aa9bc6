package device

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/23skdu/matbench/internal/simd"
)

// ensure interface compliance
var _ Backend = (*CPUBackend)(nil)
var _ Matrix = (*CPUMatrix)(nil)

// CPUBackend is the native backend. Matrix products are split by row
// across at most Threads() goroutines; elementwise kernels run on the
// calling goroutine.
type CPUBackend struct {
	workers int
}

func NewCPUBackend() *CPUBackend {
	return &CPUBackend{workers: 1}
}

func (b *CPUBackend) Name() string {
	return BackendNative
}

func (b *CPUBackend) SetThreads(n int) {
	b.workers = clampThreads(n)
}

func (b *CPUBackend) Threads() int {
	return b.workers
}

func (b *CPUBackend) NewMatrix(data [][]float64) (Matrix, error) {
	r, c, flat, err := flatten(data)
	if err != nil {
		return nil, err
	}
	return &CPUMatrix{backend: b, rows: r, cols: c, data: flat}, nil
}

func (b *CPUBackend) alloc(r, c int) *CPUMatrix {
	return &CPUMatrix{backend: b, rows: r, cols: c, data: make([]float64, r*c)}
}

// CPUMatrix is a row-major float64 matrix.
type CPUMatrix struct {
	backend *CPUBackend
	data    []float64
	rows    int
	cols    int
}

func (t *CPUMatrix) Dims() (int, int) {
	return t.rows, t.cols
}

func (t *CPUMatrix) At(i, j int) float64 {
	return t.data[i*t.cols+j]
}

func (t *CPUMatrix) ToHost() [][]float64 {
	out := make([][]float64, t.rows)
	for i := range out {
		row := make([]float64, t.cols)
		copy(row, t.data[i*t.cols:(i+1)*t.cols])
		out[i] = row
	}
	return out
}

func (t *CPUMatrix) Clone() Matrix {
	out := t.backend.alloc(t.rows, t.cols)
	copy(out.data, t.data)
	return out
}

func (t *CPUMatrix) CopyFrom(src Matrix) error {
	o, err := t.operand("CopyFrom", src)
	if err != nil {
		return err
	}
	copy(t.data, o.data)
	return nil
}

func (t *CPUMatrix) Transpose() Matrix {
	out := t.backend.alloc(t.cols, t.rows)
	for i := 0; i < t.rows; i++ {
		for j := 0; j < t.cols; j++ {
			out.data[j*t.rows+i] = t.data[i*t.cols+j]
		}
	}
	return out
}

func (t *CPUMatrix) Uminus() Matrix {
	out := t.Clone().(*CPUMatrix)
	simd.VecScale(out.data, -1)
	return out
}

func (t *CPUMatrix) Plus(b Matrix) (Matrix, error) {
	return t.binary("Plus", b, simd.VecAdd)
}

func (t *CPUMatrix) PlusEquals(b Matrix) error {
	return t.binaryInPlace("PlusEquals", b, simd.VecAdd)
}

func (t *CPUMatrix) Minus(b Matrix) (Matrix, error) {
	return t.binary("Minus", b, simd.VecSub)
}

func (t *CPUMatrix) MinusEquals(b Matrix) error {
	return t.binaryInPlace("MinusEquals", b, simd.VecSub)
}

func (t *CPUMatrix) ArrayTimes(b Matrix) (Matrix, error) {
	return t.binary("ArrayTimes", b, simd.VecMul)
}

func (t *CPUMatrix) ArrayTimesEquals(b Matrix) error {
	return t.binaryInPlace("ArrayTimesEquals", b, simd.VecMul)
}

func (t *CPUMatrix) ArrayRightDivide(b Matrix) (Matrix, error) {
	return t.binary("ArrayRightDivide", b, simd.VecDiv)
}

func (t *CPUMatrix) ArrayRightDivideEquals(b Matrix) error {
	return t.binaryInPlace("ArrayRightDivideEquals", b, simd.VecDiv)
}

func (t *CPUMatrix) ArrayLeftDivide(b Matrix) (Matrix, error) {
	return t.binary("ArrayLeftDivide", b, simd.VecDivRev)
}

func (t *CPUMatrix) ArrayLeftDivideEquals(b Matrix) error {
	return t.binaryInPlace("ArrayLeftDivideEquals", b, simd.VecDivRev)
}

func (t *CPUMatrix) Times(s float64) Matrix {
	out := t.Clone().(*CPUMatrix)
	simd.VecScale(out.data, s)
	return out
}

func (t *CPUMatrix) TimesEquals(s float64) {
	simd.VecScale(t.data, s)
}

// Mul computes A*B. B is transposed once up front so every output cell is a
// contiguous dot product, then output rows are split across the workers.
func (t *CPUMatrix) Mul(b Matrix) (Matrix, error) {
	mb, ok := b.(*CPUMatrix)
	if !ok {
		return nil, ErrMixedBackend
	}
	if t.cols != mb.rows {
		return nil, fmt.Errorf("Mul: %w: A cols (%d) != B rows (%d)", ErrDimensionMismatch, t.cols, mb.rows)
	}

	bt := mb.Transpose().(*CPUMatrix)
	out := t.backend.alloc(t.rows, mb.cols)
	common := t.cols

	workers := t.backend.workers
	rowsPerWorker := (t.rows + workers - 1) / workers

	var g errgroup.Group
	g.SetLimit(workers)
	for w := 0; w < workers; w++ {
		start := w * rowsPerWorker
		end := start + rowsPerWorker
		if start >= t.rows {
			break
		}
		if end > t.rows {
			end = t.rows
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				rowA := t.data[i*common : (i+1)*common]
				for j := 0; j < mb.cols; j++ {
					out.data[i*mb.cols+j] = simd.DotProduct(rowA, bt.data[j*common:(j+1)*common])
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *CPUMatrix) operand(op string, b Matrix) (*CPUMatrix, error) {
	o, ok := b.(*CPUMatrix)
	if !ok {
		return nil, ErrMixedBackend
	}
	if err := sameShape(op, t, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (t *CPUMatrix) binary(op string, b Matrix, kernel func(dst, src []float64)) (Matrix, error) {
	o, err := t.operand(op, b)
	if err != nil {
		return nil, err
	}
	out := t.Clone().(*CPUMatrix)
	kernel(out.data, o.data)
	return out, nil
}

func (t *CPUMatrix) binaryInPlace(op string, b Matrix, kernel func(dst, src []float64)) error {
	o, err := t.operand(op, b)
	if err != nil {
		return err
	}
	kernel(t.data, o.data)
	return nil
}
