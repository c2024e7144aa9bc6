package bench

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/23skdu/matbench/internal/device"
)

func operands(t *testing.T, a, b [][]float64) (device.Matrix, device.Matrix) {
	t.Helper()
	be := device.NewGonumBackend()
	ma, err := be.NewMatrix(a)
	require.NoError(t, err)
	mb, err := be.NewMatrix(b)
	require.NoError(t, err)
	return ma, mb
}

func assertMatrix(t *testing.T, want, got [][]float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		require.Len(t, got[i], len(want[i]))
		for j := range want[i] {
			assert.InDelta(t, want[i][j], got[i][j], 1e-12, "mismatch at (%d,%d)", i, j)
		}
	}
}

func only(reg Registry, id MethodID) Registry {
	return Registry{A: reg.A, B: reg.B, Specs: []MethodSpec{reg.Specs[id]}}
}

func TestInPlaceDriftsAcrossTrials(t *testing.T) {
	a, b := operands(t, [][]float64{{1, 2}, {3, 4}}, [][]float64{{5, 6}, {7, 8}})
	reg := NewRegistry(a, b)
	spec := reg.Specs[PlusEquals]

	_, err := NewTimer().Measure(3, func() error {
		_, err := spec.Invoke()
		return err
	})
	require.NoError(t, err)

	// A + 3*B, each trial builds on the previous one
	assert.Equal(t, [][]float64{{16, 20}, {24, 28}}, a.ToHost())
	assert.Equal(t, [][]float64{{5, 6}, {7, 8}}, b.ToHost())
}

func TestPureMethodsDoNotMutate(t *testing.T) {
	a0 := [][]float64{{1, 2}, {3, 4}}
	b0 := [][]float64{{5, 6}, {7, 8}}
	a, b := operands(t, a0, b0)
	reg := NewRegistry(a, b)

	table, err := NewDriver().Run(context.Background(), only(reg, Plus), 5, 1)
	require.NoError(t, err)
	require.Len(t, table, 1)

	assert.Equal(t, a0, a.ToHost())
	assert.Equal(t, b0, b.ToHost())
}

func TestDriver_RestoreInPlace(t *testing.T) {
	a0 := [][]float64{{1, 2}, {3, 4}}
	a, b := operands(t, a0, [][]float64{{5, 6}, {7, 8}})
	reg := NewRegistry(a, b)

	d := NewDriver()
	d.Restore = true
	_, err := d.Run(context.Background(), only(reg, PlusEquals), 3, 1)
	require.NoError(t, err)
	assert.Equal(t, a0, a.ToHost())

	// the whole registry leaves A as loaded
	_, err = d.Run(context.Background(), reg, 4, 1)
	require.NoError(t, err)
	assert.Equal(t, a0, a.ToHost())
}

func TestDriver_DriftLeaksIntoLaterMethods(t *testing.T) {
	a, b := operands(t, [][]float64{{1, 2}, {3, 4}}, [][]float64{{5, 6}, {7, 8}})
	reg := NewRegistry(a, b)
	sub := Registry{A: a, B: b, Specs: []MethodSpec{reg.Specs[PlusEquals], reg.Specs[MinusEquals]}}

	_, err := NewDriver().Run(context.Background(), sub, 2, 1)
	require.NoError(t, err)
	// +2B then -2B
	assert.Equal(t, [][]float64{{1, 2}, {3, 4}}, a.ToHost())
}

func TestDriver_FullRegistry(t *testing.T) {
	// 2x2 identity and 2*I
	a, b := operands(t, [][]float64{{1, 0}, {0, 1}}, [][]float64{{2, 0}, {0, 2}})

	outcomes, err := Verify(a, b)
	require.NoError(t, err)
	require.Len(t, outcomes, 15)
	assert.Equal(t, Times, outcomes[Times].Method)
	assertMatrix(t, [][]float64{{2, 0}, {0, 2}}, outcomes[Times].Result.ToHost())
	// Verify works on clones
	assert.Equal(t, [][]float64{{1, 0}, {0, 1}}, a.ToHost())

	d := NewDriver()
	d.Timer = &Timer{Clock: &steppingClock{now: time.Unix(0, 0), step: 3}}
	table, err := d.Run(context.Background(), NewRegistry(a, b), 1, 1)
	require.NoError(t, err)

	require.Len(t, table, 15)
	for i, rec := range table {
		assert.Equal(t, 1, rec.ThreadHint)
		assert.Equal(t, MethodID(i), rec.Method)
		assert.Equal(t, int64(3), rec.AverageNanos)
	}
}

func TestDriver_NonNegativeAcrossConfigs(t *testing.T) {
	for _, trials := range []int{1, 2, 5} {
		for _, hint := range []int{1, 4} {
			a, b := operands(t, [][]float64{{1, 2}, {3, 4}}, [][]float64{{5, 6}, {7, 8}})
			table, err := NewDriver().Run(context.Background(), NewRegistry(a, b), trials, hint)
			require.NoError(t, err)
			require.Len(t, table, 15)
			for i, rec := range table {
				assert.Equal(t, MethodID(i), rec.Method)
				assert.Equal(t, hint, rec.ThreadHint)
				assert.GreaterOrEqual(t, rec.AverageNanos, int64(0))
			}
		}
	}
}

func TestDriver_ErrorAborts(t *testing.T) {
	a, b := operands(t, [][]float64{{1, 2}, {3, 4}}, [][]float64{{1, 2, 3}})

	table, err := NewDriver().Run(context.Background(), NewRegistry(a, b), 2, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, device.ErrDimensionMismatch)
	assert.Contains(t, err.Error(), "PLUS")
	// TRANSPOSE and UMINUS do not touch B
	require.Len(t, table, 2)
	assert.Equal(t, Transpose, table[0].Method)
	assert.Equal(t, Uminus, table[1].Method)
}

func TestDriver_InvalidTrials(t *testing.T) {
	a, b := operands(t, [][]float64{{1}}, [][]float64{{1}})
	_, err := NewDriver().Run(context.Background(), NewRegistry(a, b), 0, 1)
	assert.ErrorIs(t, err, ErrInvalidTrials)
}

func TestDriver_Sweep(t *testing.T) {
	for _, name := range device.Names() {
		t.Run(name, func(t *testing.T) {
			be, err := device.New(name, 1)
			require.NoError(t, err)
			a, err := be.NewMatrix([][]float64{{1, 2}, {3, 4}})
			require.NoError(t, err)
			b, err := be.NewMatrix([][]float64{{5, 6}, {7, 8}})
			require.NoError(t, err)

			table, err := NewDriver().Sweep(context.Background(), be, a, b, []int{1, 2, 3}, 2)
			require.NoError(t, err)
			require.Len(t, table, 45)
			for i, rec := range table {
				assert.Equal(t, i/15+1, rec.ThreadHint)
				assert.Equal(t, MethodID(i%15), rec.Method)
			}
			assert.Equal(t, 3, be.Threads())

			// sweeps work on clones
			assert.Equal(t, [][]float64{{1, 2}, {3, 4}}, a.ToHost())
		})
	}
}
