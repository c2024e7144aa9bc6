package bench

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMethodNames(t *testing.T) {
	want := []string{
		"TRANSPOSE", "UMINUS",
		"PLUS", "PLUS_EQUALS", "MINUS", "MINUS_EQUALS",
		"ARRAY_TIMES", "ARRAY_TIMES_EQUALS",
		"ARRAY_RIGHT_DIVIDE", "ARRAY_RIGHT_DIVIDE_EQUALS",
		"ARRAY_LEFT_DIVIDE", "ARRAY_LEFT_DIVIDE_EQUALS",
		"TIMES_SCALAR", "TIMES_SCALAR_EQUALS",
		"TIMES",
	}
	ids := Methods()
	require.Len(t, ids, 15)
	for i, id := range ids {
		assert.Equal(t, want[i], id.String())

		parsed, err := ParseMethodID(want[i])
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	}

	id, err := ParseMethodID("plus_equals")
	require.NoError(t, err)
	assert.Equal(t, PlusEquals, id)

	_, err = ParseMethodID("SOLVE")
	assert.Error(t, err)

	assert.Equal(t, "MethodID(99)", MethodID(99).String())
}

func TestMethodID_Text(t *testing.T) {
	b, err := ArrayLeftDivide.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "ARRAY_LEFT_DIVIDE", string(b))

	var id MethodID
	require.NoError(t, id.UnmarshalText([]byte("TIMES")))
	assert.Equal(t, Times, id)

	_, err = MethodID(-1).MarshalText()
	assert.Error(t, err)
}

func TestNewRegistry_Order(t *testing.T) {
	a, b := operands(t, [][]float64{{1, 2}, {3, 4}}, [][]float64{{5, 6}, {7, 8}})
	reg := NewRegistry(a, b)

	require.Equal(t, 15, reg.Len())
	for i, spec := range reg.Specs {
		assert.Equal(t, MethodID(i), spec.ID)
		assert.NotNil(t, spec.Invoke)
	}

	var inPlace []MethodID
	for _, spec := range reg.Specs {
		if spec.InPlace {
			inPlace = append(inPlace, spec.ID)
		}
	}
	assert.Equal(t, []MethodID{
		PlusEquals, MinusEquals, ArrayTimesEquals,
		ArrayRightDivideEquals, ArrayLeftDivideEquals, TimesScalarEquals,
	}, inPlace)
}

func TestRegistry_Invocations(t *testing.T) {
	a0 := [][]float64{{1, 2}, {3, 4}}
	b0 := [][]float64{{5, 6}, {7, 8}}

	want := map[MethodID][][]float64{
		Transpose:              {{1, 3}, {2, 4}},
		Uminus:                 {{-1, -2}, {-3, -4}},
		Plus:                   {{6, 8}, {10, 12}},
		PlusEquals:             {{6, 8}, {10, 12}},
		Minus:                  {{-4, -4}, {-4, -4}},
		MinusEquals:            {{-4, -4}, {-4, -4}},
		ArrayTimes:             {{5, 12}, {21, 32}},
		ArrayTimesEquals:       {{5, 12}, {21, 32}},
		ArrayRightDivide:       {{0.2, 2.0 / 6}, {3.0 / 7, 0.5}},
		ArrayRightDivideEquals: {{0.2, 2.0 / 6}, {3.0 / 7, 0.5}},
		ArrayLeftDivide:        {{5, 3}, {7.0 / 3, 2}},
		ArrayLeftDivideEquals:  {{5, 3}, {7.0 / 3, 2}},
		TimesScalar:            {{1, 2}, {3, 4}},
		TimesScalarEquals:      {{1, 2}, {3, 4}},
		Times:                  {{19, 22}, {43, 50}},
	}

	for _, id := range Methods() {
		t.Run(id.String(), func(t *testing.T) {
			a, b := operands(t, a0, b0)
			reg := NewRegistry(a, b)
			spec := reg.Specs[id]

			res, err := spec.Invoke()
			require.NoError(t, err)
			assertMatrix(t, want[id], res.ToHost())

			if spec.InPlace {
				assert.Same(t, a, res, "in-place methods return the receiver")
				assertMatrix(t, want[id], a.ToHost())
			} else {
				assert.Equal(t, a0, a.ToHost(), "pure methods leave A alone")
			}
			assert.Equal(t, b0, b.ToHost(), "B is never modified")
		})
	}
}
