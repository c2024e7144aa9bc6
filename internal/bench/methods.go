// Package bench times the operations of a device.Matrix: a fixed registry
// of fifteen methods, a trial timer and a driver that walks the registry in
// declaration order.
package bench

import (
	"fmt"
	"strings"

	"github.com/23skdu/matbench/internal/device"
)

// Scalar is the constant passed to the scalar-multiply methods.
const Scalar = 1.0

// MethodID identifies one benchmarked operation. The numeric order is the
// order in which methods are benchmarked and reported.
type MethodID int

const (
	Transpose MethodID = iota
	Uminus
	Plus
	PlusEquals
	Minus
	MinusEquals
	ArrayTimes
	ArrayTimesEquals
	ArrayRightDivide
	ArrayRightDivideEquals
	ArrayLeftDivide
	ArrayLeftDivideEquals
	TimesScalar
	TimesScalarEquals
	Times

	numMethods
)

var methodNames = [numMethods]string{
	Transpose:              "TRANSPOSE",
	Uminus:                 "UMINUS",
	Plus:                   "PLUS",
	PlusEquals:             "PLUS_EQUALS",
	Minus:                  "MINUS",
	MinusEquals:            "MINUS_EQUALS",
	ArrayTimes:             "ARRAY_TIMES",
	ArrayTimesEquals:       "ARRAY_TIMES_EQUALS",
	ArrayRightDivide:       "ARRAY_RIGHT_DIVIDE",
	ArrayRightDivideEquals: "ARRAY_RIGHT_DIVIDE_EQUALS",
	ArrayLeftDivide:        "ARRAY_LEFT_DIVIDE",
	ArrayLeftDivideEquals:  "ARRAY_LEFT_DIVIDE_EQUALS",
	TimesScalar:            "TIMES_SCALAR",
	TimesScalarEquals:      "TIMES_SCALAR_EQUALS",
	Times:                  "TIMES",
}

func (m MethodID) String() string {
	if m < 0 || m >= numMethods {
		return fmt.Sprintf("MethodID(%d)", int(m))
	}
	return methodNames[m]
}

// MarshalText writes the symbolic name.
func (m MethodID) MarshalText() ([]byte, error) {
	if m < 0 || m >= numMethods {
		return nil, fmt.Errorf("bench: invalid method id %d", int(m))
	}
	return []byte(methodNames[m]), nil
}

// UnmarshalText accepts a symbolic name.
func (m *MethodID) UnmarshalText(b []byte) error {
	id, err := ParseMethodID(string(b))
	if err != nil {
		return err
	}
	*m = id
	return nil
}

// ParseMethodID maps a symbolic name (case-insensitive) back to its id.
func ParseMethodID(s string) (MethodID, error) {
	for i, name := range methodNames {
		if strings.EqualFold(name, s) {
			return MethodID(i), nil
		}
	}
	return 0, fmt.Errorf("bench: unknown method %q", s)
}

// Methods returns every method id in declaration order.
func Methods() []MethodID {
	out := make([]MethodID, numMethods)
	for i := range out {
		out[i] = MethodID(i)
	}
	return out
}

// Invocation runs one operation against the bound operands and returns its
// result. In-place methods return the mutated receiver.
type Invocation func() (device.Matrix, error)

// MethodSpec binds a method id to its invocation.
type MethodSpec struct {
	ID MethodID
	// InPlace methods overwrite matrix A on every call.
	InPlace bool
	Invoke  Invocation
}

// Registry is the ordered set of bound methods for one pair of operands.
type Registry struct {
	A, B  device.Matrix
	Specs []MethodSpec
}

// Len returns the number of methods.
func (r Registry) Len() int { return len(r.Specs) }

type binder func(a, b device.Matrix) Invocation

func pure(op func(a, b device.Matrix) (device.Matrix, error)) binder {
	return func(a, b device.Matrix) Invocation {
		return func() (device.Matrix, error) { return op(a, b) }
	}
}

func inPlace(op func(a, b device.Matrix) error) binder {
	return func(a, b device.Matrix) Invocation {
		return func() (device.Matrix, error) {
			if err := op(a, b); err != nil {
				return nil, err
			}
			return a, nil
		}
	}
}

var methodTable = [numMethods]struct {
	inPlace bool
	bind    binder
}{
	Transpose: {bind: pure(func(a, _ device.Matrix) (device.Matrix, error) { return a.Transpose(), nil })},
	Uminus:    {bind: pure(func(a, _ device.Matrix) (device.Matrix, error) { return a.Uminus(), nil })},

	Plus:        {bind: pure(device.Matrix.Plus)},
	PlusEquals:  {inPlace: true, bind: inPlace(device.Matrix.PlusEquals)},
	Minus:       {bind: pure(device.Matrix.Minus)},
	MinusEquals: {inPlace: true, bind: inPlace(device.Matrix.MinusEquals)},

	ArrayTimes:             {bind: pure(device.Matrix.ArrayTimes)},
	ArrayTimesEquals:       {inPlace: true, bind: inPlace(device.Matrix.ArrayTimesEquals)},
	ArrayRightDivide:       {bind: pure(device.Matrix.ArrayRightDivide)},
	ArrayRightDivideEquals: {inPlace: true, bind: inPlace(device.Matrix.ArrayRightDivideEquals)},
	ArrayLeftDivide:        {bind: pure(device.Matrix.ArrayLeftDivide)},
	ArrayLeftDivideEquals:  {inPlace: true, bind: inPlace(device.Matrix.ArrayLeftDivideEquals)},

	TimesScalar: {bind: pure(func(a, _ device.Matrix) (device.Matrix, error) { return a.Times(Scalar), nil })},
	TimesScalarEquals: {inPlace: true, bind: inPlace(func(a, _ device.Matrix) error {
		a.TimesEquals(Scalar)
		return nil
	})},

	Times: {bind: pure(device.Matrix.Mul)},
}

// NewRegistry binds every method to a (receiver) and b (argument).
// The registry shares a and b; it does not copy them.
func NewRegistry(a, b device.Matrix) Registry {
	specs := make([]MethodSpec, numMethods)
	for i, m := range methodTable {
		specs[i] = MethodSpec{
			ID:      MethodID(i),
			InPlace: m.inPlace,
			Invoke:  m.bind(a, b),
		}
	}
	return Registry{A: a, B: b, Specs: specs}
}
