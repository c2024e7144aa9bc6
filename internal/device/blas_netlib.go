//go:build netlib

package device

// This file registers the netlib BLAS implementation which uses system BLAS
// (Accelerate on macOS, OpenBLAS on Linux). Build with -tags netlib and cgo.
// The thread hint is not forwarded to the system BLAS; OpenBLAS reads
// OPENBLAS_NUM_THREADS on its own.

import (
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/netlib/blas/netlib"
)

func init() {
	blas64.Use(netlib.Implementation{})
	log.Debug().Msg("BLAS acceleration enabled (netlib)")
}
