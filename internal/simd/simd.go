// Package simd holds unrolled float64 kernels for the native backend.
// All kernels operate in place on dst and assume len(src) >= len(dst).
package simd

// VecAdd performs dst += src for float64 vectors
func VecAdd(dst, src []float64) {
	// Unrolled loop for better pipelining
	i := 0
	for ; i <= len(dst)-4; i += 4 {
		dst[i] += src[i]
		dst[i+1] += src[i+1]
		dst[i+2] += src[i+2]
		dst[i+3] += src[i+3]
	}
	// Handle remainder
	for ; i < len(dst); i++ {
		dst[i] += src[i]
	}
}

// VecSub performs dst -= src
func VecSub(dst, src []float64) {
	i := 0
	for ; i <= len(dst)-4; i += 4 {
		dst[i] -= src[i]
		dst[i+1] -= src[i+1]
		dst[i+2] -= src[i+2]
		dst[i+3] -= src[i+3]
	}
	for ; i < len(dst); i++ {
		dst[i] -= src[i]
	}
}

// VecMul performs dst *= src elementwise
func VecMul(dst, src []float64) {
	i := 0
	for ; i <= len(dst)-4; i += 4 {
		dst[i] *= src[i]
		dst[i+1] *= src[i+1]
		dst[i+2] *= src[i+2]
		dst[i+3] *= src[i+3]
	}
	for ; i < len(dst); i++ {
		dst[i] *= src[i]
	}
}

// VecDiv performs dst /= src elementwise
func VecDiv(dst, src []float64) {
	i := 0
	for ; i <= len(dst)-4; i += 4 {
		dst[i] /= src[i]
		dst[i+1] /= src[i+1]
		dst[i+2] /= src[i+2]
		dst[i+3] /= src[i+3]
	}
	for ; i < len(dst); i++ {
		dst[i] /= src[i]
	}
}

// VecDivRev performs dst = src / dst elementwise
func VecDivRev(dst, src []float64) {
	i := 0
	for ; i <= len(dst)-4; i += 4 {
		dst[i] = src[i] / dst[i]
		dst[i+1] = src[i+1] / dst[i+1]
		dst[i+2] = src[i+2] / dst[i+2]
		dst[i+3] = src[i+3] / dst[i+3]
	}
	for ; i < len(dst); i++ {
		dst[i] = src[i] / dst[i]
	}
}

// VecScale performs dst *= s
func VecScale(dst []float64, s float64) {
	i := 0
	for ; i <= len(dst)-4; i += 4 {
		dst[i] *= s
		dst[i+1] *= s
		dst[i+2] *= s
		dst[i+3] *= s
	}
	for ; i < len(dst); i++ {
		dst[i] *= s
	}
}

// DotProduct computes the dot product of two float64 vectors
func DotProduct(a, b []float64) float64 {
	var sum float64
	i := 0
	for ; i <= len(a)-4; i += 4 {
		sum += a[i] * b[i]
		sum += a[i+1] * b[i+1]
		sum += a[i+2] * b[i+2]
		sum += a[i+3] * b[i+3]
	}
	for ; i < len(a); i++ {
		sum += a[i] * b[i]
	}
	return sum
}
