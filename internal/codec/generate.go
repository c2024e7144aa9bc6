package codec

import "math/rand/v2"

// Fill returns a rows x cols matrix with every entry set to v.
func Fill(rows, cols int, v float64) [][]float64 {
	out := make([][]float64, rows)
	for i := range out {
		row := make([]float64, cols)
		for j := range row {
			row[j] = v
		}
		out[i] = row
	}
	return out
}

// Random returns a rows x cols matrix of values drawn uniformly from [1, 2).
// Entries are kept away from zero so the division methods stay finite.
func Random(rows, cols int, seed uint64) [][]float64 {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([][]float64, rows)
	for i := range out {
		row := make([]float64, cols)
		for j := range row {
			row[j] = 1 + rng.Float64()
		}
		out[i] = row
	}
	return out
}
