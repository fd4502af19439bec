package dynamo

import "math"

// ClampWithNorm rescales, in place, every row whose Euclidean norm exceeds
// maxNorm so that its norm equals maxNorm. Direction is preserved.
func ClampWithNorm(b Batch, maxNorm float64) {
	for i := 0; i < b.Rows; i++ {
		n := b.RowNorm(i)
		if n <= maxNorm || n == 0 {
			continue
		}
		scale := maxNorm / n
		row := b.Row(i)
		for j := range row {
			row[j] *= scale
		}
	}
}

// ClampMagnitude limits every element of b, in place, to [-limit, limit].
func ClampMagnitude(b Batch, limit float64) {
	for i, v := range b.Data {
		b.Data[i] = math.Max(-limit, math.Min(limit, v))
	}
}
