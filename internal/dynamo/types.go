package dynamo

import (
	"fmt"
	"math"
)

// Batch holds Rows vectors of length Cols in a single row-major slice.
type Batch struct {
	Rows int
	Cols int
	Data []float64
}

func NewBatch(rows, cols int) Batch {
	return Batch{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

// BatchOf builds a batch from per-row vectors. All rows must share a length.
func BatchOf(rows ...[]float64) (Batch, error) {
	if len(rows) == 0 {
		return Batch{}, nil
	}
	b := NewBatch(len(rows), len(rows[0]))
	for i, r := range rows {
		if len(r) != b.Cols {
			return Batch{}, fmt.Errorf("%w: row %d has %d columns, want %d", ErrDimensionMismatch, i, len(r), b.Cols)
		}
		copy(b.Row(i), r)
	}
	return b, nil
}

// Row returns a view of row i; writes go through to the batch.
func (b Batch) Row(i int) []float64 {
	return b.Data[i*b.Cols : (i+1)*b.Cols]
}

func (b Batch) Clone() Batch {
	c := Batch{Rows: b.Rows, Cols: b.Cols, Data: make([]float64, len(b.Data))}
	copy(c.Data, b.Data)
	return c
}

func (b Batch) SameShape(o Batch) bool {
	return b.Rows == o.Rows && b.Cols == o.Cols && len(b.Data) == len(o.Data)
}

func (b Batch) Zero() {
	for i := range b.Data {
		b.Data[i] = 0
	}
}

func (b Batch) IsValid() bool {
	for _, v := range b.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// RowNorm returns the Euclidean norm of row i.
func (b Batch) RowNorm(i int) float64 {
	sum := 0.0
	for _, v := range b.Row(i) {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// MaxAbs returns the largest absolute element.
func (b Batch) MaxAbs() float64 {
	m := 0.0
	for _, v := range b.Data {
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	return m
}
