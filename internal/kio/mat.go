package kio

import "fmt"

// Mat is a dense row-major float32 matrix.
//
// R and C are the number of rows and columns. Data holds R*C values with row
// i occupying Data[i*C : (i+1)*C].
type Mat struct {
	R, C int
	Data []float32
}

// NewMat allocates a zeroed r x c matrix.
func NewMat(r, c int) Mat {
	if r < 0 || c < 0 {
		panic("negative dimension for matrix")
	}
	return Mat{R: r, C: c, Data: make([]float32, r*c)}
}

// NewMatFromData wraps data as an r x c matrix. len(data) must equal r*c.
func NewMatFromData(r, c int, data []float32) (Mat, error) {
	if r < 0 || c < 0 {
		return Mat{}, fmt.Errorf("negative dimension %dx%d", r, c)
	}
	if r*c != len(data) {
		return Mat{}, fmt.Errorf("data length %d does not match %dx%d", len(data), r, c)
	}
	return Mat{R: r, C: c, Data: data}, nil
}

// Row returns a view of row i.
func (m Mat) Row(i int) []float32 {
	if i < 0 || i >= m.R {
		panic("row index out of range")
	}
	return m.Data[i*m.C : (i+1)*m.C]
}

// At returns the element at row i, column j.
func (m Mat) At(i, j int) float32 {
	return m.Row(i)[j]
}

func (m Mat) String() string {
	return fmt.Sprintf("%dx%d", m.R, m.C)
}
