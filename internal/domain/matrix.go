package domain

import "fmt"

// Matrix is a dense numeric feature block with named columns.
// Data is column-major: Data[j][i] is row i of column j. All columns
// have equal length and NaN marks undefined entries.
type Matrix struct {
	Columns []string
	Data    [][]float64
}

// NewMatrix allocates a matrix with the given columns and row count,
// initialized to the undefined marker.
func NewMatrix(columns []string, rows int) *Matrix {
	data := make([][]float64, len(columns))
	for j := range data {
		col := make([]float64, rows)
		for i := range col {
			col[i] = Undefined()
		}
		data[j] = col
	}
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Matrix{Columns: cols, Data: data}
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int {
	if len(m.Data) == 0 {
		return 0
	}
	return len(m.Data[0])
}

// Cols returns the number of columns.
func (m *Matrix) Cols() int { return len(m.Columns) }

// ColumnIndex returns the position of a named column, or an error.
func (m *Matrix) ColumnIndex(name string) (int, error) {
	for j, c := range m.Columns {
		if c == name {
			return j, nil
		}
	}
	return 0, fmt.Errorf("column %s not in matrix", name)
}

// Clone returns a deep copy of the matrix.
func (m *Matrix) Clone() *Matrix {
	out := &Matrix{
		Columns: make([]string, len(m.Columns)),
		Data:    make([][]float64, len(m.Data)),
	}
	copy(out.Columns, m.Columns)
	for j, col := range m.Data {
		c := make([]float64, len(col))
		copy(c, col)
		out.Data[j] = c
	}
	return out
}

// UndefinedCount returns the number of undefined entries across all columns.
func (m *Matrix) UndefinedCount() int {
	count := 0
	for _, col := range m.Data {
		for _, v := range col {
			if IsUndefined(v) {
				count++
			}
		}
	}
	return count
}
