package domain

// Vector вектор значений (запасы, потребности, цены)
type Vector []float64

// Matrix прямоугольная матрица значений (стоимости, прибыли, поставки)
type Matrix [][]float64

// NewMatrix создаёт нулевую матрицу rows×cols
func NewMatrix(rows, cols int) Matrix {
	m := make(Matrix, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}

// Clone возвращает глубокую копию вектора
func (v Vector) Clone() Vector {
	if v == nil {
		return nil
	}
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// Sum возвращает сумму элементов
func (v Vector) Sum() float64 {
	var total float64
	for _, x := range v {
		total += x
	}
	return total
}

// Clone возвращает глубокую копию матрицы
func (m Matrix) Clone() Matrix {
	if m == nil {
		return nil
	}
	out := make(Matrix, len(m))
	for i, row := range m {
		out[i] = make([]float64, len(row))
		copy(out[i], row)
	}
	return out
}

// Rows количество строк
func (m Matrix) Rows() int {
	return len(m)
}

// Cols количество столбцов (по первой строке)
func (m Matrix) Cols() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// Sum возвращает сумму всех элементов
func (m Matrix) Sum() float64 {
	var total float64
	for _, row := range m {
		for _, x := range row {
			total += x
		}
	}
	return total
}

// RowSum возвращает сумму строки i
func (m Matrix) RowSum(i int) float64 {
	return Vector(m[i]).Sum()
}

// ColSum возвращает сумму столбца j
func (m Matrix) ColSum(j int) float64 {
	var total float64
	for _, row := range m {
		total += row[j]
	}
	return total
}

// AllZero проверяет, что все элементы матрицы равны нулю
func (m Matrix) AllZero() bool {
	for _, row := range m {
		for _, x := range row {
			if x != 0 {
				return false
			}
		}
	}
	return true
}
