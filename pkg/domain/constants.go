package domain

import "math"

// Математические константы
const (
	Epsilon = 1e-9
)

// Метки участников в отчётах и маршрутах
const (
	SupplierLabel       = "Supplier"
	RecipientLabel      = "Recipient"
	DummySupplierLabel  = "Dummy supplier"
	DummyRecipientLabel = "Dummy recipient"
)

// FloatEquals сравнивает два float64 с учётом Epsilon
func FloatEquals(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// IsZero проверяет, равно ли значение нулю
func IsZero(v float64) bool {
	return math.Abs(v) < Epsilon
}

// IsFinite проверяет, что значение не NaN и не бесконечность
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
