// Package validation проверяет задачи посредника перед решением.
// Ошибки блокируют решение, предупреждения только сообщаются клиенту.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"middleman/pkg/apperror"
	"middleman/pkg/config"
	"middleman/pkg/domain"
	"middleman/services/solver-svc/internal/algorithms"
)

// Options ограничения проверки
type Options struct {
	// MaxDimension максимум поставщиков и получателей; 0 снимает ограничение
	MaxDimension int
	// RejectNonFinite запрещает NaN и Inf во входных данных
	RejectNonFinite bool
}

// DefaultOptions возвращает ограничения по умолчанию
func DefaultOptions() Options {
	return Options{MaxDimension: 500, RejectNonFinite: true}
}

// OptionsFromConfig создаёт ограничения из секции solver
func OptionsFromConfig(cfg *config.SolverConfig) Options {
	return Options{
		MaxDimension:    cfg.MaxDimension,
		RejectNonFinite: cfg.RejectNonFinite,
	}
}

var (
	structValidator *validator.Validate
	initOnce        sync.Once
)

// structs возвращает общий validator.Validate, поля называются по json тегам
func structs() *validator.Validate {
	initOnce.Do(func() {
		structValidator = validator.New(validator.WithRequiredStructEnabled())
		structValidator.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
	return structValidator
}

// Struct проверяет теги validate у структуры запроса и возвращает
// *apperror.Error с путём первого неверного поля
func Struct(s any) error {
	if err := structs().Struct(s); err != nil {
		return fromValidator(err).Err()
	}
	return nil
}

// fromValidator переводит ошибки validator/v10 в коллекцию ошибок приложения
func fromValidator(err error) *apperror.ValidationErrors {
	result := apperror.NewValidationErrors()

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		result.Add(apperror.Wrap(err, apperror.CodeInvalidArgument, "invalid request"))
		return result
	}

	for _, fe := range fieldErrs {
		result.AddErrorWithField(apperror.CodeInvalidArgument, describe(fe), fieldPath(fe))
	}
	return result
}

// fieldPath путь без имени корневой структуры: problem.suppliers
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func describe(fe validator.FieldError) string {
	field := fieldPath(fe)
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s failed %q check", field, fe.Tag())
	}
}

// Validator проверяет задачи с заданными ограничениями
type Validator struct {
	opts Options
}

// New создаёт валидатор
func New(opts Options) *Validator {
	return &Validator{opts: opts}
}

// Validate выполняет все проверки задачи по уровням: структура, размерности,
// значения, диагностика. Ошибка на уровне останавливает проверку.
func (v *Validator) Validate(p *domain.Problem) *apperror.ValidationErrors {
	result := apperror.NewValidationErrors()
	if p == nil {
		result.Add(apperror.NewWithField(apperror.CodeNilInput, "problem is required", "problem"))
		return result
	}

	for _, check := range []func(*domain.Problem) *apperror.ValidationErrors{
		v.checkStructure,
		checkDimensions,
		v.checkValues,
	} {
		result.Merge(check(p))
		if result.HasErrors() {
			return result
		}
	}

	result.Merge(Diagnose(p))
	return result
}

// checkStructure теги domain.Problem и ограничение размера
func (v *Validator) checkStructure(p *domain.Problem) *apperror.ValidationErrors {
	if err := structs().Struct(p); err != nil {
		return fromValidator(err)
	}

	result := apperror.NewValidationErrors()
	if v.opts.MaxDimension <= 0 {
		return result
	}

	limit := fmt.Sprintf("lte=%d", v.opts.MaxDimension)
	for _, dim := range []struct {
		field string
		value int
	}{
		{"suppliers", p.Suppliers},
		{"recipients", p.Recipients},
	} {
		if err := structs().Var(dim.value, limit); err != nil {
			result.Add(apperror.NewWithField(apperror.CodeProblemTooLarge,
				fmt.Sprintf("%s must be at most %d, got %d", dim.field, v.opts.MaxDimension, dim.value),
				dim.field))
		}
	}
	return result
}

// checkDimensions сверяет длины векторов и матрицы стоимостей с числом участников
func checkDimensions(p *domain.Problem) *apperror.ValidationErrors {
	result := apperror.NewValidationErrors()

	vectors := []struct {
		field string
		got   int
		want  int
	}{
		{"supply", len(p.Supply), p.Suppliers},
		{"purchasePrices", len(p.PurchasePrices), p.Suppliers},
		{"demand", len(p.Demand), p.Recipients},
		{"sellingPrices", len(p.SellingPrices), p.Recipients},
		{"costs", len(p.Costs), p.Suppliers},
	}
	for _, vec := range vectors {
		if vec.got != vec.want {
			result.AddErrorWithField(apperror.CodeDimensionMismatch,
				fmt.Sprintf("%s has %d entries, expected %d", vec.field, vec.got, vec.want), vec.field)
		}
	}

	for i, row := range p.Costs {
		if len(row) != p.Recipients {
			field := fmt.Sprintf("costs[%d]", i)
			result.AddErrorWithField(apperror.CodeDimensionMismatch,
				fmt.Sprintf("%s has %d entries, expected %d", field, len(row), p.Recipients), field)
		}
	}
	return result
}

// checkValues отрицательные запасы и потребности, NaN и Inf
func (v *Validator) checkValues(p *domain.Problem) *apperror.ValidationErrors {
	result := apperror.NewValidationErrors()

	check := func(field string, values []float64, quantity bool) {
		for i, x := range values {
			path := fmt.Sprintf("%s[%d]", field, i)
			switch {
			case !domain.IsFinite(x):
				if v.opts.RejectNonFinite {
					result.AddErrorWithField(apperror.CodeNonFiniteValue,
						fmt.Sprintf("%s must be a finite number, got %v", path, x), path)
				}
			case quantity && x < 0:
				result.AddErrorWithField(apperror.CodeNegativeQuantity,
					fmt.Sprintf("%s must not be negative, got %v", path, x), path)
			}
		}
	}

	check("supply", p.Supply, true)
	check("demand", p.Demand, true)
	check("purchasePrices", p.PurchasePrices, false)
	check("sellingPrices", p.SellingPrices, false)
	for i, row := range p.Costs {
		check(fmt.Sprintf("costs[%d]", i), row, false)
	}
	return result
}

// Diagnose возвращает предупреждения для корректной задачи: несбалансированность,
// нулевые запасы или потребности, отсутствие прибыльных маршрутов
func Diagnose(p *domain.Problem) *apperror.ValidationErrors {
	result := apperror.NewValidationErrors()

	supply, demand := p.TotalSupply(), p.TotalDemand()
	switch {
	case domain.FloatEquals(supply, demand):
	case supply > demand:
		result.AddWarning(apperror.CodeUnbalanced, fmt.Sprintf(
			"total supply %g exceeds total demand %g, a dummy recipient will absorb %g",
			supply, demand, supply-demand))
	default:
		result.AddWarning(apperror.CodeUnbalanced, fmt.Sprintf(
			"total demand %g exceeds total supply %g, a dummy supplier will cover %g",
			demand, supply, demand-supply))
	}

	if domain.IsZero(supply) {
		result.AddWarning(apperror.CodeZeroSupply, "total supply is zero, nothing can be shipped")
	}
	if domain.IsZero(demand) {
		result.AddWarning(apperror.CodeZeroDemand, "total demand is zero, nothing can be sold")
	}

	if p.Size() > 0 && !hasProfitableRoute(p) {
		result.AddWarning(apperror.CodeNoProfitableRoute,
			"no route has a positive unit profit, the allocation will be empty")
	}
	return result
}

func hasProfitableRoute(p *domain.Problem) bool {
	for _, row := range algorithms.Profits(p) {
		for _, v := range row {
			if v > 0 {
				return true
			}
		}
	}
	return false
}
