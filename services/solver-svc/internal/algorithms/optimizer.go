package algorithms

import (
	"math"

	"middleman/pkg/domain"
)

// MaxIterations bounds the improvement loop. The simplified pivot has no
// proven convergence bound, so the cap is what guarantees termination.
const MaxIterations = 100

// Termination explains why the improvement loop stopped.
type Termination string

const (
	// TerminationOptimal means no non-basic route had a positive opportunity cost.
	TerminationOptimal Termination = "optimal"

	// TerminationIterationLimit means MaxIterations passes were performed.
	TerminationIterationLimit Termination = "iteration_limit"
)

// Potential is a row or column dual value. Known is false until the value
// has been derived from a basic route.
type Potential struct {
	Value float64 `json:"value"`
	Known bool    `json:"known"`
}

// IterationStep records one pass of the improvement loop.
type IterationStep struct {
	Iteration       int     `json:"iteration"`
	BasicCells      int     `json:"basicCells"`
	UnknownRows     int     `json:"unknownRows"`
	UnknownCols     int     `json:"unknownCols"`
	EnteringRow     int     `json:"enteringRow"`
	EnteringCol     int     `json:"enteringCol"`
	OpportunityCost float64 `json:"opportunityCost"`
	Shift           float64 `json:"shift"`
	ReducedRow      int     `json:"reducedRow"`
}

// OptimizeResult is the outcome of the improvement loop.
type OptimizeResult struct {
	Allocation    domain.Matrix
	Iterations    int
	Termination   Termination
	RowPotentials []Potential
	ColPotentials []Potential
	Steps         []IterationStep
}

type cell struct {
	i, j int
}

// Optimize improves an initial allocation with the potential method.
//
// Every pass collects the basic routes (allocation > 0), derives row and
// column potentials from them, prices the non-basic routes and moves quantity
// into the route with the greatest positive opportunity cost. The pivot is a
// single-cell adjustment: the entering route gains minShift and only the first
// other basic route in the entering column loses it (clamped at zero). Row and
// column sums are therefore not guaranteed to keep matching supply and demand.
//
// The initial allocation is copied and never modified.
func Optimize(p *domain.BalancedProblem, initial domain.Matrix) *OptimizeResult {
	return optimize(p, initial, false)
}

func optimize(p *domain.BalancedProblem, initial domain.Matrix, trace bool) *OptimizeResult {
	result := &OptimizeResult{
		Allocation:  initial.Clone(),
		Termination: TerminationOptimal,
	}
	allocation := result.Allocation

	for result.Iterations < MaxIterations {
		result.Iterations++

		basic := basicCells(allocation, p.Suppliers, p.Recipients)
		profits := Profits(&p.Problem)
		u, v := potentials(basic, profits, p.Suppliers, p.Recipients)
		result.RowPotentials, result.ColPotentials = u, v

		ei, ej, best := enteringCell(allocation, profits, u, v)
		if ei == -1 {
			result.Termination = TerminationOptimal
			return result
		}

		step := IterationStep{
			Iteration:       result.Iterations,
			BasicCells:      len(basic),
			UnknownRows:     countUnknown(u),
			UnknownCols:     countUnknown(v),
			EnteringRow:     ei,
			EnteringCol:     ej,
			OpportunityCost: best,
			ReducedRow:      -1,
		}

		// v[ej] is only known through a basic route in column ej on another
		// row, so the shift is always positive here.
		step.Shift, step.ReducedRow = pivot(allocation, ei, ej)
		if trace {
			result.Steps = append(result.Steps, step)
		}
	}

	result.Termination = TerminationIterationLimit
	return result
}

// basicCells returns routes carrying positive quantity in row-major order.
func basicCells(allocation domain.Matrix, rows, cols int) []cell {
	var basic []cell
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if allocation[i][j] > 0 {
				basic = append(basic, cell{i, j})
			}
		}
	}
	return basic
}

// potentials derives u and v from the basic routes with u[0] = 0.
//
// The work list holds basic routes that still have an unknown endpoint. Each
// pass walks it in order, derives the missing potential of every route with
// exactly one known endpoint and drops routes whose endpoints are both known.
// The loop ends on the first pass that derives nothing. Rows and columns not
// connected to row 0 through basic routes keep Known == false.
func potentials(basic []cell, profits domain.Matrix, rows, cols int) ([]Potential, []Potential) {
	u := make([]Potential, rows)
	v := make([]Potential, cols)
	if rows == 0 {
		return u, v
	}
	u[0] = Potential{Value: 0, Known: true}

	pending := make([]cell, len(basic))
	copy(pending, basic)

	for progress := true; progress && len(pending) > 0; {
		progress = false
		next := pending[:0]

		for _, c := range pending {
			switch {
			case u[c.i].Known && !v[c.j].Known:
				v[c.j] = Potential{Value: profits[c.i][c.j] - u[c.i].Value, Known: true}
				progress = true
			case !u[c.i].Known && v[c.j].Known:
				u[c.i] = Potential{Value: profits[c.i][c.j] - v[c.j].Value, Known: true}
				progress = true
			case !u[c.i].Known && !v[c.j].Known:
				next = append(next, c)
			}
		}

		pending = next
	}

	return u, v
}

// enteringCell returns the non-basic route with the strictly greatest positive
// opportunity cost, or -1, -1 when there is none.
func enteringCell(allocation, profits domain.Matrix, u, v []Potential) (int, int, float64) {
	best := 0.0
	ei, ej := -1, -1

	for i := range u {
		if !u[i].Known {
			continue
		}
		for j := range v {
			if allocation[i][j] != 0 || !v[j].Known {
				continue
			}
			opportunity := profits[i][j] - u[i].Value - v[j].Value
			if opportunity > best {
				best = opportunity
				ei, ej = i, j
			}
		}
	}

	return ei, ej, best
}

// pivot moves the smallest positive quantity found in the entering column and
// row into the entering route and takes it from the first other basic route of
// the entering column. It returns the shift and the reduced row (-1 if none).
func pivot(allocation domain.Matrix, ei, ej int) (float64, int) {
	minShift := math.Inf(1)

	for i := range allocation {
		if i != ei && allocation[i][ej] > 0 {
			minShift = math.Min(minShift, allocation[i][ej])
		}
	}
	for j := range allocation[ei] {
		if j != ej && allocation[ei][j] > 0 {
			minShift = math.Min(minShift, allocation[ei][j])
		}
	}

	if math.IsInf(minShift, 1) || !(minShift > 0) {
		return 0, -1
	}

	allocation[ei][ej] += minShift

	for i := range allocation {
		if i != ei && allocation[i][ej] > 0 {
			allocation[i][ej] = math.Max(0, allocation[i][ej]-minShift)
			return minShift, i
		}
	}

	return minShift, -1
}

func countUnknown(ps []Potential) int {
	n := 0
	for _, p := range ps {
		if !p.Known {
			n++
		}
	}
	return n
}

// ComputePotentials derives row and column potentials for an allocation.
func ComputePotentials(p *domain.BalancedProblem, allocation domain.Matrix) ([]Potential, []Potential) {
	return potentials(
		basicCells(allocation, p.Suppliers, p.Recipients),
		Profits(&p.Problem),
		p.Suppliers,
		p.Recipients,
	)
}
