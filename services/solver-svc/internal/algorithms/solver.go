// Package algorithms implements the middleman (intermediary trader) solver:
// profit matrix construction, supply/demand balancing, greedy maximum-profit
// seeding and potential-based improvement of the allocation.
//
// # Pipeline
//
//	Problem -> Balance -> InitialAllocation -> Optimize -> Assemble -> Solution
//
// # Thread Safety
//
// Every call works on its own deep copy of the input, keeps no package-level
// state and is safe for concurrent use. Caller-owned matrices are never
// modified.
//
// # Non-finite input
//
// NaN and infinite values are not rejected here; they propagate through the
// arithmetic into the result. Callers validate numeric input beforehand.
//
// # Example Usage
//
//	solution, err := algorithms.Solve(&domain.Problem{
//	    Suppliers:      1,
//	    Recipients:     1,
//	    Costs:          domain.Matrix{{2}},
//	    Supply:         domain.Vector{10},
//	    Demand:         domain.Vector{10},
//	    PurchasePrices: domain.Vector{3},
//	    SellingPrices:  domain.Vector{8},
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("Total profit: %.2f\n", solution.TotalProfit) // 30.00
package algorithms

import (
	"errors"
	"fmt"
	"time"

	"middleman/pkg/domain"
)

// =============================================================================
// Error Definitions
// =============================================================================

var (
	// ErrNilProblem indicates that a nil problem was passed to the solver.
	ErrNilProblem = errors.New("problem is nil")

	// ErrDimensionMismatch indicates that a matrix or vector does not match the
	// declared number of suppliers or recipients. Such calls are aborted
	// without a partial result.
	ErrDimensionMismatch = domain.ErrDimensionMismatch
)

// =============================================================================
// Solver Options
// =============================================================================

// SolverOptions configures a solve call.
//
//	opts := DefaultSolverOptions().
//	    WithTrace(true)
type SolverOptions struct {
	// SkipOptimization returns the greedy seed without running the
	// improvement loop.
	SkipOptimization bool

	// RecordTrace keeps one IterationStep per improvement pass.
	RecordTrace bool
}

// DefaultSolverOptions runs the full pipeline without tracing.
func DefaultSolverOptions() *SolverOptions {
	return &SolverOptions{}
}

// WithSkipOptimization toggles the improvement loop and returns the options for chaining.
func (o *SolverOptions) WithSkipOptimization(skip bool) *SolverOptions {
	o.SkipOptimization = skip
	return o
}

// WithTrace toggles iteration tracing and returns the options for chaining.
func (o *SolverOptions) WithTrace(trace bool) *SolverOptions {
	o.RecordTrace = trace
	return o
}

// =============================================================================
// Solver Result
// =============================================================================

// SolverResult contains the solution together with the intermediate state
// that produced it.
type SolverResult struct {
	// Solution is the assembled result over the balanced problem.
	Solution *domain.Solution

	// Balanced is the problem the allocation refers to, including the dummy
	// participant when one was added.
	Balanced *domain.BalancedProblem

	// InitialAllocation is the greedy seed before improvement.
	InitialAllocation domain.Matrix

	// InitialProfit is the total profit of the greedy seed.
	InitialProfit float64

	// Iterations is the number of improvement passes performed.
	Iterations int

	// Termination explains why the improvement loop stopped.
	Termination Termination

	// RowPotentials and ColPotentials are the potentials of the last pass.
	RowPotentials []Potential
	ColPotentials []Potential

	// Steps is filled when RecordTrace was requested.
	Steps []IterationStep

	// Duration is the wall-clock time of the computation.
	Duration time.Duration
}

// =============================================================================
// Main Solver Entry Point
// =============================================================================

// Solve runs the complete pipeline with default options and returns the
// solution. The allocation and profit matrices refer to the balanced problem,
// so they may carry one extra dummy row or column.
func Solve(p *domain.Problem) (*domain.Solution, error) {
	result, err := SolveWithOptions(p, nil)
	if err != nil {
		return nil, err
	}
	return result.Solution, nil
}

// SolveWithOptions runs the pipeline and returns the solution with its
// intermediate state. A dimension mismatch aborts the call before any
// computation.
func SolveWithOptions(p *domain.Problem, options *SolverOptions) (*SolverResult, error) {
	start := time.Now()

	if p == nil {
		return nil, ErrNilProblem
	}
	if options == nil {
		options = DefaultSolverOptions()
	}
	if err := p.CheckDimensions(); err != nil {
		return nil, fmt.Errorf("invalid problem: %w", err)
	}

	balanced := Balance(p)
	initial := InitialAllocation(balanced)

	result := &SolverResult{
		Balanced:          balanced,
		InitialAllocation: initial.Clone(),
		InitialProfit:     TotalProfit(initial, Profits(&balanced.Problem)),
		Termination:       TerminationOptimal,
	}

	allocation := initial
	if options.SkipOptimization {
		result.RowPotentials, result.ColPotentials = ComputePotentials(balanced, allocation)
	} else {
		optimized := optimize(balanced, initial, options.RecordTrace)
		allocation = optimized.Allocation
		result.Iterations = optimized.Iterations
		result.Termination = optimized.Termination
		result.RowPotentials = optimized.RowPotentials
		result.ColPotentials = optimized.ColPotentials
		result.Steps = optimized.Steps
	}

	result.Solution = Assemble(balanced, allocation)
	result.Duration = time.Since(start)

	return result, nil
}
