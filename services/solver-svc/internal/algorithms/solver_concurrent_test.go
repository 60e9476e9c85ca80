package algorithms

import (
	"reflect"
	"sync"
	"testing"

	"middleman/pkg/domain"
)

func TestSolverConcurrency(t *testing.T) {
	shared := pivotCase()
	expected, err := Solve(shared)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	t.Run("ConcurrentSolvesOnSharedInput", func(t *testing.T) {
		var wg sync.WaitGroup
		errs := make(chan string, 100)

		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()

				solution, err := Solve(shared)
				if err != nil {
					errs <- err.Error()
					return
				}
				if !reflect.DeepEqual(solution.Allocation, expected.Allocation) {
					errs <- "unexpected allocation"
					return
				}
				if !domain.FloatEquals(solution.TotalProfit, expected.TotalProfit) {
					errs <- "unexpected total profit"
				}
			}()
		}

		wg.Wait()
		close(errs)

		for msg := range errs {
			t.Error(msg)
		}
	})
}

func BenchmarkSolve(b *testing.B) {
	p := clearBest()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Solve(p); err != nil {
			b.Fatal(err)
		}
	}
}
