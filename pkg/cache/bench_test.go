package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"middleman/pkg/domain"
)

func benchProblem(n int) *domain.Problem {
	p := &domain.Problem{
		Suppliers:      n,
		Recipients:     n,
		Costs:          make(domain.Matrix, n),
		Supply:         make(domain.Vector, n),
		Demand:         make(domain.Vector, n),
		PurchasePrices: make(domain.Vector, n),
		SellingPrices:  make(domain.Vector, n),
	}
	for i := 0; i < n; i++ {
		p.Costs[i] = make(domain.Vector, n)
		for j := 0; j < n; j++ {
			p.Costs[i][j] = float64((i*7+j*3)%11 + 1)
		}
		p.Supply[i] = float64(10 + i)
		p.Demand[i] = float64(12 + i)
		p.PurchasePrices[i] = float64(2 + i%3)
		p.SellingPrices[i] = float64(20 + i%5)
	}
	return p
}

func BenchmarkMemoryCache_SetGet(b *testing.B) {
	c := NewMemoryCache(DefaultOptions())
	defer c.Close()

	ctx := context.Background()
	value := make([]byte, 1024)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := fmt.Sprintf("key-%d", i%1000)
		_ = c.Set(ctx, key, value, time.Minute)
		_, _ = c.Get(ctx, key)
	}
}

func BenchmarkMemoryCache_Concurrent(b *testing.B) {
	c := NewMemoryCache(DefaultOptions())
	defer c.Close()

	ctx := context.Background()
	value := []byte("test-value")

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			key := fmt.Sprintf("key-%d", i%1000)
			_ = c.Set(ctx, key, value, time.Minute)
			_, _ = c.Get(ctx, key)
			i++
		}
	})
}

func BenchmarkMemoryCache_Eviction(b *testing.B) {
	c := NewMemoryCache(&Options{MaxEntries: 1000, DefaultTTL: time.Minute})
	defer c.Close()

	ctx := context.Background()
	value := []byte("test-value")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.Set(ctx, fmt.Sprintf("evict-key-%d", i), value, time.Minute)
	}
}

func BenchmarkProblemHash(b *testing.B) {
	for _, n := range []int{2, 10, 50, 100} {
		p := benchProblem(n)
		b.Run(fmt.Sprintf("%dx%d", n, n), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				ProblemHash(p)
			}
		})
	}
}

func BenchmarkSolutionCache_SetGet(b *testing.B) {
	sc := NewSolutionCache(NewMemoryCache(DefaultOptions()), 5*time.Minute)
	defer sc.Close()

	ctx := context.Background()
	p := benchProblem(20)
	result := &CachedSolution{
		Solution: &domain.Solution{
			Allocation:  domain.NewMatrix(20, 20),
			Profits:     domain.NewMatrix(20, 20),
			TotalProfit: 1000,
		},
		Iterations:  4,
		Termination: "optimal",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = sc.Set(ctx, p, ModeFull, result, 0)
		_, _, _ = sc.Get(ctx, p, ModeFull)
	}
}
