package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"math"

	"middleman/pkg/domain"
)

// ProblemHash вычисляет хеш задачи для использования как ключ кэша.
// Числа хешируются побитно, поэтому 0.1+0.2 и 0.3 дают разные ключи, а -0 и +0 совпадают.
func ProblemHash(p *domain.Problem) string {
	if p == nil {
		return ""
	}

	h := sha256.New()
	writeInt(h, p.Suppliers)
	writeInt(h, p.Recipients)

	writeVector(h, p.Supply)
	writeVector(h, p.Demand)
	writeVector(h, p.PurchasePrices)
	writeVector(h, p.SellingPrices)

	writeInt(h, len(p.Costs))
	for _, row := range p.Costs {
		writeVector(h, row)
	}

	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:16])
}

func writeInt(h hash.Hash, v int) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(int64(v)))
	h.Write(buf[:])
}

// writeVector пишет длину и значения, чтобы [1,2][3] и [1][2,3] не совпадали
func writeVector(h hash.Hash, v []float64) {
	writeInt(h, len(v))
	var buf [8]byte
	for _, x := range v {
		if x == 0 {
			x = 0 // -0 -> +0
		}
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(x))
		h.Write(buf[:])
	}
}

// BuildSolveKey строит ключ кэша для результата решения
func BuildSolveKey(problemHash, mode string) string {
	return "solve:" + mode + ":" + problemHash
}
