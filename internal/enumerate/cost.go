package enumerate

// CostModel scores a plan; lower is better. The enumerator is agnostic to
// what the model actually measures (expected comparisons, index-miss rate,
// ...) — it only needs a total order to drive pruning.
type CostModel func(Plan) float64

// DefaultCostModel counts access operations, weighting a full scan highest
// and an indexed lookup lowest, then adds a size-proportional tie-breaker
// so that among equally-costed plans the structurally simpler one sorts
// first.
func DefaultCostModel(p Plan) float64 {
	return accessCost(p) + float64(p.Size())/10000.0
}

func accessCost(p Plan) float64 {
	switch n := p.(type) {
	case *AllWhere:
		return 100.0
	case *Filter:
		return accessCost(n.Plan) + 50.0
	case *HashLookup:
		return accessCost(n.Plan)/2 + 1.0
	case *BinarySearch:
		return accessCost(n.Plan)/2 + 5.0
	case *Intersect:
		return minCost(accessCost(n.A), accessCost(n.B))
	case *Union:
		return accessCost(n.A) + accessCost(n.B)
	case *Concat:
		return accessCost(n.A) + accessCost(n.B)
	default:
		panic("enumerate.accessCost: unsupported plan shape")
	}
}

func minCost(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
