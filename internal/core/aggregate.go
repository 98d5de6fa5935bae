package core

// GroupSum folds records into per-key totals. It does no I/O and applies no
// rounding; empty input yields an empty (non-nil) map.
func GroupSum[T any, K comparable](records []T, keyFn func(T) K, amountFn func(T) float64) map[K]float64 {
	sums := make(map[K]float64, len(records))
	for _, r := range records {
		sums[keyFn(r)] += amountFn(r)
	}
	return sums
}

// SumExpensesByCategory aggregates already-fetched expenses by category.
func SumExpensesByCategory(expenses []Expense) map[string]float64 {
	return GroupSum(expenses,
		func(e Expense) string { return e.Category },
		func(e Expense) float64 { return e.Amount })
}

// SumDebtsByDirection aggregates already-fetched debts by direction.
func SumDebtsByDirection(debts []Debt) map[Direction]float64 {
	return GroupSum(debts,
		func(d Debt) Direction { return d.Direction },
		func(d Debt) float64 { return d.Amount })
}
