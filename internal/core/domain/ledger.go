package domain

import "sync"

// CostLedger accumulates the monetary cost of every language model call made
// while answering one question. Purely additive: nothing may subtract, and
// negative figures are rejected. Safe for concurrent use so parallel
// sub-question execution can record cost as calls complete. Cost already
// recorded stays recorded even if the request is cancelled afterwards.
type CostLedger struct {
	mu    sync.Mutex
	total float64
}

func NewCostLedger() *CostLedger {
	return &CostLedger{}
}

func (l *CostLedger) Add(cost float64) {
	if cost <= 0 {
		return
	}
	l.mu.Lock()
	l.total += cost
	l.mu.Unlock()
}

func (l *CostLedger) Total() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}
