package events

import (
	"sort"
	"sync"
)

// Tally keeps running totals of sold quantity per goods across consumed events.
type Tally struct {
	mu      sync.Mutex
	orders  int64
	byGoods map[uint]int64
	seen    map[string]struct{}
}

func NewTally() *Tally {
	return &Tally{
		byGoods: make(map[uint]int64),
		seen:    make(map[string]struct{}),
	}
}

// Add folds one event into the totals. Redelivered orders are counted once.
func (t *Tally) Add(ev SalesCreated) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if ev.OrderNo != "" {
		if _, dup := t.seen[ev.OrderNo]; dup {
			return
		}
		t.seen[ev.OrderNo] = struct{}{}
	}

	t.orders++
	for _, line := range ev.Lines {
		t.byGoods[line.GoodsID] += line.Quantity
	}
}

type GoodsTotal struct {
	GoodsID  uint
	Quantity int64
}

// Snapshot returns the order count and per-goods totals, best sellers first.
func (t *Tally) Snapshot() (int64, []GoodsTotal) {
	t.mu.Lock()
	defer t.mu.Unlock()

	totals := make([]GoodsTotal, 0, len(t.byGoods))
	for id, qty := range t.byGoods {
		totals = append(totals, GoodsTotal{GoodsID: id, Quantity: qty})
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Quantity != totals[j].Quantity {
			return totals[i].Quantity > totals[j].Quantity
		}
		return totals[i].GoodsID < totals[j].GoodsID
	})
	return t.orders, totals
}
