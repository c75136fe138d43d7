package inventory

import (
	"math"
	"sort"
	"time"
)

// EventKind separates stock increases from decreases.
type EventKind string

const (
	EventPurchase EventKind = "purchase"
	EventUsage    EventKind = "usage"
)

// Event is one purchase or usage applied to an item's valuation. Seq is the
// source row id, used only to make same-day ordering deterministic.
type Event struct {
	ItemID   int64
	Kind     EventKind
	Date     time.Time
	Qty      float64
	UnitCost float64
	Seq      int64
}

// State holds the running quantity and weighted-average cost of one item.
type State struct {
	Qty     float64
	AvgCost float64
}

// Apply folds one event into the state. Purchases recompute the weighted
// average; usages consume at the current average and leave it unchanged.
// Usage quantity is clamped so replay never yields negative stock.
func Apply(s State, e Event) State {
	switch e.Kind {
	case EventPurchase:
		newQty := s.Qty + e.Qty
		if newQty <= 0 {
			return State{}
		}
		return State{
			Qty:     newQty,
			AvgCost: (s.Qty*s.AvgCost + e.Qty*e.UnitCost) / newQty,
		}
	case EventUsage:
		return State{
			Qty:     math.Max(0, s.Qty-e.Qty),
			AvgCost: s.AvgCost,
		}
	}
	return s
}

// ConsumedCost is the cost a usage removes from inventory: quantity at the
// current average, clamped so it never implies negative remaining stock.
func ConsumedCost(s State, qty float64) float64 {
	return math.Min(qty, s.Qty) * s.AvgCost
}

// SortEvents orders events for replay: date ascending, purchases before
// usages on same-day ties (so a same-day restock is available before it is
// consumed), then source id.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Kind != b.Kind {
			return a.Kind == EventPurchase
		}
		return a.Seq < b.Seq
	})
}

// Replay recomputes every item's state from scratch. Average-cost history is
// path dependent, so this full replay is the only sound way to absorb a
// retroactive edit; point-fixes are never attempted.
func Replay(events []Event) map[int64]State {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	SortEvents(sorted)

	states := make(map[int64]State)
	for _, e := range sorted {
		states[e.ItemID] = Apply(states[e.ItemID], e)
	}
	return states
}
