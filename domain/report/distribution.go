package report

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	lo "github.com/samber/lo"
)

var (
	// ErrMissingCycleTime is returned when a card has no cycle time to count.
	ErrMissingCycleTime = errors.New("card has no cycle time")
	// ErrNegativeCycleTime is returned for a cycle time below zero.
	ErrNegativeCycleTime = errors.New("card has a negative cycle time")
)

// Card is anything that can report its cycle time in business days. The
// bool is false when the card has not completed a cycle.
type Card interface {
	CycleTime() (int, bool)
}

// ServiceClassed is implemented by cards carrying a service class label.
type ServiceClassed interface {
	ServiceClassName() string
}

// HistogramRow is one bucket of the distribution. Percent is the share of
// all cards whose cycle time is at most Days.
type HistogramRow struct {
	Days    int     `json:"days"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// CycleTimeDistribution reports how cycle times spread across a set of cards.
type CycleTimeDistribution struct {
	cards []Card
}

// NewCycleTimeDistribution snapshots cards for reporting.
func NewCycleTimeDistribution[C Card](cards []C) *CycleTimeDistribution {
	return &CycleTimeDistribution{
		cards: lo.Map(cards, func(c C, _ int) Card { return c }),
	}
}

// Len returns the number of cards in the distribution.
func (d *CycleTimeDistribution) Len() int { return len(d.cards) }

// Histogram returns one row per distinct cycle time, ascending, with a
// running cumulative percentage.
func (d *CycleTimeDistribution) Histogram() ([]HistogramRow, error) {
	rows := []HistogramRow{}
	if len(d.cards) == 0 {
		return rows, nil
	}

	counts := make(map[int]int)
	for i, c := range d.cards {
		ct, ok := c.CycleTime()
		if !ok {
			return nil, fmt.Errorf("card %d: %w", i, ErrMissingCycleTime)
		}
		if ct < 0 {
			return nil, fmt.Errorf("card %d: %w: %d", i, ErrNegativeCycleTime, ct)
		}
		counts[ct]++
	}

	days := lo.Keys(counts)
	sort.Ints(days)

	total := float64(len(d.cards))
	running := 0
	for _, n := range days {
		running += counts[n]
		rows = append(rows, HistogramRow{
			Days:    n,
			Count:   counts[n],
			Percent: float64(running) / total,
		})
	}
	return rows, nil
}

// FilterByServiceClass keeps the cards whose service class matches name,
// ignoring case. Cards without a service class never match. An empty name
// keeps everything.
func FilterByServiceClass[C Card](cards []C, name string) []C {
	name = strings.TrimSpace(name)
	if name == "" {
		return cards
	}
	return lo.Filter(cards, func(c C, _ int) bool {
		sc, ok := any(c).(ServiceClassed)
		return ok && strings.EqualFold(strings.TrimSpace(sc.ServiceClassName()), name)
	})
}
