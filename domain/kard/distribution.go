package kard

import (
	"kardboard/domain/calendar"
	"kardboard/domain/report"
)

// Distribution is the cycle-time histogram of the cards done inside r,
// optionally narrowed to one service class.
func Distribution(cards []Card, r calendar.DateRange, serviceClass string) ([]report.HistogramRow, int, error) {
	done := report.FilterByServiceClass(DoneBetween(cards, r), serviceClass)
	rows, err := report.NewCycleTimeDistribution(done).Histogram()
	if err != nil {
		return nil, 0, err
	}
	return rows, len(done), nil
}
