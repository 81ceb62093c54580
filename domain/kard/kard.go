package kard

import (
	"time"

	"kardboard/domain/calendar"

	lo "github.com/samber/lo"
)

// ServiceClass names the treatment tier of a card (Standard, Expedite, ...).
type ServiceClass struct {
	Name string `json:"name" yaml:"name"`
}

// Card is a unit of work moving across the board.
type Card struct {
	ID           string       `json:"id"`
	Key          string       `json:"key"`
	Title        string       `json:"title"`
	ServiceClass ServiceClass `json:"service_class"`
	BacklogDate  time.Time    `json:"backlog_date"`
	StartDate    *time.Time   `json:"start_date,omitempty"`
	DoneDate     *time.Time   `json:"done_date,omitempty"`

	// Cached copy of the remote ticket, refreshed by a ticket helper.
	TicketSystemData      map[string]any `json:"ticket_system_data,omitempty"`
	TicketSystemUpdatedAt time.Time      `json:"ticket_system_updated_at,omitempty"`
}

// CycleTime is the number of business days from start to done. It is
// missing until the card has both dates.
func (c Card) CycleTime() (int, bool) {
	if c.StartDate == nil || c.DoneDate == nil {
		return 0, false
	}
	return calendar.BusinessDaysBetween(*c.StartDate, *c.DoneDate), true
}

// LeadTime is the number of business days from backlog to done.
func (c Card) LeadTime() (int, bool) {
	if c.DoneDate == nil || c.BacklogDate.IsZero() {
		return 0, false
	}
	return calendar.BusinessDaysBetween(c.BacklogDate, *c.DoneDate), true
}

// CurrentCycleTime is how long a started card has been in process as of
// now. Done cards report their final cycle time.
func (c Card) CurrentCycleTime(now time.Time) (int, bool) {
	if c.StartDate == nil {
		return 0, false
	}
	if c.DoneDate != nil {
		return c.CycleTime()
	}
	return calendar.BusinessDaysBetween(*c.StartDate, now), true
}

func (c Card) ServiceClassName() string { return c.ServiceClass.Name }

// Done reports whether the card has been completed.
func (c Card) Done() bool { return c.DoneDate != nil }

// Slug is the URL-safe form of the card title.
func (c Card) Slug() string { return Slugify(c.Title, "-") }

// DoneBetween keeps the cards completed inside r.
func DoneBetween(cards []Card, r calendar.DateRange) []Card {
	return lo.Filter(cards, func(c Card, _ int) bool {
		return c.DoneDate != nil && r.Contains(*c.DoneDate)
	})
}

// InProgress keeps the cards started but not yet done.
func InProgress(cards []Card) []Card {
	return lo.Filter(cards, func(c Card, _ int) bool {
		return c.StartDate != nil && c.DoneDate == nil
	})
}
