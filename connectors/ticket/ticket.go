// Package ticket keeps a cached copy of remote ticket-system data on cards.
package ticket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	dc "kardboard/domain/config"
	"kardboard/domain/kard"
)

// ErrImproperlyConfigured is returned when a helper is missing required settings.
var ErrImproperlyConfigured = errors.New("ticket system improperly configured")

// Helper reads and refreshes the ticket data cached on a card.
type Helper interface {
	Title(c *kard.Card) string
	TicketURL(key string) string
	// Update refreshes c.TicketSystemData. With sync false a stale card is
	// only reported, not fetched.
	Update(ctx context.Context, c *kard.Card, sync bool) error
}

// New builds the helper named by cfg.System. conn carries the authenticated
// HTTP client shared by every helper talking to the same system.
func New(cfg dc.TicketConfig, conn *Connection, cache Cache) (Helper, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.System)) {
	case "", "test":
		return NewTestHelper(), nil
	case "jira":
		h, err := NewJIRAHelper(cfg, conn, cache)
		if err != nil {
			return nil, err
		}
		return h, nil
	case "github":
		h, err := NewGitHubHelper(cfg, conn)
		if err != nil {
			return nil, err
		}
		return h, nil
	default:
		return nil, fmt.Errorf("%w: unknown ticket system %q", ErrImproperlyConfigured, cfg.System)
	}
}

func title(c *kard.Card) string {
	s, _ := c.TicketSystemData["summary"].(string)
	return s
}

type fetchFunc func(ctx context.Context, key string) (map[string]any, error)

// refresher holds the staleness rule shared by the remote helpers.
type refresher struct {
	system     string
	staleAfter time.Duration
	now        func() time.Time
	fetch      fetchFunc
}

func (r refresher) update(ctx context.Context, c *kard.Card, sync bool) error {
	if len(c.TicketSystemData) > 0 {
		age := r.now().Sub(c.TicketSystemUpdatedAt)
		if age < r.staleAfter {
			slog.Info("ticket.fresh", "system", r.system, "key", c.Key, "age", age)
			return nil
		}
		slog.Info("ticket.stale", "system", r.system, "key", c.Key, "age", age, "sync", sync)
		if !sync {
			return nil
		}
	}
	return r.actuallyUpdate(ctx, c)
}

// actuallyUpdate fetches the ticket. A failed fetch is logged and leaves
// the card with empty data so the report is never blocked by the remote.
func (r refresher) actuallyUpdate(ctx context.Context, c *kard.Card) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.TicketSystemUpdatedAt = r.now()
	slog.Info("ticket.fetch.start", "system", r.system, "key", c.Key)
	data, err := r.fetch(ctx, c.Key)
	if err != nil {
		slog.Error("ticket.fetch.error", "system", r.system, "key", c.Key, "error", err)
		data = map[string]any{}
	}
	c.TicketSystemData = data
	return nil
}

// TestHelper fills cards with canned data. It is the default system.
type TestHelper struct {
	now func() time.Time
}

func NewTestHelper() *TestHelper {
	return &TestHelper{now: time.Now}
}

func (h *TestHelper) Title(c *kard.Card) string { return title(c) }

func (h *TestHelper) TicketURL(key string) string {
	return "http://example.com/ticket/" + key
}

func (h *TestHelper) Update(ctx context.Context, c *kard.Card, sync bool) error {
	c.TicketSystemUpdatedAt = h.now()
	c.TicketSystemData = map[string]any{
		"summary": "Dummy Title from Dummy Ticket System",
	}
	return nil
}
