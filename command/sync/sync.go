package cmdsync

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"kardboard/connectors/config"
	ccsv "kardboard/connectors/csv"
	"kardboard/connectors/ticket"
	dc "kardboard/domain/config"
)

// Run refreshes the ticket data cached on every card in <data>/cards.csv.
//
// Usage:
//
//	kardboard sync [-data ./data] [-sync=false] [-key KEY,KEY]
//
// ENV: JIRA_TOKEN or GITHUB_TOKEN, depending on ticket.system.
func Run(args []string) error {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	dataDir := fs.String("data", "", "directory holding cards.csv (default: config data_dir)")
	doSync := fs.Bool("sync", true, "fetch stale tickets; false only reports which are stale")
	keys := fs.String("key", "", "comma-separated card keys to update (default: all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Resolve()
	if err != nil {
		return err
	}
	if *dataDir == "" {
		*dataDir = cfg.DataDir
	}

	ctx := context.Background()
	helper, err := ticket.New(cfg.Ticket, connection(ctx, cfg.Ticket), ticket.NewMemoryCache(time.Hour))
	if err != nil {
		slog.Error("sync.validation.error", "system", cfg.Ticket.System, "error", err)
		return err
	}

	allowed := map[string]bool{}
	for _, k := range strings.Split(*keys, ",") {
		if k = strings.TrimSpace(k); k != "" {
			allowed[k] = true
		}
	}

	store := ccsv.NewStore(*dataDir)
	cards, err := store.Load(ctx)
	if err != nil {
		return err
	}
	slog.Info("sync.start", "system", cfg.Ticket.System, "cards", len(cards), "sync", *doSync)

	updated := 0
	for i := range cards {
		c := &cards[i]
		if len(allowed) > 0 && !allowed[c.Key] {
			continue
		}
		before := c.TicketSystemUpdatedAt
		if err := helper.Update(ctx, c, *doSync); err != nil {
			return fmt.Errorf("sync %s: %w", c.Key, err)
		}
		if !c.TicketSystemUpdatedAt.Equal(before) {
			updated++
		}
	}

	if err := store.Save(ctx, cards); err != nil {
		return err
	}
	slog.Info("sync.done", "cards", len(cards), "updated", updated)
	return nil
}

// connection returns the authenticated client for the configured system,
// or nil when no token is set.
func connection(ctx context.Context, cfg dc.TicketConfig) *ticket.Connection {
	var token string
	switch strings.ToLower(cfg.System) {
	case "jira":
		token = cfg.JIRA.Token
	case "github":
		token = cfg.GitHub.Token
	}
	if token == "" {
		return nil
	}
	return ticket.NewConnection(ctx, token)
}
