package csv

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"kardboard/domain/kard"

	"github.com/google/uuid"
)

var cardHeaders = []string{"id", "key", "title", "service_class", "backlog_date", "start_date", "done_date", "ticket_system_updated_at", "ticket_system_data"}

// Store keeps cards in a single CSV file.
type Store struct {
	Path string
}

// NewStore returns a store backed by <dir>/cards.csv.
func NewStore(dir string) *Store {
	return &Store{Path: filepath.Join(dir, "cards.csv")}
}

// Load reads every card. Cards without an id are given a fresh one.
func (s *Store) Load(ctx context.Context) ([]kard.Card, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	head, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []kard.Card{}, nil
		}
		return nil, err
	}
	idx := indexMap(head)
	for _, col := range []string{"key", "backlog_date"} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%s missing column %s", filepath.Base(s.Path), col)
		}
	}
	field := func(rec []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	cards := []kard.Card{}
	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		c := kard.Card{
			ID:           field(rec, "id"),
			Key:          field(rec, "key"),
			Title:        field(rec, "title"),
			ServiceClass: kard.ServiceClass{Name: field(rec, "service_class")},
		}
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if c.BacklogDate, err = parseTime(field(rec, "backlog_date")); err != nil {
			return nil, fmt.Errorf("line %d backlog_date: %w", line, err)
		}
		if c.StartDate, err = parseOptionalTime(field(rec, "start_date")); err != nil {
			return nil, fmt.Errorf("line %d start_date: %w", line, err)
		}
		if c.DoneDate, err = parseOptionalTime(field(rec, "done_date")); err != nil {
			return nil, fmt.Errorf("line %d done_date: %w", line, err)
		}
		if v := field(rec, "ticket_system_updated_at"); v != "" {
			if c.TicketSystemUpdatedAt, err = parseTime(v); err != nil {
				return nil, fmt.Errorf("line %d ticket_system_updated_at: %w", line, err)
			}
		}
		if v := field(rec, "ticket_system_data"); v != "" {
			if err := json.Unmarshal([]byte(v), &c.TicketSystemData); err != nil {
				return nil, fmt.Errorf("line %d ticket_system_data: %w", line, err)
			}
		}
		cards = append(cards, c)
	}
	slog.Info("store.cards.loaded", "path", s.Path, "count", len(cards))
	return cards, nil
}

// Save overwrites the file with cards.
func (s *Store) Save(ctx context.Context, cards []kard.Card) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(s.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(cardHeaders); err != nil {
		return err
	}
	for _, c := range cards {
		if err := ctx.Err(); err != nil {
			return err
		}
		data := ""
		if len(c.TicketSystemData) > 0 {
			b, err := json.Marshal(c.TicketSystemData)
			if err != nil {
				return fmt.Errorf("card %s ticket_system_data: %w", c.Key, err)
			}
			data = string(b)
		}
		updated := ""
		if !c.TicketSystemUpdatedAt.IsZero() {
			updated = c.TicketSystemUpdatedAt.UTC().Format(time.RFC3339Nano)
		}
		row := []string{
			c.ID,
			c.Key,
			c.Title,
			c.ServiceClass.Name,
			c.BacklogDate.UTC().Format(time.RFC3339Nano),
			formatTime(c.StartDate),
			formatTime(c.DoneDate),
			updated,
			data,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	slog.Info("store.cards.saved", "path", s.Path, "count", len(cards))
	return nil
}

func indexMap(headers []string) map[string]int {
	m := map[string]int{}
	for i, h := range headers {
		m[strings.TrimSpace(strings.ToLower(h))] = i
	}
	return m
}

// parseTime accepts RFC3339 timestamps, with or without fractional
// seconds, or bare YYYY-MM-DD dates.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

func parseOptionalTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseTime(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
