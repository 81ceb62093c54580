package cmdreport

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ccsv "kardboard/connectors/csv"
	"kardboard/domain/calendar"
)

func TestPeriod(t *testing.T) {
	now := time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		year      int
		month     int
		week      string
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"current month", 0, 0, "", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC)},
		{"given month", 2023, 11, "", time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC), time.Date(2023, 11, 30, 23, 59, 59, 0, time.UTC)},
		{"week wins", 2023, 11, "2024-03-13", time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 17, 23, 59, 59, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Period(tt.year, tt.month, tt.week, now)
			if err != nil {
				t.Fatalf("Period() error = %v", err)
			}
			if !r.Start.Equal(tt.wantStart) || !r.End.Equal(tt.wantEnd) {
				t.Errorf("Period() = %s - %s, want %s - %s", r.Start, r.End, tt.wantStart, tt.wantEnd)
			}
		})
	}

	bad := []struct {
		month int
		week  string
	}{
		{13, ""},
		{0, "2024-02-30"},
		{0, "soon"},
	}
	for _, b := range bad {
		if _, err := Period(0, b.month, b.week, now); !errors.Is(err, calendar.ErrInvalidDate) {
			t.Errorf("Period(month=%d, week=%q) error = %v, want ErrInvalidDate", b.month, b.week, err)
		}
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_PATH", filepath.Join(dir, "missing.yml"))
	cards := "key,service_class,backlog_date,start_date,done_date\n" +
		"A-1,Standard,2024-03-01,2024-03-04,2024-03-05\n" +
		"A-2,Standard,2024-03-01,2024-03-04,2024-03-11\n" +
		"A-3,Expedite,2024-03-01,2024-03-04,2024-03-05\n" +
		"A-4,Standard,2024-03-01,2024-03-04,\n" +
		"A-5,Standard,2024-02-01,2024-02-05,2024-02-06\n"
	if err := os.WriteFile(filepath.Join(dir, "cards.csv"), []byte(cards), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	now := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	if err := run([]string{"-data", dir, "-service-class", "standard"}, &out, now); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !strings.Contains(out.String(), "(2 cards)") {
		t.Errorf("output = %q", out.String())
	}

	rows, err := ccsv.ReadRows(filepath.Join(dir, "cycle_time_distribution.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0]["days"] != "1" || rows[0]["percent"] != "0.5" || rows[1]["days"] != "5" || rows[1]["percent"] != "1" {
		t.Errorf("rows = %v", rows)
	}
}

func TestRun_MissingCards(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_PATH", filepath.Join(dir, "missing.yml"))
	if err := run([]string{"-data", dir}, &bytes.Buffer{}, time.Now()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("run() error = %v, want not exist", err)
	}
}
