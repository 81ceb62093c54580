package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const cardsCSV = "key,title,service_class,backlog_date,start_date,done_date,ticket_system_updated_at\n" +
	"CMS-1,Fix login,Standard,2024-01-01,2024-01-01,2024-01-08,2024-01-10T09:00:00Z\n" +
	"CMS-2,Add report,Expedite,2024-01-01,2024-01-01,2024-01-02,\n" +
	"CMS-3,Café menu,Standard,2024-01-01,2024-01-03,,\n" +
	"CMS-4,Old work,Standard,2023-12-01,2023-12-04,2023-12-05,\n"

func newTestServer(t *testing.T, withCards bool) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	if withCards {
		if err := os.WriteFile(filepath.Join(dir, "cards.csv"), []byte(cardsCSV), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	now := func() time.Time { return time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC) }
	srv := httptest.NewServer(New(Options{DataDir: dir, Now: now}))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

type distribution struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Cards int       `json:"cards"`
	Rows  []struct {
		Days    int     `json:"days"`
		Count   int     `json:"count"`
		Percent float64 `json:"percent"`
	} `json:"rows"`
}

func TestMonthDistribution(t *testing.T) {
	srv := newTestServer(t, true)

	var d distribution
	if code := get(t, srv.URL+"/api/reports/cycle/distribution?year=2024&month=1", &d); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if d.Cards != 2 || len(d.Rows) != 2 {
		t.Fatalf("distribution = %+v", d)
	}
	if d.Rows[0].Days != 1 || d.Rows[0].Percent != 0.5 || d.Rows[1].Days != 5 || d.Rows[1].Percent != 1 {
		t.Errorf("rows = %+v", d.Rows)
	}
	if want := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC); !d.End.Equal(want) {
		t.Errorf("End = %s, want %s", d.End, want)
	}

	d = distribution{}
	if code := get(t, srv.URL+"/api/reports/cycle/distribution?year=2024&month=1&service_class=Expedite", &d); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if d.Cards != 1 || len(d.Rows) != 1 || d.Rows[0].Days != 1 {
		t.Errorf("expedite distribution = %+v", d)
	}

	// Defaults to the current month.
	d = distribution{}
	get(t, srv.URL+"/api/reports/cycle/distribution", &d)
	if d.Cards != 2 {
		t.Errorf("current month cards = %d, want 2", d.Cards)
	}
}

func TestMonthDistribution_EmptyPeriod(t *testing.T) {
	srv := newTestServer(t, true)

	var d distribution
	if code := get(t, srv.URL+"/api/reports/cycle/distribution?year=2020&month=6", &d); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if d.Cards != 0 || d.Rows == nil || len(d.Rows) != 0 {
		t.Errorf("distribution = %+v, want empty rows", d)
	}
}

func TestWeekDistribution(t *testing.T) {
	srv := newTestServer(t, true)

	var d distribution
	if code := get(t, srv.URL+"/api/reports/cycle/distribution/week?date=2024-01-03", &d); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	// Week of Mon 1st to Sun 7th holds only CMS-2.
	if d.Cards != 1 || len(d.Rows) != 1 || d.Rows[0].Days != 1 {
		t.Errorf("distribution = %+v", d)
	}
	if !d.Start.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Start = %s", d.Start)
	}
}

func TestBadQueries(t *testing.T) {
	srv := newTestServer(t, true)
	for _, q := range []string{
		"/api/reports/cycle/distribution?month=13",
		"/api/reports/cycle/distribution?year=abc",
		"/api/reports/cycle/distribution/week?date=2024-02-30",
	} {
		if code := get(t, srv.URL+q, nil); code != http.StatusBadRequest {
			t.Errorf("GET %s status = %d, want 400", q, code)
		}
	}
}

func TestMissingFiles(t *testing.T) {
	srv := newTestServer(t, false)
	for _, route := range []string{"/api/cards", "/api/reports/cycle/distribution", "/api/cycle_time_distribution"} {
		if code := get(t, srv.URL+route, nil); code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", route, code)
		}
	}
}

func TestListCards(t *testing.T) {
	srv := newTestServer(t, true)

	var cards []struct {
		Key              string `json:"key"`
		Slug             string `json:"slug"`
		TicketURL        string `json:"ticket_url"`
		CycleTime        *int   `json:"cycle_time"`
		CurrentCycleTime *int   `json:"current_cycle_time"`
		Updated          string `json:"ticket_updated"`
	}
	if code := get(t, srv.URL+"/api/cards", &cards); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(cards) != 4 {
		t.Fatalf("cards = %d, want 4", len(cards))
	}
	first := cards[0]
	if first.CycleTime == nil || *first.CycleTime != 5 || first.Updated != "3 hours ago" {
		t.Errorf("first card = %+v", first)
	}
	if first.TicketURL != "http://example.com/ticket/CMS-1" || first.Slug != "fix-login" {
		t.Errorf("first card links = %+v", first)
	}
	third := cards[2]
	if third.CycleTime != nil || third.CurrentCycleTime == nil || *third.CurrentCycleTime != 6 || third.Slug != "cafe-menu" {
		t.Errorf("in-progress card = %+v", third)
	}
}
