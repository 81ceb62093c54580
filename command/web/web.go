package web

import (
	"errors"
	"flag"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"kardboard/connectors/config"
	ccsv "kardboard/connectors/csv"
	"kardboard/connectors/ticket"
	"kardboard/domain/calendar"
	"kardboard/domain/kard"
	"kardboard/domain/report"

	"github.com/labstack/echo/v4"
	lo "github.com/samber/lo"
)

// Options configures the HTTP server.
type Options struct {
	DataDir string
	UIDir   string
	// Helper builds ticket links; defaults to the test helper.
	Helper ticket.Helper
	Now    func() time.Time
}

// Run starts an Echo web server exposing cards and cycle-time reports as
// JSON, plus an optional SPA dashboard.
//
// Usage:
//
//	kardboard web [-addr :8080] [-data ./data] [-ui ./ui/dist]
//
// Endpoints:
//
//	GET /api/cards                                  -> every card with its times
//	GET /api/reports/cycle/distribution             -> ?year=&month=&service_class=
//	GET /api/reports/cycle/distribution/week        -> ?date=YYYY-MM-DD&service_class=
//	GET /api/cycle_time_distribution                -> <data>/cycle_time_distribution.csv
//
// When -ui points to a built app (index.html exists), static files are
// served at / and unknown routes fall back to index.html for SPA routing.
func Run(args []string) error {
	cfg, err := config.Resolve()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	addr := fs.String("addr", cfg.Web.Addr, "http listen address (host:port)")
	dataDir := fs.String("data", cfg.DataDir, "directory containing cards.csv")
	uiDir := fs.String("ui", cfg.Web.UIDir, "directory containing built UI")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// Links only; a token is not needed to build them.
	helper, err := ticket.New(cfg.Ticket, ticket.NewAnonymousConnection(), nil)
	if err != nil {
		return err
	}

	e := New(Options{DataDir: *dataDir, UIDir: *uiDir, Helper: helper})
	return e.Start(*addr)
}

// New wires the routes.
func New(opts Options) *echo.Echo {
	if opts.Helper == nil {
		opts.Helper = ticket.NewTestHelper()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &server{opts: opts, store: ccsv.NewStore(opts.DataDir)}

	e := echo.New()
	e.HideBanner = true

	e.GET("/api/cards", s.listCards)
	e.GET("/api/reports/cycle/distribution", s.monthDistribution)
	e.GET("/api/reports/cycle/distribution/week", s.weekDistribution)
	s.serveCSV(e, "/api/cycle_time_distribution", "cycle_time_distribution.csv")

	// Static UI (optional)
	indexPath := filepath.Join(opts.UIDir, "index.html")
	if fi, err := os.Stat(indexPath); opts.UIDir != "" && err == nil && !fi.IsDir() {
		e.Static("/", opts.UIDir)
		e.GET("/", func(c echo.Context) error { return c.File(indexPath) })

		// Fallback to index.html for non-API 404s while keeping static assets working
		e.HTTPErrorHandler = func(err error, c echo.Context) {
			if he, ok := err.(*echo.HTTPError); ok && he.Code == http.StatusNotFound {
				if !strings.HasPrefix(c.Request().URL.Path, "/api") {
					_ = c.File(indexPath)
					return
				}
			}
			e.DefaultHTTPErrorHandler(err, c)
		}
	}
	return e
}

type server struct {
	opts  Options
	store *ccsv.Store
}

type cardView struct {
	kard.Card
	Slug             string `json:"slug"`
	TicketURL        string `json:"ticket_url"`
	TicketTitle      string `json:"ticket_title,omitempty"`
	CycleTime        *int   `json:"cycle_time,omitempty"`
	LeadTime         *int   `json:"lead_time,omitempty"`
	CurrentCycleTime *int   `json:"current_cycle_time,omitempty"`
	Updated          string `json:"ticket_updated,omitempty"`
}

type distributionResponse struct {
	Start        time.Time             `json:"start"`
	End          time.Time             `json:"end"`
	ServiceClass string                `json:"service_class,omitempty"`
	Cards        int                   `json:"cards"`
	Rows         []report.HistogramRow `json:"rows"`
}

func optional(v int, ok bool) *int {
	if !ok {
		return nil
	}
	return &v
}

func (s *server) listCards(c echo.Context) error {
	cards, err := s.loadCards(c)
	if err != nil {
		return err
	}
	now := s.opts.Now()
	views := lo.Map(cards, func(k kard.Card, _ int) cardView {
		v := cardView{
			Card:             k,
			Slug:             k.Slug(),
			TicketURL:        s.opts.Helper.TicketURL(k.Key),
			TicketTitle:      s.opts.Helper.Title(&k),
			CycleTime:        optional(k.CycleTime()),
			LeadTime:         optional(k.LeadTime()),
			CurrentCycleTime: optional(k.CurrentCycleTime(now)),
		}
		if !k.TicketSystemUpdatedAt.IsZero() {
			v.Updated = calendar.TimeSince(k.TicketSystemUpdatedAt, now)
		}
		return v
	})
	return c.JSON(http.StatusOK, views)
}

func (s *server) monthDistribution(c echo.Context) error {
	year, err := intParam(c, "year")
	if err != nil {
		return err
	}
	month, err := intParam(c, "month")
	if err != nil {
		return err
	}
	period, err := calendar.MonthPeriod(year, time.Month(month), s.opts.Now())
	if err != nil {
		return badRequest(err)
	}
	return s.distribution(c, period)
}

func (s *server) weekDistribution(c echo.Context) error {
	now := s.opts.Now()
	day := now
	if raw := c.QueryParam("date"); raw != "" {
		d, err := time.ParseInLocation(time.DateOnly, raw, now.Location())
		if err != nil {
			return badRequest(err)
		}
		day = d
	}
	return s.distribution(c, calendar.WeekRange(day))
}

func (s *server) distribution(c echo.Context, period calendar.DateRange) error {
	cards, err := s.loadCards(c)
	if err != nil {
		return err
	}
	sc := c.QueryParam("service_class")
	rows, n, err := kard.Distribution(cards, period, sc)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, map[string]any{
			"error":   err.Error(),
			"message": "failed to compute distribution",
		})
	}
	return c.JSON(http.StatusOK, distributionResponse{
		Start:        period.Start,
		End:          period.End,
		ServiceClass: sc,
		Cards:        n,
		Rows:         rows,
	})
}

// loadCards maps store failures to HTTP errors.
func (s *server) loadCards(c echo.Context) ([]kard.Card, error) {
	cards, err := s.store.Load(c.Request().Context())
	if err == nil {
		return cards, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return nil, echo.NewHTTPError(http.StatusNotFound, map[string]any{
			"error":   "file not found",
			"path":    s.store.Path,
			"message": "cards file is missing",
		})
	}
	return nil, echo.NewHTTPError(http.StatusInternalServerError, map[string]any{
		"error":   err.Error(),
		"path":    s.store.Path,
		"message": "failed to read cards",
	})
}

// serveCSV registers a GET endpoint serving a CSV file from the data dir.
func (s *server) serveCSV(e *echo.Echo, route, filename string) {
	e.GET(route, func(c echo.Context) error {
		path := filepath.Join(s.opts.DataDir, filename)
		rows, err := ccsv.ReadRows(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return c.JSON(http.StatusNotFound, map[string]any{
					"error":   "file not found",
					"path":    path,
					"message": "CSV file is missing",
				})
			}
			return c.JSON(http.StatusInternalServerError, map[string]any{
				"error":   err.Error(),
				"path":    path,
				"message": "failed to read CSV",
			})
		}
		return c.JSON(http.StatusOK, rows)
	})
}

func intParam(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest(err)
	}
	return n, nil
}

func badRequest(err error) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, map[string]any{
		"error":   err.Error(),
		"message": "invalid query",
	})
}
