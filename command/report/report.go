package cmdreport

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"kardboard/connectors/config"
	ccsv "kardboard/connectors/csv"
	"kardboard/domain/calendar"
	"kardboard/domain/kard"

	lo "github.com/samber/lo"
)

// Run builds the cycle-time distribution of the cards done in a period and
// writes it to <data>/cycle_time_distribution.csv.
//
// Usage:
//
//	kardboard report [-year 2024] [-month 3] [-week 2024-03-11] [-service-class Standard] [-out path]
func Run(args []string) error {
	return run(args, os.Stdout, time.Now())
}

func run(args []string, stdout io.Writer, now time.Time) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	year := fs.Int("year", 0, "report year (default: current)")
	month := fs.Int("month", 0, "report month 1-12 (default: current)")
	week := fs.String("week", "", "report the ISO week holding this YYYY-MM-DD date instead of a month")
	serviceClass := fs.String("service-class", "", "only count cards of this service class")
	dataDir := fs.String("data", "", "directory holding cards.csv (default: config data_dir)")
	out := fs.String("out", "", "output CSV path (default: <data>/cycle_time_distribution.csv)")
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
	if *out == "" {
		*out = filepath.Join(*dataDir, "cycle_time_distribution.csv")
	}
	if sc := strings.TrimSpace(*serviceClass); sc != "" && len(cfg.Report.ServiceClasses) > 0 {
		known := lo.ContainsBy(cfg.Report.ServiceClasses, func(s string) bool { return strings.EqualFold(s, sc) })
		if !known {
			slog.Warn("report.service_class.unknown", "service_class", sc, "known", cfg.Report.ServiceClasses)
		}
	}

	period, err := Period(*year, *month, *week, now)
	if err != nil {
		return err
	}
	slog.Info("report.start", "from", period.Start, "to", period.End, "service_class", *serviceClass)

	cards, err := ccsv.NewStore(*dataDir).Load(context.Background())
	if err != nil {
		return err
	}
	rows, n, err := kard.Distribution(cards, period, *serviceClass)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := ccsv.WriteHistogramCSV(*out, rows); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "cycle time distribution %s - %s (%d cards)\n", period.Start.Format(time.DateOnly), period.End.Format(time.DateOnly), n)
	for _, r := range rows {
		fmt.Fprintf(stdout, "%4d days  %4d  %6.2f%%\n", r.Days, r.Count, r.Percent*100)
	}
	slog.Info("report.done", "cards", n, "rows", len(rows), "out", *out)
	return nil
}

// Period resolves the reporting window: the ISO week of week when set,
// otherwise the month of year/month with zero values taken from now.
func Period(year, month int, week string, now time.Time) (calendar.DateRange, error) {
	if week = strings.TrimSpace(week); week != "" {
		d, err := time.ParseInLocation(time.DateOnly, week, now.Location())
		if err != nil {
			return calendar.DateRange{}, fmt.Errorf("%w: week %q", calendar.ErrInvalidDate, week)
		}
		return calendar.WeekRange(d), nil
	}
	return calendar.MonthPeriod(year, time.Month(month), now)
}
