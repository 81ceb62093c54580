package main

import (
	"fmt"
	"log/slog"
	"os"

	cmdreport "kardboard/command/report"
	cmdsync "kardboard/command/sync"
	cmdweb "kardboard/command/web"
)

// Kanban cycle-time reporting.
// Usage:
//   kardboard sync [-data ./data] [-sync=false] [-key A-1,A-2]
//   kardboard report [-year 2024 -month 3 | -week 2024-03-11] [-service-class Standard]
//   kardboard web [-addr :8080] [-data ./data] [-ui ./ui/dist]
// Notes:
// - Cards live in <data>/cards.csv; report writes <data>/cycle_time_distribution.csv.
// - Cycle time counts business days (Mon-Fri) from start to done.

func main() {
	args := os.Args
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(h))

	if len(args) > 1 {
		sub := args[1]
		rest := append([]string{}, args[2:]...)
		var run func([]string) error
		switch sub {
		case "sync":
			run = cmdsync.Run
		case "report":
			run = cmdreport.Run
		case "web":
			run = cmdweb.Run
		}
		if run != nil {
			if err := run(rest); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		}
	}
	fmt.Fprintln(os.Stderr, "usage: kardboard sync [-data <dir>] [-sync=false] | report [-year Y -month M | -week YYYY-MM-DD] [-service-class NAME] | web [-addr :8080] [-data ./data]\nENV: CONFIG_PATH points to a YAML config file (default ./config.yml); JIRA_TOKEN / GITHUB_TOKEN for ticket sync")
	os.Exit(2)
}
