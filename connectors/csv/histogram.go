package csv

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"kardboard/domain/report"
)

// WriteHistogramCSV writes distribution rows with headers days, count, percent.
func WriteHistogramCSV(path string, rows []report.HistogramRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write([]string{"days", "count", "percent"}); err != nil {
		return err
	}
	for _, r := range rows {
		row := []string{
			strconv.Itoa(r.Days),
			strconv.Itoa(r.Count),
			strconv.FormatFloat(r.Percent, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ReadRows loads a CSV file as a slice of objects keyed by headers. Values
// stay strings.
func ReadRows(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []map[string]string{}, nil
	}

	headers := records[0]
	res := make([]map[string]string, 0, len(records)-1)
	for _, row := range records[1:] {
		if len(row) == 0 {
			continue
		}
		obj := make(map[string]string, len(headers))
		for j := 0; j < len(headers) && j < len(row); j++ {
			obj[headers[j]] = row[j]
		}
		res = append(res, obj)
	}
	return res, nil
}
