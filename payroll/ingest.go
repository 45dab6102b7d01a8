package payroll

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gzizouseif24/xero-automation/utils"
)

// csvColumns is the expected upload header, in order.
var csvColumns = []string{"employee", "region", "date", "hour_type", "units"}

// ParseEntriesCSV reads one uploaded hours sheet into raw entries. The file
// must carry the header employee,region,date,hour_type,units; dates are
// yyyy-MM-dd. Rows are not validated beyond shape here: the pipeline's
// validation stage owns the business checks.
func ParseEntriesCSV(source Source, r io.Reader) ([]RawEntry, error) {
	records, err := utils.ParseCSV(r)
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty file")
	}

	header := utils.Map(records[0], strings.TrimSpace)
	if len(header) < len(csvColumns) {
		return nil, fmt.Errorf("expected header %s", strings.Join(csvColumns, ","))
	}
	for i, col := range csvColumns {
		if !strings.EqualFold(header[i], col) {
			return nil, fmt.Errorf("expected column %d to be %q, got %q", i+1, col, header[i])
		}
	}

	entries := make([]RawEntry, 0, len(records)-1)
	for i, row := range records[1:] {
		line := i + 2
		if len(row) < len(csvColumns) {
			return nil, fmt.Errorf("row %d: expected %d columns, got %d", line, len(csvColumns), len(row))
		}

		date, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(row[2]), time.UTC)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid date %q", line, row[2])
		}

		units, err := strconv.ParseFloat(strings.TrimSpace(row[4]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid units %q", line, row[4])
		}

		entries = append(entries, RawEntry{
			EmployeeName: strings.TrimSpace(row[0]),
			RegionName:   strings.TrimSpace(row[1]),
			Date:         date,
			HourType:     HourType(strings.ToUpper(strings.TrimSpace(row[3]))),
			Units:        units,
			Source:       source,
		})
	}

	return entries, nil
}
