package utils

import (
	"encoding/csv"
	"io"
)

// ParseCSV reads a whole CSV stream into rows.
func ParseCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return records, nil
}
