package input

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// LoadKeys reads the lookup keys from one column of a CSV file, preserving
// file order. The first row is the header row.
func LoadKeys(path, column string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open key file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("key file %s is empty", path)
	}

	col := -1
	for i, name := range rows[0] {
		if strings.EqualFold(strings.TrimSpace(name), column) {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("key file %s has no %q column", path, column)
	}

	keys := make([]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if col >= len(row) {
			continue
		}
		key := strings.TrimSpace(row[col])
		if key != "" {
			keys = append(keys, key)
		}
	}

	return keys, nil
}
