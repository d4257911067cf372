package template

import (
	"encoding/csv"
	"fmt"
	"os"
)

// LoadCSVAsMaps reads a CSV file whose first row is a header and
// returns one map per data row, keyed by column name. Rows shorter than
// the header are rejected by the CSV reader.
func LoadCSVAsMaps(path string) ([]map[string]string, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &Error{Name: path, Reason: "csv file has no header row"}
	}

	header := rows[0]
	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(map[string]string, len(header))
		for i, key := range header {
			record[key] = row[i]
		}
		records = append(records, record)
	}
	return records, nil
}

// LoadCSVRow returns the data row at the given zero-based index, keyed
// by column name.
func LoadCSVRow(path string, row int) (map[string]string, error) {
	records, err := LoadCSVAsMaps(path)
	if err != nil {
		return nil, err
	}
	if row < 0 || row >= len(records) {
		return nil, &Error{
			Name:   path,
			Reason: fmt.Sprintf("row %d out of range, file has %d data rows", row, len(records)),
		}
	}
	return records[row], nil
}

// LoadCSVAsRows reads a CSV file and returns all rows, header included.
func LoadCSVAsRows(path string) ([][]string, error) {
	return readCSV(path)
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &Error{Name: path, Reason: "cannot open csv file", Err: err}
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, &Error{Name: path, Reason: fmt.Sprintf("malformed csv: %v", err)}
	}
	return rows, nil
}
