package loader

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCASList loads the ordered CAS identifier list from a .csv or .txt file.
// Row order and blank rows are preserved: position is the join key for every
// later stage, so the loader never drops, reorders or deduplicates entries.
func ReadCASList(path string) ([]string, error) {
	return readList(path, []string{"cas", "cas_number"})
}

// ReadSMILESList loads an ordered SMILES list, the input of the HSP-only pass.
// Accepts the same shapes as ReadCASList; the CSV column is named all_smiles.
func ReadSMILESList(path string) ([]string, error) {
	return readList(path, []string{"all_smiles", "smiles"})
}

func readList(path string, headerNames []string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSVColumn(path, headerNames)
	case ".txt":
		return readLines(path)
	default:
		return nil, fmt.Errorf("unsupported input file extension %q, use .csv or .txt", filepath.Ext(path))
	}
}

// readCSVColumn reads one column of a CSV file, line by line. encoding/csv
// silently skips blank lines, which would shift every following row, so lines
// are split first and only non-blank ones go through the CSV parser.
func readCSVColumn(path string, headerNames []string) ([]string, error) {
	lines, err := readDecodedLines(path)
	if err != nil {
		return nil, err
	}

	col := 0
	start := 0
	if len(lines) > 0 {
		first, err := splitCSVLine(lines[0])
		if err == nil {
			if i := headerIndex(first, headerNames); i >= 0 {
				col = i
				start = 1
			}
		}
	}

	var entries []string
	for _, line := range lines[start:] {
		if strings.TrimSpace(line) == "" {
			entries = append(entries, "")
			continue
		}
		fields, err := splitCSVLine(line)
		if err != nil {
			return nil, fmt.Errorf("parsing input row failed: %w", err)
		}
		if col >= len(fields) {
			entries = append(entries, "")
			continue
		}
		entries = append(entries, strings.TrimSpace(fields[col]))
	}
	return entries, nil
}

// readLines reads a plain text list, one entry per line, blank lines kept as
// placeholder rows.
func readLines(path string) ([]string, error) {
	lines, err := readDecodedLines(path)
	if err != nil {
		return nil, err
	}

	var entries []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, line)
	}
	return entries, nil
}

// readDecodedLines reads the file, converts it to UTF-8 if needed and splits
// it into lines. Input lists exported from Windows tooling are often
// Windows-1252 encoded, so fall back to that when the bytes are not UTF-8.
func readDecodedLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		data, _, err = transform.Bytes(charmap.Windows1252.NewDecoder(), data)
		if err != nil {
			return nil, fmt.Errorf("decoding input file failed: %w", err)
		}
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	lines := strings.Split(text, "\n")
	// Drop trailing blank lines so a final newline does not add ghost rows.
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines, nil
}

func splitCSVLine(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	return r.Read()
}

func headerIndex(fields []string, headerNames []string) int {
	for i, f := range fields {
		f = strings.ToLower(strings.TrimSpace(f))
		for _, name := range headerNames {
			if f == name {
				return i
			}
		}
	}
	return -1
}
