package extractor

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/glsalierno/cas-to-HSPiP-data/internal/model"
)

// ParseOutput parses one Out.dat: a header line to skip, then a tab-delimited
// data row in the fixed model.PropertyColumns order. Malformed or absent
// numeric cells become NaN instead of failing the row; the three text columns
// (SMILES, Formula, FGList) keep their whitespace and may be empty.
func ParseOutput(r io.Reader) (model.PropertyRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return model.NotApplicableRecord(), fmt.Errorf("reading output failed: %w", err)
	}

	// The tool runs on Windows; its output is not always UTF-8.
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if !utf8.Valid(data) {
		data, _, err = transform.Bytes(charmap.Windows1252.NewDecoder(), data)
		if err != nil {
			return model.NotApplicableRecord(), fmt.Errorf("decoding output failed: %w", err)
		}
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	// Header line, skipped.
	if _, err := reader.Read(); err != nil {
		return model.NotApplicableRecord(), fmt.Errorf("output has no header line: %w", err)
	}

	fields, err := reader.Read()
	if err != nil {
		return model.NotApplicableRecord(), fmt.Errorf("output has no data row: %w", err)
	}

	record := model.NotApplicableRecord()
	record.Applicable = true
	record.SMILES = cellAt(fields, 0)
	record.Formula = cellAt(fields, 1)
	record.FGList = cellAt(fields, len(model.PropertyColumns)-1)

	for i := range model.NumericColumns {
		cell := strings.TrimSpace(cellAt(fields, i+2))
		if cell == "" {
			continue // stays NaN
		}
		if v, err := strconv.ParseFloat(cell, 64); err == nil {
			record.Numeric[i] = v
		}
		// unparseable cells stay NaN; the rest of the row is kept
	}

	return record, nil
}

func cellAt(fields []string, i int) string {
	if i < len(fields) {
		return fields[i]
	}
	return ""
}
