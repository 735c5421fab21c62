package exporter

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/glsalierno/cas-to-HSPiP-data/internal/database"
	"github.com/glsalierno/cas-to-HSPiP-data/internal/model"
)

// ExportTableToCSV writes the run table to a CSV file, one row per input
// position, in input order. Missing numeric values export as empty cells.
func ExportTableToCSV(db *sql.DB, tableName, outputPath string) error {
	cols := database.AllColumns()
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = `"` + c + `"`
	}

	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY "position"`,
		strings.Join(quoted, ", "), tableName)
	rows, err := db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	file, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer file.Close()

	// UTF-8 BOM so Excel opens the file correctly.
	file.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := append([]string{"CAS", "SMILES"}, model.PropertyColumns...)
	writer.Write(header)

	for rows.Next() {
		var position int
		var cas, smiles string
		hspSMILES, formula, fgList := sql.NullString{}, sql.NullString{}, sql.NullString{}
		numeric := make([]sql.NullFloat64, len(model.NumericColumns))

		dest := []interface{}{&position, &cas, &smiles, &hspSMILES, &formula}
		for i := range numeric {
			dest = append(dest, &numeric[i])
		}
		dest = append(dest, &fgList)

		if err := rows.Scan(dest...); err != nil {
			return err
		}

		record := []string{cas, smiles, hspSMILES.String, formula.String}
		for _, v := range numeric {
			if v.Valid {
				record = append(record, strconv.FormatFloat(v.Float64, 'g', -1, 64))
			} else {
				record = append(record, "")
			}
		}
		record = append(record, fgList.String)
		writer.Write(record)
	}

	return rows.Err()
}

// ExportSMILESList writes the resolved structure list alone, one entry per
// line with sentinels kept in place. The file is what the hsp subcommand
// takes back as input.
func ExportSMILESList(structures []string, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer file.Close()

	for _, s := range structures {
		if _, err := fmt.Fprintln(file, s); err != nil {
			return err
		}
	}
	return nil
}
