package database

import (
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/glsalierno/cas-to-HSPiP-data/internal/model"
)

// Fixed leading columns; the 61 property columns follow in
// model.PropertyColumns order. position is the input list index and the only
// join key of the pipeline.
var baseColumns = []string{"position", "cas", "smiles"}

func textColumn(name string) bool {
	return name == "HSPiP_SMILES" || name == "Formula" || name == "FGList"
}

// AllColumns returns the full column list of a result table, in table order.
func AllColumns() []string {
	cols := make([]string, 0, len(baseColumns)+len(model.PropertyColumns))
	cols = append(cols, baseColumns...)
	cols = append(cols, model.PropertyColumns...)
	return cols
}

func quoted(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = `"` + c + `"`
	}
	return out
}

// InitDB opens (creating if needed) the run database and the per-run table.
func InitDB(dbPath string, tableName string) (*sql.DB, error) {
	os.MkdirAll(filepath.Dir(dbPath), os.ModePerm)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err = db.Exec("PRAGMA encoding = 'UTF-8'"); err != nil {
		return nil, err
	}

	var defs []string
	defs = append(defs,
		`"position" INTEGER PRIMARY KEY`,
		`"cas" TEXT`,
		`"smiles" TEXT`,
	)
	for _, col := range model.PropertyColumns {
		kind := "REAL"
		if textColumn(col) {
			kind = "TEXT"
		}
		defs = append(defs, fmt.Sprintf(`"%s" %s`, col, kind))
	}

	createStmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n);",
		tableName, strings.Join(defs, ",\n"))
	if _, err = db.Exec(createStmt); err != nil {
		return nil, err
	}

	return db, nil
}

// SaveRows upserts result rows keyed by position, so re-processing a row
// (checkpoint, retry round) replaces its previous state instead of appending.
func SaveRows(db *sql.DB, tableName string, rows []model.ResultRow) error {
	cols := AllColumns()
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")

	var updates []string
	for _, c := range cols[1:] {
		updates = append(updates, fmt.Sprintf(`"%s"=excluded."%s"`, c, c))
	}

	insertSQL := fmt.Sprintf(`
INSERT INTO %s (%s)
VALUES (%s)
ON CONFLICT("position") DO UPDATE SET
    %s;
`, tableName, strings.Join(quoted(cols), ", "), placeholders, strings.Join(updates, ",\n    "))

	tx, err := db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.Exec(rowArgs(r)...); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert error for row %d: %w", r.Index, err)
		}
	}

	return tx.Commit()
}

// rowArgs flattens a result row into insert arguments; NaN becomes NULL.
func rowArgs(r model.ResultRow) []interface{} {
	args := make([]interface{}, 0, len(baseColumns)+len(model.PropertyColumns))
	args = append(args, r.Index, r.CAS, r.SMILES)
	args = append(args, r.Record.SMILES, r.Record.Formula)
	for _, v := range r.Record.Numeric {
		if math.IsNaN(v) {
			args = append(args, nil)
		} else {
			args = append(args, v)
		}
	}
	args = append(args, r.Record.FGList)
	return args
}
