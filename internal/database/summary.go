package database

import (
	"database/sql"
	"fmt"

	"github.com/glsalierno/cas-to-HSPiP-data/internal/model"
)

// Summary is the per-run outcome breakdown logged at the end of a run.
type Summary struct {
	Rows     int
	Resolved int
	NotFound int
	Failed   int
	Computed int // rows with an applicable property record (non-NULL D)
}

// Summarize counts rows per outcome from the run table.
func Summarize(db *sql.DB, tableName string) (Summary, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(*),
		       SUM(CASE WHEN smiles = ? OR smiles = '' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN smiles = ? THEN 1 ELSE 0 END),
		       SUM(CASE WHEN "D" IS NOT NULL THEN 1 ELSE 0 END)
		FROM %s
	`, tableName)

	var s Summary
	var notFound, failed, computed sql.NullInt64
	err := db.QueryRow(query, model.StructureNotFound, model.StructureLookupFailed).
		Scan(&s.Rows, &notFound, &failed, &computed)
	if err != nil {
		return Summary{}, err
	}

	s.NotFound = int(notFound.Int64)
	s.Failed = int(failed.Int64)
	s.Computed = int(computed.Int64)
	s.Resolved = s.Rows - s.NotFound - s.Failed
	return s, nil
}
