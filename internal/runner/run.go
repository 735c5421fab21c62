package runner

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glsalierno/cas-to-HSPiP-data/internal/config"
	"github.com/glsalierno/cas-to-HSPiP-data/internal/database"
	"github.com/glsalierno/cas-to-HSPiP-data/internal/exporter"
	"github.com/glsalierno/cas-to-HSPiP-data/internal/extractor"
	"github.com/glsalierno/cas-to-HSPiP-data/internal/loader"
	"github.com/glsalierno/cas-to-HSPiP-data/internal/model"
	"github.com/glsalierno/cas-to-HSPiP-data/internal/resolver"
	"github.com/glsalierno/cas-to-HSPiP-data/internal/util"
)

// Resolver maps one CAS number to a compound record.
type Resolver interface {
	Resolve(cas string) (*model.Compound, error)
}

// PropertyExtractor computes the property record for one resolved structure.
type PropertyExtractor interface {
	Extract(smiles string) (model.PropertyRecord, error)
}

// Runner drives the pipeline strictly sequentially: the HSP tool reports
// through one shared output file, so there is never more than one resolution
// or extraction in flight.
type Runner struct {
	Cfg       *config.Config
	Resolver  Resolver
	Extractor PropertyExtractor
	Interval  time.Duration
}

// New wires a Runner with the real PubChem client and HSPiP extractor.
func New(cfg *config.Config) *Runner {
	return &Runner{
		Cfg: cfg,
		Resolver: resolver.NewClient(cfg.PubChem.BaseURL,
			time.Duration(cfg.PubChem.TimeoutSeconds)*time.Second,
			cfg.PubChem.MaxRetries),
		Extractor: extractor.New(cfg),
		Interval:  time.Duration(cfg.PubChem.IntervalSeconds) * time.Second,
	}
}

// RunAll runs the full pipeline: CAS list → SMILES → HSP properties → CSV.
func (r *Runner) RunAll() error {
	casList, err := loader.ReadCASList(r.Cfg.Input.CASFile)
	if err != nil {
		return fmt.Errorf("reading CAS list failed: %w", err)
	}
	if len(casList) == 0 {
		return fmt.Errorf("no input rows in %s", r.Cfg.Input.CASFile)
	}
	fmt.Printf("[*] loaded %d identifiers from %s\n", len(casList), r.Cfg.Input.CASFile)

	taskID, projectPath, err := r.prepareRun()
	if err != nil {
		return err
	}

	structures := r.ResolvePass(casList)

	// Secondary export: the structure list alone, consumable by `hsp`.
	smilesPath := filepath.Join(projectPath, util.GenerateTXTFileName(taskID, "smiles"))
	if err := exporter.ExportSMILESList(structures, smilesPath); err != nil {
		log.Printf("[!] exporting SMILES list failed: %v", err)
	} else {
		fmt.Printf("[*] SMILES list exported to: %s\n", smilesPath)
	}

	return r.extractAndExport(taskID, projectPath, casList, structures)
}

// RunHSP runs the HSP pass only, over an already-resolved SMILES list.
func (r *Runner) RunHSP(smilesFile string) error {
	structures, err := loader.ReadSMILESList(smilesFile)
	if err != nil {
		return fmt.Errorf("reading SMILES list failed: %w", err)
	}
	if len(structures) == 0 {
		return fmt.Errorf("no input rows in %s", smilesFile)
	}
	fmt.Printf("[*] loaded %d structures from %s\n", len(structures), smilesFile)

	taskID, projectPath, err := r.prepareRun()
	if err != nil {
		return err
	}

	// No identifier column in this mode; positions still line up.
	casList := make([]string, len(structures))
	return r.extractAndExport(taskID, projectPath, casList, structures)
}

func (r *Runner) prepareRun() (taskID, projectPath string, err error) {
	taskID = util.GenerateTaskID()
	projectPath = filepath.Join(r.Cfg.Output.BaseDir, util.GenerateProjectDir(taskID))
	if err := os.MkdirAll(projectPath, 0755); err != nil {
		return "", "", fmt.Errorf("creating results directory failed: %w", err)
	}
	fmt.Printf("[+] run results will be saved under: %s\n", projectPath)
	return taskID, projectPath, nil
}

// ResolvePass maps the CAS list to a position-aligned structure list of the
// same length. Blank identifiers are skipped without a network call; failed
// lookups become sentinels and the pass continues. Entries are never
// reordered, dropped or deduplicated.
func (r *Runner) ResolvePass(casList []string) []string {
	n := len(casList)
	structures := make([]string, n)

	for i, raw := range casList {
		start := time.Now()
		cas := strings.TrimSpace(raw)

		if cas == "" || cas == model.StructureNotFound {
			structures[i] = model.StructureNotFound
			fmt.Printf("[*] row %d/%d: blank identifier, skipped\n", i+1, n)
			continue
		}
		if !util.IsValidCAS(cas) {
			log.Printf("[!] row %d: %q does not look like a CAS number, trying anyway", i+1, cas)
		}

		compound, err := r.Resolver.Resolve(cas)
		switch {
		case errors.Is(err, resolver.ErrNotFound):
			structures[i] = model.StructureNotFound
			log.Printf("[!] row %d: CAS %s not found in PubChem", i+1, cas)
		case err != nil:
			structures[i] = model.StructureLookupFailed
			log.Printf("[!] row %d: lookup for %s failed: %v", i+1, cas, err)
		case compound.CanonicalSMILES == "":
			structures[i] = model.StructureNotFound
			log.Printf("[!] row %d: PubChem record for %s has no SMILES", i+1, cas)
		default:
			structures[i] = compound.CanonicalSMILES
			fmt.Printf("[*] row %d/%d: %s -> %s (%.2fs)\n",
				i+1, n, cas, compound.CanonicalSMILES, time.Since(start).Seconds())
		}

		if i < n-1 {
			time.Sleep(r.Interval)
		}
	}

	fmt.Printf("[*] resolution pass done: %d rows\n", n)
	return structures
}

// extractAndExport runs the HSP pass row by row, persisting each row as it
// completes, then exports the final table.
func (r *Runner) extractAndExport(taskID, projectPath string, casList, structures []string) error {
	dbPath := filepath.Join(projectPath, "res.db")
	tableName := util.GenerateTableName(taskID)
	db, err := database.InitDB(dbPath, tableName)
	if err != nil {
		return fmt.Errorf("database init failed: %w", err)
	}
	defer db.Close()

	n := len(structures)
	checkpointPath := filepath.Join(projectPath, util.GenerateCSVFileName(taskID, "intermediate_HSP"))

	for i, smiles := range structures {
		start := time.Now()

		record, err := r.Extractor.Extract(smiles)
		if err != nil {
			log.Printf("[!] row %d/%d: HSP extraction failed: %v", i+1, n, err)
		}

		row := model.ResultRow{Index: i, CAS: casList[i], SMILES: smiles, Record: record}
		if err := database.SaveRows(db, tableName, []model.ResultRow{row}); err != nil {
			return fmt.Errorf("saving row %d failed: %w", i, err)
		}

		fmt.Printf("[*] row %d/%d processed in %.2fs\n", i+1, n, time.Since(start).Seconds())

		if (i+1)%r.Cfg.Output.CheckpointRows == 0 && i+1 < n {
			if err := exporter.ExportTableToCSV(db, tableName, checkpointPath); err != nil {
				log.Printf("[!] checkpoint export failed: %v", err)
			} else {
				fmt.Printf("[*] checkpoint after %d rows: %s\n", i+1, checkpointPath)
			}
		}
	}

	exportPath := filepath.Join(projectPath, util.GenerateCSVFileName(taskID, "all_HSP"))
	if err := exporter.ExportTableToCSV(db, tableName, exportPath); err != nil {
		return fmt.Errorf("exporting result table failed: %w", err)
	}
	fmt.Printf("[*] final table exported to: %s\n", exportPath)

	summary, err := database.Summarize(db, tableName)
	if err != nil {
		log.Printf("[!] run summary failed: %v", err)
		return nil
	}
	fmt.Printf("[✔] done: %d rows, %d resolved, %d not found, %d lookups failed, %d with HSP data\n",
		summary.Rows, summary.Resolved, summary.NotFound, summary.Failed, summary.Computed)

	return nil
}
