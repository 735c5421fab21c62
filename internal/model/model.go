package model

import "math"

// Sentinel structure values recorded in place of a SMILES string. They keep the
// result table position-aligned with the input list instead of dropping rows.
const (
	// StructureNotFound marks a row whose identifier was blank or unknown to
	// PubChem. The literal matches the marker the downstream HSP tooling
	// already filters on.
	StructureNotFound = "CAS number not found"

	// StructureLookupFailed marks a row whose lookup failed on the network or
	// API level after all retries.
	StructureLookupFailed = "lookup failed"
)

// IsSentinel reports whether s is one of the structure sentinels (or blank).
func IsSentinel(s string) bool {
	return s == "" || s == StructureNotFound || s == StructureLookupFailed
}

// Compound holds what PubChem returns for one identifier: the structure string
// plus auxiliary identifiers and any free-text experimental properties found in
// the record sections.
type Compound struct {
	CID              int64
	CanonicalSMILES  string
	IsomericSMILES   string
	InChI            string
	InChIKey         string
	IUPACName        string
	MolecularFormula string
	MolecularWeight  string
	Extra            []Property // record-section properties, in response order
}

// Property is one "Name: Value" pair from a PubChem record section.
type Property struct {
	Name  string
	Value string
}

// PropertyColumns is the fixed column order of the HSPiP Out.dat file: the
// tool-reported SMILES, the formula, 58 numeric descriptors, and a free-text
// functional group list.
var PropertyColumns = []string{
	"HSPiP_SMILES", "Formula", "D", "P", "H", "HDon", "HAcc", "MWt", "Density", "MVol",
	"Area", "Ovality", "BPt", "MPt", "Tc", "Pc", "Vc", "Zc", "AntA", "AntB",
	"AntC", "Ant1T", "LogKow", "LogS", "Henry", "LogOHR", "RI", "Hfus", "HvBPt",
	"Trouton", "RER", "Abra", "Abrb", "EdmiW", "Parachor", "RD", "Cp", "log",
	"Cond", "SurfTen", "HeavyAtom", "C", "H1", "Br", "Cl", "F", "I", "N", "O",
	"P1", "S", "Si", "B", "MaxPc", "MinMc", "Sym", "MCI", "Hcomb", "Hform",
	"Gform", "FGList",
}

// NumericColumns is the numeric slice of PropertyColumns (everything between
// Formula and FGList).
var NumericColumns = PropertyColumns[2 : len(PropertyColumns)-1]

var numericIndex = func() map[string]int {
	m := make(map[string]int, len(NumericColumns))
	for i, name := range NumericColumns {
		m[name] = i
	}
	return m
}()

// PropertyRecord is one parsed Out.dat data row, or the not-applicable record
// for rows whose structure never reached the tool.
type PropertyRecord struct {
	SMILES  string // tool-reported SMILES, leading/trailing whitespace preserved
	Formula string
	FGList  string
	// Numeric is aligned with NumericColumns; missing or malformed cells are NaN.
	Numeric []float64
	// Applicable is false for the not-applicable sentinel record.
	Applicable bool
}

// NotApplicableRecord returns the sentinel record: empty text fields and NaN in
// every numeric column.
func NotApplicableRecord() PropertyRecord {
	values := make([]float64, len(NumericColumns))
	for i := range values {
		values[i] = math.NaN()
	}
	return PropertyRecord{Numeric: values}
}

// Value returns the numeric descriptor by column name, NaN when the column is
// unknown or the cell was missing.
func (r PropertyRecord) Value(name string) float64 {
	i, ok := numericIndex[name]
	if !ok || i >= len(r.Numeric) {
		return math.NaN()
	}
	return r.Numeric[i]
}

// ResultRow is one row of the final table: the input identifier, the resolved
// structure (or sentinel) and the property record, joined by list position.
type ResultRow struct {
	Index  int
	CAS    string
	SMILES string
	Record PropertyRecord
}
