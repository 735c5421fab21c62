package runner

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glsalierno/cas-to-HSPiP-data/internal/config"
	"github.com/glsalierno/cas-to-HSPiP-data/internal/model"
	"github.com/glsalierno/cas-to-HSPiP-data/internal/resolver"
)

type stubResolver struct {
	smiles map[string]string
	fail   map[string]error
	calls  []string
}

func (s *stubResolver) Resolve(cas string) (*model.Compound, error) {
	s.calls = append(s.calls, cas)
	if err, ok := s.fail[cas]; ok {
		return nil, err
	}
	if sm, ok := s.smiles[cas]; ok {
		return &model.Compound{CID: 1, CanonicalSMILES: sm}, nil
	}
	return nil, resolver.ErrNotFound
}

type stubExtractor struct {
	calls []string
}

func (s *stubExtractor) Extract(smiles string) (model.PropertyRecord, error) {
	s.calls = append(s.calls, smiles)
	if model.IsSentinel(smiles) {
		return model.NotApplicableRecord(), nil
	}
	rec := model.NotApplicableRecord()
	rec.Applicable = true
	rec.SMILES = smiles
	rec.Formula = "CH2O"
	rec.Numeric[0] = 15.5
	rec.Numeric[1] = 11
	rec.Numeric[2] = 7
	return rec, nil
}

func testRunner(t *testing.T, casLines string, res *stubResolver) (*Runner, *stubExtractor) {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Input.CASFile = filepath.Join(dir, "cas_numbers.csv")
	cfg.Output.BaseDir = filepath.Join(dir, "results")
	require.NoError(t, os.WriteFile(cfg.Input.CASFile, []byte(casLines), 0644))

	ext := &stubExtractor{}
	return &Runner{Cfg: cfg, Resolver: res, Extractor: ext, Interval: 0}, ext
}

func TestResolvePass_PositionAligned(t *testing.T) {
	res := &stubResolver{
		smiles: map[string]string{"50-00-0": "C=O", "67-56-1": "CO"},
		fail:   map[string]error{"64-17-5": fmt.Errorf("status 503: busy")},
	}
	r := &Runner{Cfg: config.Default(), Resolver: res, Interval: 0}

	input := []string{"50-00-0", "", "999-99-9", "64-17-5", "67-56-1"}
	structures := r.ResolvePass(input)

	require.Len(t, structures, len(input))
	assert.Equal(t, "C=O", structures[0])
	assert.Equal(t, model.StructureNotFound, structures[1])
	assert.Equal(t, model.StructureNotFound, structures[2])
	assert.Equal(t, model.StructureLookupFailed, structures[3])
	assert.Equal(t, "CO", structures[4])

	// The blank row never reaches the resolver.
	assert.Equal(t, []string{"50-00-0", "999-99-9", "64-17-5", "67-56-1"}, res.calls)
}

func TestResolvePass_SentinelInputStaysSentinel(t *testing.T) {
	res := &stubResolver{}
	r := &Runner{Cfg: config.Default(), Resolver: res, Interval: 0}

	structures := r.ResolvePass([]string{model.StructureNotFound})
	assert.Equal(t, []string{model.StructureNotFound}, structures)
	assert.Empty(t, res.calls)
}

func TestRunAll_EndToEnd(t *testing.T) {
	res := &stubResolver{smiles: map[string]string{"50-00-0": "C=O", "67-56-1": "CO"}}
	r, ext := testRunner(t, "cas\n50-00-0\n\n67-56-1\n", res)

	require.NoError(t, r.RunAll())

	// Sentinels are never handed to the tool as structures, but the rows
	// still flow through the extraction pass.
	assert.Equal(t, []string{"C=O", model.StructureNotFound, "CO"}, ext.calls)

	final := globOne(t, r.Cfg.Output.BaseDir, "*_all_HSP.csv")
	records := readCSV(t, final)
	require.Len(t, records, 4)

	assert.Equal(t, "50-00-0", records[1][0])
	assert.Equal(t, "C=O", records[1][1])
	assert.Equal(t, "15.5", records[1][4])

	assert.Equal(t, "", records[2][0])
	assert.Equal(t, model.StructureNotFound, records[2][1])
	assert.Equal(t, "", records[2][4])

	assert.Equal(t, "67-56-1", records[3][0])
	assert.Equal(t, "CO", records[3][1])

	smilesFile := globOne(t, r.Cfg.Output.BaseDir, "*_smiles.txt")
	raw, err := os.ReadFile(smilesFile)
	require.NoError(t, err)
	assert.Equal(t, "C=O\nCAS number not found\nCO\n", string(raw))
}

func TestRunAll_EmptyInputFails(t *testing.T) {
	res := &stubResolver{}
	r, _ := testRunner(t, "cas\n", res)
	assert.Error(t, r.RunAll())
}

func TestRunHSP_FromSMILESList(t *testing.T) {
	res := &stubResolver{}
	r, ext := testRunner(t, "unused", res)

	smilesFile := filepath.Join(t.TempDir(), "smiles.txt")
	require.NoError(t, os.WriteFile(smilesFile,
		[]byte("C=O\nCAS number not found\nCO\n"), 0644))

	require.NoError(t, r.RunHSP(smilesFile))
	assert.Equal(t, []string{"C=O", model.StructureNotFound, "CO"}, ext.calls)
	assert.Empty(t, res.calls)

	final := globOne(t, r.Cfg.Output.BaseDir, "*_all_HSP.csv")
	records := readCSV(t, final)
	require.Len(t, records, 4)
	// No identifier column in this mode.
	assert.Equal(t, "", records[1][0])
	assert.Equal(t, "C=O", records[1][1])
}

func TestRunAll_Idempotent(t *testing.T) {
	input := "cas\n50-00-0\n\n67-56-1\n"
	resolve := func() *stubResolver {
		return &stubResolver{smiles: map[string]string{"50-00-0": "C=O", "67-56-1": "CO"}}
	}

	r1, _ := testRunner(t, input, resolve())
	require.NoError(t, r1.RunAll())
	first := readFileBytes(t, globOne(t, r1.Cfg.Output.BaseDir, "*_all_HSP.csv"))

	r2, _ := testRunner(t, input, resolve())
	require.NoError(t, r2.RunAll())
	second := readFileBytes(t, globOne(t, r2.Cfg.Output.BaseDir, "*_all_HSP.csv"))

	assert.True(t, bytes.Equal(first, second), "re-running the same input must produce an identical table")
}

func globOne(t *testing.T, baseDir, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(baseDir, "*", pattern))
	require.NoError(t, err)
	require.Len(t, matches, 1, "expected exactly one %s under %s", pattern, baseDir)
	return matches[0]
}

func readFileBytes(t *testing.T, path string) []byte {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	return raw
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	raw := readFileBytes(t, path)
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})
	records, err := csv.NewReader(bytes.NewReader(raw)).ReadAll()
	require.NoError(t, err)
	return records
}
