package extractor

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glsalierno/cas-to-HSPiP-data/internal/model"
)

// fakeTool drops a shell script into dir that stands in for HSPiP.exe.
func fakeTool(t *testing.T, dir, script string) *Extractor {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tool is a shell script")
	}
	path := filepath.Join(dir, "fake_hspip.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0755))

	return &Extractor{
		Dir:              dir,
		Command:          "fake_hspip.sh",
		ModeFlag:         "Y-MBSX",
		OutputFile:       "Out.dat",
		MaxRetries:       2,
		MaxOutputRetries: 2,
		RetryDelay:       10 * time.Millisecond,
		Timeout:          5 * time.Second,
	}
}

func TestExtract_InvokesToolAndParsesOutput(t *testing.T) {
	dir := t.TempDir()
	body := strings.Join(model.PropertyColumns, "\t") + "\n" +
		"C=O\tCH2O\t15.5\t11\t7\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fixture.dat"), []byte(body), 0644))

	// The tool writes Out.dat relative to its own directory; cmd.Dir makes
	// that the working directory without the parent ever changing directory.
	e := fakeTool(t, dir, `cp fixture.dat Out.dat`)

	record, err := e.Extract("C=O")
	require.NoError(t, err)
	assert.True(t, record.Applicable)
	assert.Equal(t, "C=O", record.SMILES)
	assert.Equal(t, 15.5, record.Value("D"))
	assert.Equal(t, 11.0, record.Value("P"))
	assert.Equal(t, 7.0, record.Value("H"))
}

func TestExtract_SentinelShortCircuits(t *testing.T) {
	// Command does not exist: any invocation attempt would fail loudly.
	e := &Extractor{
		Dir: t.TempDir(), Command: "missing.exe", ModeFlag: "Y-MBSX",
		OutputFile: "Out.dat", MaxRetries: 1, MaxOutputRetries: 1,
	}

	for _, s := range []string{"", model.StructureNotFound, model.StructureLookupFailed} {
		record, err := e.Extract(s)
		require.NoError(t, err, s)
		assert.False(t, record.Applicable, s)
	}
}

func TestExtract_InvalidSMILESIsNotSentToTool(t *testing.T) {
	e := &Extractor{
		Dir: t.TempDir(), Command: "missing.exe", ModeFlag: "Y-MBSX",
		OutputFile: "Out.dat", MaxRetries: 1, MaxOutputRetries: 1,
	}

	record, err := e.Extract("C1CC(")
	require.Error(t, err)
	assert.False(t, record.Applicable)
	assert.Contains(t, err.Error(), "invalid SMILES")
}

func TestExtract_ToolFailureYieldsNotApplicable(t *testing.T) {
	e := fakeTool(t, t.TempDir(), `exit 1`)

	record, err := e.Extract("C=O")
	require.Error(t, err)
	assert.False(t, record.Applicable)
}

func TestExtract_StaleOutputIsNotReadBack(t *testing.T) {
	dir := t.TempDir()
	stale := strings.Join(model.PropertyColumns, "\t") + "\nCCO\tC2H6O\t15.8\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Out.dat"), []byte(stale), 0644))

	// Tool that succeeds without writing anything: a previous run's output
	// must not be mistaken for this row's result.
	e := fakeTool(t, dir, `true`)

	record, err := e.Extract("C=O")
	require.Error(t, err)
	assert.False(t, record.Applicable)
}

func TestExtract_HungToolIsKilled(t *testing.T) {
	e := fakeTool(t, t.TempDir(), `sleep 5`)
	e.MaxRetries = 1
	e.Timeout = 100 * time.Millisecond

	record, err := e.Extract("C=O")
	require.Error(t, err)
	assert.False(t, record.Applicable)
	assert.Contains(t, err.Error(), "timed out")
}
