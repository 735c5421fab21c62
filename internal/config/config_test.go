package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_GeneratesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, shouldExit, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, shouldExit)
	assert.Nil(t, cfg)
	assert.FileExists(t, path)
}

func TestLoadConfig_GeneratesInputTemplate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	casFile := filepath.Join(dir, "cas_numbers.csv")
	writeConfig(t, path, casFile)

	cfg, shouldExit, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, shouldExit)
	assert.Nil(t, cfg)
	assert.FileExists(t, casFile)
}

func TestLoadConfig_Full(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	casFile := filepath.Join(dir, "cas_numbers.csv")
	require.NoError(t, os.WriteFile(casFile, []byte("cas\n50-00-0\n"), 0644))
	writeConfig(t, path, casFile)

	cfg, shouldExit, err := LoadConfig(path)
	require.NoError(t, err)
	assert.False(t, shouldExit)
	require.NotNil(t, cfg)

	assert.Equal(t, `C:\HSPiP`, cfg.HSPiP.Dir)
	assert.Equal(t, casFile, cfg.Input.CASFile)
	// unset keys fall back to defaults
	assert.Equal(t, "HSPiP.exe", cfg.HSPiP.Command)
	assert.Equal(t, "Y-MBSX", cfg.HSPiP.ModeFlag)
	assert.Equal(t, "Out.dat", cfg.HSPiP.OutputFile)
	assert.Equal(t, 3, cfg.PubChem.MaxRetries)
	assert.Equal(t, 10, cfg.Output.CheckpointRows)
}

func TestLoadFile_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	casFile := filepath.Join(dir, "cas_numbers.csv")
	writeConfig(t, path, casFile)

	t.Setenv("HSPIP_DIR", "/opt/hspip")
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/hspip", cfg.HSPiP.Dir)
}

func TestLoadFile_RejectsNegativeRetries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pubchem:\n  max_retries: -1\n"), 0644))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "https://pubchem.ncbi.nlm.nih.gov/rest/pug", cfg.PubChem.BaseURL)
	assert.Equal(t, "Y-MBSX", cfg.HSPiP.ModeFlag)
	assert.Equal(t, 3, cfg.HSPiP.MaxOutputRetries)
}

func writeConfig(t *testing.T, path, casFile string) {
	t.Helper()
	content := "hspip:\n  dir: 'C:\\HSPiP'\ninput:\n  cas_file: \"" + casFile + "\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}
