package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	PubChem struct {
		BaseURL         string `yaml:"base_url"`
		IntervalSeconds int    `yaml:"interval_seconds" validate:"min=0"`
		MaxRetries      int    `yaml:"max_retries" validate:"min=1"`
		TimeoutSeconds  int    `yaml:"timeout_seconds" validate:"min=1"`
	} `yaml:"pubchem"`

	HSPiP struct {
		Dir               string `yaml:"dir"`
		Command           string `yaml:"command"`
		ModeFlag          string `yaml:"mode_flag"`
		OutputFile        string `yaml:"output_file"`
		MaxRetries        int    `yaml:"max_retries" validate:"min=1"`
		MaxOutputRetries  int    `yaml:"max_output_retries" validate:"min=1"`
		RetryDelaySeconds int    `yaml:"retry_delay_seconds" validate:"min=0"`
		TimeoutSeconds    int    `yaml:"timeout_seconds" validate:"min=1"`
	} `yaml:"hspip"`

	Input struct {
		CASFile string `yaml:"cas_file"`
	} `yaml:"input"`

	Output struct {
		BaseDir        string `yaml:"base_dir"`
		CheckpointRows int    `yaml:"checkpoint_rows" validate:"min=1"`
	} `yaml:"output"`
}

// Default returns the built-in configuration, before any file or environment
// values are applied.
func Default() *Config {
	var cfg Config
	cfg.PubChem.BaseURL = "https://pubchem.ncbi.nlm.nih.gov/rest/pug"
	cfg.PubChem.IntervalSeconds = 1
	cfg.PubChem.MaxRetries = 3
	cfg.PubChem.TimeoutSeconds = 30
	cfg.HSPiP.Command = "HSPiP.exe"
	cfg.HSPiP.ModeFlag = "Y-MBSX"
	cfg.HSPiP.OutputFile = "Out.dat"
	cfg.HSPiP.MaxRetries = 3
	cfg.HSPiP.MaxOutputRetries = 3
	cfg.HSPiP.RetryDelaySeconds = 2
	cfg.HSPiP.TimeoutSeconds = 120
	cfg.Input.CASFile = "cas_numbers.csv"
	cfg.Output.BaseDir = "./results"
	cfg.Output.CheckpointRows = 10
	return &cfg
}

// LoadFile parses a config file and applies defaults, environment overrides
// and validation. It has no side effects on the filesystem.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file failed: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file failed: %w", err)
	}
	applyDefaults(cfg)
	ApplyEnvOverrides(cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadConfig loads YAML config from file path, generating a default config
// file and an input template on first run.
// Returns config, shouldExit, error.
func LoadConfig(path string) (*Config, bool, error) {
	if _, err := os.Stat(path); err != nil {
		// Generate a default config file on first run and ask the user to
		// fill in the HSPiP installation path before running again.
		if os.IsNotExist(err) {
			fmt.Printf("Config file %s not found, generating a default one...\n", path)
			if err := generateDefaultConfig(path); err != nil {
				return nil, true, fmt.Errorf("generating default config failed: %w", err)
			}
			fmt.Printf("Default config written to %s\n", path)
			fmt.Println("Edit it (at least hspip.dir) and run again.")
			fmt.Println("")
			fmt.Println("=== Configuration notes ===")
			fmt.Println("- pubchem: lookup endpoint, per-request timeout, retries and the")
			fmt.Println("  politeness interval between requests (PubChem rate limits apply)")
			fmt.Println("- hspip.dir: the HSPiP installation directory; the CLI license must")
			fmt.Println("  be enabled for HSPiP.exe Y-MBSX to work")
			fmt.Println("- input.cas_file: ordered CAS list, .csv (column 'cas' or first")
			fmt.Println("  column) or .txt (one per line); blank rows are kept as placeholders")
			fmt.Println("- output.base_dir: one sub-directory per run is created under it")
			fmt.Println("===========================")
			fmt.Println("")
			return nil, true, nil
		}
		return nil, true, fmt.Errorf("checking config file failed: %w", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		return nil, true, err
	}

	// Make sure the input list exists; generate a template otherwise.
	shouldExit, err := EnsureInputFileExists(cfg.Input.CASFile)
	if err != nil {
		return nil, true, fmt.Errorf("checking input file failed: %w", err)
	}
	if shouldExit {
		return nil, true, nil
	}

	return cfg, false, nil
}

// applyDefaults fills fields that the YAML file left zero-valued. Unmarshal
// overwrites struct defaults with zeros for keys present-but-empty, so this
// runs after parsing.
func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.PubChem.BaseURL == "" {
		cfg.PubChem.BaseURL = def.PubChem.BaseURL
	}
	if cfg.PubChem.MaxRetries == 0 {
		cfg.PubChem.MaxRetries = def.PubChem.MaxRetries
	}
	if cfg.PubChem.TimeoutSeconds == 0 {
		cfg.PubChem.TimeoutSeconds = def.PubChem.TimeoutSeconds
	}
	if cfg.HSPiP.Command == "" {
		cfg.HSPiP.Command = def.HSPiP.Command
	}
	if cfg.HSPiP.ModeFlag == "" {
		cfg.HSPiP.ModeFlag = def.HSPiP.ModeFlag
	}
	if cfg.HSPiP.OutputFile == "" {
		cfg.HSPiP.OutputFile = def.HSPiP.OutputFile
	}
	if cfg.HSPiP.MaxRetries == 0 {
		cfg.HSPiP.MaxRetries = def.HSPiP.MaxRetries
	}
	if cfg.HSPiP.MaxOutputRetries == 0 {
		cfg.HSPiP.MaxOutputRetries = def.HSPiP.MaxOutputRetries
	}
	if cfg.HSPiP.TimeoutSeconds == 0 {
		cfg.HSPiP.TimeoutSeconds = def.HSPiP.TimeoutSeconds
	}
	if cfg.Input.CASFile == "" {
		cfg.Input.CASFile = def.Input.CASFile
	}
	if cfg.Output.BaseDir == "" {
		cfg.Output.BaseDir = def.Output.BaseDir
	}
	if cfg.Output.CheckpointRows == 0 {
		cfg.Output.CheckpointRows = def.Output.CheckpointRows
	}
}

// ApplyEnvOverrides lets the environment (including a .env file loaded by the
// caller) override the install-specific paths without editing config.yaml.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HSPIP_DIR"); v != "" {
		cfg.HSPiP.Dir = v
	}
	if v := os.Getenv("PUBCHEM_BASE_URL"); v != "" {
		cfg.PubChem.BaseURL = v
	}
}

// generateDefaultConfig writes the commented default config file.
func generateDefaultConfig(path string) error {
	defaultConfigContent := `# config.yaml

# PubChem PUG REST lookup settings
pubchem:
  base_url: "https://pubchem.ncbi.nlm.nih.gov/rest/pug"
  interval_seconds: 1    # pause between lookups, keep PubChem happy
  max_retries: 3         # retries for throttled/busy responses
  timeout_seconds: 30

# HSPiP CLI settings (CLI license required)
hspip:
  dir: ""                # HSPiP installation directory, e.g. C:\Program Files\Hansen-Solubility\HSPiP
  command: "HSPiP.exe"
  mode_flag: "Y-MBSX"
  output_file: "Out.dat" # written by the tool inside hspip.dir, overwritten per call
  max_retries: 3         # re-invocations per SMILES
  max_output_retries: 3  # re-reads of an empty/missing output file
  retry_delay_seconds: 2
  timeout_seconds: 120   # kill a hung invocation after this long

# Input CAS list: .csv (column 'cas' or first column) or .txt (one per line)
input:
  cas_file: "cas_numbers.csv"

# Results directory (one sub-directory per run)
output:
  base_dir: "./results"
  checkpoint_rows: 10    # export an intermediate CSV every N processed rows
`

	if err := os.WriteFile(path, []byte(defaultConfigContent), 0644); err != nil {
		return fmt.Errorf("writing default config file failed: %w", err)
	}

	return nil
}

// EnsureInputFileExists makes sure the CAS list file exists, generating a
// template otherwise. Returns shouldExit, error.
func EnsureInputFileExists(casFile string) (bool, error) {
	if _, err := os.Stat(casFile); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return true, fmt.Errorf("checking input file failed: %w", err)
	}

	fmt.Printf("Input file %s not found, generating a template...\n", casFile)
	if err := generateDefaultInputFile(casFile); err != nil {
		return true, fmt.Errorf("generating input template failed: %w", err)
	}
	fmt.Printf("Template written to %s\n", casFile)
	fmt.Println("")
	fmt.Println("=== Input file notes ===")
	fmt.Println("One CAS registry number per row, original order is preserved in the")
	fmt.Println("output. Leave a row blank to keep a placeholder at that position;")
	fmt.Println("blank rows are never sent to PubChem.")
	fmt.Println("Example:")
	fmt.Println("  cas")
	fmt.Println("  50-00-0")
	fmt.Println("")
	fmt.Println("  67-56-1")
	fmt.Println("========================")
	fmt.Println("")

	return true, nil
}

// generateDefaultInputFile writes the input template.
func generateDefaultInputFile(casFile string) error {
	var content string
	if strings.HasSuffix(casFile, ".csv") {
		content = "cas\n"
	} else {
		content = "# one CAS number per line, blank lines are kept as placeholders\n"
	}

	if err := os.WriteFile(casFile, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing input template failed: %w", err)
	}

	return nil
}
