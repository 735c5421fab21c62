// Package extractor drives the HSPiP CLI. The tool takes a SMILES string,
// computes Hansen Solubility Parameters and ~58 further descriptors, and
// reports them by overwriting a single Out.dat file in its own directory.
// Invocations must therefore be strictly serialized, and the output file is
// read back immediately after each call.
package extractor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/glsalierno/cas-to-HSPiP-data/internal/config"
	"github.com/glsalierno/cas-to-HSPiP-data/internal/model"
	"github.com/glsalierno/cas-to-HSPiP-data/internal/util"
)

// Extractor invokes the HSPiP CLI for one structure at a time.
type Extractor struct {
	Dir        string // HSPiP installation directory
	Command    string
	ModeFlag   string
	OutputFile string

	MaxRetries       int
	MaxOutputRetries int
	RetryDelay       time.Duration
	Timeout          time.Duration
}

// New builds an Extractor from config.
func New(cfg *config.Config) *Extractor {
	return &Extractor{
		Dir:              cfg.HSPiP.Dir,
		Command:          cfg.HSPiP.Command,
		ModeFlag:         cfg.HSPiP.ModeFlag,
		OutputFile:       cfg.HSPiP.OutputFile,
		MaxRetries:       cfg.HSPiP.MaxRetries,
		MaxOutputRetries: cfg.HSPiP.MaxOutputRetries,
		RetryDelay:       time.Duration(cfg.HSPiP.RetryDelaySeconds) * time.Second,
		Timeout:          time.Duration(cfg.HSPiP.TimeoutSeconds) * time.Second,
	}
}

// OutputPath is the shared output file the tool overwrites on every call.
func (e *Extractor) OutputPath() string {
	return filepath.Join(e.Dir, e.OutputFile)
}

// Extract runs the tool for one resolved structure and parses the output file.
// Sentinel structures short-circuit to the not-applicable record without
// touching the tool. Any failure (bad syntax, non-zero exit, timeout, missing
// or unreadable output) also yields the not-applicable record, with the error
// returned for logging; the caller keeps the row and moves on.
func (e *Extractor) Extract(smiles string) (model.PropertyRecord, error) {
	if model.IsSentinel(smiles) {
		return model.NotApplicableRecord(), nil
	}
	if !util.IsValidSMILES(smiles) {
		return model.NotApplicableRecord(), fmt.Errorf("syntactically invalid SMILES %q", smiles)
	}

	var lastErr error
	for attempt := 1; attempt <= e.MaxRetries; attempt++ {
		if attempt > 1 {
			time.Sleep(e.RetryDelay)
		}

		if err := e.invoke(smiles); err != nil {
			lastErr = err
			continue
		}

		record, err := e.readOutput()
		if err != nil {
			lastErr = err
			continue
		}
		return record, nil
	}

	return model.NotApplicableRecord(), fmt.Errorf("HSPiP failed after %d attempts: %w", e.MaxRetries, lastErr)
}

// invoke runs one tool call. The working directory is scoped to the child
// process via exec.Cmd.Dir, so the parent never changes directory and nothing
// needs restoring on any exit path.
func (e *Extractor) invoke(smiles string) error {
	// Remove the previous output so a stale result can never be read back as
	// the current one.
	if err := os.Remove(e.OutputPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale output failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, filepath.Join(e.Dir, e.Command), e.ModeFlag, smiles)
	cmd.Dir = e.Dir

	out, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("tool timed out after %s", e.Timeout)
	}
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return fmt.Errorf("tool invocation failed: %w (%s)", err, msg)
	}
	return nil
}

// readOutput reads the output file, retrying while it is still missing or
// empty: the tool occasionally returns before the file is flushed.
func (e *Extractor) readOutput() (model.PropertyRecord, error) {
	var lastErr error
	for attempt := 1; attempt <= e.MaxOutputRetries; attempt++ {
		if attempt > 1 {
			time.Sleep(e.RetryDelay)
		}

		info, err := os.Stat(e.OutputPath())
		if err != nil || info.Size() == 0 {
			lastErr = fmt.Errorf("output file missing or empty")
			continue
		}

		f, err := os.Open(e.OutputPath())
		if err != nil {
			lastErr = err
			continue
		}
		record, err := ParseOutput(f)
		f.Close()
		if err != nil {
			lastErr = err
			continue
		}
		return record, nil
	}

	return model.NotApplicableRecord(), fmt.Errorf("reading output failed after %d attempts: %w", e.MaxOutputRetries, lastErr)
}
