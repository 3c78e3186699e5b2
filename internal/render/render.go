// Package render turns an invoice into a LaTeX source by filling named slots
// of a template and compiles it to PDF with pdflatex.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"invoicetools/internal/lock"
	"invoicetools/internal/logger"
	"invoicetools/internal/metrics"
	"invoicetools/pkg/models"
)

const (
	sourceName     = "invoice.tex"
	pdfName        = "invoice.pdf"
	renderLockName = ".render.lock"

	// compilePasses is fixed: the second pass resolves references and tables.
	compilePasses = 2
)

// BuildDirResolver maps an invoice id to its scratch build directory.
type BuildDirResolver interface {
	BuildDir(id string) (string, error)
}

// Config holds the render settings resolved at startup.
type Config struct {
	// TemplatePath is the LaTeX template with %%SLOT%% placeholders.
	TemplatePath string

	// CompilerPath is the pdflatex executable. Empty means none was found.
	CompilerPath string

	// LockTimeout bounds the wait for a concurrent render of the same invoice.
	LockTimeout time.Duration
}

// Result describes the files produced by a render.
type Result struct {
	InvoiceID  string `json:"invoice_id"`
	SourcePath string `json:"tex_path"`
	PDFPath    string `json:"pdf_path"`
}

// Renderer runs the render pipeline.
type Renderer struct {
	cfg     Config
	dirs    BuildDirResolver
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewRenderer creates a renderer writing below the directories from dirs.
func NewRenderer(cfg Config, dirs BuildDirResolver, m *metrics.Metrics) *Renderer {
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = lock.DefaultTimeout
	}
	return &Renderer{
		cfg:     cfg,
		dirs:    dirs,
		metrics: m,
		log:     logger.WithComponent("render"),
	}
}

// Render fills the template for inv and compiles it twice. Concurrent renders
// of the same invoice are serialized on a lock file in its build directory.
func (r *Renderer) Render(ctx context.Context, inv *models.Invoice) (res *Result, err error) {
	start := time.Now()
	defer func() { r.metrics.ObserveRender(time.Since(start), err) }()

	template, err := os.ReadFile(r.cfg.TemplatePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrTemplateMissing, r.cfg.TemplatePath)
		}
		return nil, fmt.Errorf("read template: %w", err)
	}

	buildDir, err := r.dirs.BuildDir(inv.ID)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		return nil, fmt.Errorf("create build directory: %w", err)
	}

	lease, err := lock.NewFileLocker(filepath.Join(buildDir, renderLockName), r.cfg.LockTimeout).Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if relErr := lease.Release(); relErr != nil {
			r.log.Error().Err(relErr).Str("invoice_id", inv.ID).Msg("Failed to release render lock")
		}
	}()

	sourcePath := filepath.Join(buildDir, sourceName)
	source := Fill(string(template), Slots(inv))
	if err := os.WriteFile(sourcePath, []byte(source), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", sourcePath, err)
	}

	if r.cfg.CompilerPath == "" {
		return nil, fmt.Errorf("%w: %s", ErrToolingUnavailable, installHint)
	}

	for pass := 1; pass <= compilePasses; pass++ {
		if err := r.compile(ctx, buildDir, pass); err != nil {
			return nil, err
		}
	}

	r.log.Info().
		Str("invoice_id", inv.ID).
		Str("pdf", filepath.Join(buildDir, pdfName)).
		Dur("duration", time.Since(start)).
		Msg("Invoice rendered")

	return &Result{
		InvoiceID:  inv.ID,
		SourcePath: sourcePath,
		PDFPath:    filepath.Join(buildDir, pdfName),
	}, nil
}

func (r *Renderer) compile(ctx context.Context, buildDir string, pass int) error {
	cmd := exec.CommandContext(ctx, r.cfg.CompilerPath, "-interaction=nonstopmode", sourceName)
	cmd.Dir = buildDir

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	err := cmd.Run()
	if err == nil {
		r.log.Debug().Int("pass", pass).Str("output", output.String()).Msg("pdflatex output")
		return nil
	}

	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		r.log.Error().
			Int("pass", pass).
			Int("exit_code", exitErr.ExitCode()).
			Str("output", output.String()).
			Msg("pdflatex failed")
		return &CompileError{Pass: pass, ExitCode: exitErr.ExitCode(), Output: output.String()}
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: cannot run %s: %v\nCheck PDFLATEX_PATH or install TeX Live", ErrToolingUnavailable, r.cfg.CompilerPath, err)
	default:
		return fmt.Errorf("run pdflatex: %w", err)
	}
}
