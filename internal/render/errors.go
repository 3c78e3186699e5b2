package render

import (
	"errors"
	"fmt"
)

var (
	// ErrToolingUnavailable is returned when the document compiler cannot be
	// started. It is not retryable; the installation must be fixed.
	ErrToolingUnavailable = errors.New("document compiler unavailable")

	// ErrTemplateMissing is returned when the template file does not exist.
	ErrTemplateMissing = errors.New("template not found")

	// ErrCompileFailed is matched by every *CompileError.
	ErrCompileFailed = errors.New("document compilation failed")
)

// installHint points operators at ways to provide pdflatex.
const installHint = `pdflatex not found. Install TeX Live 2024+ or use one of these options:
  1. Install TeX Live: https://tug.org/texlive/
  2. Set PDFLATEX_PATH to your pdflatex binary
  3. For Debian/Ubuntu: apt-get install texlive-latex-base texlive-latex-extra`

// CompileError carries the compiler's exit code and captured output.
type CompileError struct {
	Pass     int
	ExitCode int
	Output   string
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	return fmt.Sprintf("pdflatex failed with exit code %d on pass %d:\n%s", e.ExitCode, e.Pass, e.Output)
}

// Is makes errors.Is(err, ErrCompileFailed) hold.
func (e *CompileError) Is(target error) bool {
	return target == ErrCompileFailed
}
