package config

import (
	"os"
	"os/exec"
	"path/filepath"
	"sort"
)

const pdflatexBinary = "pdflatex"

// ResolvePDFLatex returns the compiler to use. An explicit override wins even
// when it does not point to an executable, so the render step can report a
// precise error. Otherwise PATH and the usual TeX Live install roots are
// searched. The result is empty when nothing was found.
func ResolvePDFLatex(override string) string {
	if override != "" {
		if abs, err := filepath.Abs(expandHome(override)); err == nil && isExecutable(abs) {
			return abs
		}
		return override
	}

	var roots []string
	if home, err := os.UserHomeDir(); err == nil {
		roots = append(roots, filepath.Join(home, ".local", "texlive"))
	}
	roots = append(roots, "/usr/local/texlive")
	return discoverPDFLatex(exec.LookPath, roots)
}

// discoverPDFLatex looks in PATH, then in <root>/<year>/bin/<arch>/ with the
// newest year first.
func discoverPDFLatex(lookPath func(string) (string, error), roots []string) string {
	if path, err := lookPath(pdflatexBinary); err == nil {
		return path
	}

	for _, root := range roots {
		years, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		sort.Slice(years, func(i, j int) bool { return years[i].Name() > years[j].Name() })

		for _, year := range years {
			if !year.IsDir() {
				continue
			}
			arches, err := os.ReadDir(filepath.Join(root, year.Name(), "bin"))
			if err != nil {
				continue
			}
			for _, arch := range arches {
				candidate := filepath.Join(root, year.Name(), "bin", arch.Name(), pdflatexBinary)
				if arch.IsDir() && isExecutable(candidate) {
					return candidate
				}
			}
		}
	}
	return ""
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0
}

func expandHome(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
