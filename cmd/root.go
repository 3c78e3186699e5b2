package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"invoicetools/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "invoicetools",
	Short: "Invoice store with draft/final lifecycle, numbering and PDF rendering",
	Long: `invoicetools keeps invoices as JSON records below a storage root,
maintains a derived index for listing, mints gapless per-year document
numbers and renders invoices to PDF with pdflatex.

All mutations are serialized by an exclusive lock on the storage root, so
several processes may share one root safely. Results are printed as JSON on
stdout, logs go to stderr.

Environment variables:
  INVOICE_ROOT      - storage root (default: .mad_invoice)
  ENABLE_WRITES     - set to 1 to allow create, edit, delete and render
  LOCK_TIMEOUT      - maximum wait for the write lock (default: 5s)
  REDIS_URL         - use a Redis lease instead of the file lock
  PDFLATEX_PATH     - pdflatex executable (default: discovered)
  INVOICE_TEMPLATE  - LaTeX template (default: templates/invoice.tex)
  NUMBER_SEPARATOR  - between year and counter (default: -)
  METRICS_FILE      - write Prometheus metrics here after each command
  GOOGLE_SHEET_URL  - Google Sheet for export and reconcile`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Debug().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("root", "", "Storage root (overrides INVOICE_ROOT)")
}
