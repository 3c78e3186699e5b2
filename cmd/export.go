package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"invoicetools/internal/sheets"
)

var invoiceExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Mirror issued invoices into a Google Sheet",
	Long: `Write one row per invoice into a worksheet of a Google Sheet. The data
rows of the worksheet are replaced on every run, so the sheet always
reflects the store. Drafts are left out unless --all is given.

Required environment variables:
  GOOGLE_SHEET_URL - Google Sheets URL to write to
  GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS - service account

Optional environment variables:
  GOOGLE_SHEET_WORKSHEET - worksheet name (default: Debitoren)`,
	Example: `  invoicetools invoice export
  invoicetools invoice export --sheet "Debitoren 2025" --all

  # Count the rows without touching the sheet
  invoicetools invoice export --dry-run`,
	Args: cobra.NoArgs,
	RunE: runInvoiceExport,
}

func init() {
	invoiceCmd.AddCommand(invoiceExportCmd)

	invoiceExportCmd.Flags().String("sheet", "", "Worksheet name (default: GOOGLE_SHEET_WORKSHEET)")
	invoiceExportCmd.Flags().Bool("all", false, "Include drafts")
	invoiceExportCmd.Flags().Bool("dry-run", false, "Load the rows but do not write to Google Sheets")
}

type exportOutput struct {
	Worksheet string `json:"worksheet"`
	Rows      int    `json:"rows"`
	DryRun    bool   `json:"dry_run"`
}

func runInvoiceExport(cmd *cobra.Command, args []string) error {
	sheetName, _ := cmd.Flags().GetString("sheet")
	includeDrafts, _ := cmd.Flags().GetBool("all")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	return runInvoiceOp(cmd, "export", "", func(ctx context.Context, a *app) (any, error) {
		if sheetName == "" {
			sheetName = a.cfg.SheetWorksheet
		}
		if sheetName == "" {
			sheetName = sheets.DefaultWorksheet
		}

		records, err := a.service.Records(includeDrafts)
		if err != nil {
			return nil, err
		}
		if dryRun {
			return exportOutput{Worksheet: sheetName, Rows: len(records), DryRun: true}, nil
		}

		sheetsService, err := a.sheetsService(ctx)
		if err != nil {
			return nil, err
		}

		rows, err := sheetsService.ExportInvoices(ctx, records, sheetName)
		if err != nil {
			return nil, err
		}
		return exportOutput{Worksheet: sheetName, Rows: rows}, nil
	})
}
