package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"invoicetools/internal/reconciliation"
	"invoicetools/pkg/models"
)

var invoiceReconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Mark invoices paid from the bank statement sheet",
	Long: `Read incoming payments from the "Bank" worksheet of the Google Sheet and
match them against final invoices that are open or overdue. A payment
matches when its reference names the document number and the amount equals
the invoice total. Matched invoices are set to paid.

Required environment variables:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string
  GOOGLE_SHEET_URL - Google Sheets URL containing the Bank sheet`,
	Example: `  # Show matches without changing any invoice
  invoicetools invoice reconcile --dry-run

  ENABLE_WRITES=1 invoicetools invoice reconcile --bank-sheet "Bank 2025"`,
	Args: cobra.NoArgs,
	RunE: runInvoiceReconcile,
}

func init() {
	invoiceCmd.AddCommand(invoiceReconcileCmd)

	invoiceReconcileCmd.Flags().String("bank-sheet", reconciliation.DefaultBankSheet, "Worksheet with the bank transactions")
	invoiceReconcileCmd.Flags().Bool("dry-run", false, "Report matches but don't change invoices")
}

type reconcileOutput struct {
	Transactions int                    `json:"transactions"`
	Matches      []reconciliation.Match `json:"matches"`
	Applied      int                    `json:"applied"`
	Failed       []string               `json:"failed,omitempty"`
	DryRun       bool                   `json:"dry_run"`
}

func runInvoiceReconcile(cmd *cobra.Command, args []string) error {
	bankSheet, _ := cmd.Flags().GetString("bank-sheet")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	return runInvoiceOp(cmd, "reconcile", "", func(ctx context.Context, a *app) (any, error) {
		sheetsService, err := a.sheetsService(ctx)
		if err != nil {
			return nil, err
		}

		transactions, err := reconciliation.NewDataReader(sheetsService).ReadBankTransactions(ctx, bankSheet)
		if err != nil {
			return nil, err
		}
		records, err := a.service.Records(false)
		if err != nil {
			return nil, err
		}

		out := reconcileOutput{
			Transactions: len(transactions),
			Matches:      reconciliation.MatchPayments(records, transactions),
			DryRun:       dryRun,
		}
		if out.Matches == nil {
			out.Matches = []reconciliation.Match{}
		}
		if dryRun {
			return out, nil
		}

		for _, m := range out.Matches {
			if _, err := a.service.UpdateStatus(ctx, m.InvoiceID, models.PaymentPaid, nil); err != nil {
				a.log.Warn().Err(err).Str("invoice_id", m.InvoiceID).Msg("Failed to mark invoice paid")
				out.Failed = append(out.Failed, m.InvoiceID)
				continue
			}
			out.Applied++
		}

		a.log.Info().
			Int("transactions", out.Transactions).
			Int("matches", len(out.Matches)).
			Int("applied", out.Applied).
			Msg("Reconciliation completed")
		return out, nil
	})
}
