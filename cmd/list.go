package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"invoicetools/internal/invoice"
	"invoicetools/pkg/models"
)

var invoiceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List invoices from the index",
	Long: `List invoice summaries from index.json with filters, sorting and paging.

Sort keys: issue_date (default), due_date, recipient, document_number, total.
Ties are broken by document number, then id, in the same direction.`,
	Example: `  # Open final invoices of ACME, newest first
  invoicetools invoice list --status final --payment open --recipient acme

  # Second page of all invoices in March by total
  invoicetools invoice list --from 2025-03-01 --to 2025-03-31 --sort total --offset 20`,
	Args: cobra.NoArgs,
	RunE: runInvoiceList,
}

func init() {
	invoiceCmd.AddCommand(invoiceListCmd)

	invoiceListCmd.Flags().String("status", "", "Filter by status (draft, final)")
	invoiceListCmd.Flags().String("payment", "", "Filter by payment status")
	invoiceListCmd.Flags().String("recipient", "", "Case-insensitive substring of the recipient name")
	invoiceListCmd.Flags().String("from", "", "Earliest issue date, YYYY-MM-DD (inclusive)")
	invoiceListCmd.Flags().String("to", "", "Latest issue date, YYYY-MM-DD (inclusive)")
	invoiceListCmd.Flags().String("sort", invoice.SortIssueDate, "Sort key")
	invoiceListCmd.Flags().String("direction", invoice.DirectionDesc, "Sort direction (asc, desc)")
	invoiceListCmd.Flags().Int("limit", invoice.DefaultListLimit, "Page size (at most 100)")
	invoiceListCmd.Flags().Int("offset", 0, "Number of matches to skip")
}

func runInvoiceList(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	status, _ := flags.GetString("status")
	payment, _ := flags.GetString("payment")
	recipient, _ := flags.GetString("recipient")
	from, _ := flags.GetString("from")
	to, _ := flags.GetString("to")
	sortBy, _ := flags.GetString("sort")
	direction, _ := flags.GetString("direction")
	limit, _ := flags.GetInt("limit")
	offset, _ := flags.GetInt("offset")

	query := invoice.ListQuery{
		Status:         models.Status(status),
		PaymentStatus:  models.PaymentStatus(payment),
		RecipientQuery: recipient,
		IssueDateFrom:  from,
		IssueDateTo:    to,
		SortBy:         sortBy,
		Direction:      direction,
		Limit:          &limit,
		Offset:         offset,
	}

	return runInvoiceOp(cmd, "list", "", func(_ context.Context, a *app) (any, error) {
		return a.service.List(query)
	})
}
