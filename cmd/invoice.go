package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"invoicetools/internal/logger"
	"invoicetools/pkg/models"
)

var invoiceCmd = &cobra.Command{
	Use:   "invoice",
	Short: "Create, inspect and change invoices",
	Long: `Manage invoice records in the storage root.

New invoices start as drafts. Drafts can be edited and deleted freely.
Once an invoice is finalized its content is frozen; only the payment
status can still change. Payloads are JSON documents as printed by
'invoice template'.`,
}

var invoiceCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a draft invoice with the next document number",
	Example: `  # Start from the German example payload
  invoicetools invoice template --lang de > draft.json
  ENABLE_WRITES=1 invoicetools invoice create -f draft.json`,
	Args: cobra.NoArgs,
	RunE: runInvoiceCreate,
}

var invoiceGetCmd = &cobra.Command{
	Use:   "get [invoice-id]",
	Short: "Print one invoice",
	Args:  cobra.ExactArgs(1),
	RunE:  runInvoiceGet,
}

var invoiceEditCmd = &cobra.Command{
	Use:   "edit [invoice-id]",
	Short: "Replace the content of a draft",
	Long: `Replace the content of a draft with the given payload.

The payload must carry the same id. Status, document number and payment
status may be omitted; if present they must match the stored values.`,
	Args: cobra.ExactArgs(1),
	RunE: runInvoiceEdit,
}

var invoiceStatusCmd = &cobra.Command{
	Use:   "status [invoice-id]",
	Short: "Set the payment status and optionally finalize",
	Example: `  # Finalize a draft
  invoicetools invoice status 2025-0001 --payment open --status final

  # Record a payment
  invoicetools invoice status 2025-0001 --payment paid`,
	Args: cobra.ExactArgs(1),
	RunE: runInvoiceStatus,
}

var invoiceDeleteCmd = &cobra.Command{
	Use:   "delete [invoice-id]",
	Short: "Delete a draft",
	Args:  cobra.ExactArgs(1),
	RunE:  runInvoiceDelete,
}

func init() {
	rootCmd.AddCommand(invoiceCmd)
	invoiceCmd.AddCommand(invoiceCreateCmd, invoiceGetCmd, invoiceEditCmd, invoiceStatusCmd, invoiceDeleteCmd)

	invoiceCreateCmd.Flags().StringP("file", "f", "", "Invoice payload as JSON file, - for stdin [REQUIRED]")
	invoiceEditCmd.Flags().StringP("file", "f", "", "Invoice payload as JSON file, - for stdin [REQUIRED]")
	invoiceStatusCmd.Flags().String("payment", "", "Payment status (open, paid, overdue, cancelled) [REQUIRED]")
	invoiceStatusCmd.Flags().String("status", "", "Lifecycle status (draft, final)")

	invoiceCreateCmd.MarkFlagRequired("file")
	invoiceEditCmd.MarkFlagRequired("file")
	invoiceStatusCmd.MarkFlagRequired("payment")
}

// runInvoiceOp wires the service, runs fn and prints its result as JSON.
func runInvoiceOp(cmd *cobra.Command, op, id string, fn func(context.Context, *app) (any, error)) error {
	log := logger.WithOperation("cli", op, id)

	ctx, cancel := createCommandContext(log)
	defer cancel()

	a, err := createApp(ctx, cmd, log)
	if err != nil {
		return handleInvoiceError(cmd, err, log)
	}
	defer a.Close()

	result, err := fn(ctx, a)
	if err != nil {
		return handleInvoiceError(cmd, err, log)
	}

	log.Debug().Msg("Invoice operation completed")
	return outputJSON(cmd.OutOrStdout(), result)
}

func runInvoiceCreate(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")
	return runInvoiceOp(cmd, "create", "", func(ctx context.Context, a *app) (any, error) {
		input, err := readInvoiceInput(path, cmd.InOrStdin())
		if err != nil {
			return nil, err
		}
		return a.service.Create(ctx, input)
	})
}

func runInvoiceGet(cmd *cobra.Command, args []string) error {
	return runInvoiceOp(cmd, "get", args[0], func(_ context.Context, a *app) (any, error) {
		return a.service.Get(args[0])
	})
}

func runInvoiceEdit(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")
	return runInvoiceOp(cmd, "update_draft", args[0], func(ctx context.Context, a *app) (any, error) {
		edit, err := readInvoiceInput(path, cmd.InOrStdin())
		if err != nil {
			return nil, err
		}
		return a.service.UpdateDraft(ctx, args[0], edit)
	})
}

func runInvoiceStatus(cmd *cobra.Command, args []string) error {
	payment, _ := cmd.Flags().GetString("payment")
	statusFlag, _ := cmd.Flags().GetString("status")

	var status *models.Status
	if cmd.Flags().Changed("status") {
		s := models.Status(statusFlag)
		status = &s
	}

	return runInvoiceOp(cmd, "update_status", args[0], func(ctx context.Context, a *app) (any, error) {
		return a.service.UpdateStatus(ctx, args[0], models.PaymentStatus(payment), status)
	})
}

func runInvoiceDelete(cmd *cobra.Command, args []string) error {
	return runInvoiceOp(cmd, "delete_draft", args[0], func(ctx context.Context, a *app) (any, error) {
		return a.service.DeleteDraft(ctx, args[0])
	})
}
