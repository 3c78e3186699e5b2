package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"invoicetools/pkg/models"
)

var invoiceNumberCmd = &cobra.Command{
	Use:   "number",
	Short: "Draw the next document number without creating an invoice",
	Long: `Draw the next document number of the current year. The number is
consumed even if no invoice is created with it.

With --peek the last issued number is printed and nothing is consumed.`,
	Args: cobra.NoArgs,
	RunE: runInvoiceNumber,
}

var invoiceTemplateCmd = &cobra.Command{
	Use:   "template",
	Short: "Print an example invoice payload",
	Args:  cobra.NoArgs,
	RunE:  runInvoiceTemplate,
}

var invoiceReindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild index.json from the invoice files",
	Args:  cobra.NoArgs,
	RunE:  runInvoiceReindex,
}

func init() {
	invoiceCmd.AddCommand(invoiceNumberCmd, invoiceTemplateCmd, invoiceReindexCmd)

	invoiceNumberCmd.Flags().String("separator", "", "Separator between year and counter (default: NUMBER_SEPARATOR)")
	invoiceNumberCmd.Flags().Bool("peek", false, "Print the last issued number only")
	invoiceTemplateCmd.Flags().String("lang", string(models.LanguageGerman), "Language of the example (de, en)")
}

type peekOutput struct {
	LastIssued string `json:"last_issued"`
}

func runInvoiceNumber(cmd *cobra.Command, args []string) error {
	peek, _ := cmd.Flags().GetBool("peek")
	var separator *string
	if cmd.Flags().Changed("separator") {
		sep, _ := cmd.Flags().GetString("separator")
		separator = &sep
	}

	return runInvoiceOp(cmd, "generate_number", "", func(ctx context.Context, a *app) (any, error) {
		if peek {
			return peekOutput{LastIssued: a.service.LastIssued()}, nil
		}
		return a.service.GenerateNumber(ctx, separator)
	})
}

func runInvoiceTemplate(cmd *cobra.Command, args []string) error {
	lang, _ := cmd.Flags().GetString("lang")
	return runInvoiceOp(cmd, "template", "", func(_ context.Context, a *app) (any, error) {
		return a.service.Template(models.Language(lang)), nil
	})
}

func runInvoiceReindex(cmd *cobra.Command, args []string) error {
	return runInvoiceOp(cmd, "reindex", "", func(ctx context.Context, a *app) (any, error) {
		return a.service.Reindex(ctx)
	})
}
