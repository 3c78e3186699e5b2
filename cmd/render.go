package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"invoicetools/internal/invoice"
)

var invoiceRenderCmd = &cobra.Command{
	Use:   "render [invoice-id...]",
	Short: "Render invoices to PDF with pdflatex",
	Long: `Fill the LaTeX template with the invoice and compile it twice with
pdflatex. Output lands in <root>/build/<invoice-id>/invoice.pdf.

With several ids the invoices are rendered in parallel. Every invoice is
reported separately; one failure does not stop the others.

Optional environment variables:
  PDFLATEX_PATH    - pdflatex executable (default: PATH, then TeX Live dirs)
  INVOICE_TEMPLATE - template with %%SLOT%% placeholders
  RENDER_WORKERS   - number of parallel renders (default: 4)`,
	Example: `  invoicetools invoice render 2025-0001
  invoicetools invoice render 2025-0001 2025-0002 2025-0003 --workers 2`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInvoiceRender,
}

func init() {
	invoiceCmd.AddCommand(invoiceRenderCmd)

	invoiceRenderCmd.Flags().Int("workers", 0, "Parallel renders (default: RENDER_WORKERS)")
}

type renderBatchOutput struct {
	Results   []invoice.BatchResult `json:"results"`
	Succeeded int                   `json:"succeeded"`
	Failed    int                   `json:"failed"`
}

func runInvoiceRender(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		return runInvoiceOp(cmd, "render", args[0], func(ctx context.Context, a *app) (any, error) {
			return a.service.Render(ctx, args[0])
		})
	}

	workers, _ := cmd.Flags().GetInt("workers")
	var failed int
	err := runInvoiceOp(cmd, "render_many", "", func(ctx context.Context, a *app) (any, error) {
		if workers < 1 {
			workers = a.cfg.RenderWorkers
		}
		out := renderBatchOutput{Results: a.service.RenderMany(ctx, args, workers)}
		for _, r := range out.Results {
			if r.Err != nil {
				out.Failed++
			} else {
				out.Succeeded++
			}
		}
		failed = out.Failed
		return out, nil
	})
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d renders failed", failed, len(args))
	}
	return nil
}
