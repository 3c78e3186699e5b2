//go:build unix

package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"invoicetools/internal/config"
	"invoicetools/internal/invoice"
	"invoicetools/internal/storage"
	"invoicetools/pkg/models"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestReadInvoiceInput(t *testing.T) {
	payload, err := json.Marshal(models.ExampleInvoice(models.LanguageEnglish))
	require.NoError(t, err)

	inv, err := readInvoiceInput("-", bytes.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, models.LanguageEnglish, inv.Language)

	path := filepath.Join(t.TempDir(), "draft.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"id": "x", "surprise": true}`), 0o644))
	_, err = readInvoiceInput(path, nil)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestInvoiceCommandsRoundTrip(t *testing.T) {
	t.Setenv("INVOICE_ROOT", filepath.Join(t.TempDir(), ".mad_invoice"))
	t.Setenv("ENABLE_WRITES", "1")
	t.Setenv("REDIS_URL", "")
	t.Setenv("METRICS_FILE", "")

	payload, err := json.Marshal(models.ExampleInvoice(models.LanguageGerman))
	require.NoError(t, err)

	out, err := runCLI(t, string(payload), "invoice", "create", "-f", "-")
	require.NoError(t, err)
	var created invoice.MutationResult
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	require.NotNil(t, created.Invoice)
	assert.Equal(t, models.StatusDraft, created.Invoice.Status)
	id := created.Invoice.ID

	out, err = runCLI(t, "", "invoice", "get", id)
	require.NoError(t, err)
	var fetched models.Invoice
	require.NoError(t, json.Unmarshal([]byte(out), &fetched))
	assert.Equal(t, created.Invoice.DocumentNumber, fetched.DocumentNumber)

	out, err = runCLI(t, "", "invoice", "list", "--limit", "5")
	require.NoError(t, err)
	var page invoice.ListResult
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, 1, page.TotalCount)
	assert.Equal(t, id, page.Invoices[0].ID)
}

func TestInvoiceCommandReportsErrorKind(t *testing.T) {
	t.Setenv("INVOICE_ROOT", filepath.Join(t.TempDir(), ".mad_invoice"))
	t.Setenv("REDIS_URL", "")

	out, err := runCLI(t, "", "invoice", "get", "2025-0404")
	require.Error(t, err)

	var failure errorOutput
	require.NoError(t, json.Unmarshal([]byte(out), &failure))
	assert.Equal(t, invoice.KindNotFound, failure.Error.Kind)
}

func TestExportDryRunCountsInvoices(t *testing.T) {
	t.Setenv("INVOICE_ROOT", filepath.Join(t.TempDir(), ".mad_invoice"))
	t.Setenv("ENABLE_WRITES", "1")
	t.Setenv("REDIS_URL", "")
	t.Setenv("METRICS_FILE", "")

	payload, err := json.Marshal(models.ExampleInvoice(models.LanguageEnglish))
	require.NoError(t, err)
	_, err = runCLI(t, string(payload), "invoice", "create", "-f", "-")
	require.NoError(t, err)

	out, err := runCLI(t, "", "invoice", "export", "--dry-run", "--all", "--sheet", "Test")
	require.NoError(t, err)
	var res exportOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, exportOutput{Worksheet: "Test", Rows: 1, DryRun: true}, res)
}

func TestCommandsUseStartupConfig(t *testing.T) {
	root := filepath.Join(t.TempDir(), ".mad_invoice")
	SetConfig(&config.Config{
		InvoiceRoot:     root,
		EnableWrites:    true,
		NumberSeparator: "-",
		LockTimeout:     2 * time.Second,
		LockTTL:         30 * time.Second,
		TemplatePath:    "templates/invoice.tex",
		RenderWorkers:   1,
	})
	t.Cleanup(func() { SetConfig(nil) })

	// The environment would point elsewhere and forbid writes.
	envRoot := filepath.Join(t.TempDir(), "from-env")
	t.Setenv("INVOICE_ROOT", envRoot)
	t.Setenv("ENABLE_WRITES", "")

	payload, err := json.Marshal(models.ExampleInvoice(models.LanguageGerman))
	require.NoError(t, err)
	out, err := runCLI(t, string(payload), "invoice", "create", "-f", "-")
	require.NoError(t, err)

	var created invoice.MutationResult
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	require.NotNil(t, created.Invoice)

	path, err := storage.NewFileStore(root).InvoicePath(created.Invoice.ID)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.NoDirExists(t, envRoot)
	assert.Equal(t, root, loadedConfig.InvoiceRoot)
}
