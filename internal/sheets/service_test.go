package sheets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
	"invoicetools/pkg/models"
)

const testSheetURL = "https://docs.google.com/spreadsheets/d/sheet-123_abc/edit#gid=0"

// fakeSheetsAPI answers the handful of Sheets v4 endpoints the exporter uses.
type fakeSheetsAPI struct {
	mu         sync.Mutex
	worksheets []string
	header     [][]interface{}
	calls      []string
	updates    map[string]sheets.ValueRange
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	body, _ := io.ReadAll(r.Body)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		var req sheets.BatchUpdateSpreadsheetRequest
		_ = json.Unmarshal(body, &req)
		reply := &sheets.Response{}
		if len(req.Requests) > 0 && req.Requests[0].AddSheet != nil {
			f.calls = append(f.calls, "add_sheet")
			f.worksheets = append(f.worksheets, req.Requests[0].AddSheet.Properties.Title)
			reply.AddSheet = &sheets.AddSheetResponse{Properties: &sheets.SheetProperties{SheetId: 7}}
		} else {
			f.calls = append(f.calls, "format")
		}
		_ = json.NewEncoder(w).Encode(sheets.BatchUpdateSpreadsheetResponse{Replies: []*sheets.Response{reply}})

	case r.Method == http.MethodPost && strings.HasSuffix(path, ":clear"):
		f.calls = append(f.calls, "clear")
		_, _ = w.Write([]byte(`{}`))

	case r.Method == http.MethodPut && strings.Contains(path, "/values/"):
		var vr sheets.ValueRange
		_ = json.Unmarshal(body, &vr)
		rng := path[strings.Index(path, "/values/")+len("/values/"):]
		f.calls = append(f.calls, "update "+rng)
		f.updates[rng] = vr
		if strings.HasSuffix(rng, "A1:K1") {
			f.header = vr.Values
		}
		_, _ = w.Write([]byte(`{}`))

	case r.Method == http.MethodGet && strings.Contains(path, "/values/"):
		f.calls = append(f.calls, "get_header")
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{Values: f.header})

	case r.Method == http.MethodGet:
		f.calls = append(f.calls, "get_spreadsheet")
		resp := sheets.Spreadsheet{}
		for i, title := range f.worksheets {
			resp.Sheets = append(resp.Sheets, &sheets.Sheet{
				Properties: &sheets.SheetProperties{Title: title, SheetId: int64(i)},
			})
		}
		_ = json.NewEncoder(w).Encode(resp)

	default:
		http.Error(w, "unexpected request "+r.Method+" "+path, http.StatusNotFound)
	}
}

func newTestService(t *testing.T, api *fakeSheetsAPI) *Service {
	t.Helper()
	api.updates = map[string]sheets.ValueRange{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	svc, err := newService(context.Background(), testSheetURL,
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC) }
	return svc
}

func TestExtractSpreadsheetID(t *testing.T) {
	id, err := extractSpreadsheetID(testSheetURL)
	require.NoError(t, err)
	assert.Equal(t, "sheet-123_abc", id)

	_, err = extractSpreadsheetID("https://example.com/not-a-sheet")
	assert.Error(t, err)
}

func TestNewSheetsServiceRequiresCredentials(t *testing.T) {
	_, err := NewSheetsService(context.Background(), testSheetURL, nil)
	assert.ErrorContains(t, err, "GOOGLE_CREDENTIALS")
}

func TestInvoiceToValues(t *testing.T) {
	inv := models.ExampleInvoice(models.LanguageGerman)
	inv.DocumentNumber = "2025-0007"

	row := invoiceToValues(&inv, "01.06.2025 09:30:00")
	require.Len(t, row, len(headers))

	assert.Equal(t, "2025-0007", row[0])
	assert.Equal(t, inv.IssueDate.Format("02.01.2006"), row[1])
	assert.Equal(t, inv.Recipient.Name, row[3])
	assert.InDelta(t, inv.Subtotal().InexactFloat64(), row[4], 0.001)
	assert.InDelta(t, inv.TaxAmount().InexactFloat64(), row[5], 0.001)
	assert.InDelta(t, inv.Total().InexactFloat64(), row[6], 0.001)
	assert.Equal(t, string(models.StatusDraft), row[8])
	assert.Equal(t, "01.06.2025 09:30:00", row[10])
}

func TestExportInvoicesCreatesSheetAndReplacesRows(t *testing.T) {
	api := &fakeSheetsAPI{}
	svc := newTestService(t, api)

	inv := models.ExampleInvoice(models.LanguageEnglish)
	inv.DocumentNumber = "2025-0001"

	n, err := svc.ExportInvoices(context.Background(), []*models.Invoice{&inv}, DefaultWorksheet)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, []string{
		"get_spreadsheet",
		"add_sheet",
		"get_header",
		"update Debitoren!A1:K1",
		"format",
		"clear",
		"update Debitoren!A2",
	}, api.calls)

	require.Len(t, api.header, 1)
	assert.Equal(t, "Rechnungsnr", api.header[0][0])

	rows := api.updates["Debitoren!A2"].Values
	require.Len(t, rows, 1)
	assert.Equal(t, "2025-0001", rows[0][0])
}

func TestExportInvoicesKeepsExistingHeader(t *testing.T) {
	api := &fakeSheetsAPI{
		worksheets: []string{DefaultWorksheet},
		header:     [][]interface{}{headers},
	}
	svc := newTestService(t, api)

	n, err := svc.ExportInvoices(context.Background(), nil, DefaultWorksheet)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, []string{"get_spreadsheet", "get_header", "clear"}, api.calls)
}

func TestReadRange(t *testing.T) {
	api := &fakeSheetsAPI{header: [][]interface{}{{"Datum", "Betrag"}, {"01.06.2025", "1.234,56"}}}
	svc := newTestService(t, api)

	rows, err := svc.ReadRange(context.Background(), "Bank!A:K")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "1.234,56", rows[1][1])
}
