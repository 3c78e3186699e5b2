package invoice

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"invoicetools/internal/storage"
	"invoicetools/pkg/models"
)

func newListService(t *testing.T, index string) *Service {
	t.Helper()
	store := storage.NewFileStore(filepath.Join(t.TempDir(), ".mad_invoice"))
	if index != "" {
		require.NoError(t, os.MkdirAll(store.Root(), 0o755))
		require.NoError(t, os.WriteFile(store.IndexPath(), []byte(index), 0o644))
	}
	return NewService(store, nil, nil, nil, nil, Options{})
}

func intPtr(n int) *int { return &n }

func documentNumbers(items []ListItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.DocumentNumber)
	}
	return out
}

const threeInvoices = `{
  "count": 3,
  "entries": [
    {"id": "2024-0001", "document_number": "2024-0001", "issue_date": "2024-01-10", "due_date": "2024-01-24",
     "recipient": "Alpha GmbH", "currency": "EUR", "total": 100.0, "status": "draft", "payment_status": "open"},
    {"id": "2024-0002", "document_number": "2024-0002", "issue_date": "2024-03-05", "due_date": "2024-03-19",
     "recipient": "Acme Corporation", "currency": "USD", "total": 200.0, "status": "final", "payment_status": "paid"},
    {"id": "2024-0003", "document_number": "2024-0003", "issue_date": "2024-03-05", "due_date": "2024-04-30",
     "recipient": "Zeta Corp", "currency": "EUR", "total": 300.0, "status": "final", "payment_status": "overdue"}
  ]
}`

func TestListDefaultSortAndPagination(t *testing.T) {
	svc := newListService(t, threeInvoices)

	page, err := svc.List(ListQuery{Limit: intPtr(2)})
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-0003", "2024-0002"}, documentNumbers(page.Invoices))
	assert.Equal(t, 3, page.TotalCount)
	assert.Equal(t, 2, page.Limit)
	assert.Equal(t, 0, page.Offset)
	assert.True(t, page.HasMore)
	require.NotNil(t, page.NextOffset)
	assert.Equal(t, 2, *page.NextOffset)
	assert.Equal(t, ListSort{By: SortIssueDate, Direction: DirectionDesc}, page.Sort)

	next, err := svc.List(ListQuery{Limit: intPtr(2), Offset: *page.NextOffset})
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-0001"}, documentNumbers(next.Invoices))
	assert.False(t, next.HasMore)
	assert.Nil(t, next.NextOffset)
}

func TestListFilters(t *testing.T) {
	svc := newListService(t, threeInvoices)

	page, err := svc.List(ListQuery{
		Status:         models.StatusFinal,
		PaymentStatus:  models.PaymentPaid,
		RecipientQuery: "ACME",
	})
	require.NoError(t, err)
	require.Len(t, page.Invoices, 1)
	assert.Equal(t, "Acme Corporation", page.Invoices[0].Recipient)
	assert.Equal(t, "ACME", page.Filters.RecipientQuery)
	assert.Equal(t, models.StatusFinal, page.Filters.Status)
}

func TestListDateRangeIsInclusive(t *testing.T) {
	svc := newListService(t, threeInvoices)

	page, err := svc.List(ListQuery{
		IssueDateFrom: "2024-01-10",
		IssueDateTo:   "2024-03-04",
		Limit:         intPtr(500),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-0001"}, documentNumbers(page.Invoices))
	assert.Equal(t, MaxListLimit, page.Limit)

	page, err = svc.List(ListQuery{IssueDateFrom: "2024-03-05", IssueDateTo: "2024-03-05"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalCount)
}

func TestListSortKeys(t *testing.T) {
	svc := newListService(t, threeInvoices)

	tests := []struct {
		sortBy    string
		direction string
		want      []string
	}{
		{SortRecipient, DirectionAsc, []string{"2024-0002", "2024-0001", "2024-0003"}},
		{SortDueDate, DirectionDesc, []string{"2024-0003", "2024-0002", "2024-0001"}},
		{SortTotal, DirectionAsc, []string{"2024-0001", "2024-0002", "2024-0003"}},
		{SortDocumentNumber, DirectionDesc, []string{"2024-0003", "2024-0002", "2024-0001"}},
		{SortIssueDate, DirectionAsc, []string{"2024-0001", "2024-0002", "2024-0003"}},
		{"bogus", "sideways", []string{"2024-0003", "2024-0002", "2024-0001"}},
	}
	for _, tt := range tests {
		t.Run(tt.sortBy+"_"+tt.direction, func(t *testing.T) {
			page, err := svc.List(ListQuery{SortBy: tt.sortBy, Direction: tt.direction})
			require.NoError(t, err)
			assert.Equal(t, tt.want, documentNumbers(page.Invoices))
		})
	}
}

func TestListCoercesNonNumericTotals(t *testing.T) {
	svc := newListService(t, `{"count": 3, "entries": [
		{"id": "a", "document_number": "2024-0001", "total": 150.0},
		{"id": "b", "document_number": "2024-0002", "total": "bad"},
		{"id": "c", "document_number": "2024-0003", "total": null}
	]}`)

	page, err := svc.List(ListQuery{SortBy: SortTotal, Direction: DirectionDesc})
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-0001", "2024-0003", "2024-0002"}, documentNumbers(page.Invoices))
	assert.JSONEq(t, `"bad"`, string(page.Invoices[2].Total))
}

func TestListRejectsBadInput(t *testing.T) {
	svc := newListService(t, threeInvoices)

	tests := map[string]ListQuery{
		"zero limit":      {Limit: intPtr(0)},
		"negative limit":  {Limit: intPtr(-5)},
		"negative offset": {Offset: -1},
		"malformed date":  {IssueDateFrom: "05.03.2024"},
		"impossible date": {IssueDateTo: "2024-02-30"},
		"unknown status":  {Status: "archived"},
		"unknown payment": {PaymentStatus: "refunded"},
	}
	for name, q := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.List(q)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestListWithoutIndex(t *testing.T) {
	page, err := newListService(t, "").List(ListQuery{})
	require.NoError(t, err)
	assert.Empty(t, page.Invoices)
	assert.Zero(t, page.TotalCount)

	out, err := json.Marshal(page)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"invoices":[]`)
}

func TestListCorruptIndex(t *testing.T) {
	_, err := newListService(t, "{not json").List(ListQuery{})
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestCoerceTotal(t *testing.T) {
	tests := map[string]float64{
		`12.5`:   12.5,
		`"7.25"`: 7.25,
		`"bad"`:  0,
		`null`:   0,
		``:       0,
		`true`:   0,
		`{}`:     0,
	}
	for raw, want := range tests {
		assert.Equal(t, want, coerceTotal(json.RawMessage(raw)), raw)
	}
}
