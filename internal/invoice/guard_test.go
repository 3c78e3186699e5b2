package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"invoicetools/pkg/models"
)

func draftInvoice(t *testing.T) *models.Invoice {
	t.Helper()
	inv, err := PrepareCreate(models.ExampleInvoice(models.LanguageGerman), "2025-0001")
	require.NoError(t, err)
	return inv
}

func finalInvoice(t *testing.T) *models.Invoice {
	t.Helper()
	inv := draftInvoice(t)
	require.NoError(t, inv.SetStatus(models.StatusFinal))
	return inv
}

func statusPtr(s models.Status) *models.Status { return &s }

func TestPrepareCreateOverridesSystemFields(t *testing.T) {
	input := models.ExampleInvoice(models.LanguageGerman)
	input.ID = "chosen-by-caller"
	input.DocumentNumber = "9999-9999"
	input.Status = models.StatusFinal
	input.PaymentStatus = models.PaymentPaid

	inv, err := PrepareCreate(input, "2025-0042")
	require.NoError(t, err)
	assert.Equal(t, "2025-0042", inv.ID)
	assert.Equal(t, "2025-0042", inv.DocumentNumber)
	assert.Equal(t, models.StatusDraft, inv.Status)
	assert.Equal(t, models.PaymentPaid, inv.PaymentStatus)
}

func TestPrepareCreateRejectsInvalidInput(t *testing.T) {
	input := models.ExampleInvoice(models.LanguageGerman)
	input.LineItems = nil

	_, err := PrepareCreate(input, "2025-0001")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestApplyStatusUpdate(t *testing.T) {
	tests := []struct {
		name    string
		current func(*testing.T) *models.Invoice
		payment models.PaymentStatus
		status  *models.Status
		wantErr error
		want    models.Status
	}{
		{"payment only on draft", draftInvoice, models.PaymentPaid, nil, nil, models.StatusDraft},
		{"finalize draft", draftInvoice, models.PaymentOpen, statusPtr(models.StatusFinal), nil, models.StatusFinal},
		{"draft to draft", draftInvoice, models.PaymentOpen, statusPtr(models.StatusDraft), nil, models.StatusDraft},
		{"final to final", finalInvoice, models.PaymentOverdue, statusPtr(models.StatusFinal), nil, models.StatusFinal},
		{"payment on final", finalInvoice, models.PaymentCancelled, nil, nil, models.StatusFinal},
		{"final back to draft", finalInvoice, models.PaymentOpen, statusPtr(models.StatusDraft), ErrIllegalTransition, ""},
		{"unknown payment status", draftInvoice, "refunded", nil, models.ErrValidation, ""},
		{"unknown status", draftInvoice, models.PaymentOpen, statusPtr("archived"), models.ErrValidation, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current := tt.current(t)
			before := current.Clone()

			updated, err := ApplyStatusUpdate(current, tt.payment, tt.status)
			assert.Equal(t, before, current, "current must not be modified")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, updated)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, updated.Status)
			assert.Equal(t, tt.payment, updated.PaymentStatus)
		})
	}
}

func TestApplyDraftEdit(t *testing.T) {
	t.Run("content change is accepted", func(t *testing.T) {
		current := draftInvoice(t)
		edit := *current.Clone()
		edit.IntroText = "Neuer Einleitungstext"
		edit.LineItems[0].Quantity = 3

		updated, err := ApplyDraftEdit(current, current.ID, edit)
		require.NoError(t, err)
		assert.Equal(t, "Neuer Einleitungstext", updated.IntroText)
		assert.Equal(t, "1250.00", updated.Subtotal().StringFixed(2))
	})

	t.Run("omitted system fields are carried over", func(t *testing.T) {
		current := draftInvoice(t)
		require.NoError(t, current.SetPaymentStatus(models.PaymentOverdue))
		edit := *current.Clone()
		edit.Status = ""
		edit.DocumentNumber = ""
		edit.PaymentStatus = ""

		updated, err := ApplyDraftEdit(current, current.ID, edit)
		require.NoError(t, err)
		assert.Equal(t, models.StatusDraft, updated.Status)
		assert.Equal(t, current.DocumentNumber, updated.DocumentNumber)
		assert.Equal(t, models.PaymentOverdue, updated.PaymentStatus)
	})

	t.Run("final record is immutable", func(t *testing.T) {
		current := finalInvoice(t)
		_, err := ApplyDraftEdit(current, current.ID, *current.Clone())
		assert.ErrorIs(t, err, ErrImmutableRecord)
	})

	forbidden := []struct {
		field  string
		mutate func(*models.Invoice)
	}{
		{"id", func(inv *models.Invoice) { inv.ID = "2025-0002" }},
		{"status", func(inv *models.Invoice) { inv.Status = models.StatusFinal }},
		{"document_number", func(inv *models.Invoice) { inv.DocumentNumber = "2025-0099" }},
		{"payment_status", func(inv *models.Invoice) { inv.PaymentStatus = models.PaymentPaid }},
	}
	for _, tt := range forbidden {
		t.Run("changing "+tt.field, func(t *testing.T) {
			current := draftInvoice(t)
			edit := *current.Clone()
			tt.mutate(&edit)

			_, err := ApplyDraftEdit(current, current.ID, edit)
			require.ErrorIs(t, err, ErrForbiddenFieldChange)

			var fieldErr *ForbiddenFieldChangeError
			require.ErrorAs(t, err, &fieldErr)
			assert.Equal(t, tt.field, fieldErr.Field)
		})
	}

	t.Run("invalid content is rejected", func(t *testing.T) {
		current := draftInvoice(t)
		edit := *current.Clone()
		edit.TaxRate = 1.5

		_, err := ApplyDraftEdit(current, current.ID, edit)
		assert.ErrorIs(t, err, models.ErrValidation)
	})
}

func TestCheckDelete(t *testing.T) {
	assert.NoError(t, CheckDelete(draftInvoice(t)))
	assert.ErrorIs(t, CheckDelete(finalInvoice(t)), ErrImmutableRecord)
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{wrapOp("get", "x", ErrNotFound), KindNotFound},
		{&ForbiddenFieldChangeError{Field: "id"}, KindForbiddenFieldChange},
		{models.NewValidationError("tax_rate", 2, "bad"), KindValidation},
		{ErrWritesDisabled, KindWritesDisabled},
		{assert.AnError, KindInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Kind(tt.err))
	}
}
