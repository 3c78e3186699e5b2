package invoice

import (
	"invoicetools/pkg/models"
)

// PrepareCreate turns caller input into a new draft. System-assigned fields
// (id, document number, status) are overwritten, never taken from input.
func PrepareCreate(input models.Invoice, number string) (*models.Invoice, error) {
	input.ID = number
	input.DocumentNumber = number
	input.Status = models.StatusDraft
	return models.NewInvoice(input)
}

// ApplyStatusUpdate returns a copy of current with the new payment status and,
// if status is non-nil, the new lifecycle status. Payment status may change in
// any phase; the lifecycle only moves draft -> final.
func ApplyStatusUpdate(current *models.Invoice, payment models.PaymentStatus, status *models.Status) (*models.Invoice, error) {
	if err := models.ValidatePaymentStatus(payment); err != nil {
		return nil, err
	}

	updated := current.Clone()
	if err := updated.SetPaymentStatus(payment); err != nil {
		return nil, err
	}
	if status == nil {
		return updated, nil
	}

	if current.Status == models.StatusFinal && *status == models.StatusDraft {
		return nil, ErrIllegalTransition
	}
	if err := updated.SetStatus(*status); err != nil {
		return nil, err
	}
	return updated, nil
}

// ApplyDraftEdit validates a full-content edit of the draft current and
// returns the record to persist. Status, document number and payment status
// are carried over from current; an edit may omit them but must not change them.
func ApplyDraftEdit(current *models.Invoice, targetID string, edit models.Invoice) (*models.Invoice, error) {
	if current.Status != models.StatusDraft {
		return nil, ErrImmutableRecord
	}
	if edit.ID != targetID {
		return nil, &ForbiddenFieldChangeError{Field: "id", Expected: targetID, Got: edit.ID}
	}
	if edit.Status != "" && edit.Status != models.StatusDraft {
		return nil, &ForbiddenFieldChangeError{Field: "status", Expected: string(models.StatusDraft), Got: string(edit.Status)}
	}
	if edit.DocumentNumber != "" && edit.DocumentNumber != current.DocumentNumber {
		return nil, &ForbiddenFieldChangeError{Field: "document_number", Expected: current.DocumentNumber, Got: edit.DocumentNumber}
	}
	if edit.PaymentStatus != "" && edit.PaymentStatus != current.PaymentStatus {
		return nil, &ForbiddenFieldChangeError{Field: "payment_status", Expected: string(current.PaymentStatus), Got: string(edit.PaymentStatus)}
	}

	edit.ID = current.ID
	edit.Status = current.Status
	edit.DocumentNumber = current.DocumentNumber
	edit.PaymentStatus = current.PaymentStatus
	return models.NewInvoice(edit)
}

// CheckDelete allows deleting drafts only.
func CheckDelete(current *models.Invoice) error {
	if current.Status != models.StatusDraft {
		return ErrImmutableRecord
	}
	return nil
}
