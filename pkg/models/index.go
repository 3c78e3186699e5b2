package models

// IndexEntry is the summary of one invoice stored in the aggregate index.
type IndexEntry struct {
	ID             string        `json:"id"`
	DocumentNumber string        `json:"document_number"`
	Status         Status        `json:"status"`
	IssueDate      string        `json:"issue_date"`
	DueDate        string        `json:"due_date"`
	Recipient      string        `json:"recipient"`
	Total          float64       `json:"total"`
	Currency       string        `json:"currency"`
	PaymentStatus  PaymentStatus `json:"payment_status"`
	TaxRate        float64       `json:"tax_rate"`
	TaxExempt      bool          `json:"tax_exempt"`
	Language       Language      `json:"language"`
	DateStyle      DateStyle     `json:"date_style"`
}

// Index is the aggregate derived from all invoice files.
type Index struct {
	Count   int          `json:"count"`
	Entries []IndexEntry `json:"entries"`
}

// IndexEntry projects the invoice into its index summary.
func (inv *Invoice) IndexEntry() IndexEntry {
	return IndexEntry{
		ID:             inv.ID,
		DocumentNumber: inv.DocumentNumber,
		Status:         inv.Status,
		IssueDate:      inv.IssueDate.String(),
		DueDate:        inv.DueDate.String(),
		Recipient:      inv.Recipient.Name,
		Total:          inv.Total().InexactFloat64(),
		Currency:       inv.Currency,
		PaymentStatus:  inv.PaymentStatus,
		TaxRate:        inv.TaxRate,
		TaxExempt:      inv.TaxExempt,
		Language:       inv.Language,
		DateStyle:      inv.DateStyle,
	}
}
