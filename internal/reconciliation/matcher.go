package reconciliation

import (
	"strings"

	"invoicetools/pkg/models"
)

// MatchPayments pairs incoming transactions with final invoices that are
// still open or overdue. A transaction settles an invoice when its reference
// text names the document number and the amount equals the invoice total in
// cents. Each invoice and each transaction is used at most once; transactions
// are consumed in sheet order.
func MatchPayments(invoices []*models.Invoice, transactions []BankTransaction) []Match {
	open := make([]*models.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if isOutstanding(inv) {
			open = append(open, inv)
		}
	}

	settled := make(map[string]bool, len(open))
	var matches []Match
	for _, tx := range transactions {
		if !tx.IsIncoming() {
			continue
		}
		ref := tx.reference()
		for _, inv := range open {
			if settled[inv.ID] {
				continue
			}
			if !tx.Amount.Round(2).Equal(inv.Total().Round(2)) || !mentions(ref, inv.DocumentNumber) {
				continue
			}
			settled[inv.ID] = true
			matches = append(matches, Match{
				InvoiceID:      inv.ID,
				DocumentNumber: inv.DocumentNumber,
				Amount:         tx.Amount,
				PaidOn:         tx.Date.Format(models.DateLayout),
				CounterParty:   tx.CounterParty,
				Row:            tx.Row,
			})
			break
		}
	}
	return matches
}

func isOutstanding(inv *models.Invoice) bool {
	if inv.Status != models.StatusFinal || inv.DocumentNumber == "" {
		return false
	}
	return inv.PaymentStatus == models.PaymentOpen || inv.PaymentStatus == models.PaymentOverdue
}

// mentions reports whether number occurs in text and is not part of a longer
// number, so "2025-0001" does not match "2025-00012".
func mentions(text, number string) bool {
	for start := 0; ; {
		i := strings.Index(text[start:], number)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(number)
		if !isDigitAt(text, i-1) && !isDigitAt(text, end) {
			return true
		}
		start = i + 1
	}
}

func isDigitAt(s string, i int) bool {
	return i >= 0 && i < len(s) && s[i] >= '0' && s[i] <= '9'
}
