package reconciliation

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankTransaction represents a bank transaction from the Bank sheet
type BankTransaction struct {
	Row          int             // sheet row, 1-based
	Date         time.Time       // Datum - column A
	Type         string          // Transaktionstyp - column B
	Description  string          // Beschreibung - column C
	EREF         string          // End-to-End Reference - column D
	SVWZ         string          // Verwendungszweck - column G
	CounterParty string          // Empfänger/Absender - column H
	IBAN         string          // International Bank Account Number - column J
	Amount       decimal.Decimal // Betrag (negative for outgoing) - column K
}

// IsIncoming returns true if this is an incoming transaction (positive amount)
func (bt *BankTransaction) IsIncoming() bool {
	return bt.Amount.IsPositive()
}

// reference is the text searched for document numbers.
func (bt *BankTransaction) reference() string {
	return bt.SVWZ + " " + bt.EREF + " " + bt.Description
}

// Match pairs an open invoice with the payment that settles it.
type Match struct {
	InvoiceID      string          `json:"invoice_id"`
	DocumentNumber string          `json:"document_number"`
	Amount         decimal.Decimal `json:"amount"`
	PaidOn         string          `json:"paid_on"`
	CounterParty   string          `json:"counterparty"`
	Row            int             `json:"bank_row"`
}
