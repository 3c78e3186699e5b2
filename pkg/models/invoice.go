package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle phase of an invoice.
type Status string

const (
	StatusDraft Status = "draft"
	StatusFinal Status = "final"
)

// PaymentStatus tracks settlement independently of the lifecycle.
type PaymentStatus string

const (
	PaymentOpen      PaymentStatus = "open"
	PaymentPaid      PaymentStatus = "paid"
	PaymentOverdue   PaymentStatus = "overdue"
	PaymentCancelled PaymentStatus = "cancelled"
)

// Language selects labels and number formatting for rendering.
type Language string

const (
	LanguageGerman  Language = "de"
	LanguageEnglish Language = "en"
)

// DateStyle selects how dates are printed on the document.
type DateStyle string

const (
	DateStyleISO    DateStyle = "iso"
	DateStyleLocale DateStyle = "locale"
)

const (
	DefaultCurrency     = "EUR"
	DefaultUnit         = "Std."
	DefaultCountry      = "Deutschland"
	DefaultPaymentTerms = "Zahlbar innerhalb von 14 Tagen ohne Abzug."
)

var defaultDateStyles = map[Language]DateStyle{
	LanguageGerman:  DateStyleLocale,
	LanguageEnglish: DateStyleISO,
}

var defaultExemptionNotes = map[Language]string{
	LanguageGerman:  "Gemäß § 19 UStG wird keine Umsatzsteuer berechnet.",
	LanguageEnglish: "According to section 19 UStG (German VAT law), no VAT is charged.",
}

// Party is either side of an invoice (issuer or recipient).
type Party struct {
	Name       string `json:"name"`
	TradeName  string `json:"trade_name,omitempty"`
	Street     string `json:"street"`
	PostalCode string `json:"postal_code"`
	City       string `json:"city"`
	Country    string `json:"country"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	TaxID      string `json:"tax_id,omitempty"`
}

// LineItem is one billed position. UnitPrice may be negative for discounts.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	UnitPrice   float64 `json:"unit_price"`
}

// Total returns Quantity * UnitPrice.
func (li LineItem) Total() decimal.Decimal {
	return decimal.NewFromFloat(li.Quantity).Mul(decimal.NewFromFloat(li.UnitPrice))
}

// Invoice is the persisted record. Field order defines the on-disk key order.
type Invoice struct {
	// Core identifiers
	ID             string `json:"id"`
	Status         Status `json:"status"`
	DocumentNumber string `json:"document_number"`

	// Dates
	IssueDate Date      `json:"issue_date"`
	DueDate   Date      `json:"due_date"`
	DateStyle DateStyle `json:"date_style"`

	PaymentStatus PaymentStatus `json:"payment_status"`
	Language      Language      `json:"language"`

	// Parties
	Issuer    Party `json:"issuer"`
	Recipient Party `json:"recipient"`

	LineItems []LineItem `json:"line_items"`

	// Tax (TaxExempt is the German §19 UStG small business rule)
	Currency  string  `json:"currency"`
	TaxExempt bool    `json:"tax_exempt"`
	TaxRate   float64 `json:"tax_rate"`

	// Free text
	IntroText     string `json:"intro_text,omitempty"`
	OutroText     string `json:"outro_text,omitempty"`
	PaymentTerms  string `json:"payment_terms"`
	ExemptionNote string `json:"exemption_note,omitempty"`
	Project       string `json:"project,omitempty"`
	FooterBank    string `json:"footer_bank,omitempty"`
	FooterTax     string `json:"footer_tax,omitempty"`
}

// Subtotal is the sum of all line item totals.
func (inv *Invoice) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range inv.LineItems {
		sum = sum.Add(item.Total())
	}
	return sum
}

// TaxAmount is zero for tax-exempt invoices, Subtotal * TaxRate otherwise.
func (inv *Invoice) TaxAmount() decimal.Decimal {
	if inv.TaxExempt {
		return decimal.Zero
	}
	return inv.Subtotal().Mul(decimal.NewFromFloat(inv.TaxRate))
}

// Total is Subtotal + TaxAmount.
func (inv *Invoice) Total() decimal.Decimal {
	return inv.Subtotal().Add(inv.TaxAmount())
}

// ShowsTaxLine reports whether a tax line belongs on the rendered document.
func (inv *Invoice) ShowsTaxLine() bool {
	return !inv.TaxExempt && inv.TaxRate > 0
}

// Normalize trims string fields and fills defaults. It never overrides values
// that were provided.
func (inv *Invoice) Normalize() {
	inv.ID = strings.TrimSpace(inv.ID)
	inv.DocumentNumber = strings.TrimSpace(inv.DocumentNumber)
	inv.Currency = strings.TrimSpace(inv.Currency)
	inv.IntroText = strings.TrimSpace(inv.IntroText)
	inv.OutroText = strings.TrimSpace(inv.OutroText)
	inv.PaymentTerms = strings.TrimSpace(inv.PaymentTerms)
	inv.ExemptionNote = strings.TrimSpace(inv.ExemptionNote)
	inv.Project = strings.TrimSpace(inv.Project)
	inv.FooterBank = strings.TrimSpace(inv.FooterBank)
	inv.FooterTax = strings.TrimSpace(inv.FooterTax)
	inv.DateStyle = DateStyle(strings.ToLower(strings.TrimSpace(string(inv.DateStyle))))

	if inv.Status == "" {
		inv.Status = StatusDraft
	}
	if inv.PaymentStatus == "" {
		inv.PaymentStatus = PaymentOpen
	}
	if inv.Language == "" {
		inv.Language = LanguageGerman
	}
	if inv.Currency == "" {
		inv.Currency = DefaultCurrency
	}
	if inv.PaymentTerms == "" {
		inv.PaymentTerms = DefaultPaymentTerms
	}
	if inv.DateStyle == "" {
		if style, ok := defaultDateStyles[inv.Language]; ok {
			inv.DateStyle = style
		} else {
			inv.DateStyle = DateStyleISO
		}
	}
	if inv.ExemptionNote == "" {
		if note, ok := defaultExemptionNotes[inv.Language]; ok {
			inv.ExemptionNote = note
		} else {
			inv.ExemptionNote = defaultExemptionNotes[LanguageGerman]
		}
	}

	inv.Issuer.normalize()
	inv.Recipient.normalize()
	for i := range inv.LineItems {
		inv.LineItems[i].Description = strings.TrimSpace(inv.LineItems[i].Description)
		inv.LineItems[i].Unit = strings.TrimSpace(inv.LineItems[i].Unit)
		if inv.LineItems[i].Unit == "" {
			inv.LineItems[i].Unit = DefaultUnit
		}
	}
}

func (p *Party) normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.TradeName = strings.TrimSpace(p.TradeName)
	p.Street = strings.TrimSpace(p.Street)
	p.PostalCode = strings.TrimSpace(p.PostalCode)
	p.City = strings.TrimSpace(p.City)
	p.Country = strings.TrimSpace(p.Country)
	p.Email = strings.TrimSpace(p.Email)
	p.Phone = strings.TrimSpace(p.Phone)
	p.TaxID = strings.TrimSpace(p.TaxID)
	if p.Country == "" {
		p.Country = DefaultCountry
	}
}

// NewInvoice normalizes and validates a caller-built invoice.
func NewInvoice(inv Invoice) (*Invoice, error) {
	inv.LineItems = append([]LineItem(nil), inv.LineItems...)
	inv.Normalize()
	if err := inv.Validate(); err != nil {
		return nil, err
	}
	return &inv, nil
}

// Clone returns a deep copy.
func (inv *Invoice) Clone() *Invoice {
	out := *inv
	out.LineItems = append([]LineItem(nil), inv.LineItems...)
	return &out
}

// SetPaymentStatus assigns the payment status after validating it.
func (inv *Invoice) SetPaymentStatus(status PaymentStatus) error {
	return inv.assign(func(c *Invoice) { c.PaymentStatus = status })
}

// SetStatus assigns the lifecycle status after validating it. Transition
// rules are enforced by the caller.
func (inv *Invoice) SetStatus(status Status) error {
	return inv.assign(func(c *Invoice) { c.Status = status })
}

// SetDates assigns issue and due date together.
func (inv *Invoice) SetDates(issue, due Date) error {
	return inv.assign(func(c *Invoice) {
		c.IssueDate = issue
		c.DueDate = due
	})
}

// SetLineItems replaces all line items.
func (inv *Invoice) SetLineItems(items []LineItem) error {
	return inv.assign(func(c *Invoice) {
		c.LineItems = append([]LineItem(nil), items...)
	})
}

// assign applies change to a copy and only commits it when the copy is valid.
func (inv *Invoice) assign(change func(*Invoice)) error {
	candidate := inv.Clone()
	change(candidate)
	if err := candidate.Validate(); err != nil {
		return err
	}
	*inv = *candidate
	return nil
}
