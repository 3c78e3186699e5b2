package models

import (
	"fmt"
	"unicode/utf8"
)

// Field length limits.
const (
	MaxNameLength       = 256
	MaxPostalCodeLength = 32
	MaxCityLength       = 128
	MaxPhoneLength      = 64
	MaxTaxIDLength      = 64
	MaxDescription      = 512
	MaxUnitLength       = 32
	MaxCurrencyLength   = 8
	MaxLongText         = 2000
	MaxShortText        = 500
)

type lengthRule struct {
	field    string
	value    string
	max      int
	required bool
}

func checkLengths(rules []lengthRule) error {
	for _, r := range rules {
		if r.required && r.value == "" {
			return NewValidationError(r.field, nil, "is required")
		}
		if n := utf8.RuneCountInString(r.value); n > r.max {
			return NewValidationError(r.field, n, fmt.Sprintf("must be at most %d characters", r.max))
		}
	}
	return nil
}

// Validate checks every invariant of the record and returns the first violation.
func (inv *Invoice) Validate() error {
	switch inv.Status {
	case StatusDraft, StatusFinal:
	default:
		return NewValidationError("status", inv.Status, "must be 'draft' or 'final'")
	}
	if err := ValidatePaymentStatus(inv.PaymentStatus); err != nil {
		return err
	}
	switch inv.Language {
	case LanguageGerman, LanguageEnglish:
	default:
		return NewValidationError("language", inv.Language, "must be 'de' or 'en'")
	}
	switch inv.DateStyle {
	case DateStyleISO, DateStyleLocale:
	default:
		return NewValidationError("date_style", inv.DateStyle, "must be 'iso' or 'locale'")
	}

	if err := checkLengths([]lengthRule{
		{"id", inv.ID, MaxNameLength, false},
		{"document_number", inv.DocumentNumber, MaxNameLength, false},
		{"currency", inv.Currency, MaxCurrencyLength, true},
		{"intro_text", inv.IntroText, MaxLongText, false},
		{"outro_text", inv.OutroText, MaxLongText, false},
		{"payment_terms", inv.PaymentTerms, MaxShortText, false},
		{"exemption_note", inv.ExemptionNote, MaxLongText, false},
		{"project", inv.Project, MaxNameLength, false},
		{"footer_bank", inv.FooterBank, MaxShortText, false},
		{"footer_tax", inv.FooterTax, MaxShortText, false},
	}); err != nil {
		return err
	}

	if inv.IssueDate.IsZero() {
		return NewValidationError("issue_date", nil, "is required")
	}
	if inv.DueDate.IsZero() {
		return NewValidationError("due_date", nil, "is required")
	}
	if inv.DueDate.Before(inv.IssueDate) {
		return NewValidationError("due_date", inv.DueDate.String(), "cannot be before issue_date")
	}

	if err := inv.Issuer.validate("issuer"); err != nil {
		return err
	}
	if err := inv.Recipient.validate("recipient"); err != nil {
		return err
	}

	if len(inv.LineItems) == 0 {
		return NewValidationError("line_items", nil, "must contain at least one item")
	}
	for i, item := range inv.LineItems {
		if err := item.validate(fmt.Sprintf("line_items[%d]", i)); err != nil {
			return err
		}
	}

	if inv.TaxRate < 0 || inv.TaxRate > 1 {
		return NewValidationError("tax_rate", inv.TaxRate, "must be between 0 and 1")
	}
	if inv.Subtotal().IsNegative() {
		return NewValidationError("subtotal", inv.Subtotal().StringFixed(2), "cannot be negative")
	}
	return nil
}

// ValidatePaymentStatus rejects unknown payment states.
func ValidatePaymentStatus(status PaymentStatus) error {
	switch status {
	case PaymentOpen, PaymentPaid, PaymentOverdue, PaymentCancelled:
		return nil
	}
	return NewValidationError("payment_status", status, "must be one of open, paid, overdue, cancelled")
}

func (p Party) validate(prefix string) error {
	return checkLengths([]lengthRule{
		{prefix + ".name", p.Name, MaxNameLength, true},
		{prefix + ".trade_name", p.TradeName, MaxNameLength, false},
		{prefix + ".street", p.Street, MaxNameLength, true},
		{prefix + ".postal_code", p.PostalCode, MaxPostalCodeLength, true},
		{prefix + ".city", p.City, MaxCityLength, true},
		{prefix + ".country", p.Country, MaxCityLength, false},
		{prefix + ".email", p.Email, MaxNameLength, false},
		{prefix + ".phone", p.Phone, MaxPhoneLength, false},
		{prefix + ".tax_id", p.TaxID, MaxTaxIDLength, false},
	})
}

func (li LineItem) validate(prefix string) error {
	if err := checkLengths([]lengthRule{
		{prefix + ".description", li.Description, MaxDescription, true},
		{prefix + ".unit", li.Unit, MaxUnitLength, false},
	}); err != nil {
		return err
	}
	if li.Quantity <= 0 {
		return NewValidationError(prefix+".quantity", li.Quantity, "must be greater than 0")
	}
	return nil
}
