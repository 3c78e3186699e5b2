package render

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"invoicetools/pkg/models"
)

type labelSet struct {
	Title, Number, IssueDate, DueDate, Subtotal, Total string
	VAT, TotalSuffix, Project                          string
	Email, Phone, TaxID                                string
}

var labels = map[models.Language]labelSet{
	models.LanguageGerman: {
		Title:       "Rechnung",
		Number:      "Rechnungsnummer",
		IssueDate:   "Rechnungsdatum",
		DueDate:     "Fällig bis",
		Subtotal:    "Zwischensumme",
		Total:       "Gesamtbetrag",
		VAT:         "USt",
		TotalSuffix: "inkl. USt.",
		Project:     "Projekt",
		Email:       "E-Mail",
		Phone:       "Tel",
		TaxID:       "Steuernummer",
	},
	models.LanguageEnglish: {
		Title:       "Invoice",
		Number:      "Invoice No.",
		IssueDate:   "Invoice date",
		DueDate:     "Due date",
		Subtotal:    "Subtotal",
		Total:       "Total",
		VAT:         "VAT",
		TotalSuffix: "incl. VAT",
		Project:     "Project",
		Email:       "Email",
		Phone:       "Phone",
		TaxID:       "Tax ID",
	},
}

func labelsFor(lang models.Language) labelSet {
	if l, ok := labels[lang]; ok {
		return l
	}
	return labels[models.LanguageGerman]
}

// FormatDate prints d in the requested style. Locale style follows the
// document language.
func FormatDate(d models.Date, lang models.Language, style models.DateStyle) string {
	if style != models.DateStyleLocale {
		return d.Format(models.DateLayout)
	}
	if lang == models.LanguageEnglish {
		return d.Format("January 02, 2006")
	}
	return d.Format("02.01.2006")
}

// FormatCurrency prints value with two decimals, a language-dependent
// decimal separator and the currency code.
func FormatCurrency(value decimal.Decimal, currency string, lang models.Language) string {
	formatted := value.StringFixed(2)
	if lang != models.LanguageEnglish {
		formatted = strings.Replace(formatted, ".", ",", 1)
	}
	return formatted + " " + currency
}

func decimalFromFloat(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func formatQuantity(item models.LineItem) string {
	qty := strconv.FormatFloat(item.Quantity, 'g', -1, 64)
	return strings.TrimSpace(qty + " " + EscapeTeX(item.Unit))
}

func formatPartyName(p models.Party) string {
	lines := []string{EscapeTeX(p.Name)}
	if p.TradeName != "" {
		lines = append(lines, EscapeTeX(p.TradeName))
	}
	return strings.Join(lines, `\\ `)
}

func formatPartyBlock(p models.Party) string {
	lines := []string{
		formatPartyName(p),
		EscapeTeX(p.Street),
		EscapeTeX(strings.TrimSpace(p.PostalCode + " " + p.City)),
		EscapeTeX(p.Country),
	}
	return joinNonEmpty(lines)
}

func formatContact(p models.Party, lang models.Language) string {
	l := labelsFor(lang)
	var parts []string
	if p.Email != "" {
		parts = append(parts, l.Email+": "+EscapeTeX(p.Email))
	}
	if p.Phone != "" {
		parts = append(parts, l.Phone+": "+EscapeTeX(p.Phone))
	}
	if p.TaxID != "" {
		parts = append(parts, l.TaxID+": "+EscapeTeX(p.TaxID))
	}
	return joinNonEmpty(parts)
}

func joinNonEmpty(lines []string) string {
	out := lines[:0:0]
	for _, line := range lines {
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, `\\ `)
}
