package render

import (
	"fmt"
	"strconv"
	"strings"

	"invoicetools/pkg/models"
)

// Slot names in the template appear as %%NAME%%.
const slotDelim = "%%"

// Slots projects every invoice field into the named template slots. All free
// text is escaped.
func Slots(inv *models.Invoice) map[string]string {
	l := labelsFor(inv.Language)

	projectLine := ""
	if inv.Project != "" {
		projectLine = l.Project + ": " + EscapeTeX(inv.Project) + `\\`
	}

	exemptionNote := ""
	if inv.TaxExempt {
		exemptionNote = inv.ExemptionNote
	}

	vatRate, vatAmount, vatLine := "", "", ""
	totalLabel := l.Total
	if inv.ShowsTaxLine() {
		vatRate = strconv.FormatFloat(inv.TaxRate*100, 'f', 1, 64) + `\%`
		vatAmount = FormatCurrency(inv.TaxAmount(), inv.Currency, inv.Language)
		vatLine = fmt.Sprintf(`%s (%s): & %s\\`, l.VAT, vatRate, vatAmount)
		totalLabel = fmt.Sprintf("%s (%s)", l.Total, l.TotalSuffix)
	}

	footerTax := escapeMultiline(inv.FooterTax)
	if footerTax == "" && inv.Issuer.TaxID != "" {
		footerTax = l.TaxID + ": " + EscapeTeX(inv.Issuer.TaxID)
	}
	if footerTax == "" {
		footerTax = escapeMultiline(exemptionNote)
	}

	return map[string]string{
		"SENDER_NAME":          formatPartyName(inv.Issuer),
		"SENDER_BLOCK":         formatPartyBlock(inv.Issuer),
		"SENDER_CONTACT":       formatContact(inv.Issuer, inv.Language),
		"RECIPIENT_BLOCK":      formatPartyBlock(inv.Recipient),
		"INVOICE_NUMBER":       EscapeTeX(inv.DocumentNumber),
		"INVOICE_DATE":         FormatDate(inv.IssueDate, inv.Language, inv.DateStyle),
		"DUE_DATE":             FormatDate(inv.DueDate, inv.Language, inv.DateStyle),
		"PROJECT_LINE":         projectLine,
		"INTRO_TEXT":           escapeMultiline(inv.IntroText),
		"OUTRO_TEXT":           escapeMultiline(inv.OutroText),
		"ITEM_ROWS":            itemRows(inv),
		"SUBTOTAL":             FormatCurrency(inv.Subtotal(), inv.Currency, inv.Language),
		"VAT_RATE":             vatRate,
		"VAT_AMOUNT":           vatAmount,
		"VAT_LABEL":            l.VAT,
		"VAT_LINE":             vatLine,
		"TOTAL_LABEL":          EscapeTeX(totalLabel),
		"TOTAL":                FormatCurrency(inv.Total(), inv.Currency, inv.Language),
		"SMALL_BUSINESS_NOTE":  escapeMultiline(exemptionNote),
		"PAYMENT_TERMS":        escapeMultiline(inv.PaymentTerms),
		"FOOTER_BANK":          escapeMultiline(inv.FooterBank),
		"FOOTER_TAX":           footerTax,
		"LABEL_INVOICE_TITLE":  EscapeTeX(l.Title),
		"LABEL_INVOICE_NUMBER": EscapeTeX(l.Number),
		"LABEL_INVOICE_DATE":   EscapeTeX(l.IssueDate),
		"LABEL_DUE_DATE":       EscapeTeX(l.DueDate),
		"LABEL_SUBTOTAL":       EscapeTeX(l.Subtotal),
	}
}

func itemRows(inv *models.Invoice) string {
	rows := make([]string, 0, len(inv.LineItems))
	for i, item := range inv.LineItems {
		cells := []string{
			strconv.Itoa(i + 1),
			EscapeTeX(item.Description),
			formatQuantity(item),
			FormatCurrency(decimalFromFloat(item.UnitPrice), inv.Currency, inv.Language),
			FormatCurrency(item.Total(), inv.Currency, inv.Language),
		}
		rows = append(rows, strings.Join(cells, " & ")+`\\`)
	}
	return strings.Join(rows, "\n")
}

// Fill substitutes every %%NAME%% slot in source.
func Fill(source string, slots map[string]string) string {
	pairs := make([]string, 0, len(slots)*2)
	for name, value := range slots {
		pairs = append(pairs, slotDelim+name+slotDelim, value)
	}
	return strings.NewReplacer(pairs...).Replace(source)
}
