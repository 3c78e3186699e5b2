// Package reconciliation matches incoming bank payments against open invoices.
package reconciliation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"invoicetools/internal/logger"
)

// DefaultBankSheet holds the bank statement export.
const DefaultBankSheet = "Bank"

// RangeReader reads a block of cells, one slice per row.
type RangeReader interface {
	ReadRange(ctx context.Context, rangeSpec string) ([][]interface{}, error)
}

// DataReader handles reading reconciliation data from Google Sheets
type DataReader struct {
	source RangeReader
	log    zerolog.Logger
}

// NewDataReader creates a new data reader for Google Sheets
func NewDataReader(source RangeReader) *DataReader {
	return &DataReader{
		source: source,
		log:    logger.WithComponent("reconciliation-reader"),
	}
}

// ReadBankTransactions reads bank transactions from sheetName. Rows that
// cannot be parsed are logged and skipped.
func (dr *DataReader) ReadBankTransactions(ctx context.Context, sheetName string) ([]BankTransaction, error) {
	const op = "ReadBankTransactions"

	dr.log.Info().Str("sheet", sheetName).Msg("Reading bank transactions")

	// Expected columns: A=Datum, B=Transaktionstyp, C=Beschreibung, D=EREF, E=MREF,
	// F=CRED, G=SVWZ, H=Empfänger/Absender, I=BIC, J=IBAN, K=Betrag
	values, err := dr.source.ReadRange(ctx, sheetName+"!A:K")
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read %s sheet: %w", op, sheetName, err)
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("%s: %s sheet is empty", op, sheetName)
	}

	var transactions []BankTransaction
	for i, row := range values[1:] {
		rowNum := i + 2 // header plus 1-based rows

		if len(row) < 11 {
			dr.log.Warn().
				Int("row", rowNum).
				Int("columns", len(row)).
				Msg("Skipping bank transaction row with insufficient columns")
			continue
		}

		transaction, err := parseBankTransaction(row, rowNum)
		if err != nil {
			dr.log.Warn().
				Err(err).
				Int("row", rowNum).
				Msg("Failed to parse bank transaction, skipping")
			continue
		}

		transactions = append(transactions, transaction)
	}

	dr.log.Info().
		Int("total_rows", len(values)-1).
		Int("parsed_transactions", len(transactions)).
		Str("sheet", sheetName).
		Msg("Bank transactions read successfully")

	return transactions, nil
}

func parseBankTransaction(row []interface{}, rowNum int) (BankTransaction, error) {
	const op = "parseBankTransaction"

	dateStr := getString(row, 0)
	date, err := parseGermanDate(dateStr)
	if err != nil {
		return BankTransaction{}, fmt.Errorf("%s: invalid date '%s' in row %d: %w", op, dateStr, rowNum, err)
	}

	amountStr := getString(row, 10)
	amount, err := parseGermanAmount(amountStr)
	if err != nil {
		return BankTransaction{}, fmt.Errorf("%s: invalid amount '%s' in row %d: %w", op, amountStr, rowNum, err)
	}

	return BankTransaction{
		Row:          rowNum,
		Date:         date,
		Type:         getString(row, 1),
		Description:  getString(row, 2),
		EREF:         getString(row, 3),
		SVWZ:         getString(row, 6),
		CounterParty: getString(row, 7),
		IBAN:         getString(row, 9),
		Amount:       amount,
	}, nil
}

var germanDateFormats = []string{
	"02.01.2006",
	"2.1.2006",
	"02.01.06",
	"2.1.06",
	"2006-01-02",
}

// parseGermanDate parses German date format (DD.MM.YYYY)
func parseGermanDate(dateStr string) (time.Time, error) {
	cleaned := strings.TrimSpace(dateStr)
	if cleaned == "" {
		return time.Time{}, fmt.Errorf("empty date string")
	}

	for _, format := range germanDateFormats {
		if date, err := time.Parse(format, cleaned); err == nil {
			return date, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}

// parseGermanAmount parses German amount format (comma as decimal, negative with minus).
// "1.234,56" and "1234,56" are both 1234.56.
func parseGermanAmount(amountStr string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(amountStr)
	if cleaned == "" {
		return decimal.Zero, nil
	}

	isNegative := strings.HasPrefix(cleaned, "-")
	cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, "-"))

	for _, noise := range []string{" ", "\u00a0", "€", "EUR", "USD"} {
		cleaned = strings.ReplaceAll(cleaned, noise, "")
	}

	if strings.Contains(cleaned, ",") {
		if strings.Contains(cleaned, ".") {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		} else if parts := strings.Split(cleaned, ","); len(parts) == 2 && len(parts[1]) <= 2 {
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		}
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unable to parse amount: %s (cleaned: %s)", amountStr, cleaned)
	}
	if isNegative {
		amount = amount.Neg()
	}
	return amount, nil
}

// getString safely extracts a string value from a row slice
func getString(row []interface{}, index int) string {
	if index >= len(row) || row[index] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v", row[index]))
}
