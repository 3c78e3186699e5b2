package models

// ExampleInvoice returns a filled-in payload that callers can use as a
// starting point for a new draft. The German example carries VAT, the English
// one uses the small business exemption.
func ExampleInvoice(lang Language) Invoice {
	if lang == LanguageEnglish {
		return Invoice{
			ID:             "2025-0001",
			Status:         StatusDraft,
			DocumentNumber: "2025-0001",
			IssueDate:      NewDate(2025, 3, 4),
			DueDate:        NewDate(2025, 3, 18),
			DateStyle:      DateStyleISO,
			PaymentStatus:  PaymentOpen,
			Language:       LanguageEnglish,
			Issuer: Party{
				Name:       "Max Mustermann",
				TradeName:  "M.A.D. Solutions",
				Street:     "Main Street 1",
				PostalCode: "10115",
				City:       "Berlin",
				Country:    "Germany",
				Email:      "hello@example.com",
				Phone:      "+49 30 123456",
				TaxID:      "DE123456789",
			},
			Recipient: Party{
				Name:       "ACME Ltd.",
				Street:     "42 Example Road",
				PostalCode: "EC1A 1AA",
				City:       "London",
				Country:    "United Kingdom",
				Email:      "accounts@acme.example",
			},
			LineItems: []LineItem{
				{Description: "Consulting (architecture)", Quantity: 2, Unit: "hours", UnitPrice: 150},
				{Description: "Implementation package", Quantity: 1, Unit: "package", UnitPrice: 800},
			},
			Currency:      DefaultCurrency,
			TaxExempt:     true,
			PaymentTerms:  "Payable within 14 days without deduction.",
			ExemptionNote: defaultExemptionNotes[LanguageEnglish],
			IntroText:     "Thanks for the collaboration!",
			OutroText:     "Please include the invoice number in all payments.",
			Project:       "Sample Project",
		}
	}

	return Invoice{
		ID:             "2025-0001",
		Status:         StatusDraft,
		DocumentNumber: "2025-0001",
		IssueDate:      NewDate(2025, 1, 15),
		DueDate:        NewDate(2025, 1, 29),
		DateStyle:      DateStyleLocale,
		PaymentStatus:  PaymentOpen,
		Language:       LanguageGerman,
		Issuer: Party{
			Name:       "Max Mustermann",
			TradeName:  "M.A.D. Solutions",
			Street:     "Hauptstr. 1",
			PostalCode: "12345",
			City:       "Berlin",
			Country:    DefaultCountry,
			Email:      "info@example.com",
			Phone:      "+49 30 123456",
			TaxID:      "DE123456789",
		},
		Recipient: Party{
			Name:       "ACME GmbH",
			Street:     "Beispielweg 5",
			PostalCode: "54321",
			City:       "Hamburg",
			Country:    DefaultCountry,
		},
		LineItems: []LineItem{
			{Description: "Beratung", Quantity: 2, Unit: "Std.", UnitPrice: 150},
			{Description: "Implementierung", Quantity: 1, Unit: "Paket", UnitPrice: 800},
		},
		Currency:      DefaultCurrency,
		TaxExempt:     false,
		TaxRate:       0.19,
		PaymentTerms:  DefaultPaymentTerms,
		ExemptionNote: defaultExemptionNotes[LanguageGerman],
		IntroText:     "Vielen Dank für die Zusammenarbeit!",
		OutroText:     "Bitte geben Sie die Rechnungsnummer bei Zahlungen an.",
		Project:       "Beispielprojekt",
	}
}
