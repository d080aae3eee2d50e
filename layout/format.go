// Package layout turns slices of form data into document elements.
//
// Formatting helpers map form values to the strings printed in the report;
// block builders assemble those strings into doctpl elements. Both are pure:
// the same input always produces the same output and nothing is drawn.
package layout

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/lvillar/medreport/form"
)

// Placeholder is printed in place of an empty value.
const Placeholder = "-"

// AsText returns s, or the placeholder when s is blank.
func AsText(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}

// NumberText returns n as plain decimal text, or the placeholder when empty.
func NumberText(n form.Number) string {
	return AsText(n.String())
}

// Money returns "<amount> <currency>", or the placeholder when n is empty.
func Money(n form.Number, currency string) string {
	if n.IsEmpty() {
		return Placeholder
	}
	return Amount(n.Decimal, currency)
}

// Amount formats a computed sum. A blank currency leaves the bare amount.
func Amount(d decimal.Decimal, currency string) string {
	if currency == "" {
		return d.String()
	}
	return d.String() + " " + currency
}

// LineTotalText returns the formatted price × quantity of e, or the
// placeholder when either operand is empty.
func LineTotalText(e form.ServiceEntry, currency string) string {
	total, ok := e.LineTotal()
	if !ok {
		return Placeholder
	}
	return Amount(total, currency)
}

// Label maps code through table. Unmapped codes are returned unchanged and
// blank codes become the placeholder.
func Label(table form.LookupTable, code string) string {
	return AsText(table.Label(code))
}

// CurrencyLabel returns the display name of a currency code.
func CurrencyLabel(code string) string { return Label(form.Currencies, code) }

// LanguageLabel returns the display name of a language code.
func LanguageLabel(code string) string { return Label(form.Languages, code) }

// HealthConditionLabel returns the display name of a health condition code.
func HealthConditionLabel(code string) string { return Label(form.HealthConditions, code) }

// ServiceLabel returns the display name of a service code.
func ServiceLabel(code string) string { return Label(form.Services, code) }
