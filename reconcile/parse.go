package reconcile

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/foco/nomina/hr"
)

// dateLayouts are tried in order. Day-first slashes match how the sheets are
// filled in by hand.
var dateLayouts = []string{
	hr.DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02/01/2006",
	"2/1/2006",
	"2006/01/02",
	"02-01-2006",
}

// parseDate accepts the text layouts above or an Excel date serial.
func parseDate(s string) (hr.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return hr.Date{}, &hr.ValidationError{Field: "fecha", Message: "is required"}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return hr.DateOf(t), nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return hr.DateOf(t), nil
		}
	}
	return hr.Date{}, &hr.ValidationError{Field: "fecha", Value: s, Message: "is not a date"}
}

// parseAmount parses a non-negative decimal. A single comma is read as the
// decimal separator when no dot is present, unless exactly three digits
// follow it: "1,234" could be a thousands group and is rejected.
func parseAmount(field, s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, &hr.ValidationError{Field: field, Message: "is required"}
	}
	if i := strings.IndexByte(s, ','); i >= 0 && !strings.Contains(s, ".") {
		if frac := s[i+1:]; len(frac) == 3 && !strings.Contains(frac, ",") {
			return decimal.Zero, &hr.ValidationError{Field: field, Value: s, Message: "is ambiguous: use a dot as decimal separator"}
		}
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &hr.ValidationError{Field: field, Value: s, Message: "is not a number"}
	}
	if d.IsNegative() {
		return decimal.Zero, &hr.ValidationError{Field: field, Value: s, Message: "must not be negative"}
	}
	return d, nil
}

// parseFlag is true for TRUE, 1, SI and YES in any case.
func parseFlag(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRUE", "1", "SI", "YES":
		return true
	}
	return false
}
