package receipt

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zombor/receipt-ocr/internal/extract"
)

// Record holds the fields extracted from one receipt. FinalPrice and Date are
// nil when they could not be found.
type Record struct {
	FinalPrice     *decimal.Decimal
	Date           *string
	RawText        string
	NormalizedText string
	ExtractedAt    time.Time
}

// Assemble normalizes raw OCR text and extracts the price and date from it.
// The two fields are looked up independently.
func Assemble(raw string, at time.Time) *Record {
	normalized := extract.Normalize(raw)

	record := &Record{
		RawText:        raw,
		NormalizedText: normalized,
		ExtractedAt:    at,
	}

	if price, ok := extract.Price(normalized); ok {
		record.FinalPrice = &price
	}
	if date, ok := extract.Date(normalized); ok {
		record.Date = &date
	}

	return record
}

// MarshalJSON writes the record with the price as a JSON number
func (r Record) MarshalJSON() ([]byte, error) {
	out := struct {
		FinalPrice  *json.Number `json:"finalPrice"`
		Date        *string      `json:"date"`
		ExtractedAt string       `json:"extractedAt"`
	}{
		Date:        r.Date,
		ExtractedAt: r.ExtractedAt.UTC().Format(time.RFC3339),
	}

	if r.FinalPrice != nil {
		n := json.Number(r.FinalPrice.StringFixed(2))
		out.FinalPrice = &n
	}

	return json.Marshal(out)
}
