package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// pricePatterns are tried in order against the whole text. Every match is a
// candidate; the context weight decides which one wins, and earlier patterns
// win exact ties.
var pricePatterns = []*regexp.Regexp{
	// separators mangled by OCR, "2,95 1.00 kr" for 2951.00
	regexp.MustCompile(`(?i)(\d{1,2}),(\d{2,3})\s+(\d{1,2})\.(\d{2})\s*(?:kr|€|eur|tt)`),

	// thousands split by spaces, "2 951 00 kr"
	regexp.MustCompile(`(?i)(\d+)\s+(\d{3})\s+(\d{2})\s*(?:kr|€|eur)`),
	regexp.MustCompile(`(?i)(\d+)\s*[.,]?\s*(\d{3})\s*[.,]?\s*(\d{2})\s*(?:kr|€|eur)`),

	// Swedish "totalt att betala", including misread "total"
	regexp.MustCompile(`(?i)(?:total?[a-z]*\s+att\s+betala|att\s+betala)[^\d]*(\d+[.,]\d{2})`),
	regexp.MustCompile(`(?i)(?:total?[a-z]*\s+att\s+betala)[^\d]*(\d{1,}\s*[.,]\s*\d{3}[.,]\d{2})`),

	regexp.MustCompile(`(?i)yhteensä\s*:?\s*(\d+[.,]\d{2})`),
	regexp.MustCompile(`(?i)(?:summa|total|yhteensä|att\s+betala|to\s+pay|slutsumma)\s*:?\s*(\d+[.,]\d{2})`),
	regexp.MustCompile(`(?i)(?:total|summa)\s+(\d+[.,]\d{2})`),

	regexp.MustCompile(`(?i)(\d{1,}\s*[.,]\s*\d{3}[.,]\d{2})\s*kr`),
	regexp.MustCompile(`(?i)(\d+[.,]\d{2})\s*(?:kr|€|eur|euro)`),

	// card payments usually carry the total
	regexp.MustCompile(`(?i)(?:card|kort|kortti|credit|debit)\s+(\d+[.,]\d{2})`),
	regexp.MustCompile(`(?i)(\d+[.,]\d{2})\s+(?:card|kort|kortti|credit|debit)`),

	regexp.MustCompile(`(?i)(?:cash|kontant|käteinen)\s+(\d+[.,]\d{2})`),
	regexp.MustCompile(`(?i)(\d+[.,]\d{2})\s+(?:cash|kontant|käteinen)`),

	regexp.MustCompile(`(?i)(?:maksukortti|maksutapa)\s*:?\s*(\d+[.,]\d{2})`),

	// amounts closing a line or the text
	regexp.MustCompile(`(?im)(\d+[.,]\d{2})\s*€?\s*$|(\d+[.,]\d{2})\s*eur\s*$`),
	regexp.MustCompile(`(?im)(?:^|\n)\s*(\d+[.,]\d{2})\s*(?:€|eur|$|\n)`),
}

var amountToken = regexp.MustCompile(`\d+[.,]\d{2}`)

// contextWeights rank a match by the words around the amount. The first
// group with a keyword present in the match decides the weight.
var contextWeights = []struct {
	weight   int64
	keywords []string
}{
	{10, []string{"total", "summa", "yhteensä", "betala"}},
	{8, []string{"card", "kort", "credit", "debit"}},
	{6, []string{"cash", "kontant", "käteinen"}},
	{4, []string{"€", "kr", "eur", "$"}},
}

// Price returns the most likely final total in text. It returns false when no
// amount can be found.
func Price(text string) (decimal.Decimal, bool) {
	best, bestWeighted := decimal.Zero, decimal.Zero
	found := false

	for _, pattern := range pricePatterns {
		for _, m := range pattern.FindAllStringSubmatchIndex(text, -1) {
			raw, ok := reconstruct(text, m)
			if !ok {
				continue
			}
			amount, err := parseAmount(raw)
			if err != nil {
				continue
			}

			weighted := amount.Mul(decimal.NewFromInt(weight(text[m[0]:m[1]])))
			if weighted.GreaterThan(bestWeighted) {
				best, bestWeighted = amount, weighted
				found = true
			}
		}
	}

	if found {
		return best, true
	}
	return fallbackPrice(text)
}

// reconstruct joins the capture groups of a match into one amount string.
// Four groups are an amount split twice by OCR and three groups a thousands
// amount split by spaces; otherwise the first group that took part is used.
func reconstruct(text string, m []int) (string, bool) {
	var groups []string
	for g := 1; 2*g+1 < len(m); g++ {
		start, end := m[2*g], m[2*g+1]
		if start < 0 || start == end {
			continue
		}
		groups = append(groups, text[start:end])
	}

	switch {
	case len(groups) >= 4:
		return groups[0] + groups[1] + groups[2] + "." + groups[3], true
	case len(groups) == 3:
		return groups[0] + groups[1] + "." + groups[2], true
	case len(groups) > 0:
		return groups[0], true
	default:
		return "", false
	}
}

// parseAmount reads an amount whose last separator is the decimal point.
// Other separators and spaces are grouping and are dropped.
func parseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.Join(strings.Fields(raw), "")
	cut := strings.LastIndexAny(raw, ".,")

	whole, frac := raw, ""
	if cut >= 0 {
		whole, frac = raw[:cut], raw[cut+1:]
	}
	whole = strings.NewReplacer(".", "", ",", "").Replace(whole)
	if frac != "" {
		whole += "." + frac
	}

	amount, err := decimal.NewFromString(whole)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Round(2), nil
}

func weight(match string) int64 {
	lower := strings.ToLower(match)
	for _, cw := range contextWeights {
		for _, kw := range cw.keywords {
			if strings.Contains(lower, kw) {
				return cw.weight
			}
		}
	}
	return 1
}

// fallbackPrice picks among all plain two-decimal amounts, favoring those
// printed later since totals come after line items
func fallbackPrice(text string) (decimal.Decimal, bool) {
	length := utf8.RuneCountInString(text)
	if length == 0 {
		return decimal.Zero, false
	}

	best, bestWeighted := decimal.Zero, decimal.Zero
	found := false
	for _, m := range amountToken.FindAllStringIndex(text, -1) {
		amount, err := parseAmount(text[m[0]:m[1]])
		if err != nil {
			continue
		}

		pos := utf8.RuneCountInString(text[:m[0]])
		bias := decimal.NewFromInt(1).Add(decimal.NewFromInt(int64(pos)).Div(decimal.NewFromInt(int64(length))))
		weighted := amount.Mul(bias)
		if weighted.GreaterThan(bestWeighted) {
			best, bestWeighted = amount, weighted
			found = true
		}
	}
	return best, found
}
