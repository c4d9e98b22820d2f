package scanning

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// indicators mark text that looks like a receipt: prices, dates, totals,
	// VAT, currency and percentages
	indicators = []*regexp.Regexp{
		regexp.MustCompile(`\d{1,2}[.,]\d{2}`),
		regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}`),
		regexp.MustCompile(`(?i)total|summa|yhteensä`),
		regexp.MustCompile(`(?i)vat|alv|moms`),
		regexp.MustCompile(`(?i)€|eur`),
		regexp.MustCompile(`\d{1,2}\s*%`),
	}

	noiseSymbol = regexp.MustCompile(`[/\\]{3,}|[^a-zA-Z0-9åäöÅÄÖüÜ\s.,:%€$/()\-]`)
)

// Score rates how much text looks like a legible receipt. Higher is better and
// the result is never negative.
func Score(text string) int {
	score := 0

	for _, indicator := range indicators {
		score += 10 * len(indicator.FindAllStringIndex(text, -1))
	}
	score -= 2 * len(noiseSymbol.FindAllStringIndex(text, -1))

	for _, word := range strings.Fields(text) {
		if utf8.RuneCountInString(word) > 2 {
			score++
		}
	}

	return max(score, 0)
}
