// Package extract pulls the final total and the transaction date out of
// noisy OCR text.
package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxPasses bounds the fixed-point loop in Normalize
const maxPasses = 8

var (
	whitespace  = regexp.MustCompile(`\s+`)
	slashRun    = regexp.MustCompile(`[/\\]{3,}`)
	disallowed  = regexp.MustCompile(`[^\w\s.,:%€$/\\\-()äöåÄÖÅüÜ]`)
	dollar      = regexp.MustCompile(`\$|USD`)
	numericRun  = regexp.MustCompile(`\d[\d.,]*`)
	twoDecimal  = regexp.MustCompile(`^\d+[.,]\d{2}$`)
	percentSign = regexp.MustCompile(`(\d{1,2})\s*%`)
)

// confusions maps single characters OCR commonly reads in place of digits
var confusions = map[rune]rune{
	'O': '0',
	'l': '1',
	'S': '5',
	'I': '1',
}

// vocabulary repairs Finnish receipt words. Patterns match text with
// diacritics folded away, so "YHTEENSA" and "yhteensää" both become "yhteensä".
var vocabulary = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(?i)sisalta+`), "sisältää"},
	{regexp.MustCompile(`(?i)arvonlisa+(?:veroa?)?`), "arvonlisäveroa"},
	{regexp.MustCompile(`(?i)yhteensa+`), "yhteensä"},
}

// Normalize cleans raw OCR text for field extraction. The cleanup chain is
// applied until the text stops changing, so Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	text := raw
	for range maxPasses {
		next := normalizeOnce(text)
		if next == text {
			break
		}
		text = next
	}
	return text
}

func normalizeOnce(text string) string {
	text = collapse(text)
	text = strings.ReplaceAll(text, "|", " ")
	text = slashRun.ReplaceAllString(text, " ")
	text = dropLoneSlashes(text)
	text = disallowed.ReplaceAllString(text, " ")
	text = dropLoneLetters(text)
	text = repairConfusions(text)
	text = repairVocabulary(text)

	text = strings.ReplaceAll(text, "€", " € ")
	text = strings.ReplaceAll(text, "%", " % ")
	text = dollar.ReplaceAllString(text, " $$ ")

	text = padAmounts(text)
	text = percentSign.ReplaceAllString(text, " ${1} % ")

	return collapse(text)
}

func collapse(text string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}

// dropLoneSlashes removes slash and backslash tokens that stand on their own.
// Slashes inside a token, such as date separators, are kept.
func dropLoneSlashes(text string) string {
	fields := strings.Fields(text)
	kept := fields[:0]
	for _, f := range fields {
		if f == "/" || f == `\` {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// isolated reports whether rs[i] has no word characters on either side
func isolated(rs []rune, i int) bool {
	if i > 0 && isWordRune(rs[i-1]) {
		return false
	}
	if i+1 < len(rs) && isWordRune(rs[i+1]) {
		return false
	}
	return true
}

// beforeSymbol reports whether the first non-space rune from rs[i] is a
// currency or percent sign
func beforeSymbol(rs []rune, i int) bool {
	for ; i < len(rs); i++ {
		if unicode.IsSpace(rs[i]) {
			continue
		}
		return rs[i] == '%' || rs[i] == '€' || rs[i] == '$'
	}
	return false
}

// dropLoneLetters removes single ASCII letters standing alone, unless they
// label a following currency or percent sign
func dropLoneLetters(text string) string {
	rs := []rune(text)
	out := make([]rune, len(rs))
	for i, r := range rs {
		if isASCIILetter(r) && isolated(rs, i) && !beforeSymbol(rs, i+1) {
			out[i] = ' '
			continue
		}
		out[i] = r
	}
	return string(out)
}

// repairConfusions swaps lone letters that OCR confuses with digits
func repairConfusions(text string) string {
	rs := []rune(text)
	out := make([]rune, len(rs))
	for i, r := range rs {
		if digit, ok := confusions[r]; ok && isolated(rs, i) {
			out[i] = digit
			continue
		}
		out[i] = r
	}
	return string(out)
}

// foldDiacritics strips combining marks rune by rune. offsets maps each byte
// of the folded string back to the byte in text it came from, with a final
// entry for len(text).
func foldDiacritics(text string) (folded string, offsets []int) {
	strip := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	var b strings.Builder
	offsets = make([]int, 0, len(text)+1)
	for i, r := range text {
		f := r
		if r >= utf8.RuneSelf {
			if s, _, err := transform.String(strip, string(r)); err == nil && utf8.RuneCountInString(s) == 1 {
				f, _ = utf8.DecodeRuneInString(s)
			}
		}
		n, _ := b.WriteRune(f)
		for range n {
			offsets = append(offsets, i)
		}
	}
	offsets = append(offsets, len(text))
	return b.String(), offsets
}

// repairVocabulary rewrites misread Finnish receipt words to their canonical form
func repairVocabulary(text string) string {
	for _, v := range vocabulary {
		folded, offsets := foldDiacritics(text)
		matches := v.pattern.FindAllStringIndex(folded, -1)
		if len(matches) == 0 {
			continue
		}

		var b strings.Builder
		last := 0
		for _, m := range matches {
			start, end := offsets[m[0]], offsets[m[1]]
			b.WriteString(text[last:start])
			b.WriteString(v.replacement)
			last = end
		}
		b.WriteString(text[last:])
		text = b.String()
	}
	return text
}

// padAmounts surrounds two-decimal numeric tokens with spaces. Longer numeric
// runs such as dates are left alone.
func padAmounts(text string) string {
	return numericRun.ReplaceAllStringFunc(text, func(run string) string {
		amount := strings.TrimRight(run, ".,")
		if !twoDecimal.MatchString(amount) {
			return run
		}
		return " " + amount + " " + run[len(amount):]
	})
}
