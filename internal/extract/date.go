package extract

import "regexp"

// datePatterns in priority order. group is the capture group holding the
// date, or 0 for the whole match.
var datePatterns = []struct {
	pattern *regexp.Regexp
	group   int
}{
	{regexp.MustCompile(`(?i)date\s*:?\s*(\d{4}-\d{1,2}-\d{1,2})`), 1},
	{regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`), 0},
	{regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4}),?\s+(\d{1,2})\.(\d{1,2})`), 0},
	{regexp.MustCompile(`(\d{1,2})\.(\d{1,2})\.(\d{4})\s+(\d{1,2})\.(\d{1,2})\.(\d{1,2})`), 0},
	{regexp.MustCompile(`(\d{1,2})[./](\d{1,2})[./](\d{4})`), 0},
	{regexp.MustCompile(`(\d{1,2})-(\d{1,2})-(\d{4})`), 0},
	// Swedish month names
	{regexp.MustCompile(`(?i)(\d{1,2})\s+(jan|feb|mar|apr|maj|jun|jul|aug|sep|okt|nov|dec)\s+(\d{4})`), 0},
	// Finnish month names
	{regexp.MustCompile(`(?i)(\d{1,2})\s+(tammi|helmi|maalis|huhti|touko|kesä|heinä|elo|syys|loka|marras|joulu)\s+(\d{4})`), 0},
}

// Date returns the transaction date as printed on the receipt. The first
// pattern that matches anywhere in text wins; the date is not reformatted.
func Date(text string) (string, bool) {
	for _, dp := range datePatterns {
		if m := dp.pattern.FindStringSubmatch(text); m != nil {
			return m[dp.group], true
		}
	}
	return "", false
}
