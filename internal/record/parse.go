package record

import (
	"regexp"
	"strconv"
	"strings"
)

// Ratio is a count-over-total with an optionally stated percentage, parsed
// from values like "20/100 (25%)", "20/100" or "25%".
type Ratio struct {
	Count      float64
	Total      float64
	Percent    float64
	HasCount   bool
	HasPercent bool
}

var (
	ratioRe   = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*/\s*(\d+(?:\.\d+)?)`)
	percentRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
	numberRe  = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
)

// ParseRatio extracts a ratio and/or stated percentage from a string value.
// ok is false when the string contains neither.
func ParseRatio(s string) (Ratio, bool) {
	var r Ratio
	if m := ratioRe.FindStringSubmatch(s); m != nil {
		r.Count, _ = strconv.ParseFloat(m[1], 64)
		r.Total, _ = strconv.ParseFloat(m[2], 64)
		r.HasCount = true
	}
	if m := percentRe.FindStringSubmatch(s); m != nil {
		r.Percent, _ = strconv.ParseFloat(m[1], 64)
		r.HasPercent = true
	}
	return r, r.HasCount || r.HasPercent
}

// ComputedPercent returns count/total*100, or false when the ratio has no
// usable denominator.
func (r Ratio) ComputedPercent() (float64, bool) {
	if !r.HasCount || r.Total == 0 {
		return 0, false
	}
	return r.Count / r.Total * 100, true
}

// NumericTokens returns every numeric literal in a string, in order.
// Used by the hallucination hunter to compare a stated value against its
// source quote.
func NumericTokens(s string) []string {
	return numberRe.FindAllString(s, -1)
}

// ContainsNumber reports whether text contains the numeric token tok,
// tolerating trailing-zero differences ("20" matches "20.0").
func ContainsNumber(text, tok string) bool {
	want, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return strings.Contains(text, tok)
	}
	for _, cand := range NumericTokens(text) {
		got, err := strconv.ParseFloat(cand, 64)
		if err == nil && got == want {
			return true
		}
	}
	return false
}

// IsPercentLike reports whether a path names a percentage-valued field.
func IsPercentLike(path string) bool {
	lower := strings.ToLower(path)
	return strings.Contains(lower, "percent") ||
		strings.Contains(lower, "rate") ||
		strings.HasSuffix(lower, "pct")
}
