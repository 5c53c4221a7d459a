package statement

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a monetary token written in US, European, Swiss or
// French notation into a decimal without any locale hint.
//
// Separator rules, applied in this order:
//   - both ',' and '.' present: whichever comes last is the decimal point
//   - only ',' present: a single comma followed by exactly two digits is the
//     decimal point; otherwise commas are thousands separators
//   - otherwise the cleaned token is parsed as is
func ParseAmount(token string) (decimal.Decimal, bool) {
	cleaned := cleanAmount(token)

	hasComma := strings.Contains(cleaned, ",")
	hasDot := strings.Contains(cleaned, ".")

	switch {
	case hasComma && hasDot:
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case hasComma:
		parts := strings.Split(cleaned, ",")
		if len(parts) == 2 && len(parts[1]) == 2 {
			cleaned = parts[0] + "." + parts[1]
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	}

	cleaned = strings.TrimPrefix(cleaned, "+")
	if cleaned == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// cleanAmount keeps digits, signs and the two separator characters. The
// Swiss apostrophe and every kind of space are dropped.
func cleanAmount(token string) string {
	var b strings.Builder
	b.Grow(len(token))
	for _, r := range token {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-', r == '+':
			b.WriteRune(r)
		}
	}
	return b.String()
}
