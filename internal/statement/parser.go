package statement

import (
	"bufio"
	"io"
	"iter"
	"regexp"
	"strings"
	"time"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// DefaultDescription is used when nothing precedes the amount on a line.
const DefaultDescription = "Unknown transaction"

const maxLineSize = 1024 * 1024

const datePattern = `(?:\d{2}/\d{2}/\d{4}|\d{1,2}\s+[A-Za-z]{3,9}\.?,?\s+\d{4})`

var (
	numericDateRe = regexp.MustCompile(`\b(\d{2})/(\d{2})/(\d{4})\b`)
	namedDateRe   = regexp.MustCompile(`\b(\d{1,2})\s+([A-Za-z]{3,9})\.?,?\s+(\d{4})\b`)
	periodRe      = regexp.MustCompile(datePattern + `\s*[-–]\s*` + datePattern)
)

// groupSpace is a thousands separator in Swiss and French notation: a plain,
// no-break or narrow no-break space. Tabs are column breaks, never grouping.
const groupSpace = `[ \x{00A0}\x{202F}]`

// amountPatterns in priority order. findAmount picks the leftmost match
// across all of them; on equal starts the longer match, then the earlier
// pattern, wins.
var amountPatterns = []*regexp.Regexp{
	// EUR: 1.234,56 or 1,234.56
	regexp.MustCompile(`[-+]?\d{1,3}(?:[.,]\d{3})*[.,]\d{2}`),
	// CHF: 1'234.56 or 1 234.56
	regexp.MustCompile(`[-+]?\d{1,3}(?:(?:'|` + groupSpace + `)\d{3})*\.\d{2}`),
	// USD: 1,234.56
	regexp.MustCompile(`[-+]?\d{1,3}(?:,\d{3})*\.\d{2}`),
	// FR: 1 234,56
	regexp.MustCompile(`[-+]?\d{1,3}(?:` + groupSpace + `\d{3})*,\d{2}`),
	// Ungrouped: 1234.56 or 12345,67
	regexp.MustCompile(`[-+]?\d+[.,]\d{2}`),
}

// Candidate is a parsed, uncategorized and uncommitted transaction guess.
type Candidate struct {
	Amount      decimal.Decimal
	Type        domain.TransactionType
	Description string
	Date        time.Time
	UserID      string
	AccountID   string
	Line        int
}

// Scanner walks statement text line by line and yields candidates. Like
// bufio.Scanner it consumes its reader and can be ranged over only once.
type Scanner struct {
	r         io.Reader
	userID    string
	accountID string
	used      bool
	err       error
}

// NewScanner returns a Scanner reading statement text from r.
func NewScanner(r io.Reader, userID, accountID string) *Scanner {
	return &Scanner{r: r, userID: userID, accountID: accountID}
}

// Parse is shorthand for NewScanner(r, userID, accountID).Candidates().
func Parse(r io.Reader, userID, accountID string) iter.Seq[Candidate] {
	return NewScanner(r, userID, accountID).Candidates()
}

// Err returns the first read error hit while scanning, if any.
func (s *Scanner) Err() error { return s.err }

// Candidates returns the single-use candidate sequence. A second range over
// it, or over another sequence from the same Scanner, yields nothing.
func (s *Scanner) Candidates() iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		if s.used {
			return
		}
		s.used = true

		sc := bufio.NewScanner(s.r)
		sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

		var currentDate time.Time
		lineNo := 0
		for sc.Scan() {
			lineNo++
			line := sc.Text()
			if strings.TrimSpace(line) == "" || periodRe.MatchString(line) {
				continue
			}

			rest := line
			if d, start, end, ok := findDate(line); ok {
				currentDate = d
				rest = line[:start] + line[end:]
			}

			token, idx, ok := findAmount(rest)
			if !ok || currentDate.IsZero() {
				continue
			}
			value, ok := ParseAmount(token)
			if !ok {
				continue
			}

			desc := strings.TrimSpace(rest[:idx])
			if desc == "" {
				desc = DefaultDescription
			}
			typ := domain.TransactionTypeIncome
			if value.IsNegative() {
				typ = domain.TransactionTypeExpense
			}

			c := Candidate{
				Amount:      value.Abs(),
				Type:        typ,
				Description: desc,
				Date:        currentDate,
				UserID:      s.userID,
				AccountID:   s.accountID,
				Line:        lineNo,
			}
			if !yield(c) {
				return
			}
		}
		s.err = sc.Err()
	}
}

// findDate returns the first recognizable date on the line and the byte
// range of its token.
func findDate(line string) (time.Time, int, int, bool) {
	if m := numericDateRe.FindStringSubmatchIndex(line); m != nil {
		if t, err := time.Parse("02/01/2006", line[m[0]:m[1]]); err == nil {
			return t, m[0], m[1], true
		}
	}
	if m := namedDateRe.FindStringSubmatchIndex(line); m != nil {
		day := line[m[2]:m[3]]
		month := line[m[4]:m[5]]
		year := line[m[6]:m[7]]
		if len(month) >= 3 {
			month = strings.ToUpper(month[:1]) + strings.ToLower(month[1:3])
			if t, err := time.Parse("2 Jan 2006", day+" "+month+" "+year); err == nil {
				return t, m[0], m[1], true
			}
		}
	}
	return time.Time{}, 0, 0, false
}

// findAmount returns the amount token on the line and its byte offset.
// Matches glued to a preceding digit or separator are the tail of a larger
// number and are skipped, so "-1 234.56" yields the whole CHF token rather
// than the EUR-shaped "234.56".
func findAmount(line string) (string, int, bool) {
	var best []int
	for _, re := range amountPatterns {
		for _, loc := range re.FindAllStringIndex(line, -1) {
			if loc[0] > 0 && strings.ContainsRune("0123456789.,'", rune(line[loc[0]-1])) {
				continue
			}
			if best == nil || loc[0] < best[0] || (loc[0] == best[0] && loc[1] > best[1]) {
				best = loc
			}
			break
		}
	}
	if best == nil {
		return "", 0, false
	}
	return line[best[0]:best[1]], best[0], true
}
