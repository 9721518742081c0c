package categorize

import (
	"regexp"
	"strings"

	"spendwise/internal/models"
)

// predicate reports whether a transaction satisfies one declared criterion.
type predicate func(tx *models.Transaction) bool

// criterion extracts one optional match field from a rule. compile returns
// false when the rule does not declare it.
type criterion struct {
	name    string
	compile func(r *models.Rule) (predicate, bool)
}

// criteria is the fixed list every rule is folded over.
var criteria = []criterion{
	{
		name: "match_counterpart_name",
		compile: func(r *models.Rule) (predicate, bool) {
			p, ok := declared(r.MatchCounterpartName)
			if !ok {
				return nil, false
			}
			m := compilePattern(p)
			return func(tx *models.Transaction) bool { return m(tx.CounterpartName) }, true
		},
	},
	{
		name: "match_counterpart_iban",
		compile: func(r *models.Rule) (predicate, bool) {
			p, ok := declared(r.MatchCounterpartIBAN)
			if !ok {
				return nil, false
			}
			want := normalizeIBAN(p)
			return func(tx *models.Transaction) bool {
				return strings.EqualFold(normalizeIBAN(tx.CounterpartIBAN), want)
			}, true
		},
	},
	{
		name: "match_purpose",
		compile: func(r *models.Rule) (predicate, bool) {
			p, ok := declared(r.MatchPurpose)
			if !ok {
				return nil, false
			}
			m := compilePattern(p)
			return func(tx *models.Transaction) bool { return m(tx.Purpose) }, true
		},
	},
	{
		name: "match_booking_type",
		compile: func(r *models.Rule) (predicate, bool) {
			p, ok := declared(r.MatchBookingType)
			if !ok {
				return nil, false
			}
			return func(tx *models.Transaction) bool {
				return strings.EqualFold(strings.TrimSpace(tx.BookingType), p)
			}, true
		},
	},
	{
		name: "match_amount_min",
		compile: func(r *models.Rule) (predicate, bool) {
			if r.MatchAmountMin == nil {
				return nil, false
			}
			lo := *r.MatchAmountMin
			return func(tx *models.Transaction) bool { return tx.Amount.GreaterThanOrEqual(lo) }, true
		},
	},
	{
		name: "match_amount_max",
		compile: func(r *models.Rule) (predicate, bool) {
			if r.MatchAmountMax == nil {
				return nil, false
			}
			hi := *r.MatchAmountMax
			return func(tx *models.Transaction) bool { return tx.Amount.LessThanOrEqual(hi) }, true
		},
	},
}

// declared returns the trimmed criterion text; blank text counts as absent.
func declared(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	v := strings.TrimSpace(*s)
	return v, v != ""
}

func normalizeIBAN(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), " ", "")
}

// CountCriteria returns how many criteria the rule declares.
func CountCriteria(r *models.Rule) int {
	n := 0
	for _, c := range criteria {
		if _, ok := c.compile(r); ok {
			n++
		}
	}
	return n
}

// parseRegex splits a "/expr/flags" pattern. ok is false when the pattern is
// not written in that form.
func parseRegex(pattern string) (expr, flags string, ok bool) {
	if len(pattern) < 2 || pattern[0] != '/' {
		return "", "", false
	}
	last := strings.LastIndex(pattern, "/")
	if last == 0 {
		return "", "", false
	}
	return pattern[1:last], pattern[last+1:], true
}

func buildRegex(expr, flags string) (*regexp.Regexp, error) {
	if strings.Contains(flags, "i") {
		expr = "(?i)" + expr
	}
	return regexp.Compile(expr)
}

var wildcards = strings.NewReplacer("*", "", "%", "")

func stripWildcards(pattern string) string {
	return wildcards.Replace(pattern)
}

// compilePattern turns a text criterion into a matcher. Plain text and
// "*"/"%" wildcards match as a case-insensitive substring; "/expr/flags" is a
// regular expression. A regex that fails to compile degrades to a substring
// match on the raw pattern.
func compilePattern(pattern string) func(string) bool {
	if expr, flags, ok := parseRegex(pattern); ok {
		re, err := buildRegex(expr, flags)
		if err == nil {
			return func(text string) bool { return re.MatchString(strings.TrimSpace(text)) }
		}
	} else {
		pattern = stripWildcards(pattern)
	}

	needle := strings.ToLower(pattern)
	return func(text string) bool {
		return strings.Contains(strings.ToLower(strings.TrimSpace(text)), needle)
	}
}
