package util

import (
	"regexp"
	"strings"
)

// CAS registry number: 2-7 digits, 2 digits, 1 check digit.
var casRegexp = regexp.MustCompile(`^(\d{2,7})-(\d{2})-(\d)$`)

// IsValidCAS verifies the CAS registry number format and its check digit.
// The check digit is the weighted digit sum of the body, rightmost digit
// weighted 1, taken modulo 10.
func IsValidCAS(cas string) bool {
	cas = strings.TrimSpace(cas)
	m := casRegexp.FindStringSubmatch(cas)
	if m == nil {
		return false
	}

	body := m[1] + m[2]
	sum := 0
	weight := 1
	for i := len(body) - 1; i >= 0; i-- {
		sum += weight * int(body[i]-'0')
		weight++
	}
	return sum%10 == int(m[3][0]-'0')
}

// IsValidSMILES performs a syntactic well-formedness check on a SMILES string:
// allowed alphabet, balanced branches and brackets, paired ring-bond closures.
// It does not attempt chemical validation; that is the HSP tool's job.
func IsValidSMILES(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}

	depth := 0
	inBracket := false
	ringBonds := make(map[string]int)

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inBracket {
			switch {
			case c == ']':
				inBracket = false
			case c == '[':
				return false
			case isLetter(c) || isDigit(c) ||
				c == '+' || c == '-' || c == '@' || c == ':' || c == '*':
				// atom symbol, isotope, charge, chirality, H count
			default:
				return false
			}
			continue
		}

		switch {
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth < 0 {
				return false
			}
		case c == '[':
			inBracket = true
		case c == ']':
			return false
		case c == '%':
			// two-digit ring bond number
			if i+2 >= len(s) || !isDigit(s[i+1]) || !isDigit(s[i+2]) {
				return false
			}
			ringBonds[s[i+1:i+3]]++
			i += 2
		case isDigit(c):
			ringBonds[string(c)]++
		case isLetter(c):
			// organic subset atom
		case c == '=' || c == '#' || c == '$' || c == '-' || c == '+' ||
			c == '/' || c == '\\' || c == '.' || c == ':' || c == '*' || c == '~':
			// bonds, charges, dot-separated fragments, wildcards
		default:
			return false
		}
	}

	if depth != 0 || inBracket {
		return false
	}
	for _, n := range ringBonds {
		if n%2 != 0 {
			return false
		}
	}
	return true
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
