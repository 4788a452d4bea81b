package registration

import (
	"strings"
)

const cpfDigits = 11

// DigitsOnly strips every non-digit from s.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatCPF applies the 000.000.000-00 mask to the digits of s as far as
// they go, so it can be used while the number is still being typed.
// Digits past the eleventh are dropped.
func FormatCPF(s string) string {
	d := DigitsOnly(s)
	if len(d) > cpfDigits {
		d = d[:cpfDigits]
	}
	switch {
	case len(d) <= 3:
		return d
	case len(d) <= 6:
		return d[:3] + "." + d[3:]
	case len(d) <= 9:
		return d[:3] + "." + d[3:6] + "." + d[6:]
	default:
		return d[:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:]
	}
}

// ValidCPF reports whether s holds an 11-digit CPF with correct check
// digits. Formatting characters are ignored; repeated-digit numbers such
// as 111.111.111-11 are rejected.
func ValidCPF(s string) bool {
	d := DigitsOnly(s)
	if len(d) != cpfDigits {
		return false
	}
	if strings.Count(d, d[:1]) == cpfDigits {
		return false
	}
	return checkDigit(d[:9]) == d[9] && checkDigit(d[:10]) == d[10]
}

// checkDigit computes the mod-11 verifier for the digits in prefix.
func checkDigit(prefix string) byte {
	weight := len(prefix) + 1
	sum := 0
	for i := 0; i < len(prefix); i++ {
		sum += int(prefix[i]-'0') * (weight - i)
	}
	rest := 11 - sum%11
	if rest > 9 {
		rest = 0
	}
	return byte('0' + rest)
}
