package validation

import (
	"math"
	"strconv"
	"strings"
)

// Sanitizer names a pure transformation applied before validation.
type Sanitizer int

const (
	NoSanitizer Sanitizer = iota
	StringSanitizer
	EmailSanitizer
	PhoneSanitizer
	NumberSanitizer
	BooleanSanitizer
)

// Apply runs the sanitizer. NoSanitizer returns the value unchanged.
func (s Sanitizer) Apply(value any) any {
	switch s {
	case StringSanitizer:
		return SanitizeString(value)
	case EmailSanitizer:
		return SanitizeEmail(value)
	case PhoneSanitizer:
		return SanitizePhone(value)
	case NumberSanitizer:
		return SanitizeNumber(value)
	case BooleanSanitizer:
		return SanitizeBoolean(value)
	default:
		return value
	}
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
	`\`, "&#x5C;",
	"`", "&#96;",
)

// SanitizeString trims and HTML-escapes a string. Non-strings become "".
func SanitizeString(value any) string {
	s, ok := value.(string)
	if !ok {
		return ""
	}
	return htmlEscaper.Replace(strings.TrimSpace(s))
}

// SanitizeEmail trims and canonicalizes an address: lowercase, and for Gmail
// dots and "+tag" suffixes in the local part are dropped. Input that does not
// look like an address is returned trimmed so the format check can reject it.
func SanitizeEmail(value any) string {
	s, ok := value.(string)
	if !ok {
		return ""
	}
	s = strings.TrimSpace(s)

	at := strings.LastIndex(s, "@")
	if at <= 0 || at == len(s)-1 {
		return s
	}

	local, domain := strings.ToLower(s[:at]), strings.ToLower(s[at+1:])
	if domain == "googlemail.com" {
		domain = "gmail.com"
	}
	if domain == "gmail.com" {
		if plus := strings.IndexByte(local, '+'); plus >= 0 {
			local = local[:plus]
		}
		local = strings.ReplaceAll(local, ".", "")
		if local == "" {
			return s
		}
	}
	return local + "@" + domain
}

// SanitizePhone keeps digits and the characters + - ( ) and space.
func SanitizePhone(value any) string {
	s, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '+', r == '-', r == ' ', r == '(', r == ')':
			return r
		default:
			return -1
		}
	}, s)
}

// SanitizeNumber coerces to a float, 0 when the value is not numeric.
func SanitizeNumber(value any) float64 {
	n := toNumber(value)
	if math.IsNaN(n) {
		return 0
	}
	return n
}

// SanitizeBoolean applies truthiness.
func SanitizeBoolean(value any) bool {
	return !isFalsy(value)
}

// toNumber follows loose numeric coercion: "" and false are 0, nil and
// unparseable strings are NaN.
func toNumber(value any) float64 {
	switch v := value.(type) {
	case nil:
		return math.NaN()
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case int32:
		return float64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return n
	default:
		return math.NaN()
	}
}

func isFalsy(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case bool:
		return !v
	case string:
		return v == ""
	case float64:
		return v == 0 || math.IsNaN(v)
	case float32:
		return v == 0
	case int:
		return v == 0
	case int64:
		return v == 0
	case int32:
		return v == 0
	default:
		return false
	}
}
