package validation

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// QueryRule constrains one query-string parameter.
type QueryRule struct {
	Sanitizer Sanitizer
	Number    bool
	Required  bool
	MinLength int
	MaxLength int
	Min       *float64
	Max       *float64
	Enum      []string
}

// QueryResult holds an entry only for parameters present in the input.
// Numeric parameters are stored as float64.
type QueryResult struct {
	IsValid bool              `json:"isValid"`
	Errors  map[string]string `json:"errors"`
	Params  map[string]any    `json:"params"`
}

// Bound returns a pointer for QueryRule.Min and QueryRule.Max.
func Bound(f float64) *float64 { return &f }

// ValidateQuery checks params against rules. Messages use the raw parameter name.
func ValidateQuery(params map[string]string, rules map[string]QueryRule) QueryResult {
	res := QueryResult{
		Errors: make(map[string]string),
		Params: make(map[string]any),
	}

	for name, rule := range rules {
		raw, present := params[name]
		if !present {
			if rule.Required {
				res.Errors[name] = name + " is required"
			}
			continue
		}

		var value any = raw
		if rule.Sanitizer != NoSanitizer {
			value = rule.Sanitizer.Apply(raw)
		}
		res.Params[name] = value

		if msg := checkQueryParam(name, rule, value, res.Params); msg != "" {
			res.Errors[name] = msg
		}
	}

	res.IsValid = len(res.Errors) == 0
	return res
}

func checkQueryParam(name string, rule QueryRule, value any, out map[string]any) string {
	text, isText := value.(string)

	if rule.Required && isMissing(value) {
		return name + " is required"
	}
	if isText && rule.MinLength > 0 && utf8.RuneCountInString(text) < rule.MinLength {
		return fmt.Sprintf("%s must be at least %d characters long", name, rule.MinLength)
	}
	if isText && rule.MaxLength > 0 && utf8.RuneCountInString(text) > rule.MaxLength {
		return fmt.Sprintf("%s must be no more than %d characters long", name, rule.MaxLength)
	}

	if rule.Number || rule.Min != nil || rule.Max != nil {
		n := toNumber(value)
		// A blank value such as page= is rejected rather than read as 0.
		if isText && strings.TrimSpace(text) == "" {
			n = math.NaN()
		}
		if math.IsNaN(n) {
			return name + " must be a number"
		}
		if rule.Number {
			out[name] = n
		}
		if rule.Min != nil && n < *rule.Min {
			return fmt.Sprintf("%s must be at least %s", name, formatNumber(*rule.Min))
		}
		if rule.Max != nil && n > *rule.Max {
			return fmt.Sprintf("%s must be no more than %s", name, formatNumber(*rule.Max))
		}
	}

	if len(rule.Enum) > 0 && !contains(rule.Enum, value) {
		return fmt.Sprintf("%s must be one of: %s", name, strings.Join(rule.Enum, ", "))
	}
	return ""
}
