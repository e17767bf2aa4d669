package validation

import (
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/example/bazzarly/internal/errs"
)

// Validate runs the named schema against raw. The only error is errs.ErrUnknownSchema.
func Validate(schemaName string, raw map[string]any) (Result, error) {
	schema, ok := Lookup(schemaName)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", errs.ErrUnknownSchema, schemaName)
	}
	return schema.Validate(raw), nil
}

// ValidatePartial runs the named schema against the fields present in raw.
// It serves updates, where an absent field keeps its stored value.
func ValidatePartial(schemaName string, raw map[string]any) (Result, error) {
	schema, ok := Lookup(schemaName)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", errs.ErrUnknownSchema, schemaName)
	}
	return schema.ValidatePresent(raw), nil
}

// ValidatePresent is Validate restricted to the keys of raw. A present field
// keeps all of its rules, so an empty value for a required field still fails.
func (s Schema) ValidatePresent(raw map[string]any) Result {
	res := Result{
		Errors: make(map[string]string),
		Data:   make(map[string]any),
	}

	for _, field := range s.Fields {
		rawValue, present := raw[field.Name]
		if !present {
			continue
		}
		value := field.Sanitizer.Apply(rawValue)
		res.Data[field.Name] = value
		if msg := checkField(field, value); msg != "" {
			res.Errors[field.Name] = msg
		}
	}

	res.IsValid = len(res.Errors) == 0
	return res
}

// Validate checks every field independently and never short-circuits across fields.
func (s Schema) Validate(raw map[string]any) Result {
	res := Result{
		Errors: make(map[string]string),
		Data:   make(map[string]any, len(s.Fields)),
	}

	for _, field := range s.Fields {
		value := field.Sanitizer.Apply(raw[field.Name])
		res.Data[field.Name] = value
		if msg := checkField(field, value); msg != "" {
			res.Errors[field.Name] = msg
		}
	}

	res.IsValid = len(res.Errors) == 0
	return res
}

func checkField(field Field, value any) string {
	label := displayName(field.Name)
	required := field.required()

	if required && isMissing(value) {
		return label + " is required"
	}
	if !required && isFalsy(value) {
		return ""
	}

	rules := make([]Rule, len(field.Rules))
	copy(rules, field.Rules)
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Kind < rules[j].Kind })

	for _, rule := range rules {
		if msg := checkRule(rule, value, label); msg != "" {
			return msg
		}
	}
	return ""
}

func checkRule(rule Rule, value any, label string) string {
	switch rule.Kind {
	case MinLength:
		if s, ok := value.(string); ok && s != "" && utf8.RuneCountInString(s) < rule.Int {
			return fmt.Sprintf("%s must be at least %d characters long", label, rule.Int)
		}
	case MaxLength:
		if s, ok := value.(string); ok && s != "" && utf8.RuneCountInString(s) > rule.Int {
			return fmt.Sprintf("%s must be no more than %d characters long", label, rule.Int)
		}
	case Type:
		return checkType(rule.Type, value, label)
	case Min:
		if n := toNumber(value); !math.IsNaN(n) && n < rule.Float {
			return fmt.Sprintf("%s must be at least %s", label, formatNumber(rule.Float))
		}
	case Max:
		if n := toNumber(value); !math.IsNaN(n) && n > rule.Float {
			return fmt.Sprintf("%s must be no more than %s", label, formatNumber(rule.Float))
		}
	case Enum:
		if !isFalsy(value) && !contains(rule.Options, value) {
			return fmt.Sprintf("%s must be one of: %s", label, strings.Join(rule.Options, ", "))
		}
	case Pattern:
		if isFalsy(value) {
			return ""
		}
		text := stringOf(value)
		for _, re := range rule.Patterns {
			if !re.MatchString(text) {
				return label + " format is invalid"
			}
		}
	}
	return ""
}

func checkType(t ValueType, value any, label string) string {
	if isFalsy(value) {
		return ""
	}
	switch t {
	case TypeEmail:
		if s, ok := value.(string); !ok || !IsEmail(s) {
			return label + " must be a valid email address"
		}
	case TypeNumber:
		if math.IsNaN(toNumber(value)) {
			return label + " must be a number"
		}
	case TypePhone:
		if s, ok := value.(string); !ok || !IsPhone(s) {
			return label + " must be a valid phone number"
		}
	case TypeURL:
		if s, ok := value.(string); !ok || !IsURL(s) {
			return label + " must be a valid URL"
		}
	}
	return ""
}

var formats = validator.New()

// IsPhone accepts international numbers of 7 to 15 digits once spaces,
// dashes and parentheses are removed. The leading plus is optional.
func IsPhone(s string) bool {
	compact := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')':
			return -1
		}
		return r
	}, s)
	if !strings.HasPrefix(compact, "+") {
		compact = "+" + compact
	}
	return formats.Var(compact, "e164") == nil
}

// IsEmail accepts a bare address whose domain has a dot-separated TLD.
func IsEmail(s string) bool {
	return formats.Var(s, "email") == nil
}

// IsURL accepts http(s) URLs with a dotted host; the scheme may be omitted.
func IsURL(s string) bool {
	candidate := s
	if !strings.Contains(candidate, "://") {
		candidate = "http://" + candidate
	}
	if formats.Var(candidate, "url") != nil {
		return false
	}
	u, err := url.Parse(candidate)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	host := u.Hostname()
	return host == "localhost" || strings.Contains(strings.Trim(host, "."), ".")
}

func isMissing(value any) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	return ok && s == ""
}

func contains(options []string, value any) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	for _, opt := range options {
		if opt == s {
			return true
		}
	}
	return false
}

func stringOf(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

func displayName(field string) string {
	r, size := utf8.DecodeRuneInString(field)
	if r == utf8.RuneError {
		return field
	}
	return string(unicode.ToUpper(r)) + field[size:]
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
