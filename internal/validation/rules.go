// Package validation implements the declarative request validation and
// sanitization pipeline that guards every write to the domain entities.
package validation

import "regexp"

// RuleKind identifies a rule. Kinds are evaluated in declaration order of the
// constants below, regardless of the order rules are listed on a field.
type RuleKind int

const (
	Required RuleKind = iota
	MinLength
	MaxLength
	Type
	Min
	Max
	Enum
	Pattern
)

// ValueType is the format checked by a Type rule.
type ValueType string

const (
	TypeEmail  ValueType = "email"
	TypeNumber ValueType = "number"
	TypePhone  ValueType = "phone"
	TypeURL    ValueType = "url"
)

// Rule is one constraint on a field. Only the parameter matching Kind is read.
type Rule struct {
	Kind     RuleKind
	Int      int
	Float    float64
	Type     ValueType
	Options  []string
	Patterns []*regexp.Regexp
}

func Req() Rule { return Rule{Kind: Required} }
func MinLen(n int) Rule { return Rule{Kind: MinLength, Int: n} }
func MaxLen(n int) Rule { return Rule{Kind: MaxLength, Int: n} }
func IsType(t ValueType) Rule { return Rule{Kind: Type, Type: t} }
func MinValue(f float64) Rule { return Rule{Kind: Min, Float: f} }
func MaxValue(f float64) Rule { return Rule{Kind: Max, Float: f} }
func OneOf(opts ...string) Rule { return Rule{Kind: Enum, Options: opts} }

// Matches requires every pattern to match the value.
func Matches(patterns ...*regexp.Regexp) Rule {
	return Rule{Kind: Pattern, Patterns: patterns}
}

// Field declares the sanitizer and rules of one input field.
type Field struct {
	Name      string
	Sanitizer Sanitizer
	Rules     []Rule
}

func (f Field) required() bool {
	for _, r := range f.Rules {
		if r.Kind == Required {
			return true
		}
	}
	return false
}

// Schema is an immutable, named list of fields.
type Schema struct {
	Name   string
	Fields []Field
}

// Result is the outcome of validating a record against a Schema.
// Data holds one sanitized entry per schema field, valid or not.
type Result struct {
	IsValid bool              `json:"isValid"`
	Errors  map[string]string `json:"errors"`
	Data    map[string]any    `json:"data"`
}
