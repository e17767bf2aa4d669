package models

import (
	"html"
	"regexp"
	"strings"
)

var slugSeparators = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s, collapses every run of non-alphanumeric characters into
// one hyphen and trims hyphens from both ends. max <= 0 means no limit.
// HTML entities left by input sanitization are decoded first.
func Slugify(s string, max int) string {
	slug := slugSeparators.ReplaceAllString(strings.ToLower(html.UnescapeString(s)), "-")
	slug = strings.Trim(slug, "-")
	if max > 0 && len(slug) > max {
		slug = strings.TrimRight(slug[:max], "-")
	}
	return slug
}

// enforceSinglePrimary leaves exactly one flagged entry in a non-empty list.
// When the list has zero or several flagged entries the first entry wins.
func enforceSinglePrimary[T any](items []T, flag func(*T) *bool) {
	if len(items) == 0 {
		return
	}
	flagged := 0
	for i := range items {
		if *flag(&items[i]) {
			flagged++
		}
	}
	if flagged == 1 {
		return
	}
	for i := range items {
		*flag(&items[i]) = i == 0
	}
}
