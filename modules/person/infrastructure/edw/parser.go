// Package edw talks to the enterprise data warehouse: a lazily-opened
// read-only SQL connection, the person queries run against it, and the
// parser normalizing its fixed-width text values.
package edw

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Parser normalizes raw warehouse values to canonical local types. The
// warehouse returns nullable fixed-width columns uniformly as strings, so
// every consumer must agree on one reading of "missing": nil. All methods
// are pure; malformed input degrades to nil rather than erroring, per the
// row-isolation discipline of the import job.
type Parser struct{}

// String trims whitespace; a blank value becomes nil.
func (Parser) String(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

// Integer converts empty values to nil or casts to integer.
func (Parser) Integer(value string) *int64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// DateYmd parses a date stored as 8 characters YYYYMMDD. Zero means no
// date. The result is midnight UTC.
func (Parser) DateYmd(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" || value == "0" {
		return nil
	}
	t, err := time.ParseInLocation("20060102", value, time.UTC)
	if err != nil {
		return nil
	}
	return &t
}

// LastFirst splits a warehouse "Last, First" value, running both parts
// through Name. Without a comma the whole value is the last name.
func (p Parser) LastFirst(value string) (first, last *string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if idx := strings.Index(value, ","); idx > 0 {
		return p.Name(value[idx+1:]), p.Name(value[:idx])
	}
	return p.Name(""), p.Name(value)
}

// Name converts a name value to proper case. Hyphens and apostrophes start
// a new capitalized part with the separator preserved, so "o'brien-smith"
// becomes "O'Brien-Smith".
func (Parser) Name(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	var b strings.Builder
	b.Grow(len(value))
	startOfWord := true
	for _, r := range strings.ToLower(value) {
		switch {
		case r == ' ' || r == '-' || r == '\'':
			startOfWord = true
			b.WriteRune(r)
		case startOfWord:
			b.WriteRune(unicode.ToUpper(r))
			startOfWord = false
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()
	return &out
}

// IsEmpty tests whether a warehouse space-padded value is empty.
func (Parser) IsEmpty(value string) bool {
	return strings.TrimSpace(value) == ""
}
