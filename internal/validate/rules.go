// Package validate evaluates declarative per-entity field rule tables.
//
// A Schema is an ordered list of fields; every check of every field is evaluated and all
// violations are returned together, in table order, so one request reports every problem.
package validate

import (
	"errors"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/ceylonix/internal/apperr"
)

// Kind tags the variant held by a Check.
type Kind int

const (
	KindLength Kind = iota
	KindPattern
	KindOneOf
	KindNumeric
	KindIntRange
	KindISODate
	KindNotBefore
	KindAbsoluteURL
	KindMinDigits
	KindEmail
	KindClock
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	clockRe = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)
)

// dateLayouts are the ISO-8601 shapes accepted for dates.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
}

// Check is one rule applied to a trimmed, non-empty value.
type Check struct {
	Kind     Kind
	Min, Max int
	Pattern  *regexp.Regexp
	Options  []string
	// Since returns the earliest accepted instant for KindNotBefore. Its location
	// is also used to interpret date-only values.
	Since   func() time.Time
	Message string
}

// Field describes the rules for one named input.
type Field struct {
	Name     string
	Label    string
	Required bool
	Checks   []Check
}

// Schema is an ordered rule table for one entity.
type Schema []Field

func Length(min, max int, msg string) Check {
	return Check{Kind: KindLength, Min: min, Max: max, Message: msg}
}

func Pattern(re *regexp.Regexp, msg string) Check {
	return Check{Kind: KindPattern, Pattern: re, Message: msg}
}

func OneOf(options []string, msg string) Check {
	return Check{Kind: KindOneOf, Options: options, Message: msg}
}

func Numeric(msg string) Check { return Check{Kind: KindNumeric, Message: msg} }

func IntRange(min, max int, msg string) Check {
	return Check{Kind: KindIntRange, Min: min, Max: max, Message: msg}
}

func ISODate(msg string) Check { return Check{Kind: KindISODate, Message: msg} }

// NotBefore rejects dates earlier than since(). Unparseable values are left to ISODate.
func NotBefore(since func() time.Time, msg string) Check {
	return Check{Kind: KindNotBefore, Since: since, Message: msg}
}

func AbsoluteURL(msg string) Check { return Check{Kind: KindAbsoluteURL, Message: msg} }

func MinDigits(n int, msg string) Check { return Check{Kind: KindMinDigits, Min: n, Message: msg} }

func Email(msg string) Check { return Check{Kind: KindEmail, Message: msg} }

func Clock(msg string) Check { return Check{Kind: KindClock, Message: msg} }

func (c Check) rule() validation.Rule {
	switch c.Kind {
	case KindLength:
		return validation.RuneLength(c.Min, c.Max).Error(c.Message)
	case KindPattern:
		return validation.Match(c.Pattern).Error(c.Message)
	case KindEmail:
		return validation.Match(emailRe).Error(c.Message)
	case KindClock:
		return validation.Match(clockRe).Error(c.Message)
	case KindOneOf:
		opts := make([]any, len(c.Options))
		for i, o := range c.Options {
			opts[i] = o
		}
		return validation.In(opts...).Error(c.Message)
	case KindNumeric:
		return is.Float.Error(c.Message)
	case KindIntRange:
		return validation.By(func(v any) error {
			n, err := strconv.Atoi(v.(string))
			if err != nil || n < c.Min || n > c.Max {
				return errors.New(c.Message)
			}
			return nil
		})
	case KindISODate:
		return validation.By(func(v any) error {
			if _, ok := ParseDate(v.(string), time.Local); !ok {
				return errors.New(c.Message)
			}
			return nil
		})
	case KindNotBefore:
		return validation.By(func(v any) error {
			since := c.Since()
			d, ok := ParseDate(v.(string), since.Location())
			if ok && d.Before(since) {
				return errors.New(c.Message)
			}
			return nil
		})
	case KindAbsoluteURL:
		return validation.By(func(v any) error {
			if !IsAbsoluteURL(v.(string)) {
				return errors.New(c.Message)
			}
			return nil
		})
	case KindMinDigits:
		return validation.By(func(v any) error {
			if countDigits(v.(string)) < c.Min {
				return errors.New(c.Message)
			}
			return nil
		})
	}
	return validation.By(func(any) error { return errors.New("unknown rule kind") })
}

// Evaluate runs the schema over values and returns every violation in table order.
// A missing required field is reported once and its other checks are skipped;
// missing optional fields are not checked at all.
func Evaluate(s Schema, values map[string]string) []apperr.FieldError {
	var out []apperr.FieldError
	for _, f := range s {
		v := strings.TrimSpace(values[f.Name])
		if v == "" {
			if f.Required {
				out = append(out, apperr.FieldError{Field: f.Name, Message: f.label() + " is required"})
			}
			continue
		}
		for _, c := range f.Checks {
			if err := validation.Validate(v, c.rule()); err != nil {
				out = append(out, apperr.FieldError{Field: f.Name, Message: err.Error()})
			}
		}
	}
	return out
}

// Only returns the subset of s whose field names are present in names.
// Used to re-validate partial updates.
func (s Schema) Only(names ...string) Schema {
	keep := make(map[string]struct{}, len(names))
	for _, n := range names {
		keep[n] = struct{}{}
	}
	var out Schema
	for _, f := range s {
		if _, ok := keep[f.Name]; ok {
			out = append(out, f)
		}
	}
	return out
}

func (f Field) label() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// ParseDate parses an ISO-8601 date or datetime. Values without a zone are read in loc.
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// StartOfDay returns midnight of now's calendar day in loc.
func StartOfDay(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	n := now.In(loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc)
}

// IsAbsoluteURL reports whether s is an http(s) URL with a host.
func IsAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

// Normalize returns a copy of values with every entry trimmed.
func Normalize(values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = strings.TrimSpace(v)
	}
	return out
}
