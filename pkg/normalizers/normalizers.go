// Package normalizers provides field normalization functions for import rows
package normalizers

import (
	"regexp"
	"strings"
	"unicode"
)

// Normalizer is a function that normalizes a string value
type Normalizer func(string) string

// registry holds all registered normalizers
var registry = make(map[string]Normalizer)

func init() {
	// Register built-in normalizers
	Register("trim", Trim)
	Register("uppercase", Uppercase)
	Register("lowercase", Lowercase)
	Register("title", TitleCase)
	Register("collapse_whitespace", CollapseWhitespace)
	Register("nstreet", NormalizeStreet)
	Register("nphone", NormalizePhone)
	Register("nemail", NormalizeEmail)
}

// Register adds a normalizer to the registry
func Register(name string, fn Normalizer) {
	registry[name] = fn
}

// Get retrieves a normalizer by name
func Get(name string) (Normalizer, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Apply applies a named normalizer to a value
func Apply(value, normalizer string) string {
	fn, ok := registry[normalizer]
	if !ok {
		return value
	}
	return fn(value)
}

// ApplyChain applies multiple normalizers in sequence
func ApplyChain(value string, normalizers ...string) string {
	result := value
	for _, name := range normalizers {
		result = Apply(result, name)
	}
	return result
}

// Built-in normalizers

// Trim removes leading and trailing whitespace
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// Uppercase converts string to uppercase
func Uppercase(s string) string {
	return strings.ToUpper(s)
}

// Lowercase converts string to lowercase
func Lowercase(s string) string {
	return strings.ToLower(s)
}

// TitleCase upper-cases the first letter of every word and lower-cases the
// rest. Any non-letter rune is a word boundary, so "59 s byron st" becomes
// "59 S Byron St".
func TitleCase(s string) string {
	var result strings.Builder
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				result.WriteRune(unicode.ToLower(r))
			} else {
				result.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
		} else {
			result.WriteRune(r)
			prevLetter = false
		}
	}
	return result.String()
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// CollapseWhitespace replaces runs of whitespace with a single space
func CollapseWhitespace(s string) string {
	return whitespaceRe.ReplaceAllString(s, " ")
}

// streetAbbreviations is the ordered table of whole-word substitutions
// applied to title-cased street strings. Replacements are independent;
// several may fire in one street.
var streetAbbreviations = []struct {
	re   *regexp.Regexp
	abbr string
}{
	{regexp.MustCompile(`\bRoad\b`), "Rd"},
	{regexp.MustCompile(`\bStreet\b`), "Str"},
	{regexp.MustCompile(`\bAvenue\b`), "Ave"},
	{regexp.MustCompile(`\bParkway\b`), "Pkwy"},
	{regexp.MustCompile(`\bSuite\b`), "Ste"},
	{regexp.MustCompile(`\bApartment\b`), "Apt"},
}

// NormalizeStreet trims and title-cases a street string, abbreviates common
// designators (Road becomes Rd, and so on), and collapses whitespace runs.
// Idempotent: normalizing an already-normalized street is a no-op.
func NormalizeStreet(s string) string {
	s = TitleCase(strings.TrimSpace(s))
	for _, sub := range streetAbbreviations {
		s = sub.re.ReplaceAllString(s, sub.abbr)
	}
	return CollapseWhitespace(s)
}

// NormalizePhone removes all non-digit characters from a phone number
func NormalizePhone(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// NormalizeEmail normalizes an email address (lowercase, trim)
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
