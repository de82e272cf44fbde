package collection

import (
	"hash/fnv"
	"html"
	"regexp"
	"sort"
	"strings"
)

var nonAlpha = regexp.MustCompile("[^a-zA-Z0-9]+")

// UniqueStrings returns the unique non-empty elements of in, order not guaranteed
func UniqueStrings(in []string) []string {
	uniqueMap := make(map[string]struct{}, len(in))
	for i := range in {
		if in[i] == "" {
			continue
		}
		uniqueMap[in[i]] = struct{}{}
	}

	out := make([]string, 0, len(uniqueMap))
	for k := range uniqueMap {
		out = append(out, k)
	}

	return out
}

// UniqueSizes trims, upper-cases, and deduplicates a size list,
// dropping empty and whitespace-only entries; the result is sorted
func UniqueSizes(in []string) []string {
	uniqueMap := make(map[string]struct{}, len(in))
	for i := range in {
		s := strings.ToUpper(strings.TrimSpace(in[i]))
		if s == "" {
			continue
		}
		uniqueMap[s] = struct{}{}
	}

	out := make([]string, 0, len(uniqueMap))
	for k := range uniqueMap {
		out = append(out, k)
	}
	sort.Strings(out)

	return out
}

// Sanitize strips control characters and unescapes HTML entities
func Sanitize(s string) (str string) {
	str = html.UnescapeString(strings.TrimSpace(s))
	var replacements = [...]string{
		"\"",
		"#",
		"*",
		"_",
		"\n",
		"\r",
	}

	for i := range replacements {
		str = strings.Replace(str, replacements[i], "", -1)
	}

	return strings.TrimSpace(str)
}

// SanitizeHard lower-cases and reduces a string to alphanumeric words
func SanitizeHard(s string) string {
	s = html.UnescapeString(strings.TrimSpace(s))
	s = nonAlpha.ReplaceAllString(strings.ToLower(s), " ")

	return strings.TrimSpace(s)
}

// HashKey derives a stable uint64 key from the sanitized string
func HashKey(s string) uint64 {
	s = SanitizeHard(s)
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

// CollateString returns a if non-empty, else b
func CollateString(a, b string) string {
	if a == "" {
		return b
	}
	return a
}

// StringInList returns true if str is an element of list
func StringInList(str string, list []string) bool {
	for i := range list {
		if str == list[i] {
			return true
		}
	}
	return false
}

// ContainsAny reports whether s contains any of the given substrings
func ContainsAny(s string, substrings []string) bool {
	for i := range substrings {
		if strings.Contains(s, substrings[i]) {
			return true
		}
	}
	return false
}

// ListsOverlap returns true if the two lists share at least one element
func ListsOverlap(l0 []string, l1 []string) bool {
	set := make(map[string]struct{}, len(l0))
	for i := range l0 {
		set[l0[i]] = struct{}{}
	}
	for j := range l1 {
		if _, exist := set[l1[j]]; exist {
			return true
		}
	}
	return false
}

// MergeLists concatenates two string slices into a fresh one
func MergeLists(a []string, b []string) []string {
	c := make([]string, 0, len(a)+len(b))
	c = append(c, a...)
	c = append(c, b...)
	return c
}

// IsEmpty checks for empty string
func IsEmpty(s *string) bool {
	return *s == ""
}

// AnyEmpty checks for any empty string in slice
func AnyEmpty(s []*string) bool {
	for i := range s {
		if *s[i] == "" {
			return true
		}
	}
	return false
}
