// Package hackerrank scrapes badge and star counts out of the SVG card rendered by the
// hackerrank-badges image service.
package hackerrank

import (
	"strings"
	"unicode"
)

// Badge is one recognized HackerRank badge. The JSON keys match what the web front end
// has always consumed.
type Badge struct {
	Name  string `json:"Badge Name"`
	Stars int    `json:"Stars"`
}

var validBadgeNames = []string{
	"Problem Solving", "Java", "Python", "C Language", "Cpp", "C#", "JavaScript",
	"Sql", "30 Days of Code", "10 Days of JavaScript", "10 Days of Statistics",
	"Algorithms", "Data Structures", "Regex", "Artificial Intelligence",
	"Databases", "Shell", "Linux Shell", "Functional Programming",
	"Mathematics", "Days of ML", "Rust", "Kotlin", "Swift", "Scala",
	"Ruby", "Go", "Statistics", "Interview Preparation Kit",
	"Object Oriented Programming", "Security",
}

// badgeKeywords gate which text nodes are considered at all. A keyword hit is necessary
// but never sufficient: the allow-list decides.
var badgeKeywords = []string{
	"java", "python", "sql", "javascript", "cpp", "problem solving",
	"algorithms", "data structures", "30 days", "10 days", "ruby",
	"swift", "golang", "rust", "kotlin", "scala", "c", "shell",
	"functional programming", "object oriented programming",
}

var allowList = func() map[string]bool {
	m := make(map[string]bool, len(validBadgeNames))
	for _, name := range validBadgeNames {
		m[name] = true
	}
	return m
}()

func matchesKeyword(lower string) bool {
	for _, kw := range badgeKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// badgeName title-cases text and reports whether the result is an allow-listed name.
// Matching is exact, so "javascript" becomes "Javascript" and is rejected.
func badgeName(text string) (string, bool) {
	name := titleCase(text)
	return name, allowList[name]
}

// titleCase upper-cases the first letter of every run of letters and lower-cases the
// rest. Digits and punctuation start a new run: "30 days of code" -> "30 Days Of Code".
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inWord := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) && inWord:
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsLetter(r):
			b.WriteRune(unicode.ToUpper(r))
			inWord = true
		default:
			b.WriteRune(r)
			inWord = false
		}
	}
	return b.String()
}

// TotalStars sums the stars of a badge list.
func TotalStars(badges []Badge) int {
	total := 0
	for _, b := range badges {
		total += b.Stars
	}
	return total
}
