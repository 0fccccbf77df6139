package domain

import "strings"

// categoryKeywords are checked in order; the first match wins.
var categoryKeywords = []string{
	"robbery",
	"assault",
	"burglary",
	"shooting",
	"fire",
	"crash",
	"arrest",
}

// CategoryOther is assigned when no keyword matches.
const CategoryOther = "other"

// Classify derives an event category from free text by keyword scan.
func Classify(text string) string {
	lower := strings.ToLower(text)
	for _, word := range categoryKeywords {
		if strings.Contains(lower, word) {
			return word
		}
	}
	return CategoryOther
}
