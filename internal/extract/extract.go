// Package extract supplies ranked location-text candidates for geocoding.
// Proper named-entity extraction lives in an external service; this package
// defines the capability contract plus the two local variants selected at
// configuration time.
package extract

import "regexp"

// CandidateExtractor returns location-text candidates for a report, best
// first. The pipeline uses only the first candidate.
type CandidateExtractor interface {
	Candidates(title, summary string) []string
}

// properNounRe matches capitalized word runs, e.g. "New York" or "Maple
// Street". Crude, but it is the same fallback the reference extractor uses
// when no NER model is available.
var properNounRe = regexp.MustCompile(`[A-Z][a-z]+(?: [A-Z][a-z]+)*`)

// Heuristic extracts capitalized word runs from the title, then the summary.
type Heuristic struct{}

func (Heuristic) Candidates(title, summary string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, text := range []string{title, summary} {
		for _, m := range properNounRe.FindAllString(text, -1) {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	return out
}

// Noop never yields candidates; reports pass through ungeocoded unless the
// fetcher supplied coordinates.
type Noop struct{}

func (Noop) Candidates(_, _ string) []string { return nil }
