package domain

import (
	"hash/fnv"
	"math/bits"
	"strings"
	"unicode"
)

// shingleWidth is the character n-gram size used for simhash features.
const shingleWidth = 4

// Fingerprint computes a 64-bit simhash of text. It is a pure function of its
// input: no locale, configuration, or time dependence. Empty or symbol-only
// text yields the zero fingerprint rather than an error.
func Fingerprint(text string) uint64 {
	features := shingleFeatures(text)
	if len(features) == 0 {
		return 0
	}

	var votes [64]int
	for _, f := range features {
		h := hashFeature(f)
		for i := 0; i < 64; i++ {
			if h&(1<<uint(i)) != 0 {
				votes[i]++
			} else {
				votes[i]--
			}
		}
	}

	var fp uint64
	for i := 0; i < 64; i++ {
		if votes[i] > 0 {
			fp |= 1 << uint(i)
		}
	}
	return fp
}

// HammingDistance counts differing bits between two fingerprints. Reports of
// the same incident land within a few bits of each other; unrelated texts
// average 32.
func HammingDistance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// shingleFeatures normalizes text to lowercase letter/digit runs and returns
// overlapping character n-grams over the concatenated runs. Punctuation and
// whitespace differences therefore never change the feature set.
func shingleFeatures(text string) []string {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(tokens) == 0 {
		return nil
	}

	runes := []rune(strings.Join(tokens, ""))
	if len(runes) <= shingleWidth {
		return []string{string(runes)}
	}

	features := make([]string, 0, len(runes)-shingleWidth+1)
	for i := 0; i+shingleWidth <= len(runes); i++ {
		features = append(features, string(runes[i:i+shingleWidth]))
	}
	return features
}

func hashFeature(f string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(f)) //nolint:errcheck // fnv.Write never fails
	return h.Sum64()
}
