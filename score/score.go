// Package score ranks OCR attempt texts by how plausible they are as
// recognized prose. Only relative ordering matters; scores are not
// normalized.
package score

import (
	"regexp"
	"strings"
	"unicode"
)

// Formula weights. The score is
//
//	0.01*length + 0.5*words + lengthBonus - 100*garbageRatio + 5*sentences
//
// where lengthBonus is 10 when the average word length sits in the
// plausible band for natural text.
const (
	lengthWeight    = 0.01
	wordWeight      = 0.5
	wordLenBonus    = 10.0
	garbagePenalty  = 100.0
	sentenceWeight  = 5.0
	minPlausibleLen = 3.0
	maxPlausibleLen = 10.0
)

// allowedPunct is the punctuation allow-list. Characters that are not
// alphanumeric, whitespace, or in this set count as garbage.
const allowedPunct = `.,;:!?'"()-`

// sentencePattern matches an uppercase-initial run ending at the first
// sentence terminator.
var sentencePattern = regexp.MustCompile(`[A-Z][^.!?]*[.!?]`)

// Breakdown itemizes the quality score of one candidate.
type Breakdown struct {
	Length       int     `json:"length"`
	Words        int     `json:"words"`
	AvgWordLen   float64 `json:"avg_word_len"`
	GarbageRatio float64 `json:"garbage_ratio"`
	Sentences    int     `json:"sentences"`
	Total        float64 `json:"total"`
}

// Evaluate computes the full quality breakdown for text. Empty or
// whitespace-only text scores zero.
func Evaluate(text string) Breakdown {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Breakdown{}
	}

	runes := []rune(trimmed)
	words := tokenize(trimmed)

	var avgLen float64
	if len(words) > 0 {
		var total int
		for _, w := range words {
			total += len([]rune(w))
		}
		avgLen = float64(total) / float64(len(words))
	}

	garbage := 0
	for _, r := range runes {
		if !allowed(r) {
			garbage++
		}
	}
	garbageRatio := float64(garbage) / float64(len(runes))

	sentences := len(sentencePattern.FindAllString(trimmed, -1))

	b := Breakdown{
		Length:       len(runes),
		Words:        len(words),
		AvgWordLen:   avgLen,
		GarbageRatio: garbageRatio,
		Sentences:    sentences,
	}

	b.Total = lengthWeight*float64(b.Length) +
		wordWeight*float64(b.Words) -
		garbagePenalty*b.GarbageRatio +
		sentenceWeight*float64(b.Sentences)
	if len(words) > 0 && avgLen >= minPlausibleLen && avgLen <= maxPlausibleLen {
		b.Total += wordLenBonus
	}

	return b
}

// Score returns the scalar quality score for text.
func Score(text string) float64 {
	return Evaluate(text).Total
}

// SelectBest returns the strictly highest-scoring candidate. Ties
// resolve to the earliest candidate. With zero or one candidate the
// input is returned directly without scoring.
func SelectBest(candidates []string) string {
	switch len(candidates) {
	case 0:
		return ""
	case 1:
		return candidates[0]
	}

	best := candidates[0]
	bestScore := Score(best)
	for _, c := range candidates[1:] {
		if s := Score(c); s > bestScore {
			best = c
			bestScore = s
		}
	}
	return best
}

// tokenize splits text into maximal alphanumeric runs.
func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// allowed reports whether r is a non-garbage character.
func allowed(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
		return true
	}
	return strings.ContainsRune(allowedPunct, r)
}
