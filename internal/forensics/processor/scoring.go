package processor

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/docforensics/forensics-api/internal/forensics/domain"
)

// Flag texts reported in TextAnalysis.Flags
const (
	FlagRepetition       = "High text repetition detected"
	FlagShortWords       = "Unusually short words detected"
	FlagLongWords        = "Unusually long words detected"
	FlagExtractionFailed = "Text extraction failed - document may be corrupted or unreadable"
	FlagNoText           = "No text content detected - document appears to be image/diagram only"
	FlagNotImplemented   = "Text analysis not implemented for this file type"
)

const (
	minScoredWords    = 10
	repetitionRatio   = 0.1
	repetitionPenalty = 5
	shortWordLength   = 2
	shortWordPenalty  = 3
	longWordLength    = 15
	longWordPenalty   = 2
	confidenceStep    = 3
	confidenceFloor   = 70
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	wordRe       = regexp.MustCompile(`[\p{L}\p{N}_]+`)
)

// ExtractionOutcome records whether text extraction ran to completion
type ExtractionOutcome int

const (
	// Extracted means a strategy returned, possibly with no text
	Extracted ExtractionOutcome = iota
	// ExtractionFailed means every strategy returned an error
	ExtractionFailed
)

// ExtractedText is the output of a text strategy chain
type ExtractedText struct {
	Text     string
	Outcome  ExtractionOutcome
	Strategy string
}

// Score runs the suspicion heuristics over extracted text. source names the
// document kind in the success flag ("PDF", "DOCX").
func Score(extracted ExtractedText, source string) domain.TextAnalysis {
	cleaned := strings.TrimSpace(whitespaceRe.ReplaceAllString(extracted.Text, " "))

	if cleaned == "" {
		if extracted.Outcome == ExtractionFailed {
			return domain.TextAnalysis{Confidence: 50, Flags: []string{FlagExtractionFailed}}
		}
		return domain.TextAnalysis{Confidence: 95, Flags: []string{FlagNoText}}
	}

	words := wordRe.FindAllString(cleaned, -1)
	score := 0
	flags := []string{}

	if len(words) > minScoredWords {
		distinct := make(map[string]struct{}, len(words))
		runes := 0
		for _, w := range words {
			distinct[w] = struct{}{}
			runes += utf8.RuneCountInString(w)
		}

		if float64(len(distinct)) < max(1, float64(len(words))*repetitionRatio) {
			score += repetitionPenalty
			flags = append(flags, FlagRepetition)
		}

		avg := float64(runes) / float64(len(words))
		switch {
		case avg < shortWordLength:
			score += shortWordPenalty
			flags = append(flags, FlagShortWords)
		case avg > longWordLength:
			score += longWordPenalty
			flags = append(flags, FlagLongWords)
		}
	}

	if len(flags) == 0 {
		flags = append(flags, fmt.Sprintf("Text extraction successful from %s", source))
	}

	return domain.TextAnalysis{
		TotalWords:      len(words),
		SuspiciousWords: score,
		Confidence:      Confidence(score),
		Flags:           flags,
	}
}

// Confidence maps a suspicion score onto 70..100
func Confidence(score int) int {
	return min(100, max(confidenceFloor, 100-score*confidenceStep))
}
