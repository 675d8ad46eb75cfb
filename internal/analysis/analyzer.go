// Package analysis turns stored field text into term frequencies.
package analysis

import (
	"strings"
	"unicode"

	"github.com/kailas-cloud/termgen/internal/domain/termvector"
)

// DefaultMinTokenLength drops single-character tokens.
const DefaultMinTokenLength = 2

// Options configures an Analyzer.
type Options struct {
	MinTokenLength int
	Stopwords      []string
}

// Analyzer splits text into lowercase tokens: runs of letters, digits and '-'.
// Leading and trailing hyphens are trimmed, pure numerics and stopwords dropped.
type Analyzer struct {
	minLen    int
	stopwords map[string]struct{}
}

// New creates an analyzer.
func New(opts Options) *Analyzer {
	minLen := opts.MinTokenLength
	if minLen <= 0 {
		minLen = DefaultMinTokenLength
	}
	stops := make(map[string]struct{}, len(opts.Stopwords))
	for _, w := range opts.Stopwords {
		stops[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return &Analyzer{minLen: minLen, stopwords: stops}
}

// Tokenize returns the tokens of text in order, duplicates included.
func (a *Analyzer) Tokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		if word := a.processToken(current.String()); word != "" {
			tokens = append(tokens, word)
		}
		current.Reset()
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-' {
			current.WriteRune(unicode.ToLower(r))
			continue
		}
		flush()
	}
	flush()

	return tokens
}

// TermFrequencies returns the distinct tokens of text with their counts,
// in order of first occurrence.
func (a *Analyzer) TermFrequencies(text string) []termvector.Term {
	tokens := a.Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}

	pos := make(map[string]int, len(tokens))
	terms := make([]termvector.Term, 0, len(tokens))
	for _, tok := range tokens {
		if i, ok := pos[tok]; ok {
			terms[i].Freq++
			continue
		}
		pos[tok] = len(terms)
		terms = append(terms, termvector.Term{Text: tok, Freq: 1})
	}
	return terms
}

func (a *Analyzer) processToken(token string) string {
	word := strings.Trim(token, "-")
	for strings.Contains(word, "--") {
		word = strings.ReplaceAll(word, "--", "-")
	}
	if len([]rune(word)) < a.minLen {
		return ""
	}
	// "2024" and "10-20" carry no meaning; "utf-8" and "go2" are kept
	if isNumericOnly(word) {
		return ""
	}
	if _, ok := a.stopwords[word]; ok {
		return ""
	}
	return word
}

func isNumericOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '-' {
			return false
		}
	}
	return true
}
