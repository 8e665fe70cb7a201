package nlp

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

var ErrInvalidInput = errors.New("input text is empty or not decodable")

// Clause is one atomic unit of normalized text. Offset points back into
// the normalized text so obligations can be attributed to a section.
type Clause struct {
	Text    string `json:"text"`
	Section string `json:"section"`
	Offset  int    `json:"offset"`
}

// NormalizedText is the normalizer output: whitespace-collapsed text plus
// the ordered clause sequence derived from it.
type NormalizedText struct {
	Text    string   `json:"text"`
	Clauses []Clause `json:"clauses"`
}

var (
	// "2. ", "3) ", "1.2 "; a bare number ("2026 revenue...") is not a prefix.
	numberedPrefix  = regexp.MustCompile(`^\d+([.)]|(\.\d+)+[.)]?)\s+`)
	markdownHeading = regexp.MustCompile(`^#{1,6}\s+\S`)
	whitespaceRun   = regexp.MustCompile(`[ \t]+`)
	sentenceEnd     = regexp.MustCompile(`([.!?;])\s+`)
)

// Normalize cleans raw text and segments it into ordered clauses.
// Headings (markdown, numbered, ALL CAPS, trailing-colon lines) open a new
// section; every following clause is attributed to it. Pure function.
func Normalize(raw string) (*NormalizedText, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrInvalidInput
	}
	if !utf8.ValidString(raw) {
		return nil, ErrInvalidInput
	}

	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")

	var (
		builder  strings.Builder
		clauses  []Clause
		section  string
	)
	for _, line := range lines {
		line = whitespaceRun.ReplaceAllString(strings.TrimSpace(line), " ")
		if line == "" {
			continue
		}

		if isHeading(line) {
			section = headingTitle(line)
			continue
		}

		// Numbered list clauses shed their "1." prefix so the sentence
		// splitter does not cut at the list dot.
		if loc := numberedPrefix.FindStringIndex(line); loc != nil {
			line = line[loc[1]:]
		}

		for _, sentence := range splitSentences(line) {
			sentence = strings.TrimSpace(sentence)
			if sentence == "" {
				continue
			}
			offset := builder.Len()
			if offset > 0 {
				builder.WriteString(" ")
				offset++
			}
			builder.WriteString(sentence)
			clauses = append(clauses, Clause{
				Text:    sentence,
				Section: section,
				Offset:  offset,
			})
		}
	}

	if len(clauses) == 0 {
		return nil, ErrInvalidInput
	}

	return &NormalizedText{
		Text:    builder.String(),
		Clauses: clauses,
	}, nil
}

// isHeading recognizes section boundaries: markdown headings, numbered
// clause headings, short ALL CAPS lines, and short lines ending in a colon.
func isHeading(line string) bool {
	if markdownHeading.MatchString(line) {
		return true
	}
	if len(line) <= 80 {
		// The numeric prefix carries its own dots ("1.2 Scope"), so the
		// sentence punctuation check runs on the remainder only. A
		// remainder with sentence punctuation is a numbered clause, not
		// a heading.
		if loc := numberedPrefix.FindStringIndex(line); loc != nil {
			if rest := line[loc[1]:]; rest != "" && !strings.ContainsAny(rest, ".!?") {
				return true
			}
		}
		if strings.HasSuffix(line, ":") && !strings.Contains(line[:len(line)-1], ".") {
			return true
		}
		if isAllCaps(line) {
			return true
		}
	}
	return false
}

func isAllCaps(line string) bool {
	hasLetter := false
	for _, r := range line {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			hasLetter = true
		}
	}
	return hasLetter
}

func headingTitle(line string) string {
	title := strings.TrimLeft(line, "# ")
	title = strings.TrimRight(title, ":")
	return strings.TrimSpace(title)
}

func splitSentences(line string) []string {
	marked := sentenceEnd.ReplaceAllString(line, "$1\x00")
	return strings.Split(marked, "\x00")
}
