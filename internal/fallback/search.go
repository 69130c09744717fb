package fallback

import (
	"fmt"
	"strings"
	"unicode"
)

// MaxAnswerChars bounds the length of a lexical answer in characters.
const MaxAnswerChars = 2000

// NoMatchAnswer is returned when no line matches the question.
func NoMatchAnswer(question string) string {
	return fmt.Sprintf("Sorry, no relevant information found for: %s", question)
}

// Search returns up to topK corpus lines containing any question token, in
// corpus order, joined by single spaces and truncated to MaxAnswerChars.
// Provenance headers are never returned.
// Matching is case-insensitive substring matching. topK <= 0 means 1.
func Search(corpus, question string, topK int) string {
	if topK <= 0 {
		topK = 1
	}
	tokens := questionTokens(question)
	if len(tokens) == 0 {
		return NoMatchAnswer(question)
	}
	var matched []string
	for _, line := range strings.Split(corpus, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || IsHeader(line) {
			continue
		}
		lower := strings.ToLower(line)
		for _, tok := range tokens {
			if strings.Contains(lower, tok) {
				matched = append(matched, line)
				break
			}
		}
		if len(matched) >= topK {
			break
		}
	}
	if len(matched) == 0 {
		return NoMatchAnswer(question)
	}
	return truncate(strings.Join(matched, " "), MaxAnswerChars)
}

func questionTokens(question string) []string {
	fields := strings.Fields(strings.ToLower(question))
	out := fields[:0]
	for _, f := range fields {
		f = strings.TrimFunc(f, unicode.IsPunct)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
