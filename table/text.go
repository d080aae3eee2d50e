package table

import (
	"strings"
	"unicode/utf8"
)

// Wrap breaks s into lines no wider than w according to measure. Explicit
// newlines are kept; words wider than w are split between runes. An empty
// string yields one empty line.
func Wrap(measure func(string) float64, s string, w float64) []string {
	s = strings.ReplaceAll(s, "\r", "")
	var lines []string
	for _, para := range strings.Split(s, "\n") {
		lines = append(lines, wrapParagraph(measure, para, w)...)
	}
	return lines
}

func wrapParagraph(measure func(string) float64, para string, w float64) []string {
	words := strings.Fields(para)
	if len(words) == 0 {
		return []string{""}
	}
	var lines []string
	cur := ""
	for _, word := range words {
		if measure(word) > w {
			if cur != "" {
				lines = append(lines, cur)
				cur = ""
			}
			pieces := splitWord(measure, word, w)
			lines = append(lines, pieces[:len(pieces)-1]...)
			cur = pieces[len(pieces)-1]
			continue
		}
		candidate := word
		if cur != "" {
			candidate = cur + " " + word
		}
		if measure(candidate) > w && cur != "" {
			lines = append(lines, cur)
			cur = word
			continue
		}
		cur = candidate
	}
	return append(lines, cur)
}

func splitWord(measure func(string) float64, word string, w float64) []string {
	var pieces []string
	start := 0
	for i := 0; i < len(word); {
		_, size := utf8.DecodeRuneInString(word[i:])
		if i > start && measure(word[start:i+size]) > w {
			pieces = append(pieces, word[start:i])
			start = i
		}
		i += size
	}
	return append(pieces, word[start:])
}
