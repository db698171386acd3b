package roundtable

import "strings"

const defaultFragmentLen = 220

// SplitFragments breaks an utterance into short chat-bubble fragments on
// sentence boundaries, so hosts can stream a long mentor reply as a few
// messages instead of one wall of text. Fragments never split mid-sentence;
// a single oversized sentence stays whole.
func SplitFragments(text string, maxLen int) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if maxLen <= 0 {
		maxLen = defaultFragmentLen
	}
	if len(trimmed) <= maxLen {
		return []string{trimmed}
	}

	sentences := splitSentences(trimmed)
	var fragments []string
	var current strings.Builder
	for _, s := range sentences {
		if current.Len() > 0 && current.Len()+1+len(s) > maxLen {
			fragments = append(fragments, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(s)
	}
	if current.Len() > 0 {
		fragments = append(fragments, current.String())
	}
	return fragments
}

// splitSentences cuts on terminal punctuation followed by whitespace. Good
// enough for generated prose; abbreviations may over-split and that is fine
// for display purposes.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			end := i + 1
			for end < len(text) && (text[end] == '.' || text[end] == '!' || text[end] == '?') {
				end++
			}
			if end >= len(text) || text[end] == ' ' || text[end] == '\n' || text[end] == '\t' {
				s := strings.TrimSpace(text[start:end])
				if s != "" {
					sentences = append(sentences, s)
				}
				start = end
				i = end - 1
			}
		}
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}
