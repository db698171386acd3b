// Package turnfmt renders committed utterances as plain text lines shared by
// the REPL and log-style outputs.
package turnfmt

import (
	"fmt"
	"strings"

	"roundtable/internal/roundtable"
)

type Options struct {
	Header         func(roundtable.Utterance) string
	Separator      func(roundtable.Utterance) string
	ContentPrefix  string
	KeepBlankLines bool
}

func FormatLines(u roundtable.Utterance, opts Options) []string {
	header := DefaultHeader(u)
	if opts.Header != nil {
		header = opts.Header(u)
	}

	separator := defaultSeparator(u)
	if opts.Separator != nil {
		separator = opts.Separator(u)
	}

	prefix := opts.ContentPrefix
	if prefix == "" {
		prefix = "  "
	}

	lines := []string{"", separator, header}
	contentLines := strings.Split(strings.TrimSpace(u.Text), "\n")
	appended := false

	for _, line := range contentLines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if opts.KeepBlankLines {
				lines = append(lines, "")
			}
			continue
		}
		lines = append(lines, prefix+trimmed)
		appended = true
	}
	if !appended {
		lines = append(lines, prefix+"(empty)")
	}
	lines = append(lines, separator, "")
	return lines
}

// DefaultHeader renders "[3] Ms. Park (mentor, opening)" with a fallback
// marker when the turn was degraded.
func DefaultHeader(u roundtable.Utterance) string {
	name := strings.TrimSpace(u.SpeakerName)
	if name == "" {
		name = strings.TrimSpace(u.SpeakerID)
	}
	if name == "" {
		name = "unknown"
	}
	header := fmt.Sprintf("[%d] %s (%s, %s)", u.Index, name, u.Type, u.Phase)
	if u.Fallback {
		header += " [fallback]"
	}
	return header
}

func defaultSeparator(roundtable.Utterance) string {
	return "---"
}
