// Package output persists finished roundtable sessions as a JSON snapshot
// plus a human-readable Markdown transcript.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"roundtable/internal/roundtable"
)

// SaveSession writes the session next to path as JSON and as Markdown. Both
// writes are atomic so a crash never leaves a truncated transcript.
func SaveSession(path string, session roundtable.Session) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	jsonData, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := writeAtomic(path, jsonData, 0o644); err != nil {
		return fmt.Errorf("write json session file: %w", err)
	}

	mdPath := MarkdownPath(path)
	mdData := []byte(formatSessionMarkdown(session))
	if err := writeAtomic(mdPath, mdData, 0o644); err != nil {
		return fmt.Errorf("write markdown session file: %w", err)
	}
	return nil
}

func MarkdownPath(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return path + ".md"
	}
	return strings.TrimSuffix(path, ext) + ".md"
}

// NewSessionPath names the output file after the session id and start time.
func NewSessionPath(dir string, session roundtable.Session) string {
	started := session.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	id := strings.TrimSpace(session.ID)
	if id == "" {
		id = "session"
	}
	name := started.UTC().Format("20060102-150405") + "-" + id + ".json"
	return filepath.Join(dir, name)
}

func writeAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	tempFile, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tempPath := tempFile.Name()
	cleanup := func() {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
	}

	if err := tempFile.Chmod(perm); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if _, err := tempFile.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("move temp file: %w", err)
	}
	return nil
}

func formatSessionMarkdown(session roundtable.Session) string {
	var b strings.Builder

	b.WriteString("# Roundtable Session\n\n")
	b.WriteString("- session_id: " + safeText(session.ID) + "\n")
	b.WriteString("- student: " + safeText(session.Student.Name) + "\n")
	b.WriteString("- phase: " + safeText(string(session.Phase)) + "\n")
	if !session.StartedAt.IsZero() {
		b.WriteString("- started_at: " + session.StartedAt.UTC().Format(time.RFC3339) + "\n")
	}
	if !session.EndedAt.IsZero() {
		b.WriteString("- ended_at: " + session.EndedAt.UTC().Format(time.RFC3339) + "\n")
	}
	b.WriteString(fmt.Sprintf("- turns: %d\n", len(session.Utterances)))

	b.WriteString("\n## Student\n\n")
	b.WriteString(markdownBulletedText(session.Student.Summary(), "") + "\n")

	b.WriteString("\n## Mentors\n\n")
	if len(session.Mentors) == 0 {
		b.WriteString("- none\n")
	} else {
		for i, m := range session.Mentors {
			b.WriteString(fmt.Sprintf("%d. **%s** (`%s`) - %s\n",
				i+1, safeText(m.Name), safeText(m.ID), safeText(m.Expertise)))
		}
	}

	b.WriteString("\n## Participation\n\n")
	b.WriteString(formatParticipation(session))

	if len(session.TopicsCovered) > 0 {
		b.WriteString("\n## Topics Covered\n\n")
		for _, topic := range session.TopicsCovered {
			b.WriteString("- " + safeText(topic) + "\n")
		}
	}

	b.WriteString("\n## Transcript\n\n")
	if len(session.Utterances) == 0 {
		b.WriteString("- no turns\n")
	} else {
		for _, u := range session.Utterances {
			header := fmt.Sprintf("### Turn %d · %s (%s, %s)",
				u.Index, safeText(u.SpeakerName), safeText(u.Type), safeText(string(u.Phase)))
			if u.Fallback {
				header += " · fallback"
			}
			b.WriteString(header + "\n\n")
			if !u.CreatedAt.IsZero() {
				b.WriteString("- at: " + u.CreatedAt.UTC().Format(time.RFC3339) + "\n")
			}
			b.WriteString("- text:\n")
			b.WriteString(markdownBulletedText(u.Text, "  ") + "\n\n")
		}
	}

	b.WriteString("## Usage\n\n")
	b.WriteString(fmt.Sprintf("- prompt_tokens: %d\n", session.Usage.PromptTokens))
	b.WriteString(fmt.Sprintf("- completion_tokens: %d\n", session.Usage.CompletionTokens))
	b.WriteString(fmt.Sprintf("- total_tokens: %d\n", session.Usage.TotalTokens))

	b.WriteString("\n## Health\n\n")
	b.WriteString(fmt.Sprintf("- degraded_accepts: %d\n", session.Health.DegradedAccepts))
	b.WriteString(fmt.Sprintf("- placeholder_turns: %d\n", session.Health.PlaceholderTurns))
	b.WriteString(fmt.Sprintf("- round_robin_selects: %d\n", session.Health.RoundRobinSelects))
	if len(session.Health.RejectionsBySpeaker) > 0 {
		b.WriteString("- rejections:\n")
		ids := make([]string, 0, len(session.Health.RejectionsBySpeaker))
		for id := range session.Health.RejectionsBySpeaker {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			b.WriteString(fmt.Sprintf("  - %s: %d\n", safeText(id), session.Health.RejectionsBySpeaker[id]))
		}
	}
	return b.String()
}

// formatParticipation renders a turn-count table in fixed mentor order.
func formatParticipation(session roundtable.Session) string {
	if len(session.Mentors) == 0 || session.Participation == nil {
		return "- no participation data\n"
	}

	var b strings.Builder
	b.WriteString("| Mentor | Turns |\n")
	b.WriteString("| --- | ---: |\n")
	for _, m := range session.Mentors {
		b.WriteString(fmt.Sprintf("| %s | %d |\n", safeText(m.Name), session.Participation[m.ID]))
	}
	return b.String()
}

func safeText(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "-"
	}
	return strings.ReplaceAll(v, "\n", " ")
}

func markdownBulletedText(v string, indent string) string {
	v = strings.ReplaceAll(v, "\r\n", "\n")
	v = strings.TrimSpace(v)
	if v == "" {
		return indent + "- (empty)"
	}
	lines := strings.Split(v, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if hasListPrefix(trimmed) || strings.HasPrefix(trimmed, "> ") {
			out = append(out, indent+trimmed)
			continue
		}
		out = append(out, indent+"- "+trimmed)
	}
	if len(out) == 0 {
		return indent + "- (empty)"
	}
	return strings.Join(out, "\n")
}

func hasListPrefix(line string) bool {
	if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") || strings.HasPrefix(line, "+ ") {
		return true
	}
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || i+1 >= len(line) {
		return false
	}
	return line[i] == '.' && line[i+1] == ' '
}
