package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"roundtable/internal/commandutil"
	"roundtable/internal/roundtable"
	"roundtable/internal/turnfmt"
)

var tuiCommandAliases = map[string]string{
	"say":      "/say",
	"/say":     "/say",
	"s":        "/say",
	"go":       "/go",
	"/go":      "/go",
	"mentors":  "/mentors",
	"/mentors": "/mentors",
	"m":        "/mentors",
	"student":  "/student",
	"/student": "/student",
	"pause":    "/pause",
	"/pause":   "/pause",
	"resume":   "/resume",
	"/resume":  "/resume",
	"save":     "/save",
	"/save":    "/save",
	"reset":    "/reset",
	"/reset":   "/reset",
	"stop":     "/stop",
	"/stop":    "/stop",
	"follow":   "/follow",
	"/follow":  "/follow",
	"help":     "/help",
	"/help":    "/help",
	"exit":     "/exit",
	"/exit":    "/exit",
	"q":        "/exit",
}

func parseCommand(line string) (command string, arg string) {
	return commandutil.Parse(line, tuiCommandAliases)
}

func onOff(v bool) string {
	if v {
		return "ON"
	}
	return "OFF"
}

func normalizeMaxAutoTurns(v int) int {
	if v <= 0 {
		return 5
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func wrapLogLines(lines []string, width int) []string {
	if len(lines) == 0 {
		return nil
	}
	if width <= 0 {
		out := make([]string, 0, len(lines))
		out = append(out, lines...)
		return out
	}

	wrapped := make([]string, 0, len(lines)*2)
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			wrapped = append(wrapped, "")
			continue
		}
		if strings.Contains(line, "\x1b[") {
			// Keep ANSI-styled lines intact; content lines are wrapped below.
			wrapped = append(wrapped, line)
			continue
		}
		if runewidth.StringWidth(line) <= width {
			wrapped = append(wrapped, line)
			continue
		}
		wrappedText := runewidth.Wrap(line, width)
		wrapped = append(wrapped, strings.Split(wrappedText, "\n")...)
	}
	return wrapped
}

func wrapLogLinesToWidth(lines []string, width int) string {
	return strings.Join(wrapLogLines(lines, width), "\n")
}

func truncateText(text string, width int) string {
	text = strings.TrimSpace(text)
	if width <= 0 || runewidth.StringWidth(text) <= width {
		return text
	}
	if width == 1 {
		return "…"
	}
	return runewidth.Truncate(text, width, "…")
}

func formatTurnLines(turn roundtable.Utterance) []string {
	return turnfmt.FormatLines(turn, turnfmt.Options{
		Header:         renderTurnHeader,
		Separator:      renderTurnSeparator,
		ContentPrefix:  "  ",
		KeepBlankLines: true,
	})
}

func renderTurnSeparator(turn roundtable.Utterance) string {
	line := strings.Repeat("-", 58)
	if turn.Type == roundtable.TurnTypeHuman {
		line = strings.Repeat("=", 58)
	}
	return line
}

func renderTurnHeader(turn roundtable.Utterance) string {
	badge := "[M]"
	if turn.Type == roundtable.TurnTypeHuman {
		badge = "[S]"
	}

	badgeStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("31")).Padding(0, 1)
	nameStyle := lipgloss.NewStyle().Bold(true).Foreground(speakerColor(turn))
	metaStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("151"))
	if turn.Type == roundtable.TurnTypeHuman {
		badgeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("166")).Padding(0, 1)
		nameStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("222"))
	}

	label := turn.SpeakerName
	if label == "" {
		label = turn.SpeakerID
	}
	if turn.Fallback {
		label += " (fallback)"
	}

	header := lipgloss.JoinHorizontal(
		lipgloss.Left,
		badgeStyle.Render(badge),
		" ",
		metaStyle.Render(fmt.Sprintf("turn %d", turn.Index)),
		" | ",
		nameStyle.Render(label),
		" | ",
		metaStyle.Render(string(turn.Phase)),
	)
	if turn.CreatedAt.IsZero() {
		return header
	}

	timeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("151"))
	stamp := turn.CreatedAt.Local().Format(time.TimeOnly)
	return lipgloss.JoinHorizontal(lipgloss.Left, header, " | ", timeStyle.Render(stamp))
}

func speakerColor(turn roundtable.Utterance) lipgloss.Color {
	palette := []string{"45", "51", "80", "86", "111", "117", "123", "159", "194"}
	key := turn.SpeakerID
	if key == "" {
		key = turn.SpeakerName
	}
	sum := 0
	for _, r := range key {
		sum += int(r)
	}
	return lipgloss.Color(palette[sum%len(palette)])
}
