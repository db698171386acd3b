package tui

import (
	"fmt"
	"strings"

	"roundtable/internal/roundtable"
)

func (m model) conversationState() roundtable.State {
	if m.conv == nil {
		return roundtable.StateIdle
	}
	return m.conv.State()
}

// progressLine shows how close the mentors are to the consecutive
// automated-turn cap before the floor returns to the student.
func (m model) progressLine(width int) string {
	if m.maxAutoTurns <= 0 {
		return "auto-turn window  unbounded"
	}

	barWidth := minInt(30, maxInt(12, width-34))
	bar := renderProgressBar(barWidth, m.autoStreak, m.maxAutoTurns)
	pct := int((float64(m.autoStreak) / float64(m.maxAutoTurns)) * 100)
	if pct > 100 {
		pct = 100
	}
	return fmt.Sprintf("auto-turn window  %s  %d/%d (%d%%)", bar, m.autoStreak, m.maxAutoTurns, pct)
}

func renderProgressBar(width int, current int, total int) string {
	if width <= 0 {
		return "[]"
	}
	if total <= 0 {
		if current <= 0 {
			return "[" + strings.Repeat("░", width) + "]"
		}
		return "[" + strings.Repeat("█", width) + "]"
	}

	ratio := float64(current) / float64(total)
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	filled := int(ratio * float64(width))
	if current > 0 && filled == 0 {
		filled = 1
	}
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

func (m model) mentorActivityLine(width int) string {
	if len(m.mentors) == 0 {
		return "-"
	}

	maxTurnsBySpeaker := 0
	for _, mt := range m.mentors {
		if t := m.speakerTurns[mt.ID]; t > maxTurnsBySpeaker {
			maxTurnsBySpeaker = t
		}
	}
	if maxTurnsBySpeaker == 0 {
		return "no-turns"
	}

	parts := make([]string, 0, len(m.mentors))
	for _, mt := range m.mentors {
		label := mentorInitial(mt.Name)
		meter := miniMeter(m.speakerTurns[mt.ID], maxTurnsBySpeaker, 4)
		parts = append(parts, fmt.Sprintf("%s%s", label, meter))
	}
	return truncateText(strings.Join(parts, " "), width)
}

func miniMeter(value int, maxValue int, width int) string {
	if width <= 0 {
		return ""
	}
	if maxValue <= 0 {
		return strings.Repeat("·", width)
	}
	filled := int((float64(value) / float64(maxValue)) * float64(width))
	if value > 0 && filled == 0 {
		filled = 1
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("▮", filled) + strings.Repeat("▯", width-filled)
}

func mentorInitial(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "?"
	}
	for _, r := range name {
		return strings.ToUpper(string(r))
	}
	return "?"
}
