package tui

import (
	"fmt"
	"strings"
)

func (m *model) buildMentorPanel(width int, maxLines int) string {
	if maxLines <= 0 {
		maxLines = 1
	}
	if len(m.mentors) == 0 {
		return buildEmptyMentorPanel(width, maxLines)
	}
	if m.shouldUseCompactMentorPanel(width, maxLines) {
		return m.buildCompactMentorPanel(width, maxLines)
	}

	lines := make([]string, 0, maxLines)
	nameWidth := maxInt(10, width-15)
	metaWidth := maxInt(10, width-6)
	rendered := 0
	maxTurns := maxSpeakerTurns(m.speakerTurns)

	for i, mt := range m.mentors {
		marker := " "
		if strings.TrimSpace(m.lastSpeakerName) != "" && mt.Name == m.lastSpeakerName {
			marker = ">"
		}

		turns := m.speakerTurns[mt.ID]
		label := mt.Name
		if mt.Avatar != "" {
			label = mt.Avatar + " " + label
		}
		block := []string{
			fmt.Sprintf("%s %2d) %s [%dT] %s", marker, i+1, truncateText(label, nameWidth), turns, miniMeter(turns, maxTurns, 4)),
			fmt.Sprintf("    %s", truncateText(mt.Expertise, metaWidth)),
		}

		if len(mt.Keywords.High) > 0 {
			block = append(block, "    "+truncateText("focus: "+strings.Join(mt.Keywords.High, ", "), metaWidth))
		}
		block = append(block, "")

		if len(lines)+len(block) > maxLines {
			break
		}
		lines = append(lines, block...)
		rendered = i + 1
	}

	if strings.TrimSpace(m.lastSpeakerName) != "" {
		lines = appendOverflowLine(lines, "last speaker: "+truncateText(m.lastSpeakerName, width), maxLines, width)
	}
	if rendered < len(m.mentors) {
		lines = appendOverflowLine(lines, fmt.Sprintf("... +%d more mentors", len(m.mentors)-rendered), maxLines, width)
	}
	return strings.Join(lines, "\n")
}

func buildEmptyMentorPanel(width int, maxLines int) string {
	if maxLines <= 1 {
		return truncateText("no mentors configured", maxInt(12, width))
	}
	lines := []string{
		truncateText("(no mentors configured)", maxInt(12, width)),
		truncateText("check the mentor file", maxInt(12, width)),
	}
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return strings.Join(lines, "\n")
}

func (m model) shouldUseCompactMentorPanel(width int, maxLines int) bool {
	if width < 34 {
		return true
	}
	return len(m.mentors)*3 > maxLines
}

func (m model) buildCompactMentorPanel(width int, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := make([]string, 0, maxLines)
	nameWidth := maxInt(10, width-15)
	overflow := len(m.mentors) > maxLines
	visible := maxLines
	maxTurns := maxSpeakerTurns(m.speakerTurns)
	if overflow {
		visible = maxLines - 1
	}
	if visible < 0 {
		visible = 0
	}

	for i := 0; i < len(m.mentors) && i < visible; i++ {
		mt := m.mentors[i]
		marker := " "
		if strings.TrimSpace(m.lastSpeakerName) != "" && mt.Name == m.lastSpeakerName {
			marker = ">"
		}
		turns := m.speakerTurns[mt.ID]
		lines = append(lines, fmt.Sprintf("%s %2d) %s [%dT] %s", marker, i+1, truncateText(mt.Name, nameWidth), turns, miniMeter(turns, maxTurns, 3)))
	}
	if overflow {
		lines = appendOverflowLine(lines, fmt.Sprintf("... +%d more mentors", len(m.mentors)-visible), maxLines, width)
	}
	return strings.Join(lines, "\n")
}

func appendOverflowLine(lines []string, line string, maxLines int, width int) []string {
	line = truncateText(line, maxInt(12, width))
	if maxLines <= 0 {
		return lines
	}
	if len(lines) < maxLines {
		return append(lines, line)
	}
	if len(lines) == 0 {
		return lines
	}
	lines[maxLines-1] = line
	return lines
}

func maxSpeakerTurns(turns map[string]int) int {
	maxTurns := 0
	for _, t := range turns {
		if t > maxTurns {
			maxTurns = t
		}
	}
	if maxTurns <= 0 {
		return 1
	}
	return maxTurns
}
