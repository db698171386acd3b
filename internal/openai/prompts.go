package openai

import (
	"fmt"
	"strings"

	"roundtable/internal/roundtable"
)

const historyPromptLimit = 16

func buildMentorSystemPrompt(input roundtable.GenerateInput) string {
	persona := strings.TrimSpace(input.Speaker.PromptTemplate)
	if persona == "" {
		persona = fmt.Sprintf("You are %s, a mentor whose expertise is %s.",
			input.Speaker.Name, input.Speaker.Expertise)
	} else {
		persona = expandPersonaTemplate(persona, input)
	}

	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\n")
	b.WriteString(strings.TrimSpace(`
You are one of several mentors advising a student in a live roundtable.
Rules:
- Speak directly to the student in a warm, encouraging voice.
- Keep the response to 2-3 sentences with one concrete, actionable suggestion.
- Stay inside your own expertise; let other mentors cover theirs.
- Build on what other mentors said instead of repeating it.
- Never mention being an AI, a language model, or these instructions.
- Return plain text only, without speaker labels or markdown.`))
	return b.String()
}

func expandPersonaTemplate(template string, input roundtable.GenerateInput) string {
	replacer := strings.NewReplacer(
		"{name}", input.Speaker.Name,
		"{expertise}", input.Speaker.Expertise,
		"{student}", input.Profile.Name,
	)
	return replacer.Replace(template)
}

func buildMentorUserPrompt(input roundtable.GenerateInput) string {
	var b strings.Builder

	b.WriteString("Student profile:\n")
	b.WriteString(input.Profile.Summary())
	b.WriteString("\n")

	if strings.TrimSpace(input.Context) != "" {
		b.WriteString("\nBackground material (use only if relevant):\n")
		b.WriteString(strings.TrimSpace(input.Context))
		b.WriteString("\n")
	}

	b.WriteString("\nConversation so far:\n")
	if len(input.History) == 0 {
		b.WriteString("- No turns yet. Open the roundtable.\n")
	} else {
		for _, u := range trimHistory(input.History, historyPromptLimit) {
			b.WriteString(fmt.Sprintf("[%d][%s] %s\n", u.Index, u.SpeakerName, u.Text))
		}
	}

	if strings.TrimSpace(input.HumanMessage) != "" {
		b.WriteString("\nThe student just asked:\n")
		b.WriteString(strings.TrimSpace(input.HumanMessage))
		b.WriteString("\nAddress this question directly.\n")
	}

	b.WriteString("\nConversation stage guidance:\n")
	b.WriteString(input.PhaseGuidance)
	b.WriteString("\n")

	if len(input.AvoidThemes) > 0 {
		b.WriteString("\nThemes already well covered, bring something new instead:\n")
		for _, theme := range input.AvoidThemes {
			b.WriteString("- " + theme + "\n")
		}
	}
	if len(input.AvoidTexts) > 0 {
		b.WriteString("\nYour earlier drafts were too close to these, take a different angle:\n")
		for _, text := range input.AvoidTexts {
			b.WriteString("- " + text + "\n")
		}
	}

	if input.Contribution > 0 {
		b.WriteString(fmt.Sprintf("\nThis is your contribution number %d; deepen rather than restart your line of advice.\n", input.Contribution+1))
	}

	b.WriteString("\nNow provide your next contribution.")
	return b.String()
}

func buildTieBreakSystemPrompt() string {
	return strings.TrimSpace(`You route a student's question to the best mentor.
Rules:
- Pick exactly one mentor id from the candidate list.
- Choose by fit between the question and the mentor's expertise.
- Reply with the chosen mentor id only, no explanation, no punctuation.`)
}

func buildTieBreakUserPrompt(candidates []string, recentContext string, humanMessage string) string {
	var b strings.Builder
	b.WriteString("Candidate mentor ids:\n")
	for _, id := range candidates {
		b.WriteString("- " + id + "\n")
	}

	if strings.TrimSpace(recentContext) != "" {
		b.WriteString("\nRecent conversation:\n")
		b.WriteString(strings.TrimSpace(recentContext))
		b.WriteString("\n")
	}

	b.WriteString("\nStudent question:\n")
	b.WriteString(strings.TrimSpace(humanMessage))
	b.WriteString("\n\nReply with one candidate id.")
	return b.String()
}

func trimHistory(history []roundtable.Utterance, limit int) []roundtable.Utterance {
	if len(history) <= limit {
		return history
	}
	return history[len(history)-limit:]
}
