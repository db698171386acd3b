package roundtable

// phaseForTotal maps a committed turn count onto the conversation phase.
// Thresholds are inclusive upper bounds: with the default [3,7,10], totals
// 0-3 are opening, 4-7 development, 8-10 synthesis, 11+ conclusion.
func phaseForTotal(total int, thresholds [3]int) Phase {
	switch {
	case total <= thresholds[0]:
		return PhaseOpening
	case total <= thresholds[1]:
		return PhaseDevelopment
	case total <= thresholds[2]:
		return PhaseSynthesis
	default:
		return PhaseConclusion
	}
}

// PhaseGuidance returns the generation instruction for a phase, steering
// mentors from broad introductions toward concrete action items.
func PhaseGuidance(phase Phase) string {
	switch phase {
	case PhaseOpening:
		return "Establish your unique perspective and introduce key concepts. Be foundational but specific."
	case PhaseDevelopment:
		return "Build on previous insights with deeper analysis. Connect your expertise to other mentors' points."
	case PhaseSynthesis:
		return "Synthesize ideas and provide integrated solutions. Show how different perspectives work together."
	case PhaseConclusion:
		return "Provide concrete action items and next steps. Focus on immediate, implementable advice."
	default:
		return "Build on previous insights with deeper analysis. Connect your expertise to other mentors' points."
	}
}
