package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"roundtable/internal/output"
	"roundtable/internal/profile"
	"roundtable/internal/roundtable"
)

func (m *model) handleCommand(line string) tea.Cmd {
	command, arg := parseCommand(line)
	switch command {
	case "/exit":
		return m.handleExitCommand()
	case "/stop":
		return m.handleStopCommand(arg)
	case "/follow":
		return m.handleFollowCommand(arg)
	case "/help":
		return m.handleHelpCommand(arg)
	case "/student":
		return m.handleStudentCommand(arg)
	case "/mentors":
		return m.handleMentorsCommand(arg)
	case "/say":
		return m.handleSayCommand(arg)
	case "/go":
		return m.handleGoCommand(arg)
	case "/pause":
		return m.handlePauseCommand()
	case "/resume":
		return m.handleResumeCommand()
	case "/save":
		return m.handleSaveCommand(arg)
	case "/reset":
		return m.handleResetCommand(arg)
	default:
		return m.handleUnknownOrPlainText(line)
	}
}

func (m *model) handleExitCommand() tea.Cmd {
	if m.exchangeCancel != nil {
		m.exchangeCancel()
		m.exchangeCancel = nil
	}
	m.appendLog("bye")
	return tea.Quit
}

func (m *model) handleStopCommand(arg string) tea.Cmd {
	if arg != "" {
		m.appendLog("usage: /stop")
		return nil
	}
	if !m.running || m.exchangeCancel == nil {
		m.appendLog("no running exchange to stop")
		return nil
	}
	m.appendLog("stop requested...")
	m.exchangeCancel()
	return nil
}

func (m *model) handleFollowCommand(arg string) tea.Cmd {
	mode := strings.ToLower(strings.TrimSpace(arg))
	if mode == "" || mode == "toggle" {
		m.autoFollow = !m.autoFollow
		if m.autoFollow {
			m.logViewport.GotoBottom()
		}
		m.appendLog(fmt.Sprintf("auto-follow: %s", onOff(m.autoFollow)))
		return nil
	}

	switch mode {
	case "on":
		m.autoFollow = true
		m.logViewport.GotoBottom()
		m.appendLog("auto-follow: ON")
	case "off":
		m.autoFollow = false
		m.appendLog("auto-follow: OFF")
	default:
		m.appendLog("usage: /follow [on|off|toggle]")
	}
	return nil
}

func (m *model) handleHelpCommand(arg string) tea.Cmd {
	if arg != "" {
		m.appendLog("usage: /help")
		return nil
	}
	m.appendHelp()
	return nil
}

func (m *model) handleStudentCommand(arg string) tea.Cmd {
	if arg == "" {
		m.appendRoster()
		return nil
	}
	student, ok := profile.Find(m.roster, arg)
	if !ok {
		m.appendLog(fmt.Sprintf("unknown student id %q", arg))
		m.appendRoster()
		return nil
	}
	if m.conv.State() != roundtable.StateIdle {
		m.appendLog("a session is in progress; /reset before switching students")
		return nil
	}
	m.student = student
	m.appendLog(fmt.Sprintf("student set to %s (%s)", student.Name, student.ID))
	return nil
}

func (m *model) handleMentorsCommand(arg string) tea.Cmd {
	if arg != "" {
		m.appendLog("usage: /mentors")
		return nil
	}
	m.appendMentorList()
	return nil
}

func (m *model) handleSayCommand(arg string) tea.Cmd {
	if arg == "" {
		m.appendLog("usage: /say <message>")
		return nil
	}
	if m.running {
		m.appendLog("an exchange is already running")
		return nil
	}
	return m.startExchange(arg, repliesPerMessage)
}

func (m *model) handleGoCommand(arg string) tea.Cmd {
	n := 1
	if arg != "" {
		if _, err := fmt.Sscanf(arg, "%d", &n); err != nil || n < 1 {
			m.appendLog("usage: /go [positive count]")
			return nil
		}
	}
	if m.running {
		m.appendLog("an exchange is already running")
		return nil
	}
	return m.startExchange("", n)
}

func (m *model) handlePauseCommand() tea.Cmd {
	if err := m.conv.Pause(); err != nil {
		m.appendLog(fmt.Sprintf("pause failed: %v", err))
		return nil
	}
	m.appendLog("paused")
	return nil
}

func (m *model) handleResumeCommand() tea.Cmd {
	if err := m.conv.Resume(); err != nil {
		m.appendLog(fmt.Sprintf("resume failed: %v", err))
		return nil
	}
	m.appendLog("resumed")
	return nil
}

func (m *model) handleSaveCommand(arg string) tea.Cmd {
	if arg != "" {
		m.appendLog("usage: /save")
		return nil
	}
	snap := m.conv.Snapshot()
	if len(snap.Utterances) == 0 {
		m.appendLog("nothing to save yet")
		return nil
	}
	return saveSessionCmd(m.outputDir, snap)
}

func (m *model) handleResetCommand(arg string) tea.Cmd {
	if arg != "" {
		m.appendLog("usage: /reset")
		return nil
	}
	if m.exchangeCancel != nil {
		m.exchangeCancel()
		m.exchangeCancel = nil
	}
	m.conv.Reset()
	m.running = false
	m.totalTurnCount = 0
	m.mentorTurnCount = 0
	m.autoStreak = 0
	m.speakerTurns = make(map[string]int)
	m.lastSpeakerName = ""
	m.phase = roundtable.PhaseOpening
	m.appendLog("session reset")
	return nil
}

// startExchange streams one human message (optional) plus up to
// mentorTurns mentor replies into the event channel.
func (m *model) startExchange(message string, mentorTurns int) tea.Cmd {
	m.running = true
	m.autoFollow = true
	m.runningSince = m.now()

	runCtx, cancel := context.WithCancel(m.ctx)
	m.exchangeCancel = cancel

	if m.conv.State() == roundtable.StateIdle {
		id := m.conv.Start(m.student)
		m.appendLog(fmt.Sprintf("session %s started for %s", id, m.student.Name))
	}

	return tea.Batch(
		runExchangeCmd(runCtx, m.conv, message, mentorTurns),
		m.spin.Tick,
	)
}

func (m *model) handleUnknownOrPlainText(line string) tea.Cmd {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "/") {
		m.appendLog("unknown command. Use /say <message>, /go, /mentors, /student, /pause, /resume, /save, /reset, /help, /exit")
		return nil
	}
	// Plain text is treated as a student message.
	return m.handleCommand("/say " + trimmed)
}

func (m *model) appendMentorList() {
	if len(m.mentors) == 0 {
		m.appendLog("no mentors configured")
		return
	}
	lines := make([]string, 0, len(m.mentors)+1)
	lines = append(lines, fmt.Sprintf("mentors (%d):", len(m.mentors)))
	for i, mt := range m.mentors {
		label := fmt.Sprintf("%d. %s (%s) - %s", i+1, mt.Name, mt.ID, mt.Expertise)
		if mt.Avatar != "" {
			label = mt.Avatar + " " + label
		}
		lines = append(lines, label)
	}
	m.appendLogs(lines...)
}

func (m *model) appendRoster() {
	lines := make([]string, 0, len(m.roster)+1)
	lines = append(lines, fmt.Sprintf("students (%d):", len(m.roster)))
	for _, p := range m.roster {
		marker := " "
		if p.ID == m.student.ID {
			marker = ">"
		}
		lines = append(lines, fmt.Sprintf("%s %s - %s (%s)", marker, p.ID, p.Name, p.GradeLevel))
	}
	m.appendLogs(lines...)
}

func (m *model) appendLog(line string) {
	m.appendLogs(line)
}

func (m *model) appendLogs(lines ...string) {
	if len(lines) == 0 {
		return
	}
	m.logs = append(m.logs, lines...)

	trimmed := false
	if len(m.logs) > logBufferMax {
		m.logs = m.logs[len(m.logs)-logBufferMax:]
		trimmed = true
	}

	if trimmed || m.wrappedLogs == nil || m.wrappedWidth != m.logViewport.Width {
		m.refreshLogViewport()
		return
	}

	m.wrappedLogs = append(m.wrappedLogs, wrapLogLines(lines, m.logViewport.Width)...)
	m.logViewport.SetContent(strings.Join(m.wrappedLogs, "\n"))
	if m.autoFollow {
		m.logViewport.GotoBottom()
	}
}

func (m *model) appendTurnLog(turn roundtable.Utterance) {
	m.appendLogs(formatTurnLines(turn)...)
}

func (m *model) appendHelp() {
	m.appendLogs(
		"commands:",
		"  /say <message>  : send a message, mentors respond",
		"  /go [n]         : let mentors continue for n turns",
		"  /mentors        : show the mentor panel",
		"  /student [id]   : show roster or pick the student",
		"  /pause /resume  : stop or continue automated turns",
		"  /save           : write the session transcript",
		"  /reset          : abandon the session",
		"  /stop           : cancel the running exchange",
		"  /follow [mode]  : auto-follow log (on/off/toggle)",
		"  /help /exit",
		"shortcuts: Ctrl+P/Ctrl+N history, Ctrl+F follow toggle, PgUp/PgDn/Home/End scroll, wheel/trackpad scroll, Ctrl+L clear",
	)
}

func (m *model) pushHistory(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if len(m.commandHistory) == 0 || m.commandHistory[len(m.commandHistory)-1] != line {
		m.commandHistory = append(m.commandHistory, line)
	}
	m.historyCursor = len(m.commandHistory)
}

func (m *model) historyPrev() string {
	if len(m.commandHistory) == 0 {
		return ""
	}
	if m.historyCursor > 0 {
		m.historyCursor--
	}
	return m.commandHistory[m.historyCursor]
}

func (m *model) historyNext() string {
	if len(m.commandHistory) == 0 {
		return ""
	}
	if m.historyCursor < len(m.commandHistory)-1 {
		m.historyCursor++
		return m.commandHistory[m.historyCursor]
	}
	m.historyCursor = len(m.commandHistory)
	return ""
}

func loadMentorsCmd(conv Conversation) tea.Cmd {
	return func() tea.Msg {
		return mentorsLoadedMsg{mentors: conv.Mentors()}
	}
}

func runExchangeCmd(ctx context.Context, conv Conversation, message string, mentorTurns int) tea.Cmd {
	return func() tea.Msg {
		events := make(chan tea.Msg, 64)
		go func() {
			defer close(events)
			send := func(msg tea.Msg) bool {
				select {
				case events <- msg:
					return true
				case <-ctx.Done():
					return false
				}
			}

			if message != "" {
				u, err := conv.Say(message)
				if err != nil {
					_ = send(exchangeDoneMsg{err: err})
					return
				}
				if !send(sessionTurnMsg{turn: u}) {
					return
				}
			}

			for i := 0; i < mentorTurns; i++ {
				u, err := conv.Advance(ctx)
				if err != nil {
					if errors.Is(err, roundtable.ErrTurnCapReached) {
						_ = send(exchangeDoneMsg{capped: true})
					} else {
						_ = send(exchangeDoneMsg{err: err})
					}
					return
				}
				if !send(sessionTurnMsg{turn: u}) {
					return
				}
			}
			_ = send(exchangeDoneMsg{})
		}()

		return exchangeStartedMsg{events: events}
	}
}

func listenExchangeEventsCmd(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return exchangeStreamMsg{closed: true}
		}
		return exchangeStreamMsg{
			events:  events,
			payload: msg,
		}
	}
}

func saveSessionCmd(outputDir string, session roundtable.Session) tea.Cmd {
	return func() tea.Msg {
		path := output.NewSessionPath(outputDir, session)
		if err := output.SaveSession(path, session); err != nil {
			return sessionSavedMsg{err: err}
		}
		return sessionSavedMsg{path: path}
	}
}
