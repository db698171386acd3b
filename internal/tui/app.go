package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"roundtable/internal/mentor"
	"roundtable/internal/profile"
	"roundtable/internal/roundtable"
)

// Conversation is the controller surface the TUI drives. Satisfied by
// *roundtable.Controller.
type Conversation interface {
	Start(student profile.StudentProfile) string
	Say(text string) (roundtable.Utterance, error)
	Advance(ctx context.Context) (roundtable.Utterance, error)
	Pause() error
	Resume() error
	Reset()
	State() roundtable.State
	Mentors() []mentor.Mentor
	Snapshot() roundtable.Session
}

type Config struct {
	Conversation Conversation
	Roster       []profile.StudentProfile
	OutputDir    string
	MaxAutoTurns int
	Now          func() time.Time
}

type App struct {
	conv         Conversation
	roster       []profile.StudentProfile
	outputDir    string
	maxAutoTurns int
	now          func() time.Time
}

func NewApp(cfg Config) *App {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	roster := cfg.Roster
	if len(roster) == 0 {
		roster = profile.SampleRoster()
	}

	return &App{
		conv:         cfg.Conversation,
		roster:       roster,
		outputDir:    cfg.OutputDir,
		maxAutoTurns: normalizeMaxAutoTurns(cfg.MaxAutoTurns),
		now:          cfg.Now,
	}
}

func (a *App) Start(ctx context.Context) error {
	if a.conv == nil {
		return errors.New("conversation is required")
	}

	m := newModel(ctx, modelConfig{
		Conversation: a.conv,
		Roster:       a.roster,
		OutputDir:    a.outputDir,
		MaxAutoTurns: a.maxAutoTurns,
		Now:          a.now,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

type modelConfig struct {
	Conversation Conversation
	Roster       []profile.StudentProfile
	OutputDir    string
	MaxAutoTurns int
	Now          func() time.Time
}

type model struct {
	ctx context.Context

	conv         Conversation
	roster       []profile.StudentProfile
	student      profile.StudentProfile
	outputDir    string
	maxAutoTurns int
	now          func() time.Time

	input           textinput.Model
	logViewport     viewport.Model
	spin            spinner.Model
	logs            []string
	wrappedLogs     []string
	wrappedWidth    int
	width           int
	height          int
	running         bool
	runningSince    time.Time
	totalTurnCount  int
	mentorTurnCount int
	autoStreak      int
	speakerTurns    map[string]int
	lastSpeakerName string
	phase           roundtable.Phase
	autoFollow      bool
	exchangeCancel  context.CancelFunc

	commandHistory []string
	historyCursor  int

	mentors      []mentor.Mentor
	lastSavePath string
}

const (
	defaultWidth  = 100
	defaultHeight = 32
	logBufferMax  = 4000
	scrollStep    = 5

	// repliesPerMessage bounds how many mentors answer one student
	// message before the exchange stream closes.
	repliesPerMessage = 3
)

type mentorsLoadedMsg struct {
	mentors []mentor.Mentor
}

type sessionTurnMsg struct {
	turn roundtable.Utterance
}

type exchangeStartedMsg struct {
	events <-chan tea.Msg
}

type exchangeStreamMsg struct {
	events  <-chan tea.Msg
	payload tea.Msg
	closed  bool
}

type exchangeDoneMsg struct {
	capped bool
	err    error
}

type sessionSavedMsg struct {
	path string
	err  error
}

func newModel(ctx context.Context, cfg modelConfig) model {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	roster := cfg.Roster
	if len(roster) == 0 {
		roster = profile.SampleRoster()
	}

	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "Ask the mentors anything. /say <message> or just type a sentence"
	ti.Focus()
	ti.CharLimit = 1024 * 32
	ti.Width = defaultWidth - 4

	vp := viewport.New(defaultWidth-4, defaultHeight-12)
	vp.SetContent("")

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("45"))

	m := model{
		ctx:           ctx,
		conv:          cfg.Conversation,
		roster:        roster,
		student:       roster[0],
		outputDir:     cfg.OutputDir,
		maxAutoTurns:  normalizeMaxAutoTurns(cfg.MaxAutoTurns),
		now:           cfg.Now,
		input:         ti,
		logViewport:   vp,
		spin:          sp,
		logs:          []string{"Mentor Roundtable ready."},
		width:         defaultWidth,
		height:        defaultHeight,
		autoFollow:    true,
		phase:         roundtable.PhaseOpening,
		speakerTurns:  make(map[string]int),
		historyCursor: 0,
	}
	m.resizeLayout()
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, loadMentorsCmd(m.conv), m.spin.Tick)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		m.resizeLayout()
		return m, nil

	case spinner.TickMsg:
		return m, m.updateSpinner(typed)

	case tea.KeyMsg:
		if cmd, handled := m.handleKeyMessage(typed); handled {
			return m, cmd
		}

	case mentorsLoadedMsg:
		m.mentors = typed.mentors
		m.appendLog(fmt.Sprintf("Panel ready: %d mentors. Student: %s (%s)", len(typed.mentors), m.student.Name, m.student.ID))
		return m, nil

	case exchangeStartedMsg:
		return m, listenExchangeEventsCmd(typed.events)

	case exchangeStreamMsg:
		return m.handleExchangeStreamMessage(typed)

	case exchangeDoneMsg:
		// Direct completion without a stream wrapper; treat as final event.
		m.applyExchangeDone(typed)
		return m, nil

	case sessionSavedMsg:
		m.applySessionSaved(typed)
		return m, nil
	}

	return m, m.updateInteractiveInputs(msg)
}

func (m *model) updateSpinner(msg spinner.TickMsg) tea.Cmd {
	var cmd tea.Cmd
	m.spin, cmd = m.spin.Update(msg)
	if m.running {
		return cmd
	}
	return nil
}

func (m *model) handleKeyMessage(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.exchangeCancel != nil {
			m.exchangeCancel()
			m.exchangeCancel = nil
		}
		return tea.Quit, true
	case tea.KeyCtrlF:
		m.autoFollow = !m.autoFollow
		if m.autoFollow {
			m.logViewport.GotoBottom()
		}
		m.appendLog(fmt.Sprintf("auto-follow: %s", onOff(m.autoFollow)))
		return nil, true
	case tea.KeyCtrlL:
		m.logs = nil
		m.refreshLogViewport()
		return nil, true
	case tea.KeyCtrlP:
		m.input.SetValue(m.historyPrev())
		m.input.CursorEnd()
		return nil, true
	case tea.KeyCtrlN:
		m.input.SetValue(m.historyNext())
		m.input.CursorEnd()
		return nil, true
	case tea.KeyPgUp:
		m.autoFollow = false
		m.logViewport.LineUp(scrollStep)
		return nil, true
	case tea.KeyPgDown:
		m.autoFollow = false
		m.logViewport.LineDown(scrollStep)
		return nil, true
	case tea.KeyHome:
		m.autoFollow = false
		m.logViewport.GotoTop()
		return nil, true
	case tea.KeyEnd:
		m.autoFollow = true
		m.logViewport.GotoBottom()
		return nil, true
	case tea.KeyEnter:
		cmdLine := strings.TrimSpace(m.input.Value())
		m.input.SetValue("")
		if cmdLine == "" {
			return nil, true
		}
		m.pushHistory(cmdLine)
		return m.handleCommand(cmdLine), true
	default:
		return nil, false
	}
}

func (m *model) handleExchangeStreamMessage(msg exchangeStreamMsg) (tea.Model, tea.Cmd) {
	if msg.closed {
		if m.running {
			m.running = false
			m.exchangeCancel = nil
			m.appendLog("exchange stream closed")
		}
		return *m, nil
	}

	switch payload := msg.payload.(type) {
	case sessionTurnMsg:
		m.applyTurn(payload.turn)
		return *m, listenExchangeEventsCmd(msg.events)
	case exchangeDoneMsg:
		m.applyExchangeDone(payload)
		return *m, nil
	default:
		return *m, listenExchangeEventsCmd(msg.events)
	}
}

func (m *model) applyTurn(turn roundtable.Utterance) {
	m.totalTurnCount++
	if turn.Type == roundtable.TurnTypeMentor {
		m.mentorTurnCount++
		m.autoStreak++
	} else {
		m.autoStreak = 0
	}
	m.speakerTurns[turn.SpeakerID]++
	m.lastSpeakerName = turn.SpeakerName
	if turn.Phase != "" {
		m.phase = turn.Phase
	}
	m.appendTurnLog(turn)
}

func (m *model) applyExchangeDone(msg exchangeDoneMsg) {
	m.running = false
	m.exchangeCancel = nil
	if msg.err != nil {
		m.appendLog(fmt.Sprintf("exchange failed: %v", msg.err))
		return
	}
	if msg.capped {
		m.appendLog("the mentors pause here; say something to continue or /resume")
	}
}

func (m *model) applySessionSaved(msg sessionSavedMsg) {
	if msg.err != nil {
		m.appendLog(fmt.Sprintf("save failed: %v", msg.err))
		return
	}
	m.lastSavePath = msg.path
	m.appendLog("saved session: " + msg.path)
}

func (m *model) updateInteractiveInputs(msg tea.Msg) tea.Cmd {
	mouseWheelUp, mouseWheelDown := isMouseWheelScroll(msg)
	var viewportCmd tea.Cmd
	var inputCmd tea.Cmd
	m.logViewport, viewportCmd = m.logViewport.Update(msg)
	m.input, inputCmd = m.input.Update(msg)
	if mouseWheelUp {
		m.autoFollow = false
	}
	if mouseWheelDown && m.logViewport.AtBottom() {
		m.autoFollow = true
	}
	return tea.Batch(viewportCmd, inputCmd)
}

func isMouseWheelScroll(msg tea.Msg) (up bool, down bool) {
	mm, ok := msg.(tea.MouseMsg)
	if !ok || mm.Action != tea.MouseActionPress {
		return false, false
	}
	switch mm.Button { //nolint:exhaustive
	case tea.MouseButtonWheelUp:
		return true, false
	case tea.MouseButtonWheelDown:
		return false, true
	default:
		return false, false
	}
}
