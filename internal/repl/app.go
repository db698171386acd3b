// Package repl is the line-oriented host for non-TTY sessions: slash
// commands drive the conversation, plain text is treated as a student
// message.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"roundtable/internal/commandutil"
	"roundtable/internal/mentor"
	"roundtable/internal/output"
	"roundtable/internal/profile"
	"roundtable/internal/roundtable"
	"roundtable/internal/turnfmt"
)

// Conversation is the controller surface the REPL drives. Satisfied by
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
	Writer       io.Writer
	Now          func() time.Time
}

type App struct {
	conv      Conversation
	roster    []profile.StudentProfile
	outputDir string
	writer    io.Writer
	now       func() time.Time

	student      profile.StudentProfile
	lastSavePath string
}

const maxREPLInputBytes = 1024 * 1024

// repliesPerMessage bounds how many mentors answer one student message
// before the prompt returns.
const repliesPerMessage = 3

var replCommandAliases = map[string]string{
	"s": "say",
	"m": "mentors",
	"q": "exit",
	"?": "help",
}

func NewApp(cfg Config) *App {
	if cfg.Writer == nil {
		cfg.Writer = io.Discard
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	roster := cfg.Roster
	if len(roster) == 0 {
		roster = profile.SampleRoster()
	}
	return &App{
		conv:      cfg.Conversation,
		roster:    roster,
		outputDir: cfg.OutputDir,
		writer:    cfg.Writer,
		now:       cfg.Now,
		student:   roster[0],
	}
}

func (a *App) Start(ctx context.Context, in io.Reader) error {
	if a.conv == nil {
		return errors.New("conversation is required")
	}
	if in == nil {
		return errors.New("input reader is required")
	}

	a.printLine("Mentor Roundtable REPL")
	a.printLine("Commands: /start [student-id], /say <msg>, /go [n], /mentors, /status, /pause, /resume, /save, /reset, /help, /exit")
	a.printLine(fmt.Sprintf("Student: %s (%s). Plain text is sent as your message.", a.student.Name, a.student.ID))

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxREPLInputBytes)
	for {
		if _, err := fmt.Fprint(a.writer, "roundtable> "); err != nil {
			return err
		}
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return err
			}
			a.printLine("")
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if a.handleLine(ctx, line) {
			return nil
		}
	}
}

func (a *App) handleLine(ctx context.Context, line string) bool {
	if !commandutil.IsCommand(line) {
		a.sendMessage(ctx, line)
		return false
	}

	command, arg := commandutil.Parse(line, replCommandAliases)
	switch command {
	case "exit":
		a.printLine("bye")
		return true
	case "help":
		a.printHelp()
	case "start":
		a.startSession(arg)
	case "say":
		if arg == "" {
			a.printLine("usage: /say <message>")
			return false
		}
		a.sendMessage(ctx, arg)
	case "go":
		a.advanceTurns(ctx, arg)
	case "mentors":
		a.showMentors()
	case "status":
		a.showStatus()
	case "pause":
		if err := a.conv.Pause(); err != nil {
			a.printLine(fmt.Sprintf("pause failed: %v", err))
		} else {
			a.printLine("paused")
		}
	case "resume":
		if err := a.conv.Resume(); err != nil {
			a.printLine(fmt.Sprintf("resume failed: %v", err))
		} else {
			a.printLine("resumed")
		}
	case "save":
		a.saveSession()
	case "reset":
		a.conv.Reset()
		a.printLine("session reset")
	default:
		a.printLine("unknown command. Use /help for the command list")
	}
	return false
}

func (a *App) startSession(arg string) {
	if arg != "" {
		student, ok := profile.Find(a.roster, arg)
		if !ok {
			a.printLine(fmt.Sprintf("unknown student id %q; known ids:", arg))
			for _, p := range a.roster {
				a.printLine("  " + p.ID + " - " + p.Name)
			}
			return
		}
		a.student = student
	}

	id := a.conv.Start(a.student)
	a.printLine(fmt.Sprintf("session %s started for %s", id, a.student.Name))
}

func (a *App) sendMessage(ctx context.Context, text string) {
	if a.conv.State() == roundtable.StateIdle {
		a.startSession("")
	}

	u, err := a.conv.Say(text)
	if err != nil {
		a.printLine(fmt.Sprintf("message rejected: %v", err))
		return
	}
	a.printUtterance(u)

	for i := 0; i < repliesPerMessage; i++ {
		if !a.advanceOnce(ctx) {
			return
		}
	}
}

func (a *App) advanceTurns(ctx context.Context, arg string) {
	n := 1
	if arg != "" {
		parsed, err := strconv.Atoi(arg)
		if err != nil || parsed < 1 {
			a.printLine("usage: /go [positive count]")
			return
		}
		n = parsed
	}
	if a.conv.State() == roundtable.StateIdle {
		a.startSession("")
	}
	for i := 0; i < n; i++ {
		if !a.advanceOnce(ctx) {
			return
		}
	}
}

// advanceOnce commits one mentor turn and reports whether advancing may
// continue.
func (a *App) advanceOnce(ctx context.Context) bool {
	u, err := a.conv.Advance(ctx)
	switch {
	case err == nil:
		a.printUtterance(u)
		return true
	case errors.Is(err, roundtable.ErrTurnCapReached):
		a.printLine("the mentors pause here; say something to continue or /resume")
		return false
	default:
		a.printLine(fmt.Sprintf("turn failed: %v", err))
		return false
	}
}

func (a *App) showMentors() {
	mentors := a.conv.Mentors()
	if len(mentors) == 0 {
		a.printLine("no mentors configured")
		return
	}
	a.printLine(fmt.Sprintf("mentors (%d):", len(mentors)))
	for i, m := range mentors {
		line := fmt.Sprintf("%d. %s (%s) - %s", i+1, m.Name, m.ID, m.Expertise)
		if m.Avatar != "" {
			line = m.Avatar + " " + line
		}
		a.printLine(line)
	}
}

func (a *App) showStatus() {
	snap := a.conv.Snapshot()
	a.printLine("state: " + string(a.conv.State()))
	a.printLine("phase: " + string(snap.Phase))
	a.printLine(fmt.Sprintf("turns: %d", len(snap.Utterances)))
	if len(snap.TopicsCovered) > 0 {
		a.printLine("topics: " + strings.Join(snap.TopicsCovered, ", "))
	}
	for _, m := range snap.Mentors {
		a.printLine(fmt.Sprintf("  %s: %d turns", m.Name, snap.Participation[m.ID]))
	}
	if a.lastSavePath != "" {
		a.printLine("last save: " + a.lastSavePath)
	}
}

func (a *App) saveSession() {
	snap := a.conv.Snapshot()
	if len(snap.Utterances) == 0 {
		a.printLine("nothing to save yet")
		return
	}

	path := output.NewSessionPath(a.outputDir, snap)
	if err := output.SaveSession(path, snap); err != nil {
		a.printLine(fmt.Sprintf("save failed: %v", err))
		return
	}
	a.lastSavePath = path
	a.printLine("saved session: " + path)
	a.printLine("saved markdown: " + output.MarkdownPath(path))
}

func (a *App) printUtterance(u roundtable.Utterance) {
	for _, line := range turnfmt.FormatLines(u, turnfmt.Options{
		Separator: func(u roundtable.Utterance) string {
			if u.Type == roundtable.TurnTypeHuman {
				return strings.Repeat("=", 52)
			}
			return strings.Repeat("-", 52)
		},
	}) {
		a.printLine(line)
	}
}

func (a *App) printLine(msg string) {
	_, _ = fmt.Fprintln(a.writer, msg)
}

func (a *App) printHelp() {
	a.printLine("commands:")
	a.printLine("  /start [student-id] : start a session (default student otherwise)")
	a.printLine("  /say <message>      : send a message, mentors respond")
	a.printLine("  /go [n]             : let mentors continue for n turns")
	a.printLine("  /mentors            : list the mentor panel")
	a.printLine("  /status             : show phase, topics, participation")
	a.printLine("  /pause /resume      : stop or continue automated turns")
	a.printLine("  /save               : write the session transcript")
	a.printLine("  /reset              : abandon the session")
	a.printLine("  /help /exit")
}
