// Package web hosts the roundtable behind an HTTP API with a small
// embedded single-page UI. One App serves one conversation.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"roundtable/internal/mentor"
	"roundtable/internal/output"
	"roundtable/internal/profile"
	"roundtable/internal/roundtable"
)

const (
	defaultAddr       = ":8080"
	maxRequestBytes   = 2 * 1024 * 1024
	serverStopTimeout = 5 * time.Second

	// repliesPerMessage bounds how many mentors answer one student
	// message in /api/session/say and the SSE stream.
	repliesPerMessage = 3

	// fragmentMaxLen is the chat-bubble size for streamed mentor replies.
	fragmentMaxLen = 220
)

// Conversation is the controller surface the web host drives. Satisfied
// by *roundtable.Controller.
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
	Conversation     Conversation
	Roster           []profile.StudentProfile
	OutputDir        string
	MaxBufferedTurns int
	Now              func() time.Time
}

type App struct {
	conv      Conversation
	roster    []profile.StudentProfile
	outputDir string
	now       func() time.Time

	mu      sync.Mutex
	student profile.StudentProfile
	feed    *turnFeed
}

type startSessionRequest struct {
	StudentID string `json:"student_id,omitempty"`
}

type sayRequest struct {
	Message string `json:"message"`
}

type advanceRequest struct {
	Turns int `json:"turns,omitempty"`
}

type sessionResponse struct {
	SessionID string                 `json:"session_id"`
	Student   profile.StudentProfile `json:"student"`
	State     roundtable.State       `json:"state"`
}

type exchangeResponse struct {
	Human   *roundtable.Utterance  `json:"human,omitempty"`
	Replies []roundtable.Utterance `json:"replies"`
	Capped  bool                   `json:"capped"`
	State   roundtable.State       `json:"state"`
}

type mentorsResponse struct {
	Mentors []mentor.Mentor `json:"mentors"`
}

type rosterResponse struct {
	Students []profile.StudentProfile `json:"students"`
}

type saveResponse struct {
	SavedJSONPath     string `json:"saved_json_path"`
	SavedMarkdownPath string `json:"saved_markdown_path"`
}

type stateResponse struct {
	State roundtable.State `json:"state"`
}

type turnsResponse struct {
	Turns  []roundtable.Utterance `json:"turns"`
	Cursor int                    `json:"cursor"`
}

type streamStartEvent struct {
	SessionID string           `json:"session_id"`
	Message   string           `json:"message"`
	State     roundtable.State `json:"state"`
}

type streamFragmentEvent struct {
	TurnIndex int    `json:"turn_index"`
	SpeakerID string `json:"speaker_id"`
	Seq       int    `json:"seq"`
	Total     int    `json:"total"`
	Text      string `json:"text"`
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
		conv:      cfg.Conversation,
		roster:    roster,
		outputDir: cfg.OutputDir,
		now:       cfg.Now,
		student:   roster[0],
		feed:      newTurnFeed(cfg.MaxBufferedTurns),
	}
}

func (a *App) Start(ctx context.Context, addr string) error {
	if a.conv == nil {
		return errors.New("conversation is required")
	}
	if strings.TrimSpace(addr) == "" {
		addr = defaultAddr
	}

	server := &http.Server{
		Addr:    addr,
		Handler: a.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), serverStopTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	mux.HandleFunc("/", a.handleIndex)
	mux.HandleFunc("/api/mentors", a.handleMentors)
	mux.HandleFunc("/api/roster", a.handleRoster)
	mux.HandleFunc("/api/session", a.handleSession)
	mux.HandleFunc("/api/session/say", a.handleSay)
	mux.HandleFunc("/api/session/advance", a.handleAdvance)
	mux.HandleFunc("/api/session/turns", a.handleTurns)
	mux.HandleFunc("/api/session/pause", a.handlePause)
	mux.HandleFunc("/api/session/resume", a.handleResume)
	mux.HandleFunc("/api/session/reset", a.handleReset)
	mux.HandleFunc("/api/session/save", a.handleSave)
	mux.HandleFunc("/api/session/stream", a.handleStream)
	return mux
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, indexHTML)
}

func (a *App) handleMentors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, mentorsResponse{Mentors: a.conv.Mentors()})
}

func (a *App) handleRoster(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, rosterResponse{Students: a.roster})
}

func (a *App) handleSession(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, a.conv.Snapshot())
	case http.MethodPost:
		a.handleSessionStart(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (a *App) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer body.Close()

	var req startSessionRequest
	if err := decodeStrictJSON(body, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	a.mu.Lock()
	if req.StudentID != "" {
		student, ok := profile.Find(a.roster, req.StudentID)
		if !ok {
			a.mu.Unlock()
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown student id %q", req.StudentID))
			return
		}
		a.student = student
	}
	student := a.student
	a.feed.reset()
	a.mu.Unlock()

	id := a.conv.Start(student)
	writeJSON(w, http.StatusOK, sessionResponse{
		SessionID: id,
		Student:   student,
		State:     a.conv.State(),
	})
}

func (a *App) handleSay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer body.Close()

	var req sayRequest
	if err := decodeStrictJSON(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	a.ensureStarted()

	human, err := a.conv.Say(req.Message)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	a.feed.append(human)

	replies, capped, err := a.advanceUpTo(r.Context(), repliesPerMessage)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, exchangeResponse{
		Human:   &human,
		Replies: replies,
		Capped:  capped,
		State:   a.conv.State(),
	})
}

func (a *App) handleAdvance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer body.Close()

	var req advanceRequest
	if err := decodeStrictJSON(body, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	turns := req.Turns
	if turns < 1 {
		turns = 1
	}

	a.ensureStarted()

	replies, capped, err := a.advanceUpTo(r.Context(), turns)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(replies) == 0 && !capped {
		writeError(w, http.StatusConflict, roundtable.ErrNotRunning.Error())
		return
	}

	writeJSON(w, http.StatusOK, exchangeResponse{
		Replies: replies,
		Capped:  capped,
		State:   a.conv.State(),
	})
}

// handleTurns serves committed turns after a cursor. With wait=1 the
// request blocks until a new turn arrives or the client goes away.
func (a *App) handleTurns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	cursor := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("cursor")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "cursor must be a non-negative integer")
			return
		}
		cursor = parsed
	}
	wait := r.URL.Query().Get("wait") == "1"

	turns, next := a.feed.since(cursor)
	if len(turns) == 0 && wait {
		if err := a.feed.waitForUpdate(r.Context()); err != nil {
			writeError(w, http.StatusRequestTimeout, err.Error())
			return
		}
		turns, next = a.feed.since(cursor)
	}

	writeJSON(w, http.StatusOK, turnsResponse{Turns: turns, Cursor: next})
}

func (a *App) handlePause(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if err := a.conv.Pause(); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stateResponse{State: a.conv.State()})
}

func (a *App) handleResume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if err := a.conv.Resume(); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stateResponse{State: a.conv.State()})
}

func (a *App) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	a.conv.Reset()
	a.feed.reset()
	writeJSON(w, http.StatusOK, stateResponse{State: a.conv.State()})
}

func (a *App) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	snap := a.conv.Snapshot()
	if len(snap.Utterances) == 0 {
		writeError(w, http.StatusConflict, "nothing to save yet")
		return
	}

	path := output.NewSessionPath(a.outputDir, snap)
	if err := output.SaveSession(path, snap); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("save session: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, saveResponse{
		SavedJSONPath:     path,
		SavedMarkdownPath: output.MarkdownPath(path),
	})
}

// handleStream sends one student message and streams the mentor replies
// as server-sent events.
func (a *App) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming is not supported by this server")
		return
	}

	message := strings.TrimSpace(r.URL.Query().Get("message"))
	if message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	id := a.ensureStarted()

	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	if err := writeSSE(w, flusher, "start", streamStartEvent{
		SessionID: id,
		Message:   message,
		State:     a.conv.State(),
	}); err != nil {
		return
	}

	human, err := a.conv.Say(message)
	if err != nil {
		_ = writeSSE(w, flusher, "session_error", map[string]string{"error": err.Error()})
		return
	}
	a.feed.append(human)
	if err := writeSSE(w, flusher, "turn", human); err != nil {
		return
	}

	capped := false
	for i := 0; i < repliesPerMessage; i++ {
		u, err := a.conv.Advance(r.Context())
		if err != nil {
			if errors.Is(err, roundtable.ErrTurnCapReached) {
				capped = true
				break
			}
			_ = writeSSE(w, flusher, "session_error", map[string]string{"error": err.Error()})
			return
		}
		a.feed.append(u)

		// Long replies stream as chat-bubble fragments ahead of the
		// committed turn so the UI can render incrementally.
		if fragments := roundtable.SplitFragments(u.Text, fragmentMaxLen); len(fragments) > 1 {
			for seq, frag := range fragments {
				if err := writeSSE(w, flusher, "fragment", streamFragmentEvent{
					TurnIndex: u.Index,
					SpeakerID: u.SpeakerID,
					Seq:       seq + 1,
					Total:     len(fragments),
					Text:      frag,
				}); err != nil {
					return
				}
			}
		}
		if err := writeSSE(w, flusher, "turn", u); err != nil {
			return
		}
	}

	_ = writeSSE(w, flusher, "complete", exchangeResponse{
		Capped: capped,
		State:  a.conv.State(),
	})
}

// ensureStarted starts a session with the selected student when the
// conversation is idle. Returns the current session id.
func (a *App) ensureStarted() string {
	a.mu.Lock()
	student := a.student
	a.mu.Unlock()

	if a.conv.State() == roundtable.StateIdle {
		return a.conv.Start(student)
	}
	return a.conv.Snapshot().ID
}

func (a *App) advanceUpTo(ctx context.Context, n int) ([]roundtable.Utterance, bool, error) {
	replies := make([]roundtable.Utterance, 0, n)
	for i := 0; i < n; i++ {
		u, err := a.conv.Advance(ctx)
		if err != nil {
			if errors.Is(err, roundtable.ErrTurnCapReached) {
				return replies, true, nil
			}
			if errors.Is(err, roundtable.ErrNotRunning) {
				return replies, false, nil
			}
			return replies, false, err
		}
		a.feed.append(u)
		replies = append(replies, u)
	}
	return replies, false, nil
}

func writeSSE(w io.Writer, flusher http.Flusher, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\n", event); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
