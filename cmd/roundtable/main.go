package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"roundtable/internal/config"
	"roundtable/internal/knowledge"
	"roundtable/internal/mentor"
	"roundtable/internal/openai"
	"roundtable/internal/profile"
	"roundtable/internal/repl"
	"roundtable/internal/roundtable"
	"roundtable/internal/tui"
	"roundtable/internal/web"
)

type runtimeOptions struct {
	mentorPath   string
	rosterPath   string
	knowledgeDir string
	configPath   string
	studentID    string
	webAddr      string
}

func main() {
	opts, err := parseRuntimeOptions(os.Args[1:])
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "argument error:", err)
		os.Exit(1)
	}

	settings, err := config.Load(opts.configPath)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}
	applyOptionOverrides(&settings, opts)

	logger, err := newLogger(settings.LogLevel)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "logger error:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	panel, err := loadMentors(settings.MentorPath, logger)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "mentor error:", err)
		os.Exit(1)
	}

	roster, err := loadRoster(settings.RosterPath, opts.studentID)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "roster error:", err)
		os.Exit(1)
	}

	store := knowledge.NewStore(logger)
	if settings.KnowledgeDir != "" {
		if err := store.LoadDir(settings.KnowledgeDir); err != nil {
			_, _ = fmt.Fprintln(os.Stderr, "knowledge error:", err)
			os.Exit(1)
		}
	}

	client, err := openai.NewClient(openai.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Timeout:    settings.RequestTimeout,
		MaxRetries: settings.APIMaxRetries,
	})
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "openai client error:", err)
		os.Exit(1)
	}

	conv, err := roundtable.NewController(client, panel, roundtable.Config{
		MaxConsecutiveTurns:          settings.MaxConsecutiveTurns,
		SimilarityThreshold:          settings.SimilarityThreshold,
		MaxGenerationAttempts:        settings.MaxGenerationAttempts,
		RecentSpeakerExclusionWindow: settings.ExclusionWindow,
		PhaseThresholds:              settings.PhaseThresholds,
		CountHumanTurnsForPhase:      settings.CountHumanTurnsForPhase,
		ContextChunks:                settings.ContextChunks,
	}, roundtable.ControllerOptions{
		Store:  store,
		Logger: logger,
	})
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "controller error:", err)
		os.Exit(1)
	}

	if opts.webAddr != "" {
		app := web.NewApp(web.Config{
			Conversation: conv,
			Roster:       roster,
			OutputDir:    settings.OutputDir,
			Now:          time.Now,
		})
		logger.Info("serving web ui", zap.String("addr", opts.webAddr))
		if err := app.Start(context.Background(), opts.webAddr); err != nil {
			_, _ = fmt.Fprintln(os.Stderr, "runtime error:", err)
			os.Exit(1)
		}
		return
	}

	if isTTY() {
		app := tui.NewApp(tui.Config{
			Conversation: conv,
			Roster:       roster,
			OutputDir:    settings.OutputDir,
			MaxAutoTurns: settings.MaxConsecutiveTurns,
			Now:          time.Now,
		})
		if err := app.Start(context.Background()); err != nil {
			_, _ = fmt.Fprintln(os.Stderr, "runtime error:", err)
			os.Exit(1)
		}
		return
	}

	// Fallback for non-interactive shells (pipes, CI).
	app := repl.NewApp(repl.Config{
		Conversation: conv,
		Roster:       roster,
		OutputDir:    settings.OutputDir,
		Writer:       os.Stdout,
		Now:          time.Now,
	})

	if err := app.Start(context.Background(), os.Stdin); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "runtime error:", err)
		os.Exit(1)
	}
}

func isTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func parseRuntimeOptions(args []string) (runtimeOptions, error) {
	fs := flag.NewFlagSet("roundtable", flag.ContinueOnError)
	mentorPath := fs.String("mentors", "", "path to mentors json file")
	fs.StringVar(mentorPath, "mentor", "", "alias of -mentors")
	rosterPath := fs.String("roster", "", "path to student roster csv file")
	knowledgeDir := fs.String("knowledge", "", "directory of reference documents")
	configPath := fs.String("config", "", "path to yaml config file")
	studentID := fs.String("student", "", "student id to preselect from the roster")
	webAddr := fs.String("web", "", "serve the web ui on this address (e.g. :8080)")
	fs.SetOutput(os.Stderr)

	if err := fs.Parse(args); err != nil {
		return runtimeOptions{}, err
	}
	if len(fs.Args()) > 0 {
		return runtimeOptions{}, fmt.Errorf("unexpected positional args: %s", strings.Join(fs.Args(), " "))
	}

	return runtimeOptions{
		mentorPath:   strings.TrimSpace(*mentorPath),
		rosterPath:   strings.TrimSpace(*rosterPath),
		knowledgeDir: strings.TrimSpace(*knowledgeDir),
		configPath:   strings.TrimSpace(*configPath),
		studentID:    strings.TrimSpace(*studentID),
		webAddr:      strings.TrimSpace(*webAddr),
	}, nil
}

// applyOptionOverrides lets flags win over file and environment settings.
func applyOptionOverrides(settings *config.Settings, opts runtimeOptions) {
	if opts.mentorPath != "" {
		settings.MentorPath = opts.mentorPath
	}
	if opts.rosterPath != "" {
		settings.RosterPath = opts.rosterPath
	}
	if opts.knowledgeDir != "" {
		settings.KnowledgeDir = opts.knowledgeDir
	}
}

func newLogger(level string) (*zap.Logger, error) {
	parsed, err := zap.ParseAtomicLevel(strings.TrimSpace(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = parsed
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

// loadMentors reads the configured panel, falling back to the built-in
// panel when the default file is absent.
func loadMentors(path string, logger *zap.Logger) ([]mentor.Mentor, error) {
	panel, err := mentor.LoadFromFile(path)
	if err == nil {
		return panel, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		logger.Info("mentor file not found, using built-in panel", zap.String("path", path))
		return mentor.DefaultPanel(), nil
	}
	return nil, err
}

func loadRoster(path string, studentID string) ([]profile.StudentProfile, error) {
	roster := profile.SampleRoster()
	if path != "" {
		loaded, err := profile.LoadRoster(path)
		if err != nil {
			return nil, err
		}
		roster = loaded
	}

	if studentID == "" {
		return roster, nil
	}
	student, ok := profile.Find(roster, studentID)
	if !ok {
		return nil, fmt.Errorf("student id %q is not in the roster", studentID)
	}

	// The hosts default to the first roster entry.
	reordered := []profile.StudentProfile{student}
	for _, p := range roster {
		if p.ID != student.ID {
			reordered = append(reordered, p)
		}
	}
	return reordered, nil
}
