// Package config assembles runtime settings from an optional YAML file and
// environment variables. Environment values win over file values so deploys
// can override a checked-in config.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultMentorPath            = "./mentors.json"
	DefaultOutputDir             = "./sessions"
	DefaultModel                 = "gpt-5.2"
	DefaultRequestTimeout        = 60 * time.Second
	DefaultAPIMaxRetries         = 2
	DefaultMaxConsecutiveTurns   = 5
	DefaultSimilarityThreshold   = 0.7
	DefaultMaxGenerationAttempts = 3
	DefaultExclusionWindow       = 2
	DefaultContextChunks         = 3
	DefaultLogLevel              = "info"
)

// DefaultPhaseThresholds are the mentor-turn counts at which the conversation
// moves to the next phase.
var DefaultPhaseThresholds = [3]int{3, 7, 10}

type Settings struct {
	APIKey  string
	BaseURL string
	Model   string

	MentorPath   string
	RosterPath   string
	KnowledgeDir string
	OutputDir    string

	MaxConsecutiveTurns     int
	SimilarityThreshold     float64
	MaxGenerationAttempts   int
	ExclusionWindow         int
	ContextChunks           int
	PhaseThresholds         [3]int
	CountHumanTurnsForPhase bool

	RequestTimeout time.Duration
	APIMaxRetries  int
	LogLevel       string
}

// fileSettings mirrors the YAML schema. Pointers distinguish an absent key
// from an explicit zero.
type fileSettings struct {
	BaseURL                 *string  `yaml:"base_url"`
	Model                   *string  `yaml:"model"`
	MentorPath              *string  `yaml:"mentor_path"`
	RosterPath              *string  `yaml:"roster_path"`
	KnowledgeDir            *string  `yaml:"knowledge_dir"`
	OutputDir               *string  `yaml:"output_dir"`
	MaxConsecutiveTurns     *int     `yaml:"max_consecutive_turns"`
	SimilarityThreshold     *float64 `yaml:"similarity_threshold"`
	MaxGenerationAttempts   *int     `yaml:"max_generation_attempts"`
	ExclusionWindow         *int     `yaml:"exclusion_window"`
	ContextChunks           *int     `yaml:"context_chunks"`
	PhaseThresholds         []int    `yaml:"phase_thresholds"`
	CountHumanTurnsForPhase *bool    `yaml:"count_human_turns_for_phase"`
	RequestTimeout          *string  `yaml:"request_timeout"`
	APIMaxRetries           *int     `yaml:"api_max_retries"`
	LogLevel                *string  `yaml:"log_level"`
}

// Load builds settings from defaults, then the YAML file at path (skipped
// when path is empty), then the environment. The API key only ever comes
// from the environment.
func Load(path string) (Settings, error) {
	settings := defaults()

	if strings.TrimSpace(path) != "" {
		if err := applyFile(&settings, path); err != nil {
			return Settings{}, err
		}
	}
	if err := applyEnv(&settings); err != nil {
		return Settings{}, err
	}

	if settings.APIKey == "" {
		return Settings{}, errors.New("OPENAI_API_KEY is required")
	}
	return settings, nil
}

// FromEnv builds settings without a config file.
func FromEnv() (Settings, error) {
	return Load("")
}

func defaults() Settings {
	return Settings{
		Model:                 DefaultModel,
		MentorPath:            DefaultMentorPath,
		OutputDir:             DefaultOutputDir,
		MaxConsecutiveTurns:   DefaultMaxConsecutiveTurns,
		SimilarityThreshold:   DefaultSimilarityThreshold,
		MaxGenerationAttempts: DefaultMaxGenerationAttempts,
		ExclusionWindow:       DefaultExclusionWindow,
		ContextChunks:         DefaultContextChunks,
		PhaseThresholds:       DefaultPhaseThresholds,
		RequestTimeout:        DefaultRequestTimeout,
		APIMaxRetries:         DefaultAPIMaxRetries,
		LogLevel:              DefaultLogLevel,
	}
}

func applyFile(settings *Settings, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fs fileSettings
	if err := yaml.Unmarshal(data, &fs); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	setString(&settings.BaseURL, fs.BaseURL)
	setString(&settings.Model, fs.Model)
	setString(&settings.MentorPath, fs.MentorPath)
	setString(&settings.RosterPath, fs.RosterPath)
	setString(&settings.KnowledgeDir, fs.KnowledgeDir)
	setString(&settings.OutputDir, fs.OutputDir)
	setString(&settings.LogLevel, fs.LogLevel)

	if fs.MaxConsecutiveTurns != nil {
		if *fs.MaxConsecutiveTurns <= 0 {
			return fmt.Errorf("max_consecutive_turns has invalid value: %d", *fs.MaxConsecutiveTurns)
		}
		settings.MaxConsecutiveTurns = *fs.MaxConsecutiveTurns
	}
	if fs.SimilarityThreshold != nil {
		if *fs.SimilarityThreshold <= 0 || *fs.SimilarityThreshold > 1 {
			return fmt.Errorf("similarity_threshold has invalid value: %v", *fs.SimilarityThreshold)
		}
		settings.SimilarityThreshold = *fs.SimilarityThreshold
	}
	if fs.MaxGenerationAttempts != nil {
		if *fs.MaxGenerationAttempts <= 0 {
			return fmt.Errorf("max_generation_attempts has invalid value: %d", *fs.MaxGenerationAttempts)
		}
		settings.MaxGenerationAttempts = *fs.MaxGenerationAttempts
	}
	if fs.ExclusionWindow != nil {
		if *fs.ExclusionWindow <= 0 {
			return fmt.Errorf("exclusion_window has invalid value: %d", *fs.ExclusionWindow)
		}
		settings.ExclusionWindow = *fs.ExclusionWindow
	}
	if fs.ContextChunks != nil {
		if *fs.ContextChunks <= 0 {
			return fmt.Errorf("context_chunks has invalid value: %d", *fs.ContextChunks)
		}
		settings.ContextChunks = *fs.ContextChunks
	}
	if fs.PhaseThresholds != nil {
		t, err := phaseThresholds(fs.PhaseThresholds)
		if err != nil {
			return fmt.Errorf("phase_thresholds has invalid value: %v", err)
		}
		settings.PhaseThresholds = t
	}
	if fs.CountHumanTurnsForPhase != nil {
		settings.CountHumanTurnsForPhase = *fs.CountHumanTurnsForPhase
	}
	if fs.APIMaxRetries != nil {
		if *fs.APIMaxRetries < 0 {
			return fmt.Errorf("api_max_retries has invalid value: %d", *fs.APIMaxRetries)
		}
		settings.APIMaxRetries = *fs.APIMaxRetries
	}
	if fs.RequestTimeout != nil {
		d, err := time.ParseDuration(strings.TrimSpace(*fs.RequestTimeout))
		if err != nil || d <= 0 {
			return fmt.Errorf("request_timeout has invalid value: %q", *fs.RequestTimeout)
		}
		settings.RequestTimeout = d
	}
	return nil
}

func applyEnv(settings *Settings) error {
	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
		settings.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")); v != "" {
		settings.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("OPENAI_MODEL")); v != "" {
		settings.Model = v
	}
	if v := strings.TrimSpace(os.Getenv("ROUNDTABLE_MENTOR_PATH")); v != "" {
		settings.MentorPath = v
	}
	if v := strings.TrimSpace(os.Getenv("ROUNDTABLE_ROSTER_PATH")); v != "" {
		settings.RosterPath = v
	}
	if v := strings.TrimSpace(os.Getenv("ROUNDTABLE_KNOWLEDGE_DIR")); v != "" {
		settings.KnowledgeDir = v
	}
	if v := strings.TrimSpace(os.Getenv("ROUNDTABLE_OUTPUT_DIR")); v != "" {
		settings.OutputDir = v
	}
	if v := strings.TrimSpace(os.Getenv("ROUNDTABLE_LOG_LEVEL")); v != "" {
		settings.LogLevel = v
	}

	var err error
	settings.MaxConsecutiveTurns, err = parseOptionalInt("ROUNDTABLE_MAX_CONSECUTIVE_TURNS", settings.MaxConsecutiveTurns, func(v int) bool { return v > 0 })
	if err != nil {
		return err
	}
	settings.SimilarityThreshold, err = parseOptionalFloat64("ROUNDTABLE_SIMILARITY_THRESHOLD", settings.SimilarityThreshold, func(v float64) bool { return v > 0 && v <= 1 })
	if err != nil {
		return err
	}
	settings.MaxGenerationAttempts, err = parseOptionalInt("ROUNDTABLE_MAX_GENERATION_ATTEMPTS", settings.MaxGenerationAttempts, func(v int) bool { return v > 0 })
	if err != nil {
		return err
	}
	settings.ExclusionWindow, err = parseOptionalInt("ROUNDTABLE_EXCLUSION_WINDOW", settings.ExclusionWindow, func(v int) bool { return v > 0 })
	if err != nil {
		return err
	}
	settings.ContextChunks, err = parseOptionalInt("ROUNDTABLE_CONTEXT_CHUNKS", settings.ContextChunks, func(v int) bool { return v > 0 })
	if err != nil {
		return err
	}
	settings.CountHumanTurnsForPhase, err = parseOptionalBool("ROUNDTABLE_COUNT_HUMAN_TURNS", settings.CountHumanTurnsForPhase)
	if err != nil {
		return err
	}
	settings.PhaseThresholds, err = parseOptionalThresholds("ROUNDTABLE_PHASE_THRESHOLDS", settings.PhaseThresholds)
	if err != nil {
		return err
	}
	settings.RequestTimeout, err = parseOptionalDuration("OPENAI_REQUEST_TIMEOUT", settings.RequestTimeout, func(v time.Duration) bool { return v > 0 })
	if err != nil {
		return err
	}
	settings.APIMaxRetries, err = parseOptionalInt("OPENAI_API_MAX_RETRIES", settings.APIMaxRetries, func(v int) bool { return v >= 0 })
	if err != nil {
		return err
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil && strings.TrimSpace(*src) != "" {
		*dst = strings.TrimSpace(*src)
	}
}

func parseOptionalInt(env string, fallback int, valid func(int) bool) (int, error) {
	raw := strings.TrimSpace(os.Getenv(env))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", env, err)
	}
	if valid != nil && !valid(v) {
		return 0, fmt.Errorf("%s has invalid value: %d", env, v)
	}
	return v, nil
}

func parseOptionalFloat64(env string, fallback float64, valid func(float64) bool) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(env))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", env, err)
	}
	if valid != nil && !valid(v) {
		return 0, fmt.Errorf("%s has invalid value: %v", env, v)
	}
	return v, nil
}

func parseOptionalBool(env string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(env))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", env, err)
	}
	return v, nil
}

// phaseThresholds validates a three-value ascending list of positive turn
// counts.
func phaseThresholds(vals []int) ([3]int, error) {
	if len(vals) != 3 {
		return [3]int{}, fmt.Errorf("want 3 values, got %d", len(vals))
	}
	var t [3]int
	prev := 0
	for i, v := range vals {
		if v <= prev {
			return [3]int{}, errors.New("values must be positive and ascending")
		}
		t[i] = v
		prev = v
	}
	return t, nil
}

func parseOptionalThresholds(env string, fallback [3]int) ([3]int, error) {
	raw := strings.TrimSpace(os.Getenv(env))
	if raw == "" {
		return fallback, nil
	}
	parts := strings.Split(raw, ",")
	vals := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return [3]int{}, fmt.Errorf("%s must be comma-separated integers: %w", env, err)
		}
		vals = append(vals, v)
	}
	t, err := phaseThresholds(vals)
	if err != nil {
		return [3]int{}, fmt.Errorf("%s has invalid value: %v", env, err)
	}
	return t, nil
}

func parseOptionalDuration(env string, fallback time.Duration, valid func(time.Duration) bool) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(env))
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration (e.g. 45s, 2m): %w", env, err)
	}
	if valid != nil && !valid(v) {
		return 0, fmt.Errorf("%s has invalid value: %s", env, v)
	}
	return v, nil
}
