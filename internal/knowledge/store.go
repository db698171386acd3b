// Package knowledge provides a small file-backed context store. Documents are
// split into paragraph chunks at load time and queried by token overlap, so
// mentors can ground their advice without any external retrieval service.
package knowledge

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

const minChunkLen = 40

type chunk struct {
	source string
	text   string
	tokens map[string]struct{}
}

// Store holds the loaded chunks. It is immutable after Load and safe for
// concurrent queries.
type Store struct {
	chunks []chunk
	logger *zap.Logger
}

func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{logger: logger}
}

// LoadDir reads every .txt and .md file directly under dir. Unreadable files
// are skipped with a log entry; an empty directory yields an empty store.
func (s *Store) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read knowledge dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".txt" && ext != ".md" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("skipping unreadable knowledge file",
				zap.String("path", path), zap.Error(err))
			continue
		}
		s.addDocument(entry.Name(), string(data))
	}

	s.logger.Info("knowledge store loaded",
		zap.String("dir", dir), zap.Int("chunks", len(s.chunks)))
	return nil
}

// AddDocument splits a document into paragraph chunks and indexes them.
func (s *Store) AddDocument(source, text string) {
	s.addDocument(source, text)
}

func (s *Store) addDocument(source, text string) {
	for _, para := range strings.Split(text, "\n\n") {
		trimmed := strings.TrimSpace(para)
		if len(trimmed) < minChunkLen {
			continue
		}
		s.chunks = append(s.chunks, chunk{
			source: source,
			text:   trimmed,
			tokens: tokenSet(trimmed),
		})
	}
}

func (s *Store) Len() int {
	return len(s.chunks)
}

// Query returns up to k chunks ranked by token overlap with the query text,
// joined into one context block. No match means an empty string; Query never
// fails.
func (s *Store) Query(text string, k int) string {
	if s == nil || len(s.chunks) == 0 || k <= 0 {
		return ""
	}
	queryTokens := tokenSet(text)
	if len(queryTokens) == 0 {
		return ""
	}

	type scored struct {
		idx   int
		score int
	}
	var matches []scored
	for i, c := range s.chunks {
		score := 0
		for token := range queryTokens {
			if _, ok := c.tokens[token]; ok {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, scored{idx: i, score: score})
		}
	}
	if len(matches) == 0 {
		return ""
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})
	if len(matches) > k {
		matches = matches[:k]
	}

	var b strings.Builder
	for i, m := range matches {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(s.chunks[m.idx].text)
	}
	return b.String()
}

// tokenSet lowercases and splits on non-alphanumeric runes, dropping
// single-rune tokens.
func tokenSet(text string) map[string]struct{} {
	parts := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r))
	})
	set := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		if len([]rune(part)) < 2 {
			continue
		}
		set[part] = struct{}{}
	}
	return set
}
