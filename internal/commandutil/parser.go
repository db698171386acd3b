package commandutil

import (
	"strings"
	"unicode"
)

// Parse splits a command line into command and argument tail. A leading
// slash on the command is dropped so "/say hi" and "say hi" parse the same.
func Parse(line string, aliases map[string]string) (command string, arg string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", ""
	}

	splitAt := strings.IndexFunc(line, unicode.IsSpace)
	if splitAt == -1 {
		return normalize(line, aliases), ""
	}
	cmd := normalize(line[:splitAt], aliases)
	return cmd, strings.TrimSpace(line[splitAt+1:])
}

// IsCommand reports whether the line starts with a slash command.
func IsCommand(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "/")
}

func normalize(cmd string, aliases map[string]string) string {
	cmd = strings.TrimPrefix(cmd, "/")
	if len(aliases) == 0 {
		return cmd
	}
	if normalized, ok := aliases[cmd]; ok {
		return normalized
	}
	return cmd
}
