package assistant

import (
	"path/filepath"
	"strings"
)

// CommandKind classifies a line typed into the chat loop.
type CommandKind int

const (
	// CommandMessage is ordinary chat text.
	CommandMessage CommandKind = iota
	// CommandExit ends the loop.
	CommandExit
	// CommandSave reports the most recently saved reply.
	CommandSave
	// CommandDocument sends a file to the assistant.
	CommandDocument
)

// Command is a parsed input line.
type Command struct {
	Kind CommandKind
	Text string // CommandMessage
	Path string // CommandDocument, absolute
}

var documentPrefixes = []string{"upload ", "can you open this: ", "open "}

// ParseInput interprets one input line. Keywords are case-insensitive and a
// document path may be wrapped in angle brackets.
func ParseInput(line string) Command {
	line = strings.TrimSpace(line)
	lower := strings.ToLower(line)

	switch lower {
	case "exit":
		return Command{Kind: CommandExit}
	case "save":
		return Command{Kind: CommandSave}
	}

	for _, prefix := range documentPrefixes {
		if !strings.HasPrefix(lower, prefix) {
			continue
		}
		path := strings.TrimSpace(line[len(prefix):])
		path = strings.TrimSpace(strings.Trim(path, "<>"))
		if path == "" {
			break
		}
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		return Command{Kind: CommandDocument, Path: path}
	}
	return Command{Kind: CommandMessage, Text: line}
}
