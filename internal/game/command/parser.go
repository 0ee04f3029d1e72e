package command

import "strings"

// ParseResult holds the command word and arguments of a prefixed line.
type ParseResult struct {
	// Command is the first word after the prefix, lowercased. Empty for a
	// bare prefix.
	Command string
	// Args are the remaining words after the command.
	Args []string
}

// Parse splits a chat line addressed to prefix into a command and arguments.
//
// Precondition: prefix must be non-empty.
// Postcondition: Returns ok=false when line is not addressed to prefix; a
// prefix glued to other text (e.g. "!wrong" for "!wr") is not addressed.
func Parse(prefix, line string) (ParseResult, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, prefix) {
		return ParseResult{}, false
	}
	rest := line[len(prefix):]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' && rest[0] != '\n' {
		return ParseResult{}, false
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return ParseResult{}, true
	}
	return ParseResult{Command: strings.ToLower(fields[0]), Args: fields[1:]}, true
}
