// Package command provides the chat command registry, parser and the
// built-in command definitions.
package command

// Handler identifiers dispatched by the transport.
const (
	HandlerCreate = "create"
	HandlerJoin   = "join"
	HandlerLeave  = "leave"
	HandlerStart  = "start"
	HandlerAbort  = "abort"
	HandlerList   = "list"
	HandlerHelp   = "help"
)

// HelpKeyPrefix prefixes a command's catalog help key.
const HelpKeyPrefix = "CommandHelp."

// Command defines a user-invocable chat command.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Args is the argument synopsis shown in help, e.g. "<id>".
	Args string
	// Handler selects the transport function that runs the command.
	Handler string
}

// HelpKey returns the catalog key of the command's help text.
func (c *Command) HelpKey() string {
	return HelpKeyPrefix + c.Name
}

// BuiltinCommands returns the built-in commands.
func BuiltinCommands() []Command {
	return []Command{
		{Name: "create", Aliases: []string{"new"}, Args: "[players] [length] [language]", Handler: HandlerCreate},
		{Name: "join", Aliases: []string{"j"}, Args: "<id>", Handler: HandlerJoin},
		{Name: "leave", Aliases: []string{"quit"}, Handler: HandlerLeave},
		{Name: "start", Aliases: []string{"go"}, Handler: HandlerStart},
		{Name: "abort", Aliases: []string{"stop"}, Handler: HandlerAbort},
		{Name: "list", Aliases: []string{"ls", "games"}, Handler: HandlerList},
		{Name: "help", Aliases: []string{"h", "?"}, Handler: HandlerHelp},
	}
}
