package models

import "strings"

// CommandType enumerates the operator commands understood over WhatsApp.
type CommandType string

const (
	CommandBottles CommandType = "bottles"
	CommandPay     CommandType = "pay"
	CommandBalance CommandType = "balance"
	CommandReport  CommandType = "report"
	CommandHelp    CommandType = "help"
	CommandUnknown CommandType = "unknown"
)

// Command represents a parsed operator instruction extracted from WhatsApp text.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// ParseCommand derives a Command instance from free-form text messages.
// Arguments keep their original case because customer ids are case sensitive.
func ParseCommand(message string) Command {
	tokens := strings.Fields(strings.TrimSpace(message))
	cmd := Command{Type: CommandUnknown, Raw: message}

	if len(tokens) == 0 {
		return cmd
	}

	head := strings.TrimPrefix(strings.ToLower(tokens[0]), "/")
	switch head {
	case string(CommandBottles), "bottle", "delivery":
		cmd.Type = CommandBottles
	case string(CommandPay), "payment":
		cmd.Type = CommandPay
	case string(CommandBalance), "due":
		cmd.Type = CommandBalance
	case string(CommandReport):
		cmd.Type = CommandReport
	case string(CommandHelp):
		cmd.Type = CommandHelp
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}

	return cmd
}
