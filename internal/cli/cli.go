// Package cli parses soudan command-line arguments.
package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandRun     Command = "run"
	CommandStatus  Command = "status"
	CommandConfirm Command = "confirm"
	CommandCancel  Command = "cancel"
	CommandImport  Command = "import"
	CommandExport  Command = "export"
	CommandPurge   Command = "purge"
	CommandDoctor  Command = "doctor"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandRun:     {},
	CommandStatus:  {},
	CommandConfirm: {},
	CommandCancel:  {},
	CommandImport:  {},
	CommandExport:  {},
	CommandPurge:   {},
	CommandDoctor:  {},
	CommandVersion: {},
	CommandHelp:    {},
}

// takesFile marks commands whose single positional argument is a path.
func takesFile(cmd Command) bool {
	return cmd == CommandImport || cmd == CommandExport
}

type Parsed struct {
	Command    Command
	ConfigPath string
	File       string
	Yes        bool
	ShowHelp   bool
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}
	haveCommand := false

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--yes":
			parsed.Yes = true
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			if haveCommand {
				if takesFile(parsed.Command) && parsed.File == "" {
					parsed.File = arg
					continue
				}
				return Parsed{}, fmt.Errorf("unexpected argument %q after command %q", arg, parsed.Command)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}
			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			haveCommand = true
		}
	}

	if haveCommand && takesFile(parsed.Command) && parsed.File == "" {
		return Parsed{}, fmt.Errorf("%s requires a file path", parsed.Command)
	}
	if parsed.Yes && parsed.Command != CommandPurge {
		return Parsed{}, errors.New("--yes is only valid with purge")
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command> [ARG]

Commands:
  run            Start the interactive session (TUI + control socket)
  status         Print capture state of the running session
  confirm        Commit the buffered answer in the running session
  cancel         Discard the buffered answer in the running session
  import FILE    Import questions from a .csv, .xlsx, or .json file
  export FILE    Export answered history (format from file extension)
  purge --yes    Delete all stored questions, answers, and categories
  doctor         Run configuration and environment checks
  version        Print version information
  help           Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/soudan/config.yaml)
  --yes           Confirm the purge command
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
