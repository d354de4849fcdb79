package ipc

// Commands understood by a running soudan session.
const (
	CommandStatus  = "status"
	CommandConfirm = "confirm"
	CommandCancel  = "cancel"
)

type Request struct {
	Command string `json:"command"`
}

type Response struct {
	OK      bool   `json:"ok"`
	State   string `json:"state,omitempty"`
	Target  string `json:"target,omitempty"`
	Buffer  string `json:"buffer,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// KnownCommand reports whether the command has a handler.
func KnownCommand(cmd string) bool {
	switch cmd {
	case CommandStatus, CommandConfirm, CommandCancel:
		return true
	}
	return false
}
