package interaction

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownMode is returned for modes the controller does not know.
	ErrUnknownMode = errors.New("unknown interaction mode")
	// ErrUnknownCommand is returned for commands the controller does not know.
	ErrUnknownCommand = errors.New("unknown command")
)

// Mode is the editing behavior currently attached to the map.
type Mode int

const (
	ModeNone Mode = iota
	ModeDraw
	ModeModify
	ModeDeleteSelect
)

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeDraw:
		return "draw"
	case ModeModify:
		return "modify"
	case ModeDeleteSelect:
		return "delete"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses the name returned by Mode.String.
func ParseMode(s string) (Mode, error) {
	for m := ModeNone; m <= ModeDeleteSelect; m++ {
		if strings.EqualFold(s, m.String()) {
			return m, nil
		}
	}
	return ModeNone, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Command is one of the buttons of the map page.
type Command int

const (
	CommandDraw Command = iota
	CommandEdit
	CommandDelete
	CommandClear
)

func (c Command) String() string {
	switch c {
	case CommandDraw:
		return "draw"
	case CommandEdit:
		return "edit"
	case CommandDelete:
		return "delete"
	case CommandClear:
		return "clear"
	default:
		return fmt.Sprintf("command(%d)", int(c))
	}
}

// ParseCommand parses the name returned by Command.String.
func ParseCommand(s string) (Command, error) {
	for c := CommandDraw; c <= CommandClear; c++ {
		if strings.EqualFold(s, c.String()) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, s)
}
