package log

import (
	"bytes"
	"log/slog"
	"strconv"
)

// A Level is the importance or severity of a log event. Levels map directly
// onto [slog.Level], with one addition: [LevelDisabled] suppresses all
// output.
type Level slog.Level

const (
	LevelDebug    = Level(slog.LevelDebug)
	LevelInfo     = Level(slog.LevelInfo)
	LevelWarn     = Level(slog.LevelWarn)
	LevelError    = Level(slog.LevelError)
	LevelDisabled = Level(1<<31 - 1)
)

// String returns the name of the level, e.g. "WARN" or "DISABLED".
func (l Level) String() string {
	if l >= LevelDisabled {
		return "DISABLED"
	}
	return slog.Level(l).String()
}

// Level returns the receiver as a [slog.Level]. It implements [slog.Leveler].
func (l Level) Level() slog.Level { return slog.Level(l) }

// MarshalText implements [encoding.TextMarshaler] by calling [Level.String].
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler]. It accepts any string
// produced by [Level.MarshalText], ignoring case, plus "disable", "disabled",
// and "false" for [LevelDisabled].
func (l *Level) UnmarshalText(data []byte) (err error) {
	switch string(bytes.ToLower(data)) {
	case "disable", "disabled", "false":
		*l = LevelDisabled
	default:
		err = (*slog.Level)(l).UnmarshalText(data)
	}
	return
}

// MarshalJSON implements [encoding/json.Marshaler] by quoting the output of
// [Level.String].
func (l Level) MarshalJSON() ([]byte, error) {
	return strconv.AppendQuote(nil, l.String()), nil
}

// UnmarshalJSON implements [encoding/json.Unmarshaler], accepting the same
// forms as [Level.UnmarshalText].
func (l *Level) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return err
	}
	return l.UnmarshalText([]byte(s))
}
