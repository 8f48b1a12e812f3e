package log

import (
	"log/slog"
	"testing"
)

func TestLevelString(t *testing.T) {
	var tests = []struct {
		in   Level
		want string
	}{
		{LevelDisabled, "DISABLED"},
		{LevelDisabled + 1, "DISABLED"},
		{LevelError, slog.LevelError.String()},
		{LevelWarn, slog.LevelWarn.String()},
		{LevelInfo, slog.LevelInfo.String()},
		{LevelInfo + 1, (slog.LevelInfo + 1).String()},
		{LevelDebug, slog.LevelDebug.String()},
	}
	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Errorf("%d: Wanted %s, got %s", tt.in, tt.want, got)
		}
	}
}

func TestLevelUnmarshalText(t *testing.T) {
	var tests = []struct {
		in   string
		want Level
	}{
		{"DISABLED", LevelDisabled},
		{"DiSaBlE", LevelDisabled},
		{"false", LevelDisabled},
		{"ERROR", LevelError},
		{"warn", LevelWarn},
		{"Error+1", LevelError + 1},
	}
	for _, tt := range tests {
		var got Level
		if err := got.UnmarshalText([]byte(tt.in)); err != nil {
			t.Fatalf("%s: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("%s: Wanted %s, got %s", tt.in, tt.want, got)
		}
	}
}

func TestLevelMarshalJSON(t *testing.T) {
	var tests = []struct {
		in   Level
		want string
	}{
		{LevelDisabled, `"DISABLED"`},
		{LevelError, `"` + slog.LevelError.String() + `"`},
		{LevelDebug, `"` + slog.LevelDebug.String() + `"`},
	}
	for _, tt := range tests {
		got, err := tt.in.MarshalJSON()
		if err != nil {
			t.Fatalf("%s: %v", tt.in, err)
		}
		if string(got) != tt.want {
			t.Errorf("%d: Wanted %s, got %s", tt.in, tt.want, got)
		}
	}
}
