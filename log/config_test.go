package log

import (
	"fmt"
	"slices"
	"testing"
	"time"
)

func TestConfig_Options(t *testing.T) {
	c := apply(config{},
		WithLevel(LevelWarn),
		WithFormat(FormatJSON),
		WithCaller(true),
		WithPretty(false),
	)

	if c.level != LevelWarn || c.format != FormatJSON || !c.caller || c.pretty {
		t.Errorf("options not applied: %+v", c)
	}

	// Options return copies.
	d := WithLevel(LevelDebug)(c)
	if c.level != LevelWarn || d.level != LevelDebug {
		t.Errorf("option mutated its input: %v %v", c.level, d.level)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"trace", LevelTrace},
		{"TRACE", LevelTrace},
		{"debug", LevelDebug},
		{"Info", LevelInfo},
		{" warn ", LevelWarn},
		{"error", LevelError},
		{"info+2", Level(2)},
		{"bogus", DefaultLevel},
		{"", DefaultLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLevel_String(t *testing.T) {
	got := slices.Collect(Levels())
	want := []string{"trace", "debug", "info", "warn", "error"}

	if !slices.Equal(got, want) {
		t.Errorf("Levels() = %v, want %v", got, want)
	}

	for _, name := range want {
		if ParseLevel(name).String() != name {
			t.Errorf("round trip of %q failed", name)
		}
	}

	if got := Level(2).String(); got != "info+2" {
		t.Errorf("Level(2).String() = %q", got)
	}
}

func TestFormat_String(t *testing.T) {
	for name := range Formats() {
		if got := ParseFormat(name).String(); got != name {
			t.Errorf("ParseFormat(%q).String() = %q", name, got)
		}
	}

	if ParseFormat("xml") != DefaultFormat {
		t.Error("unknown format must parse as the default")
	}

	if got := Format(9).String(); got != "Format(9)" {
		t.Errorf("Format(9).String() = %q", got)
	}
}

func TestConfig_formatTime(t *testing.T) {
	now := time.Date(2023, 10, 15, 14, 30, 45, 123456789, time.UTC)

	tests := []struct {
		name   string
		layout string
		want   string
	}{
		{"rfc3339", "RFC3339", "2023-10-15T14:30:45Z"},
		{"rfc3339 nano", "RFC3339Nano", "2023-10-15T14:30:45.123456789Z"},
		{"punctuation ignored", "rfc-3339", "2023-10-15T14:30:45Z"},
		{"kitchen", "kitchen", "2:30PM"},
		{"custom verbatim", "  2006-01-02 15:04:05.000", "  2023-10-15 14:30:45.123"},
		{"unknown name is a layout", "UNKNOWN", "UNKNOWN"},
		{"none", "none", ""},
		{"empty", "", ""},
		{"blank", "   \t  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := WithTimeLayout(tt.layout)(config{})

			if got := c.formatTime(now); got != tt.want {
				t.Errorf("formatTime with %q = %q, want %q", tt.layout, got, tt.want)
			}
		})
	}
}

func TestConfig_handlerSelection(t *testing.T) {
	tests := []struct {
		format Format
		pretty bool
		want   string
	}{
		{FormatText, true, "*log.prettyHandler"},
		{FormatJSON, true, "*log.prettyHandler"},
		{FormatText, false, "*slog.TextHandler"},
		{FormatJSON, false, "*slog.JSONHandler"},
	}

	for _, tt := range tests {
		c := makeConfig(nil, WithFormat(tt.format), WithPretty(tt.pretty))

		if got := fmt.Sprintf("%T", c.handler()); got != tt.want {
			t.Errorf("%v pretty=%v: handler %s, want %s", tt.format, tt.pretty, got, tt.want)
		}
	}
}

func BenchmarkConfig_formatTime(b *testing.B) {
	c := WithTimeLayout("RFC3339Nano")(config{})
	now := time.Now()

	for b.Loop() {
		_ = c.formatTime(now)
	}
}
