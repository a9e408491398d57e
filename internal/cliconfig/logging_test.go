package cliconfig

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLogger_Level(t *testing.T) {
	tests := []struct {
		level     string
		debugSeen bool
	}{
		{"debug", true},
		{"info", false},
		{"", false},
		{"nonsense", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			log := newLogger(&buf, tt.level)

			log.Debug().Msg("debug line")
			log.Info().Msg("info line")

			out := buf.String()
			if strings.Contains(out, "debug line") != tt.debugSeen {
				t.Errorf("debug line present = %v, want %v (output %q)", !tt.debugSeen, tt.debugSeen, out)
			}
			if !strings.Contains(out, "info line") {
				t.Errorf("info line missing from %q", out)
			}
		})
	}
}
