package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("default level = %s, want info", cfg.Level)
	}
	if cfg.Pretty {
		t.Error("default config should not be pretty")
	}
	if cfg.Output == nil {
		t.Error("default output should be set")
	}
}

func TestSetup_LevelFiltering(t *testing.T) {
	tests := []struct {
		name      string
		level     Level
		writeFunc func(l zerolog.Logger)
		wantEmpty bool
	}{
		{
			name:      "debug visible at debug",
			level:     LevelDebug,
			writeFunc: func(l zerolog.Logger) { l.Debug().Msg("fetch target") },
		},
		{
			name:      "debug hidden at info",
			level:     LevelInfo,
			writeFunc: func(l zerolog.Logger) { l.Debug().Msg("fetch target") },
			wantEmpty: true,
		},
		{
			name:      "warn visible at warn",
			level:     LevelWarn,
			writeFunc: func(l zerolog.Logger) { l.Warn().Msg("fetch target") },
		},
		{
			name:      "info hidden at error",
			level:     LevelError,
			writeFunc: func(l zerolog.Logger) { l.Info().Msg("fetch target") },
			wantEmpty: true,
		},
		{
			name:      "everything hidden when disabled",
			level:     LevelDisabled,
			writeFunc: func(l zerolog.Logger) { l.Error().Msg("fetch target") },
			wantEmpty: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := Setup(Config{Level: tt.level, Output: buf})
			tt.writeFunc(logger)

			got := buf.String()
			if tt.wantEmpty && got != "" {
				t.Errorf("expected no output, got %q", got)
			}
			if !tt.wantEmpty && !strings.Contains(got, "fetch target") {
				t.Errorf("expected message in output, got %q", got)
			}
		})
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func TestSetup_ServiceField(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := Setup(Config{Level: LevelInfo, Output: buf, Service: "collectionctl"})
	logger.Info().Msg("hello")

	if !strings.Contains(buf.String(), `"service":"collectionctl"`) {
		t.Errorf("service field missing: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"DEBUG":   zerolog.DebugLevel,
		"info":    zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"bogus":   zerolog.InfoLevel,
	}

	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLogger_Component(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: LevelInfo, Output: buf})

	logger := NewLogger("collection")
	logger.Info().Msg("component test")

	if !strings.Contains(buf.String(), `"component":"collection"`) {
		t.Errorf("component field missing: %s", buf.String())
	}
}
