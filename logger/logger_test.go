package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewWithWriter(t *testing.T) {
	testCases := []struct {
		verbose   bool
		wantDebug bool
	}{
		{verbose: false, wantDebug: false},
		{verbose: true, wantDebug: true},
	}
	for _, tc := range testCases {
		buf := &bytes.Buffer{}
		log := NewWithWriter(buf, tc.verbose)
		log.Debug().Msg("debug message")
		log.Info().Str("journal", "2024").Msg("info message")

		out := buf.String()
		if !strings.Contains(out, "info message") || !strings.Contains(out, `"journal":"2024"`) {
			t.Errorf("verbose=%v: output %q misses the info message", tc.verbose, out)
		}
		if got := strings.Contains(out, "debug message"); got != tc.wantDebug {
			t.Errorf("verbose=%v: debug message logged = %v, want %v", tc.verbose, got, tc.wantDebug)
		}
	}
}

func TestFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithContext(context.Background(), NewWithWriter(buf, false))

	log := FromContext(ctx)
	log.Info().Msg("test")
	if buf.Len() == 0 {
		t.Error("expected log output from the logger in the context")
	}
}

func TestFromContext_Default(t *testing.T) {
	log := FromContext(context.Background())
	if log.GetLevel() != zerolog.Disabled {
		t.Errorf("got level %v, want a disabled logger", log.GetLevel())
	}
}
