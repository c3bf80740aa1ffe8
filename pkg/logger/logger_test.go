package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestCronLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewCron(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	l.Info("schedule", "entry", 1)
	l.Error(errors.New("boom"), "panic", "entry", 2)

	out := buf.String()
	for _, want := range []string{"component=cron", "msg=schedule", "level=ERROR", "error=boom", "entry=2"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}
