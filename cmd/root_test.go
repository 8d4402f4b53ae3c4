package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/leadgen-cli/internal/dedup"
	"github.com/sells-group/leadgen-cli/internal/store"
)

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "a", firstNonEmpty("a", "b"))
	assert.Equal(t, "b", firstNonEmpty("", "b"))
	assert.Equal(t, "", firstNonEmpty("", ""))
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "", redact(""))
	assert.Equal(t, "<redacted>", redact("short"))
	assert.Equal(t, "AIzaSy01...", redact("AIzaSy0123456789abcdef"))
}

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC)
	runs := []store.Run{
		{
			ID:         "run-one",
			Provider:   "gemini",
			NumBatches: 667,
			Status:     store.RunStatusComplete,
			Stats:      &dedup.Stats{TotalLeads: 9800, DuplicatesPrevented: 120},
			CreatedAt:  now,
		},
		{
			ID:         "run-two",
			Provider:   "offline",
			NumBatches: 4,
			Status:     store.RunStatusRunning,
			CreatedAt:  now,
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], "STATUS")
	assert.Contains(t, lines[1], "run-one")
	assert.Contains(t, lines[1], "9800")
	assert.Contains(t, lines[2], "run-two")
	assert.Contains(t, lines[2], "-", "runs without stats show placeholders")
}
