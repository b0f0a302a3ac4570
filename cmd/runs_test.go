package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ararat-labs/housing-cli/internal/store"
)

func TestFormatRunsList(t *testing.T) {
	started := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	runs := []store.Run{
		{
			ID:         "6c2a9b7e-1111-2222-3333-444455556666",
			Kind:       "geocode",
			Status:     store.RunStatusComplete,
			Summary:    json.RawMessage(`{"resolved":42}`),
			StartedAt:  started,
			FinishedAt: sql.NullTime{Time: started.Add(95 * time.Second), Valid: true},
		},
		{
			ID:        "deadbeef-aaaa-bbbb-cccc-ddddeeeeffff",
			Kind:      "spread",
			Status:    store.RunStatusRunning,
			StartedAt: started,
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)
	out := buf.String()

	assert.Contains(t, out, "6c2a9b7e")
	assert.NotContains(t, out, "444455556666", "ids are shortened")
	assert.Contains(t, out, "geocode")
	assert.Contains(t, out, "1m35s")
	assert.Contains(t, out, `{"resolved":42}`)
	assert.Contains(t, out, "running")
	assert.Contains(t, out, "2026-03-14 09:30")
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "abcd", shortID("abcd"))
	assert.Equal(t, "12345678", shortID("123456789"))
}
