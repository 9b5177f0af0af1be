package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"albumportal/internal/logging"
	"albumportal/internal/models"
)

func TestRecord(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	handle := record(log)

	err := handle(models.AccountEvent{
		ID:         "evt-1",
		Type:       models.EventAccountDeleted,
		Username:   "alice01",
		OccurredAt: time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "account.deleted", line["msg"])
	assert.Equal(t, "alice01", line["username"])
	assert.Equal(t, "audit", line["component"])
	assert.Equal(t, "evt-1", line["event_id"])
}

func TestRecord_RejectsIncompleteEvents(t *testing.T) {
	handle := record(logging.Discard())
	assert.Error(t, handle(models.AccountEvent{ID: "evt-2", Type: models.EventAccountLogin}))
}
