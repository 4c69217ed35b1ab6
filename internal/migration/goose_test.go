package migration

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGooseAdapter_Printf(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewGooseAdapter(zerolog.New(&buf))

	adapter.Printf("OK   %s (%d ms)\n", "00001_create_notifications.sql", 12)

	out := buf.String()
	assert.Contains(t, out, `"component":"goose"`)
	assert.Contains(t, out, "00001_create_notifications.sql (12 ms)")
	assert.NotContains(t, out, `\n`)
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := embeddedMigrations.ReadDir("migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	raw, err := embeddedMigrations.ReadFile("migrations/" + entries[0].Name())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "-- +goose Up")
	assert.Contains(t, string(raw), "-- +goose Down")
}

func TestEmbeddedMigrations_QualifySchema(t *testing.T) {
	entries, err := embeddedMigrations.ReadDir("migrations")
	require.NoError(t, err)

	objectRef := regexp.MustCompile(`(?i)(?:CREATE TABLE IF NOT EXISTS|DROP TABLE IF EXISTS|\bON)\s+([a-z_.]+)`)
	for _, entry := range entries {
		raw, err := embeddedMigrations.ReadFile("migrations/" + entry.Name())
		require.NoError(t, err)

		matches := objectRef.FindAllStringSubmatch(string(raw), -1)
		require.NotEmpty(t, matches, entry.Name())
		for _, m := range matches {
			assert.Regexp(t, `^`+schema+`\.`, m[1], entry.Name())
		}
	}
}
