package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/rundown/plugin/ical"
)

func TestLoadProfile_FromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RUNDOWN_DATA", dir)
	t.Setenv("RUNDOWN_INGEST_DAYS", "5")
	t.Setenv("RUNDOWN_INTERESTS", "Golf, Budget")
	t.Setenv("RUNDOWN_TIMEZONE", "America/New_York")
	t.Setenv("RUNDOWN_LLM_API_KEY", "")

	p, err := loadProfile()
	require.NoError(t, err)
	assert.Equal(t, "dev", p.Mode)
	assert.Equal(t, 5, p.IngestDays)
	assert.Equal(t, []string{"golf", "budget"}, p.Interests)
	assert.Equal(t, "America/New_York", p.Timezone)
	assert.Equal(t, filepath.Join(dir, "rundown_dev.db"), p.DSN)
	assert.Equal(t, "rundown-dev", p.SessionSecret)
	assert.Equal(t, "@every 50m", p.IngestSchedule)
}

func TestLoadProfile_InvalidTimezone(t *testing.T) {
	t.Setenv("RUNDOWN_DATA", t.TempDir())
	t.Setenv("RUNDOWN_TIMEZONE", "Mars/Olympus")

	_, err := loadProfile()
	assert.Error(t, err)
}

func TestNewApp_ICSWithMailbox(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RUNDOWN_DATA", dir)
	t.Setenv("RUNDOWN_CALENDAR", "ics")
	t.Setenv("RUNDOWN_MAILBOX_PATH", filepath.Join(dir, "mail.yaml"))
	t.Setenv("RUNDOWN_LLM_API_KEY", "")

	p, err := loadProfile()
	require.NoError(t, err)

	a, err := newApp(context.Background(), p)
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &ical.Calendar{}, a.backend)
	assert.Nil(t, a.store)
	assert.NotNil(t, a.mailbox)
	assert.NotNil(t, a.ingester)
	assert.NotNil(t, a.chat)
}
