package model_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akaul/reportdash/internal/model"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := model.LoadConfig(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "Smoke-setup1", cfg.Mailbox.Folder)
	assert.Equal(t, 5, cfg.Mailbox.FetchLimit)
	assert.Equal(t, model.OnDuplicateReject, cfg.Ingest.OnDuplicate)
}

func TestLoadConfigReadsOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `db_path: /tmp/results.db
mailbox:
  folder: Regression-setup2
  fetch_limit: 25
ingest:
  on_duplicate: refresh
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := model.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/results.db", cfg.DBPath)
	assert.Equal(t, "Regression-setup2", cfg.Mailbox.Folder)
	assert.Equal(t, 25, cfg.Mailbox.FetchLimit)
	assert.Equal(t, model.OnDuplicateRefresh, cfg.Ingest.OnDuplicate)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"zero fetch limit", "mailbox:\n  fetch_limit: 0\n"},
		{"empty folder", "mailbox:\n  folder: \"\"\n"},
		{"unknown duplicate policy", "ingest:\n  on_duplicate: merge\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o644))

			_, err := model.LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := &model.AppConfig{
		DBPath: "/tmp/results.db",
		Mailbox: model.MailboxConfig{
			Folder:     "Smoke-setup1",
			FetchLimit: 10,
		},
		Ingest:  model.IngestConfig{OnDuplicate: model.OnDuplicateReject},
		Display: model.DisplayConfig{Theme: "default"},
	}
	require.NoError(t, model.SaveConfig(path, cfg))

	loaded, err := model.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Mailbox.Folder, loaded.Mailbox.Folder)
	assert.Equal(t, cfg.Mailbox.FetchLimit, loaded.Mailbox.FetchLimit)
}
