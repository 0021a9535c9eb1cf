package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":10000", cfg.ListenAddr)
	assert.Equal(t, "http://localhost:9000", cfg.Downstream.URL)
	assert.Equal(t, 300*time.Second, cfg.Downstream.Timeout)
	assert.Equal(t, "http://localhost:9200", cfg.Elasticsearch.URL)
	assert.False(t, cfg.GitCommit)
	assert.NotEmpty(t, cfg.ProjectsFile)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MINEGATE_LISTEN_ADDR", ":8080")
	t.Setenv("MINEGATE_DOWNSTREAM_URL", "http://miner:9000")
	t.Setenv("MINEGATE_DOWNSTREAM_TIMEOUT", "15s")
	t.Setenv("MINEGATE_ELASTICSEARCH_URL", "http://es:9200")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "http://miner:9000", cfg.Downstream.URL)
	assert.Equal(t, 15*time.Second, cfg.Downstream.Timeout)
	assert.Equal(t, "http://es:9200", cfg.Elasticsearch.URL)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "minegate.yaml")
	content := `listen_addr: ":7070"
projects_file: /srv/settings/projects.json
git_commit: true
downstream:
  url: http://execution:9000
  timeout: 30s
elasticsearch:
  url: http://search:9200
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.ListenAddr)
	assert.Equal(t, "/srv/settings/projects.json", cfg.ProjectsFile)
	assert.True(t, cfg.GitCommit)
	assert.Equal(t, "http://execution:9000", cfg.Downstream.URL)
	assert.Equal(t, 30*time.Second, cfg.Downstream.Timeout)
	assert.Equal(t, "http://search:9200", cfg.Elasticsearch.URL)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
