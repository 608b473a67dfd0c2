package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: workflow
    user: workflow
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFileDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, baseYAML+`
workers:
  application-submitted:
    enabled: true
`))
	require.NoError(t, err)

	assert.Equal(t, "workflow-manager", cfg.App.Name)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, CapacityGuardNone, cfg.Assignment.CapacityGuard)
	assert.Equal(t, 200, cfg.Rooms.MaxNotes)
	assert.Equal(t, "system", cfg.Rooms.SystemActorID)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "assignment-records", cfg.Reporting.AssignmentIndex)

	w := GetWorkerConfig(cfg, "application-submitted")
	assert.True(t, w.Enabled)
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.Equal(t, 30000, w.Timeout)
	assert.Equal(t, 3, w.MaxRetries)
}

func TestLoadFromFileExpandsEnv(t *testing.T) {
	t.Setenv("WORKFLOW_TEST_DB_PASSWORD", "s3cret")
	cfg, err := LoadFromFile(writeConfig(t, baseYAML+`
    password: ${WORKFLOW_TEST_DB_PASSWORD}
`))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Database.Postgres.Password)
}

func TestLoadFromFileValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing broker",
			body:    "database:\n  postgres:\n    host: h\n    database: d\n    user: u\n",
			wantErr: "camunda.broker_address",
		},
		{
			name:    "unknown capacity guard",
			body:    baseYAML + "assignment:\n  capacity_guard: mutex\n",
			wantErr: "capacity_guard",
		},
		{
			name:    "redis lock without redis",
			body:    baseYAML + "assignment:\n  capacity_guard: redis_lock\n",
			wantErr: "database.redis.address",
		},
		{
			name:    "reporting without elasticsearch",
			body:    baseYAML + "reporting:\n  enabled: true\n",
			wantErr: "elasticsearch",
		},
		{
			name:    "email without sender",
			body:    baseYAML + "integrations:\n  aws:\n    region: eu-west-1\nnotifications:\n  email:\n    enabled: true\n",
			wantErr: "from_email",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestWorkerHelpers(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{"consultant-stats": {Enabled: false}}}
	assert.False(t, IsWorkerEnabled(cfg, "consultant-stats"))
	assert.True(t, IsWorkerEnabled(cfg, "message-posted"))
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, Database: "workflow", User: "u", Password: "p", SSLMode: "disable"}
	dsn := p.GetDSN()
	assert.Contains(t, dsn, "host=db")
	assert.Contains(t, dsn, "dbname=workflow")
}

func TestElasticsearchURL(t *testing.T) {
	assert.Equal(t, "http://a:9200", ElasticsearchConfig{Addresses: []string{"http://a:9200"}}.GetURL())
	assert.Equal(t, "", ElasticsearchConfig{}.GetURL())
}
