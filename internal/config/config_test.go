package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrchestrator_RequiresAtLeastOneService(t *testing.T) {
	clearServiceEnv(t)
	_, err := LoadOrchestrator()
	require.Error(t, err)
}

func TestLoadOrchestrator_RejectsServiceMissingURLs(t *testing.T) {
	clearServiceEnv(t)
	t.Setenv("SERVICE_EXAMPLE_RUNS_PER_USER", "2")

	_, err := LoadOrchestrator()
	require.Error(t, err)
}

func TestLoadOrchestrator_RejectsServiceMissingRetrieveURL(t *testing.T) {
	clearServiceEnv(t)
	t.Setenv("SERVICE_EXAMPLE_UPLOAD_URL", "http://worker:9000/submit")

	_, err := LoadOrchestrator()
	require.Error(t, err)
}

func TestLoadOrchestrator_ParsesServiceFromEnv(t *testing.T) {
	clearServiceEnv(t)
	t.Setenv("SERVICE_EXAMPLE_UPLOAD_URL", "http://worker:9000/submit")
	t.Setenv("SERVICE_EXAMPLE_DOWNLOAD_URL", "http://worker:9000/retrieve")
	t.Setenv("SERVICE_EXAMPLE_RUNS_PER_USER", "2")

	cfg, err := LoadOrchestrator()
	require.NoError(t, err)

	svc, ok := cfg.Lookup("example")
	require.True(t, ok)
	assert.Equal(t, "http://worker:9000/submit", svc.SubmitURL)
	assert.Equal(t, "http://worker:9000/retrieve", svc.RetrieveURL)
	assert.Equal(t, 2, svc.RunsPerUser)
}

func TestLoadOrchestrator_DefaultsRunsPerUser(t *testing.T) {
	clearServiceEnv(t)
	t.Setenv("SERVICE_EXAMPLE_UPLOAD_URL", "http://worker:9000/submit")
	t.Setenv("SERVICE_EXAMPLE_DOWNLOAD_URL", "http://worker:9000/retrieve")

	cfg, err := LoadOrchestrator()
	require.NoError(t, err)

	svc, ok := cfg.Lookup("example")
	require.True(t, ok)
	assert.Equal(t, 5, svc.RunsPerUser)
}

func TestLoadOrchestrator_Defaults(t *testing.T) {
	clearServiceEnv(t)
	t.Setenv("SERVICE_EXAMPLE_UPLOAD_URL", "http://worker:9000/submit")
	t.Setenv("SERVICE_EXAMPLE_DOWNLOAD_URL", "http://worker:9000/retrieve")

	cfg, err := LoadOrchestrator()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, "./db.sqlite", cfg.DBPath)
	assert.Equal(t, "./data", cfg.DataPath)
}

func TestLoadWorker_Defaults(t *testing.T) {
	cfg, err := LoadWorker()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "./work", cfg.WorkDir)
}

// clearServiceEnv unsets every SERVICE_* variable the tests in this file
// set, since LoadOrchestrator scans the whole process environment and a
// merely-empty value still registers as a configured service.
func clearServiceEnv(t *testing.T) {
	t.Helper()
	vars := []string{
		"SERVICE_EXAMPLE_UPLOAD_URL",
		"SERVICE_EXAMPLE_DOWNLOAD_URL",
		"SERVICE_EXAMPLE_RUNS_PER_USER",
	}
	for _, kv := range vars {
		os.Unsetenv(kv)
	}
	t.Cleanup(func() {
		for _, kv := range vars {
			os.Unsetenv(kv)
		}
	})
}
