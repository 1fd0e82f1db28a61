// Package config loads orchestrator and worker configuration from
// environment variables, per the conventions the SERVICE_<NAME>_* scan and
// typed-default env helpers are grounded on.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jobmesh/jobmesh/internal/models"
)

// getEnv returns the environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// getIntEnv returns an integer environment variable or a default.
func getIntEnv(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

// getDurationSecondsEnv returns a duration, expressed in seconds in the
// environment, or a default.
func getDurationSecondsEnv(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return defaultValue
}

// Orchestrator holds the orchestrator role's startup configuration.
type Orchestrator struct {
	Port     int
	DBPath   string
	DataPath string
	MaxAge   time.Duration
	Services map[string]models.Service
}

// LoadOrchestrator reads SERVICE_<NAME>_{UPLOAD_URL,DOWNLOAD_URL,RUNS_PER_USER},
// PORT, DB_PATH, DATA_PATH, and MAX_AGE from the environment, per spec §6.3.
// At least one service must be configured, and every configured service
// must have both a submit and a retrieve URL; otherwise an error is
// returned so the caller can exit non-zero.
func LoadOrchestrator() (*Orchestrator, error) {
	services := make(map[string]models.Service)

	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, "SERVICE_") {
			continue
		}
		parts := strings.Split(key, "_")
		if len(parts) < 3 {
			continue
		}
		name := strings.ToLower(parts[1])
		field := strings.Join(parts[2:], "_")

		svc := services[name]
		svc.Name = name
		if svc.RunsPerUser == 0 {
			svc.RunsPerUser = 5
		}

		switch field {
		case "UPLOAD_URL":
			svc.SubmitURL = value
		case "DOWNLOAD_URL":
			svc.RetrieveURL = value
		case "RUNS_PER_USER":
			if n, err := strconv.Atoi(value); err == nil {
				svc.RunsPerUser = n
			}
		default:
			services[name] = svc
			continue
		}
		services[name] = svc
	}

	for name, svc := range services {
		if svc.SubmitURL == "" || svc.RetrieveURL == "" {
			return nil, fmt.Errorf("config: service %q is missing SERVICE_%s_UPLOAD_URL or SERVICE_%s_DOWNLOAD_URL", name, strings.ToUpper(name), strings.ToUpper(name))
		}
	}

	if len(services) == 0 {
		return nil, fmt.Errorf("config: no services configured; set at least one SERVICE_<NAME>_UPLOAD_URL / SERVICE_<NAME>_DOWNLOAD_URL pair")
	}

	return &Orchestrator{
		Port:     getIntEnv("PORT", 5000),
		DBPath:   getEnv("DB_PATH", "./db.sqlite"),
		DataPath: getEnv("DATA_PATH", "./data"),
		MaxAge:   getDurationSecondsEnv("MAX_AGE", 172800*time.Second),
		Services: services,
	}, nil
}

// Lookup returns the registered service definition by name, or false if it
// is not registered. The registry is immutable after LoadOrchestrator
// returns (spec §3.3).
func (o *Orchestrator) Lookup(name string) (models.Service, bool) {
	svc, ok := o.Services[name]
	return svc, ok
}

// Worker holds the worker role's startup configuration.
type Worker struct {
	Port       int
	WorkDir    string
	RunTimeout time.Duration
}

// LoadWorker reads PORT from the environment, per spec §6.3, plus the
// ambient JOBMESH_WORK_DIR / JOBMESH_RUN_TIMEOUT knobs (SPEC_FULL §7).
func LoadWorker() (*Worker, error) {
	runTimeout := 10 * time.Minute
	if v := os.Getenv("JOBMESH_RUN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			runTimeout = d
		}
	}

	return &Worker{
		Port:       getIntEnv("PORT", 9000),
		WorkDir:    getEnv("JOBMESH_WORK_DIR", "./work"),
		RunTimeout: runTimeout,
	}, nil
}
