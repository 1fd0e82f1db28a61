package orchestrator

import (
	"github.com/jobmesh/jobmesh/internal/config"
	"github.com/jobmesh/jobmesh/internal/models"
)

// Registry is a read-only view over the statically configured services
// (spec §3.3, §5: "Service Registry: read-only after startup").
type Registry struct {
	cfg *config.Orchestrator
}

// NewRegistry wraps the loaded orchestrator configuration.
func NewRegistry(cfg *config.Orchestrator) *Registry {
	return &Registry{cfg: cfg}
}

// Lookup returns the service definition for name.
func (r *Registry) Lookup(name string) (models.Service, bool) {
	return r.cfg.Lookup(name)
}

// RunsPerUser returns the quota for name, defaulting to 5 when the service
// does not override it (already applied at config load time).
func (r *Registry) RunsPerUser(name string) int {
	svc, ok := r.cfg.Lookup(name)
	if !ok {
		return 5
	}
	return svc.RunsPerUser
}
