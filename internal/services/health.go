package services

import (
	"context"
	"log"
	"time"
)

// Pinger is anything whose availability can be probed.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResult is the payload of the health endpoint
type HealthResult struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Version  string `json:"version"`
	Database string `json:"database"`
}

// HealthService implements the health service
type HealthService struct {
	db      Pinger
	name    string
	version string
}

// NewHealthService creates a new health service
func NewHealthService(db Pinger, name, version string) *HealthService {
	return &HealthService{db: db, name: name, version: version}
}

// Check reports healthy when the database answers a ping, degraded otherwise
func (s *HealthService) Check(ctx context.Context) *HealthResult {
	res := &HealthResult{
		Status:   "healthy",
		Service:  s.name,
		Version:  s.version,
		Database: "up",
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.db.Ping(ctx); err != nil {
		log.Printf("[HEALTH] Database ping failed: %v", err)
		res.Status = "degraded"
		res.Database = "down"
	}
	return res
}
