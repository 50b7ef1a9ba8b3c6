// Package repository handles all interactions with the database.
//
// It contains raw SQL queries and methods to fetch, persist,
// or delete calculation records, abstracting SQL logic away from the
// service layer. Stats reads go through a Redis cache-aside layer.
package repository

import (
	"github.com/deppfellow/calculator-api/internal/server"
)

// Repositories is a container for all repository instances.
//
// Calculations is nil when no database is configured; the service layer
// answers 503 "Database not available" in that case.
type Repositories struct {
	Calculations *CalculationRepository
	Stats        *StatsCache
}

// NewRepositories constructs the repository container from the shared
// server dependencies (s.DB for Postgres, s.Redis for the stats cache).
func NewRepositories(s *server.Server) *Repositories {
	repos := &Repositories{
		Stats: NewStatsCache(s.Redis, DefaultStatsTTL, s.Logger),
	}

	if s.DB != nil {
		repos.Calculations = NewCalculationRepository(s.DB.Pool)
	}

	return repos
}
