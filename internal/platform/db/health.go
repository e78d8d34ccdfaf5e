package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// HealthStatus describes the outcome of a database health probe.
type HealthStatus struct {
	Healthy    bool          `json:"healthy"`
	Latency    time.Duration `json:"latency"`
	Error      string        `json:"error,omitempty"`
	TotalConns int32         `json:"total_conns"`
	IdleConns  int32         `json:"idle_conns"`
}

// CheckHealth pings the database with a short deadline and reports pool
// statistics alongside the probe result.
func CheckHealth(ctx context.Context, pool *pgxpool.Pool) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := pool.Ping(ctx)
	latency := time.Since(start)

	stat := pool.Stat()
	status := HealthStatus{
		Healthy:    err == nil,
		Latency:    latency,
		TotalConns: stat.TotalConns(),
		IdleConns:  stat.IdleConns(),
	}
	if err != nil {
		status.Error = err.Error()
	}
	return status
}
