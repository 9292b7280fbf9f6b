package http

import (
	"github.com/nats-io/nats.go"

	"github.com/giovanto/overhead/internal/adapters/postgres"
	"github.com/giovanto/overhead/internal/adapters/valkey"
	"github.com/giovanto/overhead/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Observations *usecases.ObservationService
	Reports      *usecases.ReportService
	Stats        *usecases.StatsService
	Areas        []string
	NATS         *nats.Conn
	DB           *postgres.DB
	Cache        *valkey.Cache
}
