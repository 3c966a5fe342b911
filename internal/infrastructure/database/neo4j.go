package database

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/eslsoft/conceptgraph/internal/infrastructure/config"
)

// NewNeo4jDriver connects to the configured Neo4j instance and verifies connectivity.
func NewNeo4jDriver(cfg *config.Config) (neo4j.DriverWithContext, func(), error) {
	nc := cfg.Neo4j
	if nc.URI == "" {
		return nil, nil, fmt.Errorf("neo4j.uri is required")
	}
	timeout := time.Duration(nc.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	driver, err := neo4j.NewDriverWithContext(nc.URI, neo4j.BasicAuth(nc.User, nc.Password, ""), func(c *neo4j.Config) {
		if nc.MaxPoolSize > 0 {
			c.MaxConnectionPoolSize = nc.MaxPoolSize
		}
		c.SocketConnectTimeout = timeout
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init neo4j driver: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	cleanup := func() { _ = driver.Close(context.Background()) }
	return driver, cleanup, nil
}
