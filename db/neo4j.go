// db/neo4j.go
package db

import (
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	logger "github.com/dev-mohitbeniwal/weave/logging"
)

// NewNeo4jDriver builds a driver from the viper configuration and
// verifies connectivity. The caller owns the driver's lifecycle.
func NewNeo4jDriver() (neo4j.Driver, error) {
	uri := viper.GetString("neo4j.uri")
	logger.Info("Connecting to Neo4j at URI", zap.String("uri", uri))

	driver, err := neo4j.NewDriver(
		uri,
		neo4j.BasicAuth(
			viper.GetString("neo4j.username"),
			viper.GetString("neo4j.password"),
			"",
		),
		func(c *neo4j.Config) {
			c.MaxConnectionLifetime = 30 * time.Minute
			c.MaxConnectionPoolSize = 50
			c.Log = neo4j.ConsoleLogger(neo4j.ERROR)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(); err != nil {
		return nil, fmt.Errorf("failed to connect to Neo4j: %w", err)
	}

	logger.Info("Successfully connected to Neo4j")
	return driver, nil
}

// CloseNeo4j closes the driver, logging rather than returning the
// error since it runs on shutdown paths.
func CloseNeo4j(driver neo4j.Driver) {
	if driver == nil {
		return
	}
	if err := driver.Close(); err != nil {
		logger.Error("Error closing Neo4j connection", zap.Error(err))
	} else {
		logger.Info("Neo4j connection closed successfully")
	}
}
