package store

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DriverFactory builds a gorm.Dialector from a DSN.
type DriverFactory func(dsn string) gorm.Dialector

// The gateway ships with postgres for deployments and sqlite for tests.
var driverFactories = map[string]DriverFactory{
	"sqlite":   sqlite.Open,
	"postgres": postgres.Open,
}

// GetDialector resolves a driver name to its dialector. The name comes from
// DATABASE_DRIVER, so an unknown value is a configuration error.
func GetDialector(driver, dsn string) (gorm.Dialector, error) {
	factory, exists := driverFactories[driver]
	if !exists {
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
	return factory(dsn), nil
}

// RegisterDriver adds a driver beyond the built-in pair.
func RegisterDriver(name string, factory DriverFactory) {
	driverFactories[name] = factory
}
