package main

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDB opens a new postgres connection. It also configures logging based on
// whether we're in development or in production: queries are only logged in
// development, slow queries always.
func OpenDB(connectionInfo string, isProd bool, log *logrus.Logger) (*gorm.DB, error) {
	if connectionInfo == "" {
		return nil, fmt.Errorf("connectionInfo required")
	}
	level := logger.Info
	if isProd {
		level = logger.Warn
	}
	gormLogger := logger.New(log, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  !isProd,
	})

	db, err := gorm.Open(postgres.Open(connectionInfo), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("err opening gorm postgres connection: %w", err)
	}
	return db, nil
}
