package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"warbler/crud"
	"warbler/http"
)

// main is the app's entry point.
func main() {
	// Check if the flag "-prod" has been provided. It means that we're running in production.
	prod := flag.Bool("prod", false, "Provide this flag in production to ensure that a .config.json file is provided before the application starts.")
	reset := flag.Bool("reset", false, "Drop and recreate all tables before starting. Never use this in production.")
	flag.Parse()

	log := logrus.New()

	// Load configuration from a .config.json file if present, otherwise use the default dev setup.
	// In production the file is required.
	config, err := LoadConfig(".", *prod)
	must(log, err)
	if config.IsProd() {
		log.SetFormatter(&logrus.JSONFormatter{})
		log.SetLevel(logrus.InfoLevel)
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		log.SetLevel(logrus.DebugLevel)
	}

	// Open a database connection.
	db, err := OpenDB(config.Database.ConnectionInfo(), config.IsProd(), log)
	must(log, err)

	// Start the crud services and execute migrations.
	services, err := crud.NewServices(db,
		crud.WithUser(config.Pepper),
		crud.WithMessage(),
		crud.WithFollow(),
		crud.WithLike(),
		crud.WithSession(config.HMACKey),
	)
	must(log, err)
	defer services.Close()
	if *reset && !config.IsProd() {
		must(log, services.DestructiveReset())
	}
	must(log, services.AutoMigrate())

	// Set up a webserver.
	server := http.NewServer(services, http.Options{
		IsProd:     config.IsProd(),
		SessionKey: []byte(config.SessionKey),
		CSRFKey:    []byte(config.CSRFKey),
		Logger:     log,
	})

	// Serve the app until interrupted.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := server.Run(ctx, config.Port); err != nil {
		log.WithError(err).Error("Server stopped")
	}
}

// must is a little helper for shortening the fatal instruction.
func must(log *logrus.Logger, err error) {
	if err != nil {
		log.WithError(err).Fatal("Startup failed")
	}
}
