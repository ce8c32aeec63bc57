package main

import (
	"database/sql"
	"errors"
	"os"
	"strconv"

	"care-booking-marketplace/config"
	"care-booking-marketplace/internal/infrastructure/database"
	appmigrations "care-booking-marketplace/migrations"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"
)

// Usage: migrate [up|down|version|force <version>]
func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	db, err := sql.Open("pgx", database.DSN(cfg.DB))
	if err != nil {
		logrus.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logrus.Fatalf("Failed to ping database: %v", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		logrus.Fatalf("Failed to create database driver: %v", err)
	}

	srcDriver, err := iofs.New(appmigrations.FS, ".")
	if err != nil {
		logrus.Fatalf("Failed to create source driver: %v", err)
	}

	m, err := migrate.NewWithInstance("iofs", srcDriver, "postgres", dbDriver)
	if err != nil {
		logrus.Fatalf("Failed to create migrator: %v", err)
	}
	defer func() { _, _ = m.Close() }()

	command := "up"
	if len(os.Args) >= 2 {
		command = os.Args[1]
	}

	switch command {
	case "up":
		err = m.Up()
	case "down":
		err = m.Steps(-1)
	case "force":
		if len(os.Args) < 3 {
			logrus.Fatal("force requires a version")
		}
		version, convErr := strconv.Atoi(os.Args[2])
		if convErr != nil {
			logrus.Fatalf("Invalid version: %v", convErr)
		}
		err = m.Force(version)
	case "version":
		version, dirty, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			logrus.Fatalf("Failed to read version: %v", verr)
		}
		logrus.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("Current migration version")
		return
	default:
		logrus.Fatalf("Unknown command %q", command)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logrus.Fatalf("Migration %s failed: %v", command, err)
	}

	logrus.WithField("command", command).Info("Migrations complete")
}
