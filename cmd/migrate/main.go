// Command migrate applies or rolls back the embedded schema migrations.
//
//	migrate up        apply all pending migrations
//	migrate down      roll back the last migration
//	migrate goto N    migrate up or down to version N
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/speed-article-api/internal/config"
	"github.com/speed-article-api/internal/database"
	"github.com/speed-article-api/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.Load()
	if err != nil {
		log := logger.New("info", "json")
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	switch os.Args[1] {
	case "up":
		err = db.RunMigrations()
	case "down":
		err = db.MigrateDown()
	case "goto":
		if len(os.Args) != 3 {
			usage()
		}
		var version uint64
		version, err = strconv.ParseUint(os.Args[2], 10, 32)
		if err != nil {
			log.Fatal().Str("version", os.Args[2]).Msg("Version must be a non-negative integer")
		}
		err = db.MigrateToVersion(uint(version))
	default:
		usage()
	}

	if err != nil {
		log.Fatal().Err(err).Str("command", os.Args[1]).Msg("Migration failed")
	}
	log.Info().Str("command", os.Args[1]).Msg("Migration finished")
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: migrate up | down | goto N")
	os.Exit(2)
}
