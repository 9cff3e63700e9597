package main

import (
	"errors"
	"flag"
	"log"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/noah-isme/trainer-discovery-api/pkg/config"
	"github.com/noah-isme/trainer-discovery-api/pkg/database"
)

func main() {
	var (
		dir   string
		steps int
	)
	flag.StringVar(&dir, "dir", "migrations", "Path to the migrations directory")
	flag.IntVar(&steps, "steps", 0, "Apply n migrations (negative rolls back); 0 runs the command fully")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.Store != config.StorePostgres {
		log.Fatalf("migrations only apply to the postgres store, STORE_BACKEND is %q", cfg.Store)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		log.Fatalf("resolve migrations dir: %v", err)
	}

	m, err := migrate.New("file://"+abs, database.URL(cfg.Database))
	if err != nil {
		log.Fatalf("init migrate: %v", err)
	}
	defer m.Close()

	cmd := "up"
	if flag.NArg() > 0 {
		cmd = flag.Arg(0)
	}

	switch {
	case steps != 0:
		err = m.Steps(steps)
	case cmd == "down":
		err = m.Down()
	case cmd == "up":
		err = m.Up()
	default:
		log.Fatalf("unknown command %q, expected up or down", cmd)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("migration %s failed: %v", cmd, err)
	}

	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		log.Fatalf("read version: %v", verr)
	}
	log.Printf("migration %s complete (version=%d dirty=%t)", cmd, version, dirty)
}
