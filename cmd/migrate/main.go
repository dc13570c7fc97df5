package main

import (
	"context"
	"log"
	"os"
	"sort"

	"testdesk/adapters/sqlstore"
	"testdesk/internal/config"
	"testdesk/internal/migration"

	"github.com/joho/godotenv"
)

func main() {
	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}
	if command != "up" && command != "status" {
		log.Fatal("Usage: migrate [up|status]")
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	db, err := sqlstore.Connect(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	runner := migration.NewRunner(cfg.Database.Driver)

	if command == "up" {
		log.Printf("Applying schema %s to %s database", runner.Version(), cfg.Database.Driver)
		if err := runner.Run(ctx, db); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
	}

	status, err := runner.Status(ctx, db)
	if err != nil {
		log.Fatalf("Failed to read migration status: %v", err)
	}
	tables := make([]string, 0, len(status))
	for table := range status {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	for _, table := range tables {
		state := "missing"
		if status[table] {
			state = "present"
		}
		log.Printf("%-12s %s", table, state)
	}
}
