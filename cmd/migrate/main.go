package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"storefront-be/internal/db"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

var migrateFunc = db.Migrate

func main() {
	_ = godotenv.Load()

	mode := flag.String("mode", "up", "migration mode: up or down")
	flag.Parse()

	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		log.Fatal("DB_URL not set in environment")
	}

	database, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("failed to connect db: %v", err)
	}
	defer database.Close()

	if err := run(database, *mode); err != nil {
		log.Fatal(err)
	}
}

func run(database *sql.DB, mode string) error {
	mode = strings.ToLower(strings.TrimSpace(mode))

	if err := database.Ping(); err != nil {
		return fmt.Errorf("failed to ping db: %w", err)
	}

	if err := migrateFunc(database, mode); err != nil {
		return err
	}

	log.Printf("migrations %s complete", mode)
	return nil
}
