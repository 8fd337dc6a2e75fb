package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"

	"storefront/internal/config"
	"storefront/internal/db"
)

// Applies every migrations/*.sql file not yet recorded in
// schema_migrations, in filename order. Only the section above the
// "-- +migrate Down" marker is executed.
func main() {
	cfg := config.Load()
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer database.Close()

	if err := run(database); err != nil {
		log.Fatalf("migrate: %v", err)
	}
}

func run(database *sqlx.DB) error {
	if _, err := database.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (filename text primary key, applied_at timestamptz default now())`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied := map[string]bool{}
	var names []string
	if err := database.Select(&names, `SELECT filename FROM schema_migrations`); err != nil {
		return fmt.Errorf("read migration state: %w", err)
	}
	for _, name := range names {
		applied[name] = true
	}

	files, err := filepath.Glob("migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		filename := filepath.Base(file)
		if applied[filename] {
			continue
		}
		if err := applyFile(database, file); err != nil {
			return fmt.Errorf("apply %s: %w", filename, err)
		}
		if _, err := database.Exec(`INSERT INTO schema_migrations (filename) VALUES ($1)`, filename); err != nil {
			return fmt.Errorf("record %s: %w", filename, err)
		}
		fmt.Printf("applied %s\n", filename)
	}
	return nil
}

func applyFile(database *sqlx.DB, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	up, _, _ := strings.Cut(string(content), "-- +migrate Down")
	for _, stmt := range splitSQL(up) {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := database.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// splitSQL breaks a migration section into single statements on
// semicolons at line ends. None of our migrations use semicolons inside
// string literals or function bodies, so this is sufficient.
func splitSQL(sqlText string) []string {
	var statements []string
	var current strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(sqlText))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		current.WriteString(line)
		current.WriteRune('\n')
		if strings.Contains(line, ";") {
			statements = append(statements, current.String())
			current.Reset()
		}
	}
	if strings.TrimSpace(current.String()) != "" {
		statements = append(statements, current.String())
	}
	return statements
}
