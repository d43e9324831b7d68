package main

import (
	"fmt"
	"os"

	"todoapi/backend/internal/config"
	sqlstore "todoapi/backend/internal/storage/sql"
)

// main 执行数据库迁移后退出
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if cfg.Database.Type == "" {
		fmt.Fprintln(os.Stderr, "database type not configured, nothing to migrate")
		os.Exit(1)
	}

	store, err := sqlstore.NewStore(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.Migrate(); err != nil {
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("migration completed")
}
