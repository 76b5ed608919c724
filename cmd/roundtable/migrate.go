package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/BaSui01/roundtable/config"
	"github.com/BaSui01/roundtable/internal/migration"
)

// =============================================================================
// Database Migration Commands
// =============================================================================

// runMigrate handles the migrate command and its subcommands
func runMigrate(args []string) int {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Usage = printMigrateUsage
	fs.Parse(args)

	if fs.NArg() == 0 || fs.Arg(0) == "help" {
		printMigrateUsage()
		if fs.NArg() == 0 {
			return 1
		}
		return 0
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := migrate(context.Background(), cfg.Database, fs.Args(), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// migrate runs one subcommand against the transcript database.
func migrate(ctx context.Context, dbCfg config.DatabaseConfig, args []string, out io.Writer) error {
	m, err := migration.NewMigratorFromDatabaseConfig(dbCfg)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	cli := migration.NewCLI(m)
	cli.SetOutput(out)
	return cli.Run(ctx, args)
}

// printMigrateUsage prints the usage information for migrate command
func printMigrateUsage() {
	fmt.Println(`Database Migration Commands

Usage:
  roundtable migrate [--config <path>] <subcommand> [args]

Subcommands:
  up          Apply all pending migrations
  down        Roll back the last migration
  steps <n>   Apply (n>0) or roll back (n<0) n migrations
  force <v>   Force set migration version (use with caution)
  version     Show current migration version
  status      Show migration status
  info        Show migration summary
  help        Show this help message

The database connection comes from the 'database' section of the config file
or the ROUNDTABLE_DATABASE_* environment variables.`)
}
