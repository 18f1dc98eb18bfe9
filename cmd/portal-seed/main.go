// portal-seed creates or updates the bootstrap staff accounts. Accounts are
// matched by email, so running it repeatedly is safe.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/portal-hospitalario/backend/internal/config"
	"github.com/portal-hospitalario/backend/internal/database"
	"github.com/portal-hospitalario/backend/internal/logging"
	"github.com/portal-hospitalario/backend/internal/seed"
	"github.com/portal-hospitalario/backend/internal/store/gormstore"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var filePath string
	var dsnFromEnv bool
	var dryRun bool

	flagSet := pflag.NewFlagSet("portal-seed", pflag.ContinueOnError)
	flagSet.StringVar(&filePath, "file", "", "path to the YAML seed file (default: built-in accounts)")
	flagSet.BoolVar(&dsnFromEnv, "dsn-from-env", true, "read DB_* connection settings from the environment and .env")
	flagSet.BoolVar(&dryRun, "dry-run", false, "validate and print the accounts without writing")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}

	file, err := seed.Load(filePath)
	if err != nil {
		return err
	}

	if dryRun {
		for _, a := range file.Accounts {
			role := a.Role
			if role == "" {
				role = "User"
			}
			fmt.Printf("%-40s %-16s %s\n", a.Email, role, a.Department)
		}
		fmt.Printf("%d accounts (dry run, nothing written)\n", len(file.Accounts))
		return nil
	}

	if !dsnFromEnv {
		return fmt.Errorf("no database configured: --dsn-from-env=false leaves nothing to connect to")
	}

	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	st := gormstore.New(db)
	res, err := seed.Apply(context.Background(), st.Users, file)
	if err != nil {
		return err
	}
	slog.Info("accounts seeded", "created", res.Created, "updated", res.Updated)
	fmt.Printf("%d created, %d updated\n", res.Created, res.Updated)
	return nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintln(os.Stderr, "Usage: portal-seed [flags]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Creates or updates bootstrap accounts by email.")
	fmt.Fprintln(os.Stderr)
	flagSet.PrintDefaults()
}
