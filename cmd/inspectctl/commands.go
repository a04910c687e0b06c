package main

import (
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"inspection-portal/internal/auth"
	"inspection-portal/internal/cleanup"
	"inspection-portal/internal/config"
	"inspection-portal/internal/database"
	"inspection-portal/internal/importer"
	"inspection-portal/internal/ledger"
	"inspection-portal/internal/search"
)

type legacyReader interface {
	database.LegacySource
	Close() error
}

type cli struct {
	configPath string

	openDB     func(cfg *config.Config) (*database.GormDB, error)
	openLegacy func(cfg config.PostgresConfig) (legacyReader, error)

	cfg *config.Config
	db  *database.GormDB
}

func newCLI() *cli {
	return &cli{
		openDB: func(cfg *config.Config) (*database.GormDB, error) {
			return database.Open(cfg.Database, cfg.Logging.Level)
		},
		openLegacy: func(cfg config.PostgresConfig) (legacyReader, error) {
			db, err := database.NewLegacyDB(cfg)
			if err != nil {
				return nil, err
			}
			return db, nil
		},
	}
}

func (c *cli) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	path := c.configPath
	if path == "" {
		path = config.GetEnv("CONFIG_PATH", "/app/config/portal.yaml")
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if cfg.Database.Type == "" {
		cfg.Database.Type = config.GetEnv("DB_TYPE", "mysql")
	}
	c.cfg = cfg
	return cfg, nil
}

// connect opens the database and brings the schema up to date
func (c *cli) connect() (*database.GormDB, error) {
	if c.db != nil {
		return c.db, nil
	}
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	db, err := c.openDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.InitSchema(); err != nil {
		return nil, err
	}
	c.db = db
	return db, nil
}

func (c *cli) close() {
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			log.Printf("Failed to close database: %v", err)
		}
	}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "inspectctl",
		Short:         "Inspection portal maintenance tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "Path to the YAML config (default $CONFIG_PATH)")

	root.AddCommand(
		c.migrateCmd(),
		c.seedBalanceCmd(),
		c.createAdminCmd(),
		c.reconcileCmd(),
		c.importLegacyCmd(),
		c.reindexCmd(),
		c.purgeSessionsCmd(),
	)
	return root
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the canonical tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.connect(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
			return nil
		},
	}
}

func (c *cli) seedBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-balance",
		Short: "Ensure the admin balance row exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := c.connect()
			if err != nil {
				return err
			}
			created, err := ledger.NewService(db.Store()).EnsureBalanceRow(cmd.Context())
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintln(cmd.OutOrStdout(), "Balance row created")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Balance row already exists")
			}
			return nil
		},
	}
}

func (c *cli) createAdminCmd() *cobra.Command {
	var email, name, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = config.GetEnv("ADMIN_PASSWORD", "")
			}
			if email == "" || password == "" {
				return errors.New("--email and --password (or ADMIN_PASSWORD) are required")
			}
			db, err := c.connect()
			if err != nil {
				return err
			}
			cfg, _ := c.config()
			user, err := auth.NewService(db.Store(), cfg.Session).CreateAdmin(cmd.Context(), email, name, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Admin %s created (id %d)\n", user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Admin email")
	cmd.Flags().StringVar(&name, "name", "Administrator", "Display name")
	cmd.Flags().StringVar(&password, "password", "", "Password (prefer ADMIN_PASSWORD)")
	return cmd
}

func (c *cli) reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute the balance from the ledger and repair drift",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := c.connect()
			if err != nil {
				return err
			}
			result, err := ledger.NewService(db.Store()).Reconcile(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Ledger entries: %d\n", result.Entries)
			fmt.Fprintf(out, "Ledger total:   %d\n", result.Ledger)
			if result.Repaired {
				fmt.Fprintf(out, "Balance repaired (was %d)\n", result.Previous)
			} else {
				fmt.Fprintln(out, "Balance matches the ledger")
			}
			return nil
		},
	}
}

func (c *cli) importLegacyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-legacy",
		Short: "Copy users and properties from the legacy schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := c.connect()
			if err != nil {
				return err
			}
			cfg, _ := c.config()
			src, err := c.openLegacy(cfg.Legacy.Postgres)
			if err != nil {
				return err
			}
			defer src.Close()

			result, err := importer.NewService(db.Store()).Run(cmd.Context(), src)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Users:      %d created, %d updated, %d skipped\n",
				result.UsersCreated, result.UsersUpdated, result.UsersSkipped)
			fmt.Fprintf(out, "Properties: %d created, %d skipped\n",
				result.PropertiesCreated, result.PropertiesSkipped)
			if result.PasswordResets > 0 {
				fmt.Fprintf(out, "%d users have no usable password and must reset it\n", result.PasswordResets)
			}
			return nil
		},
	}
}

func (c *cli) reindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the Meilisearch indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			ms := cfg.Search.Meilisearch
			if !ms.Enabled {
				return errors.New("meilisearch is disabled in the configuration")
			}
			db, err := c.connect()
			if err != nil {
				return err
			}
			client := search.NewSearchClient(
				config.GetEnvOrConfig(ms.Host, "MEILISEARCH_HOST", "http://meilisearch:7700"),
				config.GetEnvOrConfig(ms.APIKey, "MEILISEARCH_KEY", ""),
			)
			if err := client.InitIndex(); err != nil {
				return err
			}
			if err := search.Reindex(cmd.Context(), db.Store(), client); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Reindex complete")
			return nil
		},
	}
}

func (c *cli) purgeSessionsCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "purge-sessions",
		Short: "Delete expired login sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := c.connect()
			if err != nil {
				return err
			}
			cfg := cleanup.DefaultCleanupConfig()
			cfg.DryRun = dryRun
			result, err := cleanup.NewService(db.DB()).PurgeSessions(cfg)
			if err != nil {
				return err
			}
			verb := "Deleted"
			if result.DryRun {
				verb = "Would delete"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d of %d expired sessions\n", verb, result.DeletedCount, result.TargetCount)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only count what would be deleted")
	return cmd
}
