package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/medbase/medbase/internal/config"
	"github.com/medbase/medbase/internal/domain/identity"
	"github.com/medbase/medbase/internal/platform/auth"
	"github.com/medbase/medbase/internal/platform/db"
	"github.com/medbase/medbase/internal/platform/sequence"
	"github.com/medbase/medbase/migrations"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "medbase-server",
		Short: "MedBase clinic API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(sequenceCmd())
	return rootCmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MedBase API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns, cfg.DBRetryMaxAttempts)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, migrationFiles(dir)).WithMaxAttempts(cfg.DBRetryMaxAttempts)
			fmt.Printf("Running migrations on schema: %s\n", schema)

			count, err := migrator.Up(ctx, schema)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("schema", "public", "Target schema for migrations")
	upCmd.Flags().String("dir", "", "Read migrations from this directory instead of the embedded set")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns, cfg.DBRetryMaxAttempts)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, migrationFiles(dir)).Status(ctx, schema)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("Migration status for schema: %s\n", schema)
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("schema", "public", "Target schema for migrations")
	statusCmd.Flags().String("dir", "", "Read migrations from this directory instead of the embedded set")
	cmd.AddCommand(statusCmd)

	return cmd
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	createAdminCmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := identity.NewUserCreate()
			req.Username, _ = cmd.Flags().GetString("username")
			req.Password, _ = cmd.Flags().GetString("password")
			req.Email, _ = cmd.Flags().GetString("email")
			req.FirstName, _ = cmd.Flags().GetString("first-name")
			req.LastName, _ = cmd.Flags().GetString("last-name")
			req.Role = auth.RoleAdmin
			if req.Username == "" || req.Password == "" || req.Email == "" {
				return fmt.Errorf("--username, --password and --email are required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, closer, err := newLogger(cfg, os.Stdout)
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx := logger.WithContext(context.Background())
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns, cfg.DBRetryMaxAttempts)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := identity.NewService(identity.NewUserRepo(pool), identity.NewDoctorRepo(pool), nil)
			u, err := svc.CreateUser(ctx, req, db.SystemActor)
			if err != nil {
				return err
			}
			fmt.Printf("Created admin user %s (%s)\n", u.Username, u.ID)
			return nil
		},
	}
	createAdminCmd.Flags().String("username", "", "Login name")
	createAdminCmd.Flags().String("email", "", "Email address")
	createAdminCmd.Flags().String("password", "", "Initial password")
	createAdminCmd.Flags().String("first-name", "", "First name")
	createAdminCmd.Flags().String("last-name", "", "Last name")
	cmd.AddCommand(createAdminCmd)

	return cmd
}

func sequenceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sequence",
		Short: "Maintain display-number counters",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "sync",
		Short: "Raise counters to the highest display numbers stored in the tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns, cfg.DBRetryMaxAttempts)
			if err != nil {
				return err
			}
			defer pool.Close()

			var seeds []sequence.Seed
			err = db.InTx(ctx, pool, func(ctx context.Context) error {
				var err error
				seeds, err = sequence.NewSyncer(pool, sequence.NewCounterPG(pool)).Sync(ctx, sequence.Sources)
				return err
			})
			if err != nil {
				return fmt.Errorf("sequence sync failed: %w", err)
			}

			fmt.Printf("%-20s %s\n", "SCOPE", "VALUE")
			for _, s := range seeds {
				fmt.Printf("%-20s %d\n", s.Scope, s.Value)
			}
			return nil
		},
	})

	return cmd
}

// migrationFiles returns the embedded migrations, or the files in dir when it
// is set.
func migrationFiles(dir string) fs.FS {
	if dir == "" {
		return migrations.FS
	}
	return os.DirFS(dir)
}
