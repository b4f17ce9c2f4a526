package main

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/conceptforge/concept-api/internal/config"
	"github.com/conceptforge/concept-api/internal/infrastructure/server"
	"github.com/conceptforge/concept-api/internal/usecase/archive"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// newRootCommand builds the CLI. Persistent flags override the environment
// through v.
func newRootCommand(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:           "concept-api",
		Short:         "Turns prompts into concept text and images, and archives the results",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("db", "", "path of the SQLite archive (DATABASE_PATH)")
	flags.String("driver", "", "archive driver: bun or sqlite3 (ARCHIVE_DRIVER)")
	flags.String("log-level", "", "log level, debug dumps upstream bodies (LOG_LEVEL)")
	_ = v.BindPFlag("database_path", flags.Lookup("db"))
	_ = v.BindPFlag("archive_driver", flags.Lookup("driver"))
	_ = v.BindPFlag("log_level", flags.Lookup("log-level"))

	root.AddCommand(newServeCommand(v), newInitDBCommand(v), newArchiveCommand(v))
	return root
}

func newServeCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Println("Starting Concept API...")
			cfg := config.Load(v)
			return server.New(cfg).Run(cmd.Context())
		},
	}

	cmd.Flags().String("addr", "", "listen address (HTTP_ADDR)")
	cmd.Flags().String("text-backend", "", "text backend: flowise, gemini or ollama (TEXT_BACKEND)")
	_ = v.BindPFlag("http_addr", cmd.Flags().Lookup("addr"))
	_ = v.BindPFlag("text_backend", cmd.Flags().Lookup("text-backend"))
	return cmd
}

func newInitDBCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the archive schema if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load(v)
			store, err := server.OpenArchive(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.EnsureSchema(cmd.Context()); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Archive ready at %s\n", cfg.DatabasePath)
			return err
		},
	}
}

func newArchiveCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Inspect the concept archive",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print archived concepts as JSON, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := server.OpenArchive(config.Load(v))
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			concepts, err := archive.NewService(store).List(cmd.Context())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(concepts)
		},
	})
	return cmd
}
