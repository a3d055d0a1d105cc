// Command treectl edits a sortable tree from the shell.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"sortabletree/internal/database"
	"sortabletree/internal/domain/repositories"
	treeSvc "sortabletree/internal/domain/services/tree"
	"sortabletree/internal/service/tree"
)

var (
	flagConfig  string
	flagJSON    bool
	flagVerbose bool

	// db and service are opened by PersistentPreRunE
	db      *database.DB
	service treeSvc.TreeService
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "treectl",
	Short: "treectl manages a closure-table sortable tree",
	Long: `treectl adds, moves, deletes and prints nodes of a sortable tree.

Settings come from TREE_* environment variables or treectl.yaml:
  TREE_DATABASE_URL   Postgres URL (empty uses SQLite)
  TREE_SQLITE_PATH    SQLite file (default sortabletree.db)
  TREE_TABLE_PREFIX   table prefix (default dev_)
  TREE_SORT_GAP       sibling sort gap (default 1000)`,
	SilenceUsage:       true,
	PersistentPreRunE:  openTree,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error { return closeTree() },
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: ./treectl.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log every mutation")

	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(rootsCmd)
	rootCmd.AddCommand(seedCmd)
}

// openTree connects to the configured backend and builds the tree service.
func openTree(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(flagConfig)
	if err != nil {
		return err
	}

	var out io.Writer = io.Discard
	if flagVerbose {
		out = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}))

	db, err = database.Connect(cmd.Context(), cfg, logger)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	if err := db.EnsureSchema(cmd.Context()); err != nil {
		return err
	}

	service = tree.NewTreeService(db.Store, tree.NewGapSequencer(cfg.SortGap), nil, repositories.ExcludeArchived, logger)
	return nil
}

func closeTree() error {
	if db != nil {
		db.Close()
	}
	return nil
}
