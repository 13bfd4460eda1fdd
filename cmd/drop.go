package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-fm-metrics/internal/cache"
	"github.com/pable/go-fm-metrics/internal/savefile"
)

var (
	dropForce  bool
	dropBackup string
)

// dropCmd deletes the metrics database file.
var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete the metrics database",
	Long: `Permanently delete the SQLite metrics database and any cached tables. All stored
career data will be lost unless --backup writes a snapshot first.`,
	Args: cobra.NoArgs,
	RunE: runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "skip confirmation prompt")
	dropCmd.Flags().StringVar(&dropBackup, "backup", "", "export a snapshot to this file before deleting")
}

func runDrop(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(os.Stdout, "Database does not exist, nothing to drop.")
		return nil
	}
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will permanently delete: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm (add --backup <file> to keep a snapshot).\n")
		return nil
	}
	if dropBackup != "" {
		if err := backupBeforeDrop(dropBackup); err != nil {
			return fmt.Errorf("backup aborted drop: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Snapshot written: %s\n", dropBackup)
	}
	if err := dropCache(cmd.Context()); err != nil {
		fmt.Fprintf(os.Stderr, "warning: clear cache: %v\n", err)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		_ = os.Remove(dbPath + suffix)
	}
	if err := os.Remove(dbPath); err != nil {
		return fmt.Errorf("remove database: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Deleted: %s\n", dbPath)
	return nil
}

func backupBeforeDrop(path string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	snap, err := savefile.Capture(db, "")
	if err != nil {
		return err
	}
	return savefile.WriteFile(path, snap)
}

// dropCache clears cached tables. A fresh database restarts its revision
// counter, so old entries would otherwise be served again.
func dropCache(ctx context.Context) error {
	c, closeCache, err := openCache(ctx)
	if err != nil {
		return err
	}
	defer closeCache()
	return c.Invalidate(ctx, cache.Key())
}
