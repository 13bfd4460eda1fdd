package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-fm-metrics/internal/savefile"
)

var (
	saveName  string
	saveForce bool
)

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Export or import a whole career snapshot",
}

var saveExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write squad, transfers and match stats to a snapshot file",
	Long: `Write every table to one JSON snapshot. A .zst extension compresses with zstd,
.gz with gzip; anything else is plain JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: runSaveExport,
}

var saveImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the database contents with a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runSaveImport,
}

func init() {
	saveExportCmd.Flags().StringVar(&saveName, "name", "", "career name stored in the snapshot")
	saveImportCmd.Flags().BoolVarP(&saveForce, "force", "f", false, "overwrite a non-empty database")
	saveCmd.AddCommand(saveExportCmd, saveImportCmd)
}

func runSaveExport(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	snap, err := savefile.Capture(db, saveName)
	if err != nil {
		return err
	}
	if err := savefile.WriteFile(args[0], snap); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Exported %d squad, %d transfer and %d match rows to %s\n",
		len(snap.Squad), len(snap.Transfers), len(snap.MatchStats), args[0])
	return nil
}

func runSaveImport(cmd *cobra.Command, args []string) error {
	snap, err := savefile.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	ov, err := db.Overview()
	if err != nil {
		return fmt.Errorf("get overview: %w", err)
	}
	if !saveForce && ov.SquadRows+ov.TransferRows+ov.MatchRows > 0 {
		fmt.Fprintf(os.Stderr, "%s already holds data (%d match rows).\n", dbPath, ov.MatchRows)
		fmt.Fprintf(os.Stderr, "Re-run with --force to replace it.\n")
		return nil
	}
	if err := snap.Restore(db); err != nil {
		return err
	}
	name := snap.Name
	if name == "" {
		name = args[0]
	}
	fmt.Fprintf(os.Stdout, "Imported %s: %d squad, %d transfer and %d match rows\n",
		name, len(snap.Squad), len(snap.Transfers), len(snap.MatchStats))
	return nil
}
