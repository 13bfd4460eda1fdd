package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-fm-metrics/internal/analytics"
	"github.com/pable/go-fm-metrics/internal/model"
	"github.com/pable/go-fm-metrics/internal/report"
)

var (
	transferSeason string
	transferDate   string
	transferType   string
	transferValue  string
)

var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Record and summarise the transfer log",
}

var transferAddCmd = &cobra.Command{
	Use:   "add <player>",
	Short: "Append a transfer log entry",
	Long: `Append a transfer log entry. --value is free-form: a fee such as "£12.5M" or
"750K", "Free", or a percentage split such as "50%".`,
	Args: cobra.ExactArgs(1),
	RunE: runTransferAdd,
}

var transferListCmd = &cobra.Command{
	Use:   "list",
	Short: "List transfer log entries",
	Args:  cobra.NoArgs,
	RunE:  runTransferList,
}

var transferSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Count and total fees per transfer type",
	Args:  cobra.NoArgs,
	RunE:  runTransferSummary,
}

func init() {
	f := transferAddCmd.Flags()
	f.StringVar(&transferSeason, "season", "", "season (required)")
	f.StringVar(&transferDate, "date", "", "transfer date")
	f.StringVar(&transferType, "type", "in", "in, out, loan-in, loan-out, loan-in-option or loan-out-option")
	f.StringVar(&transferValue, "value", "", "fee or percentage split")
	_ = transferAddCmd.MarkFlagRequired("season")

	transferListCmd.Flags().StringVar(&transferSeason, "season", "", "season to list (default all)")
	transferSummaryCmd.Flags().StringVar(&transferSeason, "season", "", "season to summarise (default all)")

	transferCmd.AddCommand(transferAddCmd, transferListCmd, transferSummaryCmd)
}

func runTransferAdd(cmd *cobra.Command, args []string) error {
	tt, err := model.ParseTransferType(transferType)
	if err != nil {
		return err
	}
	if _, kind := analytics.ParseFee(transferValue); kind == analytics.FeeUnknown && transferValue != "" {
		fmt.Fprintf(os.Stderr, "warning: %q is not a recognised fee; it will be stored but left out of fee totals\n", transferValue)
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	rec := model.TransferRecord{
		Season:        strings.TrimSpace(transferSeason),
		PlayerName:    strings.TrimSpace(args[0]),
		TransferDate:  transferDate,
		TransferType:  tt,
		TransferValue: transferValue,
	}
	if err := db.AppendTransfers(rec); err != nil {
		return fmt.Errorf("append transfer: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Logged %s: %s (%s)\n", tt, rec.PlayerName, rec.Season)
	return nil
}

func runTransferList(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.Transfers()
	if err != nil {
		return fmt.Errorf("read transfers: %w", err)
	}
	if transferSeason != "" {
		kept := rows[:0]
		for _, t := range rows {
			if t.Season == transferSeason {
				kept = append(kept, t)
			}
		}
		rows = kept
	}
	if len(rows) == 0 {
		fmt.Fprintln(os.Stdout, "No transfers logged.")
		return nil
	}
	report.PrintTransfers(os.Stdout, rows)
	return nil
}

func runTransferSummary(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close()

	report.PrintTransferSummary(os.Stdout, s.eng.Transfers(transferSeason))
	return nil
}
