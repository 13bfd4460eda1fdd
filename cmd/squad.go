package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-fm-metrics/internal/join"
	"github.com/pable/go-fm-metrics/internal/model"
	"github.com/pable/go-fm-metrics/internal/report"
	"github.com/pable/go-fm-metrics/internal/schema"
)

var (
	squadSeason string
	squadPlayer model.PlayerRecord
	squadRole   string
	squadFoot   string
)

var squadCmd = &cobra.Command{
	Use:   "squad",
	Short: "Manage the squad roster (one row per player per season)",
}

var squadAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a player to a season's squad",
	Args:  cobra.ExactArgs(1),
	RunE:  runSquadAdd,
}

var squadListCmd = &cobra.Command{
	Use:   "list",
	Short: "List squad rows",
	Args:  cobra.NoArgs,
	RunE:  runSquadList,
}

var squadRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a player from a season's squad",
	Args:  cobra.ExactArgs(1),
	RunE:  runSquadRemove,
}

func init() {
	f := squadAddCmd.Flags()
	f.StringVar(&squadSeason, "season", "", "season, e.g. 2023/2024 (required)")
	f.IntVar(&squadPlayer.Age, "age", 0, "age")
	f.IntVar(&squadPlayer.KitNumber, "kit", 0, "kit number")
	f.StringSliceVar(&squadPlayer.Positions, "positions", nil, "up to four positions, primary first (e.g. ST,CF)")
	f.StringVar(&squadPlayer.Nationality, "nationality", "", "nationality")
	f.IntVar(&squadPlayer.Height, "height", 0, "height in cm")
	f.IntVar(&squadPlayer.Weight, "weight", 0, "weight in kg")
	f.Int64Var(&squadPlayer.TransferValue, "value", 0, "transfer value")
	f.Int64Var(&squadPlayer.Wage, "wage", 0, "weekly wage")
	f.IntVar(&squadPlayer.ContractLength, "contract", 0, "contract length in years")
	f.StringVar(&squadRole, "role", string(model.RoleRotation), "squad role: Crucial, Important, Rotation, Sporadic or Prospect")
	f.StringVar(&squadFoot, "foot", string(model.FootRight), "strong foot: Right, Left or Both")
	f.IntVar(&squadPlayer.OverallStart, "ovr-start", 0, "overall rating at season start")
	f.IntVar(&squadPlayer.OverallEnd, "ovr-end", 0, "overall rating at season end")
	_ = squadAddCmd.MarkFlagRequired("season")

	squadListCmd.Flags().StringVar(&squadSeason, "season", "", "season to list (default all)")

	squadRemoveCmd.Flags().StringVar(&squadSeason, "season", "", "season (required)")
	_ = squadRemoveCmd.MarkFlagRequired("season")

	squadCmd.AddCommand(squadAddCmd, squadListCmd, squadRemoveCmd)
}

func runSquadAdd(cmd *cobra.Command, args []string) error {
	p := squadPlayer
	p.Name = strings.TrimSpace(args[0])
	p.Season = strings.TrimSpace(squadSeason)
	p.Positions = model.CleanPositions(p.Positions)
	for _, pos := range p.Positions {
		if !schema.ValidPosition(pos) {
			return fmt.Errorf("unknown position %q", pos)
		}
	}
	var err error
	if p.Role, err = model.ParseRole(squadRole); err != nil {
		return err
	}
	if p.StrongFoot, err = model.ParseFoot(squadFoot); err != nil {
		return err
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	existing, err := db.Squad()
	if err != nil {
		return fmt.Errorf("read squad: %w", err)
	}
	key := join.NewKey(p.Name, p.Season)
	for _, e := range existing {
		if join.NewKey(e.Name, e.Season) == key {
			return fmt.Errorf("%s is already in the %s squad", p.Name, p.Season)
		}
	}
	if err := db.AppendSquad(p); err != nil {
		return fmt.Errorf("append squad: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Added %s (%s) to %s\n", p.Name, strings.Join(p.Positions, "/"), p.Season)
	return nil
}

func runSquadList(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	players, err := db.Squad()
	if err != nil {
		return fmt.Errorf("read squad: %w", err)
	}
	if squadSeason != "" {
		kept := players[:0]
		for _, p := range players {
			if p.Season == squadSeason {
				kept = append(kept, p)
			}
		}
		players = kept
	}
	if len(players) == 0 {
		fmt.Fprintln(os.Stdout, "No squad rows. Add one with 'fmmetrics squad add <name> --season <season>'.")
		return nil
	}
	report.PrintSquad(os.Stdout, players)
	return nil
}

func runSquadRemove(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	players, err := db.Squad()
	if err != nil {
		return fmt.Errorf("read squad: %w", err)
	}
	key := join.NewKey(args[0], squadSeason)
	kept := make([]model.PlayerRecord, 0, len(players))
	for _, p := range players {
		if join.NewKey(p.Name, p.Season) != key {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(players) {
		return fmt.Errorf("%s is not in the %s squad", args[0], squadSeason)
	}
	if err := db.WriteSquad(kept); err != nil {
		return fmt.Errorf("write squad: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Removed %s from %s\n", args[0], squadSeason)
	return nil
}
