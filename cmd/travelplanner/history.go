package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/types"
)

var (
	historyDestination string
	historyLimit       int
	historyOutput      string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List previously generated plans for a destination",
	RunE:  runHistory,
}

var analyticsCmd = &cobra.Command{
	Use:   "analytics PLAN_ID",
	Short: "Show the stored analytics for a plan",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalytics,
}

func init() {
	historyCmd.Flags().StringVarP(&historyDestination, "destination", "d", "", "Destination city (required)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Maximum number of plans to list")
	historyCmd.PersistentFlags().StringVarP(&historyOutput, "output", "o", "yaml", "Output format: yaml or json")
	historyCmd.MarkFlagRequired("destination")

	historyCmd.AddCommand(analyticsCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	app, err := openApp(true)
	if err != nil {
		return err
	}
	defer app.Close()

	plans, err := app.service.History(cmd.Context(), historyDestination, historyLimit)
	if err != nil {
		return err
	}
	if len(plans) == 0 {
		cmd.Printf("No plans stored for %s\n", historyDestination)
		return nil
	}

	for _, plan := range plans {
		offline := ""
		if plan.Offline {
			offline = " (offline)"
		}
		cmd.Printf("%s  %s  %d days, %d travelers, budget %.0f%s\n",
			plan.GeneratedAt.Format("2006-01-02 15:04"),
			plan.ID, plan.Days, plan.Travelers, plan.TotalBudget, offline)
	}
	return nil
}

func runAnalytics(cmd *cobra.Command, args []string) error {
	planID, err := types.ParseID(args[0])
	if err != nil {
		return err
	}

	app, err := openApp(true)
	if err != nil {
		return err
	}
	defer app.Close()

	result, err := app.service.AnalyticsFor(cmd.Context(), planID)
	if err != nil {
		return err
	}
	if result == nil {
		return fmt.Errorf("no analytics stored for plan %s", planID)
	}

	return printAs(cmd, result, historyOutput)
}
