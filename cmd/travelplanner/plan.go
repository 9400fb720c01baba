package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/types"
)

var (
	planDestination string
	planBudget      float64
	planDays        int
	planTravelers   int
	planPreferences []string
	planNotes       string
	planOffline     bool
	planOutput      string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate a travel plan for a destination",
	Long: `Generate a budget-aware travel plan.

The pipeline fetches place, weather, and search data (cached between runs),
scores candidate places in parallel, and assembles a day-by-day itinerary
with a budget breakdown. With --offline no external calls are made and the
plan is built from previously stored places.`,
	Example: `  travelplanner plan -d Hanoi --budget 10000000 --days 5 --travelers 2 --prefs culture,food
  travelplanner plan -d "Da Nang" --budget 6000000 --days 3 --offline`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planDestination, "destination", "d", "", "Destination city (required)")
	planCmd.Flags().Float64Var(&planBudget, "budget", 0, "Total trip budget (required)")
	planCmd.Flags().IntVar(&planDays, "days", 3, "Trip length in days")
	planCmd.Flags().IntVar(&planTravelers, "travelers", 1, "Number of travelers")
	planCmd.Flags().StringSliceVar(&planPreferences, "prefs", nil, "Preference tags (e.g. culture,food,beach)")
	planCmd.Flags().StringVar(&planNotes, "notes", "", "Free-form notes attached to the request")
	planCmd.Flags().BoolVar(&planOffline, "offline", false, "Plan from stored data without external fetches")
	planCmd.Flags().StringVarP(&planOutput, "output", "o", "yaml", "Output format: yaml or json")
	planCmd.MarkFlagRequired("destination")
	planCmd.MarkFlagRequired("budget")
}

func runPlan(cmd *cobra.Command, args []string) error {
	app, err := openApp(planOffline)
	if err != nil {
		return err
	}
	defer app.Close()

	req := types.Request{
		Destination: planDestination,
		Budget:      planBudget,
		Days:        planDays,
		Travelers:   planTravelers,
		Preferences: planPreferences,
		Notes:       planNotes,
	}

	plan, err := app.service.Plan(cmd.Context(), req)
	if err != nil {
		return err
	}

	return printAs(cmd, plan, planOutput)
}

// printAs renders v as YAML or JSON on the command's stdout.
func printAs(cmd *cobra.Command, v any, format string) error {
	switch format {
	case "json":
		encoded, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(encoded))
	case "yaml":
		encoded, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		cmd.Print(string(encoded))
	default:
		return fmt.Errorf("unknown output format %q (want yaml or json)", format)
	}
	return nil
}
