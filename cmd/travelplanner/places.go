package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/database"
	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/types"
)

var placesCity string

var placesCmd = &cobra.Command{
	Use:   "places",
	Short: "Manage the durable place store",
}

var placesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored places for a city",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(true)
		if err != nil {
			return err
		}
		defer app.Close()

		places, err := database.NewPlaceDAO(app.dataDB).GetByCity(cmd.Context(), placesCity)
		if err != nil {
			return err
		}
		if len(places) == 0 {
			cmd.Printf("No places stored for %s\n", placesCity)
			return nil
		}

		for _, place := range places {
			cmd.Printf("%-12s %-30s rating %.1f  price %.0f\n",
				place.Category, place.Name, place.Rating, place.PriceEstimate)
		}
		return nil
	},
}

var placesImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import place records from a JSON file",
	Long: `Import place records from a JSON file of the form
{"places": [{"id": ..., "name": ..., "category": ..., "city": ...}, ...]}.

Imported records seed offline planning for destinations that have never
been fetched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		var wrapper struct {
			Places []types.PlaceRecord `json:"places"`
		}
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return fmt.Errorf("malformed places file: %w", err)
		}
		if len(wrapper.Places) == 0 {
			return fmt.Errorf("no places found in %s", args[0])
		}

		app, err := openApp(true)
		if err != nil {
			return err
		}
		defer app.Close()

		if err := database.NewPlaceDAO(app.dataDB).UpsertBatch(cmd.Context(), wrapper.Places); err != nil {
			return err
		}
		cmd.Printf("Imported %d places\n", len(wrapper.Places))
		return nil
	},
}

func init() {
	placesListCmd.Flags().StringVar(&placesCity, "city", "", "City to list places for (required)")
	placesListCmd.MarkFlagRequired("city")

	placesCmd.AddCommand(placesListCmd)
	placesCmd.AddCommand(placesImportCmd)
}
