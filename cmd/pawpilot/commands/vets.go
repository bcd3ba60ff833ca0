package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	sdk "github.com/pawpilot/pawpilot/sdk/go"
	"github.com/pawpilot/pawpilot/sdk/go/cmd/pawpilot/cmdutil"
	"github.com/pawpilot/pawpilot/sdk/go/internal/cli/output"
	"github.com/pawpilot/pawpilot/sdk/go/routes"
)

var (
	vetsLat      float64
	vetsLng      float64
	vetsPharmacy bool
)

var vetsCmd = &cobra.Command{
	Use:   "vets",
	Short: "Find vets or pet pharmacies nearby",
	Example: `  pawpilot vets --lat 52.52 --lng 13.405
  pawpilot vets --lat 52.52 --lng 13.405 --pharmacy -o json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd, routes.AppVets)
		if err != nil {
			return err
		}
		defer app.Close()
		if err := app.RequireSession(); err != nil {
			return err
		}

		search := sdk.PlaceSearch{Lat: vetsLat, Lng: vetsLng, SearchType: sdk.PlaceVeterinaryCare}
		if vetsPharmacy {
			search.SearchType = sdk.PlacePharmacy
		}
		places, err := app.Client.Places.Nearby(cmd.Context(), search)
		if err != nil {
			return cmdutil.CommandError(err)
		}
		if len(places) == 0 && cmdutil.Flags.Output == string(output.FormatTable) {
			fmt.Fprintln(out(cmd), "No results found nearby.")
			return nil
		}
		return cmdutil.Print(out(cmd), places, placeTable(places))
	},
}

func init() {
	vetsCmd.Flags().Float64Var(&vetsLat, "lat", 0, "Latitude")
	vetsCmd.Flags().Float64Var(&vetsLng, "lng", 0, "Longitude")
	vetsCmd.Flags().BoolVar(&vetsPharmacy, "pharmacy", false, "Search pet pharmacies instead of vets")
	_ = vetsCmd.MarkFlagRequired("lat")
	_ = vetsCmd.MarkFlagRequired("lng")
}

func placeTable(places []sdk.Place) *output.Table {
	t := output.NewTable("NAME", "ADDRESS", "LOCATION")
	for _, p := range places {
		t.AddRow(p.DisplayName.Text, p.FormattedAddress, fmt.Sprintf("%.5f,%.5f", p.Location.Latitude, p.Location.Longitude))
	}
	return t
}
