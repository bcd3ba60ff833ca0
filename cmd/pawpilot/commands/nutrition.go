package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	sdk "github.com/pawpilot/pawpilot/sdk/go"
	"github.com/pawpilot/pawpilot/sdk/go/cmd/pawpilot/cmdutil"
	"github.com/pawpilot/pawpilot/sdk/go/internal/cli/output"
	"github.com/pawpilot/pawpilot/sdk/go/routes"
)

var (
	nutritionBreed  string
	nutritionWeight float64
	nutritionAge    int
)

var nutritionCmd = &cobra.Command{
	Use:   "nutrition [PET_ID]",
	Short: "Get feeding advice",
	Long: `Get diet recommendations for a breed, weight and age. Pass a pet id
to use that pet's record instead of flags.`,
	Example: `  pawpilot nutrition --breed Beagle --weight 12.5 --age 4
  pawpilot nutrition 3`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		petID := 0
		if len(args) == 1 {
			id, err := parsePetID(args[0])
			if err != nil {
				return err
			}
			petID = id
		} else if nutritionBreed == "" || nutritionWeight <= 0 {
			return fmt.Errorf("pass a pet id, or --breed and --weight (and --age)")
		}

		app, err := openApp(cmd, routes.AppNutrition)
		if err != nil {
			return err
		}
		defer app.Close()
		if err := app.RequireSession(); err != nil {
			return err
		}

		req := sdk.NutritionRequest{Breed: nutritionBreed, WeightKg: nutritionWeight, AgeYears: nutritionAge}
		if petID != 0 {
			pet, err := findPet(cmd, app, petID)
			if err != nil {
				return err
			}
			req = sdk.NutritionRequest{Breed: pet.Breed, WeightKg: pet.Weight, AgeYears: pet.Age}
		}
		advice, err := app.Client.Nutrition.Advice(cmd.Context(), req)
		if err != nil {
			return cmdutil.CommandError(err)
		}

		format, err := output.ParseFormat(cmdutil.Flags.Output)
		if err != nil {
			return err
		}
		if format != output.FormatTable {
			return output.Print(out(cmd), format, advice, nil)
		}
		fmt.Fprintln(out(cmd), strings.TrimSpace(advice.Advice))
		return nil
	},
}

func init() {
	nutritionCmd.Flags().StringVar(&nutritionBreed, "breed", "", "Breed")
	nutritionCmd.Flags().Float64Var(&nutritionWeight, "weight", 0, "Weight in kg")
	nutritionCmd.Flags().IntVar(&nutritionAge, "age", 0, "Age in years")
}

// findPet looks a pet up in the owner's list; the backend has no
// single-pet read.
func findPet(cmd *cobra.Command, app *cmdutil.App, id int) (sdk.Pet, error) {
	pets, err := app.Client.Pets.List(cmd.Context())
	if err != nil {
		return sdk.Pet{}, cmdutil.CommandError(err)
	}
	for _, p := range pets {
		if p.ID == id {
			return p, nil
		}
	}
	return sdk.Pet{}, fmt.Errorf("pet %d not found", id)
}
