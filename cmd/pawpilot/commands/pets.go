package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	sdk "github.com/pawpilot/pawpilot/sdk/go"
	"github.com/pawpilot/pawpilot/sdk/go/cmd/pawpilot/cmdutil"
	"github.com/pawpilot/pawpilot/sdk/go/internal/cli/output"
	"github.com/pawpilot/pawpilot/sdk/go/internal/cli/prompt"
	"github.com/pawpilot/pawpilot/sdk/go/routes"
)

var petsCmd = &cobra.Command{
	Use:     "pets",
	Aliases: []string{"pet"},
	Short:   "Manage your pets",
}

var (
	petBreed  string
	petAge    int
	petWeight float64

	vaccineGiven string
	vaccineDue   string
	vaccineForce bool
)

var petsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List your pets",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd, routes.AppHome)
		if err != nil {
			return err
		}
		defer app.Close()
		if err := app.RequireSession(); err != nil {
			return err
		}

		pets, err := app.Client.Pets.List(cmd.Context())
		if err != nil {
			return cmdutil.CommandError(err)
		}
		if len(pets) == 0 && cmdutil.Flags.Output == string(output.FormatTable) {
			fmt.Fprintln(out(cmd), "No pets yet. Add one with 'pawpilot pets add'.")
			return nil
		}
		return cmdutil.Print(out(cmd), pets, petTable(pets))
	},
}

var petsAddCmd = &cobra.Command{
	Use:     "add NAME",
	Short:   "Add a pet",
	Example: `  pawpilot pets add Rex --breed Beagle --age 4 --weight 12.5`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := sdk.PetInput{Name: args[0], Breed: petBreed, Age: petAge, Weight: petWeight}

		app, err := openApp(cmd, routes.AppHome)
		if err != nil {
			return err
		}
		defer app.Close()
		if err := app.RequireSession(); err != nil {
			return err
		}

		pet, err := app.Client.Pets.Create(cmd.Context(), in)
		if err != nil {
			return cmdutil.CommandError(err)
		}
		return cmdutil.Print(out(cmd), pet, petTable([]sdk.Pet{pet}))
	},
}

var vaccinationsCmd = &cobra.Command{
	Use:     "vaccinations",
	Aliases: []string{"vacc"},
	Short:   "Track vaccination records",
}

var vaccinationsListCmd = &cobra.Command{
	Use:     "list PET_ID",
	Aliases: []string{"ls"},
	Short:   "List a pet's vaccinations",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		petID, err := parsePetID(args[0])
		if err != nil {
			return err
		}

		app, err := openApp(cmd, routes.AppHome)
		if err != nil {
			return err
		}
		defer app.Close()
		if err := app.RequireSession(); err != nil {
			return err
		}

		records, err := app.Client.Vaccinations.List(cmd.Context(), petID)
		if err != nil {
			return cmdutil.CommandError(err)
		}
		if len(records) == 0 && cmdutil.Flags.Output == string(output.FormatTable) {
			fmt.Fprintln(out(cmd), "No vaccinations recorded.")
			return nil
		}
		return cmdutil.Print(out(cmd), records, vaccinationTable(records))
	},
}

var vaccinationsAddCmd = &cobra.Command{
	Use:     "add PET_ID VACCINE",
	Short:   "Record a vaccination",
	Example: `  pawpilot pets vaccinations add 3 Rabies --given 2026-10-01 --due 2027-10-01`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		petID, err := parsePetID(args[0])
		if err != nil {
			return err
		}
		given, err := sdk.ParseDate(vaccineGiven)
		if err != nil {
			return fmt.Errorf("--given: %w", err)
		}
		due, err := sdk.ParseDate(vaccineDue)
		if err != nil {
			return fmt.Errorf("--due: %w", err)
		}
		if due.Before(sdk.NewDate(time.Now()).Time) {
			ok, err := prompt.Confirm("Due date is in the past and will not show as upcoming. Record anyway", vaccineForce)
			if err != nil {
				return abortOr(err)
			}
			if !ok {
				fmt.Fprintln(out(cmd), "Aborted.")
				return nil
			}
		}

		app, err := openApp(cmd, routes.AppHome)
		if err != nil {
			return err
		}
		defer app.Close()
		if err := app.RequireSession(); err != nil {
			return err
		}

		rec, err := app.Client.Vaccinations.Create(cmd.Context(), petID, sdk.VaccinationInput{
			VaccineName: args[1],
			DateGiven:   given,
			DueDate:     due,
		})
		if err != nil {
			return cmdutil.CommandError(err)
		}
		return cmdutil.Print(out(cmd), rec, vaccinationTable([]sdk.Vaccination{rec}))
	},
}

var vaccinationsUpcomingCmd = &cobra.Command{
	Use:   "upcoming",
	Short: "Show the next due vaccinations across all pets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd, routes.AppHome)
		if err != nil {
			return err
		}
		defer app.Close()
		if err := app.RequireSession(); err != nil {
			return err
		}

		records, err := app.Client.Vaccinations.Upcoming(cmd.Context())
		if err != nil {
			return cmdutil.CommandError(err)
		}
		if len(records) == 0 && cmdutil.Flags.Output == string(output.FormatTable) {
			fmt.Fprintln(out(cmd), "Nothing due.")
			return nil
		}
		return cmdutil.Print(out(cmd), records, vaccinationTable(records))
	},
}

func init() {
	petsAddCmd.Flags().StringVar(&petBreed, "breed", "", "Breed")
	petsAddCmd.Flags().IntVar(&petAge, "age", 0, "Age in years")
	petsAddCmd.Flags().Float64Var(&petWeight, "weight", 0, "Weight in kg")
	_ = petsAddCmd.MarkFlagRequired("breed")
	_ = petsAddCmd.MarkFlagRequired("weight")

	vaccinationsAddCmd.Flags().StringVar(&vaccineGiven, "given", "", "Date given (YYYY-MM-DD)")
	vaccinationsAddCmd.Flags().StringVar(&vaccineDue, "due", "", "Next due date (YYYY-MM-DD)")
	vaccinationsAddCmd.Flags().BoolVarP(&vaccineForce, "force", "f", false, "Skip confirmation")
	_ = vaccinationsAddCmd.MarkFlagRequired("given")
	_ = vaccinationsAddCmd.MarkFlagRequired("due")

	vaccinationsCmd.AddCommand(vaccinationsListCmd, vaccinationsAddCmd, vaccinationsUpcomingCmd)
	petsCmd.AddCommand(petsListCmd, petsAddCmd, vaccinationsCmd)
}

func parsePetID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid pet id %q: want a positive number", s)
	}
	return id, nil
}

func petTable(pets []sdk.Pet) *output.Table {
	t := output.NewTable("ID", "NAME", "BREED", "AGE", "WEIGHT", "VACCINATIONS")
	for _, p := range pets {
		t.AddRow(
			strconv.Itoa(p.ID),
			p.Name,
			p.Breed,
			strconv.Itoa(p.Age),
			strconv.FormatFloat(p.Weight, 'f', -1, 64)+" kg",
			strconv.Itoa(len(p.Vaccinations)),
		)
	}
	return t
}

func vaccinationTable(records []sdk.Vaccination) *output.Table {
	t := output.NewTable("ID", "PET", "VACCINE", "GIVEN", "DUE")
	for _, v := range records {
		t.AddRow(strconv.Itoa(v.ID), strconv.Itoa(v.PetID), v.VaccineName, v.DateGiven.String(), v.DueDate.String())
	}
	return t
}
