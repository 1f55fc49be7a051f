package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/KlotzJesse/solar-potential/pkg/client"
)

// buildingList wraps the SDK list result for table output.
type buildingList struct {
	*client.ListResult
}

func (l buildingList) TableRows() ([]string, [][]string) {
	header := []string{"ID", "NICKNAME", "ADDRESS", "PANELS", "ENERGY (kWh DC/yr)", "ACTIVE"}
	rows := make([][]string, 0, len(l.Buildings))
	for _, b := range l.Buildings {
		rows = append(rows, []string{
			b.ID,
			b.Nickname,
			b.Address,
			strconv.Itoa(b.PanelsCount),
			strconv.FormatFloat(b.YearlyEnergyDcKwh, 'f', 0, 64),
			strconv.FormatBool(b.IsActive),
		})
	}
	return header, rows
}

// NewBuildingsCmd creates the buildings command group.
func NewBuildingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "buildings",
		Aliases: []string{"building", "b"},
		Short:   "Manage the building selection",
	}

	cmd.AddCommand(
		newBuildingsListCmd(),
		newBuildingsAddCmd(),
		newBuildingsGetCmd(),
		newBuildingsRemoveCmd(),
		newBuildingsNicknameCmd(),
		newBuildingsConfigCmd(),
		newBuildingsToggleCmd(),
		newBuildingsClearCmd(),
	)
	return cmd
}

func newBuildingsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all selected buildings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			result, err := cliCtx.Client.Buildings().List(cmd.Context())
			if err != nil {
				return err
			}
			return PrintResult(cmd, buildingList{result})
		},
	}
}

func newBuildingsAddCmd() *cobra.Command {
	var (
		lat      float64
		lng      float64
		address  string
		nickname string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Select a building by coordinates or address",
		Example: `  solarctl buildings add --lat 48.137154 --lng 11.576124
  solarctl buildings add --address "Marienplatz 8, München"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			var result *client.AddResult
			switch {
			case address != "":
				result, err = cliCtx.Client.Buildings().AddByAddress(cmd.Context(), address)
			case cmd.Flags().Changed("lat") && cmd.Flags().Changed("lng"):
				result, err = cliCtx.Client.Buildings().Add(cmd.Context(),
					client.LatLng{Latitude: lat, Longitude: lng}, nickname)
			default:
				return fmt.Errorf("either --lat/--lng or --address is required")
			}
			if err != nil {
				return err
			}

			if result.AlreadySelected {
				fmt.Fprintf(cmd.OutOrStdout(), "Already selected: %s (%s)\n",
					result.Building.Nickname, result.Building.ID)
				return nil
			}
			return PrintResult(cmd, result)
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude of the map location")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude of the map location")
	cmd.Flags().StringVar(&address, "address", "", "free-form address query")
	cmd.Flags().StringVar(&nickname, "nickname", "", "custom nickname for the entry")
	return cmd
}

func newBuildingsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <building-id>",
		Short: "Show one selected building",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			building, err := cliCtx.Client.Buildings().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return PrintResult(cmd, building)
		},
	}
}

func newBuildingsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <building-id>",
		Aliases: []string{"rm"},
		Short:   "Deselect a building",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if err := cliCtx.Client.Buildings().Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}
}

func newBuildingsNicknameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "nickname <building-id> <nickname>",
		Short: "Rename a building",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			building, err := cliCtx.Client.Buildings().SetNickname(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return PrintResult(cmd, building)
		},
	}
}

func newBuildingsConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config <building-id> <config-index>",
		Short: "Select a panel configuration for a building",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("config-index must be an integer: %w", err)
			}
			building, err := cliCtx.Client.Buildings().SetConfig(cmd.Context(), args[0], index)
			if err != nil {
				return err
			}
			return PrintResult(cmd, building)
		},
	}
}

func newBuildingsToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <building-id>",
		Short: "Flip a building's aggregation membership",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			building, err := cliCtx.Client.Buildings().ToggleActive(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return PrintResult(cmd, building)
		},
	}
}

func newBuildingsClearCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every selected building",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear the selection without --yes")
			}
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if err := cliCtx.Client.Buildings().Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Selection cleared")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm clearing the selection")
	return cmd
}
