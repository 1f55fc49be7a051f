package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/KlotzJesse/solar-potential/pkg/client"
)

// summaryView wraps the SDK summary for table output.
type summaryView struct {
	*client.Summary
}

func (s summaryView) TableRows() ([]string, [][]string) {
	header := []string{"METRIC", "VALUE"}
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) }
	rows := [][]string{
		{"Buildings", strconv.Itoa(len(s.Buildings))},
		{"Total panels", strconv.Itoa(s.TotalPanels)},
		{"Yearly energy (kWh AC)", f(s.TotalYearlyEnergyAcKwh)},
		{"Max array panels", strconv.Itoa(s.TotalMaxArrayPanels)},
		{"Max array area (m²)", f(s.TotalMaxArrayAreaMeters2)},
		{"Roof area (m²)", f(s.TotalRoofAreaMeters2)},
		{"Installed panel area (m²)", f(s.TotalAreaMeters2)},
		{"Carbon offset (kg/yr)", f(s.TotalCarbonOffsetKgPerYear)},
		{"Avg panel capacity (W)", f(s.AveragePanelCapacityWatts)},
		{"Panel capacity ratio", strconv.FormatFloat(s.PanelCapacityRatio, 'f', 3, 64)},
		{"DC to AC derate", strconv.FormatFloat(s.DcToAcDerate, 'f', 2, 64)},
	}
	return header, rows
}

// NewSummaryCmd creates the summary command.
func NewSummaryCmd() *cobra.Command {
	var (
		panelWatts float64
		derate     float64
	)
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Aggregate solar estimates across the active selection",
		Example: `  solarctl summary
  solarctl summary --panel-watts 430 --derate 0.85`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			summary, err := cliCtx.Client.Buildings().GetSummary(cmd.Context(), &client.SummaryOptions{
				PanelCapacityWatts: panelWatts,
				DcToAcDerate:       derate,
			})
			if err != nil {
				return err
			}
			return PrintResult(cmd, summaryView{summary})
		},
	}
	cmd.Flags().Float64Var(&panelWatts, "panel-watts", 0, "panel model capacity in watts (0 = dataset default)")
	cmd.Flags().Float64Var(&derate, "derate", 0, "DC to AC derate override in (0, 1]")
	return cmd
}
