package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/brewsignal/brewsignal/api"
	"github.com/brewsignal/brewsignal/log"
	"github.com/brewsignal/brewsignal/units"
)

// Flags for [DevicesCommand]
var (
	DevicesSummary bool // Display a summary of paired devices
)

// DevicesCommand lists the hydrometers known to the backend along with
// their latest readings.
var DevicesCommand = &cobra.Command{
	Use:     "devices",
	Aliases: []string{"ls"},
	Short:   "List paired hydrometers",
	Long: `List the hydrometers known to the BrewSignal backend.

Unless --summary is specified, each device is printed with its latest reading, corrected through the device's stored calibration and rendered in the configured display units.`,
	GroupID: "commands",
	Args:    cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		log.SetLogLevel(log.LevelWarn)
		return loadConfig(log.LevelWarn)
	},
	RunE: listDevices,
}

func init() {
	DevicesCommand.Flags().SortFlags = false
	DevicesCommand.Flags().StringSliceVarP(&ConfigPath, "config", "c", nil, "Path(s) to config file/directory")
	DevicesCommand.Flags().StringVar(&Backend, "backend", "", "BrewSignal backend URL")
	DevicesCommand.Flags().StringVar(&Token, "token", "", "BrewSignal backend token")
	DevicesCommand.Flags().BoolVarP(&DevicesSummary, "summary", "s", false, "Display a summary of paired devices")

	DevicesCommand.MarkFlagFilename("config", "yaml", "yml")
	DevicesCommand.MarkFlagDirname("config")

	DevicesCommand.SetHelpTemplate(DevicesCommand.HelpTemplate() + "\n" + fullDocsFooter + "\n")

	RootCommand.AddCommand(DevicesCommand)
}

func printDeviceSummary(w io.Writer, devs []api.Device) {
	for i, dev := range devs {
		if i > 0 {
			w.Write([]byte{',', ' '})
		}
		fmt.Fprintf(w, "%s (%s)", dev.ID, dev.Kind)
	}
	w.Write([]byte{'\n'})
}

func listDevices(cmd *cobra.Command, args []string) error {
	client, err := backendClient()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	devs, err := client.Devices(ctx)
	if err != nil {
		return err
	}
	if DevicesSummary {
		printDeviceSummary(cmd.OutOrStdout(), devs)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tKIND\tGRAVITY\tTEMPERATURE\tLAST SEEN")
	for _, dev := range devs {
		gravity, temp := "-", "-"
		lastSeen := "-"
		if r, err := client.LatestReading(ctx, dev.ID); err == nil {
			g, t := correctReading(ctx, client, dev.ID, r)
			gravity = units.FormatGravity(g, cfg.Units.Gravity)
			temp = units.FormatTemperature(t, cfg.Units.Temperature)
			if !r.Timestamp.IsZero() {
				lastSeen = r.Timestamp.Local().Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", dev.ID, dev.Name, dev.Kind, gravity, temp, lastSeen)
	}
	return w.Flush()
}

// correctReading applies the device's stored calibration to a raw reading.
func correctReading(ctx context.Context, client *api.Client, id string, r *api.Reading) (gravity, temp float64) {
	gravity, temp = r.Gravity, r.Temperature
	rec, err := client.Calibration(ctx, id)
	if err != nil {
		return
	}
	gravitySet, tempSet := rec.Sets(id)
	return gravitySet.Correct(gravity), tempSet.Correct(temp)
}
