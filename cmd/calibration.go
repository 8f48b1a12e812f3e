package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/brewsignal/brewsignal/calibration"
	"github.com/brewsignal/brewsignal/log"
	"github.com/brewsignal/brewsignal/units"
)

// Flags for the calibration commands
var (
	CalTemperature bool // Operate on the temperature axis
	CalGravity     bool // Operate on the gravity axis
)

// CalibrationCommand groups the calibration subcommands.
var CalibrationCommand = &cobra.Command{
	Use:     "calibration",
	Aliases: []string{"cal"},
	Short:   "Manage device calibration",
	Long: `Manage the two point (or more) linear calibration of a hydrometer.

Calibration maps raw device readings to actual measured values. With a single point the offset is applied uniformly, with two or more points readings are corrected by linear interpolation between the surrounding points and extrapolation beyond the outermost pair.

Gravity points are given in specific gravity. Temperature points are given in the configured display unit and stored in Celsius.`,
	GroupID: "commands",
}

var calShowCommand = &cobra.Command{
	Use:   "show <device>",
	Short: "Show a device's calibration points",
	Args:  cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		log.SetLogLevel(log.LevelWarn)
		return loadConfig(log.LevelWarn)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := backendClient()
		if err != nil {
			return err
		}
		rec, err := client.Calibration(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printRecord(cmd, args[0], rec)
		return nil
	},
}

var calAddCommand = &cobra.Command{
	Use:   "add <device> <raw>=<actual>...",
	Short: "Add calibration points",
	Long: `Add one or more calibration points to a device and save the result.

Each point is given as raw=actual, e.g. 1.002=1.000 for gravity or 68.5=68.0 for temperature with --temp. Points closer than the duplicate tolerance (0.001 SG, 0.1 °C) to an existing point are rejected.`,
	Example: `  brewsignal calibration add tilt-red 1.002=1.000 1.062=1.060
  brewsignal calibration add tilt-red --temp 19.8=20.0`,
	Args: cobra.MinimumNArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		log.SetLogLevel(log.LevelWarn)
		return loadConfig(log.LevelWarn)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := backendClient()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		rec, err := client.Calibration(ctx, args[0])
		if err != nil {
			return err
		}
		gravitySet, tempSet := rec.Sets(args[0])
		set := gravitySet
		if CalTemperature {
			set = tempSet
		}
		for _, arg := range args[1:] {
			p, err := parsePoint(arg, CalTemperature)
			if err != nil {
				return err
			}
			if err := set.Add(p); err != nil {
				return err
			}
		}
		next := calibration.NewRecord(gravitySet, tempSet)
		stored, err := client.SaveCalibration(ctx, args[0], &next)
		if err != nil {
			return err
		}
		printRecord(cmd, args[0], stored)
		return nil
	},
}

var calClearCommand = &cobra.Command{
	Use:   "clear <device>",
	Short: "Clear calibration points",
	Long: `Clear a device's calibration points and save the result.

With --gravity or --temp only that axis is cleared, otherwise both are. A device with no points on either axis reverts to uncalibrated.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		log.SetLogLevel(log.LevelWarn)
		return loadConfig(log.LevelWarn)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := backendClient()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		rec, err := client.Calibration(ctx, args[0])
		if err != nil {
			return err
		}
		gravitySet, tempSet := rec.Sets(args[0])
		both := CalGravity == CalTemperature
		if CalGravity || both {
			gravitySet.Clear()
		}
		if CalTemperature || both {
			tempSet.Clear()
		}
		next := calibration.NewRecord(gravitySet, tempSet)
		stored, err := client.SaveCalibration(ctx, args[0], &next)
		if err != nil {
			return err
		}
		printRecord(cmd, args[0], stored)
		return nil
	},
}

func init() {
	calAddCommand.Flags().BoolVarP(&CalTemperature, "temp", "t", false, "Add temperature points")
	calClearCommand.Flags().BoolVarP(&CalGravity, "gravity", "g", false, "Clear only gravity points")
	calClearCommand.Flags().BoolVarP(&CalTemperature, "temp", "t", false, "Clear only temperature points")

	for _, cmd := range []*cobra.Command{calShowCommand, calAddCommand, calClearCommand} {
		cmd.Flags().StringSliceVarP(&ConfigPath, "config", "c", nil, "Path(s) to config file/directory")
		cmd.Flags().StringVar(&Backend, "backend", "", "BrewSignal backend URL")
		cmd.Flags().StringVar(&Token, "token", "", "BrewSignal backend token")
		CalibrationCommand.AddCommand(cmd)
	}

	CalibrationCommand.SetHelpTemplate(CalibrationCommand.HelpTemplate() + "\n" + fullDocsFooter + "\n")

	RootCommand.AddCommand(CalibrationCommand)
}

func parsePoint(arg string, temp bool) (calibration.Point, error) {
	rawStr, actualStr, ok := strings.Cut(arg, "=")
	if !ok {
		return calibration.Point{}, fmt.Errorf("invalid point %q, expected raw=actual", arg)
	}
	raw, err := strconv.ParseFloat(rawStr, 64)
	if err != nil {
		return calibration.Point{}, fmt.Errorf("invalid point %q: %w", arg, err)
	}
	actual, err := strconv.ParseFloat(actualStr, 64)
	if err != nil {
		return calibration.Point{}, fmt.Errorf("invalid point %q: %w", arg, err)
	}
	if temp {
		raw, actual = units.TempPointToCelsius(raw, actual, cfg.Units.Temperature)
	}
	return calibration.Point{Raw: raw, Actual: actual}, nil
}

func printRecord(cmd *cobra.Command, device string, rec *calibration.Record) {
	out := cmd.OutOrStdout()
	if rec.Type == calibration.TypeNone {
		fmt.Fprintf(out, "%s: uncalibrated\n", device)
		return
	}
	gravitySet, tempSet := rec.Sets(device)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "AXIS\tRAW\tACTUAL")
	for _, p := range gravitySet.Points() {
		fmt.Fprintf(w, "gravity\t%.3f\t%.3f\n", p.Raw, p.Actual)
	}
	for _, p := range tempSet.Points() {
		raw, actual := units.TempPointFromCelsius(p.Raw, p.Actual, cfg.Units.Temperature)
		fmt.Fprintf(w, "temperature\t%.1f\t%.1f\n", raw, actual)
	}
	w.Flush()
}
