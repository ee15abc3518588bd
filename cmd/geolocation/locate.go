// ABOUTME: Locate command
// ABOUTME: Resolves a radio observation file and stores it with the reported GPS position

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/harper/geolocation/internal/gps"
	"github.com/harper/geolocation/internal/models"
	"github.com/harper/geolocation/internal/ui"
	"github.com/spf13/cobra"
)

var locateCmd = &cobra.Command{
	Use:     "locate [request.json]",
	Aliases: []string{"l"},
	Short:   "Resolve observed signals into a location and store it",
	Long: `Send a geolocate request to the configured provider and store the
result together with the device's own GPS position.

The request is a geolocate JSON body (cellTowers, wifiAccessPoints,
bluetoothBeacons, considerIp, fallbacks) read from a file or stdin.

The reported position comes from --gps-lat/--gps-lng, an NMEA log
(--nmea-file) or a serial GPS receiver (--gps-device). Without one the
request is still resolved but nothing is stored.

Examples:
  geolocation locate scan.json --gps-lat 48.19 --gps-lng 16.31 --gps-accuracy 5
  cat scan.json | geolocation locate --nmea-file track.nmea
  geolocation locate scan.json --gps-device /dev/ttyUSB0 --baud 9600`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var src io.Reader = cmd.InOrStdin()
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open request: %w", err)
			}
			defer func() { _ = f.Close() }()
			src = f
		}

		req, err := readRequest(src)
		if err != nil {
			return err
		}

		reported, err := reportedPosition(cmd)
		if err != nil {
			return err
		}

		ctx := commandContext(cmd)
		id, err := repo.NewLocation(ctx, req, reported)
		if err != nil {
			return fmt.Errorf("failed to locate: %w", err)
		}

		rec, err := repo.GetLocation(ctx, id)
		if err != nil {
			return err
		}

		color.Green("✓ Stored location #%d", id)
		fmt.Fprintln(cmd.OutOrStdout(), ui.FormatRecordDetail(rec))
		return nil
	},
}

// readRequest decodes one geolocate request body.
func readRequest(r io.Reader) (*models.LocationRequest, error) {
	var req models.LocationRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid request JSON: %w", err)
	}
	return &req, nil
}

// reportedPosition returns the GPS position from flags, an NMEA log or a serial device.
// A source that yields no fix gives nil so the request is still resolved.
func reportedPosition(cmd *cobra.Command) (*models.Position, error) {
	flags := cmd.Flags()

	if flags.Changed("gps-lat") || flags.Changed("gps-lng") {
		if !flags.Changed("gps-lat") || !flags.Changed("gps-lng") {
			return nil, fmt.Errorf("--gps-lat and --gps-lng must be given together")
		}
		lat, _ := flags.GetFloat64("gps-lat")
		lng, _ := flags.GetFloat64("gps-lng")
		accuracy, _ := flags.GetFloat64("gps-accuracy")
		pos, err := models.NewPosition(lat, lng, accuracy)
		if err != nil {
			return nil, fmt.Errorf("invalid GPS position: %w", err)
		}
		return pos, nil
	}

	var (
		pos *models.Position
		err error
	)
	nmeaFile, _ := flags.GetString("nmea-file")
	device, _ := flags.GetString("gps-device")
	switch {
	case nmeaFile != "":
		f, openErr := os.Open(nmeaFile)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open NMEA log: %w", openErr)
		}
		defer func() { _ = f.Close() }()
		pos, err = gps.ReadNMEA(f)
	case device != "":
		baud, _ := flags.GetInt("baud")
		pos, err = gps.ReadSerial(device, baud)
	default:
		return nil, nil
	}

	if err != nil {
		logger.Warn().Err(err).Msg("no GPS fix")
		return nil, nil
	}
	return pos, nil
}

func init() {
	locateCmd.Flags().Float64("gps-lat", 0, "reported latitude")
	locateCmd.Flags().Float64("gps-lng", 0, "reported longitude")
	locateCmd.Flags().Float64("gps-accuracy", 0, "reported accuracy in meters")
	locateCmd.Flags().String("nmea-file", "", "read the reported position from an NMEA log")
	locateCmd.Flags().String("gps-device", "", "read the reported position from a serial GPS receiver")
	locateCmd.Flags().Int("baud", 4800, "serial baud rate for --gps-device")

	rootCmd.AddCommand(locateCmd)
}
