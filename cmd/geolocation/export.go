// ABOUTME: Export command for sharing one location or writing all locations
// ABOUTME: Renders plaintext, GeoJSON or markdown with optional time filtering

package main

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/harper/geolocation/internal/geojson"
	"github.com/harper/geolocation/internal/models"
	"github.com/harper/geolocation/internal/storage"
	"github.com/harper/geolocation/internal/ui"
	"github.com/spf13/cobra"
)

// durationRegex matches relative duration strings like "24h", "7d", "1w", "1m".
var durationRegex = regexp.MustCompile(`^(\d+)([hdwm])$`)

var exportCmd = &cobra.Command{
	Use:     "export [id]",
	Aliases: []string{"e"},
	Short:   "Share one location or export all locations",
	Long: `Export a single location to the share target, or all locations to a file.

With an id, the record is rendered as plaintext (default) or GeoJSON and
written to the configured share target. The resulting URI is printed.
Use --output to write to a file instead, or --output - for stdout.

Without an id, all records (optionally filtered by capture time) are
rendered as GeoJSON or markdown to --output or stdout.

Examples:
  # Share one location as text
  geolocation export 3

  # Share one location as GeoJSON
  geolocation export 3 --format geojson

  # Track of the last week as a GeoJSON line
  geolocation export --format geojson --geometry line --since 7d -o week.geojson

  # Markdown table of a date range
  geolocation export --format markdown --from 2024-12-01 --to 2024-12-14`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")

		if len(args) == 1 {
			if format != "text" && format != "geojson" {
				return fmt.Errorf("unsupported format for one location: %s (use 'text' or 'geojson')", format)
			}
			return exportOne(cmd, args[0], format, output)
		}

		if format == "text" {
			format = "geojson"
		}
		if format != "geojson" && format != "markdown" {
			return fmt.Errorf("unsupported format: %s (use 'geojson' or 'markdown')", format)
		}

		geometry, _ := cmd.Flags().GetString("geometry")
		if geometry != "points" && geometry != "line" {
			return fmt.Errorf("unsupported geometry: %s (use 'points' or 'line')", geometry)
		}
		includeGPS, _ := cmd.Flags().GetBool("gps")
		if includeGPS && (geometry == "line" || format == "markdown") {
			return fmt.Errorf("--gps only applies to GeoJSON points")
		}

		from, to, err := timeRange(cmd)
		if err != nil {
			return err
		}

		records, err := repo.ListLocations(commandContext(cmd))
		if err != nil {
			return fmt.Errorf("failed to list locations: %w", err)
		}
		records = filterByCaptureTime(records, from, to)

		var data []byte
		switch format {
		case "markdown":
			data = storage.RecordsToMarkdown(records)
		default:
			if len(records) == 0 {
				return fmt.Errorf("no locations found")
			}
			fc := geojson.ToPointsFeatureCollection(records, includeGPS)
			if geometry == "line" {
				if len(records) < 2 {
					return fmt.Errorf("line geometry needs at least 2 locations, found %d", len(records))
				}
				fc = geojson.ToLineFeatureCollection(records)
			}
			data, err = fc.ToJSONIndent()
			if err != nil {
				return fmt.Errorf("failed to generate GeoJSON: %w", err)
			}
			data = append(data, '\n')
		}

		return writeOutput(cmd, data, output)
	},
}

func exportOne(cmd *cobra.Command, arg, format, output string) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	rec, err := repo.GetLocation(ctx, id)
	if err != nil {
		return err
	}

	var text string
	if format == "geojson" {
		data, err := geojson.ToRecordFeatureCollection(rec).ToJSONIndent()
		if err != nil {
			return fmt.Errorf("failed to generate GeoJSON: %w", err)
		}
		text = string(data) + "\n"
	} else {
		text = ui.FormatRecordText(rec)
	}

	if output != "" {
		return writeOutput(cmd, []byte(text), output)
	}

	h, err := repo.ExportLocationAsText(ctx, text)
	if err != nil {
		return err
	}
	color.Green("✓ Exported location #%d", id)
	fmt.Fprintln(cmd.OutOrStdout(), h.URI)
	return nil
}

func writeOutput(cmd *cobra.Command, data []byte, output string) error {
	if output == "" || output == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0644); err != nil { //nolint:gosec // 0644 is intentional for data export files
		return fmt.Errorf("failed to write file: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", output)
	return nil
}

// timeRange reads --since, --from and --to. Zero times mean unbounded.
func timeRange(cmd *cobra.Command) (time.Time, time.Time, error) {
	since, _ := cmd.Flags().GetString("since")
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")

	var fromTime, toTime time.Time
	var err error

	if since != "" {
		fromTime, err = parseDuration(since)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --since value: %w", err)
		}
	}
	if from != "" {
		fromTime, err = parseDate(from)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from value: %w", err)
		}
	}
	if to != "" {
		toTime, err = parseDate(to)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to value: %w", err)
		}
		// Set to end of day
		toTime = toTime.Add(24*time.Hour - time.Second)
	}
	return fromTime, toTime, nil
}

// filterByCaptureTime keeps records captured within [from, to].
func filterByCaptureTime(records []*models.LocationRecord, from, to time.Time) []*models.LocationRecord {
	if from.IsZero() && to.IsZero() {
		return records
	}
	filtered := make([]*models.LocationRecord, 0, len(records))
	for _, rec := range records {
		if !from.IsZero() && rec.CaptureTime.Before(from) {
			continue
		}
		if !to.IsZero() && rec.CaptureTime.After(to) {
			continue
		}
		filtered = append(filtered, rec)
	}
	return filtered
}

// parseDuration parses relative duration strings like "24h", "7d", "1w".
func parseDuration(s string) (time.Time, error) {
	matches := durationRegex.FindStringSubmatch(s)
	if matches == nil {
		return time.Time{}, fmt.Errorf("invalid duration format (use e.g., 24h, 7d, 1w)")
	}

	num, err := strconv.Atoi(matches[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid number in duration '%s': %w", s, err)
	}
	unit := matches[2]

	var duration time.Duration
	switch unit {
	case "h":
		duration = time.Duration(num) * time.Hour
	case "d":
		duration = time.Duration(num) * 24 * time.Hour
	case "w":
		duration = time.Duration(num) * 7 * 24 * time.Hour
	case "m":
		duration = time.Duration(num) * 30 * 24 * time.Hour
	}

	return time.Now().Add(-duration), nil
}

// parseDate parses date strings in RFC3339 or YYYY-MM-DD format.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date format (use YYYY-MM-DD or RFC3339)")
}

func init() {
	exportCmd.Flags().StringP("format", "f", "text", "output format (text, geojson, markdown)")
	exportCmd.Flags().StringP("geometry", "g", "points", "geometry type for all locations (points, line)")
	exportCmd.Flags().Bool("gps", false, "include reported GPS points in GeoJSON")
	exportCmd.Flags().String("since", "", "relative time filter (e.g., 24h, 7d, 1w)")
	exportCmd.Flags().String("from", "", "start date (YYYY-MM-DD or RFC3339)")
	exportCmd.Flags().String("to", "", "end date (YYYY-MM-DD or RFC3339)")
	exportCmd.Flags().StringP("output", "o", "", "output file, - for stdout (default: share target for one location, stdout for all)")

	rootCmd.AddCommand(exportCmd)
}
