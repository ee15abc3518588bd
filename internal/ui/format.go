// ABOUTME: Terminal UI formatting utilities
// ABOUTME: Provides human-readable output for location records and the plaintext export body

package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/harper/geolocation/internal/models"
)

// FormatPosition formats a position for terminal display.
func FormatPosition(pos *models.Position) string {
	if pos == nil {
		return color.New(color.Faint).Sprint("(no position)")
	}
	return fmt.Sprintf("%s %s",
		color.CyanString("(%.5f, %.5f)", pos.Latitude, pos.Longitude),
		color.New(color.Faint).Sprintf("±%.0fm", pos.Accuracy))
}

// FormatRecord formats a record as one list line.
func FormatRecord(rec *models.LocationRecord) string {
	if rec == nil {
		return color.New(color.Faint).Sprint("(invalid record)")
	}
	return fmt.Sprintf("%s %s - %s",
		color.GreenString("#%d", rec.ID),
		FormatPosition(&rec.Resolved),
		color.New(color.Faint).Sprint(FormatRelativeTime(rec.CaptureTime)))
}

// FormatRecordDetail formats a record over several lines for the show command.
func FormatRecordDetail(rec *models.LocationRecord) string {
	if rec == nil {
		return color.New(color.Faint).Sprint("(invalid record)")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", color.GreenString("Location #%d", rec.ID))
	fmt.Fprintf(&sb, "  resolved: %s\n", FormatPosition(&rec.Resolved))
	fmt.Fprintf(&sb, "  gps:      %s\n", FormatPosition(&rec.Reported))
	fmt.Fprintf(&sb, "  captured: %s (%s)\n",
		rec.CaptureTime.Local().Format("Jan 2 2006, 3:04 PM"),
		FormatRelativeTime(rec.CaptureTime))
	fmt.Fprintf(&sb, "  signals:  %d cell, %d wifi, %d bluetooth",
		len(rec.Params.CellTowers), len(rec.Params.WifiAccessPoints), len(rec.Params.BluetoothBeacons))
	return sb.String()
}

// FormatRecordText renders a record as the plaintext shared by export.
// It carries no color codes.
func FormatRecordText(rec *models.LocationRecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Location #%d\n", rec.ID)
	fmt.Fprintf(&sb, "Captured: %s\n", rec.CaptureTime.UTC().Format(time.RFC3339))
	fmt.Fprintf(&sb, "Resolved: %.6f, %.6f (accuracy %.0f m)\n",
		rec.Resolved.Latitude, rec.Resolved.Longitude, rec.Resolved.Accuracy)
	fmt.Fprintf(&sb, "GPS: %.6f, %.6f (accuracy %.0f m)\n",
		rec.Reported.Latitude, rec.Reported.Longitude, rec.Reported.Accuracy)
	fmt.Fprintf(&sb, "Map: https://www.openstreetmap.org/?mlat=%.6f&mlon=%.6f\n",
		rec.Resolved.Latitude, rec.Resolved.Longitude)
	return sb.String()
}

// FormatRelativeTime formats a time as relative to now.
func FormatRelativeTime(t time.Time) string {
	diff := time.Since(t)

	// Handle future times (clock skew, bad data)
	if diff < 0 {
		return color.YellowString("in the future")
	}

	if diff < time.Minute {
		return "just now"
	}
	if diff < time.Hour {
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	}
	if diff < 24*time.Hour {
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	}
	days := int(diff.Hours() / 24)
	if days == 1 {
		return "1 day ago"
	}
	return fmt.Sprintf("%d days ago", days)
}
