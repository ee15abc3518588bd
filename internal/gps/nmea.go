// ABOUTME: Reported-position sources for device GPS receivers
// ABOUTME: Parses NMEA GGA sentences and reads them from a serial port

package gps

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/adrianmo/go-nmea"
	"github.com/harper/geolocation/internal/models"
	"github.com/tarm/serial"
)

var (
	// ErrNoFix is returned for a GGA sentence whose fix quality is invalid.
	ErrNoFix = errors.New("gps has no fix")

	// ErrNoData is returned when a stream ends without a usable GGA sentence.
	ErrNoData = errors.New("no valid GPS data found")
)

// hdopMeters approximates accuracy from horizontal dilution of precision,
// assuming a typical user-equivalent range error.
const hdopMeters = 5.0

// ParseNMEA converts a single GGA sentence (any talker, e.g. $GPGGA or $GNGGA)
// into a reported Position.
func ParseNMEA(line string) (*models.Position, error) {
	sentence, err := nmea.Parse(strings.TrimSpace(line))
	if err != nil {
		return nil, fmt.Errorf("parse nmea: %w", err)
	}

	gga, ok := sentence.(nmea.GGA)
	if !ok {
		return nil, fmt.Errorf("unsupported sentence type %s", sentence.DataType())
	}
	if gga.FixQuality == nmea.Invalid {
		return nil, ErrNoFix
	}

	return models.NewPosition(gga.Latitude, gga.Longitude, gga.HDOP*hdopMeters)
}

// ReadNMEA scans r line by line and returns the first fixed GGA position.
// Other sentences and GGA sentences without a fix are skipped.
func ReadNMEA(r io.Reader) (*models.Position, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) < 6 || !strings.HasPrefix(line, "$") || line[3:6] != "GGA" {
			continue
		}
		pos, err := ParseNMEA(line)
		if errors.Is(err, ErrNoFix) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return pos, nil
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read nmea: %w", err)
	}
	return nil, ErrNoData
}

// ReadSerial opens a GPS receiver on port and returns its first fixed position.
func ReadSerial(port string, baudRate int) (*models.Position, error) {
	s, err := serial.OpenPort(&serial.Config{Name: port, Baud: baudRate})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", port, err)
	}
	defer func() { _ = s.Close() }()

	return ReadNMEA(s)
}
