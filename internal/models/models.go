// ABOUTME: Core data models for positions, resolution requests and stored location records
// ABOUTME: Provides validation helpers and constructor functions for new records

package models

import (
	"fmt"
	"math"
	"time"
)

// ValidateCoordinates checks if latitude and longitude are within valid ranges.
func ValidateCoordinates(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return fmt.Errorf("coordinates cannot be NaN")
	}
	if math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return fmt.Errorf("coordinates cannot be infinite")
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude must be between -90 and 90")
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("longitude must be between -180 and 180")
	}
	return nil
}

// ValidateAccuracy checks that an accuracy radius is a finite, non-negative number of meters.
func ValidateAccuracy(accuracy float64) error {
	if math.IsNaN(accuracy) || math.IsInf(accuracy, 0) {
		return fmt.Errorf("accuracy must be a finite number")
	}
	if accuracy < 0 {
		return fmt.Errorf("accuracy cannot be negative")
	}
	return nil
}

// Position is a point estimate with an accuracy radius in meters.
type Position struct {
	Longitude float64 `json:"longitude" yaml:"longitude"`
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Accuracy  float64 `json:"accuracy" yaml:"accuracy"`
}

// NewPosition validates and builds a Position.
func NewPosition(lat, lng, accuracy float64) (*Position, error) {
	if err := ValidateCoordinates(lat, lng); err != nil {
		return nil, err
	}
	if err := ValidateAccuracy(accuracy); err != nil {
		return nil, err
	}
	return &Position{Longitude: lng, Latitude: lat, Accuracy: accuracy}, nil
}

// CellTower is one observed cell in a geolocate request.
type CellTower struct {
	RadioType         string `json:"radioType,omitempty" yaml:"radio_type,omitempty"`
	MobileCountryCode int    `json:"mobileCountryCode" yaml:"mobile_country_code"`
	MobileNetworkCode int    `json:"mobileNetworkCode" yaml:"mobile_network_code"`
	LocationAreaCode  int    `json:"locationAreaCode" yaml:"location_area_code"`
	CellID            int64  `json:"cellId" yaml:"cell_id"`
	Age               int64  `json:"age,omitempty" yaml:"age,omitempty"`
	PSC               int    `json:"psc,omitempty" yaml:"psc,omitempty"`
	SignalStrength    int    `json:"signalStrength,omitempty" yaml:"signal_strength,omitempty"`
	TimingAdvance     int    `json:"timingAdvance,omitempty" yaml:"timing_advance,omitempty"`
}

// WifiAccessPoint is one observed Wi-Fi network in a geolocate request.
type WifiAccessPoint struct {
	MACAddress         string  `json:"macAddress" yaml:"mac_address"`
	Age                int64   `json:"age,omitempty" yaml:"age,omitempty"`
	Channel            int     `json:"channel,omitempty" yaml:"channel,omitempty"`
	Frequency          int     `json:"frequency,omitempty" yaml:"frequency,omitempty"`
	SignalStrength     float64 `json:"signalStrength,omitempty" yaml:"signal_strength,omitempty"`
	SignalToNoiseRatio float64 `json:"signalToNoiseRatio,omitempty" yaml:"signal_to_noise_ratio,omitempty"`
	SSID               string  `json:"ssid,omitempty" yaml:"ssid,omitempty"`
}

// BluetoothBeacon is one observed Bluetooth LE beacon in a geolocate request.
type BluetoothBeacon struct {
	MACAddress     string `json:"macAddress" yaml:"mac_address"`
	Name           string `json:"name,omitempty" yaml:"name,omitempty"`
	Age            int64  `json:"age,omitempty" yaml:"age,omitempty"`
	SignalStrength int    `json:"signalStrength,omitempty" yaml:"signal_strength,omitempty"`
}

// Fallbacks controls which coarse fallbacks the service may use when no exact match exists.
type Fallbacks struct {
	LACF bool `json:"lacf" yaml:"lacf"`
	IPF  bool `json:"ipf" yaml:"ipf"`
}

// LocationRequest describes the radio signatures observed by a device.
// It is sent to the resolution API as-is and stored verbatim with the resulting record.
type LocationRequest struct {
	Carrier               string            `json:"carrier,omitempty" yaml:"carrier,omitempty"`
	ConsiderIP            *bool             `json:"considerIp,omitempty" yaml:"consider_ip,omitempty"`
	HomeMobileCountryCode int               `json:"homeMobileCountryCode,omitempty" yaml:"home_mobile_country_code,omitempty"`
	HomeMobileNetworkCode int               `json:"homeMobileNetworkCode,omitempty" yaml:"home_mobile_network_code,omitempty"`
	RadioType             string            `json:"radioType,omitempty" yaml:"radio_type,omitempty"`
	CellTowers            []CellTower       `json:"cellTowers,omitempty" yaml:"cell_towers,omitempty"`
	WifiAccessPoints      []WifiAccessPoint `json:"wifiAccessPoints,omitempty" yaml:"wifi_access_points,omitempty"`
	BluetoothBeacons      []BluetoothBeacon `json:"bluetoothBeacons,omitempty" yaml:"bluetooth_beacons,omitempty"`
	Fallbacks             *Fallbacks        `json:"fallbacks,omitempty" yaml:"fallbacks,omitempty"`
}

// SignalCount returns the number of radio observations carried by the request.
func (r *LocationRequest) SignalCount() int {
	if r == nil {
		return 0
	}
	return len(r.CellTowers) + len(r.WifiAccessPoints) + len(r.BluetoothBeacons)
}

// LocationRecord is a persisted fix: the resolved position, the position the
// device reported itself, when it was captured and the request that produced it.
type LocationRecord struct {
	ID          int64           `json:"id"`
	Resolved    Position        `json:"mls"`
	Reported    Position        `json:"gps"`
	CaptureTime time.Time       `json:"capture_time"`
	Params      LocationRequest `json:"params"`
}

// NewLocationRecord creates an unsaved record (ID 0) captured now.
func NewLocationRecord(resolved, reported Position, params LocationRequest) *LocationRecord {
	return &LocationRecord{
		ID:          0,
		Resolved:    resolved,
		Reported:    reported,
		CaptureTime: time.Now(),
		Params:      params,
	}
}
