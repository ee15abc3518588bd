// ABOUTME: Unit tests for data models
// ABOUTME: Tests constructors, validators, and request helpers

package models

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"
)

func TestNewPosition(t *testing.T) {
	pos, err := NewPosition(48.2, 16.3, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pos.Latitude != 48.2 {
		t.Errorf("expected lat 48.2, got %f", pos.Latitude)
	}
	if pos.Longitude != 16.3 {
		t.Errorf("expected lng 16.3, got %f", pos.Longitude)
	}
	if pos.Accuracy != 10 {
		t.Errorf("expected accuracy 10, got %f", pos.Accuracy)
	}
}

func TestNewPosition_Invalid(t *testing.T) {
	if _, err := NewPosition(91, 0, 5); err == nil {
		t.Error("expected error for latitude 91")
	}
	if _, err := NewPosition(0, 0, -1); err == nil {
		t.Error("expected error for negative accuracy")
	}
	if _, err := NewPosition(0, 0, math.Inf(1)); err == nil {
		t.Error("expected error for infinite accuracy")
	}
}

func TestNewLocationRecord(t *testing.T) {
	resolved := Position{Longitude: 16.3, Latitude: 48.2, Accuracy: 10}
	reported := Position{Longitude: 16.31, Latitude: 48.19, Accuracy: 5}
	params := LocationRequest{CellTowers: []CellTower{{MobileCountryCode: 232, MobileNetworkCode: 1}}}

	before := time.Now()
	rec := NewLocationRecord(resolved, reported, params)
	after := time.Now()

	if rec.ID != 0 {
		t.Errorf("expected unsaved ID 0, got %d", rec.ID)
	}
	if rec.Resolved != resolved {
		t.Errorf("resolved mismatch: %+v", rec.Resolved)
	}
	if rec.Reported != reported {
		t.Errorf("reported mismatch: %+v", rec.Reported)
	}
	if rec.CaptureTime.Before(before) || rec.CaptureTime.After(after) {
		t.Error("CaptureTime should be between before and after test times")
	}
	if len(rec.Params.CellTowers) != 1 {
		t.Error("expected params to carry the request")
	}
}

func TestValidateCoordinates(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lng     float64
		wantErr bool
	}{
		{"valid_vienna", 48.2082, 16.3738, false},
		{"valid_origin", 0, 0, false},
		{"valid_north_pole", 90, 0, false},
		{"valid_south_pole", -90, 0, false},
		{"valid_date_line_east", 0, 180, false},
		{"valid_date_line_west", 0, -180, false},
		{"lat_too_high", 90.0001, 0, true},
		{"lat_too_low", -90.0001, 0, true},
		{"lng_too_high", 0, 180.0001, true},
		{"lng_too_low", 0, -180.0001, true},
		{"lat_nan", math.NaN(), 0, true},
		{"lng_nan", 0, math.NaN(), true},
		{"lat_inf", math.Inf(1), 0, true},
		{"lng_neg_inf", 0, math.Inf(-1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCoordinates(tt.lat, tt.lng)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCoordinates(%v, %v) error = %v, wantErr %v", tt.lat, tt.lng, err, tt.wantErr)
			}
		})
	}
}

func TestLocationRequest_SignalCount(t *testing.T) {
	var nilReq *LocationRequest
	if nilReq.SignalCount() != 0 {
		t.Error("expected 0 signals for nil request")
	}

	req := &LocationRequest{
		CellTowers:       []CellTower{{CellID: 1}, {CellID: 2}},
		WifiAccessPoints: []WifiAccessPoint{{MACAddress: "01:23:45:67:89:ab"}},
		BluetoothBeacons: []BluetoothBeacon{{MACAddress: "ff:23:45:67:89:ab"}},
	}
	if got := req.SignalCount(); got != 4 {
		t.Errorf("expected 4 signals, got %d", got)
	}
}

func TestLocationRequest_WireNames(t *testing.T) {
	considerIP := false
	req := LocationRequest{
		ConsiderIP: &considerIP,
		CellTowers: []CellTower{{
			RadioType:         "gsm",
			MobileCountryCode: 232,
			MobileNetworkCode: 1,
			LocationAreaCode:  1010,
			CellID:            2222,
		}},
		WifiAccessPoints: []WifiAccessPoint{{MACAddress: "01:23:45:67:89:ab", SignalStrength: -51}},
		Fallbacks:        &Fallbacks{LACF: true},
	}

	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(data)
	for _, key := range []string{`"considerIp":false`, `"cellTowers"`, `"mobileCountryCode":232`, `"cellId":2222`, `"wifiAccessPoints"`, `"macAddress"`, `"lacf":true`} {
		if !strings.Contains(body, key) {
			t.Errorf("expected %s in %s", key, body)
		}
	}
	if strings.Contains(body, "bluetoothBeacons") {
		t.Error("expected empty bluetoothBeacons to be omitted")
	}
}
