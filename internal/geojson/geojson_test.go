// ABOUTME: Unit tests for GeoJSON generation
// ABOUTME: Tests Point and LineString feature collection builders

package geojson

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/harper/geolocation/internal/models"
)

func record(id int64, lat, lng float64, at time.Time) *models.LocationRecord {
	return &models.LocationRecord{
		ID:          id,
		Resolved:    models.Position{Latitude: lat, Longitude: lng, Accuracy: 10},
		Reported:    models.Position{Latitude: lat + 0.01, Longitude: lng - 0.01, Accuracy: 5},
		CaptureTime: at,
	}
}

func TestToPointsFeatureCollection(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	fc := ToPointsFeatureCollection([]*models.LocationRecord{record(3, 48.2, 16.3, at)}, false)

	if fc.Type != "FeatureCollection" {
		t.Errorf("expected FeatureCollection type, got %s", fc.Type)
	}
	if len(fc.Features) != 1 {
		t.Fatalf("expected 1 feature, got %d", len(fc.Features))
	}

	f := fc.Features[0]
	if f.Geometry.Type != "Point" {
		t.Errorf("expected Point geometry, got %s", f.Geometry.Type)
	}
	coords, ok := f.Geometry.Coordinates.(PointCoordinates)
	if !ok {
		t.Fatalf("expected PointCoordinates, got %T", f.Geometry.Coordinates)
	}
	// GeoJSON order is [lng, lat]
	if coords[0] != 16.3 || coords[1] != 48.2 {
		t.Errorf("unexpected coordinates %v", coords)
	}
	if f.Properties["id"] != int64(3) {
		t.Errorf("expected id 3, got %v", f.Properties["id"])
	}
	if f.Properties["source"] != SourceResolved {
		t.Errorf("expected resolved source, got %v", f.Properties["source"])
	}
	if f.Properties["capture_time"] != "2024-05-01T12:00:00Z" {
		t.Errorf("unexpected capture_time %v", f.Properties["capture_time"])
	}
}

func TestToPointsFeatureCollection_IncludeGPS(t *testing.T) {
	now := time.Now()
	records := []*models.LocationRecord{
		record(1, 48.2, 16.3, now),
		record(2, 41.8, -87.6, now),
	}

	fc := ToPointsFeatureCollection(records, true)
	if len(fc.Features) != 4 {
		t.Fatalf("expected 4 features, got %d", len(fc.Features))
	}
	if fc.Features[1].Properties["source"] != SourceGPS {
		t.Errorf("expected gps source on second feature, got %v", fc.Features[1].Properties["source"])
	}
	if fc.Features[1].Properties["accuracy"] != 5.0 {
		t.Errorf("expected reported accuracy 5, got %v", fc.Features[1].Properties["accuracy"])
	}
}

func TestToPointsFeatureCollection_Empty(t *testing.T) {
	fc := ToPointsFeatureCollection(nil, true)

	data, err := fc.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}
	if string(data) != `{"type":"FeatureCollection","features":[]}` {
		t.Errorf("unexpected empty collection JSON: %s", data)
	}
}

func TestToRecordFeatureCollection(t *testing.T) {
	fc := ToRecordFeatureCollection(record(9, 1, 2, time.Now()))
	if len(fc.Features) != 2 {
		t.Fatalf("expected resolved and gps features, got %d", len(fc.Features))
	}
}

func TestToLineFeatureCollection(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	records := []*models.LocationRecord{
		record(2, 2, 20, base.Add(time.Hour)),
		record(1, 1, 10, base),
		record(3, 3, 30, base.Add(2*time.Hour)),
	}

	fc := ToLineFeatureCollection(records)
	if len(fc.Features) != 1 {
		t.Fatalf("expected 1 line feature, got %d", len(fc.Features))
	}

	f := fc.Features[0]
	if f.Geometry.Type != "LineString" {
		t.Errorf("expected LineString geometry, got %s", f.Geometry.Type)
	}
	coords := f.Geometry.Coordinates.(LineCoordinates)
	if len(coords) != 3 {
		t.Fatalf("expected 3 coordinates, got %d", len(coords))
	}
	// Sorted by capture time
	if coords[0] != (PointCoordinates{10, 1}) || coords[2] != (PointCoordinates{30, 3}) {
		t.Errorf("coordinates not in capture order: %v", coords)
	}
	if f.Properties["point_count"] != 3 {
		t.Errorf("expected point_count 3, got %v", f.Properties["point_count"])
	}
	if records[0].ID != 2 {
		t.Error("input slice should not be reordered")
	}
}

func TestToLineFeatureCollection_SinglePoint(t *testing.T) {
	fc := ToLineFeatureCollection([]*models.LocationRecord{record(1, 1, 1, time.Now())})
	if len(fc.Features) != 0 {
		t.Errorf("expected no features for a single record, got %d", len(fc.Features))
	}
}

func TestToJSONIndent(t *testing.T) {
	fc := ToRecordFeatureCollection(record(1, 48.2, 16.3, time.Now()))

	data, err := fc.ToJSONIndent()
	if err != nil {
		t.Fatalf("ToJSONIndent failed: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if parsed["type"] != "FeatureCollection" {
		t.Errorf("expected FeatureCollection, got %v", parsed["type"])
	}
}
