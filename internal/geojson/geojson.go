// ABOUTME: GeoJSON generation utilities
// ABOUTME: Converts location records to GeoJSON FeatureCollections

package geojson

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/harper/geolocation/internal/models"
)

// Feature sources.
const (
	SourceResolved = "resolved"
	SourceGPS      = "gps"
)

// FeatureCollection represents a GeoJSON FeatureCollection.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature represents a GeoJSON Feature.
type Feature struct {
	Type       string                 `json:"type"`
	Geometry   Geometry               `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

// Geometry represents a GeoJSON Geometry.
type Geometry struct {
	Type        string      `json:"type"`
	Coordinates interface{} `json:"coordinates"`
}

// PointCoordinates represents [longitude, latitude] for a Point.
type PointCoordinates [2]float64

// LineCoordinates represents [[lng, lat], [lng, lat], ...] for a LineString.
type LineCoordinates []PointCoordinates

func pointFeature(rec *models.LocationRecord, pos models.Position, source string) Feature {
	return Feature{
		Type: "Feature",
		Geometry: Geometry{
			Type:        "Point",
			Coordinates: PointCoordinates{pos.Longitude, pos.Latitude},
		},
		Properties: map[string]interface{}{
			"id":           rec.ID,
			"source":       source,
			"accuracy":     pos.Accuracy,
			"capture_time": rec.CaptureTime.UTC().Format(time.RFC3339),
		},
	}
}

// ToPointsFeatureCollection converts records to Points. Each record yields its
// resolved position and, when includeGPS is set, its reported position.
func ToPointsFeatureCollection(records []*models.LocationRecord, includeGPS bool) *FeatureCollection {
	size := len(records)
	if includeGPS {
		size *= 2
	}
	features := make([]Feature, 0, size)

	for _, rec := range records {
		features = append(features, pointFeature(rec, rec.Resolved, SourceResolved))
		if includeGPS {
			features = append(features, pointFeature(rec, rec.Reported, SourceGPS))
		}
	}

	return &FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}

// ToRecordFeatureCollection renders one record with both of its positions.
func ToRecordFeatureCollection(rec *models.LocationRecord) *FeatureCollection {
	return ToPointsFeatureCollection([]*models.LocationRecord{rec}, true)
}

// ToLineFeatureCollection joins the resolved positions of records into a
// single LineString in capture order. Fewer than two records yield no feature.
func ToLineFeatureCollection(records []*models.LocationRecord) *FeatureCollection {
	fc := &FeatureCollection{
		Type:     "FeatureCollection",
		Features: []Feature{},
	}
	if len(records) < 2 {
		return fc
	}

	sorted := make([]*models.LocationRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CaptureTime.Before(sorted[j].CaptureTime)
	})

	coords := make(LineCoordinates, len(sorted))
	for i, rec := range sorted {
		coords[i] = PointCoordinates{rec.Resolved.Longitude, rec.Resolved.Latitude}
	}

	fc.Features = append(fc.Features, Feature{
		Type: "Feature",
		Geometry: Geometry{
			Type:        "LineString",
			Coordinates: coords,
		},
		Properties: map[string]interface{}{
			"source":      SourceResolved,
			"point_count": len(sorted),
			"start":       sorted[0].CaptureTime.UTC().Format(time.RFC3339),
			"end":         sorted[len(sorted)-1].CaptureTime.UTC().Format(time.RFC3339),
		},
	})
	return fc
}

// ToJSON serializes a FeatureCollection to JSON.
func (fc *FeatureCollection) ToJSON() ([]byte, error) {
	return json.Marshal(fc)
}

// ToJSONIndent serializes a FeatureCollection to indented JSON.
func (fc *FeatureCollection) ToJSONIndent() ([]byte, error) {
	return json.MarshalIndent(fc, "", "  ")
}
