// ABOUTME: Google Geolocation API resolver backed by the googlemaps client
// ABOUTME: Translates location requests into the maps request shape

package mls

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/harper/geolocation/internal/models"
	"googlemaps.github.io/maps"
)

// GoogleResolver resolves requests with the Google Maps Geolocation API.
type GoogleResolver struct {
	client *maps.Client
}

// Compile-time check that GoogleResolver implements Resolver.
var _ Resolver = (*GoogleResolver)(nil)

// NewGoogleResolver creates a resolver using apiKey.
// A non-empty baseURL replaces the Google API host. Each call is bounded by
// timeout; a non-positive timeout selects DefaultTimeout.
func NewGoogleResolver(apiKey, baseURL string, timeout time.Duration) (*GoogleResolver, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	opts := []maps.ClientOption{
		maps.WithAPIKey(apiKey),
		maps.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if baseURL != "" {
		opts = append(opts, maps.WithBaseURL(baseURL))
	}
	c, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create maps client: %w", err)
	}
	return &GoogleResolver{client: c}, nil
}

// Resolve performs one geolocate call. The maps client reports service
// errors as Go errors, so the returned Response never carries an APIError.
func (g *GoogleResolver) Resolve(ctx context.Context, req *models.LocationRequest) (*Response, error) {
	resp, err := g.client.Geolocate(ctx, toMapsRequest(req))
	if err != nil {
		return nil, fmt.Errorf("google geolocate: %w", err)
	}
	if resp == nil {
		return nil, ErrEmptyBody
	}

	lat, lng, accuracy := resp.Location.Lat, resp.Location.Lng, resp.Accuracy
	return &Response{
		Location: &LatLng{Lat: &lat, Lng: &lng},
		Accuracy: &accuracy,
	}, nil
}

func toMapsRequest(req *models.LocationRequest) *maps.GeolocationRequest {
	out := &maps.GeolocationRequest{ConsiderIP: true}
	if req == nil {
		return out
	}
	if req.ConsiderIP != nil {
		out.ConsiderIP = *req.ConsiderIP
	}
	out.HomeMobileCountryCode = req.HomeMobileCountryCode
	out.HomeMobileNetworkCode = req.HomeMobileNetworkCode
	out.RadioType = maps.RadioType(req.RadioType)
	out.Carrier = req.Carrier

	for _, cell := range req.CellTowers {
		out.CellTowers = append(out.CellTowers, maps.CellTower{
			CellID:            int(cell.CellID),
			Age:               int(cell.Age),
			LocationAreaCode:  cell.LocationAreaCode,
			MobileCountryCode: cell.MobileCountryCode,
			MobileNetworkCode: cell.MobileNetworkCode,
			SignalStrength:    cell.SignalStrength,
			TimingAdvance:     cell.TimingAdvance,
		})
	}

	for _, ap := range req.WifiAccessPoints {
		out.WiFiAccessPoints = append(out.WiFiAccessPoints, maps.WiFiAccessPoint{
			MACAddress:         ap.MACAddress,
			Age:                nonNegative(ap.Age),
			SignalStrength:     ap.SignalStrength,
			Channel:            ap.Channel,
			SignalToNoiseRatio: ap.SignalToNoiseRatio,
		})
	}

	return out
}

// nonNegative converts an age in milliseconds, clamping negative values to 0.
func nonNegative(age int64) uint64 {
	if age < 0 {
		return 0
	}
	return uint64(age)
}
