// ABOUTME: Geolocate response types and their conversion into positions
// ABOUTME: Missing fields are reported as errors instead of zero values

package mls

import (
	"errors"
	"fmt"
	"strings"

	"github.com/harper/geolocation/internal/models"
)

// ErrIncompleteResponse is returned when a successful response lacks a required position field.
var ErrIncompleteResponse = errors.New("incomplete geolocate response")

// LatLng is the location object of a geolocate response.
// Fields are pointers so an omitted value can be told apart from 0.
type LatLng struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// ErrorDetail is one entry of an API error's detail list.
type ErrorDetail struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// APIError is the error object a geolocate service embeds in its response body.
type APIError struct {
	Code    int           `json:"code"`
	Message string        `json:"message"`
	Errors  []ErrorDetail `json:"errors,omitempty"`
}

func (e *APIError) Error() string {
	if len(e.Errors) > 0 && e.Errors[0].Reason != "" {
		return fmt.Sprintf("geolocate error %d: %s (%s)", e.Code, e.Message, e.Errors[0].Reason)
	}
	return fmt.Sprintf("geolocate error %d: %s", e.Code, e.Message)
}

// Response is the body of a geolocate call.
type Response struct {
	Location *LatLng   `json:"location"`
	Accuracy *float64  `json:"accuracy"`
	Fallback string    `json:"fallback,omitempty"`
	Error    *APIError `json:"error,omitempty"`
}

// Position validates the response and converts it into a Position.
// The embedded Error is not consulted; callers decide what to do with it.
func (r *Response) Position() (models.Position, error) {
	if r == nil {
		return models.Position{}, fmt.Errorf("%w: empty response", ErrIncompleteResponse)
	}

	var missing []string
	if r.Location == nil {
		missing = append(missing, "location")
	} else {
		if r.Location.Lat == nil {
			missing = append(missing, "location.lat")
		}
		if r.Location.Lng == nil {
			missing = append(missing, "location.lng")
		}
	}
	if r.Accuracy == nil {
		missing = append(missing, "accuracy")
	}
	if len(missing) > 0 {
		return models.Position{}, fmt.Errorf("%w: missing %s", ErrIncompleteResponse, strings.Join(missing, ", "))
	}

	pos, err := models.NewPosition(*r.Location.Lat, *r.Location.Lng, *r.Accuracy)
	if err != nil {
		return models.Position{}, fmt.Errorf("%w: %v", ErrIncompleteResponse, err)
	}
	return *pos, nil
}
