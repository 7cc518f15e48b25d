package core

import "context"

// Fallback addresses reported when reverse geocoding yields nothing.
const (
	AddressNotFound = "Address not found"
	AddressError    = "Error getting address"
)

// Geocoder resolves coordinates to a human readable address.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
}
