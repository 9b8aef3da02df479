package utils

import (
	"errors"
	"strconv"
	"strings"
)

var ErrMissingCoordinates = errors.New("lng and lat are required")

// ParseFloat converts a string to a float64, returning 0 for an empty string
func ParseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// ParseCoordinates parses a lng/lat pair from query parameters and checks
// both are on the globe.
func ParseCoordinates(lngRaw, latRaw string) (lng, lat float64, err error) {
	if strings.TrimSpace(lngRaw) == "" || strings.TrimSpace(latRaw) == "" {
		return 0, 0, ErrMissingCoordinates
	}
	if lng, err = ParseFloat(lngRaw); err != nil {
		return 0, 0, errors.New("lng must be a number")
	}
	if lat, err = ParseFloat(latRaw); err != nil {
		return 0, 0, errors.New("lat must be a number")
	}
	if lng < -180 || lng > 180 {
		return 0, 0, errors.New("lng must be between -180 and 180")
	}
	if lat < -90 || lat > 90 {
		return 0, 0, errors.New("lat must be between -90 and 90")
	}
	return lng, lat, nil
}
