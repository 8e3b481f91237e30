package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// Station short names are alphanumeric with the odd separator.
	validIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

	htmlTagPattern = regexp.MustCompile(`<[^>]*>`)
)

// MaxViewport bounds the viewport size a client may report.
const MaxViewport = 16384

// ValidateID validates that an ID is safe and within reasonable limits
func ValidateID(id string) error {
	if id == "" {
		return errors.New("id cannot be empty")
	}
	if len(id) > 100 {
		return errors.New("id too long (max 100 characters)")
	}
	if !validIDPattern.MatchString(id) {
		return errors.New("id contains invalid characters")
	}
	return nil
}

// ValidateLatitude validates latitude values
func ValidateLatitude(lat float64) error {
	if lat < -90.0 || lat > 90.0 {
		return errors.New("latitude must be between -90 and 90")
	}
	return nil
}

// ValidateLongitude validates longitude values
func ValidateLongitude(lon float64) error {
	if lon < -180.0 || lon > 180.0 {
		return errors.New("longitude must be between -180 and 180")
	}
	return nil
}

// ValidateZoom checks zoom against the map's zoom range.
func ValidateZoom(zoom, minZoom, maxZoom float64) error {
	if zoom < minZoom || zoom > maxZoom {
		return fmt.Errorf("zoom must be between %g and %g", minZoom, maxZoom)
	}
	return nil
}

// ValidateViewport validates one viewport dimension in pixels.
func ValidateViewport(size int) error {
	if size <= 0 || size > MaxViewport {
		return fmt.Errorf("viewport size must be between 1 and %d", MaxViewport)
	}
	return nil
}

// SanitizeInput removes HTML tags and surrounding whitespace
func SanitizeInput(input string) string {
	return strings.TrimSpace(htmlTagPattern.ReplaceAllString(input, ""))
}

// CameraParams is a validated camera change. Has* report which fields were sent.
type CameraParams struct {
	Lon, Lat, Zoom      float64
	Width, Height       int
	HasCenter, HasZoom  bool
	HasWidth, HasHeight bool
}

// ValidateCameraParams validates the parts of a camera change that were sent.
// lon and lat must be sent together, as must width and height.
func ValidateCameraParams(p CameraParams, minZoom, maxZoom float64) map[string][]string {
	fieldErrors := make(map[string][]string)

	if p.HasCenter {
		if err := ValidateLongitude(p.Lon); err != nil {
			fieldErrors["lon"] = append(fieldErrors["lon"], err.Error())
		}
		if err := ValidateLatitude(p.Lat); err != nil {
			fieldErrors["lat"] = append(fieldErrors["lat"], err.Error())
		}
	}
	if p.HasZoom {
		if err := ValidateZoom(p.Zoom, minZoom, maxZoom); err != nil {
			fieldErrors["zoom"] = append(fieldErrors["zoom"], err.Error())
		}
	}
	if p.HasWidth != p.HasHeight {
		fieldErrors["viewport"] = append(fieldErrors["viewport"], "width and height must be sent together")
	} else if p.HasWidth {
		if err := ValidateViewport(p.Width); err != nil {
			fieldErrors["width"] = append(fieldErrors["width"], err.Error())
		}
		if err := ValidateViewport(p.Height); err != nil {
			fieldErrors["height"] = append(fieldErrors["height"], err.Error())
		}
	}

	return fieldErrors
}
