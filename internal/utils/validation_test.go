package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateID(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		errMsg string
	}{
		{name: "station short name", id: "A32000"},
		{name: "with separators", id: "bluebikes_station-447.1"},
		{name: "empty", id: "", errMsg: "id cannot be empty"},
		{name: "too long", id: strings.Repeat("a", 101), errMsg: "id too long"},
		{name: "markup", id: "A32000<script>", errMsg: "invalid characters"},
		{name: "sql", id: "A'; DROP TABLE trips; --", errMsg: "invalid characters"},
		{name: "path traversal", id: "../../../etc/passwd", errMsg: "invalid characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID(tt.id)
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.errMsg)
			}
		})
	}
}

func TestValidateCoordinates(t *testing.T) {
	assert.NoError(t, ValidateLatitude(42.36027))
	assert.NoError(t, ValidateLatitude(-90))
	assert.NoError(t, ValidateLatitude(90))
	assert.EqualError(t, ValidateLatitude(90.1), "latitude must be between -90 and 90")

	assert.NoError(t, ValidateLongitude(-71.09415))
	assert.NoError(t, ValidateLongitude(180))
	assert.EqualError(t, ValidateLongitude(-180.1), "longitude must be between -180 and 180")
}

func TestValidateZoomAndViewport(t *testing.T) {
	assert.NoError(t, ValidateZoom(12, 5, 18))
	assert.NoError(t, ValidateZoom(5, 5, 18))
	assert.EqualError(t, ValidateZoom(4.9, 5, 18), "zoom must be between 5 and 18")
	assert.Error(t, ValidateZoom(18.5, 5, 18))

	assert.NoError(t, ValidateViewport(1024))
	assert.Error(t, ValidateViewport(0))
	assert.Error(t, ValidateViewport(MaxViewport+1))
}

func TestValidateCameraParams(t *testing.T) {
	tests := []struct {
		name   string
		params CameraParams
		fields []string
	}{
		{
			name:   "nothing sent",
			params: CameraParams{},
		},
		{
			name:   "valid move",
			params: CameraParams{Lon: -71.1, Lat: 42.37, Zoom: 13, HasCenter: true, HasZoom: true},
		},
		{
			name:   "bad center",
			params: CameraParams{Lon: -200, Lat: 95, HasCenter: true},
			fields: []string{"lat", "lon"},
		},
		{
			name:   "zoom out of range",
			params: CameraParams{Zoom: 22, HasZoom: true},
			fields: []string{"zoom"},
		},
		{
			name:   "half a viewport",
			params: CameraParams{Width: 800, HasWidth: true},
			fields: []string{"viewport"},
		},
		{
			name:   "bad viewport",
			params: CameraParams{Width: -1, Height: 600, HasWidth: true, HasHeight: true},
			fields: []string{"width"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fieldErrors := ValidateCameraParams(tt.params, 5, 18)
			keys := make([]string, 0, len(fieldErrors))
			for k := range fieldErrors {
				keys = append(keys, k)
			}
			assert.ElementsMatch(t, tt.fields, keys)
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "Kendall T", SanitizeInput("  <b>Kendall T</b> "))
	assert.Equal(t, "alert(1)", SanitizeInput("<script>alert(1)</script>"))
	assert.Equal(t, "", SanitizeInput("   "))
}
