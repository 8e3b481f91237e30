package appconf

import (
	"strings"

	"github.com/joho/godotenv"
)

type Environment int

const (
	Development Environment = iota
	Test
	Production
)

func (e Environment) String() string {
	switch e {
	case Test:
		return "test"
	case Production:
		return "production"
	default:
		return "development"
	}
}

// EnvFlagToEnvironment maps the -env flag; anything unrecognized is Development.
func EnvFlagToEnvironment(env string) Environment {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "test":
		return Test
	case "production", "prod":
		return Production
	default:
		return Development
	}
}

// Default data sources.
const (
	DefaultStationsURL  = "https://dsc106.com/labs/lab07/data/bluebikes-stations.json"
	DefaultTripsURL     = "https://dsc106.com/labs/lab07/data/bluebikes-traffic-2024-03.csv"
	DefaultBostonURL    = "https://bostonopendata-boston.opendata.arcgis.com/datasets/boston::existing-bike-network-2022.geojson"
	DefaultCambridgeURL = "https://raw.githubusercontent.com/cambridgegis/cambridgegis_data/main/Recreation/Bike_Facilities/RECREATION_BikeFacilities.geojson"
)

// Config holds all the configuration settings for the server.
type Config struct {
	Port      int
	Env       Environment
	LogLevel  string
	RateLimit int // requests per second per client on event endpoints; 0 blocks, negative disables

	StationsURL  string
	TripsURL     string
	BostonURL    string
	CambridgeURL string

	MapCenterLon float64
	MapCenterLat float64
	MapZoom      float64
	MapStyle     string

	UseTripIndex bool
	AccessToken  string
	CORSOrigins  []string
	TrustProxy   bool // key rate limits by X-Forwarded-For
}

// LoadEnvFiles reads .env.local then .env into the process environment.
// Missing files are ignored and existing variables are never overwritten.
func LoadEnvFiles(paths ...string) []string {
	if len(paths) == 0 {
		paths = []string{".env.local", ".env"}
	}
	var loaded []string
	for _, p := range paths {
		if err := godotenv.Load(p); err == nil {
			loaded = append(loaded, p)
		}
	}
	return loaded
}

// SplitList splits a comma separated flag value, dropping empty items.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
