package tripdb

// Config holds configuration options for the Client
type Config struct {
	DBPath string // SQLite DSN; ":memory:" keeps the index in process
}

func NewConfig(dbPath string) Config {
	if dbPath == "" {
		dbPath = ":memory:"
	}
	return Config{DBPath: dbPath}
}
