package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application's configuration.
type Config struct {
	InfluxIP     string
	InfluxPort   int
	InfluxUser   string
	InfluxPasswd string
	InfluxToken  string
	InfluxOrg    string
	DBName       string

	Timezone *time.Location
	Debug    bool

	HTTPPort     string
	ConfigFile   string
	LogLevel     string
	LogPath      string
	StoreTimeout time.Duration
	CORSOrigins  []string
}

// InfluxURL is the base URL of the InfluxDB HTTP API.
func (c Config) InfluxURL() string {
	return fmt.Sprintf("http://%s:%d", c.InfluxIP, c.InfluxPort)
}

// LoadConfig loads the configuration from environment variables.
func LoadConfig() (Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, relying on system environment variables")
	}
	return loadFromEnv()
}

func loadFromEnv() (Config, error) {
	port, err := strconv.Atoi(getEnv("INFLUX_PORT", "8086"))
	if err != nil || port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("invalid INFLUX_PORT %q", os.Getenv("INFLUX_PORT"))
	}

	tzName := getEnv("TIMEZONE", "Europe/Berlin")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return Config{}, fmt.Errorf("invalid TIMEZONE %q: %w", tzName, err)
	}

	logLevel := strings.ToLower(getEnv("LOG_LEVEL", "info"))
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return Config{}, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", logLevel)
	}

	timeout, err := time.ParseDuration(getEnv("STORE_TIMEOUT", "10s"))
	if err != nil || timeout <= 0 {
		return Config{}, fmt.Errorf("invalid STORE_TIMEOUT %q", os.Getenv("STORE_TIMEOUT"))
	}

	org := strings.TrimSpace(os.Getenv("INFLUX_ORG"))
	if org == "" {
		return Config{}, fmt.Errorf("INFLUX_ORG is required: queries and bucket bootstrap run against an organization")
	}

	httpPort := getEnv("HTTP_PORT", "8000")
	if _, err := strconv.Atoi(httpPort); err != nil {
		return Config{}, fmt.Errorf("invalid HTTP_PORT %q: %w", httpPort, err)
	}

	return Config{
		InfluxIP:     getEnv("INFLUX_IP", "127.0.0.1"),
		InfluxPort:   port,
		InfluxUser:   getEnv("INFLUX_USER", "root"),
		InfluxPasswd: getEnv("INFLUX_PASSWD", "root"),
		InfluxToken:  strings.TrimSpace(os.Getenv("INFLUX_TOKEN")),
		InfluxOrg:    org,
		DBName:       getEnv("DB_NAME", "water-monitoring"),
		Timezone:     loc,
		Debug:        parseFlag(os.Getenv("DEBUG")),
		HTTPPort:     httpPort,
		ConfigFile:   getEnv("CONFIG_FILE", "config/config.yaml"),
		LogLevel:     logLevel,
		LogPath:      strings.TrimSpace(os.Getenv("LOG_PATH")),
		StoreTimeout: timeout,
		CORSOrigins:  splitList(getEnv("CORS_ORIGINS", "*")),
	}, nil
}

func getEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func splitList(v string) []string {
	var items []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// parseFlag treats any non-empty value as enabled unless it parses as a false boolean.
func parseFlag(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return true
	}
	return b
}
