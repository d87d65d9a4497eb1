package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment
// variables. It is constructed once in main and passed by pointer into the
// orchestrator and processing stages; nothing mutates it after Load.
type Config struct {
	// Route (constant per run)
	SourceCity         string
	DestinationCity    string
	SourceAirport      string
	DestinationAirport string

	// Acquisition window: dates scraped are today+StartOffsetDays .. +DaysToScrape.
	DaysToScrape    int
	StartOffsetDays int

	// Browser behaviour
	Headless  bool
	ChromeBin string

	// Inter-request throttling (seconds). The random delay between date
	// sessions is the primary anti-bot defense and is never shortened.
	DelayMinSec int
	DelayMaxSec int

	// Per-session waits (seconds)
	NavTimeoutSec     int
	ResultsTimeoutSec int
	PopupTimeoutSec   int
	HumanDelayMinSec  int
	HumanDelayMaxSec  int

	// Maximum cards extracted per date; 0 means all.
	CardLimit int

	// Output locations
	RawDataDir   string
	ProcessedDir string

	// PostgreSQL (cleaned dataset + daily statistics for the dashboard)
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		SourceCity:         getEnv("SOURCE_CITY", "Mumbai"),
		DestinationCity:    getEnv("DESTINATION_CITY", "Delhi"),
		SourceAirport:      getEnv("SOURCE_AIRPORT", "BOM"),
		DestinationAirport: getEnv("DESTINATION_AIRPORT", "DEL"),

		DaysToScrape:    getEnvInt("DAYS_TO_SCRAPE", 30),
		StartOffsetDays: getEnvInt("START_OFFSET_DAYS", 1),

		Headless:  getEnvBool("HEADLESS", true),
		ChromeBin: getEnv("CHROME_BIN", ""),

		DelayMinSec: getEnvInt("DELAY_MIN_SEC", 10),
		DelayMaxSec: getEnvInt("DELAY_MAX_SEC", 20),

		NavTimeoutSec:     getEnvInt("NAV_TIMEOUT_SEC", 120),
		ResultsTimeoutSec: getEnvInt("RESULTS_TIMEOUT_SEC", 60),
		PopupTimeoutSec:   getEnvInt("POPUP_TIMEOUT_SEC", 5),
		HumanDelayMinSec:  getEnvInt("HUMAN_DELAY_MIN_SEC", 8),
		HumanDelayMaxSec:  getEnvInt("HUMAN_DELAY_MAX_SEC", 15),

		CardLimit: getEnvInt("CARD_LIMIT", 0),

		RawDataDir:   getEnv("RAW_DATA_DIR", "./data/raw"),
		ProcessedDir: getEnv("PROCESSED_DIR", "./data/processed"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "flightfare_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
	}
}

// Route returns the human-readable route label used in logs and reports.
func (c *Config) Route() string {
	return c.SourceCity + " → " + c.DestinationCity +
		" (" + c.SourceAirport + "-" + c.DestinationAirport + ")"
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
