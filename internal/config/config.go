package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	DataPath     string
	SnapshotPath string
	Simulation   SimulationConfig
	Capacity     CapacityConfig
	CacheSize    int
	Workers      int
	// MetricsAddr enables the Prometheus endpoint when non-empty.
	MetricsAddr         string
	EnableMermaidCharts bool
}

// SimulationConfig tunes the Monte Carlo engine.
type SimulationConfig struct {
	Iterations     int
	MaxIterations  int
	WarnIterations int
	PriorWeight    float64
}

// CapacityConfig tunes the queueing penalty.
type CapacityConfig struct {
	QueueFactor       float64
	MaxQueueDelayDays float64
}

// Load reads settings from the environment after applying any .env files. A .env next to
// the binary wins over one in the working directory, since godotenv never overrides a
// variable that is already set.
func Load() (*AppConfig, error) {
	binDir := loadDotEnv()

	dataPath := getEnv("DATA_PATH", "")
	switch {
	case dataPath != "":
	case binDir != "":
		dataPath = binDir
	default:
		dataPath = "."
	}

	return &AppConfig{
		DataPath:     dataPath,
		SnapshotPath: getEnv("SNAPSHOT_PATH", filepath.Join(dataPath, "workload.yaml")),
		Simulation: SimulationConfig{
			Iterations:     getEnvInt("ORACLE_ITERATIONS", 1000),
			MaxIterations:  getEnvInt("ORACLE_MAX_ITERATIONS", 20000),
			WarnIterations: getEnvInt("ORACLE_WARN_ITERATIONS", 5000),
			PriorWeight:    getEnvFloat("ORACLE_PRIOR_WEIGHT", 5),
		},
		Capacity: CapacityConfig{
			QueueFactor:       getEnvFloat("ORACLE_QUEUE_FACTOR", 1),
			MaxQueueDelayDays: getEnvFloat("ORACLE_MAX_QUEUE_DELAY_DAYS", 30),
		},
		CacheSize:           getEnvInt("ORACLE_CACHE_SIZE", 256),
		Workers:             getEnvInt("ORACLE_WORKERS", 4),
		MetricsAddr:         getEnv("METRICS_ADDR", ""),
		EnableMermaidCharts: getEnvBool("ENABLE_MERMAID_CHARTS", false),
	}, nil
}

// loadDotEnv applies .env files and returns the binary's directory, or "" if unknown.
func loadDotEnv() string {
	binDir := ""
	if exe, err := os.Executable(); err == nil {
		binDir = filepath.Dir(exe)
		if err := godotenv.Load(filepath.Join(binDir, ".env")); err == nil {
			log.Debug().Str("dir", binDir).Msg("Applied .env from binary directory")
		}
	}
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env in working directory")
	}
	return binDir
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intVal, err := strconv.Atoi(value); err == nil && intVal > 0 {
			return intVal
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring invalid integer setting")
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil && f > 0 {
			return f
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring invalid numeric setting")
	}
	return fallback
}
