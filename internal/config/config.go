package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	// DefaultThresholdPercent is the utilization percentage at which an
	// alert fires when DISKWATCH_THRESHOLD is not set.
	DefaultThresholdPercent = 90

	// DefaultSchedule fires the check at the top of every hour.
	DefaultSchedule = "0 * * * *"
)

// Config holds agent configuration. Fields are unexported to prevent modification.
type Config struct {
	mountPath          string
	thresholdPercent   int
	topicARN           string
	region             string
	schedule           string
	metadataEndpoint   string
	logFilePath        string
	envFilePath        string
	serviceName        string
	serviceDisplayName string
	serviceDescription string
	binaryPath         string
}

func defaultBinaryPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(
			os.Getenv("ProgramFiles"),
			"Diskwatch",
			"diskwatch.exe",
		)
	case "darwin", "linux":
		return "/usr/local/bin/diskwatch"
	default:
		return ""
	}
}

func defaultLogFilePath() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("ProgramData"), "Diskwatch", "diskwatch.log")
	}
	return "/var/log/diskwatch.log"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// New loads configuration from the environment. An env file is loaded first
// when present: DISKWATCH_ENV_FILE if set, otherwise ./.env.
func New() *Config {
	envFile := os.Getenv("DISKWATCH_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	_ = godotenv.Overload(envFile) // ignore error if env file not found

	threshold, err := strconv.Atoi(os.Getenv("DISKWATCH_THRESHOLD"))
	if err != nil {
		threshold = DefaultThresholdPercent
	}

	cfg := &Config{
		mountPath:          envOr("DISKWATCH_MOUNT_PATH", "/"),
		thresholdPercent:   threshold,
		topicARN:           os.Getenv("DISKWATCH_TOPIC_ARN"),
		region:             os.Getenv("DISKWATCH_REGION"),
		schedule:           envOr("DISKWATCH_SCHEDULE", DefaultSchedule),
		metadataEndpoint:   os.Getenv("DISKWATCH_METADATA_ENDPOINT"),
		logFilePath:        envOr("DISKWATCH_LOG_FILE", defaultLogFilePath()),
		envFilePath:        envFile,
		serviceName:        envOr("SERVICE_NAME", "Diskwatch"),
		serviceDisplayName: envOr("SERVICE_DISPLAY_NAME", "Diskwatch Agent"),
		serviceDescription: envOr("SERVICE_DESCRIPTION", "Monitors disk utilization and publishes alerts to an SNS topic when the configured threshold is exceeded"),
	}
	cfg.binaryPath = defaultBinaryPath()
	return cfg
}

// Validate reports configuration that cannot produce a meaningful check run.
func (c *Config) Validate() error {
	if c.mountPath == "" {
		return fmt.Errorf("mount path must not be empty")
	}
	if c.thresholdPercent < 0 || c.thresholdPercent > 100 {
		return fmt.Errorf("threshold must be between 0 and 100, got %d", c.thresholdPercent)
	}
	return nil
}

// Getter methods (immutable from outside)

func (c *Config) MountPath() string {
	return c.mountPath
}

func (c *Config) ThresholdPercent() int {
	return c.thresholdPercent
}

func (c *Config) TopicARN() string {
	return c.topicARN
}

func (c *Config) Region() string {
	return c.region
}

func (c *Config) Schedule() string {
	return c.schedule
}

func (c *Config) MetadataEndpoint() string {
	return c.metadataEndpoint
}

func (c *Config) LogFilePath() string {
	return c.logFilePath
}

func (c *Config) EnvFilePath() string {
	return c.envFilePath
}

func (c *Config) ServiceName() string {
	return c.serviceName
}

func (c *Config) ServiceDisplayName() string {
	return c.serviceDisplayName
}

func (c *Config) ServiceDescription() string {
	return c.serviceDescription
}

func (c *Config) BinaryPath() string {
	return c.binaryPath
}
