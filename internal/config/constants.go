package config

import "time"

// Application constants
const (
	AppName = "lobstats"

	// EnvPrefix namespaces every environment variable, e.g. LOBSTATS_SERVER_PORT.
	EnvPrefix = "LOBSTATS"
	// ConfigFileEnv names an explicit YAML config file.
	ConfigFileEnv = "LOBSTATS_CONFIG_FILE"

	// Statistics defaults
	DefaultMetric   = "gwp"
	DefaultYearFrom = 2008
	DefaultYearTo   = 2015

	// Dataset
	DefaultDatasetPath = "data/gwp.csv"

	// Result cache
	DefaultCacheTTL             = time.Hour
	DefaultCacheMaxEntries      = 10000
	DefaultCacheCleanupInterval = 10 * time.Minute

	// Log settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogFile   = "logs/lobstats.log"

	// HTTP routes
	APIBasePath      = "/server/api"
	AveragesEndpoint = "/server/api/gwp/avg"
	StatsEndpoint    = "/server/api/gwp/stats"
	HealthEndpoint   = "/server/api/health"
	VersionEndpoint  = "/server/api/version"
	MetricsEndpoint  = "/metrics"
)

// Dataset formats accepted in configuration
const (
	FormatAuto = "auto"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)
