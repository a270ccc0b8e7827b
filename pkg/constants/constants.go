// Package constants provides shared constants for the ratio-dashboard application.
package constants

// Financial constants
const (
	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// RatioTolerance is the tolerance used when comparing derived ratios in tests
	// and validation (half a display unit at two decimals).
	RatioTolerance = 0.005

	// DefaultCurrencySymbol labels monetary inputs when none is configured.
	DefaultCurrencySymbol = "₵"
)

// Default input snapshot used when a configuration does not override it.
const (
	DefaultRevenue            = 100000.0
	DefaultCOGS               = 40000.0
	DefaultNetIncome          = 20000.0
	DefaultTotalAssets        = 50000.0
	DefaultCurrentAssets      = 30000.0
	DefaultInventory          = 5000.0
	DefaultCurrentLiabilities = 15000.0
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON emits the inputs and ratios as one JSON document
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix is the prefix for environment variable overrides (RATIO_INPUTS_REVENUE).
	EnvPrefix = "RATIO"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the web UI
	DefaultServerAddress = ":8080"

	// DefaultMaxRequestSizeBytes is the default maximum JSON request body size (64 KB)
	DefaultMaxRequestSizeBytes int64 = 64 * 1024

	// DefaultSessionTTL is how long an idle dashboard session is kept.
	DefaultSessionTTL = "12h"

	// DefaultMaxSessions bounds how many dashboard sessions are kept in memory.
	DefaultMaxSessions = 10000

	// SessionCookieName is the cookie carrying the dashboard session id.
	SessionCookieName = "ratio_session"
)
