package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// Configuration locations.
const (
	// ConfigDirName is the directory under $HOME holding the CLI config.
	ConfigDirName = ".masto"

	// ConfigFileName is the CLI config file name without extension.
	ConfigFileName = "config"

	// ConfigFileType is the CLI config file format.
	ConfigFileType = "yml"

	// EnvPrefix prefixes environment overrides (MASTO_INSTANCE_URL, ...).
	EnvPrefix = "MASTO"

	// DotEnvFile is loaded into the environment when present.
	DotEnvFile = ".env"
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations such as token exchange.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry limits. Retries are disabled unless RetryMax is set.
const (
	// DefaultRetryWaitMin is the minimum wait between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Media processing.
const (
	// DefaultMediaTimeout is how long an upload may stay in processing.
	DefaultMediaTimeout = 60 * time.Second

	// DefaultMediaPollInterval is the wait between processing checks.
	DefaultMediaPollInterval = 1 * time.Second

	// MediaCreatePath is the asynchronous upload endpoint.
	MediaCreatePath = "/api/v2/media"

	// MediaFetchPath is where processed attachments are read back.
	MediaFetchPath = "/api/v1/media"

	// MediaCompletionField is null until an upload is processed.
	MediaCompletionField = "url"
)

// Authentication.
const (
	// TokenPath is the instance's OAuth token endpoint.
	TokenPath = "/oauth/token"

	// TokenExpirationBuffer is the buffer time before token expiration.
	TokenExpirationBuffer = 30 * time.Second

	// DefaultScope is requested when no scopes are configured.
	DefaultScope = "read"

	// BearerTokenType is the token type Mastodon issues.
	BearerTokenType = "Bearer"
)

// Concurrency limits.
const (
	// DefaultConcurrencyLimit limits concurrent uploads in the CLI.
	DefaultConcurrencyLimit = 3
)

// Pagination and display limits.
const (
	// DefaultPageSize is the default number of items per page.
	DefaultPageSize = 20

	// MaxPages prevents unbounded pagination in the CLI.
	MaxPages = 50

	// DescriptionDisplayLength is the default length for displaying descriptions.
	DescriptionDisplayLength = 60

	// ContentDisplayLength is the length for status excerpts in tables.
	ContentDisplayLength = 50

	// AboutDisplayLength shortens instance descriptions unless --full is set.
	AboutDisplayLength = 320

	// DefaultRateLimitWarnThreshold warns when few requests remain.
	DefaultRateLimitWarnThreshold = 10
)

// Logging.
const (
	// LogMaxSizeMB is the size at which CLI log files rotate.
	LogMaxSizeMB = 10

	// LogMaxBackups is the number of rotated files kept.
	LogMaxBackups = 3

	// LogMaxAgeDays is the age at which rotated files are removed.
	LogMaxAgeDays = 28
)

// Events.
const (
	// DefaultEventSubjectPrefix prefixes NATS action event subjects.
	DefaultEventSubjectPrefix = "masto.actions"

	// EventsDrainTimeout bounds draining the NATS connection on close.
	EventsDrainTimeout = 5 * time.Second
)

// UI and display constants.
const (
	// CheckMarkSymbol is used to indicate current/active items.
	CheckMarkSymbol = "✓"

	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"

	// StringTruncationLimit is the number of characters kept when masking.
	StringTruncationLimit = 4
)

// Format constants.
const (
	// FormatTable for table output format.
	FormatTable = "table"

	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// JSONIndentSize is the number of spaces for JSON indentation.
	JSONIndentSize = 2
)

// Boolean string constants.
const (
	// BooleanTrue string representation.
	BooleanTrue = "true"

	// BooleanFalse string representation.
	BooleanFalse = "false"
)

// Command argument counts.
const (
	// KeyValueSplitParts is the number of parts when splitting key=value strings.
	KeyValueSplitParts = 2

	// FocusParts is the number of coordinates in a focus value.
	FocusParts = 2
)
