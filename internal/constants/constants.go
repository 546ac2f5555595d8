package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations such as best-effort logout.
	ShortHTTPTimeout = 10 * time.Second

	// NATSConnectTimeout bounds the cache backend connection.
	NATSConnectTimeout = 5 * time.Second
)

// Retry limits.
const (
	// DefaultRetryWaitMin is the minimum wait between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Pagination.
const (
	// DefaultPageSize is the default number of posts per page.
	DefaultPageSize = 10

	// FirstPage is the first page number.
	FirstPage = 1
)

// Format constants.
const (
	// FormatTable for table output format.
	FormatTable = "table"

	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"
)

// Cache settings.
const (
	// DefaultCacheSize is the default cache size limit.
	DefaultCacheSize = 1000

	// DefaultCategoryTTL is how long categories stay cached.
	DefaultCategoryTTL = 5 * time.Minute

	// DefaultNATSBucket is the KV bucket used when none is configured.
	DefaultNATSBucket = "blogctl-cache"

	// CategoriesCacheKey is the cache key for the category list.
	CategoriesCacheKey = "categories"
)

// Identification.
const (
	// DefaultUserAgent is sent when no override is configured.
	DefaultUserAgent = "blog-client/1.0"

	// ConfigDirName is the directory under $HOME holding the CLI config.
	ConfigDirName = ".blogctl"

	// EnvPrefix is the prefix for environment overrides.
	EnvPrefix = "BLOGCTL"
)

// Display.
const (
	// DateFormat is used for dates in tables.
	DateFormat = "2006-01-02"

	// DateTimeFormat is used for timestamps in tables.
	DateTimeFormat = "2006-01-02 15:04:05"

	// ExcerptLength is the number of characters of content shown in lists.
	ExcerptLength = 60
)
