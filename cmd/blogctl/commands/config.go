package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/blog-client/internal/constants"
	"github.com/fivetwenty-io/blog-client/pkg/blog"
)

const maskedToken = "********"

// Config represents the CLI configuration file.
type Config struct {
	APIURL    string        `json:"api_url,omitempty"    yaml:"api_url,omitempty"`
	Output    string        `json:"output"               yaml:"output"`
	PageSize  int           `json:"page_size,omitempty"  yaml:"page_size,omitempty"`
	RetryMax  int           `json:"retry_max,omitempty"  yaml:"retry_max,omitempty"`
	RateLimit float64       `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`
	Timeout   time.Duration `json:"timeout,omitempty"    yaml:"timeout,omitempty"`
	Cache     CacheSettings `json:"cache"                yaml:"cache"`

	// Session written by login and cleared by logout.
	Token          string     `json:"token,omitempty"            yaml:"token,omitempty"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty" yaml:"token_expires_at,omitempty"`
	User           *blog.User `json:"user,omitempty"             yaml:"user,omitempty"`
}

// CacheSettings selects the category cache backend.
type CacheSettings struct {
	Type    string        `json:"type,omitempty"     yaml:"type,omitempty"`
	NATSURL string        `json:"nats_url,omitempty" yaml:"nats_url,omitempty"`
	Bucket  string        `json:"bucket,omitempty"   yaml:"bucket,omitempty"`
	TTL     time.Duration `json:"ttl,omitempty"      yaml:"ttl,omitempty"`
}

// StoredSession returns the persisted credential, or nil when there is none.
func (c *Config) StoredSession() *blog.StoredSession {
	if c.Token == "" {
		return nil
	}

	stored := &blog.StoredSession{
		Token: c.Token,
		User:  c.User,
	}

	if c.TokenExpiresAt != nil {
		stored.ExpiresAt = *c.TokenExpiresAt
	}

	return stored
}

// CacheConfig translates the cache settings for blog.NewCacheFromConfig.
func (c *Config) CacheConfig() *blog.CacheConfig {
	config := &blog.CacheConfig{
		Type:    blog.CacheType(c.Cache.Type),
		MaxSize: constants.DefaultCacheSize,
	}

	if config.Type == blog.CacheTypeNATS {
		bucket := c.Cache.Bucket
		if bucket == "" {
			bucket = constants.DefaultNATSBucket
		}

		config.NATS = &blog.NATSKVConfig{
			URL:            c.Cache.NATSURL,
			Bucket:         bucket,
			TTL:            c.Cache.TTL,
			ConnectTimeout: constants.NATSConnectTimeout,
		}
	}

	return config
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and change the blogctl configuration file",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the current CLI configuration with the token masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			if config.Token != "" {
				config.Token = maskedToken
			}

			renderer := &OutputRenderer[*Config]{RenderTable: renderConfigTable}

			return renderer.Render(cmd.OutOrStdout(), config, outputFormat())
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration value. Keys: " + strings.Join(configKeys(), ", "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			handler, exists := configSetters()[key]
			if !exists {
				return fmt.Errorf("%w: %s", ErrUnknownConfigKey, key)
			}

			config := loadConfig()

			err := handler(config, value)
			if err != nil {
				return fmt.Errorf("%w for %s: %w", ErrInvalidConfigValue, key, err)
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			viper.Set(key, value)

			return outputConfigUpdateResult(cmd.OutOrStdout(), "Set", key, value)
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Long:  "Reset a configuration value to its default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			handler, exists := configSetters()[key]
			if !exists {
				return fmt.Errorf("%w: %s", ErrUnknownConfigKey, key)
			}

			config := loadConfig()
			reset := ""

			if key == "output" {
				reset = constants.FormatTable
			}

			err := handler(config, reset)
			if err != nil {
				return fmt.Errorf("failed to unset %s: %w", key, err)
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			viper.Set(key, reset)

			return outputConfigUpdateResult(cmd.OutOrStdout(), "Unset", key, "")
		},
	}
}

// configSetters maps every settable key to its parser. An empty value
// resets the key. Session keys are managed by login and logout only.
func configSetters() map[string]func(*Config, string) error {
	return map[string]func(*Config, string) error{
		"api_url": func(c *Config, v string) error {
			c.APIURL = v

			return nil
		},
		"output": func(c *Config, v string) error {
			if !slices.Contains([]string{constants.FormatTable, constants.FormatJSON, constants.FormatYAML}, v) {
				return fmt.Errorf("%q is not one of table, json, yaml", v)
			}

			c.Output = v

			return nil
		},
		"page_size": intSetter(func(c *Config) *int { return &c.PageSize }),
		"retry_max": intSetter(func(c *Config) *int { return &c.RetryMax }),
		"timeout":   durationSetter(func(c *Config) *time.Duration { return &c.Timeout }),
		"cache.ttl": durationSetter(func(c *Config) *time.Duration { return &c.Cache.TTL }),
		"cache.nats_url": func(c *Config, v string) error {
			c.Cache.NATSURL = v

			return nil
		},
		"cache.bucket": func(c *Config, v string) error {
			c.Cache.Bucket = v

			return nil
		},
		"cache.type": func(c *Config, v string) error {
			switch blog.CacheType(v) {
			case "", blog.CacheTypeMemory, blog.CacheTypeNATS, blog.CacheTypeNone:
				c.Cache.Type = v

				return nil
			default:
				return fmt.Errorf("%w: %s", blog.ErrUnsupportedCacheType, v)
			}
		},
		"rate_limit": func(c *Config, v string) error {
			if v == "" {
				c.RateLimit = 0

				return nil
			}

			rate, err := strconv.ParseFloat(v, 64)
			if err != nil || rate < 0 {
				return fmt.Errorf("%q is not a non-negative number", v)
			}

			c.RateLimit = rate

			return nil
		},
	}
}

func intSetter(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		if v == "" {
			*field(c) = 0

			return nil
		}

		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("%q is not a non-negative integer", v)
		}

		*field(c) = n

		return nil
	}
}

func durationSetter(field func(*Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		if v == "" {
			*field(c) = 0

			return nil
		}

		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing duration: %w", err)
		}

		*field(c) = d

		return nil
	}
}

func configKeys() []string {
	keys := make([]string, 0, len(configSetters()))
	for key := range configSetters() {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	return keys
}

func loadConfig() *Config {
	config := &Config{
		APIURL:    viper.GetString("api_url"),
		Output:    viper.GetString("output"),
		PageSize:  viper.GetInt("page_size"),
		RetryMax:  viper.GetInt("retry_max"),
		RateLimit: viper.GetFloat64("rate_limit"),
		Timeout:   viper.GetDuration("timeout"),
		Cache: CacheSettings{
			Type:    viper.GetString("cache.type"),
			NATSURL: viper.GetString("cache.nats_url"),
			Bucket:  viper.GetString("cache.bucket"),
			TTL:     viper.GetDuration("cache.ttl"),
		},
		Token: viper.GetString("token"),
	}

	if config.Output == "" {
		config.Output = constants.FormatTable
	}

	if expiresAt := viper.GetTime("token_expires_at"); !expiresAt.IsZero() {
		config.TokenExpiresAt = &expiresAt
	}

	if username := viper.GetString("user.username"); username != "" {
		config.User = &blog.User{
			ID:       viper.GetString("user.id"),
			Username: username,
		}
	}

	return config
}

func configFilePath() (string, error) {
	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		return configFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, constants.ConfigDirName, "config.yml"), nil
}

func saveConfigStruct(config *Config) error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func renderConfigTable(w io.Writer, config *Config) error {
	table := newTable(w, "Property", "Value")

	rows := [][]string{
		{"API URL", formatConfigValue(config.APIURL)},
		{"Output", config.Output},
		{"Page Size", formatConfigValue(intOrEmpty(config.PageSize))},
		{"Retry Max", strconv.Itoa(config.RetryMax)},
		{"Rate Limit", formatConfigValue(strconv.FormatFloat(config.RateLimit, 'f', -1, 64))},
		{"Timeout", formatConfigValue(durationOrEmpty(config.Timeout))},
		{"Cache Type", formatConfigValue(config.Cache.Type)},
	}

	if config.Cache.Type == string(blog.CacheTypeNATS) {
		rows = append(rows,
			[]string{"NATS URL", formatConfigValue(config.Cache.NATSURL)},
			[]string{"NATS Bucket", formatConfigValue(config.Cache.Bucket)},
		)
	}

	rows = append(rows, []string{"Cache TTL", formatConfigValue(durationOrEmpty(config.Cache.TTL))})

	if config.User != nil {
		rows = append(rows, []string{"User", config.User.Username})
	}

	if config.Token != "" {
		rows = append(rows, []string{"Token", config.Token})
	}

	if config.TokenExpiresAt != nil {
		rows = append(rows, []string{"Token Expires", config.TokenExpiresAt.Local().Format(constants.DateTimeFormat)})
	}

	for _, row := range rows {
		_ = table.Append(row)
	}

	return renderTable(table)
}

func formatConfigValue(value string) string {
	if value == "" || value == "0" {
		return "(not set)"
	}

	return value
}

func intOrEmpty(n int) string {
	if n == 0 {
		return ""
	}

	return strconv.Itoa(n)
}

func durationOrEmpty(d time.Duration) string {
	if d == 0 {
		return ""
	}

	return d.String()
}

func outputConfigUpdateResult(w io.Writer, action, key, value string) error {
	result := map[string]string{
		"action": action,
		"key":    key,
	}

	if value != "" {
		result["value"] = value
	}

	switch outputFormat() {
	case constants.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")

		return encoder.Encode(result)
	case constants.FormatYAML:
		return yaml.NewEncoder(w).Encode(result)
	default:
		table := newTable(w, "Property", "Value")
		_ = table.Append([]string{"Action", action})
		_ = table.Append([]string{"Key", key})

		if value != "" {
			_ = table.Append([]string{"Value", value})
		}

		return renderTable(table)
	}
}
