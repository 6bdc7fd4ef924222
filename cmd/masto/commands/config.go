package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fivetwenty-io/masto-client/internal/constants"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const instanceKeyPrefix = "instance."

// Config represents the CLI configuration file.
type Config struct {
	Instances       map[string]*InstanceConfig `json:"instances,omitempty"        yaml:"instances,omitempty"`
	CurrentInstance string                     `json:"current_instance,omitempty" yaml:"current_instance,omitempty"`

	// Global settings
	Output  string       `json:"output,omitempty"   yaml:"output,omitempty"`
	NoColor bool         `json:"no_color,omitempty" yaml:"no_color,omitempty"`
	Events  EventsConfig `json:"events"             yaml:"events,omitempty"`
}

// EventsConfig controls publishing of action events.
type EventsConfig struct {
	NATSURL       string `json:"nats_url,omitempty"       yaml:"nats_url,omitempty"`
	SubjectPrefix string `json:"subject_prefix,omitempty" yaml:"subject_prefix,omitempty"`
}

// InstanceConfig represents credentials for a single Mastodon instance.
type InstanceConfig struct {
	URL            string     `json:"url"                        yaml:"url"`
	Token          string     `json:"token,omitempty"            yaml:"token,omitempty"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty" yaml:"token_expires_at,omitempty"`
	RefreshToken   string     `json:"refresh_token,omitempty"    yaml:"refresh_token,omitempty"`
	ClientID       string     `json:"client_id,omitempty"        yaml:"client_id,omitempty"`
	ClientSecret   string     `json:"client_secret,omitempty"    yaml:"client_secret,omitempty"`
	Scopes         []string   `json:"scopes,omitempty"           yaml:"scopes,omitempty"`
	LastRefreshed  *time.Time `json:"last_refreshed,omitempty"   yaml:"last_refreshed,omitempty"`
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Manage masto CLI configuration including output defaults and event publishing",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())
	cmd.AddCommand(newConfigClearCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the current CLI configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			masked := maskedConfig(config)

			return renderOutput(cmd, masked, func() error {
				return displayConfigTable(cmd, masked)
			})
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long: `Set a configuration value.

Global keys: output, no_color, current_instance, events.nats_url,
events.subject_prefix.

Instance keys apply to the current instance (or --instance):
instance.url, instance.token, instance.refresh_token, instance.client_id,
instance.client_secret, instance.scopes (comma separated).`,
		Args: cobra.ExactArgs(constants.KeyValueSplitParts),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			err = setConfigValue(config, args[0], args[1])
			if err != nil {
				return err
			}

			err = saveConfig(config)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", args[0])

			return nil
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Long:  "Remove a configuration value (same keys as 'config set')",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			err = setConfigValue(config, args[0], "")
			if err != nil {
				return err
			}

			err = saveConfig(config)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Unset %s\n", args[0])

			return nil
		},
	}
}

func newConfigClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear configuration",
		Long:  "Remove the configuration file including all saved instances",
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile, err := configFilePath()
			if err != nil {
				return err
			}

			err = os.Remove(configFile)
			if err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove config file: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Cleared all configuration")

			return nil
		},
	}
}

// configFilePath returns the file named by --config, the file viper loaded,
// or ~/.masto/config.yml.
func configFilePath() (string, error) {
	if configFile := viper.GetString("config"); configFile != "" {
		return configFile, nil
	}

	if configFile := viper.ConfigFileUsed(); configFile != "" {
		return configFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, constants.ConfigDirName, constants.ConfigFileName+"."+constants.ConfigFileType), nil
}

// loadConfig reads the configuration file. A missing file yields an empty
// configuration.
func loadConfig() (*Config, error) {
	configFile, err := configFilePath()
	if err != nil {
		return nil, err
	}

	config := &Config{Instances: make(map[string]*InstanceConfig)}

	// configFile comes from the user's own flag or home directory
	// #nosec G304
	data, err := os.ReadFile(configFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config, nil
		}

		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
	}

	if config.Instances == nil {
		config.Instances = make(map[string]*InstanceConfig)
	}

	return config, nil
}

func saveConfig(config *Config) error {
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
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

//nolint:cyclop
func setConfigValue(config *Config, key, value string) error {
	if field, ok := strings.CutPrefix(key, instanceKeyPrefix); ok {
		name, instance, err := selectedInstance(config)
		if err != nil {
			return err
		}

		if instance == nil {
			return fmt.Errorf("instance '%s': %w", name, constants.ErrInstanceNotFound)
		}

		return setInstanceValue(instance, field, value)
	}

	switch key {
	case "output":
		if value != "" {
			err := validateOutputFormat(value)
			if err != nil {
				return err
			}
		}

		config.Output = value
	case "no_color":
		if value == "" {
			config.NoColor = false

			return nil
		}

		b, err := parseBool(value)
		if err != nil {
			return err
		}

		config.NoColor = b
	case "current_instance":
		if value != "" {
			if _, exists := config.Instances[value]; !exists {
				return fmt.Errorf("instance '%s': %w", value, constants.ErrInstanceNotFound)
			}
		}

		config.CurrentInstance = value
	case "events.nats_url":
		config.Events.NATSURL = value
	case "events.subject_prefix":
		config.Events.SubjectPrefix = value
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	return nil
}

func setInstanceValue(instance *InstanceConfig, field, value string) error {
	switch field {
	case "url":
		instance.URL = value
	case "token":
		instance.Token = value
		instance.TokenExpiresAt = nil
	case "refresh_token":
		instance.RefreshToken = value
	case "client_id":
		instance.ClientID = value
	case "client_secret":
		instance.ClientSecret = value
	case "scopes":
		instance.Scopes = splitList(value)
	default:
		return fmt.Errorf("%w: %s%s", constants.ErrUnknownConfigKey, instanceKeyPrefix, field)
	}

	return nil
}

// selectedInstance returns the instance named by --instance, else the
// current instance. instance is nil when the name is unknown.
func selectedInstance(config *Config) (string, *InstanceConfig, error) {
	name := viper.GetString("instance")
	if name == "" {
		name = config.CurrentInstance
	}

	if name == "" {
		if len(config.Instances) == 0 {
			return "", nil, constants.ErrNoInstancesConfigured
		}

		return "", nil, constants.ErrNoInstanceURL
	}

	return name, config.Instances[name], nil
}

func maskedConfig(config *Config) *Config {
	masked := *config
	masked.Instances = make(map[string]*InstanceConfig, len(config.Instances))

	for name, instance := range config.Instances {
		copied := *instance
		copied.Token = maskSecret(copied.Token)
		copied.RefreshToken = maskSecret(copied.RefreshToken)
		copied.ClientSecret = maskSecret(copied.ClientSecret)
		masked.Instances[name] = &copied
	}

	return &masked
}

func displayConfigTable(cmd *cobra.Command, config *Config) error {
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header("Property", "Value")

	_ = table.Append("Current Instance", valueOrNA(config.CurrentInstance))
	_ = table.Append("Output", valueOrNA(config.Output))
	_ = table.Append("No Color", strconv.FormatBool(config.NoColor))
	_ = table.Append("NATS URL", valueOrNA(config.Events.NATSURL))
	_ = table.Append("Event Subject Prefix", valueOrNA(config.Events.SubjectPrefix))

	names := make([]string, 0, len(config.Instances))
	for name := range config.Instances {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		instance := config.Instances[name]
		_ = table.Append("Instance "+name, instance.URL)
		_ = table.Append("  Token", valueOrNA(instance.Token))

		if instance.TokenExpiresAt != nil {
			_ = table.Append("  Token Expires", instance.TokenExpiresAt.Format(time.RFC3339))
		}
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}
