package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fivetwenty-io/masto-client/internal/constants"
	"github.com/fivetwenty-io/masto-client/pkg/mastoclient"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// InstanceInfo is the list view of a saved instance.
type InstanceInfo struct {
	Name          string `json:"name"                    yaml:"name"`
	URL           string `json:"url"                     yaml:"url"`
	Authenticated bool   `json:"authenticated"           yaml:"authenticated"`
	Scopes        string `json:"scopes,omitempty"        yaml:"scopes,omitempty"`
	Current       bool   `json:"current"                 yaml:"current"`
	TokenExpires  string `json:"token_expires,omitempty" yaml:"token_expires,omitempty"`
}

// NewInstancesCommand creates the instances command group.
func NewInstancesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instances",
		Short: "Manage saved Mastodon instances",
		Long:  "Add, list, remove, and select saved Mastodon instances",
	}

	cmd.AddCommand(newInstancesAddCommand())
	cmd.AddCommand(newInstancesUseCommand())
	cmd.AddCommand(newInstancesListCommand())
	cmd.AddCommand(newInstancesRemoveCommand())

	return cmd
}

func newInstancesAddCommand() *cobra.Command {
	var scopes string

	cmd := &cobra.Command{
		Use:   "add NAME URL",
		Short: "Add a Mastodon instance",
		Long:  "Save a Mastodon instance under NAME. The first instance added becomes current.",
		Args:  cobra.ExactArgs(constants.KeyValueSplitParts),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			instanceURL, err := mastoclient.NormalizeInstanceURL(args[1])
			if err != nil {
				return fmt.Errorf("invalid instance URL: %w", err)
			}

			config, err := loadConfig()
			if err != nil {
				return err
			}

			if _, exists := config.Instances[name]; exists {
				return fmt.Errorf("instance '%s': %w", name, constants.ErrInstanceExists)
			}

			config.Instances[name] = &InstanceConfig{
				URL:    instanceURL,
				Scopes: splitList(scopes),
			}

			message := fmt.Sprintf("Instance '%s' (%s) added", name, instanceURL)

			if config.CurrentInstance == "" {
				config.CurrentInstance = name
				message += " and set as current"
			}

			err = saveConfig(config)
			if err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), successColor.Sprint(message))

			return nil
		},
	}

	cmd.Flags().StringVar(&scopes, "scopes", "", "comma separated OAuth scopes to request at login")

	return cmd
}

func newInstancesUseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "use NAME",
		Short: "Select the current instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			name := args[0]
			if _, exists := config.Instances[name]; !exists {
				return fmt.Errorf("instance '%s': %w", name, constants.ErrInstanceNotFound)
			}

			config.CurrentInstance = name

			err = saveConfig(config)
			if err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Now using instance '%s'\n", name)

			return nil
		},
	}
}

func newInstancesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved instances",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			if len(config.Instances) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No instances configured. Use 'masto instances add' to add one.")

				return nil
			}

			infos := instanceInfos(config)

			return renderOutput(cmd, infos, func() error {
				table := tablewriter.NewWriter(cmd.OutOrStdout())
				table.Header("", "Name", "URL", "Authenticated", "Scopes", "Token Expires")

				for _, info := range infos {
					current := ""
					if info.Current {
						current = constants.CheckMarkSymbol
					}

					_ = table.Append(current, info.Name, info.URL, yesNo(info.Authenticated), valueOrNA(info.Scopes), valueOrNA(info.TokenExpires))
				}

				err := table.Render()
				if err != nil {
					return fmt.Errorf("failed to render table: %w", err)
				}

				return nil
			})
		},
	}
}

func newInstancesRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove NAME",
		Aliases: []string{"rm", "delete"},
		Short:   "Remove a saved instance",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			name := args[0]
			if _, exists := config.Instances[name]; !exists {
				return fmt.Errorf("instance '%s': %w", name, constants.ErrInstanceNotFound)
			}

			delete(config.Instances, name)

			if config.CurrentInstance == name {
				config.CurrentInstance = ""
			}

			err = saveConfig(config)
			if err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Instance '%s' removed\n", name)

			if config.CurrentInstance == "" && len(config.Instances) > 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), warnColor.Sprint("No current instance, select one with 'masto instances use'"))
			}

			return nil
		},
	}
}

func instanceInfos(config *Config) []InstanceInfo {
	names := make([]string, 0, len(config.Instances))
	for name := range config.Instances {
		names = append(names, name)
	}

	sort.Strings(names)

	infos := make([]InstanceInfo, 0, len(names))

	for _, name := range names {
		instance := config.Instances[name]

		info := InstanceInfo{
			Name:          name,
			URL:           instance.URL,
			Authenticated: instance.Token != "",
			Scopes:        strings.Join(instance.Scopes, ","),
			Current:       name == config.CurrentInstance,
		}

		if instance.TokenExpiresAt != nil {
			info.TokenExpires = instance.TokenExpiresAt.Format("2006-01-02 15:04")
		}

		infos = append(infos, info)
	}

	return infos
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}

	return "no"
}
