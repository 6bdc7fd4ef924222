package commands

import (
	"fmt"
	"time"

	"github.com/fivetwenty-io/masto-client/internal/constants"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewInstanceCommand creates the instance command group.
func NewInstanceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instance",
		Short: "Show information about the current instance",
	}

	cmd.AddCommand(newInstanceAboutCommand())

	return cmd
}

func newInstanceAboutCommand() *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "about",
		Short: "Show the instance's extended description",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			description, err := client.Instance().ExtendedDescription(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get extended description: %w", err)
			}

			return renderOutput(cmd, description, func() error {
				content := stripHTML(description.Content)
				if !full {
					content = truncate(content, constants.AboutDisplayLength)
				}

				table := tablewriter.NewWriter(cmd.OutOrStdout())
				table.Header("Property", "Value")
				_ = table.Append("Updated", description.UpdatedAt.Format(time.RFC3339))
				_ = table.Append("About", valueOrNA(content))

				err := table.Render()
				if err != nil {
					return fmt.Errorf("failed to render table: %w", err)
				}

				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "do not shorten the description")

	return cmd
}
