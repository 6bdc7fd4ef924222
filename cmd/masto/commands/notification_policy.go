package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fivetwenty-io/masto-client/internal/constants"
	"github.com/fivetwenty-io/masto-client/pkg/masto"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newNotificationPolicyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Manage the notification filtering policy",
	}

	cmd.AddCommand(newNotificationPolicyGetCommand())
	cmd.AddCommand(newNotificationPolicyUpdateCommand())

	return cmd
}

func newNotificationPolicyGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show the notification policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			policy, err := client.Notifications().Policy().Get(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get notification policy: %w", err)
			}

			return renderOutput(cmd, policy, func() error {
				return renderPolicyTable(cmd, policy)
			})
		},
	}
}

// policyFlags maps flag names onto the policy fields they set.
var policyFlags = []struct {
	name  string
	usage string
	field func(*masto.UpdateNotificationPolicyParams) **bool
}{
	{"filter-not-following", "filter notifications from accounts you don't follow", func(p *masto.UpdateNotificationPolicyParams) **bool { return &p.FilterNotFollowing }},
	{"filter-not-followers", "filter notifications from accounts that don't follow you", func(p *masto.UpdateNotificationPolicyParams) **bool { return &p.FilterNotFollowers }},
	{"filter-new-accounts", "filter notifications from accounts created recently", func(p *masto.UpdateNotificationPolicyParams) **bool { return &p.FilterNewAccounts }},
	{"filter-private-mentions", "filter unsolicited private mentions", func(p *masto.UpdateNotificationPolicyParams) **bool { return &p.FilterPrivateMentions }},
}

func newNotificationPolicyUpdateCommand() *cobra.Command {
	values := make(map[string]*string, len(policyFlags))

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update the notification policy",
		Long:  "Change one or more filters. Each flag takes true or false; unset flags are left unchanged.",
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := policyParams(cmd, values)
			if err != nil {
				return err
			}

			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			policy, err := client.Notifications().Policy().Update(cmd.Context(), params)
			if err != nil {
				return fmt.Errorf("failed to update notification policy: %w", err)
			}

			return renderOutput(cmd, policy, func() error {
				return renderPolicyTable(cmd, policy)
			})
		},
	}

	for _, flag := range policyFlags {
		values[flag.name] = cmd.Flags().String(flag.name, "", flag.usage+" (true|false)")
	}

	return cmd
}

func policyParams(cmd *cobra.Command, values map[string]*string) (*masto.UpdateNotificationPolicyParams, error) {
	params := &masto.UpdateNotificationPolicyParams{}
	changed := false

	for _, flag := range policyFlags {
		if !cmd.Flags().Changed(flag.name) {
			continue
		}

		b, err := parseBool(*values[flag.name])
		if err != nil {
			return nil, fmt.Errorf("--%s: %w", flag.name, err)
		}

		*flag.field(params) = &b
		changed = true
	}

	if !changed {
		return nil, constants.ErrNothingToUpdate
	}

	return params, nil
}

func renderPolicyTable(cmd *cobra.Command, policy *masto.NotificationPolicy) error {
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header("Filter", "Enabled")
	_ = table.Append("Not following", strconv.FormatBool(policy.FilterNotFollowing))
	_ = table.Append("Not followers", strconv.FormatBool(policy.FilterNotFollowers))
	_ = table.Append("New accounts", strconv.FormatBool(policy.FilterNewAccounts))
	_ = table.Append("Private mentions", strconv.FormatBool(policy.FilterPrivateMentions))
	_ = table.Append("Pending requests", strconv.Itoa(policy.Summary.PendingRequestsCount))
	_ = table.Append("Pending notifications", strconv.Itoa(policy.Summary.PendingNotificationsCount))

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func newNotificationRequestsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "requests",
		Aliases: []string{"request"},
		Short:   "Manage filtered notification requests",
	}

	cmd.AddCommand(newNotificationRequestsListCommand())
	cmd.AddCommand(newNotificationRequestsGetCommand())
	cmd.AddCommand(newNotificationRequestActionCommand("accept", "Accept a notification request", "accepted",
		func(c masto.NotificationRequestsClient) func(*cobra.Command, string) error {
			return func(cmd *cobra.Command, id string) error { return c.Accept(cmd.Context(), id) }
		}))
	cmd.AddCommand(newNotificationRequestActionCommand("dismiss", "Dismiss a notification request", "dismissed",
		func(c masto.NotificationRequestsClient) func(*cobra.Command, string) error {
			return func(cmd *cobra.Command, id string) error { return c.Dismiss(cmd.Context(), id) }
		}))

	return cmd
}

func newNotificationRequestsListCommand() *cobra.Command {
	var paging pageOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List filtered notification requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			params := paging.params()
			paginator := client.Notifications().Requests().List(&params)

			requests, more, err := collectPages(cmd.Context(), paginator, paging.pages(), paging.newer)
			if err != nil {
				return fmt.Errorf("failed to list notification requests: %w", err)
			}

			return renderOutput(cmd, requests, func() error {
				if len(requests) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No notification requests found")

					return nil
				}

				table := tablewriter.NewWriter(cmd.OutOrStdout())
				table.Header("ID", "Account", "Notifications", "Last Status", "Updated")

				for _, r := range requests {
					_ = table.Append(r.ID, "@"+r.Account.Acct, r.NotificationsCount, statusExcerpt(r.LastStatus), r.UpdatedAt.Format(time.DateTime))
				}

				err := table.Render()
				if err != nil {
					return fmt.Errorf("failed to render table: %w", err)
				}

				if more {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), warnColor.Sprint("More requests available, use --max-pages or --all"))
				}

				return nil
			})
		},
	}

	paging.register(cmd)

	return cmd
}

func newNotificationRequestsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Get a notification request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			request, err := client.Notifications().Requests().Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get notification request: %w", err)
			}

			return renderOutput(cmd, request, func() error {
				table := tablewriter.NewWriter(cmd.OutOrStdout())
				table.Header("Property", "Value")
				_ = table.Append("ID", request.ID)
				_ = table.Append("Account", "@"+request.Account.Acct)
				_ = table.Append("Notifications", request.NotificationsCount)
				_ = table.Append("Created", request.CreatedAt.Format(time.RFC3339))
				_ = table.Append("Updated", request.UpdatedAt.Format(time.RFC3339))

				if request.LastStatus != nil {
					_ = table.Append("Last Status", statusExcerpt(request.LastStatus))
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

func newNotificationRequestActionCommand(
	use, short, pastTense string,
	action func(masto.NotificationRequestsClient) func(*cobra.Command, string) error,
) *cobra.Command {
	return &cobra.Command{
		Use:   use + " ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			err = action(client.Notifications().Requests())(cmd, args[0])
			if err != nil {
				return fmt.Errorf("failed to %s notification request: %w", use, err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Notification request %s %s\n", args[0], pastTense)

			return nil
		},
	}
}
