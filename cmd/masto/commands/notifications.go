package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/fivetwenty-io/masto-client/internal/constants"
	"github.com/fivetwenty-io/masto-client/pkg/masto"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// pageOptions are the paging flags shared by list commands.
type pageOptions struct {
	maxID    string
	sinceID  string
	minID    string
	limit    int
	maxPages int
	all      bool
	newer    bool
}

func (o *pageOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.maxID, "max-id", "", "return results older than this ID")
	cmd.Flags().StringVar(&o.sinceID, "since-id", "", "return results newer than this ID")
	cmd.Flags().StringVar(&o.minID, "min-id", "", "return results immediately newer than this ID")
	cmd.Flags().IntVar(&o.limit, "limit", constants.DefaultPageSize, "items per page")
	cmd.Flags().IntVar(&o.maxPages, "max-pages", 1, "number of pages to fetch")
	cmd.Flags().BoolVar(&o.all, "all", false, fmt.Sprintf("fetch all pages (up to %d)", constants.MaxPages))
	cmd.Flags().BoolVar(&o.newer, "newer", false, "page towards newer items instead of older ones")
}

func (o *pageOptions) params() masto.PaginationParams {
	return masto.PaginationParams{
		MaxID:   o.maxID,
		SinceID: o.sinceID,
		MinID:   o.minID,
		Limit:   o.limit,
	}
}

func (o *pageOptions) pages() int {
	if o.all || o.maxPages > constants.MaxPages {
		return constants.MaxPages
	}

	return max(o.maxPages, 1)
}

// collectPages fetches up to maxPages pages in one direction and reports
// whether the paginator advertises more.
func collectPages[T any](ctx context.Context, paginator *masto.Paginator[T], maxPages int, newer bool) ([]T, bool, error) {
	var items []T

	step, more := paginator.Next, paginator.HasNext
	if newer {
		step, more = paginator.Previous, paginator.HasPrevious
	}

	for range maxPages {
		page, err := step(ctx)
		if err != nil {
			return nil, false, err
		}

		if len(page) == 0 {
			return items, false, nil
		}

		items = append(items, page...)

		if !more() {
			return items, false, nil
		}
	}

	return items, more(), nil
}

// NewNotificationsCommand creates the notifications command group.
func NewNotificationsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notification", "notif"},
		Short:   "Manage notifications",
		Long:    "List, view and dismiss notifications, manage the notification policy and filtered requests",
	}

	cmd.AddCommand(newNotificationsListCommand())
	cmd.AddCommand(newNotificationsGetCommand())
	cmd.AddCommand(newNotificationsDismissCommand())
	cmd.AddCommand(newNotificationsClearCommand())
	cmd.AddCommand(newNotificationPolicyCommand())
	cmd.AddCommand(newNotificationRequestsCommand())

	return cmd
}

func newNotificationsListCommand() *cobra.Command {
	var (
		paging       pageOptions
		types        []string
		excludeTypes []string
		accountID    string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications",
		Long:  "List notifications, newest first. Use --max-pages or --all to follow the Link header.",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			paginator := client.Notifications().List(&masto.ListNotificationsParams{
				PaginationParams: paging.params(),
				Types:            notificationTypes(types),
				ExcludeTypes:     notificationTypes(excludeTypes),
				AccountID:        accountID,
			})

			notifications, more, err := collectPages(cmd.Context(), paginator, paging.pages(), paging.newer)
			if err != nil {
				return fmt.Errorf("failed to list notifications: %w", err)
			}

			return renderOutput(cmd, notifications, func() error {
				return renderNotificationsTable(cmd, notifications, more)
			})
		},
	}

	paging.register(cmd)
	cmd.Flags().StringSliceVar(&types, "types", nil, "only include these types (mention, favourite, reblog, follow, ...)")
	cmd.Flags().StringSliceVar(&excludeTypes, "exclude-types", nil, "exclude these types")
	cmd.Flags().StringVar(&accountID, "account-id", "", "only notifications from this account")

	return cmd
}

func renderNotificationsTable(cmd *cobra.Command, notifications []masto.Notification, more bool) error {
	if len(notifications) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No notifications found")

		return nil
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header("ID", "Type", "Account", "Status", "Created")

	for _, n := range notifications {
		_ = table.Append(n.ID, formatNotificationType(n.Type), "@"+n.Account.Acct, statusExcerpt(n.Status), n.CreatedAt.Format(time.DateTime))
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	if more {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), warnColor.Sprint("More notifications available, use --max-pages or --all"))
	}

	return nil
}

func statusExcerpt(status *masto.Status) string {
	if status == nil {
		return ""
	}

	return truncate(stripHTML(status.Content), constants.ContentDisplayLength)
}

func newNotificationsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Get a notification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			notification, err := client.Notifications().Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get notification: %w", err)
			}

			return renderOutput(cmd, notification, func() error {
				table := tablewriter.NewWriter(cmd.OutOrStdout())
				table.Header("Property", "Value")
				_ = table.Append("ID", notification.ID)
				_ = table.Append("Type", formatNotificationType(notification.Type))
				_ = table.Append("Account", "@"+notification.Account.Acct)
				_ = table.Append("Created", notification.CreatedAt.Format(time.RFC3339))

				if notification.Status != nil {
					_ = table.Append("Status ID", notification.Status.ID)
					_ = table.Append("Status", statusExcerpt(notification.Status))
				}

				if notification.GroupKey != "" {
					_ = table.Append("Group", notification.GroupKey)
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

func newNotificationsDismissCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss ID",
		Short: "Dismiss a notification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			err = client.Notifications().Dismiss(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to dismiss notification: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Notification %s dismissed\n", args[0])

			return nil
		},
	}
}

func newNotificationsClearCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Dismiss all notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return constants.ErrForceRequired
			}

			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			err = client.Notifications().Clear(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to clear notifications: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "All notifications cleared")

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "confirm clearing all notifications")

	return cmd
}
