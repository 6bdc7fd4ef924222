package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fivetwenty-io/masto-client/internal/constants"
	"github.com/fivetwenty-io/masto-client/pkg/masto"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// UploadResult is the outcome of uploading one file.
type UploadResult struct {
	File  string                 `json:"file"            yaml:"file"`
	Media *masto.MediaAttachment `json:"media,omitempty" yaml:"media,omitempty"`
	Error string                 `json:"error,omitempty" yaml:"error,omitempty"`

	err error
}

type uploadOptions struct {
	description  string
	focus        string
	mediaTimeout time.Duration
	concurrency  int
}

// NewMediaCommand creates the media command group.
func NewMediaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "media",
		Short: "Manage media attachments",
		Long:  "Upload media attachments and wait for processing, view and update them",
	}

	cmd.AddCommand(newMediaUploadCommand())
	cmd.AddCommand(newMediaGetCommand())
	cmd.AddCommand(newMediaUpdateCommand())

	return cmd
}

func newMediaUploadCommand() *cobra.Command {
	opts := &uploadOptions{}

	cmd := &cobra.Command{
		Use:   "upload FILE...",
		Short: "Upload media files",
		Long: `Upload one or more files and wait until the instance has processed them.

Files are uploaded concurrently. A file still processing after
--media-timeout is reported as failed; it may finish later.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var focus *masto.Focus

			if opts.focus != "" {
				parsed, err := parseFocus(opts.focus)
				if err != nil {
					return err
				}

				focus = parsed
			}

			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			results := uploadFiles(cmd.Context(), client.Media(), args, focus, opts)

			err = renderOutput(cmd, results, func() error {
				return renderUploadTable(cmd, results)
			})
			if err != nil {
				return err
			}

			return uploadErrors(results)
		},
	}

	cmd.Flags().StringVar(&opts.description, "description", "", "alt text for every uploaded file")
	cmd.Flags().StringVar(&opts.focus, "focus", "", "focal point as x,y in [-1, 1]")
	cmd.Flags().DurationVar(&opts.mediaTimeout, "media-timeout", constants.DefaultMediaTimeout, "how long to wait for processing")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", constants.DefaultConcurrencyLimit, "number of concurrent uploads")

	return cmd
}

// uploadFiles uploads every file, at most opts.concurrency at a time.
// Results keep the order of files.
func uploadFiles(ctx context.Context, media masto.MediaClient, files []string, focus *masto.Focus, opts *uploadOptions) []UploadResult {
	if ctx == nil {
		ctx = context.Background()
	}

	results := make([]UploadResult, len(files))

	var group errgroup.Group

	group.SetLimit(max(opts.concurrency, 1))

	for i, path := range files {
		group.Go(func() error {
			results[i] = uploadFile(ctx, media, path, focus, opts)

			return nil
		})
	}

	_ = group.Wait()

	return results
}

func uploadFile(ctx context.Context, media masto.MediaClient, path string, focus *masto.Focus, opts *uploadOptions) UploadResult {
	result := UploadResult{File: path}

	// path is a file the user named on the command line
	// #nosec G304
	file, err := os.Open(path)
	if err != nil {
		return failedUpload(result, err)
	}
	defer file.Close()

	attachment, err := media.Create(ctx, &masto.CreateMediaParams{
		File:        file,
		FileName:    filepath.Base(path),
		Description: opts.description,
		Focus:       focus,
	}, masto.WithMediaTimeout(opts.mediaTimeout), masto.WithNewIdempotencyKey())
	if err != nil {
		return failedUpload(result, err)
	}

	result.Media = attachment

	return result
}

func failedUpload(result UploadResult, err error) UploadResult {
	result.Error = err.Error()
	result.err = err

	return result
}

func uploadErrors(results []UploadResult) error {
	var errs []error

	for _, result := range results {
		if result.err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", result.File, result.err))
		}
	}

	return errors.Join(errs...)
}

func renderUploadTable(cmd *cobra.Command, results []UploadResult) error {
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header("File", "ID", "Type", "URL", "Status")

	for _, result := range results {
		if result.Media == nil {
			_ = table.Append(result.File, constants.NotAvailable, constants.NotAvailable, constants.NotAvailable, errorColor.Sprint("failed"))

			continue
		}

		_ = table.Append(result.File, result.Media.ID, string(result.Media.Type), stringOrNA(result.Media.URL), successColor.Sprint("processed"))
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func newMediaGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Get a media attachment",
		Long:  "Display a media attachment. Attachments still processing are reported as not found by the instance.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			attachment, err := client.Media().Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get media attachment: %w", err)
			}

			return renderOutput(cmd, attachment, func() error {
				return renderMediaTable(cmd, attachment)
			})
		},
	}
}

func newMediaUpdateCommand() *cobra.Command {
	var description, focus string

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a media attachment",
		Long:  "Change the alt text or focal point of a media attachment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := &masto.UpdateMediaParams{}

			if cmd.Flags().Changed("description") {
				params.Description = &description
			}

			if focus != "" {
				parsed, err := parseFocus(focus)
				if err != nil {
					return err
				}

				value := parsed.String()
				params.Focus = &value
			}

			if params.Description == nil && params.Focus == nil {
				return constants.ErrNothingToUpdate
			}

			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			attachment, err := client.Media().Update(cmd.Context(), args[0], params)
			if err != nil {
				return fmt.Errorf("failed to update media attachment: %w", err)
			}

			return renderOutput(cmd, attachment, func() error {
				return renderMediaTable(cmd, attachment)
			})
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "new alt text")
	cmd.Flags().StringVar(&focus, "focus", "", "new focal point as x,y in [-1, 1]")

	return cmd
}

func renderMediaTable(cmd *cobra.Command, attachment *masto.MediaAttachment) error {
	status := warnColor.Sprint("processing")
	if attachment.Processed() {
		status = successColor.Sprint("processed")
	}

	description := constants.NotAvailable
	if attachment.Description != nil && *attachment.Description != "" {
		description = truncate(*attachment.Description, constants.DescriptionDisplayLength)
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header("Property", "Value")
	_ = table.Append("ID", attachment.ID)
	_ = table.Append("Type", string(attachment.Type))
	_ = table.Append("Status", status)
	_ = table.Append("URL", stringOrNA(attachment.URL))
	_ = table.Append("Preview URL", stringOrNA(attachment.PreviewURL))
	_ = table.Append("Description", description)

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}
