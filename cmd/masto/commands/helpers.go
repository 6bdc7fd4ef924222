package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/fivetwenty-io/masto-client/internal/constants"
	"github.com/fivetwenty-io/masto-client/pkg/masto"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tidwall/gjson"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

var (
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	headingColor = color.New(color.FgCyan, color.Bold)

	notificationColors = map[masto.NotificationType]*color.Color{
		masto.NotificationMention:       color.New(color.FgCyan),
		masto.NotificationFollow:        color.New(color.FgGreen),
		masto.NotificationFollowRequest: color.New(color.FgGreen),
		masto.NotificationFavourite:     color.New(color.FgYellow),
		masto.NotificationReblog:        color.New(color.FgMagenta),
		masto.NotificationAdminReport:   color.New(color.FgRed),
	}

	titleCaser = cases.Title(language.English)
)

// Setup prepares logging and color output from the global flags.
func Setup() error {
	if viper.GetBool("no-color") || viper.GetBool("no_color") {
		color.NoColor = true
	}

	return SetupLogging()
}

// FormatError renders a command error for the terminal.
func FormatError(err error) string {
	var (
		httpErr    *masto.HTTPError
		timeoutErr *masto.TimeoutError
	)

	prefix := errorColor.Sprint("Error:")

	switch {
	case errors.As(err, &timeoutErr):
		return fmt.Sprintf("%s %v\nThe upload may still finish; check it later with 'masto media get'.", prefix, err)
	case masto.IsUnauthorized(err):
		return fmt.Sprintf("%s %v\nThe token was rejected, run 'masto login' again.", prefix, err)
	case masto.IsRateLimited(err):
		return fmt.Sprintf("%s %v\nRate limit exceeded, try again later.", prefix, err)
	case errors.As(err, &httpErr):
		return fmt.Sprintf("%s %v", prefix, httpErr)
	default:
		return fmt.Sprintf("%s %v", prefix, err)
	}
}

func outputFormat() string {
	output := viper.GetString("output")
	if output == "" {
		return constants.FormatTable
	}

	return output
}

func validateOutputFormat(format string) error {
	switch format {
	case constants.FormatTable, constants.FormatJSON, constants.FormatYAML:
		return nil
	default:
		return fmt.Errorf("%w: %s", constants.ErrInvalidOutputFormat, format)
	}
}

// renderOutput writes data as JSON or YAML, or calls table for table
// output. --field prints a single value from the JSON form instead.
func renderOutput(cmd *cobra.Command, data any, table func() error) error {
	if field := viper.GetString("field"); field != "" {
		return printField(cmd, data, field)
	}

	out := cmd.OutOrStdout()

	switch format := outputFormat(); format {
	case constants.FormatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", strings.Repeat(" ", constants.JSONIndentSize))

		return encoder.Encode(data)
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(constants.JSONIndentSize)

		err := encoder.Encode(data)
		if err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}

		return encoder.Close()
	case constants.FormatTable:
		return table()
	default:
		return fmt.Errorf("%w: %s", constants.ErrInvalidOutputFormat, format)
	}
}

func printField(cmd *cobra.Command, data any, path string) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	result := gjson.GetBytes(raw, path)
	if !result.Exists() {
		return fmt.Errorf("%w: %s", constants.ErrFieldNotFound, path)
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), result.String())

	return nil
}

func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}

	if len(secret) <= constants.StringTruncationLimit {
		return constants.MaskedSecret
	}

	return secret[:constants.StringTruncationLimit] + constants.MaskedSecret
}

func valueOrNA(value string) string {
	if value == "" {
		return constants.NotAvailable
	}

	return value
}

func stringOrNA(value *string) string {
	if value == nil {
		return constants.NotAvailable
	}

	return valueOrNA(*value)
}

func truncate(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	return string(runes[:limit-3]) + "..."
}

// stripHTML removes tags from status content for table display.
func stripHTML(s string) string {
	var b strings.Builder

	inTag := false

	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false

			b.WriteRune(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}

	return b.String()
}

func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}

	return result
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case constants.BooleanTrue, "yes", "1":
		return true, nil
	case constants.BooleanFalse, "no", "0":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s", constants.ErrInvalidBoolean, value)
	}
}

// parseFocus parses "x,y" with both coordinates in [-1, 1].
func parseFocus(value string) (*masto.Focus, error) {
	parts := strings.Split(value, ",")
	if len(parts) != constants.FocusParts {
		return nil, fmt.Errorf("%w: %s", constants.ErrInvalidFocus, value)
	}

	coords := make([]float64, constants.FocusParts)

	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || f < -1 || f > 1 {
			return nil, fmt.Errorf("%w: %s", constants.ErrInvalidFocus, value)
		}

		coords[i] = f
	}

	return &masto.Focus{X: coords[0], Y: coords[1]}, nil
}

func notificationTypes(values []string) []masto.NotificationType {
	types := make([]masto.NotificationType, 0, len(values))
	for _, v := range values {
		types = append(types, masto.NotificationType(v))
	}

	return types
}

// formatNotificationType title-cases and colors a notification type.
func formatNotificationType(t masto.NotificationType) string {
	label := titleCaser.String(strings.NewReplacer("_", " ", ".", " ").Replace(string(t)))

	if c, ok := notificationColors[t]; ok {
		return c.Sprint(label)
	}

	return label
}
