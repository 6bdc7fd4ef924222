package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/fivetwenty-io/masto-client/internal/auth"
	"github.com/fivetwenty-io/masto-client/internal/constants"
	"github.com/fivetwenty-io/masto-client/pkg/masto"
	"github.com/fivetwenty-io/masto-client/pkg/mastoclient"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tidwall/gjson"
	"golang.org/x/term"
)

const verifyAppCredentialsPath = "/api/v1/apps/verify_credentials"

type loginOptions struct {
	clientID     string
	clientSecret string
	scopes       string
}

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	opts := &loginOptions{}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with a Mastodon instance",
		Long: `Save credentials for the current instance (or --instance).

With --client-id and --client-secret an app token is obtained through the
client_credentials grant. Otherwise the access token is taken from --token
or prompted for. The token is verified before it is saved.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.clientID, "client-id", "", "OAuth application client ID")
	cmd.Flags().StringVar(&opts.clientSecret, "client-secret", "", "OAuth application client secret")
	cmd.Flags().StringVar(&opts.scopes, "scopes", "", "comma separated scopes for the client credentials grant")

	return cmd
}

//nolint:funlen
func runLogin(cmd *cobra.Command, opts *loginOptions) error {
	if opts.clientSecret != "" && opts.clientID == "" {
		return constants.ErrNoCredentials
	}

	if opts.clientID != "" && opts.clientSecret == "" {
		return constants.ErrNoClientSecret
	}

	config, err := loadConfig()
	if err != nil {
		return err
	}

	name, instance, err := loginTarget(config)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		token     string
		expiresAt *time.Time
	)

	if opts.clientID != "" {
		scopes := splitList(opts.scopes)
		if len(scopes) == 0 {
			scopes = instance.Scopes
		}

		token, expiresAt, err = clientCredentialsToken(ctx, instance.URL, opts.clientID, opts.clientSecret, scopes)
		if err != nil {
			return err
		}

		instance.ClientID = opts.clientID
		instance.ClientSecret = opts.clientSecret
		instance.Scopes = scopes
	} else {
		token, err = readToken(cmd)
		if err != nil {
			return err
		}
	}

	appName, err := verifyToken(ctx, instance.URL, token)
	if err != nil {
		return fmt.Errorf("failed to verify token: %w", err)
	}

	now := time.Now()
	instance.Token = token
	instance.TokenExpiresAt = expiresAt
	instance.RefreshToken = ""
	instance.LastRefreshed = &now
	config.Instances[name] = instance

	if config.CurrentInstance == "" {
		config.CurrentInstance = name
	}

	err = saveConfig(config)
	if err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s Logged in to %s (%s) as %s\n",
		successColor.Sprint(constants.CheckMarkSymbol), name, instance.URL, headingColor.Sprint(valueOrNA(appName)))

	return nil
}

// loginTarget returns the saved instance to log in to. An unsaved URL from
// --instance is saved under its host name.
func loginTarget(config *Config) (string, *InstanceConfig, error) {
	resolved, err := resolveInstance(config)
	if err != nil {
		return "", nil, err
	}

	if resolved.name != "" {
		instance := resolved.config

		return resolved.name, &instance, nil
	}

	instanceURL, err := mastoclient.NormalizeInstanceURL(resolved.config.URL)
	if err != nil {
		return "", nil, err
	}

	parsed, err := url.Parse(instanceURL)
	if err != nil || parsed.Host == "" {
		return "", nil, fmt.Errorf("invalid instance URL %q: %w", resolved.config.URL, constants.ErrNoInstanceURL)
	}

	if existing, exists := config.Instances[parsed.Host]; exists {
		instance := *existing

		return parsed.Host, &instance, nil
	}

	return parsed.Host, &InstanceConfig{URL: instanceURL}, nil
}

// readToken takes the token from --token, prompts without echo on a
// terminal, or reads a line from stdin.
func readToken(cmd *cobra.Command) (string, error) {
	if token := viper.GetString("token"); token != "" {
		return token, nil
	}

	var token string

	if file, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), "Access token: ")

		raw, err := term.ReadPassword(int(file.Fd()))

		_, _ = fmt.Fprintln(cmd.ErrOrStderr())

		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}

		token = string(raw)
	} else {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read token: %w", err)
		}

		token = line
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", constants.ErrEmptyToken
	}

	return token, nil
}

func clientCredentialsToken(ctx context.Context, instanceURL, clientID, clientSecret string, scopes []string) (string, *time.Time, error) {
	normalized, err := mastoclient.NormalizeInstanceURL(instanceURL)
	if err != nil {
		return "", nil, err
	}

	manager := auth.NewInstanceTokenManager(normalized, clientID, clientSecret, scopes...)

	token, err := manager.GetToken(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("client credentials grant failed: %w", err)
	}

	if token == "" {
		return "", nil, constants.ErrNoTokenInResponse
	}

	var expiresAt *time.Time
	if current := manager.CurrentToken(); current != nil && !current.ExpiresAt.IsZero() {
		expiry := current.ExpiresAt
		expiresAt = &expiry
	}

	return token, expiresAt, nil
}

// verifyToken checks the token against the instance and returns the name
// of the application it belongs to.
func verifyToken(ctx context.Context, instanceURL, token string) (string, error) {
	c, err := mastoclient.New(ctx, &masto.Config{
		InstanceURL: instanceURL,
		AccessToken: token,
		Logger:      newZapLogger(currentLogger()),
		UserAgent:   userAgent,
	})
	if err != nil {
		return "", err
	}

	resp, err := c.Dispatcher().Dispatch(ctx, masto.NewAction(masto.ActionRead, verifyAppCredentialsPath, nil))
	if err != nil {
		return "", err
	}

	return gjson.GetBytes(resp.Body, "name").String(), nil
}
