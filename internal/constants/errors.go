package constants

import "errors"

// Instance and configuration errors.
var (
	ErrNoInstancesConfigured = errors.New("no instances configured, use 'masto instances add' to add one")
	ErrInstanceNotFound      = errors.New("instance configuration not found")
	ErrInstanceExists        = errors.New("instance already exists")
	ErrNoInstanceURL         = errors.New("no instance URL configured, use --instance or 'masto instances use'")
	ErrUnknownConfigKey      = errors.New("unknown configuration key")
)

// Authentication errors.
var (
	ErrNoCredentials     = errors.New("no credentials provided, use --token or --client-id and --client-secret")
	ErrEmptyToken        = errors.New("access token must not be empty")
	ErrNoClientSecret    = errors.New("--client-secret is required with --client-id")
	ErrNoTokenInResponse = errors.New("token response did not contain an access token")
)

// Validation errors.
var (
	ErrInvalidFocus        = errors.New("invalid focus, expected x,y with each coordinate in [-1, 1]")
	ErrInvalidOutputFormat = errors.New("invalid output format, expected table, json or yaml")
	ErrInvalidBoolean      = errors.New("invalid boolean value, expected true or false")
	ErrNothingToUpdate     = errors.New("nothing to update, pass at least one flag")
	ErrFieldNotFound       = errors.New("field not found in response")
	ErrForceRequired       = errors.New("this removes data on the server, pass --force to confirm")
)

