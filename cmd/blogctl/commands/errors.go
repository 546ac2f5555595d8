package commands

import "errors"

// Static errors for err113 compliance.
var (
	ErrNoAPIConfigured    = errors.New("no API configured; pass --api or run 'blogctl config set api_url URL'")
	ErrUnknownConfigKey   = errors.New("unknown configuration key")
	ErrInvalidConfigValue = errors.New("invalid configuration value")
	ErrUsernameRequired   = errors.New("username is required")
	ErrLoginRequired      = errors.New("not logged in; run 'blogctl login' first")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrNothingToUpdate    = errors.New("nothing to update; pass at least one field flag")
	ErrRequiredFlag       = errors.New("required flag missing")
	ErrDeleteFailed       = errors.New("delete failed")
	ErrInvalidHeader      = errors.New("header must be 'Name: value'")
)
