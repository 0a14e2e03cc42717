package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidSource = errors.New("invalid source url")
	ErrConfigMissing = errors.New("missing configuration")
	ErrNoToken       = errors.New("no tiktok token")
)
