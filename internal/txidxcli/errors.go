package txidxcli

import "errors"

// Sentinel errors surfaced to the CLI user.
var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrDBPathEmpty        = errors.New("db-path cannot be empty")
	ErrUnknownParticipant = errors.New("no counts recorded for participant")
)
