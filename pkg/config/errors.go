package config

import "errors"

var (
	// ErrParsingConfig indicates env.Parse failed for the given struct.
	ErrParsingConfig = errors.New("config: failed to parse environment variables")
	// ErrLoadingEnvFile indicates an explicitly named .env file could not be loaded.
	ErrLoadingEnvFile = errors.New("config: failed to load .env file")
	// ErrNilPointer indicates a nil pointer was passed to Load.
	ErrNilPointer = errors.New("config: nil pointer passed to Load")
)
