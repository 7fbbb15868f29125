package main

// Exit codes mirror the error kinds in internal/rderrors.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (bad arguments, IO failure, malformed input)
	ExitConfigError = 2 // ConfigurationError
	ExitDataError   = 3 // CalibrationError
)
