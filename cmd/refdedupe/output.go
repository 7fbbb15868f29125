package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/matsen/refdedupe/internal/rderrors"
)

// outputJSON writes a value as indented JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ErrorResponse is the JSON shape of a command-level failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

// exitWithError prints err in the active output format and exits with
// the exit code its rderrors.Kinded kind maps to, or ExitError for any
// other error.
func exitWithError(err error) {
	msg := err.Error()
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(exitCodeFor(err))
}

func exitCodeFor(err error) int {
	kinded, ok := err.(rderrors.Kinded)
	if !ok {
		return ExitError
	}
	switch kinded.Kind() {
	case "configuration":
		return ExitConfigError
	case "calibration":
		return ExitDataError
	default:
		return ExitError
	}
}
