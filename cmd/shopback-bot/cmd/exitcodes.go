package cmd

import (
	"errors"

	"github.com/wdzeng/shopback-bot/internal/credential"
	"github.com/wdzeng/shopback-bot/internal/shopback"
)

// Process exit codes, one per fatal failure class so wrapping scripts can
// react without parsing output.
const (
	exitUnknown           = 1
	exitEmptyResult       = 3
	exitInvalidCredential = 4
	exitNotLoggedIn       = 5
	exitNotInTaiwan       = 6
	exitAPIError          = 7
)

// errEmptyResult is returned by commands when no offer matched and --force
// was not given.
var errEmptyResult = errors.New("no offers found")

func exitCode(err error) int {
	if errors.Is(err, errEmptyResult) {
		return exitEmptyResult
	}

	var (
		invalidCred *credential.InvalidCredentialError
		notLoggedIn *shopback.NotLoggedInError
		notInTaiwan *shopback.UserNotInTaiwanError
		apiErr      *shopback.APIError
	)
	switch {
	case errors.As(err, &invalidCred):
		return exitInvalidCredential
	case errors.As(err, &notLoggedIn):
		return exitNotLoggedIn
	case errors.As(err, &notInTaiwan):
		return exitNotInTaiwan
	case errors.As(err, &apiErr):
		return exitAPIError
	}
	return exitUnknown
}
