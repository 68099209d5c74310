package main

import (
	"errors"

	"github.com/buildsched/buildsched/cmd/buildsched/commands"
	"github.com/buildsched/buildsched/internal/config"
	"github.com/buildsched/buildsched/internal/transition"
	"github.com/buildsched/buildsched/internal/vcsref"
)

// Exit codes. 0 is success; everything else maps one error kind to one
// code so scripts driving this CLI can branch on failure category.
const (
	exitOK              = 0
	exitValidationError = 1
	exitTransportError  = 2
	exitInvariantError  = 3
	exitUnexpectedError = 4
)

// exitCodeFor classifies err into one of the exit codes above, per the
// error-kind taxonomy: validation errors, transport failures, and
// invariant violations each map to a distinct nonzero code.
func exitCodeFor(err error) int {
	if err == nil {
		return exitOK
	}

	switch {
	case errors.Is(err, config.ErrMissingRepo),
		errors.Is(err, config.ErrMissingBranch),
		errors.Is(err, config.ErrMissingPlatform),
		errors.Is(err, config.ErrNegativeEstimate),
		errors.Is(err, transition.ErrUnknownOutcome),
		errors.Is(err, commands.ErrMalformedCommit),
		errors.Is(err, commands.ErrInvalidResult),
		errors.Is(err, commands.ErrInvalidFormat):
		return exitValidationError
	case errors.Is(err, vcsref.ErrTransport):
		return exitTransportError
	case errors.Is(err, transition.ErrBisectPrecondition):
		return exitInvariantError
	default:
		return exitUnexpectedError
	}
}
