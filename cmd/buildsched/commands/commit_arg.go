package commands

import (
	"errors"
	"fmt"

	"github.com/buildsched/buildsched/internal/vcsref"
)

// ErrMalformedCommit reports a commit argument that isn't a 40-character
// hex string.
var ErrMalformedCommit = errors.New("malformed commit identifier")

// ErrInvalidResult reports a --result value other than "good" or "bad".
var ErrInvalidResult = errors.New("invalid --result value")

// ErrInvalidFormat reports a --format value other than "text", "json", or
// "yaml".
var ErrInvalidFormat = errors.New("invalid --format value")

// parseCommit validates and decodes a commit hash argument.
func parseCommit(raw string) (vcsref.Hash, error) {
	if len(raw) != vcsref.HashHexSize {
		return vcsref.Hash{}, fmt.Errorf("%w: %q", ErrMalformedCommit, raw)
	}

	for _, c := range raw {
		isHex := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
		if !isHex {
			return vcsref.Hash{}, fmt.Errorf("%w: %q", ErrMalformedCommit, raw)
		}
	}

	return vcsref.NewHash(raw), nil
}
