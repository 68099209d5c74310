package obslog

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttributeFilter_IsAllowed_KnownPrefixesPass(t *testing.T) {
	f := &attributeFilter{}

	for _, key := range []string{
		"buildsched.commit", "error.message", "vcs.ref", "repo.path",
		"commit.hash", "platform", "branch", "builder", "strategy", "state",
	} {
		assert.True(t, f.isAllowed(key), "key %q should be allowed", key)
	}
}

func TestAttributeFilter_IsAllowed_BareErrorPasses(t *testing.T) {
	f := &attributeFilter{}
	assert.True(t, f.isAllowed("error"))
}

func TestAttributeFilter_IsAllowed_BlockedKeyIsStripped(t *testing.T) {
	f := &attributeFilter{}
	assert.False(t, f.isAllowed("email"))
}

func TestAttributeFilter_IsAllowed_BlockedPrefixIsStripped(t *testing.T) {
	f := &attributeFilter{}
	assert.False(t, f.isAllowed("user.name"))
}

func TestAttributeFilter_IsAllowed_UnknownKeyIsStripped(t *testing.T) {
	f := &attributeFilter{}
	assert.False(t, f.isAllowed("something.unlisted"))
}

func TestAttributeFilter_IsAllowed_BlockedKeyLogsWarning(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	f := &attributeFilter{logger: logger}

	assert.False(t, f.isAllowed("email"))
	assert.Contains(t, buf.String(), "attribute blocked by filter")
	assert.Contains(t, buf.String(), "email")
}

func TestAttributeFilter_IsAllowed_NilLoggerDoesNotPanic(t *testing.T) {
	f := &attributeFilter{}
	assert.NotPanics(t, func() {
		f.isAllowed("email")
	})
}
