package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/buildsched/buildsched/internal/transition"
)

func TestParseOutcome_Good(t *testing.T) {
	o, err := parseOutcome("good")
	assert.NoError(t, err)
	assert.Equal(t, transition.OutcomeGood, o)
}

func TestParseOutcome_Bad(t *testing.T) {
	o, err := parseOutcome("bad")
	assert.NoError(t, err)
	assert.Equal(t, transition.OutcomeBad, o)
}

func TestParseOutcome_IsCaseInsensitive(t *testing.T) {
	o, err := parseOutcome("GOOD")
	assert.NoError(t, err)
	assert.Equal(t, transition.OutcomeGood, o)
}

func TestParseOutcome_RejectsUnknownValue(t *testing.T) {
	_, err := parseOutcome("maybe")
	assert.ErrorIs(t, err, ErrInvalidResult)
}

func TestParseOutcome_RejectsEmptyValue(t *testing.T) {
	_, err := parseOutcome("")
	assert.ErrorIs(t, err, ErrInvalidResult)
}
