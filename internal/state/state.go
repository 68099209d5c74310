// Package state defines the per-commit build state recorded in the
// annotation store, and the tagged-JSON wire encoding it uses on disk.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// State is the outcome recorded against a single commit.
type State string

// The full set of states a commit can be in, per the range-painting and
// bisection rules.
const (
	Bad              State = "BAD"
	Good             State = "GOOD"
	AssumedGood      State = "ASSUMED_GOOD"
	AssumedBad       State = "ASSUMED_BAD"
	PossiblyBreaking State = "POSSIBLY_BREAKING"
	PossiblyFixing   State = "POSSIBLY_FIXING"
	Unknown          State = "UNKNOWN"
	Running          State = "RUNNING"
	Breaking         State = "BREAKING"
)

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	switch s {
	case Bad, Good, AssumedGood, AssumedBad, PossiblyBreaking, PossiblyFixing, Unknown, Running, Breaking:
		return true
	default:
		return false
	}
}

// ErrUnknownState is returned when a CommitState carries a State outside
// the known set, e.g. when decoding a corrupt or foreign note.
var ErrUnknownState = errors.New("unknown commit state")

// CommitState is the full annotation recorded against a commit.
type CommitState struct {
	State             State      `json:"state"`
	Builder           string     `json:"builder,omitempty"`
	Started           *Timestamp `json:"started,omitempty"`
	Finished          *Timestamp `json:"finished,omitempty"`
	EstimatedDuration *Duration  `json:"estimated_duration,omitempty"`
	ArtifactReference string     `json:"artifactreference,omitempty"`
}

// NewCommitState returns the zero-value annotation: UNKNOWN, no timestamps.
func NewCommitState() CommitState {
	return CommitState{State: Unknown}
}

// Validate checks that the state field is one of the known states.
func (c CommitState) Validate() error {
	if !c.State.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownState, c.State)
	}

	return nil
}

// Timestamp wraps time.Time with the tagged-array wire encoding
// ["__datetime__", seconds_since_epoch], matching the annotation store's
// historical serialization contract.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t as a Timestamp.
func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{Time: t}
}

const datetimeTag = "__datetime__"

// MarshalJSON encodes the timestamp as ["__datetime__", secs].
func (t Timestamp) MarshalJSON() ([]byte, error) {
	secs := float64(t.Time.UnixNano()) / float64(time.Second)

	out, err := json.Marshal([2]any{datetimeTag, secs})
	if err != nil {
		return nil, fmt.Errorf("marshal timestamp: %w", err)
	}

	return out, nil
}

// UnmarshalJSON decodes ["__datetime__", secs] into a UTC time.Time.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var tagged [2]json.RawMessage

	err := json.Unmarshal(data, &tagged)
	if err != nil {
		return fmt.Errorf("unmarshal timestamp envelope: %w", err)
	}

	var tag string

	err = json.Unmarshal(tagged[0], &tag)
	if err != nil {
		return fmt.Errorf("unmarshal timestamp tag: %w", err)
	}

	if tag != datetimeTag {
		return fmt.Errorf("%w: %q", errBadTag, tag)
	}

	var secs float64

	err = json.Unmarshal(tagged[1], &secs)
	if err != nil {
		return fmt.Errorf("unmarshal timestamp value: %w", err)
	}

	whole := int64(secs)
	frac := secs - float64(whole)
	t.Time = time.Unix(whole, int64(frac*float64(time.Second))).UTC()

	return nil
}

// Duration wraps time.Duration with the tagged-array wire encoding
// ["__timedelta__", seconds].
type Duration struct {
	time.Duration
}

// NewDuration wraps d as a Duration.
func NewDuration(d time.Duration) *Duration {
	return &Duration{Duration: d}
}

const timedeltaTag = "__timedelta__"

var errBadTag = errors.New("unexpected tagged-array type marker")

// MarshalJSON encodes the duration as ["__timedelta__", secs].
func (d Duration) MarshalJSON() ([]byte, error) {
	secs := d.Duration.Seconds()

	out, err := json.Marshal([2]any{timedeltaTag, secs})
	if err != nil {
		return nil, fmt.Errorf("marshal duration: %w", err)
	}

	return out, nil
}

// UnmarshalJSON decodes ["__timedelta__", secs] into a time.Duration.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var tagged [2]json.RawMessage

	err := json.Unmarshal(data, &tagged)
	if err != nil {
		return fmt.Errorf("unmarshal duration envelope: %w", err)
	}

	var tag string

	err = json.Unmarshal(tagged[0], &tag)
	if err != nil {
		return fmt.Errorf("unmarshal duration tag: %w", err)
	}

	if tag != timedeltaTag {
		return fmt.Errorf("%w: %q", errBadTag, tag)
	}

	var secs float64

	err = json.Unmarshal(tagged[1], &secs)
	if err != nil {
		return fmt.Errorf("unmarshal duration value: %w", err)
	}

	d.Duration = time.Duration(secs * float64(time.Second))

	return nil
}

// Encode serializes a CommitState to its wire JSON form.
func Encode(c CommitState) ([]byte, error) {
	out, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode commit state: %w", err)
	}

	return out, nil
}

// Decode parses the wire JSON form of a CommitState. An empty payload
// (e.g. a commit with no note yet) decodes to the zero UNKNOWN state.
func Decode(data []byte) (CommitState, error) {
	if len(data) == 0 {
		return NewCommitState(), nil
	}

	var c CommitState

	err := json.Unmarshal(data, &c)
	if err != nil {
		return CommitState{}, fmt.Errorf("decode commit state: %w", err)
	}

	if c.State == "" {
		c.State = Unknown
	}

	return c, nil
}
