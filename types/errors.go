package types

import (
	"errors"
	"fmt"
)

// Stage names the pipeline step that produced an error.
type Stage string

const (
	StageExtract  Stage = "extraction"
	StageChunk    Stage = "chunking"
	StageEmbed    Stage = "embedding"
	StageIndex    Stage = "indexing"
	StageRetrieve Stage = "retrieval"
	StageGenerate Stage = "generation"
	StageCatalog  Stage = "catalog"
)

// Kind classifies an error so the boundary layer can pick a response
// without inspecting cause strings.
type Kind int

const (
	// KindConfig: missing credentials or model identifiers. Not retriable.
	KindConfig Kind = iota
	// KindInput: bad input rejected before any network call.
	KindInput
	// KindProvider: a remote embedding/chat call failed. Propagated verbatim.
	KindProvider
	// KindState: an operation ran against missing state, e.g. retrieval
	// before any index was built. The caller should build, not retry.
	KindState
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "configuration error"
	case KindInput:
		return "input error"
	case KindProvider:
		return "provider error"
	case KindState:
		return "state error"
	}
	return "error"
}

// Error carries the failed stage, its kind, and the underlying cause.
type Error struct {
	Stage Stage
	Kind  Kind
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failed: %s: %v", e.Stage, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func E(stage Stage, kind Kind, err error) *Error {
	return &Error{Stage: stage, Kind: kind, Err: err}
}

func Ef(stage Stage, kind Kind, format string, args ...any) *Error {
	return &Error{Stage: stage, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// ErrNotReady signals that no index/chunk pair has been built or loaded yet.
var ErrNotReady = errors.New("no knowledge base has been built yet")

// KindOf reports the kind of err if it is (or wraps) a staged Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
