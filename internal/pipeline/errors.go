package pipeline

import "errors"

// Pipeline errors. All of these are fatal to the submission: the graph
// aborts, no commit happens, and the submission is marked error. Individual
// task failures are fail-soft and never surface here.
var (
	ErrParseFailed        = errors.New("ai parse failed")
	ErrValidateCallFailed = errors.New("ai validation call failed")
	ErrCommitFailed       = errors.New("result commit failed")
	ErrMissingState       = errors.New("missing pipeline state")
)
