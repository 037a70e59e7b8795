package core

import "errors"

// Sentinel errors for the routing and failure paths. None of these are fatal
// to the process; callers map them to user-facing replies via errors.Is.
var (
	// ErrValidation means a questionnaire answer could not be accepted. It is
	// recovered locally with a re-prompt and never surfaced as a hard failure.
	ErrValidation = errors.New("invalid questionnaire answer")

	// ErrNoActiveSession is a routing signal: the user has no questionnaire
	// in progress, so the input belongs to the analysis pipeline instead.
	ErrNoActiveSession = errors.New("no active questionnaire session")

	// ErrConfiguration signals an authoring bug in the score band table. The
	// user must see a generic fallback message, never this error.
	ErrConfiguration = errors.New("score bands do not cover the computed score")

	// ErrUnknownUser means the user has not registered with /start yet.
	ErrUnknownUser = errors.New("unknown user")

	// ErrAnalysisUnavailable means the inference collaborator failed. The
	// submitted content is still persisted before this is returned.
	ErrAnalysisUnavailable = errors.New("analysis service unavailable")
)
