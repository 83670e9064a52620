package git

import "errors"

// Error taxonomy of the analysis core. Not-found conditions surface as the
// underlying go-git plumbing errors; everything here propagates to the
// command layer unmodified, with no retries and no local recovery.
var (
	// ErrUnrelatedHistories is returned when two tips share no common
	// ancestor. Distinct from "no divergence": empty ahead/behind sets are
	// only valid relative to an existing merge base.
	ErrUnrelatedHistories = errors.New("tips share no common ancestor")

	// ErrNegotiationRejected is returned when a push would overwrite remote
	// state the caller did not expect.
	ErrNegotiationRejected = errors.New("remote tip does not match expected commit")

	// ErrMalformedSequencer is returned when the rebase todo file fails to
	// parse. Partial sequencer state is misleading, so a single bad line
	// fails the whole read.
	ErrMalformedSequencer = errors.New("malformed sequencer file")

	// ErrInvalidPath is returned when a changed path is not valid UTF-8.
	// Entry identity must stay unambiguous, so classification fails whole.
	ErrInvalidPath = errors.New("path is not valid text")
)
