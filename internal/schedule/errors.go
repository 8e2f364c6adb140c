package schedule

import "errors"

// Per-pick failures. Both are recovered inside the scheduler via retries
// and fallbacks and surface only in logs; they never abort a video.
var (
	// ErrNoCandidateSegment means no free range could host the desired
	// duration in any eligible source, even ignoring usage history.
	ErrNoCandidateSegment = errors.New("no candidate segment available")

	// ErrClipTooShort means every source is shorter than the requested
	// clip duration, so the pick is skipped.
	ErrClipTooShort = errors.New("no source long enough for requested clip")
)
