package gate

// Placement is anything hung on a tree by a participant.
type Placement interface {
	PlacedBy() string
}

// HasSubmitted reports whether any placement belongs to participantID.
// An empty participantID never matches.
func HasSubmitted[P Placement](placements []P, participantID string) bool {
	if participantID == "" {
		return false
	}
	for _, p := range placements {
		if p.PlacedBy() == participantID {
			return true
		}
	}
	return false
}

// SubmissionState is the outcome of checking whether a participant already
// decorated a tree.
type SubmissionState int

const (
	// SubmissionUnknown means the placement list could not be loaded.
	SubmissionUnknown SubmissionState = iota
	// SubmissionNone means the list loaded and holds nothing from the participant.
	SubmissionNone
	// SubmissionDone means the participant already has a placement on the tree.
	SubmissionDone
)

func (s SubmissionState) String() string {
	switch s {
	case SubmissionNone:
		return "not submitted"
	case SubmissionDone:
		return "submitted"
	default:
		return "unknown"
	}
}

// Submission carries the state together with the load error that caused
// SubmissionUnknown, so a caller can offer a retry.
type Submission struct {
	State SubmissionState
	Err   error
}

// CheckSubmission runs HasSubmitted over a freshly loaded list. A non-nil
// loadErr yields SubmissionUnknown regardless of placements.
func CheckSubmission[P Placement](placements []P, loadErr error, participantID string) Submission {
	if loadErr != nil {
		return Submission{State: SubmissionUnknown, Err: loadErr}
	}
	if HasSubmitted(placements, participantID) {
		return Submission{State: SubmissionDone}
	}
	return Submission{State: SubmissionNone}
}

// Blocked reports whether further placements must be refused. Unknown is
// treated as not submitted so a flaky list load never locks anyone out.
func (s Submission) Blocked() bool {
	return s.State == SubmissionDone
}
