package models

// WriteOutcome is the result of committing a record to the store.
type WriteOutcome string

const (
	WriteOutcomeSuccess     WriteOutcome = "success"
	WriteOutcomeRejected    WriteOutcome = "rejected"
	WriteOutcomeUnavailable WriteOutcome = "unavailable"
	WriteOutcomeUnknown     WriteOutcome = "unknown"
)

// WriteResult is returned to the input surface after a commit.
type WriteResult struct {
	Outcome WriteOutcome     `json:"outcome"`
	Record  NormalizedRecord `json:"record"`
	Message string           `json:"message"`
}

// OK reports whether the record was accepted.
func (r WriteResult) OK() bool {
	return r.Outcome == WriteOutcomeSuccess
}

// OutcomeOf maps a store error onto a write outcome.
func OutcomeOf(err error) WriteOutcome {
	if err == nil {
		return WriteOutcomeSuccess
	}
	if IsRejected(err) {
		return WriteOutcomeRejected
	}
	switch KindOf(err) {
	case ErrorKindConnection, ErrorKindStoreTimeout:
		return WriteOutcomeUnavailable
	default:
		return WriteOutcomeUnknown
	}
}
