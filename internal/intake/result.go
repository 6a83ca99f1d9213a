package intake

// Outcome discriminates the result of a submission.
type Outcome string

const (
	OutcomeSuccess          Outcome = "success"
	OutcomeValidationFailed Outcome = "validation_failed"
	OutcomePersistFailed    Outcome = "persist_failed"
	OutcomeNotifyFailed     Outcome = "notify_failed"
	// OutcomeInternalError covers failures outside the three pipeline steps.
	OutcomeInternalError Outcome = "internal_error"
)

// Result is what Submit reports back to the transport layer.
//
// ApplicationID is set for Success and NotifyFailed, FieldErrors only for
// ValidationFailed. Err holds the step error for every failed outcome.
type Result struct {
	Outcome       Outcome
	ApplicationID string
	FieldErrors   map[string][]string
	Err           error
}

// Stored reports whether a record was written.
func (r Result) Stored() bool {
	return r.Outcome == OutcomeSuccess || r.Outcome == OutcomeNotifyFailed
}
