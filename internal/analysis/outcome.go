package analysis

// Outcome is the result of running one task: a Success carrying a payload,
// or a Failure carrying the last error and the attempts made.
type Outcome struct {
	Kind     Kind
	Payload  Payload
	Err      error
	Attempts int
}

// Success builds a successful outcome.
func Success(p Payload) Outcome {
	return Outcome{Kind: p.Kind(), Payload: p, Attempts: 1}
}

// Failure builds a failed outcome.
func Failure(k Kind, err error, attempts int) Outcome {
	return Outcome{Kind: k, Err: err, Attempts: attempts}
}

// OK reports whether the outcome is a Success.
func (o Outcome) OK() bool {
	return o.Err == nil && o.Payload != nil
}
