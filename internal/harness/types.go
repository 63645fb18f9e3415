package harness

// TraceEvent records one executed step.
type TraceEvent struct {
	Seq    int               `json:"seq"`
	Action string            `json:"action"`
	Args   map[string]string `json:"args,omitempty"`

	// Outcome is "ok" or the error kind the step failed with.
	Outcome string `json:"outcome"`

	// State is the checkout state after the step.
	State string `json:"state"`

	// Total is the cart total after the step.
	Total string `json:"total"`

	// Sale is the ID of the sale recorded by the step, if any.
	Sale string `json:"sale,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	Trace []TraceEvent `json:"trace"`

	// Errors contains mismatch messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a mismatch and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
